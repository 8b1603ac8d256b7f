package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorFormatting(t *testing.T) {
	e := New(CategoryTransfer, SeverityFatal, "rsync exited non-zero")
	want := "transfer (fatal): rsync exited non-zero"
	if e.Error() != want {
		t.Errorf("expected %q, got %q", want, e.Error())
	}

	cause := fmt.Errorf("connection reset")
	we := Wrap(cause, CategoryConnectivity, SeverityError, "ssh failed")
	if we.Error() != "connectivity (error): ssh failed: connection reset" {
		t.Errorf("unexpected wrapped message: %q", we.Error())
	}
}

func TestUnwrap(t *testing.T) {
	cause := fmt.Errorf("no route to host")
	we := Wrap(cause, CategoryConnectivity, SeverityFatal, "mkdir failed")
	if !errors.Is(we, cause) {
		t.Error("errors.Is should find the cause through Unwrap")
	}
}

func TestRetryable(t *testing.T) {
	if IsRetryable(New(CategoryActivation, SeverityFatal, "symlink swap failed")) {
		t.Error("plain errors must not be retryable")
	}
	if !IsRetryable(Retryable(CategoryConnectivity, SeverityError, "timeout")) {
		t.Error("Retryable constructor must produce retryable errors")
	}
	if IsRetryable(fmt.Errorf("opaque")) {
		t.Error("non-PublishError must not be retryable")
	}
}

func TestCategoryHelpers(t *testing.T) {
	e := New(CategoryCleanup, SeverityWarning, "rm failed")
	if !IsCategory(e, CategoryCleanup) {
		t.Error("IsCategory should match")
	}
	if IsCategory(e, CategoryTransfer) {
		t.Error("IsCategory should not match a different category")
	}
	if GetCategory(fmt.Errorf("x")) != CategoryInternal {
		t.Error("unknown errors default to internal category")
	}
}

func TestWithContext(t *testing.T) {
	e := New(CategoryTransfer, SeverityFatal, "upload failed").
		WithContext("release", "2026-Aug-23_10-00-00-ab12").
		WithContext("tree", "html-docs")
	if e.Context["tree"] != "html-docs" {
		t.Errorf("context not recorded: %v", e.Context)
	}
}
