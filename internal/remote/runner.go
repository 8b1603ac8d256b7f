// Package remote is the trusted remote-execution channel for the publisher:
// commands on the deployment host run over ssh, trees are synchronized with
// rsync. Subprocess execution sits behind Runner so tests can intercept it.
package remote

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Runner abstracts subprocess execution.
type Runner interface {
	// Run executes the named binary and returns its stdout.
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs subprocesses with exec.CommandContext.
type ExecRunner struct {
	// Dir, when set, is the working directory for every command.
	Dir string
}

func (r ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = r.Dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return stdout.Bytes(), fmt.Errorf("%s %s: %w: %s",
			name, strings.Join(args, " "), err, tail(stderr.String(), 512))
	}
	return stdout.Bytes(), nil
}

// tail returns at most n trailing bytes of s, trimmed.
func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) > n {
		s = "..." + s[len(s)-n:]
	}
	return s
}
