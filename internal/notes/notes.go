// Package notes renders the Markdown release notes that accompany a publish.
package notes

import (
	"bytes"
	"fmt"
	"os"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	pkgerrors "git.home.luguber.info/inful/docship/internal/errors"
)

var md = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(html.WithHardWraps()),
)

// Render converts Markdown release notes into a standalone HTML page.
func Render(title string, source []byte) ([]byte, error) {
	var body bytes.Buffer
	if err := md.Convert(source, &body); err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CategoryCompile, pkgerrors.SeverityFatal,
			"render release notes")
	}

	var page bytes.Buffer
	fmt.Fprintf(&page, "<!DOCTYPE html>\n<html>\n<head><meta charset=\"utf-8\"><title>%s</title></head>\n<body>\n", title)
	page.Write(body.Bytes())
	page.WriteString("</body>\n</html>\n")
	return page.Bytes(), nil
}

// RenderFile renders the notes file at path, or returns (nil, nil) when no
// notes file exists.
func RenderFile(title, path string) ([]byte, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(err, pkgerrors.CategoryFileSystem, pkgerrors.SeverityFatal,
			"read release notes")
	}
	return Render(title, source)
}
