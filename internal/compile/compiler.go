// Package compile invokes the external document compiler and static-site
// generator. Their rendering semantics are out of scope here; this package
// owns only the flag sets and error classification.
package compile

import (
	"context"
	"fmt"
	"sort"

	"git.home.luguber.info/inful/docship/internal/config"
	pkgerrors "git.home.luguber.info/inful/docship/internal/errors"
	"git.home.luguber.info/inful/docship/internal/remote"
)

// Compiler converts AsciiDoc masters into single-page HTML and themed PDF
// outputs.
type Compiler struct {
	cfg    config.CompilerConfig
	runner remote.Runner
}

// NewCompiler creates a compiler; a nil runner defaults to subprocess
// execution.
func NewCompiler(cfg config.CompilerConfig, runner remote.Runner) *Compiler {
	if runner == nil {
		runner = remote.ExecRunner{}
	}
	return &Compiler{cfg: cfg, runner: runner}
}

// htmlArgs is the single-page HTML flag set.
func (c *Compiler) htmlArgs(master, outDir string) []string {
	args := []string{"-a", "toc=left"}
	args = append(args, c.extraAttributes()...)
	return append(args, "-D", outDir, master)
}

// pdfArgs is the themed PDF flag set: title page, 3-level table of contents,
// lists of figures and tables.
func (c *Compiler) pdfArgs(master, outDir string) []string {
	args := []string{
		"-a", "title-page",
		"-a", "toc",
		"-a", "toclevels=3",
		"-a", "lof",
		"-a", "lot",
	}
	if c.cfg.PDFTheme != "" {
		args = append(args, "-a", "pdf-theme="+c.cfg.PDFTheme)
	}
	args = append(args, c.extraAttributes()...)
	return append(args, "-D", outDir, master)
}

func (c *Compiler) extraAttributes() []string {
	if len(c.cfg.Attributes) == 0 {
		return nil
	}
	keys := make([]string, 0, len(c.cfg.Attributes))
	for k := range c.cfg.Attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var args []string
	for _, k := range keys {
		if v := c.cfg.Attributes[k]; v != "" {
			args = append(args, "-a", k+"="+v)
		} else {
			args = append(args, "-a", k)
		}
	}
	return args
}

// HTML compiles master into single-page HTML under outDir.
func (c *Compiler) HTML(ctx context.Context, master, outDir string) error {
	if _, err := c.runner.Run(ctx, c.cfg.HTMLBin, c.htmlArgs(master, outDir)...); err != nil {
		return pkgerrors.Wrap(err, pkgerrors.CategoryCompile, pkgerrors.SeverityFatal,
			fmt.Sprintf("compile %s to HTML", master))
	}
	return nil
}

// PDF compiles master into a themed PDF under outDir.
func (c *Compiler) PDF(ctx context.Context, master, outDir string) error {
	if _, err := c.runner.Run(ctx, c.cfg.PDFBin, c.pdfArgs(master, outDir)...); err != nil {
		return pkgerrors.Wrap(err, pkgerrors.CategoryCompile, pkgerrors.SeverityFatal,
			fmt.Sprintf("compile %s to PDF", master))
	}
	return nil
}
