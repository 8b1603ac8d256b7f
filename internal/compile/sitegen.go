package compile

import (
	"context"

	"git.home.luguber.info/inful/docship/internal/config"
	pkgerrors "git.home.luguber.info/inful/docship/internal/errors"
	"git.home.luguber.info/inful/docship/internal/remote"
)

// SiteGenerator produces the chunked multi-page site from a playbook and the
// generated navigation descriptor.
type SiteGenerator struct {
	cfg    config.SiteConfig
	runner remote.Runner
}

// NewSiteGenerator creates a site generator; a nil runner defaults to
// subprocess execution.
func NewSiteGenerator(cfg config.SiteConfig, runner remote.Runner) *SiteGenerator {
	if runner == nil {
		runner = remote.ExecRunner{}
	}
	return &SiteGenerator{cfg: cfg, runner: runner}
}

func (g *SiteGenerator) args(outDir string) []string {
	return []string{"--to-dir", outDir, g.cfg.Playbook}
}

// Generate writes the multi-page site tree to outDir.
func (g *SiteGenerator) Generate(ctx context.Context, outDir string) error {
	if _, err := g.runner.Run(ctx, g.cfg.Bin, g.args(outDir)...); err != nil {
		return pkgerrors.Wrap(err, pkgerrors.CategoryCompile, pkgerrors.SeverityFatal,
			"generate multi-page site")
	}
	return nil
}
