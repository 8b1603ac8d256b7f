package config

import "time"

// Default values mirror the original deployment constants; all of them can be
// overridden in the config file.
const (
	DefaultReleasesDir = "doc-releases"
	DefaultAlias       = "current"
	DefaultRetention   = 5
	DefaultBuildDir    = "./build"
	DefaultHTMLSubdir  = "html-docs"
	DefaultPDFSubdir   = "pdf"
)

func (c *Config) applyDefaults() {
	if c.Source.Dir == "" {
		c.Source.Dir = "."
	}
	if c.Source.PagesDir == "" {
		c.Source.PagesDir = "src/modules/ROOT/pages"
	}
	if c.Source.PartialsDir == "" {
		c.Source.PartialsDir = "src/modules/ROOT/partials"
	}

	if c.Build.Dir == "" {
		c.Build.Dir = DefaultBuildDir
	}
	if c.Build.HTMLSubdir == "" {
		c.Build.HTMLSubdir = DefaultHTMLSubdir
	}
	if c.Build.PDFSubdir == "" {
		c.Build.PDFSubdir = DefaultPDFSubdir
	}
	if c.Build.SingleSubdir == "" {
		c.Build.SingleSubdir = "single"
	}
	if c.Build.Compiler.HTMLBin == "" {
		c.Build.Compiler.HTMLBin = "asciidoctor"
	}
	if c.Build.Compiler.PDFBin == "" {
		c.Build.Compiler.PDFBin = "asciidoctor-pdf"
	}
	if c.Build.Site.Bin == "" {
		c.Build.Site.Bin = "antora"
	}
	if c.Build.Site.Playbook == "" {
		c.Build.Site.Playbook = "antora-playbook.yml"
	}

	if c.Nav.OutFile == "" {
		c.Nav.OutFile = "src/modules/ROOT/nav.adoc"
	}
	if c.Nav.MaxDepth == 0 {
		c.Nav.MaxDepth = 4
	}
	if len(c.Nav.SectionLevels) == 0 {
		c.Nav.SectionLevels = []int{3}
	}
	if c.Nav.IgnoreTitles == nil {
		c.Nav.IgnoreTitles = []string{"description", "options", "example", "examples", "notes", "see also"}
	}

	if c.Deploy.ReleasesDir == "" {
		c.Deploy.ReleasesDir = DefaultReleasesDir
	}
	if c.Deploy.Alias == "" {
		c.Deploy.Alias = DefaultAlias
	}
	if c.Deploy.Retention == 0 {
		c.Deploy.Retention = DefaultRetention
	}
	if c.Deploy.LockTTL == 0 {
		c.Deploy.LockTTL = Duration(30 * time.Minute)
	}

	if c.Notify.Subject == "" {
		c.Notify.Subject = "docship.published"
	}

	if c.History.Path == "" {
		c.History.Path = ".docship/history.db"
	}

	if c.Daemon.Debounce == 0 {
		c.Daemon.Debounce = Duration(2 * time.Second)
	}
}
