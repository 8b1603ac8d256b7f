// Package config loads and validates the docship configuration file.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Source  SourceConfig  `yaml:"source"`
	Build   BuildConfig   `yaml:"build"`
	Nav     NavConfig     `yaml:"nav"`
	Deploy  DeployConfig  `yaml:"deploy"`
	Notify  NotifyConfig  `yaml:"notify"`
	History HistoryConfig `yaml:"history"`
	Daemon  DaemonConfig  `yaml:"daemon"`
}

// SourceConfig locates the AsciiDoc documentation tree.
type SourceConfig struct {
	// Dir is the checkout root (also where the source commit is read from).
	Dir string `yaml:"dir"`
	// PagesDir holds the AsciiDoc pages, relative to Dir.
	PagesDir string `yaml:"pages_dir,omitempty"`
	// PartialsDir holds shared partials excluded from navigation, relative to Dir.
	PartialsDir string `yaml:"partials_dir,omitempty"`
	// Masters are the top-level book documents, relative to PagesDir.
	Masters []string `yaml:"masters"`
}

// BuildConfig describes how the external compilers are invoked and where the
// local build output lives.
type BuildConfig struct {
	// Dir is the local build output directory uploaded by publish.
	Dir string `yaml:"dir,omitempty"`
	// HTMLSubdir is the chunked site tree inside Dir.
	HTMLSubdir string `yaml:"html_subdir,omitempty"`
	// PDFSubdir is the PDF tree inside Dir.
	PDFSubdir string `yaml:"pdf_subdir,omitempty"`
	// SingleSubdir is the single-page HTML tree inside Dir.
	SingleSubdir string `yaml:"single_subdir,omitempty"`

	Compiler CompilerConfig `yaml:"compiler,omitempty"`
	Site     SiteConfig     `yaml:"site,omitempty"`
}

// CompilerConfig names the document compiler binaries and PDF theme.
type CompilerConfig struct {
	HTMLBin    string            `yaml:"html_bin,omitempty"`
	PDFBin     string            `yaml:"pdf_bin,omitempty"`
	PDFTheme   string            `yaml:"pdf_theme,omitempty"`
	Attributes map[string]string `yaml:"attributes,omitempty"`
}

// SiteConfig names the static-site generator and its playbook.
type SiteConfig struct {
	Bin      string `yaml:"bin,omitempty"`
	Playbook string `yaml:"playbook,omitempty"`
}

// NavConfig tunes navigation generation.
type NavConfig struct {
	// OutFile is the generated navigation descriptor, relative to Source.Dir.
	OutFile string `yaml:"out_file,omitempty"`
	// MaxDepth clamps nav nesting.
	MaxDepth int `yaml:"max_depth,omitempty"`
	// SectionLevels are the heading levels listed as in-page sections.
	SectionLevels []int `yaml:"section_levels,omitempty"`
	// IgnoreTitles are headings never listed (case-insensitive).
	IgnoreTitles []string `yaml:"ignore_titles,omitempty"`
	// Aliases maps master (path or basename) -> shared page -> alias page.
	Aliases map[string]map[string]string `yaml:"aliases,omitempty"`
}

// DeployConfig describes the remote deployment target.
type DeployConfig struct {
	// Host is the ssh destination (host or user@host).
	Host string `yaml:"host"`
	// BaseDir is the root of the deployment area on the host.
	BaseDir string `yaml:"base_dir"`
	// ReleasesDir is the releases subdirectory under BaseDir.
	ReleasesDir string `yaml:"releases_dir,omitempty"`
	// Alias is the symlink name consumers resolve.
	Alias string `yaml:"alias,omitempty"`
	// Retention is the number of releases kept by cleanup.
	Retention int `yaml:"retention,omitempty"`
	// LockTTL bounds how long a publish lock is honored before being
	// considered stale.
	LockTTL Duration `yaml:"lock_ttl,omitempty"`
	// SSHBin / RsyncBin override the transport binaries.
	SSHBin   string `yaml:"ssh_bin,omitempty"`
	RsyncBin string `yaml:"rsync_bin,omitempty"`
}

// NotifyConfig configures the optional publish announcement.
type NotifyConfig struct {
	// NATSURL enables announcements when non-empty.
	NATSURL string `yaml:"nats_url,omitempty"`
	Subject string `yaml:"subject,omitempty"`
}

// HistoryConfig locates the local publish history database.
type HistoryConfig struct {
	Path string `yaml:"path,omitempty"`
}

// DaemonConfig configures scheduled publishes and source watching.
type DaemonConfig struct {
	// Schedule is a cron expression; empty disables scheduled publishes.
	Schedule string `yaml:"schedule,omitempty"`
	// MetricsAddr serves Prometheus metrics; empty disables the endpoint.
	MetricsAddr string `yaml:"metrics_addr,omitempty"`
	// Debounce coalesces bursts of source file events.
	Debounce Duration `yaml:"debounce,omitempty"`
}

// Load loads configuration from the specified file
func Load(configPath string) (*Config, error) {
	// Load .env files if present; existing environment wins.
	for _, envPath := range []string{".env", ".env.local"} {
		if _, err := os.Stat(envPath); err == nil {
			if err := godotenv.Load(envPath); err != nil {
				fmt.Fprintf(os.Stderr, "Note: %s couldn't be loaded: %v\n", envPath, err)
			}
			break
		}
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables in the YAML content
	expanded := os.ExpandEnv(string(data))

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
