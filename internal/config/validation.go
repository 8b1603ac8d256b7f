package config

import (
	"fmt"
	"strings"
)

// Validate checks the configuration for values a publish cannot proceed
// without, and for values that would corrupt remote paths.
func (c *Config) Validate() error {
	var problems []string

	if c.Deploy.Host == "" {
		problems = append(problems, "deploy.host is required")
	}
	if c.Deploy.BaseDir == "" {
		problems = append(problems, "deploy.base_dir is required")
	} else if !strings.HasPrefix(c.Deploy.BaseDir, "/") {
		problems = append(problems, "deploy.base_dir must be absolute")
	}
	if strings.ContainsAny(c.Deploy.ReleasesDir, "/ ") {
		problems = append(problems, "deploy.releases_dir must be a single path segment")
	}
	if strings.ContainsAny(c.Deploy.Alias, "/ ") {
		problems = append(problems, "deploy.alias must be a single path segment")
	}
	if c.Deploy.Retention < 0 {
		problems = append(problems, "deploy.retention must not be negative")
	}
	if c.Deploy.LockTTL < 0 {
		problems = append(problems, "deploy.lock_ttl must not be negative")
	}
	for _, level := range c.Nav.SectionLevels {
		if level < 2 || level > 6 {
			problems = append(problems, fmt.Sprintf("nav.section_levels: level %d out of range [2,6]", level))
		}
	}
	if c.Daemon.MetricsAddr != "" && !strings.Contains(c.Daemon.MetricsAddr, ":") {
		problems = append(problems, "daemon.metrics_addr must be host:port or :port")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}
