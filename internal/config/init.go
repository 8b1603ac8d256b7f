package config

import (
	"fmt"
	"os"
)

const configTemplate = `# docship configuration
source:
  dir: .
  pages_dir: src/modules/ROOT/pages
  partials_dir: src/modules/ROOT/partials
  masters:
    - usersguide/usersguide.adoc
    - installguide/installguide.adoc
    - referenceguide/referenceguide.adoc

build:
  dir: ./build
  compiler:
    pdf_theme: docs/theme.yml

deploy:
  host: ix
  base_dir: /research/projects/www/tauwww
  releases_dir: doc-releases
  alias: current
  retention: 5

# notify:
#   nats_url: nats://localhost:4222

# daemon:
#   schedule: "0 3 * * *"
#   metrics_addr: ":9477"
`

// Init writes a starter configuration file. Existing files are only
// overwritten with force.
func Init(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", path)
	}
	if err := os.WriteFile(path, []byte(configTemplate), 0o644); err != nil {
		return fmt.Errorf("write configuration file: %w", err)
	}
	return nil
}
