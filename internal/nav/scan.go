package nav

import (
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	includePattern = regexp.MustCompile(`include::([^\[\]]+)\[\]`)
	headingPattern = regexp.MustCompile(`^(=+)\s+(.+)$`)
)

// heading is one in-page section heading.
type heading struct {
	Level  int
	Anchor string
	Title  string
}

func readLines(path string) []string {
	data, err := os.ReadFile(path)
	if err != nil {
		slog.Warn("Could not read source document", "path", path, "error", err)
		return nil
	}
	return strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")
}

// skippable lines carry no structure: blanks, comments, attribute entries,
// and include directives.
func skippable(line string) bool {
	return line == "" ||
		strings.HasPrefix(line, "//") ||
		strings.HasPrefix(line, ":") ||
		strings.HasPrefix(line, "include::")
}

func explicitAnchor(line string) (string, bool) {
	if strings.HasPrefix(line, "[[") && strings.HasSuffix(line, "]]") {
		return strings.TrimSpace(line[2 : len(line)-2]), true
	}
	return "", false
}

// extractIncludes returns resolved include targets of a file, skipping
// partials and missing files.
func (g *Generator) extractIncludes(path string) []string {
	var includes []string
	for _, line := range readLines(path) {
		m := includePattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		target := filepath.Clean(filepath.Join(filepath.Dir(path), strings.TrimSpace(m[1])))
		if g.partialsDir != "" && strings.HasPrefix(target, g.partialsDir+string(filepath.Separator)) {
			continue
		}
		if _, err := os.Stat(target); err != nil {
			slog.Warn("Include file not found", "path", target)
			continue
		}
		includes = append(includes, target)
	}
	return includes
}

// titleAndAnchor extracts a page's title and anchor. With preferDocTitle the
// document title ("= ") is used; otherwise the first heading of level >= 2.
// An explicit [[id]] immediately preceding the heading wins over a derived
// anchor.
func titleAndAnchor(path string, preferDocTitle bool) (string, string) {
	lines := readLines(path)
	anchor := ""

	for i := 0; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if skippable(line) {
			continue
		}
		if a, ok := explicitAnchor(line); ok {
			anchor = a
			continue
		}
		m := headingPattern.FindStringSubmatch(line)
		if m == nil {
			// prose before any heading resets a pending anchor
			anchor = ""
			continue
		}
		level := len(m[1])
		title := strings.TrimSpace(m[2])
		if preferDocTitle {
			if level == 1 {
				if anchor == "" {
					anchor = anchorFromTitle(title)
				}
				return title, anchor
			}
			continue
		}
		if level >= 2 {
			if anchor == "" {
				anchor = anchorFromTitle(title)
			}
			return title, anchor
		}
	}
	return "Untitled", anchor
}

// sectionHeadings collects in-page headings at the allowed levels, honoring
// explicit [[id]] anchors and the ignore-title set.
func (g *Generator) sectionHeadings(path string) []heading {
	var results []heading
	pendingAnchor := ""

	for _, raw := range readLines(path) {
		line := strings.TrimSpace(raw)
		if a, ok := explicitAnchor(line); ok {
			pendingAnchor = a
			continue
		}
		if skippable(line) {
			continue
		}
		m := headingPattern.FindStringSubmatch(line)
		if m == nil {
			pendingAnchor = ""
			continue
		}
		level := len(m[1])
		title := strings.TrimSpace(m[2])
		if title != "" && !g.ignoreTitles[strings.ToLower(title)] && g.sectionLevels[level] {
			anchor := pendingAnchor
			if anchor == "" {
				anchor = anchorFromTitle(title)
			}
			results = append(results, heading{Level: level, Anchor: anchor, Title: title})
		}
		pendingAnchor = ""
	}
	return results
}

// isAggregator detects pages that exist to stitch chapters together: at
// least one include and no chapter-level headings of their own.
func (g *Generator) isAggregator(path string) bool {
	if len(g.extractIncludes(path)) == 0 {
		return false
	}
	for _, raw := range readLines(path) {
		if strings.HasPrefix(strings.TrimSpace(raw), "=== ") {
			return false
		}
	}
	return true
}
