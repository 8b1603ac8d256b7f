// Package nav regenerates the navigation descriptor from the AsciiDoc
// masters: every book, its chapters, and their chapter-level sections become
// xref entries. Shared chapters can be aliased per book so each book links
// its own copy.
package nav

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/docship/internal/config"
	pkgerrors "git.home.luguber.info/inful/docship/internal/errors"
)

// Generator scans the pages tree and writes the navigation file.
type Generator struct {
	pagesDir    string
	partialsDir string
	outFile     string
	masters     []string
	maxDepth    int

	sectionLevels map[int]bool
	ignoreTitles  map[string]bool
	aliases       map[string]map[string]string

	entries int
}

// FromConfig builds a generator rooted at the source checkout.
func FromConfig(src config.SourceConfig, cfg config.NavConfig) *Generator {
	partialsDir := ""
	if src.PartialsDir != "" {
		partialsDir = filepath.Join(src.Dir, src.PartialsDir)
	}
	g := &Generator{
		pagesDir:      filepath.Join(src.Dir, src.PagesDir),
		partialsDir:   partialsDir,
		outFile:       filepath.Join(src.Dir, cfg.OutFile),
		masters:       src.Masters,
		maxDepth:      cfg.MaxDepth,
		sectionLevels: make(map[int]bool),
		ignoreTitles:  make(map[string]bool),
		aliases:       cfg.Aliases,
	}
	for _, level := range cfg.SectionLevels {
		g.sectionLevels[level] = true
	}
	for _, title := range cfg.IgnoreTitles {
		g.ignoreTitles[strings.ToLower(title)] = true
	}
	return g
}

// Entries reports how many navigation entries the last Generate produced.
func (g *Generator) Entries() int { return g.entries }

// visitKey deduplicates shared chapters per master.
type visitKey struct {
	file   string
	master string
}

// Generate rewrites the navigation file from the masters.
func (g *Generator) Generate() error {
	lines := []string{
		"// WARNING: This file is generated. DO NOT EDIT DIRECTLY.",
		"",
	}
	var navLines []string
	visited := make(map[visitKey]bool)

	for i, master := range g.masters {
		masterPath := filepath.Join(g.pagesDir, master)
		if _, err := os.Stat(masterPath); err != nil {
			slog.Warn("Master file not found", "path", masterPath)
			continue
		}
		slog.Info("Processing master", "master", master)

		title, anchor := titleAndAnchor(masterPath, true)
		navLines = append(navLines, entry(1, filepath.ToSlash(master), title, anchor))

		for _, inc := range g.extractIncludes(masterPath) {
			key := visitKey{file: inc, master: master}
			if visited[key] {
				continue
			}
			visited[key] = true
			g.processPage(inc, master, 2, &navLines, visited)
		}

		if i != len(g.masters)-1 {
			navLines = append(navLines, "")
		}
	}

	g.entries = 0
	for _, line := range navLines {
		if strings.HasPrefix(strings.TrimSpace(line), "*") {
			g.entries++
		}
	}

	content := strings.Join(append(lines, navLines...), "\n") + "\n"
	if err := os.WriteFile(g.outFile, []byte(content), 0o644); err != nil {
		return pkgerrors.Wrap(err, pkgerrors.CategoryNav, pkgerrors.SeverityFatal, "write navigation file")
	}
	slog.Info("Navigation regenerated", "file", g.outFile, "entries", g.entries)
	return nil
}

// processPage emits a page, its chapter-level sections, and (for aggregator
// pages) its included chapters.
func (g *Generator) processPage(path, master string, level int, navLines *[]string, visited map[visitKey]bool) {
	rel, err := filepath.Rel(g.pagesDir, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		slog.Warn("File outside pages directory", "path", path)
		return
	}
	xref := filepath.ToSlash(rel)

	// Shared pages get a per-book alias so the book links its own copy.
	finalXref, aliasApplied := g.resolveAlias(master, xref)
	if aliasApplied {
		if err := g.createAliasFile(finalXref, xref); err != nil {
			slog.Warn("Failed to create alias file", "alias", finalXref, "error", err)
			finalXref, aliasApplied = xref, false
		}
	}

	title, anchor := titleAndAnchor(path, false)
	if title == "" || strings.EqualFold(title, "untitled") {
		slog.Warn("Skipping file with no usable title", "path", path)
		return
	}
	*navLines = append(*navLines, entry(g.clamp(level), finalXref, title, anchor))

	aggregator := g.isAggregator(path)

	// Under an alias, chapters are listed as sections on the alias page
	// rather than links to the shared chapter files.
	if aggregator && aliasApplied {
		for _, inc := range g.extractIncludes(path) {
			incTitle, incAnchor := titleAndAnchor(inc, false)
			if incTitle == "" || strings.EqualFold(incTitle, "untitled") {
				continue
			}
			*navLines = append(*navLines, entry(g.clamp(level+1), finalXref, incTitle, incAnchor))
		}
		return
	}

	for _, h := range g.sectionHeadings(path) {
		if h.Anchor == anchor || strings.EqualFold(h.Title, title) {
			continue // avoid "Introduction -> Introduction" duplicates
		}
		subLevel := level + (h.Level - 2)
		if subLevel <= g.maxDepth {
			*navLines = append(*navLines, entry(subLevel, finalXref, h.Title, h.Anchor))
		}
	}

	if aggregator {
		for _, inc := range g.extractIncludes(path) {
			key := visitKey{file: inc, master: master}
			if visited[key] {
				continue
			}
			visited[key] = true
			g.processPage(inc, master, g.clamp(level+1), navLines, visited)
		}
	}
}

// resolveAlias looks up alias rules under both the master's relative path
// and its basename.
func (g *Generator) resolveAlias(master, xref string) (string, bool) {
	for _, key := range []string{master, filepath.Base(master)} {
		if mapped, ok := g.aliases[key][xref]; ok {
			return mapped, true
		}
	}
	return xref, false
}

// createAliasFile writes an AsciiDoc alias page that includes the shared
// target and records the aliasing in a page attribute.
func (g *Generator) createAliasFile(aliasRel, targetRel string) error {
	aliasAbs := filepath.Join(g.pagesDir, aliasRel)
	targetAbs := filepath.Join(g.pagesDir, targetRel)

	if err := os.MkdirAll(filepath.Dir(aliasAbs), 0o755); err != nil {
		return err
	}
	includeRel, err := filepath.Rel(filepath.Dir(aliasAbs), targetAbs)
	if err != nil {
		return err
	}
	content := fmt.Sprintf(":page-alias: %s\ninclude::%s[]\n", targetRel, filepath.ToSlash(includeRel))
	if err := os.WriteFile(aliasAbs, []byte(content), 0o644); err != nil {
		return err
	}
	slog.Info("Generated alias file", "alias", aliasRel)
	return nil
}

func (g *Generator) clamp(level int) int {
	if level > g.maxDepth {
		return g.maxDepth
	}
	if level < 1 {
		return 1
	}
	return level
}

func entry(level int, xref, title, anchor string) string {
	stars := strings.Repeat("*", level)
	if anchor != "" {
		return fmt.Sprintf("%s xref:%s#%s[%s]", stars, xref, anchor, title)
	}
	return fmt.Sprintf("%s xref:%s[%s]", stars, xref, title)
}
