package nav

import (
	"os"
	"path/filepath"
	"testing"

	"git.home.luguber.info/inful/docship/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// fixtureTree lays out two books: a nested users guide with an aggregator
// chapter, and a flat admin guide that aliases a shared chapter.
func fixtureTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	pages := filepath.Join(root, "src/modules/ROOT/pages")

	writeFile(t, filepath.Join(pages, "usersguide/usersguide.adoc"), `= Users Guide

include::intro.adoc[]
include::admin.adoc[]
include::../../partials/common.adoc[]
include::missing.adoc[]
`)
	writeFile(t, filepath.Join(pages, "usersguide/intro.adoc"), `[[intro]]
== Introduction

Some prose.

=== Configuration

=== Options
`)
	writeFile(t, filepath.Join(pages, "usersguide/admin.adoc"), `== Administration

include::admin/backup.adoc[]
`)
	writeFile(t, filepath.Join(pages, "usersguide/admin/backup.adoc"), `== Backup and Restore
`)

	writeFile(t, filepath.Join(pages, "adminguide.adoc"), `= Admin Guide

include::shared/glossary.adoc[]
`)
	writeFile(t, filepath.Join(pages, "shared/glossary.adoc"), `== Glossary
`)

	writeFile(t, filepath.Join(root, "src/modules/ROOT/partials/common.adoc"), "shared boilerplate\n")
	return root
}

func fixtureGenerator(root string) *Generator {
	src := config.SourceConfig{
		Dir:         root,
		PagesDir:    "src/modules/ROOT/pages",
		PartialsDir: "src/modules/ROOT/partials",
		Masters:     []string{"usersguide/usersguide.adoc", "adminguide.adoc"},
	}
	cfg := config.NavConfig{
		OutFile:       "src/modules/ROOT/nav.adoc",
		MaxDepth:      4,
		SectionLevels: []int{3},
		IgnoreTitles:  []string{"Options"},
		Aliases: map[string]map[string]string{
			"adminguide.adoc": {
				"shared/glossary.adoc": "adminguide/glossary.adoc",
			},
		},
	}
	return FromConfig(src, cfg)
}

func TestGenerate(t *testing.T) {
	root := fixtureTree(t)
	g := fixtureGenerator(root)

	require.NoError(t, g.Generate())

	data, err := os.ReadFile(filepath.Join(root, "src/modules/ROOT/nav.adoc"))
	require.NoError(t, err)

	want := `// WARNING: This file is generated. DO NOT EDIT DIRECTLY.

* xref:usersguide/usersguide.adoc#users-guide[Users Guide]
** xref:usersguide/intro.adoc#intro[Introduction]
*** xref:usersguide/intro.adoc#configuration[Configuration]
** xref:usersguide/admin.adoc#administration[Administration]
*** xref:usersguide/admin/backup.adoc#backup-and-restore[Backup and Restore]

* xref:adminguide.adoc#admin-guide[Admin Guide]
** xref:adminguide/glossary.adoc#glossary[Glossary]
`
	assert.Equal(t, want, string(data))
	assert.Equal(t, 7, g.Entries())
}

func TestGenerateWritesAliasFile(t *testing.T) {
	root := fixtureTree(t)
	g := fixtureGenerator(root)

	require.NoError(t, g.Generate())

	alias := filepath.Join(root, "src/modules/ROOT/pages/adminguide/glossary.adoc")
	data, err := os.ReadFile(alias)
	require.NoError(t, err)
	assert.Equal(t, ":page-alias: shared/glossary.adoc\ninclude::../shared/glossary.adoc[]\n", string(data))
}

func TestGenerateIsIdempotent(t *testing.T) {
	root := fixtureTree(t)
	g := fixtureGenerator(root)

	require.NoError(t, g.Generate())
	first, err := os.ReadFile(filepath.Join(root, "src/modules/ROOT/nav.adoc"))
	require.NoError(t, err)

	require.NoError(t, g.Generate())
	second, err := os.ReadFile(filepath.Join(root, "src/modules/ROOT/nav.adoc"))
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))
}

func TestGenerateSkipsMissingMaster(t *testing.T) {
	root := fixtureTree(t)
	src := config.SourceConfig{
		Dir:      root,
		PagesDir: "src/modules/ROOT/pages",
		Masters:  []string{"nope.adoc", "adminguide.adoc"},
	}
	g := FromConfig(src, config.NavConfig{
		OutFile:       "src/modules/ROOT/nav.adoc",
		MaxDepth:      4,
		SectionLevels: []int{3},
	})

	require.NoError(t, g.Generate())

	data, err := os.ReadFile(filepath.Join(root, "src/modules/ROOT/nav.adoc"))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "nope.adoc")
	assert.Contains(t, string(data), "xref:adminguide.adoc#admin-guide[Admin Guide]")
}

func TestExtractIncludesFiltersPartialsAndMissing(t *testing.T) {
	root := fixtureTree(t)
	g := fixtureGenerator(root)

	master := filepath.Join(root, "src/modules/ROOT/pages/usersguide/usersguide.adoc")
	includes := g.extractIncludes(master)
	require.Len(t, includes, 2)
	assert.Equal(t, filepath.Join(root, "src/modules/ROOT/pages/usersguide/intro.adoc"), includes[0])
	assert.Equal(t, filepath.Join(root, "src/modules/ROOT/pages/usersguide/admin.adoc"), includes[1])
}

func TestSectionHeadingsHonorIgnoreList(t *testing.T) {
	root := fixtureTree(t)
	g := fixtureGenerator(root)

	headings := g.sectionHeadings(filepath.Join(root, "src/modules/ROOT/pages/usersguide/intro.adoc"))
	require.Len(t, headings, 1)
	assert.Equal(t, "Configuration", headings[0].Title)
	assert.Equal(t, "configuration", headings[0].Anchor)
}

func TestIsAggregator(t *testing.T) {
	root := fixtureTree(t)
	g := fixtureGenerator(root)
	pages := filepath.Join(root, "src/modules/ROOT/pages")

	assert.True(t, g.isAggregator(filepath.Join(pages, "usersguide/admin.adoc")))
	assert.False(t, g.isAggregator(filepath.Join(pages, "usersguide/intro.adoc")))
	assert.False(t, g.isAggregator(filepath.Join(pages, "shared/glossary.adoc")))
}

func TestTitleAndAnchorExplicitAnchorWins(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "page.adoc")
	writeFile(t, path, `// a comment
:page-attr: x

[[custom-id]]
== Fancy Title
`)
	title, anchor := titleAndAnchor(path, false)
	assert.Equal(t, "Fancy Title", title)
	assert.Equal(t, "custom-id", anchor)
}

func TestTitleAndAnchorUntitled(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "page.adoc")
	writeFile(t, path, "just prose, no headings\n")
	title, _ := titleAndAnchor(path, false)
	assert.Equal(t, "Untitled", title)
}
