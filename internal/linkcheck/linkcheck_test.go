package linkcheck

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestCheckCleanTree(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, "index.html"),
		`<html><body>
		<a href="guide/intro.html">intro</a>
		<a href="guide/intro.html#section">section</a>
		<a href="guide/">guide dir</a>
		<a href="https://example.com/">external</a>
		<a href="#top">fragment</a>
		<img src="assets/logo.png">
		</body></html>`)
	write(t, filepath.Join(root, "guide/intro.html"), `<html><a href="../index.html">up</a></html>`)
	write(t, filepath.Join(root, "guide/index.html"), `<html></html>`)
	write(t, filepath.Join(root, "assets/logo.png"), "png")

	res, err := Check(root)
	require.NoError(t, err)
	assert.True(t, res.OK())
	assert.Equal(t, 3, res.Files)
	assert.Equal(t, 5, res.Refs)
}

func TestCheckReportsBrokenReferences(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, "index.html"),
		`<html><body>
		<a href="missing.html">gone</a>
		<img src="nope/logo.png">
		</body></html>`)

	res, err := Check(root)
	require.NoError(t, err)
	assert.False(t, res.OK())
	require.Len(t, res.Problems, 2)
	assert.Equal(t, "index.html", res.Problems[0].File)
	assert.Equal(t, "missing.html", res.Problems[0].Ref)
	assert.Contains(t, res.Problems[1].Ref, "nope/logo.png")
}

func TestCheckDirectoryWithoutIndexIsBroken(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "empty"), 0o755))
	write(t, filepath.Join(root, "index.html"), `<html><a href="empty/">empty</a></html>`)

	res, err := Check(root)
	require.NoError(t, err)
	require.Len(t, res.Problems, 1)
	assert.Equal(t, "empty/", res.Problems[0].Ref)
}

func TestCheckResolvesSiteRootedRefs(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, "css/site.css"), "body{}")
	write(t, filepath.Join(root, "guide/deep/page.html"),
		`<html><head><link href="/css/site.css"></head>
		<body><img src="/assets/missing.png"></body></html>`)

	res, err := Check(root)
	require.NoError(t, err)
	require.Len(t, res.Problems, 1)
	assert.Equal(t, "/assets/missing.png", res.Problems[0].Ref)
}

func TestCheckSkipsNonHTML(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, "notes.txt"), `<a href="missing.html">x</a>`)

	res, err := Check(root)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Files)
	assert.True(t, res.OK())
}
