// Package linkcheck validates internal references in a generated HTML tree
// before it is published.
package linkcheck

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"

	pkgerrors "git.home.luguber.info/inful/docship/internal/errors"
)

// Problem is one unresolvable reference.
type Problem struct {
	// File is the referencing HTML file, relative to the checked root.
	File string
	// Ref is the reference as written in the document.
	Ref string
}

func (p Problem) String() string {
	return fmt.Sprintf("%s: broken reference %q", p.File, p.Ref)
}

// Result summarizes a tree check.
type Result struct {
	// Files is how many HTML files were scanned.
	Files int
	// Refs is how many local references were resolved.
	Refs int
	// Problems lists references whose target does not exist.
	Problems []Problem
}

// OK reports whether every reference resolved.
func (r *Result) OK() bool { return len(r.Problems) == 0 }

// refAttrs maps element names to the attribute that carries a reference.
var refAttrs = map[string]string{
	"a":      "href",
	"link":   "href",
	"img":    "src",
	"script": "src",
}

// Check scans every .html file under root and verifies that each local
// href/src target exists on disk. External schemes, protocol-relative URLs,
// and pure fragments are ignored.
func Check(root string) (*Result, error) {
	res := &Result{}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".html") {
			return nil
		}
		res.Files++
		return checkFile(root, path, res)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CategoryFileSystem, pkgerrors.SeverityFatal,
			"walk html tree")
	}
	return res, nil
}

func checkFile(root, path string, res *Result) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	doc, err := html.Parse(f)
	if err != nil {
		// An unparsable file is itself a problem, not a fatal condition.
		rel, _ := filepath.Rel(root, path)
		res.Problems = append(res.Problems, Problem{File: rel, Ref: "(unparsable html)"})
		return nil
	}

	for _, ref := range collectRefs(doc) {
		if skipRef(ref) {
			continue
		}
		res.Refs++
		if !targetExists(root, filepath.Dir(path), ref) {
			rel, _ := filepath.Rel(root, path)
			res.Problems = append(res.Problems, Problem{File: rel, Ref: ref})
		}
	}
	return nil
}

func collectRefs(n *html.Node) []string {
	var refs []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if attr, ok := refAttrs[n.Data]; ok {
				for _, a := range n.Attr {
					if a.Key == attr && a.Val != "" {
						refs = append(refs, a.Val)
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return refs
}

func skipRef(ref string) bool {
	if strings.HasPrefix(ref, "#") || strings.HasPrefix(ref, "//") {
		return true
	}
	for _, scheme := range []string{"http:", "https:", "mailto:", "data:", "tel:", "ftp:"} {
		if strings.HasPrefix(strings.ToLower(ref), scheme) {
			return true
		}
	}
	return false
}

// targetExists resolves ref relative to the referencing file's directory, or
// against the checked tree root for site-rooted refs ("/css/site.css").
// Fragments and query strings are stripped; a directory target counts as its
// index.html.
func targetExists(root, dir, ref string) bool {
	if i := strings.IndexAny(ref, "#?"); i >= 0 {
		ref = ref[:i]
	}
	if ref == "" {
		return true
	}
	base := dir
	if strings.HasPrefix(ref, "/") {
		base = root
		ref = strings.TrimPrefix(ref, "/")
	}
	target := filepath.Join(base, filepath.FromSlash(ref))
	info, err := os.Stat(target)
	if err != nil {
		return false
	}
	if info.IsDir() {
		_, err := os.Stat(filepath.Join(target, "index.html"))
		return err == nil
	}
	return true
}
