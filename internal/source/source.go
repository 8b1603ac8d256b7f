// Package source reads revision information from the documentation checkout
// so published releases are traceable to the commit they were built from.
package source

import (
	"fmt"

	git "github.com/go-git/go-git/v5"
)

// Info describes the checked-out revision of the docs source tree.
type Info struct {
	Commit string
	Branch string
}

// Describe returns the HEAD commit and branch of the repository containing
// dir. Callers treat errors as "not a repository" and publish without
// revision metadata.
func Describe(dir string) (Info, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return Info{}, fmt.Errorf("open repository at %s: %w", dir, err)
	}
	head, err := repo.Head()
	if err != nil {
		return Info{}, fmt.Errorf("read HEAD: %w", err)
	}
	info := Info{Commit: head.Hash().String()}
	if head.Name().IsBranch() {
		info.Branch = head.Name().Short()
	}
	return info, nil
}
