package publish

import (
	"time"

	"git.home.luguber.info/inful/docship/internal/release"
)

// Report summarizes one publish invocation: the state reached, per-stage
// timings, and what retention removed. A report with State == StateDone and
// a non-empty CleanupIssues list is still a successful publish.
type Report struct {
	Release release.Name
	State   State
	// LastState is the state reached before a failure; equals State on
	// success.
	LastState      State
	StageDurations map[Stage]time.Duration
	Deleted        []string
	CleanupIssues  []string
	Duration       time.Duration
	Announced      bool
	Manifest       *Manifest
}

func newReport(name release.Name) *Report {
	return &Report{
		Release:        name,
		State:          StateStart,
		LastState:      StateStart,
		StageDurations: make(map[Stage]time.Duration),
	}
}

// Succeeded reports whether the alias was repointed to this release.
func (r *Report) Succeeded() bool {
	switch r.State {
	case StateAliasRepointed, StateCleanedUp, StateDone:
		return true
	}
	return false
}
