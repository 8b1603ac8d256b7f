// Package release defines release identities and the retention prune plan
// for the remote releases directory.
package release

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Layout is the wall-clock portion of a release name, second precision.
// Produces names like 2026-Aug-23_14-03-59.
const Layout = "2006-Jan-02_15-04-05"

// suffixLen is the number of hex characters appended to disambiguate two
// releases created within the same second.
const suffixLen = 4

// Name identifies one immutable release. The raw form is a single safe path
// segment: the formatted timestamp plus a short uniqueness suffix
// (2026-Aug-23_14-03-59-a1b2). Ordering is derived from the parsed
// timestamp, never from filesystem metadata.
type Name struct {
	raw string
	at  time.Time
}

// New derives a release name from t, truncated to second precision, with a
// fresh uniqueness suffix.
func New(t time.Time) Name {
	t = t.Truncate(time.Second)
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:suffixLen]
	return Name{
		raw: t.Format(Layout) + "-" + suffix,
		at:  t,
	}
}

// Parse reads a release name back from its string form. Names without a
// uniqueness suffix (as written by earlier deployments) are accepted.
func Parse(s string) (Name, error) {
	if len(s) < len(Layout) {
		return Name{}, fmt.Errorf("release name %q too short", s)
	}
	at, err := time.Parse(Layout, s[:len(Layout)])
	if err != nil {
		return Name{}, fmt.Errorf("release name %q: %w", s, err)
	}
	rest := s[len(Layout):]
	if rest != "" {
		if !strings.HasPrefix(rest, "-") || len(rest) == 1 {
			return Name{}, fmt.Errorf("release name %q has malformed suffix", s)
		}
		for _, r := range rest[1:] {
			if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
				return Name{}, fmt.Errorf("release name %q has malformed suffix", s)
			}
		}
	}
	return Name{raw: s, at: at}, nil
}

// String returns the on-disk directory name.
func (n Name) String() string { return n.raw }

// Time returns the creation timestamp encoded in the name.
func (n Name) Time() time.Time { return n.at }

// IsZero reports whether n is the zero Name.
func (n Name) IsZero() bool { return n.raw == "" }

// Compare orders names by encoded timestamp, tie-broken by raw string.
// Returns -1 if n is older than other, 0 if equal, 1 if newer.
func (n Name) Compare(other Name) int {
	switch {
	case n.at.Before(other.at):
		return -1
	case n.at.After(other.at):
		return 1
	}
	return strings.Compare(n.raw, other.raw)
}

// SortNewestFirst orders names in place, most recent first.
func SortNewestFirst(names []Name) {
	sort.Slice(names, func(i, j int) bool {
		return names[i].Compare(names[j]) > 0
	})
}
