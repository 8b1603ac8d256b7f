package release

// RetentionPolicy bounds how many releases survive a cleanup pass. Protected
// entries (the alias literal and the resolved current release) are never
// deletion candidates regardless of age.
type RetentionPolicy struct {
	KeepLast int
	Protect  []string
}

// PrunePlan is the computed outcome of applying a retention policy: which
// releases stay and which are removed. Entries that do not parse as release
// names never appear in either list.
type PrunePlan struct {
	Keep   []Name
	Delete []Name
}

// Protected reports whether entry is exempt from deletion.
func (p RetentionPolicy) Protected(entry string) bool {
	for _, name := range p.Protect {
		if name != "" && name == entry {
			return true
		}
	}
	return false
}

// PlanRetention orders the directory entries newest-first by their encoded
// timestamps, keeps the first KeepLast, and marks the rest for deletion.
// Protected entries count toward the keep budget when recent enough but are
// moved to the keep list rather than deleted when they fall outside it.
// Unparsable entries (the alias symlink, the lock file, stray files) are
// skipped entirely.
func PlanRetention(entries []string, policy RetentionPolicy) PrunePlan {
	var names []Name
	for _, entry := range entries {
		n, err := Parse(entry)
		if err != nil {
			continue
		}
		names = append(names, n)
	}
	SortNewestFirst(names)

	keep := policy.KeepLast
	if keep < 0 {
		keep = 0
	}
	plan := PrunePlan{}
	for i, n := range names {
		switch {
		case i < keep:
			plan.Keep = append(plan.Keep, n)
		case policy.Protected(n.String()):
			plan.Keep = append(plan.Keep, n)
		default:
			plan.Delete = append(plan.Delete, n)
		}
	}
	return plan
}
