package release

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mkName(t *testing.T, day, hour int) Name {
	t.Helper()
	n := New(time.Date(2026, time.June, day, hour, 0, 0, 0, time.UTC))
	return n
}

func TestPlanRetentionKeepsNewest(t *testing.T) {
	oldest := mkName(t, 1, 9)
	middle := mkName(t, 2, 9)
	newest := mkName(t, 3, 9)

	entries := []string{oldest.String(), newest.String(), middle.String(), "current"}
	plan := PlanRetention(entries, RetentionPolicy{KeepLast: 2, Protect: []string{"current"}})

	require.Len(t, plan.Keep, 2)
	require.Len(t, plan.Delete, 1)
	assert.Equal(t, newest.String(), plan.Keep[0].String())
	assert.Equal(t, middle.String(), plan.Keep[1].String())
	assert.Equal(t, oldest.String(), plan.Delete[0].String())
}

func TestPlanRetentionScenario(t *testing.T) {
	// Publish with retention=2 when 3 prior releases exist: the new release
	// plus the single most recent prior one remain, the 2 oldest go.
	prior1 := mkName(t, 10, 8)
	prior2 := mkName(t, 11, 8)
	prior3 := mkName(t, 12, 8)
	fresh := mkName(t, 13, 8)

	entries := []string{prior1.String(), prior2.String(), prior3.String(), fresh.String(), "current"}
	plan := PlanRetention(entries, RetentionPolicy{
		KeepLast: 2,
		Protect:  []string{"current", fresh.String()},
	})

	// Exactly two survive: the fresh release and the most recent prior.
	require.Len(t, plan.Keep, 2)
	assert.Equal(t, fresh.String(), plan.Keep[0].String())
	assert.Equal(t, prior3.String(), plan.Keep[1].String())

	require.Len(t, plan.Delete, 2)
	var deleted []string
	for _, n := range plan.Delete {
		deleted = append(deleted, n.String())
	}
	assert.Contains(t, deleted, prior1.String())
	assert.Contains(t, deleted, prior2.String())
}

func TestPlanRetentionProtectsResolvedCurrent(t *testing.T) {
	active := mkName(t, 20, 12)
	stale := mkName(t, 1, 12)

	plan := PlanRetention(
		[]string{active.String(), stale.String()},
		RetentionPolicy{KeepLast: 0, Protect: []string{"current", active.String()}},
	)

	for _, n := range plan.Delete {
		assert.NotEqual(t, active.String(), n.String(), "the resolved current release must never be deleted")
	}
	require.Len(t, plan.Delete, 1)
	assert.Equal(t, stale.String(), plan.Delete[0].String())
}

func TestPlanRetentionSkipsUnparsableEntries(t *testing.T) {
	n := mkName(t, 5, 5)
	plan := PlanRetention([]string{n.String(), ".docship.lock", "README", "current"}, RetentionPolicy{KeepLast: 0})

	require.Len(t, plan.Delete, 1)
	assert.Equal(t, n.String(), plan.Delete[0].String())
}

func TestPlanRetentionNegativeKeep(t *testing.T) {
	n := mkName(t, 6, 6)
	plan := PlanRetention([]string{n.String()}, RetentionPolicy{KeepLast: -3})
	assert.Empty(t, plan.Keep)
	require.Len(t, plan.Delete, 1)
}

func TestPlanRetentionInvariant(t *testing.T) {
	var entries []string
	for day := 1; day <= 9; day++ {
		entries = append(entries, mkName(t, day, 7).String())
	}
	plan := PlanRetention(entries, RetentionPolicy{KeepLast: 5})
	assert.Len(t, plan.Keep, 5, "after cleanup at most KeepLast releases remain")
	assert.Len(t, plan.Delete, 4)
	// the kept set is exactly the most recent five
	for _, kept := range plan.Keep {
		assert.GreaterOrEqual(t, kept.Time().Day(), 5)
	}
}
