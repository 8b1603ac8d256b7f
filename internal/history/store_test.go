package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRecordAndRecent(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	require.NoError(t, s.Record(ctx, Record{
		Release: "2026-Aug-20_10-00-00-aa11", State: "DONE", Outcome: "success",
		Commit: "abc", Branch: "main", Duration: 42 * time.Second,
	}))
	require.NoError(t, s.Record(ctx, Record{
		Release: "2026-Aug-21_10-00-00-bb22", State: "FAILED", Outcome: "failed",
		Error: "transfer (fatal): upload HTML tree", Duration: 3 * time.Second,
	}))

	recent, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)

	// newest first
	assert.Equal(t, "2026-Aug-21_10-00-00-bb22", recent[0].Release)
	assert.Equal(t, "failed", recent[0].Outcome)
	assert.Equal(t, "FAILED", recent[0].State)
	assert.Contains(t, recent[0].Error, "upload HTML tree")
	assert.Equal(t, "abc", recent[1].Commit)
	assert.Equal(t, 42*time.Second, recent[1].Duration)
}

func TestRecentLimit(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, s.Record(ctx, Record{Release: "r", State: "DONE", Outcome: "success"}))
	}
	recent, err := s.Recent(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, recent, 3)
}

func TestLastSuccess(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	_, err := s.LastSuccess(ctx)
	require.Error(t, err, "no successes yet")

	require.NoError(t, s.Record(ctx, Record{Release: "good-1", State: "DONE", Outcome: "success"}))
	require.NoError(t, s.Record(ctx, Record{Release: "bad-1", State: "FAILED", Outcome: "failed"}))

	last, err := s.LastSuccess(ctx)
	require.NoError(t, err)
	assert.Equal(t, "good-1", last.Release)
}

func TestOpenCreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "history.db")
	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Record(context.Background(), Record{Release: "r", State: "DONE", Outcome: "success"}))
	recent, err := s.Recent(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, recent, 1)
}
