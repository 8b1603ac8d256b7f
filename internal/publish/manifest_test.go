package publish

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManifestEncodeDefaultsTool(t *testing.T) {
	data, err := Manifest{
		Release:   "2026-Aug-23_12-00-00-ab12",
		CreatedAt: time.Date(2026, time.August, 23, 12, 0, 0, 0, time.UTC),
		Commit:    "abc123",
		Branch:    "main",
	}.Encode()
	require.NoError(t, err)

	m, err := DecodeManifest(data)
	require.NoError(t, err)
	assert.Equal(t, "docship", m.Tool)
	assert.Equal(t, "abc123", m.Commit)
	assert.Equal(t, "2026-Aug-23_12-00-00-ab12", m.Release)
}
