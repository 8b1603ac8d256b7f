package publish

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseLock(t *testing.T) {
	info, ok := parseLock("some-holder-id 1790000000\n")
	assert.True(t, ok)
	assert.Equal(t, "some-holder-id", info.Holder)
	assert.Equal(t, time.Unix(1790000000, 0), info.Expires)
}

func TestParseLockMalformed(t *testing.T) {
	for _, s := range []string{"", "   ", "only-holder", "holder not-a-number", "a b c"} {
		_, ok := parseLock(s)
		assert.False(t, ok, "expected %q to be rejected", s)
	}
}

func TestLockRoundTrip(t *testing.T) {
	in := lockInfo{Holder: "h-1", Expires: time.Unix(1790000123, 0)}
	out, ok := parseLock(formatLock(in))
	assert.True(t, ok)
	assert.Equal(t, in.Holder, out.Holder)
	assert.True(t, in.Expires.Equal(out.Expires))
}
