package publish

import (
	"context"
	"strings"
	"testing"

	"git.home.luguber.info/inful/docship/internal/remote"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// argvRunner records subprocess invocations made by the real ssh/rsync client.
type argvRunner struct {
	calls [][]string
}

func (r *argvRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	r.calls = append(r.calls, append([]string{name}, args...))
	return nil, nil
}

// The release root accumulates html-docs/, the PDFs, and the metadata from
// three separate transfers. Only the html-docs/ subtree may be mirrored with
// --delete; a mirroring transfer into the release root would wipe whatever
// the earlier transfers put there.
func TestPublishRsyncFlagsPerDestination(t *testing.T) {
	rec := &argvRunner{}
	client := remote.NewClient("ix", remote.WithRunner(rec))

	build := buildDirs(t)
	build.Manifest = &Manifest{CreatedAt: testClock(), Commit: "abc123"}
	build.NotesHTML = []byte("<h1>notes</h1>")

	p := New(client, testOptions(), WithClock(testClock), WithRetryPolicy(fastPolicy(0)))
	rep, err := p.Publish(context.Background(), build)
	require.NoError(t, err)

	var rsyncs [][]string
	for _, call := range rec.calls {
		if call[0] == "rsync" {
			rsyncs = append(rsyncs, call)
		}
	}
	require.Len(t, rsyncs, 3, "html, pdf, and metadata transfers")

	releaseRoot := "ix:/srv/www/doc-releases/" + rep.Release.String() + "/"
	deletes := 0
	for _, call := range rsyncs {
		joined := strings.Join(call, " ")
		dst := call[len(call)-1]
		if strings.HasSuffix(dst, "/html-docs/") {
			assert.Contains(t, joined, "--delete", "html-docs/ is owned by one source and mirrored")
			deletes++
			continue
		}
		assert.Equal(t, releaseRoot, dst)
		assert.NotContains(t, joined, "--delete",
			"release-root transfers must not delete what earlier transfers uploaded")
	}
	assert.Equal(t, 1, deletes)
}
