// Package publish implements the release publisher: one invocation uploads a
// local build to a timestamped remote release directory, atomically repoints
// the current alias, and prunes releases beyond the retention count.
//
// The alias repoint is the commit point. Every stage up to and including
// activation is fail-fast; retention cleanup afterwards is best-effort and
// never fails a publish whose alias already moved.
package publish

import (
	"context"
	"log/slog"
	"path"
	"time"

	pkgerrors "git.home.luguber.info/inful/docship/internal/errors"
	"git.home.luguber.info/inful/docship/internal/metrics"
	"git.home.luguber.info/inful/docship/internal/release"
	"git.home.luguber.info/inful/docship/internal/retry"
	"github.com/google/uuid"
)

// Remote is the deployment channel the publisher mutates the remote host
// through. *remote.Client satisfies it; tests substitute a fake.
//
// Sync layers src into dst without touching unrelated entries already there;
// SyncMirror makes dst an exact mirror of src. The release root receives
// several source trees (PDFs, manifest, notes), so only the html-docs
// subtree, owned by a single source, may be mirrored.
type Remote interface {
	Run(ctx context.Context, cmd string) error
	Output(ctx context.Context, cmd string) (string, error)
	Sync(ctx context.Context, src, dst string) error
	SyncMirror(ctx context.Context, src, dst string) error
}

// State tracks where a publish invocation is in its lifecycle.
type State string

const (
	StateStart          State = "START"
	StateRemoteDirReady State = "REMOTE_DIR_READY"
	StateUploadedHTML   State = "UPLOADED_HTML"
	StateUploadedPDF    State = "UPLOADED_PDF"
	StateAliasRepointed State = "ALIAS_REPOINTED"
	StateCleanedUp      State = "CLEANED_UP"
	StateDone           State = "DONE"
	StateFailed         State = "FAILED"
)

// Stage names the publisher's ordered steps.
type Stage string

const (
	StagePrepare    Stage = "prepare"
	StageUploadHTML Stage = "upload-html"
	StageUploadPDF  Stage = "upload-pdf"
	StageActivate   Stage = "activate"
	StageCleanup    Stage = "cleanup"
)

// Options fixes the remote layout and retention policy for a publisher.
type Options struct {
	BaseDir     string
	ReleasesDir string
	Alias       string
	Retention   int
	LockTTL     time.Duration
}

// LocalBuild points at the pre-built artifact trees to upload.
type LocalBuild struct {
	// HTMLDir is the chunked/multi-page site tree; uploaded to
	// <release>/html-docs/.
	HTMLDir string
	// PDFDir holds the PDFs; its contents are flattened into <release>/.
	PDFDir string
	// NotesHTML, when non-empty, is uploaded as <release>/notes.html.
	NotesHTML []byte
	// Manifest is stamped into the release as .docship-manifest.json.
	Manifest *Manifest
}

// Publisher performs publish invocations against one remote target. It is
// not safe for concurrent use; the remote lock additionally serializes
// invocations across processes.
type Publisher struct {
	remote    Remote
	opts      Options
	recorder  metrics.Recorder
	announcer Announcer
	policy    retry.Policy
	now       func() time.Time
	holderID  string
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithRecorder injects a metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(p *Publisher) {
		if r != nil {
			p.recorder = r
		}
	}
}

// WithAnnouncer injects a post-activation announcer.
func WithAnnouncer(a Announcer) Option {
	return func(p *Publisher) { p.announcer = a }
}

// WithRetryPolicy overrides the transient-failure retry policy.
func WithRetryPolicy(policy retry.Policy) Option {
	return func(p *Publisher) { p.policy = policy }
}

// WithClock substitutes the wall clock (tests).
func WithClock(now func() time.Time) Option {
	return func(p *Publisher) { p.now = now }
}

// New creates a publisher for the given remote and layout.
func New(remote Remote, opts Options, options ...Option) *Publisher {
	p := &Publisher{
		remote:   remote,
		opts:     opts,
		recorder: metrics.NoopRecorder{},
		policy:   retry.DefaultPolicy(),
		now:      time.Now,
		holderID: uuid.NewString(),
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

// Remote path helpers. Release names and configured segments are validated
// single path segments, so plain joins are safe.

func (p *Publisher) releasesPath() string {
	return path.Join(p.opts.BaseDir, p.opts.ReleasesDir)
}

func (p *Publisher) releasePath(name string) string {
	return path.Join(p.releasesPath(), name)
}

func (p *Publisher) aliasPath() string {
	return path.Join(p.releasesPath(), p.opts.Alias)
}

type stageDef struct {
	name  Stage
	state State // state reached on success
	fn    func(ctx context.Context, build LocalBuild, rep *Report) error
}

// Publish runs one full publish cycle and returns its report. The returned
// error is non-nil only when the publish failed before or at activation;
// cleanup issues are reported in the Report instead.
func (p *Publisher) Publish(ctx context.Context, build LocalBuild) (*Report, error) {
	name := release.New(p.now())
	rep := newReport(name)
	rep.Manifest = build.Manifest
	started := p.now()

	slog.Info("Starting publish", "release", name.String(), "host_path", p.releasesPath())

	if err := p.acquireLock(ctx); err != nil {
		return p.fail(rep, started, err)
	}
	defer p.releaseLock(context.WithoutCancel(ctx))

	stages := []stageDef{
		{StagePrepare, StateRemoteDirReady, p.stagePrepare},
		{StageUploadHTML, StateUploadedHTML, p.stageUploadHTML},
		{StageUploadPDF, StateUploadedPDF, p.stageUploadPDF},
		{StageActivate, StateAliasRepointed, p.stageActivate},
	}
	for _, st := range stages {
		select {
		case <-ctx.Done():
			return p.fail(rep, started, pkgerrors.Wrap(ctx.Err(), pkgerrors.CategoryRuntime, pkgerrors.SeverityFatal, "publish canceled"))
		default:
		}
		t0 := p.now()
		err := retry.Do(ctx, p.policy, func() error { return st.fn(ctx, build, rep) })
		rep.StageDurations[st.name] = p.now().Sub(t0)
		p.recorder.ObserveStageDuration(string(st.name), rep.StageDurations[st.name])
		if err != nil {
			p.recorder.IncStageResult(string(st.name), metrics.ResultFatal)
			return p.fail(rep, started, err)
		}
		p.recorder.IncStageResult(string(st.name), metrics.ResultSuccess)
		rep.State = st.state
		slog.Info("Publish stage complete", "stage", string(st.name), "release", name.String())
	}

	// The alias moved: the publish is committed. Everything from here on is
	// best-effort.
	p.announce(ctx, rep)
	p.cleanup(ctx, rep)

	rep.State = StateDone
	rep.LastState = StateDone
	rep.Duration = p.now().Sub(started)
	p.recorder.ObservePublishDuration(rep.Duration)
	p.recorder.IncPublishOutcome("success")
	slog.Info("Publish complete", "release", name.String(), "now_current", name.String(),
		"deleted", len(rep.Deleted), "duration", rep.Duration)
	return rep, nil
}

func (p *Publisher) fail(rep *Report, started time.Time, err error) (*Report, error) {
	rep.LastState = rep.State
	rep.State = StateFailed
	rep.Duration = p.now().Sub(started)
	p.recorder.ObservePublishDuration(rep.Duration)
	p.recorder.IncPublishOutcome("failed")
	slog.Error("Publish failed", "release", rep.Release.String(), "state", string(rep.State), "error", err)
	return rep, err
}

func (p *Publisher) announce(ctx context.Context, rep *Report) {
	if p.announcer == nil {
		return
	}
	ev := Event{
		Release: rep.Release.String(),
		Host:    p.releasesPath(),
		At:      p.now(),
	}
	if m := rep.Manifest; m != nil {
		ev.Commit = m.Commit
		ev.Branch = m.Branch
	}
	if err := p.announcer.Announce(ctx, ev); err != nil {
		// Same class as cleanup issues: never fails a committed publish.
		slog.Warn("Publish announcement failed", "error", err)
		rep.CleanupIssues = append(rep.CleanupIssues, "announce: "+err.Error())
		return
	}
	rep.Announced = true
}
