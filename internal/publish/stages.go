package publish

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	pkgerrors "git.home.luguber.info/inful/docship/internal/errors"
	"git.home.luguber.info/inful/docship/internal/metrics"
	"git.home.luguber.info/inful/docship/internal/release"
)

// ManifestFilename is written into every release directory before activation.
const ManifestFilename = ".docship-manifest.json"

// NotesFilename holds the rendered release notes, when provided.
const NotesFilename = "notes.html"

// stagePrepare creates the remote release directory. mkdir -p keeps it
// idempotent: it succeeds whether or not the directory already exists.
func (p *Publisher) stagePrepare(ctx context.Context, _ LocalBuild, rep *Report) error {
	dir := p.releasePath(rep.Release.String())
	if err := p.remote.Run(ctx, "mkdir -p "+dir); err != nil {
		return pkgerrors.WrapRetryable(err, pkgerrors.CategoryConnectivity, pkgerrors.SeverityFatal,
			"create remote release directory").WithContext("dir", dir)
	}
	return nil
}

// stageUploadHTML mirrors the chunked site tree into <release>/html-docs/.
// The subtree has exactly one source, so mirroring (with deletion) keeps
// retried uploads exact.
func (p *Publisher) stageUploadHTML(ctx context.Context, build LocalBuild, rep *Report) error {
	if build.HTMLDir == "" {
		return pkgerrors.New(pkgerrors.CategoryValidation, pkgerrors.SeverityFatal, "no HTML build directory to upload")
	}
	dst := p.releasePath(rep.Release.String()) + "/html-docs/"
	if err := p.remote.SyncMirror(ctx, withSlash(build.HTMLDir), dst); err != nil {
		return pkgerrors.WrapRetryable(err, pkgerrors.CategoryTransfer, pkgerrors.SeverityFatal,
			"upload HTML tree").WithContext("dst", dst)
	}
	return nil
}

// stageUploadPDF flattens the PDF tree into the release root, then stages
// the manifest and optional release notes alongside it. All of it lands
// before activation so the alias never exposes a half-populated release.
// Release-root syncs must never mirror: html-docs/ already lives there.
func (p *Publisher) stageUploadPDF(ctx context.Context, build LocalBuild, rep *Report) error {
	releaseRoot := p.releasePath(rep.Release.String()) + "/"
	if build.PDFDir != "" {
		if err := p.remote.Sync(ctx, withSlash(build.PDFDir), releaseRoot); err != nil {
			return pkgerrors.WrapRetryable(err, pkgerrors.CategoryTransfer, pkgerrors.SeverityFatal,
				"upload PDF tree").WithContext("dst", releaseRoot)
		}
	}
	return p.stageExtras(ctx, build, releaseRoot, rep)
}

// stageExtras writes the manifest and notes to a local staging directory and
// syncs it into the release root.
func (p *Publisher) stageExtras(ctx context.Context, build LocalBuild, releaseRoot string, rep *Report) error {
	if build.Manifest == nil && len(build.NotesHTML) == 0 {
		return nil
	}
	staging, err := os.MkdirTemp("", "docship-extras-")
	if err != nil {
		return pkgerrors.Wrap(err, pkgerrors.CategoryFileSystem, pkgerrors.SeverityFatal, "create staging directory")
	}
	defer os.RemoveAll(staging)

	if build.Manifest != nil {
		m := *build.Manifest
		m.Release = rep.Release.String()
		data, err := m.Encode()
		if err != nil {
			return pkgerrors.Wrap(err, pkgerrors.CategoryInternal, pkgerrors.SeverityFatal, "encode release manifest")
		}
		if err := os.WriteFile(filepath.Join(staging, ManifestFilename), data, 0o644); err != nil {
			return pkgerrors.Wrap(err, pkgerrors.CategoryFileSystem, pkgerrors.SeverityFatal, "write release manifest")
		}
	}
	if len(build.NotesHTML) > 0 {
		if err := os.WriteFile(filepath.Join(staging, NotesFilename), build.NotesHTML, 0o644); err != nil {
			return pkgerrors.Wrap(err, pkgerrors.CategoryFileSystem, pkgerrors.SeverityFatal, "write release notes")
		}
	}
	if err := p.remote.Sync(ctx, staging+"/", releaseRoot); err != nil {
		return pkgerrors.WrapRetryable(err, pkgerrors.CategoryTransfer, pkgerrors.SeverityFatal,
			"upload release metadata").WithContext("dst", releaseRoot)
	}
	return nil
}

// stageActivate atomically repoints the current alias: the replacement
// symlink is created under a temporary name and renamed over the alias, so
// consumers either see the old release or the new one, never a missing or
// torn alias. This is the publish's commit point and is never retried.
func (p *Publisher) stageActivate(ctx context.Context, _ LocalBuild, rep *Report) error {
	alias := p.aliasPath()
	cmd := fmt.Sprintf("ln -sfn %s %s.tmp && mv -T %s.tmp %s", rep.Release.String(), alias, alias, alias)
	if err := p.remote.Run(ctx, cmd); err != nil {
		return pkgerrors.Wrap(err, pkgerrors.CategoryActivation, pkgerrors.SeverityFatal,
			"repoint current alias").WithContext("alias", alias)
	}
	return nil
}

// cleanup enforces retention: list the releases directory, exclude the alias
// literal and the release the alias resolves to, keep the newest Retention
// entries, delete the rest. Individual failures are recorded and skipped;
// the publish already committed at activation.
func (p *Publisher) cleanup(ctx context.Context, rep *Report) {
	t0 := p.now()
	defer func() {
		rep.StageDurations[StageCleanup] = p.now().Sub(t0)
		p.recorder.ObserveStageDuration(string(StageCleanup), rep.StageDurations[StageCleanup])
	}()

	listing, err := p.remote.Output(ctx, "ls -1 "+p.releasesPath())
	if err != nil {
		rep.CleanupIssues = append(rep.CleanupIssues, "list releases: "+err.Error())
		return
	}

	// Exclude the resolved current target, not just the alias literal, so a
	// just-activated release can never be a deletion candidate.
	current, err := p.remote.Output(ctx, "readlink "+p.aliasPath())
	if err != nil {
		rep.CleanupIssues = append(rep.CleanupIssues, "resolve current alias: "+err.Error())
		current = rep.Release.String()
	}

	var entries []string
	for _, line := range strings.Split(listing, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			entries = append(entries, line)
		}
	}
	plan := release.PlanRetention(entries, release.RetentionPolicy{
		KeepLast: p.opts.Retention,
		Protect:  []string{p.opts.Alias, current, rep.Release.String()},
	})

	for _, stale := range plan.Delete {
		dir := p.releasePath(stale.String())
		if err := p.remote.Run(ctx, "rm -rf -- "+dir); err != nil {
			rep.CleanupIssues = append(rep.CleanupIssues, "delete "+stale.String()+": "+err.Error())
			slog.Warn("Failed to delete stale release", "release", stale.String(), "error", err)
			continue
		}
		rep.Deleted = append(rep.Deleted, stale.String())
	}
	p.recorder.AddReleasesDeleted(len(rep.Deleted))
	rep.State = StateCleanedUp
	if len(rep.CleanupIssues) > 0 {
		p.recorder.IncStageResult(string(StageCleanup), metrics.ResultWarning)
	} else {
		p.recorder.IncStageResult(string(StageCleanup), metrics.ResultSuccess)
	}
}

// withSlash ensures rsync copies directory contents, not the directory.
func withSlash(dir string) string {
	if strings.HasSuffix(dir, "/") {
		return dir
	}
	return dir + "/"
}
