package publish

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	pkgerrors "git.home.luguber.info/inful/docship/internal/errors"
)

// LockFilename is the cooperative publish lock inside the releases
// directory. Concurrent publishes are not safe (alias repoint and cleanup
// race), so a live lock held by someone else aborts the run before anything
// is uploaded. Expired locks are broken.
const LockFilename = ".docship.lock"

type lockInfo struct {
	Holder  string
	Expires time.Time
}

// parseLock reads the "holder expiry-unix" lock format. Returns false for
// empty or malformed content, which callers treat as no lock held.
func parseLock(s string) (lockInfo, bool) {
	fields := strings.Fields(strings.TrimSpace(s))
	if len(fields) != 2 {
		return lockInfo{}, false
	}
	expiry, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return lockInfo{}, false
	}
	return lockInfo{Holder: fields[0], Expires: time.Unix(expiry, 0)}, true
}

func formatLock(info lockInfo) string {
	return fmt.Sprintf("%s %d", info.Holder, info.Expires.Unix())
}

func (p *Publisher) lockPath() string {
	return p.releasesPath() + "/" + LockFilename
}

func (p *Publisher) acquireLock(ctx context.Context) error {
	if p.opts.LockTTL <= 0 {
		return nil
	}
	// The releases directory must exist before the lock can live in it.
	if err := p.remote.Run(ctx, "mkdir -p "+p.releasesPath()); err != nil {
		return pkgerrors.Wrap(err, pkgerrors.CategoryConnectivity, pkgerrors.SeverityFatal,
			"create releases directory")
	}

	out, err := p.remote.Output(ctx, "cat "+p.lockPath()+" 2>/dev/null || true")
	if err != nil {
		return pkgerrors.Wrap(err, pkgerrors.CategoryConnectivity, pkgerrors.SeverityFatal,
			"read publish lock")
	}
	if info, ok := parseLock(out); ok && info.Holder != p.holderID {
		if p.now().Before(info.Expires) {
			return pkgerrors.New(pkgerrors.CategoryLock, pkgerrors.SeverityFatal,
				"another publish holds the lock").
				WithContext("holder", info.Holder).
				WithContext("expires", info.Expires.Format(time.RFC3339))
		}
		slog.Warn("Breaking expired publish lock", "holder", info.Holder, "expired", info.Expires)
	}

	claim := formatLock(lockInfo{Holder: p.holderID, Expires: p.now().Add(p.opts.LockTTL)})
	cmd := fmt.Sprintf("echo '%s' > %s", claim, p.lockPath())
	if err := p.remote.Run(ctx, cmd); err != nil {
		return pkgerrors.Wrap(err, pkgerrors.CategoryLock, pkgerrors.SeverityFatal,
			"write publish lock")
	}
	return nil
}

func (p *Publisher) releaseLock(ctx context.Context) {
	if p.opts.LockTTL <= 0 {
		return
	}
	if err := p.remote.Run(ctx, "rm -f -- "+p.lockPath()); err != nil {
		slog.Warn("Failed to remove publish lock", "error", err)
	}
}
