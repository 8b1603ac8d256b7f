// Package daemon runs docship unattended: scheduled publishes, source
// watching for navigation regeneration, and a metrics endpoint.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"git.home.luguber.info/inful/docship/internal/config"
)

// PublishFunc performs one full publish cycle.
type PublishFunc func(ctx context.Context) error

// RegenFunc regenerates the navigation descriptor.
type RegenFunc func(ctx context.Context) error

// Daemon owns the scheduler, the source watcher, and the metrics server.
type Daemon struct {
	cfg      config.DaemonConfig
	watchDir string
	publish  PublishFunc
	regen    RegenFunc

	scheduler gocron.Scheduler
	registry  *prometheus.Registry

	// publishMu serializes publish runs so a slow publish and the next
	// scheduled tick never overlap.
	publishMu sync.Mutex
}

// Option configures a Daemon.
type Option func(*Daemon)

// WithMetricsRegistry serves the given registry on /metrics instead of the
// process default.
func WithMetricsRegistry(reg *prometheus.Registry) Option {
	return func(d *Daemon) { d.registry = reg }
}

// New creates a daemon. watchDir may be empty to disable source watching;
// regen is only consulted when watching is enabled.
func New(cfg config.DaemonConfig, watchDir string, publish PublishFunc, regen RegenFunc, opts ...Option) (*Daemon, error) {
	if publish == nil {
		return nil, fmt.Errorf("daemon requires a publish function")
	}
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	d := &Daemon{
		cfg:       cfg,
		watchDir:  watchDir,
		publish:   publish,
		regen:     regen,
		scheduler: s,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Run blocks until ctx is cancelled.
func (d *Daemon) Run(ctx context.Context) error {
	if d.cfg.Schedule != "" {
		if err := d.scheduleJob(ctx); err != nil {
			return err
		}
		d.scheduler.Start()
		defer func() {
			if err := d.scheduler.Shutdown(); err != nil {
				slog.Error("Scheduler shutdown failed", "error", err)
			}
		}()
	}

	if d.watchDir != "" && d.regen != nil {
		w, err := newSourceWatcher(d.watchDir, d.cfg.Debounce.Std(), d.regen)
		if err != nil {
			return err
		}
		if err := w.Start(ctx); err != nil {
			return err
		}
		defer w.Stop()
	}

	if d.cfg.MetricsAddr != "" {
		srv := d.metricsServer()
		go func() {
			slog.Info("Serving metrics", "addr", d.cfg.MetricsAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("Metrics server failed", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	slog.Info("Daemon running",
		"schedule", d.cfg.Schedule,
		"watch_dir", d.watchDir,
		"metrics_addr", d.cfg.MetricsAddr)
	<-ctx.Done()
	slog.Info("Daemon stopping")
	return nil
}

func (d *Daemon) scheduleJob(ctx context.Context) error {
	_, err := d.scheduler.NewJob(
		gocron.CronJob(d.cfg.Schedule, false),
		gocron.NewTask(func() { d.runPublish(ctx) }),
		gocron.WithName("scheduled-publish"),
	)
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", d.cfg.Schedule, err)
	}
	return nil
}

func (d *Daemon) runPublish(ctx context.Context) {
	if !d.publishMu.TryLock() {
		slog.Warn("Skipping scheduled publish, previous run still active")
		return
	}
	defer d.publishMu.Unlock()

	slog.Info("Starting scheduled publish")
	start := time.Now()
	if err := d.publish(ctx); err != nil {
		slog.Error("Scheduled publish failed", "error", err, "duration", time.Since(start))
		return
	}
	slog.Info("Scheduled publish finished", "duration", time.Since(start))
}

func (d *Daemon) metricsServer() *http.Server {
	mux := http.NewServeMux()
	if d.registry != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(d.registry, promhttp.HandlerOpts{}))
	} else {
		mux.Handle("/metrics", promhttp.Handler())
	}
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})
	return &http.Server{
		Addr:              d.cfg.MetricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
