package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/docship/internal/compile"
	"git.home.luguber.info/inful/docship/internal/config"
	"git.home.luguber.info/inful/docship/internal/daemon"
	"git.home.luguber.info/inful/docship/internal/history"
	"git.home.luguber.info/inful/docship/internal/linkcheck"
	"git.home.luguber.info/inful/docship/internal/metrics"
	"git.home.luguber.info/inful/docship/internal/nav"
	"git.home.luguber.info/inful/docship/internal/notes"
	"git.home.luguber.info/inful/docship/internal/publish"
	"git.home.luguber.info/inful/docship/internal/release"
	"git.home.luguber.info/inful/docship/internal/remote"
	"git.home.luguber.info/inful/docship/internal/source"
)

var CLI struct {
	Config  string `short:"c" help:"Configuration file path" default:"docship.yaml"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Build struct {
		SkipNav bool `help:"Do not regenerate navigation before building"`
		SkipPDF bool `help:"Build HTML outputs only"`
	} `cmd:"" help:"Compile the documentation into the local build directory"`

	Nav struct{} `cmd:"" help:"Regenerate the navigation file from the masters"`

	Check struct{} `cmd:"" help:"Verify internal links in the built HTML tree"`

	Publish struct {
		Retention int    `help:"Override the number of releases kept after publish"`
		Notes     string `help:"Markdown release notes uploaded as notes.html" type:"path"`
	} `cmd:"" help:"Upload the build to a new release and repoint the current alias"`

	Releases struct {
		History bool `help:"Show local publish history instead of the remote listing"`
		Limit   int  `short:"n" help:"Number of history entries to show" default:"10"`
	} `cmd:"" help:"List remote releases and which one is current"`

	Init struct {
		Force bool `help:"Overwrite existing configuration file"`
	} `cmd:"" help:"Initialize a new configuration file"`

	Daemon struct{} `cmd:"" help:"Run scheduled publishes and watch the source tree"`
}

func main() {
	ctx := kong.Parse(&CLI)

	logLevel := slog.LevelInfo
	if CLI.Verbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})))

	var err error
	switch ctx.Command() {
	case "build":
		err = withConfig(func(cfg *config.Config) error {
			return runBuild(context.Background(), cfg, CLI.Build.SkipNav, CLI.Build.SkipPDF)
		})
	case "nav":
		err = withConfig(func(cfg *config.Config) error {
			return nav.FromConfig(cfg.Source, cfg.Nav).Generate()
		})
	case "check":
		err = withConfig(runCheck)
	case "publish":
		err = withConfig(func(cfg *config.Config) error {
			if CLI.Publish.Retention > 0 {
				cfg.Deploy.Retention = CLI.Publish.Retention
			}
			return runPublish(context.Background(), cfg)
		})
	case "releases":
		err = withConfig(func(cfg *config.Config) error {
			if CLI.Releases.History {
				return runHistory(context.Background(), cfg, CLI.Releases.Limit)
			}
			return runReleases(context.Background(), cfg)
		})
	case "init":
		err = config.Init(CLI.Config, CLI.Init.Force)
	case "daemon":
		err = withConfig(runDaemon)
	}
	if err != nil {
		slog.Error("Command failed", "command", ctx.Command(), "error", err)
		os.Exit(1)
	}
}

func withConfig(fn func(cfg *config.Config) error) error {
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		return err
	}
	return fn(cfg)
}

func runBuild(ctx context.Context, cfg *config.Config, skipNav, skipPDF bool) error {
	if !skipNav {
		if err := nav.FromConfig(cfg.Source, cfg.Nav).Generate(); err != nil {
			return err
		}
	}

	compiler := compile.NewCompiler(cfg.Build.Compiler, nil)
	sitegen := compile.NewSiteGenerator(cfg.Build.Site, nil)

	htmlDir := filepath.Join(cfg.Build.Dir, cfg.Build.HTMLSubdir)
	slog.Info("Generating site", "out", htmlDir)
	if err := sitegen.Generate(ctx, htmlDir); err != nil {
		return err
	}

	singleDir := filepath.Join(cfg.Build.Dir, cfg.Build.SingleSubdir)
	pdfDir := filepath.Join(cfg.Build.Dir, cfg.Build.PDFSubdir)
	for _, master := range cfg.Source.Masters {
		masterPath := filepath.Join(cfg.Source.Dir, cfg.Source.PagesDir, master)
		slog.Info("Compiling master", "master", master)
		if err := compiler.HTML(ctx, masterPath, singleDir); err != nil {
			return err
		}
		if skipPDF {
			continue
		}
		if err := compiler.PDF(ctx, masterPath, pdfDir); err != nil {
			return err
		}
	}
	slog.Info("Build complete", "dir", cfg.Build.Dir)
	return nil
}

func runCheck(cfg *config.Config) error {
	htmlDir := filepath.Join(cfg.Build.Dir, cfg.Build.HTMLSubdir)
	res, err := linkcheck.Check(htmlDir)
	if err != nil {
		return err
	}
	for _, p := range res.Problems {
		fmt.Fprintln(os.Stderr, p.String())
	}
	slog.Info("Link check finished", "files", res.Files, "refs", res.Refs, "problems", len(res.Problems))
	if !res.OK() {
		return fmt.Errorf("%d broken references", len(res.Problems))
	}
	return nil
}

func newPublisher(cfg *config.Config, recorder metrics.Recorder) *publish.Publisher {
	client := remote.NewClient(cfg.Deploy.Host,
		remote.WithBinaries(cfg.Deploy.SSHBin, cfg.Deploy.RsyncBin))

	opts := []publish.Option{publish.WithRecorder(recorder)}
	if cfg.Notify.NATSURL != "" {
		opts = append(opts, publish.WithAnnouncer(
			publish.NewNATSAnnouncer(cfg.Notify.NATSURL, cfg.Notify.Subject)))
	}
	return publish.New(client, publish.Options{
		BaseDir:     cfg.Deploy.BaseDir,
		ReleasesDir: cfg.Deploy.ReleasesDir,
		Alias:       cfg.Deploy.Alias,
		Retention:   cfg.Deploy.Retention,
		LockTTL:     cfg.Deploy.LockTTL.Std(),
	}, opts...)
}

func localBuild(cfg *config.Config) (publish.LocalBuild, error) {
	build := publish.LocalBuild{
		HTMLDir: filepath.Join(cfg.Build.Dir, cfg.Build.HTMLSubdir),
		PDFDir:  filepath.Join(cfg.Build.Dir, cfg.Build.PDFSubdir),
	}
	if _, err := os.Stat(build.HTMLDir); err != nil {
		return build, fmt.Errorf("no HTML build at %s, run build first: %w", build.HTMLDir, err)
	}
	if _, err := os.Stat(build.PDFDir); err != nil {
		slog.Warn("No PDF build, publishing without PDFs", "dir", build.PDFDir)
		build.PDFDir = ""
	}

	manifest := &publish.Manifest{CreatedAt: time.Now()}
	if info, err := source.Describe(cfg.Source.Dir); err != nil {
		slog.Warn("Source revision unavailable", "error", err)
	} else {
		manifest.Commit = info.Commit
		manifest.Branch = info.Branch
	}
	build.Manifest = manifest

	notesPath := CLI.Publish.Notes
	if notesPath == "" {
		notesPath = filepath.Join(cfg.Source.Dir, "RELEASE_NOTES.md")
	}
	notesHTML, err := notes.RenderFile("Release Notes", notesPath)
	if err != nil {
		return build, err
	}
	build.NotesHTML = notesHTML
	return build, nil
}

func runPublish(ctx context.Context, cfg *config.Config) error {
	build, err := localBuild(cfg)
	if err != nil {
		return err
	}

	rep, pubErr := newPublisher(cfg, metrics.NoopRecorder{}).Publish(ctx, build)
	recordHistory(ctx, cfg, rep, pubErr)

	if pubErr != nil {
		return pubErr
	}
	for _, issue := range rep.CleanupIssues {
		slog.Warn("Post-activation issue", "issue", issue)
	}
	fmt.Printf("published %s (deleted %d stale releases)\n", rep.Release.String(), len(rep.Deleted))
	return nil
}

func recordHistory(ctx context.Context, cfg *config.Config, rep *publish.Report, pubErr error) {
	store, err := history.Open(cfg.History.Path)
	if err != nil {
		slog.Warn("Publish history unavailable", "error", err)
		return
	}
	defer store.Close()

	// LastState preserves the stage reached when the publish failed.
	rec := history.Record{
		Release:  rep.Release.String(),
		State:    string(rep.LastState),
		Outcome:  "success",
		Duration: rep.Duration,
	}
	if m := rep.Manifest; m != nil {
		rec.Commit = m.Commit
		rec.Branch = m.Branch
	}
	if pubErr != nil {
		rec.Outcome = "failed"
		rec.Error = pubErr.Error()
	}
	if err := store.Record(ctx, rec); err != nil {
		slog.Warn("Failed to record publish history", "error", err)
	}
}

// runReleases lists the remote releases directory, newest first, marking the
// release the current alias resolves to.
func runReleases(ctx context.Context, cfg *config.Config) error {
	client := remote.NewClient(cfg.Deploy.Host,
		remote.WithBinaries(cfg.Deploy.SSHBin, cfg.Deploy.RsyncBin))
	releasesPath := cfg.Deploy.BaseDir + "/" + cfg.Deploy.ReleasesDir

	listing, err := client.Output(ctx, "ls -1 "+releasesPath)
	if err != nil {
		return fmt.Errorf("list remote releases: %w", err)
	}
	current, err := client.Output(ctx, "readlink "+releasesPath+"/"+cfg.Deploy.Alias)
	if err != nil {
		slog.Warn("Current alias unresolvable", "error", err)
		current = ""
	}

	var names []release.Name
	for _, line := range strings.Split(listing, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || line == cfg.Deploy.Alias || strings.HasPrefix(line, ".") {
			continue
		}
		n, err := release.Parse(line)
		if err != nil {
			continue
		}
		names = append(names, n)
	}
	release.SortNewestFirst(names)

	if len(names) == 0 {
		fmt.Println("no releases on remote")
		return nil
	}
	for _, n := range names {
		marker := "  "
		if n.String() == current {
			marker = "* "
		}
		fmt.Println(marker + n.String())
	}
	return nil
}

func runHistory(ctx context.Context, cfg *config.Config, limit int) error {
	store, err := history.Open(cfg.History.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	records, err := store.Recent(ctx, limit)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("no publishes recorded yet")
		return nil
	}
	for _, r := range records {
		line := fmt.Sprintf("%s  %-7s %s", r.At.Format(time.DateTime), r.Outcome, r.Release)
		if r.Commit != "" {
			line += "  " + shortCommit(r.Commit)
		}
		if r.Error != "" {
			line += "  " + r.Error
		}
		fmt.Println(line)
	}
	return nil
}

func shortCommit(commit string) string {
	if len(commit) > 8 {
		return commit[:8]
	}
	return commit
}

// sourceUnchanged reports whether HEAD matches the commit of the last
// successful publish. Any doubt (no repo, no history) means "changed" so the
// publish proceeds.
func sourceUnchanged(ctx context.Context, cfg *config.Config) bool {
	info, err := source.Describe(cfg.Source.Dir)
	if err != nil || info.Commit == "" {
		return false
	}
	store, err := history.Open(cfg.History.Path)
	if err != nil {
		return false
	}
	defer store.Close()
	last, err := store.LastSuccess(ctx)
	if err != nil {
		return false
	}
	return last.Commit == info.Commit
}

func runDaemon(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	recorder := metrics.NewPrometheusRecorder(registry)

	publishCycle := func(ctx context.Context) error {
		if sourceUnchanged(ctx, cfg) {
			slog.Info("Source unchanged since last successful publish, skipping")
			return nil
		}
		if err := runBuild(ctx, cfg, false, false); err != nil {
			return err
		}
		build, err := localBuild(cfg)
		if err != nil {
			return err
		}
		rep, pubErr := newPublisher(cfg, recorder).Publish(ctx, build)
		recordHistory(ctx, cfg, rep, pubErr)
		return pubErr
	}
	regenNav := func(context.Context) error {
		return nav.FromConfig(cfg.Source, cfg.Nav).Generate()
	}

	watchDir := filepath.Join(cfg.Source.Dir, cfg.Source.PagesDir)
	d, err := daemon.New(cfg.Daemon, watchDir, publishCycle, regenNav,
		daemon.WithMetricsRegistry(registry))
	if err != nil {
		return err
	}
	return d.Run(ctx)
}
