// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dupetable/dupetable/internal/config"
	"github.com/dupetable/dupetable/internal/issue"
	"github.com/dupetable/dupetable/internal/janitor"
	"github.com/dupetable/dupetable/internal/pack"
	"github.com/dupetable/dupetable/internal/ratelimit"
	"github.com/dupetable/dupetable/internal/recipe"
	"github.com/dupetable/dupetable/internal/server"
	"github.com/dupetable/dupetable/internal/session"
	"github.com/dupetable/dupetable/internal/testutil"
	"github.com/dupetable/dupetable/internal/watch"
)

// Patterns the sweepers clean up: served custom archives and temp files
// left behind by an interrupted atomic publish.
var (
	customArchivePatterns = []string{"custom_*.zip"}
	publishTempPatterns   = []string{".*.tmp-*"}
)

type serveOptions struct {
	host string
	port int
}

func newServeCommand(app *App) *cobra.Command {
	opts := &serveOptions{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web service",
		Long: `Run the HTTP service that accepts catalog uploads and serves recipe packs.

The service stops cleanly on Ctrl+C. Custom archives are removed a few
minutes after they are served, and a background sweeper removes anything
older than cleanup.max_age.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, app, opts)
		},
	}
	cmd.Flags().StringVar(&opts.host, "host", "", "listen host (overrides server.host)")
	cmd.Flags().IntVarP(&opts.port, "port", "p", 0, "listen port (overrides server.port)")
	return cmd
}

func runServe(cmd *cobra.Command, app *App, opts *serveOptions) error {
	ctx := cmd.Context()

	cfg, err := app.loadConfig(ctx)
	if err != nil {
		return app.reportFailure(cmd, err, 1)
	}
	if opts.host != "" {
		cfg.Server.Host = opts.host
	}
	if opts.port != 0 {
		cfg.Server.Port = opts.port
	}
	logger := app.newLogger(cfg)

	svc, err := buildService(ctx, cfg, logger)
	if err != nil {
		return app.reportFailure(cmd, err, 1)
	}
	defer svc.close()

	if err := svc.run(ctx); err != nil {
		wrapped := issue.NewErrorContext().
			WithOperation("run server").
			WithResource(fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)).
			WithSuggestion("Check that the port is free or pick another with --port").
			Wrap(err).
			Build()
		return app.reportFailure(cmd, wrapped, 1)
	}
	return nil
}

// service is everything serve supervises.
type service struct {
	logger    *log.Logger
	server    *server.Server
	templates *recipe.Source
	sweepers  []*janitor.Sweeper
	watcher   *watch.Watcher
	// workers are extra background loops, such as the memory limiter's pruner.
	workers []func(context.Context) error
	closers   []io.Closer
}

func buildService(ctx context.Context, cfg *config.Config, logger *log.Logger) (_ *service, err error) {
	paths := cfg.Paths.Resolved()
	svc := &service{logger: logger}
	defer func() {
		if err != nil {
			svc.close()
		}
	}()

	if err := os.MkdirAll(paths.DataDir, 0o755); err != nil {
		return nil, issue.WrapWithContext(err, "create data directory", paths.DataDir)
	}
	tempDir := paths.TempDir
	if tempDir == "" {
		tempDir = os.TempDir()
	}

	svc.templates = recipe.NewSource(paths.Template, logger.WithPrefix("recipe"))
	if _, err := svc.templates.Renderer(); err != nil {
		logger.Warn("recipe template unavailable; generation will fail until it exists",
			"path", paths.Template, "err", err)
	}
	if _, err := os.Stat(paths.PackIcon); err != nil {
		logger.Warn("pack icon missing; behavior packs will ship without one", "path", paths.PackIcon)
	}

	assembler, err := pack.NewAssembler(
		pack.WithLogger(logger.WithPrefix("pack")),
		pack.WithAssets(pack.Assets{PackIcon: paths.PackIcon, TextureDir: paths.TextureDir}),
	)
	if err != nil {
		return nil, err
	}

	limiter, err := ratelimit.New(ctx, ratelimit.Config{
		Backend:  cfg.RateLimit.Backend.String(),
		Requests: cfg.RateLimit.Requests,
		Window:   cfg.RateLimit.Window,
		RedisURL: cfg.RateLimit.RedisURL,
	})
	if err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("create rate limiter").
			WithResource(cfg.RateLimit.Backend.String()).
			WithSuggestion("Check rate_limit.redis_url or switch rate_limit.backend to \"memory\"").
			Wrap(err).
			Build()
	}
	if c, ok := limiter.(io.Closer); ok {
		svc.closers = append(svc.closers, c)
	}
	if m, ok := limiter.(*ratelimit.Memory); ok {
		svc.workers = append(svc.workers, m.Run)
	}

	svc.server, err = server.New(server.Config{
		Host:             cfg.Server.Host,
		Port:             cfg.Server.Port,
		ReadTimeout:      cfg.Server.ReadTimeout,
		WriteTimeout:     cfg.Server.WriteTimeout,
		ShutdownTimeout:  cfg.Server.ShutdownTimeout,
		MaxItems:         cfg.Limits.MaxItems,
		MaxNameLength:    cfg.Limits.MaxNameLength,
		MaxUploadBytes:   cfg.Limits.MaxUploadBytes,
		StandardArchive:  paths.StandardArchive,
		TempDir:          tempDir,
		CustomArchiveTTL: cfg.Cleanup.CustomArchiveTTL,
		TrustedProxies:   cfg.Server.TrustedProxies,
	}, server.Deps{
		Templates: svc.templates,
		Assembler: assembler,
		Sessions: session.NewStore(paths.Session,
			session.WithLogger(logger.WithPrefix("session")),
			session.WithMaxNameLength(cfg.Limits.MaxNameLength)),
		Master:  session.NewMasterList(paths.MasterList, cfg.Limits.MaxNameLength),
		Limiter: limiter,
		Janitor: janitor.NewScheduler(logger.WithPrefix("janitor")),
		Logger:  logger.WithPrefix("http"),
	})
	if err != nil {
		return nil, err
	}

	for _, sc := range []janitor.SweepConfig{
		{Dir: tempDir, Patterns: customArchivePatterns},
		{Dir: paths.DataDir, Patterns: publishTempPatterns},
	} {
		sc.MaxAge = cfg.Cleanup.MaxAge
		sc.Interval = cfg.Cleanup.Interval
		sw, err := janitor.NewSweeper(sc, testutil.RealClock{}, logger.WithPrefix("sweeper"))
		if err != nil {
			return nil, err
		}
		svc.sweepers = append(svc.sweepers, sw)
	}

	if cfg.Watch.Template {
		svc.watcher, err = watch.New(watch.ForFile(paths.Template, watch.DefaultDebounce, svc.reloadTemplate, logger.WithPrefix("watch")))
		if err != nil {
			// Serving works without live reload.
			logger.Warn("template watch disabled", "path", paths.Template, "err", err)
			svc.watcher = nil
		}
	}

	return svc, nil
}

// reloadTemplate never fails the watcher; Reload logs its own outcome.
func (s *service) reloadTemplate(context.Context, []string) error {
	_ = s.templates.Reload()
	return nil
}

// run supervises the server and background workers until ctx is done or
// one of them fails.
func (s *service) run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.server.Run(gctx) })
	for _, sw := range s.sweepers {
		g.Go(func() error { return sw.Run(gctx) })
	}
	if s.watcher != nil {
		g.Go(func() error { return s.watcher.Run(gctx) })
	}
	for _, run := range s.workers {
		g.Go(func() error { return run(gctx) })
	}

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (s *service) close() {
	for _, c := range s.closers {
		if err := c.Close(); err != nil {
			s.logger.Warn("close", "err", err)
		}
	}
	s.closers = nil
}
