package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bexardata/deedcrawler/internal/browser"
	"github.com/bexardata/deedcrawler/internal/checkpoint"
	"github.com/bexardata/deedcrawler/internal/config"
	"github.com/bexardata/deedcrawler/internal/crawl"
	"github.com/bexardata/deedcrawler/internal/logging"
	"github.com/bexardata/deedcrawler/internal/store"
)

// newCrawlCmd creates and configures the 'crawl' subcommand.
func newCrawlCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "crawl",
		Short: "Run one resumable crawl session",
		Long: `Runs a single crawl session: reconciles the checkpoint against the
store, derives the active recorded-date window, and walks result pages
until a terminal condition is reached. Safe to re-run on a schedule.`,
		RunE: runCrawlCommand,
	}
}

func runCrawlCommand(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gateway, closeGateway := buildGateway(ctx, cfg, logger)
	defer closeGateway()

	session, err := browser.NewSession(browser.Config{
		Search: browser.SearchConfig{
			BaseURL:    cfg.Portal.BaseURL,
			Department: cfg.Portal.Department,
			DocTypes:   cfg.Portal.DocTypes,
			PageSize:   cfg.Crawl.PageSize,
			SortBy:     cfg.Portal.SortBy,
			SortOrder:  cfg.Portal.SortOrder,
		},
		Headless:      cfg.Browser.Headless || cfg.Crawl.CI,
		UserAgent:     cfg.Browser.UserAgent,
		ProxyURL:      cfg.Browser.ProxyURL,
		RenderTimeout: cfg.Browser.RenderTimeout,
		NavQPS:        cfg.Browser.NavQPS,
		OpenSettle:    cfg.Browser.OpenSettle,
	}, logger)
	if err != nil {
		return fmt.Errorf("start browser session: %w", err)
	}

	controller := crawl.NewController(
		crawl.Config{
			DefaultEndDate:     cfg.Crawl.DefaultEndDate,
			MinStartDate:       cfg.Crawl.MinStartDate,
			WindowYears:        cfg.Crawl.WindowYears,
			PageSize:           cfg.Crawl.PageSize,
			OffsetCeiling:      cfg.Crawl.OffsetCeiling,
			BatchSize:          cfg.Crawl.BatchSize,
			MaxPagesPerSession: cfg.SessionPageBudget(),
			BreakEveryNPages:   cfg.Crawl.BreakEveryNPages,
			MinDelay:           cfg.Crawl.MinDelay,
			MaxDelay:           cfg.Crawl.MaxDelay,
			BreakMin:           cfg.Crawl.BreakMin,
			BreakMax:           cfg.Crawl.BreakMax,
			PageSettle:         cfg.Crawl.PageSettle,
			RetryPause:         cfg.Crawl.RetryPause,
		},
		session,
		gateway,
		checkpoint.NewFileStore(cfg.Crawl.StateFile, cfg.Crawl.DefaultEndDate),
		crawl.NewCeilingDetector(cfg.Crawl.CeilingMarkers),
		nil,
		logger,
	)

	reason, err := controller.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("crawl ended with error",
			zap.String("reason", string(reason)),
			zap.Error(err))
		return err
	}
	logger.Info("crawl finished", zap.String("reason", string(reason)))
	return nil
}

// buildGateway connects the persistence gateway, degrading to a no-op
// store when no DSN is configured or the database is unreachable: the
// crawl still runs and buffers rather than crashing.
func buildGateway(ctx context.Context, cfg config.Config, logger *zap.Logger) (crawl.RecordStore, func()) {
	if cfg.DB.URL == "" {
		logger.Warn("no database url configured; persistence disabled")
		return store.NoOp{}, func() {}
	}
	pg, err := store.NewPostgres(ctx, cfg.DB.URL, logger)
	if err != nil {
		logger.Error("database unavailable; persistence disabled", zap.Error(err))
		return store.NoOp{}, func() {}
	}
	if err := pg.EnsureSchema(ctx); err != nil {
		logger.Error("schema bootstrap failed", zap.Error(err))
	}
	return pg, pg.Close
}
