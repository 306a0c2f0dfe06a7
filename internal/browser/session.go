// Package browser drives the county records portal in headless Chrome via
// chromedp. The portal is client-rendered, so results are read from the
// live DOM of a single long-lived tab rather than raw HTTP responses.
package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/bexardata/deedcrawler/internal/crawl"
	"github.com/bexardata/deedcrawler/internal/records"
	"github.com/bexardata/deedcrawler/internal/window"
)

// Config controls the browsing session.
type Config struct {
	Search SearchConfig

	Headless  bool
	UserAgent string
	// ProxyURL routes browser traffic through a proxy when non-empty.
	ProxyURL string

	// RenderTimeout bounds the wait for the results table.
	RenderTimeout time.Duration
	// NavQPS caps navigation and pagination actions per second; zero
	// disables the limiter.
	NavQPS float64
	// OpenSettle is the fixed pause after the initial navigation before
	// banners are dismissed.
	OpenSettle time.Duration
}

// Session is a single-tab chromedp browsing session against the portal.
type Session struct {
	cfg           Config
	logger        *zap.Logger
	limiter       *rate.Limiter
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
}

// NewSession launches headless Chrome and warms up a browser context.
func NewSession(cfg Config, logger *zap.Logger) (*Session, error) {
	if cfg.RenderTimeout <= 0 {
		cfg.RenderTimeout = 60 * time.Second
	}
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("hide-scrollbars", true),
	)
	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}
	if cfg.ProxyURL != "" {
		opts = append(opts, chromedp.ProxyServer(cfg.ProxyURL))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("chromedp warmup: %w", err)
	}

	var limiter *rate.Limiter
	if cfg.NavQPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.NavQPS), 1)
	}
	return &Session{
		cfg:           cfg,
		logger:        logger,
		limiter:       limiter,
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
	}, nil
}

// rowSnapshotJS reads every results-table row into a column-class to
// cell-text object, mirroring the portal's td class layout.
const rowSnapshotJS = `Array.from(document.querySelectorAll("table tbody tr")).map(function(tr) {
	var cells = {};
	tr.querySelectorAll("td").forEach(function(td) {
		Array.from(td.classList).forEach(function(cls) {
			if (cls.indexOf("col-") === 0) { cells[cls] = td.innerText; }
		});
	});
	return cells;
})`

// dismissBannersJS clicks consent/notice buttons labeled Accept or Close.
const dismissBannersJS = `(function() {
	var clicked = 0;
	document.querySelectorAll("button").forEach(function(btn) {
		var label = (btn.innerText || "").trim();
		if (label.indexOf("Accept") !== -1 || label.indexOf("Close") !== -1) {
			btn.click();
			clicked++;
		}
	});
	return clicked;
})()`

// nextButtonJS clicks the pagination control: a button whose aria-label
// mentions Next, falling back to the last button inside a nav element.
// Returns false when no enabled control exists.
const nextButtonJS = `(function() {
	var btn = document.querySelector("button[aria-label*='Next']");
	if (!btn) {
		var navButtons = document.querySelectorAll("nav button");
		if (navButtons.length > 0) { btn = navButtons[navButtons.length - 1]; }
	}
	if (!btn || btn.disabled) { return false; }
	btn.click();
	return true;
})()`

// OpenSearch navigates to the results page for the window and offset,
// lets the page settle, and dismisses consent banners.
func (s *Session) OpenSearch(ctx context.Context, win window.Window, offset int) error {
	if err := s.waitBudget(ctx); err != nil {
		return err
	}
	target := SearchURL(s.cfg.Search, win, offset)
	s.logger.Info("opening search", zap.String("url", target))

	tasks := chromedp.Tasks{
		network.Enable(),
		chromedp.Navigate(target),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(s.cfg.OpenSettle),
	}
	if s.cfg.UserAgent != "" {
		tasks = append(chromedp.Tasks{emulation.SetUserAgentOverride(s.cfg.UserAgent)}, tasks...)
	}
	if err := s.run(ctx, 0, tasks); err != nil {
		return fmt.Errorf("navigate %s: %w", target, err)
	}
	s.dismissBanners(ctx)
	return nil
}

func (s *Session) dismissBanners(ctx context.Context) {
	var clicked int
	if err := s.run(ctx, 10*time.Second, chromedp.Evaluate(dismissBannersJS, &clicked)); err != nil {
		s.logger.Debug("banner dismissal failed", zap.Error(err))
		return
	}
	if clicked > 0 {
		s.logger.Debug("dismissed banners", zap.Int("count", clicked))
	}
}

// WaitForRows waits for the results table within the render bound and
// snapshots its rows.
func (s *Session) WaitForRows(ctx context.Context) ([]records.Row, error) {
	err := s.run(ctx, s.cfg.RenderTimeout, chromedp.WaitVisible("table tbody tr", chromedp.ByQuery))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("results table did not render: %w", crawl.ErrRenderTimeout)
		}
		return nil, fmt.Errorf("wait for results table: %w", err)
	}

	var cells []map[string]string
	if err := s.run(ctx, s.cfg.RenderTimeout, chromedp.Evaluate(rowSnapshotJS, &cells)); err != nil {
		return nil, fmt.Errorf("snapshot result rows: %w", err)
	}
	rows := make([]records.Row, 0, len(cells))
	for _, c := range cells {
		rows = append(rows, records.CellMap(c))
	}
	return rows, nil
}

// PageText returns the current page markup for ceiling-marker inspection.
func (s *Session) PageText(ctx context.Context) (string, error) {
	var html string
	if err := s.run(ctx, s.cfg.RenderTimeout, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("read page source: %w", err)
	}
	return html, nil
}

// Reload re-requests the current page.
func (s *Session) Reload(ctx context.Context) error {
	if err := s.waitBudget(ctx); err != nil {
		return err
	}
	if err := s.run(ctx, s.cfg.RenderTimeout, chromedp.Reload()); err != nil {
		return fmt.Errorf("reload page: %w", err)
	}
	return nil
}

// NextPage scrolls to the pagination control and clicks it.
func (s *Session) NextPage(ctx context.Context) error {
	if err := s.waitBudget(ctx); err != nil {
		return err
	}
	scroll := chromedp.Tasks{
		chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`, nil),
		chromedp.Sleep(time.Second),
	}
	if err := s.run(ctx, s.cfg.RenderTimeout, scroll); err != nil {
		return fmt.Errorf("scroll to pagination: %w", err)
	}

	var clicked bool
	if err := s.run(ctx, s.cfg.RenderTimeout, chromedp.Evaluate(nextButtonJS, &clicked)); err != nil {
		return fmt.Errorf("advance page: %w", err)
	}
	if !clicked {
		return fmt.Errorf("pagination control missing or disabled: %w", crawl.ErrNoNextPage)
	}
	return nil
}

// Close tears down the browser and allocator contexts.
func (s *Session) Close(context.Context) error {
	if s == nil {
		return nil
	}
	s.browserCancel()
	s.allocCancel()
	return nil
}

// run executes chromedp actions against the session tab, bounded by
// timeout when positive and canceled early if the caller's ctx finishes.
func (s *Session) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	taskCtx, cancel := context.WithCancel(s.browserCtx)
	defer cancel()
	if timeout > 0 {
		var tcancel context.CancelFunc
		taskCtx, tcancel = context.WithTimeout(taskCtx, timeout)
		defer tcancel()
	}
	stop := forwardCancel(ctx, cancel)
	defer stop()
	return chromedp.Run(taskCtx, actions...)
}

func (s *Session) waitBudget(ctx context.Context) error {
	if s.limiter == nil {
		return nil
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("wait navigation budget: %w", err)
	}
	return nil
}

func forwardCancel(parent context.Context, cancel context.CancelFunc) func() {
	if parent == nil {
		return func() {}
	}
	done := make(chan struct{})
	go func() {
		select {
		case <-parent.Done():
			cancel()
		case <-done:
		}
	}()
	return func() { close(done) }
}
