package crawl

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bexardata/deedcrawler/internal/records"
	"github.com/bexardata/deedcrawler/internal/window"
)

// terminateTimeout bounds the final flush/checkpoint/close work when the
// run context is already canceled.
const terminateTimeout = 30 * time.Second

// Config holds the crawl loop knobs. It is constructed once at startup;
// the controller performs no ambient configuration reads.
type Config struct {
	DefaultEndDate string
	MinStartDate   string
	WindowYears    int

	PageSize      int
	OffsetCeiling int
	BatchSize     int

	MaxPagesPerSession int
	BreakEveryNPages   int

	MinDelay   time.Duration
	MaxDelay   time.Duration
	BreakMin   time.Duration
	BreakMax   time.Duration
	PageSettle time.Duration
	RetryPause time.Duration
}

// Controller owns the in-memory checkpoint and page/offset counters for
// the duration of a run and drives the page-by-page crawl loop.
type Controller struct {
	cfg      Config
	session  Session
	store    RecordStore
	ckpts    Checkpoints
	detector *CeilingDetector
	pauser   Pauser
	logger   *zap.Logger

	runID   string
	endDate string
	offset  int
	pageNum int
	buffer  []records.DeedRecord
}

// NewController wires a controller from its collaborators.
func NewController(
	cfg Config,
	session Session,
	recordStore RecordStore,
	ckpts Checkpoints,
	detector *CeilingDetector,
	pauser Pauser,
	logger *zap.Logger,
) *Controller {
	if pauser == nil {
		pauser = TimerPauser{}
	}
	return &Controller{
		cfg:      cfg,
		session:  session,
		store:    recordStore,
		ckpts:    ckpts,
		detector: detector,
		pauser:   pauser,
		logger:   logger,
		runID:    uuid.NewString(),
	}
}

// Run executes one crawl session: reconcile, walk pages, terminate with a
// final flush and checkpoint. The returned reason names the terminal
// transition; err reports faults that ended the run early. The controller
// releases the session on every exit path.
func (c *Controller) Run(ctx context.Context) (reason StopReason, err error) {
	log := c.logger.With(zap.String("run_id", c.runID))

	c.reconcile(ctx, log)

	win := window.New(c.endDate, c.cfg.WindowYears, c.cfg.MinStartDate)
	log.Info("active window",
		zap.String("start", win.Start),
		zap.String("end", win.End),
		zap.Int("offset", c.offset),
		zap.Int("page", c.pageNum))

	defer c.terminate(log)

	if err := c.session.OpenSearch(ctx, win, c.offset); err != nil {
		return StopFetchError, fmt.Errorf("open search: %w", err)
	}

	return c.loop(ctx, log)
}

// reconcile loads the checkpoint and slides the window when the store has
// already absorbed the portal's result ceiling for the current window.
// Sliding sets the end date to the oldest persisted record so the window
// converges toward dates the portal will still serve.
func (c *Controller) reconcile(ctx context.Context, log *zap.Logger) {
	state := c.ckpts.Load()
	c.endDate = state.EndDate
	c.offset = state.Offset
	c.pageNum = c.offset/c.cfg.PageSize + 1

	stats, err := c.store.Stats(ctx)
	if err != nil {
		log.Warn("store stats unavailable; skipping slide check", zap.Error(err))
		return
	}
	log.Info("store snapshot",
		zap.Int64("records", stats.RecordCount),
		zap.String("oldest", stats.OldestRecordedDate))

	if stats.RecordCount < int64(c.cfg.OffsetCeiling) {
		return
	}
	oldest := stats.OldestRecordedDate
	if oldest == "" || c.endDate <= oldest {
		// Window already aligned with the oldest persisted record; do not
		// re-persist an unchanged checkpoint.
		return
	}
	log.Info("sliding window", zap.String("from", c.endDate), zap.String("to", oldest))
	c.endDate = oldest
	c.offset = 0
	c.pageNum = 1
	if err := c.ckpts.Save(c.endDate, c.offset); err != nil {
		log.Error("checkpoint save after slide failed", zap.Error(err))
	}
}

func (c *Controller) loop(ctx context.Context, log *zap.Logger) (StopReason, error) {
	pagesSession := 0
	for {
		if ctx.Err() != nil {
			return StopInterrupted, nil
		}

		pagesSession++
		if c.cfg.MaxPagesPerSession > 0 && pagesSession > c.cfg.MaxPagesPerSession {
			log.Info("session page budget reached", zap.Int("pages", pagesSession-1))
			return StopSessionBudget, nil
		}

		log.Info("page", zap.Int("number", c.pageNum), zap.Int("offset", c.offset))

		// Enforce the ceiling before fetching. The slide decision is
		// deferred to the next run's reconciliation, keeping the slide
		// logic single-entry.
		if c.offset >= c.cfg.OffsetCeiling {
			log.Info("offset ceiling reached", zap.Int("offset", c.offset))
			c.saveCheckpoint(log)
			return StopOffsetCeiling, nil
		}

		if pagesSession > 1 && c.cfg.BreakEveryNPages > 0 && pagesSession%c.cfg.BreakEveryNPages == 0 {
			d := randomBetween(c.cfg.BreakMin, c.cfg.BreakMax)
			log.Info("taking a break", zap.Duration("duration", d))
			c.pauser.Pause(ctx, d)
		}

		rows, err := c.session.WaitForRows(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return StopInterrupted, nil
			}
			if !errors.Is(err, ErrRenderTimeout) {
				return StopFetchError, fmt.Errorf("fetch page %d: %w", c.pageNum, err)
			}
			reason, retry := c.handleRenderTimeout(ctx, log)
			if retry {
				continue
			}
			return reason, nil
		}

		if len(rows) == 0 {
			log.Info("no rows; window exhausted")
			return StopNoRows, nil
		}

		extracted := 0
		for _, row := range rows {
			rec := records.FromRow(row)
			if !rec.Valid() {
				continue
			}
			c.buffer = append(c.buffer, rec)
			extracted++
		}
		log.Info("extracted records",
			zap.Int("count", extracted),
			zap.Int("buffered", len(c.buffer)))

		if len(c.buffer) >= c.cfg.BatchSize {
			c.flush(ctx, log)
		}

		c.offset += c.cfg.PageSize
		c.pageNum++
		c.saveCheckpoint(log)

		if err := c.session.NextPage(ctx); err != nil {
			if errors.Is(err, ErrNoNextPage) {
				log.Info("no next-page control; end of window")
				return StopNoNextPage, nil
			}
			if ctx.Err() != nil {
				return StopInterrupted, nil
			}
			log.Warn("pagination failed; ending window", zap.Error(err))
			return StopNoNextPage, nil
		}
		c.pauser.Pause(ctx, c.cfg.PageSettle)
		c.pauser.Pause(ctx, randomBetween(c.cfg.MinDelay, c.cfg.MaxDelay))
	}
}

// handleRenderTimeout distinguishes a hard portal ceiling from a transient
// render failure. A marker forces the checkpoint offset to the ceiling
// constant, a sentinel that compels the next run's reconciliation to
// slide even when the store-count check alone would not trigger it.
// retry is true when the timeout should be treated as transient.
func (c *Controller) handleRenderTimeout(ctx context.Context, log *zap.Logger) (reason StopReason, retry bool) {
	content, err := c.session.PageText(ctx)
	if err != nil {
		log.Warn("page source unavailable after timeout", zap.Error(err))
		content = ""
	}
	if hit, snip := c.detector.Detect(content); hit {
		log.Warn("result ceiling marker detected", zap.String("snippet", snip))
		c.offset = c.cfg.OffsetCeiling
		c.saveCheckpoint(log)
		return StopCeilingMarker, false
	}
	log.Warn("results table render timeout; reloading")
	if err := c.session.Reload(ctx); err != nil {
		log.Warn("reload failed", zap.Error(err))
	}
	c.pauser.Pause(ctx, c.cfg.RetryPause)
	return "", true
}

// flush pushes the buffer to the store. On failure the buffer is retained
// so the next flush attempt resubmits it; conflict-skip upserts make the
// resubmission idempotent.
func (c *Controller) flush(ctx context.Context, log *zap.Logger) {
	if len(c.buffer) == 0 {
		return
	}
	inserted, err := c.store.UpsertBatch(ctx, c.buffer)
	if err != nil {
		log.Error("batch upsert failed; retaining buffer",
			zap.Int("records", len(c.buffer)),
			zap.Error(err))
		return
	}
	log.Info("synced batch",
		zap.Int("records", len(c.buffer)),
		zap.Int64("inserted", inserted))
	c.buffer = c.buffer[:0]
}

func (c *Controller) saveCheckpoint(log *zap.Logger) {
	if err := c.ckpts.Save(c.endDate, c.offset); err != nil {
		log.Error("checkpoint save failed",
			zap.String("end_date", c.endDate),
			zap.Int("offset", c.offset),
			zap.Error(err))
	}
}

// terminate is the single exit path for every run: flush any buffered
// records, persist the final checkpoint, and release the session. It runs
// on a fresh context so a canceled run still completes its final writes.
func (c *Controller) terminate(log *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), terminateTimeout)
	defer cancel()

	c.flush(ctx, log)
	if len(c.buffer) > 0 {
		log.Error("terminating with unflushed records; batch lost",
			zap.Int("records", len(c.buffer)))
	}
	c.saveCheckpoint(log)
	if err := c.session.Close(ctx); err != nil {
		log.Warn("session close failed", zap.Error(err))
	}
	log.Info("Done.")
}
