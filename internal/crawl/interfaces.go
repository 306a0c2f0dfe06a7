package crawl

import (
	"context"
	"errors"
	"time"

	"github.com/bexardata/deedcrawler/internal/checkpoint"
	"github.com/bexardata/deedcrawler/internal/records"
	"github.com/bexardata/deedcrawler/internal/store"
	"github.com/bexardata/deedcrawler/internal/window"
)

// Sentinel errors surfaced by the browsing session.
var (
	// ErrRenderTimeout reports that the results table did not materialize
	// within the bounded wait.
	ErrRenderTimeout = errors.New("results table render timeout")

	// ErrNoNextPage reports that no enabled pagination control is
	// available on the current page.
	ErrNoNextPage = errors.New("no next-page control")
)

// Session drives a single browsing session against the records portal.
// Exactly one session performs one page fetch at a time.
type Session interface {
	// OpenSearch navigates to the results page for the given window and
	// offset and settles the page (consent banners dismissed).
	OpenSearch(ctx context.Context, win window.Window, offset int) error

	// WaitForRows waits for the results table within the configured bound
	// and returns a snapshot of its rows. Returns ErrRenderTimeout
	// (wrapped) when the table never materializes.
	WaitForRows(ctx context.Context) ([]records.Row, error)

	// PageText returns the current page content for marker inspection.
	PageText(ctx context.Context) (string, error)

	// Reload re-requests the current page.
	Reload(ctx context.Context) error

	// NextPage advances to the next results page via the portal's
	// pagination control. Returns ErrNoNextPage (wrapped) when the
	// control is missing or disabled.
	NextPage(ctx context.Context) error

	// Close releases the underlying browsing session.
	Close(ctx context.Context) error
}

// RecordStore is the persistence gateway for extracted records.
type RecordStore interface {
	UpsertBatch(ctx context.Context, batch []records.DeedRecord) (int64, error)
	Stats(ctx context.Context) (store.Stats, error)
}

// Checkpoints is the durable resume-state store. It is the sole durable
// copy of crawl progress and the source of truth on the next run.
type Checkpoints interface {
	Load() checkpoint.State
	Save(endDate string, offset int) error
}

// Pauser abstracts crawl pacing so tests can skip real sleeps.
type Pauser interface {
	Pause(ctx context.Context, d time.Duration)
}
