// Package store persists deed records into the relational store.
package store

import (
	"context"

	"github.com/bexardata/deedcrawler/internal/records"
)

// Stats is a read-only snapshot of the persisted record set, queried once
// per run to drive the window-slide decision.
type Stats struct {
	RecordCount int64
	// OldestRecordedDate is formatted YYYYMMDD; empty when the store holds
	// no dated rows.
	OldestRecordedDate string
}

// NoOp satisfies the gateway contract without a database. Used when no
// DSN is configured: the crawl still runs and buffers, persistence is
// skipped.
type NoOp struct{}

// UpsertBatch discards the batch.
func (NoOp) UpsertBatch(context.Context, []records.DeedRecord) (int64, error) { return 0, nil }

// Stats reports an empty store.
func (NoOp) Stats(context.Context) (Stats, error) { return Stats{}, nil }

// Close is a no-op.
func (NoOp) Close() {}
