package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/bexardata/deedcrawler/internal/records"
	"github.com/bexardata/deedcrawler/internal/window"
)

// pgPool is the subset of pgxpool.Pool the gateway needs; pgxmock stands
// in for it in tests.
type pgPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// Postgres is the pgx-backed persistence gateway for deed records.
type Postgres struct {
	pool   pgPool
	logger *zap.Logger
}

// NewPostgres connects a pool for the given DSN and verifies it with a
// ping.
func NewPostgres(ctx context.Context, dsn string, logger *zap.Logger) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Postgres{pool: pool, logger: logger}, nil
}

// NewPostgresWithPool constructs a gateway from an existing pool
// (primarily for testing).
func NewPostgresWithPool(pool pgPool, logger *zap.Logger) *Postgres {
	return &Postgres{pool: pool, logger: logger}
}

const createTableSQL = `
CREATE TABLE IF NOT EXISTS land_records (
	id SERIAL PRIMARY KEY,
	doc_number TEXT UNIQUE,
	grantor TEXT,
	grantee TEXT,
	doc_type TEXT,
	recorded_date DATE,
	book_volume_page TEXT,
	legal_description TEXT,
	lot TEXT,
	block TEXT,
	ncb TEXT,
	county_block TEXT,
	property_address TEXT,
	created_at TIMESTAMP DEFAULT NOW()
)`

// EnsureSchema creates the land_records table when it does not exist.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, createTableSQL); err != nil {
		return fmt.Errorf("create land_records table: %w", err)
	}
	return nil
}

// recordColumns is the insert column list for land_records, matching the
// argument order produced by appendRecordArgs.
const recordColumns = "doc_number, grantor, grantee, doc_type, recorded_date, book_volume_page, legal_description, lot, block, ncb, county_block, property_address"

const recordColumnCount = 12

// UpsertBatch inserts the batch in one statement, skipping doc_number
// conflicts (first write wins). Recorded dates that fail to parse are
// stored as NULL rather than failing the batch. Returns the number of
// rows actually inserted.
func (p *Postgres) UpsertBatch(ctx context.Context, batch []records.DeedRecord) (int64, error) {
	if len(batch) == 0 {
		return 0, nil
	}

	groups := make([]string, 0, len(batch))
	args := make([]any, 0, len(batch)*recordColumnCount)
	for i, rec := range batch {
		placeholders := make([]string, recordColumnCount)
		for j := range placeholders {
			placeholders[j] = fmt.Sprintf("$%d", i*recordColumnCount+j+1)
		}
		groups = append(groups, "("+strings.Join(placeholders, ",")+")")
		args = p.appendRecordArgs(args, rec)
	}

	query := fmt.Sprintf(
		"INSERT INTO land_records (%s) VALUES %s ON CONFLICT (doc_number) DO NOTHING",
		recordColumns, strings.Join(groups, ","),
	)
	tag, err := p.pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("insert deed batch: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (p *Postgres) appendRecordArgs(args []any, rec records.DeedRecord) []any {
	var recorded any
	if rec.RecordedDate != "" {
		t, err := records.ParseRecordedDate(rec.RecordedDate)
		if err != nil {
			p.logger.Debug("recorded date not parseable; storing NULL",
				zap.String("doc_number", rec.DocNumber),
				zap.Error(err))
		} else {
			recorded = t
		}
	}
	return append(args,
		rec.DocNumber, rec.Grantor, rec.Grantee, rec.DocType, recorded,
		rec.BookVolumePage, rec.LegalDescription, rec.Lot, rec.Block,
		rec.NCB, rec.CountyBlock, rec.PropertyAddress,
	)
}

// Stats reports the current row count and the oldest recorded date.
func (p *Postgres) Stats(ctx context.Context) (Stats, error) {
	var (
		count  int64
		oldest *time.Time
	)
	row := p.pool.QueryRow(ctx, "SELECT COUNT(*), MIN(recorded_date) FROM land_records")
	if err := row.Scan(&count, &oldest); err != nil {
		return Stats{}, fmt.Errorf("query store stats: %w", err)
	}
	st := Stats{RecordCount: count}
	if oldest != nil {
		st.OldestRecordedDate = oldest.Format(window.DateLayout)
	}
	return st, nil
}

// Close releases the underlying pool resources.
func (p *Postgres) Close() {
	if p == nil || p.pool == nil {
		return
	}
	p.pool.Close()
}
