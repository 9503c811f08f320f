package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// Schema creates the tables the writers insert into. It is idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS reconstructed_events (
	run_id         UUID        NOT NULL,
	event_seq      BIGINT      NOT NULL,
	instrument     TEXT        NOT NULL,
	side           CHAR(1)     NOT NULL,
	price          BIGINT      NOT NULL,
	size           BIGINT,
	kind           TEXT        NOT NULL,
	hidden         BOOLEAN     NOT NULL,
	event_ts       TIMESTAMPTZ NOT NULL,
	participant_id INTEGER,
	order_id       UUID,
	PRIMARY KEY (run_id, event_seq)
);

CREATE INDEX IF NOT EXISTS reconstructed_events_instrument_ts
	ON reconstructed_events (instrument, event_ts);

CREATE TABLE IF NOT EXISTS book_snapshots (
	run_id      UUID        NOT NULL,
	snapshot_ts TIMESTAMPTZ NOT NULL,
	instrument  TEXT        NOT NULL,
	bids        JSONB       NOT NULL,
	asks        JSONB       NOT NULL,
	best_bid    BIGINT,
	best_ask    BIGINT,
	spread      BIGINT
);
`

// execer is the subset of *pgxpool.Pool EnsureSchema needs.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// EnsureSchema creates missing tables and indexes.
func EnsureSchema(ctx context.Context, db execer) error {
	if _, err := db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
