package postgres

import (
	"context"
	"database/sql"

	"github.com/oklog/ulid/v2"
)

// NotifyChannel is the LISTEN channel woken on every Send.
const NotifyChannel = "wafr_work_items"

// WorkQueue is an outbox table; workers LISTEN on NotifyChannel instead of polling.
type WorkQueue struct {
	db *sql.DB
}

func NewWorkQueue(conn *sql.DB) *WorkQueue { return &WorkQueue{db: conn} }

func (q *WorkQueue) Send(ctx context.Context, payload []byte) (string, error) {
	id := ulid.Make().String()

	tx, err := q.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO wafr_work_items (message_id, body) VALUES ($1, $2)`, id, string(payload)); err != nil {
		return "", err
	}
	if _, err := tx.ExecContext(ctx, `SELECT pg_notify($1, $2)`, NotifyChannel, id); err != nil {
		return "", err
	}
	if err := tx.Commit(); err != nil {
		return "", err
	}
	return id, nil
}
