package mysql

import (
	"context"
	"database/sql"
	"time"

	"github.com/oklog/ulid/v2"
)

// WorkQueue is an outbox table the analysis worker polls.
type WorkQueue struct {
	db *sql.DB
}

func NewWorkQueue(conn *sql.DB) *WorkQueue { return &WorkQueue{db: conn} }

func (q *WorkQueue) Send(ctx context.Context, payload []byte) (string, error) {
	id := ulid.Make().String()
	const stmt = `INSERT INTO wafr_work_items (message_id, body, enqueued_at) VALUES (?,?,?)`
	if _, err := q.db.ExecContext(ctx, stmt, id, string(payload), time.Now().UTC()); err != nil {
		return "", err
	}
	return id, nil
}
