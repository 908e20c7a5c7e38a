package audit

import (
	"context"
	"fmt"

	"github.com/thrasher-corp/swingtrader/database"
)

// Insert writes events in a single transaction, rolling back on error
func Insert(ctx context.Context, db *database.Instance, events ...Event) error {
	if len(events) == 0 {
		return errNoEvents
	}
	conn, err := db.GetSQL()
	if err != nil {
		return err
	}
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	const query = `INSERT INTO audit_event (type, symbol, identifier, message, created_at) VALUES (?, ?, ?, ?, ?)`
	for i := range events {
		if _, err := tx.ExecContext(ctx, query, events[i].Type, events[i].Symbol, events[i].Identifier, events[i].Message, events[i].CreatedAt.UTC()); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				return fmt.Errorf("%w rollback: %v", err, rbErr)
			}
			return err
		}
	}
	return tx.Commit()
}

// Query returns up to limit events of the type in insertion order. An empty
// type matches every event and a limit below one returns all of them
func Query(ctx context.Context, db *database.Instance, eventType string, limit int) ([]Event, error) {
	conn, err := db.GetSQL()
	if err != nil {
		return nil, err
	}
	if limit < 1 {
		limit = -1
	}
	rows, err := conn.QueryContext(ctx,
		`SELECT id, type, symbol, identifier, message, created_at FROM audit_event WHERE (? = '' OR type = ?) ORDER BY id LIMIT ?`,
		eventType, eventType, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var resp []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.Type, &e.Symbol, &e.Identifier, &e.Message, &e.CreatedAt); err != nil {
			return nil, err
		}
		resp = append(resp, e)
	}
	return resp, rows.Err()
}
