package position

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/thrasher-corp/swingtrader/database"
	"github.com/thrasher-corp/swingtrader/eventtypes/order"
	"github.com/thrasher-corp/swingtrader/portfolio"
)

var errNoPositions = errors.New("no positions supplied")

const upsertQuery = `INSERT INTO position (id, symbol, strategy, entry, stop, target, quantity, state,
	request_time, open_time, close_time, close_reason, close_price, realized_pnl, last_price, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		entry = excluded.entry,
		quantity = excluded.quantity,
		state = excluded.state,
		open_time = excluded.open_time,
		close_time = excluded.close_time,
		close_reason = excluded.close_reason,
		close_price = excluded.close_price,
		realized_pnl = excluded.realized_pnl,
		last_price = excluded.last_price,
		updated_at = excluded.updated_at`

// Upsert stores positions in a single transaction, replacing any stored
// version with the same id
func Upsert(ctx context.Context, db *database.Instance, positions ...portfolio.Position) error {
	if len(positions) == 0 {
		return errNoPositions
	}
	conn, err := db.GetSQL()
	if err != nil {
		return err
	}
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	for i := range positions {
		p := &positions[i]
		_, err = tx.ExecContext(ctx, upsertQuery,
			p.ID, p.Symbol, p.Strategy, p.Entry, p.Stop, p.Target, p.Quantity, string(p.State),
			p.RequestTime.UTC(), p.OpenTime.UTC(), p.CloseTime.UTC(), string(p.CloseReason),
			p.ClosePrice, p.RealizedPnL, p.LastPrice, now)
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				return fmt.Errorf("%w rollback: %v", err, rbErr)
			}
			return fmt.Errorf("storing position %s: %w", p.ID, err)
		}
	}
	return tx.Commit()
}

// LoadByState returns every stored position in the state ordered by symbol
func LoadByState(ctx context.Context, db *database.Instance, state portfolio.State) ([]portfolio.Position, error) {
	conn, err := db.GetSQL()
	if err != nil {
		return nil, err
	}
	rows, err := conn.QueryContext(ctx, `SELECT id, symbol, strategy, entry, stop, target, quantity, state,
		request_time, open_time, close_time, close_reason, close_price, realized_pnl, last_price, updated_at
		FROM position WHERE state = ? ORDER BY symbol`, string(state))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var resp []portfolio.Position
	for rows.Next() {
		var (
			p           portfolio.Position
			pState      string
			closeReason string
		)
		if err := rows.Scan(&p.ID, &p.Symbol, &p.Strategy, &p.Entry, &p.Stop, &p.Target, &p.Quantity, &pState,
			&p.RequestTime, &p.OpenTime, &p.CloseTime, &closeReason, &p.ClosePrice, &p.RealizedPnL, &p.LastPrice, &p.LastUpdate); err != nil {
			return nil, err
		}
		p.State = portfolio.State(pState)
		p.CloseReason = order.Reason(closeReason)
		resp = append(resp, p)
	}
	return resp, rows.Err()
}
