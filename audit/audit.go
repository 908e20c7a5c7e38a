package audit

import (
	"context"
	"fmt"
	"slices"

	"github.com/thrasher-corp/swingtrader/common"
	"github.com/thrasher-corp/swingtrader/database"
	auditrepo "github.com/thrasher-corp/swingtrader/database/repository/audit"
	"github.com/thrasher-corp/swingtrader/log"
)

// Record logs each event
func (LogSink) Record(_ context.Context, events ...Event) error {
	for i := range events {
		switch events[i].Kind {
		case SignalDropped, SignalRejected, PositionDiscarded, PositionAlert:
			log.Warnf(log.Audit, "%s %s %s: %s", events[i].Kind, events[i].Symbol, events[i].Identifier, events[i].Message)
		default:
			log.Infof(log.Audit, "%s %s %s: %s", events[i].Kind, events[i].Symbol, events[i].Identifier, events[i].Message)
		}
	}
	return nil
}

// NewDatabaseSink returns a sink writing to the database
func NewDatabaseSink(db *database.Instance) (*DatabaseSink, error) {
	if err := common.NilGuard(db); err != nil {
		return nil, fmt.Errorf("%w database", err)
	}
	return &DatabaseSink{db: db}, nil
}

// Record stores the events in one transaction
func (d *DatabaseSink) Record(ctx context.Context, events ...Event) error {
	if len(events) == 0 {
		return nil
	}
	rows := make([]auditrepo.Event, len(events))
	for i := range events {
		rows[i] = auditrepo.Event{
			Type:       string(events[i].Kind),
			Symbol:     events[i].Symbol,
			Identifier: events[i].Identifier,
			Message:    events[i].Message,
			CreatedAt:  events[i].Time,
		}
	}
	return auditrepo.Insert(ctx, d.db, rows...)
}

// Record passes the events to every sink, collecting their errors
func (m Multi) Record(ctx context.Context, events ...Event) error {
	var errs error
	for i := range m {
		errs = common.AppendError(errs, m[i].Record(ctx, events...))
	}
	return errs
}

// Record appends the events
func (m *Memory) Record(_ context.Context, events ...Event) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.events = append(m.events, events...)
	return nil
}

// Events returns the recorded events of the kinds, or all events when no
// kind is given
func (m *Memory) Events(kinds ...Kind) []Event {
	m.m.Lock()
	defer m.m.Unlock()
	var resp []Event
	for i := range m.events {
		if len(kinds) == 0 || slices.Contains(kinds, m.events[i].Kind) {
			resp = append(resp, m.events[i])
		}
	}
	return resp
}

// Count returns the number of recorded events per kind
func (m *Memory) Count() map[Kind]int {
	m.m.Lock()
	defer m.m.Unlock()
	resp := make(map[Kind]int)
	for i := range m.events {
		resp[m.events[i].Kind]++
	}
	return resp
}
