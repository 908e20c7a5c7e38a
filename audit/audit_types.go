package audit

import (
	"context"
	"sync"
	"time"

	"github.com/thrasher-corp/swingtrader/database"
)

// Kind classifies a decision trail event
type Kind string

// Event kinds
const (
	SignalGenerated   Kind = "SIGNAL_GENERATED"
	SignalDropped     Kind = "SIGNAL_DROPPED"
	SignalRejected    Kind = "SIGNAL_REJECTED"
	PositionRequested Kind = "POSITION_REQUESTED"
	PositionOpened    Kind = "POSITION_OPENED"
	PositionDiscarded Kind = "POSITION_DISCARDED"
	PositionClosed    Kind = "POSITION_CLOSED"
	PositionAlert     Kind = "POSITION_ALERT"
	SessionSummary    Kind = "SESSION_SUMMARY"
)

// Event is one entry in the decision trail
type Event struct {
	Time       time.Time
	Kind       Kind
	Symbol     string
	Identifier string
	Message    string
}

// Sink receives the decision trail. Sinks are write only
type Sink interface {
	Record(ctx context.Context, events ...Event) error
}

// LogSink writes events to the audit sub logger
type LogSink struct{}

// DatabaseSink stores events in the audit_event table
type DatabaseSink struct {
	db *database.Instance
}

// Multi fans events out to every sink
type Multi []Sink

// Memory keeps events in memory
type Memory struct {
	m      sync.Mutex
	events []Event
}
