package audit

import (
	"errors"
	"time"
)

var errNoEvents = errors.New("no audit events supplied")

// Event is a stored audit record
type Event struct {
	ID         int64
	Type       string
	Symbol     string
	Identifier string
	Message    string
	CreatedAt  time.Time
}
