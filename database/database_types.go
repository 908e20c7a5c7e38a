package database

import (
	"database/sql"
	"errors"
	"sync"
)

var (
	// ErrNoDatabaseProvided is returned when no database path is configured
	ErrNoDatabaseProvided = errors.New("no database provided")
	// ErrDatabaseNotConnected is returned when the instance has no live connection
	ErrDatabaseNotConnected = errors.New("database not connected")

	errNilInstance = errors.New("database instance is nil")
	errNilSQL      = errors.New("database SQL connection is nil")
)

// Instance holds a database connection and its state
type Instance struct {
	m         sync.RWMutex
	path      string
	SQL       *sql.DB
	connected bool
}
