package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/thrasher-corp/swingtrader/log"
)

// SetSQLiteConnection sets the instance's connection to a SQLite database.
// SQLite allows a single writer so the pool is limited to one connection
func (i *Instance) SetSQLiteConnection(path string, con *sql.DB) error {
	if i == nil {
		return errNilInstance
	}
	if con == nil {
		return errNilSQL
	}
	i.m.Lock()
	defer i.m.Unlock()
	i.path = path
	i.SQL = con
	i.SQL.SetMaxOpenConns(1)
	i.connected = true
	return nil
}

// Migrate creates any missing tables
func (i *Instance) Migrate(ctx context.Context) error {
	db, err := i.GetSQL()
	if err != nil {
		return err
	}
	for x := range schema {
		if _, err := db.ExecContext(ctx, schema[x]); err != nil {
			return fmt.Errorf("migrating schema %d: %w", x, err)
		}
	}
	log.Debugf(log.Database, "%d schema statements applied to %s", len(schema), i.Path())
	return nil
}

// CloseConnection disconnects the instance
func (i *Instance) CloseConnection() error {
	if i == nil {
		return errNilInstance
	}
	i.m.Lock()
	defer i.m.Unlock()
	if i.SQL == nil {
		return errNilSQL
	}
	i.connected = false
	return i.SQL.Close()
}

// IsConnected safely checks the SQL connection status
func (i *Instance) IsConnected() bool {
	if i == nil {
		return false
	}
	i.m.RLock()
	defer i.m.RUnlock()
	return i.connected
}

// Path returns the database file location
func (i *Instance) Path() string {
	if i == nil {
		return ""
	}
	i.m.RLock()
	defer i.m.RUnlock()
	return i.path
}

// Ping pings the database
func (i *Instance) Ping(ctx context.Context) error {
	db, err := i.GetSQL()
	if err != nil {
		return err
	}
	return db.PingContext(ctx)
}

// GetSQL returns the connection when the instance is connected
func (i *Instance) GetSQL() (*sql.DB, error) {
	if i == nil {
		return nil, errNilInstance
	}
	i.m.RLock()
	defer i.m.RUnlock()
	if i.SQL == nil {
		return nil, errNilSQL
	}
	if !i.connected {
		return nil, ErrDatabaseNotConnected
	}
	return i.SQL, nil
}
