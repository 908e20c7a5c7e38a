package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	// import sqlite3 driver
	_ "github.com/mattn/go-sqlite3"
	"github.com/thrasher-corp/swingtrader/common"
	"github.com/thrasher-corp/swingtrader/database"
	"github.com/thrasher-corp/swingtrader/log"
)

var sqlOpen = sql.Open

// Connect opens the sqlite database at path, creating its directory and
// tables when missing. The connection is closed if it cannot be verified
func Connect(ctx context.Context, path string) (*database.Instance, error) {
	if path == "" {
		return nil, database.ErrNoDatabaseProvided
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o770); err != nil {
			return nil, err
		}
	}
	dbConn, err := sqlOpen("sqlite3", path)
	if err != nil {
		return nil, err
	}
	i := &database.Instance{}
	if err := setup(ctx, i, path, dbConn); err != nil {
		if cErr := dbConn.Close(); cErr != nil {
			err = common.AppendError(err, cErr)
		}
		return nil, err
	}
	log.Infof(log.Database, "connected to sqlite database %s", path)
	return i, nil
}

func setup(ctx context.Context, i *database.Instance, path string, dbConn *sql.DB) error {
	if err := i.SetSQLiteConnection(path, dbConn); err != nil {
		return err
	}
	if err := i.Ping(ctx); err != nil {
		return fmt.Errorf("connecting to %s: %w", path, err)
	}
	return i.Migrate(ctx)
}
