package main

import (
	"context"
	"fmt"
	"time"

	"github.com/thrasher-corp/swingtrader/audit"
	"github.com/thrasher-corp/swingtrader/common"
	"github.com/thrasher-corp/swingtrader/config"
	"github.com/thrasher-corp/swingtrader/database"
	sqlite "github.com/thrasher-corp/swingtrader/database/drivers/sqlite3"
	"github.com/thrasher-corp/swingtrader/engine"
	"github.com/thrasher-corp/swingtrader/execution"
	"github.com/thrasher-corp/swingtrader/log"
)

// session wires an engine to the paper gateway, the audit sinks and the
// optional database
type session struct {
	engine *engine.Engine
	paper  *execution.Paper
	memory *audit.Memory
	db     *database.Instance
}

func newSession(ctx context.Context, cfg *config.Config, now func() time.Time, rejectSymbols ...string) (*session, error) {
	s := &session{
		paper:  execution.NewPaper(append(cfg.Execution.RejectSymbols, rejectSymbols...)...),
		memory: &audit.Memory{},
	}
	var gateway execution.Gateway = s.paper
	if cfg.Execution.SubmitRate > 0 {
		d, err := execution.NewDispatcher(s.paper, cfg.Execution.SubmitRate, cfg.Execution.SubmitBurst)
		if err != nil {
			return nil, err
		}
		gateway = d
	}
	sinks := audit.Multi{audit.LogSink{}, s.memory}
	opts := []engine.Option{
		engine.WithGateway(gateway),
		engine.WithClock(now),
	}
	if cfg.Database.Enabled {
		db, err := sqlite.Connect(ctx, cfg.Database.Path)
		if err != nil {
			return nil, fmt.Errorf("database %s: %w", cfg.Database.Path, err)
		}
		s.db = db
		dbSink, err := audit.NewDatabaseSink(db)
		if err != nil {
			s.close()
			return nil, err
		}
		sinks = append(sinks, dbSink)
		opts = append(opts, engine.WithDatabase(db))
	}
	opts = append(opts, engine.WithSink(sinks))

	e, err := engine.New(cfg, opts...)
	if err != nil {
		s.close()
		return nil, err
	}
	s.engine = e
	log.Infof(log.Global, "session %s started, %s", cfg.Nickname, subsystems(cfg))
	return s, nil
}

func subsystems(cfg *config.Config) string {
	return fmt.Sprintf("database %s, feed %s, api %s, submit throttle %s",
		common.IsEnabled(cfg.Database.Enabled),
		common.IsEnabled(cfg.Feed.Enabled),
		common.IsEnabled(cfg.API.Enabled),
		common.IsEnabled(cfg.Execution.SubmitRate > 0))
}

// resume restores open positions when a database is connected
func (s *session) resume(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	n, err := s.engine.Resume(ctx)
	if err != nil {
		return err
	}
	log.Infof(log.Global, "restored %d open positions from %s", n, s.db.Path())
	return nil
}

func (s *session) close() {
	if s.db == nil {
		return
	}
	if err := s.db.CloseConnection(); err != nil {
		log.Errorln(log.Database, err)
	}
}
