package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/thrasher-corp/swingtrader/apiserver"
	"github.com/thrasher-corp/swingtrader/feed"
	"github.com/thrasher-corp/swingtrader/kline"
	"github.com/thrasher-corp/swingtrader/log"
	"github.com/thrasher-corp/swingtrader/strategies"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

const expiryInterval = time.Second

var errNothingToRun = errors.New("neither the feed nor the api server is enabled")

var replayCommand = &cli.Command{
	Name:  "replay",
	Usage: "replays a CSV of bars through the engine against the paper gateway",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "bars",
			Aliases:  []string{"b"},
			Usage:    "path to a csv of symbol,time,open,high,low,close,volume rows",
			Required: true,
		},
		&cli.StringSliceFlag{
			Name:  "reject",
			Usage: "symbols the paper gateway refuses, in addition to the config's",
		},
		&cli.BoolFlag{
			Name:  "resume",
			Usage: "restores open positions from the database before replaying",
		},
	},
	Action: runReplay,
}

var liveCommand = &cli.Command{
	Name:   "live",
	Usage:  "tracks open positions against the tick feed and serves the REST api until interrupted",
	Action: runLive,
}

var validateCommand = &cli.Command{
	Name:   "validate",
	Usage:  "validates the config and prints the effective settings",
	Action: runValidate,
}

var strategiesCommand = &cli.Command{
	Name:   "strategies",
	Usage:  "lists the registered strategies",
	Action: runStrategies,
}

func runReplay(c *cli.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	bars, err := loadBars(c.String("bars"))
	if err != nil {
		return err
	}
	clock := &simClock{}
	if len(bars) > 0 {
		clock.Set(bars[0].Time)
	}
	s, err := newSession(c.Context, cfg, clock.Now, c.StringSlice("reject")...)
	if err != nil {
		return err
	}
	defer s.close()
	if c.Bool("resume") {
		if err := s.resume(c.Context); err != nil {
			return err
		}
	}
	res, err := replay(c.Context, s.engine, clock, bars, s.memory)
	if err != nil {
		return err
	}
	jsonOutput(res)
	return nil
}

func runLive(c *cli.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !cfg.Feed.Enabled && !cfg.API.Enabled {
		return errNothingToRun
	}
	s, err := newSession(c.Context, cfg, time.Now)
	if err != nil {
		return err
	}
	defer s.close()
	if err := s.resume(c.Context); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(c.Context)
	if cfg.Feed.Enabled {
		client, err := feed.NewClient(&cfg.Feed, func(ctx context.Context, tick kline.Tick) error {
			_, err := s.engine.OnTick(ctx, tick)
			return err
		})
		if err != nil {
			return err
		}
		g.Go(func() error {
			return client.Run(ctx)
		})
	}
	if cfg.API.Enabled {
		srv, err := apiserver.New(&cfg.API, s.engine)
		if err != nil {
			return err
		}
		g.Go(func() error {
			return srv.Run(ctx)
		})
	}
	g.Go(func() error {
		t := time.NewTicker(expiryInterval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case now := <-t.C:
				s.engine.ExpirePending(ctx, now)
			}
		}
	})
	err = g.Wait()
	jsonOutput(s.engine.Summary(context.Background()))
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func runValidate(_ *cli.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	jsonOutput(cfg)
	enabled := strategies.LoadEnabled(cfg.StrategyEnabled)
	if len(enabled) == 0 {
		log.Warn(log.ConfigMgr, "config is valid but no strategy is enabled")
	}
	return nil
}

func runStrategies(_ *cli.Context) error {
	for _, s := range strategies.GetStrategies() {
		fmt.Printf("%-14s %s\n", s.Name(), s.Description())
	}
	return nil
}
