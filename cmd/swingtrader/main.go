package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/thrasher-corp/swingtrader/config"
	"github.com/thrasher-corp/swingtrader/log"
	"github.com/urfave/cli/v2"
)

const version = "0.1.0"

var (
	configPath string
	verbose    bool
)

func jsonOutput(in any) {
	j, err := json.MarshalIndent(in, "", " ")
	if err != nil {
		return
	}
	fmt.Println(string(j))
}

// loadConfig reads the config file, or the defaults when no file is set, and
// configures the global logger from it
func loadConfig() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if configPath != "" {
		var err error
		if cfg, err = config.ReadConfigFromFile(configPath); err != nil {
			return nil, err
		}
	}
	lc := cfg.Logging.LogConfig()
	if verbose {
		lc.Level = "INFO|DEBUG|WARN|ERROR"
	}
	if err := log.SetupGlobalLogger(&lc); err != nil {
		return nil, err
	}
	return cfg, nil
}

func main() {
	app := cli.NewApp()
	app.Name = "swingtrader"
	app.Version = version
	app.EnableBashCompletion = true
	app.Usage = "multi strategy swing trading decision engine"
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "path to a json, yaml or toml config file, defaults are used when empty",
			EnvVars:     []string{"SWING_CONFIG"},
			Destination: &configPath,
		},
		&cli.BoolFlag{
			Name:        "verbose",
			Usage:       "enables debug logging on every sub logger",
			Destination: &verbose,
		},
	}
	app.Commands = []*cli.Command{
		replayCommand,
		liveCommand,
		validateCommand,
		strategiesCommand,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := app.RunContext(ctx, os.Args)
	cancel()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
