// Package main is the command-line client for the commander card store:
// sync from Scryfall, inspect and rate cards, and back up ratings.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/ramonehamilton/commander-rater/internal/bootstrap"
	"github.com/ramonehamilton/commander-rater/internal/logging"
)

const usage = `Usage: cardsync [global flags] <command> [args]

Commands:
  init                      Create the card schema if it is missing
  sync                      Download commander cards from Scryfall
  stats                     Show card counts by rating
  random [--filter F]       Show a random card (F: interesting, not_interesting, unrated)
  list <rating>             List cards with a rating
  rate <card-id> <rating>   Rate a card (interesting, not_interesting, unset)
  export [file]             Write ratings to a .json or .csv file (default: ratings_<time>.json)
  import <file>             Apply ratings from a .json or .csv file
  clear-ratings             Remove every rating
  clear-cards               Delete every card

Global flags:
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

// run executes one command and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	flags := pflag.NewFlagSet("cardsync", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.SetInterspersed(false)
	flags.Usage = func() {
		fmt.Fprint(stderr, usage)
		flags.PrintDefaults()
	}

	configPath := flags.StringP("config", "c", "", "Config file (default: ~/.commander-rater/config.toml)")
	dbPath := flags.String("db-path", "", "SQLite database path (overrides config)")
	logLevel := flags.String("log-level", "", "Log level: debug, info, warn, error")

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}
	if flags.NArg() == 0 {
		flags.Usage()
		return 2
	}

	cfg, err := bootstrap.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to load config: %v\n", err)
		return 1
	}
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "Invalid config: %v\n", err)
		return 1
	}

	logCfg := cfg.LoggingConfig()
	logCfg.Output = stderr
	logging.Setup(logCfg)

	store, err := bootstrap.OpenStore(ctx, cfg.Database)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to open card store: %v\n", err)
		return 1
	}
	defer func() { _ = store.Close() }()

	svc, err := bootstrap.NewService(cfg, store, nil)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to create service: %v\n", err)
		return 1
	}

	cli := &commands{svc: svc, out: stdout}
	if err := cli.dispatch(ctx, flags.Arg(0), flags.Args()[1:]); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		if isUsageError(err) {
			return 2
		}
		return 1
	}
	return 0
}
