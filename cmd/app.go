// Package cmd implements the CLI application to manage portfolios.
package cmd

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/wenqin/folio"
	"github.com/wenqin/folio/frankfurter"
	"github.com/wenqin/folio/store"
	"github.com/wenqin/folio/tencent"
)

// Commands is the list a main package registers on its commander.
var Commands = []subcommands.Command{
	&createCmd{},
	&listCmd{},
	&txCmd{},
	&deleteTxCmd{},
	&positionsCmd{},
	&summaryCmd{},
	&statsCmd{},
	&reconcileCmd{},
	&ratesCmd{},
	&daemonCmd{},
	&topicCmd{},
}

// As a CLI application the process is short lived, so flag-backed globals
// are fine here.
var (
	cfg      = folio.LoadConfig()
	dataDir  = flag.String("data-dir", cfg.DataDir, "Path to the data directory holding portfolios and market data")
	logLevel = flag.String("log-level", cfg.LogLevel, "Log level: debug, info, warn or error")
)

// SetupLogging configures zerolog for console output on stderr.
func SetupLogging() {
	level, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).With().Timestamp().Logger()
}

// newService wires storage, providers and the engine for one invocation.
func newService() (*folio.Service, error) {
	files, err := store.NewFileStore(*dataDir)
	if err != nil {
		return nil, err
	}
	kv, err := store.NewCachedKV(files, cfg.CacheTTL)
	if err != nil {
		return nil, err
	}

	var fxOpts []frankfurter.Option
	if cfg.FxURL != "" {
		fxOpts = append(fxOpts, frankfurter.WithBaseURL(cfg.FxURL))
	}
	rates := folio.NewRates(frankfurter.New(fxOpts...), nil)

	var tcOpts []tencent.Option
	if cfg.QuoteURL != "" {
		tcOpts = append(tcOpts, tencent.WithQuoteURL(cfg.QuoteURL))
	}
	if cfg.KlineURL != "" {
		tcOpts = append(tcOpts, tencent.WithKlineURL(cfg.KlineURL))
	}
	market := tencent.New(tcOpts...)

	return folio.NewService(kv, rates, folio.ServiceOptions{
		Quotes:  market,
		History: market,
	}), nil
}

// parseDec parses a decimal flag value, treating the empty string as zero.
func parseDec(value, field string) (decimal.Decimal, error) {
	if strings.TrimSpace(value) == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s %q: %w", field, value, err)
	}
	return d, nil
}

// fail prints err and returns a failure status.
func fail(err error) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return subcommands.ExitFailure
}
