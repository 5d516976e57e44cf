package cmd

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/subcommands"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/wenqin/folio"
)

type daemonCmd struct {
	ratesSpec     string
	reconcileSpec string
}

func (*daemonCmd) Name() string     { return "daemon" }
func (*daemonCmd) Synopsis() string { return "run the scheduled background jobs" }
func (*daemonCmd) Usage() string {
	return `folio daemon [-rates-cron <spec>] [-reconcile-cron <spec>]

  Runs resident, refreshing exchange rates and reconciling every portfolio
  on cron schedules. Stops on SIGINT or SIGTERM.
`
}

func (c *daemonCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.ratesSpec, "rates-cron", cfg.RatesCron, "Cron schedule for the exchange rate refresh")
	f.StringVar(&c.reconcileSpec, "reconcile-cron", cfg.ReconcileCron, "Cron schedule for the reconciliation sweep")
}

func (c *daemonCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	svc, err := newService()
	if err != nil {
		return fail(err)
	}
	logger := log.With().Str("component", "daemon").Logger()

	// Refresh once on startup so a cold cache does not serve fallbacks
	// until the first scheduled run.
	if err := svc.RefreshRates(ctx); err != nil {
		logger.Warn().Err(err).Msg("initial rate refresh failed")
	}

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(c.ratesSpec, func() {
		if err := svc.RefreshRates(context.Background()); err != nil {
			logger.Warn().Err(err).Msg("scheduled rate refresh failed")
		}
	}); err != nil {
		return fail(err)
	}
	if _, err := scheduler.AddFunc(c.reconcileSpec, func() {
		reconcileAll(svc, logger)
	}); err != nil {
		return fail(err)
	}
	scheduler.Start()
	logger.Info().Str("rates", c.ratesSpec).Str("reconcile", c.reconcileSpec).Msg("daemon started")

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-stop:
	case <-ctx.Done():
	}

	<-scheduler.Stop().Done()
	logger.Info().Msg("daemon stopped")
	return subcommands.ExitSuccess
}

// reconcileAll replays every portfolio and logs the drifted ones. It only
// reports; repairing is a deliberate manual action.
func reconcileAll(svc *folio.Service, logger zerolog.Logger) {
	all, err := svc.ListPortfolios()
	if err != nil {
		logger.Warn().Err(err).Msg("reconciliation sweep could not list portfolios")
		return
	}
	for _, p := range all {
		res, err := svc.Reconcile(p.ID)
		if err != nil {
			logger.Warn().Err(err).Str("portfolio", p.ID).Msg("reconciliation failed")
			continue
		}
		if res.Clean() {
			logger.Info().Str("portfolio", p.ID).Msg("reconciliation clean")
			continue
		}
		logger.Warn().Str("portfolio", p.ID).
			Str("diff", res.Diff.String()).
			Int("skipped", len(res.Skipped)).
			Int("breaches", len(res.InvariantBreaches)).
			Msg("reconciliation found drift, run `folio reconcile -repair`")
	}
}
