package cmd

import (
	"context"
	"flag"

	"github.com/google/subcommands"

	"github.com/wenqin/folio"
	"github.com/wenqin/folio/renderer"
)

type statsCmd struct {
	portfolio string
	period    string
}

func (*statsCmd) Name() string     { return "stats" }
func (*statsCmd) Synopsis() string { return "display rolling-window returns" }
func (*statsCmd) Usage() string {
	return `folio stats -p <portfolio> [-period <period>]

  Computes the Modified Dietz return over rolling windows ending today:
  daily, weekly, monthly, yearly and total. With -period only that window
  is computed.
`
}

func (c *statsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.portfolio, "p", "", "Portfolio id")
	f.StringVar(&c.period, "period", "", "One of daily, weekly, monthly, yearly, total")
}

func (c *statsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	svc, err := newService()
	if err != nil {
		return fail(err)
	}
	p, err := svc.GetPortfolio(c.portfolio)
	if err != nil {
		return fail(err)
	}

	stats := make(map[folio.Period]folio.PeriodStats)
	if c.period == "" {
		stats, err = svc.GetAllStats(ctx, c.portfolio)
		if err != nil {
			return fail(err)
		}
	} else {
		period, err := folio.ParsePeriod(c.period)
		if err != nil {
			return fail(err)
		}
		one, err := svc.GetStats(ctx, c.portfolio, period)
		if err != nil {
			return fail(err)
		}
		stats[period] = one
	}

	printMarkdown(renderer.RenderStats(p, stats))
	return subcommands.ExitSuccess
}
