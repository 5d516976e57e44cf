package cmd

import (
	"context"
	"flag"

	"github.com/google/subcommands"

	"github.com/wenqin/folio/renderer"
)

type summaryCmd struct {
	portfolio string
}

func (*summaryCmd) Name() string     { return "summary" }
func (*summaryCmd) Synopsis() string { return "display the portfolio's headline figures" }
func (*summaryCmd) Usage() string {
	return `folio summary -p <portfolio>

  Displays the valued portfolio: cash, market value, net assets, PnL,
  commissions, dividends and leverage usage, all in CNY.
`
}

func (c *summaryCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.portfolio, "p", "", "Portfolio id")
}

func (c *summaryCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	svc, err := newService()
	if err != nil {
		return fail(err)
	}
	p, err := svc.GetPortfolio(c.portfolio)
	if err != nil {
		return fail(err)
	}
	s, err := svc.GetSummary(c.portfolio)
	if err != nil {
		return fail(err)
	}
	printMarkdown(renderer.RenderSummary(p, s))
	return subcommands.ExitSuccess
}
