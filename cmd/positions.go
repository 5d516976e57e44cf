package cmd

import (
	"context"
	"flag"

	"github.com/google/subcommands"

	"github.com/wenqin/folio/renderer"
)

type positionsCmd struct {
	portfolio string
}

func (*positionsCmd) Name() string     { return "positions" }
func (*positionsCmd) Synopsis() string { return "display open positions marked to market" }
func (*positionsCmd) Usage() string {
	return `folio positions -p <portfolio>

  Reconstructs the portfolio's open positions from its transaction log and
  marks them to market with realtime quotes.
`
}

func (c *positionsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.portfolio, "p", "", "Portfolio id")
}

func (c *positionsCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	svc, err := newService()
	if err != nil {
		return fail(err)
	}
	p, err := svc.GetPortfolio(c.portfolio)
	if err != nil {
		return fail(err)
	}
	positions, skipped, err := svc.GetPositions(c.portfolio)
	if err != nil {
		return fail(err)
	}
	printMarkdown(renderer.RenderPositions(p, positions, skipped))
	return subcommands.ExitSuccess
}
