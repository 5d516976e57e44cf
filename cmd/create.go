package cmd

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"
)

type createCmd struct {
	name     string
	cash     string
	leverage string
	costRate string
}

func (*createCmd) Name() string     { return "create" }
func (*createCmd) Synopsis() string { return "create a new portfolio" }
func (*createCmd) Usage() string {
	return `folio create -name <name> [-cash <initial>] [-leverage <line>] [-cost-rate <annual>]

  Creates a portfolio funded with the given initial cash (CNY) and an
  optional leverage line.

Usage Examples:
$ folio create -name main -cash 200000
$ folio create -name margin -cash 100000 -leverage 50000 -cost-rate 0.05
`
}

func (c *createCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.name, "name", "", "Name of the portfolio")
	f.StringVar(&c.cash, "cash", "0", "Initial cash in CNY")
	f.StringVar(&c.leverage, "leverage", "0", "Total leverage line in CNY")
	f.StringVar(&c.costRate, "cost-rate", "0", "Annual interest rate on drawn leverage, e.g. 0.05")
}

func (c *createCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cash, err := parseDec(c.cash, "cash")
	if err != nil {
		return fail(err)
	}
	leverage, err := parseDec(c.leverage, "leverage")
	if err != nil {
		return fail(err)
	}
	rate, err := parseDec(c.costRate, "cost-rate")
	if err != nil {
		return fail(err)
	}

	svc, err := newService()
	if err != nil {
		return fail(err)
	}
	p, err := svc.CreatePortfolio(c.name, cash, leverage, rate)
	if err != nil {
		return fail(err)
	}
	fmt.Printf("Created portfolio %q with id %s\n", p.Name, p.ID)
	return subcommands.ExitSuccess
}
