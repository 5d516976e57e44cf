package cmd

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"
)

type ratesCmd struct{}

func (*ratesCmd) Name() string     { return "rates" }
func (*ratesCmd) Synopsis() string { return "refresh and display exchange rates" }
func (*ratesCmd) Usage() string {
	return `folio rates

  Fetches fresh USD and HKD rates to CNY and persists them for later runs.
`
}

func (*ratesCmd) SetFlags(*flag.FlagSet) {}

func (*ratesCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	svc, err := newService()
	if err != nil {
		return fail(err)
	}
	if err := svc.RefreshRates(ctx); err != nil {
		return fail(err)
	}
	for _, cur := range []string{"USD", "HKD"} {
		fmt.Printf("1 %s = %s CNY\n", cur, svc.RateToCNY(cur))
	}
	return subcommands.ExitSuccess
}
