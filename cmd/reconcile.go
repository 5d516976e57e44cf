package cmd

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"

	"github.com/wenqin/folio/renderer"
)

type reconcileCmd struct {
	portfolio string
	repair    bool
}

func (*reconcileCmd) Name() string     { return "reconcile" }
func (*reconcileCmd) Synopsis() string { return "replay the log against the stored balance" }
func (*reconcileCmd) Usage() string {
	return `folio reconcile -p <portfolio> [-repair]

  Replays the portfolio's full transaction history from its initial state
  and compares the result with the stored cash balance. With -repair a
  drifted balance is overwritten with the recomputed one.
`
}

func (c *reconcileCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.portfolio, "p", "", "Portfolio id")
	f.BoolVar(&c.repair, "repair", false, "Overwrite the stored cash when it drifted")
}

func (c *reconcileCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	svc, err := newService()
	if err != nil {
		return fail(err)
	}

	res, err := svc.Reconcile(c.portfolio)
	if err != nil {
		return fail(err)
	}
	printMarkdown(renderer.RenderReconcile(res))

	if c.repair {
		if _, err := svc.RepairCash(c.portfolio); err != nil {
			return fail(err)
		}
		fmt.Println("Balance repaired.")
	} else if !res.Clean() {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
