package cmd

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"
)

type deleteTxCmd struct {
	portfolio string
	id        string
}

func (*deleteTxCmd) Name() string     { return "delete-tx" }
func (*deleteTxCmd) Synopsis() string { return "delete a transaction, reversing its effect" }
func (*deleteTxCmd) Usage() string {
	return `folio delete-tx -p <portfolio> -id <transaction>

  Removes a transaction from the log and reverses its effect on the cash
  and leverage balances.
`
}

func (c *deleteTxCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.portfolio, "p", "", "Portfolio id")
	f.StringVar(&c.id, "id", "", "Transaction id to delete")
}

func (c *deleteTxCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	svc, err := newService()
	if err != nil {
		return fail(err)
	}
	if err := svc.ReverseTransaction(c.portfolio, c.id); err != nil {
		return fail(err)
	}
	fmt.Printf("Deleted transaction %s\n", c.id)
	return subcommands.ExitSuccess
}
