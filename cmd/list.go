package cmd

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/google/subcommands"

	"github.com/wenqin/folio"
)

type listCmd struct{}

func (*listCmd) Name() string     { return "list" }
func (*listCmd) Synopsis() string { return "list all portfolios" }
func (*listCmd) Usage() string {
	return `folio list

  Lists every portfolio with its cash balance and leverage line.
`
}

func (*listCmd) SetFlags(*flag.FlagSet) {}

func (*listCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	svc, err := newService()
	if err != nil {
		return fail(err)
	}
	all, err := svc.ListPortfolios()
	if err != nil {
		return fail(err)
	}
	if len(all) == 0 {
		fmt.Println("No portfolios yet. Create one with `folio create`.")
		return subcommands.ExitSuccess
	}

	var b strings.Builder
	b.WriteString("| ID | Name | Cash | Leverage used |\n")
	b.WriteString("|----|------|-----:|--------------:|\n")
	for _, p := range all {
		fmt.Fprintf(&b, "| `%s` | %s | %s | %s of %s |\n",
			p.ID, p.Name, folio.CNY(p.Cash),
			folio.CNY(p.Leverage.Used), folio.CNY(p.Leverage.Total))
	}
	printMarkdown(b.String())
	return subcommands.ExitSuccess
}
