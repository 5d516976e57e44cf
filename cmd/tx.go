package cmd

import (
	"context"
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/google/subcommands"

	"github.com/wenqin/folio"
)

type txCmd struct {
	portfolio  string
	typ        string
	code       string
	name       string
	quantity   string
	price      string
	amount     string
	commission string
	leverage   string
	date       string
}

func (*txCmd) Name() string     { return "tx" }
func (*txCmd) Synopsis() string { return "record a transaction" }
func (*txCmd) Usage() string {
	return `folio tx -p <portfolio> -type <type> [flags]

  Records a transaction and updates the portfolio balance. Types: BUY,
  SELL, DEPOSIT, WITHDRAW, DIVIDEND, LEVERAGE_ADD, LEVERAGE_REMOVE,
  LEVERAGE_COST. Trades take -code, -qty and -price in the asset's
  trading currency; everything else takes -amount in CNY.

Usage Examples:
$ folio tx -p <id> -type DEPOSIT -amount 200000
$ folio tx -p <id> -type BUY -code sh600519 -qty 100 -price 1500 -commission 50
$ folio tx -p <id> -type BUY -code hk00700 -qty 200 -price 350 -leverage 30000
$ folio tx -p <id> -type SELL -code sh600519 -qty 50 -price 1700 -commission 30
`
}

func (c *txCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.portfolio, "p", "", "Portfolio id")
	f.StringVar(&c.typ, "type", "", "Transaction type")
	f.StringVar(&c.code, "code", "", "Asset code with market prefix, e.g. sh600519")
	f.StringVar(&c.name, "name", "", "Asset display name")
	f.StringVar(&c.quantity, "qty", "", "Quantity of shares")
	f.StringVar(&c.price, "price", "", "Price per share in the trading currency")
	f.StringVar(&c.amount, "amount", "", "Amount in CNY for non-trade types")
	f.StringVar(&c.commission, "commission", "", "Commission in the trading currency")
	f.StringVar(&c.leverage, "leverage", "", "Explicit leverage draw for a BUY, in CNY")
	f.StringVar(&c.date, "d", "", "Transaction date, defaults to now")
}

func (c *txCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	svc, err := newService()
	if err != nil {
		return fail(err)
	}

	tx := folio.Transaction{
		Type:      folio.TransactionType(strings.ToUpper(strings.TrimSpace(c.typ))),
		AssetCode: c.code,
		AssetName: c.name,
	}
	if tx.Quantity, err = parseDec(c.quantity, "qty"); err != nil {
		return fail(err)
	}
	if tx.Price, err = parseDec(c.price, "price"); err != nil {
		return fail(err)
	}
	if tx.Amount, err = parseDec(c.amount, "amount"); err != nil {
		return fail(err)
	}
	if tx.Commission, err = parseDec(c.commission, "commission"); err != nil {
		return fail(err)
	}
	if strings.TrimSpace(c.leverage) != "" {
		draw, err := parseDec(c.leverage, "leverage")
		if err != nil {
			return fail(err)
		}
		tx.LeverageUsed = &draw
	}
	if c.date != "" {
		day, err := folio.ParseDate(c.date)
		if err != nil {
			return fail(err)
		}
		tx.Date = time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.Local)
	}

	booked, err := svc.ApplyTransaction(c.portfolio, tx)
	if err != nil {
		return fail(err)
	}

	fmt.Printf("Recorded %s %s, amount %s", booked.Type, booked.ID, folio.CNY(booked.Amount))
	if draw := booked.Leverage(); draw.IsPositive() {
		fmt.Printf(" (leverage draw %s)", folio.CNY(draw))
	}
	fmt.Println()
	return subcommands.ExitSuccess
}
