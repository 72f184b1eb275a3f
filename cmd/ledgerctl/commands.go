package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"

	"moneybook/internal/presenter"
	"moneybook/internal/services"
)

type addCmd struct {
	*env
	description string
	amount      string
	date        string
	typ         string
}

func (*addCmd) Name() string     { return "add" }
func (*addCmd) Synopsis() string { return "record an income or an expense" }
func (*addCmd) Usage() string {
	return `ledgerctl add -d <description> -a <amount> [-date YYYY-MM-DD] [-type income|expense]

  Adds one transaction. The date defaults to today and the type to income.
`
}

func (c *addCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.description, "d", "", "what the transaction is for")
	f.StringVar(&c.amount, "a", "", "positive amount, dot or comma as decimal separator")
	f.StringVar(&c.date, "date", "", "transaction date (YYYY-MM-DD), defaults to today")
	f.StringVar(&c.typ, "type", "", "income or expense, defaults to income")
}

func (c *addCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 0 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	app, err := c.open(ctx)
	if err != nil {
		return c.fail(err)
	}
	defer app.Close()

	defaults := app.Service.Defaults()
	raw := services.RawInput{
		Description: c.description,
		Amount:      c.amount,
		Date:        c.date,
		Type:        c.typ,
	}
	if raw.Date == "" {
		raw.Date = defaults.Date
	}
	if raw.Type == "" {
		raw.Type = string(defaults.Type)
	}

	_, t, err := app.Service.Submit(ctx, raw)
	if err != nil {
		// The notifier already told the user what went wrong.
		return subcommands.ExitFailure
	}
	fmt.Fprintln(c.out, t.ID)
	return subcommands.ExitSuccess
}

type listCmd struct {
	*env
}

func (*listCmd) Name() string     { return "list" }
func (*listCmd) Synopsis() string { return "show every transaction, newest first, with the totals" }
func (*listCmd) Usage() string {
	return `ledgerctl list

  Prints the summary, the transactions most recent first, and the summary
  again, the same layout as the web page.
`
}

func (c *listCmd) SetFlags(*flag.FlagSet) {}

func (c *listCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	app, err := c.open(ctx)
	if err != nil {
		return c.fail(err)
	}
	defer app.Close()

	list := app.Presenter.List(presenter.OrderForDisplay(app.Store.Snapshot()))
	summary := app.Presenter.Summary(app.Store.Summary())
	c.printMarkdown(app.Presenter.Markdown(list, summary))
	return subcommands.ExitSuccess
}

type summaryCmd struct {
	*env
}

func (*summaryCmd) Name() string     { return "summary" }
func (*summaryCmd) Synopsis() string { return "show total income, total expense and balance" }
func (*summaryCmd) Usage() string {
	return `ledgerctl summary
`
}

func (c *summaryCmd) SetFlags(*flag.FlagSet) {}

func (c *summaryCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	app, err := c.open(ctx)
	if err != nil {
		return c.fail(err)
	}
	defer app.Close()

	c.printMarkdown(app.Presenter.SummaryMarkdown(app.Presenter.Summary(app.Store.Summary())))
	return subcommands.ExitSuccess
}

type deleteCmd struct {
	*env
	yes bool
}

func (*deleteCmd) Name() string     { return "delete" }
func (*deleteCmd) Synopsis() string { return "delete a transaction after confirmation" }
func (*deleteCmd) Usage() string {
	return `ledgerctl delete [-y] <id>

  Asks for confirmation, then removes the transaction. Use the ids printed
  by 'ledgerctl list'.
`
}

func (c *deleteCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.yes, "y", false, "do not ask for confirmation")
}

func (c *deleteCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	id := f.Arg(0)

	app, err := c.open(ctx)
	if err != nil {
		return c.fail(err)
	}
	defer app.Close()

	confirm := c.confirm()
	if c.yes {
		confirm = services.Always
	}
	if _, err := app.Service.RequestDelete(ctx, id, confirm); err != nil {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
