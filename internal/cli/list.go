package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/google/subcommands"
)

type lsCmd struct {
	app *App
}

func (*lsCmd) Name() string     { return "ls" }
func (*lsCmd) Synopsis() string { return "list accounts and per-currency totals" }
func (*lsCmd) Usage() string {
	return `zenledger ls

Lists all accounts with their balances, followed by per-currency totals.
`
}

func (*lsCmd) SetFlags(_ *flag.FlagSet) {}

func (c *lsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if err := c.app.unlock(ctx); err != nil {
		return fail(err)
	}

	accounts := c.app.Ledger.Accounts()
	if len(accounts) == 0 {
		fmt.Println("No accounts yet. Add one with 'zenledger add'.")
		return subcommands.ExitSuccess
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTYPE\tBALANCE\tCURRENCY\tUPDATED")
	for _, acc := range accounts {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			acc.ID, acc.Name, acc.Type, acc.Balance, acc.Currency,
			acc.UpdatedAt.Local().Format("2006-01-02 15:04"))
	}
	w.Flush()

	fmt.Println()
	for currency, total := range c.app.Ledger.TotalBalances() {
		fmt.Printf("Total %s: %s\n", currency, total)
	}
	return subcommands.ExitSuccess
}
