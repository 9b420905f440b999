package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/google/subcommands"
)

type auditCmd struct {
	app   *App
	limit int
}

func (*auditCmd) Name() string     { return "audit" }
func (*auditCmd) Synopsis() string { return "show the audit trail, most recent first" }
func (*auditCmd) Usage() string {
	return `zenledger audit [-n <count>]

Shows the audit trail. Entries are append-only history; deleted accounts
keep their entries.
`
}

func (c *auditCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.limit, "n", 0, "Show at most n entries (0 = all)")
}

func (c *auditCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if err := c.app.unlock(ctx); err != nil {
		return fail(err)
	}

	trail := c.app.Ledger.AuditTrail()
	if len(trail) == 0 {
		fmt.Println("Audit trail is empty.")
		return subcommands.ExitSuccess
	}
	if c.limit > 0 && len(trail) > c.limit {
		trail = trail[:c.limit]
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tACTION\tACCOUNT\tCHANGE\tDESCRIPTION")
	for _, entry := range trail {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			entry.Timestamp.Local().Format("2006-01-02 15:04:05"),
			entry.Action, entry.AccountName, entry.ChangeAmount, entry.Description)
	}
	w.Flush()
	return subcommands.ExitSuccess
}

type clearAuditCmd struct {
	app *App
	yes bool
}

func (*clearAuditCmd) Name() string     { return "clear-audit" }
func (*clearAuditCmd) Synopsis() string { return "wipe the audit trail" }
func (*clearAuditCmd) Usage() string {
	return `zenledger clear-audit -yes

Empties the audit trail. Accounts are untouched. This permanently
removes history and cannot be undone.
`
}

func (c *clearAuditCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.yes, "yes", false, "Confirm the wipe")
}

func (c *clearAuditCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if !c.yes {
		return fail(fmt.Errorf("refusing to wipe history without -yes"))
	}

	if err := c.app.unlock(ctx); err != nil {
		return fail(err)
	}

	if err := c.app.Ledger.ClearAuditTrail(ctx); err != nil {
		return fail(err)
	}

	fmt.Println("Audit trail cleared.")
	return subcommands.ExitSuccess
}
