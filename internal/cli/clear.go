package cli

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"
)

type clearCmd struct {
	app *App
	yes bool
}

func (*clearCmd) Name() string     { return "clear" }
func (*clearCmd) Synopsis() string { return "delete all accounts" }
func (*clearCmd) Usage() string {
	return `zenledger clear -yes

Deletes every account, recording one deletion entry per account in the
audit trail.
`
}

func (c *clearCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.yes, "yes", false, "Confirm the deletion")
}

func (c *clearCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if !c.yes {
		return fail(fmt.Errorf("refusing to delete all accounts without -yes"))
	}

	if err := c.app.unlock(ctx); err != nil {
		return fail(err)
	}

	count := len(c.app.Ledger.Accounts())
	if err := c.app.Ledger.ClearAllAccounts(ctx); err != nil {
		return fail(err)
	}

	fmt.Printf("Deleted %d account(s).\n", count)
	return subcommands.ExitSuccess
}

type resetCmd struct {
	app *App
	yes bool
}

func (*resetCmd) Name() string     { return "reset" }
func (*resetCmd) Synopsis() string { return "wipe the entire local namespace, including the PIN" }
func (*resetCmd) Usage() string {
	return `zenledger reset -yes

Deletes everything: accounts, audit trail and settings. The next run
starts from scratch with 'zenledger init'.
`
}

func (c *resetCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.yes, "yes", false, "Confirm the wipe")
}

func (c *resetCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if !c.yes {
		return fail(fmt.Errorf("refusing to wipe all data without -yes"))
	}

	if err := c.app.Store.Clear(ctx); err != nil {
		return fail(err)
	}
	c.app.Auth.Logout()

	fmt.Println("All local data wiped.")
	return subcommands.ExitSuccess
}
