package cli

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"
)

type initCmd struct {
	app *App
}

func (*initCmd) Name() string     { return "init" }
func (*initCmd) Synopsis() string { return "set up the PIN protecting local data" }
func (*initCmd) Usage() string {
	return `zenledger init

Sets up the PIN used to encrypt accounts and audit history. Refuses to
run when a PIN already exists; use it once on first launch.
`
}

func (*initCmd) SetFlags(_ *flag.FlagSet) {}

func (c *initCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	settings, err := c.app.Auth.Settings(ctx)
	if err != nil {
		return fail(err)
	}
	if settings.HasPIN() {
		return fail(fmt.Errorf("a PIN is already configured"))
	}

	pin, err := promptPIN("Choose a PIN: ")
	if err != nil {
		return fail(err)
	}
	if pin == "" {
		return fail(fmt.Errorf("PIN must not be empty"))
	}

	confirm, err := promptPIN("Confirm PIN: ")
	if err != nil {
		return fail(err)
	}
	if pin != confirm {
		return fail(fmt.Errorf("PINs do not match"))
	}

	if err := c.app.Auth.SetupPin(ctx, pin); err != nil {
		return fail(err)
	}

	fmt.Println("PIN configured. Your data will be encrypted from now on.")
	return subcommands.ExitSuccess
}
