package cli

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
)

type exportCmd struct {
	app    *App
	output string
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "export accounts as CSV" }
func (*exportCmd) Usage() string {
	return `zenledger export [-o <file>]

Writes the account set as CSV to the given file, or stdout when no file
is given. The export is plaintext: keep it somewhere safe.
`
}

func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.output, "o", "", "Output file (default: stdout)")
}

func (c *exportCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if err := c.app.unlock(ctx); err != nil {
		return fail(err)
	}

	out := os.Stdout
	if c.output != "" {
		f, err := os.OpenFile(c.output, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
		if err != nil {
			return fail(fmt.Errorf("opening output file: %w", err))
		}
		defer f.Close()
		out = f
	}

	if err := c.app.Exporter.ExportAccounts(out); err != nil {
		return fail(err)
	}

	if c.output != "" {
		fmt.Fprintf(os.Stderr, "Exported %d account(s) to %s\n", len(c.app.Ledger.Accounts()), c.output)
	}
	return subcommands.ExitSuccess
}
