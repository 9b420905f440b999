// Package cli implements the command-line host layer driving the
// authentication gate and the ledger coordinator.
package cli

import (
	"context"
	"fmt"
	"os"

	"zenledger/internal/core/ports"
	"zenledger/internal/service"

	"github.com/google/subcommands"
	"github.com/rs/zerolog"
	"golang.org/x/term"
)

// PINEnvVar allows non-interactive use: when set, commands read the PIN
// from the environment instead of prompting.
const PINEnvVar = "ZENLEDGER_PIN"

// App bundles the wired services for the command set.
type App struct {
	Auth     ports.AuthGate
	Ledger   ports.Ledger
	Store    ports.RecordStore
	Exporter *service.CSVExporter
	Log      zerolog.Logger
}

// Register registers all subcommands on cdr.
func Register(cdr *subcommands.Commander, app *App) {
	cdr.Register(cdr.HelpCommand(), "")
	cdr.Register(cdr.FlagsCommand(), "")

	cdr.Register(&initCmd{app: app}, "security")
	cdr.Register(&resetCmd{app: app}, "security")

	cdr.Register(&addCmd{app: app}, "accounts")
	cdr.Register(&updateCmd{app: app}, "accounts")
	cdr.Register(&rmCmd{app: app}, "accounts")
	cdr.Register(&clearCmd{app: app}, "accounts")
	cdr.Register(&lsCmd{app: app}, "accounts")
	cdr.Register(&exportCmd{app: app}, "accounts")

	cdr.Register(&auditCmd{app: app}, "history")
	cdr.Register(&clearAuditCmd{app: app}, "history")
}

// promptPIN reads a PIN without echo, preferring the environment variable.
func promptPIN(prompt string) (string, error) {
	if pin := os.Getenv(PINEnvVar); pin != "" {
		return pin, nil
	}

	fmt.Fprint(os.Stderr, prompt)
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading PIN: %w", err)
	}
	return string(raw), nil
}

// unlock authenticates and loads the encrypted collections. Every command
// that touches account data goes through here: the process starts cold,
// so there is never a pre-unlocked session to reuse.
func (a *App) unlock(ctx context.Context) error {
	settings, err := a.Auth.Settings(ctx)
	if err != nil {
		return err
	}
	if !settings.HasPIN() {
		return fmt.Errorf("no PIN configured; run 'zenledger init' first")
	}

	pin, err := promptPIN("PIN: ")
	if err != nil {
		return err
	}

	ok, err := a.Auth.Authenticate(ctx, pin)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("invalid PIN")
	}

	return a.Auth.LoadData(ctx, "")
}

func fail(err error) subcommands.ExitStatus {
	fmt.Fprintln(os.Stderr, "Error:", err)
	return subcommands.ExitFailure
}
