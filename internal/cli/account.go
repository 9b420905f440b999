package cli

import (
	"context"
	"flag"
	"fmt"

	"zenledger/internal/core/domain"
	"zenledger/internal/core/ports"

	"github.com/google/subcommands"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type addCmd struct {
	app      *App
	name     string
	accType  string
	balance  string
	currency string
}

func (*addCmd) Name() string     { return "add" }
func (*addCmd) Synopsis() string { return "add a new account" }
func (*addCmd) Usage() string {
	return `zenledger add -name <name> [-type <type>] [-balance <amount>] [-currency <code>]

Adds an account. An unparsable balance defaults to 0.
`
}

func (c *addCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.name, "name", "", "Account display name")
	f.StringVar(&c.accType, "type", string(domain.AccountTypeChecking), "Account type: checking, savings, credit_card, investment, cash, loan, other")
	f.StringVar(&c.balance, "balance", "0", "Opening balance")
	f.StringVar(&c.currency, "currency", string(domain.CurrencyUSD), "Currency code")
}

func (c *addCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if err := c.app.unlock(ctx); err != nil {
		return fail(err)
	}

	account, err := c.app.Ledger.AddAccount(ctx, ports.AccountDraft{
		Name:     c.name,
		Type:     domain.AccountType(c.accType),
		Balance:  c.balance,
		Currency: domain.Currency(c.currency),
	})
	if err != nil {
		return fail(err)
	}

	fmt.Printf("Added account %q (%s) with balance %s %s\n", account.Name, account.ID, account.Balance, account.Currency)
	return subcommands.ExitSuccess
}

type updateCmd struct {
	app      *App
	id       string
	name     string
	accType  string
	balance  string
	currency string
}

func (*updateCmd) Name() string     { return "update" }
func (*updateCmd) Synopsis() string { return "update fields of an existing account" }
func (*updateCmd) Usage() string {
	return `zenledger update -id <account-id> [-name <name>] [-type <type>] [-balance <amount>] [-currency <code>]

Updates only the supplied fields. Balance changes are recorded in the
audit trail with their delta; a rename alone is recorded with a zero
delta.
`
}

func (c *updateCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.id, "id", "", "Account id (required)")
	f.StringVar(&c.name, "name", "", "New display name")
	f.StringVar(&c.accType, "type", "", "New account type")
	f.StringVar(&c.balance, "balance", "", "New balance")
	f.StringVar(&c.currency, "currency", "", "New currency code")
}

func (c *updateCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	id, err := uuid.Parse(c.id)
	if err != nil {
		return fail(fmt.Errorf("invalid account id %q: %w", c.id, err))
	}

	var update ports.AccountUpdate
	var parseErr error
	f.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "name":
			update.Name = &c.name
		case "type":
			t := domain.AccountType(c.accType)
			update.Type = &t
		case "balance":
			balance, err := decimal.NewFromString(c.balance)
			if err != nil {
				parseErr = fmt.Errorf("invalid balance %q: %w", c.balance, err)
				return
			}
			update.Balance = &balance
		case "currency":
			cur := domain.Currency(c.currency)
			update.Currency = &cur
		}
	})
	if parseErr != nil {
		return fail(parseErr)
	}
	if update.Name == nil && update.Type == nil && update.Balance == nil && update.Currency == nil {
		return fail(fmt.Errorf("nothing to update: supply at least one of -name, -type, -balance, -currency"))
	}

	if err := c.app.unlock(ctx); err != nil {
		return fail(err)
	}

	account, err := c.app.Ledger.UpdateAccount(ctx, id, update)
	if err != nil {
		return fail(err)
	}

	fmt.Printf("Updated account %q: balance %s %s\n", account.Name, account.Balance, account.Currency)
	return subcommands.ExitSuccess
}

type rmCmd struct {
	app *App
	id  string
}

func (*rmCmd) Name() string     { return "rm" }
func (*rmCmd) Synopsis() string { return "delete one account" }
func (*rmCmd) Usage() string {
	return `zenledger rm -id <account-id>

Deletes the account. The deletion is recorded in the audit trail; the
account's history entries persist.
`
}

func (c *rmCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.id, "id", "", "Account id (required)")
}

func (c *rmCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	id, err := uuid.Parse(c.id)
	if err != nil {
		return fail(fmt.Errorf("invalid account id %q: %w", c.id, err))
	}

	if err := c.app.unlock(ctx); err != nil {
		return fail(err)
	}

	if err := c.app.Ledger.DeleteAccount(ctx, id); err != nil {
		return fail(err)
	}

	fmt.Println("Account deleted.")
	return subcommands.ExitSuccess
}
