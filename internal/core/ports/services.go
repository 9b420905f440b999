package ports

import (
	"context"

	"zenledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EnvelopeCodec performs PIN-keyed authenticated encryption of byte
// payloads into self-describing text blobs.
type EnvelopeCodec interface {
	// Encrypt derives a key from (pin, fresh salt) and returns a versioned
	// envelope carrying salt, nonce and ciphertext+tag.
	Encrypt(plaintext []byte, pin string) (string, error)
	// Decrypt re-derives the key from the embedded salt and verifies the
	// tag. Wrong PIN and corruption are indistinguishable by design.
	Decrypt(envelope string, pin string) ([]byte, error)
}

// PINHasher handles PIN verification material (Argon2id).
type PINHasher interface {
	Hash(pin string) (string, error)
	Verify(pin string, encoded string) (bool, error)
	// IsEncoded reports whether stored is an encoded hash, as opposed to a
	// raw legacy PIN string.
	IsEncoded(stored string) bool
}

// AccountDraft holds input for account creation. Balance is the raw user
// input; an unparsable value defaults to zero.
type AccountDraft struct {
	Name     string
	Type     domain.AccountType
	Balance  string
	Currency domain.Currency
}

// AccountUpdate holds a partial account mutation; nil fields are left
// unchanged.
type AccountUpdate struct {
	Name     *string
	Type     *domain.AccountType
	Balance  *decimal.Decimal
	Currency *domain.Currency
}

// Ledger owns the account collection and the audit trail as one unit:
// every mutation that changes a balance or identity appends exactly one
// audit entry before the mutation is durable.
type Ledger interface {
	// Load reads both collections from storage using pin, caching them in
	// memory for the rest of the session. Must be called once after
	// authentication before any other method is trustworthy.
	Load(ctx context.Context, pin string) error

	Accounts() []domain.Account
	AuditTrail() []domain.AuditEntry
	// TotalBalances sums live account balances per currency.
	TotalBalances() map[domain.Currency]decimal.Decimal

	AddAccount(ctx context.Context, draft AccountDraft) (domain.Account, error)
	UpdateAccount(ctx context.Context, id uuid.UUID, update AccountUpdate) (domain.Account, error)
	DeleteAccount(ctx context.Context, id uuid.UUID) error
	// ClearAllAccounts deletes every account, emitting one deleted entry
	// per account.
	ClearAllAccounts(ctx context.Context) error
	// ClearAuditTrail wipes history only; accounts are untouched.
	ClearAuditTrail(ctx context.Context) error
}

// AuthGate validates PINs against stored settings and is the only path by
// which the record store receives a usable key.
type AuthGate interface {
	// Authenticate compares pin to the stored verification material and
	// unlocks the session on success.
	Authenticate(ctx context.Context, pin string) (bool, error)
	// SetupPin stores new verification material and unlocks the session.
	SetupPin(ctx context.Context, pin string) error
	Logout()
	Settings(ctx context.Context) (domain.UserSettings, error)
	// LoadData performs the migration-aware load of both encrypted
	// collections using the given or session-cached PIN.
	LoadData(ctx context.Context, pin string) error
}
