package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"zenledger/internal/core/domain"
	"zenledger/internal/core/ports"
	"zenledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// LedgerService implements ports.Ledger. It owns the account collection
// and the audit trail as one unit: a mutation is durable only once the new
// account set and the matching audit entry are both persisted, in that
// order.
//
// A single mutex serializes mutations, so back-to-back calls never lose an
// update and at most one write per record is ever in flight.
type LedgerService struct {
	store ports.RecordStore
	log   zerolog.Logger
	now   func() time.Time

	mu       sync.Mutex
	loaded   bool
	accounts []domain.Account
	audit    []domain.AuditEntry
}

// NewLedgerService creates a coordinator over store.
func NewLedgerService(store ports.RecordStore, log zerolog.Logger) *LedgerService {
	return &LedgerService{
		store: store,
		log:   log,
		now:   time.Now,
	}
}

func encryptedOpts(pin string) ports.RecordOptions {
	return ports.RecordOptions{Encrypt: true, PIN: pin}
}

// Load reads both collections from storage, caching them for the session.
// A corrupted record leaves that collection empty and surfaces STORE_001
// for the caller to log; an authentication failure leaves the coordinator
// unloaded.
func (s *LedgerService) Load(ctx context.Context, pin string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked(ctx, pin)
}

func (s *LedgerService) loadLocked(ctx context.Context, pin string) error {
	accounts := []domain.Account{}
	audit := []domain.AuditEntry{}

	var corrupted error
	if _, err := s.store.Get(ctx, domain.RecordAccounts, &accounts, encryptedOpts(pin)); err != nil {
		if !apperror.IsCode(err, apperror.CodeCorruptedData) {
			return err
		}
		s.log.Warn().Err(err).Msg("accounts record corrupted, starting from empty set")
		corrupted = err
		accounts = []domain.Account{}
	}
	if _, err := s.store.Get(ctx, domain.RecordAudit, &audit, encryptedOpts(pin)); err != nil {
		if !apperror.IsCode(err, apperror.CodeCorruptedData) {
			return err
		}
		s.log.Warn().Err(err).Msg("audit record corrupted, starting from empty trail")
		corrupted = err
		audit = []domain.AuditEntry{}
	}

	s.accounts = accounts
	s.audit = audit
	s.loaded = true

	s.log.Debug().
		Int("accounts", len(accounts)).
		Int("audit_entries", len(audit)).
		Msg("ledger loaded")

	return corrupted
}

func (s *LedgerService) ensureLoadedLocked(ctx context.Context) error {
	if s.loaded {
		return nil
	}
	return s.loadLocked(ctx, "")
}

// Accounts returns a copy of the live account set.
func (s *LedgerService) Accounts() []domain.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Account(nil), s.accounts...)
}

// AuditTrail returns a copy of the audit trail, most recent first.
func (s *LedgerService) AuditTrail() []domain.AuditEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.AuditEntry(nil), s.audit...)
}

// TotalBalances sums live account balances per currency.
func (s *LedgerService) TotalBalances() map[domain.Currency]decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()

	totals := make(map[domain.Currency]decimal.Decimal)
	for _, acc := range s.accounts {
		totals[acc.Currency] = totals[acc.Currency].Add(acc.Balance)
	}
	return totals
}

// AddAccount assigns a fresh id and timestamps and appends the account,
// emitting a created audit entry. An unparsable draft balance defaults to
// zero.
func (s *LedgerService) AddAccount(ctx context.Context, draft ports.AccountDraft) (domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoadedLocked(ctx); err != nil {
		return domain.Account{}, err
	}
	if draft.Name == "" {
		return domain.Account{}, apperror.Validation("account name must not be empty")
	}
	if !draft.Type.IsValid() {
		return domain.Account{}, apperror.Validation(fmt.Sprintf("unknown account type %q", draft.Type))
	}
	if !draft.Currency.IsValid() {
		return domain.Account{}, apperror.Validation(fmt.Sprintf("unsupported currency %q", draft.Currency))
	}

	balance, err := decimal.NewFromString(draft.Balance)
	if err != nil {
		balance = decimal.Zero
	}

	ts := s.now().UTC()
	account := domain.Account{
		ID:        uuid.New(),
		Name:      draft.Name,
		Type:      draft.Type,
		Balance:   balance,
		Currency:  draft.Currency,
		CreatedAt: ts,
		UpdatedAt: ts,
	}

	entry := s.newEntry(account.ID, account.Name, decimal.Zero, balance, domain.AuditActionCreated,
		fmt.Sprintf("Account %q created with balance %s %s", account.Name, balance, account.Currency))

	accounts := append(append([]domain.Account(nil), s.accounts...), account)
	audit := prepend(s.audit, entry)

	if err := s.persistLocked(ctx, accounts, audit, true); err != nil {
		return domain.Account{}, err
	}
	return account, nil
}

// UpdateAccount replaces only the supplied fields and recomputes
// UpdatedAt. A balance change emits an updated entry with the delta; a
// name-only change emits a zero-delta entry; any other change emits none.
func (s *LedgerService) UpdateAccount(ctx context.Context, id uuid.UUID, update ports.AccountUpdate) (domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoadedLocked(ctx); err != nil {
		return domain.Account{}, err
	}

	idx := s.indexOfLocked(id)
	if idx < 0 {
		return domain.Account{}, apperror.ErrAccountNotFound(id.String())
	}
	existing := s.accounts[idx]

	updated := existing
	if update.Name != nil {
		updated.Name = *update.Name
	}
	if update.Type != nil {
		if !update.Type.IsValid() {
			return domain.Account{}, apperror.Validation(fmt.Sprintf("unknown account type %q", *update.Type))
		}
		updated.Type = *update.Type
	}
	if update.Balance != nil {
		updated.Balance = *update.Balance
	}
	if update.Currency != nil {
		if !update.Currency.IsValid() {
			return domain.Account{}, apperror.Validation(fmt.Sprintf("unsupported currency %q", *update.Currency))
		}
		updated.Currency = *update.Currency
	}
	updated.UpdatedAt = s.nextTimestampLocked(existing.UpdatedAt)

	change := updated.Balance.Sub(existing.Balance)

	// At most one entry per mutation: the balance rule wins, carrying the
	// new name; a name-only change is the fallback path.
	var entry *domain.AuditEntry
	switch {
	case !change.IsZero():
		direction := "increased"
		if change.IsNegative() {
			direction = "decreased"
		}
		e := s.newEntry(id, updated.Name, existing.Balance, updated.Balance, domain.AuditActionUpdated,
			fmt.Sprintf("Balance %s by %s %s", direction, change.Abs(), existing.Currency))
		entry = &e
	case updated.Name != existing.Name:
		e := s.newEntry(id, updated.Name, existing.Balance, updated.Balance, domain.AuditActionUpdated,
			fmt.Sprintf("Account renamed from %q to %q", existing.Name, updated.Name))
		entry = &e
	}

	accounts := append([]domain.Account(nil), s.accounts...)
	accounts[idx] = updated

	audit := s.audit
	if entry != nil {
		audit = prepend(s.audit, *entry)
	}

	if err := s.persistLocked(ctx, accounts, audit, entry != nil); err != nil {
		return domain.Account{}, err
	}
	return updated, nil
}

// DeleteAccount removes the account and emits a deleted entry bringing
// its balance to zero.
func (s *LedgerService) DeleteAccount(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoadedLocked(ctx); err != nil {
		return err
	}

	idx := s.indexOfLocked(id)
	if idx < 0 {
		return apperror.ErrAccountNotFound(id.String())
	}
	existing := s.accounts[idx]

	entry := s.newEntry(id, existing.Name, existing.Balance, decimal.Zero, domain.AuditActionDeleted,
		fmt.Sprintf("Account %q deleted", existing.Name))

	accounts := append([]domain.Account(nil), s.accounts[:idx]...)
	accounts = append(accounts, s.accounts[idx+1:]...)
	audit := prepend(s.audit, entry)

	return s.persistLocked(ctx, accounts, audit, true)
}

// ClearAllAccounts deletes every account, emitting one deleted entry per
// account in their existing order.
func (s *LedgerService) ClearAllAccounts(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoadedLocked(ctx); err != nil {
		return err
	}

	audit := s.audit
	for _, acc := range s.accounts {
		entry := s.newEntry(acc.ID, acc.Name, acc.Balance, decimal.Zero, domain.AuditActionDeleted,
			fmt.Sprintf("Account %q deleted (bulk clear)", acc.Name))
		audit = prepend(audit, entry)
	}

	return s.persistLocked(ctx, []domain.Account{}, audit, len(s.accounts) > 0)
}

// ClearAuditTrail empties the trail only; accounts are untouched. This is
// the explicit user-initiated history wipe, the one operation permitted
// to leave mutations without matching entries.
func (s *LedgerService) ClearAuditTrail(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoadedLocked(ctx); err != nil {
		return err
	}

	audit := []domain.AuditEntry{}
	if err := s.store.Set(ctx, domain.RecordAudit, audit, encryptedOpts("")); err != nil {
		return err
	}
	s.audit = audit
	s.log.Info().Msg("audit trail cleared")
	return nil
}

// persistLocked writes the account set, then the audit trail, and commits
// both to memory only when every write succeeded. On failure the in-memory
// state stays at the pre-mutation values; callers decide whether to retry.
func (s *LedgerService) persistLocked(ctx context.Context, accounts []domain.Account, audit []domain.AuditEntry, auditChanged bool) error {
	if err := s.store.Set(ctx, domain.RecordAccounts, accounts, encryptedOpts("")); err != nil {
		return err
	}
	if auditChanged {
		if err := s.store.Set(ctx, domain.RecordAudit, audit, encryptedOpts("")); err != nil {
			return err
		}
	}
	s.accounts = accounts
	s.audit = audit
	return nil
}

func (s *LedgerService) indexOfLocked(id uuid.UUID) int {
	for i, acc := range s.accounts {
		if acc.ID == id {
			return i
		}
	}
	return -1
}

// nextTimestampLocked returns the current time, nudged forward when the
// clock has not advanced past the previous mutation, keeping UpdatedAt
// strictly increasing.
func (s *LedgerService) nextTimestampLocked(prev time.Time) time.Time {
	ts := s.now().UTC()
	if !ts.After(prev) {
		ts = prev.Add(time.Nanosecond)
	}
	return ts
}

func (s *LedgerService) newEntry(accountID uuid.UUID, name string, previous, next decimal.Decimal, action domain.AuditAction, description string) domain.AuditEntry {
	return domain.AuditEntry{
		ID:              uuid.New(),
		Timestamp:       s.now().UTC(),
		AccountID:       accountID,
		AccountName:     name,
		PreviousBalance: previous,
		NewBalance:      next,
		ChangeAmount:    next.Sub(previous),
		Action:          action,
		Description:     description,
	}
}

// prepend puts entry at the head: the trail is ordered most-recent-first.
func prepend(audit []domain.AuditEntry, entry domain.AuditEntry) []domain.AuditEntry {
	out := make([]domain.AuditEntry, 0, len(audit)+1)
	out = append(out, entry)
	return append(out, audit...)
}
