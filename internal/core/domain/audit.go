package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AuditAction represents the kind of audited account change.
type AuditAction string

const (
	AuditActionCreated AuditAction = "created"
	AuditActionUpdated AuditAction = "updated"
	AuditActionDeleted AuditAction = "deleted"
)

// AuditEntry records one balance- or identity-affecting change to an
// account. Entries are append-only: once written they are never mutated
// or reordered. AccountID is a weak reference — the account may be
// deleted later while the entry persists as history.
type AuditEntry struct {
	ID              uuid.UUID       `json:"id"`
	Timestamp       time.Time       `json:"timestamp"`
	AccountID       uuid.UUID       `json:"accountId"`
	AccountName     string          `json:"accountName"` // name snapshot at time of action
	PreviousBalance decimal.Decimal `json:"previousBalance"`
	NewBalance      decimal.Decimal `json:"newBalance"`
	ChangeAmount    decimal.Decimal `json:"changeAmount"` // NewBalance - PreviousBalance
	Action          AuditAction     `json:"action"`
	Description     string          `json:"description"`
}
