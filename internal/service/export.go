package service

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"zenledger/internal/core/ports"
)

// CSVExporter formats the live account set as CSV. It is a read-only
// collaborator: it never mutates the ledger.
type CSVExporter struct {
	ledger ports.Ledger
}

// NewCSVExporter creates an exporter over ledger.
func NewCSVExporter(ledger ports.Ledger) *CSVExporter {
	return &CSVExporter{ledger: ledger}
}

// ExportAccounts writes one row per account plus a header.
func (e *CSVExporter) ExportAccounts(w io.Writer) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"id", "name", "type", "balance", "currency", "created_at", "updated_at"}); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}

	for _, acc := range e.ledger.Accounts() {
		row := []string{
			acc.ID.String(),
			acc.Name,
			string(acc.Type),
			acc.Balance.String(),
			string(acc.Currency),
			acc.CreatedAt.Format(time.RFC3339),
			acc.UpdatedAt.Format(time.RFC3339),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing CSV row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
