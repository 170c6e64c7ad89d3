// Package domain defines the canonical ledger types shared by every
// stage of the ingest pipeline.
package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// CounterpartyType is the coarse classification of the other party in a
// transaction. The empty string means the parser could not tell.
type CounterpartyType string

const (
	CounterpartyMerchant CounterpartyType = "Merchant"
	CounterpartyPerson   CounterpartyType = "Person"
)

// Transaction is the structured decomposition of a statement's free-text
// details field. It is a pure value object: parsers produce it, nothing
// mutates it afterwards.
type Transaction struct {
	// TransactionID is the institution's own reference number. Numeric
	// tokens are carried verbatim, leading zeros included.
	TransactionID string

	// TransactionType is a short code such as "UPI", "NEFT", "IMPS",
	// "ATM", "POS", "ECOM", "CC", "AC", "CHQ" or "Cash".
	TransactionType string

	CounterpartyName string
	CounterpartyType CounterpartyType
	CounterpartyBank string

	// Remarks is whatever free text survived field extraction.
	Remarks string

	// CategoryName is an optional direct category hint emitted by the
	// parser (the cash grammar carries one in-band).
	CategoryName string

	// Ignore marks self-transfers and administrative lines that must be
	// excluded from spend totals without being deleted.
	Ignore bool
}

// PreRecord is the canonical pre-record produced by the row normalizer:
// one statement row reduced to the fields every institution shares. It
// exists only between normalization and ingest; the ingest gate folds it
// into an Entry.
type PreRecord struct {
	// ID is the content hash of (source file, row position, details,
	// date, amount). It is stable under re-parsing the same file and is
	// the idempotency key for the dedup gate.
	ID string

	Date       time.Time
	Details    string
	Amount     decimal.Decimal
	SourceFile string
	SourceLine int
}

// Entry is the persisted, human-editable ledger record. Created once by
// ingest, then mutated indefinitely by reconciliation and review; never
// deleted.
type Entry struct {
	PreRecord

	// Source is the registered institution key the row came from.
	Source string

	Transaction

	// CounterpartyNameP and CounterpartyBankP are the as-parsed name and
	// bank, set once at ingest and never touched again. They survive
	// human edits to CounterpartyName/CounterpartyBank and act as the
	// stable join key for propagating corrections.
	CounterpartyNameP string
	CounterpartyBankP string

	// CategoryID is nil until reconciliation or a human assigns one.
	CategoryID *int64

	// Parent optionally links this entry to a logically related one,
	// e.g. a refund to its original purchase. Only review operations
	// set it.
	Parent *string

	Reviewed bool
}

// NewEntry folds a pre-record and its parsed transaction into a ledger
// entry, fixing the write-once _p shadow fields.
func NewEntry(pre PreRecord, source string, txn Transaction) (*Entry, error) {
	if pre.ID == "" {
		return nil, fmt.Errorf("pre-record ID cannot be empty")
	}
	if source == "" {
		return nil, fmt.Errorf("source cannot be empty")
	}

	return &Entry{
		PreRecord:         pre,
		Source:            source,
		Transaction:       txn,
		CounterpartyNameP: txn.CounterpartyName,
		CounterpartyBankP: txn.CounterpartyBank,
	}, nil
}

// Category is a spend category owned by external configuration; the core
// only reads the name→id mapping.
type Category struct {
	ID   int64
	Name string
}

// Tag is a free-form label attached to entries during review.
type Tag struct {
	ID   int64
	Name string
}
