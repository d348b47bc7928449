// Package engine implements the ledger consistency core: balance
// recalculation, recategorization, statement reconciliation, and category
// suggestions. It owns every cross-record invariant of the book; the
// surrounding commands are routing and formatting.
package engine

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"tally/internal/model"
	"tally/internal/store"
)

// Error kinds reported by engine operations. Callers classify with errors.Is.
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrWriteBlocked = errors.New("write blocked")
)

// balanceEpsilon is the tolerance for balance comparisons: two amounts
// closer than half a cent are considered equal.
var balanceEpsilon = decimal.New(5, -3)

// Guard vetoes writes while an external process holds the book open.
// An empty reason means writing is allowed.
type Guard interface {
	CheckWrite() string
}

// AllowAll is a Guard that never vetoes. Useful for tests and read-only
// deployments without a backing file to contend on.
type AllowAll struct{}

// CheckWrite always allows.
func (AllowAll) CheckWrite() string { return "" }

// Options tunes engine behavior that must not be an implicit lookup.
type Options struct {
	// SuggestionSampleLimit bounds the historical sample consulted by
	// SuggestCategory. Zero means the default of 50.
	SuggestionSampleLimit int
}

// Engine executes ledger operations against a book. Safe for concurrent use
// by independent callers; each operation is one isolated write transaction.
type Engine struct {
	store       *store.Store
	guard       Guard
	sampleLimit int
}

// New returns an engine over the given book.
func New(s *store.Store, g Guard, opts Options) *Engine {
	limit := opts.SuggestionSampleLimit
	if limit <= 0 {
		limit = 50
	}
	return &Engine{store: s, guard: g, sampleLimit: limit}
}

// CheckWrite consults the guard, for callers performing writes through the
// store directly rather than through an engine operation.
func (e *Engine) CheckWrite() error { return e.checkWrite() }

// checkWrite consults the guard before any mutating operation.
func (e *Engine) checkWrite() error {
	if reason := e.guard.CheckWrite(); reason != "" {
		return fmt.Errorf("%w: %s", ErrWriteBlocked, reason)
	}
	return nil
}

// reader is the read surface shared by the store and its write contexts, so
// validation logic runs identically against committed state (dry runs) and
// in-transaction state (live runs).
type reader interface {
	Account(id int64) (*model.Account, error)
	Transaction(id int64) (*model.Transaction, error)
	LineItem(id int64) (*model.LineItem, error)
	LineItems(transactionID int64) ([]model.LineItem, error)
	AccountLineItems(accountID int64) ([]model.LineItem, error)
	StatementLineItems(statementID int64) ([]model.LineItem, error)
	Statement(id int64) (*model.Statement, error)
	AccountStatements(accountID int64) ([]model.Statement, error)
	SearchTransactions(substr string, limit int) ([]model.Transaction, error)
}

// fetchCategory resolves a category account, distinguishing a missing
// account from a real account that cannot serve as a category.
func fetchCategory(r reader, categoryID int64) (*model.Account, error) {
	cat, err := r.Account(categoryID)
	if err != nil {
		return nil, err
	}
	if cat == nil {
		return nil, fmt.Errorf("%w: category account %d", ErrNotFound, categoryID)
	}
	if !cat.Kind.IsCategory() {
		return nil, fmt.Errorf("%w: account %q is not a category", ErrInvalidInput, cat.Name)
	}
	return cat, nil
}
