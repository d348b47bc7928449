// Package model defines the typed records of the ledger book.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountKind classifies an account. The kind never changes after creation.
type AccountKind string

// Account kinds. Income and expense accounts are ledger categories; the rest
// are real-world accounts.
const (
	KindChecking   AccountKind = "checking"
	KindSavings    AccountKind = "savings"
	KindCredit     AccountKind = "credit"
	KindInvestment AccountKind = "investment"
	KindCash       AccountKind = "cash"
	KindIncome     AccountKind = "income"
	KindExpense    AccountKind = "expense"
)

// IsCategory reports whether the kind denotes a category account.
func (k AccountKind) IsCategory() bool {
	return k == KindIncome || k == KindExpense
}

// Valid reports whether the kind is one of the known account kinds.
func (k AccountKind) Valid() bool {
	switch k {
	case KindChecking, KindSavings, KindCredit, KindInvestment, KindCash, KindIncome, KindExpense:
		return true
	}
	return false
}

// Account is a real account or a ledger category.
type Account struct {
	ID       int64
	Name     string
	PathName string // full hierarchical path, e.g. "Expenses:Food:Groceries"
	Kind     AccountKind
	ParentID *int64 // categories only; nil for roots and real accounts
}

// Transaction is a dated ledger entry owning a set of line items whose
// amounts sum to zero.
type Transaction struct {
	ID         int64
	Date       time.Time // day granularity, UTC midnight
	Title      string
	Note       string
	Cleared    bool
	Voided     bool
	ModifiedAt time.Time
}

// LineItem is one leg of a transaction. A line item with no account is an
// orphaned slot: tolerated on read, repaired on category mutation, never
// created by this package's callers.
type LineItem struct {
	ID             int64
	TransactionID  int64
	AccountID      *int64
	Amount         decimal.Decimal
	Memo           string
	RunningBalance decimal.Decimal // derived cache, owned by the recalculator
	StatementID    *int64
	Cleared        bool
}

// Orphaned reports whether the line item has no owning account.
func (li LineItem) Orphaned() bool {
	return li.AccountID == nil
}

// Statement is a reconciliation period for one real account.
type Statement struct {
	ID               int64
	AccountID        int64
	Start            time.Time // inclusive
	End              time.Time // inclusive
	BeginningBalance decimal.Decimal
	EndingBalance    decimal.Decimal
}

// ExpectedChange returns the balance movement the statement claims.
func (s Statement) ExpectedChange() decimal.Decimal {
	return s.EndingBalance.Sub(s.BeginningBalance)
}

// ImportRule links a payee regular expression to a transaction template.
type ImportRule struct {
	ID         int64
	Pattern    string
	TemplateID int64
}

// Template is a reusable transaction shape referenced by import rules.
type Template struct {
	ID   int64
	Name string
}

// TemplateLineItem is one leg of a template.
type TemplateLineItem struct {
	ID         int64
	TemplateID int64
	AccountID  *int64
	Amount     decimal.Decimal
	Memo       string
}
