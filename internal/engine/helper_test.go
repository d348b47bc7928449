package engine

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"tally/internal/model"
	"tally/internal/store"
)

// newTestEngine opens a fresh book in a temp dir with an allow-all guard.
func newTestEngine(t *testing.T) (*Engine, *store.Store) {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "book.db"))
	if err != nil {
		t.Fatalf("opening book: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return New(s, AllowAll{}, Options{}), s
}

func amt(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("parse amount %q: %v", s, err)
	}
	return d
}

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	if err != nil {
		t.Fatalf("parse date %q: %v", s, err)
	}
	return d
}

// seedAccount creates an account of the given kind.
func seedAccount(t *testing.T, s *store.Store, name string, kind model.AccountKind) *model.Account {
	t.Helper()
	acct := &model.Account{Name: name, PathName: name, Kind: kind}
	err := s.RunWrite(func(tx *store.WriteTx) error {
		return tx.InsertAccount(acct)
	})
	if err != nil {
		t.Fatalf("seeding account %q: %v", name, err)
	}
	return acct
}

// testLeg pairs an optional account with a signed amount.
type testLeg struct {
	acct   *model.Account // nil seeds an orphaned slot
	amount string
}

// seedTransaction creates a transaction with explicit legs, including
// orphaned slots and unbalanced single-leg shapes.
func seedTransaction(t *testing.T, s *store.Store, date, title string, legs ...testLeg) *model.Transaction {
	t.Helper()
	txn := &model.Transaction{Date: day(t, date), Title: title}
	err := s.RunWrite(func(tx *store.WriteTx) error {
		if err := tx.InsertTransaction(txn); err != nil {
			return err
		}
		for _, leg := range legs {
			li := &model.LineItem{TransactionID: txn.ID, Amount: amt(t, leg.amount)}
			if leg.acct != nil {
				li.AccountID = &leg.acct.ID
			}
			if err := tx.InsertLineItem(li); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("seeding transaction %q: %v", title, err)
	}
	return txn
}

// lineItemSum returns the sum of a transaction's line item amounts.
func lineItemSum(t *testing.T, s *store.Store, transactionID int64) decimal.Decimal {
	t.Helper()
	items, err := s.LineItems(transactionID)
	if err != nil {
		t.Fatalf("loading line items: %v", err)
	}
	sum := decimal.Zero
	for _, li := range items {
		sum = sum.Add(li.Amount)
	}
	return sum
}

// blockedGuard always vetoes with the given reason.
type blockedGuard struct{ reason string }

func (g blockedGuard) CheckWrite() string { return g.reason }
