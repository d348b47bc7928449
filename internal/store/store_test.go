package store

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"tally/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "book.db"))
	if err != nil {
		t.Fatalf("opening book: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func mustDecimal(t *testing.T, v string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(v)
	if err != nil {
		t.Fatalf("parse decimal %q: %v", v, err)
	}
	return d
}

func TestAccountRoundTrip(t *testing.T) {
	s := openTestStore(t)

	food := &model.Account{Name: "Food", PathName: "Food", Kind: model.KindExpense}
	err := s.RunWrite(func(tx *WriteTx) error {
		if err := tx.InsertAccount(food); err != nil {
			return err
		}
		groceries := &model.Account{
			Name: "Groceries", PathName: "Food:Groceries",
			Kind: model.KindExpense, ParentID: &food.ID,
		}
		return tx.InsertAccount(groceries)
	})
	if err != nil {
		t.Fatalf("inserting accounts: %v", err)
	}

	got, err := s.Account(food.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil {
		t.Fatal("Account returned nil for existing key")
	}
	if got.Name != "Food" || got.Kind != model.KindExpense {
		t.Errorf("got %+v, want Food/expense", got)
	}

	child, err := s.AccountByName("Food:Groceries")
	if err != nil {
		t.Fatal(err)
	}
	if child == nil || child.ParentID == nil || *child.ParentID != food.ID {
		t.Errorf("child = %+v, want parent %d", child, food.ID)
	}

	missing, err := s.Account(9999)
	if err != nil {
		t.Fatal(err)
	}
	if missing != nil {
		t.Errorf("missing key returned %+v, want nil", missing)
	}
}

func TestSearchTransactionsIsCaseInsensitiveAndOrdered(t *testing.T) {
	s := openTestStore(t)

	dates := map[string]string{
		"ACME Store":    "2025-01-10",
		"acme online":   "2025-02-10",
		"Unrelated":     "2025-03-01",
		"Acme Downtown": "2025-01-20",
	}
	err := s.RunWrite(func(tx *WriteTx) error {
		for title, d := range dates {
			date, _ := time.ParseInLocation("2006-01-02", d, time.UTC)
			if err := tx.InsertTransaction(&model.Transaction{Date: date, Title: title}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	txns, err := s.SearchTransactions("aCmE", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(txns) != 3 {
		t.Fatalf("match count = %d, want 3", len(txns))
	}
	if txns[0].Title != "acme online" {
		t.Errorf("first match = %q, want most recent (acme online)", txns[0].Title)
	}

	limited, err := s.SearchTransactions("acme", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 2 {
		t.Errorf("limited match count = %d, want 2", len(limited))
	}
}

func TestAccountLineItemsOrder(t *testing.T) {
	s := openTestStore(t)

	acct := &model.Account{Name: "Checking", PathName: "Checking", Kind: model.KindChecking}
	err := s.RunWrite(func(tx *WriteTx) error {
		if err := tx.InsertAccount(acct); err != nil {
			return err
		}
		// insert later date first; the query must return date order
		for _, d := range []string{"2025-02-01", "2025-01-01", "2025-01-01"} {
			date, _ := time.ParseInLocation("2006-01-02", d, time.UTC)
			txn := &model.Transaction{Date: date, Title: d}
			if err := tx.InsertTransaction(txn); err != nil {
				return err
			}
			li := &model.LineItem{TransactionID: txn.ID, AccountID: &acct.ID, Amount: mustDecimal(t, "1")}
			if err := tx.InsertLineItem(li); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	items, err := s.AccountLineItems(acct.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 3 {
		t.Fatalf("item count = %d, want 3", len(items))
	}
	// the two January items precede February, ordered by key within the day
	if items[0].ID >= items[1].ID {
		t.Errorf("intra-day order not stable: ids %d, %d", items[0].ID, items[1].ID)
	}
	txn, err := s.Transaction(items[2].TransactionID)
	if err != nil {
		t.Fatal(err)
	}
	if txn.Title != "2025-02-01" {
		t.Errorf("last item's transaction = %q, want the February one", txn.Title)
	}
}

func TestRunWriteRollsBackOnError(t *testing.T) {
	s := openTestStore(t)

	boom := s.RunWrite(func(tx *WriteTx) error {
		if err := tx.InsertAccount(&model.Account{Name: "Ghost", PathName: "Ghost", Kind: model.KindCash}); err != nil {
			return err
		}
		return errTest
	})
	if boom != errTest {
		t.Fatalf("RunWrite error = %v, want errTest", boom)
	}

	acct, err := s.AccountByName("Ghost")
	if err != nil {
		t.Fatal(err)
	}
	if acct != nil {
		t.Error("rolled-back insert is visible to readers")
	}
}

func TestCreateTransactionRejectsUnbalancedLegs(t *testing.T) {
	s := openTestStore(t)

	acct := &model.Account{Name: "Checking", PathName: "Checking", Kind: model.KindChecking}
	if err := s.RunWrite(func(tx *WriteTx) error { return tx.InsertAccount(acct) }); err != nil {
		t.Fatal(err)
	}

	err := s.RunWrite(func(tx *WriteTx) error {
		_, err := tx.CreateTransaction(time.Now().UTC(), "Broken", []Leg{
			{AccountID: &acct.ID, Amount: mustDecimal(t, "-10")},
			{Amount: mustDecimal(t, "9")},
		})
		return err
	})
	if err == nil {
		t.Fatal("unbalanced legs accepted")
	}
}

func TestDecimalAmountsSurviveRoundTrip(t *testing.T) {
	s := openTestStore(t)

	acct := &model.Account{Name: "Checking", PathName: "Checking", Kind: model.KindChecking}
	li := &model.LineItem{Amount: mustDecimal(t, "-1234.56")}
	err := s.RunWrite(func(tx *WriteTx) error {
		if err := tx.InsertAccount(acct); err != nil {
			return err
		}
		txn := &model.Transaction{Date: time.Now().UTC(), Title: "Precision"}
		if err := tx.InsertTransaction(txn); err != nil {
			return err
		}
		li.TransactionID = txn.ID
		li.AccountID = &acct.ID
		return tx.InsertLineItem(li)
	})
	if err != nil {
		t.Fatal(err)
	}

	got, err := s.LineItem(li.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Amount.Equal(mustDecimal(t, "-1234.56")) {
		t.Errorf("amount = %s, want -1234.56 exactly", got.Amount)
	}
}

var errTest = errors.New("test failure")
