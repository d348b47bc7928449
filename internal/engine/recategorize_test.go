package engine

import (
	"errors"
	"testing"
)

func TestRecategorize_ReassignsExistingCategoryLeg(t *testing.T) {
	e, s := newTestEngine(t)
	checking := seedAccount(t, s, "Checking", "checking")
	groceries := seedAccount(t, s, "Groceries", "expense")
	dining := seedAccount(t, s, "Dining", "expense")

	txn := seedTransaction(t, s, "2025-01-10", "Corner Bistro",
		testLeg{checking, "-50"}, testLeg{groceries, "50"})

	res, err := e.Recategorize(txn.ID, dining.ID)
	if err != nil {
		t.Fatalf("Recategorize: %v", err)
	}

	if res.OldCategory != "Groceries" {
		t.Errorf("OldCategory = %q, want Groceries", res.OldCategory)
	}
	if res.NewCategory != "Dining" {
		t.Errorf("NewCategory = %q, want Dining", res.NewCategory)
	}

	items, err := s.LineItems(txn.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 {
		t.Fatalf("line item count = %d, want 2", len(items))
	}
	var foundDining bool
	for _, li := range items {
		if li.AccountID != nil && *li.AccountID == dining.ID {
			foundDining = true
			if !li.Amount.Equal(amt(t, "50")) {
				t.Errorf("category leg amount = %s, want 50", li.Amount)
			}
		}
	}
	if !foundDining {
		t.Error("no line item points at Dining after recategorize")
	}
	if sum := lineItemSum(t, s, txn.ID); !sum.IsZero() {
		t.Errorf("line item sum = %s, want 0", sum)
	}
}

func TestRecategorize_ReusesOrphanSlot(t *testing.T) {
	e, s := newTestEngine(t)
	checking := seedAccount(t, s, "Checking", "checking")
	utilities := seedAccount(t, s, "Utilities", "expense")

	txn := seedTransaction(t, s, "2025-01-15", "City Power",
		testLeg{nil, "0"}, testLeg{checking, "-30"})

	res, err := e.Recategorize(txn.ID, utilities.ID)
	if err != nil {
		t.Fatalf("Recategorize: %v", err)
	}
	if res.OldCategory != "" {
		t.Errorf("OldCategory = %q, want empty", res.OldCategory)
	}

	items, err := s.LineItems(txn.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 {
		t.Fatalf("line item count = %d, want 2 (orphan slot reused, not appended)", len(items))
	}
	var repaired bool
	for _, li := range items {
		if li.AccountID != nil && *li.AccountID == utilities.ID {
			repaired = true
			if !li.Amount.Equal(amt(t, "30")) {
				t.Errorf("reused slot amount = %s, want 30", li.Amount)
			}
		}
	}
	if !repaired {
		t.Error("orphan slot was not reassigned to Utilities")
	}
	if sum := lineItemSum(t, s, txn.ID); !sum.IsZero() {
		t.Errorf("line item sum = %s, want 0", sum)
	}
}

func TestRecategorize_AppendsLegForSingleLegTransaction(t *testing.T) {
	e, s := newTestEngine(t)
	checking := seedAccount(t, s, "Checking", "checking")
	entertainment := seedAccount(t, s, "Entertainment", "expense")

	txn := seedTransaction(t, s, "2025-02-01", "Cinema",
		testLeg{checking, "-20"})

	if _, err := e.Recategorize(txn.ID, entertainment.ID); err != nil {
		t.Fatalf("Recategorize: %v", err)
	}

	items, err := s.LineItems(txn.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 {
		t.Fatalf("line item count = %d, want 2", len(items))
	}
	if sum := lineItemSum(t, s, txn.ID); !sum.IsZero() {
		t.Errorf("line item sum = %s, want 0", sum)
	}
}

func TestRecategorize_DeletesExtraOrphans(t *testing.T) {
	e, s := newTestEngine(t)
	checking := seedAccount(t, s, "Checking", "checking")
	groceries := seedAccount(t, s, "Groceries", "expense")
	dining := seedAccount(t, s, "Dining", "expense")

	// legacy mess: category leg plus two orphaned slots
	txn := seedTransaction(t, s, "2025-03-05", "Market",
		testLeg{checking, "-40"}, testLeg{groceries, "40"},
		testLeg{nil, "0"}, testLeg{nil, "0"})

	if _, err := e.Recategorize(txn.ID, dining.ID); err != nil {
		t.Fatalf("Recategorize: %v", err)
	}

	items, err := s.LineItems(txn.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 {
		t.Fatalf("line item count = %d, want 2 (orphans repaired away)", len(items))
	}
	for _, li := range items {
		if li.Orphaned() {
			t.Error("orphaned slot survived recategorization")
		}
	}
}

func TestRecategorize_NeverGrowsExistingCategorizedTransaction(t *testing.T) {
	e, s := newTestEngine(t)
	checking := seedAccount(t, s, "Checking", "checking")
	groceries := seedAccount(t, s, "Groceries", "expense")
	dining := seedAccount(t, s, "Dining", "expense")
	travel := seedAccount(t, s, "Travel", "expense")

	txn := seedTransaction(t, s, "2025-01-20", "Diner",
		testLeg{checking, "-15"}, testLeg{groceries, "15"})

	// repeated recategorization must not manufacture a false split
	for _, cat := range []int64{dining.ID, travel.ID, groceries.ID, dining.ID} {
		if _, err := e.Recategorize(txn.ID, cat); err != nil {
			t.Fatalf("Recategorize: %v", err)
		}
		items, err := s.LineItems(txn.ID)
		if err != nil {
			t.Fatal(err)
		}
		if len(items) != 2 {
			t.Fatalf("line item count = %d after recategorize, want 2", len(items))
		}
	}
}

func TestRecategorize_MissingRecords(t *testing.T) {
	e, s := newTestEngine(t)
	checking := seedAccount(t, s, "Checking", "checking")
	dining := seedAccount(t, s, "Dining", "expense")
	txn := seedTransaction(t, s, "2025-01-01", "Bistro", testLeg{checking, "-10"})

	if _, err := e.Recategorize(9999, dining.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing transaction: err = %v, want ErrNotFound", err)
	}
	if _, err := e.Recategorize(txn.ID, 9999); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing category: err = %v, want ErrNotFound", err)
	}
	if _, err := e.Recategorize(txn.ID, checking.ID); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("non-category target: err = %v, want ErrInvalidInput", err)
	}
}

func TestRecategorize_WriteBlocked(t *testing.T) {
	_, s := newTestEngine(t)
	e := New(s, blockedGuard{reason: "book is open in another process"}, Options{})

	_, err := e.Recategorize(1, 2)
	if !errors.Is(err, ErrWriteBlocked) {
		t.Fatalf("err = %v, want ErrWriteBlocked", err)
	}
}

func TestBulkRecategorize_DryRunMatchesLiveRun(t *testing.T) {
	e, s := newTestEngine(t)
	checking := seedAccount(t, s, "Checking", "checking")
	groceries := seedAccount(t, s, "Groceries", "expense")
	dining := seedAccount(t, s, "Dining", "expense")

	seedTransaction(t, s, "2025-01-05", "ACME Market",
		testLeg{checking, "-25"}, testLeg{groceries, "25"})
	seedTransaction(t, s, "2025-01-12", "acme market downtown",
		testLeg{checking, "-40"})
	seedTransaction(t, s, "2025-01-20", "Other Shop",
		testLeg{checking, "-10"})

	dry, err := e.BulkRecategorize("acme", dining.ID, BulkOptions{DryRun: true})
	if err != nil {
		t.Fatalf("dry run: %v", err)
	}

	// dry run performed zero writes: titles still match with old categories
	for _, r := range dry.Affected {
		items, err := s.LineItems(r.TransactionID)
		if err != nil {
			t.Fatal(err)
		}
		for _, li := range items {
			if li.AccountID != nil && *li.AccountID == dining.ID {
				t.Fatal("dry run mutated the store")
			}
		}
	}

	live, err := e.BulkRecategorize("acme", dining.ID, BulkOptions{})
	if err != nil {
		t.Fatalf("live run: %v", err)
	}

	if len(dry.Affected) != len(live.Affected) {
		t.Fatalf("dry affected %d transactions, live %d", len(dry.Affected), len(live.Affected))
	}
	for i := range dry.Affected {
		if dry.Affected[i] != live.Affected[i] {
			t.Errorf("affected[%d]: dry %+v != live %+v", i, dry.Affected[i], live.Affected[i])
		}
	}
	if live.Count != 2 {
		t.Errorf("live count = %d, want 2", live.Count)
	}
}

func TestBulkRecategorize_UncategorizedOnly(t *testing.T) {
	e, s := newTestEngine(t)
	checking := seedAccount(t, s, "Checking", "checking")
	groceries := seedAccount(t, s, "Groceries", "expense")
	dining := seedAccount(t, s, "Dining", "expense")

	seedTransaction(t, s, "2025-01-05", "Acme One",
		testLeg{checking, "-25"}, testLeg{groceries, "25"})
	uncat := seedTransaction(t, s, "2025-01-12", "Acme Two",
		testLeg{checking, "-40"})

	result, err := e.BulkRecategorize("Acme", dining.ID, BulkOptions{UncategorizedOnly: true})
	if err != nil {
		t.Fatalf("BulkRecategorize: %v", err)
	}
	if result.Count != 1 {
		t.Fatalf("count = %d, want 1", result.Count)
	}
	if result.Affected[0].TransactionID != uncat.ID {
		t.Errorf("affected transaction = %d, want %d", result.Affected[0].TransactionID, uncat.ID)
	}
}
