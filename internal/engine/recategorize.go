package engine

import (
	"fmt"
	"time"

	"tally/internal/model"
	"tally/internal/store"
)

// RecategorizeResult reports one transaction's category change.
type RecategorizeResult struct {
	TransactionID int64
	Title         string
	OldCategory   string // empty if the transaction had no category
	NewCategory   string
}

// split partitions a transaction's line items by role.
type split struct {
	category     *model.LineItem // first line item on a category account
	categoryAcct *model.Account
	primary      *model.LineItem // first line item on a real account
	orphans      []model.LineItem
}

// partitionLineItems classifies a transaction's line items. Orphaned slots
// are collected for repair; only the first category and primary line item
// matter to the recategorization rules.
func partitionLineItems(r reader, transactionID int64) (split, error) {
	items, err := r.LineItems(transactionID)
	if err != nil {
		return split{}, err
	}

	var sp split
	for i := range items {
		li := items[i]
		if li.Orphaned() {
			sp.orphans = append(sp.orphans, li)
			continue
		}
		acct, err := r.Account(*li.AccountID)
		if err != nil {
			return split{}, err
		}
		if acct == nil {
			// account row missing entirely; treat the slot as orphaned
			sp.orphans = append(sp.orphans, li)
			continue
		}
		if acct.Kind.IsCategory() {
			if sp.category == nil {
				sp.category = &items[i]
				sp.categoryAcct = acct
			}
			continue
		}
		if sp.primary == nil {
			sp.primary = &items[i]
		}
	}
	return sp, nil
}

// resultFromSplit computes the result DTO for a recategorization without
// mutating anything. Live and dry runs share it so they cannot drift.
func resultFromSplit(txn model.Transaction, sp split, cat model.Account) RecategorizeResult {
	res := RecategorizeResult{
		TransactionID: txn.ID,
		Title:         txn.Title,
		NewCategory:   cat.Name,
	}
	if sp.categoryAcct != nil {
		res.OldCategory = sp.categoryAcct.Name
	}
	return res
}

// Recategorize moves a transaction to a new category while preserving the
// double-entry structure and repairing orphaned slots it finds:
//
//   - an existing category line item is reassigned in place, and every
//     orphaned slot is deleted;
//   - else the first orphaned slot is reused as the category leg (its amount
//     set to balance the primary leg) and the remaining orphans deleted;
//   - else a new balancing line item is appended.
//
// Reusing slots keeps repeated recategorization from growing the line-item
// set and manufacturing false split transactions. The affected category
// accounts' running balances are recalculated afterwards, in separate
// transactions.
func (e *Engine) Recategorize(transactionID, categoryID int64) (RecategorizeResult, error) {
	if err := e.checkWrite(); err != nil {
		return RecategorizeResult{}, err
	}

	var res RecategorizeResult
	affected := make(map[int64]struct{})
	err := e.store.RunWrite(func(tx *store.WriteTx) error {
		txn, err := tx.Transaction(transactionID)
		if err != nil {
			return err
		}
		if txn == nil {
			return fmt.Errorf("%w: transaction %d", ErrNotFound, transactionID)
		}
		cat, err := fetchCategory(tx, categoryID)
		if err != nil {
			return err
		}
		res, err = recategorizeInTx(tx, *txn, *cat, affected)
		return err
	})
	if err != nil {
		return RecategorizeResult{}, err
	}

	if err := e.recalculateAll(affected); err != nil {
		return res, fmt.Errorf("recalculating balances: %w", err)
	}
	return res, nil
}

// recategorizeInTx applies one recategorization inside an open write
// transaction and records the accounts whose membership changed.
func recategorizeInTx(tx *store.WriteTx, txn model.Transaction, cat model.Account, affected map[int64]struct{}) (RecategorizeResult, error) {
	sp, err := partitionLineItems(tx, txn.ID)
	if err != nil {
		return RecategorizeResult{}, err
	}
	res := resultFromSplit(txn, sp, cat)

	switch {
	case sp.category != nil:
		if err := tx.SetLineItemAccount(sp.category.ID, cat.ID); err != nil {
			return res, err
		}
		affected[sp.categoryAcct.ID] = struct{}{}
		affected[cat.ID] = struct{}{}
		for _, o := range sp.orphans {
			if err := tx.DeleteLineItem(o.ID); err != nil {
				return res, err
			}
		}

	case len(sp.orphans) > 0:
		slot := sp.orphans[0]
		if err := tx.SetLineItemAccount(slot.ID, cat.ID); err != nil {
			return res, err
		}
		if sp.primary != nil && !slot.Amount.Equal(sp.primary.Amount.Neg()) {
			if err := tx.SetLineItemAmount(slot.ID, sp.primary.Amount.Neg()); err != nil {
				return res, err
			}
		}
		affected[cat.ID] = struct{}{}
		for _, o := range sp.orphans[1:] {
			if err := tx.DeleteLineItem(o.ID); err != nil {
				return res, err
			}
		}

	case sp.primary != nil:
		li := &model.LineItem{
			TransactionID: txn.ID,
			AccountID:     &cat.ID,
			Amount:        sp.primary.Amount.Neg(),
		}
		if err := tx.InsertLineItem(li); err != nil {
			return res, err
		}
		affected[cat.ID] = struct{}{}
	}

	return res, tx.TouchTransaction(txn.ID, time.Now().UTC())
}

// BulkOptions controls BulkRecategorize.
type BulkOptions struct {
	// DryRun computes the affected list without performing any write.
	DryRun bool
	// UncategorizedOnly restricts matches to transactions with no category
	// line item.
	UncategorizedOnly bool
}

// BulkResult lists the transactions a bulk recategorization touched (or
// would touch, under DryRun).
type BulkResult struct {
	Affected []RecategorizeResult
	Count    int
}

// BulkRecategorize recategorizes every transaction whose title contains
// pattern (case-insensitive). A dry run yields the identical affected list
// for the same store state, with zero writes; a live run applies one write
// transaction per matched transaction, then recalculates affected accounts.
func (e *Engine) BulkRecategorize(pattern string, categoryID int64, opts BulkOptions) (BulkResult, error) {
	if !opts.DryRun {
		if err := e.checkWrite(); err != nil {
			return BulkResult{}, err
		}
	}

	cat, err := fetchCategory(e.store, categoryID)
	if err != nil {
		return BulkResult{}, err
	}

	matches, err := e.store.SearchTransactions(pattern, 0)
	if err != nil {
		return BulkResult{}, fmt.Errorf("searching transactions: %w", err)
	}

	var result BulkResult
	affected := make(map[int64]struct{})
	for _, txn := range matches {
		sp, err := partitionLineItems(e.store, txn.ID)
		if err != nil {
			return result, err
		}
		if opts.UncategorizedOnly && sp.category != nil {
			continue
		}

		if opts.DryRun {
			result.Affected = append(result.Affected, resultFromSplit(txn, sp, *cat))
			continue
		}

		var res RecategorizeResult
		err = e.store.RunWrite(func(tx *store.WriteTx) error {
			res, err = recategorizeInTx(tx, txn, *cat, affected)
			return err
		})
		if err != nil {
			return result, fmt.Errorf("recategorizing transaction %d: %w", txn.ID, err)
		}
		result.Affected = append(result.Affected, res)
	}
	result.Count = len(result.Affected)

	if err := e.recalculateAll(affected); err != nil {
		return result, fmt.Errorf("recalculating balances: %w", err)
	}
	return result, nil
}
