package engine

import (
	"fmt"

	"github.com/shopspring/decimal"

	"tally/internal/store"
)

// Recalculate rebuilds the running-balance cache for an account: every line
// item, ordered by transaction date with the line item key as the intra-day
// tie-break, receives the cumulative sum of amounts up to and including
// itself. All updates commit in one transaction. An account with no line
// items is a no-op, and re-running with no intervening mutation changes
// nothing, so a recalculation lost between a triggering write and its
// follow-up is repaired by any later call.
func (e *Engine) Recalculate(accountID int64) error {
	if err := e.checkWrite(); err != nil {
		return err
	}
	return e.recalculate(accountID)
}

// recalculate is the guard-free body, shared with mutations that already
// passed the guard.
func (e *Engine) recalculate(accountID int64) error {
	return e.store.RunWrite(func(tx *store.WriteTx) error {
		items, err := tx.AccountLineItems(accountID)
		if err != nil {
			return fmt.Errorf("loading line items for account %d: %w", accountID, err)
		}

		running := decimal.Zero
		for _, li := range items {
			running = running.Add(li.Amount)
			if li.RunningBalance.Equal(running) {
				continue
			}
			if err := tx.SetLineItemRunningBalance(li.ID, running); err != nil {
				return fmt.Errorf("updating running balance for line item %d: %w", li.ID, err)
			}
		}
		return nil
	})
}

// recalculateAll recalculates a set of affected accounts, each in its own
// transaction, after a mutation that changed line-item membership. Balances
// are stale, not wrong, if a recalculation is lost here.
func (e *Engine) recalculateAll(accountIDs map[int64]struct{}) error {
	for id := range accountIDs {
		if err := e.recalculate(id); err != nil {
			return err
		}
	}
	return nil
}
