package engine

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"tally/internal/model"
	"tally/internal/store"
)

// StatementParams describes a statement to create.
type StatementParams struct {
	AccountID        int64
	Start            time.Time // inclusive
	End              time.Time // inclusive
	BeginningBalance decimal.Decimal
	EndingBalance    decimal.Decimal
}

// CreateStatement validates and persists a statement for a real account.
// Validation runs inside the write transaction so a concurrent writer
// cannot slip an overlapping statement past the checks:
//
//   - the end date must follow the start date;
//   - the period must not overlap any existing statement for the account;
//   - the beginning balance must continue the latest prior statement's
//     ending balance to within half a cent (the account's first statement
//     is exempt).
func (e *Engine) CreateStatement(p StatementParams) (model.Statement, error) {
	if err := e.checkWrite(); err != nil {
		return model.Statement{}, err
	}

	st := model.Statement{
		AccountID:        p.AccountID,
		Start:            p.Start,
		End:              p.End,
		BeginningBalance: p.BeginningBalance,
		EndingBalance:    p.EndingBalance,
	}
	err := e.store.RunWrite(func(tx *store.WriteTx) error {
		acct, err := tx.Account(p.AccountID)
		if err != nil {
			return err
		}
		if acct == nil {
			return fmt.Errorf("%w: account %d", ErrNotFound, p.AccountID)
		}
		if acct.Kind.IsCategory() {
			return fmt.Errorf("%w: cannot reconcile category account %q", ErrInvalidInput, acct.Name)
		}
		if !p.End.After(p.Start) {
			return fmt.Errorf("%w: statement end %s must follow start %s",
				ErrInvalidInput, p.End.Format("2006-01-02"), p.Start.Format("2006-01-02"))
		}

		existing, err := tx.AccountStatements(p.AccountID)
		if err != nil {
			return err
		}

		var prior *model.Statement
		for i := range existing {
			ex := existing[i]
			if ex.Start.Before(p.End) && ex.End.After(p.Start) {
				return fmt.Errorf("%w: period overlaps statement %s to %s",
					ErrInvalidInput, ex.Start.Format("2006-01-02"), ex.End.Format("2006-01-02"))
			}
			if ex.End.Before(p.Start) && (prior == nil || ex.End.After(prior.End)) {
				prior = &existing[i]
			}
		}
		if prior != nil {
			gap := prior.EndingBalance.Sub(p.BeginningBalance).Abs()
			if gap.GreaterThanOrEqual(balanceEpsilon) {
				return fmt.Errorf("%w: beginning balance %s does not continue prior statement's ending balance %s",
					ErrInvalidInput, p.BeginningBalance, prior.EndingBalance)
			}
		}

		return tx.InsertStatement(&st)
	})
	if err != nil {
		return model.Statement{}, err
	}
	return st, nil
}

// ReconcileLineItems assigns line items to a statement and marks them
// cleared. The call is all-or-nothing: any invalid id aborts the whole
// assignment. A line item already bound to this statement is a no-op;
// bound to a different statement is an error.
func (e *Engine) ReconcileLineItems(statementID int64, lineItemIDs []int64) error {
	if err := e.checkWrite(); err != nil {
		return err
	}

	return e.store.RunWrite(func(tx *store.WriteTx) error {
		st, err := tx.Statement(statementID)
		if err != nil {
			return err
		}
		if st == nil {
			return fmt.Errorf("%w: statement %d", ErrNotFound, statementID)
		}

		for _, id := range lineItemIDs {
			li, err := tx.LineItem(id)
			if err != nil {
				return err
			}
			if li == nil {
				return fmt.Errorf("%w: line item %d", ErrNotFound, id)
			}
			if li.AccountID == nil || *li.AccountID != st.AccountID {
				return fmt.Errorf("%w: line item %d does not belong to the statement's account", ErrInvalidInput, id)
			}
			txn, err := tx.Transaction(li.TransactionID)
			if err != nil {
				return err
			}
			if txn.Date.Before(st.Start) || txn.Date.After(st.End) {
				return fmt.Errorf("%w: line item %d dated %s is outside the statement period",
					ErrInvalidInput, id, txn.Date.Format("2006-01-02"))
			}
			if li.StatementID != nil {
				if *li.StatementID == st.ID {
					continue // already reconciled here
				}
				return fmt.Errorf("%w: line item %d is already reconciled against statement %d",
					ErrInvalidInput, id, *li.StatementID)
			}
			if err := tx.SetLineItemStatement(id, &st.ID, true); err != nil {
				return err
			}
		}
		return nil
	})
}

// UnreconcileLineItems releases line items from a statement and clears
// their cleared flag. An unassigned line item is a no-op; one bound to a
// different statement is an error.
func (e *Engine) UnreconcileLineItems(statementID int64, lineItemIDs []int64) error {
	if err := e.checkWrite(); err != nil {
		return err
	}

	return e.store.RunWrite(func(tx *store.WriteTx) error {
		st, err := tx.Statement(statementID)
		if err != nil {
			return err
		}
		if st == nil {
			return fmt.Errorf("%w: statement %d", ErrNotFound, statementID)
		}

		for _, id := range lineItemIDs {
			li, err := tx.LineItem(id)
			if err != nil {
				return err
			}
			if li == nil {
				return fmt.Errorf("%w: line item %d", ErrNotFound, id)
			}
			if li.StatementID == nil {
				continue
			}
			if *li.StatementID != st.ID {
				return fmt.Errorf("%w: line item %d belongs to statement %d",
					ErrInvalidInput, id, *li.StatementID)
			}
			if err := tx.SetLineItemStatement(id, nil, false); err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteStatement removes a statement, first releasing every line item it
// owns. Returns false, without error, if the statement does not exist.
func (e *Engine) DeleteStatement(statementID int64) (bool, error) {
	if err := e.checkWrite(); err != nil {
		return false, err
	}

	deleted := false
	err := e.store.RunWrite(func(tx *store.WriteTx) error {
		st, err := tx.Statement(statementID)
		if err != nil {
			return err
		}
		if st == nil {
			return nil
		}

		items, err := tx.StatementLineItems(st.ID)
		if err != nil {
			return err
		}
		for _, li := range items {
			if err := tx.SetLineItemStatement(li.ID, nil, false); err != nil {
				return err
			}
		}
		if err := tx.DeleteStatement(st.ID); err != nil {
			return err
		}
		deleted = true
		return nil
	})
	return deleted, err
}

// StatementStatus is the derived reconciliation state of a statement,
// computed on read and never stored.
type StatementStatus struct {
	ReconciledBalance decimal.Decimal
	Difference        decimal.Decimal // expected change minus reconciled balance
	Balanced          bool
	ItemCount         int
}

// State names the statement lifecycle stage.
func (s StatementStatus) State() string {
	switch {
	case s.ItemCount == 0:
		return "pending"
	case s.Balanced:
		return "balanced"
	default:
		return "partial"
	}
}

// StatementStatus derives a statement's reconciled balance, difference from
// the expected change, and whether it balances to within half a cent.
func (e *Engine) StatementStatus(st model.Statement) (StatementStatus, error) {
	items, err := e.store.StatementLineItems(st.ID)
	if err != nil {
		return StatementStatus{}, err
	}

	reconciled := decimal.Zero
	for _, li := range items {
		reconciled = reconciled.Add(li.Amount)
	}
	diff := st.ExpectedChange().Sub(reconciled)
	return StatementStatus{
		ReconciledBalance: reconciled,
		Difference:        diff,
		Balanced:          diff.Abs().LessThan(balanceEpsilon),
		ItemCount:         len(items),
	}, nil
}
