package store

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"tally/internal/model"
)

// InsertAccount persists a new account and fills in its key.
func (t *WriteTx) InsertAccount(a *model.Account) error {
	res, err := t.tx.Exec(
		"INSERT INTO accounts (name, path_name, kind, parent_id) VALUES (?, ?, ?, ?)",
		a.Name, a.PathName, string(a.Kind), nullableID(a.ParentID))
	if err != nil {
		return err
	}
	a.ID, err = res.LastInsertId()
	return err
}

// InsertTransaction persists a new transaction and fills in its key.
func (t *WriteTx) InsertTransaction(txn *model.Transaction) error {
	if txn.ModifiedAt.IsZero() {
		txn.ModifiedAt = time.Now().UTC()
	}
	res, err := t.tx.Exec(
		"INSERT INTO transactions (date, title, note, cleared, voided, modified_at) VALUES (?, ?, ?, ?, ?, ?)",
		txn.Date.Unix(), txn.Title, txn.Note, boolInt(txn.Cleared), boolInt(txn.Voided), txn.ModifiedAt.Unix())
	if err != nil {
		return err
	}
	txn.ID, err = res.LastInsertId()
	return err
}

// InsertLineItem persists a new line item and fills in its key.
func (t *WriteTx) InsertLineItem(li *model.LineItem) error {
	res, err := t.tx.Exec(
		`INSERT INTO line_items (transaction_id, account_id, amount, memo, running_balance, statement_id, cleared)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		li.TransactionID, nullableID(li.AccountID), li.Amount, li.Memo,
		li.RunningBalance, nullableID(li.StatementID), boolInt(li.Cleared))
	if err != nil {
		return err
	}
	li.ID, err = res.LastInsertId()
	return err
}

// InsertStatement persists a new statement and fills in its key.
func (t *WriteTx) InsertStatement(st *model.Statement) error {
	res, err := t.tx.Exec(
		`INSERT INTO statements (account_id, start_date, end_date, beginning_balance, ending_balance)
		 VALUES (?, ?, ?, ?, ?)`,
		st.AccountID, st.Start.Unix(), st.End.Unix(), st.BeginningBalance, st.EndingBalance)
	if err != nil {
		return err
	}
	st.ID, err = res.LastInsertId()
	return err
}

// InsertTemplate persists a new template and fills in its key.
func (t *WriteTx) InsertTemplate(tpl *model.Template) error {
	res, err := t.tx.Exec("INSERT INTO templates (name) VALUES (?)", tpl.Name)
	if err != nil {
		return err
	}
	tpl.ID, err = res.LastInsertId()
	return err
}

// InsertTemplateLineItem persists a new template line item and fills in its key.
func (t *WriteTx) InsertTemplateLineItem(tli *model.TemplateLineItem) error {
	res, err := t.tx.Exec(
		"INSERT INTO template_line_items (template_id, account_id, amount, memo) VALUES (?, ?, ?, ?)",
		tli.TemplateID, nullableID(tli.AccountID), tli.Amount, tli.Memo)
	if err != nil {
		return err
	}
	tli.ID, err = res.LastInsertId()
	return err
}

// InsertImportRule persists a new import rule and fills in its key.
func (t *WriteTx) InsertImportRule(r *model.ImportRule) error {
	res, err := t.tx.Exec(
		"INSERT INTO import_rules (pattern, template_id) VALUES (?, ?)", r.Pattern, r.TemplateID)
	if err != nil {
		return err
	}
	r.ID, err = res.LastInsertId()
	return err
}

// SetLineItemAccount reassigns a line item to an account.
func (t *WriteTx) SetLineItemAccount(id, accountID int64) error {
	_, err := t.tx.Exec("UPDATE line_items SET account_id = ? WHERE id = ?", accountID, id)
	return err
}

// SetLineItemAmount updates a line item's signed amount.
func (t *WriteTx) SetLineItemAmount(id int64, amount decimal.Decimal) error {
	_, err := t.tx.Exec("UPDATE line_items SET amount = ? WHERE id = ?", amount, id)
	return err
}

// SetLineItemRunningBalance updates the derived running-balance cache.
func (t *WriteTx) SetLineItemRunningBalance(id int64, balance decimal.Decimal) error {
	_, err := t.tx.Exec("UPDATE line_items SET running_balance = ? WHERE id = ?", balance, id)
	return err
}

// SetLineItemStatement assigns or clears a line item's statement binding
// together with its cleared flag.
func (t *WriteTx) SetLineItemStatement(id int64, statementID *int64, cleared bool) error {
	_, err := t.tx.Exec("UPDATE line_items SET statement_id = ?, cleared = ? WHERE id = ?",
		nullableID(statementID), boolInt(cleared), id)
	return err
}

// DeleteLineItem removes a line item.
func (t *WriteTx) DeleteLineItem(id int64) error {
	_, err := t.tx.Exec("DELETE FROM line_items WHERE id = ?", id)
	return err
}

// DeleteStatement removes a statement record. Callers unreconcile its line
// items first.
func (t *WriteTx) DeleteStatement(id int64) error {
	_, err := t.tx.Exec("DELETE FROM statements WHERE id = ?", id)
	return err
}

// TouchTransaction bumps a transaction's modification marker.
func (t *WriteTx) TouchTransaction(id int64, at time.Time) error {
	_, err := t.tx.Exec("UPDATE transactions SET modified_at = ? WHERE id = ?", at.Unix(), id)
	return err
}

// Leg is one side of a transaction to be created.
type Leg struct {
	AccountID *int64
	Amount    decimal.Decimal
	Memo      string
}

// CreateTransaction inserts a transaction with its legs. The legs must sum
// to zero.
func (t *WriteTx) CreateTransaction(date time.Time, title string, legs []Leg) (*model.Transaction, error) {
	sum := decimal.Zero
	for _, leg := range legs {
		sum = sum.Add(leg.Amount)
	}
	if !sum.IsZero() {
		return nil, fmt.Errorf("legs sum to %s, want 0", sum)
	}

	txn := &model.Transaction{Date: date, Title: title}
	if err := t.InsertTransaction(txn); err != nil {
		return nil, err
	}
	for _, leg := range legs {
		li := &model.LineItem{
			TransactionID: txn.ID,
			AccountID:     leg.AccountID,
			Amount:        leg.Amount,
			Memo:          leg.Memo,
		}
		if err := t.InsertLineItem(li); err != nil {
			return nil, err
		}
	}
	return txn, nil
}

func nullableID(id *int64) any {
	if id == nil {
		return nil
	}
	return *id
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
