package store

import (
	"database/sql"
	"errors"
	"time"

	"tally/internal/model"
)

// Typed read methods. Fetch-by-key returns (nil, nil) when no record exists;
// callers decide whether absence is an error.

func (s *Store) Account(id int64) (*model.Account, error)       { return fetchAccount(s.db, id) }
func (t *WriteTx) Account(id int64) (*model.Account, error)     { return fetchAccount(t.tx, id) }
func (s *Store) AccountByName(n string) (*model.Account, error) { return accountByName(s.db, n) }

// Accounts returns all accounts ordered by path name.
func (s *Store) Accounts() ([]model.Account, error) { return listAccounts(s.db) }

func (s *Store) Transaction(id int64) (*model.Transaction, error) {
	return fetchTransaction(s.db, id)
}

func (t *WriteTx) Transaction(id int64) (*model.Transaction, error) {
	return fetchTransaction(t.tx, id)
}

// SearchTransactions returns transactions whose title contains substr
// (case-insensitive), most recent first. A limit of 0 means no limit.
func (s *Store) SearchTransactions(substr string, limit int) ([]model.Transaction, error) {
	return searchTransactions(s.db, substr, limit)
}

func (t *WriteTx) SearchTransactions(substr string, limit int) ([]model.Transaction, error) {
	return searchTransactions(t.tx, substr, limit)
}

func (s *Store) LineItem(id int64) (*model.LineItem, error)   { return fetchLineItem(s.db, id) }
func (t *WriteTx) LineItem(id int64) (*model.LineItem, error) { return fetchLineItem(t.tx, id) }

// LineItems returns a transaction's line items in insertion order.
func (s *Store) LineItems(transactionID int64) ([]model.LineItem, error) {
	return listLineItems(s.db, "transaction_id", transactionID)
}

func (t *WriteTx) LineItems(transactionID int64) ([]model.LineItem, error) {
	return listLineItems(t.tx, "transaction_id", transactionID)
}

// AccountLineItems returns an account's line items ordered by transaction
// date ascending, then by line item key as the stable intra-day tie-break.
// This is the running-balance order.
func (s *Store) AccountLineItems(accountID int64) ([]model.LineItem, error) {
	return accountLineItems(s.db, accountID)
}

func (t *WriteTx) AccountLineItems(accountID int64) ([]model.LineItem, error) {
	return accountLineItems(t.tx, accountID)
}

// StatementLineItems returns the line items reconciled against a statement.
func (s *Store) StatementLineItems(statementID int64) ([]model.LineItem, error) {
	return listLineItems(s.db, "statement_id", statementID)
}

func (t *WriteTx) StatementLineItems(statementID int64) ([]model.LineItem, error) {
	return listLineItems(t.tx, "statement_id", statementID)
}

func (s *Store) Statement(id int64) (*model.Statement, error)   { return fetchStatement(s.db, id) }
func (t *WriteTx) Statement(id int64) (*model.Statement, error) { return fetchStatement(t.tx, id) }

// AccountStatements returns an account's statements ordered by start date.
func (s *Store) AccountStatements(accountID int64) ([]model.Statement, error) {
	return accountStatements(s.db, accountID)
}

func (t *WriteTx) AccountStatements(accountID int64) ([]model.Statement, error) {
	return accountStatements(t.tx, accountID)
}

func (s *Store) ImportRules() ([]model.ImportRule, error) { return listImportRules(s.db) }

func (s *Store) TemplateLineItems(templateID int64) ([]model.TemplateLineItem, error) {
	return listTemplateLineItems(s.db, templateID)
}

const accountCols = "id, name, path_name, kind, parent_id"

func scanAccount(row interface{ Scan(...any) error }) (*model.Account, error) {
	var a model.Account
	var parent sql.NullInt64
	if err := row.Scan(&a.ID, &a.Name, &a.PathName, (*string)(&a.Kind), &parent); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if parent.Valid {
		a.ParentID = &parent.Int64
	}
	return &a, nil
}

func fetchAccount(q dbtx, id int64) (*model.Account, error) {
	return scanAccount(q.QueryRow("SELECT "+accountCols+" FROM accounts WHERE id = ?", id))
}

func accountByName(q dbtx, name string) (*model.Account, error) {
	return scanAccount(q.QueryRow(
		"SELECT "+accountCols+" FROM accounts WHERE name = ? OR path_name = ? LIMIT 1", name, name))
}

func listAccounts(q dbtx) ([]model.Account, error) {
	rows, err := q.Query("SELECT " + accountCols + " FROM accounts ORDER BY path_name")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var accounts []model.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *a)
	}
	return accounts, rows.Err()
}

const transactionCols = "id, date, title, note, cleared, voided, modified_at"

func scanTransaction(row interface{ Scan(...any) error }) (*model.Transaction, error) {
	var t model.Transaction
	var date, modified int64
	var cleared, voided int
	if err := row.Scan(&t.ID, &date, &t.Title, &t.Note, &cleared, &voided, &modified); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	t.Date = time.Unix(date, 0).UTC()
	t.ModifiedAt = time.Unix(modified, 0).UTC()
	t.Cleared = cleared != 0
	t.Voided = voided != 0
	return &t, nil
}

func fetchTransaction(q dbtx, id int64) (*model.Transaction, error) {
	return scanTransaction(q.QueryRow("SELECT "+transactionCols+" FROM transactions WHERE id = ?", id))
}

func searchTransactions(q dbtx, substr string, limit int) ([]model.Transaction, error) {
	query := "SELECT " + transactionCols + " FROM transactions"
	var args []any
	if substr != "" {
		query += " WHERE instr(lower(title), lower(?)) > 0"
		args = append(args, substr)
	}
	query += " ORDER BY date DESC, id DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var txns []model.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txns = append(txns, *t)
	}
	return txns, rows.Err()
}

const lineItemCols = "id, transaction_id, account_id, amount, memo, running_balance, statement_id, cleared"

func scanLineItem(row interface{ Scan(...any) error }) (*model.LineItem, error) {
	var li model.LineItem
	var account, statement sql.NullInt64
	var cleared int
	err := row.Scan(&li.ID, &li.TransactionID, &account, &li.Amount, &li.Memo,
		&li.RunningBalance, &statement, &cleared)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if account.Valid {
		li.AccountID = &account.Int64
	}
	if statement.Valid {
		li.StatementID = &statement.Int64
	}
	li.Cleared = cleared != 0
	return &li, nil
}

func fetchLineItem(q dbtx, id int64) (*model.LineItem, error) {
	return scanLineItem(q.QueryRow("SELECT "+lineItemCols+" FROM line_items WHERE id = ?", id))
}

func listLineItems(q dbtx, col string, id int64) ([]model.LineItem, error) {
	rows, err := q.Query("SELECT "+lineItemCols+" FROM line_items WHERE "+col+" = ? ORDER BY id", id)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	return collectLineItems(rows)
}

func accountLineItems(q dbtx, accountID int64) ([]model.LineItem, error) {
	rows, err := q.Query(`SELECT li.id, li.transaction_id, li.account_id, li.amount, li.memo,
			li.running_balance, li.statement_id, li.cleared
		FROM line_items li
		JOIN transactions t ON t.id = li.transaction_id
		WHERE li.account_id = ?
		ORDER BY t.date, li.id`, accountID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	return collectLineItems(rows)
}

func collectLineItems(rows *sql.Rows) ([]model.LineItem, error) {
	var items []model.LineItem
	for rows.Next() {
		li, err := scanLineItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *li)
	}
	return items, rows.Err()
}

const statementCols = "id, account_id, start_date, end_date, beginning_balance, ending_balance"

func scanStatement(row interface{ Scan(...any) error }) (*model.Statement, error) {
	var st model.Statement
	var start, end int64
	err := row.Scan(&st.ID, &st.AccountID, &start, &end, &st.BeginningBalance, &st.EndingBalance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	st.Start = time.Unix(start, 0).UTC()
	st.End = time.Unix(end, 0).UTC()
	return &st, nil
}

func fetchStatement(q dbtx, id int64) (*model.Statement, error) {
	return scanStatement(q.QueryRow("SELECT "+statementCols+" FROM statements WHERE id = ?", id))
}

func accountStatements(q dbtx, accountID int64) ([]model.Statement, error) {
	rows, err := q.Query("SELECT "+statementCols+" FROM statements WHERE account_id = ? ORDER BY start_date", accountID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var stmts []model.Statement
	for rows.Next() {
		st, err := scanStatement(rows)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, *st)
	}
	return stmts, rows.Err()
}

func listImportRules(q dbtx) ([]model.ImportRule, error) {
	rows, err := q.Query("SELECT id, pattern, template_id FROM import_rules ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var rules []model.ImportRule
	for rows.Next() {
		var r model.ImportRule
		if err := rows.Scan(&r.ID, &r.Pattern, &r.TemplateID); err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	return rules, rows.Err()
}

func listTemplateLineItems(q dbtx, templateID int64) ([]model.TemplateLineItem, error) {
	rows, err := q.Query(
		"SELECT id, template_id, account_id, amount, memo FROM template_line_items WHERE template_id = ? ORDER BY id",
		templateID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []model.TemplateLineItem
	for rows.Next() {
		var tli model.TemplateLineItem
		var account sql.NullInt64
		if err := rows.Scan(&tli.ID, &tli.TemplateID, &account, &tli.Amount, &tli.Memo); err != nil {
			return nil, err
		}
		if account.Valid {
			tli.AccountID = &account.Int64
		}
		items = append(items, tli)
	}
	return items, rows.Err()
}
