package store

const schemaSQL = `
CREATE TABLE IF NOT EXISTS accounts (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    name        TEXT NOT NULL,
    path_name   TEXT NOT NULL,
    kind        TEXT NOT NULL,
    parent_id   INTEGER REFERENCES accounts(id)
);

CREATE TABLE IF NOT EXISTS transactions (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    date        INTEGER NOT NULL,
    title       TEXT NOT NULL,
    note        TEXT NOT NULL DEFAULT '',
    cleared     INTEGER NOT NULL DEFAULT 0,
    voided      INTEGER NOT NULL DEFAULT 0,
    modified_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS statements (
    id                INTEGER PRIMARY KEY AUTOINCREMENT,
    account_id        INTEGER NOT NULL REFERENCES accounts(id),
    start_date        INTEGER NOT NULL,
    end_date          INTEGER NOT NULL,
    beginning_balance TEXT NOT NULL,
    ending_balance    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS line_items (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    transaction_id  INTEGER NOT NULL REFERENCES transactions(id) ON DELETE CASCADE,
    account_id      INTEGER REFERENCES accounts(id),
    amount          TEXT NOT NULL,
    memo            TEXT NOT NULL DEFAULT '',
    running_balance TEXT NOT NULL DEFAULT '0',
    statement_id    INTEGER REFERENCES statements(id),
    cleared         INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS templates (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    name        TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS template_line_items (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    template_id INTEGER NOT NULL REFERENCES templates(id) ON DELETE CASCADE,
    account_id  INTEGER REFERENCES accounts(id),
    amount      TEXT NOT NULL DEFAULT '0',
    memo        TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS import_rules (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    pattern     TEXT NOT NULL,
    template_id INTEGER NOT NULL REFERENCES templates(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_line_items_txn ON line_items(transaction_id);
CREATE INDEX IF NOT EXISTS idx_line_items_account ON line_items(account_id);
CREATE INDEX IF NOT EXISTS idx_line_items_statement ON line_items(statement_id);
CREATE INDEX IF NOT EXISTS idx_transactions_date ON transactions(date);
CREATE INDEX IF NOT EXISTS idx_statements_account ON statements(account_id);
`
