package db

// Schema defines the SQL statements to create database tables.
const Schema = `
-- Chart of accounts
-- Hierarchy is reporting-only; balances never depend on parent_id.
CREATE TABLE IF NOT EXISTS accounts (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    code TEXT NOT NULL UNIQUE,
    name TEXT NOT NULL,
    account_type TEXT NOT NULL,            -- asset | liability | income | expense
    category TEXT NOT NULL DEFAULT 'other',
    parent_id INTEGER REFERENCES accounts(id) ON DELETE SET NULL,
    is_active INTEGER NOT NULL DEFAULT 1,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_accounts_category ON accounts(category);

-- Entity account mapping
-- Authoritative link from a business entity to its ledger account. The
-- generated display code is convenience only; this table is what prevents
-- two entities from ever sharing an account.
CREATE TABLE IF NOT EXISTS entity_accounts (
    entity_type TEXT NOT NULL,             -- client | consultant | office | manager | person
    entity_id INTEGER NOT NULL,
    role TEXT NOT NULL,                    -- receivable | payable | bookkeeping
    account_id INTEGER NOT NULL REFERENCES accounts(id) ON DELETE RESTRICT,
    PRIMARY KEY (entity_type, entity_id, role)
);

-- A group of ledger entries that must always balance.
CREATE TABLE IF NOT EXISTS ledger_transactions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    description TEXT NOT NULL DEFAULT '',
    tx_date TEXT NOT NULL,                 -- YYYY-MM-DD
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

-- One debit-or-credit line. Amounts are exact decimals stored as TEXT.
CREATE TABLE IF NOT EXISTS ledger_entries (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    transaction_id INTEGER NOT NULL REFERENCES ledger_transactions(id) ON DELETE CASCADE,
    account_id INTEGER NOT NULL REFERENCES accounts(id) ON DELETE RESTRICT,
    debit TEXT NOT NULL DEFAULT '0',
    credit TEXT NOT NULL DEFAULT '0',
    description TEXT NOT NULL DEFAULT '',
    counterpart_id INTEGER REFERENCES ledger_entries(id) ON DELETE SET NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_entries_transaction ON ledger_entries(transaction_id);
CREATE INDEX IF NOT EXISTS idx_entries_account ON ledger_entries(account_id);

CREATE TABLE IF NOT EXISTS accounting_documents (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    doc_type TEXT NOT NULL DEFAULT 'journal',
    number TEXT NOT NULL DEFAULT '',
    doc_date TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    transaction_id INTEGER REFERENCES ledger_transactions(id) ON DELETE SET NULL,
    deal_id INTEGER,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_documents_number ON accounting_documents(number);
CREATE INDEX IF NOT EXISTS idx_documents_deal ON accounting_documents(deal_id);

-- Per doc-type counters for display numbers, bumped inside the posting
-- transaction so concurrent callers cannot mint the same number.
CREATE TABLE IF NOT EXISTS doc_sequences (
    doc_type TEXT PRIMARY KEY,
    next_number INTEGER NOT NULL
);

-- A settlement event against one account, backed 1:1 by a transaction.
CREATE TABLE IF NOT EXISTS account_payments (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    document_id INTEGER REFERENCES accounting_documents(id) ON DELETE SET NULL,
    deal_id INTEGER,
    account_id INTEGER NOT NULL REFERENCES accounts(id) ON DELETE RESTRICT,
    transaction_id INTEGER NOT NULL UNIQUE REFERENCES ledger_transactions(id) ON DELETE CASCADE,
    direction TEXT NOT NULL,               -- receive | pay
    amount TEXT NOT NULL,
    pay_date TEXT NOT NULL,
    method TEXT NOT NULL DEFAULT '',
    description TEXT NOT NULL DEFAULT '',
    receipt_key TEXT NOT NULL DEFAULT '',
    created_by INTEGER,
    created_by_name TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_payments_deal_account ON account_payments(deal_id, account_id);

-- Bridge from an external deal to its commission income transaction.
CREATE TABLE IF NOT EXISTS deal_finances (
    deal_id INTEGER PRIMARY KEY,
    office_id INTEGER NOT NULL DEFAULT 0,
    transaction_id INTEGER NOT NULL UNIQUE REFERENCES ledger_transactions(id) ON DELETE CASCADE,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

-- Settlement proposed by a field agent, applied only after review.
CREATE TABLE IF NOT EXISTS pending_deal_payments (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    deal_id INTEGER NOT NULL,
    account_id INTEGER NOT NULL REFERENCES accounts(id) ON DELETE RESTRICT,
    amount TEXT NOT NULL,
    direction TEXT NOT NULL,
    pay_date TEXT NOT NULL,
    method TEXT NOT NULL DEFAULT '',
    description TEXT NOT NULL DEFAULT '',
    receipt_key TEXT NOT NULL DEFAULT '',
    created_by INTEGER,
    created_by_name TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    status TEXT NOT NULL DEFAULT 'pending',
    reviewed_by INTEGER,
    reviewed_at TIMESTAMP,
    rejection_reason TEXT NOT NULL DEFAULT '',
    payment_id INTEGER REFERENCES account_payments(id) ON DELETE SET NULL
);

CREATE INDEX IF NOT EXISTS idx_pending_deal ON pending_deal_payments(deal_id, status);
`

// InitializeSchema initializes the database schema.
// It creates all tables if they don't exist.
func InitializeSchema(conn *Connection) error {
	if _, err := conn.Exec(Schema); err != nil {
		return err
	}
	return nil
}
