package db

import (
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
)

func openTestConnection(t *testing.T) *Connection {
	t.Helper()
	conn, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestOpenAppliesSchema(t *testing.T) {
	conn := openTestConnection(t)

	var n int
	err := conn.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'accounts'`).Scan(&n)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if n != 1 {
		t.Fatalf("Expected accounts table to exist, got %d", n)
	}
}

func TestTransactionCommitsOnSuccess(t *testing.T) {
	conn := openTestConnection(t)

	err := conn.Transaction(func(tx *sql.Tx) error {
		_, err := tx.Exec(`INSERT INTO accounts (code, name, account_type) VALUES ('1', 'Assets', 'asset')`)
		return err
	})
	if err != nil {
		t.Fatalf("Transaction failed: %v", err)
	}

	var n int
	if err := conn.QueryRow(`SELECT COUNT(*) FROM accounts`).Scan(&n); err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if n != 1 {
		t.Fatalf("Expected 1 account, got %d", n)
	}
}

func TestTransactionRollsBackOnError(t *testing.T) {
	conn := openTestConnection(t)

	boom := errors.New("boom")
	err := conn.Transaction(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`INSERT INTO accounts (code, name, account_type) VALUES ('1', 'Assets', 'asset')`); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Expected the inner error, got %v", err)
	}

	var n int
	if err := conn.QueryRow(`SELECT COUNT(*) FROM accounts`).Scan(&n); err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if n != 0 {
		t.Fatalf("Expected rollback to leave no accounts, got %d", n)
	}
}
