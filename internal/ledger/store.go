package ledger

import (
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"
)

// Queryer is the subset of database/sql shared by *sql.Tx and the
// connection wrapper. Posting code runs on a *sql.Tx; read-side code may run
// directly on the connection.
type Queryer interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

func scanDecimal(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

func scanAccount(row *sql.Row) (*Account, error) {
	var acc Account
	var parent sql.NullInt64
	var active int
	err := row.Scan(&acc.ID, &acc.Code, &acc.Name, &acc.Type, &acc.Category, &parent, &active)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	acc.ParentID = parent.Int64
	acc.Active = active != 0
	return &acc, nil
}

const accountColumns = `id, code, name, account_type, category, parent_id, is_active`

// GetAccount loads an account by id.
func GetAccount(q Queryer, id int64) (*Account, error) {
	return scanAccount(q.QueryRow(
		`SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id))
}

// GetAccountByCode loads an account by its unique code.
func GetAccountByCode(q Queryer, code string) (*Account, error) {
	return scanAccount(q.QueryRow(
		`SELECT `+accountColumns+` FROM accounts WHERE code = ?`, code))
}

// ListAccounts returns active accounts ordered by code, optionally filtered
// by type.
func ListAccounts(q Queryer, accountType AccountType) ([]Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE is_active = 1`
	args := []interface{}{}
	if accountType != "" {
		query += ` AND account_type = ?`
		args = append(args, string(accountType))
	}
	query += ` ORDER BY code`

	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []Account
	for rows.Next() {
		var acc Account
		var parent sql.NullInt64
		var active int
		if err := rows.Scan(&acc.ID, &acc.Code, &acc.Name, &acc.Type, &acc.Category, &parent, &active); err != nil {
			return nil, err
		}
		acc.ParentID = parent.Int64
		acc.Active = active != 0
		accounts = append(accounts, acc)
	}
	return accounts, rows.Err()
}

// AccountBalance computes the on-demand balance of an account from its
// entries: debit − credit for asset/expense accounts, credit − debit
// otherwise.
func AccountBalance(q Queryer, acc *Account) (decimal.Decimal, error) {
	rows, err := q.Query(
		`SELECT debit, credit FROM ledger_entries WHERE account_id = ?`, acc.ID)
	if err != nil {
		return decimal.Zero, err
	}
	defer rows.Close()

	debitTotal, creditTotal := decimal.Zero, decimal.Zero
	for rows.Next() {
		var debitStr, creditStr string
		if err := rows.Scan(&debitStr, &creditStr); err != nil {
			return decimal.Zero, err
		}
		debit, err := scanDecimal(debitStr)
		if err != nil {
			return decimal.Zero, err
		}
		credit, err := scanDecimal(creditStr)
		if err != nil {
			return decimal.Zero, err
		}
		debitTotal = debitTotal.Add(debit)
		creditTotal = creditTotal.Add(credit)
	}
	if err := rows.Err(); err != nil {
		return decimal.Zero, err
	}
	if acc.Type.DebitNormal() {
		return debitTotal.Sub(creditTotal), nil
	}
	return creditTotal.Sub(debitTotal), nil
}

func insertTransaction(q Queryer, description, date string) (int64, error) {
	res, err := q.Exec(
		`INSERT INTO ledger_transactions (description, tx_date) VALUES (?, ?)`,
		description, date)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// insertEntry writes one ledger line after enforcing entry exclusivity:
// exactly one of debit/credit strictly positive, the other exactly zero.
func insertEntry(q Queryer, txID, accountID int64, debit, credit decimal.Decimal, description string) (int64, error) {
	if debit.Sign() < 0 || credit.Sign() < 0 {
		return 0, validationf("entry amounts must not be negative")
	}
	if debit.Sign() > 0 && credit.Sign() > 0 {
		return 0, validationf("an entry cannot carry both a debit and a credit")
	}
	if debit.Sign() == 0 && credit.Sign() == 0 {
		return 0, validationf("an entry must carry a debit or a credit")
	}
	res, err := q.Exec(
		`INSERT INTO ledger_entries (transaction_id, account_id, debit, credit, description)
		 VALUES (?, ?, ?, ?, ?)`,
		txID, accountID, debit.String(), credit.String(), description)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// linkCounterparts records the symmetric pairing of two entries that form
// the two sides of one conceptual movement within the same transaction.
func linkCounterparts(q Queryer, a, b int64) error {
	if _, err := q.Exec(`UPDATE ledger_entries SET counterpart_id = ? WHERE id = ?`, b, a); err != nil {
		return err
	}
	_, err := q.Exec(`UPDATE ledger_entries SET counterpart_id = ? WHERE id = ?`, a, b)
	return err
}

// addEntryPair writes a debit entry and a credit entry for the same amount
// and links them as counterparts. Returns the debit and credit entry ids.
func addEntryPair(q Queryer, txID, debitAccountID, creditAccountID int64, amount decimal.Decimal, debitDesc, creditDesc string) (int64, int64, error) {
	debitID, err := insertEntry(q, txID, debitAccountID, amount, decimal.Zero, debitDesc)
	if err != nil {
		return 0, 0, err
	}
	creditID, err := insertEntry(q, txID, creditAccountID, decimal.Zero, amount, creditDesc)
	if err != nil {
		return 0, 0, err
	}
	if err := linkCounterparts(q, debitID, creditID); err != nil {
		return 0, 0, err
	}
	return debitID, creditID, nil
}

// transactionTotals sums both sides of a transaction's entries.
func transactionTotals(q Queryer, txID int64) (debit, credit decimal.Decimal, err error) {
	rows, err := q.Query(
		`SELECT debit, credit FROM ledger_entries WHERE transaction_id = ?`, txID)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	defer rows.Close()

	debit, credit = decimal.Zero, decimal.Zero
	for rows.Next() {
		var debitStr, creditStr string
		if err := rows.Scan(&debitStr, &creditStr); err != nil {
			return decimal.Zero, decimal.Zero, err
		}
		d, err := scanDecimal(debitStr)
		if err != nil {
			return decimal.Zero, decimal.Zero, err
		}
		c, err := scanDecimal(creditStr)
		if err != nil {
			return decimal.Zero, decimal.Zero, err
		}
		debit = debit.Add(d)
		credit = credit.Add(c)
	}
	return debit, credit, rows.Err()
}

// assertBalanced verifies the balance invariant after all entries of a
// logical operation exist. A failure aborts the surrounding atomic scope.
func assertBalanced(q Queryer, txID int64) error {
	debit, credit, err := transactionTotals(q, txID)
	if err != nil {
		return err
	}
	if !debit.Equal(credit) {
		return &UnbalancedError{
			TransactionID: txID,
			TotalDebit:    debit.String(),
			TotalCredit:   credit.String(),
		}
	}
	return nil
}

// GetTransaction loads a transaction with its entries.
func GetTransaction(q Queryer, id int64) (*Transaction, error) {
	var trx Transaction
	err := q.QueryRow(
		`SELECT id, description, tx_date, created_at FROM ledger_transactions WHERE id = ?`, id).
		Scan(&trx.ID, &trx.Description, &trx.Date, &trx.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	entries, err := entriesByTransaction(q, id)
	if err != nil {
		return nil, err
	}
	trx.Entries = entries
	return &trx, nil
}

func entriesByTransaction(q Queryer, txID int64) ([]Entry, error) {
	rows, err := q.Query(
		`SELECT id, transaction_id, account_id, debit, credit, description, counterpart_id
		 FROM ledger_entries WHERE transaction_id = ? ORDER BY id`, txID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var debitStr, creditStr string
		var counterpart sql.NullInt64
		if err := rows.Scan(&e.ID, &e.TransactionID, &e.AccountID, &debitStr, &creditStr, &e.Description, &counterpart); err != nil {
			return nil, err
		}
		if e.Debit, err = scanDecimal(debitStr); err != nil {
			return nil, err
		}
		if e.Credit, err = scanDecimal(creditStr); err != nil {
			return nil, err
		}
		e.CounterpartID = counterpart.Int64
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// accountEntryTotals sums one account's debit and credit within a single
// transaction.
func accountEntryTotals(q Queryer, txID, accountID int64) (debit, credit decimal.Decimal, err error) {
	rows, err := q.Query(
		`SELECT debit, credit FROM ledger_entries WHERE transaction_id = ? AND account_id = ?`,
		txID, accountID)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	defer rows.Close()

	debit, credit = decimal.Zero, decimal.Zero
	for rows.Next() {
		var debitStr, creditStr string
		if err := rows.Scan(&debitStr, &creditStr); err != nil {
			return decimal.Zero, decimal.Zero, err
		}
		d, err := scanDecimal(debitStr)
		if err != nil {
			return decimal.Zero, decimal.Zero, err
		}
		c, err := scanDecimal(creditStr)
		if err != nil {
			return decimal.Zero, decimal.Zero, err
		}
		debit = debit.Add(d)
		credit = credit.Add(c)
	}
	return debit, credit, rows.Err()
}

// dealPaymentTotals sums prior settlements for one account on one deal,
// split by direction.
func dealPaymentTotals(q Queryer, dealID, accountID int64) (received, paid decimal.Decimal, err error) {
	rows, err := q.Query(
		`SELECT direction, amount FROM account_payments WHERE deal_id = ? AND account_id = ?`,
		dealID, accountID)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	defer rows.Close()

	received, paid = decimal.Zero, decimal.Zero
	for rows.Next() {
		var direction, amountStr string
		if err := rows.Scan(&direction, &amountStr); err != nil {
			return decimal.Zero, decimal.Zero, err
		}
		amount, err := scanDecimal(amountStr)
		if err != nil {
			return decimal.Zero, decimal.Zero, err
		}
		if Direction(direction) == DirectionReceive {
			received = received.Add(amount)
		} else {
			paid = paid.Add(amount)
		}
	}
	return received, paid, rows.Err()
}

func insertDocument(q Queryer, doc *Document) (int64, error) {
	var txID, dealID interface{}
	if doc.TransactionID != 0 {
		txID = doc.TransactionID
	}
	if doc.DealID != 0 {
		dealID = doc.DealID
	}
	res, err := q.Exec(
		`INSERT INTO accounting_documents (doc_type, number, doc_date, description, transaction_id, deal_id)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		string(doc.DocType), doc.Number, doc.Date, doc.Description, txID, dealID)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetDocument loads a document by id.
func GetDocument(q Queryer, id int64) (*Document, error) {
	var doc Document
	var txID, dealID sql.NullInt64
	err := q.QueryRow(
		`SELECT id, doc_type, number, doc_date, description, transaction_id, deal_id
		 FROM accounting_documents WHERE id = ?`, id).
		Scan(&doc.ID, &doc.DocType, &doc.Number, &doc.Date, &doc.Description, &txID, &dealID)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	doc.TransactionID = txID.Int64
	doc.DealID = dealID.Int64
	return &doc, nil
}

// ListDocuments returns documents newest-first.
func ListDocuments(q Queryer, limit int) ([]Document, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := q.Query(
		`SELECT id, doc_type, number, doc_date, description, transaction_id, deal_id
		 FROM accounting_documents ORDER BY doc_date DESC, created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var doc Document
		var txID, dealID sql.NullInt64
		if err := rows.Scan(&doc.ID, &doc.DocType, &doc.Number, &doc.Date, &doc.Description, &txID, &dealID); err != nil {
			return nil, err
		}
		doc.TransactionID = txID.Int64
		doc.DealID = dealID.Int64
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// dealCommissionDocument finds the commission document for a deal, if any.
func dealCommissionDocument(q Queryer, dealID int64) (*Document, error) {
	var doc Document
	var txID, dID sql.NullInt64
	err := q.QueryRow(
		`SELECT id, doc_type, number, doc_date, description, transaction_id, deal_id
		 FROM accounting_documents WHERE deal_id = ? AND doc_type = ? ORDER BY id LIMIT 1`,
		dealID, string(DocTypeCommission)).
		Scan(&doc.ID, &doc.DocType, &doc.Number, &doc.Date, &doc.Description, &txID, &dID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	doc.TransactionID = txID.Int64
	doc.DealID = dID.Int64
	return &doc, nil
}

func insertPayment(q Queryer, p *Payment) (int64, error) {
	var docID, dealID, createdBy interface{}
	if p.DocumentID != 0 {
		docID = p.DocumentID
	}
	if p.DealID != 0 {
		dealID = p.DealID
	}
	if p.CreatedBy != 0 {
		createdBy = p.CreatedBy
	}
	res, err := q.Exec(
		`INSERT INTO account_payments
		 (document_id, deal_id, account_id, transaction_id, direction, amount, pay_date, method, description, receipt_key, created_by, created_by_name)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		docID, dealID, p.AccountID, p.TransactionID, string(p.Direction), p.Amount.String(),
		p.Date, p.Method, p.Description, p.ReceiptKey, createdBy, p.CreatedByName)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetPayment loads a payment by id.
func GetPayment(q Queryer, id int64) (*Payment, error) {
	row := q.QueryRow(
		`SELECT id, document_id, deal_id, account_id, transaction_id, direction, amount,
		        pay_date, method, description, receipt_key, created_by, created_by_name, created_at
		 FROM account_payments WHERE id = ?`, id)
	return scanPayment(row)
}

func scanPayment(row *sql.Row) (*Payment, error) {
	var p Payment
	var docID, dealID, createdBy sql.NullInt64
	var amountStr string
	err := row.Scan(&p.ID, &docID, &dealID, &p.AccountID, &p.TransactionID, &p.Direction,
		&amountStr, &p.Date, &p.Method, &p.Description, &p.ReceiptKey, &createdBy, &p.CreatedByName, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if p.Amount, err = scanDecimal(amountStr); err != nil {
		return nil, err
	}
	p.DocumentID = docID.Int64
	p.DealID = dealID.Int64
	p.CreatedBy = createdBy.Int64
	return &p, nil
}

func dealPayments(q Queryer, dealID int64) ([]Payment, error) {
	rows, err := q.Query(
		`SELECT id, document_id, deal_id, account_id, transaction_id, direction, amount,
		        pay_date, method, description, receipt_key, created_by, created_by_name, created_at
		 FROM account_payments WHERE deal_id = ? ORDER BY pay_date DESC, created_at DESC`, dealID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []Payment
	for rows.Next() {
		var p Payment
		var docID, dID, createdBy sql.NullInt64
		var amountStr string
		if err := rows.Scan(&p.ID, &docID, &dID, &p.AccountID, &p.TransactionID, &p.Direction,
			&amountStr, &p.Date, &p.Method, &p.Description, &p.ReceiptKey, &createdBy, &p.CreatedByName, &p.CreatedAt); err != nil {
			return nil, err
		}
		if p.Amount, err = scanDecimal(amountStr); err != nil {
			return nil, err
		}
		p.DocumentID = docID.Int64
		p.DealID = dID.Int64
		p.CreatedBy = createdBy.Int64
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// GetDealFinance loads the deal→transaction bridge.
func GetDealFinance(q Queryer, dealID int64) (*DealFinance, error) {
	var df DealFinance
	err := q.QueryRow(
		`SELECT deal_id, office_id, transaction_id FROM deal_finances WHERE deal_id = ?`, dealID).
		Scan(&df.DealID, &df.OfficeID, &df.TransactionID)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &df, nil
}

func insertDealFinance(q Queryer, dealID, officeID, txID int64) error {
	_, err := q.Exec(
		`INSERT INTO deal_finances (deal_id, office_id, transaction_id) VALUES (?, ?, ?)`,
		dealID, officeID, txID)
	return err
}

func fmtEntity(e Entity) string {
	if e.Name != "" {
		return e.Name
	}
	return fmt.Sprintf("#%d", e.ID)
}
