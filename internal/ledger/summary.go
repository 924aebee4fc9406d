package ledger

import (
	"database/sql"
	"sort"

	"github.com/shopspring/decimal"
)

var categoryLabels = map[AccountCategory]string{
	CategoryReceivableClient:  "Owed to the brokerage by clients",
	CategoryPayableClient:     "Owed by the brokerage to clients",
	CategoryPayableConsultant: "Owed by the brokerage to consultants",
	CategoryPayableManager:    "Owed by the brokerage to the office manager",
	CategoryReceivableOffice:  "Receivable from offices",
	CategoryPayableOffice:     "Payable to offices",
	CategoryRevenueCommission: "Brokerage commission revenue",
	CategoryExpenseConsultant: "Consultant share expense",
	CategoryExpenseManager:    "Manager share expense",
}

var kindLabels = map[AccountCategory]string{
	CategoryReceivableClient:     "Receivable from client",
	CategoryPayableClient:        "Payable to client",
	CategoryReceivableConsultant: "Receivable from consultant",
	CategoryPayableConsultant:    "Payable to consultant",
	CategoryReceivableManager:    "Receivable from manager",
	CategoryPayableManager:       "Payable to manager",
	CategoryReceivableOffice:     "Receivable from office",
	CategoryPayableOffice:        "Payable to office",
	CategoryRevenueCommission:    "Brokerage commission revenue",
	CategoryExpenseConsultant:    "Consultant share expense",
	CategoryExpenseManager:       "Manager share expense",
	CategoryCashBank:             "Cash and banks",
	CategoryOther:                "Other",
}

// orderKeys group ledger rows for display: clients first, then consultants,
// then the manager, then offices.
var orderKeys = map[AccountCategory][2]int{
	CategoryReceivableClient:     {0, 0},
	CategoryPayableClient:        {0, 1},
	CategoryRevenueCommission:    {0, 2},
	CategoryReceivableConsultant: {1, 0},
	CategoryPayableConsultant:    {1, 1},
	CategoryExpenseConsultant:    {1, 2},
	CategoryReceivableManager:    {2, 0},
	CategoryPayableManager:       {2, 1},
	CategoryExpenseManager:       {2, 2},
	CategoryReceivableOffice:     {3, 0},
	CategoryPayableOffice:        {3, 1},
	CategoryCashBank:             {4, 0},
	CategoryOther:                {5, 0},
}

// LedgerRow is one account's aggregated position within a deal's commission
// document, decorated with its settlement history.
type LedgerRow struct {
	AccountID        int64           `json:"account_id"`
	AccountCode      string          `json:"account_code"`
	AccountName      string          `json:"account_name"`
	AccountKind      string          `json:"account_kind"`
	CounterpartLabel string          `json:"counterpart_label"`
	Category         AccountCategory `json:"category"`
	Debit            decimal.Decimal `json:"debit"`
	Credit           decimal.Decimal `json:"credit"`
	HasPayments      bool            `json:"has_payments"`
	SettledAmount    decimal.Decimal `json:"settled_amount"`
	RemainingAmount  decimal.Decimal `json:"remaining_amount"`
	Payments         []Payment       `json:"payments,omitempty"`

	orderKey [2]int
}

// CategoryTotal aggregates one category across the commission document.
type CategoryTotal struct {
	Key     AccountCategory `json:"key"`
	Label   string          `json:"label"`
	Debit   decimal.Decimal `json:"debit"`
	Credit  decimal.Decimal `json:"credit"`
	Balance decimal.Decimal `json:"balance"`
}

// DealAccount is an account a settlement may target, with its open balance.
type DealAccount struct {
	AccountID       int64           `json:"account_id"`
	Code            string          `json:"code"`
	Name            string          `json:"name"`
	Category        AccountCategory `json:"category"`
	RemainingAmount decimal.Decimal `json:"remaining_amount"`
}

// DealSummary is the full ledger view of one deal.
type DealSummary struct {
	DealID                  int64            `json:"deal_id"`
	TransactionID           int64            `json:"transaction_id"`
	TotalDebit              decimal.Decimal  `json:"total_debit"`
	TotalCredit             decimal.Decimal  `json:"total_credit"`
	IsBalanced              bool             `json:"is_balanced"`
	SummaryItems            []CategoryTotal  `json:"summary_items"`
	ClientReceivableBalance decimal.Decimal  `json:"client_receivable_balance"`
	Rows                    []LedgerRow      `json:"ledger_rows"`
	DealAccounts            []DealAccount    `json:"deal_accounts"`
	Pending                 []PendingPayment `json:"pending_payments"`
}

// DealLedgerSummary projects a deal's commission document into display
// rows: per-account totals with settlement progress, per-category totals,
// and the settleable account list.
//
// Settlement progress is measured against the closing direction of each
// row: receipts settle debit rows, payments settle credit rows. The revenue
// row is special cased twice: its settled amount is the total received from
// clients (revenue is never settled directly), and when a legacy document
// carries no revenue credit at all the client debit total is shown instead.
func DealLedgerSummary(q Queryer, dealID int64) (*DealSummary, error) {
	df, err := GetDealFinance(q, dealID)
	if err != nil {
		return nil, err
	}

	payments, err := dealPayments(q, dealID)
	if err != nil {
		return nil, err
	}
	paymentsByAccount := map[int64][]Payment{}
	for _, p := range payments {
		paymentsByAccount[p.AccountID] = append(paymentsByAccount[p.AccountID], p)
	}

	rows, err := q.Query(
		`SELECT e.account_id, e.debit, e.credit, a.code, a.name, a.category
		 FROM ledger_entries e JOIN accounts a ON a.id = e.account_id
		 WHERE e.transaction_id = ? ORDER BY e.id`, df.TransactionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summary := &DealSummary{
		DealID:        dealID,
		TransactionID: df.TransactionID,
		TotalDebit:    decimal.Zero,
		TotalCredit:   decimal.Zero,
	}
	byAccount := map[int64]*LedgerRow{}
	categoryTotals := map[AccountCategory]*CategoryTotal{}
	var rowOrder []int64

	for rows.Next() {
		var accountID int64
		var debitStr, creditStr, code, name, categoryStr string
		if err := rows.Scan(&accountID, &debitStr, &creditStr, &code, &name, &categoryStr); err != nil {
			return nil, err
		}
		debit, err := scanDecimal(debitStr)
		if err != nil {
			return nil, err
		}
		credit, err := scanDecimal(creditStr)
		if err != nil {
			return nil, err
		}
		category := AccountCategory(categoryStr)

		summary.TotalDebit = summary.TotalDebit.Add(debit)
		summary.TotalCredit = summary.TotalCredit.Add(credit)

		if label, ok := categoryLabels[category]; ok {
			ct, ok := categoryTotals[category]
			if !ok {
				ct = &CategoryTotal{Key: category, Label: label, Debit: decimal.Zero, Credit: decimal.Zero}
				categoryTotals[category] = ct
			}
			ct.Debit = ct.Debit.Add(debit)
			ct.Credit = ct.Credit.Add(credit)
		}

		row, ok := byAccount[accountID]
		if !ok {
			kind, okKind := kindLabels[category]
			if !okKind {
				kind = kindLabels[CategoryOther]
			}
			orderKey, okOrder := orderKeys[category]
			if !okOrder {
				orderKey = [2]int{4, 0}
			}
			row = &LedgerRow{
				AccountID:        accountID,
				AccountCode:      code,
				AccountName:      name,
				AccountKind:      kind,
				CounterpartLabel: categoryLabels[category],
				Category:         category,
				Debit:            decimal.Zero,
				Credit:           decimal.Zero,
				SettledAmount:    decimal.Zero,
				RemainingAmount:  decimal.Zero,
				Payments:         paymentsByAccount[accountID],
				orderKey:         orderKey,
			}
			row.HasPayments = len(row.Payments) > 0
			byAccount[accountID] = row
			rowOrder = append(rowOrder, accountID)
		}
		row.Debit = row.Debit.Add(debit)
		row.Credit = row.Credit.Add(credit)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	totalReceivedFromClients := decimal.Zero
	for _, accountID := range rowOrder {
		row := byAccount[accountID]
		settled := decimal.Zero
		closingDirection := DirectionPay
		if row.Debit.Sign() > 0 {
			closingDirection = DirectionReceive
		}
		for _, p := range row.Payments {
			if p.Direction == closingDirection {
				settled = settled.Add(p.Amount)
			}
		}
		if row.Category == CategoryReceivableClient {
			totalReceivedFromClients = totalReceivedFromClients.Add(settled)
		}
		balance := row.Credit
		if row.Debit.Sign() > 0 {
			balance = row.Debit
		}
		row.SettledAmount = settled
		row.RemainingAmount = decimal.Max(decimal.Zero, balance.Sub(settled))
	}

	clientDebit := decimal.Zero
	if ct, ok := categoryTotals[CategoryReceivableClient]; ok {
		clientDebit = ct.Debit
	}
	for _, accountID := range rowOrder {
		row := byAccount[accountID]
		if row.Category != CategoryRevenueCommission {
			continue
		}
		row.SettledAmount = totalReceivedFromClients
		row.RemainingAmount = decimal.Max(decimal.Zero, row.Credit.Sub(totalReceivedFromClients))
		if row.Credit.Sign() == 0 && clientDebit.Sign() > 0 {
			row.Credit = clientDebit
			row.RemainingAmount = decimal.Max(decimal.Zero, clientDebit.Sub(row.SettledAmount))
		}
	}

	for _, accountID := range rowOrder {
		row := byAccount[accountID]
		summary.Rows = append(summary.Rows, *row)
		if settlementTargetCategories[row.Category] {
			summary.DealAccounts = append(summary.DealAccounts, DealAccount{
				AccountID:       row.AccountID,
				Code:            row.AccountCode,
				Name:            row.AccountName,
				Category:        row.Category,
				RemainingAmount: row.RemainingAmount,
			})
		}
	}
	sort.SliceStable(summary.Rows, func(i, j int) bool {
		a, b := summary.Rows[i], summary.Rows[j]
		if a.orderKey != b.orderKey {
			if a.orderKey[0] != b.orderKey[0] {
				return a.orderKey[0] < b.orderKey[0]
			}
			return a.orderKey[1] < b.orderKey[1]
		}
		return a.AccountCode < b.AccountCode
	})

	summary.IsBalanced = summary.TotalDebit.Equal(summary.TotalCredit)
	summary.ClientReceivableBalance = decimal.Zero
	for _, ct := range categoryTotals {
		item := CategoryTotal{
			Key:     ct.Key,
			Label:   ct.Label,
			Debit:   ct.Debit,
			Credit:  ct.Credit,
			Balance: ct.Debit.Sub(ct.Credit),
		}
		summary.SummaryItems = append(summary.SummaryItems, item)
		if ct.Key == CategoryReceivableClient {
			summary.ClientReceivableBalance = item.Balance
		}
	}
	sort.Slice(summary.SummaryItems, func(i, j int) bool {
		a := orderKeys[summary.SummaryItems[i].Key]
		b := orderKeys[summary.SummaryItems[j].Key]
		if a[0] != b[0] {
			return a[0] < b[0]
		}
		return a[1] < b[1]
	})

	pending, err := ListPendingByDeal(q, dealID, "")
	if err != nil {
		return nil, err
	}
	summary.Pending = pending

	return summary, nil
}

// AccountLedgerRow is one entry in an account's statement with the running
// balance after it.
type AccountLedgerRow struct {
	EntryID       int64           `json:"entry_id"`
	TransactionID int64           `json:"transaction_id"`
	Date          string          `json:"date"`
	Description   string          `json:"description"`
	Debit         decimal.Decimal `json:"debit"`
	Credit        decimal.Decimal `json:"credit"`
	Balance       decimal.Decimal `json:"balance"`
}

// AccountStatement is an account's ledger over an optional date range.
type AccountStatement struct {
	Account *Account           `json:"account"`
	Rows    []AccountLedgerRow `json:"rows"`
	Balance decimal.Decimal    `json:"balance"`
}

// AccountLedger builds an account statement. The running balance follows
// the account's sign convention. Dates are inclusive; empty bounds are
// open-ended.
func AccountLedger(q Queryer, accountID int64, from, to string) (*AccountStatement, error) {
	account, err := GetAccount(q, accountID)
	if err != nil {
		return nil, err
	}

	query := `SELECT e.id, e.transaction_id, t.tx_date, e.description, e.debit, e.credit
	          FROM ledger_entries e JOIN ledger_transactions t ON t.id = e.transaction_id
	          WHERE e.account_id = ?`
	args := []interface{}{accountID}
	if from != "" {
		query += ` AND t.tx_date >= ?`
		args = append(args, from)
	}
	if to != "" {
		query += ` AND t.tx_date <= ?`
		args = append(args, to)
	}
	query += ` ORDER BY t.tx_date, e.id`

	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	statement := &AccountStatement{Account: account, Balance: decimal.Zero}
	balance := decimal.Zero
	for rows.Next() {
		var r AccountLedgerRow
		var debitStr, creditStr string
		if err := rows.Scan(&r.EntryID, &r.TransactionID, &r.Date, &r.Description, &debitStr, &creditStr); err != nil {
			return nil, err
		}
		if r.Debit, err = scanDecimal(debitStr); err != nil {
			return nil, err
		}
		if r.Credit, err = scanDecimal(creditStr); err != nil {
			return nil, err
		}
		if account.Type.DebitNormal() {
			balance = balance.Add(r.Debit).Sub(r.Credit)
		} else {
			balance = balance.Add(r.Credit).Sub(r.Debit)
		}
		r.Balance = balance
		statement.Rows = append(statement.Rows, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	statement.Balance = balance
	return statement, nil
}

// OfficeFinanceReport aggregates one office's recognized deals: revenue,
// share expenses, the net office margin, and recent settlement activity.
type OfficeFinanceReport struct {
	OfficeID        int64           `json:"office_id"`
	DealCount       int             `json:"deal_count"`
	Revenue         decimal.Decimal `json:"revenue"`
	ConsultantShare decimal.Decimal `json:"consultant_share"`
	ManagerShare    decimal.Decimal `json:"manager_share"`
	NetMargin       decimal.Decimal `json:"net_margin"`
	RecentPayments  []Payment       `json:"recent_payments"`
}

// BuildOfficeFinanceReport sums category totals across all commission
// documents recognized for one office.
func BuildOfficeFinanceReport(q Queryer, officeID int64, recentLimit int) (*OfficeFinanceReport, error) {
	if recentLimit <= 0 {
		recentLimit = 20
	}
	report := &OfficeFinanceReport{
		OfficeID:        officeID,
		Revenue:         decimal.Zero,
		ConsultantShare: decimal.Zero,
		ManagerShare:    decimal.Zero,
		NetMargin:       decimal.Zero,
	}

	rows, err := q.Query(
		`SELECT a.category, e.debit, e.credit
		 FROM deal_finances df
		 JOIN ledger_entries e ON e.transaction_id = df.transaction_id
		 JOIN accounts a ON a.id = e.account_id
		 WHERE df.office_id = ?`, officeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var categoryStr, debitStr, creditStr string
		if err := rows.Scan(&categoryStr, &debitStr, &creditStr); err != nil {
			return nil, err
		}
		debit, err := scanDecimal(debitStr)
		if err != nil {
			return nil, err
		}
		credit, err := scanDecimal(creditStr)
		if err != nil {
			return nil, err
		}
		switch AccountCategory(categoryStr) {
		case CategoryRevenueCommission:
			report.Revenue = report.Revenue.Add(credit).Sub(debit)
		case CategoryExpenseConsultant:
			report.ConsultantShare = report.ConsultantShare.Add(debit).Sub(credit)
		case CategoryExpenseManager:
			report.ManagerShare = report.ManagerShare.Add(debit).Sub(credit)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	report.NetMargin = report.Revenue.Sub(report.ConsultantShare).Sub(report.ManagerShare)

	if err := q.QueryRow(
		`SELECT COUNT(*) FROM deal_finances WHERE office_id = ?`, officeID).
		Scan(&report.DealCount); err != nil {
		return nil, err
	}

	payRows, err := q.Query(
		`SELECT p.id, p.document_id, p.deal_id, p.account_id, p.transaction_id, p.direction, p.amount,
		        p.pay_date, p.method, p.description, p.receipt_key, p.created_by, p.created_by_name, p.created_at
		 FROM account_payments p
		 JOIN deal_finances df ON df.deal_id = p.deal_id
		 WHERE df.office_id = ?
		 ORDER BY p.pay_date DESC, p.created_at DESC LIMIT ?`, officeID, recentLimit)
	if err != nil {
		return nil, err
	}
	defer payRows.Close()

	for payRows.Next() {
		var p Payment
		var docID, dealID, createdBy sql.NullInt64
		var amountStr string
		if err := payRows.Scan(&p.ID, &docID, &dealID, &p.AccountID, &p.TransactionID, &p.Direction,
			&amountStr, &p.Date, &p.Method, &p.Description, &p.ReceiptKey, &createdBy, &p.CreatedByName, &p.CreatedAt); err != nil {
			return nil, err
		}
		if p.Amount, err = scanDecimal(amountStr); err != nil {
			return nil, err
		}
		p.DocumentID = docID.Int64
		p.DealID = dealID.Int64
		p.CreatedBy = createdBy.Int64
		report.RecentPayments = append(report.RecentPayments, p)
	}
	return report, payRows.Err()
}
