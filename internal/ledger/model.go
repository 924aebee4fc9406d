// Package ledger implements the double-entry bookkeeping engine for the
// brokerage back office: chart of accounts, balanced transactions,
// commission recognition with revenue splits, settlements, and the
// pending-approval workflow for field agents.
package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountType classifies accounts and fixes their balance sign convention.
type AccountType string

const (
	AccountTypeAsset     AccountType = "asset"
	AccountTypeLiability AccountType = "liability"
	AccountTypeIncome    AccountType = "income"
	AccountTypeExpense   AccountType = "expense"
)

// DebitNormal reports whether balances of this type grow on the debit side.
func (t AccountType) DebitNormal() bool {
	return t == AccountTypeAsset || t == AccountTypeExpense
}

// Valid reports whether the type is one of the four known kinds.
func (t AccountType) Valid() bool {
	switch t {
	case AccountTypeAsset, AccountTypeLiability, AccountTypeIncome, AccountTypeExpense:
		return true
	}
	return false
}

// AccountCategory is the fine-grained classification used by postings and
// reporting.
type AccountCategory string

const (
	CategoryReceivableClient     AccountCategory = "receivable_client"
	CategoryReceivableConsultant AccountCategory = "receivable_consultant"
	CategoryReceivableOffice     AccountCategory = "receivable_office"
	CategoryReceivableManager    AccountCategory = "receivable_manager"
	CategoryPayableClient        AccountCategory = "payable_client"
	CategoryPayablePerson        AccountCategory = "payable_person"
	CategoryPayableConsultant    AccountCategory = "payable_consultant"
	CategoryPayableOffice        AccountCategory = "payable_office"
	CategoryPayableManager       AccountCategory = "payable_manager"
	CategoryRevenueCommission    AccountCategory = "revenue_commission"
	CategoryExpenseConsultant    AccountCategory = "expense_consultant_share"
	CategoryExpenseManager       AccountCategory = "expense_manager_share"
	CategoryCashBank             AccountCategory = "cash_bank"
	CategoryOther                AccountCategory = "other"
)

// Account is a node in the chart-of-accounts tree.
type Account struct {
	ID       int64           `json:"id"`
	Code     string          `json:"code"`
	Name     string          `json:"name"`
	Type     AccountType     `json:"account_type"`
	Category AccountCategory `json:"category"`
	ParentID int64           `json:"parent_id,omitempty"`
	Active   bool            `json:"is_active"`
}

// Transaction is an atomic, always-balanced group of entries.
type Transaction struct {
	ID          int64     `json:"id"`
	Description string    `json:"description"`
	Date        string    `json:"date"` // YYYY-MM-DD
	CreatedAt   time.Time `json:"created_at"`
	Entries     []Entry   `json:"entries,omitempty"`
}

// TotalDebit sums the debit side of the loaded entries.
func (t *Transaction) TotalDebit() decimal.Decimal {
	total := decimal.Zero
	for _, e := range t.Entries {
		total = total.Add(e.Debit)
	}
	return total
}

// TotalCredit sums the credit side of the loaded entries.
func (t *Transaction) TotalCredit() decimal.Decimal {
	total := decimal.Zero
	for _, e := range t.Entries {
		total = total.Add(e.Credit)
	}
	return total
}

// IsBalanced reports whether debits equal credits across the loaded entries.
func (t *Transaction) IsBalanced() bool {
	return t.TotalDebit().Equal(t.TotalCredit())
}

// Entry is one debit-or-credit line within a transaction. Exactly one of
// Debit and Credit is strictly positive.
type Entry struct {
	ID            int64           `json:"id"`
	TransactionID int64           `json:"transaction_id"`
	AccountID     int64           `json:"account_id"`
	Debit         decimal.Decimal `json:"debit"`
	Credit        decimal.Decimal `json:"credit"`
	Description   string          `json:"description"`
	CounterpartID int64           `json:"counterpart_id,omitempty"`
}

// Direction is the settlement direction seen from the brokerage.
type Direction string

const (
	DirectionReceive Direction = "receive"
	DirectionPay     Direction = "pay"
)

// Valid reports whether the direction is receive or pay.
func (d Direction) Valid() bool {
	return d == DirectionReceive || d == DirectionPay
}

// DocType tags accounting documents.
type DocType string

const (
	DocTypeJournal    DocType = "journal"
	DocTypeReceipt    DocType = "receipt"
	DocTypePayment    DocType = "payment"
	DocTypeCommission DocType = "commission"
	DocTypeTransfer   DocType = "transfer"
	DocTypeOther      DocType = "other"
)

// Document wraps a transaction with a display number and a type tag.
type Document struct {
	ID            int64   `json:"id"`
	DocType       DocType `json:"doc_type"`
	Number        string  `json:"number"`
	Date          string  `json:"date"`
	Description   string  `json:"description"`
	TransactionID int64   `json:"transaction_id,omitempty"`
	DealID        int64   `json:"deal_id,omitempty"`
}

// Payment is a settlement event against one account, backed 1:1 by a
// transaction that records the cash movement.
type Payment struct {
	ID            int64           `json:"id"`
	DocumentID    int64           `json:"document_id,omitempty"`
	DealID        int64           `json:"deal_id,omitempty"`
	AccountID     int64           `json:"account_id"`
	TransactionID int64           `json:"transaction_id"`
	Direction     Direction       `json:"direction"`
	Amount        decimal.Decimal `json:"amount"`
	Date          string          `json:"date"`
	Method        string          `json:"method"`
	Description   string          `json:"description"`
	ReceiptKey    string          `json:"receipt_key,omitempty"`
	CreatedBy     int64           `json:"created_by,omitempty"`
	CreatedByName string          `json:"created_by_name,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// PendingStatus is the review state of a proposed settlement.
type PendingStatus string

const (
	PendingStatusPending  PendingStatus = "pending"
	PendingStatusApproved PendingStatus = "approved"
	PendingStatusRejected PendingStatus = "rejected"
)

// PendingPayment is a settlement proposed by a field agent, applied to the
// ledger only after a reviewer approves it.
type PendingPayment struct {
	ID              int64           `json:"id"`
	DealID          int64           `json:"deal_id"`
	AccountID       int64           `json:"account_id"`
	Amount          decimal.Decimal `json:"amount"`
	Direction       Direction       `json:"direction"`
	Date            string          `json:"date"`
	Method          string          `json:"method"`
	Description     string          `json:"description"`
	ReceiptKey      string          `json:"receipt_key,omitempty"`
	CreatedBy       int64           `json:"created_by,omitempty"`
	CreatedByName   string          `json:"created_by_name,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	Status          PendingStatus   `json:"status"`
	ReviewedBy      int64           `json:"reviewed_by,omitempty"`
	ReviewedAt      *time.Time      `json:"reviewed_at,omitempty"`
	RejectionReason string          `json:"rejection_reason,omitempty"`
	PaymentID       int64           `json:"payment_id,omitempty"`
}

// DealFinance bridges an external deal to its commission income transaction.
// The office is captured at recognition time for access checks.
type DealFinance struct {
	DealID        int64 `json:"deal_id"`
	OfficeID      int64 `json:"office_id"`
	TransactionID int64 `json:"transaction_id"`
}

// Entity is the minimal identity the surrounding CRUD layer supplies for a
// client, consultant, or office.
type Entity struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Actor identifies the requesting user for audit attribution. Roles are
// attribution only; authentication happens upstream.
type Actor struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	OfficeID int64  `json:"office_id"`
}

// Actor roles.
const (
	RoleAgent    = "agent"
	RoleOperator = "operator"
	RoleManager  = "manager"
)

// IsAgent reports whether the actor is a field agent, who may only propose
// settlements for review.
func (a Actor) IsAgent() bool {
	return a.Role == RoleAgent
}

// ClientRole distinguishes the two sides of a brokered deal.
type ClientRole string

const (
	ClientRoleBuyer  ClientRole = "buyer"
	ClientRoleSeller ClientRole = "seller"
)

// ClientCommission is one commission line a client owes on a deal.
type ClientCommission struct {
	Client Entity          `json:"client"`
	Role   ClientRole      `json:"role"`
	Amount decimal.Decimal `json:"amount"`
}

// SplitRole distinguishes consultant and manager revenue shares.
type SplitRole string

const (
	SplitRoleConsultant SplitRole = "consultant"
	SplitRoleManager    SplitRole = "manager"
)

// Split is a consultant's or manager's agreed share of a deal commission.
type Split struct {
	Role       SplitRole       `json:"role"`
	Consultant Entity          `json:"consultant"`
	Amount     decimal.Decimal `json:"amount"`
}

// DealInput is everything the posting service needs from an approved deal.
type DealInput struct {
	ID                int64              `json:"id"`
	Date              string             `json:"date"` // raw, may be Jalali
	CreatedAt         time.Time          `json:"created_at"`
	Office            Entity             `json:"office"`
	ClientCommissions []ClientCommission `json:"client_commissions"`
	Splits            []Split            `json:"splits"`
}
