package ledger

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/amlakplus/backoffice/internal/dates"
	"github.com/amlakplus/backoffice/internal/db"
)

// settlementTargetCategories are the account categories a deal settlement
// may touch. Revenue and expense accounts are never settled directly; they
// were written as counterparts at recognition time and receiving from a
// client only moves cash against the receivable.
var settlementTargetCategories = map[AccountCategory]bool{
	CategoryReceivableClient:     true,
	CategoryPayableClient:        true,
	CategoryReceivableConsultant: true,
	CategoryPayableConsultant:    true,
	CategoryReceivableManager:    true,
	CategoryPayableManager:       true,
}

// Service posts balanced transactions to the ledger. All writes run inside
// a single database transaction per operation.
type Service struct {
	conn  *db.Connection
	chart *Chart
	log   zerolog.Logger
}

// NewService builds a posting service.
func NewService(conn *db.Connection, chart *Chart, log zerolog.Logger) *Service {
	return &Service{conn: conn, chart: chart, log: log}
}

// Conn exposes the underlying connection for read-side queries.
func (s *Service) Conn() *db.Connection { return s.conn }

// Chart exposes the chart registry.
func (s *Service) Chart() *Chart { return s.chart }

// EnsureBaseChart creates the base chart of accounts if missing. Called on
// startup and safe to repeat.
func (s *Service) EnsureBaseChart() error {
	return s.conn.Transaction(func(tx *sql.Tx) error {
		_, err := s.chart.SetupBaseChart(tx)
		return err
	})
}

// PostCommissionRecognition books the commission income of an approved deal:
// one receivable/revenue pair per client commission line, one expense/payable
// pair per consultant split, and a single aggregated expense/payable pair for
// manager splits. The whole document is written atomically and re-checked for
// balance before commit.
func (s *Service) PostCommissionRecognition(deal DealInput) (*DealFinance, error) {
	if deal.ID <= 0 {
		return nil, validationf("deal id is required")
	}

	fallback := deal.CreatedAt
	if fallback.IsZero() {
		fallback = time.Now()
	}
	trxDate := dates.Format(dates.Parse(deal.Date, fallback))

	var df *DealFinance
	err := s.conn.Transaction(func(tx *sql.Tx) error {
		if existing, err := GetDealFinance(tx, deal.ID); err == nil {
			return validationf("deal %d is already recognized in transaction %d", deal.ID, existing.TransactionID)
		} else if err != ErrNotFound {
			return err
		}

		base, err := s.chart.SetupBaseChart(tx)
		if err != nil {
			return err
		}
		revenue := base[KeyRevenueCommission]
		expenseConsultant := base[KeyExpenseConsultant]
		expenseManager := base[KeyExpenseManager]

		txID, err := insertTransaction(tx,
			fmt.Sprintf("Commission recognition for deal %d", deal.ID), trxDate)
		if err != nil {
			return err
		}

		posted := false
		for _, cc := range deal.ClientCommissions {
			if cc.Amount.Sign() <= 0 {
				continue
			}
			receivable, err := s.chart.EnsureClientReceivable(tx, cc.Client)
			if err != nil {
				return err
			}
			_, _, err = addEntryPair(tx, txID, receivable.ID, revenue.ID, cc.Amount,
				fmt.Sprintf("Commission from client %s (%s)", fmtEntity(cc.Client), cc.Role),
				fmt.Sprintf("Commission revenue from client %s (%s)", fmtEntity(cc.Client), cc.Role))
			if err != nil {
				return err
			}
			posted = true
		}

		managerTotal := decimal.Zero
		for _, split := range deal.Splits {
			if split.Amount.Sign() <= 0 {
				continue
			}
			switch split.Role {
			case SplitRoleConsultant:
				payable, err := s.chart.EnsureConsultantPayable(tx, split.Consultant)
				if err != nil {
					return err
				}
				_, _, err = addEntryPair(tx, txID, expenseConsultant.ID, payable.ID, split.Amount,
					fmt.Sprintf("Consultant share expense, %s", fmtEntity(split.Consultant)),
					fmt.Sprintf("Consultant share payable, %s", fmtEntity(split.Consultant)))
				if err != nil {
					return err
				}
				posted = true
			case SplitRoleManager:
				managerTotal = managerTotal.Add(split.Amount)
			default:
				return validationf("unknown split role %q", split.Role)
			}
		}

		if managerTotal.Sign() > 0 {
			if deal.Office.ID <= 0 {
				return validationf("deal %d has manager splits but no office", deal.ID)
			}
			_, managerPayable, err := s.chart.EnsureManagerAccounts(tx, deal.Office)
			if err != nil {
				return err
			}
			_, _, err = addEntryPair(tx, txID, expenseManager.ID, managerPayable.ID, managerTotal,
				fmt.Sprintf("Manager share expense, deal %d", deal.ID),
				fmt.Sprintf("Manager share payable, deal %d", deal.ID))
			if err != nil {
				return err
			}
			posted = true
		}

		if !posted {
			return validationf("deal %d has no positive commission lines or splits", deal.ID)
		}

		if err := assertBalanced(tx, txID); err != nil {
			return err
		}

		if err := insertDealFinance(tx, deal.ID, deal.Office.ID, txID); err != nil {
			return err
		}

		_, err = insertDocument(tx, &Document{
			DocType:       DocTypeCommission,
			Number:        fmt.Sprintf("COM-%d", deal.ID),
			Date:          trxDate,
			Description:   fmt.Sprintf("Commission recognition for deal %d", deal.ID),
			TransactionID: txID,
			DealID:        deal.ID,
		})
		if err != nil {
			return err
		}

		df = &DealFinance{DealID: deal.ID, OfficeID: deal.Office.ID, TransactionID: txID}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Int64("deal_id", df.DealID).
		Int64("transaction_id", df.TransactionID).
		Msg("commission recognized")
	return df, nil
}

// SettlementInput describes one cash settlement against an account.
type SettlementInput struct {
	DealID      int64
	AccountID   int64
	Amount      decimal.Decimal
	Direction   Direction
	Date        string
	Method      string
	Description string
	ReceiptKey  string
	DocumentID  int64
	Actor       Actor
}

func (in *SettlementInput) validate() error {
	if in.AccountID <= 0 {
		return validationf("account id is required")
	}
	if in.Amount.Sign() <= 0 {
		return validationf("settlement amount must be greater than zero")
	}
	if !in.Direction.Valid() {
		return validationf("direction must be receive or pay")
	}
	return nil
}

// postSettlementTx writes the cash-movement transaction and payment row for
// one settlement. The direction is seen from the brokerage:
//
//   - receive, asset account: debit cash, credit account (receivable shrinks)
//   - receive, liability account: debit account, credit cash (debt returned)
//   - pay, asset account: debit account, credit cash (receivable grows)
//   - pay, liability account: debit account, credit cash (debt settled)
//
// Runs on the caller's transaction so approval flows can combine it with
// their own writes in one atomic scope.
func (s *Service) postSettlementTx(tx *sql.Tx, account *Account, in SettlementInput) (*Payment, error) {
	cash, err := GetAccountByCode(tx, "110101")
	if err != nil {
		return nil, fmt.Errorf("base chart is not initialized: %w", err)
	}
	if account.ID == cash.ID {
		return nil, validationf("cannot settle against the cash account itself")
	}

	date := dates.Format(dates.Parse(in.Date, time.Now()))
	description := in.Description
	if description == "" {
		description = fmt.Sprintf("%s settlement for account %s", in.Direction, account.Name)
	}

	txID, err := insertTransaction(tx, description, date)
	if err != nil {
		return nil, err
	}

	isAsset := account.Type.DebitNormal()
	if in.Direction == DirectionReceive && isAsset {
		_, _, err = addEntryPair(tx, txID, cash.ID, account.ID, in.Amount,
			"Cash received", "Receivable settled")
	} else if in.Direction == DirectionReceive {
		_, _, err = addEntryPair(tx, txID, account.ID, cash.ID, in.Amount,
			"Liability reduced", "Cash received")
	} else if isAsset {
		_, _, err = addEntryPair(tx, txID, account.ID, cash.ID, in.Amount,
			"Receivable increased", "Cash paid")
	} else {
		_, _, err = addEntryPair(tx, txID, account.ID, cash.ID, in.Amount,
			"Liability settled", "Cash paid")
	}
	if err != nil {
		return nil, err
	}

	if err := assertBalanced(tx, txID); err != nil {
		return nil, err
	}

	payment := &Payment{
		DocumentID:    in.DocumentID,
		DealID:        in.DealID,
		AccountID:     account.ID,
		TransactionID: txID,
		Direction:     in.Direction,
		Amount:        in.Amount,
		Date:          date,
		Method:        in.Method,
		Description:   in.Description,
		ReceiptKey:    in.ReceiptKey,
		CreatedBy:     in.Actor.ID,
		CreatedByName: in.Actor.Name,
	}
	payment.ID, err = insertPayment(tx, payment)
	if err != nil {
		return nil, err
	}
	return payment, nil
}

// checkDealSettlement validates a settlement against the deal's commission
// transaction before any write: the account must appear in that transaction,
// its category must be a settleable counterparty category, the actor's
// office must match the deal's office, and the amount must not exceed what
// is still open in the requested direction.
func (s *Service) checkDealSettlement(q Queryer, in SettlementInput) (*Account, error) {
	df, err := GetDealFinance(q, in.DealID)
	if err == ErrNotFound {
		return nil, validationf("deal %d has no recognized commission document", in.DealID)
	}
	if err != nil {
		return nil, err
	}

	if in.Actor.OfficeID != 0 && df.OfficeID != 0 && in.Actor.OfficeID != df.OfficeID {
		return nil, ErrForbidden
	}

	account, err := GetAccount(q, in.AccountID)
	if err != nil {
		return nil, err
	}
	if !settlementTargetCategories[account.Category] {
		return nil, validationf("account %s (%s) cannot be settled directly", account.Code, account.Category)
	}

	origDebit, origCredit, err := accountEntryTotals(q, df.TransactionID, account.ID)
	if err != nil {
		return nil, err
	}
	if origDebit.Sign() == 0 && origCredit.Sign() == 0 {
		return nil, validationf("account %s does not appear in deal %d", account.Code, in.DealID)
	}

	received, paid, err := dealPaymentTotals(q, in.DealID, account.ID)
	if err != nil {
		return nil, err
	}

	// Overdraft guard, enforced against the side the commission document
	// originally opened: receipts against the receivable balance, payments
	// against the payable balance.
	if in.Direction == DirectionReceive && origDebit.Sign() > 0 {
		remaining := origDebit.Sub(received)
		if in.Amount.GreaterThan(remaining) {
			return nil, validationf("amount %s exceeds the remaining receivable balance %s of account %s",
				in.Amount, remaining, account.Code)
		}
	}
	if in.Direction == DirectionPay && origCredit.Sign() > 0 {
		remaining := origCredit.Sub(paid)
		if in.Amount.GreaterThan(remaining) {
			return nil, validationf("amount %s exceeds the remaining payable balance %s of account %s",
				in.Amount, remaining, account.Code)
		}
	}
	return account, nil
}

// PostDealSettlement records a settlement against one counterparty account
// of a recognized deal. Field agents may not post directly; they go through
// the pending workflow.
func (s *Service) PostDealSettlement(in SettlementInput) (*Payment, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if in.DealID <= 0 {
		return nil, validationf("deal id is required")
	}
	if in.Actor.IsAgent() {
		return nil, ErrForbidden
	}

	var payment *Payment
	err := s.conn.Transaction(func(tx *sql.Tx) error {
		account, err := s.checkDealSettlement(tx, in)
		if err != nil {
			return err
		}
		payment, err = s.postSettlementTx(tx, account, in)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Int64("deal_id", in.DealID).
		Int64("payment_id", payment.ID).
		Str("direction", string(in.Direction)).
		Str("amount", in.Amount.String()).
		Msg("deal settlement posted")
	return payment, nil
}

// PostAccountSettlement records a settlement against any counterparty
// account outside the context of a deal.
func (s *Service) PostAccountSettlement(in SettlementInput) (*Payment, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if in.Actor.IsAgent() {
		return nil, ErrForbidden
	}

	var payment *Payment
	err := s.conn.Transaction(func(tx *sql.Tx) error {
		account, err := GetAccount(tx, in.AccountID)
		if err != nil {
			return err
		}
		payment, err = s.postSettlementTx(tx, account, in)
		return err
	})
	if err != nil {
		return nil, err
	}
	return payment, nil
}

// JournalRow is one line of a manual journal document.
type JournalRow struct {
	AccountID   int64           `json:"account_id"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Description string          `json:"description"`
}

// PostManualJournal books a hand-written journal document. Rows are
// validated up front: each row carries exactly one side and the totals must
// balance before anything is written.
func (s *Service) PostManualJournal(date, description string, rows []JournalRow, actor Actor) (*Document, error) {
	if actor.IsAgent() {
		return nil, ErrForbidden
	}
	if len(rows) < 2 {
		return nil, validationf("a journal document needs at least two rows")
	}

	totalDebit, totalCredit := decimal.Zero, decimal.Zero
	for i, r := range rows {
		if r.AccountID <= 0 {
			return nil, validationf("row %d: account id is required", i+1)
		}
		if r.Debit.Sign() < 0 || r.Credit.Sign() < 0 {
			return nil, validationf("row %d: amounts must not be negative", i+1)
		}
		if r.Debit.Sign() > 0 && r.Credit.Sign() > 0 {
			return nil, validationf("row %d: a row cannot carry both a debit and a credit", i+1)
		}
		if r.Debit.Sign() == 0 && r.Credit.Sign() == 0 {
			return nil, validationf("row %d: a row must carry a debit or a credit", i+1)
		}
		totalDebit = totalDebit.Add(r.Debit)
		totalCredit = totalCredit.Add(r.Credit)
	}
	if !totalDebit.Equal(totalCredit) {
		return nil, validationf("journal does not balance: debit %s, credit %s", totalDebit, totalCredit)
	}

	docDate := dates.Format(dates.Parse(date, time.Now()))
	if description == "" {
		description = "Manual journal document"
	}

	var doc *Document
	err := s.conn.Transaction(func(tx *sql.Tx) error {
		txID, err := insertTransaction(tx, description, docDate)
		if err != nil {
			return err
		}
		for _, r := range rows {
			if _, err := GetAccount(tx, r.AccountID); err != nil {
				return err
			}
			if _, err := insertEntry(tx, txID, r.AccountID, r.Debit, r.Credit, r.Description); err != nil {
				return err
			}
		}
		if err := assertBalanced(tx, txID); err != nil {
			return err
		}

		number, err := nextDocumentNumber(tx, DocTypeJournal)
		if err != nil {
			return err
		}
		doc = &Document{
			DocType:       DocTypeJournal,
			Number:        number,
			Date:          docDate,
			Description:   description,
			TransactionID: txID,
		}
		doc.ID, err = insertDocument(tx, doc)
		return err
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// VoucherInput describes a receipt or payment voucher: a numbered document
// wrapping a single settlement.
type VoucherInput struct {
	AccountID   int64
	Amount      decimal.Decimal
	Date        string
	Method      string
	Description string
	ReceiptKey  string
	Actor       Actor
}

// PostReceiptDocument books a receipt voucher: cash received from the
// account holder. The document and its settlement commit together.
func (s *Service) PostReceiptDocument(in VoucherInput) (*Payment, *Document, error) {
	return s.postVoucher(DocTypeReceipt, DirectionReceive, in)
}

// PostPaymentDocument books a payment voucher: cash paid to the account
// holder.
func (s *Service) PostPaymentDocument(in VoucherInput) (*Payment, *Document, error) {
	return s.postVoucher(DocTypePayment, DirectionPay, in)
}

func (s *Service) postVoucher(docType DocType, direction Direction, in VoucherInput) (*Payment, *Document, error) {
	if in.Actor.IsAgent() {
		return nil, nil, ErrForbidden
	}
	settle := SettlementInput{
		AccountID:   in.AccountID,
		Amount:      in.Amount,
		Direction:   direction,
		Date:        in.Date,
		Method:      in.Method,
		Description: in.Description,
		ReceiptKey:  in.ReceiptKey,
		Actor:       in.Actor,
	}
	if err := settle.validate(); err != nil {
		return nil, nil, err
	}

	docDate := dates.Format(dates.Parse(in.Date, time.Now()))

	var payment *Payment
	var doc *Document
	err := s.conn.Transaction(func(tx *sql.Tx) error {
		account, err := GetAccount(tx, in.AccountID)
		if err != nil {
			return err
		}

		number, err := nextDocumentNumber(tx, docType)
		if err != nil {
			return err
		}
		description := in.Description
		if description == "" {
			if direction == DirectionReceive {
				description = fmt.Sprintf("Receipt from %s", account.Name)
			} else {
				description = fmt.Sprintf("Payment to %s", account.Name)
			}
		}
		doc = &Document{
			DocType:     docType,
			Number:      number,
			Date:        docDate,
			Description: description,
		}
		doc.ID, err = insertDocument(tx, doc)
		if err != nil {
			return err
		}

		settle.DocumentID = doc.ID
		payment, err = s.postSettlementTx(tx, account, settle)
		if err != nil {
			return err
		}

		doc.TransactionID = payment.TransactionID
		_, err = tx.Exec(`UPDATE accounting_documents SET transaction_id = ? WHERE id = ?`,
			payment.TransactionID, doc.ID)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return payment, doc, nil
}

// RepairRevenueShortfall backfills missing commission revenue on a deal's
// recognition transaction: when client receivable debits exceed the booked
// revenue credits, a single credit entry for the difference is added.
// Idempotent; a balanced document is left untouched.
func (s *Service) RepairRevenueShortfall(dealID int64) error {
	return s.conn.Transaction(func(tx *sql.Tx) error {
		df, err := GetDealFinance(tx, dealID)
		if err != nil {
			return err
		}
		revenue, err := GetAccountByCode(tx, "410101")
		if err != nil {
			return err
		}

		rows, err := tx.Query(
			`SELECT a.id, a.category, e.debit, e.credit
			 FROM ledger_entries e JOIN accounts a ON a.id = e.account_id
			 WHERE e.transaction_id = ?`, df.TransactionID)
		if err != nil {
			return err
		}
		defer rows.Close()

		clientDebit, revenueCredit := decimal.Zero, decimal.Zero
		for rows.Next() {
			var accountID int64
			var category, debitStr, creditStr string
			if err := rows.Scan(&accountID, &category, &debitStr, &creditStr); err != nil {
				return err
			}
			debit, err := scanDecimal(debitStr)
			if err != nil {
				return err
			}
			credit, err := scanDecimal(creditStr)
			if err != nil {
				return err
			}
			if AccountCategory(category) == CategoryReceivableClient {
				clientDebit = clientDebit.Add(debit)
			}
			if accountID == revenue.ID {
				revenueCredit = revenueCredit.Add(credit)
			}
		}
		if err := rows.Err(); err != nil {
			return err
		}

		missing := clientDebit.Sub(revenueCredit)
		if missing.Sign() <= 0 {
			return nil
		}

		_, err = insertEntry(tx, df.TransactionID, revenue.ID, decimal.Zero, missing,
			fmt.Sprintf("Commission revenue correction for deal %d", dealID))
		if err != nil {
			return err
		}

		s.log.Warn().
			Int64("deal_id", dealID).
			Str("missing", missing.String()).
			Msg("revenue shortfall repaired")
		return nil
	})
}
