package ledger

import (
	"database/sql"
	"time"

	"github.com/amlakplus/backoffice/internal/dates"
)

const rejectionReasonLimit = 2000

// agentSettlementCategories are the only categories a field agent may
// propose settlements for. Consultant and manager payouts stay with the
// office staff.
var agentSettlementCategories = map[AccountCategory]bool{
	CategoryReceivableClient: true,
	CategoryPayableClient:    true,
}

// ProposeDealSettlement records a settlement proposed by a field agent. The
// proposal is validated exactly like a direct settlement but nothing touches
// the ledger until a reviewer approves it.
func (s *Service) ProposeDealSettlement(in SettlementInput) (*PendingPayment, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if in.DealID <= 0 {
		return nil, validationf("deal id is required")
	}

	var pending *PendingPayment
	err := s.conn.Transaction(func(tx *sql.Tx) error {
		account, err := s.checkDealSettlement(tx, in)
		if err != nil {
			return err
		}
		if in.Actor.IsAgent() && !agentSettlementCategories[account.Category] {
			return validationf("agents can only propose settlements for client accounts")
		}

		date := dates.Format(dates.Parse(in.Date, time.Now()))
		res, err := tx.Exec(
			`INSERT INTO pending_deal_payments
			 (deal_id, account_id, amount, direction, pay_date, method, description, receipt_key, created_by, created_by_name, status)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			in.DealID, account.ID, in.Amount.String(), string(in.Direction), date,
			in.Method, in.Description, in.ReceiptKey, in.Actor.ID, in.Actor.Name,
			string(PendingStatusPending))
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		pending = &PendingPayment{
			ID:            id,
			DealID:        in.DealID,
			AccountID:     account.ID,
			Amount:        in.Amount,
			Direction:     in.Direction,
			Date:          date,
			Method:        in.Method,
			Description:   in.Description,
			ReceiptKey:    in.ReceiptKey,
			CreatedBy:     in.Actor.ID,
			CreatedByName: in.Actor.Name,
			Status:        PendingStatusPending,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Int64("deal_id", in.DealID).
		Int64("pending_id", pending.ID).
		Msg("settlement proposed for review")
	return pending, nil
}

// ApprovePending applies an agent's proposed settlement to the ledger. The
// settlement posting and the status stamp commit in one atomic scope, so a
// proposal can never end up approved without its ledger effect or vice
// versa. Agents cannot approve, not even their own proposals.
func (s *Service) ApprovePending(pendingID int64, reviewer Actor) (*Payment, error) {
	if reviewer.IsAgent() {
		return nil, ErrForbidden
	}

	var payment *Payment
	err := s.conn.Transaction(func(tx *sql.Tx) error {
		pending, err := getPendingForUpdate(tx, pendingID)
		if err != nil {
			return err
		}
		if pending.Status != PendingStatusPending {
			return validationf("proposal %d is already %s", pendingID, pending.Status)
		}

		in := SettlementInput{
			DealID:      pending.DealID,
			AccountID:   pending.AccountID,
			Amount:      pending.Amount,
			Direction:   pending.Direction,
			Date:        pending.Date,
			Method:      pending.Method,
			Description: pending.Description,
			ReceiptKey:  pending.ReceiptKey,
			Actor:       reviewer,
		}
		account, err := s.checkDealSettlement(tx, in)
		if err != nil {
			return err
		}

		if doc, err := dealCommissionDocument(tx, pending.DealID); err != nil {
			return err
		} else if doc != nil {
			in.DocumentID = doc.ID
		}

		payment, err = s.postSettlementTx(tx, account, in)
		if err != nil {
			return err
		}

		_, err = tx.Exec(
			`UPDATE pending_deal_payments
			 SET status = ?, reviewed_by = ?, reviewed_at = ?, payment_id = ?
			 WHERE id = ?`,
			string(PendingStatusApproved), reviewer.ID, time.Now(), payment.ID, pendingID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Int64("pending_id", pendingID).
		Int64("payment_id", payment.ID).
		Int64("reviewed_by", reviewer.ID).
		Msg("pending settlement approved")
	return payment, nil
}

// RejectPending marks a proposal rejected with an optional reason. Rejection
// is terminal and never touches the ledger.
func (s *Service) RejectPending(pendingID int64, reviewer Actor, reason string) error {
	if reviewer.IsAgent() {
		return ErrForbidden
	}
	if len(reason) > rejectionReasonLimit {
		reason = reason[:rejectionReasonLimit]
	}

	err := s.conn.Transaction(func(tx *sql.Tx) error {
		pending, err := getPendingForUpdate(tx, pendingID)
		if err != nil {
			return err
		}
		if pending.Status != PendingStatusPending {
			return validationf("proposal %d is already %s", pendingID, pending.Status)
		}
		_, err = tx.Exec(
			`UPDATE pending_deal_payments
			 SET status = ?, reviewed_by = ?, reviewed_at = ?, rejection_reason = ?
			 WHERE id = ?`,
			string(PendingStatusRejected), reviewer.ID, time.Now(), reason, pendingID)
		return err
	})
	if err != nil {
		return err
	}

	s.log.Info().
		Int64("pending_id", pendingID).
		Int64("reviewed_by", reviewer.ID).
		Msg("pending settlement rejected")
	return nil
}

func getPendingForUpdate(q Queryer, id int64) (*PendingPayment, error) {
	row := q.QueryRow(
		`SELECT id, deal_id, account_id, amount, direction, pay_date, method, description,
		        receipt_key, created_by, created_by_name, created_at, status,
		        reviewed_by, reviewed_at, rejection_reason, payment_id
		 FROM pending_deal_payments WHERE id = ?`, id)
	return scanPending(row)
}

func scanPending(row *sql.Row) (*PendingPayment, error) {
	var p PendingPayment
	var amountStr string
	var createdBy, reviewedBy, paymentID sql.NullInt64
	var reviewedAt sql.NullTime
	err := row.Scan(&p.ID, &p.DealID, &p.AccountID, &amountStr, &p.Direction, &p.Date,
		&p.Method, &p.Description, &p.ReceiptKey, &createdBy, &p.CreatedByName,
		&p.CreatedAt, &p.Status, &reviewedBy, &reviewedAt, &p.RejectionReason, &paymentID)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if p.Amount, err = scanDecimal(amountStr); err != nil {
		return nil, err
	}
	p.CreatedBy = createdBy.Int64
	p.ReviewedBy = reviewedBy.Int64
	if reviewedAt.Valid {
		t := reviewedAt.Time
		p.ReviewedAt = &t
	}
	p.PaymentID = paymentID.Int64
	return &p, nil
}

// ListPendingByDeal returns a deal's proposals newest-first, optionally
// filtered by status.
func ListPendingByDeal(q Queryer, dealID int64, status PendingStatus) ([]PendingPayment, error) {
	query := `SELECT id, deal_id, account_id, amount, direction, pay_date, method, description,
	                 receipt_key, created_by, created_by_name, created_at, status,
	                 reviewed_by, reviewed_at, rejection_reason, payment_id
	          FROM pending_deal_payments WHERE deal_id = ?`
	args := []interface{}{dealID}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pendings []PendingPayment
	for rows.Next() {
		var p PendingPayment
		var amountStr string
		var createdBy, reviewedBy, paymentID sql.NullInt64
		var reviewedAt sql.NullTime
		if err := rows.Scan(&p.ID, &p.DealID, &p.AccountID, &amountStr, &p.Direction, &p.Date,
			&p.Method, &p.Description, &p.ReceiptKey, &createdBy, &p.CreatedByName,
			&p.CreatedAt, &p.Status, &reviewedBy, &reviewedAt, &p.RejectionReason, &paymentID); err != nil {
			return nil, err
		}
		if p.Amount, err = scanDecimal(amountStr); err != nil {
			return nil, err
		}
		p.CreatedBy = createdBy.Int64
		p.ReviewedBy = reviewedBy.Int64
		if reviewedAt.Valid {
			t := reviewedAt.Time
			p.ReviewedAt = &t
		}
		p.PaymentID = paymentID.Int64
		pendings = append(pendings, p)
	}
	return pendings, rows.Err()
}
