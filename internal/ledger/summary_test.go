package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDealLedgerSummary(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.PostCommissionRecognition(sampleDeal(t, 1))
	require.NoError(t, err)

	buyer := clientAccount(t, svc, Entity{ID: 101, Name: "Buyer One"})
	_, err = svc.PostDealSettlement(SettlementInput{
		DealID:    1,
		AccountID: buyer.ID,
		Amount:    dec(t, "200"),
		Direction: DirectionReceive,
		Date:      "2024-08-01",
		Actor:     operator,
	})
	require.NoError(t, err)

	summary, err := DealLedgerSummary(svc.Conn(), 1)
	require.NoError(t, err)

	assert.True(t, summary.IsBalanced)
	assert.Equal(t, "1150", summary.TotalDebit.String())
	assert.Equal(t, "1150", summary.TotalCredit.String())

	rowByCode := map[string]LedgerRow{}
	for _, row := range summary.Rows {
		rowByCode[row.AccountCode] = row
	}

	buyerRow, ok := rowByCode[buyer.Code]
	require.True(t, ok)
	assert.Equal(t, "500", buyerRow.Debit.String())
	assert.Equal(t, "200", buyerRow.SettledAmount.String())
	assert.Equal(t, "300", buyerRow.RemainingAmount.String())
	assert.True(t, buyerRow.HasPayments)
	require.Len(t, buyerRow.Payments, 1)

	// Revenue settlement progress tracks client receipts, since revenue is
	// never settled directly.
	revenueRow, ok := rowByCode["410101"]
	require.True(t, ok)
	assert.Equal(t, "800", revenueRow.Credit.String())
	assert.Equal(t, "200", revenueRow.SettledAmount.String())
	assert.Equal(t, "600", revenueRow.RemainingAmount.String())

	// Client rows sort before consultant and manager rows.
	require.NotEmpty(t, summary.Rows)
	assert.Equal(t, CategoryReceivableClient, summary.Rows[0].Category)

	assert.Equal(t, "600", summary.ClientReceivableBalance.String())

	// Only counterparty accounts are offered as settlement targets.
	for _, da := range summary.DealAccounts {
		assert.NotEqual(t, CategoryRevenueCommission, da.Category)
		assert.NotEqual(t, CategoryExpenseConsultant, da.Category)
		assert.NotEqual(t, CategoryExpenseManager, da.Category)
	}
}

func TestDealLedgerSummaryRemainingNeverNegative(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.PostCommissionRecognition(sampleDeal(t, 1))
	require.NoError(t, err)

	// An out-of-band payment larger than the row balance must clamp to zero
	// instead of showing a negative remainder.
	buyer := clientAccount(t, svc, Entity{ID: 101, Name: "Buyer One"})
	_, err = svc.PostDealSettlement(SettlementInput{
		DealID:    1,
		AccountID: buyer.ID,
		Amount:    dec(t, "500"),
		Direction: DirectionReceive,
		Actor:     operator,
	})
	require.NoError(t, err)
	_, err = svc.Conn().Exec(
		`UPDATE account_payments SET amount = '700' WHERE deal_id = 1 AND account_id = ?`, buyer.ID)
	require.NoError(t, err)

	summary, err := DealLedgerSummary(svc.Conn(), 1)
	require.NoError(t, err)
	for _, row := range summary.Rows {
		if row.AccountCode == buyer.Code {
			assert.Equal(t, "0", row.RemainingAmount.String())
		}
	}
}

func TestDealLedgerSummaryLegacyRevenueDisplay(t *testing.T) {
	svc := newTestService(t)
	df, err := svc.PostCommissionRecognition(sampleDeal(t, 1))
	require.NoError(t, err)

	// Legacy documents sometimes carried no revenue credit at all. The
	// summary shows the client debit total in its place.
	revenue, err := GetAccountByCode(svc.Conn(), "410101")
	require.NoError(t, err)
	_, err = svc.Conn().Exec(
		`UPDATE ledger_entries SET credit = '0', debit = '0' WHERE transaction_id = ? AND account_id = ?`,
		df.TransactionID, revenue.ID)
	require.NoError(t, err)

	summary, err := DealLedgerSummary(svc.Conn(), 1)
	require.NoError(t, err)
	for _, row := range summary.Rows {
		if row.AccountCode == "410101" {
			assert.Equal(t, "800", row.Credit.String())
			assert.Equal(t, "800", row.RemainingAmount.String())
		}
	}
}

func TestAccountLedgerRunningBalance(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.PostCommissionRecognition(sampleDeal(t, 1))
	require.NoError(t, err)

	buyer := clientAccount(t, svc, Entity{ID: 101, Name: "Buyer One"})
	_, err = svc.PostDealSettlement(SettlementInput{
		DealID:    1,
		AccountID: buyer.ID,
		Amount:    dec(t, "200"),
		Direction: DirectionReceive,
		Date:      "2024-08-01",
		Actor:     operator,
	})
	require.NoError(t, err)

	statement, err := AccountLedger(svc.Conn(), buyer.ID, "", "")
	require.NoError(t, err)
	require.Len(t, statement.Rows, 2)
	assert.Equal(t, "500", statement.Rows[0].Balance.String())
	assert.Equal(t, "300", statement.Rows[1].Balance.String())
	assert.Equal(t, "300", statement.Balance.String())

	// Date filters bound the statement.
	filtered, err := AccountLedger(svc.Conn(), buyer.ID, "2024-08-01", "")
	require.NoError(t, err)
	require.Len(t, filtered.Rows, 1)
	assert.Equal(t, "2024-08-01", filtered.Rows[0].Date)
}

func TestOfficeFinanceReport(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.PostCommissionRecognition(sampleDeal(t, 1))
	require.NoError(t, err)

	deal2 := sampleDeal(t, 2)
	deal2.Splits = deal2.Splits[:1] // consultant only
	_, err = svc.PostCommissionRecognition(deal2)
	require.NoError(t, err)

	buyer := clientAccount(t, svc, Entity{ID: 101, Name: "Buyer One"})
	_, err = svc.PostDealSettlement(SettlementInput{
		DealID:    1,
		AccountID: buyer.ID,
		Amount:    dec(t, "100"),
		Direction: DirectionReceive,
		Actor:     operator,
	})
	require.NoError(t, err)

	report, err := BuildOfficeFinanceReport(svc.Conn(), 7, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, report.DealCount)
	assert.Equal(t, "1600", report.Revenue.String())
	assert.Equal(t, "400", report.ConsultantShare.String())
	assert.Equal(t, "150", report.ManagerShare.String())
	assert.Equal(t, "1050", report.NetMargin.String())
	require.Len(t, report.RecentPayments, 1)
	assert.Equal(t, "100", report.RecentPayments[0].Amount.String())

	// Another office sees nothing.
	other, err := BuildOfficeFinanceReport(svc.Conn(), 99, 0)
	require.NoError(t, err)
	assert.Zero(t, other.DealCount)
	assert.Equal(t, "0", other.Revenue.String())
}
