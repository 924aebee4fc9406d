package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommissionRecognition(t *testing.T) {
	svc := newTestService(t)

	df, err := svc.PostCommissionRecognition(sampleDeal(t, 1))
	require.NoError(t, err)
	assert.Equal(t, int64(1), df.DealID)
	assert.Equal(t, int64(7), df.OfficeID)

	trx, err := GetTransaction(svc.Conn(), df.TransactionID)
	require.NoError(t, err)

	// Deal date 1403/05/01 is Jalali and converts to 22 July 2024.
	assert.Equal(t, "2024-07-22", trx.Date)

	assert.True(t, trx.IsBalanced())
	// 500 + 300 client lines, 200 consultant split, 150 aggregated manager.
	assert.Equal(t, "1150", trx.TotalDebit().String())
	assert.Equal(t, "1150", trx.TotalCredit().String())

	// Two client pairs, one consultant pair, one manager pair.
	assert.Len(t, trx.Entries, 8)

	// Manager splits collapse into a single pair for the total.
	managerExpense, err := GetAccountByCode(svc.Conn(), "510201")
	require.NoError(t, err)
	var managerEntries []Entry
	for _, e := range trx.Entries {
		if e.AccountID == managerExpense.ID {
			managerEntries = append(managerEntries, e)
		}
	}
	require.Len(t, managerEntries, 1)
	assert.Equal(t, "150", managerEntries[0].Debit.String())

	// Counterpart links are symmetric.
	byID := map[int64]Entry{}
	for _, e := range trx.Entries {
		byID[e.ID] = e
	}
	for _, e := range trx.Entries {
		require.NotZero(t, e.CounterpartID, "entry %d has no counterpart", e.ID)
		other, ok := byID[e.CounterpartID]
		require.True(t, ok)
		assert.Equal(t, e.ID, other.CounterpartID)
		if e.Debit.Sign() > 0 {
			assert.Equal(t, e.Debit.String(), other.Credit.String())
		} else {
			assert.Equal(t, e.Credit.String(), other.Debit.String())
		}
	}

	doc, err := dealCommissionDocument(svc.Conn(), 1)
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, "COM-1", doc.Number)
	assert.Equal(t, df.TransactionID, doc.TransactionID)
}

func TestCommissionRecognitionRevenueEqualsClientLines(t *testing.T) {
	svc := newTestService(t)

	df, err := svc.PostCommissionRecognition(sampleDeal(t, 1))
	require.NoError(t, err)

	revenue, err := GetAccountByCode(svc.Conn(), "410101")
	require.NoError(t, err)
	_, credit, err := accountEntryTotals(svc.Conn(), df.TransactionID, revenue.ID)
	require.NoError(t, err)
	assert.Equal(t, "800", credit.String())
}

func TestCommissionRecognitionDuplicateRejected(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.PostCommissionRecognition(sampleDeal(t, 1))
	require.NoError(t, err)

	_, err = svc.PostCommissionRecognition(sampleDeal(t, 1))
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestCommissionRecognitionRequiresLines(t *testing.T) {
	svc := newTestService(t)

	deal := DealInput{ID: 2, Office: Entity{ID: 7}}
	_, err := svc.PostCommissionRecognition(deal)
	require.Error(t, err)
	assert.True(t, IsValidation(err))
	assert.Zero(t, countRows(t, svc, "ledger_transactions"))
}

func TestCommissionRecognitionSkipsNonPositiveLines(t *testing.T) {
	svc := newTestService(t)

	deal := sampleDeal(t, 3)
	deal.ClientCommissions = append(deal.ClientCommissions, ClientCommission{
		Client: Entity{ID: 103, Name: "Zero"}, Role: ClientRoleBuyer, Amount: decimal.Zero,
	})
	df, err := svc.PostCommissionRecognition(deal)
	require.NoError(t, err)

	trx, err := GetTransaction(svc.Conn(), df.TransactionID)
	require.NoError(t, err)
	assert.Len(t, trx.Entries, 8)
	assert.True(t, trx.IsBalanced())
}

func TestManualJournal(t *testing.T) {
	svc := newTestService(t)

	cash, err := GetAccountByCode(svc.Conn(), "110101")
	require.NoError(t, err)
	revenue, err := GetAccountByCode(svc.Conn(), "410101")
	require.NoError(t, err)

	doc, err := svc.PostManualJournal("2024-02-01", "Opening entry", []JournalRow{
		{AccountID: cash.ID, Debit: dec(t, "1000")},
		{AccountID: revenue.ID, Credit: dec(t, "1000")},
	}, operator)
	require.NoError(t, err)
	assert.Equal(t, "JRN-000001", doc.Number)

	trx, err := GetTransaction(svc.Conn(), doc.TransactionID)
	require.NoError(t, err)
	assert.True(t, trx.IsBalanced())

	// Document numbers advance per type.
	doc2, err := svc.PostManualJournal("2024-02-02", "Second entry", []JournalRow{
		{AccountID: cash.ID, Debit: dec(t, "5")},
		{AccountID: revenue.ID, Credit: dec(t, "5")},
	}, operator)
	require.NoError(t, err)
	assert.Equal(t, "JRN-000002", doc2.Number)
}

func TestManualJournalRejectsUnbalancedRows(t *testing.T) {
	svc := newTestService(t)

	cash, err := GetAccountByCode(svc.Conn(), "110101")
	require.NoError(t, err)
	revenue, err := GetAccountByCode(svc.Conn(), "410101")
	require.NoError(t, err)

	before := countRows(t, svc, "ledger_transactions")
	_, err = svc.PostManualJournal("2024-02-01", "Broken", []JournalRow{
		{AccountID: cash.ID, Debit: dec(t, "1000")},
		{AccountID: revenue.ID, Credit: dec(t, "900")},
	}, operator)
	require.Error(t, err)
	assert.True(t, IsValidation(err))
	assert.Equal(t, before, countRows(t, svc, "ledger_transactions"))
}

func TestManualJournalRejectsTwoSidedRows(t *testing.T) {
	svc := newTestService(t)

	cash, err := GetAccountByCode(svc.Conn(), "110101")
	require.NoError(t, err)

	_, err = svc.PostManualJournal("2024-02-01", "Broken", []JournalRow{
		{AccountID: cash.ID, Debit: dec(t, "10"), Credit: dec(t, "10")},
		{AccountID: cash.ID, Debit: dec(t, "10")},
	}, operator)
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestManualJournalForbiddenForAgents(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.PostManualJournal("2024-02-01", "", []JournalRow{
		{AccountID: 1, Debit: dec(t, "10")},
		{AccountID: 2, Credit: dec(t, "10")},
	}, agent)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestRepairRevenueShortfall(t *testing.T) {
	svc := newTestService(t)

	df, err := svc.PostCommissionRecognition(sampleDeal(t, 1))
	require.NoError(t, err)

	revenue, err := GetAccountByCode(svc.Conn(), "410101")
	require.NoError(t, err)

	// Simulate a legacy document missing part of its revenue credit.
	_, err = svc.Conn().Exec(
		`DELETE FROM ledger_entries WHERE transaction_id = ? AND account_id = ? AND credit = '300'`,
		df.TransactionID, revenue.ID)
	require.NoError(t, err)

	require.NoError(t, svc.RepairRevenueShortfall(1))

	_, credit, err := accountEntryTotals(svc.Conn(), df.TransactionID, revenue.ID)
	require.NoError(t, err)
	assert.Equal(t, "800", credit.String())

	trx, err := GetTransaction(svc.Conn(), df.TransactionID)
	require.NoError(t, err)
	assert.True(t, trx.IsBalanced())

	// Repairing a healthy document changes nothing.
	entriesBefore := countRows(t, svc, "ledger_entries")
	require.NoError(t, svc.RepairRevenueShortfall(1))
	assert.Equal(t, entriesBefore, countRows(t, svc, "ledger_entries"))
}
