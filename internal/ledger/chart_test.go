package ledger

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amlakplus/backoffice/internal/config"
)

func TestSetupBaseChartIdempotent(t *testing.T) {
	svc := newTestService(t)

	before := countRows(t, svc, "accounts")
	require.NoError(t, svc.EnsureBaseChart())
	require.NoError(t, svc.EnsureBaseChart())
	assert.Equal(t, before, countRows(t, svc, "accounts"))

	cash, err := GetAccountByCode(svc.Conn(), "110101")
	require.NoError(t, err)
	assert.Equal(t, AccountTypeAsset, cash.Type)
	assert.Equal(t, CategoryCashBank, cash.Category)

	revenue, err := GetAccountByCode(svc.Conn(), "410101")
	require.NoError(t, err)
	assert.Equal(t, AccountTypeIncome, revenue.Type)
	assert.Equal(t, CategoryRevenueCommission, revenue.Category)
}

func TestEnsureAccountKeepsExistingRow(t *testing.T) {
	svc := newTestService(t)
	chart := svc.Chart()

	err := svc.Conn().Transaction(func(tx *sql.Tx) error {
		first, err := chart.EnsureAccount(tx, "990001", "Original name", AccountTypeAsset, CategoryOther, 0)
		require.NoError(t, err)

		second, err := chart.EnsureAccount(tx, "990001", "Different name", AccountTypeAsset, CategoryOther, 0)
		require.NoError(t, err)

		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, "Original name", second.Name)
		return nil
	})
	require.NoError(t, err)
}

func TestChartOverridesApplyOnCreate(t *testing.T) {
	overrides := &config.ChartOverrides{Accounts: map[string]string{
		"110101": "Main till",
	}}
	svc := newTestService(t)

	// The base chart already exists, so the override must not rename it.
	cash, err := GetAccountByCode(svc.Conn(), "110101")
	require.NoError(t, err)
	assert.Equal(t, "Cash and banks", cash.Name)

	// On a fresh database the override names the account at creation.
	fresh := newFreshServiceWithOverrides(t, overrides)
	cash, err = GetAccountByCode(fresh.Conn(), "110101")
	require.NoError(t, err)
	assert.Equal(t, "Main till", cash.Name)
}

func TestEntityAccountsAreStable(t *testing.T) {
	svc := newTestService(t)
	chart := svc.Chart()
	client := Entity{ID: 123, Name: "Jafari"}

	var firstID int64
	err := svc.Conn().Transaction(func(tx *sql.Tx) error {
		acc, err := chart.EnsureClientReceivable(tx, client)
		require.NoError(t, err)
		assert.Equal(t, "120123", acc.Code)
		assert.Equal(t, CategoryReceivableClient, acc.Category)
		firstID = acc.ID
		return nil
	})
	require.NoError(t, err)

	err = svc.Conn().Transaction(func(tx *sql.Tx) error {
		acc, err := chart.EnsureClientReceivable(tx, client)
		require.NoError(t, err)
		assert.Equal(t, firstID, acc.ID)
		return nil
	})
	require.NoError(t, err)
}

func TestEntityAccountCodesDoNotCollide(t *testing.T) {
	svc := newTestService(t)
	chart := svc.Chart()

	err := svc.Conn().Transaction(func(tx *sql.Tx) error {
		small, err := chart.EnsureClientReceivable(tx, Entity{ID: 1234, Name: "Small"})
		require.NoError(t, err)
		assert.Equal(t, "121234", small.Code)

		// A five-digit id keeps its full length instead of being truncated
		// onto another client's code.
		large, err := chart.EnsureClientReceivable(tx, Entity{ID: 12345, Name: "Large"})
		require.NoError(t, err)
		assert.Equal(t, "1212345", large.Code)
		assert.NotEqual(t, small.ID, large.ID)

		larger, err := chart.EnsureClientReceivable(tx, Entity{ID: 123456, Name: "Larger"})
		require.NoError(t, err)
		assert.Equal(t, "12123456", larger.Code)
		return nil
	})
	require.NoError(t, err)
}

func TestEntityAccountRolesAreSeparate(t *testing.T) {
	svc := newTestService(t)
	chart := svc.Chart()
	consultant := Entity{ID: 55, Name: "Consultant"}

	err := svc.Conn().Transaction(func(tx *sql.Tx) error {
		payable, err := chart.EnsureConsultantPayable(tx, consultant)
		require.NoError(t, err)
		assert.Equal(t, "220055", payable.Code)
		assert.Equal(t, AccountTypeLiability, payable.Type)

		receivable, err := chart.EnsureConsultantReceivable(tx, consultant)
		require.NoError(t, err)
		assert.Equal(t, "320055", receivable.Code)
		assert.Equal(t, AccountTypeAsset, receivable.Type)

		assert.NotEqual(t, payable.ID, receivable.ID)
		return nil
	})
	require.NoError(t, err)
}
