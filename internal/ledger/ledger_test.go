package ledger

import (
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/amlakplus/backoffice/internal/config"
	"github.com/amlakplus/backoffice/internal/db"
)

func newTestService(t *testing.T) *Service {
	t.Helper()

	conn, err := db.Open(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	svc := NewService(conn, NewChart(nil), zerolog.Nop())
	require.NoError(t, svc.EnsureBaseChart())
	return svc
}

func newFreshServiceWithOverrides(t *testing.T, overrides *config.ChartOverrides) *Service {
	t.Helper()

	conn, err := db.Open(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	svc := NewService(conn, NewChart(overrides), zerolog.Nop())
	require.NoError(t, svc.EnsureBaseChart())
	return svc
}

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

var (
	operator = Actor{ID: 10, Name: "Ops", Role: RoleOperator, OfficeID: 7}
	agent    = Actor{ID: 20, Name: "Agent", Role: RoleAgent, OfficeID: 7}
)

// sampleDeal covers both clients, a consultant split, and two manager splits
// that should aggregate into a single pair.
func sampleDeal(t *testing.T, id int64) DealInput {
	t.Helper()
	return DealInput{
		ID:     id,
		Date:   "1403/05/01",
		Office: Entity{ID: 7, Name: "Central Office"},
		ClientCommissions: []ClientCommission{
			{Client: Entity{ID: 101, Name: "Buyer One"}, Role: ClientRoleBuyer, Amount: dec(t, "500")},
			{Client: Entity{ID: 102, Name: "Seller One"}, Role: ClientRoleSeller, Amount: dec(t, "300")},
		},
		Splits: []Split{
			{Role: SplitRoleConsultant, Consultant: Entity{ID: 201, Name: "Consultant A"}, Amount: dec(t, "200")},
			{Role: SplitRoleManager, Consultant: Entity{ID: 301, Name: "Manager"}, Amount: dec(t, "100")},
			{Role: SplitRoleManager, Consultant: Entity{ID: 301, Name: "Manager"}, Amount: dec(t, "50")},
		},
	}
}

func countRows(t *testing.T, svc *Service, table string) int {
	t.Helper()
	var n int
	require.NoError(t, svc.Conn().QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}
