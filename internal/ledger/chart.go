package ledger

import (
	"fmt"

	"github.com/amlakplus/backoffice/internal/config"
)

// Base chart keys, stable across deployments. Display names can be
// customized per office through chart overrides, codes cannot.
const (
	KeyCashBank              = "cash_bank"
	KeyReceivablesClients    = "receivables_clients"
	KeyReceivablesConsultant = "receivables_consultants"
	KeyReceivablesOffices    = "receivables_offices"
	KeyReceivablesManagers   = "receivables_managers"
	KeyPayablesConsultants   = "payables_consultants"
	KeyPayablesPersons       = "payables_persons"
	KeyPayablesClients       = "payables_clients"
	KeyPayablesOffices       = "payables_offices"
	KeyPayablesManagers      = "payables_managers"
	KeyRevenueCommission     = "revenue_commission"
	KeyExpenseConsultant     = "expense_consultant_share"
	KeyExpenseManager        = "expense_manager_share"
)

// Entity types and roles recorded in the entity_accounts mapping.
const (
	entityClient     = "client"
	entityConsultant = "consultant"
	entityOffice     = "office"
	entityManager    = "manager"
	entityPerson     = "person"

	roleReceivable  = "receivable"
	rolePayable     = "payable"
	roleBookkeeping = "bookkeeping"
)

type baseAccountDef struct {
	key        string
	code       string
	name       string
	accType    AccountType
	category   AccountCategory
	parentCode string
}

var baseChartDefs = []baseAccountDef{
	{"", "1", "Assets", AccountTypeAsset, CategoryOther, ""},
	{"", "2", "Liabilities", AccountTypeLiability, CategoryOther, ""},
	{"", "4", "Income", AccountTypeIncome, CategoryOther, ""},
	{"", "5", "Expenses", AccountTypeExpense, CategoryOther, ""},

	{KeyCashBank, "110101", "Cash and banks", AccountTypeAsset, CategoryCashBank, "1"},
	{KeyReceivablesClients, "110201", "Commission receivable from clients", AccountTypeAsset, CategoryReceivableClient, "1"},
	{KeyReceivablesConsultant, "110302", "Receivable from consultants", AccountTypeAsset, CategoryReceivableConsultant, "1"},
	{KeyReceivablesOffices, "110403", "Receivable from offices", AccountTypeAsset, CategoryReceivableOffice, "1"},
	{KeyReceivablesManagers, "110504", "Receivable from managers", AccountTypeAsset, CategoryReceivableManager, "1"},

	{KeyPayablesConsultants, "210101", "Payable to consultants", AccountTypeLiability, CategoryPayableConsultant, "2"},
	{KeyPayablesPersons, "210201", "Payable to persons", AccountTypeLiability, CategoryPayablePerson, "2"},
	{KeyPayablesClients, "210301", "Payable to clients", AccountTypeLiability, CategoryPayableClient, "2"},
	{KeyPayablesOffices, "210401", "Payable to offices", AccountTypeLiability, CategoryPayableOffice, "2"},
	{KeyPayablesManagers, "210501", "Payable to managers", AccountTypeLiability, CategoryPayableManager, "2"},

	{KeyRevenueCommission, "410101", "Commission revenue", AccountTypeIncome, CategoryRevenueCommission, "4"},

	{KeyExpenseConsultant, "510101", "Consultant share expense", AccountTypeExpense, CategoryExpenseConsultant, "5"},
	{KeyExpenseManager, "510201", "Manager share expense", AccountTypeExpense, CategoryExpenseManager, "5"},
}

// Chart is the registry for the chart of accounts. It creates base and
// per-entity accounts idempotently; concurrent first-time creation resolves
// by first write wins, later callers read back the surviving row.
type Chart struct {
	overrides map[string]string
}

// NewChart builds a chart registry with optional display-name overrides.
func NewChart(overrides *config.ChartOverrides) *Chart {
	names := map[string]string{}
	if overrides != nil {
		for code, name := range overrides.Accounts {
			names[code] = name
		}
	}
	return &Chart{overrides: names}
}

// EnsureAccount returns the account with the given code, creating it when
// absent. The code is the identity: on a duplicate create the existing row
// wins and its attributes are kept unchanged.
func (c *Chart) EnsureAccount(q Queryer, code, name string, accType AccountType, category AccountCategory, parentID int64) (*Account, error) {
	if !accType.Valid() {
		return nil, validationf("unknown account type %q", accType)
	}
	if override, ok := c.overrides[code]; ok {
		name = override
	}
	var parent interface{}
	if parentID != 0 {
		parent = parentID
	}
	_, err := q.Exec(
		`INSERT INTO accounts (code, name, account_type, category, parent_id)
		 VALUES (?, ?, ?, ?, ?) ON CONFLICT(code) DO NOTHING`,
		code, name, string(accType), string(category), parent)
	if err != nil {
		return nil, err
	}
	return GetAccountByCode(q, code)
}

// SetupBaseChart ensures all base chart accounts exist and returns the leaf
// accounts keyed by their stable chart keys. Safe to call on every start.
func (c *Chart) SetupBaseChart(q Queryer) (map[string]*Account, error) {
	byCode := map[string]*Account{}
	base := map[string]*Account{}
	for _, def := range baseChartDefs {
		var parentID int64
		if def.parentCode != "" {
			parent, ok := byCode[def.parentCode]
			if !ok {
				return nil, fmt.Errorf("base chart parent %s not defined before %s", def.parentCode, def.code)
			}
			parentID = parent.ID
		}
		acc, err := c.EnsureAccount(q, def.code, def.name, def.accType, def.category, parentID)
		if err != nil {
			return nil, err
		}
		byCode[def.code] = acc
		if def.key != "" {
			base[def.key] = acc
		}
	}
	return base, nil
}

// entityCode builds the deterministic display code for an entity account.
// Small ids are zero-padded to four digits; larger ids are appended whole so
// codes stay injective within a prefix.
func entityCode(prefix string, id int64) string {
	if id < 10000 {
		return fmt.Sprintf("%s%04d", prefix, id)
	}
	return fmt.Sprintf("%s%d", prefix, id)
}

// ensureEntityAccount resolves an entity to its ledger account through the
// entity_accounts mapping, creating the account and the mapping on first
// use. The mapping is authoritative: once a row exists the stored account is
// returned regardless of how later display codes would be generated.
func (c *Chart) ensureEntityAccount(q Queryer, entityType, role string, entity Entity, prefix, nameFormat string, accType AccountType, category AccountCategory, parentCode string) (*Account, error) {
	if entity.ID <= 0 {
		return nil, validationf("%s id is required", entityType)
	}

	var accountID int64
	err := q.QueryRow(
		`SELECT account_id FROM entity_accounts WHERE entity_type = ? AND entity_id = ? AND role = ?`,
		entityType, entity.ID, role).Scan(&accountID)
	if err == nil {
		return GetAccount(q, accountID)
	}

	parent, err := GetAccountByCode(q, parentCode)
	if err != nil {
		return nil, fmt.Errorf("base chart is not initialized: %w", err)
	}

	name := fmt.Sprintf(nameFormat, fmtEntity(entity))
	acc, err := c.EnsureAccount(q, entityCode(prefix, entity.ID), name, accType, category, parent.ID)
	if err != nil {
		return nil, err
	}

	_, err = q.Exec(
		`INSERT OR IGNORE INTO entity_accounts (entity_type, entity_id, role, account_id)
		 VALUES (?, ?, ?, ?)`,
		entityType, entity.ID, role, acc.ID)
	if err != nil {
		return nil, err
	}

	// Re-read the mapping so a concurrent first writer wins.
	err = q.QueryRow(
		`SELECT account_id FROM entity_accounts WHERE entity_type = ? AND entity_id = ? AND role = ?`,
		entityType, entity.ID, role).Scan(&accountID)
	if err != nil {
		return nil, err
	}
	return GetAccount(q, accountID)
}

// EnsureClientReceivable returns the receivable account for a client.
func (c *Chart) EnsureClientReceivable(q Queryer, client Entity) (*Account, error) {
	return c.ensureEntityAccount(q, entityClient, roleReceivable, client,
		"12", "Receivable from client %s", AccountTypeAsset, CategoryReceivableClient, "110201")
}

// EnsureClientPayable returns the payable account for a client, used when
// the brokerage owes a client a refund or passthrough.
func (c *Chart) EnsureClientPayable(q Queryer, client Entity) (*Account, error) {
	return c.ensureEntityAccount(q, entityClient, rolePayable, client,
		"23", "Payable to client %s", AccountTypeLiability, CategoryPayableClient, "210301")
}

// EnsureConsultantPayable returns the payable account carrying a
// consultant's unpaid commission share.
func (c *Chart) EnsureConsultantPayable(q Queryer, consultant Entity) (*Account, error) {
	return c.ensureEntityAccount(q, entityConsultant, rolePayable, consultant,
		"22", "Payable to consultant %s", AccountTypeLiability, CategoryPayableConsultant, "210101")
}

// EnsureConsultantReceivable returns the receivable account for advances or
// charges against a consultant.
func (c *Chart) EnsureConsultantReceivable(q Queryer, consultant Entity) (*Account, error) {
	return c.ensureEntityAccount(q, entityConsultant, roleReceivable, consultant,
		"32", "Receivable from consultant %s", AccountTypeAsset, CategoryReceivableConsultant, "110302")
}

// EnsureOfficeAccounts returns the receivable and payable accounts for a
// cooperating office.
func (c *Chart) EnsureOfficeAccounts(q Queryer, office Entity) (receivable, payable *Account, err error) {
	receivable, err = c.ensureEntityAccount(q, entityOffice, roleReceivable, office,
		"14", "Receivable from office %s", AccountTypeAsset, CategoryReceivableOffice, "110403")
	if err != nil {
		return nil, nil, err
	}
	payable, err = c.ensureEntityAccount(q, entityOffice, rolePayable, office,
		"24", "Payable to office %s", AccountTypeLiability, CategoryPayableOffice, "210401")
	if err != nil {
		return nil, nil, err
	}
	return receivable, payable, nil
}

// EnsureManagerAccounts returns the receivable and payable accounts for an
// office manager.
func (c *Chart) EnsureManagerAccounts(q Queryer, manager Entity) (receivable, payable *Account, err error) {
	receivable, err = c.ensureEntityAccount(q, entityManager, roleReceivable, manager,
		"15", "Receivable from manager %s", AccountTypeAsset, CategoryReceivableManager, "110504")
	if err != nil {
		return nil, nil, err
	}
	payable, err = c.ensureEntityAccount(q, entityManager, rolePayable, manager,
		"25", "Payable to manager %s", AccountTypeLiability, CategoryPayableManager, "210501")
	if err != nil {
		return nil, nil, err
	}
	return receivable, payable, nil
}

// EnsurePersonalAccount returns the bookkeeping account for an arbitrary
// person outside the client/consultant roles.
func (c *Chart) EnsurePersonalAccount(q Queryer, person Entity) (*Account, error) {
	return c.ensureEntityAccount(q, entityPerson, roleBookkeeping, person,
		"29", "Personal account %s", AccountTypeLiability, CategoryPayablePerson, "210201")
}
