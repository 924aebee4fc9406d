package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/amlakplus/backoffice/internal/ledger"
)

// AccountsHandler handles chart-of-accounts endpoints.
type AccountsHandler struct {
	service *ledger.Service
}

// NewAccountsHandler creates a new AccountsHandler.
func NewAccountsHandler(s *ledger.Service) *AccountsHandler {
	return &AccountsHandler{service: s}
}

// List handles GET /api/1/accounts.
func (h *AccountsHandler) List(w http.ResponseWriter, r *http.Request) {
	accountType := ledger.AccountType(r.URL.Query().Get("type"))
	if accountType != "" && !accountType.Valid() {
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "Invalid account type")
		return
	}

	accounts, err := ledger.ListAccounts(h.service.Conn(), accountType)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"accounts": accounts})
}

// Get handles GET /api/1/accounts/{id}.
func (h *AccountsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(chi.URLParam(r, "id"))
	if !ok {
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "Invalid account ID")
		return
	}

	account, err := ledger.GetAccount(h.service.Conn(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	balance, err := ledger.AccountBalance(h.service.Conn(), account)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"account": account,
		"balance": balance,
	})
}

// Ledger handles GET /api/1/accounts/{id}/ledger.
func (h *AccountsHandler) Ledger(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(chi.URLParam(r, "id"))
	if !ok {
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "Invalid account ID")
		return
	}

	statement, err := ledger.AccountLedger(h.service.Conn(), id,
		r.URL.Query().Get("from"), r.URL.Query().Get("to"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, statement)
}
