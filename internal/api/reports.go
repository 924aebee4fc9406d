package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/amlakplus/backoffice/internal/ledger"
)

// ReportsHandler handles office-level finance reporting.
type ReportsHandler struct {
	service *ledger.Service
}

// NewReportsHandler creates a new ReportsHandler.
func NewReportsHandler(s *ledger.Service) *ReportsHandler {
	return &ReportsHandler{service: s}
}

// OfficeFinance handles GET /api/1/offices/{id}/finance.
func (h *ReportsHandler) OfficeFinance(w http.ResponseWriter, r *http.Request) {
	officeID, ok := urlID(chi.URLParam(r, "id"))
	if !ok {
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "Invalid office ID")
		return
	}

	actor := actorFrom(r)
	if actor.OfficeID != 0 && actor.OfficeID != officeID {
		writeJSONError(w, http.StatusForbidden, "forbidden", "Access to another office is not allowed")
		return
	}

	limit := 0
	if limitStr := r.URL.Query().Get("recent"); limitStr != "" {
		n, err := strconv.Atoi(limitStr)
		if err != nil || n < 0 {
			writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "Invalid recent limit")
			return
		}
		limit = n
	}

	report, err := ledger.BuildOfficeFinanceReport(h.service.Conn(), officeID, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, report)
}
