package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/amlakplus/backoffice/internal/ledger"
	"github.com/amlakplus/backoffice/internal/money"
)

// JournalsHandler handles manual journal documents and the document list.
type JournalsHandler struct {
	service *ledger.Service
}

// NewJournalsHandler creates a new JournalsHandler.
func NewJournalsHandler(s *ledger.Service) *JournalsHandler {
	return &JournalsHandler{service: s}
}

type journalRowRequest struct {
	AccountID   int64  `json:"account_id"`
	Debit       string `json:"debit"`
	Credit      string `json:"credit"`
	Description string `json:"description"`
}

type createJournalRequest struct {
	Date        string              `json:"date"`
	Description string              `json:"description"`
	Rows        []journalRowRequest `json:"rows"`
}

func parseJournalAmount(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return money.Parse(s)
}

// Create handles POST /api/1/journals.
func (h *JournalsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createJournalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Failed to parse request body")
		return
	}
	if len(req.Rows) == 0 {
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "Missing rows")
		return
	}

	rows := make([]ledger.JournalRow, 0, len(req.Rows))
	for i, row := range req.Rows {
		debit, err := parseJournalAmount(row.Debit)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid_parameter",
				"Invalid debit amount in row "+strconv.Itoa(i+1)+": "+err.Error())
			return
		}
		credit, err := parseJournalAmount(row.Credit)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid_parameter",
				"Invalid credit amount in row "+strconv.Itoa(i+1)+": "+err.Error())
			return
		}
		rows = append(rows, ledger.JournalRow{
			AccountID:   row.AccountID,
			Debit:       debit,
			Credit:      credit,
			Description: row.Description,
		})
	}

	doc, err := h.service.PostManualJournal(req.Date, req.Description, rows, actorFrom(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{"document": doc})
}

// ListDocuments handles GET /api/1/documents.
func (h *JournalsHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		n, err := strconv.Atoi(limitStr)
		if err != nil || n < 0 {
			writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "Invalid limit")
			return
		}
		limit = n
	}

	docs, err := ledger.ListDocuments(h.service.Conn(), limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"documents": docs})
}

// GetDocument handles GET /api/1/documents/{id}.
func (h *JournalsHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(chi.URLParam(r, "id"))
	if !ok {
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "Invalid document ID")
		return
	}

	doc, err := ledger.GetDocument(h.service.Conn(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response := map[string]interface{}{"document": doc}
	if doc.TransactionID != 0 {
		trx, err := ledger.GetTransaction(h.service.Conn(), doc.TransactionID)
		if err == nil {
			response["transaction"] = trx
		}
	}

	writeJSON(w, http.StatusOK, response)
}
