package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/amlakplus/backoffice/internal/ledger"
	"github.com/amlakplus/backoffice/internal/money"
)

// DealsHandler handles deal ledger endpoints: commission recognition, the
// deal ledger summary, settlements, and the pending-approval workflow.
type DealsHandler struct {
	service *ledger.Service
}

// NewDealsHandler creates a new DealsHandler.
func NewDealsHandler(s *ledger.Service) *DealsHandler {
	return &DealsHandler{service: s}
}

type entityRequest struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func (e entityRequest) entity() ledger.Entity {
	return ledger.Entity{ID: e.ID, Name: e.Name}
}

type clientCommissionRequest struct {
	Client entityRequest `json:"client"`
	Role   string        `json:"role"`
	Amount string        `json:"amount"`
}

type splitRequest struct {
	Role       string        `json:"role"`
	Consultant entityRequest `json:"consultant"`
	Amount     string        `json:"amount"`
}

type recognizeRequest struct {
	Date              string                    `json:"date"`
	Office            entityRequest             `json:"office"`
	ClientCommissions []clientCommissionRequest `json:"client_commissions"`
	Splits            []splitRequest            `json:"splits"`
}

// Recognize handles POST /api/1/deals/{dealID}/ledger.
func (h *DealsHandler) Recognize(w http.ResponseWriter, r *http.Request) {
	dealID, ok := urlID(chi.URLParam(r, "dealID"))
	if !ok {
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "Invalid deal ID")
		return
	}

	var req recognizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Failed to parse request body")
		return
	}

	deal := ledger.DealInput{
		ID:     dealID,
		Date:   req.Date,
		Office: req.Office.entity(),
	}
	for _, cc := range req.ClientCommissions {
		amount, err := money.ParsePositive(cc.Amount)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "Invalid commission amount: "+err.Error())
			return
		}
		deal.ClientCommissions = append(deal.ClientCommissions, ledger.ClientCommission{
			Client: cc.Client.entity(),
			Role:   ledger.ClientRole(cc.Role),
			Amount: amount,
		})
	}
	for _, sp := range req.Splits {
		amount, err := money.ParsePositive(sp.Amount)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "Invalid split amount: "+err.Error())
			return
		}
		deal.Splits = append(deal.Splits, ledger.Split{
			Role:       ledger.SplitRole(sp.Role),
			Consultant: sp.Consultant.entity(),
			Amount:     amount,
		})
	}

	df, err := h.service.PostCommissionRecognition(deal)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{"deal_finance": df})
}

// Summary handles GET /api/1/deals/{dealID}/ledger.
func (h *DealsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	dealID, ok := urlID(chi.URLParam(r, "dealID"))
	if !ok {
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "Invalid deal ID")
		return
	}

	summary, err := ledger.DealLedgerSummary(h.service.Conn(), dealID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// Repair handles POST /api/1/deals/{dealID}/ledger/repair.
func (h *DealsHandler) Repair(w http.ResponseWriter, r *http.Request) {
	dealID, ok := urlID(chi.URLParam(r, "dealID"))
	if !ok {
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "Invalid deal ID")
		return
	}
	if actorFrom(r).IsAgent() {
		writeJSONError(w, http.StatusForbidden, "forbidden", "Agents cannot repair ledger documents")
		return
	}

	if err := h.service.RepairRevenueShortfall(dealID); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"repaired": true})
}

type settlementRequest struct {
	AccountID   int64  `json:"account_id"`
	Amount      string `json:"amount"`
	Direction   string `json:"direction"`
	Date        string `json:"date"`
	Method      string `json:"method"`
	Description string `json:"description"`
	ReceiptKey  string `json:"receipt_key"`
}

func (req *settlementRequest) input(dealID int64, actor ledger.Actor) (ledger.SettlementInput, error) {
	amount, err := money.ParsePositive(req.Amount)
	if err != nil {
		return ledger.SettlementInput{}, err
	}
	return ledger.SettlementInput{
		DealID:      dealID,
		AccountID:   req.AccountID,
		Amount:      amount,
		Direction:   ledger.Direction(req.Direction),
		Date:        req.Date,
		Method:      req.Method,
		Description: req.Description,
		ReceiptKey:  req.ReceiptKey,
		Actor:       actor,
	}, nil
}

// Settle handles POST /api/1/deals/{dealID}/payments. Field agents get a
// pending proposal; everyone else posts straight to the ledger.
func (h *DealsHandler) Settle(w http.ResponseWriter, r *http.Request) {
	dealID, ok := urlID(chi.URLParam(r, "dealID"))
	if !ok {
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "Invalid deal ID")
		return
	}

	var req settlementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Failed to parse request body")
		return
	}

	actor := actorFrom(r)
	in, err := req.input(dealID, actor)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "Invalid amount: "+err.Error())
		return
	}

	if actor.IsAgent() {
		pending, err := h.service.ProposeDealSettlement(in)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]interface{}{"pending_payment": pending})
		return
	}

	payment, err := h.service.PostDealSettlement(in)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"payment": payment})
}

// ListPending handles GET /api/1/deals/{dealID}/pending.
func (h *DealsHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	dealID, ok := urlID(chi.URLParam(r, "dealID"))
	if !ok {
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "Invalid deal ID")
		return
	}

	status := ledger.PendingStatus(r.URL.Query().Get("status"))
	pending, err := ledger.ListPendingByDeal(h.service.Conn(), dealID, status)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"pending_payments": pending})
}

// ApprovePending handles POST /api/1/deals/{dealID}/pending/{pendingID}/approve.
func (h *DealsHandler) ApprovePending(w http.ResponseWriter, r *http.Request) {
	pendingID, ok := urlID(chi.URLParam(r, "pendingID"))
	if !ok {
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "Invalid pending payment ID")
		return
	}

	payment, err := h.service.ApprovePending(pendingID, actorFrom(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"payment": payment})
}

type rejectRequest struct {
	RejectionReason string `json:"rejection_reason"`
}

// RejectPending handles POST /api/1/deals/{dealID}/pending/{pendingID}/reject.
func (h *DealsHandler) RejectPending(w http.ResponseWriter, r *http.Request) {
	pendingID, ok := urlID(chi.URLParam(r, "pendingID"))
	if !ok {
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "Invalid pending payment ID")
		return
	}

	var req rejectRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	if err := h.service.RejectPending(pendingID, actorFrom(r), req.RejectionReason); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"rejected": true})
}
