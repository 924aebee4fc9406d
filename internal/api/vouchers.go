package api

import (
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/amlakplus/backoffice/internal/ledger"
	"github.com/amlakplus/backoffice/internal/money"
	"github.com/amlakplus/backoffice/internal/receipts"
)

const maxReceiptSize = 10 << 20 // 10MB

// VouchersHandler handles receipt and payment voucher documents and serves
// uploaded receipt attachments.
type VouchersHandler struct {
	service *ledger.Service
	store   *receipts.Store
}

// NewVouchersHandler creates a new VouchersHandler.
func NewVouchersHandler(s *ledger.Service, store *receipts.Store) *VouchersHandler {
	return &VouchersHandler{service: s, store: store}
}

// voucherInput reads a voucher request. Both JSON-free multipart forms (with
// an optional receipt file) and plain form posts are accepted.
func (h *VouchersHandler) voucherInput(w http.ResponseWriter, r *http.Request) (ledger.VoucherInput, bool) {
	if err := r.ParseMultipartForm(maxReceiptSize); err != nil {
		if err := r.ParseForm(); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid_request", "Failed to parse form")
			return ledger.VoucherInput{}, false
		}
	}

	accountID, err := strconv.ParseInt(r.FormValue("account_id"), 10, 64)
	if err != nil || accountID <= 0 {
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "Invalid account_id")
		return ledger.VoucherInput{}, false
	}
	amount, err := money.ParsePositive(r.FormValue("amount"))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "Invalid amount: "+err.Error())
		return ledger.VoucherInput{}, false
	}

	in := ledger.VoucherInput{
		AccountID:   accountID,
		Amount:      amount,
		Date:        r.FormValue("date"),
		Method:      r.FormValue("method"),
		Description: r.FormValue("description"),
		Actor:       actorFrom(r),
	}

	if r.MultipartForm != nil {
		file, header, err := r.FormFile("receipt")
		if err == nil {
			defer file.Close()
			data, err := io.ReadAll(io.LimitReader(file, maxReceiptSize))
			if err != nil {
				writeJSONError(w, http.StatusBadRequest, "invalid_request", "Failed to read receipt file")
				return ledger.VoucherInput{}, false
			}
			key, err := h.store.Save(header.Filename, header.Header.Get("Content-Type"), data)
			if err != nil {
				writeJSONError(w, http.StatusInternalServerError, "server_error", "Failed to store receipt")
				return ledger.VoucherInput{}, false
			}
			in.ReceiptKey = key
		}
	}
	return in, true
}

// CreateReceipt handles POST /api/1/vouchers/receipts.
func (h *VouchersHandler) CreateReceipt(w http.ResponseWriter, r *http.Request) {
	in, ok := h.voucherInput(w, r)
	if !ok {
		return
	}

	payment, doc, err := h.service.PostReceiptDocument(in)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"payment":  payment,
		"document": doc,
	})
}

// CreatePayment handles POST /api/1/vouchers/payments.
func (h *VouchersHandler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	in, ok := h.voucherInput(w, r)
	if !ok {
		return
	}

	payment, doc, err := h.service.PostPaymentDocument(in)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"payment":  payment,
		"document": doc,
	})
}

// ServePaymentReceipt handles GET /api/1/payments/{id}/receipt.
func (h *VouchersHandler) ServePaymentReceipt(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(chi.URLParam(r, "id"))
	if !ok {
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "Invalid payment ID")
		return
	}

	payment, err := ledger.GetPayment(h.service.Conn(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if payment.ReceiptKey == "" {
		writeJSONError(w, http.StatusNotFound, "not_found", "Payment has no receipt")
		return
	}

	receipt, err := h.store.Get(payment.ReceiptKey)
	if err != nil {
		if err == receipts.ErrNotFound {
			writeJSONError(w, http.StatusNotFound, "not_found", "Receipt not found")
			return
		}
		writeJSONError(w, http.StatusInternalServerError, "server_error", "Failed to load receipt")
		return
	}

	contentType := receipt.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `inline; filename="`+receipt.FileName+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(receipt.Data)
}
