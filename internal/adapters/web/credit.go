package web

import (
	"net/http"

	"distributor-ledger/internal/app"
)

// listCredit handles GET /api/total-due/{groupID}/product-taken.
func (h *Handler) listCredit(w http.ResponseWriter, r *http.Request) {
	groupID, ok := idParam(w, r, "groupID")
	if !ok {
		return
	}
	result, err := h.svc.ListOutstandingCredit(r.Context(), groupID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Entries)
}

// issueCredit handles POST /api/total-due/product-taken.
// Body: { group_id, product_id, quantity_value, pieces_quantity, total_price, date? }
// Deducts stock immediately and opens a receivable entry with nothing paid.
func (h *Handler) issueCredit(w http.ResponseWriter, r *http.Request) {
	var req app.IssueCreditRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	entry, err := h.svc.IssueCredit(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeCreated(w, entry)
}

// payCredit handles POST /api/total-due/product-taken/{id}/pay.
// Body: { amount }
func (h *Handler) payCredit(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var req app.PayCreditRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	entry, err := h.svc.PayCredit(r.Context(), id, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, entry)
}

// returnCredit handles POST /api/total-due/product-taken/{id}/return.
// Body: { quantity_value, pieces_quantity }
func (h *Handler) returnCredit(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var req app.ReturnCreditRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	entry, err := h.svc.ReturnCredit(r.Context(), id, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, entry)
}
