package web

import (
	"net/http"

	"distributor-ledger/internal/app"
)

// todaySale handles GET /api/sales/today/{groupID}.
func (h *Handler) todaySale(w http.ResponseWriter, r *http.Request) {
	groupID, ok := idParam(w, r, "groupID")
	if !ok {
		return
	}
	sale, err := h.svc.GetTodaySale(r.Context(), groupID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, sale)
}

// saveSale handles POST /api/sales/today.
// Body: { group_id, date?, cash_received, items: [...], remarks: [...] }
// Creates or fully replaces the draft for (group, date). Stock is untouched
// until the sale is locked.
func (h *Handler) saveSale(w http.ResponseWriter, r *http.Request) {
	var req app.SaveSaleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	sale, err := h.svc.SaveDailySale(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, sale)
}

// lockSale handles POST /api/sales/{id}/lock.
func (h *Handler) lockSale(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	sale, err := h.svc.LockDailySale(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, sale)
}
