package web

import (
	"net/http"

	"distributor-ledger/internal/app"
)

// groupDues handles GET /api/total-due/groups.
func (h *Handler) groupDues(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.GetGroupDues(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// groupCommissions handles GET /api/total-due/{groupID}/commissions.
func (h *Handler) groupCommissions(w http.ResponseWriter, r *http.Request) {
	groupID, ok := idParam(w, r, "groupID")
	if !ok {
		return
	}
	summary, err := h.svc.GetGroupCommissions(r.Context(), groupID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, summary)
}

// groupRemarks handles GET /api/total-due/{groupID}/remarks.
func (h *Handler) groupRemarks(w http.ResponseWriter, r *http.Request) {
	groupID, ok := idParam(w, r, "groupID")
	if !ok {
		return
	}
	summary, err := h.svc.GetGroupRemarks(r.Context(), groupID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, summary)
}

// payRemark handles POST /api/total-due/remarks/{id}/pay.
// Body: { group_id, amount, date? }
func (h *Handler) payRemark(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var req app.PayRemarkRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	remark, err := h.svc.PayRemark(r.Context(), id, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, remark)
}

// payGroupDue handles POST /api/total-due/{groupID}/pay.
// Body: { amount, payment_type, date? }
func (h *Handler) payGroupDue(w http.ResponseWriter, r *http.Request) {
	groupID, ok := idParam(w, r, "groupID")
	if !ok {
		return
	}
	var req app.PayGroupRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	payment, err := h.svc.PayGroupDue(r.Context(), groupID, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeCreated(w, payment)
}
