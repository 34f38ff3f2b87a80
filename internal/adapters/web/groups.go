package web

import (
	"net/http"

	"distributor-ledger/internal/app"
)

// createGroup handles POST /api/groups.
// Body: { name }
func (h *Handler) createGroup(w http.ResponseWriter, r *http.Request) {
	var req app.CreateGroupRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	group, err := h.svc.CreateGroup(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeCreated(w, group)
}

// listGroups handles GET /api/groups.
func (h *Handler) listGroups(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListGroups(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Groups)
}

// deleteGroup handles DELETE /api/groups/{id}.
func (h *Handler) deleteGroup(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteGroup(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, map[string]string{"message": "group deleted"})
}
