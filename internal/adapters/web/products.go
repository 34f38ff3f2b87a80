package web

import (
	"net/http"

	"distributor-ledger/internal/app"
)

// createProduct handles POST /api/products.
// Body: { group_id, name, weight_value?, weight_type?, quantity_type?,
//         quantity_value, pieces_per_quantity, pieces_quantity,
//         buy_price, sell_price, sell_price_pieces }
func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req app.CreateProductRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	product, err := h.svc.CreateProduct(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeCreated(w, product)
}

// getProduct handles GET /api/products/{id}.
func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	product, err := h.svc.GetProduct(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, product)
}

// deleteProduct handles DELETE /api/products/{id}.
func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteProduct(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, map[string]string{"message": "product deleted"})
}

// addStock handles PUT /api/products/{id}/add.
// Body: { quantity_value, pieces_quantity, total_price, sell_price, sell_price_pieces }
func (h *Handler) addStock(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var req app.StockAdjustRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	product, err := h.svc.AddStock(r.Context(), id, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, product)
}

// returnStock handles PUT /api/products/{id}/return.
// Body: { quantity_value, pieces_quantity, total_price }
func (h *Handler) returnStock(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var req app.StockAdjustRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	product, err := h.svc.ReturnStock(r.Context(), id, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, product)
}

// listGroupProducts handles GET /api/products/group/{groupID}.
func (h *Handler) listGroupProducts(w http.ResponseWriter, r *http.Request) {
	groupID, ok := idParam(w, r, "groupID")
	if !ok {
		return
	}
	result, err := h.svc.ListGroupProducts(r.Context(), groupID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Products)
}

// groupHistory handles GET /api/products/group/{groupID}/history.
func (h *Handler) groupHistory(w http.ResponseWriter, r *http.Request) {
	groupID, ok := idParam(w, r, "groupID")
	if !ok {
		return
	}
	result, err := h.svc.GetGroupHistory(r.Context(), groupID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Entries)
}
