package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"distributor-ledger/internal/app"
)

// Handler holds the ApplicationService and the chi router.
type Handler struct {
	svc    app.ApplicationService
	router chi.Router
}

// NewHandler creates and wires the chi router with all routes.
func NewHandler(svc app.ApplicationService, allowedOrigins string) http.Handler {
	h := &Handler{svc: svc}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger)
	r.Use(Recoverer)
	r.Use(CORS(allowedOrigins))
	r.Use(RequestBodyLimit(1 << 20)) // 1 MB

	r.Get("/api/health", h.health)

	// ── Groups ────────────────────────────────────────────────────────────────
	r.Post("/api/groups", h.createGroup)
	r.Get("/api/groups", h.listGroups)
	r.Delete("/api/groups/{id}", h.deleteGroup)

	// ── Products & stock ──────────────────────────────────────────────────────
	r.Post("/api/products", h.createProduct)
	r.Get("/api/products/{id}", h.getProduct)
	r.Delete("/api/products/{id}", h.deleteProduct)
	r.Put("/api/products/{id}/add", h.addStock)
	r.Put("/api/products/{id}/return", h.returnStock)
	r.Get("/api/products/group/{groupID}", h.listGroupProducts)
	r.Get("/api/products/group/{groupID}/history", h.groupHistory)

	// ── Daily sales ───────────────────────────────────────────────────────────
	r.Get("/api/sales/today/{groupID}", h.todaySale)
	r.Post("/api/sales/today", h.saveSale)
	r.Post("/api/sales/{id}/lock", h.lockSale)

	// ── Dues & credit entries ─────────────────────────────────────────────────
	r.Get("/api/total-due/groups", h.groupDues)
	r.Get("/api/total-due/{groupID}/commissions", h.groupCommissions)
	r.Get("/api/total-due/{groupID}/remarks", h.groupRemarks)
	r.Post("/api/total-due/remarks/{id}/pay", h.payRemark)
	r.Post("/api/total-due/{groupID}/pay", h.payGroupDue)
	r.Get("/api/total-due/{groupID}/product-taken", h.listCredit)
	r.Post("/api/total-due/product-taken", h.issueCredit)
	r.Post("/api/total-due/product-taken/{id}/pay", h.payCredit)
	r.Post("/api/total-due/product-taken/{id}/return", h.returnCredit)

	// ── Reports ───────────────────────────────────────────────────────────────
	r.Get("/api/reports/monthly/{groupID}", h.monthlySales)
	r.Get("/api/reports/yearly/{groupID}", h.yearlySales)
	r.Get("/api/reports/profit/daily/{date}", h.dailyProfit)
	r.Get("/api/reports/profit/lifetime", h.lifetimeProfit)
	r.Post("/api/reports/expense", h.addExpense)
	r.Post("/api/reports/target", h.setTarget)
	r.Get("/api/reports/target/{groupID}/{month}", h.getTarget)
	r.Get("/api/reports/dashboard", h.dashboard)
	r.Get("/api/reports/top-products", h.topProducts)

	h.router = r
	return r
}

// health reports service liveness.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	type response struct {
		Status string `json:"status"`
	}
	writeJSON(w, response{Status: "ok"})
}

// idParam extracts a numeric URL parameter; ok is false after an error response
// has already been written.
func idParam(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil {
		writeError(w, r, "invalid "+name+" parameter", "BAD_REQUEST", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// decodeJSON decodes the request body into v and returns false + writes an appropriate
// error response on failure. Returns HTTP 413 when the body exceeds the size limit set
// by RequestBodyLimit middleware; HTTP 400 for all other decode errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, "request body too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
			return false
		}
		writeError(w, r, "invalid JSON body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return false
	}
	return true
}
