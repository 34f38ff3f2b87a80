package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"distributor-ledger/internal/app"
)

// monthlySales handles GET /api/reports/monthly/{groupID}?month=&year=.
// Month and year default to the current month.
func (h *Handler) monthlySales(w http.ResponseWriter, r *http.Request) {
	groupID, ok := idParam(w, r, "groupID")
	if !ok {
		return
	}
	now := time.Now()
	month := queryInt(r, "month", int(now.Month()))
	year := queryInt(r, "year", now.Year())

	report, err := h.svc.MonthlySalesReport(r.Context(), groupID, month, year)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, report)
}

// yearlySales handles GET /api/reports/yearly/{groupID}?year=.
func (h *Handler) yearlySales(w http.ResponseWriter, r *http.Request) {
	groupID, ok := idParam(w, r, "groupID")
	if !ok {
		return
	}
	year := queryInt(r, "year", time.Now().Year())

	result, err := h.svc.YearlySalesReport(r.Context(), groupID, year)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// dailyProfit handles GET /api/reports/profit/daily/{date}.
func (h *Handler) dailyProfit(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, "date")
	if _, err := time.Parse("2006-01-02", date); err != nil {
		writeError(w, r, "invalid date, expected YYYY-MM-DD", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	report, err := h.svc.DailyProfitReport(r.Context(), date)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, report)
}

// lifetimeProfit handles GET /api/reports/profit/lifetime.
func (h *Handler) lifetimeProfit(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.LifetimeProfitReport(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, report)
}

// addExpense handles POST /api/reports/expense.
// Body: { description, amount, date? }
func (h *Handler) addExpense(w http.ResponseWriter, r *http.Request) {
	var req app.ExpenseRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	expense, err := h.svc.AddExpense(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeCreated(w, expense)
}

// setTarget handles POST /api/reports/target.
// Body: { group_id, month, target_amount }
func (h *Handler) setTarget(w http.ResponseWriter, r *http.Request) {
	var req app.TargetRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	target, err := h.svc.SetMonthlyTarget(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, target)
}

// getTarget handles GET /api/reports/target/{groupID}/{month}.
func (h *Handler) getTarget(w http.ResponseWriter, r *http.Request) {
	groupID, ok := idParam(w, r, "groupID")
	if !ok {
		return
	}
	month := chi.URLParam(r, "month")
	target, err := h.svc.GetMonthlyTarget(r.Context(), groupID, month)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, target)
}

// dashboard handles GET /api/reports/dashboard.
func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	metrics, err := h.svc.Dashboard(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, metrics)
}

// topProducts handles GET /api/reports/top-products?limit=.
func (h *Handler) topProducts(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.TopProducts(r.Context(), queryInt(r, "limit", 5))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Products)
}

// queryInt reads an integer query parameter, falling back to def when absent
// or malformed.
func queryInt(r *http.Request, name string, def int) int {
	if v := r.URL.Query().Get(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
