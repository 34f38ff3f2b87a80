package core_test

import (
	"context"
	"testing"

	"distributor-ledger/internal/core"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// setupReportingTestDB seeds one group and a 12-piece product at cost 8 per
// piece selling for 120 per carton, then saves three dated sales: two in
// March 2026 (totals 1200 and 600) and one in April (240).
func setupReportingTestDB(t *testing.T) (*pgxpool.Pool, core.ReportingService, int, context.Context) {
	t.Helper()
	pool := setupTestDB(t)
	ctx := context.Background()

	groupID := seedGroup(t, ctx, pool, "North Route")
	stock := core.NewStockService(pool)
	product := seedProduct(t, ctx, stock, groupID, "Soap", 12, 100,
		decimal.NewFromInt(8), decimal.NewFromInt(120), decimal.NewFromInt(11))

	sales := core.NewSaleService(pool, stock)
	for _, sale := range []struct {
		date    string
		cartons int
		cash    int64
	}{
		{"2026-03-05", 10, 1000},
		{"2026-03-20", 5, 600},
		{"2026-04-02", 2, 240},
	} {
		_, err := sales.SaveDraft(ctx, core.SaveDraftInput{
			GroupID:      groupID,
			Date:         sale.date,
			CashReceived: decimal.NewFromInt(sale.cash),
			Items: []core.SaleItemInput{
				{ProductID: product.ID, RequestTypeQty: sale.cartons},
			},
		})
		if err != nil {
			t.Fatalf("SaveDraft %s failed: %v", sale.date, err)
		}
	}

	return pool, core.NewReportingService(pool), groupID, ctx
}

func TestReporting_MonthlySales(t *testing.T) {
	pool, reports, groupID, ctx := setupReportingTestDB(t)
	defer pool.Close()

	report, err := reports.MonthlySales(ctx, groupID, 3, 2026)
	if err != nil {
		t.Fatalf("MonthlySales failed: %v", err)
	}
	if len(report.Sales) != 2 {
		t.Fatalf("Expected 2 March sales, got %d", len(report.Sales))
	}
	if !report.TotalSales.Equal(decimal.NewFromInt(1800)) {
		t.Errorf("Expected March total 1800, got %s", report.TotalSales)
	}

	empty, err := reports.MonthlySales(ctx, groupID, 7, 2026)
	if err != nil {
		t.Fatalf("MonthlySales failed: %v", err)
	}
	if len(empty.Sales) != 0 || !empty.TotalSales.IsZero() {
		t.Errorf("Expected empty July report, got %d sales / %s", len(empty.Sales), empty.TotalSales)
	}
}

func TestReporting_YearlySales(t *testing.T) {
	pool, reports, groupID, ctx := setupReportingTestDB(t)
	defer pool.Close()

	totals, err := reports.YearlySales(ctx, groupID, 2026)
	if err != nil {
		t.Fatalf("YearlySales failed: %v", err)
	}
	want := map[string]decimal.Decimal{
		"03": decimal.NewFromInt(1800),
		"04": decimal.NewFromInt(240),
	}
	if len(totals) != len(want) {
		t.Fatalf("Expected %d month rows, got %d", len(want), len(totals))
	}
	for _, mt := range totals {
		expected, ok := want[mt.Month]
		if !ok {
			t.Errorf("Unexpected month %q in yearly totals", mt.Month)
			continue
		}
		if !mt.Total.Equal(expected) {
			t.Errorf("Month %s: expected total %s, got %s", mt.Month, expected, mt.Total)
		}
	}
}

func TestReporting_DailyProfit(t *testing.T) {
	pool, reports, _, ctx := setupReportingTestDB(t)
	defer pool.Close()

	if _, err := reports.AddExpense(ctx, "fuel", decimal.NewFromInt(40), "2026-03-05"); err != nil {
		t.Fatalf("AddExpense failed: %v", err)
	}
	// Expense on another day must not leak into the report.
	if _, err := reports.AddExpense(ctx, "repairs", decimal.NewFromInt(999), "2026-03-06"); err != nil {
		t.Fatalf("AddExpense failed: %v", err)
	}

	report, err := reports.DailyProfit(ctx, "2026-03-05")
	if err != nil {
		t.Fatalf("DailyProfit failed: %v", err)
	}
	// 10 cartons at 120 revenue; 120 pieces at cost 8 is 960 COGS.
	if !report.Revenue.Equal(decimal.NewFromInt(1200)) {
		t.Errorf("Expected revenue 1200, got %s", report.Revenue)
	}
	if !report.COGS.Equal(decimal.NewFromInt(960)) {
		t.Errorf("Expected COGS 960, got %s", report.COGS)
	}
	if !report.GrossProfit.Equal(decimal.NewFromInt(240)) {
		t.Errorf("Expected gross profit 240, got %s", report.GrossProfit)
	}
	if !report.Expense.Equal(decimal.NewFromInt(40)) || len(report.Expenses) != 1 {
		t.Errorf("Expected one expense of 40, got %s (%d entries)", report.Expense, len(report.Expenses))
	}
	if !report.NetProfit.Equal(decimal.NewFromInt(200)) {
		t.Errorf("Expected net profit 200, got %s", report.NetProfit)
	}
}

func TestReporting_LifetimeProfit(t *testing.T) {
	pool, reports, _, ctx := setupReportingTestDB(t)
	defer pool.Close()

	if _, err := reports.AddExpense(ctx, "fuel", decimal.NewFromInt(100), "2026-03-05"); err != nil {
		t.Fatalf("AddExpense failed: %v", err)
	}

	report, err := reports.LifetimeProfit(ctx)
	if err != nil {
		t.Fatalf("LifetimeProfit failed: %v", err)
	}
	// 17 cartons sold in all: revenue 2040, COGS 204 pieces at 8 is 1632.
	if !report.Revenue.Equal(decimal.NewFromInt(2040)) {
		t.Errorf("Expected revenue 2040, got %s", report.Revenue)
	}
	if !report.COGS.Equal(decimal.NewFromInt(1632)) {
		t.Errorf("Expected COGS 1632, got %s", report.COGS)
	}
	if !report.NetProfit.Equal(decimal.NewFromInt(308)) {
		t.Errorf("Expected net profit 308, got %s", report.NetProfit)
	}
}

func TestReporting_MonthlyTargetUpsert(t *testing.T) {
	pool, reports, groupID, ctx := setupReportingTestDB(t)
	defer pool.Close()

	target, err := reports.GetMonthlyTarget(ctx, groupID, "2026-03")
	if err != nil {
		t.Fatalf("GetMonthlyTarget failed: %v", err)
	}
	if !target.TargetAmount.IsZero() {
		t.Errorf("Unset target must read as zero, got %s", target.TargetAmount)
	}

	if _, err := reports.SetMonthlyTarget(ctx, groupID, "2026-03", decimal.NewFromInt(5000)); err != nil {
		t.Fatalf("SetMonthlyTarget failed: %v", err)
	}
	// Setting again replaces the amount rather than adding a second row.
	target, err = reports.SetMonthlyTarget(ctx, groupID, "2026-03", decimal.NewFromInt(8000))
	if err != nil {
		t.Fatalf("SetMonthlyTarget failed: %v", err)
	}
	if !target.TargetAmount.Equal(decimal.NewFromInt(8000)) {
		t.Errorf("Expected target 8000 after upsert, got %s", target.TargetAmount)
	}

	target, err = reports.GetMonthlyTarget(ctx, groupID, "2026-03")
	if err != nil {
		t.Fatalf("GetMonthlyTarget failed: %v", err)
	}
	if !target.TargetAmount.Equal(decimal.NewFromInt(8000)) {
		t.Errorf("Expected stored target 8000, got %s", target.TargetAmount)
	}
}

func TestReporting_TopProducts(t *testing.T) {
	pool, reports, groupID, ctx := setupReportingTestDB(t)
	defer pool.Close()

	stock := core.NewStockService(pool)
	runner := seedProduct(t, ctx, stock, groupID, "Matches", 10, 100,
		decimal.NewFromInt(2), decimal.NewFromInt(30), decimal.NewFromInt(4))

	sales := core.NewSaleService(pool, stock)
	if _, err := sales.SaveDraft(ctx, core.SaveDraftInput{
		GroupID: groupID, Date: "2026-05-01", CashReceived: decimal.Zero,
		Items: []core.SaleItemInput{
			{ProductID: runner.ID, RequestTypeQty: 50},
		},
	}); err != nil {
		t.Fatalf("SaveDraft failed: %v", err)
	}

	top, err := reports.TopProducts(ctx, 2)
	if err != nil {
		t.Fatalf("TopProducts failed: %v", err)
	}
	if len(top) != 2 {
		t.Fatalf("Expected 2 top products, got %d", len(top))
	}
	// Matches moves 500 pieces against Soap's 204.
	if top[0].Name != "Matches" || top[0].Sold != 500 {
		t.Errorf("Expected Matches with 500 pieces first, got %+v", top[0])
	}
	if top[1].Name != "Soap" || top[1].Sold != 204 {
		t.Errorf("Expected Soap with 204 pieces second, got %+v", top[1])
	}
}

func TestReporting_Dashboard(t *testing.T) {
	pool, reports, groupID, ctx := setupReportingTestDB(t)
	defer pool.Close()

	dues := core.NewDueService(pool)
	if _, err := dues.PayGroup(ctx, groupID, decimal.NewFromInt(100),
		core.PaymentTypeCommission, "2026-03-10"); err != nil {
		t.Fatalf("PayGroup failed: %v", err)
	}

	metrics, err := reports.Dashboard(ctx)
	if err != nil {
		t.Fatalf("Dashboard failed: %v", err)
	}
	// Only the first sale carries a commission (due 200); net of the 100 paid.
	if !metrics.TotalDue.Equal(decimal.NewFromInt(100)) {
		t.Errorf("Expected total due 100, got %s", metrics.TotalDue)
	}
}
