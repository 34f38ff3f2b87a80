package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// ── Report types ──────────────────────────────────────────────────────────────

type MonthlyReport struct {
	Sales      []DailySale     `json:"sales"`
	TotalSales decimal.Decimal `json:"total_sales"`
}

type MonthTotal struct {
	Month string          `json:"month"` // "01".."12"
	Total decimal.Decimal `json:"total"`
}

// ProfitReport values sold quantities at current sell prices (revenue) and at
// the blended cost basis (COGS), and nets recorded expenses.
type ProfitReport struct {
	Date        string          `json:"date,omitempty"`
	Revenue     decimal.Decimal `json:"revenue"`
	COGS        decimal.Decimal `json:"cogs"`
	GrossProfit decimal.Decimal `json:"gross_profit"`
	Expense     decimal.Decimal `json:"expense"`
	NetProfit   decimal.Decimal `json:"net_profit"`
	Expenses    []Expense       `json:"expenses_list,omitempty"`
}

type DashboardMetrics struct {
	TotalSellYear   decimal.Decimal `json:"total_sell_year"`
	TotalSellMonth  decimal.Decimal `json:"total_sell_month"`
	TotalProfitYear decimal.Decimal `json:"total_profit_year"`
	ProfitMonth     decimal.Decimal `json:"profit_month"`
	TotalDue        decimal.Decimal `json:"total_due"`
}

type TopProduct struct {
	Group string `json:"group"`
	Name  string `json:"name"`
	Sold  int    `json:"sold"` // total pieces sold
}

// ── Service ───────────────────────────────────────────────────────────────────

// ReportingService is the read side: sale rollups, profit figures, expenses,
// targets, and dashboard metrics. It is pure aggregation over committed rows
// and holds no stock or ledger invariants (expenses and targets excepted,
// which are standalone rows).
type ReportingService interface {
	MonthlySales(ctx context.Context, groupID, month, year int) (*MonthlyReport, error)
	YearlySales(ctx context.Context, groupID, year int) ([]MonthTotal, error)

	DailyProfit(ctx context.Context, date string) (*ProfitReport, error)
	LifetimeProfit(ctx context.Context) (*ProfitReport, error)

	AddExpense(ctx context.Context, description string, amount decimal.Decimal, date string) (*Expense, error)

	// SetMonthlyTarget upserts the group's target for a "YYYY-MM" month.
	SetMonthlyTarget(ctx context.Context, groupID int, month string, amount decimal.Decimal) (*MonthlyTarget, error)
	GetMonthlyTarget(ctx context.Context, groupID int, month string) (*MonthlyTarget, error)

	Dashboard(ctx context.Context) (*DashboardMetrics, error)
	TopProducts(ctx context.Context, limit int) ([]TopProduct, error)
}

type reportingService struct {
	pool *pgxpool.Pool
}

func NewReportingService(pool *pgxpool.Pool) ReportingService {
	return &reportingService{pool: pool}
}

func (s *reportingService) MonthlySales(ctx context.Context, groupID, month, year int) (*MonthlyReport, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, group_id, date::text, total_amount, cash_received, due, commission, status, is_locked
		FROM daily_sales
		WHERE group_id = $1
		  AND EXTRACT(MONTH FROM date) = $2
		  AND EXTRACT(YEAR FROM date) = $3
		ORDER BY date
	`, groupID, month, year)
	if err != nil {
		return nil, fmt.Errorf("failed to query monthly sales: %w", err)
	}
	defer rows.Close()

	report := &MonthlyReport{TotalSales: decimal.Zero}
	for rows.Next() {
		var sale DailySale
		if err := rows.Scan(&sale.ID, &sale.GroupID, &sale.Date, &sale.TotalAmount,
			&sale.CashReceived, &sale.Due, &sale.Commission, &sale.Status, &sale.IsLocked); err != nil {
			return nil, fmt.Errorf("failed to scan sale: %w", err)
		}
		report.TotalSales = report.TotalSales.Add(sale.TotalAmount)
		report.Sales = append(report.Sales, sale)
	}
	return report, nil
}

func (s *reportingService) YearlySales(ctx context.Context, groupID, year int) ([]MonthTotal, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT TO_CHAR(date, 'MM'), SUM(total_amount)
		FROM daily_sales
		WHERE group_id = $1 AND EXTRACT(YEAR FROM date) = $2
		GROUP BY TO_CHAR(date, 'MM')
		ORDER BY TO_CHAR(date, 'MM')
	`, groupID, year)
	if err != nil {
		return nil, fmt.Errorf("failed to query yearly sales: %w", err)
	}
	defer rows.Close()

	var totals []MonthTotal
	for rows.Next() {
		var mt MonthTotal
		if err := rows.Scan(&mt.Month, &mt.Total); err != nil {
			return nil, fmt.Errorf("failed to scan month total: %w", err)
		}
		totals = append(totals, mt)
	}
	return totals, nil
}

// salesProfit computes revenue and COGS for the sale items matched by the given
// daily_sales predicate. Items whose product has since been deleted contribute
// nothing, matching the history's treatment of orphaned lines.
func (s *reportingService) salesProfit(ctx context.Context, where string, args ...any) (revenue, cogs decimal.Decimal, err error) {
	err = s.pool.QueryRow(ctx, `
		SELECT
			COALESCE(SUM(si.sold_type_qty * p.sell_price_per_type + si.sold_piece_qty * p.sell_price_per_piece), 0),
			COALESCE(SUM((si.sold_type_qty * p.pieces_per_quantity + si.sold_piece_qty) * p.buy_price_avg), 0)
		FROM sale_items si
		JOIN daily_sales ds ON ds.id = si.daily_sale_id
		JOIN products p ON p.id = si.product_id
	`+where, args...).Scan(&revenue, &cogs)
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("failed to compute sales profit: %w", err)
	}
	return revenue, cogs, nil
}

func (s *reportingService) DailyProfit(ctx context.Context, date string) (*ProfitReport, error) {
	revenue, cogs, err := s.salesProfit(ctx, "WHERE ds.date = $1", date)
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx,
		"SELECT id, date::text, description, amount FROM expenses WHERE date = $1 ORDER BY id", date)
	if err != nil {
		return nil, fmt.Errorf("failed to query expenses: %w", err)
	}
	defer rows.Close()

	report := &ProfitReport{Date: date, Revenue: revenue, COGS: cogs, Expense: decimal.Zero}
	for rows.Next() {
		var e Expense
		if err := rows.Scan(&e.ID, &e.Date, &e.Description, &e.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		report.Expense = report.Expense.Add(e.Amount)
		report.Expenses = append(report.Expenses, e)
	}

	report.GrossProfit = revenue.Sub(cogs)
	report.NetProfit = report.GrossProfit.Sub(report.Expense)
	return report, nil
}

func (s *reportingService) LifetimeProfit(ctx context.Context) (*ProfitReport, error) {
	revenue, cogs, err := s.salesProfit(ctx, "")
	if err != nil {
		return nil, err
	}

	var expense decimal.Decimal
	if err := s.pool.QueryRow(ctx, "SELECT COALESCE(SUM(amount), 0) FROM expenses").Scan(&expense); err != nil {
		return nil, fmt.Errorf("failed to sum expenses: %w", err)
	}

	report := &ProfitReport{Revenue: revenue, COGS: cogs, Expense: expense}
	report.GrossProfit = revenue.Sub(cogs)
	report.NetProfit = report.GrossProfit.Sub(expense)
	return report, nil
}

func (s *reportingService) AddExpense(ctx context.Context, description string, amount decimal.Decimal, date string) (*Expense, error) {
	var e Expense
	err := s.pool.QueryRow(ctx, `
		INSERT INTO expenses (description, amount, date)
		VALUES ($1, $2, $3)
		RETURNING id, date::text, description, amount
	`, description, amount, paymentDate(date)).Scan(&e.ID, &e.Date, &e.Description, &e.Amount)
	if err != nil {
		return nil, fmt.Errorf("failed to insert expense: %w", err)
	}
	return &e, nil
}

func (s *reportingService) SetMonthlyTarget(ctx context.Context, groupID int, month string, amount decimal.Decimal) (*MonthlyTarget, error) {
	var t MonthlyTarget
	err := s.pool.QueryRow(ctx, `
		INSERT INTO monthly_targets (group_id, month, target_amount)
		VALUES ($1, $2, $3)
		ON CONFLICT (group_id, month) DO UPDATE SET target_amount = EXCLUDED.target_amount
		RETURNING id, group_id, month, target_amount
	`, groupID, month, amount).Scan(&t.ID, &t.GroupID, &t.Month, &t.TargetAmount)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert monthly target: %w", err)
	}
	return &t, nil
}

func (s *reportingService) GetMonthlyTarget(ctx context.Context, groupID int, month string) (*MonthlyTarget, error) {
	var t MonthlyTarget
	err := s.pool.QueryRow(ctx,
		"SELECT id, group_id, month, target_amount FROM monthly_targets WHERE group_id = $1 AND month = $2",
		groupID, month).Scan(&t.ID, &t.GroupID, &t.Month, &t.TargetAmount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// No target set yet: report a transient zero target rather than an error.
			return &MonthlyTarget{GroupID: groupID, Month: month, TargetAmount: decimal.Zero}, nil
		}
		return nil, fmt.Errorf("failed to fetch monthly target: %w", err)
	}
	return &t, nil
}

func (s *reportingService) Dashboard(ctx context.Context) (*DashboardMetrics, error) {
	m := &DashboardMetrics{}

	err := s.pool.QueryRow(ctx, `
		SELECT
			COALESCE(SUM(total_amount) FILTER (WHERE EXTRACT(YEAR FROM date) = EXTRACT(YEAR FROM CURRENT_DATE)), 0),
			COALESCE(SUM(total_amount) FILTER (WHERE date_trunc('month', date) = date_trunc('month', CURRENT_DATE)), 0)
		FROM daily_sales
	`).Scan(&m.TotalSellYear, &m.TotalSellMonth)
	if err != nil {
		return nil, fmt.Errorf("failed to compute sale totals: %w", err)
	}

	// Outstanding due across all groups: commissions and remarks net of payments.
	err = s.pool.QueryRow(ctx, `
		SELECT
			COALESCE((SELECT SUM(commission) FROM daily_sales), 0)
			- COALESCE((SELECT SUM(amount) FROM group_payments WHERE payment_type = 'commission'), 0)
			+ COALESCE((SELECT SUM(amount) FROM sale_remarks), 0)
			- COALESCE((SELECT SUM(amount) FROM group_payments WHERE payment_type = 'remark'), 0)
	`).Scan(&m.TotalDue)
	if err != nil {
		return nil, fmt.Errorf("failed to compute total due: %w", err)
	}

	_, yearCOGS, err := s.salesProfit(ctx,
		"WHERE EXTRACT(YEAR FROM ds.date) = EXTRACT(YEAR FROM CURRENT_DATE)")
	if err != nil {
		return nil, err
	}
	_, monthCOGS, err := s.salesProfit(ctx,
		"WHERE date_trunc('month', ds.date) = date_trunc('month', CURRENT_DATE)")
	if err != nil {
		return nil, err
	}

	var expenseYear, expenseMonth decimal.Decimal
	err = s.pool.QueryRow(ctx, `
		SELECT
			COALESCE(SUM(amount) FILTER (WHERE EXTRACT(YEAR FROM date) = EXTRACT(YEAR FROM CURRENT_DATE)), 0),
			COALESCE(SUM(amount) FILTER (WHERE date_trunc('month', date) = date_trunc('month', CURRENT_DATE)), 0)
		FROM expenses
	`).Scan(&expenseYear, &expenseMonth)
	if err != nil {
		return nil, fmt.Errorf("failed to compute expense totals: %w", err)
	}

	// Dashboard profit uses booked sale totals as revenue, not repriced items.
	m.TotalProfitYear = m.TotalSellYear.Sub(yearCOGS).Sub(expenseYear)
	m.ProfitMonth = m.TotalSellMonth.Sub(monthCOGS).Sub(expenseMonth)
	return m, nil
}

func (s *reportingService) TopProducts(ctx context.Context, limit int) ([]TopProduct, error) {
	if limit <= 0 {
		limit = 5
	}
	rows, err := s.pool.Query(ctx, `
		SELECT g.name, p.name,
		       COALESCE(SUM(si.sold_type_qty * p.pieces_per_quantity + si.sold_piece_qty), 0)
		FROM sale_items si
		JOIN products p ON p.id = si.product_id
		JOIN groups g ON g.id = p.group_id
		GROUP BY p.id, g.name, p.name
		ORDER BY 3 DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top products: %w", err)
	}
	defer rows.Close()

	var top []TopProduct
	for rows.Next() {
		var tp TopProduct
		if err := rows.Scan(&tp.Group, &tp.Name, &tp.Sold); err != nil {
			return nil, fmt.Errorf("failed to scan top product: %w", err)
		}
		top = append(top, tp)
	}
	return top, nil
}
