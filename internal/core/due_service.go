package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// remarkPaymentTolerance absorbs float rounding on remark payments. Credit-account
// payments deliberately use an exact comparison instead; the asymmetry is inherited
// ledger behavior and pinned by tests.
var remarkPaymentTolerance = decimal.NewFromFloat(0.01)

// DueService derives a group's outstanding balance from sale commissions and remarks,
// netted against the payment ledger. It stores no state of its own beyond the
// append-only group_payments rows; credit-account receivables are tracked separately
// and excluded from the aggregate.
type DueService interface {
	// GetGroupsTotalDue computes, per group:
	// (Σ commission − Σ payments[commission]) + (Σ remark amount − Σ payments[remark]).
	GetGroupsTotalDue(ctx context.Context) ([]GroupDue, error)

	GetGroupCommissions(ctx context.Context, groupID int) (*CommissionSummary, error)
	GetGroupRemarks(ctx context.Context, groupID int) (*RemarkSummary, error)

	// PayRemark applies a partial payment against one remark. Fails with
	// ErrOverPayment when paid + amount exceeds the remark amount beyond the
	// rounding tolerance; marks fully paid at paid ≥ amount − tolerance. Also
	// appends a remark-tagged GroupPayment so the aggregate due moves.
	PayRemark(ctx context.Context, remarkID, groupID int, amount decimal.Decimal, date string) (*SaleRemark, error)

	// PayGroup appends an uncapped payment against the group's aggregate due,
	// independent of any specific remark or sale.
	PayGroup(ctx context.Context, groupID int, amount decimal.Decimal, paymentType PaymentType, date string) (*GroupPayment, error)
}

type GroupDue struct {
	ID       int             `json:"id"`
	Name     string          `json:"name"`
	TotalDue decimal.Decimal `json:"total_due"`
}

type CommissionItem struct {
	Date    string          `json:"date"`
	DayName string          `json:"day_name"`
	Amount  decimal.Decimal `json:"amount"`
}

type CommissionSummary struct {
	TotalCommission     decimal.Decimal  `json:"total_commission"`
	PaidCommission      decimal.Decimal  `json:"paid_commission"`
	RemainingCommission decimal.Decimal  `json:"remaining_commission"`
	Items               []CommissionItem `json:"items"`
}

type RemarkItem struct {
	ID          int             `json:"id"`
	Date        string          `json:"date"`
	DayName     string          `json:"day_name"`
	Comment     string          `json:"comment"`
	Amount      decimal.Decimal `json:"amount"`
	PaidAmount  decimal.Decimal `json:"paid_amount"`
	IsFullyPaid bool            `json:"is_fully_paid"`
}

type RemarkSummary struct {
	TotalRemarks     decimal.Decimal `json:"total_remarks"`
	PaidRemarks      decimal.Decimal `json:"paid_remarks"`
	RemainingRemarks decimal.Decimal `json:"remaining_remarks"`
	Items            []RemarkItem    `json:"items"`
}

type dueService struct {
	pool *pgxpool.Pool
}

func NewDueService(pool *pgxpool.Pool) DueService {
	return &dueService{pool: pool}
}

func (s *dueService) GetGroupsTotalDue(ctx context.Context) ([]GroupDue, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT g.id, g.name,
		       COALESCE(c.total, 0) - COALESCE(pc.total, 0) + COALESCE(r.total, 0) - COALESCE(pr.total, 0)
		FROM groups g
		LEFT JOIN (
			SELECT group_id, SUM(commission) AS total FROM daily_sales GROUP BY group_id
		) c ON c.group_id = g.id
		LEFT JOIN (
			SELECT ds.group_id, SUM(sr.amount) AS total
			FROM sale_remarks sr
			JOIN daily_sales ds ON ds.id = sr.daily_sale_id
			GROUP BY ds.group_id
		) r ON r.group_id = g.id
		LEFT JOIN (
			SELECT group_id, SUM(amount) AS total FROM group_payments
			WHERE payment_type = 'commission' GROUP BY group_id
		) pc ON pc.group_id = g.id
		LEFT JOIN (
			SELECT group_id, SUM(amount) AS total FROM group_payments
			WHERE payment_type = 'remark' GROUP BY group_id
		) pr ON pr.group_id = g.id
		ORDER BY g.id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query group dues: %w", err)
	}
	defer rows.Close()

	var dues []GroupDue
	for rows.Next() {
		var d GroupDue
		if err := rows.Scan(&d.ID, &d.Name, &d.TotalDue); err != nil {
			return nil, fmt.Errorf("failed to scan group due: %w", err)
		}
		dues = append(dues, d)
	}
	return dues, nil
}

func (s *dueService) GetGroupCommissions(ctx context.Context, groupID int) (*CommissionSummary, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT date::text, commission
		FROM daily_sales
		WHERE group_id = $1 AND commission <> 0
		ORDER BY date DESC
	`, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to query commissions: %w", err)
	}
	defer rows.Close()

	summary := &CommissionSummary{
		TotalCommission: decimal.Zero,
		PaidCommission:  decimal.Zero,
	}
	for rows.Next() {
		var item CommissionItem
		if err := rows.Scan(&item.Date, &item.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan commission row: %w", err)
		}
		item.DayName = dayName(item.Date)
		summary.TotalCommission = summary.TotalCommission.Add(item.Amount)
		summary.Items = append(summary.Items, item)
	}

	paid, err := s.sumPayments(ctx, groupID, PaymentTypeCommission)
	if err != nil {
		return nil, err
	}
	summary.PaidCommission = paid
	summary.RemainingCommission = summary.TotalCommission.Sub(paid)
	return summary, nil
}

func (s *dueService) GetGroupRemarks(ctx context.Context, groupID int) (*RemarkSummary, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT sr.id, ds.date::text, sr.comment, sr.amount, sr.paid_amount, sr.is_fully_paid
		FROM sale_remarks sr
		JOIN daily_sales ds ON ds.id = sr.daily_sale_id
		WHERE ds.group_id = $1
		ORDER BY ds.date DESC
	`, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to query remarks: %w", err)
	}
	defer rows.Close()

	summary := &RemarkSummary{
		TotalRemarks: decimal.Zero,
		PaidRemarks:  decimal.Zero,
	}
	for rows.Next() {
		var item RemarkItem
		if err := rows.Scan(&item.ID, &item.Date, &item.Comment, &item.Amount,
			&item.PaidAmount, &item.IsFullyPaid); err != nil {
			return nil, fmt.Errorf("failed to scan remark row: %w", err)
		}
		item.DayName = dayName(item.Date)
		summary.TotalRemarks = summary.TotalRemarks.Add(item.Amount)
		summary.Items = append(summary.Items, item)
	}

	paid, err := s.sumPayments(ctx, groupID, PaymentTypeRemark)
	if err != nil {
		return nil, err
	}
	summary.PaidRemarks = paid
	summary.RemainingRemarks = summary.TotalRemarks.Sub(paid)
	return summary, nil
}

func (s *dueService) PayRemark(ctx context.Context, remarkID, groupID int, amount decimal.Decimal, date string) (*SaleRemark, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var r SaleRemark
	err = tx.QueryRow(ctx, `
		SELECT id, daily_sale_id, comment, amount, paid_amount, is_fully_paid
		FROM sale_remarks WHERE id = $1 FOR UPDATE
	`, remarkID).Scan(&r.ID, &r.DailySaleID, &r.Comment, &r.Amount, &r.PaidAmount, &r.IsFullyPaid)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("remark %d: %w", remarkID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to lock remark %d: %w", remarkID, err)
	}

	newPaid := r.PaidAmount.Add(amount)
	if newPaid.GreaterThan(r.Amount.Add(remarkPaymentTolerance)) {
		return nil, fmt.Errorf("remark %d: %w", remarkID, ErrOverPayment)
	}

	r.PaidAmount = newPaid
	r.IsFullyPaid = newPaid.GreaterThanOrEqual(r.Amount.Sub(remarkPaymentTolerance))

	if _, err := tx.Exec(ctx,
		"UPDATE sale_remarks SET paid_amount = $1, is_fully_paid = $2 WHERE id = $3",
		r.PaidAmount, r.IsFullyPaid, remarkID); err != nil {
		return nil, fmt.Errorf("failed to update remark payment: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO group_payments (group_id, amount, payment_type, date)
		VALUES ($1, $2, 'remark', $3)
	`, groupID, amount, paymentDate(date)); err != nil {
		return nil, fmt.Errorf("failed to record group payment: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit remark payment: %w", err)
	}
	return &r, nil
}

func (s *dueService) PayGroup(ctx context.Context, groupID int, amount decimal.Decimal, paymentType PaymentType, date string) (*GroupPayment, error) {
	var p GroupPayment
	err := s.pool.QueryRow(ctx, `
		INSERT INTO group_payments (group_id, amount, payment_type, date)
		VALUES ($1, $2, $3, $4)
		RETURNING id, group_id, amount, payment_type, date::text
	`, groupID, amount, paymentType, paymentDate(date)).Scan(
		&p.ID, &p.GroupID, &p.Amount, &p.PaymentType, &p.Date)
	if err != nil {
		return nil, fmt.Errorf("failed to record group payment: %w", err)
	}
	return &p, nil
}

func (s *dueService) sumPayments(ctx context.Context, groupID int, paymentType PaymentType) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := s.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0) FROM group_payments
		WHERE group_id = $1 AND payment_type = $2
	`, groupID, paymentType).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum %s payments: %w", paymentType, err)
	}
	return total, nil
}

func paymentDate(date string) string {
	if date == "" {
		return time.Now().Format("2006-01-02")
	}
	return date
}

func dayName(date string) string {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		return ""
	}
	return d.Weekday().String()
}
