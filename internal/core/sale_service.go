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

// SaleService runs a group's daily point-of-sale session: a draft record per
// (group, date) that can be replaced any number of times, then locked exactly once.
// Stock is deducted only at lock time; saving a draft is pure arithmetic.
type SaleService interface {
	// SaveDraft creates or fully replaces the draft for (group, date): old items and
	// remarks are deleted and the submitted set re-inserted. Line prices are captured
	// from the product's current sell prices. The due chain is fixed:
	// due = total − cash; due −= remarks; commission = due.
	// Fails with ErrSaleLocked once the record is locked.
	SaveDraft(ctx context.Context, input SaveDraftInput) (*DailySale, error)

	// Lock finalizes the sale: consumes every item's sold quantity from stock in one
	// transaction (products locked in ascending id order) and marks the record
	// completed and immutable. All-or-nothing — one insufficient item aborts the lot.
	Lock(ctx context.Context, saleID int) (*DailySale, error)

	GetSale(ctx context.Context, saleID int) (*DailySale, error)
	// GetTodaySale returns the group's sale record for today's date.
	GetTodaySale(ctx context.Context, groupID int) (*DailySale, error)
}

type SaleItemInput struct {
	ProductID       int
	RequestTypeQty  int
	RequestPieceQty int
	ReturnTypeQty   int
	ReturnPieceQty  int
}

type RemarkInput struct {
	Comment string
	Amount  decimal.Decimal
}

type SaveDraftInput struct {
	GroupID      int
	Date         string // YYYY-MM-DD
	CashReceived decimal.Decimal
	Items        []SaleItemInput
	Remarks      []RemarkInput
}

type saleService struct {
	pool  *pgxpool.Pool
	stock StockService
}

func NewSaleService(pool *pgxpool.Pool, stock StockService) SaleService {
	return &saleService{pool: pool, stock: stock}
}

func (s *saleService) SaveDraft(ctx context.Context, input SaveDraftInput) (*DailySale, error) {
	if input.Date == "" {
		input.Date = time.Now().Format("2006-01-02")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var saleID int
	var locked bool
	err = tx.QueryRow(ctx,
		"SELECT id, is_locked FROM daily_sales WHERE group_id = $1 AND date = $2 FOR UPDATE",
		input.GroupID, input.Date,
	).Scan(&saleID, &locked)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		err = tx.QueryRow(ctx, `
			INSERT INTO daily_sales (group_id, date, cash_received, status)
			VALUES ($1, $2, $3, 'draft')
			RETURNING id
		`, input.GroupID, input.Date, input.CashReceived).Scan(&saleID)
		if err != nil {
			return nil, fmt.Errorf("failed to create daily sale: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("failed to fetch daily sale: %w", err)
	case locked:
		return nil, fmt.Errorf("sale for group %d on %s: %w", input.GroupID, input.Date, ErrSaleLocked)
	default:
		// Full replace: the form is submitted whole, so old lines are discarded.
		if _, err := tx.Exec(ctx, "DELETE FROM sale_items WHERE daily_sale_id = $1", saleID); err != nil {
			return nil, fmt.Errorf("failed to clear sale items: %w", err)
		}
		if _, err := tx.Exec(ctx, "DELETE FROM sale_remarks WHERE daily_sale_id = $1", saleID); err != nil {
			return nil, fmt.Errorf("failed to clear sale remarks: %w", err)
		}
	}

	totalAmount := decimal.Zero
	for _, item := range input.Items {
		var ratio int
		var sellPerType, sellPerPiece decimal.Decimal
		var productName string
		err := tx.QueryRow(ctx,
			"SELECT name, pieces_per_quantity, sell_price_per_type, sell_price_per_piece FROM products WHERE id = $1",
			item.ProductID,
		).Scan(&productName, &ratio, &sellPerType, &sellPerPiece)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, fmt.Errorf("product %d: %w", item.ProductID, ErrNotFound)
			}
			return nil, fmt.Errorf("failed to resolve product %d: %w", item.ProductID, err)
		}

		reqTotal := TotalPieces(item.RequestTypeQty, item.RequestPieceQty, ratio)
		retTotal := TotalPieces(item.ReturnTypeQty, item.ReturnPieceQty, ratio)
		soldTotal := reqTotal - retTotal
		if soldTotal < 0 {
			return nil, fmt.Errorf("%s: %w", productName, ErrInvalidReturn)
		}
		soldType, soldPiece := SplitPieces(soldTotal, ratio)

		linePrice := sellPerType.Mul(decimal.NewFromInt(int64(soldType))).
			Add(sellPerPiece.Mul(decimal.NewFromInt(int64(soldPiece))))
		totalAmount = totalAmount.Add(linePrice)

		if _, err := tx.Exec(ctx, `
			INSERT INTO sale_items (daily_sale_id, product_id,
				request_type_qty, request_piece_qty, return_type_qty, return_piece_qty,
				sold_type_qty, sold_piece_qty, price)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`, saleID, item.ProductID,
			item.RequestTypeQty, item.RequestPieceQty, item.ReturnTypeQty, item.ReturnPieceQty,
			soldType, soldPiece, linePrice); err != nil {
			return nil, fmt.Errorf("failed to insert sale item: %w", err)
		}
	}

	remarksTotal := decimal.Zero
	for _, remark := range input.Remarks {
		if _, err := tx.Exec(ctx, `
			INSERT INTO sale_remarks (daily_sale_id, comment, amount) VALUES ($1, $2, $3)
		`, saleID, remark.Comment, remark.Amount); err != nil {
			return nil, fmt.Errorf("failed to insert sale remark: %w", err)
		}
		remarksTotal = remarksTotal.Add(remark.Amount)
	}

	// Order matters: cash first, remarks second, and the remainder is the staff
	// commission claim.
	due := totalAmount.Sub(input.CashReceived)
	due = due.Sub(remarksTotal)
	commission := due

	if _, err := tx.Exec(ctx, `
		UPDATE daily_sales
		SET total_amount = $1, cash_received = $2, due = $3, commission = $4
		WHERE id = $5
	`, totalAmount, input.CashReceived, due, commission, saleID); err != nil {
		return nil, fmt.Errorf("failed to update daily sale totals: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit daily sale: %w", err)
	}
	return s.GetSale(ctx, saleID)
}

func (s *saleService) Lock(ctx context.Context, saleID int) (*DailySale, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var locked bool
	err = tx.QueryRow(ctx,
		"SELECT is_locked FROM daily_sales WHERE id = $1 FOR UPDATE", saleID).Scan(&locked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("sale %d: %w", saleID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch sale %d: %w", saleID, err)
	}
	if locked {
		return nil, fmt.Errorf("sale %d: %w", saleID, ErrSaleLocked)
	}

	// Ascending product id keeps the product-lock order fixed across concurrent
	// locks, so two multi-item locks cannot deadlock.
	rows, err := tx.Query(ctx, `
		SELECT product_id, sold_type_qty, sold_piece_qty
		FROM sale_items
		WHERE daily_sale_id = $1
		ORDER BY product_id
	`, saleID)
	if err != nil {
		return nil, fmt.Errorf("failed to query sale items: %w", err)
	}

	type soldLine struct {
		productID int
		typeQty   int
		pieceQty  int
	}
	var sold []soldLine
	for rows.Next() {
		var (
			productID *int
			l         soldLine
		)
		if err := rows.Scan(&productID, &l.typeQty, &l.pieceQty); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan sale item: %w", err)
		}
		// product_id goes NULL when the product is deleted; such a line has no
		// stock to consume, so the draft cannot be locked honestly.
		if productID == nil {
			rows.Close()
			return nil, fmt.Errorf("sale %d references a deleted product: %w", saleID, ErrNotFound)
		}
		l.productID = *productID
		sold = append(sold, l)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sale items: %w", err)
	}

	// One insufficient line rolls back every deduction made so far.
	for _, l := range sold {
		if err := s.stock.ConsumeTx(ctx, tx, l.productID, l.typeQty, l.pieceQty); err != nil {
			return nil, fmt.Errorf("lock sale %d: %w", saleID, err)
		}
	}

	if _, err := tx.Exec(ctx,
		"UPDATE daily_sales SET is_locked = true, status = 'completed' WHERE id = $1", saleID); err != nil {
		return nil, fmt.Errorf("failed to lock sale %d: %w", saleID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit sale lock: %w", err)
	}
	return s.GetSale(ctx, saleID)
}

// ── Queries ──────────────────────────────────────────────────────────────────

func (s *saleService) GetSale(ctx context.Context, saleID int) (*DailySale, error) {
	var sale DailySale
	err := s.pool.QueryRow(ctx, `
		SELECT id, group_id, date::text, total_amount, cash_received, due, commission, status, is_locked
		FROM daily_sales
		WHERE id = $1
	`, saleID).Scan(
		&sale.ID, &sale.GroupID, &sale.Date, &sale.TotalAmount, &sale.CashReceived,
		&sale.Due, &sale.Commission, &sale.Status, &sale.IsLocked,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("sale %d: %w", saleID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch sale %d: %w", saleID, err)
	}

	if err := s.loadSaleDetails(ctx, &sale); err != nil {
		return nil, err
	}
	return &sale, nil
}

func (s *saleService) GetTodaySale(ctx context.Context, groupID int) (*DailySale, error) {
	today := time.Now().Format("2006-01-02")

	var saleID int
	err := s.pool.QueryRow(ctx,
		"SELECT id FROM daily_sales WHERE group_id = $1 AND date = $2", groupID, today).Scan(&saleID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("no sale record for group %d today: %w", groupID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch today's sale: %w", err)
	}
	return s.GetSale(ctx, saleID)
}

func (s *saleService) loadSaleDetails(ctx context.Context, sale *DailySale) error {
	itemRows, err := s.pool.Query(ctx, `
		SELECT id, daily_sale_id, product_id,
		       request_type_qty, request_piece_qty, return_type_qty, return_piece_qty,
		       sold_type_qty, sold_piece_qty, price
		FROM sale_items
		WHERE daily_sale_id = $1
		ORDER BY id
	`, sale.ID)
	if err != nil {
		return fmt.Errorf("failed to query sale items: %w", err)
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var it SaleItem
		if err := itemRows.Scan(&it.ID, &it.DailySaleID, &it.ProductID,
			&it.RequestTypeQty, &it.RequestPieceQty, &it.ReturnTypeQty, &it.ReturnPieceQty,
			&it.SoldTypeQty, &it.SoldPieceQty, &it.Price); err != nil {
			return fmt.Errorf("failed to scan sale item: %w", err)
		}
		sale.Items = append(sale.Items, it)
	}

	remarkRows, err := s.pool.Query(ctx, `
		SELECT id, daily_sale_id, comment, amount, paid_amount, is_fully_paid
		FROM sale_remarks
		WHERE daily_sale_id = $1
		ORDER BY id
	`, sale.ID)
	if err != nil {
		return fmt.Errorf("failed to query sale remarks: %w", err)
	}
	defer remarkRows.Close()

	for remarkRows.Next() {
		var r SaleRemark
		if err := remarkRows.Scan(&r.ID, &r.DailySaleID, &r.Comment, &r.Amount,
			&r.PaidAmount, &r.IsFullyPaid); err != nil {
			return fmt.Errorf("failed to scan sale remark: %w", err)
		}
		sale.Remarks = append(sale.Remarks, r)
	}
	return nil
}
