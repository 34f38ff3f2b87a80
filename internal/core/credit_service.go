package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// CreditService tracks goods issued to a group on credit (a "product taken" entry):
// stock leaves the ledger immediately, the money follows later through partial
// payments and partial returns. Entries are running receivables and are never
// deleted automatically.
type CreditService interface {
	// Issue deducts the quantity from stock and opens a receivable entry with
	// nothing paid. Fails with ErrInsufficientStock; no entry is created then.
	Issue(ctx context.Context, input IssueCreditInput) (*ProductTaken, error)

	// Pay applies a payment against the entry. The fully-paid flag flips at
	// paid ≥ total exactly — no rounding tolerance here, unlike remark payments.
	Pay(ctx context.Context, entryID int, amount decimal.Decimal) (*ProductTaken, error)

	// Return takes back part of the issued goods: restocks the quantity, refunds
	// pro rata against the entry's total price, and floors both the recorded
	// quantity and price at zero. The returned quantity is not capped at the
	// entry's remaining quantity.
	Return(ctx context.Context, entryID, typeQty, pieceQty int) (*ProductTaken, error)

	// ListOutstanding returns the group's entries that are not fully paid.
	ListOutstanding(ctx context.Context, groupID int) ([]ProductTaken, error)
}

type IssueCreditInput struct {
	GroupID    int
	ProductID  int
	TypeQty    int
	PieceQty   int
	TotalPrice decimal.Decimal
	Date       string // YYYY-MM-DD, empty means today
}

type creditService struct {
	pool  *pgxpool.Pool
	stock StockService
}

func NewCreditService(pool *pgxpool.Pool, stock StockService) CreditService {
	return &creditService{pool: pool, stock: stock}
}

func (s *creditService) Issue(ctx context.Context, input IssueCreditInput) (*ProductTaken, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var productName string
	if err := tx.QueryRow(ctx,
		"SELECT name FROM products WHERE id = $1", input.ProductID).Scan(&productName); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("product %d: %w", input.ProductID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to resolve product: %w", err)
	}

	if err := s.stock.CreditIssueTx(ctx, tx, input.ProductID, input.TypeQty, input.PieceQty); err != nil {
		return nil, fmt.Errorf("credit issue: %w", err)
	}

	var entry ProductTaken
	err = tx.QueryRow(ctx, `
		INSERT INTO products_taken (group_id, product_id, product_name, quantity, pieces, total_price, paid_amount, date)
		VALUES ($1, $2, $3, $4, $5, $6, 0, $7)
		RETURNING id, group_id, product_id, product_name, quantity, pieces, total_price, paid_amount, date::text, is_fully_paid
	`, input.GroupID, input.ProductID, productName,
		input.TypeQty, input.PieceQty, input.TotalPrice, paymentDate(input.Date)).Scan(
		&entry.ID, &entry.GroupID, &entry.ProductID, &entry.ProductName,
		&entry.TypeQty, &entry.PieceQty, &entry.TotalPrice, &entry.PaidAmount,
		&entry.Date, &entry.IsFullyPaid)
	if err != nil {
		return nil, fmt.Errorf("failed to create credit entry: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit credit issue: %w", err)
	}
	return &entry, nil
}

func (s *creditService) Pay(ctx context.Context, entryID int, amount decimal.Decimal) (*ProductTaken, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	entry, err := lockCreditEntryTx(ctx, tx, entryID)
	if err != nil {
		return nil, err
	}

	entry.PaidAmount = entry.PaidAmount.Add(amount)
	entry.IsFullyPaid = entry.PaidAmount.GreaterThanOrEqual(entry.TotalPrice)

	if _, err := tx.Exec(ctx,
		"UPDATE products_taken SET paid_amount = $1, is_fully_paid = $2 WHERE id = $3",
		entry.PaidAmount, entry.IsFullyPaid, entryID); err != nil {
		return nil, fmt.Errorf("failed to update credit payment: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit credit payment: %w", err)
	}
	return entry, nil
}

func (s *creditService) Return(ctx context.Context, entryID, typeQty, pieceQty int) (*ProductTaken, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	entry, err := lockCreditEntryTx(ctx, tx, entryID)
	if err != nil {
		return nil, err
	}

	var ratio int
	if err := tx.QueryRow(ctx,
		"SELECT pieces_per_quantity FROM products WHERE id = $1", entry.ProductID).Scan(&ratio); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("product %d: %w", entry.ProductID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to resolve product: %w", err)
	}
	if ratio <= 0 {
		ratio = 1
	}

	// Restore stock first; the return is accepted unconditionally.
	if err := s.stock.CreditReturnTx(ctx, tx, entry.ProductID, typeQty, pieceQty); err != nil {
		return nil, fmt.Errorf("credit return: %w", err)
	}

	// Pro-rata refund against the entry's original total.
	originalPieces := TotalPieces(entry.TypeQty, entry.PieceQty, ratio)
	if originalPieces == 0 {
		originalPieces = 1
	}
	pricePerPiece := entry.TotalPrice.Div(decimal.NewFromInt(int64(originalPieces)))

	returnedPieces := TotalPieces(typeQty, pieceQty, ratio)
	refund := pricePerPiece.Mul(decimal.NewFromInt(int64(returnedPieces)))

	entry.TotalPrice = entry.TotalPrice.Sub(refund)
	if entry.TotalPrice.IsNegative() {
		entry.TotalPrice = decimal.Zero
	}

	// Recorded quantity floors at zero — returning more than recorded is allowed
	// and simply empties the entry.
	remainingPieces := TotalPieces(entry.TypeQty, entry.PieceQty, ratio) - returnedPieces
	if remainingPieces < 0 {
		remainingPieces = 0
	}
	entry.TypeQty, entry.PieceQty = SplitPieces(remainingPieces, ratio)

	entry.IsFullyPaid = entry.PaidAmount.GreaterThanOrEqual(entry.TotalPrice)

	if _, err := tx.Exec(ctx, `
		UPDATE products_taken
		SET quantity = $1, pieces = $2, total_price = $3, is_fully_paid = $4
		WHERE id = $5
	`, entry.TypeQty, entry.PieceQty, entry.TotalPrice, entry.IsFullyPaid, entryID); err != nil {
		return nil, fmt.Errorf("failed to update credit entry: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit credit return: %w", err)
	}
	return entry, nil
}

func (s *creditService) ListOutstanding(ctx context.Context, groupID int) ([]ProductTaken, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT pt.id, pt.group_id, pt.product_id, pt.product_name,
		       pt.quantity, pt.pieces, pt.total_price, pt.paid_amount, pt.date::text, pt.is_fully_paid,
		       COALESCE(p.quantity_type, 'box'), COALESCE(p.pieces_per_quantity, 1)
		FROM products_taken pt
		LEFT JOIN products p ON p.id = pt.product_id
		WHERE pt.group_id = $1 AND pt.is_fully_paid = false
		ORDER BY pt.id
	`, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to query credit entries: %w", err)
	}
	defer rows.Close()

	var entries []ProductTaken
	for rows.Next() {
		var e ProductTaken
		if err := rows.Scan(&e.ID, &e.GroupID, &e.ProductID, &e.ProductName,
			&e.TypeQty, &e.PieceQty, &e.TotalPrice, &e.PaidAmount, &e.Date, &e.IsFullyPaid,
			&e.QuantityType, &e.PiecesPerType); err != nil {
			return nil, fmt.Errorf("failed to scan credit entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func lockCreditEntryTx(ctx context.Context, tx pgx.Tx, entryID int) (*ProductTaken, error) {
	var e ProductTaken
	err := tx.QueryRow(ctx, `
		SELECT id, group_id, product_id, product_name, quantity, pieces,
		       total_price, paid_amount, date::text, is_fully_paid
		FROM products_taken WHERE id = $1 FOR UPDATE
	`, entryID).Scan(&e.ID, &e.GroupID, &e.ProductID, &e.ProductName,
		&e.TypeQty, &e.PieceQty, &e.TotalPrice, &e.PaidAmount, &e.Date, &e.IsFullyPaid)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("credit entry %d: %w", entryID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to lock credit entry %d: %w", entryID, err)
	}
	return &e, nil
}
