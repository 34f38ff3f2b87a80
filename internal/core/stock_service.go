package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// StockService is the ledger of product quantities and cost basis. Every mutation is
// a check-then-write executed under an exclusive lock on the product row, so a
// sufficiency check can never race a concurrent subtraction.
//
// Tx-scoped methods work within a caller-provided transaction; the sale workflow and
// the credit service use them to keep stock changes atomic with their own state.
type StockService interface {
	CreateProduct(ctx context.Context, input CreateProductInput) (*Product, error)
	GetProduct(ctx context.Context, productID int) (*Product, error)
	GetProductsByGroup(ctx context.Context, groupID int) ([]Product, error)
	DeleteProduct(ctx context.Context, productID int) error

	// AddStock records a purchase batch: blends the batch's total cost into the
	// moving-average cost per piece, adds the quantity, and overwrites sell prices
	// with the ones supplied in the transaction. Adding stock cannot fail on quantity.
	AddStock(ctx context.Context, productID int, input StockTransactionInput) (*Product, error)

	// ReturnToVendor removes a batch from stock at the supplied total refund value.
	// The refund value is blended out of the cost basis with signed deltas, so a
	// return priced off the blended cost shifts the remaining inventory's valuation.
	// Fails with ErrInsufficientStock when the batch exceeds current stock.
	ReturnToVendor(ctx context.Context, productID int, input StockTransactionInput) (*Product, error)

	// ConsumeTx deducts sold quantity within the caller's TX (sale lock time only).
	// Consumption never touches the cost basis.
	ConsumeTx(ctx context.Context, tx pgx.Tx, productID, typeQty, pieceQty int) error

	// CreditIssueTx / CreditReturnTx move stock out to and back from a group's
	// credit account. Same subtraction contract as ConsumeTx; returns re-normalize.
	CreditIssueTx(ctx context.Context, tx pgx.Tx, productID, typeQty, pieceQty int) error
	CreditReturnTx(ctx context.Context, tx pgx.Tx, productID, typeQty, pieceQty int) error

	GetGroupHistory(ctx context.Context, groupID int) ([]ProductHistory, error)
}

// CreateProductInput carries the fields for a new product. Initial quantity is
// normalized before insert.
type CreateProductInput struct {
	GroupID           int
	Name              string
	WeightType        string
	WeightValue       decimal.Decimal
	QuantityType      string
	TypeQty           int
	PiecesPerType     int
	PieceQty          int
	BuyPriceAvg       decimal.Decimal
	SellPricePerType  decimal.Decimal
	SellPricePerPiece decimal.Decimal
}

// StockTransactionInput describes one restock or vendor-return batch.
// TotalBatchPrice is the whole batch's purchase cost (AddStock) or refund value
// (ReturnToVendor), not a per-unit rate. Sell prices always travel with the batch
// and overwrite the product's prices — an explicit part of the contract.
type StockTransactionInput struct {
	TypeQty           int
	PieceQty          int
	TotalBatchPrice   decimal.Decimal
	SellPricePerType  decimal.Decimal
	SellPricePerPiece decimal.Decimal
}

type stockService struct {
	pool *pgxpool.Pool
}

func NewStockService(pool *pgxpool.Pool) StockService {
	return &stockService{pool: pool}
}

const productColumns = `id, group_id, name, weight_type, weight_value, quantity_type,
	quantity_value, pieces_per_quantity, pieces_quantity,
	buy_price_avg, sell_price_per_type, sell_price_per_piece`

func scanProduct(row pgx.Row) (*Product, error) {
	var p Product
	err := row.Scan(
		&p.ID, &p.GroupID, &p.Name, &p.WeightType, &p.WeightValue, &p.QuantityType,
		&p.TypeQty, &p.PiecesPerType, &p.PieceQty,
		&p.BuyPriceAvg, &p.SellPricePerType, &p.SellPricePerPiece,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// lockProductTx fetches a product row under FOR UPDATE within the caller's TX.
func lockProductTx(ctx context.Context, tx pgx.Tx, productID int) (*Product, error) {
	p, err := scanProduct(tx.QueryRow(ctx,
		"SELECT "+productColumns+" FROM products WHERE id = $1 FOR UPDATE", productID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("product %d: %w", productID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to lock product %d: %w", productID, err)
	}
	return p, nil
}

// ── Master data ──────────────────────────────────────────────────────────────

func (s *stockService) CreateProduct(ctx context.Context, input CreateProductInput) (*Product, error) {
	typeQty, pieceQty := NormalizeQuantity(input.TypeQty, input.PieceQty, input.PiecesPerType)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var groupName string
	if err := tx.QueryRow(ctx, "SELECT name FROM groups WHERE id = $1", input.GroupID).Scan(&groupName); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("group %d: %w", input.GroupID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to resolve group: %w", err)
	}

	p, err := scanProduct(tx.QueryRow(ctx, `
		INSERT INTO products (group_id, name, weight_type, weight_value, quantity_type,
			quantity_value, pieces_per_quantity, pieces_quantity,
			buy_price_avg, sell_price_per_type, sell_price_per_piece)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING `+productColumns,
		input.GroupID, input.Name, input.WeightType, input.WeightValue, input.QuantityType,
		typeQty, input.PiecesPerType, pieceQty,
		input.BuyPriceAvg, input.SellPricePerType, input.SellPricePerPiece,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to insert product: %w", err)
	}

	if err := appendHistoryTx(ctx, tx, p, groupName, "Added",
		stockEventDescription(p, typeQty, pieceQty, "added")); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit product creation: %w", err)
	}
	return p, nil
}

func (s *stockService) GetProduct(ctx context.Context, productID int) (*Product, error) {
	p, err := scanProduct(s.pool.QueryRow(ctx,
		"SELECT "+productColumns+" FROM products WHERE id = $1", productID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("product %d: %w", productID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch product %d: %w", productID, err)
	}
	return p, nil
}

func (s *stockService) GetProductsByGroup(ctx context.Context, groupID int) ([]Product, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT "+productColumns+" FROM products WHERE group_id = $1 ORDER BY id", groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, *p)
	}
	return products, nil
}

func (s *stockService) DeleteProduct(ctx context.Context, productID int) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	p, err := lockProductTx(ctx, tx, productID)
	if err != nil {
		return err
	}
	groupName, err := groupNameTx(ctx, tx, p.GroupID)
	if err != nil {
		return err
	}

	// Log first, then delete — the history row is the only trace left.
	if err := appendHistoryTx(ctx, tx, p, groupName, "Deleted",
		stockEventDescription(p, p.TypeQty, p.PieceQty, "Deleted")); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, "DELETE FROM products WHERE id = $1", productID); err != nil {
		return fmt.Errorf("failed to delete product %d: %w", productID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit product deletion: %w", err)
	}
	return nil
}

// ── Stock mutations ──────────────────────────────────────────────────────────

func (s *stockService) AddStock(ctx context.Context, productID int, input StockTransactionInput) (*Product, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	p, err := lockProductTx(ctx, tx, productID)
	if err != nil {
		return nil, err
	}

	batchType, batchPiece := NormalizeQuantity(input.TypeQty, input.PieceQty, p.PiecesPerType)
	batchPieces := TotalPieces(batchType, batchPiece, p.PiecesPerType)

	newAvg := WeightedAverageCost(p.TotalPieces(), p.BuyPriceAvg, batchPieces, input.TotalBatchPrice)

	newType, newPiece := NormalizeQuantity(p.TypeQty+batchType, p.PieceQty+batchPiece, p.PiecesPerType)

	p, err = s.writeStockTx(ctx, tx, productID, newType, newPiece, newAvg,
		input.SellPricePerType, input.SellPricePerPiece)
	if err != nil {
		return nil, err
	}

	groupName, err := groupNameTx(ctx, tx, p.GroupID)
	if err != nil {
		return nil, err
	}
	if err := appendHistoryTx(ctx, tx, p, groupName, "Added",
		stockEventDescription(p, batchType, batchPiece, "added")); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit stock addition: %w", err)
	}
	return p, nil
}

func (s *stockService) ReturnToVendor(ctx context.Context, productID int, input StockTransactionInput) (*Product, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	p, err := lockProductTx(ctx, tx, productID)
	if err != nil {
		return nil, err
	}

	batchType, batchPiece := NormalizeQuantity(input.TypeQty, input.PieceQty, p.PiecesPerType)
	batchPieces := TotalPieces(batchType, batchPiece, p.PiecesPerType)

	newType, newPiece, err := SubtractQuantity(p.TypeQty, p.PieceQty, batchType, batchPiece, p.PiecesPerType)
	if err != nil {
		return nil, fmt.Errorf("vendor return for %s: %w", p.Name, err)
	}

	// Signed blend: removing value at a rate other than the current average moves
	// the average of what remains.
	newAvg := WeightedAverageCost(p.TotalPieces(), p.BuyPriceAvg, -batchPieces, input.TotalBatchPrice.Neg())

	p, err = s.writeStockTx(ctx, tx, productID, newType, newPiece, newAvg,
		input.SellPricePerType, input.SellPricePerPiece)
	if err != nil {
		return nil, err
	}

	groupName, err := groupNameTx(ctx, tx, p.GroupID)
	if err != nil {
		return nil, err
	}
	if err := appendHistoryTx(ctx, tx, p, groupName, "Returned",
		stockEventDescription(p, batchType, batchPiece, "returned to vendor")); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit vendor return: %w", err)
	}
	return p, nil
}

func (s *stockService) ConsumeTx(ctx context.Context, tx pgx.Tx, productID, typeQty, pieceQty int) error {
	return s.deductTx(ctx, tx, productID, typeQty, pieceQty)
}

func (s *stockService) CreditIssueTx(ctx context.Context, tx pgx.Tx, productID, typeQty, pieceQty int) error {
	return s.deductTx(ctx, tx, productID, typeQty, pieceQty)
}

func (s *stockService) CreditReturnTx(ctx context.Context, tx pgx.Tx, productID, typeQty, pieceQty int) error {
	p, err := lockProductTx(ctx, tx, productID)
	if err != nil {
		return err
	}

	newType, newPiece := NormalizeQuantity(p.TypeQty+typeQty, p.PieceQty+pieceQty, p.PiecesPerType)

	if _, err := tx.Exec(ctx, `
		UPDATE products SET quantity_value = $1, pieces_quantity = $2 WHERE id = $3
	`, newType, newPiece, productID); err != nil {
		return fmt.Errorf("failed to restock product %d: %w", productID, err)
	}
	return nil
}

// deductTx subtracts quantity from a product within the caller's TX. Quantity only —
// the cost basis is never touched by consumption or credit issuance.
func (s *stockService) deductTx(ctx context.Context, tx pgx.Tx, productID, typeQty, pieceQty int) error {
	p, err := lockProductTx(ctx, tx, productID)
	if err != nil {
		return err
	}

	newType, newPiece, err := SubtractQuantity(p.TypeQty, p.PieceQty, typeQty, pieceQty, p.PiecesPerType)
	if err != nil {
		return fmt.Errorf("deduct stock for %s: %w", p.Name, err)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE products SET quantity_value = $1, pieces_quantity = $2 WHERE id = $3
	`, newType, newPiece, productID); err != nil {
		return fmt.Errorf("failed to deduct stock for product %d: %w", productID, err)
	}
	return nil
}

// writeStockTx persists the full post-mutation state and returns the fresh row.
func (s *stockService) writeStockTx(ctx context.Context, tx pgx.Tx, productID, typeQty, pieceQty int,
	buyPriceAvg, sellPerType, sellPerPiece decimal.Decimal) (*Product, error) {

	p, err := scanProduct(tx.QueryRow(ctx, `
		UPDATE products
		SET quantity_value = $1, pieces_quantity = $2, buy_price_avg = $3,
		    sell_price_per_type = $4, sell_price_per_piece = $5
		WHERE id = $6
		RETURNING `+productColumns,
		typeQty, pieceQty, buyPriceAvg, sellPerType, sellPerPiece, productID))
	if err != nil {
		return nil, fmt.Errorf("failed to update product %d: %w", productID, err)
	}
	return p, nil
}

// ── History ──────────────────────────────────────────────────────────────────

func (s *stockService) GetGroupHistory(ctx context.Context, groupID int) ([]ProductHistory, error) {
	var groupName string
	if err := s.pool.QueryRow(ctx, "SELECT name FROM groups WHERE id = $1", groupID).Scan(&groupName); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// An unknown group simply has no history.
			return []ProductHistory{}, nil
		}
		return nil, fmt.Errorf("failed to resolve group: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, product_id, product_name, group_name, action, description, created_at
		FROM product_history
		WHERE group_name = $1
		ORDER BY created_at DESC
	`, groupName)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var logs []ProductHistory
	for rows.Next() {
		var h ProductHistory
		if err := rows.Scan(&h.ID, &h.ProductID, &h.ProductName, &h.GroupName,
			&h.Action, &h.Description, &h.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		logs = append(logs, h)
	}
	return logs, nil
}

func appendHistoryTx(ctx context.Context, tx pgx.Tx, p *Product, groupName, action, description string) error {
	if _, err := tx.Exec(ctx, `
		INSERT INTO product_history (product_id, product_name, group_name, action, description)
		VALUES ($1, $2, $3, $4, $5)
	`, p.ID, p.Name, groupName, action, description); err != nil {
		return fmt.Errorf("failed to append history: %w", err)
	}
	return nil
}

func groupNameTx(ctx context.Context, tx pgx.Tx, groupID int) (string, error) {
	var name string
	if err := tx.QueryRow(ctx, "SELECT name FROM groups WHERE id = $1", groupID).Scan(&name); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "Unknown", nil
		}
		return "", fmt.Errorf("failed to resolve group name: %w", err)
	}
	return name, nil
}

// stockEventDescription mirrors the ledger's human-readable history lines,
// e.g. "5C 3pc Lux Soap (100g) were added".
func stockEventDescription(p *Product, typeQty, pieceQty int, verb string) string {
	typeInitial := ""
	if p.QuantityType != "" {
		typeInitial = strings.ToUpper(p.QuantityType[:1])
	}
	return fmt.Sprintf("%d%s %dpc %s (%s%s) were %s",
		typeQty, typeInitial, pieceQty, p.Name, p.WeightValue.String(), p.WeightType, verb)
}
