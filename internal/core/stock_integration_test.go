package core_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"

	"distributor-ledger/internal/core"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	_ = godotenv.Load("../../.env")

	// Use a dedicated TEST database to avoid wiping the live app database.
	// Set TEST_DATABASE_URL in your .env or environment to run integration tests.
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set — skipping integration test to protect live database")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	_, err = pool.Exec(ctx, `
		TRUNCATE TABLE sale_items, sale_remarks, daily_sales, group_payments,
			products_taken, product_history, products, monthly_targets,
			expenses, groups CASCADE;
	`)
	if err != nil {
		t.Fatalf("Failed to clean test database: %v", err)
	}

	return pool
}

// seedGroup creates a group and returns its id.
func seedGroup(t *testing.T, ctx context.Context, pool *pgxpool.Pool, name string) int {
	t.Helper()
	group, err := core.NewGroupService(pool).CreateGroup(ctx, name)
	if err != nil {
		t.Fatalf("CreateGroup(%q) failed: %v", name, err)
	}
	return group.ID
}

// seedProduct creates a carton product (ratio pieces per carton) with the given
// opening stock and cost basis.
func seedProduct(t *testing.T, ctx context.Context, stock core.StockService, groupID int,
	name string, ratio, cartons int, buyAvg, sellType, sellPiece decimal.Decimal) *core.Product {
	t.Helper()
	product, err := stock.CreateProduct(ctx, core.CreateProductInput{
		GroupID:           groupID,
		Name:              name,
		QuantityType:      "Carton",
		WeightType:        "kg",
		WeightValue:       decimal.NewFromInt(1),
		TypeQty:           cartons,
		PiecesPerType:     ratio,
		PieceQty:          0,
		BuyPriceAvg:       buyAvg,
		SellPricePerType:  sellType,
		SellPricePerPiece: sellPiece,
	})
	if err != nil {
		t.Fatalf("CreateProduct(%q) failed: %v", name, err)
	}
	return product
}

// ── Tests ─────────────────────────────────────────────────────────────────────

func TestStock_CreateProductNormalizes(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	groupID := seedGroup(t, ctx, pool, "North Route")
	stock := core.NewStockService(pool)

	// 2 cartons + 30 loose pieces at 12/carton normalizes to 4 cartons + 6 pieces.
	product, err := stock.CreateProduct(ctx, core.CreateProductInput{
		GroupID:       groupID,
		Name:          "Biscuits",
		QuantityType:  "Carton",
		TypeQty:       2,
		PiecesPerType: 12,
		PieceQty:      30,
	})
	if err != nil {
		t.Fatalf("CreateProduct failed: %v", err)
	}
	if product.TypeQty != 4 || product.PieceQty != 6 {
		t.Errorf("Expected 4 cartons + 6 pieces, got %d + %d", product.TypeQty, product.PieceQty)
	}
}

func TestStock_RestockBlendsCost(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	groupID := seedGroup(t, ctx, pool, "North Route")
	stock := core.NewStockService(pool)
	product := seedProduct(t, ctx, stock, groupID, "Soap", 12, 0,
		decimal.Zero, decimal.Zero, decimal.Zero)

	// First batch: 5 cartons of 12 for 5000 total → 5000/60 per piece.
	updated, err := stock.AddStock(ctx, product.ID, core.StockTransactionInput{
		TypeQty:           5,
		TotalBatchPrice:   decimal.NewFromInt(5000),
		SellPricePerType:  decimal.NewFromInt(1200),
		SellPricePerPiece: decimal.NewFromInt(110),
	})
	if err != nil {
		t.Fatalf("AddStock failed: %v", err)
	}
	if updated.TypeQty != 5 || updated.PieceQty != 0 {
		t.Errorf("Expected 5 cartons + 0 pieces, got %d + %d", updated.TypeQty, updated.PieceQty)
	}
	if got := updated.BuyPriceAvg.Round(2); !got.Equal(decimal.RequireFromString("83.33")) {
		t.Errorf("Expected blended cost 83.33/piece, got %s", got)
	}
	if !updated.SellPricePerType.Equal(decimal.NewFromInt(1200)) {
		t.Errorf("Expected sell price overwritten to 1200, got %s", updated.SellPricePerType)
	}
}

func TestStock_VendorReturnRestoresState(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	groupID := seedGroup(t, ctx, pool, "North Route")
	stock := core.NewStockService(pool)
	product := seedProduct(t, ctx, stock, groupID, "Soap", 12, 20,
		decimal.NewFromInt(100), decimal.NewFromInt(1500), decimal.NewFromInt(130))

	// 5 cartons at 9000 total: (240×100 + 9000) / 300 = 110 per piece.
	updated, err := stock.AddStock(ctx, product.ID, core.StockTransactionInput{
		TypeQty:           5,
		TotalBatchPrice:   decimal.NewFromInt(9000),
		SellPricePerType:  decimal.NewFromInt(1500),
		SellPricePerPiece: decimal.NewFromInt(130),
	})
	if err != nil {
		t.Fatalf("AddStock failed: %v", err)
	}
	if !updated.BuyPriceAvg.Equal(decimal.NewFromInt(110)) {
		t.Fatalf("Expected blended cost 110, got %s", updated.BuyPriceAvg)
	}

	// Returning the same batch at the same value undoes the blend exactly.
	reverted, err := stock.ReturnToVendor(ctx, product.ID, core.StockTransactionInput{
		TypeQty:         5,
		TotalBatchPrice: decimal.NewFromInt(9000),
	})
	if err != nil {
		t.Fatalf("ReturnToVendor failed: %v", err)
	}
	if reverted.TypeQty != 20 || reverted.PieceQty != 0 {
		t.Errorf("Expected 20 cartons + 0 pieces, got %d + %d", reverted.TypeQty, reverted.PieceQty)
	}
	if !reverted.BuyPriceAvg.Equal(decimal.NewFromInt(100)) {
		t.Errorf("Expected cost back at 100, got %s", reverted.BuyPriceAvg)
	}
}

func TestStock_ReturnExceedingStock(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	groupID := seedGroup(t, ctx, pool, "North Route")
	stock := core.NewStockService(pool)
	product := seedProduct(t, ctx, stock, groupID, "Soap", 12, 2,
		decimal.NewFromInt(100), decimal.Zero, decimal.Zero)

	_, err := stock.ReturnToVendor(ctx, product.ID, core.StockTransactionInput{
		TypeQty:         3,
		TotalBatchPrice: decimal.NewFromInt(3600),
	})
	if !errors.Is(err, core.ErrInsufficientStock) {
		t.Fatalf("Expected ErrInsufficientStock, got %v", err)
	}

	// The failed return must leave the product untouched.
	after, err := stock.GetProduct(ctx, product.ID)
	if err != nil {
		t.Fatalf("GetProduct failed: %v", err)
	}
	if after.TypeQty != 2 || after.PieceQty != 0 {
		t.Errorf("Expected 2 cartons unchanged, got %d + %d", after.TypeQty, after.PieceQty)
	}
	if !after.BuyPriceAvg.Equal(decimal.NewFromInt(100)) {
		t.Errorf("Expected cost unchanged at 100, got %s", after.BuyPriceAvg)
	}
}

func TestStock_ConsumeLeavesCostBasis(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	groupID := seedGroup(t, ctx, pool, "North Route")
	stock := core.NewStockService(pool)
	product := seedProduct(t, ctx, stock, groupID, "Soap", 12, 5,
		decimal.NewFromInt(100), decimal.Zero, decimal.Zero)

	tx, err := pool.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	// 1 carton + 7 pieces = 19 pieces out of 60.
	if err := stock.ConsumeTx(ctx, tx, product.ID, 1, 7); err != nil {
		t.Fatalf("ConsumeTx failed: %v", err)
	}
	if err := tx.Commit(ctx); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	after, err := stock.GetProduct(ctx, product.ID)
	if err != nil {
		t.Fatalf("GetProduct failed: %v", err)
	}
	if after.TypeQty != 3 || after.PieceQty != 5 {
		t.Errorf("Expected 3 cartons + 5 pieces, got %d + %d", after.TypeQty, after.PieceQty)
	}
	if !after.BuyPriceAvg.Equal(decimal.NewFromInt(100)) {
		t.Errorf("Consumption must not move the cost basis; got %s", after.BuyPriceAvg)
	}
}

func TestStock_HistoryRecordsEvents(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	groupID := seedGroup(t, ctx, pool, "North Route")
	stock := core.NewStockService(pool)
	product := seedProduct(t, ctx, stock, groupID, "Soap", 12, 5,
		decimal.NewFromInt(100), decimal.Zero, decimal.Zero)

	_, err := stock.AddStock(ctx, product.ID, core.StockTransactionInput{
		TypeQty:         2,
		TotalBatchPrice: decimal.NewFromInt(2400),
	})
	if err != nil {
		t.Fatalf("AddStock failed: %v", err)
	}
	if err := stock.DeleteProduct(ctx, product.ID); err != nil {
		t.Fatalf("DeleteProduct failed: %v", err)
	}

	history, err := stock.GetGroupHistory(ctx, groupID)
	if err != nil {
		t.Fatalf("GetGroupHistory failed: %v", err)
	}
	actions := map[string]bool{}
	for _, h := range history {
		actions[h.Action] = true
	}
	for _, want := range []string{"Added", "Deleted"} {
		if !actions[want] {
			t.Errorf("Expected a %q history entry, got %v", want, actions)
		}
	}
}

func TestStock_ConcurrentConsumeOneWins(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	groupID := seedGroup(t, ctx, pool, "North Route")
	stock := core.NewStockService(pool)
	product := seedProduct(t, ctx, stock, groupID, "Soap", 12, 20,
		decimal.NewFromInt(100), decimal.Zero, decimal.Zero)

	// Each consume fits on its own but the pair exceeds stock; the row lock
	// serializes them, so exactly one must fail.
	consume := func() error {
		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}
		defer tx.Rollback(ctx)
		if err := stock.ConsumeTx(ctx, tx, product.ID, 15, 0); err != nil {
			return err
		}
		return tx.Commit(ctx)
	}

	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- consume()
		}()
	}
	wg.Wait()
	close(errs)

	var succeeded, insufficient int
	for err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, core.ErrInsufficientStock):
			insufficient++
		default:
			t.Fatalf("Unexpected consume error: %v", err)
		}
	}
	if succeeded != 1 || insufficient != 1 {
		t.Fatalf("Expected exactly one success and one ErrInsufficientStock, got %d / %d",
			succeeded, insufficient)
	}

	after, err := stock.GetProduct(ctx, product.ID)
	if err != nil {
		t.Fatalf("GetProduct failed: %v", err)
	}
	if after.TypeQty != 5 || after.PieceQty != 0 {
		t.Errorf("Expected 5 cartons + 0 pieces after the winning consume, got %d + %d",
			after.TypeQty, after.PieceQty)
	}
}

func TestStock_HistoryUnknownGroupIsEmpty(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	stock := core.NewStockService(pool)
	history, err := stock.GetGroupHistory(ctx, 999999)
	if err != nil {
		t.Fatalf("GetGroupHistory failed: %v", err)
	}
	if len(history) != 0 {
		t.Errorf("Expected empty history for an unknown group, got %d entries", len(history))
	}
}
