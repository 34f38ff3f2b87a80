package core_test

import (
	"context"
	"errors"
	"testing"

	"distributor-ledger/internal/core"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// setupSaleTestDB seeds a group with one product: 20 cartons of 12,
// cost 100/piece, selling at 120/carton and 11/piece.
func setupSaleTestDB(t *testing.T) (*pgxpool.Pool, core.StockService, core.SaleService, int, *core.Product, context.Context) {
	t.Helper()
	pool := setupTestDB(t)
	ctx := context.Background()

	groupID := seedGroup(t, ctx, pool, "South Route")
	stock := core.NewStockService(pool)
	product := seedProduct(t, ctx, stock, groupID, "Soap", 12, 20,
		decimal.NewFromInt(100), decimal.NewFromInt(120), decimal.NewFromInt(11))
	sales := core.NewSaleService(pool, stock)
	return pool, stock, sales, groupID, product, ctx
}

func TestSale_DraftDueChain(t *testing.T) {
	pool, _, sales, groupID, product, ctx := setupSaleTestDB(t)
	defer pool.Close()

	// 10 cartons requested, none returned → total 10 × 120 = 1200.
	sale, err := sales.SaveDraft(ctx, core.SaveDraftInput{
		GroupID:      groupID,
		Date:         "2026-08-01",
		CashReceived: decimal.NewFromInt(1000),
		Items: []core.SaleItemInput{
			{ProductID: product.ID, RequestTypeQty: 10},
		},
	})
	if err != nil {
		t.Fatalf("SaveDraft failed: %v", err)
	}
	if !sale.TotalAmount.Equal(decimal.NewFromInt(1200)) {
		t.Errorf("Expected total 1200, got %s", sale.TotalAmount)
	}
	if !sale.Due.Equal(decimal.NewFromInt(200)) {
		t.Errorf("Expected due 200, got %s", sale.Due)
	}
	if !sale.Commission.Equal(decimal.NewFromInt(200)) {
		t.Errorf("Expected commission 200, got %s", sale.Commission)
	}
	if sale.Status != core.SaleStatusDraft || sale.IsLocked {
		t.Errorf("Expected an unlocked draft, got status=%s locked=%v", sale.Status, sale.IsLocked)
	}
}

func TestSale_RemarksReduceDue(t *testing.T) {
	pool, _, sales, groupID, product, ctx := setupSaleTestDB(t)
	defer pool.Close()

	sale, err := sales.SaveDraft(ctx, core.SaveDraftInput{
		GroupID:      groupID,
		Date:         "2026-08-01",
		CashReceived: decimal.NewFromInt(1000),
		Items: []core.SaleItemInput{
			{ProductID: product.ID, RequestTypeQty: 10},
		},
		Remarks: []core.RemarkInput{
			{Comment: "damaged carton", Amount: decimal.NewFromInt(50)},
		},
	})
	if err != nil {
		t.Fatalf("SaveDraft failed: %v", err)
	}
	// due = 1200 − 1000 − 50; the commission claim is what remains.
	if !sale.Due.Equal(decimal.NewFromInt(150)) {
		t.Errorf("Expected due 150, got %s", sale.Due)
	}
	if !sale.Commission.Equal(decimal.NewFromInt(150)) {
		t.Errorf("Expected commission 150, got %s", sale.Commission)
	}
}

func TestSale_ReturnedReducesSold(t *testing.T) {
	pool, _, sales, groupID, product, ctx := setupSaleTestDB(t)
	defer pool.Close()

	// Requested 2 cartons, returned 4 pieces → sold 24 − 4 = 20 pieces = 1 carton + 8.
	sale, err := sales.SaveDraft(ctx, core.SaveDraftInput{
		GroupID: groupID,
		Date:    "2026-08-01",
		Items: []core.SaleItemInput{
			{ProductID: product.ID, RequestTypeQty: 2, ReturnPieceQty: 4},
		},
	})
	if err != nil {
		t.Fatalf("SaveDraft failed: %v", err)
	}
	if len(sale.Items) != 1 {
		t.Fatalf("Expected 1 item, got %d", len(sale.Items))
	}
	item := sale.Items[0]
	if item.SoldTypeQty != 1 || item.SoldPieceQty != 8 {
		t.Errorf("Expected sold 1 carton + 8 pieces, got %d + %d", item.SoldTypeQty, item.SoldPieceQty)
	}
	// 1 × 120 + 8 × 11 = 208
	if !item.Price.Equal(decimal.NewFromInt(208)) {
		t.Errorf("Expected line price 208, got %s", item.Price)
	}
}

func TestSale_ReturnExceedingRequest(t *testing.T) {
	pool, _, sales, groupID, product, ctx := setupSaleTestDB(t)
	defer pool.Close()

	_, err := sales.SaveDraft(ctx, core.SaveDraftInput{
		GroupID: groupID,
		Date:    "2026-08-01",
		Items: []core.SaleItemInput{
			{ProductID: product.ID, RequestTypeQty: 1, ReturnTypeQty: 2},
		},
	})
	if !errors.Is(err, core.ErrInvalidReturn) {
		t.Fatalf("Expected ErrInvalidReturn, got %v", err)
	}
}

func TestSale_DraftReplaceDiscardsOldLines(t *testing.T) {
	pool, _, sales, groupID, product, ctx := setupSaleTestDB(t)
	defer pool.Close()

	first, err := sales.SaveDraft(ctx, core.SaveDraftInput{
		GroupID:      groupID,
		Date:         "2026-08-01",
		CashReceived: decimal.NewFromInt(500),
		Items: []core.SaleItemInput{
			{ProductID: product.ID, RequestTypeQty: 10},
		},
	})
	if err != nil {
		t.Fatalf("First SaveDraft failed: %v", err)
	}

	second, err := sales.SaveDraft(ctx, core.SaveDraftInput{
		GroupID:      groupID,
		Date:         "2026-08-01",
		CashReceived: decimal.NewFromInt(200),
		Items: []core.SaleItemInput{
			{ProductID: product.ID, RequestTypeQty: 2},
		},
	})
	if err != nil {
		t.Fatalf("Second SaveDraft failed: %v", err)
	}

	if second.ID != first.ID {
		t.Errorf("Replacing a draft must keep the same sale row, got %d then %d", first.ID, second.ID)
	}
	if len(second.Items) != 1 {
		t.Fatalf("Expected 1 item after replace, got %d", len(second.Items))
	}
	// Totals recomputed from scratch: 2 × 120 = 240, due = 240 − 200 = 40.
	if !second.TotalAmount.Equal(decimal.NewFromInt(240)) {
		t.Errorf("Expected total 240, got %s", second.TotalAmount)
	}
	if !second.Due.Equal(decimal.NewFromInt(40)) {
		t.Errorf("Expected due 40, got %s", second.Due)
	}
}

func TestSale_LockConsumesStock(t *testing.T) {
	pool, stock, sales, groupID, product, ctx := setupSaleTestDB(t)
	defer pool.Close()

	sale, err := sales.SaveDraft(ctx, core.SaveDraftInput{
		GroupID: groupID,
		Date:    "2026-08-01",
		Items: []core.SaleItemInput{
			{ProductID: product.ID, RequestTypeQty: 3, RequestPieceQty: 5},
		},
	})
	if err != nil {
		t.Fatalf("SaveDraft failed: %v", err)
	}

	locked, err := sales.Lock(ctx, sale.ID)
	if err != nil {
		t.Fatalf("Lock failed: %v", err)
	}
	if !locked.IsLocked || locked.Status != core.SaleStatusCompleted {
		t.Errorf("Expected locked+completed, got locked=%v status=%s", locked.IsLocked, locked.Status)
	}

	after, err := stock.GetProduct(ctx, product.ID)
	if err != nil {
		t.Fatalf("GetProduct failed: %v", err)
	}
	// 20 cartons − (3 cartons + 5 pieces) = 16 cartons + 7 pieces.
	if after.TypeQty != 16 || after.PieceQty != 7 {
		t.Errorf("Expected 16 cartons + 7 pieces, got %d + %d", after.TypeQty, after.PieceQty)
	}
	if !after.BuyPriceAvg.Equal(decimal.NewFromInt(100)) {
		t.Errorf("Lock must not move the cost basis, got %s", after.BuyPriceAvg)
	}
}

func TestSale_LockedSaleRejectsEverything(t *testing.T) {
	pool, _, sales, groupID, product, ctx := setupSaleTestDB(t)
	defer pool.Close()

	sale, err := sales.SaveDraft(ctx, core.SaveDraftInput{
		GroupID: groupID,
		Date:    "2026-08-01",
		Items: []core.SaleItemInput{
			{ProductID: product.ID, RequestTypeQty: 1},
		},
	})
	if err != nil {
		t.Fatalf("SaveDraft failed: %v", err)
	}
	if _, err := sales.Lock(ctx, sale.ID); err != nil {
		t.Fatalf("Lock failed: %v", err)
	}

	if _, err := sales.Lock(ctx, sale.ID); !errors.Is(err, core.ErrSaleLocked) {
		t.Errorf("Second lock: expected ErrSaleLocked, got %v", err)
	}

	_, err = sales.SaveDraft(ctx, core.SaveDraftInput{
		GroupID: groupID,
		Date:    "2026-08-01",
		Items: []core.SaleItemInput{
			{ProductID: product.ID, RequestTypeQty: 2},
		},
	})
	if !errors.Is(err, core.ErrSaleLocked) {
		t.Errorf("Edit after lock: expected ErrSaleLocked, got %v", err)
	}
}

func TestSale_LockFailureLeavesEverythingUnchanged(t *testing.T) {
	pool, stock, sales, groupID, product, ctx := setupSaleTestDB(t)
	defer pool.Close()

	// Draft accepts quantities beyond stock; the shortfall surfaces at lock time.
	sale, err := sales.SaveDraft(ctx, core.SaveDraftInput{
		GroupID: groupID,
		Date:    "2026-08-01",
		Items: []core.SaleItemInput{
			{ProductID: product.ID, RequestTypeQty: 50},
		},
	})
	if err != nil {
		t.Fatalf("SaveDraft failed: %v", err)
	}

	_, err = sales.Lock(ctx, sale.ID)
	if !errors.Is(err, core.ErrInsufficientStock) {
		t.Fatalf("Expected ErrInsufficientStock, got %v", err)
	}

	after, err := stock.GetProduct(ctx, product.ID)
	if err != nil {
		t.Fatalf("GetProduct failed: %v", err)
	}
	if after.TypeQty != 20 || after.PieceQty != 0 {
		t.Errorf("Failed lock must not consume stock, got %d + %d", after.TypeQty, after.PieceQty)
	}

	reloaded, err := sales.GetSale(ctx, sale.ID)
	if err != nil {
		t.Fatalf("GetSale failed: %v", err)
	}
	if reloaded.IsLocked || reloaded.Status != core.SaleStatusDraft {
		t.Errorf("Failed lock must leave the sale a draft, got locked=%v status=%s",
			reloaded.IsLocked, reloaded.Status)
	}
}

func TestSale_LockIsAllOrNothing(t *testing.T) {
	pool, stock, sales, groupID, product, ctx := setupSaleTestDB(t)
	defer pool.Close()

	// Second product with barely any stock.
	scarce := seedProduct(t, ctx, stock, groupID, "Matches", 10, 1,
		decimal.NewFromInt(20), decimal.NewFromInt(250), decimal.NewFromInt(30))

	sale, err := sales.SaveDraft(ctx, core.SaveDraftInput{
		GroupID: groupID,
		Date:    "2026-08-01",
		Items: []core.SaleItemInput{
			{ProductID: product.ID, RequestTypeQty: 5},
			{ProductID: scarce.ID, RequestTypeQty: 3},
		},
	})
	if err != nil {
		t.Fatalf("SaveDraft failed: %v", err)
	}

	if _, err := sales.Lock(ctx, sale.ID); !errors.Is(err, core.ErrInsufficientStock) {
		t.Fatalf("Expected ErrInsufficientStock, got %v", err)
	}

	// Neither product may have moved, including the one that had enough.
	p1, _ := stock.GetProduct(ctx, product.ID)
	p2, _ := stock.GetProduct(ctx, scarce.ID)
	if p1.TypeQty != 20 || p2.TypeQty != 1 {
		t.Errorf("Partial consumption leaked: got %d and %d cartons", p1.TypeQty, p2.TypeQty)
	}
}

func TestSale_ProductDeletionKeepsLockedSale(t *testing.T) {
	pool, stock, sales, groupID, product, ctx := setupSaleTestDB(t)
	defer pool.Close()

	sale, err := sales.SaveDraft(ctx, core.SaveDraftInput{
		GroupID:      groupID,
		CashReceived: decimal.NewFromInt(240),
		Items: []core.SaleItemInput{
			{ProductID: product.ID, RequestTypeQty: 2},
		},
	})
	if err != nil {
		t.Fatalf("SaveDraft failed: %v", err)
	}
	if _, err := sales.Lock(ctx, sale.ID); err != nil {
		t.Fatalf("Lock failed: %v", err)
	}

	if err := stock.DeleteProduct(ctx, product.ID); err != nil {
		t.Fatalf("DeleteProduct failed: %v", err)
	}

	// The locked sale keeps its line items and booked totals; only the
	// product reference goes away.
	after, err := sales.GetSale(ctx, sale.ID)
	if err != nil {
		t.Fatalf("GetSale failed: %v", err)
	}
	if len(after.Items) != 1 {
		t.Fatalf("Expected the sale item to survive product deletion, got %d items", len(after.Items))
	}
	if after.Items[0].ProductID != nil {
		t.Errorf("Expected nil product reference, got %d", *after.Items[0].ProductID)
	}
	if !after.TotalAmount.Equal(decimal.NewFromInt(240)) {
		t.Errorf("Expected total 240 unchanged, got %s", after.TotalAmount)
	}
	if after.Items[0].SoldTypeQty != 2 {
		t.Errorf("Expected sold quantity 2 unchanged, got %d", after.Items[0].SoldTypeQty)
	}
}

func TestSale_LockRejectsOrphanedLine(t *testing.T) {
	pool, stock, sales, groupID, product, ctx := setupSaleTestDB(t)
	defer pool.Close()

	sale, err := sales.SaveDraft(ctx, core.SaveDraftInput{
		GroupID:      groupID,
		CashReceived: decimal.NewFromInt(240),
		Items: []core.SaleItemInput{
			{ProductID: product.ID, RequestTypeQty: 2},
		},
	})
	if err != nil {
		t.Fatalf("SaveDraft failed: %v", err)
	}

	// Deleting the product while the sale is still a draft orphans its line;
	// locking must refuse rather than consume nothing.
	if err := stock.DeleteProduct(ctx, product.ID); err != nil {
		t.Fatalf("DeleteProduct failed: %v", err)
	}

	_, err = sales.Lock(ctx, sale.ID)
	if !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound locking an orphaned draft, got %v", err)
	}

	after, err := sales.GetSale(ctx, sale.ID)
	if err != nil {
		t.Fatalf("GetSale failed: %v", err)
	}
	if after.IsLocked || after.Status != core.SaleStatusDraft {
		t.Errorf("Failed lock must leave the sale a draft, got locked=%v status=%s",
			after.IsLocked, after.Status)
	}
}
