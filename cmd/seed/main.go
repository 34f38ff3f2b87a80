// seed is a one-shot tool to load a small demo dataset: two groups with a
// handful of products each. Run it against a fresh database to have something
// to click around; re-running it updates the same rows in place.
//
// Usage: go run ./cmd/seed
package main

import (
	"context"
	"log"
	"os"

	"distributor-ledger/internal/db"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	ctx := context.Background()
	pool, err := db.NewPool(ctx)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer pool.Close()

	tx, err := pool.Begin(ctx)
	if err != nil {
		log.Fatalf("Failed to begin transaction: %v", err)
	}
	defer tx.Rollback(ctx)

	log.Println("Seeding groups...")
	_, err = tx.Exec(ctx, `
		INSERT INTO groups (name)
		VALUES ('North Route'), ('South Route')
		ON CONFLICT (name) DO NOTHING;
	`)
	if err != nil {
		log.Fatalf("Failed to seed groups: %v", err)
	}

	log.Println("Seeding products...")
	_, err = tx.Exec(ctx, `
		INSERT INTO products (group_id, name, weight_value, weight_type, quantity_type,
		                      quantity_value, pieces_per_quantity, pieces_quantity,
		                      buy_price_avg, sell_price_per_type, sell_price_per_piece)
		SELECT g.id, p.name, p.weight_value, p.weight_type, p.quantity_type,
		       p.quantity_value, p.pieces_per_quantity, p.pieces_quantity,
		       p.buy_price_avg, p.sell_price_per_type, p.sell_price_per_piece
		FROM groups g
		CROSS JOIN (VALUES
		    ('North Route', 'Laundry Soap',   0.5, 'kg', 'Carton', 20, 12, 0,  95.00, 1250.00, 110.00),
		    ('North Route', 'Dish Bar',       0.2, 'kg', 'Carton', 15, 24, 0,  40.00, 1050.00,  48.00),
		    ('North Route', 'Matchboxes',     0.05,'kg', 'Pack',   40, 10, 0,   8.00,   90.00,  10.00),
		    ('South Route', 'Instant Noodles',0.07,'kg', 'Box',    30, 30, 0,  14.00,  460.00,  17.00),
		    ('South Route', 'Tea Dust',       0.25,'kg', 'Carton', 10, 20, 0,  60.00, 1300.00,  70.00)
		) AS p(group_name, name, weight_value, weight_type, quantity_type,
		       quantity_value, pieces_per_quantity, pieces_quantity,
		       buy_price_avg, sell_price_per_type, sell_price_per_piece)
		WHERE g.name = p.group_name
		  AND NOT EXISTS (
		      SELECT 1 FROM products x WHERE x.group_id = g.id AND x.name = p.name
		  );
	`)
	if err != nil {
		log.Fatalf("Failed to seed products: %v", err)
	}

	if err := tx.Commit(ctx); err != nil {
		log.Fatalf("Failed to commit: %v", err)
	}

	log.Println("Seed data loaded successfully.")
	os.Exit(0)
}
