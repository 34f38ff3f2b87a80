package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// GroupService manages customer groups, the owning aggregate for products and sales.
type GroupService interface {
	CreateGroup(ctx context.Context, name string) (*Group, error)
	// GetGroups returns all groups with their derived total stock value
	// (Σ totalPieces × avg cost per piece over each group's products).
	GetGroups(ctx context.Context) ([]Group, error)
	// DeleteGroup removes a group together with its products and daily sales.
	DeleteGroup(ctx context.Context, groupID int) error
}

type groupService struct {
	pool *pgxpool.Pool
}

func NewGroupService(pool *pgxpool.Pool) GroupService {
	return &groupService{pool: pool}
}

func (s *groupService) CreateGroup(ctx context.Context, name string) (*Group, error) {
	var exists bool
	if err := s.pool.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM groups WHERE name = $1)", name).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to check group name: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("group %q already registered", name)
	}

	var g Group
	err := s.pool.QueryRow(ctx,
		"INSERT INTO groups (name) VALUES ($1) RETURNING id, name", name).Scan(&g.ID, &g.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to create group: %w", err)
	}
	g.TotalStockValue = decimal.Zero
	return &g, nil
}

func (s *groupService) GetGroups(ctx context.Context) ([]Group, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT g.id, g.name,
		       COALESCE(SUM((p.quantity_value * p.pieces_per_quantity + p.pieces_quantity) * p.buy_price_avg), 0)
		FROM groups g
		LEFT JOIN products p ON p.group_id = g.id
		GROUP BY g.id, g.name
		ORDER BY g.id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query groups: %w", err)
	}
	defer rows.Close()

	var groups []Group
	for rows.Next() {
		var g Group
		if err := rows.Scan(&g.ID, &g.Name, &g.TotalStockValue); err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, g)
	}
	return groups, nil
}

func (s *groupService) DeleteGroup(ctx context.Context, groupID int) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var name string
	err = tx.QueryRow(ctx, "SELECT name FROM groups WHERE id = $1 FOR UPDATE", groupID).Scan(&name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("group %d: %w", groupID, ErrNotFound)
		}
		return fmt.Errorf("failed to fetch group %d: %w", groupID, err)
	}

	// Schema cascades groups → products and groups → daily_sales → items/remarks.
	if _, err := tx.Exec(ctx, "DELETE FROM groups WHERE id = $1", groupID); err != nil {
		return fmt.Errorf("failed to delete group %d: %w", groupID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit group deletion: %w", err)
	}
	return nil
}
