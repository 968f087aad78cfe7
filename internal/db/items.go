package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// CreateItem inserts a checklist item and returns it with server-assigned fields
func (db *DB) CreateItem(ctx context.Context, text string, kind ItemKind) (*ChecklistItem, error) {
	var item ChecklistItem
	err := db.pool.QueryRow(ctx,
		`INSERT INTO items (text, kind)
		 VALUES ($1, $2)
		 RETURNING id, text, kind, is_active, created_at, updated_at`,
		text, kind,
	).Scan(&item.ID, &item.Text, &item.Kind, &item.IsActive, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create item: %w", err)
	}
	return &item, nil
}

// GetItem retrieves an item by ID, or nil if it does not exist
func (db *DB) GetItem(ctx context.Context, id int64) (*ChecklistItem, error) {
	var item ChecklistItem
	err := db.pool.QueryRow(ctx,
		`SELECT id, text, kind, is_active, created_at, updated_at FROM items WHERE id = $1`,
		id,
	).Scan(&item.ID, &item.Text, &item.Kind, &item.IsActive, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	return &item, nil
}

// ItemFilters holds optional filters for listing checklist items
type ItemFilters struct {
	Kind       ItemKind
	ActiveOnly bool
}

// ListItems retrieves checklist items with optional filters, newest first
func (db *DB) ListItems(ctx context.Context, filters ItemFilters) ([]ChecklistItem, error) {
	query := `SELECT id, text, kind, is_active, created_at, updated_at FROM items WHERE 1=1`
	args := []any{}
	argNum := 1

	if filters.ActiveOnly {
		query += " AND is_active = TRUE"
	}
	if filters.Kind != "" {
		query += fmt.Sprintf(" AND kind = $%d", argNum)
		args = append(args, filters.Kind)
		argNum++
	}

	query += " ORDER BY created_at DESC, id DESC"

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	var items []ChecklistItem
	for rows.Next() {
		var item ChecklistItem
		if err := rows.Scan(&item.ID, &item.Text, &item.Kind, &item.IsActive, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, item)
	}
	return items, nil
}

// GetItemsByIDs retrieves active items matching the given IDs
func (db *DB) GetItemsByIDs(ctx context.Context, ids []int64) ([]ChecklistItem, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, text, kind, is_active, created_at, updated_at
		 FROM items WHERE id = ANY($1) AND is_active = TRUE
		 ORDER BY created_at DESC, id DESC`,
		ids,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get items: %w", err)
	}
	defer rows.Close()

	var items []ChecklistItem
	for rows.Next() {
		var item ChecklistItem
		if err := rows.Scan(&item.ID, &item.Text, &item.Kind, &item.IsActive, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, item)
	}
	return items, nil
}

// ItemUpdate holds the mutable fields of a checklist item. Nil means unchanged.
type ItemUpdate struct {
	Text     *string
	Kind     *ItemKind
	IsActive *bool
}

// UpdateItem applies an update and returns the new row. Returns ErrNotFound if absent.
func (db *DB) UpdateItem(ctx context.Context, id int64, update ItemUpdate) (*ChecklistItem, error) {
	var item ChecklistItem
	err := db.pool.QueryRow(ctx,
		`UPDATE items SET
			text = COALESCE($2, text),
			kind = COALESCE($3, kind),
			is_active = COALESCE($4, is_active),
			updated_at = NOW()
		 WHERE id = $1
		 RETURNING id, text, kind, is_active, created_at, updated_at`,
		id, update.Text, update.Kind, update.IsActive,
	).Scan(&item.ID, &item.Text, &item.Kind, &item.IsActive, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update item: %w", err)
	}
	return &item, nil
}

// DeactivateItem soft-deletes an item. Returns ErrNotFound if no row matched.
func (db *DB) DeactivateItem(ctx context.Context, id int64) error {
	result, err := db.pool.Exec(ctx,
		`UPDATE items SET is_active = FALSE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate item: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteItem permanently removes an item. Returns ErrNotFound if no row matched.
func (db *DB) DeleteItem(ctx context.Context, id int64) error {
	result, err := db.pool.Exec(ctx, `DELETE FROM items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
