package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"fintrack/internal/core"
)

const categoryColumns = `id, user_id, name, type, icon, color, is_system, created_at`

func (r *Repository) CreateCategory(ctx context.Context, c core.Category) error {
	// System categories carry no owner.
	if c.UserID != "" {
		if err := ensureUser(ctx, r.db, c.UserID); err != nil {
			return err
		}
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO categories (id, user_id, name, type, icon, color, is_system)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, nullStr(c.UserID), c.Name, c.Type, nullStr(c.Icon),
		nullStr(c.Color), c.IsSystem)
	if err != nil {
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}

// GetCategory resolves either the user's own category or a system one.
func (r *Repository) GetCategory(ctx context.Context, id, userID string) (core.Category, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+categoryColumns+` FROM categories
		WHERE id = ? AND (user_id = ? OR is_system = 1)`,
		id, userID)
	return scanCategory(row)
}

// ListCategories returns system categories plus the user's own, by name.
func (r *Repository) ListCategories(ctx context.Context, userID string) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+categoryColumns+` FROM categories
		WHERE user_id = ? OR is_system = 1
		ORDER BY name ASC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var cats []core.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

// UpdateCategory only touches user-owned rows; system categories are
// immutable, so the scoping excludes them and yields ErrNotFound.
func (r *Repository) UpdateCategory(ctx context.Context, c core.Category) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE categories SET name = ?, type = ?, icon = ?, color = ?
		WHERE id = ? AND user_id = ? AND is_system = 0`,
		c.Name, c.Type, nullStr(c.Icon), nullStr(c.Color),
		c.ID, c.UserID)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	return requireRow(res)
}

func (r *Repository) DeleteCategory(ctx context.Context, id, userID string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM categories WHERE id = ? AND user_id = ? AND is_system = 0`,
		id, userID)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return requireRow(res)
}

func scanCategory(row rowScanner) (core.Category, error) {
	var (
		c                   core.Category
		userID, icon, color sql.NullString
		createdAt           string
	)
	err := row.Scan(&c.ID, &userID, &c.Name, &c.Type, &icon, &color,
		&c.IsSystem, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, ErrNotFound
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("scan category: %w", err)
	}
	c.UserID = fromNullStr(userID)
	c.Icon = fromNullStr(icon)
	c.Color = fromNullStr(color)
	c.CreatedAt = scanTime(createdAt)
	return c, nil
}
