package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"fintrack/internal/core"
)

const budgetColumns = `id, user_id, name, amount_cents, spent_cents, period,
	start_date, end_date, rollover, is_active, notes, category_id, created_at, updated_at`

func (r *Repository) CreateBudget(ctx context.Context, b core.Budget) error {
	if err := ensureUser(ctx, r.db, b.UserID); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO budgets (id, user_id, name, amount_cents, spent_cents,
			period, start_date, end_date, rollover, is_active, notes, category_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.UserID, b.Name, b.Amount.Cents, b.Spent.Cents, b.Period,
		b.StartDate.String(), b.EndDate.String(), b.Rollover, b.IsActive,
		nullStr(b.Notes), nullStr(b.CategoryID))
	if err != nil {
		return fmt.Errorf("insert budget: %w", err)
	}
	return nil
}

func (r *Repository) GetBudget(ctx context.Context, id, userID string) (core.Budget, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+budgetColumns+` FROM budgets WHERE id = ? AND user_id = ?`,
		id, userID)
	return scanBudget(row)
}

// ListBudgets optionally filters by active flag; activeOnly nil means all.
func (r *Repository) ListBudgets(ctx context.Context, userID string, activeOnly *bool) ([]core.Budget, error) {
	query := `SELECT ` + budgetColumns + ` FROM budgets WHERE user_id = ?`
	args := []any{userID}
	if activeOnly != nil {
		query += ` AND is_active = ?`
		args = append(args, *activeOnly)
	}
	query += ` ORDER BY start_date DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var budgets []core.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, err
		}
		budgets = append(budgets, b)
	}
	return budgets, rows.Err()
}

func (r *Repository) UpdateBudget(ctx context.Context, b core.Budget) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE budgets
		SET name = ?, amount_cents = ?, spent_cents = ?, period = ?,
			start_date = ?, end_date = ?, rollover = ?, is_active = ?,
			notes = ?, category_id = ?, updated_at = datetime('now')
		WHERE id = ? AND user_id = ?`,
		b.Name, b.Amount.Cents, b.Spent.Cents, b.Period,
		b.StartDate.String(), b.EndDate.String(), b.Rollover, b.IsActive,
		nullStr(b.Notes), nullStr(b.CategoryID),
		b.ID, b.UserID)
	if err != nil {
		return fmt.Errorf("update budget: %w", err)
	}
	return requireRow(res)
}

func (r *Repository) DeleteBudget(ctx context.Context, id, userID string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM budgets WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	return requireRow(res)
}

// AddBudgetSpent bumps the spent accumulator with a single atomic increment.
func (r *Repository) AddBudgetSpent(ctx context.Context, id, userID string, delta core.Money) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE budgets
		SET spent_cents = spent_cents + ?, updated_at = datetime('now')
		WHERE id = ? AND user_id = ?`,
		delta.Cents, id, userID)
	if err != nil {
		return fmt.Errorf("add budget spent: %w", err)
	}
	return requireRow(res)
}

func scanBudget(row rowScanner) (core.Budget, error) {
	var (
		b                    core.Budget
		startDate, endDate   string
		notes, categoryID    sql.NullString
		createdAt, updatedAt string
	)
	err := row.Scan(&b.ID, &b.UserID, &b.Name, &b.Amount.Cents, &b.Spent.Cents,
		&b.Period, &startDate, &endDate, &b.Rollover, &b.IsActive,
		&notes, &categoryID, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Budget{}, ErrNotFound
	}
	if err != nil {
		return core.Budget{}, fmt.Errorf("scan budget: %w", err)
	}
	if b.StartDate, err = core.ParseDate(startDate); err != nil {
		return core.Budget{}, fmt.Errorf("parse budget start date: %w", err)
	}
	if b.EndDate, err = core.ParseDate(endDate); err != nil {
		return core.Budget{}, fmt.Errorf("parse budget end date: %w", err)
	}
	b.Notes = fromNullStr(notes)
	b.CategoryID = fromNullStr(categoryID)
	b.CreatedAt = scanTime(createdAt)
	b.UpdatedAt = scanTime(updatedAt)
	return b, nil
}
