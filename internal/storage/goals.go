package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"fintrack/internal/core"
)

const goalColumns = `id, user_id, name, target_amount_cents,
	current_amount_cents, target_date, status, color, icon, description,
	account_id, created_at, updated_at`

func (r *Repository) CreateGoal(ctx context.Context, g core.Goal) error {
	if err := ensureUser(ctx, r.db, g.UserID); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO goals (id, user_id, name, target_amount_cents,
			current_amount_cents, target_date, status, color, icon,
			description, account_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.UserID, g.Name, g.TargetAmount.Cents, g.CurrentAmount.Cents,
		nullDate(g.TargetDate), g.Status, nullStr(g.Color), nullStr(g.Icon),
		nullStr(g.Description), nullStr(g.AccountID))
	if err != nil {
		return fmt.Errorf("insert goal: %w", err)
	}
	return nil
}

func (r *Repository) GetGoal(ctx context.Context, id, userID string) (core.Goal, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+goalColumns+` FROM goals WHERE id = ? AND user_id = ?`,
		id, userID)
	return scanGoal(row)
}

func (r *Repository) ListGoals(ctx context.Context, userID string, status core.GoalStatus) ([]core.Goal, error) {
	query := `SELECT ` + goalColumns + ` FROM goals WHERE user_id = ?`
	args := []any{userID}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	var goals []core.Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		goals = append(goals, g)
	}
	return goals, rows.Err()
}

func (r *Repository) UpdateGoal(ctx context.Context, g core.Goal) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE goals
		SET name = ?, target_amount_cents = ?, current_amount_cents = ?,
			target_date = ?, status = ?, color = ?, icon = ?, description = ?,
			account_id = ?, updated_at = datetime('now')
		WHERE id = ? AND user_id = ?`,
		g.Name, g.TargetAmount.Cents, g.CurrentAmount.Cents,
		nullDate(g.TargetDate), g.Status, nullStr(g.Color), nullStr(g.Icon),
		nullStr(g.Description), nullStr(g.AccountID),
		g.ID, g.UserID)
	if err != nil {
		return fmt.Errorf("update goal: %w", err)
	}
	return requireRow(res)
}

func (r *Repository) DeleteGoal(ctx context.Context, id, userID string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM goals WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	return requireRow(res)
}

func scanGoal(row rowScanner) (core.Goal, error) {
	var (
		g                          core.Goal
		targetDate                 sql.NullString
		color, icon, desc, account sql.NullString
		createdAt, updatedAt       string
	)
	err := row.Scan(&g.ID, &g.UserID, &g.Name, &g.TargetAmount.Cents,
		&g.CurrentAmount.Cents, &targetDate, &g.Status, &color, &icon,
		&desc, &account, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Goal{}, ErrNotFound
	}
	if err != nil {
		return core.Goal{}, fmt.Errorf("scan goal: %w", err)
	}
	if g.TargetDate, err = fromNullDate(targetDate); err != nil {
		return core.Goal{}, fmt.Errorf("parse goal target date: %w", err)
	}
	g.Color = fromNullStr(color)
	g.Icon = fromNullStr(icon)
	g.Description = fromNullStr(desc)
	g.AccountID = fromNullStr(account)
	g.CreatedAt = scanTime(createdAt)
	g.UpdatedAt = scanTime(updatedAt)
	return g, nil
}
