package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"fintrack/internal/core"
)

const recurringColumns = `id, user_id, name, type, amount_cents, frequency,
	start_date, end_date, next_occurrence, last_processed, status, description,
	notes, payee, occurrence_count, max_occurrences, auto_create,
	notify_before_creation, notify_days_before, account_id, category_id,
	to_account_id, created_at, updated_at`

func (r *Repository) CreateRecurring(ctx context.Context, rt core.RecurringTransaction) error {
	if err := ensureUser(ctx, r.db, rt.UserID); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO recurring_transactions (id, user_id, name, type,
			amount_cents, frequency, start_date, end_date, next_occurrence,
			last_processed, status, description, notes, payee,
			occurrence_count, max_occurrences, auto_create,
			notify_before_creation, notify_days_before, account_id,
			category_id, to_account_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rt.ID, rt.UserID, rt.Name, rt.Type, rt.Amount.Cents, rt.Frequency,
		rt.StartDate.String(), nullDate(rt.EndDate), rt.NextOccurrence.String(),
		nullDate(rt.LastProcessed), rt.Status, nullStr(rt.Description),
		nullStr(rt.Notes), nullStr(rt.Payee), rt.OccurrenceCount,
		nullInt(rt.MaxOccurrences), rt.AutoCreate, rt.NotifyBeforeCreation,
		rt.NotifyDaysBefore, rt.AccountID, nullStr(rt.CategoryID),
		nullStr(rt.ToAccountID))
	if err != nil {
		return fmt.Errorf("insert recurring transaction: %w", err)
	}
	return nil
}

func (r *Repository) GetRecurring(ctx context.Context, id, userID string) (core.RecurringTransaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+recurringColumns+` FROM recurring_transactions WHERE id = ? AND user_id = ?`,
		id, userID)
	return scanRecurring(row)
}

// ListRecurring returns a user's templates, optionally filtered by status,
// soonest occurrence first.
func (r *Repository) ListRecurring(ctx context.Context, userID string, status core.RecurringStatus) ([]core.RecurringTransaction, error) {
	query := `SELECT ` + recurringColumns + ` FROM recurring_transactions WHERE user_id = ?`
	args := []any{userID}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY next_occurrence ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list recurring transactions: %w", err)
	}
	defer rows.Close()
	return collectRecurring(rows)
}

// ListDueRecurring selects, across all users, the active auto-creating
// templates whose next occurrence is not after asOf.
func (r *Repository) ListDueRecurring(ctx context.Context, asOf core.Date) ([]core.RecurringTransaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+recurringColumns+` FROM recurring_transactions
		WHERE status = ? AND auto_create = 1 AND next_occurrence <= ?
		ORDER BY next_occurrence ASC`,
		core.RecurringActive, asOf.String())
	if err != nil {
		return nil, fmt.Errorf("list due recurring transactions: %w", err)
	}
	defer rows.Close()
	return collectRecurring(rows)
}

// ListUpcomingRecurring returns a user's active templates due inside
// [from, to], ascending by next occurrence.
func (r *Repository) ListUpcomingRecurring(ctx context.Context, userID string, from, to core.Date) ([]core.RecurringTransaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+recurringColumns+` FROM recurring_transactions
		WHERE user_id = ? AND status = ? AND next_occurrence >= ? AND next_occurrence <= ?
		ORDER BY next_occurrence ASC`,
		userID, core.RecurringActive, from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("list upcoming recurring transactions: %w", err)
	}
	defer rows.Close()
	return collectRecurring(rows)
}

func (r *Repository) UpdateRecurring(ctx context.Context, rt core.RecurringTransaction) error {
	res, err := r.db.ExecContext(ctx, updateRecurringSQL,
		updateRecurringArgs(rt)...)
	if err != nil {
		return fmt.Errorf("update recurring transaction: %w", err)
	}
	return requireRow(res)
}

func (r *Repository) DeleteRecurring(ctx context.Context, id, userID string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM recurring_transactions WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete recurring transaction: %w", err)
	}
	return requireRow(res)
}

// MaterializeRecurring creates the concrete transaction, applies its ledger
// effects, and advances the template, all in one transaction. This is the
// only path that creates transactions for an occurrence, which is what makes
// processing idempotent per (template, nextOccurrence).
func (r *Repository) MaterializeRecurring(ctx context.Context, t core.Transaction, effects []core.Effect, rt core.RecurringTransaction) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		if err := insertTransaction(ctx, tx, t); err != nil {
			return err
		}
		if err := applyEffects(ctx, tx, t.UserID, effects); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, updateRecurringSQL,
			updateRecurringArgs(rt)...)
		if err != nil {
			return fmt.Errorf("advance recurring transaction: %w", err)
		}
		return requireRow(res)
	})
}

const updateRecurringSQL = `
	UPDATE recurring_transactions
	SET name = ?, type = ?, amount_cents = ?, frequency = ?, start_date = ?,
		end_date = ?, next_occurrence = ?, last_processed = ?, status = ?,
		description = ?, notes = ?, payee = ?, occurrence_count = ?,
		max_occurrences = ?, auto_create = ?, notify_before_creation = ?,
		notify_days_before = ?, account_id = ?, category_id = ?,
		to_account_id = ?, updated_at = datetime('now')
	WHERE id = ? AND user_id = ?`

func updateRecurringArgs(rt core.RecurringTransaction) []any {
	return []any{
		rt.Name, rt.Type, rt.Amount.Cents, rt.Frequency, rt.StartDate.String(),
		nullDate(rt.EndDate), rt.NextOccurrence.String(),
		nullDate(rt.LastProcessed), rt.Status, nullStr(rt.Description),
		nullStr(rt.Notes), nullStr(rt.Payee), rt.OccurrenceCount,
		nullInt(rt.MaxOccurrences), rt.AutoCreate, rt.NotifyBeforeCreation,
		rt.NotifyDaysBefore, rt.AccountID, nullStr(rt.CategoryID),
		nullStr(rt.ToAccountID),
		rt.ID, rt.UserID,
	}
}

func collectRecurring(rows *sql.Rows) ([]core.RecurringTransaction, error) {
	var out []core.RecurringTransaction
	for rows.Next() {
		rt, err := scanRecurring(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rt)
	}
	return out, rows.Err()
}

func scanRecurring(row rowScanner) (core.RecurringTransaction, error) {
	var (
		rt                         core.RecurringTransaction
		startDate, nextOccurrence  string
		endDate, lastProcessed     sql.NullString
		desc, notes, payee         sql.NullString
		maxOccurrences             sql.NullInt64
		categoryID, toAccountID    sql.NullString
		createdAt, updatedAt       string
	)
	err := row.Scan(&rt.ID, &rt.UserID, &rt.Name, &rt.Type, &rt.Amount.Cents,
		&rt.Frequency, &startDate, &endDate, &nextOccurrence, &lastProcessed,
		&rt.Status, &desc, &notes, &payee, &rt.OccurrenceCount,
		&maxOccurrences, &rt.AutoCreate, &rt.NotifyBeforeCreation,
		&rt.NotifyDaysBefore, &rt.AccountID, &categoryID, &toAccountID,
		&createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.RecurringTransaction{}, ErrNotFound
	}
	if err != nil {
		return core.RecurringTransaction{}, fmt.Errorf("scan recurring transaction: %w", err)
	}

	if rt.StartDate, err = core.ParseDate(startDate); err != nil {
		return core.RecurringTransaction{}, fmt.Errorf("parse start date: %w", err)
	}
	if rt.NextOccurrence, err = core.ParseDate(nextOccurrence); err != nil {
		return core.RecurringTransaction{}, fmt.Errorf("parse next occurrence: %w", err)
	}
	if rt.EndDate, err = fromNullDate(endDate); err != nil {
		return core.RecurringTransaction{}, fmt.Errorf("parse end date: %w", err)
	}
	if rt.LastProcessed, err = fromNullDate(lastProcessed); err != nil {
		return core.RecurringTransaction{}, fmt.Errorf("parse last processed: %w", err)
	}
	rt.Description = fromNullStr(desc)
	rt.Notes = fromNullStr(notes)
	rt.Payee = fromNullStr(payee)
	rt.MaxOccurrences = fromNullInt(maxOccurrences)
	rt.CategoryID = fromNullStr(categoryID)
	rt.ToAccountID = fromNullStr(toAccountID)
	rt.CreatedAt = scanTime(createdAt)
	rt.UpdatedAt = scanTime(updatedAt)
	return rt, nil
}
