package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"fintrack/internal/core"
)

const transactionColumns = `id, user_id, type, amount_cents, date, description,
	notes, payee, account_id, category_id, to_account_id, is_recurring,
	recurring_frequency, created_at, updated_at`

// TransactionFilter narrows ListTransactions. Zero values mean "any".
// Query matches description, notes and payee case-insensitively.
type TransactionFilter struct {
	AccountID  string
	CategoryID string
	Type       core.TransactionType
	StartDate  core.Date
	EndDate    core.Date
	Query      string
	Payee      string
	MinAmount  *core.Money
	MaxAmount  *core.Money
}

// CreateTransactionWithEffects inserts the record and applies its ledger
// effects in one transaction: either the row exists and every balance moved,
// or nothing happened.
func (r *Repository) CreateTransactionWithEffects(ctx context.Context, t core.Transaction, effects []core.Effect) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		if err := ensureUser(ctx, tx, t.UserID); err != nil {
			return err
		}
		if err := insertTransaction(ctx, tx, t); err != nil {
			return err
		}
		return applyEffects(ctx, tx, t.UserID, effects)
	})
}

// UpdateTransactionWithEffects reverts the old state's effects, persists the
// new state, and applies the new effects, all inside one transaction. The
// revert-before-reapply order is what keeps balances exact under edits.
func (r *Repository) UpdateTransactionWithEffects(ctx context.Context, t core.Transaction, revert, apply []core.Effect) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		if err := applyEffects(ctx, tx, t.UserID, revert); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `
			UPDATE transactions
			SET type = ?, amount_cents = ?, date = ?, description = ?,
				notes = ?, payee = ?, account_id = ?, category_id = ?,
				to_account_id = ?, updated_at = datetime('now')
			WHERE id = ? AND user_id = ?`,
			t.Type, t.Amount.Cents, t.Date.String(), nullStr(t.Description),
			nullStr(t.Notes), nullStr(t.Payee), t.AccountID,
			nullStr(t.CategoryID), nullStr(t.ToAccountID),
			t.ID, t.UserID)
		if err != nil {
			return fmt.Errorf("update transaction: %w", err)
		}
		if err := requireRow(res); err != nil {
			return err
		}
		return applyEffects(ctx, tx, t.UserID, apply)
	})
}

// DeleteTransactionWithEffects reverts the effects and removes the record
// atomically.
func (r *Repository) DeleteTransactionWithEffects(ctx context.Context, id, userID string, revert []core.Effect) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		if err := applyEffects(ctx, tx, userID, revert); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx,
			`DELETE FROM transactions WHERE id = ? AND user_id = ?`, id, userID)
		if err != nil {
			return fmt.Errorf("delete transaction: %w", err)
		}
		return requireRow(res)
	})
}

func (r *Repository) GetTransaction(ctx context.Context, id, userID string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ? AND user_id = ?`,
		id, userID)
	return scanTransaction(row)
}

func (r *Repository) ListTransactions(ctx context.Context, userID string, f TransactionFilter) ([]core.Transaction, error) {
	conds := []string{"user_id = ?"}
	args := []any{userID}

	if f.AccountID != "" {
		conds = append(conds, "(account_id = ? OR to_account_id = ?)")
		args = append(args, f.AccountID, f.AccountID)
	}
	if f.CategoryID != "" {
		conds = append(conds, "category_id = ?")
		args = append(args, f.CategoryID)
	}
	if f.Type != "" {
		conds = append(conds, "type = ?")
		args = append(args, f.Type)
	}
	if !f.StartDate.IsZero() {
		conds = append(conds, "date >= ?")
		args = append(args, f.StartDate.String())
	}
	if !f.EndDate.IsZero() {
		conds = append(conds, "date <= ?")
		args = append(args, f.EndDate.String())
	}
	if f.Query != "" {
		like := "%" + escapeLike(f.Query) + "%"
		conds = append(conds, `(description LIKE ? ESCAPE '\'
			OR notes LIKE ? ESCAPE '\' OR payee LIKE ? ESCAPE '\')`)
		args = append(args, like, like, like)
	}
	if f.Payee != "" {
		conds = append(conds, `payee LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(f.Payee)+"%")
	}
	if f.MinAmount != nil {
		conds = append(conds, "amount_cents >= ?")
		args = append(args, f.MinAmount.Cents)
	}
	if f.MaxAmount != nil {
		conds = append(conds, "amount_cents <= ?")
		args = append(args, f.MaxAmount.Cents)
	}

	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE ` +
		strings.Join(conds, " AND ") + ` ORDER BY date DESC, created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txs []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

// escapeLike neutralizes LIKE metacharacters in user-supplied search text.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func insertTransaction(ctx context.Context, tx *sql.Tx, t core.Transaction) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO transactions (id, user_id, type, amount_cents, date,
			description, notes, payee, account_id, category_id, to_account_id,
			is_recurring, recurring_frequency)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.Type, t.Amount.Cents, t.Date.String(),
		nullStr(t.Description), nullStr(t.Notes), nullStr(t.Payee),
		t.AccountID, nullStr(t.CategoryID), nullStr(t.ToAccountID),
		t.IsRecurring, nullStr(string(t.RecurringFrequency)))
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		t                          core.Transaction
		date                       string
		desc, notes, payee         sql.NullString
		categoryID, toAccountID    sql.NullString
		freq                       sql.NullString
		createdAt, updatedAt       string
	)
	err := row.Scan(&t.ID, &t.UserID, &t.Type, &t.Amount.Cents, &date,
		&desc, &notes, &payee, &t.AccountID, &categoryID, &toAccountID,
		&t.IsRecurring, &freq, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("scan transaction: %w", err)
	}
	t.Date, err = core.ParseDate(date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse transaction date: %w", err)
	}
	t.Description = fromNullStr(desc)
	t.Notes = fromNullStr(notes)
	t.Payee = fromNullStr(payee)
	t.CategoryID = fromNullStr(categoryID)
	t.ToAccountID = fromNullStr(toAccountID)
	t.RecurringFrequency = core.RecurringFrequency(fromNullStr(freq))
	t.CreatedAt = scanTime(createdAt)
	t.UpdatedAt = scanTime(updatedAt)
	return t, nil
}
