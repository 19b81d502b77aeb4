package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"fintrack/internal/core"
)

const accountColumns = `id, user_id, name, type, balance_cents, currency,
	color, icon, description, is_active, include_in_total, created_at, updated_at`

func (r *Repository) CreateAccount(ctx context.Context, a core.Account) error {
	if err := ensureUser(ctx, r.db, a.UserID); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO accounts (id, user_id, name, type, balance_cents, currency,
			color, icon, description, is_active, include_in_total)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.UserID, a.Name, a.Type, a.Balance.Cents, a.Currency,
		nullStr(a.Color), nullStr(a.Icon), nullStr(a.Description),
		a.IsActive, a.IncludeInTotal)
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

func (r *Repository) GetAccount(ctx context.Context, id, userID string) (core.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = ? AND user_id = ?`,
		id, userID)
	return scanAccount(row)
}

func (r *Repository) ListAccounts(ctx context.Context, userID string) ([]core.Account, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE user_id = ? ORDER BY created_at DESC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []core.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// UpdateAccount persists everything except the balance, which only ledger
// effects may touch.
func (r *Repository) UpdateAccount(ctx context.Context, a core.Account) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE accounts
		SET name = ?, type = ?, currency = ?, color = ?, icon = ?,
			description = ?, is_active = ?, include_in_total = ?,
			updated_at = datetime('now')
		WHERE id = ? AND user_id = ?`,
		a.Name, a.Type, a.Currency, nullStr(a.Color), nullStr(a.Icon),
		nullStr(a.Description), a.IsActive, a.IncludeInTotal,
		a.ID, a.UserID)
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	return requireRow(res)
}

// DeleteAccount refuses while transactions or recurring templates still
// reference the account, as either leg. Deleting those first (which reverts
// their ledger effects) is the only way balances stay exact.
func (r *Repository) DeleteAccount(ctx context.Context, id, userID string) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		var refs int
		err := tx.QueryRowContext(ctx, `
			SELECT (SELECT COUNT(*) FROM transactions
				WHERE user_id = ? AND (account_id = ? OR to_account_id = ?))
			     + (SELECT COUNT(*) FROM recurring_transactions
				WHERE user_id = ? AND (account_id = ? OR to_account_id = ?))`,
			userID, id, id, userID, id, id).Scan(&refs)
		if err != nil {
			return fmt.Errorf("count account references: %w", err)
		}
		if refs > 0 {
			return fmt.Errorf("account %s is referenced by %d records: %w", id, refs, ErrConflict)
		}
		res, err := tx.ExecContext(ctx,
			`DELETE FROM accounts WHERE id = ? AND user_id = ?`, id, userID)
		if err != nil {
			return fmt.Errorf("delete account: %w", err)
		}
		return requireRow(res)
	})
}

// TotalBalance sums the balances of active, include-in-total accounts.
func (r *Repository) TotalBalance(ctx context.Context, userID string) (core.Money, error) {
	var cents int64
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(balance_cents), 0) FROM accounts
		WHERE user_id = ? AND is_active = 1 AND include_in_total = 1`,
		userID).Scan(&cents)
	if err != nil {
		return core.Money{}, fmt.Errorf("total balance: %w", err)
	}
	return core.Money{Cents: cents}, nil
}

// applyEffects increments each target account's balance inside the caller's
// transaction. Each effect is a single atomic UPDATE, never a read-modify-
// write at this layer. A missing or foreign account fails the whole batch,
// which the surrounding transaction then rolls back.
func applyEffects(ctx context.Context, tx *sql.Tx, userID string, effects []core.Effect) error {
	for _, e := range effects {
		res, err := tx.ExecContext(ctx, `
			UPDATE accounts
			SET balance_cents = balance_cents + ?, updated_at = datetime('now')
			WHERE id = ? AND user_id = ?`,
			e.Delta.Cents, e.AccountID, userID)
		if err != nil {
			return fmt.Errorf("apply effect to account %s: %w", e.AccountID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("apply effect to account %s: %w", e.AccountID, err)
		}
		if n != 1 {
			return fmt.Errorf("apply effect to account %s: %w", e.AccountID, ErrNotFound)
		}
	}
	return nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (core.Account, error) {
	var (
		a                      core.Account
		color, icon, desc      sql.NullString
		createdAt, updatedAt   string
	)
	err := row.Scan(&a.ID, &a.UserID, &a.Name, &a.Type, &a.Balance.Cents,
		&a.Currency, &color, &icon, &desc, &a.IsActive, &a.IncludeInTotal,
		&createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Account{}, ErrNotFound
	}
	if err != nil {
		return core.Account{}, fmt.Errorf("scan account: %w", err)
	}
	a.Color = fromNullStr(color)
	a.Icon = fromNullStr(icon)
	a.Description = fromNullStr(desc)
	a.CreatedAt = scanTime(createdAt)
	a.UpdatedAt = scanTime(updatedAt)
	return a, nil
}
