package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// TransactionService owns the transaction lifecycle. Every create, update
// and delete goes through the ledger effect calculator so account balances
// stay consistent with the transaction history.
type TransactionService struct {
	transactions TransactionStore
	accounts     AccountStore
	categories   CategoryStore
	publisher    EventPublisher
}

func NewTransactionService(transactions TransactionStore, accounts AccountStore, categories CategoryStore, publisher EventPublisher) *TransactionService {
	return &TransactionService{
		transactions: transactions,
		accounts:     accounts,
		categories:   categories,
		publisher:    publisher,
	}
}

// TransactionPatch carries the mutable fields of an update. Nil fields keep
// the stored value.
type TransactionPatch struct {
	Type        *core.TransactionType
	Amount      *core.Money
	Date        *core.Date
	Description *string
	Notes       *string
	Payee       *string
	AccountID   *string
	CategoryID  *string
	ToAccountID *string
}

// Create validates the transaction, verifies its account references and
// applies the ledger effects atomically with the insert.
func (s *TransactionService) Create(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now

	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if err := s.checkReferences(ctx, t); err != nil {
		return core.Transaction{}, err
	}

	effects, err := core.EffectsFor(t)
	if err != nil {
		return core.Transaction{}, err
	}
	if err := s.transactions.CreateTransactionWithEffects(ctx, t, effects); err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	s.publish(ctx, "created", t)
	return t, nil
}

// Update reverts the stored transaction's effects, applies the patch and
// reapplies the new effects, all in one storage transaction. A patch that
// changes nothing still round-trips through revert and reapply, which is a
// no-op on balances.
func (s *TransactionService) Update(ctx context.Context, id, userID string, patch TransactionPatch) (core.Transaction, error) {
	stored, err := s.transactions.GetTransaction(ctx, id, userID)
	if err != nil {
		return core.Transaction{}, err
	}

	revert, err := core.EffectsFor(stored)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("%w: stored transaction %s", ErrInconsistency, id)
	}

	updated := applyPatch(stored, patch)
	updated.UpdatedAt = time.Now().UTC()

	if err := updated.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if err := s.checkReferences(ctx, updated); err != nil {
		return core.Transaction{}, err
	}

	apply, err := core.EffectsFor(updated)
	if err != nil {
		return core.Transaction{}, err
	}
	if err := s.transactions.UpdateTransactionWithEffects(ctx, updated, core.Reversed(revert), apply); err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}

	s.publish(ctx, "updated", updated)
	return updated, nil
}

// Remove deletes the transaction and reverts its balance effects atomically.
func (s *TransactionService) Remove(ctx context.Context, id, userID string) error {
	stored, err := s.transactions.GetTransaction(ctx, id, userID)
	if err != nil {
		return err
	}

	effects, err := core.EffectsFor(stored)
	if err != nil {
		return fmt.Errorf("%w: stored transaction %s", ErrInconsistency, id)
	}
	if err := s.transactions.DeleteTransactionWithEffects(ctx, id, userID, core.Reversed(effects)); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}

	s.publish(ctx, "deleted", stored)
	return nil
}

func (s *TransactionService) FindOne(ctx context.Context, id, userID string) (core.Transaction, error) {
	return s.transactions.GetTransaction(ctx, id, userID)
}

func (s *TransactionService) FindAll(ctx context.Context, userID string, f storage.TransactionFilter) ([]core.Transaction, error) {
	return s.transactions.ListTransactions(ctx, userID, f)
}

// Statistics aggregates a user's transactions over a date range.
type Statistics struct {
	TotalIncome   core.Money
	TotalExpenses core.Money
	Net           core.Money
	ByCategory    map[string]core.Money
	Count         int
}

// Statistics sums income and expenses in the range. Transfers move money
// between the user's own accounts and are excluded from both totals.
func (s *TransactionService) Statistics(ctx context.Context, userID string, start, end core.Date) (Statistics, error) {
	list, err := s.transactions.ListTransactions(ctx, userID, storage.TransactionFilter{
		StartDate: start,
		EndDate:   end,
	})
	if err != nil {
		return Statistics{}, fmt.Errorf("list transactions: %w", err)
	}

	stats := Statistics{ByCategory: make(map[string]core.Money)}
	for _, t := range list {
		stats.Count++
		switch t.Type {
		case core.Income:
			stats.TotalIncome = stats.TotalIncome.Add(t.Amount)
		case core.Expense:
			stats.TotalExpenses = stats.TotalExpenses.Add(t.Amount)
			key := t.CategoryID
			if key == "" {
				key = "uncategorized"
			}
			stats.ByCategory[key] = stats.ByCategory[key].Add(t.Amount)
		}
	}
	stats.Net = stats.TotalIncome.Sub(stats.TotalExpenses)
	return stats, nil
}

// checkReferences verifies the accounts and category belong to the user.
func (s *TransactionService) checkReferences(ctx context.Context, t core.Transaction) error {
	if _, err := s.accounts.GetAccount(ctx, t.AccountID, t.UserID); err != nil {
		return fmt.Errorf("%w: account %s", ErrInvalidReference, t.AccountID)
	}
	if t.ToAccountID != "" {
		if _, err := s.accounts.GetAccount(ctx, t.ToAccountID, t.UserID); err != nil {
			return fmt.Errorf("%w: account %s", ErrInvalidReference, t.ToAccountID)
		}
	}
	if t.CategoryID != "" {
		if _, err := s.categories.GetCategory(ctx, t.CategoryID, t.UserID); err != nil {
			return fmt.Errorf("%w: category %s", ErrInvalidReference, t.CategoryID)
		}
	}
	return nil
}

func (s *TransactionService) publish(ctx context.Context, action string, t core.Transaction) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishTransactionEvent(ctx, action, t); err != nil {
		slog.ErrorContext(ctx, "Failed to publish transaction event",
			"action", action, "id", t.ID, "error", err)
		// The local write already succeeded; the export stream catches up later.
	}
}

func applyPatch(t core.Transaction, p TransactionPatch) core.Transaction {
	if p.Type != nil {
		t.Type = *p.Type
	}
	if p.Amount != nil {
		t.Amount = *p.Amount
	}
	if p.Date != nil {
		t.Date = *p.Date
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Notes != nil {
		t.Notes = *p.Notes
	}
	if p.Payee != nil {
		t.Payee = *p.Payee
	}
	if p.AccountID != nil {
		t.AccountID = *p.AccountID
	}
	if p.CategoryID != nil {
		t.CategoryID = *p.CategoryID
	}
	if p.ToAccountID != nil {
		t.ToAccountID = *p.ToAccountID
	}
	// A patch away from transfer drops the stale destination.
	if p.Type != nil && t.Type != core.Transfer {
		t.ToAccountID = ""
	}
	return t
}
