package services

import (
	"context"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// Store interfaces implemented by *storage.Repository. Absent or
// foreign-owned rows yield ErrNotFound.
type (
	AccountStore interface {
		CreateAccount(ctx context.Context, a core.Account) error
		GetAccount(ctx context.Context, id, userID string) (core.Account, error)
		ListAccounts(ctx context.Context, userID string) ([]core.Account, error)
		UpdateAccount(ctx context.Context, a core.Account) error
		DeleteAccount(ctx context.Context, id, userID string) error
		TotalBalance(ctx context.Context, userID string) (core.Money, error)
	}

	TransactionStore interface {
		CreateTransactionWithEffects(ctx context.Context, t core.Transaction, effects []core.Effect) error
		UpdateTransactionWithEffects(ctx context.Context, t core.Transaction, revert, apply []core.Effect) error
		DeleteTransactionWithEffects(ctx context.Context, id, userID string, revert []core.Effect) error
		GetTransaction(ctx context.Context, id, userID string) (core.Transaction, error)
		ListTransactions(ctx context.Context, userID string, f storage.TransactionFilter) ([]core.Transaction, error)
	}

	RecurringStore interface {
		CreateRecurring(ctx context.Context, rt core.RecurringTransaction) error
		GetRecurring(ctx context.Context, id, userID string) (core.RecurringTransaction, error)
		ListRecurring(ctx context.Context, userID string, status core.RecurringStatus) ([]core.RecurringTransaction, error)
		ListDueRecurring(ctx context.Context, asOf core.Date) ([]core.RecurringTransaction, error)
		ListUpcomingRecurring(ctx context.Context, userID string, from, to core.Date) ([]core.RecurringTransaction, error)
		UpdateRecurring(ctx context.Context, rt core.RecurringTransaction) error
		DeleteRecurring(ctx context.Context, id, userID string) error
		MaterializeRecurring(ctx context.Context, t core.Transaction, effects []core.Effect, rt core.RecurringTransaction) error
	}

	BudgetStore interface {
		CreateBudget(ctx context.Context, b core.Budget) error
		GetBudget(ctx context.Context, id, userID string) (core.Budget, error)
		ListBudgets(ctx context.Context, userID string, activeOnly *bool) ([]core.Budget, error)
		UpdateBudget(ctx context.Context, b core.Budget) error
		DeleteBudget(ctx context.Context, id, userID string) error
		AddBudgetSpent(ctx context.Context, id, userID string, delta core.Money) error
	}

	GoalStore interface {
		CreateGoal(ctx context.Context, g core.Goal) error
		GetGoal(ctx context.Context, id, userID string) (core.Goal, error)
		ListGoals(ctx context.Context, userID string, status core.GoalStatus) ([]core.Goal, error)
		UpdateGoal(ctx context.Context, g core.Goal) error
		DeleteGoal(ctx context.Context, id, userID string) error
	}

	CategoryStore interface {
		CreateCategory(ctx context.Context, c core.Category) error
		GetCategory(ctx context.Context, id, userID string) (core.Category, error)
		ListCategories(ctx context.Context, userID string) ([]core.Category, error)
		UpdateCategory(ctx context.Context, c core.Category) error
		DeleteCategory(ctx context.Context, id, userID string) error
	}

	NotificationStore interface {
		CreateNotification(ctx context.Context, n core.Notification) error
		ListNotifications(ctx context.Context, userID string, unreadOnly bool) ([]core.Notification, error)
		CountUnreadNotifications(ctx context.Context, userID string) (int, error)
		MarkNotificationRead(ctx context.Context, id, userID string) error
		MarkAllNotificationsRead(ctx context.Context, userID string) error
		DeleteNotification(ctx context.Context, id, userID string) error
	}

	// EventPublisher fans transaction mutations out to interested
	// consumers (the export worker). Optional; a nil publisher disables it.
	EventPublisher interface {
		PublishTransactionEvent(ctx context.Context, action string, t core.Transaction) error
	}
)
