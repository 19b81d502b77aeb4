package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// memStore is an in-memory stand-in for the storage repository. It applies
// ledger effects with the same all-or-nothing semantics as the SQL layer.
type memStore struct {
	mu            sync.Mutex
	accounts      map[string]core.Account
	transactions  map[string]core.Transaction
	recurring     map[string]core.RecurringTransaction
	budgets       map[string]core.Budget
	goals         map[string]core.Goal
	categories    map[string]core.Category
	notifications map[string]core.Notification

	// Template IDs whose materialization should fail, for batch tests.
	failMaterialize map[string]bool
}

func newMemStore() *memStore {
	return &memStore{
		accounts:        make(map[string]core.Account),
		transactions:    make(map[string]core.Transaction),
		recurring:       make(map[string]core.RecurringTransaction),
		budgets:         make(map[string]core.Budget),
		goals:           make(map[string]core.Goal),
		categories:      make(map[string]core.Category),
		notifications:   make(map[string]core.Notification),
		failMaterialize: make(map[string]bool),
	}
}

func (m *memStore) applyEffectsLocked(userID string, effects []core.Effect) error {
	// Stage first so a missing account leaves every balance untouched.
	staged := make(map[string]core.Account, len(effects))
	for _, e := range effects {
		a, ok := staged[e.AccountID]
		if !ok {
			a, ok = m.accounts[e.AccountID]
			if !ok || a.UserID != userID {
				return storage.ErrNotFound
			}
		}
		a.Balance = a.Balance.Add(e.Delta)
		staged[e.AccountID] = a
	}
	for id, a := range staged {
		m.accounts[id] = a
	}
	return nil
}

// AccountStore

func (m *memStore) CreateAccount(ctx context.Context, a core.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[a.ID] = a
	return nil
}

func (m *memStore) GetAccount(ctx context.Context, id, userID string) (core.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok || a.UserID != userID {
		return core.Account{}, storage.ErrNotFound
	}
	return a, nil
}

func (m *memStore) ListAccounts(ctx context.Context, userID string) ([]core.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []core.Account
	for _, a := range m.accounts {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memStore) UpdateAccount(ctx context.Context, a core.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.accounts[a.ID]
	if !ok || stored.UserID != a.UserID {
		return storage.ErrNotFound
	}
	a.Balance = stored.Balance
	m.accounts[a.ID] = a
	return nil
}

func (m *memStore) DeleteAccount(ctx context.Context, id, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok || a.UserID != userID {
		return storage.ErrNotFound
	}
	for _, t := range m.transactions {
		if t.UserID == userID && (t.AccountID == id || t.ToAccountID == id) {
			return storage.ErrConflict
		}
	}
	for _, rt := range m.recurring {
		if rt.UserID == userID && (rt.AccountID == id || rt.ToAccountID == id) {
			return storage.ErrConflict
		}
	}
	delete(m.accounts, id)
	return nil
}

func (m *memStore) TotalBalance(ctx context.Context, userID string) (core.Money, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var total core.Money
	for _, a := range m.accounts {
		if a.UserID == userID && a.IsActive && a.IncludeInTotal {
			total = total.Add(a.Balance)
		}
	}
	return total, nil
}

// TransactionStore

func (m *memStore) CreateTransactionWithEffects(ctx context.Context, t core.Transaction, effects []core.Effect) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.applyEffectsLocked(t.UserID, effects); err != nil {
		return err
	}
	m.transactions[t.ID] = t
	return nil
}

func (m *memStore) UpdateTransactionWithEffects(ctx context.Context, t core.Transaction, revert, apply []core.Effect) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.transactions[t.ID]
	if !ok || stored.UserID != t.UserID {
		return storage.ErrNotFound
	}
	if err := m.applyEffectsLocked(t.UserID, revert); err != nil {
		return err
	}
	if err := m.applyEffectsLocked(t.UserID, apply); err != nil {
		return err
	}
	m.transactions[t.ID] = t
	return nil
}

func (m *memStore) DeleteTransactionWithEffects(ctx context.Context, id, userID string, revert []core.Effect) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.transactions[id]
	if !ok || stored.UserID != userID {
		return storage.ErrNotFound
	}
	if err := m.applyEffectsLocked(userID, revert); err != nil {
		return err
	}
	delete(m.transactions, id)
	return nil
}

func (m *memStore) GetTransaction(ctx context.Context, id, userID string) (core.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.transactions[id]
	if !ok || t.UserID != userID {
		return core.Transaction{}, storage.ErrNotFound
	}
	return t, nil
}

func (m *memStore) ListTransactions(ctx context.Context, userID string, f storage.TransactionFilter) ([]core.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []core.Transaction
	for _, t := range m.transactions {
		if t.UserID != userID {
			continue
		}
		if f.AccountID != "" && t.AccountID != f.AccountID && t.ToAccountID != f.AccountID {
			continue
		}
		if f.CategoryID != "" && t.CategoryID != f.CategoryID {
			continue
		}
		if f.Type != "" && t.Type != f.Type {
			continue
		}
		if !f.StartDate.IsZero() && t.Date.Before(f.StartDate) {
			continue
		}
		if !f.EndDate.IsZero() && t.Date.After(f.EndDate) {
			continue
		}
		if f.Query != "" && !matchesQuery(t, f.Query) {
			continue
		}
		if f.Payee != "" && !containsFold(t.Payee, f.Payee) {
			continue
		}
		if f.MinAmount != nil && t.Amount.Cents < f.MinAmount.Cents {
			continue
		}
		if f.MaxAmount != nil && t.Amount.Cents > f.MaxAmount.Cents {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func matchesQuery(t core.Transaction, q string) bool {
	return containsFold(t.Description, q) || containsFold(t.Notes, q) || containsFold(t.Payee, q)
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// RecurringStore

func (m *memStore) CreateRecurring(ctx context.Context, rt core.RecurringTransaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recurring[rt.ID] = rt
	return nil
}

func (m *memStore) GetRecurring(ctx context.Context, id, userID string) (core.RecurringTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rt, ok := m.recurring[id]
	if !ok || rt.UserID != userID {
		return core.RecurringTransaction{}, storage.ErrNotFound
	}
	return rt, nil
}

func (m *memStore) ListRecurring(ctx context.Context, userID string, status core.RecurringStatus) ([]core.RecurringTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []core.RecurringTransaction
	for _, rt := range m.recurring {
		if rt.UserID != userID {
			continue
		}
		if status != "" && rt.Status != status {
			continue
		}
		out = append(out, rt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NextOccurrence.Before(out[j].NextOccurrence) })
	return out, nil
}

func (m *memStore) ListDueRecurring(ctx context.Context, asOf core.Date) ([]core.RecurringTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []core.RecurringTransaction
	for _, rt := range m.recurring {
		if rt.Status == core.RecurringActive && rt.AutoCreate && !rt.NextOccurrence.After(asOf) {
			out = append(out, rt)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) ListUpcomingRecurring(ctx context.Context, userID string, from, to core.Date) ([]core.RecurringTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []core.RecurringTransaction
	for _, rt := range m.recurring {
		if rt.UserID != userID || rt.Status != core.RecurringActive {
			continue
		}
		if rt.NextOccurrence.Before(from) || rt.NextOccurrence.After(to) {
			continue
		}
		out = append(out, rt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NextOccurrence.Before(out[j].NextOccurrence) })
	return out, nil
}

func (m *memStore) UpdateRecurring(ctx context.Context, rt core.RecurringTransaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.recurring[rt.ID]
	if !ok || stored.UserID != rt.UserID {
		return storage.ErrNotFound
	}
	m.recurring[rt.ID] = rt
	return nil
}

func (m *memStore) DeleteRecurring(ctx context.Context, id, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rt, ok := m.recurring[id]
	if !ok || rt.UserID != userID {
		return storage.ErrNotFound
	}
	delete(m.recurring, id)
	return nil
}

func (m *memStore) MaterializeRecurring(ctx context.Context, t core.Transaction, effects []core.Effect, rt core.RecurringTransaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failMaterialize[rt.ID] {
		return errors.New("materialize failed")
	}
	if err := m.applyEffectsLocked(t.UserID, effects); err != nil {
		return err
	}
	m.transactions[t.ID] = t
	m.recurring[rt.ID] = rt
	return nil
}

// BudgetStore

func (m *memStore) CreateBudget(ctx context.Context, b core.Budget) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.budgets[b.ID] = b
	return nil
}

func (m *memStore) GetBudget(ctx context.Context, id, userID string) (core.Budget, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.budgets[id]
	if !ok || b.UserID != userID {
		return core.Budget{}, storage.ErrNotFound
	}
	return b, nil
}

func (m *memStore) ListBudgets(ctx context.Context, userID string, activeOnly *bool) ([]core.Budget, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []core.Budget
	for _, b := range m.budgets {
		if b.UserID != userID {
			continue
		}
		if activeOnly != nil && b.IsActive != *activeOnly {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func (m *memStore) UpdateBudget(ctx context.Context, b core.Budget) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.budgets[b.ID]
	if !ok || stored.UserID != b.UserID {
		return storage.ErrNotFound
	}
	m.budgets[b.ID] = b
	return nil
}

func (m *memStore) DeleteBudget(ctx context.Context, id, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.budgets[id]
	if !ok || b.UserID != userID {
		return storage.ErrNotFound
	}
	delete(m.budgets, id)
	return nil
}

func (m *memStore) AddBudgetSpent(ctx context.Context, id, userID string, delta core.Money) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.budgets[id]
	if !ok || b.UserID != userID {
		return storage.ErrNotFound
	}
	b.Spent = b.Spent.Add(delta)
	m.budgets[id] = b
	return nil
}

// GoalStore

func (m *memStore) CreateGoal(ctx context.Context, g core.Goal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.goals[g.ID] = g
	return nil
}

func (m *memStore) GetGoal(ctx context.Context, id, userID string) (core.Goal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.goals[id]
	if !ok || g.UserID != userID {
		return core.Goal{}, storage.ErrNotFound
	}
	return g, nil
}

func (m *memStore) ListGoals(ctx context.Context, userID string, status core.GoalStatus) ([]core.Goal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []core.Goal
	for _, g := range m.goals {
		if g.UserID != userID {
			continue
		}
		if status != "" && g.Status != status {
			continue
		}
		out = append(out, g)
	}
	return out, nil
}

func (m *memStore) UpdateGoal(ctx context.Context, g core.Goal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.goals[g.ID]
	if !ok || stored.UserID != g.UserID {
		return storage.ErrNotFound
	}
	m.goals[g.ID] = g
	return nil
}

func (m *memStore) DeleteGoal(ctx context.Context, id, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.goals[id]
	if !ok || g.UserID != userID {
		return storage.ErrNotFound
	}
	delete(m.goals, id)
	return nil
}

// CategoryStore

func (m *memStore) CreateCategory(ctx context.Context, c core.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.categories[c.ID] = c
	return nil
}

func (m *memStore) GetCategory(ctx context.Context, id, userID string) (core.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.categories[id]
	if !ok || (!c.IsSystem && c.UserID != userID) {
		return core.Category{}, storage.ErrNotFound
	}
	return c, nil
}

func (m *memStore) ListCategories(ctx context.Context, userID string) ([]core.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []core.Category
	for _, c := range m.categories {
		if c.IsSystem || c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memStore) UpdateCategory(ctx context.Context, c core.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.categories[c.ID]
	if !ok || stored.IsSystem || stored.UserID != c.UserID {
		return storage.ErrNotFound
	}
	m.categories[c.ID] = c
	return nil
}

func (m *memStore) DeleteCategory(ctx context.Context, id, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.categories[id]
	if !ok || c.IsSystem || c.UserID != userID {
		return storage.ErrNotFound
	}
	delete(m.categories, id)
	return nil
}

// NotificationStore

func (m *memStore) CreateNotification(ctx context.Context, n core.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifications[n.ID] = n
	return nil
}

func (m *memStore) ListNotifications(ctx context.Context, userID string, unreadOnly bool) ([]core.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []core.Notification
	for _, n := range m.notifications {
		if n.UserID != userID {
			continue
		}
		if unreadOnly && n.IsRead {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

func (m *memStore) CountUnreadNotifications(ctx context.Context, userID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, n := range m.notifications {
		if n.UserID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (m *memStore) MarkNotificationRead(ctx context.Context, id, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.notifications[id]
	if !ok || n.UserID != userID {
		return storage.ErrNotFound
	}
	n.IsRead = true
	m.notifications[id] = n
	return nil
}

func (m *memStore) MarkAllNotificationsRead(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, n := range m.notifications {
		if n.UserID == userID {
			n.IsRead = true
			m.notifications[id] = n
		}
	}
	return nil
}

func (m *memStore) DeleteNotification(ctx context.Context, id, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.notifications[id]
	if !ok || n.UserID != userID {
		return storage.ErrNotFound
	}
	delete(m.notifications, id)
	return nil
}

func (m *memStore) balance(id string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.accounts[id].Balance.Cents
}

// fakePublisher records published transaction events.
type fakePublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *fakePublisher) PublishTransactionEvent(ctx context.Context, action string, t core.Transaction) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, action+":"+t.ID)
	return nil
}
