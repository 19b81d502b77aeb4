package services

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

func seedAccount(t *testing.T, m *memStore, id, userID string, cents int64) {
	t.Helper()
	m.accounts[id] = core.Account{
		ID:             id,
		UserID:         userID,
		Name:           id,
		Type:           "checking",
		Balance:        core.Money{Cents: cents},
		IsActive:       true,
		IncludeInTotal: true,
	}
}

func newTransactionService(m *memStore) *TransactionService {
	return NewTransactionService(m, m, m, nil)
}

func TestTransactionLifecycleRestoresBalance(t *testing.T) {
	ctx := context.Background()
	m := newMemStore()
	seedAccount(t, m, "acc", "u1", 100000)
	svc := newTransactionService(m)

	created, err := svc.Create(ctx, core.Transaction{
		UserID:    "u1",
		Type:      core.Expense,
		Amount:    core.Money{Cents: 15000},
		Date:      core.NewDate(2024, time.March, 10),
		AccountID: "acc",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if got := m.balance("acc"); got != 85000 {
		t.Fatalf("after create balance = %d, want 85000", got)
	}

	amount := core.Money{Cents: 20000}
	if _, err := svc.Update(ctx, created.ID, "u1", TransactionPatch{Amount: &amount}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if got := m.balance("acc"); got != 80000 {
		t.Fatalf("after edit balance = %d, want 80000", got)
	}

	if err := svc.Remove(ctx, created.ID, "u1"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if got := m.balance("acc"); got != 100000 {
		t.Fatalf("after delete balance = %d, want 100000", got)
	}
}

func TestTransferSymmetry(t *testing.T) {
	ctx := context.Background()
	m := newMemStore()
	seedAccount(t, m, "a", "u1", 100000)
	seedAccount(t, m, "b", "u1", 20000)
	svc := newTransactionService(m)

	created, err := svc.Create(ctx, core.Transaction{
		UserID:      "u1",
		Type:        core.Transfer,
		Amount:      core.Money{Cents: 50000},
		Date:        core.NewDate(2024, time.March, 10),
		AccountID:   "a",
		ToAccountID: "b",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if got := m.balance("a"); got != 50000 {
		t.Fatalf("source balance = %d, want 50000", got)
	}
	if got := m.balance("b"); got != 70000 {
		t.Fatalf("destination balance = %d, want 70000", got)
	}

	if err := svc.Remove(ctx, created.ID, "u1"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if got := m.balance("a"); got != 100000 {
		t.Fatalf("source after delete = %d, want 100000", got)
	}
	if got := m.balance("b"); got != 20000 {
		t.Fatalf("destination after delete = %d, want 20000", got)
	}
}

func TestUpdateWithIdenticalValuesKeepsBalance(t *testing.T) {
	ctx := context.Background()
	m := newMemStore()
	seedAccount(t, m, "acc", "u1", 50000)
	svc := newTransactionService(m)

	created, err := svc.Create(ctx, core.Transaction{
		UserID:    "u1",
		Type:      core.Expense,
		Amount:    core.Money{Cents: 1234},
		Date:      core.NewDate(2024, time.June, 1),
		AccountID: "acc",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	before := m.balance("acc")

	same := created.Amount
	if _, err := svc.Update(ctx, created.ID, "u1", TransactionPatch{Amount: &same}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if got := m.balance("acc"); got != before {
		t.Fatalf("balance changed on no-op edit: %d -> %d", before, got)
	}
}

func TestUpdateTypeChangeMovesBalanceCorrectly(t *testing.T) {
	ctx := context.Background()
	m := newMemStore()
	seedAccount(t, m, "acc", "u1", 10000)
	svc := newTransactionService(m)

	created, err := svc.Create(ctx, core.Transaction{
		UserID:    "u1",
		Type:      core.Expense,
		Amount:    core.Money{Cents: 3000},
		Date:      core.NewDate(2024, time.June, 1),
		AccountID: "acc",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	income := core.Income
	if _, err := svc.Update(ctx, created.ID, "u1", TransactionPatch{Type: &income}); err != nil {
		t.Fatalf("update: %v", err)
	}
	// 10000 - 3000 reverted, then + 3000 applied.
	if got := m.balance("acc"); got != 13000 {
		t.Fatalf("balance = %d, want 13000", got)
	}
}

func TestCrossUserAccessIsNotFound(t *testing.T) {
	ctx := context.Background()
	m := newMemStore()
	seedAccount(t, m, "acc", "u1", 10000)
	svc := newTransactionService(m)

	created, err := svc.Create(ctx, core.Transaction{
		UserID:    "u1",
		Type:      core.Income,
		Amount:    core.Money{Cents: 100},
		Date:      core.NewDate(2024, time.June, 1),
		AccountID: "acc",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.FindOne(ctx, created.ID, "u2"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("foreign read error = %v, want ErrNotFound", err)
	}
	if err := svc.Remove(ctx, created.ID, "u2"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("foreign delete error = %v, want ErrNotFound", err)
	}
	if got := m.balance("acc"); got != 10100 {
		t.Fatalf("balance mutated by foreign access: %d", got)
	}
}

func TestCreateRejectsUnknownReferences(t *testing.T) {
	ctx := context.Background()
	m := newMemStore()
	seedAccount(t, m, "acc", "u1", 0)
	svc := newTransactionService(m)

	_, err := svc.Create(ctx, core.Transaction{
		UserID:    "u1",
		Type:      core.Expense,
		Amount:    core.Money{Cents: 100},
		Date:      core.NewDate(2024, time.June, 1),
		AccountID: "ghost",
	})
	if !errors.Is(err, ErrInvalidReference) {
		t.Fatalf("unknown account error = %v, want ErrInvalidReference", err)
	}

	_, err = svc.Create(ctx, core.Transaction{
		UserID:     "u1",
		Type:       core.Expense,
		Amount:     core.Money{Cents: 100},
		Date:       core.NewDate(2024, time.June, 1),
		AccountID:  "acc",
		CategoryID: "ghost",
	})
	if !errors.Is(err, ErrInvalidReference) {
		t.Fatalf("unknown category error = %v, want ErrInvalidReference", err)
	}
}

// TestBalanceInvariantUnderRandomSequence drives a random mix of creates,
// amount edits, type edits and deletes, then checks that every balance
// equals its initial value plus the effects of the transactions that
// survived.
func TestBalanceInvariantUnderRandomSequence(t *testing.T) {
	ctx := context.Background()
	m := newMemStore()
	const initial = 1_000_000
	accounts := []string{"a1", "a2", "a3"}
	for _, id := range accounts {
		seedAccount(t, m, id, "u1", initial)
	}
	svc := newTransactionService(m)

	rng := rand.New(rand.NewSource(42))
	types := []core.TransactionType{core.Income, core.Expense, core.Transfer}
	var ids []string

	for i := 0; i < 400; i++ {
		switch op := rng.Intn(4); {
		case op == 0 || len(ids) == 0: // create
			tt := types[rng.Intn(len(types))]
			tx := core.Transaction{
				UserID:    "u1",
				Type:      tt,
				Amount:    core.Money{Cents: int64(rng.Intn(10000) + 1)},
				Date:      core.NewDate(2024, time.January, rng.Intn(28)+1),
				AccountID: accounts[rng.Intn(len(accounts))],
			}
			if tt == core.Transfer {
				for {
					tx.ToAccountID = accounts[rng.Intn(len(accounts))]
					if tx.ToAccountID != tx.AccountID {
						break
					}
				}
			}
			created, err := svc.Create(ctx, tx)
			if err != nil {
				t.Fatalf("create: %v", err)
			}
			ids = append(ids, created.ID)
		case op == 1: // amount edit
			id := ids[rng.Intn(len(ids))]
			amount := core.Money{Cents: int64(rng.Intn(10000) + 1)}
			if _, err := svc.Update(ctx, id, "u1", TransactionPatch{Amount: &amount}); err != nil {
				t.Fatalf("update amount: %v", err)
			}
		case op == 2: // flip income/expense
			id := ids[rng.Intn(len(ids))]
			stored, err := svc.FindOne(ctx, id, "u1")
			if err != nil {
				t.Fatalf("find: %v", err)
			}
			if stored.Type == core.Transfer {
				continue
			}
			next := core.Income
			if stored.Type == core.Income {
				next = core.Expense
			}
			if _, err := svc.Update(ctx, id, "u1", TransactionPatch{Type: &next}); err != nil {
				t.Fatalf("update type: %v", err)
			}
		default: // delete
			j := rng.Intn(len(ids))
			if err := svc.Remove(ctx, ids[j], "u1"); err != nil {
				t.Fatalf("remove: %v", err)
			}
			ids = append(ids[:j], ids[j+1:]...)
		}
	}

	want := map[string]int64{}
	for _, id := range accounts {
		want[id] = initial
	}
	remaining, err := svc.FindAll(ctx, "u1", storage.TransactionFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, tx := range remaining {
		effects, err := core.EffectsFor(tx)
		if err != nil {
			t.Fatalf("effects: %v", err)
		}
		for _, e := range effects {
			want[e.AccountID] += e.Delta.Cents
		}
	}
	for _, id := range accounts {
		if got := m.balance(id); got != want[id] {
			t.Errorf("account %s balance = %d, want %d", id, got, want[id])
		}
	}
}

func TestStatisticsExcludesTransfers(t *testing.T) {
	ctx := context.Background()
	m := newMemStore()
	seedAccount(t, m, "a", "u1", 0)
	seedAccount(t, m, "b", "u1", 0)
	svc := newTransactionService(m)

	mk := func(tt core.TransactionType, cents int64, to string) {
		t.Helper()
		tx := core.Transaction{
			UserID:      "u1",
			Type:        tt,
			Amount:      core.Money{Cents: cents},
			Date:        core.NewDate(2024, time.May, 15),
			AccountID:   "a",
			ToAccountID: to,
		}
		if _, err := svc.Create(ctx, tx); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	mk(core.Income, 200000, "")
	mk(core.Expense, 45000, "")
	mk(core.Expense, 5000, "")
	mk(core.Transfer, 99999, "b")

	stats, err := svc.Statistics(ctx, "u1", core.NewDate(2024, time.May, 1), core.NewDate(2024, time.May, 31))
	if err != nil {
		t.Fatalf("statistics: %v", err)
	}
	if stats.TotalIncome.Cents != 200000 {
		t.Errorf("income = %d, want 200000", stats.TotalIncome.Cents)
	}
	if stats.TotalExpenses.Cents != 50000 {
		t.Errorf("expenses = %d, want 50000", stats.TotalExpenses.Cents)
	}
	if stats.Net.Cents != 150000 {
		t.Errorf("net = %d, want 150000", stats.Net.Cents)
	}
	if stats.Count != 4 {
		t.Errorf("count = %d, want 4", stats.Count)
	}
	if got := stats.ByCategory["uncategorized"].Cents; got != 50000 {
		t.Errorf("uncategorized = %d, want 50000", got)
	}
}

func TestPublisherReceivesEvents(t *testing.T) {
	ctx := context.Background()
	m := newMemStore()
	seedAccount(t, m, "acc", "u1", 10000)
	pub := &fakePublisher{}
	svc := NewTransactionService(m, m, m, pub)

	created, err := svc.Create(ctx, core.Transaction{
		UserID:    "u1",
		Type:      core.Expense,
		Amount:    core.Money{Cents: 100},
		Date:      core.NewDate(2024, time.June, 1),
		AccountID: "acc",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.Remove(ctx, created.ID, "u1"); err != nil {
		t.Fatalf("remove: %v", err)
	}

	want := []string{"created:" + created.ID, "deleted:" + created.ID}
	if len(pub.events) != len(want) {
		t.Fatalf("events = %v, want %v", pub.events, want)
	}
	for i := range want {
		if pub.events[i] != want[i] {
			t.Fatalf("events = %v, want %v", pub.events, want)
		}
	}
}
