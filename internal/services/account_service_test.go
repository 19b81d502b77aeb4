package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"fintrack/internal/core"
)

func TestRemoveAccountWithTransactionsIsConflict(t *testing.T) {
	ctx := context.Background()
	m := newMemStore()
	seedAccount(t, m, "a", "u1", 100000)
	seedAccount(t, m, "b", "u1", 20000)
	txSvc := newTransactionService(m)
	accSvc := NewAccountService(m)

	created, err := txSvc.Create(ctx, core.Transaction{
		UserID:      "u1",
		Type:        core.Transfer,
		Amount:      core.Money{Cents: 50000},
		Date:        core.NewDate(2024, time.March, 10),
		AccountID:   "a",
		ToAccountID: "b",
	})
	if err != nil {
		t.Fatalf("create transfer: %v", err)
	}

	// Both legs block removal; the counterpart balance stays exact.
	if err := accSvc.Remove(ctx, "a", "u1"); !errors.Is(err, ErrConflict) {
		t.Fatalf("remove source: err = %v, want ErrConflict", err)
	}
	if err := accSvc.Remove(ctx, "b", "u1"); !errors.Is(err, ErrConflict) {
		t.Fatalf("remove destination: err = %v, want ErrConflict", err)
	}
	if got := m.balance("b"); got != 70000 {
		t.Fatalf("destination balance = %d after refused removal, want 70000", got)
	}

	// Deleting the transaction first reverts its effects and unblocks
	// the removal.
	if err := txSvc.Remove(ctx, created.ID, "u1"); err != nil {
		t.Fatalf("remove transaction: %v", err)
	}
	if err := accSvc.Remove(ctx, "a", "u1"); err != nil {
		t.Fatalf("remove account after transaction delete: %v", err)
	}
	if got := m.balance("b"); got != 20000 {
		t.Fatalf("destination balance = %d, want 20000", got)
	}
}

func TestRemoveAccountWithTemplateIsConflict(t *testing.T) {
	ctx := context.Background()
	m := newMemStore()
	seedAccount(t, m, "acc", "u1", 100000)
	accSvc := NewAccountService(m)
	recSvc := NewRecurringService(m, m, m, m, nil)

	created, err := recSvc.Create(ctx, newTemplate("u1"))
	if err != nil {
		t.Fatalf("create template: %v", err)
	}

	if err := accSvc.Remove(ctx, "acc", "u1"); !errors.Is(err, ErrConflict) {
		t.Fatalf("remove: err = %v, want ErrConflict", err)
	}

	if err := recSvc.Remove(ctx, created.ID, "u1"); err != nil {
		t.Fatalf("remove template: %v", err)
	}
	if err := accSvc.Remove(ctx, "acc", "u1"); err != nil {
		t.Fatalf("remove account after template delete: %v", err)
	}
}
