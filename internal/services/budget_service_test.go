package services

import (
	"context"
	"testing"
	"time"

	"fintrack/internal/core"
)

func TestBudgetProgress(t *testing.T) {
	ctx := context.Background()
	m := newMemStore()
	svc := NewBudgetService(m, m)

	b, err := svc.Create(ctx, core.Budget{
		UserID:    "u1",
		Name:      "groceries",
		Amount:    core.Money{Cents: 40000},
		Period:    core.PeriodMonthly,
		StartDate: core.NewDate(2024, time.June, 1),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.RecordSpending(ctx, b.ID, "u1", core.Money{Cents: 10000}); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := svc.RecordSpending(ctx, b.ID, "u1", core.Money{Cents: 35000}); err != nil {
		t.Fatalf("record: %v", err)
	}

	p, err := svc.Progress(ctx, b.ID, "u1")
	if err != nil {
		t.Fatalf("progress: %v", err)
	}
	if p.Percentage != 112.5 {
		t.Errorf("percentage = %v, want 112.5", p.Percentage)
	}
	if p.Remaining.Cents != -5000 {
		t.Errorf("remaining = %d, want -5000", p.Remaining.Cents)
	}
	if !p.OverBudget {
		t.Error("over-budget flag not set")
	}
}

func TestBudgetListActiveOnly(t *testing.T) {
	ctx := context.Background()
	m := newMemStore()
	svc := NewBudgetService(m, m)

	active, err := svc.Create(ctx, core.Budget{
		UserID: "u1", Name: "food", Amount: core.Money{Cents: 1000}, Period: core.PeriodMonthly,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	other, err := svc.Create(ctx, core.Budget{
		UserID: "u1", Name: "travel", Amount: core.Money{Cents: 1000}, Period: core.PeriodYearly,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	off := false
	if _, err := svc.Update(ctx, other.ID, "u1", BudgetPatch{IsActive: &off}); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	on := true
	got, err := svc.FindAll(ctx, "u1", &on)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 || got[0].ID != active.ID {
		t.Fatalf("active list = %v, want only %s", got, active.ID)
	}

	all, err := svc.FindAll(ctx, "u1", nil)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("all list = %d budgets, want 2", len(all))
	}
}
