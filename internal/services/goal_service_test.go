package services

import (
	"context"
	"errors"
	"testing"

	"fintrack/internal/core"
)

func TestAddToGoalAutoCompletes(t *testing.T) {
	ctx := context.Background()
	m := newMemStore()
	svc := NewGoalService(m, m, m)

	g, err := svc.Create(ctx, core.Goal{
		UserID:       "u1",
		Name:         "vacation",
		TargetAmount: core.Money{Cents: 100000},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	g, err = svc.AddToGoal(ctx, g.ID, "u1", core.Money{Cents: 60000})
	if err != nil {
		t.Fatalf("first add: %v", err)
	}
	if g.Status != core.GoalInProgress {
		t.Fatalf("status = %s, want in_progress", g.Status)
	}

	g, err = svc.AddToGoal(ctx, g.ID, "u1", core.Money{Cents: 40000})
	if err != nil {
		t.Fatalf("second add: %v", err)
	}
	if g.Status != core.GoalCompleted {
		t.Fatalf("status = %s, want completed", g.Status)
	}
	if g.CurrentAmount.Cents != 100000 {
		t.Fatalf("current = %d, want 100000", g.CurrentAmount.Cents)
	}

	if _, err := svc.AddToGoal(ctx, g.ID, "u1", core.Money{Cents: 1}); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("add to completed goal error = %v, want ErrInvalidState", err)
	}

	count, err := m.CountUnreadNotifications(ctx, "u1")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Errorf("unread notifications = %d, want 1", count)
	}
}

func TestGoalProgress(t *testing.T) {
	ctx := context.Background()
	m := newMemStore()
	svc := NewGoalService(m, m, m)

	g, err := svc.Create(ctx, core.Goal{
		UserID:       "u1",
		Name:         "car",
		TargetAmount: core.Money{Cents: 200000},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.AddToGoal(ctx, g.ID, "u1", core.Money{Cents: 50000}); err != nil {
		t.Fatalf("add: %v", err)
	}

	p, err := svc.Progress(ctx, g.ID, "u1")
	if err != nil {
		t.Fatalf("progress: %v", err)
	}
	if p.Percentage != 25 {
		t.Errorf("percentage = %v, want 25", p.Percentage)
	}
	if p.Remaining.Cents != 150000 {
		t.Errorf("remaining = %d, want 150000", p.Remaining.Cents)
	}
	if p.DaysLeft != -1 {
		t.Errorf("days left = %d, want -1 for no deadline", p.DaysLeft)
	}
}

func TestAddToGoalRejectsNonPositiveAmount(t *testing.T) {
	ctx := context.Background()
	m := newMemStore()
	svc := NewGoalService(m, m, m)

	g, err := svc.Create(ctx, core.Goal{
		UserID:       "u1",
		Name:         "fund",
		TargetAmount: core.Money{Cents: 1000},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.AddToGoal(ctx, g.ID, "u1", core.Money{}); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("zero add error = %v, want ErrInvalidAmount", err)
	}
}
