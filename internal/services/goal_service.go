package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/core"
)

type GoalService struct {
	goals         GoalStore
	accounts      AccountStore
	notifications NotificationStore
}

func NewGoalService(goals GoalStore, accounts AccountStore, notifications NotificationStore) *GoalService {
	return &GoalService{goals: goals, accounts: accounts, notifications: notifications}
}

func (s *GoalService) Create(ctx context.Context, g core.Goal) (core.Goal, error) {
	if g.Name == "" {
		return core.Goal{}, core.ErrEmptyName
	}
	if g.TargetAmount.Cents <= 0 {
		return core.Goal{}, core.ErrInvalidAmount
	}
	if g.AccountID != "" {
		if _, err := s.accounts.GetAccount(ctx, g.AccountID, g.UserID); err != nil {
			return core.Goal{}, fmt.Errorf("%w: account %s", ErrInvalidReference, g.AccountID)
		}
	}
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	g.CreatedAt = now
	g.UpdatedAt = now
	g.Status = core.GoalInProgress

	if err := s.goals.CreateGoal(ctx, g); err != nil {
		return core.Goal{}, fmt.Errorf("create goal: %w", err)
	}
	return g, nil
}

type GoalPatch struct {
	Name         *string
	TargetAmount *core.Money
	TargetDate   *core.Date
	Color        *string
	Icon         *string
	Description  *string
	AccountID    *string
}

func (s *GoalService) Update(ctx context.Context, id, userID string, patch GoalPatch) (core.Goal, error) {
	g, err := s.goals.GetGoal(ctx, id, userID)
	if err != nil {
		return core.Goal{}, err
	}
	if g.Status != core.GoalInProgress {
		return core.Goal{}, fmt.Errorf("%w: goal is %s", ErrInvalidState, g.Status)
	}
	if patch.Name != nil {
		g.Name = *patch.Name
	}
	if patch.TargetAmount != nil {
		g.TargetAmount = *patch.TargetAmount
	}
	if patch.TargetDate != nil {
		g.TargetDate = *patch.TargetDate
	}
	if patch.Color != nil {
		g.Color = *patch.Color
	}
	if patch.Icon != nil {
		g.Icon = *patch.Icon
	}
	if patch.Description != nil {
		g.Description = *patch.Description
	}
	if patch.AccountID != nil {
		g.AccountID = *patch.AccountID
		if g.AccountID != "" {
			if _, err := s.accounts.GetAccount(ctx, g.AccountID, userID); err != nil {
				return core.Goal{}, fmt.Errorf("%w: account %s", ErrInvalidReference, g.AccountID)
			}
		}
	}
	if g.Name == "" {
		return core.Goal{}, core.ErrEmptyName
	}
	if g.TargetAmount.Cents <= 0 {
		return core.Goal{}, core.ErrInvalidAmount
	}
	g.UpdatedAt = time.Now().UTC()

	if err := s.goals.UpdateGoal(ctx, g); err != nil {
		return core.Goal{}, fmt.Errorf("update goal: %w", err)
	}
	return g, nil
}

func (s *GoalService) FindOne(ctx context.Context, id, userID string) (core.Goal, error) {
	return s.goals.GetGoal(ctx, id, userID)
}

func (s *GoalService) FindAll(ctx context.Context, userID string, status core.GoalStatus) ([]core.Goal, error) {
	return s.goals.ListGoals(ctx, userID, status)
}

func (s *GoalService) Remove(ctx context.Context, id, userID string) error {
	return s.goals.DeleteGoal(ctx, id, userID)
}

// AddToGoal contributes an amount toward the target. Reaching the target
// completes the goal and drops a notification.
func (s *GoalService) AddToGoal(ctx context.Context, id, userID string, amount core.Money) (core.Goal, error) {
	if amount.Cents <= 0 {
		return core.Goal{}, core.ErrInvalidAmount
	}
	g, err := s.goals.GetGoal(ctx, id, userID)
	if err != nil {
		return core.Goal{}, err
	}
	if g.Status != core.GoalInProgress {
		return core.Goal{}, fmt.Errorf("%w: goal is %s", ErrInvalidState, g.Status)
	}

	g.CurrentAmount = g.CurrentAmount.Add(amount)
	completed := g.CurrentAmount.Cents >= g.TargetAmount.Cents
	if completed {
		g.Status = core.GoalCompleted
	}
	g.UpdatedAt = time.Now().UTC()

	if err := s.goals.UpdateGoal(ctx, g); err != nil {
		return core.Goal{}, fmt.Errorf("update goal: %w", err)
	}
	if completed {
		s.notifyCompleted(ctx, g)
	}
	return g, nil
}

// CancelGoal marks an in-progress goal cancelled.
func (s *GoalService) CancelGoal(ctx context.Context, id, userID string) (core.Goal, error) {
	g, err := s.goals.GetGoal(ctx, id, userID)
	if err != nil {
		return core.Goal{}, err
	}
	if g.Status != core.GoalInProgress {
		return core.Goal{}, fmt.Errorf("%w: goal is %s", ErrInvalidState, g.Status)
	}
	g.Status = core.GoalCancelled
	g.UpdatedAt = time.Now().UTC()
	if err := s.goals.UpdateGoal(ctx, g); err != nil {
		return core.Goal{}, fmt.Errorf("cancel goal: %w", err)
	}
	return g, nil
}

// GoalProgress is the read model behind the progress endpoint.
type GoalProgress struct {
	Goal       core.Goal
	Percentage float64
	Remaining  core.Money
	DaysLeft   int // -1 when the goal has no deadline
}

func (s *GoalService) Progress(ctx context.Context, id, userID string) (GoalProgress, error) {
	g, err := s.goals.GetGoal(ctx, id, userID)
	if err != nil {
		return GoalProgress{}, err
	}
	p := GoalProgress{
		Goal:      g,
		Remaining: g.TargetAmount.Sub(g.CurrentAmount),
		DaysLeft:  -1,
	}
	if p.Remaining.Cents < 0 {
		p.Remaining = core.Money{}
	}
	if g.TargetAmount.Cents > 0 {
		p.Percentage = float64(g.CurrentAmount.Cents) / float64(g.TargetAmount.Cents) * 100
		if p.Percentage > 100 {
			p.Percentage = 100
		}
	}
	if !g.TargetDate.IsZero() {
		days := int(time.Until(g.TargetDate.Time).Hours() / 24)
		if days < 0 {
			days = 0
		}
		p.DaysLeft = days
	}
	return p, nil
}

func (s *GoalService) notifyCompleted(ctx context.Context, g core.Goal) {
	if s.notifications == nil {
		return
	}
	n := core.Notification{
		ID:        uuid.NewString(),
		UserID:    g.UserID,
		Type:      "goal_completed",
		Priority:  "medium",
		Title:     "Goal reached",
		Message:   fmt.Sprintf("You reached your goal %q.", g.Name),
		CreatedAt: time.Now().UTC(),
	}
	// Best effort; the goal update already succeeded.
	_ = s.notifications.CreateNotification(ctx, n)
}
