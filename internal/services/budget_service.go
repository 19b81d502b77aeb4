package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/core"
)

type BudgetService struct {
	budgets    BudgetStore
	categories CategoryStore
}

func NewBudgetService(budgets BudgetStore, categories CategoryStore) *BudgetService {
	return &BudgetService{budgets: budgets, categories: categories}
}

func (s *BudgetService) Create(ctx context.Context, b core.Budget) (core.Budget, error) {
	if b.Name == "" {
		return core.Budget{}, core.ErrEmptyName
	}
	if b.Amount.Cents <= 0 {
		return core.Budget{}, core.ErrInvalidAmount
	}
	if b.CategoryID != "" {
		if _, err := s.categories.GetCategory(ctx, b.CategoryID, b.UserID); err != nil {
			return core.Budget{}, fmt.Errorf("%w: category %s", ErrInvalidReference, b.CategoryID)
		}
	}
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	b.CreatedAt = now
	b.UpdatedAt = now
	b.IsActive = true
	b.Spent = core.Money{}

	if err := s.budgets.CreateBudget(ctx, b); err != nil {
		return core.Budget{}, fmt.Errorf("create budget: %w", err)
	}
	return b, nil
}

type BudgetPatch struct {
	Name       *string
	Amount     *core.Money
	Period     *core.BudgetPeriod
	StartDate  *core.Date
	EndDate    *core.Date
	Rollover   *bool
	IsActive   *bool
	Notes      *string
	CategoryID *string
}

func (s *BudgetService) Update(ctx context.Context, id, userID string, patch BudgetPatch) (core.Budget, error) {
	b, err := s.budgets.GetBudget(ctx, id, userID)
	if err != nil {
		return core.Budget{}, err
	}
	if patch.Name != nil {
		b.Name = *patch.Name
	}
	if patch.Amount != nil {
		b.Amount = *patch.Amount
	}
	if patch.Period != nil {
		b.Period = *patch.Period
	}
	if patch.StartDate != nil {
		b.StartDate = *patch.StartDate
	}
	if patch.EndDate != nil {
		b.EndDate = *patch.EndDate
	}
	if patch.Rollover != nil {
		b.Rollover = *patch.Rollover
	}
	if patch.IsActive != nil {
		b.IsActive = *patch.IsActive
	}
	if patch.Notes != nil {
		b.Notes = *patch.Notes
	}
	if patch.CategoryID != nil {
		b.CategoryID = *patch.CategoryID
	}
	if b.Name == "" {
		return core.Budget{}, core.ErrEmptyName
	}
	if b.Amount.Cents <= 0 {
		return core.Budget{}, core.ErrInvalidAmount
	}
	if patch.CategoryID != nil && b.CategoryID != "" {
		if _, err := s.categories.GetCategory(ctx, b.CategoryID, userID); err != nil {
			return core.Budget{}, fmt.Errorf("%w: category %s", ErrInvalidReference, b.CategoryID)
		}
	}
	b.UpdatedAt = time.Now().UTC()

	if err := s.budgets.UpdateBudget(ctx, b); err != nil {
		return core.Budget{}, fmt.Errorf("update budget: %w", err)
	}
	return b, nil
}

func (s *BudgetService) FindOne(ctx context.Context, id, userID string) (core.Budget, error) {
	return s.budgets.GetBudget(ctx, id, userID)
}

func (s *BudgetService) FindAll(ctx context.Context, userID string, activeOnly *bool) ([]core.Budget, error) {
	return s.budgets.ListBudgets(ctx, userID, activeOnly)
}

func (s *BudgetService) Remove(ctx context.Context, id, userID string) error {
	return s.budgets.DeleteBudget(ctx, id, userID)
}

// RecordSpending bumps the spent accumulator. Callers pass the expense
// amount when a transaction in the budget's category lands.
func (s *BudgetService) RecordSpending(ctx context.Context, id, userID string, amount core.Money) error {
	if err := s.budgets.AddBudgetSpent(ctx, id, userID, amount); err != nil {
		return fmt.Errorf("record spending: %w", err)
	}
	return nil
}

// BudgetProgress is the read model behind the progress endpoint.
type BudgetProgress struct {
	Budget     core.Budget
	Percentage float64
	Remaining  core.Money
	OverBudget bool
}

func (s *BudgetService) Progress(ctx context.Context, id, userID string) (BudgetProgress, error) {
	b, err := s.budgets.GetBudget(ctx, id, userID)
	if err != nil {
		return BudgetProgress{}, err
	}
	p := BudgetProgress{
		Budget:    b,
		Remaining: b.Amount.Sub(b.Spent),
	}
	if b.Amount.Cents > 0 {
		p.Percentage = float64(b.Spent.Cents) / float64(b.Amount.Cents) * 100
	}
	p.OverBudget = b.Spent.Cents > b.Amount.Cents
	return p, nil
}
