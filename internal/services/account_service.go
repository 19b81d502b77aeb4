package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/core"
)

// AccountService manages account records. Balances are never set through
// here after creation; only ledger effects move them.
type AccountService struct {
	accounts AccountStore
}

func NewAccountService(accounts AccountStore) *AccountService {
	return &AccountService{accounts: accounts}
}

func (s *AccountService) Create(ctx context.Context, a core.Account) (core.Account, error) {
	if a.Name == "" {
		return core.Account{}, core.ErrEmptyName
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Currency == "" {
		a.Currency = "EUR"
	}
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now
	a.IsActive = true

	if err := s.accounts.CreateAccount(ctx, a); err != nil {
		return core.Account{}, fmt.Errorf("create account: %w", err)
	}
	return a, nil
}

// AccountPatch carries the mutable account fields. The balance is absent
// on purpose.
type AccountPatch struct {
	Name           *string
	Type           *string
	Currency       *string
	Color          *string
	Icon           *string
	Description    *string
	IsActive       *bool
	IncludeInTotal *bool
}

func (s *AccountService) Update(ctx context.Context, id, userID string, patch AccountPatch) (core.Account, error) {
	a, err := s.accounts.GetAccount(ctx, id, userID)
	if err != nil {
		return core.Account{}, err
	}
	if patch.Name != nil {
		a.Name = *patch.Name
	}
	if patch.Type != nil {
		a.Type = *patch.Type
	}
	if patch.Currency != nil {
		a.Currency = *patch.Currency
	}
	if patch.Color != nil {
		a.Color = *patch.Color
	}
	if patch.Icon != nil {
		a.Icon = *patch.Icon
	}
	if patch.Description != nil {
		a.Description = *patch.Description
	}
	if patch.IsActive != nil {
		a.IsActive = *patch.IsActive
	}
	if patch.IncludeInTotal != nil {
		a.IncludeInTotal = *patch.IncludeInTotal
	}
	if a.Name == "" {
		return core.Account{}, core.ErrEmptyName
	}
	a.UpdatedAt = time.Now().UTC()

	if err := s.accounts.UpdateAccount(ctx, a); err != nil {
		return core.Account{}, fmt.Errorf("update account: %w", err)
	}
	return a, nil
}

func (s *AccountService) FindOne(ctx context.Context, id, userID string) (core.Account, error) {
	return s.accounts.GetAccount(ctx, id, userID)
}

func (s *AccountService) FindAll(ctx context.Context, userID string) ([]core.Account, error) {
	return s.accounts.ListAccounts(ctx, userID)
}

func (s *AccountService) Remove(ctx context.Context, id, userID string) error {
	return s.accounts.DeleteAccount(ctx, id, userID)
}

// TotalBalance sums active accounts flagged for inclusion.
func (s *AccountService) TotalBalance(ctx context.Context, userID string) (core.Money, error) {
	return s.accounts.TotalBalance(ctx, userID)
}
