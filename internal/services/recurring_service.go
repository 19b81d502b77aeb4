package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/core"
)

// RecurringService owns recurring transaction templates and their status
// lifecycle, and runs the periodic materialization pass.
type RecurringService struct {
	recurring     RecurringStore
	accounts      AccountStore
	categories    CategoryStore
	notifications NotificationStore
	publisher     EventPublisher
}

func NewRecurringService(recurring RecurringStore, accounts AccountStore, categories CategoryStore, notifications NotificationStore, publisher EventPublisher) *RecurringService {
	return &RecurringService{
		recurring:     recurring,
		accounts:      accounts,
		categories:    categories,
		notifications: notifications,
		publisher:     publisher,
	}
}

// Create validates the template and seeds its schedule. The first
// occurrence falls one period after the start date.
func (s *RecurringService) Create(ctx context.Context, rt core.RecurringTransaction) (core.RecurringTransaction, error) {
	if rt.ID == "" {
		rt.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	rt.CreatedAt = now
	rt.UpdatedAt = now
	rt.Status = core.RecurringActive
	rt.OccurrenceCount = 0
	rt.LastProcessed = core.Date{}

	if err := rt.Validate(); err != nil {
		return core.RecurringTransaction{}, err
	}
	if err := s.checkReferences(ctx, rt); err != nil {
		return core.RecurringTransaction{}, err
	}

	next, err := core.NextOccurrence(rt.StartDate, rt.Frequency)
	if err != nil {
		return core.RecurringTransaction{}, err
	}
	rt.NextOccurrence = next

	if err := s.recurring.CreateRecurring(ctx, rt); err != nil {
		return core.RecurringTransaction{}, fmt.Errorf("create recurring transaction: %w", err)
	}
	return rt, nil
}

// RecurringPatch carries the mutable fields of a template update. Nil
// fields keep the stored value.
type RecurringPatch struct {
	Name                 *string
	Type                 *core.TransactionType
	Amount               *core.Money
	Frequency            *core.RecurringFrequency
	StartDate            *core.Date
	EndDate              *core.Date
	Description          *string
	Notes                *string
	Payee                *string
	MaxOccurrences       *int
	AutoCreate           *bool
	NotifyBeforeCreation *bool
	NotifyDaysBefore     *int
	AccountID            *string
	CategoryID           *string
	ToAccountID          *string
}

// Update applies the patch. Changing the frequency or start date re-seeds
// the schedule from the new start date; other fields leave it alone.
// Templates in a terminal state cannot be edited.
func (s *RecurringService) Update(ctx context.Context, id, userID string, patch RecurringPatch) (core.RecurringTransaction, error) {
	stored, err := s.recurring.GetRecurring(ctx, id, userID)
	if err != nil {
		return core.RecurringTransaction{}, err
	}
	if stored.Status.Terminal() {
		return core.RecurringTransaction{}, fmt.Errorf("%w: recurring transaction is %s", ErrInvalidState, stored.Status)
	}

	updated := applyRecurringPatch(stored, patch)
	updated.UpdatedAt = time.Now().UTC()

	if err := updated.Validate(); err != nil {
		return core.RecurringTransaction{}, err
	}
	if err := s.checkReferences(ctx, updated); err != nil {
		return core.RecurringTransaction{}, err
	}

	if patch.Frequency != nil || patch.StartDate != nil {
		next, err := core.NextOccurrence(updated.StartDate, updated.Frequency)
		if err != nil {
			return core.RecurringTransaction{}, err
		}
		updated.NextOccurrence = next
	}

	if err := s.recurring.UpdateRecurring(ctx, updated); err != nil {
		return core.RecurringTransaction{}, fmt.Errorf("update recurring transaction: %w", err)
	}
	return updated, nil
}

func (s *RecurringService) FindOne(ctx context.Context, id, userID string) (core.RecurringTransaction, error) {
	return s.recurring.GetRecurring(ctx, id, userID)
}

func (s *RecurringService) FindAll(ctx context.Context, userID string, status core.RecurringStatus) ([]core.RecurringTransaction, error) {
	return s.recurring.ListRecurring(ctx, userID, status)
}

func (s *RecurringService) Remove(ctx context.Context, id, userID string) error {
	return s.recurring.DeleteRecurring(ctx, id, userID)
}

// Pause moves an active template to paused. Pausing an already paused
// template is a no-op; terminal templates cannot be paused. The schedule
// fields are never touched.
func (s *RecurringService) Pause(ctx context.Context, id, userID string) (core.RecurringTransaction, error) {
	return s.transition(ctx, id, userID, core.RecurringPaused, core.RecurringActive)
}

// Resume moves a paused template back to active. The next occurrence is
// left where it was; an overdue template simply materializes on the next
// processing pass.
func (s *RecurringService) Resume(ctx context.Context, id, userID string) (core.RecurringTransaction, error) {
	return s.transition(ctx, id, userID, core.RecurringActive, core.RecurringPaused)
}

// Cancel moves an active or paused template to cancelled. Terminal.
func (s *RecurringService) Cancel(ctx context.Context, id, userID string) (core.RecurringTransaction, error) {
	stored, err := s.recurring.GetRecurring(ctx, id, userID)
	if err != nil {
		return core.RecurringTransaction{}, err
	}
	if stored.Status.Terminal() {
		return core.RecurringTransaction{}, fmt.Errorf("%w: recurring transaction is %s", ErrInvalidState, stored.Status)
	}
	stored.Status = core.RecurringCancelled
	stored.UpdatedAt = time.Now().UTC()
	if err := s.recurring.UpdateRecurring(ctx, stored); err != nil {
		return core.RecurringTransaction{}, fmt.Errorf("cancel recurring transaction: %w", err)
	}
	return stored, nil
}

func (s *RecurringService) transition(ctx context.Context, id, userID string, to, from core.RecurringStatus) (core.RecurringTransaction, error) {
	stored, err := s.recurring.GetRecurring(ctx, id, userID)
	if err != nil {
		return core.RecurringTransaction{}, err
	}
	if stored.Status == to {
		return stored, nil
	}
	if stored.Status != from {
		return core.RecurringTransaction{}, fmt.Errorf("%w: recurring transaction is %s", ErrInvalidState, stored.Status)
	}
	stored.Status = to
	stored.UpdatedAt = time.Now().UTC()
	if err := s.recurring.UpdateRecurring(ctx, stored); err != nil {
		return core.RecurringTransaction{}, fmt.Errorf("update recurring transaction: %w", err)
	}
	return stored, nil
}

// GetUpcoming returns active templates due within the horizon, ascending
// by next occurrence.
func (s *RecurringService) GetUpcoming(ctx context.Context, userID string, horizonDays int) ([]core.RecurringTransaction, error) {
	today := core.DateOf(time.Now().UTC())
	to := core.Date{Time: today.AddDate(0, 0, horizonDays)}
	return s.recurring.ListUpcomingRecurring(ctx, userID, today, to)
}

// ProcessDue materializes every due, active, auto-creating template as of
// the given date and advances its schedule. Each template is processed
// atomically; one template's failure does not abort the batch. Returns the
// number of templates successfully processed.
//
// The schedule is advanced only after the occurrence materializes, and only
// from its own prior value, so a second pass for the same date finds
// nothing due and creates nothing.
func (s *RecurringService) ProcessDue(ctx context.Context, asOf core.Date) (int, error) {
	due, err := s.recurring.ListDueRecurring(ctx, asOf)
	if err != nil {
		return 0, fmt.Errorf("list due recurring transactions: %w", err)
	}

	processed := 0
	for _, rt := range due {
		if err := s.processOne(ctx, rt, asOf); err != nil {
			slog.ErrorContext(ctx, "Failed to process recurring transaction",
				"id", rt.ID, "name", rt.Name, "error", err)
			continue
		}
		processed++
	}

	if len(due) > 0 {
		slog.InfoContext(ctx, "Processed due recurring transactions",
			"due", len(due), "processed", processed, "as_of", asOf.String())
	}
	return processed, nil
}

func (s *RecurringService) processOne(ctx context.Context, rt core.RecurringTransaction, asOf core.Date) error {
	t := core.Transaction{
		ID:                 uuid.NewString(),
		UserID:             rt.UserID,
		Type:               rt.Type,
		Amount:             rt.Amount,
		Date:               rt.NextOccurrence,
		Description:        rt.Description,
		Notes:              rt.Notes,
		Payee:              rt.Payee,
		AccountID:          rt.AccountID,
		CategoryID:         rt.CategoryID,
		ToAccountID:        rt.ToAccountID,
		IsRecurring:        true,
		RecurringFrequency: rt.Frequency,
	}
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now

	effects, err := core.EffectsFor(t)
	if err != nil {
		return fmt.Errorf("compute ledger effects: %w", err)
	}

	next, err := core.NextOccurrence(rt.NextOccurrence, rt.Frequency)
	if err != nil {
		return fmt.Errorf("advance schedule: %w", err)
	}

	rt.LastProcessed = asOf
	rt.OccurrenceCount++
	rt.NextOccurrence = next
	rt.UpdatedAt = now
	if s.shouldComplete(rt) {
		rt.Status = core.RecurringCompleted
	}

	// One storage transaction covers the insert, the balance effects and
	// the template advance. Nothing else creates occurrence transactions.
	if err := s.recurring.MaterializeRecurring(ctx, t, effects, rt); err != nil {
		return fmt.Errorf("materialize occurrence: %w", err)
	}

	if rt.Status == core.RecurringCompleted {
		s.notifyCompleted(ctx, rt)
	}
	if s.publisher != nil {
		if err := s.publisher.PublishTransactionEvent(ctx, "created", t); err != nil {
			slog.ErrorContext(ctx, "Failed to publish transaction event",
				"id", t.ID, "error", err)
		}
	}
	return nil
}

// shouldComplete evaluates auto-completion after the schedule has advanced.
func (s *RecurringService) shouldComplete(rt core.RecurringTransaction) bool {
	if rt.MaxOccurrences > 0 && rt.OccurrenceCount >= rt.MaxOccurrences {
		return true
	}
	if !rt.EndDate.IsZero() && rt.NextOccurrence.After(rt.EndDate) {
		return true
	}
	return false
}

func (s *RecurringService) notifyCompleted(ctx context.Context, rt core.RecurringTransaction) {
	if s.notifications == nil {
		return
	}
	n := core.Notification{
		ID:        uuid.NewString(),
		UserID:    rt.UserID,
		Type:      "recurring_completed",
		Priority:  "low",
		Title:     "Recurring transaction completed",
		Message:   fmt.Sprintf("%q has reached its end and will no longer run.", rt.Name),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.notifications.CreateNotification(ctx, n); err != nil {
		slog.ErrorContext(ctx, "Failed to create completion notification",
			"recurring_id", rt.ID, "error", err)
	}
}

func (s *RecurringService) checkReferences(ctx context.Context, rt core.RecurringTransaction) error {
	if _, err := s.accounts.GetAccount(ctx, rt.AccountID, rt.UserID); err != nil {
		return fmt.Errorf("%w: account %s", ErrInvalidReference, rt.AccountID)
	}
	if rt.ToAccountID != "" {
		if _, err := s.accounts.GetAccount(ctx, rt.ToAccountID, rt.UserID); err != nil {
			return fmt.Errorf("%w: account %s", ErrInvalidReference, rt.ToAccountID)
		}
	}
	if rt.CategoryID != "" {
		if _, err := s.categories.GetCategory(ctx, rt.CategoryID, rt.UserID); err != nil {
			return fmt.Errorf("%w: category %s", ErrInvalidReference, rt.CategoryID)
		}
	}
	return nil
}

func applyRecurringPatch(rt core.RecurringTransaction, p RecurringPatch) core.RecurringTransaction {
	if p.Name != nil {
		rt.Name = *p.Name
	}
	if p.Type != nil {
		rt.Type = *p.Type
	}
	if p.Amount != nil {
		rt.Amount = *p.Amount
	}
	if p.Frequency != nil {
		rt.Frequency = *p.Frequency
	}
	if p.StartDate != nil {
		rt.StartDate = *p.StartDate
	}
	if p.EndDate != nil {
		rt.EndDate = *p.EndDate
	}
	if p.Description != nil {
		rt.Description = *p.Description
	}
	if p.Notes != nil {
		rt.Notes = *p.Notes
	}
	if p.Payee != nil {
		rt.Payee = *p.Payee
	}
	if p.MaxOccurrences != nil {
		rt.MaxOccurrences = *p.MaxOccurrences
	}
	if p.AutoCreate != nil {
		rt.AutoCreate = *p.AutoCreate
	}
	if p.NotifyBeforeCreation != nil {
		rt.NotifyBeforeCreation = *p.NotifyBeforeCreation
	}
	if p.NotifyDaysBefore != nil {
		rt.NotifyDaysBefore = *p.NotifyDaysBefore
	}
	if p.AccountID != nil {
		rt.AccountID = *p.AccountID
	}
	if p.CategoryID != nil {
		rt.CategoryID = *p.CategoryID
	}
	if p.ToAccountID != nil {
		rt.ToAccountID = *p.ToAccountID
	}
	if p.Type != nil && rt.Type != core.Transfer {
		rt.ToAccountID = ""
	}
	return rt
}
