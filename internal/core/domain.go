package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income   TransactionType = "income"
	Expense  TransactionType = "expense"
	Transfer TransactionType = "transfer"
)

const (
	Daily     RecurringFrequency = "daily"
	Weekly    RecurringFrequency = "weekly"
	Biweekly  RecurringFrequency = "biweekly"
	Monthly   RecurringFrequency = "monthly"
	Quarterly RecurringFrequency = "quarterly"
	Yearly    RecurringFrequency = "yearly"
)

const (
	RecurringActive    RecurringStatus = "active"
	RecurringPaused    RecurringStatus = "paused"
	RecurringCompleted RecurringStatus = "completed"
	RecurringCancelled RecurringStatus = "cancelled"
)

const (
	GoalInProgress GoalStatus = "in_progress"
	GoalCompleted  GoalStatus = "completed"
	GoalCancelled  GoalStatus = "cancelled"
)

const (
	PeriodWeekly    BudgetPeriod = "weekly"
	PeriodMonthly   BudgetPeriod = "monthly"
	PeriodQuarterly BudgetPeriod = "quarterly"
	PeriodYearly    BudgetPeriod = "yearly"
)

type (
	TransactionType    string
	RecurringFrequency string
	RecurringStatus    string
	GoalStatus         string
	BudgetPeriod       string

	// Date is a civil calendar date. The wall-clock part is always midnight
	// UTC; transactions and schedules never carry a time of day.
	Date struct {
		time.Time
	}

	Account struct {
		ID             string
		UserID         string
		Name           string
		Type           string
		Balance        Money
		Currency       string
		Color          string
		Icon           string
		Description    string
		IsActive       bool
		IncludeInTotal bool
		CreatedAt      time.Time
		UpdatedAt      time.Time
	}

	Transaction struct {
		ID          string
		UserID      string
		Type        TransactionType
		Amount      Money
		Date        Date
		Description string
		Notes       string
		Payee       string
		AccountID   string
		CategoryID  string // empty means uncategorized
		ToAccountID string // set only for transfers
		IsRecurring bool
		// Frequency label of the originating template, informational only.
		RecurringFrequency RecurringFrequency
		CreatedAt          time.Time
		UpdatedAt          time.Time
	}

	RecurringTransaction struct {
		ID                   string
		UserID               string
		Name                 string
		Type                 TransactionType
		Amount               Money
		Frequency            RecurringFrequency
		StartDate            Date
		EndDate              Date // zero means open-ended
		NextOccurrence       Date
		LastProcessed        Date // zero until first materialization
		Status               RecurringStatus
		Description          string
		Notes                string
		Payee                string
		OccurrenceCount      int
		MaxOccurrences       int // 0 means unlimited
		AutoCreate           bool
		NotifyBeforeCreation bool
		NotifyDaysBefore     int
		AccountID            string
		CategoryID           string
		ToAccountID          string
		CreatedAt            time.Time
		UpdatedAt            time.Time
	}

	Budget struct {
		ID         string
		UserID     string
		Name       string
		Amount     Money
		Spent      Money
		Period     BudgetPeriod
		StartDate  Date
		EndDate    Date
		Rollover   bool
		IsActive   bool
		Notes      string
		CategoryID string
		CreatedAt  time.Time
		UpdatedAt  time.Time
	}

	Goal struct {
		ID            string
		UserID        string
		Name          string
		TargetAmount  Money
		CurrentAmount Money
		TargetDate    Date // zero means no deadline
		Status        GoalStatus
		Color         string
		Icon          string
		Description   string
		AccountID     string
		CreatedAt     time.Time
		UpdatedAt     time.Time
	}

	Category struct {
		ID        string
		UserID    string // empty for system categories
		Name      string
		Type      TransactionType // income or expense
		Icon      string
		Color     string
		IsSystem  bool
		CreatedAt time.Time
	}

	Notification struct {
		ID        string
		UserID    string
		Type      string
		Priority  string
		Title     string
		Message   string
		IsRead    bool
		CreatedAt time.Time
	}
)

var (
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidType        = errors.New("invalid transaction type")
	ErrInvalidFrequency   = errors.New("invalid frequency")
	ErrMissingDestination = errors.New("transfer requires a destination account")
	ErrSameAccount        = errors.New("transfer destination must differ from source")
	ErrEmptyName          = errors.New("empty name")
)

// NewDate builds a Date at midnight UTC.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar date.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

// ParseDate parses an ISO yyyy-mm-dd string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t.UTC()}, nil
}

func (d Date) String() string {
	return d.Format("2006-01-02")
}

// After reports whether d falls on a later calendar day than other.
func (d Date) After(other Date) bool {
	return d.Time.After(other.Time)
}

func (d Date) Before(other Date) bool {
	return d.Time.Before(other.Time)
}

func (d Date) Equal(other Date) bool {
	return d.Time.Equal(other.Time)
}

func (t TransactionType) Valid() bool {
	switch t {
	case Income, Expense, Transfer:
		return true
	}
	return false
}

func (f RecurringFrequency) Valid() bool {
	switch f {
	case Daily, Weekly, Biweekly, Monthly, Quarterly, Yearly:
		return true
	}
	return false
}

// Terminal reports whether the status admits no further transitions.
func (s RecurringStatus) Terminal() bool {
	return s == RecurringCompleted || s == RecurringCancelled
}

func (t Transaction) Validate() error {
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if t.Amount.Cents < 0 {
		return ErrInvalidAmount
	}
	if t.Date.IsZero() {
		return errors.New("date cannot be zero")
	}
	if t.AccountID == "" {
		return errors.New("missing account")
	}
	if t.Type == Transfer {
		if t.ToAccountID == "" {
			return ErrMissingDestination
		}
		if t.ToAccountID == t.AccountID {
			return ErrSameAccount
		}
	}
	return nil
}

func (r RecurringTransaction) Validate() error {
	if len(strings.TrimSpace(r.Name)) == 0 {
		return ErrEmptyName
	}
	if !r.Type.Valid() {
		return ErrInvalidType
	}
	if r.Amount.Cents <= 0 {
		return ErrInvalidAmount
	}
	if !r.Frequency.Valid() {
		return ErrInvalidFrequency
	}
	if r.StartDate.IsZero() {
		return errors.New("start date cannot be zero")
	}
	if !r.EndDate.IsZero() && r.EndDate.Before(r.StartDate) {
		return errors.New("end date must not precede start date")
	}
	if r.AccountID == "" {
		return errors.New("missing account")
	}
	if r.Type == Transfer {
		if r.ToAccountID == "" {
			return ErrMissingDestination
		}
		if r.ToAccountID == r.AccountID {
			return ErrSameAccount
		}
	}
	if r.MaxOccurrences < 0 {
		return errors.New("max occurrences must not be negative")
	}
	return nil
}
