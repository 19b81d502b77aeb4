package amqp

import (
	"encoding/json"
	"time"

	"fintrack/internal/core"
)

// Transaction event actions carried on the wire.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// TransactionEventMessage carries a full transaction snapshot so the export
// worker never has to reach back into the database. Deleted transactions
// would otherwise be unreadable by the time the worker sees the event.
type TransactionEventMessage struct {
	Action      string    `json:"action"`
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Type        string    `json:"type"`
	Amount      string    `json:"amount"`
	Date        string    `json:"date"`
	Description string    `json:"description"`
	Payee       string    `json:"payee"`
	AccountID   string    `json:"account_id"`
	ToAccountID string    `json:"to_account_id,omitempty"`
	CategoryID  string    `json:"category_id,omitempty"`
	IsRecurring bool      `json:"is_recurring"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewTransactionEventMessage snapshots a transaction for publishing.
func NewTransactionEventMessage(action string, t core.Transaction) *TransactionEventMessage {
	return &TransactionEventMessage{
		Action:      action,
		ID:          t.ID,
		UserID:      t.UserID,
		Type:        string(t.Type),
		Amount:      t.Amount.String(),
		Date:        t.Date.String(),
		Description: t.Description,
		Payee:       t.Payee,
		AccountID:   t.AccountID,
		ToAccountID: t.ToAccountID,
		CategoryID:  t.CategoryID,
		IsRecurring: t.IsRecurring,
		Timestamp:   time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *TransactionEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TransactionEventMessageFromJSON creates a message from JSON bytes
func TransactionEventMessageFromJSON(data []byte) (*TransactionEventMessage, error) {
	var msg TransactionEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
