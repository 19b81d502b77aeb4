package export

import "context"

// Row is one exported transaction event, already formatted for display.
type Row struct {
	Date        string
	Action      string
	Type        string
	Description string
	Payee       string
	Amount      string
	AccountID   string
	CategoryID  string
}

// Ports for outbound adapters.
type (
	RowWriter interface {
		Append(ctx context.Context, userID string, r Row) (rowRef string, err error)
	}
)
