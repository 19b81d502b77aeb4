package core

// Effect is one signed balance delta applied to exactly one account as the
// consequence of one transaction.
type Effect struct {
	AccountID string
	Delta     Money
}

// EffectsFor maps a transaction onto the balance deltas it causes:
// income credits the source account, expense debits it, a transfer debits
// the source and credits the destination. The input is assumed validated;
// a transfer without a destination is a precondition violation.
func EffectsFor(t Transaction) ([]Effect, error) {
	switch t.Type {
	case Income:
		return []Effect{{AccountID: t.AccountID, Delta: t.Amount}}, nil
	case Expense:
		return []Effect{{AccountID: t.AccountID, Delta: t.Amount.Neg()}}, nil
	case Transfer:
		if t.ToAccountID == "" {
			return nil, ErrMissingDestination
		}
		return []Effect{
			{AccountID: t.AccountID, Delta: t.Amount.Neg()},
			{AccountID: t.ToAccountID, Delta: t.Amount},
		}, nil
	default:
		return nil, ErrInvalidType
	}
}

// Reversed negates every delta in effects. Reverting a transaction means
// applying the reversed effect list of its previous state.
func Reversed(effects []Effect) []Effect {
	out := make([]Effect, len(effects))
	for i, e := range effects {
		out[i] = Effect{AccountID: e.AccountID, Delta: e.Delta.Neg()}
	}
	return out
}
