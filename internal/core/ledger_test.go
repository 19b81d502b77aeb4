package core

import (
	"errors"
	"testing"
	"time"
)

func TestEffectsFor(t *testing.T) {
	date := NewDate(2024, time.March, 1)

	tests := []struct {
		name string
		tx   Transaction
		want []Effect
	}{
		{
			name: "income credits source",
			tx:   Transaction{Type: Income, Amount: Money{Cents: 15000}, Date: date, AccountID: "a"},
			want: []Effect{{AccountID: "a", Delta: Money{Cents: 15000}}},
		},
		{
			name: "expense debits source",
			tx:   Transaction{Type: Expense, Amount: Money{Cents: 15000}, Date: date, AccountID: "a"},
			want: []Effect{{AccountID: "a", Delta: Money{Cents: -15000}}},
		},
		{
			name: "transfer debits source credits destination",
			tx:   Transaction{Type: Transfer, Amount: Money{Cents: 50000}, Date: date, AccountID: "a", ToAccountID: "b"},
			want: []Effect{
				{AccountID: "a", Delta: Money{Cents: -50000}},
				{AccountID: "b", Delta: Money{Cents: 50000}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EffectsFor(tt.tx)
			if err != nil {
				t.Fatalf("EffectsFor() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("EffectsFor() returned %d effects, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("effect[%d] = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestEffectsFor_TransferWithoutDestination(t *testing.T) {
	_, err := EffectsFor(Transaction{Type: Transfer, Amount: Money{Cents: 100}, AccountID: "a"})
	if !errors.Is(err, ErrMissingDestination) {
		t.Errorf("EffectsFor() error = %v, want ErrMissingDestination", err)
	}
}

func TestReversed(t *testing.T) {
	effects := []Effect{
		{AccountID: "a", Delta: Money{Cents: -500}},
		{AccountID: "b", Delta: Money{Cents: 500}},
	}
	rev := Reversed(effects)

	if rev[0].Delta.Cents != 500 || rev[1].Delta.Cents != -500 {
		t.Errorf("Reversed() = %+v", rev)
	}
	// Reversal must not mutate the input.
	if effects[0].Delta.Cents != -500 {
		t.Error("Reversed() mutated its input")
	}
	// Applying effects then their reversal nets to zero per account.
	sums := map[string]int64{}
	for _, e := range append(effects, rev...) {
		sums[e.AccountID] += e.Delta.Cents
	}
	for id, sum := range sums {
		if sum != 0 {
			t.Errorf("account %s nets to %d, want 0", id, sum)
		}
	}
}
