package memory

import (
	"context"
	"testing"

	"fintrack/internal/export"
)

func TestAppendReturnsSequentialRefs(t *testing.T) {
	s := New()
	ctx := context.Background()

	ref1, err := s.Append(ctx, "u1", export.Row{Date: "2024-01-01", Amount: "10.00"})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	ref2, err := s.Append(ctx, "u1", export.Row{Date: "2024-01-02", Amount: "20.00"})
	if err != nil {
		t.Fatalf("append: %v", err)
	}

	if ref1 != "mem:1" || ref2 != "mem:2" {
		t.Errorf("refs = %q, %q, want mem:1, mem:2", ref1, ref2)
	}
	rows := s.Rows()
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if rows[0].Amount != "10.00" {
		t.Errorf("first row amount = %q, want 10.00", rows[0].Amount)
	}
}
