package memory

import (
	"context"
	"fmt"
	"sync"

	"fintrack/internal/export"
)

// Store is an in-memory row writer for tests and local development.
type Store struct {
	mu   sync.Mutex
	rows []entry
}

type entry struct {
	userID string
	row    export.Row
}

func New() *Store {
	return &Store{}
}

// Append stores the row and returns a synthetic row reference.
func (s *Store) Append(_ context.Context, userID string, r export.Row) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, entry{userID: userID, row: r})
	return fmt.Sprintf("mem:%d", len(s.rows)), nil
}

// Rows returns a copy of everything appended so far.
func (s *Store) Rows() []export.Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]export.Row, len(s.rows))
	for i, e := range s.rows {
		out[i] = e.row
	}
	return out
}
