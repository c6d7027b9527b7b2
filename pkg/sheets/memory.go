package sheets

import (
	"context"
	"sync"
)

// MemorySink is an in-memory RowSink used in tests and dry runs.
type MemorySink struct {
	mu   sync.Mutex
	rows []memoryRow
}

type memoryRow struct {
	dateKey string
	cells   map[int]any
}

// NewMemorySink creates an empty in-memory sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (s *MemorySink) FindRow(ctx context.Context, dateKey string) (int, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, row := range s.rows {
		if row.dateKey == dateKey {
			_, filled := row.cells[2]
			return i + 1, filled, nil
		}
	}
	return 0, false, nil
}

func (s *MemorySink) AppendRow(ctx context.Context, dateKey string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rows = append(s.rows, memoryRow{dateKey: dateKey, cells: make(map[int]any)})
	return len(s.rows), nil
}

func (s *MemorySink) WriteCells(ctx context.Context, row int, startCol int, values []any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for row > len(s.rows) {
		s.rows = append(s.rows, memoryRow{cells: make(map[int]any)})
	}
	for i, v := range values {
		s.rows[row-1].cells[startCol+i] = v
	}
	return nil
}

// Cell returns the value at (row, col), 1-based, or nil.
func (s *MemorySink) Cell(row, col int) any {
	s.mu.Lock()
	defer s.mu.Unlock()

	if row < 1 || row > len(s.rows) {
		return nil
	}
	return s.rows[row-1].cells[col]
}
