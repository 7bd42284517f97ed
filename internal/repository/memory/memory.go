// Package memory provides an in-process sheet store, used by tests and dry runs.
package memory

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/mamadbah2/sandwiches/internal/repository/sheets"
)

// Repository keeps sheets as string grids keyed by name.
type Repository struct {
	mu     sync.RWMutex
	sheets map[string][][]string
}

var _ sheets.Repository = (*Repository)(nil)

// New returns a store seeded with copies of the given sheets.
func New(seed map[string][][]string) *Repository {
	r := &Repository{sheets: make(map[string][][]string, len(seed))}
	for name, rows := range seed {
		r.sheets[name] = cloneRows(rows)
	}
	return r
}

// AppendRow adds row at the end of sheet.
func (r *Repository) AppendRow(ctx context.Context, sheet string, row []int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	rows, ok := r.sheets[sheet]
	if !ok {
		return fmt.Errorf("%w: sheet %s", sheets.ErrNotFound, sheet)
	}

	cells := make([]string, len(row))
	for i, v := range row {
		cells[i] = strconv.Itoa(v)
	}
	r.sheets[sheet] = append(rows, cells)
	return nil
}

// ReadAllRows returns a copy of every row of sheet.
func (r *Repository) ReadAllRows(ctx context.Context, sheet string) ([][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	rows, ok := r.sheets[sheet]
	if !ok {
		return nil, fmt.Errorf("%w: sheet %s", sheets.ErrNotFound, sheet)
	}
	return cloneRows(rows), nil
}

// ReadColumn returns the non-empty prefix of one 1-based column.
func (r *Repository) ReadColumn(ctx context.Context, sheet string, column int) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if column < 1 {
		return nil, fmt.Errorf("column %d out of range", column)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	rows, ok := r.sheets[sheet]
	if !ok {
		return nil, fmt.Errorf("%w: sheet %s", sheets.ErrNotFound, sheet)
	}

	out := make([]string, 0, len(rows))
	for _, row := range rows {
		if column > len(row) {
			break
		}
		out = append(out, row[column-1])
	}
	return out, nil
}

func cloneRows(rows [][]string) [][]string {
	out := make([][]string, len(rows))
	for i, row := range rows {
		out[i] = append([]string(nil), row...)
	}
	return out
}
