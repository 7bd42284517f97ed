package models

import (
	"fmt"
	"strings"
)

// ItemCount is the number of item types tracked on every sheet.
const ItemCount = 6

// ItemType identifies one product column of the spreadsheet.
type ItemType string

const (
	ItemBacon    ItemType = "bacon"
	ItemBeef     ItemType = "beef"
	ItemChicken  ItemType = "chicken"
	ItemTuna     ItemType = "tuna"
	ItemTurkey   ItemType = "turkey"
	ItemEggSalad ItemType = "egg salad"
)

// Items lists the item types in spreadsheet column order.
var Items = [ItemCount]ItemType{
	ItemBacon,
	ItemBeef,
	ItemChicken,
	ItemTuna,
	ItemTurkey,
	ItemEggSalad,
}

// Row holds one value per item type, aligned with Items.
type Row [ItemCount]int

// Get returns the value stored for the given item type.
func (r Row) Get(item ItemType) (int, bool) {
	for i, it := range Items {
		if it == item {
			return r[i], true
		}
	}
	return 0, false
}

// Values converts the row to a slice, in column order.
func (r Row) Values() []int {
	out := make([]int, ItemCount)
	copy(out, r[:])
	return out
}

// RowFromValues builds a Row from a slice that must hold exactly ItemCount values.
func RowFromValues(values []int) (Row, error) {
	var row Row
	if len(values) != ItemCount {
		return row, fmt.Errorf("expected %d values, got %d", ItemCount, len(values))
	}
	copy(row[:], values)
	return row, nil
}

// History holds, per item type, recent sales values ordered oldest first.
type History [ItemCount][]int

// Header holds the label of each item column as written in row 1 of every
// sheet, in column order.
type Header [ItemCount]string

// DefaultHeader labels each column with its item type.
func DefaultHeader() Header {
	var h Header
	for i, item := range Items {
		h[i] = string(item)
	}
	return h
}

// ParseHeader reads a comma-separated list of exactly ItemCount labels.
func ParseHeader(s string) (Header, error) {
	var h Header
	parts := strings.Split(s, ",")
	if len(parts) != ItemCount {
		return h, fmt.Errorf("expected %d header labels, got %d", ItemCount, len(parts))
	}
	for i, part := range parts {
		label := strings.TrimSpace(part)
		if label == "" {
			return h, fmt.Errorf("header label %d is empty", i+1)
		}
		h[i] = label
	}
	return h, nil
}

// Match reports whether a sheet header row carries these labels in order.
// Comparison ignores case and surrounding whitespace.
func (h Header) Match(row []string) error {
	if len(row) != ItemCount {
		return fmt.Errorf("header has %d columns, want %d", len(row), ItemCount)
	}
	for i, cell := range row {
		if !h.MatchesCell(i, cell) {
			return fmt.Errorf("column %d is %q, want %q", i+1, cell, h[i])
		}
	}
	return nil
}

// MatchesCell reports whether cell is the label of column i (0-based).
func (h Header) MatchesCell(i int, cell string) bool {
	return strings.EqualFold(strings.TrimSpace(cell), h[i])
}

// Cells returns the labels as a row of cells.
func (h Header) Cells() []string {
	out := make([]string, ItemCount)
	copy(out, h[:])
	return out
}
