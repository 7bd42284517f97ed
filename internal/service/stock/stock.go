package stock

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mamadbah2/sandwiches/internal/domain/models"
)

// ErrNotNumeric indicates a sheet cell could not be read as an integer.
var ErrNotNumeric = errors.New("cell is not numeric")

// ErrRowWidth indicates a sheet row does not hold one value per item type.
var ErrRowWidth = errors.New("row width does not match item count")

// ErrInsufficientHistory indicates an item has no sales history to average.
var ErrInsufficientHistory = errors.New("insufficient sales history")

// DefaultWindow is the number of recent sales entries averaged per item.
const DefaultWindow = 5

// padding is applied on top of the average to cover extra demand.
var padding = decimal.RequireFromString("1.1")

// Surplus subtracts sales from stock per item. Positive values are waste,
// negative values mean the item sold out.
func Surplus(stock, sales models.Row) models.Row {
	var out models.Row
	for i := range out {
		out[i] = stock[i] - sales[i]
	}
	return out
}

// Project averages each item's history, adds 10% and rounds half away from
// zero to the nearest whole unit.
func Project(history models.History) (models.Row, error) {
	var out models.Row
	for i, column := range history {
		if len(column) == 0 {
			return models.Row{}, fmt.Errorf("%w: no entries for %s", ErrInsufficientHistory, models.Items[i])
		}

		var sum int64
		for _, v := range column {
			sum += int64(v)
		}

		mean := decimal.NewFromInt(sum).Div(decimal.NewFromInt(int64(len(column))))
		out[i] = int(mean.Mul(padding).Round(0).IntPart())
	}
	return out, nil
}

// ParseRow converts a raw sheet row into a Row, failing on any width or
// numeric fault instead of truncating.
func ParseRow(cells []string) (models.Row, error) {
	if len(cells) != models.ItemCount {
		return models.Row{}, fmt.Errorf("%w: got %d cells", ErrRowWidth, len(cells))
	}

	var row models.Row
	for i, cell := range cells {
		v, err := parseCell(cell)
		if err != nil {
			return models.Row{}, fmt.Errorf("%s: %w", models.Items[i], err)
		}
		row[i] = v
	}
	return row, nil
}

// HistoryFromColumns builds a History from raw sheet columns, one per item
// type. The first cell of each column is the header and is skipped; only the
// last window values are kept.
func HistoryFromColumns(columns [][]string, window int) (models.History, error) {
	var history models.History
	if len(columns) != models.ItemCount {
		return history, fmt.Errorf("%w: got %d columns", ErrRowWidth, len(columns))
	}
	if window <= 0 {
		window = DefaultWindow
	}

	for i, column := range columns {
		if len(column) > 0 {
			column = column[1:]
		}
		if len(column) > window {
			column = column[len(column)-window:]
		}

		values := make([]int, 0, len(column))
		for _, cell := range column {
			v, err := parseCell(cell)
			if err != nil {
				return models.History{}, fmt.Errorf("%s: %w", models.Items[i], err)
			}
			values = append(values, v)
		}
		history[i] = values
	}
	return history, nil
}

func parseCell(cell string) (int, error) {
	trimmed := strings.TrimSpace(cell)
	v, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrNotNumeric, trimmed)
	}
	return v, nil
}
