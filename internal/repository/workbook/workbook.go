// Package workbook stores market sheets in a local .xlsx file, for use
// without network access. Every append is saved to disk immediately.
package workbook

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/mamadbah2/sandwiches/internal/domain/models"
	"github.com/mamadbah2/sandwiches/internal/repository/sheets"
)

// Repository implements sheets.Repository on top of an excelize workbook.
type Repository struct {
	path   string
	file   *excelize.File
	logger *zap.Logger
}

var _ sheets.Repository = (*Repository)(nil)

// Open loads the workbook at path, creating it with the market sheets and
// the given header row when it does not exist yet.
func Open(path string, header models.Header, logger *zap.Logger) (*Repository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := create(path, header); err != nil {
			return nil, err
		}
		logger.Info("workbook created", zap.String("path", path))
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}

	return &Repository{path: path, file: f, logger: logger}, nil
}

func create(path string, header models.Header) error {
	f := excelize.NewFile()
	defer f.Close()

	cells := make([]interface{}, models.ItemCount)
	for i, label := range header {
		cells[i] = label
	}

	for i, name := range []string{models.SheetSales, models.SheetStock, models.SheetSurplus} {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				return fmt.Errorf("rename default sheet: %w", err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
		if err := f.SetSheetRow(name, "A1", &cells); err != nil {
			return fmt.Errorf("write header on %s: %w", name, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook %s: %w", path, err)
	}
	return nil
}

// Close releases the underlying workbook.
func (r *Repository) Close() error {
	return r.file.Close()
}

// AppendRow writes row below the last populated row of sheet and saves the file.
func (r *Repository) AppendRow(ctx context.Context, sheet string, row []int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := r.ensureSheet(sheet); err != nil {
		return err
	}

	rows, err := r.file.GetRows(sheet)
	if err != nil {
		return fmt.Errorf("read sheet %s: %w", sheet, err)
	}

	cell, err := excelize.CoordinatesToCellName(1, len(rows)+1)
	if err != nil {
		return err
	}

	values := make([]interface{}, len(row))
	for i, v := range row {
		values[i] = v
	}
	if err := r.file.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("append row into sheet %s: %w", sheet, err)
	}
	if err := r.file.Save(); err != nil {
		return fmt.Errorf("save workbook %s: %w", r.path, err)
	}

	r.logger.Debug("row appended to workbook", zap.String("sheet", sheet), zap.String("cell", cell))
	return nil
}

// ReadAllRows returns every populated row of sheet.
func (r *Repository) ReadAllRows(ctx context.Context, sheet string) ([][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := r.ensureSheet(sheet); err != nil {
		return nil, err
	}

	rows, err := r.file.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	return rows, nil
}

// ReadColumn returns the populated cells of one 1-based column.
func (r *Repository) ReadColumn(ctx context.Context, sheet string, column int) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if column < 1 {
		return nil, fmt.Errorf("column %d out of range", column)
	}
	if err := r.ensureSheet(sheet); err != nil {
		return nil, err
	}

	cols, err := r.file.GetCols(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	if column > len(cols) {
		return []string{}, nil
	}
	return trimTrailingBlanks(cols[column-1]), nil
}

func (r *Repository) ensureSheet(sheet string) error {
	idx, err := r.file.GetSheetIndex(sheet)
	if err != nil {
		return fmt.Errorf("lookup sheet %s: %w", sheet, err)
	}
	if idx < 0 {
		return fmt.Errorf("%w: sheet %s", sheets.ErrNotFound, sheet)
	}
	return nil
}

func trimTrailingBlanks(values []string) []string {
	end := len(values)
	for end > 0 && values[end-1] == "" {
		end--
	}
	return values[:end]
}
