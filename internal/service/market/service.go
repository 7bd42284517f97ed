package market

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mamadbah2/sandwiches/internal/domain/models"
	repo "github.com/mamadbah2/sandwiches/internal/repository/sheets"
	"github.com/mamadbah2/sandwiches/internal/service/stock"
)

// ErrColumnMismatch indicates a sheet's header does not match the item catalog,
// so positional values cannot be trusted.
var ErrColumnMismatch = errors.New("sheet columns do not match item types")

// ErrNoStock indicates the stock sheet holds no data row to compare against.
var ErrNoStock = errors.New("stock sheet has no data rows")

// Journal archives completed runs.
type Journal interface {
	SaveRun(ctx context.Context, run models.RunRecord) error
}

// Notifier pushes a run summary to the operator.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// Summarizer renders a completed run as text.
type Summarizer interface {
	RunSummary(run models.RunRecord) string
}

// Service sequences one market data-entry run against the sheet store.
type Service struct {
	repo          repo.Repository
	out           io.Writer
	logger        *zap.Logger
	historyWindow int
	header        models.Header
	journal       Journal
	notifier      Notifier
	summarizer    Summarizer
	now           func() time.Time
	newID         func() string
}

// Option customizes a Service.
type Option func(*Service)

// WithHistoryWindow sets how many recent sales entries feed the projection.
func WithHistoryWindow(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.historyWindow = n
		}
	}
}

// WithHeader sets the labels expected in row 1 of every sheet.
func WithHeader(h models.Header) Option {
	return func(s *Service) { s.header = h }
}

// WithJournal archives every completed run.
func WithJournal(j Journal) Option {
	return func(s *Service) { s.journal = j }
}

// WithNotifier sends the run summary once the sheets are updated.
// The summary is rendered by the Summarizer, which must also be set.
func WithNotifier(n Notifier, summarizer Summarizer) Option {
	return func(s *Service) {
		s.notifier = n
		s.summarizer = summarizer
	}
}

// NewService builds the orchestrator. Progress messages are written to out.
func NewService(repository repo.Repository, out io.Writer, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if out == nil {
		out = io.Discard
	}

	s := &Service{
		repo:          repository,
		out:           out,
		logger:        logger,
		historyWindow: stock.DefaultWindow,
		header:        models.DefaultHeader(),
		now:           time.Now,
		newID:         func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SalesSource yields one validated sales row, usually from the terminal.
type SalesSource interface {
	Collect(ctx context.Context) (models.Row, error)
}

// Session collects one sales row from src and runs the market workflow on it.
func (s *Service) Session(ctx context.Context, src SalesSource) (models.RunRecord, error) {
	sales, err := src.Collect(ctx)
	if err != nil {
		return models.RunRecord{}, fmt.Errorf("collect sales data: %w", err)
	}
	return s.Run(ctx, sales)
}

// Run records sales, derives the surplus against the latest stock row and
// appends next market's projected stock. Any store or arithmetic fault aborts
// the run; rows already appended stay in place.
func (s *Service) Run(ctx context.Context, sales models.Row) (models.RunRecord, error) {
	run := models.RunRecord{
		ID:        s.newID(),
		Sales:     sales,
		CreatedAt: s.now().UTC(),
	}
	logger := s.logger.With(zap.String("run_id", run.ID))

	if err := s.updateWorksheet(ctx, models.SheetSales, sales); err != nil {
		return run, err
	}

	s.printf("Calculating surplus data...\n\n")
	stockRow, err := s.latestStock(ctx)
	if err != nil {
		return run, err
	}
	run.Stock = stockRow
	run.Surplus = stock.Surplus(stockRow, sales)

	if err := s.updateWorksheet(ctx, models.SheetSurplus, run.Surplus); err != nil {
		return run, err
	}

	s.printf("Calculating stock data...\n\n")
	history, err := s.salesHistory(ctx)
	if err != nil {
		return run, err
	}
	run.Projected, err = stock.Project(history)
	if err != nil {
		return run, fmt.Errorf("project stock: %w", err)
	}

	if err := s.updateWorksheet(ctx, models.SheetStock, run.Projected); err != nil {
		return run, err
	}

	logger.Info("market run recorded",
		zap.Ints("sales", run.Sales.Values()),
		zap.Ints("surplus", run.Surplus.Values()),
		zap.Ints("projected", run.Projected.Values()))

	if s.journal != nil {
		if err := s.journal.SaveRun(ctx, run); err != nil {
			logger.Error("failed to archive market run", zap.Error(err))
		}
	}

	if s.notifier != nil && s.summarizer != nil {
		if err := s.notifier.Notify(ctx, s.summarizer.RunSummary(run)); err != nil {
			logger.Error("failed to send run summary", zap.Error(err))
		}
	}

	return run, nil
}

func (s *Service) updateWorksheet(ctx context.Context, sheet string, row models.Row) error {
	s.printf("Updating %s worksheet...\n\n", sheet)
	if err := s.repo.AppendRow(ctx, sheet, row.Values()); err != nil {
		return fmt.Errorf("update %s worksheet: %w", sheet, err)
	}
	s.printf("%s worksheet updated successfully.\n\n", sheet)
	return nil
}

func (s *Service) latestStock(ctx context.Context) (models.Row, error) {
	rows, err := s.repo.ReadAllRows(ctx, models.SheetStock)
	if err != nil {
		return models.Row{}, fmt.Errorf("read stock worksheet: %w", err)
	}
	if len(rows) == 0 {
		return models.Row{}, fmt.Errorf("%w: %s sheet is empty", ErrColumnMismatch, models.SheetStock)
	}
	if err := s.header.Match(rows[0]); err != nil {
		return models.Row{}, fmt.Errorf("%w: %s: %v", ErrColumnMismatch, models.SheetStock, err)
	}
	if len(rows) < 2 {
		return models.Row{}, ErrNoStock
	}

	row, err := stock.ParseRow(rows[len(rows)-1])
	if err != nil {
		return models.Row{}, fmt.Errorf("parse latest stock row: %w", err)
	}
	return row, nil
}

func (s *Service) salesHistory(ctx context.Context) (models.History, error) {
	columns := make([][]string, 0, models.ItemCount)
	for i := 0; i < models.ItemCount; i++ {
		column, err := s.repo.ReadColumn(ctx, models.SheetSales, i+1)
		if err != nil {
			return models.History{}, fmt.Errorf("read sales column %d: %w", i+1, err)
		}
		if len(column) == 0 || !s.header.MatchesCell(i, column[0]) {
			return models.History{}, fmt.Errorf("%w: %s column %d is not %q", ErrColumnMismatch, models.SheetSales, i+1, s.header[i])
		}
		columns = append(columns, column)
	}

	history, err := stock.HistoryFromColumns(columns, s.historyWindow)
	if err != nil {
		return models.History{}, fmt.Errorf("read sales history: %w", err)
	}
	return history, nil
}

func (s *Service) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(s.out, format, args...)
}
