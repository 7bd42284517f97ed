package reporting

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/mamadbah2/sandwiches/internal/config"
	"github.com/mamadbah2/sandwiches/internal/domain/models"
)

const dateLayout = "Mon 2006-01-02 15:04"

// Service renders human readable run summaries.
type Service struct {
	schedule cron.Schedule
	location *time.Location
	title    cases.Caser
	logger   *zap.Logger
	now      func() time.Time
}

// NewService wires a new reporting service instance. An empty market
// schedule disables the next-market line.
func NewService(cfg config.MarketConfig, logger *zap.Logger) (*Service, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	location, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %s: %w", cfg.Timezone, err)
	}

	var schedule cron.Schedule
	if cfg.Schedule != "" {
		schedule, err = cron.ParseStandard(cfg.Schedule)
		if err != nil {
			return nil, fmt.Errorf("parse market schedule %q: %w", cfg.Schedule, err)
		}
	}

	return &Service{
		schedule: schedule,
		location: location,
		title:    cases.Title(language.English),
		logger:   logger,
		now:      time.Now,
	}, nil
}

// SurplusSummary describes, per item, whether stock was wasted or sold out.
func (s *Service) SurplusSummary(surplus models.Row) string {
	var b strings.Builder
	b.WriteString("Surplus by item:\n")
	for i, item := range models.Items {
		v := surplus[i]
		label := s.title.String(string(item))
		switch {
		case v > 0:
			fmt.Fprintf(&b, "  %s: %d left over (waste)\n", label, v)
		case v < 0:
			fmt.Fprintf(&b, "  %s: sold out, %d extra made\n", label, -v)
		default:
			fmt.Fprintf(&b, "  %s: sold exactly\n", label)
		}
	}
	return b.String()
}

// StockSummary lists the projected stock for the next market.
func (s *Service) StockSummary(projected models.Row) string {
	parts := make([]string, 0, models.ItemCount)
	for i, item := range models.Items {
		parts = append(parts, fmt.Sprintf("%s %d", s.title.String(string(item)), projected[i]))
	}

	line := "Stock to prepare: " + strings.Join(parts, ", ") + "\n"
	if next, ok := s.NextMarket(); ok {
		line += fmt.Sprintf("Next market: %s\n", next.Format(dateLayout))
	}
	return line
}

// RunSummary combines the surplus and stock summaries of a completed run.
func (s *Service) RunSummary(run models.RunRecord) string {
	return s.SurplusSummary(run.Surplus) + s.StockSummary(run.Projected)
}

// NextMarket returns the next scheduled market after now, if a schedule is configured.
func (s *Service) NextMarket() (time.Time, bool) {
	if s.schedule == nil {
		return time.Time{}, false
	}
	next := s.schedule.Next(s.now().In(s.location))
	if next.IsZero() {
		s.logger.Warn("market schedule yields no future date")
		return time.Time{}, false
	}
	return next, true
}
