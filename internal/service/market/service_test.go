package market

import (
	"bytes"
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/mamadbah2/sandwiches/internal/domain/models"
	"github.com/mamadbah2/sandwiches/internal/repository/memory"
	"github.com/mamadbah2/sandwiches/internal/repository/sheets"
)

var header = []string{"bacon", "beef", "chicken", "tuna", "turkey", "egg salad"}

func seedStore() map[string][][]string {
	return map[string][][]string{
		models.SheetSales: {
			header,
			{"100", "100", "100", "100", "100", "100"},
			{"10", "0", "5", "2", "6", "7"},
			{"12", "0", "5", "2", "6", "7"},
			{"11", "0", "5", "2", "6", "7"},
			{"9", "0", "5", "2", "6", "7"},
		},
		models.SheetStock: {
			header,
			{"1", "1", "1", "1", "1", "1"},
			{"10", "20", "30", "40", "50", "60"},
		},
		models.SheetSurplus: {header},
	}
}

func newTestService(store *memory.Repository, out *bytes.Buffer, opts ...Option) *Service {
	svc := NewService(store, out, nil, opts...)
	svc.now = func() time.Time { return time.Date(2026, 10, 17, 18, 0, 0, 0, time.UTC) }
	svc.newID = func() string { return "run-1" }
	return svc
}

func lastRow(t *testing.T, store *memory.Repository, sheet string) []string {
	t.Helper()
	rows, err := store.ReadAllRows(context.Background(), sheet)
	if err != nil {
		t.Fatalf("read %s: %v", sheet, err)
	}
	return rows[len(rows)-1]
}

func TestRun(t *testing.T) {
	t.Parallel()

	store := memory.New(seedStore())
	var out bytes.Buffer
	svc := newTestService(store, &out)

	run, err := svc.Run(context.Background(), models.Row{13, 0, 5, 2, 6, 7})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if want := (models.Row{-3, 20, 25, 38, 44, 53}); run.Surplus != want {
		t.Fatalf("surplus want=%v got=%v", want, run.Surplus)
	}
	if want := (models.Row{12, 0, 6, 2, 7, 8}); run.Projected != want {
		t.Fatalf("projected want=%v got=%v", want, run.Projected)
	}
	if want := (models.Row{10, 20, 30, 40, 50, 60}); run.Stock != want {
		t.Fatalf("stock want=%v got=%v", want, run.Stock)
	}
	if run.ID != "run-1" {
		t.Fatalf("unexpected run id %s", run.ID)
	}

	checks := map[string][]string{
		models.SheetSales:   {"13", "0", "5", "2", "6", "7"},
		models.SheetSurplus: {"-3", "20", "25", "38", "44", "53"},
		models.SheetStock:   {"12", "0", "6", "2", "7", "8"},
	}
	for sheet, want := range checks {
		if got := lastRow(t, store, sheet); !reflect.DeepEqual(got, want) {
			t.Fatalf("%s last row want=%v got=%v", sheet, want, got)
		}
	}

	text := out.String()
	order := []string{
		"Updating sales worksheet...",
		"sales worksheet updated successfully.",
		"Calculating surplus data...",
		"Updating surplus worksheet...",
		"Calculating stock data...",
		"Updating stock worksheet...",
		"stock worksheet updated successfully.",
	}
	pos := 0
	for _, msg := range order {
		idx := strings.Index(text[pos:], msg)
		if idx < 0 {
			t.Fatalf("missing or out of order %q in:\n%s", msg, text)
		}
		pos += idx + len(msg)
	}
}

func TestRun_TwiceAppendsTwice(t *testing.T) {
	t.Parallel()

	store := memory.New(seedStore())
	svc := newTestService(store, &bytes.Buffer{})

	sales := models.Row{1, 1, 1, 1, 1, 1}
	for i := 0; i < 2; i++ {
		if _, err := svc.Run(context.Background(), sales); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
	}

	rows, _ := store.ReadAllRows(context.Background(), models.SheetSales)
	if len(rows) != len(seedStore()[models.SheetSales])+2 {
		t.Fatalf("expected two appended sales rows, got %d rows", len(rows))
	}
	surplus, _ := store.ReadAllRows(context.Background(), models.SheetSurplus)
	if len(surplus) != 3 {
		t.Fatalf("expected two surplus rows after header, got %d rows", len(surplus))
	}
}

func TestRun_StockHeaderMismatch(t *testing.T) {
	t.Parallel()

	seed := seedStore()
	seed[models.SheetStock][0] = []string{"beef", "bacon", "chicken", "tuna", "turkey", "egg salad"}
	store := memory.New(seed)

	_, err := newTestService(store, &bytes.Buffer{}).Run(context.Background(), models.Row{1, 2, 3, 4, 5, 6})
	if !errors.Is(err, ErrColumnMismatch) {
		t.Fatalf("want ErrColumnMismatch, got %v", err)
	}

	surplus, _ := store.ReadAllRows(context.Background(), models.SheetSurplus)
	if len(surplus) != 1 {
		t.Fatalf("surplus must not be written on misalignment, got %v", surplus)
	}
}

func TestRun_SalesHeaderMismatch(t *testing.T) {
	t.Parallel()

	seed := seedStore()
	seed[models.SheetSales][0] = []string{"bacon", "beef", "chicken", "turkey", "tuna", "egg salad"}
	store := memory.New(seed)

	_, err := newTestService(store, &bytes.Buffer{}).Run(context.Background(), models.Row{1, 2, 3, 4, 5, 6})
	if !errors.Is(err, ErrColumnMismatch) {
		t.Fatalf("want ErrColumnMismatch, got %v", err)
	}
	stockRows, _ := store.ReadAllRows(context.Background(), models.SheetStock)
	if len(stockRows) != 3 {
		t.Fatalf("stock must not be projected on misalignment, got %d rows", len(stockRows))
	}
}

func TestRun_NoStockRows(t *testing.T) {
	t.Parallel()

	seed := seedStore()
	seed[models.SheetStock] = [][]string{header}

	_, err := newTestService(memory.New(seed), &bytes.Buffer{}).Run(context.Background(), models.Row{})
	if !errors.Is(err, ErrNoStock) {
		t.Fatalf("want ErrNoStock, got %v", err)
	}
}

func TestRun_MissingSheet(t *testing.T) {
	t.Parallel()

	seed := seedStore()
	delete(seed, models.SheetSurplus)

	_, err := newTestService(memory.New(seed), &bytes.Buffer{}).Run(context.Background(), models.Row{})
	if !errors.Is(err, sheets.ErrNotFound) {
		t.Fatalf("want sheets.ErrNotFound, got %v", err)
	}
}

type failingJournal struct{ calls int }

func (j *failingJournal) SaveRun(context.Context, models.RunRecord) error {
	j.calls++
	return errors.New("journal offline")
}

type recordingNotifier struct{ texts []string }

func (n *recordingNotifier) Notify(_ context.Context, text string) error {
	n.texts = append(n.texts, text)
	return nil
}

type staticSummarizer struct{}

func (staticSummarizer) RunSummary(run models.RunRecord) string { return "summary " + run.ID }

func TestRun_OptionalIntegrations(t *testing.T) {
	t.Parallel()

	journal := &failingJournal{}
	notifier := &recordingNotifier{}
	svc := newTestService(memory.New(seedStore()), &bytes.Buffer{},
		WithJournal(journal),
		WithNotifier(notifier, staticSummarizer{}),
		WithHistoryWindow(1))

	run, err := svc.Run(context.Background(), models.Row{13, 0, 5, 2, 6, 7})
	if err != nil {
		t.Fatalf("journal failure must not fail the run: %v", err)
	}
	if journal.calls != 1 {
		t.Fatalf("journal calls want=1 got=%d", journal.calls)
	}
	if !reflect.DeepEqual(notifier.texts, []string{"summary run-1"}) {
		t.Fatalf("unexpected notifications: %v", notifier.texts)
	}
	// Window of one uses only the sale just entered: 13*1.1=14.3.
	if run.Projected[0] != 14 {
		t.Fatalf("projected bacon want=14 got=%d", run.Projected[0])
	}
}

type fixedSource struct {
	row models.Row
	err error
}

func (s fixedSource) Collect(context.Context) (models.Row, error) { return s.row, s.err }

func TestSession(t *testing.T) {
	t.Parallel()

	store := memory.New(seedStore())
	svc := newTestService(store, &bytes.Buffer{})

	if _, err := svc.Session(context.Background(), fixedSource{row: models.Row{1, 2, 3, 4, 5, 6}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := lastRow(t, store, models.SheetSales); !reflect.DeepEqual(got, []string{"1", "2", "3", "4", "5", "6"}) {
		t.Fatalf("unexpected sales row %v", got)
	}

	boom := errors.New("stdin closed")
	if _, err := svc.Session(context.Background(), fixedSource{err: boom}); !errors.Is(err, boom) {
		t.Fatalf("want collector error, got %v", err)
	}
}

func TestRun_CustomHeader(t *testing.T) {
	t.Parallel()

	custom, err := models.ParseHeader("Bacon Sub,Beef Sub,Chicken Sub,Tuna Sub,Turkey Sub,Egg Sub")
	if err != nil {
		t.Fatalf("parse header: %v", err)
	}
	seed := seedStore()
	for _, sheet := range []string{models.SheetSales, models.SheetStock, models.SheetSurplus} {
		seed[sheet][0] = custom.Cells()
	}

	if _, err := newTestService(memory.New(seed), &bytes.Buffer{}).Run(context.Background(), models.Row{1, 2, 3, 4, 5, 6}); !errors.Is(err, ErrColumnMismatch) {
		t.Fatalf("default header should reject custom labels, got %v", err)
	}

	store := memory.New(seed)
	run, err := newTestService(store, &bytes.Buffer{}, WithHeader(custom)).Run(context.Background(), models.Row{13, 0, 5, 2, 6, 7})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := (models.Row{12, 0, 6, 2, 7, 8}); run.Projected != want {
		t.Fatalf("projected want=%v got=%v", want, run.Projected)
	}
}
