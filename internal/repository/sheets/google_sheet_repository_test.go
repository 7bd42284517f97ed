package sheets

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"
)

func newTestRepository(t *testing.T, handler http.HandlerFunc) *GoogleSheetRepository {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	service, err := sheetsapi.NewService(context.Background(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithoutAuthentication(),
		option.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	return &GoogleSheetRepository{service: service, spreadsheetID: "sheet-id", logger: zap.NewNop()}
}

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		code int
		want error
	}{
		{code: http.StatusUnauthorized, want: ErrUnauthorized},
		{code: http.StatusForbidden, want: ErrUnauthorized},
		{code: http.StatusNotFound, want: ErrNotFound},
		{code: http.StatusBadRequest, want: ErrNotFound},
		{code: http.StatusTooManyRequests, want: ErrTransient},
		{code: http.StatusServiceUnavailable, want: ErrTransient},
	}

	for _, tt := range tests {
		err := classify(&googleapi.Error{Code: tt.code})
		if !errors.Is(err, tt.want) {
			t.Fatalf("code %d: want %v, got %v", tt.code, tt.want, err)
		}
	}

	if err := classify(context.Canceled); !errors.Is(err, context.Canceled) || errors.Is(err, ErrTransient) {
		t.Fatalf("context errors must pass through unchanged, got %v", err)
	}
	if err := classify(errors.New("connection reset")); !errors.Is(err, ErrTransient) {
		t.Fatalf("network errors should be transient, got %v", err)
	}
	if classify(nil) != nil {
		t.Fatalf("nil should stay nil")
	}
}

func TestGoogleSheetRepository_ReadAllRows(t *testing.T) {
	t.Parallel()

	repo := newTestRepository(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || !strings.Contains(r.URL.Path, "/v4/spreadsheets/sheet-id/values/") {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.URL.Query().Get("valueRenderOption"); got != "UNFORMATTED_VALUE" {
			t.Errorf("valueRenderOption want=UNFORMATTED_VALUE got=%s", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"range": "stock!A1:F2",
			"values": [][]any{
				{"bacon", "beef", "chicken", "tuna", "turkey", "egg salad"},
				{10, 20, 30, 40, 50, 1200000},
			},
		})
	})

	rows, err := repo.ReadAllRows(context.Background(), "stock")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 2 || rows[1][0] != "10" || rows[1][5] != "1200000" || rows[0][5] != "egg salad" {
		t.Fatalf("unexpected rows: %v", rows)
	}
}

func TestGoogleSheetRepository_ReadColumn(t *testing.T) {
	t.Parallel()

	repo := newTestRepository(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("majorDimension"); got != "COLUMNS" {
			t.Errorf("majorDimension want=COLUMNS got=%s", got)
		}
		if got := r.URL.Query().Get("valueRenderOption"); got != "UNFORMATTED_VALUE" {
			t.Errorf("valueRenderOption want=UNFORMATTED_VALUE got=%s", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"values": [][]any{{"beef", 3, 1500}},
		})
	})

	column, err := repo.ReadColumn(context.Background(), "sales", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Join(column, ",") != "beef,3,1500" {
		t.Fatalf("unexpected column: %v", column)
	}

	if _, err := repo.ReadColumn(context.Background(), "sales", 0); err == nil {
		t.Fatalf("expected error for column 0")
	}
}

func TestGoogleSheetRepository_AppendRow(t *testing.T) {
	t.Parallel()

	var body map[string]any
	repo := newTestRepository(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || !strings.HasSuffix(r.URL.Path, ":append") {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.URL.Query().Get("valueInputOption"); got != "USER_ENTERED" {
			t.Errorf("valueInputOption want=USER_ENTERED got=%s", got)
		}
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	})

	if err := repo.AppendRow(context.Background(), "surplus", []int{1, -2, 3, 4, 5, 6}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	values, ok := body["values"].([]any)
	if !ok || len(values) != 1 {
		t.Fatalf("unexpected payload: %v", body)
	}
	row := values[0].([]any)
	if len(row) != 6 || row[1].(float64) != -2 {
		t.Fatalf("unexpected row payload: %v", row)
	}
}

func TestGoogleSheetRepository_Forbidden(t *testing.T) {
	t.Parallel()

	repo := newTestRepository(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"The caller does not have permission"}}`))
	})

	_, err := repo.ReadAllRows(context.Background(), "stock")
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized, got %v", err)
	}
}

func TestQuoteSheet(t *testing.T) {
	t.Parallel()

	if got := quoteSheet("o'brien"); got != "'o''brien'" {
		t.Fatalf("unexpected quoting: %s", got)
	}
}
