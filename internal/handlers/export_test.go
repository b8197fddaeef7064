package handlers

import (
	"bytes"
	"encoding/csv"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"vahan-dashboard/internal/services"
)

func createTestExportHandlers(t *testing.T) *ExportHandlers {
	t.Helper()
	return NewExportHandlers(createTestAnalytics(t), slog.Default())
}

func TestExportHandlers_HandleCSV(t *testing.T) {
	handlers := createTestExportHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/api/export/csv", nil)
	w := httptest.NewRecorder()

	handlers.HandleCSV(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/csv; charset=utf-8" {
		t.Errorf("expected CSV content-type, got %q", ct)
	}
	cd := w.Header().Get("Content-Disposition")
	if !strings.HasPrefix(cd, `attachment; filename="vehicle_registration_data_`) ||
		!strings.HasSuffix(cd, `.csv"`) {
		t.Errorf("unexpected content-disposition %q", cd)
	}

	body := w.Body.Bytes()
	// BOM then header then data.
	body = bytes.TrimPrefix(body, []byte{0xEF, 0xBB, 0xBF})
	records, err := csv.NewReader(bytes.NewReader(body)).ReadAll()
	if err != nil {
		t.Fatalf("body is not valid CSV: %v", err)
	}
	if len(records) != 97 {
		t.Errorf("expected header plus 96 records, got %d lines", len(records))
	}
	if records[0][0] != "date" {
		t.Errorf("first header cell = %q, want date", records[0][0])
	}
}

func TestExportHandlers_HandleCSVFiltered(t *testing.T) {
	handlers := createTestExportHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/api/export/csv?category=TwoWheeler&state=Maharashtra", nil)
	w := httptest.NewRecorder()

	handlers.HandleCSV(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	body := bytes.TrimPrefix(w.Body.Bytes(), []byte{0xEF, 0xBB, 0xBF})
	records, err := csv.NewReader(bytes.NewReader(body)).ReadAll()
	if err != nil {
		t.Fatalf("body is not valid CSV: %v", err)
	}
	if len(records) != 25 {
		t.Errorf("expected header plus 24 records, got %d lines", len(records))
	}
}

func TestExportHandlers_HandleCSVInvalidFilter(t *testing.T) {
	handlers := createTestExportHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/api/export/csv?category=Boats", nil)
	w := httptest.NewRecorder()

	handlers.HandleCSV(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("errors should be JSON, got content-type %q", ct)
	}
}

func TestExportHandlers_HandleExcel(t *testing.T) {
	handlers := createTestExportHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/api/export/xlsx", nil)
	w := httptest.NewRecorder()

	handlers.HandleExcel(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	want := "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	if ct := w.Header().Get("Content-Type"); ct != want {
		t.Errorf("expected xlsx content-type, got %q", ct)
	}

	f, err := excelize.OpenReader(w.Body)
	if err != nil {
		t.Fatalf("body is not a valid workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Registrations")
	if err != nil {
		t.Fatalf("failed to read sheet: %v", err)
	}
	if len(rows) != 97 {
		t.Errorf("expected header plus 96 rows, got %d", len(rows))
	}
}

func TestExportHandlers_HandleSummaryCSV(t *testing.T) {
	handlers := createTestExportHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/api/export/summary.csv", nil)
	w := httptest.NewRecorder()

	handlers.HandleSummaryCSV(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	cd := w.Header().Get("Content-Disposition")
	if !strings.HasPrefix(cd, `attachment; filename="growth_metrics_`) {
		t.Errorf("unexpected content-disposition %q", cd)
	}

	body := bytes.TrimPrefix(w.Body.Bytes(), []byte{0xEF, 0xBB, 0xBF})
	records, err := csv.NewReader(bytes.NewReader(body)).ReadAll()
	if err != nil {
		t.Fatalf("body is not valid CSV: %v", err)
	}
	if len(records) < 2 {
		t.Fatal("expected at least one metric record")
	}
	if records[0][0] != "metric" || records[0][1] != "value" {
		t.Errorf("unexpected header %v", records[0])
	}

	found := false
	for _, record := range records[1:] {
		if record[0] == "total_yoy_growth" && record[1] != "" {
			found = true
		}
	}
	if !found {
		t.Error("expected a total_yoy_growth metric with a value")
	}
}

func TestExportHandlers_BeforeLoad(t *testing.T) {
	handlers := NewExportHandlers(services.NewAnalytics(slog.Default()), slog.Default())

	endpoints := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"csv", handlers.HandleCSV},
		{"xlsx", handlers.HandleExcel},
		{"summary", handlers.HandleSummaryCSV},
	}

	for _, endpoint := range endpoints {
		t.Run(endpoint.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			w := httptest.NewRecorder()

			endpoint.handler(w, req)

			if w.Code != http.StatusServiceUnavailable {
				t.Errorf("expected status %d, got %d", http.StatusServiceUnavailable, w.Code)
			}
		})
	}
}
