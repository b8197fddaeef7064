package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"vahan-dashboard/internal/models"
)

func ptr(v float64) *float64 {
	return &v
}

func testRows() []models.DerivedMetricRow {
	return []models.DerivedMetricRow{
		{
			RegistrationRecord: models.RegistrationRecord{
				Date:         time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
				Category:     models.TwoWheeler,
				Manufacturer: "Hero MotoCorp",
				State:        "Maharashtra",
				Count:        1000,
			},
			RollingAvg:  1000,
			MarketShare: 0.6,
		},
		{
			RegistrationRecord: models.RegistrationRecord{
				Date:         time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC),
				Category:     models.TwoWheeler,
				Manufacturer: "Hero MotoCorp",
				State:        "Maharashtra",
				Count:        1100,
			},
			YoYGrowth:   ptr(25.5),
			MoMGrowth:   ptr(10),
			RollingAvg:  1050,
			MarketShare: 0.55,
		},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, testRows()); err != nil {
		t.Fatalf("WriteCSV() failed: %v", err)
	}

	raw := buf.Bytes()
	if !bytes.HasPrefix(raw, utf8BOM) {
		t.Error("output should start with a UTF-8 BOM")
	}

	records, err := csv.NewReader(bytes.NewReader(raw[len(utf8BOM):])).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}

	if len(records) != 3 {
		t.Fatalf("expected header plus 2 records, got %d lines", len(records))
	}
	if got := strings.Join(records[0], ","); got != strings.Join(Columns, ",") {
		t.Errorf("header = %q, want %q", got, strings.Join(Columns, ","))
	}

	first := records[1]
	if first[0] != "2023-01-01" {
		t.Errorf("date cell = %q, want 2023-01-01", first[0])
	}
	if first[4] != "1000" {
		t.Errorf("count cell = %q, want 1000", first[4])
	}
	// Nil growth renders as an empty cell, not a literal null.
	if first[5] != "" || first[6] != "" || first[7] != "" {
		t.Errorf("nil growth cells should be empty, got %q %q %q", first[5], first[6], first[7])
	}

	second := records[2]
	if second[5] != "25.50" {
		t.Errorf("yoy cell = %q, want 25.50", second[5])
	}
	if second[7] != "10.00" {
		t.Errorf("mom cell = %q, want 10.00", second[7])
	}
	if second[9] != "0.550000" {
		t.Errorf("market share cell = %q, want 0.550000", second[9])
	}
}

func TestWriteCSV_EmptyTable(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, nil); err != nil {
		t.Fatalf("WriteCSV() failed: %v", err)
	}

	records, err := csv.NewReader(bytes.NewReader(buf.Bytes()[len(utf8BOM):])).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("expected header only, got %d lines", len(records))
	}
}

func TestWriteSummaryCSV(t *testing.T) {
	summary := models.GrowthSummary{
		TotalYoYGrowth: ptr(12.34),
		CategoryYoYGrowth: map[models.Category]float64{
			models.TwoWheeler:  12.34,
			models.FourWheeler: 8.5,
		},
		StateYoYGrowth: map[string]float64{
			"Maharashtra": 14.2,
			"Karnataka":   11.1,
		},
		MarketConcentration: map[models.Category]float64{
			models.TwoWheeler:  65,
			models.FourWheeler: 35,
		},
		HHI:               5450,
		TopCategory:       models.TwoWheeler,
		TopCategoryGrowth: 12.34,
	}

	var buf bytes.Buffer
	if err := WriteSummaryCSV(&buf, summary); err != nil {
		t.Fatalf("WriteSummaryCSV() failed: %v", err)
	}

	records, err := csv.NewReader(bytes.NewReader(buf.Bytes()[len(utf8BOM):])).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}

	values := make(map[string]string, len(records))
	for _, record := range records[1:] {
		if len(record) != 2 {
			t.Fatalf("expected 2 cells per record, got %d", len(record))
		}
		values[record[0]] = record[1]
	}

	want := map[string]string{
		"total_yoy_growth":                 "12.34",
		"hhi":                              "5450.0",
		"top_growing_category":             "TwoWheeler",
		"top_growth_rate":                  "12.34",
		"category_yoy_growth.TwoWheeler":   "12.34",
		"category_yoy_growth.FourWheeler":  "8.50",
		"market_concentration.TwoWheeler":  "65.00",
		"state_yoy_growth.Maharashtra":     "14.20",
		"state_yoy_growth.Karnataka":       "11.10",
	}
	for key, expected := range want {
		if got, ok := values[key]; !ok {
			t.Errorf("missing metric %q", key)
		} else if got != expected {
			t.Errorf("metric %q = %q, want %q", key, got, expected)
		}
	}

	// nil mean MoM growth is an empty cell.
	if got := values["mean_mom_growth"]; got != "" {
		t.Errorf("mean_mom_growth = %q, want empty", got)
	}
}

func TestWriteSummaryCSV_StableOrder(t *testing.T) {
	summary := models.GrowthSummary{
		StateYoYGrowth: map[string]float64{
			"Delhi": 1, "Karnataka": 2, "Maharashtra": 3,
		},
	}

	var first, second bytes.Buffer
	if err := WriteSummaryCSV(&first, summary); err != nil {
		t.Fatalf("WriteSummaryCSV() failed: %v", err)
	}
	if err := WriteSummaryCSV(&second, summary); err != nil {
		t.Fatalf("WriteSummaryCSV() failed: %v", err)
	}
	if !bytes.Equal(first.Bytes(), second.Bytes()) {
		t.Error("summary output should be byte-identical across runs")
	}
}
