package services

import (
	"context"
	"math"
	"testing"
	"time"

	"vahan-dashboard/internal/errors"
	"vahan-dashboard/internal/generator"
	"vahan-dashboard/internal/metrics"
	"vahan-dashboard/internal/models"
)

func seed(v int64) *int64 {
	return &v
}

func testDatasetParams() generator.Params {
	return generator.Params{
		Start:      time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC),
		End:        time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC),
		Categories: []models.Category{models.TwoWheeler, models.FourWheeler},
		States:     []string{"Maharashtra", "Karnataka"},
		Seed:       seed(42),
	}
}

func loadedAnalytics(t *testing.T) *Analytics {
	t.Helper()
	a := NewAnalytics(nil)
	if err := a.Load(context.Background(), testDatasetParams(), 3); err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	return a
}

func TestNewAnalytics(t *testing.T) {
	a := NewAnalytics(nil)
	if a == nil {
		t.Fatal("NewAnalytics() returned nil")
	}
	if a.logger == nil {
		t.Error("logger should default when nil")
	}
}

func TestAnalytics_QueriesBeforeLoad(t *testing.T) {
	a := NewAnalytics(nil)

	_, err := a.Rows(Filter{})
	if err == nil {
		t.Fatal("queries before Load() should fail")
	}
	appErr, ok := err.(*errors.AppError)
	if !ok {
		t.Fatalf("expected *errors.AppError, got %T", err)
	}
	if appErr.Code != errors.CodeServiceUnavail {
		t.Errorf("expected code %s, got %s", errors.CodeServiceUnavail, appErr.Code)
	}
}

func TestAnalytics_LoadInvalidParams(t *testing.T) {
	a := NewAnalytics(nil)

	p := testDatasetParams()
	p.Categories = nil

	if err := a.Load(context.Background(), p, 3); err == nil {
		t.Fatal("Load() with invalid params should fail")
	}
	if _, err := a.Rows(Filter{}); err == nil {
		t.Error("failed load must not install a dataset")
	}
}

func TestAnalytics_SeededLoadIsCached(t *testing.T) {
	a := loadedAnalytics(t)

	before := a.Stats()["loaded_at"].(time.Time)

	if err := a.Load(context.Background(), testDatasetParams(), 3); err != nil {
		t.Fatalf("second Load() failed: %v", err)
	}

	after := a.Stats()["loaded_at"].(time.Time)
	if !after.Equal(before) {
		t.Error("seeded reload with identical params should hit the cache")
	}
}

func TestAnalytics_ParamChangeInvalidatesCache(t *testing.T) {
	a := loadedAnalytics(t)

	p := testDatasetParams()
	p.Seed = seed(7)
	if err := a.Load(context.Background(), p, 3); err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if got := a.Stats()["regenerated"].(int64); got != 1 {
		t.Errorf("regenerated = %d, want 1", got)
	}
}

func TestAnalytics_UnseededLoadAlwaysRegenerates(t *testing.T) {
	a := NewAnalytics(nil)

	p := testDatasetParams()
	p.Seed = nil

	for i := 0; i < 2; i++ {
		if err := a.Load(context.Background(), p, 3); err != nil {
			t.Fatalf("Load() failed: %v", err)
		}
	}

	if got := a.Stats()["regenerated"].(int64); got != 1 {
		t.Errorf("regenerated = %d, want 1 after two unseeded loads", got)
	}
}

func TestAnalytics_RowsFilter(t *testing.T) {
	a := loadedAnalytics(t)

	all, err := a.Rows(Filter{})
	if err != nil {
		t.Fatalf("Rows() failed: %v", err)
	}
	// 24 months x 2 categories x 2 states
	if len(all) != 96 {
		t.Fatalf("expected 96 rows, got %d", len(all))
	}

	filtered, err := a.Rows(Filter{
		Categories: []string{"TwoWheeler"},
		States:     []string{"Maharashtra"},
		From:       time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("Rows() failed: %v", err)
	}
	if len(filtered) != 12 {
		t.Fatalf("expected 12 filtered rows, got %d", len(filtered))
	}
	for _, row := range filtered {
		if row.Category != models.TwoWheeler || row.State != "Maharashtra" {
			t.Errorf("filter leaked row %s/%s", row.Category, row.State)
		}
		if row.Date.Year() != 2023 {
			t.Errorf("filter leaked date %v", row.Date)
		}
	}
}

func TestAnalytics_MonthlyTrend(t *testing.T) {
	a := loadedAnalytics(t)

	trend, err := a.MonthlyTrend(Filter{})
	if err != nil {
		t.Fatalf("MonthlyTrend() failed: %v", err)
	}
	if len(trend) != 24 {
		t.Fatalf("expected 24 trend points, got %d", len(trend))
	}
	for i := 1; i < len(trend); i++ {
		if trend[i].Month <= trend[i-1].Month {
			t.Fatalf("trend months out of order: %s before %s", trend[i-1].Month, trend[i].Month)
		}
	}
}

func TestAnalytics_Growth(t *testing.T) {
	a := loadedAnalytics(t)

	points, err := a.Growth(GrowthYoY, Filter{})
	if err != nil {
		t.Fatalf("Growth() failed: %v", err)
	}

	// YoY only exists for the second year: 12 months x 2 categories.
	if len(points) != 24 {
		t.Fatalf("expected 24 growth points, got %d", len(points))
	}
	for _, p := range points {
		if p.Growth == nil {
			t.Error("growth points must carry a value")
		}
		if p.Month[:4] != "2023" {
			t.Errorf("unexpected growth month %s", p.Month)
		}
	}
}

func TestAnalytics_MarketShareSumsToOne(t *testing.T) {
	a := loadedAnalytics(t)

	shares, err := a.MarketShare(Filter{})
	if err != nil {
		t.Fatalf("MarketShare() failed: %v", err)
	}
	if len(shares) != 2 {
		t.Fatalf("expected 2 category shares, got %d", len(shares))
	}

	sum := 0.0
	for _, s := range shares {
		sum += s.Share
	}
	if math.Abs(sum-1.0) > 1e-9 {
		t.Errorf("shares sum to %v, want 1.0", sum)
	}
}

func TestAnalytics_StatePerformanceSorted(t *testing.T) {
	a := loadedAnalytics(t)

	states, err := a.StatePerformance(Filter{})
	if err != nil {
		t.Fatalf("StatePerformance() failed: %v", err)
	}
	if len(states) != 2 {
		t.Fatalf("expected 2 states, got %d", len(states))
	}
	if states[0].Registrations < states[1].Registrations {
		t.Error("state performance should be sorted by volume descending")
	}
	// Maharashtra carries a higher economic weight than Karnataka.
	if states[0].State != "Maharashtra" {
		t.Errorf("top state = %s, want Maharashtra", states[0].State)
	}
}

func TestAnalytics_SummaryAndStats(t *testing.T) {
	a := loadedAnalytics(t)

	summary, err := a.Summary()
	if err != nil {
		t.Fatalf("Summary() failed: %v", err)
	}
	if summary.TotalYoYGrowth == nil {
		t.Error("two-year dataset should have a total YoY growth")
	}

	stats, err := a.SummaryStatistics()
	if err != nil {
		t.Fatalf("SummaryStatistics() failed: %v", err)
	}
	if stats.TotalRecords != 96 {
		t.Errorf("total_records = %d, want 96", stats.TotalRecords)
	}

	admin := a.Stats()
	if admin["loaded"] != true {
		t.Error("admin stats should report loaded")
	}
	if admin["record_count"] != 96 {
		t.Errorf("record_count = %v, want 96", admin["record_count"])
	}
}

func TestAnalytics_SetRows(t *testing.T) {
	a := NewAnalytics(nil)

	records := []models.RegistrationRecord{
		{
			Date:         time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
			Category:     models.TwoWheeler,
			Manufacturer: "Honda",
			State:        "Delhi",
			Count:        100,
		},
	}
	rows, err := metrics.Compute(records, 3)
	if err != nil {
		t.Fatalf("Compute() failed: %v", err)
	}

	if err := a.SetRows(rows); err != nil {
		t.Fatalf("SetRows() failed: %v", err)
	}

	got, err := a.Rows(Filter{})
	if err != nil {
		t.Fatalf("Rows() failed: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("expected 1 row, got %d", len(got))
	}
}
