package models

import (
	"fmt"
	"time"
)

type Category string

const (
	TwoWheeler   Category = "TwoWheeler"
	ThreeWheeler Category = "ThreeWheeler"
	FourWheeler  Category = "FourWheeler"
	Commercial   Category = "Commercial"
	Other        Category = "Other"
)

func AllCategories() []Category {
	return []Category{TwoWheeler, ThreeWheeler, FourWheeler, Commercial, Other}
}

func ParseCategory(s string) (Category, error) {
	switch Category(s) {
	case TwoWheeler, ThreeWheeler, FourWheeler, Commercial, Other:
		return Category(s), nil
	}
	return "", fmt.Errorf("unknown vehicle category %q", s)
}

// States returns the fixed region roster covered by the dashboard.
func States() []string {
	return []string{
		"Maharashtra", "Karnataka", "Tamil Nadu", "Gujarat",
		"Uttar Pradesh", "Rajasthan", "West Bengal", "Telangana",
		"Haryana", "Delhi", "Punjab", "Madhya Pradesh",
	}
}

// Manufacturers returns the fixed roster for a category.
func Manufacturers(c Category) []string {
	switch c {
	case TwoWheeler:
		return []string{"Hero MotoCorp", "Honda", "TVS", "Bajaj", "Royal Enfield"}
	case ThreeWheeler:
		return []string{"Bajaj", "TVS", "Mahindra", "Piaggio"}
	case FourWheeler:
		return []string{"Maruti Suzuki", "Hyundai", "Tata Motors", "Mahindra", "Kia"}
	case Commercial:
		return []string{"Tata Motors", "Ashok Leyland", "Mahindra", "Eicher"}
	default:
		return []string{"Various"}
	}
}

// RegistrationRecord is one monthly registration volume for a
// (category, manufacturer, state) key. Date is the first day of the
// month in UTC.
type RegistrationRecord struct {
	Date         time.Time `json:"date"`
	Category     Category  `json:"category"`
	Manufacturer string    `json:"manufacturer"`
	State        string    `json:"state"`
	Count        int       `json:"count"`
}

// Key identifies the record's time series.
func (r RegistrationRecord) Key() string {
	return string(r.Category) + "|" + r.Manufacturer + "|" + r.State
}

// DerivedMetricRow is a RegistrationRecord with growth metrics attached.
// Growth percentages are nil when no comparable prior period exists or
// the prior value is zero.
type DerivedMetricRow struct {
	RegistrationRecord
	YoYGrowth   *float64 `json:"yoy_growth"`
	QoQGrowth   *float64 `json:"qoq_growth"`
	MoMGrowth   *float64 `json:"mom_growth"`
	RollingAvg  float64  `json:"rolling_avg"`
	MarketShare float64  `json:"market_share"`
}

type MonthlyTrendPoint struct {
	Month         string `json:"month"`
	Registrations int    `json:"registrations"`
}

type GrowthPoint struct {
	Month    string   `json:"month"`
	Category Category `json:"category"`
	Growth   *float64 `json:"growth"`
}

type CategoryShare struct {
	Category Category `json:"category"`
	Count    int      `json:"count"`
	Share    float64  `json:"share"`
}

type StatePerformance struct {
	State         string   `json:"state"`
	Registrations int      `json:"registrations"`
	MeanYoY       *float64 `json:"mean_yoy_growth"`
}

type ManufacturerPerformance struct {
	Manufacturer  string   `json:"manufacturer"`
	Category      Category `json:"category"`
	Registrations int      `json:"registrations"`
	Share         float64  `json:"share"`
}

// GrowthSummary aggregates the derived table into headline figures.
type GrowthSummary struct {
	TotalYoYGrowth      *float64             `json:"total_yoy_growth"`
	CategoryYoYGrowth   map[Category]float64 `json:"category_yoy_growth"`
	StateYoYGrowth      map[string]float64   `json:"state_yoy_growth"`
	MeanMoMGrowth       *float64             `json:"mean_mom_growth"`
	MarketConcentration map[Category]float64 `json:"market_concentration"`
	HHI                 float64              `json:"hhi"`
	TopCategory         Category             `json:"top_growing_category"`
	TopCategoryGrowth   float64              `json:"top_growth_rate"`
}

// SummaryStats describes the dataset itself.
type SummaryStats struct {
	TotalRecords       int       `json:"total_records"`
	RangeStart         time.Time `json:"range_start"`
	RangeEnd           time.Time `json:"range_end"`
	TotalRegistrations int       `json:"total_registrations"`
	MeanRegistrations  float64   `json:"mean_registrations"`
	StatesCovered      int       `json:"states_covered"`
	CategoriesCovered  int       `json:"categories_covered"`
}
