package metrics

import (
	"fmt"
	"math"

	"vahan-dashboard/internal/errors"
	"vahan-dashboard/internal/models"
)

// Summarize condenses a derived table into headline growth figures for the
// KPI row and the summary export.
func Summarize(rows []models.DerivedMetricRow) (models.GrowthSummary, error) {
	if len(rows) == 0 {
		return models.GrowthSummary{}, errors.EmptyInput("no derived rows to summarize")
	}

	summary := models.GrowthSummary{
		CategoryYoYGrowth:   make(map[models.Category]float64),
		StateYoYGrowth:      make(map[string]float64),
		MarketConcentration: make(map[models.Category]float64),
	}

	yearTotals := make(map[int]int)
	categoryTotals := make(map[models.Category]int)
	catYoY := make(map[models.Category]*meanAcc)
	stateYoY := make(map[string]*meanAcc)
	momAcc := &meanAcc{}
	grandTotal := 0
	latestYear := rows[0].Date.Year()

	for _, row := range rows {
		year := row.Date.Year()
		if year > latestYear {
			latestYear = year
		}
		yearTotals[year] += row.Count
		categoryTotals[row.Category] += row.Count
		grandTotal += row.Count

		if row.YoYGrowth != nil {
			acc(catYoY, row.Category).add(*row.YoYGrowth)
			acc(stateYoY, row.State).add(*row.YoYGrowth)
		}
		if row.MoMGrowth != nil {
			momAcc.add(*row.MoMGrowth)
		}
	}

	if prior, ok := yearTotals[latestYear-1]; ok && prior > 0 {
		pct := (float64(yearTotals[latestYear]) - float64(prior)) / float64(prior) * 100
		summary.TotalYoYGrowth = &pct
	}

	for cat := range categoryTotals {
		summary.CategoryYoYGrowth[cat] = 0
		if a, ok := catYoY[cat]; ok {
			summary.CategoryYoYGrowth[cat] = a.mean()
		}
	}
	for state, a := range stateYoY {
		summary.StateYoYGrowth[state] = a.mean()
	}
	summary.MeanMoMGrowth = momAcc.meanOrNil()

	shares := make([]float64, 0, len(categoryTotals))
	for cat, total := range categoryTotals {
		share := 0.0
		if grandTotal > 0 {
			share = float64(total) / float64(grandTotal) * 100
		}
		summary.MarketConcentration[cat] = share
		shares = append(shares, share)
	}
	summary.HHI = HHI(shares)

	best := math.Inf(-1)
	for cat, growth := range summary.CategoryYoYGrowth {
		if growth > best || (growth == best && cat < summary.TopCategory) {
			best = growth
			summary.TopCategory = cat
			summary.TopCategoryGrowth = growth
		}
	}

	return summary, nil
}

// SummaryStatistics describes the shape of the derived table itself.
func SummaryStatistics(rows []models.DerivedMetricRow) models.SummaryStats {
	if len(rows) == 0 {
		return models.SummaryStats{}
	}

	stats := models.SummaryStats{
		TotalRecords: len(rows),
		RangeStart:   rows[0].Date,
		RangeEnd:     rows[0].Date,
	}

	states := make(map[string]struct{})
	categories := make(map[models.Category]struct{})

	for _, row := range rows {
		if row.Date.Before(stats.RangeStart) {
			stats.RangeStart = row.Date
		}
		if row.Date.After(stats.RangeEnd) {
			stats.RangeEnd = row.Date
		}
		stats.TotalRegistrations += row.Count
		states[row.State] = struct{}{}
		categories[row.Category] = struct{}{}
	}

	stats.MeanRegistrations = float64(stats.TotalRegistrations) / float64(len(rows))
	stats.StatesCovered = len(states)
	stats.CategoriesCovered = len(categories)
	return stats
}

// CAGR is the compound annual growth rate between two values, in percent.
// Zero when the start value or period count is not positive.
func CAGR(end, start float64, periods int) float64 {
	if start <= 0 || periods <= 0 {
		return 0
	}
	return (math.Pow(end/start, 1/float64(periods)) - 1) * 100
}

// HHI is the Herfindahl-Hirschman index over market shares given in
// percent, on the conventional 0-10000 scale.
func HHI(sharesPct []float64) float64 {
	sum := 0.0
	for _, share := range sharesPct {
		p := share / 100
		sum += p * p
	}
	return sum * 10000
}

// GrowthLabel buckets a growth percentage into a display label.
func GrowthLabel(rate *float64) string {
	if rate == nil {
		return "Unknown"
	}
	switch r := *rate; {
	case r > 20:
		return "Very High Growth"
	case r > 10:
		return "High Growth"
	case r > 5:
		return "Moderate Growth"
	case r > 0:
		return "Low Growth"
	case r > -5:
		return "Slight Decline"
	case r > -15:
		return "Moderate Decline"
	default:
		return "Steep Decline"
	}
}

// FormatCount renders large counts with K/M/B suffixes for the KPI row.
func FormatCount(n float64) string {
	abs := math.Abs(n)
	switch {
	case abs >= 1e9:
		return fmt.Sprintf("%.1fB", n/1e9)
	case abs >= 1e6:
		return fmt.Sprintf("%.1fM", n/1e6)
	case abs >= 1e3:
		return fmt.Sprintf("%.1fK", n/1e3)
	default:
		return fmt.Sprintf("%.1f", n)
	}
}

type meanAcc struct {
	sum float64
	n   int
}

func (m *meanAcc) add(v float64) {
	m.sum += v
	m.n++
}

func (m *meanAcc) mean() float64 {
	if m.n == 0 {
		return 0
	}
	return m.sum / float64(m.n)
}

func (m *meanAcc) meanOrNil() *float64 {
	if m.n == 0 {
		return nil
	}
	v := m.sum / float64(m.n)
	return &v
}

func acc[K comparable](m map[K]*meanAcc, k K) *meanAcc {
	a, ok := m[k]
	if !ok {
		a = &meanAcc{}
		m[k] = a
	}
	return a
}
