// Package metrics transforms a registration series into derived growth
// metrics: YoY/QoQ/MoM percentages, trailing rolling averages and market
// share. All computations are pure functions of their input.
package metrics

import (
	"cmp"
	"slices"
	"strconv"
	"time"

	"vahan-dashboard/internal/errors"
	"vahan-dashboard/internal/models"
)

// DefaultWindow is the trailing rolling-average window in months.
const DefaultWindow = 3

// Compute derives one DerivedMetricRow per input record. The input is
// never mutated; output rows are sorted by date, then category, state and
// manufacturer, so identical input always yields identical output.
//
// Growth percentages are nil when no comparable prior period exists or
// when the prior value is zero. Market share is the record's fraction of
// its (date, category) bucket, zero when the bucket total is zero.
func Compute(records []models.RegistrationRecord, window int) ([]models.DerivedMetricRow, error) {
	if len(records) == 0 {
		return nil, errors.EmptyInput("no registration records to compute metrics for")
	}
	if window < 1 {
		window = DefaultWindow
	}

	sorted := append([]models.RegistrationRecord(nil), records...)
	slices.SortFunc(sorted, compareRecords)

	countByKeyMonth := make(map[string]int, len(sorted))
	quarterTotals := make(map[string]int)
	quarterSeen := make(map[string]bool)
	bucketTotals := make(map[string]int)
	series := make(map[string][]int, 64)

	for i, r := range sorted {
		countByKeyMonth[r.Key()+"|"+monthKey(r.Date)] = r.Count

		qk := r.Key() + "|" + quarterKey(quarterIndex(r.Date))
		quarterTotals[qk] += r.Count
		quarterSeen[qk] = true

		bucketTotals[bucketKey(r.Date, r.Category)] += r.Count

		series[r.Key()] = append(series[r.Key()], i)
	}

	rows := make([]models.DerivedMetricRow, len(sorted))

	for key, idxs := range series {
		for pos, i := range idxs {
			r := sorted[i]
			row := models.DerivedMetricRow{RegistrationRecord: r}

			row.YoYGrowth = growthVersus(r.Count, countByKeyMonth, key+"|"+monthKey(r.Date.AddDate(-1, 0, 0)))
			row.MoMGrowth = growthVersus(r.Count, countByKeyMonth, key+"|"+monthKey(r.Date.AddDate(0, -1, 0)))
			row.QoQGrowth = quarterGrowth(key, r.Date, quarterTotals, quarterSeen)
			row.RollingAvg = trailingMean(sorted, idxs, pos, window)

			if total := bucketTotals[bucketKey(r.Date, r.Category)]; total > 0 {
				row.MarketShare = float64(r.Count) / float64(total)
			}

			rows[i] = row
		}
	}

	return rows, nil
}

func compareRecords(a, b models.RegistrationRecord) int {
	if c := a.Date.Compare(b.Date); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Category, b.Category); c != 0 {
		return c
	}
	if c := cmp.Compare(a.State, b.State); c != 0 {
		return c
	}
	return cmp.Compare(a.Manufacturer, b.Manufacturer)
}

// growthVersus computes the percentage change against a prior-period
// lookup, nil when the prior period is absent or zero.
func growthVersus(current int, counts map[string]int, priorKey string) *float64 {
	prior, ok := counts[priorKey]
	if !ok || prior == 0 {
		return nil
	}
	pct := (float64(current) - float64(prior)) / float64(prior) * 100
	return &pct
}

func quarterGrowth(key string, date time.Time, totals map[string]int, seen map[string]bool) *float64 {
	q := quarterIndex(date)
	priorKey := key + "|" + quarterKey(q-1)
	if !seen[priorKey] {
		return nil
	}
	prior := totals[priorKey]
	if prior == 0 {
		return nil
	}
	current := totals[key+"|"+quarterKey(q)]
	pct := (float64(current) - float64(prior)) / float64(prior) * 100
	return &pct
}

// trailingMean averages the last window counts of a key's series up to and
// including position pos, over however many periods are available.
func trailingMean(sorted []models.RegistrationRecord, idxs []int, pos, window int) float64 {
	start := pos - window + 1
	if start < 0 {
		start = 0
	}
	sum := 0
	for _, i := range idxs[start : pos+1] {
		sum += sorted[i].Count
	}
	return float64(sum) / float64(pos+1-start)
}

func monthKey(t time.Time) string {
	return t.Format("2006-01")
}

// quarterIndex is a monotonically increasing calendar-quarter counter, so
// the immediately preceding quarter is always index-1.
func quarterIndex(t time.Time) int {
	return t.Year()*4 + (int(t.Month())-1)/3
}

func quarterKey(q int) string {
	return "q" + strconv.Itoa(q)
}

func bucketKey(t time.Time, c models.Category) string {
	return monthKey(t) + "|" + string(c)
}
