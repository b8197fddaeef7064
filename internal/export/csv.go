// Package export renders the derived metric table and the growth summary
// to flat delimited formats for download.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"

	"vahan-dashboard/internal/models"
)

// Columns is the derived-table column layout, one row per DerivedMetricRow.
var Columns = []string{
	"date", "category", "manufacturer", "state", "count",
	"yoy_growth", "qoq_growth", "mom_growth", "rolling_avg", "market_share",
}

// utf8BOM helps Excel recognize the encoding of downloaded CSVs.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// WriteCSV streams the derived table as CSV. Nil growth values become
// empty cells.
func WriteCSV(w io.Writer, rows []models.DerivedMetricRow) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return fmt.Errorf("write BOM: %w", err)
	}

	cw := csv.NewWriter(w)

	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, row := range rows {
		if err := cw.Write(recordFor(row)); err != nil {
			return fmt.Errorf("write record %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func recordFor(row models.DerivedMetricRow) []string {
	return []string{
		row.Date.Format("2006-01-02"),
		string(row.Category),
		row.Manufacturer,
		row.State,
		strconv.Itoa(row.Count),
		formatOptional(row.YoYGrowth),
		formatOptional(row.QoQGrowth),
		formatOptional(row.MoMGrowth),
		strconv.FormatFloat(row.RollingAvg, 'f', 2, 64),
		strconv.FormatFloat(row.MarketShare, 'f', 6, 64),
	}
}

func formatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}

// WriteSummaryCSV writes the growth summary as a two-column key/value CSV,
// keys sorted for a stable layout.
func WriteSummaryCSV(w io.Writer, summary models.GrowthSummary) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return fmt.Errorf("write BOM: %w", err)
	}

	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"metric", "value"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	records := [][]string{
		{"total_yoy_growth", formatOptional(summary.TotalYoYGrowth)},
		{"mean_mom_growth", formatOptional(summary.MeanMoMGrowth)},
		{"hhi", strconv.FormatFloat(summary.HHI, 'f', 1, 64)},
		{"top_growing_category", string(summary.TopCategory)},
		{"top_growth_rate", strconv.FormatFloat(summary.TopCategoryGrowth, 'f', 2, 64)},
	}
	records = append(records, mapRecords("category_yoy_growth", summary.CategoryYoYGrowth)...)
	records = append(records, mapRecords("market_concentration", summary.MarketConcentration)...)

	stateKeys := make([]string, 0, len(summary.StateYoYGrowth))
	for state := range summary.StateYoYGrowth {
		stateKeys = append(stateKeys, state)
	}
	sort.Strings(stateKeys)
	for _, state := range stateKeys {
		records = append(records, []string{
			"state_yoy_growth." + state,
			strconv.FormatFloat(summary.StateYoYGrowth[state], 'f', 2, 64),
		})
	}

	for _, record := range records {
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func mapRecords(prefix string, m map[models.Category]float64) [][]string {
	keys := make([]string, 0, len(m))
	for cat := range m {
		keys = append(keys, string(cat))
	}
	sort.Strings(keys)

	records := make([][]string, 0, len(keys))
	for _, k := range keys {
		records = append(records, []string{
			prefix + "." + k,
			strconv.FormatFloat(m[models.Category(k)], 'f', 2, 64),
		})
	}
	return records
}
