package handlers

import (
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/starfederation/datastar-go/datastar"

	"vahan-dashboard/internal/metrics"
	"vahan-dashboard/internal/models"
	"vahan-dashboard/internal/services"
)

const (
	maxTableRows     = 50
	maxManufacturers = 20
)

var stateTableTemplate = template.Must(template.New("stateTable").Parse(`
<div id="states-content">
<table class="modern-table">
<thead><tr><th>State</th><th>Registrations</th><th>Mean YoY</th><th>Trend</th></tr></thead>
<tbody>
{{range .Rows}}<tr>
<td>{{.State}}</td>
<td><strong>{{.Volume}}</strong></td>
<td>{{.YoY}}</td>
<td><span class="growth-badge">{{.Label}}</span></td>
</tr>{{end}}
</tbody>
</table>
</div>`))

type SSEHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
}

func NewSSEHandlers(analytics *services.Analytics, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{
		analytics: analytics,
		logger:    logger,
	}
}

type stateTableRow struct {
	State  string
	Volume string
	YoY    string
	Label  string
}

func (h *SSEHandlers) renderStateTable(data []models.StatePerformance) (string, error) {
	if len(data) > maxTableRows {
		data = data[:maxTableRows]
	}

	rows := make([]stateTableRow, len(data))
	for i, sp := range data {
		yoy := "n/a"
		if sp.MeanYoY != nil {
			yoy = metrics.FormatCount(*sp.MeanYoY) + "%"
		}
		rows[i] = stateTableRow{
			State:  sp.State,
			Volume: metrics.FormatCount(float64(sp.Registrations)),
			YoY:    yoy,
			Label:  metrics.GrowthLabel(sp.MeanYoY),
		}
	}

	var buf strings.Builder
	err := stateTableTemplate.Execute(&buf, map[string]any{"Rows": rows})
	return buf.String(), err
}

func (h *SSEHandlers) patchSignals(sse *datastar.ServerSentEventGenerator, signals map[string]any) bool {
	jsonData, err := json.Marshal(signals)
	if err != nil {
		h.logger.Error("marshal sse signals", "error", err)
		return false
	}
	sse.PatchSignals(jsonData)
	return true
}

func (h *SSEHandlers) HandleMonthlyTrend(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	data, err := h.analytics.MonthlyTrend(services.Filter{})
	if err != nil {
		h.logger.Error("monthly trend query", "error", err)
		return
	}
	if !h.patchSignals(sse, map[string]any{"trendData": data}) {
		return
	}

	sse.PatchElements(`<div id="trend-content">Monthly trend chart data loaded</div>`)

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

func (h *SSEHandlers) HandleMarketShare(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	data, err := h.analytics.MarketShare(services.Filter{})
	if err != nil {
		h.logger.Error("market share query", "error", err)
		return
	}
	if !h.patchSignals(sse, map[string]any{"shareData": data}) {
		return
	}

	sse.PatchElements(`<div id="share-content">Market share chart data loaded</div>`)

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

func (h *SSEHandlers) HandleStatePerformance(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	data, err := h.analytics.StatePerformance(services.Filter{})
	if err != nil {
		h.logger.Error("state performance query", "error", err)
		return
	}

	html, err := h.renderStateTable(data)
	if err != nil {
		h.logger.Error("render state table", "error", err)
		return
	}
	sse.PatchElements(html)

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

func (h *SSEHandlers) HandleManufacturers(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	data, err := h.analytics.ManufacturerPerformance(services.Filter{})
	if err != nil {
		h.logger.Error("manufacturer query", "error", err)
		return
	}
	if len(data) > maxManufacturers {
		data = data[:maxManufacturers]
	}
	if !h.patchSignals(sse, map[string]any{"manufacturerData": data}) {
		return
	}

	sse.PatchElements(`<div id="manufacturers-content">Manufacturer chart data loaded</div>`)

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

// HandleRefreshAll pushes every chart's data in one SSE response, used
// after a regenerate.
func (h *SSEHandlers) HandleRefreshAll(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	stateData, err := h.analytics.StatePerformance(services.Filter{})
	if err != nil {
		h.logger.Error("state performance query", "error", err)
		return
	}
	html, err := h.renderStateTable(stateData)
	if err != nil {
		h.logger.Error("render state table", "error", err)
		return
	}
	sse.PatchElements(html)

	trendData, err := h.analytics.MonthlyTrend(services.Filter{})
	if err != nil {
		h.logger.Error("monthly trend query", "error", err)
		return
	}
	shareData, err := h.analytics.MarketShare(services.Filter{})
	if err != nil {
		h.logger.Error("market share query", "error", err)
		return
	}
	manufacturerData, err := h.analytics.ManufacturerPerformance(services.Filter{})
	if err != nil {
		h.logger.Error("manufacturer query", "error", err)
		return
	}
	if len(manufacturerData) > maxManufacturers {
		manufacturerData = manufacturerData[:maxManufacturers]
	}

	h.patchSignals(sse, map[string]any{
		"trendData":        trendData,
		"shareData":        shareData,
		"manufacturerData": manufacturerData,
	})

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}
