package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"vahan-dashboard/internal/errors"
	"vahan-dashboard/internal/generator"
	"vahan-dashboard/internal/models"
	"vahan-dashboard/internal/observability"
	"vahan-dashboard/internal/services"
)

const (
	dateLayout  = "2006-01-02"
	cacheMaxAge = "public, max-age=300"
)

type APIHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
}

func NewAPIHandlers(analytics *services.Analytics, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		analytics: analytics,
		logger:    logger,
	}
}

// parseFilter reads the shared filter query params: category, state and
// manufacturer (repeatable), from and to (YYYY-MM-DD).
func parseFilter(r *http.Request) (services.Filter, error) {
	q := r.URL.Query()

	f := services.Filter{
		Categories:    q["category"],
		States:        q["state"],
		Manufacturers: q["manufacturer"],
	}

	for _, c := range f.Categories {
		if _, err := models.ParseCategory(c); err != nil {
			return services.Filter{}, errors.BadRequestWrap(err, "invalid category filter")
		}
	}

	if v := q.Get("from"); v != "" {
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			return services.Filter{}, errors.BadRequest("invalid from date, expected YYYY-MM-DD")
		}
		f.From = t
	}
	if v := q.Get("to"); v != "" {
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			return services.Filter{}, errors.BadRequest("invalid to date, expected YYYY-MM-DD")
		}
		f.To = t
	}

	return f, nil
}

func (h *APIHandlers) writeFiltered(w http.ResponseWriter, r *http.Request, query func(services.Filter) (any, error)) {
	f, err := parseFilter(r)
	if err != nil {
		errors.WriteError(w, h.logger, err, observability.GetRequestID(r.Context()))
		return
	}

	data, err := query(f)
	if err != nil {
		errors.WriteError(w, h.logger, err, observability.GetRequestID(r.Context()))
		return
	}

	errors.WriteSuccessWithHeaders(w, data, map[string]string{
		"Cache-Control": cacheMaxAge,
	})
}

func (h *APIHandlers) HandleRecords(w http.ResponseWriter, r *http.Request) {
	h.writeFiltered(w, r, func(f services.Filter) (any, error) {
		return h.analytics.Rows(f)
	})
}

func (h *APIHandlers) HandleMonthlyTrend(w http.ResponseWriter, r *http.Request) {
	h.writeFiltered(w, r, func(f services.Filter) (any, error) {
		return h.analytics.MonthlyTrend(f)
	})
}

func (h *APIHandlers) HandleGrowth(w http.ResponseWriter, r *http.Request) {
	kind := services.GrowthKind(r.URL.Query().Get("kind"))
	switch kind {
	case "":
		kind = services.GrowthYoY
	case services.GrowthYoY, services.GrowthQoQ, services.GrowthMoM:
	default:
		err := errors.BadRequest("invalid growth kind, expected yoy, qoq or mom")
		errors.WriteError(w, h.logger, err, observability.GetRequestID(r.Context()))
		return
	}

	h.writeFiltered(w, r, func(f services.Filter) (any, error) {
		return h.analytics.Growth(kind, f)
	})
}

func (h *APIHandlers) HandleMarketShare(w http.ResponseWriter, r *http.Request) {
	h.writeFiltered(w, r, func(f services.Filter) (any, error) {
		return h.analytics.MarketShare(f)
	})
}

func (h *APIHandlers) HandleStatePerformance(w http.ResponseWriter, r *http.Request) {
	h.writeFiltered(w, r, func(f services.Filter) (any, error) {
		return h.analytics.StatePerformance(f)
	})
}

func (h *APIHandlers) HandleManufacturers(w http.ResponseWriter, r *http.Request) {
	h.writeFiltered(w, r, func(f services.Filter) (any, error) {
		return h.analytics.ManufacturerPerformance(f)
	})
}

func (h *APIHandlers) HandleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.analytics.Summary()
	if err != nil {
		errors.WriteError(w, h.logger, err, observability.GetRequestID(r.Context()))
		return
	}

	stats, err := h.analytics.SummaryStatistics()
	if err != nil {
		errors.WriteError(w, h.logger, err, observability.GetRequestID(r.Context()))
		return
	}

	errors.WriteSuccess(w, map[string]any{
		"growth":     summary,
		"statistics": stats,
	})
}

type regenerateRequest struct {
	Start      string   `json:"start"`
	End        string   `json:"end"`
	Categories []string `json:"categories"`
	States     []string `json:"states"`
	Seed       *int64   `json:"seed"`
	Window     int      `json:"window"`
}

// HandleRegenerate replaces the cached dataset with one generated from the
// posted parameters.
func (h *APIHandlers) HandleRegenerate(w http.ResponseWriter, r *http.Request) {
	requestID := observability.GetRequestID(r.Context())

	var req regenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, h.logger, errors.BadRequestWrap(err, "invalid request body"), requestID)
		return
	}

	start, err := time.Parse(dateLayout, req.Start)
	if err != nil {
		errors.WriteError(w, h.logger, errors.BadRequest("invalid start date, expected YYYY-MM-DD"), requestID)
		return
	}
	end, err := time.Parse(dateLayout, req.End)
	if err != nil {
		errors.WriteError(w, h.logger, errors.BadRequest("invalid end date, expected YYYY-MM-DD"), requestID)
		return
	}

	categories := make([]models.Category, len(req.Categories))
	for i, c := range req.Categories {
		categories[i] = models.Category(c)
	}

	params := generator.Params{
		Start:      start,
		End:        end,
		Categories: categories,
		States:     req.States,
		Seed:       req.Seed,
	}

	if err := h.analytics.Load(r.Context(), params, req.Window); err != nil {
		errors.WriteError(w, h.logger, err, requestID)
		return
	}

	errors.WriteSuccess(w, h.analytics.Stats())
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	healthData := map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   "1.0.0",
	}

	errors.WriteSuccess(w, healthData)
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccess(w, h.analytics.Stats())
}
