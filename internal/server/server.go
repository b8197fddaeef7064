package server

import (
	"log/slog"
	"net/http"

	"vahan-dashboard/internal/handlers"
	"vahan-dashboard/internal/services"
)

type Server struct {
	analytics      *services.Analytics
	mux            *http.ServeMux
	logger         *slog.Logger
	apiHandlers    *handlers.APIHandlers
	sseHandlers    *handlers.SSEHandlers
	exportHandlers *handlers.ExportHandlers
}

type TemplateHandlers struct {
	Dashboard http.HandlerFunc
}

func NewServer(analytics *services.Analytics, logger *slog.Logger, templateHandlers *TemplateHandlers) *Server {
	s := &Server{
		analytics:      analytics,
		mux:            http.NewServeMux(),
		logger:         logger,
		apiHandlers:    handlers.NewAPIHandlers(analytics, logger),
		sseHandlers:    handlers.NewSSEHandlers(analytics, logger),
		exportHandlers: handlers.NewExportHandlers(analytics, logger),
	}
	s.setupRoutes(templateHandlers)
	return s
}

func (s *Server) setupRoutes(templateHandlers *TemplateHandlers) {
	// Dashboard page
	s.mux.HandleFunc("GET /", templateHandlers.Dashboard)
	s.mux.HandleFunc("GET /health", s.apiHandlers.HandleHealth)
	s.mux.HandleFunc("GET /admin/stats", s.apiHandlers.HandleStats)

	// REST API endpoints
	s.mux.HandleFunc("GET /api/records", s.apiHandlers.HandleRecords)
	s.mux.HandleFunc("GET /api/monthly-trend", s.apiHandlers.HandleMonthlyTrend)
	s.mux.HandleFunc("GET /api/growth", s.apiHandlers.HandleGrowth)
	s.mux.HandleFunc("GET /api/market-share", s.apiHandlers.HandleMarketShare)
	s.mux.HandleFunc("GET /api/state-performance", s.apiHandlers.HandleStatePerformance)
	s.mux.HandleFunc("GET /api/manufacturers", s.apiHandlers.HandleManufacturers)
	s.mux.HandleFunc("GET /api/summary", s.apiHandlers.HandleSummary)
	s.mux.HandleFunc("POST /api/regenerate", s.apiHandlers.HandleRegenerate)

	// Export downloads
	s.mux.HandleFunc("GET /api/export/csv", s.exportHandlers.HandleCSV)
	s.mux.HandleFunc("GET /api/export/xlsx", s.exportHandlers.HandleExcel)
	s.mux.HandleFunc("GET /api/export/summary.csv", s.exportHandlers.HandleSummaryCSV)

	// Datastar SSE endpoints
	s.mux.HandleFunc("GET /sse/monthly-trend", s.sseHandlers.HandleMonthlyTrend)
	s.mux.HandleFunc("GET /sse/market-share", s.sseHandlers.HandleMarketShare)
	s.mux.HandleFunc("GET /sse/state-performance", s.sseHandlers.HandleStatePerformance)
	s.mux.HandleFunc("GET /sse/manufacturers", s.sseHandlers.HandleManufacturers)
	s.mux.HandleFunc("GET /sse/refresh-all", s.sseHandlers.HandleRefreshAll)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
