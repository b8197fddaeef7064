package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"vahan-dashboard/internal/errors"
	"vahan-dashboard/internal/export"
	"vahan-dashboard/internal/observability"
	"vahan-dashboard/internal/services"
)

type ExportHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
}

func NewExportHandlers(analytics *services.Analytics, logger *slog.Logger) *ExportHandlers {
	return &ExportHandlers{
		analytics: analytics,
		logger:    logger,
	}
}

func exportFilename(base, ext string) string {
	return fmt.Sprintf("%s_%s.%s", base, time.Now().Format("20060102"), ext)
}

// HandleCSV streams the filtered derived table as a CSV download.
func (h *ExportHandlers) HandleCSV(w http.ResponseWriter, r *http.Request) {
	requestID := observability.GetRequestID(r.Context())

	f, err := parseFilter(r)
	if err != nil {
		errors.WriteError(w, h.logger, err, requestID)
		return
	}

	rows, err := h.analytics.Rows(f)
	if err != nil {
		errors.WriteError(w, h.logger, err, requestID)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", exportFilename("vehicle_registration_data", "csv")))

	if err := export.WriteCSV(w, rows); err != nil {
		// Headers are already on the wire, logging is all that is left.
		h.logger.Error("csv export failed", "error", err, "request_id", requestID)
	}
}

// HandleExcel streams the filtered derived table as an xlsx download.
func (h *ExportHandlers) HandleExcel(w http.ResponseWriter, r *http.Request) {
	requestID := observability.GetRequestID(r.Context())

	f, err := parseFilter(r)
	if err != nil {
		errors.WriteError(w, h.logger, err, requestID)
		return
	}

	rows, err := h.analytics.Rows(f)
	if err != nil {
		errors.WriteError(w, h.logger, err, requestID)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", exportFilename("vehicle_registration_data", "xlsx")))

	if err := export.WriteExcel(w, rows); err != nil {
		h.logger.Error("excel export failed", "error", err, "request_id", requestID)
	}
}

// HandleSummaryCSV downloads the growth summary as a key/value CSV.
func (h *ExportHandlers) HandleSummaryCSV(w http.ResponseWriter, r *http.Request) {
	requestID := observability.GetRequestID(r.Context())

	summary, err := h.analytics.Summary()
	if err != nil {
		errors.WriteError(w, h.logger, err, requestID)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", exportFilename("growth_metrics", "csv")))

	if err := export.WriteSummaryCSV(w, summary); err != nil {
		h.logger.Error("summary export failed", "error", err, "request_id", requestID)
	}
}
