package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/example/attendance-tracker/internal/application"
	"github.com/example/attendance-tracker/internal/calendar"
)

type analysisService interface {
	Monthly(ctx context.Context, month string) (application.AnalysisResult, error)
	FiscalYear(ctx context.Context, year int) (application.AnalysisResult, error)
}

type AnalysisHandler struct {
	service   analysisService
	responder responder
	logger    *slog.Logger
	now       func() time.Time
}

func NewAnalysisHandler(service analysisService, logger *slog.Logger) *AnalysisHandler {
	base := defaultLogger(logger)
	return &AnalysisHandler{service: service, responder: newResponder(base), logger: base, now: time.Now}
}

func (h *AnalysisHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "AnalysisHandler", operation, attrs...)
}

// Analyze serves both period modes: `?year=` selects the fiscal year,
// otherwise `?month=` (defaulting to the current month) selects one month.
func (h *AnalysisHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	query := r.URL.Query()

	if rawYear := strings.TrimSpace(query.Get("year")); rawYear != "" {
		year, err := strconv.Atoi(rawYear)
		if err != nil {
			h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidYear)
			return
		}

		logger := h.log(r.Context(), "Analyze", "year", year)

		result, err := h.service.FiscalYear(r.Context(), year)
		if err != nil {
			logger.ErrorContext(r.Context(), "fiscal year analysis failed", "error", err, "error_kind", application.ErrorKind(err))
			h.responder.handleServiceError(r.Context(), w, err)
			return
		}

		h.responder.writeJSON(r.Context(), w, http.StatusOK, result)
		return
	}

	month := query.Get("month")
	if month == "" {
		month = h.now().Format(calendar.MonthFormat)
	}

	logger := h.log(r.Context(), "Analyze", "month", month)

	result, err := h.service.Monthly(r.Context(), month)
	if err != nil {
		logger.ErrorContext(r.Context(), "monthly analysis failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, result)
}
