package http

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/attendance-tracker/internal/application"
)

type csvService interface {
	Export(ctx context.Context, w io.Writer, month, encoding string) error
	MonthChoices(count int) []application.MonthChoice
}

type CSVHandler struct {
	service   csvService
	responder responder
	logger    *slog.Logger
}

func NewCSVHandler(service csvService, logger *slog.Logger) *CSVHandler {
	base := defaultLogger(logger)
	return &CSVHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *CSVHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "CSVHandler", operation, attrs...)
}

// Download streams the export straight into the response. Rows are
// written as they are produced, so a failure after the first byte can
// only be logged, not turned into an error response.
func (h *CSVHandler) Download(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	query := r.URL.Query()
	month := query.Get("month")
	encoding := query.Get("encoding")
	if encoding == "" {
		encoding = application.EncodingUTF8
	}

	logger := h.log(r.Context(), "Download", "month", month, "encoding", encoding)

	charset := "utf-8"
	if encoding == application.EncodingShiftJIS {
		charset = "Shift_JIS"
	}
	w.Header().Set("Content-Type", "text/csv; charset="+charset)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exportFilename(month)))

	if err := h.service.Export(r.Context(), w, month, encoding); err != nil {
		logger.ErrorContext(r.Context(), "csv export failed", "error", err, "error_kind", application.ErrorKind(err))
		w.Header().Del("Content-Disposition")
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "csv export completed")
}

func (h *CSVHandler) Months(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	choices := h.service.MonthChoices(0)
	h.responder.writeJSON(r.Context(), w, http.StatusOK, monthChoicesResponse{Months: choices})
}

type monthChoicesResponse struct {
	Months []application.MonthChoice `json:"months"`
}

func exportFilename(month string) string {
	if m := strings.TrimSpace(month); m != "" {
		return "work_entries_" + m + ".csv"
	}
	return "work_entries.csv"
}
