package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/attendance-tracker/internal/application"
	"github.com/example/attendance-tracker/internal/calendar"
)

type calendarService interface {
	GetMonthGrid(ctx context.Context, month string) (application.MonthView, error)
	GetWeekGrid(ctx context.Context, week string) (application.WeekView, error)
	GetUserMonth(ctx context.Context, userID, month string) (application.UserMonthView, error)
	GetDayRoster(ctx context.Context, date string) (*application.DayRoster, error)
}

type CalendarHandler struct {
	service   calendarService
	responder responder
	logger    *slog.Logger
	now       func() time.Time
}

func NewCalendarHandler(service calendarService, logger *slog.Logger) *CalendarHandler {
	return NewCalendarHandlerWithClock(service, logger, time.Now)
}

func NewCalendarHandlerWithClock(service calendarService, logger *slog.Logger, now func() time.Time) *CalendarHandler {
	base := defaultLogger(logger)
	if now == nil {
		now = time.Now
	}
	return &CalendarHandler{service: service, responder: newResponder(base), logger: base, now: now}
}

func (h *CalendarHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "CalendarHandler", operation, attrs...)
}

func (h *CalendarHandler) Month(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	month := r.URL.Query().Get("month")
	if month == "" {
		month = h.now().Format(calendar.MonthFormat)
	}

	logger := h.log(r.Context(), "Month", "month", month)

	view, err := h.service.GetMonthGrid(r.Context(), month)
	if err != nil {
		logger.ErrorContext(r.Context(), "month grid failed", "error", err, "error_kind", application.ErrorKind(err))
		if h.redirectOnInvalidPeriod(w, r, err, "/api/calendar?month="+h.now().Format(calendar.MonthFormat)) {
			return
		}
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, view)
}

func (h *CalendarHandler) Week(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	week := r.URL.Query().Get("week")
	if week == "" {
		week = h.now().Format(calendar.DateFormat)
	}

	logger := h.log(r.Context(), "Week", "week", week)

	view, err := h.service.GetWeekGrid(r.Context(), week)
	if err != nil {
		logger.ErrorContext(r.Context(), "week grid failed", "error", err, "error_kind", application.ErrorKind(err))
		if h.redirectOnInvalidPeriod(w, r, err, "/api/calendar/week?week="+h.now().Format(calendar.DateFormat)) {
			return
		}
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, view)
}

func (h *CalendarHandler) Day(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	date, ok := PathIDFromContext(r.Context())
	if !ok || strings.TrimSpace(date) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidDate)
		return
	}

	logger := h.log(r.Context(), "Day", "date", date)

	roster, err := h.service.GetDayRoster(r.Context(), date)
	if err != nil {
		logger.ErrorContext(r.Context(), "day roster failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, roster)
}

func (h *CalendarHandler) UserMonth(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	userID, ok := PathIDFromContext(r.Context())
	if !ok || strings.TrimSpace(userID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidUserID)
		return
	}

	month := r.URL.Query().Get("month")
	if month == "" {
		month = h.now().Format(calendar.MonthFormat)
	}

	logger := h.log(r.Context(), "UserMonth", "user_id", userID, "month", month)

	view, err := h.service.GetUserMonth(r.Context(), userID, month)
	if err != nil {
		logger.ErrorContext(r.Context(), "user month failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, view)
}

// redirectOnInvalidPeriod sends browser navigations with a malformed
// period back to the current one. API clients keep the 400 from the
// responder so they can surface the error themselves.
func (h *CalendarHandler) redirectOnInvalidPeriod(w http.ResponseWriter, r *http.Request, err error, target string) bool {
	var periodErr *application.InvalidPeriodError
	if !errors.As(err, &periodErr) {
		return false
	}
	if !strings.Contains(r.Header.Get("Accept"), "text/html") {
		return false
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
	return true
}
