package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/example/attendance-tracker/internal/application"
	"github.com/example/attendance-tracker/internal/calendar"
	"github.com/example/attendance-tracker/internal/persistence"
)

type holidayService interface {
	CreateHoliday(ctx context.Context, input application.HolidayInput) (persistence.CustomHoliday, error)
	ListHolidays(ctx context.Context) ([]persistence.CustomHoliday, error)
	UpdateHoliday(ctx context.Context, id int64, input application.HolidayInput) (persistence.CustomHoliday, error)
	DeleteHoliday(ctx context.Context, id int64) error
	FetchPublicHolidays(ctx context.Context, year int) (int, error)
}

type HolidayHandler struct {
	service   holidayService
	responder responder
	logger    *slog.Logger
}

func NewHolidayHandler(service holidayService, logger *slog.Logger) *HolidayHandler {
	base := defaultLogger(logger)
	return &HolidayHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *HolidayHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "HolidayHandler", operation, attrs...)
}

func (h *HolidayHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req holidayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode holiday request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create", "date", req.Date)

	holiday, err := h.service.CreateHoliday(r.Context(), req.toInput())
	if err != nil {
		logger.ErrorContext(r.Context(), "holiday creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("holiday_id", holiday.ID).InfoContext(r.Context(), "holiday created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, holidayResponse{Holiday: toHolidayDTO(holiday)})
}

func (h *HolidayHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	holidays, err := h.service.ListHolidays(r.Context())
	if err != nil {
		h.log(r.Context(), "List").ErrorContext(r.Context(), "holiday listing failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	dtos := make([]holidayDTO, 0, len(holidays))
	for _, holiday := range holidays {
		dtos = append(dtos, toHolidayDTO(holiday))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, holidayListResponse{Holidays: dtos})
}

func (h *HolidayHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id, ok := numericPathID(r)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidID)
		return
	}

	var req holidayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Update", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode holiday request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Update", "holiday_id", id)

	holiday, err := h.service.UpdateHoliday(r.Context(), id, req.toInput())
	if err != nil {
		logger.ErrorContext(r.Context(), "holiday update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "holiday updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, holidayResponse{Holiday: toHolidayDTO(holiday)})
}

func (h *HolidayHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id, ok := numericPathID(r)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidID)
		return
	}

	logger := h.log(r.Context(), "Delete", "holiday_id", id)

	if err := h.service.DeleteHoliday(r.Context(), id); err != nil {
		logger.ErrorContext(r.Context(), "holiday delete failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "holiday deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// Fetch pulls one year of public holidays from the upstream table into
// the local cache.
func (h *HolidayHandler) Fetch(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	rawYear := strings.TrimSpace(r.URL.Query().Get("year"))
	year, err := strconv.Atoi(rawYear)
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidYear)
		return
	}

	logger := h.log(r.Context(), "Fetch", "year", year)

	count, err := h.service.FetchPublicHolidays(r.Context(), year)
	if err != nil {
		logger.ErrorContext(r.Context(), "public holiday fetch failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("count", count).InfoContext(r.Context(), "public holidays fetched")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, holidayFetchResponse{Year: year, Count: count})
}

type holidayRequest struct {
	Date string `json:"date"`
	Name string `json:"name"`
}

func (req holidayRequest) toInput() application.HolidayInput {
	return application.HolidayInput{Date: req.Date, Name: req.Name}
}

type holidayDTO struct {
	ID   int64  `json:"id"`
	Date string `json:"date"`
	Name string `json:"name"`
}

type holidayResponse struct {
	Holiday holidayDTO `json:"holiday"`
}

type holidayListResponse struct {
	Holidays []holidayDTO `json:"holidays"`
}

type holidayFetchResponse struct {
	Year  int `json:"year"`
	Count int `json:"count"`
}

func toHolidayDTO(holiday persistence.CustomHoliday) holidayDTO {
	return holidayDTO{ID: holiday.ID, Date: holiday.Date.Format(calendar.DateFormat), Name: holiday.Name}
}
