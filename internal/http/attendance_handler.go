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

type attendanceService interface {
	CreateAttendance(ctx context.Context, input application.AttendanceInput) (persistence.Attendance, application.Triggers, error)
	UpdateAttendance(ctx context.Context, id int64, input application.AttendanceUpdateInput) (persistence.Attendance, application.Triggers, error)
	DeleteAttendance(ctx context.Context, id int64) (application.Triggers, error)
	ListUserAttendances(ctx context.Context, userID, dateStr string) ([]persistence.AttendanceDetail, error)
}

type AttendanceHandler struct {
	service   attendanceService
	responder responder
	logger    *slog.Logger
}

func NewAttendanceHandler(service attendanceService, logger *slog.Logger) *AttendanceHandler {
	base := defaultLogger(logger)
	return &AttendanceHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *AttendanceHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "AttendanceHandler", operation, attrs...)
}

func (h *AttendanceHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	if err := r.ParseForm(); err != nil {
		h.log(r.Context(), "Create", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to parse attendance form", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	input := application.AttendanceInput{
		UserID: r.PostFormValue("user_id"),
		Date:   r.PostFormValue("date"),
	}
	if raw := strings.TrimSpace(r.PostFormValue("location_id")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
			return
		}
		input.LocationID = id
	}
	if note := r.PostFormValue("note"); note != "" {
		input.Note = &note
	}

	logger := h.log(r.Context(), "Create", "user_id", input.UserID, "date", input.Date)

	att, triggers, err := h.service.CreateAttendance(r.Context(), input)
	if err != nil {
		logger.ErrorContext(r.Context(), "attendance registration failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("attendance_id", att.ID).InfoContext(r.Context(), "attendance registered")
	h.writeTriggers(r.Context(), w, triggers)
}

func (h *AttendanceHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id, ok := numericPathID(r)
	if !ok {
		h.log(r.Context(), "Update", "error_kind", "bad_request").ErrorContext(r.Context(), "missing attendance id for update")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidID)
		return
	}

	if err := r.ParseForm(); err != nil {
		h.log(r.Context(), "Update", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to parse attendance form", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	var input application.AttendanceUpdateInput
	if raw := strings.TrimSpace(r.PostFormValue("location_id")); raw != "" {
		locationID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
			return
		}
		input.LocationID = locationID
	}
	if note := r.PostFormValue("note"); note != "" {
		input.Note = &note
	}

	logger := h.log(r.Context(), "Update", "attendance_id", id)

	att, triggers, err := h.service.UpdateAttendance(r.Context(), id, input)
	if err != nil {
		logger.ErrorContext(r.Context(), "attendance update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("user_id", att.UserID).InfoContext(r.Context(), "attendance updated")
	h.writeTriggers(r.Context(), w, triggers)
}

func (h *AttendanceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id, ok := numericPathID(r)
	if !ok {
		h.log(r.Context(), "Delete", "error_kind", "bad_request").ErrorContext(r.Context(), "missing attendance id for delete")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidID)
		return
	}

	logger := h.log(r.Context(), "Delete", "attendance_id", id)

	triggers, err := h.service.DeleteAttendance(r.Context(), id)
	if err != nil {
		logger.ErrorContext(r.Context(), "attendance delete failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "attendance deleted")
	h.writeTriggers(r.Context(), w, triggers)
}

func (h *AttendanceHandler) ListForUser(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	userID, ok := PathIDFromContext(r.Context())
	if !ok || strings.TrimSpace(userID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidUserID)
		return
	}

	dateStr := r.URL.Query().Get("date")
	logger := h.log(r.Context(), "ListForUser", "user_id", userID)

	details, err := h.service.ListUserAttendances(r.Context(), userID, dateStr)
	if err != nil {
		logger.ErrorContext(r.Context(), "attendance listing failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, attendanceListResponse{Attendances: toAttendanceDTOs(details)})
}

// writeTriggers finishes an attendance write: no body, with the refresh
// hints serialized into the HX-Trigger header for htmx clients.
func (h *AttendanceHandler) writeTriggers(ctx context.Context, w http.ResponseWriter, triggers application.Triggers) {
	payload, err := json.Marshal(triggers)
	if err != nil {
		h.log(ctx, "writeTriggers").ErrorContext(ctx, "failed to encode triggers", "error", err)
		h.responder.writeJSON(ctx, w, http.StatusNoContent, nil)
		return
	}
	w.Header().Set("HX-Trigger", string(payload))
	h.responder.writeJSON(ctx, w, http.StatusNoContent, nil)
}

type attendanceDTO struct {
	ID           int64   `json:"id"`
	UserID       string  `json:"user_id"`
	UserName     string  `json:"user_name"`
	Date         string  `json:"date"`
	LocationID   int64   `json:"location_id"`
	LocationName string  `json:"location_name"`
	Note         *string `json:"note,omitempty"`
}

type attendanceListResponse struct {
	Attendances []attendanceDTO `json:"attendances"`
}

func toAttendanceDTOs(details []persistence.AttendanceDetail) []attendanceDTO {
	dtos := make([]attendanceDTO, 0, len(details))
	for _, d := range details {
		dtos = append(dtos, attendanceDTO{
			ID:           d.ID,
			UserID:       d.UserID,
			UserName:     d.UserName,
			Date:         d.Date.Format(calendar.DateFormat),
			LocationID:   d.LocationID,
			LocationName: d.LocationName,
			Note:         d.Note,
		})
	}
	return dtos
}
