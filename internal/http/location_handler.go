package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/example/attendance-tracker/internal/application"
	"github.com/example/attendance-tracker/internal/persistence"
)

type locationService interface {
	CreateLocation(ctx context.Context, input application.LocationInput) (persistence.Location, error)
	ListLocations(ctx context.Context) ([]persistence.Location, error)
	UpdateLocation(ctx context.Context, id int64, input application.LocationInput) (persistence.Location, error)
	DeleteLocation(ctx context.Context, id int64) error
}

type LocationHandler struct {
	service   locationService
	responder responder
	logger    *slog.Logger
}

func NewLocationHandler(service locationService, logger *slog.Logger) *LocationHandler {
	base := defaultLogger(logger)
	return &LocationHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *LocationHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "LocationHandler", operation, attrs...)
}

func (h *LocationHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req locationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode location request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create", "name", req.Name)

	loc, err := h.service.CreateLocation(r.Context(), req.toInput())
	if err != nil {
		logger.ErrorContext(r.Context(), "location creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("location_id", loc.ID).InfoContext(r.Context(), "location created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, locationResponse{Location: toLocationDTO(loc)})
}

func (h *LocationHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	locations, err := h.service.ListLocations(r.Context())
	if err != nil {
		h.log(r.Context(), "List").ErrorContext(r.Context(), "location listing failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	dtos := make([]locationDTO, 0, len(locations))
	for _, loc := range locations {
		dtos = append(dtos, toLocationDTO(loc))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, locationListResponse{Locations: dtos})
}

func (h *LocationHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id, ok := numericPathID(r)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidID)
		return
	}

	var req locationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Update", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode location request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Update", "location_id", id)

	loc, err := h.service.UpdateLocation(r.Context(), id, req.toInput())
	if err != nil {
		logger.ErrorContext(r.Context(), "location update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "location updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, locationResponse{Location: toLocationDTO(loc)})
}

func (h *LocationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id, ok := numericPathID(r)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidID)
		return
	}

	logger := h.log(r.Context(), "Delete", "location_id", id)

	if err := h.service.DeleteLocation(r.Context(), id); err != nil {
		logger.ErrorContext(r.Context(), "location delete failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "location deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type locationRequest struct {
	Name     string  `json:"name"`
	Category *string `json:"category"`
	Order    *int64  `json:"order"`
}

func (req locationRequest) toInput() application.LocationInput {
	return application.LocationInput{Name: req.Name, Category: req.Category, Order: req.Order}
}

type locationDTO struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Category *string `json:"category,omitempty"`
	Order    *int64  `json:"order,omitempty"`
}

type locationResponse struct {
	Location locationDTO `json:"location"`
}

type locationListResponse struct {
	Locations []locationDTO `json:"locations"`
}

func toLocationDTO(loc persistence.Location) locationDTO {
	return locationDTO{ID: loc.ID, Name: loc.Name, Category: loc.Category, Order: loc.Order}
}
