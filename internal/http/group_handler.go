package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/example/attendance-tracker/internal/application"
	"github.com/example/attendance-tracker/internal/persistence"
)

type groupService interface {
	CreateGroup(ctx context.Context, input application.GroupInput) (persistence.Group, error)
	ListGroups(ctx context.Context) ([]persistence.Group, error)
	UpdateGroup(ctx context.Context, id int64, input application.GroupInput) (persistence.Group, error)
	DeleteGroup(ctx context.Context, id int64) error
}

type GroupHandler struct {
	service   groupService
	responder responder
	logger    *slog.Logger
}

func NewGroupHandler(service groupService, logger *slog.Logger) *GroupHandler {
	base := defaultLogger(logger)
	return &GroupHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *GroupHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "GroupHandler", operation, attrs...)
}

func (h *GroupHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req groupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode group request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create", "name", req.Name)

	group, err := h.service.CreateGroup(r.Context(), req.toInput())
	if err != nil {
		logger.ErrorContext(r.Context(), "group creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("group_id", group.ID).InfoContext(r.Context(), "group created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, groupResponse{Group: toGroupDTO(group)})
}

func (h *GroupHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	groups, err := h.service.ListGroups(r.Context())
	if err != nil {
		h.log(r.Context(), "List").ErrorContext(r.Context(), "group listing failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	dtos := make([]groupDTO, 0, len(groups))
	for _, g := range groups {
		dtos = append(dtos, toGroupDTO(g))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, groupListResponse{Groups: dtos})
}

func (h *GroupHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id, ok := numericPathID(r)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidID)
		return
	}

	var req groupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Update", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode group request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Update", "group_id", id)

	group, err := h.service.UpdateGroup(r.Context(), id, req.toInput())
	if err != nil {
		logger.ErrorContext(r.Context(), "group update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "group updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, groupResponse{Group: toGroupDTO(group)})
}

func (h *GroupHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id, ok := numericPathID(r)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidID)
		return
	}

	logger := h.log(r.Context(), "Delete", "group_id", id)

	if err := h.service.DeleteGroup(r.Context(), id); err != nil {
		logger.ErrorContext(r.Context(), "group delete failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "group deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type groupRequest struct {
	Name  string `json:"name"`
	Order *int64 `json:"order"`
}

func (req groupRequest) toInput() application.GroupInput {
	return application.GroupInput{Name: req.Name, Order: req.Order}
}

type groupDTO struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Order *int64 `json:"order,omitempty"`
}

type groupResponse struct {
	Group groupDTO `json:"group"`
}

type groupListResponse struct {
	Groups []groupDTO `json:"groups"`
}

func toGroupDTO(g persistence.Group) groupDTO {
	return groupDTO{ID: g.ID, Name: g.Name, Order: g.Order}
}
