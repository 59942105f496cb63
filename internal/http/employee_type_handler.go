package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/example/attendance-tracker/internal/application"
	"github.com/example/attendance-tracker/internal/persistence"
)

type employeeTypeService interface {
	CreateEmployeeType(ctx context.Context, input application.EmployeeTypeInput) (persistence.EmployeeType, error)
	ListEmployeeTypes(ctx context.Context) ([]persistence.EmployeeType, error)
	UpdateEmployeeType(ctx context.Context, id int64, input application.EmployeeTypeInput) (persistence.EmployeeType, error)
	DeleteEmployeeType(ctx context.Context, id int64) error
}

type EmployeeTypeHandler struct {
	service   employeeTypeService
	responder responder
	logger    *slog.Logger
}

func NewEmployeeTypeHandler(service employeeTypeService, logger *slog.Logger) *EmployeeTypeHandler {
	base := defaultLogger(logger)
	return &EmployeeTypeHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *EmployeeTypeHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "EmployeeTypeHandler", operation, attrs...)
}

func (h *EmployeeTypeHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req employeeTypeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode employee type request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create", "name", req.Name)

	et, err := h.service.CreateEmployeeType(r.Context(), req.toInput())
	if err != nil {
		logger.ErrorContext(r.Context(), "employee type creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("employee_type_id", et.ID).InfoContext(r.Context(), "employee type created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, employeeTypeResponse{EmployeeType: toEmployeeTypeDTO(et)})
}

func (h *EmployeeTypeHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	types, err := h.service.ListEmployeeTypes(r.Context())
	if err != nil {
		h.log(r.Context(), "List").ErrorContext(r.Context(), "employee type listing failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	dtos := make([]employeeTypeDTO, 0, len(types))
	for _, et := range types {
		dtos = append(dtos, toEmployeeTypeDTO(et))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, employeeTypeListResponse{EmployeeTypes: dtos})
}

func (h *EmployeeTypeHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id, ok := numericPathID(r)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidID)
		return
	}

	var req employeeTypeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Update", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode employee type request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Update", "employee_type_id", id)

	et, err := h.service.UpdateEmployeeType(r.Context(), id, req.toInput())
	if err != nil {
		logger.ErrorContext(r.Context(), "employee type update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "employee type updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, employeeTypeResponse{EmployeeType: toEmployeeTypeDTO(et)})
}

func (h *EmployeeTypeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id, ok := numericPathID(r)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidID)
		return
	}

	logger := h.log(r.Context(), "Delete", "employee_type_id", id)

	if err := h.service.DeleteEmployeeType(r.Context(), id); err != nil {
		logger.ErrorContext(r.Context(), "employee type delete failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "employee type deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type employeeTypeRequest struct {
	Name  string `json:"name"`
	Order *int64 `json:"order"`
}

func (req employeeTypeRequest) toInput() application.EmployeeTypeInput {
	return application.EmployeeTypeInput{Name: req.Name, Order: req.Order}
}

type employeeTypeDTO struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Order *int64 `json:"order,omitempty"`
}

type employeeTypeResponse struct {
	EmployeeType employeeTypeDTO `json:"employee_type"`
}

type employeeTypeListResponse struct {
	EmployeeTypes []employeeTypeDTO `json:"employee_types"`
}

func toEmployeeTypeDTO(et persistence.EmployeeType) employeeTypeDTO {
	return employeeTypeDTO{ID: et.ID, Name: et.Name, Order: et.Order}
}
