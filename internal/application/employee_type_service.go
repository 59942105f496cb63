package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/example/attendance-tracker/internal/persistence"
)

// EmployeeTypeService orchestrates validation and persistence for employee types.
type EmployeeTypeService struct {
	types  persistence.EmployeeTypeRepository
	logger *slog.Logger
}

// NewEmployeeTypeService constructs an employee type service with the provided repository.
func NewEmployeeTypeService(types persistence.EmployeeTypeRepository) *EmployeeTypeService {
	return NewEmployeeTypeServiceWithLogger(types, nil)
}

// NewEmployeeTypeServiceWithLogger constructs an employee type service with a specified logger.
func NewEmployeeTypeServiceWithLogger(types persistence.EmployeeTypeRepository, logger *slog.Logger) *EmployeeTypeService {
	return &EmployeeTypeService{types: types, logger: defaultLogger(logger)}
}

func (s *EmployeeTypeService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "EmployeeTypeService", operation, attrs...)
}

// CreateEmployeeType validates input and persists a new employee type.
func (s *EmployeeTypeService) CreateEmployeeType(ctx context.Context, input EmployeeTypeInput) (et persistence.EmployeeType, err error) {
	if s == nil {
		err = fmt.Errorf("EmployeeTypeService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CreateEmployeeType", "name", input.Name)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create employee type", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("employee_type_id", et.ID).InfoContext(ctx, "employee type created")
	}()

	vErr := validateNamedInput(input.Name, input.Order)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	et, err = s.types.CreateEmployeeType(ctx, persistence.EmployeeType{
		Name:  strings.TrimSpace(input.Name),
		Order: input.Order,
	})
	if err != nil {
		err = mapRepoError(err)
		return
	}

	return
}

// GetEmployeeType returns a single employee type by ID.
func (s *EmployeeTypeService) GetEmployeeType(ctx context.Context, id int64) (persistence.EmployeeType, error) {
	if s == nil {
		return persistence.EmployeeType{}, fmt.Errorf("EmployeeTypeService is nil")
	}
	et, err := s.types.GetEmployeeType(ctx, id)
	if err != nil {
		return persistence.EmployeeType{}, mapRepoError(err)
	}
	return et, nil
}

// ListEmployeeTypes returns all employee types in display order.
func (s *EmployeeTypeService) ListEmployeeTypes(ctx context.Context) ([]persistence.EmployeeType, error) {
	if s == nil {
		return nil, fmt.Errorf("EmployeeTypeService is nil")
	}
	types, err := s.types.ListEmployeeTypes(ctx)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return types, nil
}

// UpdateEmployeeType validates input and updates an existing employee type.
func (s *EmployeeTypeService) UpdateEmployeeType(ctx context.Context, id int64, input EmployeeTypeInput) (et persistence.EmployeeType, err error) {
	if s == nil {
		err = fmt.Errorf("EmployeeTypeService is nil")
		return
	}

	logger := s.loggerWith(ctx, "UpdateEmployeeType", "employee_type_id", id)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update employee type", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "employee type updated")
	}()

	vErr := validateNamedInput(input.Name, input.Order)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	var existing persistence.EmployeeType
	existing, err = s.types.GetEmployeeType(ctx, id)
	if err != nil {
		err = mapRepoError(err)
		return
	}

	existing.Name = strings.TrimSpace(input.Name)
	existing.Order = input.Order
	if err = s.types.UpdateEmployeeType(ctx, existing); err != nil {
		err = mapRepoError(err)
		return
	}

	et = existing
	return
}

// DeleteEmployeeType removes an employee type. Types still assigned to
// users are refused with an InUseError.
func (s *EmployeeTypeService) DeleteEmployeeType(ctx context.Context, id int64) error {
	if s == nil {
		return fmt.Errorf("EmployeeTypeService is nil")
	}

	logger := s.loggerWith(ctx, "DeleteEmployeeType", "employee_type_id", id)

	count, err := s.types.CountUsersOfType(ctx, id)
	if err != nil {
		err = mapRepoError(err)
		logger.ErrorContext(ctx, "failed to delete employee type", "error", err, "error_kind", ErrorKind(err))
		return err
	}
	if count > 0 {
		err = &InUseError{Resource: "社員種別", Count: count}
		logger.ErrorContext(ctx, "failed to delete employee type", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	if err := s.types.DeleteEmployeeType(ctx, id); err != nil {
		err = mapRepoError(err)
		logger.ErrorContext(ctx, "failed to delete employee type", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	logger.InfoContext(ctx, "employee type deleted")
	return nil
}
