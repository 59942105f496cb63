package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/example/attendance-tracker/internal/persistence"
)

// UserService orchestrates validation and persistence for users.
type UserService struct {
	users  persistence.UserRepository
	groups persistence.GroupRepository
	types  persistence.EmployeeTypeRepository
	logger *slog.Logger
}

// NewUserService constructs a user service with the provided repositories.
func NewUserService(users persistence.UserRepository, groups persistence.GroupRepository, types persistence.EmployeeTypeRepository) *UserService {
	return NewUserServiceWithLogger(users, groups, types, nil)
}

// NewUserServiceWithLogger constructs a user service with a specified logger.
func NewUserServiceWithLogger(users persistence.UserRepository, groups persistence.GroupRepository, types persistence.EmployeeTypeRepository, logger *slog.Logger) *UserService {
	return &UserService{users: users, groups: groups, types: types, logger: defaultLogger(logger)}
}

func (s *UserService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "UserService", operation, attrs...)
}

// CreateUser validates input and persists a new user. The referenced
// group and employee type must exist.
func (s *UserService) CreateUser(ctx context.Context, input UserInput) (user persistence.User, err error) {
	if s == nil {
		err = fmt.Errorf("UserService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CreateUser", "user_id", input.ID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create user", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "user created")
	}()

	vErr := s.validateUserInput(ctx, input, true)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	user = persistence.User{
		ID:             strings.TrimSpace(input.ID),
		Name:           strings.TrimSpace(input.Name),
		GroupID:        input.GroupID,
		EmployeeTypeID: input.EmployeeTypeID,
	}
	if err = s.users.CreateUser(ctx, user); err != nil {
		err = mapRepoError(err)
		return
	}

	return
}

// GetUser returns a single user by ID.
func (s *UserService) GetUser(ctx context.Context, id string) (persistence.User, error) {
	if s == nil {
		return persistence.User{}, fmt.Errorf("UserService is nil")
	}
	user, err := s.users.GetUser(ctx, id)
	if err != nil {
		return persistence.User{}, mapRepoError(err)
	}
	return user, nil
}

// ListUsers returns all users.
func (s *UserService) ListUsers(ctx context.Context) ([]persistence.User, error) {
	if s == nil {
		return nil, fmt.Errorf("UserService is nil")
	}
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return users, nil
}

// UpdateUser validates input and updates an existing user. The user ID
// itself is immutable.
func (s *UserService) UpdateUser(ctx context.Context, id string, input UserInput) (user persistence.User, err error) {
	if s == nil {
		err = fmt.Errorf("UserService is nil")
		return
	}

	logger := s.loggerWith(ctx, "UpdateUser", "user_id", id)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update user", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "user updated")
	}()

	input.ID = id
	vErr := s.validateUserInput(ctx, input, false)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	var existing persistence.User
	existing, err = s.users.GetUser(ctx, id)
	if err != nil {
		err = mapRepoError(err)
		return
	}

	existing.Name = strings.TrimSpace(input.Name)
	existing.GroupID = input.GroupID
	existing.EmployeeTypeID = input.EmployeeTypeID
	if err = s.users.UpdateUser(ctx, existing); err != nil {
		err = mapRepoError(err)
		return
	}

	user = existing
	return
}

// DeleteUser removes a user together with that user's attendance rows.
func (s *UserService) DeleteUser(ctx context.Context, id string) error {
	if s == nil {
		return fmt.Errorf("UserService is nil")
	}

	logger := s.loggerWith(ctx, "DeleteUser", "user_id", id)

	if err := s.users.DeleteUser(ctx, id); err != nil {
		err = mapRepoError(err)
		logger.ErrorContext(ctx, "failed to delete user", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	logger.InfoContext(ctx, "user deleted")
	return nil
}

func (s *UserService) validateUserInput(ctx context.Context, input UserInput, checkID bool) *ValidationError {
	vErr := &ValidationError{}

	if checkID && strings.TrimSpace(input.ID) == "" {
		vErr.add("id", "id is required")
	}
	if strings.TrimSpace(input.Name) == "" {
		vErr.add("name", "name is required")
	}

	if input.GroupID <= 0 {
		vErr.add("group_id", "group is required")
	} else if s.groups != nil {
		if _, err := s.groups.GetGroup(ctx, input.GroupID); errors.Is(err, persistence.ErrNotFound) {
			vErr.add("group_id", "group does not exist")
		}
	}

	if input.EmployeeTypeID <= 0 {
		vErr.add("employee_type_id", "employee type is required")
	} else if s.types != nil {
		if _, err := s.types.GetEmployeeType(ctx, input.EmployeeTypeID); errors.Is(err, persistence.ErrNotFound) {
			vErr.add("employee_type_id", "employee type does not exist")
		}
	}

	return vErr
}
