package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/example/attendance-tracker/internal/persistence"
)

// GroupService orchestrates validation and persistence for groups.
type GroupService struct {
	groups persistence.GroupRepository
	logger *slog.Logger
}

// NewGroupService constructs a group service with the provided repository.
func NewGroupService(groups persistence.GroupRepository) *GroupService {
	return NewGroupServiceWithLogger(groups, nil)
}

// NewGroupServiceWithLogger constructs a group service with a specified logger.
func NewGroupServiceWithLogger(groups persistence.GroupRepository, logger *slog.Logger) *GroupService {
	return &GroupService{groups: groups, logger: defaultLogger(logger)}
}

func (s *GroupService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "GroupService", operation, attrs...)
}

// CreateGroup validates input and persists a new group.
func (s *GroupService) CreateGroup(ctx context.Context, input GroupInput) (group persistence.Group, err error) {
	if s == nil {
		err = fmt.Errorf("GroupService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CreateGroup", "name", input.Name)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create group", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("group_id", group.ID).InfoContext(ctx, "group created")
	}()

	vErr := validateNamedInput(input.Name, input.Order)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	group, err = s.groups.CreateGroup(ctx, persistence.Group{
		Name:  strings.TrimSpace(input.Name),
		Order: input.Order,
	})
	if err != nil {
		err = mapRepoError(err)
		return
	}

	return
}

// GetGroup returns a single group by ID.
func (s *GroupService) GetGroup(ctx context.Context, id int64) (persistence.Group, error) {
	if s == nil {
		return persistence.Group{}, fmt.Errorf("GroupService is nil")
	}
	group, err := s.groups.GetGroup(ctx, id)
	if err != nil {
		return persistence.Group{}, mapRepoError(err)
	}
	return group, nil
}

// ListGroups returns all groups in display order.
func (s *GroupService) ListGroups(ctx context.Context) ([]persistence.Group, error) {
	if s == nil {
		return nil, fmt.Errorf("GroupService is nil")
	}
	groups, err := s.groups.ListGroups(ctx)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return groups, nil
}

// UpdateGroup validates input and updates an existing group.
func (s *GroupService) UpdateGroup(ctx context.Context, id int64, input GroupInput) (group persistence.Group, err error) {
	if s == nil {
		err = fmt.Errorf("GroupService is nil")
		return
	}

	logger := s.loggerWith(ctx, "UpdateGroup", "group_id", id)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update group", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "group updated")
	}()

	vErr := validateNamedInput(input.Name, input.Order)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	var existing persistence.Group
	existing, err = s.groups.GetGroup(ctx, id)
	if err != nil {
		err = mapRepoError(err)
		return
	}

	existing.Name = strings.TrimSpace(input.Name)
	existing.Order = input.Order
	if err = s.groups.UpdateGroup(ctx, existing); err != nil {
		err = mapRepoError(err)
		return
	}

	group = existing
	return
}

// DeleteGroup removes a group. Groups that still have members are
// refused with an InUseError.
func (s *GroupService) DeleteGroup(ctx context.Context, id int64) error {
	if s == nil {
		return fmt.Errorf("GroupService is nil")
	}

	logger := s.loggerWith(ctx, "DeleteGroup", "group_id", id)

	count, err := s.groups.CountUsersInGroup(ctx, id)
	if err != nil {
		err = mapRepoError(err)
		logger.ErrorContext(ctx, "failed to delete group", "error", err, "error_kind", ErrorKind(err))
		return err
	}
	if count > 0 {
		err = &InUseError{Resource: "グループ", Count: count}
		logger.ErrorContext(ctx, "failed to delete group", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	if err := s.groups.DeleteGroup(ctx, id); err != nil {
		err = mapRepoError(err)
		logger.ErrorContext(ctx, "failed to delete group", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	logger.InfoContext(ctx, "group deleted")
	return nil
}

func validateNamedInput(name string, order *int64) *ValidationError {
	vErr := &ValidationError{}
	if strings.TrimSpace(name) == "" {
		vErr.add("name", "name is required")
	}
	if order != nil && *order < 0 {
		vErr.add("order", "order must not be negative")
	}
	return vErr
}

func mapRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrDuplicate) {
		return ErrAlreadyExists
	}
	return err
}
