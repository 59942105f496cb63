package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/example/attendance-tracker/internal/persistence"
)

// LocationService orchestrates validation and persistence for work locations.
type LocationService struct {
	locations persistence.LocationRepository
	logger    *slog.Logger
}

// NewLocationService constructs a location service with the provided repository.
func NewLocationService(locations persistence.LocationRepository) *LocationService {
	return NewLocationServiceWithLogger(locations, nil)
}

// NewLocationServiceWithLogger constructs a location service with a specified logger.
func NewLocationServiceWithLogger(locations persistence.LocationRepository, logger *slog.Logger) *LocationService {
	return &LocationService{locations: locations, logger: defaultLogger(logger)}
}

func (s *LocationService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "LocationService", operation, attrs...)
}

// CreateLocation validates input and persists a new work location.
func (s *LocationService) CreateLocation(ctx context.Context, input LocationInput) (loc persistence.Location, err error) {
	if s == nil {
		err = fmt.Errorf("LocationService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CreateLocation", "name", input.Name)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create location", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("location_id", loc.ID).InfoContext(ctx, "location created")
	}()

	vErr := validateNamedInput(input.Name, input.Order)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	loc, err = s.locations.CreateLocation(ctx, persistence.Location{
		Name:     strings.TrimSpace(input.Name),
		Category: normalizeOptionalString(input.Category),
		Order:    input.Order,
	})
	if err != nil {
		err = mapRepoError(err)
		return
	}

	return
}

// GetLocation returns a single work location by ID.
func (s *LocationService) GetLocation(ctx context.Context, id int64) (persistence.Location, error) {
	if s == nil {
		return persistence.Location{}, fmt.Errorf("LocationService is nil")
	}
	loc, err := s.locations.GetLocation(ctx, id)
	if err != nil {
		return persistence.Location{}, mapRepoError(err)
	}
	return loc, nil
}

// ListLocations returns all work locations in display order.
func (s *LocationService) ListLocations(ctx context.Context) ([]persistence.Location, error) {
	if s == nil {
		return nil, fmt.Errorf("LocationService is nil")
	}
	locations, err := s.locations.ListLocations(ctx)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return locations, nil
}

// UpdateLocation validates input and updates an existing work location.
func (s *LocationService) UpdateLocation(ctx context.Context, id int64, input LocationInput) (loc persistence.Location, err error) {
	if s == nil {
		err = fmt.Errorf("LocationService is nil")
		return
	}

	logger := s.loggerWith(ctx, "UpdateLocation", "location_id", id)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update location", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "location updated")
	}()

	vErr := validateNamedInput(input.Name, input.Order)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	var existing persistence.Location
	existing, err = s.locations.GetLocation(ctx, id)
	if err != nil {
		err = mapRepoError(err)
		return
	}

	existing.Name = strings.TrimSpace(input.Name)
	existing.Category = normalizeOptionalString(input.Category)
	existing.Order = input.Order
	if err = s.locations.UpdateLocation(ctx, existing); err != nil {
		err = mapRepoError(err)
		return
	}

	loc = existing
	return
}

// DeleteLocation removes a work location. Locations with recorded
// attendances are refused with an InUseError.
func (s *LocationService) DeleteLocation(ctx context.Context, id int64) error {
	if s == nil {
		return fmt.Errorf("LocationService is nil")
	}

	logger := s.loggerWith(ctx, "DeleteLocation", "location_id", id)

	count, err := s.locations.CountAttendancesAtLocation(ctx, id)
	if err != nil {
		err = mapRepoError(err)
		logger.ErrorContext(ctx, "failed to delete location", "error", err, "error_kind", ErrorKind(err))
		return err
	}
	if count > 0 {
		err = &InUseError{Resource: "勤務場所", Count: count}
		logger.ErrorContext(ctx, "failed to delete location", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	if err := s.locations.DeleteLocation(ctx, id); err != nil {
		err = mapRepoError(err)
		logger.ErrorContext(ctx, "failed to delete location", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	logger.InfoContext(ctx, "location deleted")
	return nil
}

func normalizeOptionalString(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
