package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/attendance-tracker/internal/calendar"
	"github.com/example/attendance-tracker/internal/holiday"
	"github.com/example/attendance-tracker/internal/persistence"
)

// HolidayService manages user-defined holidays and keeps the merged
// holiday overlay current after every write.
type HolidayService struct {
	holidays persistence.HolidayRepository
	overlay  *holiday.Service
	logger   *slog.Logger
}

// NewHolidayService constructs a holiday service over the repository
// and the shared overlay.
func NewHolidayService(holidays persistence.HolidayRepository, overlay *holiday.Service) *HolidayService {
	return NewHolidayServiceWithLogger(holidays, overlay, nil)
}

// NewHolidayServiceWithLogger constructs a holiday service with a specified logger.
func NewHolidayServiceWithLogger(holidays persistence.HolidayRepository, overlay *holiday.Service, logger *slog.Logger) *HolidayService {
	return &HolidayService{holidays: holidays, overlay: overlay, logger: defaultLogger(logger)}
}

func (s *HolidayService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "HolidayService", operation, attrs...)
}

// CreateHoliday validates input and persists a new custom holiday.
func (s *HolidayService) CreateHoliday(ctx context.Context, input HolidayInput) (h persistence.CustomHoliday, err error) {
	if s == nil {
		err = fmt.Errorf("HolidayService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CreateHoliday", "date", input.Date)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create holiday", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("holiday_id", h.ID).InfoContext(ctx, "holiday created")
	}()

	var date time.Time
	date, err = s.validateHolidayInput(input)
	if err != nil {
		return
	}

	h, err = s.holidays.CreateCustomHoliday(ctx, persistence.CustomHoliday{
		Date: date,
		Name: strings.TrimSpace(input.Name),
	})
	if err != nil {
		err = mapRepoError(err)
		return
	}

	err = s.refreshOverlay(ctx, logger)
	return
}

// ListHolidays returns all custom holidays by date ascending.
func (s *HolidayService) ListHolidays(ctx context.Context) ([]persistence.CustomHoliday, error) {
	if s == nil {
		return nil, fmt.Errorf("HolidayService is nil")
	}
	holidays, err := s.holidays.ListCustomHolidays(ctx)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return holidays, nil
}

// GetHoliday returns a single custom holiday by ID.
func (s *HolidayService) GetHoliday(ctx context.Context, id int64) (persistence.CustomHoliday, error) {
	if s == nil {
		return persistence.CustomHoliday{}, fmt.Errorf("HolidayService is nil")
	}
	h, err := s.holidays.GetCustomHoliday(ctx, id)
	if err != nil {
		return persistence.CustomHoliday{}, mapRepoError(err)
	}
	return h, nil
}

// UpdateHoliday validates input and updates an existing custom holiday.
func (s *HolidayService) UpdateHoliday(ctx context.Context, id int64, input HolidayInput) (h persistence.CustomHoliday, err error) {
	if s == nil {
		err = fmt.Errorf("HolidayService is nil")
		return
	}

	logger := s.loggerWith(ctx, "UpdateHoliday", "holiday_id", id)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update holiday", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "holiday updated")
	}()

	var date time.Time
	date, err = s.validateHolidayInput(input)
	if err != nil {
		return
	}

	var existing persistence.CustomHoliday
	existing, err = s.holidays.GetCustomHoliday(ctx, id)
	if err != nil {
		err = mapRepoError(err)
		return
	}

	existing.Date = date
	existing.Name = strings.TrimSpace(input.Name)
	if err = s.holidays.UpdateCustomHoliday(ctx, existing); err != nil {
		err = mapRepoError(err)
		return
	}

	h = existing
	err = s.refreshOverlay(ctx, logger)
	return
}

// DeleteHoliday removes a custom holiday.
func (s *HolidayService) DeleteHoliday(ctx context.Context, id int64) error {
	if s == nil {
		return fmt.Errorf("HolidayService is nil")
	}

	logger := s.loggerWith(ctx, "DeleteHoliday", "holiday_id", id)

	if err := s.holidays.DeleteCustomHoliday(ctx, id); err != nil {
		err = mapRepoError(err)
		logger.ErrorContext(ctx, "failed to delete holiday", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	if err := s.refreshOverlay(ctx, logger); err != nil {
		return err
	}

	logger.InfoContext(ctx, "holiday deleted")
	return nil
}

// FetchPublicHolidays downloads a year's public holidays and merges
// them into the overlay cache.
func (s *HolidayService) FetchPublicHolidays(ctx context.Context, year int) (int, error) {
	if s == nil {
		return 0, fmt.Errorf("HolidayService is nil")
	}
	if s.overlay == nil {
		return 0, fmt.Errorf("holiday overlay not configured")
	}

	logger := s.loggerWith(ctx, "FetchPublicHolidays", "year", year)

	count, err := s.overlay.FetchYear(ctx, year)
	if err != nil {
		logger.ErrorContext(ctx, "failed to fetch public holidays", "error", err)
		return 0, err
	}

	logger.With("fetched", count).InfoContext(ctx, "public holidays fetched")
	return count, nil
}

func (s *HolidayService) validateHolidayInput(input HolidayInput) (time.Time, error) {
	vErr := &ValidationError{}
	if strings.TrimSpace(input.Name) == "" {
		vErr.add("name", "name is required")
	}

	date, parseErr := calendar.ParseDate(input.Date)
	if parseErr != nil {
		vErr.add("date", "date must be in YYYY-MM-DD form")
	}
	if vErr.HasErrors() {
		return time.Time{}, vErr
	}
	return date, nil
}

func (s *HolidayService) refreshOverlay(ctx context.Context, logger *slog.Logger) error {
	if s.overlay == nil {
		return nil
	}
	if err := s.overlay.Refresh(ctx); err != nil {
		logger.ErrorContext(ctx, "failed to refresh holiday overlay", "error", err)
		return err
	}
	return nil
}
