package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/attendance-tracker/internal/calendar"
	"github.com/example/attendance-tracker/internal/persistence"
)

// AttendanceService is the coordinator for attendance reads and
// writes. Writes purge the day cache for the affected date before
// returning and produce the trigger payload the fragment layer
// serializes into the HX-Trigger header. No lower component constructs
// trigger payloads.
type AttendanceService struct {
	attendances persistence.AttendanceRepository
	users       persistence.UserRepository
	locations   persistence.LocationRepository
	calendar    *CalendarService
	logger      *slog.Logger
}

// NewAttendanceService constructs an attendance service with the provided dependencies.
func NewAttendanceService(
	attendances persistence.AttendanceRepository,
	users persistence.UserRepository,
	locations persistence.LocationRepository,
	cal *CalendarService,
) *AttendanceService {
	return NewAttendanceServiceWithLogger(attendances, users, locations, cal, nil)
}

// NewAttendanceServiceWithLogger constructs an attendance service with a specified logger.
func NewAttendanceServiceWithLogger(
	attendances persistence.AttendanceRepository,
	users persistence.UserRepository,
	locations persistence.LocationRepository,
	cal *CalendarService,
	logger *slog.Logger,
) *AttendanceService {
	return &AttendanceService{
		attendances: attendances,
		users:       users,
		locations:   locations,
		calendar:    cal,
		logger:      defaultLogger(logger),
	}
}

func (s *AttendanceService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AttendanceService", operation, attrs...)
}

// CreateAttendance validates input, persists a new attendance row, and
// returns the refresh triggers for the affected date.
func (s *AttendanceService) CreateAttendance(ctx context.Context, input AttendanceInput) (att persistence.Attendance, triggers Triggers, err error) {
	if s == nil {
		err = fmt.Errorf("AttendanceService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CreateAttendance", "user_id", input.UserID, "date", input.Date)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create attendance", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("attendance_id", att.ID).InfoContext(ctx, "attendance created")
	}()

	var date time.Time
	date, err = s.validateAttendanceInput(ctx, input)
	if err != nil {
		return
	}

	att, err = s.attendances.CreateAttendance(ctx, persistence.Attendance{
		UserID:     strings.TrimSpace(input.UserID),
		Date:       date,
		LocationID: input.LocationID,
		Note:       normalizeOptionalString(input.Note),
	})
	if err != nil {
		err = mapAttendanceRepoError(err)
		return
	}

	triggers = s.publish(att.UserID, date)
	return
}

// UpdateAttendance changes the location and note of an existing row.
// The user and date are immutable.
func (s *AttendanceService) UpdateAttendance(ctx context.Context, id int64, input AttendanceUpdateInput) (att persistence.Attendance, triggers Triggers, err error) {
	if s == nil {
		err = fmt.Errorf("AttendanceService is nil")
		return
	}

	logger := s.loggerWith(ctx, "UpdateAttendance", "attendance_id", id)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update attendance", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "attendance updated")
	}()

	if input.LocationID <= 0 {
		vErr := &ValidationError{}
		vErr.add("location_id", "location is required")
		err = vErr
		return
	}

	var existing persistence.Attendance
	existing, err = s.attendances.GetAttendance(ctx, id)
	if err != nil {
		err = mapAttendanceRepoError(err)
		return
	}

	existing.LocationID = input.LocationID
	existing.Note = normalizeOptionalString(input.Note)
	if err = s.attendances.UpdateAttendance(ctx, existing); err != nil {
		err = mapAttendanceRepoError(err)
		return
	}

	att = existing
	triggers = s.publish(existing.UserID, existing.Date)
	return
}

// DeleteAttendance removes a row and returns the refresh triggers for
// the date it covered.
func (s *AttendanceService) DeleteAttendance(ctx context.Context, id int64) (triggers Triggers, err error) {
	if s == nil {
		err = fmt.Errorf("AttendanceService is nil")
		return
	}

	logger := s.loggerWith(ctx, "DeleteAttendance", "attendance_id", id)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to delete attendance", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "attendance deleted")
	}()

	var existing persistence.Attendance
	existing, err = s.attendances.GetAttendance(ctx, id)
	if err != nil {
		err = mapAttendanceRepoError(err)
		return
	}

	if err = s.attendances.DeleteAttendance(ctx, id); err != nil {
		err = mapAttendanceRepoError(err)
		return
	}

	triggers = s.publish(existing.UserID, existing.Date)
	return
}

// ListUserAttendances returns one user's rows, optionally narrowed to
// a single date.
func (s *AttendanceService) ListUserAttendances(ctx context.Context, userID, dateStr string) ([]persistence.AttendanceDetail, error) {
	if s == nil {
		return nil, fmt.Errorf("AttendanceService is nil")
	}

	if _, err := s.users.GetUser(ctx, userID); err != nil {
		return nil, mapRepoError(err)
	}

	filter := persistence.AttendanceFilter{UserID: userID}
	if dateStr != "" {
		date, err := calendar.ParseDate(dateStr)
		if err != nil {
			return nil, &InvalidPeriodError{Value: dateStr}
		}
		filter.From = &date
		filter.To = &date
	}

	details, err := s.attendances.ListAttendanceDetails(ctx, filter)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return details, nil
}

// GetMonthGrid delegates to the calendar assembler.
func (s *AttendanceService) GetMonthGrid(ctx context.Context, month string) (MonthView, error) {
	return s.calendar.MonthGrid(ctx, month)
}

// GetWeekGrid delegates to the calendar assembler.
func (s *AttendanceService) GetWeekGrid(ctx context.Context, week string) (WeekView, error) {
	return s.calendar.WeekGrid(ctx, week)
}

// GetUserMonth delegates to the calendar assembler.
func (s *AttendanceService) GetUserMonth(ctx context.Context, userID, month string) (UserMonthView, error) {
	return s.calendar.UserMonth(ctx, userID, month)
}

// GetDayRoster delegates to the calendar assembler.
func (s *AttendanceService) GetDayRoster(ctx context.Context, date string) (*DayRoster, error) {
	return s.calendar.DayRoster(ctx, date)
}

// publish purges the cached roster for the written date and builds the
// trigger payload targeting that date's month and week fragments.
func (s *AttendanceService) publish(userID string, date time.Time) Triggers {
	key := date.Format(calendar.DateFormat)
	if s.calendar != nil {
		s.calendar.invalidateDay(key)
	}

	month := date.Format(calendar.MonthFormat)
	week := calendar.MondayOf(date).Format(calendar.DateFormat)
	return Triggers{
		CloseModal: true,
		RefreshUserAttendance: &UserRefreshTarget{
			UserID: userID,
			Month:  month,
			Week:   week,
		},
		RefreshAttendance: &RefreshTarget{
			Month: month,
			Week:  week,
		},
	}
}

func (s *AttendanceService) validateAttendanceInput(ctx context.Context, input AttendanceInput) (time.Time, error) {
	vErr := &ValidationError{}

	if strings.TrimSpace(input.UserID) == "" {
		vErr.add("user_id", "user is required")
	} else if s.users != nil {
		if _, err := s.users.GetUser(ctx, strings.TrimSpace(input.UserID)); errors.Is(mapRepoError(err), ErrNotFound) {
			vErr.add("user_id", "user does not exist")
		}
	}

	if input.LocationID <= 0 {
		vErr.add("location_id", "location is required")
	} else if s.locations != nil {
		if _, err := s.locations.GetLocation(ctx, input.LocationID); errors.Is(mapRepoError(err), ErrNotFound) {
			vErr.add("location_id", "location does not exist")
		}
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

func mapAttendanceRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, persistence.ErrForeignKey) {
		vErr := &ValidationError{}
		vErr.add("location_id", "location does not exist")
		return vErr
	}
	return mapRepoError(err)
}
