package application

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/example/attendance-tracker/internal/calendar"
	"github.com/example/attendance-tracker/internal/persistence"
)

// AnalysisService aggregates attendance over a month or a fiscal year.
// It is the only component that materializes the users x locations
// cross join, and its output ordering is deterministic so rendered
// tables and exports diff cleanly.
type AnalysisService struct {
	attendances persistence.AttendanceRepository
	users       persistence.UserRepository
	groups      persistence.GroupRepository
	types       persistence.EmployeeTypeRepository
	locations   persistence.LocationRepository
	logger      *slog.Logger
}

// NewAnalysisService constructs an analysis service with the provided repositories.
func NewAnalysisService(
	attendances persistence.AttendanceRepository,
	users persistence.UserRepository,
	groups persistence.GroupRepository,
	types persistence.EmployeeTypeRepository,
	locations persistence.LocationRepository,
) *AnalysisService {
	return NewAnalysisServiceWithLogger(attendances, users, groups, types, locations, nil)
}

// NewAnalysisServiceWithLogger constructs an analysis service with a specified logger.
func NewAnalysisServiceWithLogger(
	attendances persistence.AttendanceRepository,
	users persistence.UserRepository,
	groups persistence.GroupRepository,
	types persistence.EmployeeTypeRepository,
	locations persistence.LocationRepository,
	logger *slog.Logger,
) *AnalysisService {
	return &AnalysisService{
		attendances: attendances,
		users:       users,
		groups:      groups,
		types:       types,
		locations:   locations,
		logger:      defaultLogger(logger),
	}
}

func (s *AnalysisService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AnalysisService", operation, attrs...)
}

// Monthly aggregates one calendar month.
func (s *AnalysisService) Monthly(ctx context.Context, monthStr string) (result AnalysisResult, err error) {
	if s == nil {
		err = fmt.Errorf("AnalysisService is nil")
		return
	}

	logger := s.loggerWith(ctx, "Monthly", "month", monthStr)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to aggregate month", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	month, parseErr := calendar.ParseMonth(monthStr)
	if parseErr != nil {
		err = &InvalidPeriodError{Value: monthStr}
		return
	}

	first, last := calendar.MonthRange(month)
	period := AnalysisPeriod{
		Mode:  "monthly",
		Label: calendar.MonthName(month),
		Start: first.Format(calendar.DateFormat),
		End:   last.Format(calendar.DateFormat),
	}
	result, err = s.aggregate(ctx, period, first, last)
	return
}

// FiscalYear aggregates the Japanese fiscal year starting April 1 of
// the given year.
func (s *AnalysisService) FiscalYear(ctx context.Context, year int) (result AnalysisResult, err error) {
	if s == nil {
		err = fmt.Errorf("AnalysisService is nil")
		return
	}

	logger := s.loggerWith(ctx, "FiscalYear", "year", year)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to aggregate fiscal year", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	if year < 1900 || year > 2100 {
		err = &InvalidPeriodError{Value: fmt.Sprintf("%d", year)}
		return
	}

	start, end := calendar.FiscalYearRange(year)
	period := AnalysisPeriod{
		Mode:  "fiscal_year",
		Label: fmt.Sprintf("%d年度", year),
		Start: start.Format(calendar.DateFormat),
		End:   end.Format(calendar.DateFormat),
	}
	result, err = s.aggregate(ctx, period, start, end)
	return
}

// directoryRow is one user in display order with the group and employee
// type resolved to names and sort keys.
type directoryRow struct {
	userID    string
	userName  string
	groupName string
	groupOrd  *int64
	typeName  string
	typeOrd   *int64
}

// directory resolves the full user roster into its display order:
// group order, then employee-type order, then user name. The location
// list rides along so callers see one consistent snapshot.
func (s *AnalysisService) directory(ctx context.Context) ([]directoryRow, []persistence.Location, error) {
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, nil, mapRepoError(err)
	}
	groups, err := s.groups.ListGroups(ctx)
	if err != nil {
		return nil, nil, mapRepoError(err)
	}
	types, err := s.types.ListEmployeeTypes(ctx)
	if err != nil {
		return nil, nil, mapRepoError(err)
	}
	locations, err := s.locations.ListLocations(ctx)
	if err != nil {
		return nil, nil, mapRepoError(err)
	}

	groupByID := make(map[int64]persistence.Group, len(groups))
	for _, g := range groups {
		groupByID[g.ID] = g
	}
	typeByID := make(map[int64]persistence.EmployeeType, len(types))
	for _, t := range types {
		typeByID[t.ID] = t
	}

	rows := make([]directoryRow, 0, len(users))
	for _, u := range users {
		row := directoryRow{
			userID:    u.ID,
			userName:  u.Name,
			groupName: unassignedGroupName,
		}
		if g, ok := groupByID[u.GroupID]; ok {
			row.groupName = g.Name
			row.groupOrd = g.Order
		}
		if t, ok := typeByID[u.EmployeeTypeID]; ok {
			row.typeName = t.Name
			row.typeOrd = t.Order
		}
		rows = append(rows, row)
	}

	sort.Slice(rows, func(a, b int) bool {
		ra, rb := rows[a], rows[b]
		if c := compareOrdered(ra.groupOrd, ra.groupName, rb.groupOrd, rb.groupName); c != 0 {
			return c < 0
		}
		if c := compareOrdered(ra.typeOrd, ra.typeName, rb.typeOrd, rb.typeName); c != 0 {
			return c < 0
		}
		return ra.userName < rb.userName
	})

	return rows, locations, nil
}

func (s *AnalysisService) aggregate(ctx context.Context, period AnalysisPeriod, from, to time.Time) (AnalysisResult, error) {
	rows, locations, err := s.directory(ctx)
	if err != nil {
		return AnalysisResult{}, err
	}

	locationRefs := make([]LocationRef, 0, len(locations))
	for _, loc := range locations {
		locationRefs = append(locationRefs, LocationRef{ID: loc.ID, Name: loc.Name})
	}

	// Dense skeleton: every user appears with zeroed counts for every
	// location even without attendance in the period.
	analyses := make([]UserAnalysis, 0, len(rows))
	index := make(map[string]int, len(rows))
	for _, row := range rows {
		counts := make(map[int64]int64, len(locations))
		for _, loc := range locations {
			counts[loc.ID] = 0
		}
		index[row.userID] = len(analyses)
		analyses = append(analyses, UserAnalysis{
			UserID:         row.userID,
			UserName:       row.userName,
			GroupName:      row.groupName,
			UserTypeName:   row.typeName,
			LocationCounts: counts,
			LocationDates:  make(map[int64][]DatedEntry),
		})
	}

	details, err := s.attendances.ListAttendanceDetails(ctx, persistence.AttendanceFilter{From: &from, To: &to})
	if err != nil {
		return AnalysisResult{}, mapRepoError(err)
	}
	for _, d := range details {
		i, ok := index[d.UserID]
		if !ok {
			continue
		}
		analyses[i].LocationCounts[d.LocationID]++
		analyses[i].LocationDates[d.LocationID] = append(analyses[i].LocationDates[d.LocationID], DatedEntry{
			Date: d.Date.Format(calendar.DateFormat),
			Note: d.Note,
		})
	}

	return AnalysisResult{
		Period:       period,
		Users:        analyses,
		Locations:    locationRefs,
		GroupSummary: summarizeGroups(analyses, locations),
	}, nil
}

// summarizeGroups sums member counts per group, preserving the user
// ordering's group sequence.
func summarizeGroups(orderedUsers []UserAnalysis, locations []persistence.Location) []GroupSummary {
	summaryIndex := make(map[string]int)
	summaries := make([]GroupSummary, 0)

	for _, u := range orderedUsers {
		i, ok := summaryIndex[u.GroupName]
		if !ok {
			counts := make(map[int64]int64, len(locations))
			for _, loc := range locations {
				counts[loc.ID] = 0
			}
			i = len(summaries)
			summaryIndex[u.GroupName] = i
			summaries = append(summaries, GroupSummary{
				GroupName:      u.GroupName,
				LocationCounts: counts,
			})
		}
		for locID, n := range u.LocationCounts {
			summaries[i].LocationCounts[locID] += n
			summaries[i].TotalDays += n
		}
	}

	return summaries
}
