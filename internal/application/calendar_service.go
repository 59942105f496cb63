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

// unassignedGroupName labels roster members whose group is unresolved.
const unassignedGroupName = "未分類"

// HolidayOverlay answers holiday lookups for calendar assembly.
type HolidayOverlay interface {
	IsHoliday(date time.Time) bool
	NameOf(date time.Time) (string, bool)
}

// CalendarService assembles the four calendar view variants from
// attendance data, the location catalog, and the holiday overlay.
type CalendarService struct {
	attendances persistence.AttendanceRepository
	users       persistence.UserRepository
	locations   persistence.LocationRepository
	holidays    HolidayOverlay
	cache       *dayCache
	now         func() time.Time
	logger      *slog.Logger
}

// NewCalendarService constructs a calendar service with the provided dependencies.
func NewCalendarService(
	attendances persistence.AttendanceRepository,
	users persistence.UserRepository,
	locations persistence.LocationRepository,
	holidays HolidayOverlay,
	now func() time.Time,
) *CalendarService {
	return NewCalendarServiceWithLogger(attendances, users, locations, holidays, now, nil)
}

// NewCalendarServiceWithLogger constructs a calendar service with a specified logger.
func NewCalendarServiceWithLogger(
	attendances persistence.AttendanceRepository,
	users persistence.UserRepository,
	locations persistence.LocationRepository,
	holidays HolidayOverlay,
	now func() time.Time,
	logger *slog.Logger,
) *CalendarService {
	if now == nil {
		now = time.Now
	}
	return &CalendarService{
		attendances: attendances,
		users:       users,
		locations:   locations,
		holidays:    holidays,
		cache:       newDayCache(),
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *CalendarService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "CalendarService", operation, attrs...)
}

// invalidateDay purges the cached roster for one date. The attendance
// facade calls this before a write becomes visible.
func (s *CalendarService) invalidateDay(date string) {
	s.cache.Invalidate(date)
}

// MonthGrid builds the month calendar with per-day location counts.
func (s *CalendarService) MonthGrid(ctx context.Context, monthStr string) (view MonthView, err error) {
	if s == nil {
		err = fmt.Errorf("CalendarService is nil")
		return
	}

	logger := s.loggerWith(ctx, "MonthGrid", "month", monthStr)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to build month grid", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	month, parseErr := calendar.ParseMonth(monthStr)
	if parseErr != nil {
		err = &InvalidPeriodError{Value: monthStr}
		return
	}

	first, last := calendar.MonthRange(month)
	locations, counts, buildErr := s.countsByDate(ctx, first, last)
	if buildErr != nil {
		err = buildErr
		return
	}

	view = MonthView{
		Month:     month.Format(calendar.MonthFormat),
		MonthName: calendar.MonthName(month),
		PrevMonth: calendar.PrevMonth(month).Format(calendar.MonthFormat),
		NextMonth: calendar.NextMonth(month).Format(calendar.MonthFormat),
		Locations: locations,
		Weeks:     s.buildWeeks(month, counts),
	}
	return
}

// WeekGrid builds one Sunday-start week around the Monday of the given
// date.
func (s *CalendarService) WeekGrid(ctx context.Context, weekStr string) (view WeekView, err error) {
	if s == nil {
		err = fmt.Errorf("CalendarService is nil")
		return
	}

	logger := s.loggerWith(ctx, "WeekGrid", "week", weekStr)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to build week grid", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	monday, parseErr := calendar.ParseWeek(weekStr)
	if parseErr != nil {
		err = &InvalidPeriodError{Value: weekStr}
		return
	}

	sunday := monday.AddDate(0, 0, -1)
	saturday := monday.AddDate(0, 0, 5)
	locations, counts, buildErr := s.countsByDate(ctx, sunday, saturday)
	if buildErr != nil {
		err = buildErr
		return
	}

	days := make([]DayCell, 0, 7)
	for d := sunday; !d.After(saturday); d = d.AddDate(0, 0, 1) {
		days = append(days, s.buildCell(d, counts))
	}

	view = WeekView{
		Week:      monday.Format(calendar.DateFormat),
		WeekName:  calendar.WeekName(monday),
		PrevWeek:  monday.AddDate(0, 0, -7).Format(calendar.DateFormat),
		NextWeek:  monday.AddDate(0, 0, 7).Format(calendar.DateFormat),
		Locations: locations,
		Days:      days,
	}
	return
}

// UserMonth builds the month calendar annotated with one user's
// entries.
func (s *CalendarService) UserMonth(ctx context.Context, userID, monthStr string) (view UserMonthView, err error) {
	if s == nil {
		err = fmt.Errorf("CalendarService is nil")
		return
	}

	logger := s.loggerWith(ctx, "UserMonth", "user_id", userID, "month", monthStr)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to build user month", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	month, parseErr := calendar.ParseMonth(monthStr)
	if parseErr != nil {
		err = &InvalidPeriodError{Value: monthStr}
		return
	}

	var user persistence.User
	user, err = s.users.GetUser(ctx, userID)
	if err != nil {
		err = mapRepoError(err)
		return
	}

	first, last := calendar.MonthRange(month)
	details, listErr := s.attendances.ListAttendanceDetails(ctx, persistence.AttendanceFilter{
		UserID: userID,
		From:   &first,
		To:     &last,
	})
	if listErr != nil {
		err = mapRepoError(listErr)
		return
	}

	entries := make(map[string]UserDayEntry, len(details))
	for _, d := range details {
		entries[d.Date.Format(calendar.DateFormat)] = UserDayEntry{
			AttendanceID: d.ID,
			LocationID:   d.LocationID,
			LocationName: d.LocationName,
			Note:         d.Note,
		}
	}

	view = UserMonthView{
		Month:     month.Format(calendar.MonthFormat),
		MonthName: calendar.MonthName(month),
		PrevMonth: calendar.PrevMonth(month).Format(calendar.MonthFormat),
		NextMonth: calendar.NextMonth(month).Format(calendar.MonthFormat),
		UserID:    user.ID,
		UserName:  user.Name,
		Weeks:     s.buildWeeks(month, nil),
		Entries:   entries,
	}
	return
}

// DayRoster builds the roster for one date, serving repeat reads from
// the day cache.
func (s *CalendarService) DayRoster(ctx context.Context, dateStr string) (roster *DayRoster, err error) {
	if s == nil {
		err = fmt.Errorf("CalendarService is nil")
		return
	}

	logger := s.loggerWith(ctx, "DayRoster", "date", dateStr)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to build day roster", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	date, parseErr := calendar.ParseDate(dateStr)
	if parseErr != nil {
		err = &InvalidPeriodError{Value: dateStr}
		return
	}
	key := date.Format(calendar.DateFormat)

	if cached, ok := s.cache.Get(key); ok {
		roster = cached
		return
	}

	details, listErr := s.attendances.ListAttendanceDetails(ctx, persistence.AttendanceFilter{
		From: &date,
		To:   &date,
	})
	if listErr != nil {
		err = mapRepoError(listErr)
		return
	}

	locations, locErr := s.locations.ListLocations(ctx)
	if locErr != nil {
		err = mapRepoError(locErr)
		return
	}

	holidayName, isHoliday := s.holidayOf(date)
	roster = &DayRoster{
		Date:        key,
		IsHoliday:   isHoliday,
		HolidayName: holidayName,
		ByLocation:  buildLocationRosters(details, locations),
		ByGroup:     buildGroupRosters(details),
	}

	s.cache.Store(key, roster)
	return
}

func (s *CalendarService) holidayOf(date time.Time) (string, bool) {
	if s.holidays == nil {
		return "", false
	}
	return s.holidays.NameOf(date)
}

// countsByDate loads the location catalog and the per-date, per-location
// attendance counts for an inclusive date range.
func (s *CalendarService) countsByDate(ctx context.Context, from, to time.Time) ([]LocationRef, map[string]map[int64]int64, error) {
	locations, err := s.locations.ListLocations(ctx)
	if err != nil {
		return nil, nil, mapRepoError(err)
	}
	refs := make([]LocationRef, 0, len(locations))
	for _, loc := range locations {
		refs = append(refs, LocationRef{ID: loc.ID, Name: loc.Name})
	}

	rows, err := s.attendances.ListAttendances(ctx, persistence.AttendanceFilter{From: &from, To: &to})
	if err != nil {
		return nil, nil, mapRepoError(err)
	}

	counts := make(map[string]map[int64]int64)
	for _, row := range rows {
		key := row.Date.Format(calendar.DateFormat)
		if counts[key] == nil {
			counts[key] = make(map[int64]int64)
		}
		counts[key][row.LocationID]++
	}
	return refs, counts, nil
}

func (s *CalendarService) buildWeeks(month time.Time, counts map[string]map[int64]int64) [][]DayCell {
	grid := calendar.MonthGrid(month)
	weeks := make([][]DayCell, 0, len(grid))
	for _, week := range grid {
		cells := make([]DayCell, 0, 7)
		for _, day := range week {
			if day == 0 {
				cells = append(cells, DayCell{})
				continue
			}
			date := time.Date(month.Year(), month.Month(), day, 0, 0, 0, 0, time.UTC)
			cells = append(cells, s.buildCell(date, counts))
		}
		weeks = append(weeks, cells)
	}
	return weeks
}

func (s *CalendarService) buildCell(date time.Time, counts map[string]map[int64]int64) DayCell {
	key := date.Format(calendar.DateFormat)
	name, ok := s.holidayOf(date)
	cell := DayCell{
		Day:         date.Day(),
		Date:        key,
		IsHoliday:   ok,
		HolidayName: name,
	}
	if counts != nil {
		cell.Counts = counts[key]
	}
	return cell
}

// compareOrdered compares two (display order, name) pairs. Nil orders
// collate after any non-nil order.
func compareOrdered(aOrder *int64, aName string, bOrder *int64, bName string) int {
	switch {
	case aOrder != nil && bOrder != nil:
		if *aOrder != *bOrder {
			if *aOrder < *bOrder {
				return -1
			}
			return 1
		}
	case aOrder != nil:
		return -1
	case bOrder != nil:
		return 1
	}
	switch {
	case aName < bName:
		return -1
	case aName > bName:
		return 1
	}
	return 0
}

func orderedLess(aOrder *int64, aName string, bOrder *int64, bName string) bool {
	return compareOrdered(aOrder, aName, bOrder, bName) < 0
}

func rosterGroupName(detail persistence.AttendanceDetail) string {
	if detail.GroupName == "" {
		return unassignedGroupName
	}
	return detail.GroupName
}

func rosterMember(detail persistence.AttendanceDetail) RosterMember {
	return RosterMember{
		AttendanceID:     detail.ID,
		UserID:           detail.UserID,
		UserName:         detail.UserName,
		EmployeeTypeName: detail.EmployeeTypeName,
		LocationName:     detail.LocationName,
		Note:             detail.Note,
	}
}

// buildLocationRosters organizes one day's rows location-first, then by
// group, with members ordered by employee type display order then name.
func buildLocationRosters(details []persistence.AttendanceDetail, locations []persistence.Location) []LocationRoster {
	byLocation := make(map[int64][]persistence.AttendanceDetail)
	for _, d := range details {
		byLocation[d.LocationID] = append(byLocation[d.LocationID], d)
	}

	rosters := make([]LocationRoster, 0, len(byLocation))
	for _, loc := range locations {
		rows, ok := byLocation[loc.ID]
		if !ok {
			continue
		}

		groupOrder := make(map[string]*int64)
		byGroup := make(map[string][]persistence.AttendanceDetail)
		for _, d := range rows {
			name := rosterGroupName(d)
			byGroup[name] = append(byGroup[name], d)
			if _, seen := groupOrder[name]; !seen {
				groupOrder[name] = d.GroupOrder
			}
		}

		names := make([]string, 0, len(byGroup))
		for name := range byGroup {
			names = append(names, name)
		}
		sort.Slice(names, func(i, j int) bool {
			return orderedLess(groupOrder[names[i]], names[i], groupOrder[names[j]], names[j])
		})

		groups := make([]RosterGroup, 0, len(names))
		for _, name := range names {
			members := byGroup[name]
			sort.Slice(members, func(i, j int) bool {
				a, b := members[i], members[j]
				if c := compareOrdered(a.EmployeeTypeOrder, a.EmployeeTypeName, b.EmployeeTypeOrder, b.EmployeeTypeName); c != 0 {
					return c < 0
				}
				return a.UserName < b.UserName
			})
			out := make([]RosterMember, 0, len(members))
			for _, m := range members {
				out = append(out, rosterMember(m))
			}
			groups = append(groups, RosterGroup{GroupName: name, Members: out})
		}

		rosters = append(rosters, LocationRoster{
			LocationID:   loc.ID,
			LocationName: loc.Name,
			Groups:       groups,
		})
	}
	return rosters
}

// buildGroupRosters organizes one day's rows group-first, then by
// employee type.
func buildGroupRosters(details []persistence.AttendanceDetail) []GroupRoster {
	groupOrder := make(map[string]*int64)
	byGroup := make(map[string][]persistence.AttendanceDetail)
	for _, d := range details {
		name := rosterGroupName(d)
		byGroup[name] = append(byGroup[name], d)
		if _, seen := groupOrder[name]; !seen {
			groupOrder[name] = d.GroupOrder
		}
	}

	groupNames := make([]string, 0, len(byGroup))
	for name := range byGroup {
		groupNames = append(groupNames, name)
	}
	sort.Slice(groupNames, func(i, j int) bool {
		return orderedLess(groupOrder[groupNames[i]], groupNames[i], groupOrder[groupNames[j]], groupNames[j])
	})

	rosters := make([]GroupRoster, 0, len(groupNames))
	for _, groupName := range groupNames {
		rows := byGroup[groupName]

		typeOrder := make(map[string]*int64)
		byType := make(map[string][]persistence.AttendanceDetail)
		for _, d := range rows {
			byType[d.EmployeeTypeName] = append(byType[d.EmployeeTypeName], d)
			if _, seen := typeOrder[d.EmployeeTypeName]; !seen {
				typeOrder[d.EmployeeTypeName] = d.EmployeeTypeOrder
			}
		}

		typeNames := make([]string, 0, len(byType))
		for name := range byType {
			typeNames = append(typeNames, name)
		}
		sort.Slice(typeNames, func(i, j int) bool {
			return orderedLess(typeOrder[typeNames[i]], typeNames[i], typeOrder[typeNames[j]], typeNames[j])
		})

		types := make([]TypeRoster, 0, len(typeNames))
		for _, typeName := range typeNames {
			members := byType[typeName]
			sort.Slice(members, func(i, j int) bool {
				return members[i].UserName < members[j].UserName
			})
			out := make([]RosterMember, 0, len(members))
			for _, m := range members {
				out = append(out, rosterMember(m))
			}
			types = append(types, TypeRoster{TypeName: typeName, Members: out})
		}

		rosters = append(rosters, GroupRoster{GroupName: groupName, Types: types})
	}
	return rosters
}
