package application

import (
	"context"
	"time"

	"github.com/example/attendance-tracker/internal/persistence"
)

type groupRepoStub struct {
	groups    []persistence.Group
	userCount int64
	err       error
	deletedID int64
}

func (r *groupRepoStub) CreateGroup(ctx context.Context, group persistence.Group) (persistence.Group, error) {
	if r.err != nil {
		return persistence.Group{}, r.err
	}
	group.ID = int64(len(r.groups) + 1)
	r.groups = append(r.groups, group)
	return group, nil
}

func (r *groupRepoStub) GetGroup(ctx context.Context, id int64) (persistence.Group, error) {
	if r.err != nil {
		return persistence.Group{}, r.err
	}
	for _, g := range r.groups {
		if g.ID == id {
			return g, nil
		}
	}
	return persistence.Group{}, persistence.ErrNotFound
}

func (r *groupRepoStub) GetGroupByName(ctx context.Context, name string) (persistence.Group, error) {
	for _, g := range r.groups {
		if g.Name == name {
			return g, nil
		}
	}
	return persistence.Group{}, persistence.ErrNotFound
}

func (r *groupRepoStub) ListGroups(ctx context.Context) ([]persistence.Group, error) {
	if r.err != nil {
		return nil, r.err
	}
	out := make([]persistence.Group, len(r.groups))
	copy(out, r.groups)
	return out, nil
}

func (r *groupRepoStub) UpdateGroup(ctx context.Context, group persistence.Group) error {
	for i, g := range r.groups {
		if g.ID == group.ID {
			r.groups[i] = group
			return nil
		}
	}
	return persistence.ErrNotFound
}

func (r *groupRepoStub) DeleteGroup(ctx context.Context, id int64) error {
	if r.err != nil {
		return r.err
	}
	r.deletedID = id
	return nil
}

func (r *groupRepoStub) CountUsersInGroup(ctx context.Context, id int64) (int64, error) {
	return r.userCount, nil
}

type typeRepoStub struct {
	types     []persistence.EmployeeType
	userCount int64
	deletedID int64
}

func (r *typeRepoStub) CreateEmployeeType(ctx context.Context, et persistence.EmployeeType) (persistence.EmployeeType, error) {
	et.ID = int64(len(r.types) + 1)
	r.types = append(r.types, et)
	return et, nil
}

func (r *typeRepoStub) GetEmployeeType(ctx context.Context, id int64) (persistence.EmployeeType, error) {
	for _, t := range r.types {
		if t.ID == id {
			return t, nil
		}
	}
	return persistence.EmployeeType{}, persistence.ErrNotFound
}

func (r *typeRepoStub) GetEmployeeTypeByName(ctx context.Context, name string) (persistence.EmployeeType, error) {
	for _, t := range r.types {
		if t.Name == name {
			return t, nil
		}
	}
	return persistence.EmployeeType{}, persistence.ErrNotFound
}

func (r *typeRepoStub) ListEmployeeTypes(ctx context.Context) ([]persistence.EmployeeType, error) {
	out := make([]persistence.EmployeeType, len(r.types))
	copy(out, r.types)
	return out, nil
}

func (r *typeRepoStub) UpdateEmployeeType(ctx context.Context, et persistence.EmployeeType) error {
	for i, t := range r.types {
		if t.ID == et.ID {
			r.types[i] = et
			return nil
		}
	}
	return persistence.ErrNotFound
}

func (r *typeRepoStub) DeleteEmployeeType(ctx context.Context, id int64) error {
	r.deletedID = id
	return nil
}

func (r *typeRepoStub) CountUsersOfType(ctx context.Context, id int64) (int64, error) {
	return r.userCount, nil
}

type locationRepoStub struct {
	locations       []persistence.Location
	attendanceCount int64
	deletedID       int64
}

func (r *locationRepoStub) CreateLocation(ctx context.Context, loc persistence.Location) (persistence.Location, error) {
	loc.ID = int64(len(r.locations) + 1)
	r.locations = append(r.locations, loc)
	return loc, nil
}

func (r *locationRepoStub) GetLocation(ctx context.Context, id int64) (persistence.Location, error) {
	for _, l := range r.locations {
		if l.ID == id {
			return l, nil
		}
	}
	return persistence.Location{}, persistence.ErrNotFound
}

func (r *locationRepoStub) GetLocationByName(ctx context.Context, name string) (persistence.Location, error) {
	for _, l := range r.locations {
		if l.Name == name {
			return l, nil
		}
	}
	return persistence.Location{}, persistence.ErrNotFound
}

func (r *locationRepoStub) ListLocations(ctx context.Context) ([]persistence.Location, error) {
	out := make([]persistence.Location, len(r.locations))
	copy(out, r.locations)
	return out, nil
}

func (r *locationRepoStub) UpdateLocation(ctx context.Context, loc persistence.Location) error {
	for i, l := range r.locations {
		if l.ID == loc.ID {
			r.locations[i] = loc
			return nil
		}
	}
	return persistence.ErrNotFound
}

func (r *locationRepoStub) DeleteLocation(ctx context.Context, id int64) error {
	r.deletedID = id
	return nil
}

func (r *locationRepoStub) CountAttendancesAtLocation(ctx context.Context, id int64) (int64, error) {
	return r.attendanceCount, nil
}

type userRepoStub struct {
	users     []persistence.User
	deletedID string
}

func (r *userRepoStub) CreateUser(ctx context.Context, user persistence.User) error {
	for _, u := range r.users {
		if u.ID == user.ID {
			return persistence.ErrDuplicate
		}
	}
	r.users = append(r.users, user)
	return nil
}

func (r *userRepoStub) GetUser(ctx context.Context, id string) (persistence.User, error) {
	for _, u := range r.users {
		if u.ID == id {
			return u, nil
		}
	}
	return persistence.User{}, persistence.ErrNotFound
}

func (r *userRepoStub) GetUserByName(ctx context.Context, name string) (persistence.User, error) {
	for _, u := range r.users {
		if u.Name == name {
			return u, nil
		}
	}
	return persistence.User{}, persistence.ErrNotFound
}

func (r *userRepoStub) ListUsers(ctx context.Context) ([]persistence.User, error) {
	out := make([]persistence.User, len(r.users))
	copy(out, r.users)
	return out, nil
}

func (r *userRepoStub) UpdateUser(ctx context.Context, user persistence.User) error {
	for i, u := range r.users {
		if u.ID == user.ID {
			r.users[i] = user
			return nil
		}
	}
	return persistence.ErrNotFound
}

func (r *userRepoStub) DeleteUser(ctx context.Context, id string) error {
	r.deletedID = id
	return nil
}

type attendanceRepoStub struct {
	attendances []persistence.Attendance
	details     []persistence.AttendanceDetail
	nextID      int64

	detailCalls int
}

func (r *attendanceRepoStub) CreateAttendance(ctx context.Context, att persistence.Attendance) (persistence.Attendance, error) {
	for _, existing := range r.attendances {
		if existing.UserID == att.UserID && existing.Date.Equal(att.Date) {
			return persistence.Attendance{}, persistence.ErrDuplicate
		}
	}
	r.nextID++
	att.ID = r.nextID
	r.attendances = append(r.attendances, att)
	return att, nil
}

func (r *attendanceRepoStub) GetAttendance(ctx context.Context, id int64) (persistence.Attendance, error) {
	for _, a := range r.attendances {
		if a.ID == id {
			return a, nil
		}
	}
	return persistence.Attendance{}, persistence.ErrNotFound
}

func (r *attendanceRepoStub) GetAttendanceByUserAndDate(ctx context.Context, userID string, date time.Time) (persistence.Attendance, error) {
	for _, a := range r.attendances {
		if a.UserID == userID && a.Date.Equal(date) {
			return a, nil
		}
	}
	return persistence.Attendance{}, persistence.ErrNotFound
}

func (r *attendanceRepoStub) UpdateAttendance(ctx context.Context, att persistence.Attendance) error {
	for i, a := range r.attendances {
		if a.ID == att.ID {
			r.attendances[i] = att
			return nil
		}
	}
	return persistence.ErrNotFound
}

func (r *attendanceRepoStub) DeleteAttendance(ctx context.Context, id int64) error {
	for i, a := range r.attendances {
		if a.ID == id {
			r.attendances = append(r.attendances[:i], r.attendances[i+1:]...)
			return nil
		}
	}
	return persistence.ErrNotFound
}

func matchesFilter(userID string, date time.Time, filter persistence.AttendanceFilter) bool {
	if filter.UserID != "" && userID != filter.UserID {
		return false
	}
	if filter.From != nil && date.Before(*filter.From) {
		return false
	}
	if filter.To != nil && date.After(*filter.To) {
		return false
	}
	return true
}

func (r *attendanceRepoStub) ListAttendances(ctx context.Context, filter persistence.AttendanceFilter) ([]persistence.Attendance, error) {
	var out []persistence.Attendance
	for _, a := range r.attendances {
		if matchesFilter(a.UserID, a.Date, filter) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *attendanceRepoStub) ListAttendanceDetails(ctx context.Context, filter persistence.AttendanceFilter) ([]persistence.AttendanceDetail, error) {
	r.detailCalls++
	var out []persistence.AttendanceDetail
	for _, d := range r.details {
		if matchesFilter(d.UserID, d.Date, filter) {
			out = append(out, d)
		}
	}
	return out, nil
}

type overlayStub struct {
	holidays map[string]string
}

func (o *overlayStub) IsHoliday(date time.Time) bool {
	_, ok := o.holidays[date.Format("2006-01-02")]
	return ok
}

func (o *overlayStub) NameOf(date time.Time) (string, bool) {
	name, ok := o.holidays[date.Format("2006-01-02")]
	return name, ok
}

func int64Ptr(v int64) *int64 { return &v }

func strPtr(v string) *string { return &v }

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
