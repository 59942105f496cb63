package persistence

import (
	"context"
	"time"
)

// GroupRepository exposes CRUD operations for groups.
type GroupRepository interface {
	CreateGroup(ctx context.Context, group Group) (Group, error)
	GetGroup(ctx context.Context, id int64) (Group, error)
	GetGroupByName(ctx context.Context, name string) (Group, error)
	ListGroups(ctx context.Context) ([]Group, error)
	UpdateGroup(ctx context.Context, group Group) error
	DeleteGroup(ctx context.Context, id int64) error
	CountUsersInGroup(ctx context.Context, id int64) (int64, error)
}

// EmployeeTypeRepository exposes CRUD operations for employee types.
type EmployeeTypeRepository interface {
	CreateEmployeeType(ctx context.Context, et EmployeeType) (EmployeeType, error)
	GetEmployeeType(ctx context.Context, id int64) (EmployeeType, error)
	GetEmployeeTypeByName(ctx context.Context, name string) (EmployeeType, error)
	ListEmployeeTypes(ctx context.Context) ([]EmployeeType, error)
	UpdateEmployeeType(ctx context.Context, et EmployeeType) error
	DeleteEmployeeType(ctx context.Context, id int64) error
	CountUsersOfType(ctx context.Context, id int64) (int64, error)
}

// LocationRepository exposes CRUD operations for work locations.
type LocationRepository interface {
	CreateLocation(ctx context.Context, loc Location) (Location, error)
	GetLocation(ctx context.Context, id int64) (Location, error)
	GetLocationByName(ctx context.Context, name string) (Location, error)
	ListLocations(ctx context.Context) ([]Location, error)
	UpdateLocation(ctx context.Context, loc Location) error
	DeleteLocation(ctx context.Context, id int64) error
	CountAttendancesAtLocation(ctx context.Context, id int64) (int64, error)
}

// UserRepository exposes CRUD operations for users. Deleting a user
// cascades to that user's attendance rows in one transaction.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByName(ctx context.Context, name string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
	UpdateUser(ctx context.Context, user User) error
	DeleteUser(ctx context.Context, id string) error
}

// AttendanceFilter narrows attendance queries to a date range and/or user.
type AttendanceFilter struct {
	UserID string
	From   *time.Time
	To     *time.Time
}

// AttendanceRepository stores the (user, date) -> location facts.
type AttendanceRepository interface {
	CreateAttendance(ctx context.Context, att Attendance) (Attendance, error)
	GetAttendance(ctx context.Context, id int64) (Attendance, error)
	GetAttendanceByUserAndDate(ctx context.Context, userID string, date time.Time) (Attendance, error)
	UpdateAttendance(ctx context.Context, att Attendance) error
	DeleteAttendance(ctx context.Context, id int64) error
	ListAttendances(ctx context.Context, filter AttendanceFilter) ([]Attendance, error)
	ListAttendanceDetails(ctx context.Context, filter AttendanceFilter) ([]AttendanceDetail, error)
}

// HolidayRepository stores user-defined holidays.
type HolidayRepository interface {
	CreateCustomHoliday(ctx context.Context, holiday CustomHoliday) (CustomHoliday, error)
	GetCustomHoliday(ctx context.Context, id int64) (CustomHoliday, error)
	GetCustomHolidayByDate(ctx context.Context, date time.Time) (CustomHoliday, error)
	ListCustomHolidays(ctx context.Context) ([]CustomHoliday, error)
	UpdateCustomHoliday(ctx context.Context, holiday CustomHoliday) error
	DeleteCustomHoliday(ctx context.Context, id int64) error
}
