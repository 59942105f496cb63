package persistence

import "time"

// Group represents an organizational unit users belong to.
type Group struct {
	ID    int64
	Name  string
	Order *int64
}

// EmployeeType classifies users (e.g. regular, contractor).
type EmployeeType struct {
	ID    int64
	Name  string
	Order *int64
}

// Location is a named work-location value such as office or remote.
type Location struct {
	ID       int64
	Name     string
	Category *string
	Order    *int64
}

// User represents an employee in the directory.
type User struct {
	ID             string
	Name           string
	GroupID        int64
	EmployeeTypeID int64
}

// Attendance records that a user was at a location on a date.
type Attendance struct {
	ID         int64
	UserID     string
	Date       time.Time
	LocationID int64
	Note       *string
}

// CustomHoliday is a user-defined non-working day.
type CustomHoliday struct {
	ID   int64
	Date time.Time
	Name string
}

// AttendanceDetail joins an attendance row with its user, group,
// employee-type, and location attributes for roster and export queries.
type AttendanceDetail struct {
	ID                int64
	UserID            string
	UserName          string
	Date              time.Time
	Note              *string
	LocationID        int64
	LocationName      string
	GroupName         string
	GroupOrder        *int64
	EmployeeTypeName  string
	EmployeeTypeOrder *int64
}
