package application

// LocationRef is the slim location projection carried by calendar and
// analysis views.
type LocationRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// DayCell is one cell of a calendar grid. Zero-day cells pad the weeks
// so that every week holds exactly seven entries.
type DayCell struct {
	Day         int             `json:"day"`
	Date        string          `json:"date,omitempty"`
	IsHoliday   bool            `json:"is_holiday"`
	HolidayName string          `json:"holiday_name,omitempty"`
	Counts      map[int64]int64 `json:"counts,omitempty"`
}

// MonthView is the month calendar with per-day, per-location counts.
type MonthView struct {
	Month     string       `json:"month"`
	MonthName string       `json:"month_name"`
	PrevMonth string       `json:"prev_month"`
	NextMonth string       `json:"next_month"`
	Locations []LocationRef `json:"locations"`
	Weeks     [][]DayCell  `json:"weeks"`
}

// WeekView is one Sunday-start week with per-day, per-location counts.
type WeekView struct {
	Week      string       `json:"week"`
	WeekName  string       `json:"week_name"`
	PrevWeek  string       `json:"prev_week"`
	NextWeek  string       `json:"next_week"`
	Locations []LocationRef `json:"locations"`
	Days      []DayCell    `json:"days"`
}

// UserDayEntry is one user's attendance on one date.
type UserDayEntry struct {
	AttendanceID int64   `json:"attendance_id"`
	LocationID   int64   `json:"location_id"`
	LocationName string  `json:"location_name"`
	Note         *string `json:"note,omitempty"`
}

// UserMonthView is the month calendar annotated with one user's
// entries, keyed by ISO date.
type UserMonthView struct {
	Month     string                  `json:"month"`
	MonthName string                  `json:"month_name"`
	PrevMonth string                  `json:"prev_month"`
	NextMonth string                  `json:"next_month"`
	UserID    string                  `json:"user_id"`
	UserName  string                  `json:"user_name"`
	Weeks     [][]DayCell             `json:"weeks"`
	Entries   map[string]UserDayEntry `json:"entries"`
}

// RosterMember is one user's attendance row inside a day roster group.
type RosterMember struct {
	AttendanceID     int64   `json:"attendance_id"`
	UserID           string  `json:"user_id"`
	UserName         string  `json:"user_name"`
	EmployeeTypeName string  `json:"user_type_name"`
	LocationName     string  `json:"location_name"`
	Note             *string `json:"note,omitempty"`
}

// RosterGroup collects the members of one group within a location.
type RosterGroup struct {
	GroupName string         `json:"group_name"`
	Members   []RosterMember `json:"members"`
}

// LocationRoster collects the groups present at one location.
type LocationRoster struct {
	LocationID   int64         `json:"location_id"`
	LocationName string        `json:"location_name"`
	Groups       []RosterGroup `json:"groups"`
}

// TypeRoster collects members of one employee type within a group.
type TypeRoster struct {
	TypeName string         `json:"user_type_name"`
	Members  []RosterMember `json:"members"`
}

// GroupRoster is the group-first organization of one day.
type GroupRoster struct {
	GroupName string       `json:"group_name"`
	Types     []TypeRoster `json:"types"`
}

// DayRoster is everything known about one date, organized both
// location-first and group-first.
type DayRoster struct {
	Date        string           `json:"date"`
	IsHoliday   bool             `json:"is_holiday"`
	HolidayName string           `json:"holiday_name,omitempty"`
	ByLocation  []LocationRoster `json:"by_location"`
	ByGroup     []GroupRoster    `json:"by_group"`
}

// AnalysisPeriod describes the window an analysis covers.
type AnalysisPeriod struct {
	Mode  string `json:"mode"`
	Label string `json:"label"`
	Start string `json:"start"`
	End   string `json:"end"`
}

// DatedEntry is one attendance occurrence inside an analysis.
type DatedEntry struct {
	Date string  `json:"date"`
	Note *string `json:"note,omitempty"`
}

// UserAnalysis carries one user's counts, dense over all locations.
type UserAnalysis struct {
	UserID         string                 `json:"user_id"`
	UserName       string                 `json:"user_name"`
	GroupName      string                 `json:"group_name"`
	UserTypeName   string                 `json:"user_type_name"`
	LocationCounts map[int64]int64        `json:"location_counts"`
	LocationDates  map[int64][]DatedEntry `json:"location_dates"`
}

// GroupSummary sums the counts of one group's members.
type GroupSummary struct {
	GroupName      string          `json:"group_name"`
	TotalDays      int64           `json:"total_days"`
	LocationCounts map[int64]int64 `json:"location_counts"`
}

// AnalysisResult is the full aggregation for one period. Users,
// locations, and group summaries carry a deterministic order so that
// rendered tables and CSV exports diff cleanly.
type AnalysisResult struct {
	Period       AnalysisPeriod `json:"period"`
	Users        []UserAnalysis `json:"users"`
	Locations    []LocationRef  `json:"locations"`
	GroupSummary []GroupSummary `json:"group_summary"`
}

// RefreshTarget tells the fragment layer which calendar fragments to
// reload after a write.
type RefreshTarget struct {
	Month string `json:"month"`
	Week  string `json:"week"`
}

// UserRefreshTarget additionally scopes the reload to one user.
type UserRefreshTarget struct {
	UserID string `json:"user_id"`
	Month  string `json:"month"`
	Week   string `json:"week"`
}

// Triggers is the payload serialized into the HX-Trigger response
// header after a successful attendance write.
type Triggers struct {
	CloseModal            bool               `json:"closeModal"`
	RefreshUserAttendance *UserRefreshTarget `json:"refreshUserAttendance,omitempty"`
	RefreshAttendance     *RefreshTarget     `json:"refreshAttendance,omitempty"`
}

// GroupInput is the payload for creating or updating a group.
type GroupInput struct {
	Name  string
	Order *int64
}

// EmployeeTypeInput is the payload for creating or updating an employee type.
type EmployeeTypeInput struct {
	Name  string
	Order *int64
}

// LocationInput is the payload for creating or updating a work location.
type LocationInput struct {
	Name     string
	Category *string
	Order    *int64
}

// UserInput is the payload for creating or updating a user.
type UserInput struct {
	ID             string
	Name           string
	GroupID        int64
	EmployeeTypeID int64
}

// HolidayInput is the payload for creating or updating a custom holiday.
type HolidayInput struct {
	Date string
	Name string
}

// AttendanceInput is the payload for registering an attendance.
type AttendanceInput struct {
	UserID     string
	Date       string
	LocationID int64
	Note       *string
}

// AttendanceUpdateInput changes the location and note of an existing
// attendance; user and date are immutable.
type AttendanceUpdateInput struct {
	LocationID int64
	Note       *string
}

// MonthChoice is one selectable month for the CSV export form.
type MonthChoice struct {
	Value string `json:"value"`
	Label string `json:"label"`
}
