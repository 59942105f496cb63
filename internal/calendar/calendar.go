// Package calendar implements the pure date arithmetic behind the
// attendance views: month/week parsing, the Sunday-start month grid,
// Japanese display names, and fiscal-year ranges.
package calendar

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DateFormat is the canonical ISO date layout used across the service.
const DateFormat = "2006-01-02"

// MonthFormat is the canonical month layout (YYYY-MM).
const MonthFormat = "2006-01"

var monthPattern = regexp.MustCompile(`^\d{4}[-/]\d{1,2}$`)

// FormatDate renders a date as YYYY-MM-DD.
func FormatDate(d time.Time) string {
	return d.Format(DateFormat)
}

// FormatMonth renders the month of a date as YYYY-MM.
func FormatMonth(d time.Time) string {
	return d.Format(MonthFormat)
}

// ParseMonth parses YYYY-MM or YYYY/MM into the first day of the month.
// Years are bounded to 1900-2100 to reject obviously corrupted input.
func ParseMonth(month string) (time.Time, error) {
	if !monthPattern.MatchString(month) {
		return time.Time{}, fmt.Errorf("無効な月フォーマット: %s", month)
	}
	sep := "-"
	if strings.Contains(month, "/") {
		sep = "/"
	}
	parts := strings.Split(month, sep)
	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return time.Time{}, fmt.Errorf("無効な月フォーマット: %s", month)
	}
	monthNum, err := strconv.Atoi(parts[1])
	if err != nil {
		return time.Time{}, fmt.Errorf("無効な月フォーマット: %s", month)
	}
	if year < 1900 || year > 2100 {
		return time.Time{}, fmt.Errorf("年は1900-2100の範囲で指定してください: %d", year)
	}
	if monthNum < 1 || monthNum > 12 {
		return time.Time{}, fmt.Errorf("月は1-12の範囲で指定してください: %d", monthNum)
	}
	return time.Date(year, time.Month(monthNum), 1, 0, 0, 0, 0, time.UTC), nil
}

// ParseDate parses YYYY-MM-DD or YYYY/MM/DD, with or without zero padding.
func ParseDate(value string) (time.Time, error) {
	sep := ""
	switch {
	case strings.Contains(value, "-"):
		sep = "-"
	case strings.Contains(value, "/"):
		sep = "/"
	default:
		return time.Time{}, fmt.Errorf("無効な日付フォーマット: %s", value)
	}
	parts := strings.Split(value, sep)
	if len(parts) != 3 {
		return time.Time{}, fmt.Errorf("無効な日付フォーマット: %s", value)
	}
	nums := make([]int, 3)
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			return time.Time{}, fmt.Errorf("無効な日付フォーマット: %s", value)
		}
		nums[i] = n
	}
	d := time.Date(nums[0], time.Month(nums[1]), nums[2], 0, 0, 0, 0, time.UTC)
	if d.Year() != nums[0] || int(d.Month()) != nums[1] || d.Day() != nums[2] {
		return time.Time{}, fmt.Errorf("存在しない日付です: %s", value)
	}
	return d, nil
}

// ParseWeek parses a week reference (any date); the result is normalized
// to the Monday of the containing week.
func ParseWeek(value string) (time.Time, error) {
	d, err := ParseDate(value)
	if err != nil {
		return time.Time{}, err
	}
	return MondayOf(d), nil
}

// MondayOf returns the Monday of the week containing d.
func MondayOf(d time.Time) time.Time {
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

// MonthRange returns the first and last day of the month containing d.
func MonthRange(d time.Time) (time.Time, time.Time) {
	first := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	return first, last
}

// PrevMonth returns the first day of the month before d's month,
// computed by stepping one day back from the first of the month.
func PrevMonth(d time.Time) time.Time {
	first, _ := MonthRange(d)
	prev := first.AddDate(0, 0, -1)
	return time.Date(prev.Year(), prev.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// NextMonth returns the first day of the month after d's month.
func NextMonth(d time.Time) time.Time {
	_, last := MonthRange(d)
	return last.AddDate(0, 0, 1)
}

// MonthName renders the Japanese month label, e.g. "2024年12月".
func MonthName(d time.Time) string {
	return fmt.Sprintf("%d年%d月", d.Year(), int(d.Month()))
}

// WeekName renders the Japanese week label, e.g. "2025年1月第2週".
// The ordinal follows the Monday's day of month, so any Monday on or
// after the 29th is always the fifth week.
func WeekName(monday time.Time) string {
	ordinal := (monday.Day()-1)/7 + 1
	return fmt.Sprintf("%d年%d月第%d週", monday.Year(), int(monday.Month()), ordinal)
}

// MonthGrid lays the month containing d out as Sunday-start weeks.
// Days outside the month are zero, matching the placeholder convention
// of the views.
func MonthGrid(d time.Time) [][]int {
	first, last := MonthRange(d)
	lead := int(first.Weekday()) // Sunday == 0
	var weeks [][]int
	week := make([]int, 0, 7)
	for i := 0; i < lead; i++ {
		week = append(week, 0)
	}
	for day := 1; day <= last.Day(); day++ {
		week = append(week, day)
		if len(week) == 7 {
			weeks = append(weeks, week)
			week = make([]int, 0, 7)
		}
	}
	if len(week) > 0 {
		for len(week) < 7 {
			week = append(week, 0)
		}
		weeks = append(weeks, week)
	}
	return weeks
}

// FiscalYearRange returns [April 1 of year, March 31 of year+1].
func FiscalYearRange(year int) (time.Time, time.Time) {
	start := time.Date(year, time.April, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(year+1, time.March, 31, 0, 0, 0, 0, time.UTC)
	return start, end
}
