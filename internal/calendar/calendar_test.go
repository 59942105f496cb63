package calendar

import (
	"testing"
	"time"
)

func TestParseMonth(t *testing.T) {
	cases := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{input: "2024-12", want: "2024-12-01"},
		{input: "2025/4", want: "2025-04-01"},
		{input: "2024-00", wantErr: true},
		{input: "2024-13", wantErr: true},
		{input: "1899-01", wantErr: true},
		{input: "2101-01", wantErr: true},
		{input: "202412", wantErr: true},
		{input: "2024-12-01", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.input, func(t *testing.T) {
			month, err := ParseMonth(tc.input)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("ParseMonth(%q) expected error", tc.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseMonth(%q) error: %v", tc.input, err)
			}
			if got := FormatDate(month); got != tc.want {
				t.Errorf("ParseMonth(%q) = %s, want %s", tc.input, got, tc.want)
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024/12/2")
	if err != nil {
		t.Fatalf("ParseDate error: %v", err)
	}
	if FormatDate(d) != "2024-12-02" {
		t.Errorf("ParseDate slash form = %s", FormatDate(d))
	}

	if _, err := ParseDate("2024-02-30"); err == nil {
		t.Error("expected error for nonexistent date")
	}
	if _, err := ParseDate("20241202"); err == nil {
		t.Error("expected error for unseparated date")
	}
}

func TestMondayOf(t *testing.T) {
	// 2024-12-04 is a Wednesday.
	wednesday := time.Date(2024, time.December, 4, 0, 0, 0, 0, time.UTC)
	if got := FormatDate(MondayOf(wednesday)); got != "2024-12-02" {
		t.Errorf("MondayOf(wed) = %s", got)
	}
	sunday := time.Date(2024, time.December, 8, 0, 0, 0, 0, time.UTC)
	if got := FormatDate(MondayOf(sunday)); got != "2024-12-02" {
		t.Errorf("MondayOf(sun) = %s", got)
	}
	monday := time.Date(2024, time.December, 2, 0, 0, 0, 0, time.UTC)
	if !MondayOf(monday).Equal(monday) {
		t.Error("MondayOf(monday) should be identity")
	}
}

func TestMonthGrid(t *testing.T) {
	// December 2024 starts on a Sunday and has 31 days: 5 weeks.
	weeks := MonthGrid(time.Date(2024, time.December, 1, 0, 0, 0, 0, time.UTC))
	if len(weeks) != 5 {
		t.Fatalf("December 2024 should span 5 weeks, got %d", len(weeks))
	}
	if weeks[0][0] != 1 {
		t.Errorf("first cell should be day 1, got %d", weeks[0][0])
	}
	if weeks[4][3] != 0 {
		t.Errorf("cell after the 31st should be a placeholder, got %d", weeks[4][3])
	}

	seen := make(map[int]int)
	for _, week := range weeks {
		if len(week) != 7 {
			t.Fatalf("week length = %d", len(week))
		}
		for _, day := range week {
			if day != 0 {
				seen[day]++
			}
		}
	}
	for day := 1; day <= 31; day++ {
		if seen[day] != 1 {
			t.Errorf("day %d appears %d times", day, seen[day])
		}
	}

	// February 2026 starts on a Sunday and has exactly 28 days: 4 full weeks.
	february := time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC)
	if weeks := MonthGrid(february); len(weeks) != 4 {
		t.Errorf("February 2026 should span 4 weeks, got %d", len(weeks))
	}
}

func TestPrevNextMonth(t *testing.T) {
	january := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	if got := FormatMonth(PrevMonth(january)); got != "2024-12" {
		t.Errorf("PrevMonth(2025-01) = %s", got)
	}
	december := time.Date(2024, time.December, 1, 0, 0, 0, 0, time.UTC)
	if got := FormatMonth(NextMonth(december)); got != "2025-01" {
		t.Errorf("NextMonth(2024-12) = %s", got)
	}
	// Mid-month inputs normalize the same way as the first.
	midMarch := time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)
	if got := PrevMonth(midMarch); got.Day() != 1 || FormatMonth(got) != "2024-02" {
		t.Errorf("PrevMonth(mid-March) = %s", FormatDate(got))
	}
}

func TestMonthRange(t *testing.T) {
	month, err := ParseMonth("2024-02")
	if err != nil {
		t.Fatalf("ParseMonth error: %v", err)
	}
	first, last := MonthRange(month)
	if FormatDate(first) != "2024-02-01" || FormatDate(last) != "2024-02-29" {
		t.Errorf("MonthRange(2024-02) = %s..%s", FormatDate(first), FormatDate(last))
	}
	if got := MonthName(month); got != "2024年2月" {
		t.Errorf("MonthName(2024-02) = %q", got)
	}
}

func TestWeekName(t *testing.T) {
	cases := []struct {
		monday string
		want   string
	}{
		{monday: "2025-01-06", want: "2025年1月第1週"},
		{monday: "2025-01-13", want: "2025年1月第2週"},
		{monday: "2024-12-30", want: "2024年12月第5週"},
		{monday: "2025-06-30", want: "2025年6月第5週"},
	}
	for _, tc := range cases {
		d, err := ParseDate(tc.monday)
		if err != nil {
			t.Fatalf("ParseDate(%q): %v", tc.monday, err)
		}
		if got := WeekName(d); got != tc.want {
			t.Errorf("WeekName(%s) = %q, want %q", tc.monday, got, tc.want)
		}
	}
}

func TestFiscalYearRange(t *testing.T) {
	start, end := FiscalYearRange(2024)
	if FormatDate(start) != "2024-04-01" {
		t.Errorf("start = %s", FormatDate(start))
	}
	if FormatDate(end) != "2025-03-31" {
		t.Errorf("end = %s", FormatDate(end))
	}
}
