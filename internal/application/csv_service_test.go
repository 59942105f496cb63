package application

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"strings"
	"testing"
	"time"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"

	"github.com/example/attendance-tracker/internal/persistence"
)

func newCSVServiceForTest(now func() time.Time) *CSVService {
	analysis := newAnalysisServiceForTest(decemberDetails())
	return NewCSVService(analysis, now)
}

func TestCSVService_ExportMonth(t *testing.T) {
	svc := newCSVServiceForTest(nil)
	var buf bytes.Buffer

	if err := svc.Export(context.Background(), &buf, "2024-12", EncodingUTF8); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	raw := buf.Bytes()
	if !bytes.HasPrefix(raw, utf8BOM) {
		t.Fatal("utf-8 export must start with a BOM")
	}

	records, err := csv.NewReader(bytes.NewReader(raw[len(utf8BOM):])).ReadAll()
	if err != nil {
		t.Fatalf("parse output: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("rows = %d, want header + 3 users", len(records))
	}

	header := records[0]
	if len(header) != 4+31 {
		t.Fatalf("December export should carry 31 date columns, got %d total", len(header))
	}
	wantLead := []string{"user_name", "user_id", "group_name", "user_type_name"}
	for i, w := range wantLead {
		if header[i] != w {
			t.Errorf("header[%d] = %q, want %q", i, header[i], w)
		}
	}
	if header[4] != "2024/12/01" || header[len(header)-1] != "2024/12/31" {
		t.Errorf("date columns = %q..%q", header[4], header[len(header)-1])
	}

	// Rows follow the aggregator's user ordering.
	if records[1][1] != "U002" || records[2][1] != "U001" || records[3][1] != "U003" {
		t.Errorf("row order = %q %q %q", records[1][1], records[2][1], records[3][1])
	}

	u001 := records[2]
	if u001[0] != "山田太郎" || u001[2] != "開発部" || u001[3] != "正社員" {
		t.Errorf("U001 lead columns = %v", u001[:4])
	}
	if u001[4+1] != "出社" || u001[4+2] != "出社" {
		t.Errorf("U001 date cells = %q %q", u001[5], u001[6])
	}
	if u001[4] != "" {
		t.Errorf("empty days must stay empty, got %q", u001[4])
	}

	u003 := records[3]
	for _, cell := range u003[4:] {
		if cell != "" {
			t.Fatalf("user without attendance should export empty cells, got %q", cell)
		}
	}
}

func TestCSVService_ExportShiftJIS(t *testing.T) {
	svc := newCSVServiceForTest(nil)
	var buf bytes.Buffer

	if err := svc.Export(context.Background(), &buf, "2024-12", EncodingShiftJIS); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bytes.HasPrefix(buf.Bytes(), utf8BOM) {
		t.Fatal("sjis export must not carry a BOM")
	}

	decoded, _, err := transform.Bytes(japanese.ShiftJIS.NewDecoder(), buf.Bytes())
	if err != nil {
		t.Fatalf("decode sjis: %v", err)
	}
	if !strings.Contains(string(decoded), "山田太郎") {
		t.Error("decoded output should contain the user name")
	}
	if bytes.Contains(buf.Bytes(), []byte("山田太郎")) {
		t.Error("raw output should not contain UTF-8 encoded names")
	}
}

func TestCSVService_ExportDefaultWindow(t *testing.T) {
	now := func() time.Time { return time.Date(2024, time.December, 15, 10, 30, 0, 0, time.UTC) }
	svc := newCSVServiceForTest(now)
	var buf bytes.Buffer

	if err := svc.Export(context.Background(), &buf, "", ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	records, err := csv.NewReader(bytes.NewReader(buf.Bytes()[len(utf8BOM):])).ReadAll()
	if err != nil {
		t.Fatalf("parse output: %v", err)
	}
	header := records[0]
	if len(header) != 4+90 {
		t.Fatalf("default window should span 90 days, got %d date columns", len(header)-4)
	}
	if header[len(header)-1] != "2024/12/15" {
		t.Errorf("last column should be today, got %q", header[len(header)-1])
	}
	if header[4] != "2024/09/17" {
		t.Errorf("first column = %q", header[4])
	}
}

func TestCSVService_ExportStreamsPerUser(t *testing.T) {
	attendances := &attendanceRepoStub{details: decemberDetails()}
	users := &userRepoStub{users: []persistence.User{
		{ID: "U001", Name: "山田太郎", GroupID: 2, EmployeeTypeID: 1},
		{ID: "U002", Name: "佐藤花子", GroupID: 1, EmployeeTypeID: 1},
		{ID: "U003", Name: "鈴木一郎", GroupID: 2, EmployeeTypeID: 1},
	}}
	groups := &groupRepoStub{groups: []persistence.Group{
		{ID: 1, Name: "営業部", Order: int64Ptr(1)},
		{ID: 2, Name: "開発部", Order: int64Ptr(2)},
	}}
	types := &typeRepoStub{types: []persistence.EmployeeType{
		{ID: 1, Name: "正社員", Order: int64Ptr(1)},
	}}
	svc := NewCSVService(NewAnalysisService(attendances, users, groups, types, testLocations()), nil)

	var buf bytes.Buffer
	if err := svc.Export(context.Background(), &buf, "2024-12", EncodingUTF8); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// One bounded range query per user, never a whole-period bulk load.
	if attendances.detailCalls != len(users.users) {
		t.Fatalf("detail queries = %d, want one per user (%d)", attendances.detailCalls, len(users.users))
	}

	records, err := csv.NewReader(bytes.NewReader(buf.Bytes()[len(utf8BOM):])).ReadAll()
	if err != nil {
		t.Fatalf("parse output: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("rows = %d, want header + 3 users", len(records))
	}
}

func TestCSVService_ExportBadInput(t *testing.T) {
	svc := newCSVServiceForTest(nil)
	var buf bytes.Buffer
	ctx := context.Background()

	var vErr *ValidationError
	if err := svc.Export(ctx, &buf, "2024-12", "ebcdic"); !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}

	var pErr *InvalidPeriodError
	if err := svc.Export(ctx, &buf, "2024-99", EncodingUTF8); !errors.As(err, &pErr) {
		t.Fatalf("expected InvalidPeriodError, got %v", err)
	}
}

func TestCSVService_MonthChoices(t *testing.T) {
	now := func() time.Time { return time.Date(2025, time.February, 10, 0, 0, 0, 0, time.UTC) }
	svc := NewCSVService(newAnalysisServiceForTest(nil), now)

	choices := svc.MonthChoices(3)
	if len(choices) != 3 {
		t.Fatalf("choices = %d", len(choices))
	}
	if choices[0].Value != "2025-02" || choices[0].Label != "2025年2月" {
		t.Errorf("first choice = %+v", choices[0])
	}
	if choices[2].Value != "2024-12" {
		t.Errorf("choices should step back across the year boundary, got %+v", choices[2])
	}
}
