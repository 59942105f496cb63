package application

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"time"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"

	"github.com/example/attendance-tracker/internal/calendar"
	"github.com/example/attendance-tracker/internal/persistence"
)

const (
	// EncodingUTF8 writes UTF-8 with a leading byte order mark.
	EncodingUTF8 = "utf-8"
	// EncodingShiftJIS writes Shift-JIS for legacy spreadsheets.
	EncodingShiftJIS = "sjis"

	// csvDefaultWindowDays is the export window when no month is given:
	// today and the preceding days up to this total.
	csvDefaultWindowDays = 90

	csvHeaderDateFormat = "2006/01/02"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVService streams the attendance matrix as CSV: one row per user,
// one column per date, each cell holding the location name.
type CSVService struct {
	analysis *AnalysisService
	now      func() time.Time
	logger   *slog.Logger
}

// NewCSVService constructs a CSV service over the aggregator.
func NewCSVService(analysis *AnalysisService, now func() time.Time) *CSVService {
	return NewCSVServiceWithLogger(analysis, now, nil)
}

// NewCSVServiceWithLogger constructs a CSV service with a specified logger.
func NewCSVServiceWithLogger(analysis *AnalysisService, now func() time.Time, logger *slog.Logger) *CSVService {
	if now == nil {
		now = time.Now
	}
	return &CSVService{analysis: analysis, now: now, logger: defaultLogger(logger)}
}

func (s *CSVService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "CSVService", operation, attrs...)
}

// Export writes the attendance matrix to w. An empty month exports the
// current day and the preceding 89 days. Rows follow the aggregator's
// user ordering. The full matrix is never buffered; one record at a
// time goes through the csv writer.
func (s *CSVService) Export(ctx context.Context, w io.Writer, monthStr, encoding string) (err error) {
	if s == nil {
		return fmt.Errorf("CSVService is nil")
	}

	logger := s.loggerWith(ctx, "Export", "month", monthStr, "encoding", encoding)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to export csv", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "csv exported")
	}()

	if encoding == "" {
		encoding = EncodingUTF8
	}
	switch encoding {
	case EncodingUTF8, EncodingShiftJIS:
	default:
		vErr := &ValidationError{}
		vErr.add("encoding", "encoding must be utf-8 or sjis")
		err = vErr
		return
	}

	from, to, periodErr := s.exportWindow(monthStr)
	if periodErr != nil {
		err = periodErr
		return
	}

	rows, locations, dirErr := s.analysis.directory(ctx)
	if dirErr != nil {
		err = dirErr
		return
	}
	locationNames := make(map[int64]string, len(locations))
	for _, loc := range locations {
		locationNames[loc.ID] = loc.Name
	}

	out := w
	if encoding == EncodingShiftJIS {
		sjis := transform.NewWriter(w, japanese.ShiftJIS.NewEncoder())
		defer func() {
			if closeErr := sjis.Close(); closeErr != nil && err == nil {
				err = closeErr
			}
		}()
		out = sjis
	} else {
		if _, err = w.Write(utf8BOM); err != nil {
			return
		}
	}

	writer := csv.NewWriter(out)

	dates := make([]time.Time, 0, int(to.Sub(from).Hours()/24)+1)
	header := []string{"user_name", "user_id", "group_name", "user_type_name"}
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
		header = append(header, d.Format(csvHeaderDateFormat))
	}
	if err = writer.Write(header); err != nil {
		return
	}

	// One range query per user keeps only a single row's dates in
	// memory at a time.
	record := make([]string, len(header))
	for _, row := range rows {
		details, listErr := s.analysis.attendances.ListAttendanceDetails(ctx, persistence.AttendanceFilter{
			UserID: row.userID,
			From:   &from,
			To:     &to,
		})
		if listErr != nil {
			err = mapRepoError(listErr)
			return
		}
		byDate := make(map[string]string, len(details))
		for _, d := range details {
			byDate[d.Date.Format(calendar.DateFormat)] = locationNames[d.LocationID]
		}

		record[0] = row.userName
		record[1] = row.userID
		record[2] = row.groupName
		record[3] = row.typeName
		for i, d := range dates {
			record[4+i] = byDate[d.Format(calendar.DateFormat)]
		}
		if err = writer.Write(record); err != nil {
			return
		}
		writer.Flush()
		if err = writer.Error(); err != nil {
			return
		}
	}

	writer.Flush()
	err = writer.Error()
	return
}

// MonthChoices returns the recent months offered by the export form,
// newest first.
func (s *CSVService) MonthChoices(count int) []MonthChoice {
	if count <= 0 {
		count = 12
	}
	now := s.now()
	month := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	choices := make([]MonthChoice, 0, count)
	for i := 0; i < count; i++ {
		choices = append(choices, MonthChoice{
			Value: month.Format(calendar.MonthFormat),
			Label: calendar.MonthName(month),
		})
		month = calendar.PrevMonth(month)
	}
	return choices
}

func (s *CSVService) exportWindow(monthStr string) (time.Time, time.Time, error) {
	if monthStr == "" {
		now := s.now()
		to := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		from := to.AddDate(0, 0, -(csvDefaultWindowDays - 1))
		return from, to, nil
	}
	month, err := calendar.ParseMonth(monthStr)
	if err != nil {
		return time.Time{}, time.Time{}, &InvalidPeriodError{Value: monthStr}
	}
	from, to := calendar.MonthRange(month)
	return from, to, nil
}
