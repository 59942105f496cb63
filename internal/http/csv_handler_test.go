package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/example/attendance-tracker/internal/application"
)

type csvServiceStub struct {
	month    string
	encoding string
	payload  string
	err      error
	choices  []application.MonthChoice
}

func (s *csvServiceStub) Export(ctx context.Context, w io.Writer, month, encoding string) error {
	s.month = month
	s.encoding = encoding
	if s.err != nil {
		return s.err
	}
	_, err := io.WriteString(w, s.payload)
	return err
}

func (s *csvServiceStub) MonthChoices(count int) []application.MonthChoice {
	return s.choices
}

func csvRouter(stub *csvServiceStub) http.Handler {
	return NewRouter(RouterConfig{CSV: NewCSVHandler(stub, nil)})
}

func TestCSVHandler_Download(t *testing.T) {
	t.Parallel()

	stub := &csvServiceStub{payload: "user_name,user_id\n"}
	router := csvRouter(stub)

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/csv/download?month=2024-12", nil))

	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", recorder.Code, http.StatusOK)
	}
	if stub.month != "2024-12" || stub.encoding != application.EncodingUTF8 {
		t.Fatalf("export call = month %q encoding %q", stub.month, stub.encoding)
	}
	if ct := recorder.Header().Get("Content-Type"); ct != "text/csv; charset=utf-8" {
		t.Fatalf("Content-Type = %q", ct)
	}
	if cd := recorder.Header().Get("Content-Disposition"); !strings.Contains(cd, "work_entries_2024-12.csv") {
		t.Fatalf("Content-Disposition = %q", cd)
	}
	if recorder.Body.String() != "user_name,user_id\n" {
		t.Fatalf("body = %q", recorder.Body.String())
	}
}

func TestCSVHandler_DownloadDefaultFilename(t *testing.T) {
	t.Parallel()

	stub := &csvServiceStub{payload: "data"}
	router := csvRouter(stub)

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/csv/download", nil))

	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", recorder.Code, http.StatusOK)
	}
	if cd := recorder.Header().Get("Content-Disposition"); !strings.Contains(cd, `"work_entries.csv"`) {
		t.Fatalf("Content-Disposition = %q", cd)
	}
}

func TestCSVHandler_DownloadShiftJIS(t *testing.T) {
	t.Parallel()

	stub := &csvServiceStub{payload: "data"}
	router := csvRouter(stub)

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/csv/download?month=2024-12&encoding=sjis", nil))

	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", recorder.Code, http.StatusOK)
	}
	if stub.encoding != application.EncodingShiftJIS {
		t.Fatalf("encoding = %q, want sjis", stub.encoding)
	}
	if ct := recorder.Header().Get("Content-Type"); ct != "text/csv; charset=Shift_JIS" {
		t.Fatalf("Content-Type = %q", ct)
	}
}

func TestCSVHandler_DownloadBadEncoding(t *testing.T) {
	t.Parallel()

	stub := &csvServiceStub{err: &application.ValidationError{FieldErrors: map[string]string{"encoding": "encoding must be utf-8 or sjis"}}}
	router := csvRouter(stub)

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/csv/download?encoding=utf-16", nil))

	if recorder.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want %d", recorder.Code, http.StatusUnprocessableEntity)
	}
	if !strings.Contains(recorder.Body.String(), "エンコーディングは utf-8 または sjis を指定してください。") {
		t.Fatalf("body = %q", recorder.Body.String())
	}
}

func TestCSVHandler_Months(t *testing.T) {
	t.Parallel()

	stub := &csvServiceStub{choices: []application.MonthChoice{
		{Value: "2024-12", Label: "2024年12月"},
		{Value: "2024-11", Label: "2024年11月"},
	}}
	router := csvRouter(stub)

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/csv/months", nil))

	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", recorder.Code, http.StatusOK)
	}

	var resp monthChoicesResponse
	if err := json.NewDecoder(recorder.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Months) != 2 || resp.Months[0].Value != "2024-12" {
		t.Fatalf("months = %+v", resp.Months)
	}
}
