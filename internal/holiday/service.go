// Package holiday maintains the merged public-holiday overlay. Public
// holidays come from an on-disk JSON cache populated from the
// holidays-jp API, custom holidays come from the database, and the
// merged view is published atomically so read paths never block on a
// refresh.
package holiday

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"sync/atomic"
	"time"

	"github.com/example/attendance-tracker/internal/calendar"
	"github.com/example/attendance-tracker/internal/persistence"
)

// apiURLFormat is the holidays-jp per-year endpoint. The response body
// is a flat JSON object of "YYYY-MM-DD": "name" pairs.
const apiURLFormat = "https://holidays-jp.github.io/api/v1/%d/date.json"

// cacheFile is the on-disk layout of the public holiday cache.
type cacheFile struct {
	Holidays map[string]string `json:"holidays"`
}

// Service merges cached public holidays with user-defined holidays.
// Custom holidays win when both name the same date.
type Service struct {
	repo      persistence.HolidayRepository
	cachePath string
	client    *http.Client

	overlay atomic.Pointer[map[string]string]
}

// NewService builds a holiday service over the given repository and
// cache file path. The client is used for holidays-jp fetches; pass
// one with a short timeout.
func NewService(repo persistence.HolidayRepository, cachePath string, client *http.Client) *Service {
	if client == nil {
		client = &http.Client{Timeout: 3 * time.Second}
	}
	s := &Service{repo: repo, cachePath: cachePath, client: client}
	empty := map[string]string{}
	s.overlay.Store(&empty)
	return s
}

// Refresh rebuilds the merged overlay from the cache file and the
// current custom holiday rows and publishes it. A missing cache file
// is not an error; the overlay then carries custom holidays only.
func (s *Service) Refresh(ctx context.Context) error {
	cached, err := s.readCache()
	if err != nil {
		return err
	}

	merged := make(map[string]string, len(cached))
	for date, name := range cached {
		merged[date] = name
	}

	if s.repo != nil {
		customs, err := s.repo.ListCustomHolidays(ctx)
		if err != nil {
			return fmt.Errorf("独自休日の読み込みに失敗しました: %w", err)
		}
		for _, c := range customs {
			merged[c.Date.Format(calendar.DateFormat)] = c.Name
		}
	}

	s.overlay.Store(&merged)
	return nil
}

// IsHoliday reports whether the date is a holiday in the current
// overlay.
func (s *Service) IsHoliday(date time.Time) bool {
	_, ok := s.NameOf(date)
	return ok
}

// NameOf returns the holiday name for the date, if any.
func (s *Service) NameOf(date time.Time) (string, bool) {
	overlay := *s.overlay.Load()
	name, ok := overlay[date.Format(calendar.DateFormat)]
	return name, ok
}

// Range returns the holidays between from and to inclusive, sorted by
// date.
func (s *Service) Range(from, to time.Time) []persistence.CustomHoliday {
	overlay := *s.overlay.Load()
	var out []persistence.CustomHoliday
	for key, name := range overlay {
		date, err := time.Parse(calendar.DateFormat, key)
		if err != nil {
			continue
		}
		if date.Before(from) || date.After(to) {
			continue
		}
		out = append(out, persistence.CustomHoliday{Date: date, Name: name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// FetchYear downloads the public holidays for the year from the
// holidays-jp API, merges them into the cache file and refreshes the
// overlay. It returns the number of dates fetched.
func (s *Service) FetchYear(ctx context.Context, year int) (int, error) {
	return s.fetchFrom(ctx, fmt.Sprintf(apiURLFormat, year))
}

func (s *Service) fetchFrom(ctx context.Context, url string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("祝日データの取得に失敗しました: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("祝日データの取得に失敗しました: ステータス %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return 0, fmt.Errorf("祝日データの取得に失敗しました: %w", err)
	}
	fetched := map[string]string{}
	if err := json.Unmarshal(body, &fetched); err != nil {
		return 0, fmt.Errorf("祝日データの形式が不正です: %w", err)
	}

	cached, err := s.readCache()
	if err != nil {
		return 0, err
	}
	for date, name := range fetched {
		cached[date] = name
	}
	if err := s.writeCache(cached); err != nil {
		return 0, err
	}
	if err := s.Refresh(ctx); err != nil {
		return 0, err
	}
	return len(fetched), nil
}

func (s *Service) readCache() (map[string]string, error) {
	if s.cachePath == "" {
		return map[string]string{}, nil
	}
	data, err := os.ReadFile(s.cachePath)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("祝日キャッシュの読み込みに失敗しました: %w", err)
	}
	var file cacheFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("祝日キャッシュの形式が不正です: %w", err)
	}
	if file.Holidays == nil {
		file.Holidays = map[string]string{}
	}
	return file.Holidays, nil
}

func (s *Service) writeCache(holidays map[string]string) error {
	data, err := json.MarshalIndent(cacheFile{Holidays: holidays}, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(s.cachePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("祝日キャッシュの保存に失敗しました: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "holidays-*.json")
	if err != nil {
		return fmt.Errorf("祝日キャッシュの保存に失敗しました: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("祝日キャッシュの保存に失敗しました: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("祝日キャッシュの保存に失敗しました: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.cachePath); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("祝日キャッシュの保存に失敗しました: %w", err)
	}
	return nil
}
