package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// State is the runtime auth toggle persisted beside the database.
type State struct {
	OIDCEnabled bool `json:"oidc_enabled"`
}

// StateStore reads and writes the toggle file. Reads happen on every
// guarded request so toggles take effect without a restart; saves go
// through a temp file rename so a crashed write never leaves a torn
// file behind.
type StateStore struct {
	path string
	mu   sync.Mutex
}

// NewStateStore builds a store over the given file path.
func NewStateStore(path string) *StateStore {
	return &StateStore{path: path}
}

// Load reads the current state. A missing file means OIDC is enabled.
func (s *StateStore) Load() (State, error) {
	if s == nil || s.path == "" {
		return State{OIDCEnabled: true}, nil
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return State{OIDCEnabled: true}, nil
	}
	if err != nil {
		return State{}, fmt.Errorf("認証設定ファイルの読み込みに失敗しました: %w", err)
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return State{}, fmt.Errorf("認証設定ファイルの形式が不正です: %w", err)
	}
	return state, nil
}

// Save persists the state atomically.
func (s *StateStore) Save(state State) error {
	if s == nil || s.path == "" {
		return fmt.Errorf("認証設定ファイルのパスが設定されていません")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("認証設定ファイルの保存に失敗しました: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "auth_state-*.json")
	if err != nil {
		return fmt.Errorf("認証設定ファイルの保存に失敗しました: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("認証設定ファイルの保存に失敗しました: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("認証設定ファイルの保存に失敗しました: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("認証設定ファイルの保存に失敗しました: %w", err)
	}
	return nil
}
