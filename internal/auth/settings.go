package auth

import "github.com/example/attendance-tracker/internal/config"

// Settings resolves what the auth gate currently allows, combining the
// static configuration with the runtime toggle file.
type Settings struct {
	cfg   config.Config
	state *StateStore
}

// NewSettings builds the resolved auth settings.
func NewSettings(cfg config.Config, state *StateStore) *Settings {
	return &Settings{cfg: cfg, state: state}
}

// AuthEnabled reports whether the gate guards requests at all.
func (s *Settings) AuthEnabled() bool {
	return s != nil && s.cfg.AuthEnabled
}

// OIDCEnabled reports whether the OIDC flow may start right now: the
// provider must be fully configured and the runtime toggle on.
func (s *Settings) OIDCEnabled() bool {
	if s == nil || !s.cfg.OIDCConfigured() {
		return false
	}
	state, err := s.state.Load()
	if err != nil {
		return false
	}
	return state.OIDCEnabled
}

// OIDCConfigured reports whether the provider options are present,
// regardless of the toggle.
func (s *Settings) OIDCConfigured() bool {
	return s != nil && s.cfg.OIDCConfigured()
}

// LocalAdminConfigured reports whether local-admin login is available.
func (s *Settings) LocalAdminConfigured() bool {
	return s != nil && s.cfg.LocalAdminConfigured()
}

// VerifyLocalAdmin checks a local-admin credential pair.
func (s *Settings) VerifyLocalAdmin(username, password string) error {
	if !s.LocalAdminConfigured() {
		return ErrInvalidCredentials
	}
	if username != s.cfg.LocalAdminUsername {
		// Compare anyway to keep timing uniform across outcomes.
		_ = VerifyPassword(s.cfg.LocalAdminPassword, password)
		return ErrInvalidCredentials
	}
	return VerifyPassword(s.cfg.LocalAdminPassword, password)
}

// State exposes the toggle store for the settings endpoints.
func (s *Settings) State() *StateStore {
	return s.state
}
