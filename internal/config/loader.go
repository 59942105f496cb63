package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures environment driven configuration values for the attendance service.
type Config struct {
	HTTPPort     int
	SQLiteDSN    string
	HolidayCache string

	AuthEnabled   bool
	SessionSecret string
	SessionTTL    time.Duration
	AuthStatePath string

	OIDCIssuer       string
	OIDCClientID     string
	OIDCClientSecret string
	OIDCRedirectURL  string
	OIDCScopes       string
	OIDCHTTPTimeout  time.Duration

	OIDCAuthorizationEndpoint string
	OIDCTokenEndpoint         string
	OIDCUserinfoEndpoint      string
	OIDCLogoutEndpoint        string

	LocalAuthEnabled   bool
	LocalAdminUsername string
	LocalAdminPassword string
}

// OIDCConfigured reports whether the four mandatory OIDC options are all present.
func (c Config) OIDCConfigured() bool {
	return c.OIDCIssuer != "" && c.OIDCClientID != "" && c.OIDCClientSecret != "" && c.OIDCRedirectURL != ""
}

// LocalAdminConfigured reports whether local-admin login can be offered.
func (c Config) LocalAdminConfigured() bool {
	return c.LocalAuthEnabled && c.LocalAdminUsername != "" && c.LocalAdminPassword != ""
}

// Load parses configuration values from the current process environment.
//
// Optional fields fall back to defaults; values that are present but
// unparseable are collected and reported in a single localized error.
func Load() (Config, error) {
	cfg := Config{
		HTTPPort:        8000,
		SQLiteDSN:       "file:attendance.db?_pragma=foreign_keys(1)",
		HolidayCache:    "data/holidays_cache.json",
		SessionTTL:      3600 * time.Second,
		AuthStatePath:   "data/auth_state.json",
		OIDCScopes:      "openid profile email",
		OIDCHTTPTimeout: 3 * time.Second,
	}

	invalid := make([]string, 0, 2)

	if portValue := strings.TrimSpace(os.Getenv("HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 {
			invalid = append(invalid, "HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if dsn := strings.TrimSpace(os.Getenv("SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}
	if path := strings.TrimSpace(os.Getenv("HOLIDAY_CACHE_PATH")); path != "" {
		cfg.HolidayCache = path
	}

	if enabled, ok, err := lookupBool("AUTH_ENABLED"); err != nil {
		invalid = append(invalid, "AUTH_ENABLED")
	} else if ok {
		cfg.AuthEnabled = enabled
	}

	cfg.SessionSecret = strings.TrimSpace(os.Getenv("AUTH_SESSION_SECRET"))

	if ttlValue := strings.TrimSpace(os.Getenv("AUTH_SESSION_TTL_SECONDS")); ttlValue != "" {
		seconds, err := strconv.Atoi(ttlValue)
		if err != nil || seconds <= 0 {
			invalid = append(invalid, "AUTH_SESSION_TTL_SECONDS")
		} else {
			cfg.SessionTTL = time.Duration(seconds) * time.Second
		}
	}

	if path := strings.TrimSpace(os.Getenv("AUTH_STATE_PATH")); path != "" {
		cfg.AuthStatePath = path
	}

	cfg.OIDCIssuer = strings.TrimRight(strings.TrimSpace(os.Getenv("OIDC_ISSUER")), "/")
	cfg.OIDCClientID = strings.TrimSpace(os.Getenv("OIDC_CLIENT_ID"))
	cfg.OIDCClientSecret = strings.TrimSpace(os.Getenv("OIDC_CLIENT_SECRET"))
	cfg.OIDCRedirectURL = strings.TrimSpace(os.Getenv("OIDC_REDIRECT_URL"))

	if scopes := strings.TrimSpace(os.Getenv("OIDC_SCOPES")); scopes != "" {
		cfg.OIDCScopes = scopes
	}

	if timeoutValue := strings.TrimSpace(os.Getenv("OIDC_HTTP_TIMEOUT")); timeoutValue != "" {
		seconds, err := strconv.ParseFloat(timeoutValue, 64)
		if err != nil || seconds <= 0 {
			invalid = append(invalid, "OIDC_HTTP_TIMEOUT")
		} else {
			cfg.OIDCHTTPTimeout = time.Duration(seconds * float64(time.Second))
		}
	}

	cfg.OIDCAuthorizationEndpoint = strings.TrimSpace(os.Getenv("OIDC_AUTHORIZATION_ENDPOINT"))
	cfg.OIDCTokenEndpoint = strings.TrimSpace(os.Getenv("OIDC_TOKEN_ENDPOINT"))
	cfg.OIDCUserinfoEndpoint = strings.TrimSpace(os.Getenv("OIDC_USERINFO_ENDPOINT"))
	cfg.OIDCLogoutEndpoint = strings.TrimSpace(os.Getenv("OIDC_LOGOUT_ENDPOINT"))

	if enabled, ok, err := lookupBool("LOCAL_AUTH_ENABLED"); err != nil {
		invalid = append(invalid, "LOCAL_AUTH_ENABLED")
	} else if ok {
		cfg.LocalAuthEnabled = enabled
	}
	cfg.LocalAdminUsername = strings.TrimSpace(os.Getenv("LOCAL_ADMIN_USERNAME"))
	cfg.LocalAdminPassword = os.Getenv("LOCAL_ADMIN_PASSWORD")

	missing := make([]string, 0, 1)
	if cfg.AuthEnabled && cfg.SessionSecret == "" {
		missing = append(missing, "AUTH_SESSION_SECRET")
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("必須の環境変数が設定されていません: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("環境変数の値が不正です: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

func lookupBool(name string) (value bool, present bool, err error) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return false, false, nil
	}
	switch strings.ToLower(raw) {
	case "1", "true", "yes", "on":
		return true, true, nil
	case "0", "false", "no", "off":
		return false, true, nil
	}
	return false, false, fmt.Errorf("invalid bool: %s", raw)
}
