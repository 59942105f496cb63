package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/oauth2"

	"github.com/example/attendance-tracker/internal/auth"
	"github.com/example/attendance-tracker/internal/config"
)

type oidcClientStub struct {
	lastState string
	lastNonce string
	lastCode  string

	token       *oauth2.Token
	info        auth.UserInfo
	exchangeErr error
	userinfoErr error
	logoutURL   string
}

func (s *oidcClientStub) AuthorizationURL(state, nonce string) string {
	s.lastState = state
	s.lastNonce = nonce
	return "https://idp.example/protocol/openid-connect/auth?state=" + url.QueryEscape(state)
}

func (s *oidcClientStub) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	s.lastCode = code
	if s.exchangeErr != nil {
		return nil, s.exchangeErr
	}
	return s.token, nil
}

func (s *oidcClientStub) Userinfo(ctx context.Context, token *oauth2.Token) (auth.UserInfo, error) {
	if s.userinfoErr != nil {
		return auth.UserInfo{}, s.userinfoErr
	}
	return s.info, nil
}

func (s *oidcClientStub) LogoutURL(idToken, postLogoutRedirect string) string {
	if s.logoutURL == "" {
		return ""
	}
	return s.logoutURL + "?id_token_hint=" + url.QueryEscape(idToken) + "&post_logout_redirect_uri=" + url.QueryEscape(postLogoutRedirect)
}

type authTestEnv struct {
	handler  *AuthHandler
	router   http.Handler
	settings *auth.Settings
	codec    *auth.SessionCodec
	oidc     *oidcClientStub
}

func newAuthTestEnv(t *testing.T) *authTestEnv {
	t.Helper()

	cfg := config.Config{
		AuthEnabled:        true,
		OIDCIssuer:         "https://idp.example/realms/corp",
		OIDCClientID:       "attendance",
		OIDCClientSecret:   "secret",
		OIDCRedirectURL:    "http://app.example/auth/callback",
		LocalAuthEnabled:   true,
		LocalAdminUsername: "admin",
		LocalAdminPassword: "local-admin-pass",
	}
	settings := auth.NewSettings(cfg, auth.NewStateStore(filepath.Join(t.TempDir(), "auth_state.json")))

	codec, err := auth.NewSessionCodec("auth-handler-test-secret", time.Hour, time.Now)
	if err != nil {
		t.Fatalf("NewSessionCodec: %v", err)
	}

	oidc := &oidcClientStub{
		token: (&oauth2.Token{AccessToken: "provider-access-token"}).WithExtra(map[string]any{"id_token": "provider-id-token"}),
		info:  auth.UserInfo{Subject: "subject-1", Username: "yamada"},
	}

	handler := NewAuthHandler(settings, codec, oidc, nil)
	return &authTestEnv{
		handler:  handler,
		router:   NewRouter(RouterConfig{Auth: handler}),
		settings: settings,
		codec:    codec,
		oidc:     oidc,
	}
}

func copyCookies(req *http.Request, recorder *httptest.ResponseRecorder) {
	for _, cookie := range recorder.Result().Cookies() {
		if cookie.Value != "" {
			req.AddCookie(cookie)
		}
	}
}

func (env *authTestEnv) sessionFrom(t *testing.T, recorder *httptest.ResponseRecorder) auth.Session {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	copyCookies(req, recorder)
	session, ok := env.codec.ReadSession(req)
	if !ok {
		t.Fatal("expected a session cookie")
	}
	return session
}

func TestAuthHandler_RedirectStartsOIDCFlow(t *testing.T) {
	t.Parallel()

	env := newAuthTestEnv(t)

	recorder := httptest.NewRecorder()
	env.router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/auth/redirect?next=/analysis", nil))

	if recorder.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", recorder.Code, http.StatusSeeOther)
	}
	if env.oidc.lastState == "" || env.oidc.lastNonce == "" {
		t.Fatal("expected fresh state and nonce")
	}
	location := recorder.Header().Get("Location")
	if !strings.HasPrefix(location, "https://idp.example/") {
		t.Fatalf("Location = %q, want provider URL", location)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	copyCookies(req, recorder)
	flash, ok := env.codec.TakeFlash(httptest.NewRecorder(), req)
	if !ok {
		t.Fatal("expected flash cookie")
	}
	if flash.State != env.oidc.lastState || flash.Nonce != env.oidc.lastNonce || flash.Next != "/analysis" {
		t.Fatalf("flash = %+v", flash)
	}
}

func TestAuthHandler_RedirectRejectedWhenToggleOff(t *testing.T) {
	t.Parallel()

	env := newAuthTestEnv(t)
	if err := env.settings.State().Save(auth.State{OIDCEnabled: false}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	recorder := httptest.NewRecorder()
	env.router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/auth/redirect?next=/analysis", nil))

	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", recorder.Code, http.StatusBadRequest)
	}
	if !strings.Contains(recorder.Body.String(), "外部認証は現在無効化されています。") {
		t.Fatalf("body = %q", recorder.Body.String())
	}
	if cookies := recorder.Result().Cookies(); len(cookies) != 0 {
		t.Fatalf("no flash cookie expected, got %d", len(cookies))
	}
}

func TestAuthHandler_RedirectFallsBackWhenUnconfigured(t *testing.T) {
	t.Parallel()

	env := newAuthTestEnv(t)
	handler := NewAuthHandler(env.settings, env.codec, nil, nil)
	router := NewRouter(RouterConfig{Auth: handler})

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/auth/redirect?next=/analysis", nil))

	if recorder.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", recorder.Code, http.StatusSeeOther)
	}
	if location := recorder.Header().Get("Location"); !strings.HasPrefix(location, "/auth/login?next=") {
		t.Fatalf("Location = %q, want login fallback", location)
	}
}

func TestAuthHandler_CallbackStateMismatch(t *testing.T) {
	t.Parallel()

	env := newAuthTestEnv(t)

	seed := httptest.NewRecorder()
	if err := env.codec.WriteFlash(seed, auth.Flash{State: "expected-state", Nonce: "n", Next: "/analysis"}); err != nil {
		t.Fatalf("WriteFlash: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/auth/callback?code=abc&state=forged-state", nil)
	copyCookies(req, seed)

	recorder := httptest.NewRecorder()
	env.router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", recorder.Code, http.StatusBadRequest)
	}

	check := httptest.NewRequest(http.MethodGet, "/", nil)
	copyCookies(check, recorder)
	if _, ok := env.codec.ReadSession(check); ok {
		t.Fatal("state mismatch must not create a session")
	}
}

func TestAuthHandler_CallbackSuccess(t *testing.T) {
	t.Parallel()

	env := newAuthTestEnv(t)

	seed := httptest.NewRecorder()
	if err := env.codec.WriteFlash(seed, auth.Flash{State: "good-state", Nonce: "n", Next: "/analysis"}); err != nil {
		t.Fatalf("WriteFlash: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/auth/callback?code=authcode&state=good-state", nil)
	copyCookies(req, seed)

	recorder := httptest.NewRecorder()
	env.router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d: %s", recorder.Code, http.StatusSeeOther, recorder.Body.String())
	}
	if location := recorder.Header().Get("Location"); location != "/analysis" {
		t.Fatalf("Location = %q, want /analysis", location)
	}
	if env.oidc.lastCode != "authcode" {
		t.Fatalf("exchanged code = %q", env.oidc.lastCode)
	}

	session := env.sessionFrom(t, recorder)
	if session.Method != auth.MethodOIDC || session.Subject != "subject-1" || session.Username != "yamada" {
		t.Fatalf("session = %+v", session)
	}
	if session.IDToken != "provider-id-token" {
		t.Fatalf("id token = %q", session.IDToken)
	}
}

func TestAuthHandler_CallbackProviderFailure(t *testing.T) {
	t.Parallel()

	env := newAuthTestEnv(t)
	env.oidc.exchangeErr = errors.New("connection refused")

	seed := httptest.NewRecorder()
	if err := env.codec.WriteFlash(seed, auth.Flash{State: "good-state", Nonce: "n", Next: "/analysis"}); err != nil {
		t.Fatalf("WriteFlash: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/auth/callback?code=authcode&state=good-state", nil)
	copyCookies(req, seed)

	recorder := httptest.NewRecorder()
	env.router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", recorder.Code, http.StatusSeeOther)
	}
	location := recorder.Header().Get("Location")
	if !strings.HasPrefix(location, "/auth/login?error=oidc") {
		t.Fatalf("Location = %q, want oidc error redirect", location)
	}
	if !strings.Contains(location, url.QueryEscape("/analysis")) {
		t.Fatalf("Location = %q, want original next", location)
	}

	check := httptest.NewRequest(http.MethodGet, "/", nil)
	copyCookies(check, recorder)
	flash, ok := env.codec.TakeFlash(httptest.NewRecorder(), check)
	if !ok || flash.Error == "" {
		t.Fatalf("flash = %+v, want one-shot error", flash)
	}
}

func TestAuthHandler_LocalLogin(t *testing.T) {
	t.Parallel()

	t.Run("valid credentials issue a local admin session", func(t *testing.T) {
		t.Parallel()

		env := newAuthTestEnv(t)

		form := url.Values{"username": {"admin"}, "password": {"local-admin-pass"}, "next": {"/analysis"}}
		req := httptest.NewRequest(http.MethodPost, "/auth/local", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		recorder := httptest.NewRecorder()
		env.router.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusSeeOther {
			t.Fatalf("status = %d, want %d", recorder.Code, http.StatusSeeOther)
		}
		if location := recorder.Header().Get("Location"); location != "/analysis" {
			t.Fatalf("Location = %q, want /analysis", location)
		}

		session := env.sessionFrom(t, recorder)
		if session.Method != auth.MethodLocalAdmin || session.Username != "admin" {
			t.Fatalf("session = %+v", session)
		}
	})

	t.Run("bad credentials bounce back to the admin login page", func(t *testing.T) {
		t.Parallel()

		env := newAuthTestEnv(t)

		form := url.Values{"username": {"admin"}, "password": {"wrong"}, "next": {"/analysis"}}
		req := httptest.NewRequest(http.MethodPost, "/auth/local", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		recorder := httptest.NewRecorder()
		env.router.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusSeeOther {
			t.Fatalf("status = %d, want %d", recorder.Code, http.StatusSeeOther)
		}
		if location := recorder.Header().Get("Location"); !strings.HasPrefix(location, "/auth/login/admin?error=local") {
			t.Fatalf("Location = %q", location)
		}

		check := httptest.NewRequest(http.MethodGet, "/", nil)
		copyCookies(check, recorder)
		if _, ok := env.codec.ReadSession(check); ok {
			t.Fatal("bad credentials must not create a session")
		}
	})
}

func TestAuthHandler_LogoutForwardsToProvider(t *testing.T) {
	t.Parallel()

	env := newAuthTestEnv(t)
	env.oidc.logoutURL = "https://idp.example/protocol/openid-connect/logout"

	seed := httptest.NewRecorder()
	session := auth.Session{Method: auth.MethodOIDC, Subject: "subject-1", Username: "yamada", IDToken: "provider-id-token"}
	if err := env.codec.WriteSession(seed, session); err != nil {
		t.Fatalf("WriteSession: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "http://app.example/auth/logout", nil)
	copyCookies(req, seed)

	recorder := httptest.NewRecorder()
	env.router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", recorder.Code, http.StatusSeeOther)
	}
	location := recorder.Header().Get("Location")
	if !strings.HasPrefix(location, "https://idp.example/protocol/openid-connect/logout") {
		t.Fatalf("Location = %q, want provider logout", location)
	}
	if !strings.Contains(location, url.QueryEscape("http://app.example/auth/login")) {
		t.Fatalf("Location = %q, want absolute post-logout URI", location)
	}
}

func TestAuthHandler_SettingsRequireLocalAdmin(t *testing.T) {
	t.Parallel()

	env := newAuthTestEnv(t)

	recorder := httptest.NewRecorder()
	env.router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/auth/settings", nil))

	if recorder.Code != http.StatusForbidden {
		t.Fatalf("anonymous status = %d, want %d", recorder.Code, http.StatusForbidden)
	}

	seed := httptest.NewRecorder()
	if err := env.codec.WriteSession(seed, auth.Session{Method: auth.MethodOIDC, Subject: "s", Username: "u"}); err != nil {
		t.Fatalf("WriteSession: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/auth/settings", nil)
	copyCookies(req, seed)

	recorder = httptest.NewRecorder()
	env.router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusForbidden {
		t.Fatalf("oidc session status = %d, want %d", recorder.Code, http.StatusForbidden)
	}
}

func TestAuthHandler_ToggleOIDC(t *testing.T) {
	t.Parallel()

	env := newAuthTestEnv(t)

	seed := httptest.NewRecorder()
	if err := env.codec.WriteSession(seed, auth.Session{Method: auth.MethodLocalAdmin, Subject: "admin", Username: "admin"}); err != nil {
		t.Fatalf("WriteSession: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/auth/settings/oidc/toggle", nil)
	copyCookies(req, seed)

	recorder := httptest.NewRecorder()
	env.router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", recorder.Code, http.StatusOK, recorder.Body.String())
	}

	var resp authToggleResponse
	if err := json.NewDecoder(recorder.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.OIDCEnabled {
		t.Fatal("toggle should flip the default on state to off")
	}
	if env.settings.OIDCEnabled() {
		t.Fatal("settings should report oidc disabled after toggle")
	}
}

func TestAuthHandler_LoginPageSurfacesFlashError(t *testing.T) {
	t.Parallel()

	env := newAuthTestEnv(t)

	seed := httptest.NewRecorder()
	if err := env.codec.WriteFlash(seed, auth.Flash{Error: "外部認証に失敗しました。", Next: "/analysis"}); err != nil {
		t.Fatalf("WriteFlash: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/auth/login?error=oidc&next=/analysis", nil)
	copyCookies(req, seed)

	recorder := httptest.NewRecorder()
	env.router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", recorder.Code, http.StatusOK)
	}

	var resp loginPageResponse
	if err := json.NewDecoder(recorder.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Error == "" || resp.Next != "/analysis" {
		t.Fatalf("response = %+v", resp)
	}
	if !resp.OIDCEnabled || !resp.LocalAdminEnabled {
		t.Fatalf("response = %+v, want both methods offered", resp)
	}
}
