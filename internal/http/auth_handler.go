package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/example/attendance-tracker/internal/auth"
)

var (
	errStateMismatch = errors.New("認証状態が一致しません。最初からやり直してください。")
	errOIDCDisabled  = errors.New("外部認証は現在無効化されています。")
)

type oidcClient interface {
	AuthorizationURL(state, nonce string) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
	Userinfo(ctx context.Context, token *oauth2.Token) (auth.UserInfo, error)
	LogoutURL(idToken, postLogoutRedirect string) string
}

type AuthHandler struct {
	settings  *auth.Settings
	codec     *auth.SessionCodec
	oidc      oidcClient
	responder responder
	logger    *slog.Logger
}

func NewAuthHandler(settings *auth.Settings, codec *auth.SessionCodec, oidc oidcClient, logger *slog.Logger) *AuthHandler {
	base := defaultLogger(logger)
	return &AuthHandler{settings: settings, codec: codec, oidc: oidc, responder: newResponder(base), logger: base}
}

func (h *AuthHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "AuthHandler", operation, attrs...)
}

// LoginPage describes the available sign-in methods and surfaces any
// one-shot error stored by a previous redirect.
func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.codec == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	flash, _ := h.codec.TakeFlash(w, r)
	h.responder.writeJSON(r.Context(), w, http.StatusOK, loginPageResponse{
		OIDCEnabled:       h.settings.OIDCEnabled(),
		LocalAdminEnabled: h.settings.LocalAdminConfigured(),
		Next:              sanitizeNext(r.URL.Query().Get("next")),
		Error:             flash.Error,
	})
}

// AdminLoginPage is the local-admin variant of the login page, reachable
// even when the OIDC provider is down.
func (h *AuthHandler) AdminLoginPage(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.codec == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	flash, _ := h.codec.TakeFlash(w, r)
	h.responder.writeJSON(r.Context(), w, http.StatusOK, loginPageResponse{
		OIDCEnabled:       false,
		LocalAdminEnabled: h.settings.LocalAdminConfigured(),
		Next:              sanitizeNext(r.URL.Query().Get("next")),
		Error:             flash.Error,
	})
}

// Redirect starts the OIDC flow: a fresh state and nonce ride the flash
// cookie across the provider round trip.
func (h *AuthHandler) Redirect(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.codec == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	next := sanitizeNext(r.URL.Query().Get("next"))

	if h.oidc == nil {
		h.log(r.Context(), "Redirect").InfoContext(r.Context(), "oidc not configured, falling back to login page")
		http.Redirect(w, r, "/auth/login?next="+url.QueryEscape(next), http.StatusSeeOther)
		return
	}
	if !h.settings.OIDCEnabled() {
		h.log(r.Context(), "Redirect").ErrorContext(r.Context(), "oidc flow requested while disabled", "error_kind", "oidc_disabled")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errOIDCDisabled)
		return
	}

	state := uuid.NewString()
	nonce := uuid.NewString()

	if err := h.codec.WriteFlash(w, auth.Flash{State: state, Nonce: nonce, Next: next}); err != nil {
		h.log(r.Context(), "Redirect").ErrorContext(r.Context(), "failed to store login state", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusInternalServerError, nil)
		return
	}

	h.log(r.Context(), "Redirect", "next", next).InfoContext(r.Context(), "redirecting to oidc provider")
	http.Redirect(w, r, h.oidc.AuthorizationURL(state, nonce), http.StatusSeeOther)
}

// Callback completes the OIDC flow. A state mismatch is rejected
// outright; provider failures send the user back to the login page with
// a one-shot error so local-admin remains an escape hatch.
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.codec == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	logger := h.log(r.Context(), "Callback")

	flash, ok := h.codec.TakeFlash(w, r)
	state := r.URL.Query().Get("state")
	if !ok || flash.State == "" || state != flash.State {
		logger.ErrorContext(r.Context(), "oidc state mismatch", "error_kind", "state_mismatch")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errStateMismatch)
		return
	}

	next := sanitizeNext(flash.Next)

	code := r.URL.Query().Get("code")
	if code == "" || h.oidc == nil {
		logger.ErrorContext(r.Context(), "oidc callback without code", "error_kind", "provider_failure")
		h.failLogin(w, r, next)
		return
	}

	token, err := h.oidc.Exchange(r.Context(), code)
	if err != nil {
		logger.ErrorContext(r.Context(), "oidc code exchange failed", "error", err, "error_kind", "provider_failure")
		h.failLogin(w, r, next)
		return
	}

	info, err := h.oidc.Userinfo(r.Context(), token)
	if err != nil {
		logger.ErrorContext(r.Context(), "oidc userinfo fetch failed", "error", err, "error_kind", "provider_failure")
		h.failLogin(w, r, next)
		return
	}

	idToken, _ := token.Extra("id_token").(string)
	session := auth.Session{
		Method:   auth.MethodOIDC,
		Subject:  info.Subject,
		Username: info.Username,
		IDToken:  idToken,
	}
	if err := h.codec.WriteSession(w, session); err != nil {
		logger.ErrorContext(r.Context(), "failed to write session", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusInternalServerError, nil)
		return
	}

	logger.With("subject", info.Subject).InfoContext(r.Context(), "oidc login completed")
	http.Redirect(w, r, next, http.StatusSeeOther)
}

// LocalLogin authenticates the configured local administrator.
func (h *AuthHandler) LocalLogin(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.codec == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	if err := r.ParseForm(); err != nil {
		h.log(r.Context(), "LocalLogin", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to parse login form", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	username := strings.TrimSpace(r.PostFormValue("username"))
	next := sanitizeNext(r.PostFormValue("next"))
	logger := h.log(r.Context(), "LocalLogin", "username", username)

	if err := h.settings.VerifyLocalAdmin(username, r.PostFormValue("password")); err != nil {
		logger.ErrorContext(r.Context(), "local admin login rejected", "error", err, "error_kind", "invalid_credentials")
		if err := h.codec.WriteFlash(w, auth.Flash{Error: "ユーザー名またはパスワードが正しくありません。", Next: next}); err != nil {
			logger.ErrorContext(r.Context(), "failed to store login error", "error", err)
		}
		http.Redirect(w, r, "/auth/login/admin?error=local&next="+url.QueryEscape(next), http.StatusSeeOther)
		return
	}

	session := auth.Session{
		Method:   auth.MethodLocalAdmin,
		Subject:  username,
		Username: username,
	}
	if err := h.codec.WriteSession(w, session); err != nil {
		logger.ErrorContext(r.Context(), "failed to write session", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusInternalServerError, nil)
		return
	}

	logger.InfoContext(r.Context(), "local admin login completed")
	http.Redirect(w, r, next, http.StatusSeeOther)
}

// Logout clears the session. OIDC sessions are forwarded to the
// provider's end-session endpoint with an absolute return URL.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.codec == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	session, ok := h.codec.ReadSession(r)
	h.codec.ClearSession(w)

	logger := h.log(r.Context(), "Logout")

	if ok && session.Method == auth.MethodOIDC && h.oidc != nil {
		if target := h.oidc.LogoutURL(session.IDToken, absoluteURL(r, "/auth/login")); target != "" {
			logger.InfoContext(r.Context(), "redirecting to provider logout")
			http.Redirect(w, r, target, http.StatusSeeOther)
			return
		}
	}

	logger.InfoContext(r.Context(), "session cleared")
	http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
}

// Settings reports the current auth configuration. Local-admin only.
func (h *AuthHandler) Settings(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.codec == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	if !h.requireLocalAdmin(w, r, "Settings") {
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, authSettingsResponse{
		OIDCConfigured:    h.settings.OIDCConfigured(),
		OIDCEnabled:       h.settings.OIDCEnabled(),
		LocalAdminEnabled: h.settings.LocalAdminConfigured(),
	})
}

// ToggleOIDC flips the runtime OIDC switch. Local-admin only.
func (h *AuthHandler) ToggleOIDC(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.codec == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	if !h.requireLocalAdmin(w, r, "ToggleOIDC") {
		return
	}

	logger := h.log(r.Context(), "ToggleOIDC")

	store := h.settings.State()
	state, err := store.Load()
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to load auth state", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusInternalServerError, nil)
		return
	}

	state.OIDCEnabled = !state.OIDCEnabled
	if err := store.Save(state); err != nil {
		logger.ErrorContext(r.Context(), "failed to save auth state", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusInternalServerError, nil)
		return
	}

	logger.With("oidc_enabled", state.OIDCEnabled).InfoContext(r.Context(), "oidc toggle switched")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, authToggleResponse{OIDCEnabled: state.OIDCEnabled})
}

// failLogin stores the provider error for the login page and redirects
// there, keeping the originally requested path.
func (h *AuthHandler) failLogin(w http.ResponseWriter, r *http.Request, next string) {
	if err := h.codec.WriteFlash(w, auth.Flash{Error: "外部認証に失敗しました。時間をおいて再試行するか、管理者ログインを利用してください。", Next: next}); err != nil {
		h.log(r.Context(), "failLogin").ErrorContext(r.Context(), "failed to store login error", "error", err)
	}
	http.Redirect(w, r, "/auth/login?error=oidc&next="+url.QueryEscape(next), http.StatusSeeOther)
}

// requireLocalAdmin reads the session directly because /auth paths are
// exempt from the gate middleware.
func (h *AuthHandler) requireLocalAdmin(w http.ResponseWriter, r *http.Request, operation string) bool {
	session, ok := h.codec.ReadSession(r)
	if !ok || session.Method != auth.MethodLocalAdmin {
		h.log(r.Context(), operation, "error_kind", "forbidden").ErrorContext(r.Context(), "settings access without local admin session")
		h.responder.writeJSON(r.Context(), w, http.StatusForbidden, errorResponse{
			ErrorCode: "AUTH_FORBIDDEN",
			Message:   "この操作を実行する権限がありません。",
		})
		return false
	}
	return true
}

// sanitizeNext keeps post-login redirects on this host.
func sanitizeNext(next string) string {
	next = strings.TrimSpace(next)
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		return "/"
	}
	return next
}

func absoluteURL(r *http.Request, path string) string {
	scheme := "http"
	if r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
		scheme = "https"
	}
	return scheme + "://" + r.Host + path
}

type loginPageResponse struct {
	OIDCEnabled       bool   `json:"oidc_enabled"`
	LocalAdminEnabled bool   `json:"local_admin_enabled"`
	Next              string `json:"next"`
	Error             string `json:"error,omitempty"`
}

type authSettingsResponse struct {
	OIDCConfigured    bool `json:"oidc_configured"`
	OIDCEnabled       bool `json:"oidc_enabled"`
	LocalAdminEnabled bool `json:"local_admin_enabled"`
}

type authToggleResponse struct {
	OIDCEnabled bool `json:"oidc_enabled"`
}
