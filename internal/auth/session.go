package auth

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// MethodOIDC marks a session established through the OIDC flow.
	MethodOIDC = "oidc"
	// MethodLocalAdmin marks a session established by local-admin login.
	MethodLocalAdmin = "local_admin"

	sessionCookieName = "attendance_session"
	flashCookieName   = "attendance_flash"

	flashTTL = 10 * time.Minute
)

// Session is the authenticated principal carried by the signed cookie.
// It holds only what the gate needs; access and refresh tokens are
// never persisted to it.
type Session struct {
	Method   string
	Subject  string
	Username string
	// IDToken is kept solely for the provider's end-session call.
	IDToken string
}

// Flash carries one-shot values across the OIDC redirect round trip:
// the pending state and nonce, the path to return to, and an error
// message for the login page.
type Flash struct {
	State string `json:"state,omitempty"`
	Nonce string `json:"nonce,omitempty"`
	Next  string `json:"next,omitempty"`
	Error string `json:"error,omitempty"`
}

type sessionClaims struct {
	Method   string `json:"method"`
	Username string `json:"username,omitempty"`
	IDToken  string `json:"id_token,omitempty"`
	jwt.RegisteredClaims
}

type flashClaims struct {
	Flash
	jwt.RegisteredClaims
}

// SessionCodec signs and verifies the session and flash cookies using
// HMAC-SHA256.
type SessionCodec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSessionCodec builds a codec. The secret must not be empty.
func NewSessionCodec(secret string, ttl time.Duration, now func() time.Time) (*SessionCodec, error) {
	if secret == "" {
		return nil, fmt.Errorf("セッション署名キーが設定されていません")
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	if now == nil {
		now = time.Now
	}
	return &SessionCodec{secret: []byte(secret), ttl: ttl, now: now}, nil
}

// Encode signs a session into a compact token.
func (c *SessionCodec) Encode(session Session) (string, error) {
	issued := c.now()
	claims := &sessionClaims{
		Method:   session.Method,
		Username: session.Username,
		IDToken:  session.IDToken,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   session.Subject,
			ExpiresAt: jwt.NewNumericDate(issued.Add(c.ttl)),
			IssuedAt:  jwt.NewNumericDate(issued),
			NotBefore: jwt.NewNumericDate(issued),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(c.secret)
}

// Decode verifies a token and returns the session it carries.
func (c *SessionCodec) Decode(tokenString string) (Session, error) {
	claims := &sessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, c.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return Session{}, err
	}
	if !token.Valid {
		return Session{}, errors.New("auth: invalid session token")
	}
	return Session{
		Method:   claims.Method,
		Subject:  claims.Subject,
		Username: claims.Username,
		IDToken:  claims.IDToken,
	}, nil
}

func (c *SessionCodec) keyFunc(token *jwt.Token) (any, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	return c.secret, nil
}

// WriteSession sets the session cookie.
func (c *SessionCodec) WriteSession(w http.ResponseWriter, session Session) error {
	token, err := c.Encode(session)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(c.ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// ReadSession reads and verifies the session cookie. The second return
// is false for absent, expired, or tampered cookies.
func (c *SessionCodec) ReadSession(r *http.Request) (Session, bool) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		return Session{}, false
	}
	session, err := c.Decode(cookie.Value)
	if err != nil {
		return Session{}, false
	}
	return session, true
}

// ClearSession expires the session cookie.
func (c *SessionCodec) ClearSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// WriteFlash sets the short-lived one-shot cookie.
func (c *SessionCodec) WriteFlash(w http.ResponseWriter, flash Flash) error {
	issued := c.now()
	claims := &flashClaims{
		Flash: flash,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(issued.Add(flashTTL)),
			IssuedAt:  jwt.NewNumericDate(issued),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(flashTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// TakeFlash reads the one-shot cookie and clears it.
func (c *SessionCodec) TakeFlash(w http.ResponseWriter, r *http.Request) (Flash, bool) {
	cookie, err := r.Cookie(flashCookieName)
	if err != nil || cookie.Value == "" {
		return Flash{}, false
	}

	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	claims := &flashClaims{}
	token, err := jwt.ParseWithClaims(cookie.Value, claims, c.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil || !token.Valid {
		return Flash{}, false
	}
	return claims.Flash, true
}
