package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func fixedNow() time.Time {
	return time.Date(2025, time.June, 1, 9, 0, 0, 0, time.UTC)
}

func newCodecForTest(t *testing.T) *SessionCodec {
	t.Helper()
	codec, err := NewSessionCodec("test-secret-at-least-some-bytes", time.Hour, fixedNow)
	if err != nil {
		t.Fatalf("NewSessionCodec: %v", err)
	}
	return codec
}

func TestSessionCodecRoundTrip(t *testing.T) {
	codec := newCodecForTest(t)

	session := Session{
		Method:   MethodOIDC,
		Subject:  "subject-1",
		Username: "yamada",
		IDToken:  "id-token-for-logout",
	}
	token, err := codec.Encode(session)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	decoded, err := codec.Decode(token)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if decoded != session {
		t.Fatalf("round trip mismatch: %+v != %+v", decoded, session)
	}
}

func TestSessionCodecRejectsTamperedToken(t *testing.T) {
	codec := newCodecForTest(t)

	token, err := codec.Encode(Session{Method: MethodLocalAdmin, Username: "admin"})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	tampered := token[:len(token)-2] + "xx"
	if _, err := codec.Decode(tampered); err == nil {
		t.Fatal("tampered token must not decode")
	}

	other, err := NewSessionCodec("a-different-secret-entirely", time.Hour, fixedNow)
	if err != nil {
		t.Fatalf("NewSessionCodec: %v", err)
	}
	if _, err := other.Decode(token); err == nil {
		t.Fatal("token signed with another secret must not decode")
	}
}

func TestSessionCodecRejectsExpiredToken(t *testing.T) {
	codec := newCodecForTest(t)

	token, err := codec.Encode(Session{Method: MethodOIDC, Subject: "s"})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	late, err := NewSessionCodec("test-secret-at-least-some-bytes", time.Hour, func() time.Time {
		return fixedNow().Add(2 * time.Hour)
	})
	if err != nil {
		t.Fatalf("NewSessionCodec: %v", err)
	}
	if _, err := late.Decode(token); err == nil {
		t.Fatal("expired token must not decode")
	}
}

func TestSessionCookieNeverCarriesAccessTokens(t *testing.T) {
	codec := newCodecForTest(t)
	rec := httptest.NewRecorder()

	err := codec.WriteSession(rec, Session{
		Method:   MethodOIDC,
		Subject:  "subject-1",
		Username: "yamada",
		IDToken:  "id-token",
	})
	if err != nil {
		t.Fatalf("WriteSession: %v", err)
	}

	setCookie := rec.Header().Get("Set-Cookie")
	if setCookie == "" {
		t.Fatal("no session cookie written")
	}
	for _, needle := range []string{"access_token", "refresh_token"} {
		if strings.Contains(setCookie, needle) {
			t.Errorf("cookie must not carry %s", needle)
		}
	}
	if !strings.Contains(setCookie, "HttpOnly") {
		t.Error("session cookie must be HttpOnly")
	}
}

func TestReadSessionMissingCookie(t *testing.T) {
	codec := newCodecForTest(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	if _, ok := codec.ReadSession(req); ok {
		t.Fatal("missing cookie should not yield a session")
	}
}

func TestFlashIsOneShot(t *testing.T) {
	codec := newCodecForTest(t)

	rec := httptest.NewRecorder()
	if err := codec.WriteFlash(rec, Flash{State: "abc", Nonce: "n", Next: "/attendance"}); err != nil {
		t.Fatalf("WriteFlash: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/auth/callback", nil)
	for _, cookie := range rec.Result().Cookies() {
		req.AddCookie(cookie)
	}

	rec2 := httptest.NewRecorder()
	flash, ok := codec.TakeFlash(rec2, req)
	if !ok {
		t.Fatal("flash should decode")
	}
	if flash.State != "abc" || flash.Next != "/attendance" {
		t.Fatalf("flash = %+v", flash)
	}

	cleared := false
	for _, cookie := range rec2.Result().Cookies() {
		if cookie.Name == flashCookieName && cookie.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("TakeFlash must clear the cookie")
	}
}
