package middleware

import (
	"net/http"
	"time"

	"github.com/vindeacy/RentSpotLimited-sub000/internal/core/domain"
	"github.com/vindeacy/RentSpotLimited-sub000/internal/usecase"
)

const (
	// AccessTokenCookie carries the short-lived access token.
	AccessTokenCookie = "accessToken"
	// RefreshTokenCookie carries the long-lived refresh token.
	RefreshTokenCookie = "refreshToken"
)

// CookieOptions configures the session cookies.
type CookieOptions struct {
	// Secure marks cookies Secure; enabled in production.
	Secure     bool
	Domain     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// CookieSessionManager writes, clears and reads the two session cookies. Both are
// HttpOnly, SameSite=Strict and scoped to Path=/.
type CookieSessionManager struct {
	opts CookieOptions
}

// NewCookieSessionManager constructs a manager; zero TTLs fall back to 15m and 7d.
func NewCookieSessionManager(opts CookieOptions) *CookieSessionManager {
	if opts.AccessTTL <= 0 {
		opts.AccessTTL = 15 * time.Minute
	}
	if opts.RefreshTTL <= 0 {
		opts.RefreshTTL = 7 * 24 * time.Hour
	}
	return &CookieSessionManager{opts: opts}
}

// SetSession writes both cookies for tokens.
func (m *CookieSessionManager) SetSession(w http.ResponseWriter, tokens domain.TokenPair) {
	http.SetCookie(w, m.cookie(AccessTokenCookie, tokens.AccessToken, int(m.opts.AccessTTL/time.Second)))
	http.SetCookie(w, m.cookie(RefreshTokenCookie, tokens.RefreshToken, int(m.opts.RefreshTTL/time.Second)))
}

// ClearSession overwrites both cookies with empty values expiring at the Unix epoch.
// Repeated calls emit identical cookies.
func (m *CookieSessionManager) ClearSession(w http.ResponseWriter) {
	for _, name := range []string{AccessTokenCookie, RefreshTokenCookie} {
		cookie := m.cookie(name, "", -1)
		cookie.Expires = time.Unix(0, 0).UTC()
		http.SetCookie(w, cookie)
	}
}

// ReadSession returns the access and refresh cookie values, empty when absent.
func (m *CookieSessionManager) ReadSession(r *http.Request) (string, string) {
	return cookieValue(r, AccessTokenCookie), cookieValue(r, RefreshTokenCookie)
}

// Writer binds the manager to a response for use as a usecase.SessionWriter.
func (m *CookieSessionManager) Writer(w http.ResponseWriter) usecase.SessionWriter {
	return sessionWriter{manager: m, w: w}
}

func (m *CookieSessionManager) cookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   m.opts.Domain,
		MaxAge:   maxAge,
		Secure:   m.opts.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	}
}

func cookieValue(r *http.Request, name string) string {
	cookie, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return cookie.Value
}

type sessionWriter struct {
	manager *CookieSessionManager
	w       http.ResponseWriter
}

func (s sessionWriter) SetSession(tokens domain.TokenPair) { s.manager.SetSession(s.w, tokens) }

func (s sessionWriter) ClearSession() { s.manager.ClearSession(s.w) }
