package middleware

import (
	"net/http"
	"strings"
	"time"

	"restoflow-api/session"

	"github.com/gin-gonic/gin"
)

const (
	// SessionCookie holds the signed session marker in browsers
	SessionCookie = "restoflow_session"
	// KeypadCookie identifies a login screen's on-screen keypad
	KeypadCookie = "restoflow_keypad"
	// AdminPINHeader carries the PIN for destructive kitchen actions
	AdminPINHeader = "X-Admin-PIN"

	sessionKey = "session"
)

// CookieStore adapts one request/response pair to session.MarkerStore. A
// bearer token in the Authorization header takes precedence over the cookie
// so non-browser stations can hold the marker themselves.
type CookieStore struct {
	c      *gin.Context
	maxAge time.Duration
	saved  string
}

func NewCookieStore(c *gin.Context, maxAge time.Duration) *CookieStore {
	return &CookieStore{c: c, maxAge: maxAge}
}

func (s *CookieStore) Load() (string, bool) {
	if h := s.c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer "), true
	}
	raw, err := s.c.Cookie(SessionCookie)
	if err != nil {
		return "", false
	}
	return raw, true
}

func (s *CookieStore) Save(raw string) {
	s.saved = raw
	s.c.SetSameSite(http.SameSiteLaxMode)
	s.c.SetCookie(SessionCookie, raw, int(s.maxAge.Seconds()), "/", "", false, true)
}

// Token returns the marker written during this request, if any
func (s *CookieStore) Token() string {
	return s.saved
}

func (s *CookieStore) Clear() {
	s.c.SetCookie(SessionCookie, "", -1, "/", "", false, true)
}

// SessionRequired resumes the caller's session and rejects missing or
// expired ones
func SessionRequired(gate *session.Gate) gin.HandlerFunc {
	return func(c *gin.Context) {
		state, marker := gate.Resume(NewCookieStore(c, gate.TTL()))
		if state != session.Authenticated {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Session missing or expired, enter the PIN to continue"})
			c.Abort()
			return
		}
		c.Set(sessionKey, marker)
		c.Next()
	}
}

// AdminPINRequired guards destructive actions behind the admin PIN
func AdminPINRequired(pin *session.PIN) gin.HandlerFunc {
	return func(c *gin.Context) {
		entered := c.GetHeader(AdminPINHeader)
		if entered == "" {
			c.JSON(http.StatusForbidden, gin.H{"error": "Admin PIN required (" + AdminPINHeader + " header)"})
			c.Abort()
			return
		}
		if err := pin.Check(entered); err != nil {
			c.JSON(http.StatusForbidden, gin.H{"error": "Incorrect admin PIN"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetSession extracts the caller's marker from context
func GetSession(c *gin.Context) session.Marker {
	val, _ := c.Get(sessionKey)
	m, _ := val.(session.Marker)
	return m
}
