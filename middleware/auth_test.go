package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"restoflow-api/session"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestCookieStorePrefersBearer(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.AddCookie(&http.Cookie{Name: SessionCookie, Value: "from-cookie"})

	store := NewCookieStore(c, time.Hour)
	raw, ok := store.Load()
	require.True(t, ok)
	assert.Equal(t, "from-cookie", raw)

	c.Request.Header.Set("Authorization", "Bearer from-header")
	raw, ok = store.Load()
	require.True(t, ok)
	assert.Equal(t, "from-header", raw)
}

func TestCookieStoreSaveAndClear(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	store := NewCookieStore(c, 12*time.Hour)
	_, ok := store.Load()
	assert.False(t, ok)

	store.Save("signed")
	assert.Equal(t, "signed", store.Token())
	store.Clear()

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 2)
	assert.Equal(t, 12*60*60, cookies[0].MaxAge)
	assert.Equal(t, "signed", cookies[0].Value)
	assert.Negative(t, cookies[1].MaxAge)
}

func TestAdminPINRequired(t *testing.T) {
	pin, err := session.NewPIN("0000")
	require.NoError(t, err)

	r := gin.New()
	r.DELETE("/orders", AdminPINRequired(pin), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusForbidden},
		{"wrong", "1234", http.StatusForbidden},
		{"malformed", "00", http.StatusForbidden},
		{"correct", "0000", http.StatusNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodDelete, "/orders", nil)
			if tc.header != "" {
				req.Header.Set(AdminPINHeader, tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.want, w.Code)
		})
	}
}

func TestSessionRequired(t *testing.T) {
	pin, err := session.NewPIN("9999")
	require.NoError(t, err)
	gate := session.NewGate(pin, session.NewCodec("secret"))

	r := gin.New()
	r.GET("/cart", SessionRequired(gate), func(c *gin.Context) {
		c.String(http.StatusOK, GetSession(c).SessionID)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/cart", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	mem := &session.MemoryStore{}
	marker, err := gate.Login(mem, "9999")
	require.NoError(t, err)
	raw, _ := mem.Load()

	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, marker.SessionID, w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/cart", nil)
	req.Header.Set("Authorization", "Bearer forged.token.value")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
