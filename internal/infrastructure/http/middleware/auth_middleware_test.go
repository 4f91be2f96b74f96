package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnquangdev/telemed-assistant/internal/adapter/dto/videocall"
	"github.com/johnquangdev/telemed-assistant/pkg/jwt"
)

func newAuthServer(t *testing.T, m *jwt.Manager) *echo.Echo {
	t.Helper()
	e := echo.New()
	g := e.Group("", EchoAuth(m, nil))
	whoami := func(c echo.Context) error {
		return c.String(http.StatusOK, c.Get(UserIDKey).(string))
	}
	g.GET("/whoami", whoami)
	g.POST("/whoami", whoami)
	g.POST("/admin", whoami, RequireRole("admin"))
	return e
}

func serve(e *echo.Echo, method, target, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	if bearer != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body videocall.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Success)
	return body.Code
}

func TestEchoAuth(t *testing.T) {
	m := jwt.NewManager("secret", "smartmed")
	e := newAuthServer(t, m)

	token, err := m.GenerateAccessToken("pat-1", "john@example.com", "patient", time.Minute)
	require.NoError(t, err)

	t.Run("header", func(t *testing.T) {
		rec := serve(e, http.MethodGet, "/whoami", token)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "pat-1", rec.Body.String())
	})

	t.Run("missing", func(t *testing.T) {
		rec := serve(e, http.MethodGet, "/whoami", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "UNAUTHENTICATED", errorCode(t, rec))
	})

	t.Run("query token on GET", func(t *testing.T) {
		rec := serve(e, http.MethodGet, "/whoami?access_token="+token, "")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("query token ignored on POST", func(t *testing.T) {
		rec := serve(e, http.MethodPost, "/whoami?access_token="+token, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("garbage", func(t *testing.T) {
		rec := serve(e, http.MethodGet, "/whoami", "not-a-jwt")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "AUTH_INVALID_TOKEN", errorCode(t, rec))
	})

	t.Run("expired", func(t *testing.T) {
		expired, err := m.GenerateAccessToken("pat-1", "", "patient", -time.Minute)
		require.NoError(t, err)
		rec := serve(e, http.MethodGet, "/whoami", expired)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "AUTH_TOKEN_EXPIRED", errorCode(t, rec))
	})
}

func TestRequireRole(t *testing.T) {
	m := jwt.NewManager("secret", "smartmed")
	e := newAuthServer(t, m)

	patient, err := m.GenerateAccessToken("pat-1", "", "patient", time.Minute)
	require.NoError(t, err)
	admin, err := m.GenerateAccessToken("ops-1", "", "Admin", time.Minute)
	require.NoError(t, err)

	rec := serve(e, http.MethodPost, "/admin", patient)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "FORBIDDEN", errorCode(t, rec))

	rec = serve(e, http.MethodPost, "/admin", admin)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ops-1", rec.Body.String())
}
