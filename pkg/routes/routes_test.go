package routes

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gilanghuda/weekly-report-backend/app/controllers"
	"github.com/gilanghuda/weekly-report-backend/pkg/logger"
	"github.com/gilanghuda/weekly-report-backend/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(rateLimit int) *fiber.App {
	log := logger.Discard()
	return NewApp(Options{
		CORSOrigins:     "http://localhost:3000",
		RateLimitMax:    rateLimit,
		RateLimitWindow: time.Minute,
		Log:             log,
	}, Handlers{
		Auth:          &controllers.AuthController{Log: log},
		Users:         &controllers.UserController{Log: log},
		Reports:       &controllers.ReportController{Log: log},
		Review:        &controllers.ReviewController{Log: log},
		Notifications: &controllers.NotificationController{Notifier: utils.NewNotifier(log), Log: log},
		JWT:           utils.NewJWTManager("routes-secret", time.Hour),
	})
}

func call(t *testing.T, app *fiber.App, method, path string) (*http.Response, map[string]interface{}) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(method, path, nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]interface{}{}
	_ = json.Unmarshal(data, &out)
	return resp, out
}

func TestHealthz(t *testing.T) {
	resp, body := call(t, newTestApp(0), http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, resp.Header.Get(fiber.HeaderXRequestID))
}

func TestProtectedGroupsRequireToken(t *testing.T) {
	app := newTestApp(0)
	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/reports/myreports"},
		{http.MethodPost, "/api/reports"},
		{http.MethodGet, "/api/reports/stats"},
		{http.MethodPost, "/api/reports/00000000-0000-0000-0000-000000000000/approve"},
		{http.MethodGet, "/api/auth/me"},
		{http.MethodGet, "/api/auth/users"},
	} {
		resp, body := call(t, app, tc.method, tc.path)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, tc.path)
		assert.NotEmpty(t, body["error"], tc.path)
	}
}

func TestUploadsArePublic(t *testing.T) {
	// An invalid key is rejected before any storage access.
	resp, _ := call(t, newTestApp(0), http.MethodGet, "/api/reports/uploads/..%2Fsecret")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestWebsocketNeedsUpgrade(t *testing.T) {
	resp, body := call(t, newTestApp(0), http.MethodGet, "/api/ws")
	assert.Equal(t, http.StatusUpgradeRequired, resp.StatusCode)
	assert.NotEmpty(t, body["error"])
}

func TestUnknownRouteIsJSON(t *testing.T) {
	resp, body := call(t, newTestApp(0), http.MethodGet, "/nope")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.NotEmpty(t, body["error"])
}

func TestRateLimit(t *testing.T) {
	app := newTestApp(2)
	for i := 0; i < 2; i++ {
		resp, _ := call(t, app, http.MethodGet, "/api/auth/me")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	}
	resp, body := call(t, app, http.MethodGet, "/api/auth/me")
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "Too many requests", body["error"])

	resp, _ = call(t, app, http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
