package handler

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnquangdev/telemed-assistant/internal/adapter/dto/videocall"
	"github.com/johnquangdev/telemed-assistant/internal/adapter/repository/memory"
	"github.com/johnquangdev/telemed-assistant/internal/domain/entities"
	"github.com/johnquangdev/telemed-assistant/internal/infrastructure/events"
	httpmw "github.com/johnquangdev/telemed-assistant/internal/infrastructure/http/middleware"
	videocallUsecase "github.com/johnquangdev/telemed-assistant/internal/usecase/videocall"
	"github.com/johnquangdev/telemed-assistant/pkg/config"
	"github.com/johnquangdev/telemed-assistant/pkg/jwt"
	pkgvalidator "github.com/johnquangdev/telemed-assistant/pkg/validator"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Environment: "test"},
		Auth:   config.AuthConfig{AccessSecret: "secret", Issuer: "smartmed", AdminRoles: []string{"admin"}},
		Telemed: config.TelemedConfig{
			StoreDriver:  "memory",
			BrokerDriver: "memory",
		},
	}
}

func newTestServer(t *testing.T, cfg *config.Config, service videocallUsecase.Service) *echo.Echo {
	t.Helper()

	e := echo.New()
	e.Validator = pkgvalidator.New()

	var tokens httpmw.TokenValidator
	if cfg.Auth.Enabled {
		tokens = jwt.NewManager(cfg.Auth.AccessSecret, cfg.Auth.Issuer)
	}

	router := NewRouter(cfg, NewVideoCallHandler(service, nil), NewEventsHandler(service, nil, nil, nil), nil, tokens, nil)
	router.Setup(e)
	return e
}

func newMemoryService(t *testing.T) videocallUsecase.Service {
	t.Helper()
	broker := events.NewMemoryBroker(nil)
	t.Cleanup(func() { _ = broker.Close() })
	return videocallUsecase.NewVideoCallService(memory.NewCallRequestStore(nil), broker, nil, nil, nil, nil, videocallUsecase.ServiceConfig{})
}

func do(e *echo.Echo, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func TestVideoCall_FullLifecycle(t *testing.T) {
	e := newTestServer(t, testConfig(), newMemoryService(t))

	rec := do(e, http.MethodPost, "/api/telemed/video-call-request",
		`{"callerId":"p-1","callerName":"John Doe","callerEmail":"john@example.com","roomName":"Room-1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var submitted videocall.SubmitResponse
	decode(t, rec, &submitted)
	assert.True(t, submitted.Success)
	assert.Equal(t, "Room-1", submitted.RoomName)
	assert.Equal(t, "Video call request sent to doctor", submitted.Message)
	require.NotEmpty(t, submitted.RequestID)

	rec = do(e, http.MethodGet, "/api/telemed/video-call-status/"+submitted.RequestID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var status videocall.StatusResponse
	decode(t, rec, &status)
	assert.Equal(t, "pending", status.Status)
	assert.Nil(t, status.CalleeInfo)

	rec = do(e, http.MethodGet, "/api/telemed/pending-requests", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var pending videocall.PendingRequestsResponse
	decode(t, rec, &pending)
	assert.True(t, pending.Success)
	require.Len(t, pending.Requests, 1)
	assert.Equal(t, "John Doe", pending.Requests[0].CallerName)
	assert.Nil(t, pending.Requests[0].CalleeID)

	rec = do(e, http.MethodPost, "/api/telemed/accept-request/"+submitted.RequestID, `{"calleeInfo":{"name":"Dr. X"}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var accepted videocall.AcceptResponse
	decode(t, rec, &accepted)
	assert.True(t, accepted.Success)
	assert.Equal(t, "Room-1", accepted.RoomName)
	assert.Equal(t, "John Doe", accepted.CallerInfo.Name)

	rec = do(e, http.MethodGet, "/api/telemed/video-call-status/"+submitted.RequestID, "")
	decode(t, rec, &status)
	assert.Equal(t, "accepted", status.Status)
	require.NotNil(t, status.CalleeInfo)
	assert.Equal(t, "Dr. X", status.CalleeInfo.Name)

	rec = do(e, http.MethodGet, "/api/telemed/pending-requests", "")
	decode(t, rec, &pending)
	assert.Empty(t, pending.Requests)
}

func TestVideoCall_StatusUnknownID(t *testing.T) {
	e := newTestServer(t, testConfig(), newMemoryService(t))

	rec := do(e, http.MethodGet, "/api/telemed/video-call-status/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var body videocall.ErrorResponse
	decode(t, rec, &body)
	assert.False(t, body.Success)
	assert.Equal(t, "Request not found", body.Error)
	assert.Equal(t, "REQUEST_NOT_FOUND", body.Code)
}

func TestVideoCall_SubmitValidation(t *testing.T) {
	e := newTestServer(t, testConfig(), newMemoryService(t))

	rec := do(e, http.MethodPost, "/api/telemed/video-call-request", `{"callerEmail":"john@example.com"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(e, http.MethodPost, "/api/telemed/video-call-request", `{"callerName":"John Doe","callerEmail":"not-an-email"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(e, http.MethodPost, "/api/telemed/video-call-request", `{"callerName":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var body videocall.ErrorResponse
	decode(t, rec, &body)
	assert.Equal(t, "INVALID_PAYLOAD", body.Code)
}

func TestVideoCall_SubmitGeneratesRoomName(t *testing.T) {
	e := newTestServer(t, testConfig(), newMemoryService(t))

	rec := do(e, http.MethodPost, "/api/telemed/video-call-request", `{"callerName":"John Doe"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var body videocall.SubmitResponse
	decode(t, rec, &body)
	assert.Regexp(t, `^SmartMed-\d+-[0-9a-z]{9}$`, body.RoomName)
}

func TestVideoCall_AcceptAndDeclineConflicts(t *testing.T) {
	service := newMemoryService(t)
	e := newTestServer(t, testConfig(), service)

	created, err := service.Submit(context.Background(), videocallUsecase.SubmitInput{
		Caller:   entities.ParticipantInfo{Name: "John Doe"},
		RoomName: "Room-1",
	})
	require.NoError(t, err)

	rec := do(e, http.MethodPost, "/api/telemed/accept-request/"+created.ID, `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "calleeInfo is required")

	rec = do(e, http.MethodPost, "/api/telemed/decline-request/"+created.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(e, http.MethodPost, "/api/telemed/accept-request/"+created.ID, `{"calleeInfo":{"name":"Dr. X"}}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	var body videocall.ErrorResponse
	decode(t, rec, &body)
	assert.Equal(t, "REQUEST_ALREADY_RESOLVED", body.Code)

	rec = do(e, http.MethodPost, "/api/telemed/decline-request/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestVideoCall_Cleanup(t *testing.T) {
	e := newTestServer(t, testConfig(), newMemoryService(t))

	rec := do(e, http.MethodPost, "/api/telemed/video-call-request", `{"callerName":"John Doe"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(e, http.MethodPost, "/api/telemed/cleanup-old-requests", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body videocall.CleanupResponse
	decode(t, rec, &body)
	assert.True(t, body.Success)
	assert.Zero(t, body.RemovedCount)

	time.Sleep(5 * time.Millisecond)
	rec = do(e, http.MethodPost, "/api/telemed/cleanup-old-requests", `{"maxAge":1}`)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &body)
	assert.Equal(t, int64(1), body.RemovedCount)

	rec = do(e, http.MethodPost, "/api/telemed/cleanup-old-requests", `{"maxAge":0}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVideoCall_CleanupHugeMaxAgeRemovesNothing(t *testing.T) {
	e := newTestServer(t, testConfig(), newMemoryService(t))

	rec := do(e, http.MethodPost, "/api/telemed/video-call-request", `{"callerName":"John Doe"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	time.Sleep(5 * time.Millisecond)

	for _, maxAge := range []string{"9223372036854", "9300000000000", "18446744073710", "9223372036854775807"} {
		rec = do(e, http.MethodPost, "/api/telemed/cleanup-old-requests", `{"maxAge":`+maxAge+`}`)
		require.Equal(t, http.StatusOK, rec.Code, maxAge)
		var body videocall.CleanupResponse
		decode(t, rec, &body)
		assert.Zero(t, body.RemovedCount, maxAge)
	}

	rec = do(e, http.MethodGet, "/api/telemed/pending-requests", "")
	var pending videocall.PendingRequestsResponse
	decode(t, rec, &pending)
	assert.Len(t, pending.Requests, 1)
}

func TestMaxAgeFromMillis(t *testing.T) {
	assert.Equal(t, 1500*time.Millisecond, maxAgeFromMillis(1500))
	assert.Equal(t, time.Duration(math.MaxInt64), maxAgeFromMillis(math.MaxInt64/int64(time.Millisecond)))
	assert.Equal(t, time.Duration(math.MaxInt64), maxAgeFromMillis(math.MaxInt64))
	assert.Positive(t, maxAgeFromMillis(math.MaxInt64/int64(time.Millisecond)-1))
}

type failingService struct {
	videocallUsecase.Service
}

func (failingService) ListPending(context.Context, *string) ([]*entities.CallRequest, error) {
	return nil, errors.New("store unavailable")
}

func (failingService) GetStatus(context.Context, string) (*videocallUsecase.StatusOutput, error) {
	return nil, errors.New("connection reset by peer")
}

func TestVideoCall_StoreFailures(t *testing.T) {
	e := newTestServer(t, testConfig(), failingService{})

	rec := do(e, http.MethodGet, "/api/telemed/pending-requests", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var pending videocall.PendingRequestsResponse
	decode(t, rec, &pending)
	assert.False(t, pending.Success)
	assert.NotNil(t, pending.Requests)
	assert.Empty(t, pending.Requests)
	assert.Equal(t, "Failed to get pending requests", pending.Error)

	rec = do(e, http.MethodGet, "/api/telemed/video-call-status/abc", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var body videocall.ErrorResponse
	decode(t, rec, &body)
	assert.Equal(t, "Failed to check request status", body.Error)
	assert.NotContains(t, rec.Body.String(), "connection reset")
}

func TestVideoCall_AuthEnabled(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.Enabled = true
	e := newTestServer(t, cfg, newMemoryService(t))
	tokens := jwt.NewManager("secret", "smartmed")

	rec := do(e, http.MethodGet, "/api/telemed/pending-requests", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(e, http.MethodGet, "/api/telemed/pending-requests", "", echo.HeaderAuthorization, "Bearer garbage")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	doctor, err := tokens.GenerateAccessToken("doc-1", "", "doctor", time.Minute)
	require.NoError(t, err)
	rec = do(e, http.MethodGet, "/api/telemed/pending-requests", "", echo.HeaderAuthorization, "Bearer "+doctor)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(e, http.MethodPost, "/api/telemed/cleanup-old-requests", "", echo.HeaderAuthorization, "Bearer "+doctor)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	admin, err := tokens.GenerateAccessToken("ops-1", "", "admin", time.Minute)
	require.NoError(t, err)
	rec = do(e, http.MethodPost, "/api/telemed/cleanup-old-requests", "", echo.HeaderAuthorization, "Bearer "+admin)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(e, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
