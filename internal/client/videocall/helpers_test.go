package videocall

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/johnquangdev/telemed-assistant/internal/adapter/handler"
	"github.com/johnquangdev/telemed-assistant/internal/adapter/repository/memory"
	"github.com/johnquangdev/telemed-assistant/internal/infrastructure/cache"
	"github.com/johnquangdev/telemed-assistant/internal/infrastructure/events"
	usecase "github.com/johnquangdev/telemed-assistant/internal/usecase/videocall"
	"github.com/johnquangdev/telemed-assistant/pkg/config"
	pkgvalidator "github.com/johnquangdev/telemed-assistant/pkg/validator"
)

// startServer runs the real API over an in-memory store
func startServer(t *testing.T) (*httptest.Server, *usecase.VideoCallService) {
	t.Helper()

	broker := events.NewMemoryBroker(nil)
	t.Cleanup(func() { _ = broker.Close() })
	service := usecase.NewVideoCallService(memory.NewCallRequestStore(nil), broker, nil, nil, nil, nil, usecase.ServiceConfig{})

	cfg := &config.Config{Telemed: config.TelemedConfig{StoreDriver: "memory", BrokerDriver: "memory"}}
	e := echo.New()
	e.Validator = pkgvalidator.New()
	handler.NewRouter(cfg, handler.NewVideoCallHandler(service, nil), handler.NewEventsHandler(service, nil, nil, nil), nil, nil, nil).Setup(e)

	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return srv, service
}

// deadURL points at a port nothing listens on
func deadURL(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(echo.New())
	url := srv.URL
	srv.Close()
	return url + "/api/telemed"
}

func newClientService(t *testing.T, baseURL string) *Service {
	t.Helper()
	kv := cache.NewMemoryStore(nil)
	t.Cleanup(kv.Close)

	api := NewAPIClient(baseURL, WithTimeout(2*time.Second))
	return NewService(api, NewOfflineMirror(kv, nil, nil), Config{WaitInterval: 10 * time.Millisecond}, nil)
}
