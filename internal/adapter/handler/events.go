package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/telemed-assistant/internal/adapter/presenter"
	"github.com/johnquangdev/telemed-assistant/internal/infrastructure/events"
	"github.com/johnquangdev/telemed-assistant/internal/infrastructure/metrics"
	videocallUsecase "github.com/johnquangdev/telemed-assistant/internal/usecase/videocall"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 20 * time.Second
)

// Events streams request events to WebSocket clients
type Events struct {
	service  videocallUsecase.Service
	upgrader websocket.Upgrader
	metrics  *metrics.Recorder
	logger   *zap.Logger
}

// NewEventsHandler creates a new event stream handler. An empty
// allowedOrigins or one containing "*" accepts any origin.
func NewEventsHandler(service videocallUsecase.Service, allowedOrigins []string, recorder *metrics.Recorder, logger *zap.Logger) *Events {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Events{
		service:  service,
		upgrader: websocket.Upgrader{CheckOrigin: originChecker(allowedOrigins)},
		metrics:  recorder,
		logger:   logger,
	}
}

// Stream handles GET /events
// @Summary      Subscribe to request events
// @Description  WebSocket stream of {type, request} frames: request.created, request.accepted, request.declined, requests.purged
// @Tags         VideoCall
// @Security     BearerAuth
// @Success      101
// @Router       /events [get]
func (h *Events) Stream(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// the upgrader has already written the HTTP error
		h.logger.Warn("events.upgrade_failed", zap.Error(err))
		return nil
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()

	stream, err := h.service.Subscribe(ctx)
	if err != nil {
		h.logger.Error("events.subscribe_failed", zap.Error(err))
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "subscribe failed"),
			time.Now().Add(writeWait))
		return nil
	}

	h.metrics.SubscriberConnected()
	defer h.metrics.SubscriberDisconnected()
	h.logger.Info("events.client.connected", zap.String("remote", c.RealIP()))

	go h.readPump(conn, cancel)
	h.writePump(ctx, conn, stream)

	h.logger.Info("events.client.disconnected", zap.String("remote", c.RealIP()))
	return nil
}

// readPump drains client frames so pongs and close frames are processed
func (h *Events) readPump(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()

	conn.SetReadLimit(1024)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump is the only writer on conn
func (h *Events) writePump(ctx context.Context, conn *websocket.Conn, stream <-chan events.Event) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		case ev, ok := <-stream:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(presenter.ToEventMessage(ev)); err != nil {
				h.logger.Debug("events.write_failed", zap.Error(err))
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[o] = struct{}{}
	}
	if len(set) == 0 {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			// non-browser clients
			return true
		}
		_, ok := set[origin]
		return ok
	}
}
