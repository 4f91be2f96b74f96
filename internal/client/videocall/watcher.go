package videocall

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	dto "github.com/johnquangdev/telemed-assistant/internal/adapter/dto/videocall"
)

// Event is one frame of the server event stream
type Event = dto.EventMessage

// WatcherConfig tunes a Watcher
type WatcherConfig struct {
	PollInterval   time.Duration // fallback polling cadence
	ConnectTimeout time.Duration // how long to retry the push channel before polling
	RetryPushAfter time.Duration // how long to poll before trying the push channel again
}

// Watcher follows request changes over the WebSocket event stream and
// degrades to polling while the stream cannot be established
type Watcher struct {
	service *Service
	poller  *Poller
	dialer  *websocket.Dialer
	cfg     WatcherConfig
	logger  *zap.Logger
}

// NewWatcher creates a watcher for service
func NewWatcher(service *Service, cfg WatcherConfig, logger *zap.Logger) *Watcher {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 15 * time.Second
	}
	if cfg.RetryPushAfter <= 0 {
		cfg.RetryPushAfter = time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		service: service,
		poller:  NewPoller(service, service.cfg.Clock, logger),
		dialer:  &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		cfg:     cfg,
		logger:  logger,
	}
}

// Watch blocks until ctx is done. onEvent receives pushed frames; onPoll
// receives a full pending snapshot on every (re)connect and every poll tick
// while in fallback mode.
func (w *Watcher) Watch(ctx context.Context, onEvent func(Event), onPoll func(PollResult)) error {
	defer w.poller.Stop()

	polling := false
	for {
		conn, err := w.connect(ctx)
		if err == nil {
			if polling {
				w.poller.Stop()
				polling = false
			}
			w.logger.Info("videocall.client.push_connected")
			if onPoll != nil {
				res := w.service.PendingRequests(ctx)
				onPoll(PollResult{Requests: res.Requests, Added: res.Requests, Offline: res.Offline})
			}

			err = w.read(ctx, conn, onEvent)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			w.logger.Warn("videocall.client.push_dropped", zap.Error(err))
			continue
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if !polling {
			w.logger.Warn("videocall.client.push_unavailable", zap.Error(err))
			w.poller.Start(ctx, w.cfg.PollInterval, onPoll)
			polling = true
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.service.cfg.Clock.After(w.cfg.RetryPushAfter):
		}
	}
}

// connect dials the event stream with exponential backoff
func (w *Watcher) connect(ctx context.Context) (*websocket.Conn, error) {
	target, err := w.service.api.EventsURL()
	if err != nil {
		return nil, err
	}

	var conn *websocket.Conn
	dialFn := func() error {
		c, resp, err := w.dialer.DialContext(ctx, target, nil)
		if err != nil {
			if resp != nil && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
				return backoff.Permanent(fmt.Errorf("event stream rejected: %s", resp.Status))
			}
			return err
		}
		conn = c
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 500 * time.Millisecond
	bo.MaxInterval = 5 * time.Second
	bo.MaxElapsedTime = w.cfg.ConnectTimeout

	if err := backoff.Retry(dialFn, backoff.WithContext(bo, ctx)); err != nil {
		return nil, err
	}
	return conn, nil
}

// read forwards frames until the connection fails or ctx is done
func (w *Watcher) read(ctx context.Context, conn *websocket.Conn, onEvent func(Event)) error {
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			_ = conn.Close()
		case <-stop:
			_ = conn.Close()
		}
	}()

	for {
		var ev Event
		if err := conn.ReadJSON(&ev); err != nil {
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) && closeErr.Code == websocket.CloseNormalClosure {
				return errors.New("event stream closed by server")
			}
			return err
		}
		if ev.Request != nil {
			w.mirror(ev)
		}
		if onEvent != nil {
			onEvent(ev)
		}
	}
}

// mirror keeps the offline copy current while pushed frames arrive
func (w *Watcher) mirror(ev Event) {
	if err := w.service.mirror.Upsert(ev.Request); err != nil {
		w.logger.Warn("videocall.client.mirror_failed", zap.String("request_id", ev.Request.ID), zap.Error(err))
	}
}
