package videocall

import (
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"
)

// Widget opens the video conferencing UI for a room
type Widget interface {
	// Ready reports whether the widget can open a room now
	Ready() bool

	// Open joins roomName as displayName; token is empty for widgets that do not need one
	Open(roomName, displayName, token string) (joinURL string, err error)
}

// Launcher stores the current room and opens it in a widget
type Launcher struct {
	kv     KV
	widget Widget
	logger *zap.Logger
}

// NewLauncher creates a launcher that persists the room name in kv
func NewLauncher(kv KV, widget Widget, logger *zap.Logger) *Launcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Launcher{kv: kv, widget: widget, logger: logger}
}

// Launch records roomName under CurrentRoomKey and opens the widget.
// The room name is stored even when the widget is not ready, so a later
// retry can pick it up. A store failure aborts before the widget opens.
func (l *Launcher) Launch(roomName, displayName, token string) (string, error) {
	if roomName == "" {
		return "", fmt.Errorf("%w: room name is required", ErrValidation)
	}

	if err := l.kv.Set(CurrentRoomKey, roomName, 0); err != nil {
		return "", fmt.Errorf("failed to remember room: %w", err)
	}

	if l.widget == nil || !l.widget.Ready() {
		l.logger.Warn("videocall.client.widget_unready", zap.String("room_name", roomName))
		return "", ErrWidgetUnready
	}

	joinURL, err := l.widget.Open(roomName, displayName, token)
	if err != nil {
		return "", err
	}
	l.logger.Info("videocall.client.room_opened", zap.String("room_name", roomName))
	return joinURL, nil
}

// CurrentRoom returns the last launched room
func (l *Launcher) CurrentRoom() (string, bool) {
	return l.kv.Get(CurrentRoomKey)
}

// Leave forgets the current room
func (l *Launcher) Leave() error {
	return l.kv.Delete(CurrentRoomKey)
}

// JitsiWidget builds join links for a Jitsi Meet deployment
type JitsiWidget struct {
	domain string
}

// NewJitsiWidget creates a widget for domain, meet.jit.si when empty
func NewJitsiWidget(domain string) *JitsiWidget {
	if domain == "" {
		domain = "meet.jit.si"
	}
	return &JitsiWidget{domain: domain}
}

// Ready is true once a domain is configured
func (w *JitsiWidget) Ready() bool {
	return strings.TrimSpace(w.domain) != ""
}

// Open returns https://<domain>/<room> with the display name in the URL fragment
func (w *JitsiWidget) Open(roomName, displayName, _ string) (string, error) {
	u := url.URL{
		Scheme: "https",
		Host:   w.domain,
		Path:   "/" + roomName,
	}
	if displayName != "" {
		u.Fragment = fmt.Sprintf("userInfo.displayName=%q", displayName)
	}
	return u.String(), nil
}

// LiveKitWidget joins rooms on a LiveKit server with a server-issued token
type LiveKitWidget struct {
	serverURL string
}

// NewLiveKitWidget creates a widget for serverURL
func NewLiveKitWidget(serverURL string) *LiveKitWidget {
	return &LiveKitWidget{serverURL: serverURL}
}

// Ready is true once the server URL is known
func (w *LiveKitWidget) Ready() bool {
	return w.serverURL != ""
}

// Open returns the join URL; a token is required
func (w *LiveKitWidget) Open(roomName, _ string, token string) (string, error) {
	if token == "" {
		return "", ErrWidgetUnready
	}
	u, err := url.Parse(w.serverURL)
	if err != nil {
		return "", fmt.Errorf("invalid LiveKit URL: %w", err)
	}
	q := u.Query()
	q.Set("room", roomName)
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
