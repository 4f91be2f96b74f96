package videocall

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnquangdev/telemed-assistant/internal/infrastructure/cache"
)

type stubWidget struct {
	ready bool
	opens int
}

func (w *stubWidget) Ready() bool { return w.ready }

func (w *stubWidget) Open(roomName, _, _ string) (string, error) {
	w.opens++
	return "stub://" + roomName, nil
}

func TestLauncher_StoresRoomEvenWhenWidgetUnready(t *testing.T) {
	kv := cache.NewMemoryStore(nil)
	defer kv.Close()

	widget := &stubWidget{}
	l := NewLauncher(kv, widget, nil)

	_, err := l.Launch("Room-1", "Dr. X", "")
	assert.ErrorIs(t, err, ErrWidgetUnready)
	assert.Zero(t, widget.opens)

	room, ok := l.CurrentRoom()
	require.True(t, ok)
	assert.Equal(t, "Room-1", room)

	widget.ready = true
	joinURL, err := l.Launch("Room-1", "Dr. X", "")
	require.NoError(t, err)
	assert.Equal(t, "stub://Room-1", joinURL)

	require.NoError(t, l.Leave())
	_, ok = l.CurrentRoom()
	assert.False(t, ok)
}

func TestLauncher_StoreFailureAbortsLaunch(t *testing.T) {
	widget := &stubWidget{ready: true}

	_, err := NewLauncher(failingKV{}, widget, nil).Launch("Room-1", "Dr. X", "")
	assert.ErrorIs(t, err, errDiskFull)
	assert.Zero(t, widget.opens)
}

func TestLauncher_NilWidget(t *testing.T) {
	kv := cache.NewMemoryStore(nil)
	defer kv.Close()

	_, err := NewLauncher(kv, nil, nil).Launch("Room-1", "", "")
	assert.ErrorIs(t, err, ErrWidgetUnready)
}

func TestLauncher_RequiresRoomName(t *testing.T) {
	kv := cache.NewMemoryStore(nil)
	defer kv.Close()

	_, err := NewLauncher(kv, &stubWidget{ready: true}, nil).Launch("", "", "")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestJitsiWidget_Open(t *testing.T) {
	w := NewJitsiWidget("")
	assert.True(t, w.Ready())

	joinURL, err := w.Open("Clinic-1", "", "")
	require.NoError(t, err)
	assert.Equal(t, "https://meet.jit.si/Clinic-1", joinURL)

	joinURL, err = NewJitsiWidget("video.example.org").Open("Clinic-1", "Dr X", "")
	require.NoError(t, err)
	assert.Contains(t, joinURL, "https://video.example.org/Clinic-1#userInfo.displayName=")
	assert.Contains(t, joinURL, "Dr")
}

func TestLiveKitWidget_Open(t *testing.T) {
	w := NewLiveKitWidget("https://lk.example.org/join")
	assert.True(t, w.Ready())
	assert.False(t, NewLiveKitWidget("").Ready())

	_, err := w.Open("Clinic-1", "Dr. X", "")
	assert.ErrorIs(t, err, ErrWidgetUnready)

	joinURL, err := w.Open("Clinic-1", "Dr. X", "tok")
	require.NoError(t, err)
	assert.Equal(t, "https://lk.example.org/join?room=Clinic-1&token=tok", joinURL)
}
