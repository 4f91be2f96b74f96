package videocall

import (
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	gonanoid "github.com/matoous/go-nanoid"
	"go.uber.org/zap"
)

// Storage keys shared with other clients of the same store
const (
	NotificationsKey = "telemed_notifications"
	CurrentRoomKey   = "telemed_current_room"
)

// KV is the local key-value store the client persists to
type KV interface {
	Get(key string) (string, bool)
	Set(key, value string, expiration time.Duration) error
	Delete(key string) error
}

// OfflineMirror keeps a local copy of requests under NotificationsKey.
// Other writers sharing the key are not coordinated with.
type OfflineMirror struct {
	mu     sync.Mutex
	kv     KV
	clock  clock.Clock
	logger *zap.Logger
}

// NewOfflineMirror creates a mirror over kv; clk and logger may be nil
func NewOfflineMirror(kv KV, clk clock.Clock, logger *zap.Logger) *OfflineMirror {
	if clk == nil {
		clk = clock.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OfflineMirror{kv: kv, clock: clk, logger: logger}
}

// All returns every mirrored request
func (m *OfflineMirror) All() []*Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.load()
}

// Get returns the mirrored request with id
func (m *OfflineMirror) Get(id string) (*Request, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range m.load() {
		if r.ID == id {
			return r, true
		}
	}
	return nil, false
}

// Pending returns mirrored requests still pending, in stored order
func (m *OfflineMirror) Pending() []*Request {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*Request, 0)
	for _, r := range m.load() {
		if Status(r.Status) == StatusPending {
			out = append(out, r)
		}
	}
	return out
}

// Upsert stores r, replacing a record with the same id
func (m *OfflineMirror) Upsert(r *Request) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	reqs := m.load()
	for i, existing := range reqs {
		if existing.ID == r.ID {
			reqs[i] = r
			return m.save(reqs)
		}
	}
	return m.save(append(reqs, r))
}

// Replace overwrites the mirrored pending set with a fresh server view,
// keeping terminal records the server no longer lists
func (m *OfflineMirror) Replace(pending []*Request) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := make([]*Request, 0, len(pending))
	seen := make(map[string]struct{}, len(pending))
	for _, r := range pending {
		next = append(next, r)
		seen[r.ID] = struct{}{}
	}
	for _, r := range m.load() {
		if _, ok := seen[r.ID]; ok || Status(r.Status) == StatusPending {
			continue
		}
		next = append(next, r)
	}
	return m.save(next)
}

// AddLocal records a submission made while the API was unreachable
func (m *OfflineMirror) AddLocal(caller Participant, calleeID *string, roomName string) (*Request, error) {
	now := m.clock.Now()
	id := "offline-" + strconv.FormatInt(now.UnixMilli(), 10)
	if suffix, err := gonanoid.Generate("0123456789abcdefghijklmnopqrstuvwxyz", 6); err == nil {
		id += "-" + suffix
	}
	r := &Request{
		ID:          id,
		CallerID:    caller.ID,
		CallerName:  caller.Name,
		CallerEmail: caller.Email,
		CalleeID:    calleeID,
		RoomName:    roomName,
		Status:      string(StatusPending),
		Timestamp:   now.UTC().Format(time.RFC3339Nano),
		CreatedAt:   now.UnixMilli(),
	}
	if err := m.Upsert(r); err != nil {
		return nil, err
	}
	return r, nil
}

// Resolve marks a mirrored request accepted or declined. Unknown ids and
// already resolved records are left untouched.
func (m *OfflineMirror) Resolve(id string, status Status, callee *Participant) (*Request, error) {
	if !status.IsTerminal() {
		return nil, fmt.Errorf("%w: cannot resolve to %q", ErrValidation, status)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	reqs := m.load()
	for _, r := range reqs {
		if r.ID != id {
			continue
		}
		if Status(r.Status).IsTerminal() {
			return nil, ErrAlreadyResolved
		}
		now := m.clock.Now()
		r.Status = string(status)
		if status == StatusAccepted {
			r.AcceptedAt = &now
			r.CalleeInfo = callee
		} else {
			r.DeclinedAt = &now
		}
		if err := m.save(reqs); err != nil {
			return nil, err
		}
		return r, nil
	}
	return nil, ErrNotFound
}

// Purge removes records created strictly before now-maxAge and returns how many
func (m *OfflineMirror) Purge(maxAge time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.clock.Now().Add(-maxAge).UnixMilli()
	reqs := m.load()
	kept := reqs[:0]
	for _, r := range reqs {
		if createdAtMillis(r) >= cutoff {
			kept = append(kept, r)
		}
	}
	removed := int64(len(reqs) - len(kept))
	if removed == 0 {
		return 0, nil
	}
	if err := m.save(kept); err != nil {
		return 0, err
	}
	return removed, nil
}

// Clear drops the mirror
func (m *OfflineMirror) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.kv.Delete(NotificationsKey)
}

func (m *OfflineMirror) load() []*Request {
	raw, ok := m.kv.Get(NotificationsKey)
	if !ok || raw == "" {
		return []*Request{}
	}
	var reqs []*Request
	if err := json.Unmarshal([]byte(raw), &reqs); err != nil {
		m.logger.Warn("videocall.offline.corrupt_mirror", zap.Error(err))
		return []*Request{}
	}
	return reqs
}

func (m *OfflineMirror) save(reqs []*Request) error {
	data, err := json.Marshal(reqs)
	if err == nil {
		err = m.kv.Set(NotificationsKey, string(data), 0)
	}
	if err != nil {
		m.logger.Error("videocall.offline.save_failed", zap.Error(err))
		return fmt.Errorf("failed to save offline mirror: %w", err)
	}
	return nil
}

// createdAtMillis falls back to the ISO timestamp for records written by
// clients that only set it
func createdAtMillis(r *Request) int64 {
	if r.CreatedAt > 0 {
		return r.CreatedAt
	}
	if t, err := time.Parse(time.RFC3339Nano, r.Timestamp); err == nil {
		return t.UnixMilli()
	}
	return 0
}
