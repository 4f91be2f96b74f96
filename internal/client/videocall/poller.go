package videocall

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
)

// PendingSource yields the current pending list
type PendingSource interface {
	PendingRequests(ctx context.Context) PendingResult
}

// PollResult is handed to the poll callback on every tick
type PollResult struct {
	Requests []*Request
	Added    []*Request // present now, absent in the previous observation
	Removed  []string   // ids present previously, absent now
	Offline  bool
}

// Changed reports whether the id set differs from the previous observation
func (r PollResult) Changed() bool {
	return len(r.Added) > 0 || len(r.Removed) > 0
}

// Poller repeatedly lists pending requests and reports id-set changes
type Poller struct {
	source PendingSource
	clock  clock.Clock
	logger *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewPoller creates a poller over source; clk and logger may be nil
func NewPoller(source PendingSource, clk clock.Clock, logger *zap.Logger) *Poller {
	if clk == nil {
		clk = clock.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Poller{source: source, clock: clk, logger: logger}
}

// Start polls immediately and then every interval until ctx is done or the
// returned stop func is called. A running poll loop is replaced. Ticks run
// one at a time in a single goroutine, so callbacks never overlap.
func (p *Poller) Start(ctx context.Context, interval time.Duration, callback func(PollResult)) (stop func()) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	p.Stop()

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	p.mu.Lock()
	p.cancel = cancel
	p.done = done
	p.mu.Unlock()

	go p.run(ctx, interval, callback, done)

	return cancel
}

// Stop halts the running poll loop, if any, and waits for it to exit.
// Must not be called from inside the callback.
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

func (p *Poller) run(ctx context.Context, interval time.Duration, callback func(PollResult), done chan struct{}) {
	defer close(done)

	ticker := p.clock.Ticker(interval)
	defer ticker.Stop()

	seen := make(map[string]struct{})
	for {
		res := p.source.PendingRequests(ctx)
		if ctx.Err() != nil {
			return
		}

		result, next := diffByID(seen, res)
		seen = next
		if result.Changed() {
			p.logger.Debug("videocall.client.pending_changed",
				zap.Int("added", len(result.Added)),
				zap.Int("removed", len(result.Removed)),
				zap.Bool("offline", result.Offline),
			)
		}
		if callback != nil {
			callback(result)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// diffByID compares the observation against the previous id set
func diffByID(prev map[string]struct{}, res PendingResult) (PollResult, map[string]struct{}) {
	out := PollResult{Requests: res.Requests, Offline: res.Offline}
	next := make(map[string]struct{}, len(res.Requests))

	for _, r := range res.Requests {
		next[r.ID] = struct{}{}
		if _, ok := prev[r.ID]; !ok {
			out.Added = append(out.Added, r)
		}
	}
	for id := range prev {
		if _, ok := next[id]; !ok {
			out.Removed = append(out.Removed, id)
		}
	}
	sort.Strings(out.Removed)
	return out, next
}
