package transport

import (
	"context"
	"sync"
	"time"
)

// KeepAliveConfig controls a KeepAliveTicker's timing.
type KeepAliveConfig struct {
	// Interval is how long the ticker waits for outbound activity before
	// triggering a ping. This should match the session's negotiated
	// keep-alive value.
	Interval time.Duration
}

// DefaultKeepAliveConfig returns the conventional 30s interval.
func DefaultKeepAliveConfig() KeepAliveConfig {
	return KeepAliveConfig{Interval: 30 * time.Second}
}

// ActivityTracker reports when a transport last sent data, so the ticker
// only pings during genuine outbound idleness.
type ActivityTracker interface {
	LastActivity() time.Time
}

// KeepAliveTicker is a convenience goroutine a caller may start alongside
// a Session: once per Interval of outbound inactivity it invokes Ping.
// It is layered entirely on top of the session's public API — it never
// reaches into the pump or the wire directly, mirroring the fact that a
// client, unlike a broker, only ever tracks one connection's liveness.
type KeepAliveTicker struct {
	cfg      KeepAliveConfig
	tracker  ActivityTracker
	ping     func() error
	onError  func(error)

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
}

// NewKeepAliveTicker builds a ticker that calls ping when the tracker has
// been idle for cfg.Interval. onError, if non-nil, is invoked whenever
// ping returns an error; a zero KeepAliveConfig falls back to
// DefaultKeepAliveConfig.
func NewKeepAliveTicker(cfg KeepAliveConfig, tracker ActivityTracker, ping func() error, onError func(error)) *KeepAliveTicker {
	if cfg.Interval <= 0 {
		cfg = DefaultKeepAliveConfig()
	}
	return &KeepAliveTicker{cfg: cfg, tracker: tracker, ping: ping, onError: onError}
}

// Start begins the background loop. It is a no-op if already running.
func (k *KeepAliveTicker) Start() {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.running {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	k.cancel = cancel
	k.running = true

	k.wg.Add(1)
	go k.loop(ctx)
}

// Stop halts the background loop and waits for it to exit.
func (k *KeepAliveTicker) Stop() {
	k.mu.Lock()
	if !k.running {
		k.mu.Unlock()
		return
	}
	cancel := k.cancel
	k.running = false
	k.mu.Unlock()

	cancel()
	k.wg.Wait()
}

func (k *KeepAliveTicker) loop(ctx context.Context) {
	defer k.wg.Done()

	checkEvery := k.cfg.Interval / 4
	if checkEvery <= 0 {
		checkEvery = k.cfg.Interval
	}
	ticker := time.NewTicker(checkEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if time.Since(k.tracker.LastActivity()) < k.cfg.Interval {
				continue
			}
			if err := k.ping(); err != nil && k.onError != nil {
				k.onError(err)
			}
		}
	}
}
