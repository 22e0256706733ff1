package transport

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTracker struct {
	last atomic.Int64
}

func newFakeTracker() *fakeTracker {
	f := &fakeTracker{}
	f.last.Store(time.Now().UnixNano())
	return f
}

func (f *fakeTracker) touch() { f.last.Store(time.Now().UnixNano()) }

func (f *fakeTracker) LastActivity() time.Time {
	return time.Unix(0, f.last.Load())
}

func TestDefaultKeepAliveConfig(t *testing.T) {
	cfg := DefaultKeepAliveConfig()
	assert.Equal(t, 30*time.Second, cfg.Interval)
}

func TestKeepAliveTicker_PingsAfterIdleInterval(t *testing.T) {
	tracker := newFakeTracker()
	var pings atomic.Int32

	k := NewKeepAliveTicker(KeepAliveConfig{Interval: 30 * time.Millisecond}, tracker, func() error {
		pings.Add(1)
		return nil
	}, nil)

	k.Start()
	defer k.Stop()

	time.Sleep(80 * time.Millisecond)
	assert.True(t, pings.Load() >= 1)
}

func TestKeepAliveTicker_NoPingWhileActive(t *testing.T) {
	tracker := newFakeTracker()
	var pings atomic.Int32

	k := NewKeepAliveTicker(KeepAliveConfig{Interval: 30 * time.Millisecond}, tracker, func() error {
		pings.Add(1)
		return nil
	}, nil)

	k.Start()
	defer k.Stop()

	stop := time.After(70 * time.Millisecond)
loop:
	for {
		select {
		case <-stop:
			break loop
		case <-time.After(5 * time.Millisecond):
			tracker.touch()
		}
	}

	assert.Equal(t, int32(0), pings.Load())
}

func TestKeepAliveTicker_OnErrorCalledOnPingFailure(t *testing.T) {
	tracker := newFakeTracker()
	errCh := make(chan error, 1)

	k := NewKeepAliveTicker(KeepAliveConfig{Interval: 20 * time.Millisecond}, tracker, func() error {
		return ErrKeepAliveTimeout
	}, func(err error) {
		select {
		case errCh <- err:
		default:
		}
	})

	k.Start()
	defer k.Stop()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, ErrKeepAliveTimeout)
	case <-time.After(1 * time.Second):
		t.Fatal("expected onError to be called")
	}
}

func TestKeepAliveTicker_StartStopIdempotent(t *testing.T) {
	tracker := newFakeTracker()
	k := NewKeepAliveTicker(KeepAliveConfig{Interval: 20 * time.Millisecond}, tracker, func() error { return nil }, nil)

	k.Start()
	k.Start()
	time.Sleep(10 * time.Millisecond)
	k.Stop()
	k.Stop()
}

func TestKeepAliveTicker_ZeroIntervalUsesDefault(t *testing.T) {
	tracker := newFakeTracker()
	k := NewKeepAliveTicker(KeepAliveConfig{}, tracker, func() error { return nil }, nil)
	require.Equal(t, 30*time.Second, k.cfg.Interval)
}
