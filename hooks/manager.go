package hooks

import (
	"sync"
	"sync/atomic"

	"github.com/axmq/mqttcore/types/message"
)

// Manager holds the registered hooks and dispatches Session lifecycle
// events to them. Reads (the dispatch path, taken on every packet) never
// block on a mutex: the hook slice lives behind an atomic.Pointer and
// Add/Remove replace it wholesale (copy-on-write), so a Pump goroutine
// calling OnPublishIn never contends with a caller registering a hook.
type Manager struct {
	mu       sync.Mutex
	hooksPtr atomic.Pointer[[]Hook]
	index    map[string]int
}

// NewManager creates an empty Manager.
func NewManager() *Manager {
	m := &Manager{index: make(map[string]int)}
	hooks := make([]Hook, 0)
	m.hooksPtr.Store(&hooks)
	return m
}

// Add registers a hook. Returns an error if its ID is empty or already
// registered.
func (m *Manager) Add(hook Hook) error {
	if hook == nil {
		return ErrEmptyHookID
	}

	id := hook.ID()
	if id == "" {
		return ErrEmptyHookID
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.index[id]; exists {
		return ErrHookAlreadyExists
	}

	oldHooks := *m.hooksPtr.Load()
	newHooks := make([]Hook, len(oldHooks)+1)
	copy(newHooks, oldHooks)
	newHooks[len(oldHooks)] = hook

	m.index[id] = len(oldHooks)
	m.hooksPtr.Store(&newHooks)

	return nil
}

// Remove unregisters a hook by ID.
func (m *Manager) Remove(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx, exists := m.index[id]
	if !exists {
		return ErrHookNotFound
	}

	oldHooks := *m.hooksPtr.Load()
	newHooks := make([]Hook, len(oldHooks)-1)
	copy(newHooks[:idx], oldHooks[:idx])
	copy(newHooks[idx:], oldHooks[idx+1:])

	delete(m.index, id)
	for i := idx; i < len(newHooks); i++ {
		m.index[newHooks[i].ID()] = i
	}

	m.hooksPtr.Store(&newHooks)

	return nil
}

// Count returns the number of registered hooks.
func (m *Manager) Count() int {
	return len(*m.hooksPtr.Load())
}

// OnConnect dispatches to every hook that provides OnConnect.
func (m *Manager) OnConnect(sessionPresent bool) {
	for _, h := range *m.hooksPtr.Load() {
		if h.Provides(OnConnect) {
			h.OnConnect(sessionPresent)
		}
	}
}

// OnDisconnect dispatches to every hook that provides OnDisconnect.
func (m *Manager) OnDisconnect(err error) {
	for _, h := range *m.hooksPtr.Load() {
		if h.Provides(OnDisconnect) {
			h.OnDisconnect(err)
		}
	}
}

// OnPublishOut dispatches to every hook that provides OnPublishOut.
func (m *Manager) OnPublishOut(msg *message.Message) {
	for _, h := range *m.hooksPtr.Load() {
		if h.Provides(OnPublishOut) {
			h.OnPublishOut(msg)
		}
	}
}

// OnPublishIn dispatches to every hook that provides OnPublishIn.
func (m *Manager) OnPublishIn(msg *message.Message, dup bool) {
	for _, h := range *m.hooksPtr.Load() {
		if h.Provides(OnPublishIn) {
			h.OnPublishIn(msg, dup)
		}
	}
}

// OnPing dispatches to every hook that provides OnPing.
func (m *Manager) OnPing() {
	for _, h := range *m.hooksPtr.Load() {
		if h.Provides(OnPing) {
			h.OnPing()
		}
	}
}
