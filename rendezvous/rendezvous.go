// Package rendezvous implements the single-slot request/reply
// synchronization a Session uses to correlate an outbound packet with
// the one inbound reply that acknowledges it.
//
// A client session has at most one sender operation in flight at a time
// (enforced by the session's send-mutex), so a single armed slot — not a
// map keyed by packet ID — is enough to bridge the sending goroutine and
// the pump goroutine that actually reads the reply off the wire.
package rendezvous

import (
	"sync"
	"time"

	"github.com/axmq/mqttcore/encoding"
)

// Rendezvous is a single-slot completion signal. Arm records what reply
// is expected, Wait blocks the sender until Signal delivers a match (or
// the timeout elapses), and Signal — called from the pump goroutine —
// wakes the waiter. A buffered channel, not a raw condition variable, is
// the idiomatic Go rendering of "wait with a timeout for one-shot
// completion": the sender either receives from the channel or times out
// via select, with no manual predicate/wakeup loop required.
type Rendezvous struct {
	mu sync.Mutex

	armed    bool
	wantType encoding.PacketType
	wantPID  uint16

	// connRC and connSessionPresent carry the CONNACK return-code byte and
	// session-present bit out of Signal, since CONNACK has no packet ID to
	// match on.
	connRC             byte
	connSessionPresent bool

	done chan struct{}
}

// New returns a disarmed Rendezvous.
func New() *Rendezvous {
	return &Rendezvous{}
}

// Arm records the (type, packet ID) pair the next Wait should match.
// CONNECT arms on encoding.CONNACK with pid ignored — CONNACK is matched
// by type alone. Arm must be called before the corresponding packet is
// sent, while the session's send-mutex is held, so there is never more
// than one armed expectation at a time.
func (r *Rendezvous) Arm(t encoding.PacketType, pid uint16) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.armed = true
	r.wantType = t
	r.wantPID = pid
	r.connRC = 0
	r.connSessionPresent = false
	r.done = make(chan struct{}, 1)
}

// Wait blocks until Signal delivers a matching reply or timeout elapses,
// returning true on a match and false on timeout. A timeout leaves the
// slot armed: the sender's retry loop retransmits and Waits again, and a
// late-arriving reply to any earlier attempt still satisfies the next
// Wait. A sender that gives up must call Disarm.
func (r *Rendezvous) Wait(timeout time.Duration) bool {
	r.mu.Lock()
	done := r.done
	r.mu.Unlock()

	if done == nil {
		return false
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-done:
		return true
	case <-timer.C:
		return false
	}
}

// Disarm abandons the armed expectation. Called by the sender once its
// retry budget is exhausted, so a reply arriving after the operation has
// already failed is not mistaken for a match against the next one.
func (r *Rendezvous) Disarm() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.armed = false
}

// Signal is called by the pump with an inbound packet's type and packet
// ID (0 for types without one, e.g. CONNACK/PINGRESP). For CONNACK,
// sessionPresent and rc carry the session-present bit and return-code
// byte to smuggle to the waiter; both are ignored for every other type.
// Signal reports whether the packet matched the armed expectation; a
// false return means the pump should continue treating the packet as
// unrelated to any in-flight sender operation.
func (r *Rendezvous) Signal(t encoding.PacketType, pid uint16, sessionPresent bool, rc byte) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.armed || r.wantType != t {
		return false
	}

	if t != encoding.CONNACK && t != encoding.PINGRESP && r.wantPID != pid {
		return false
	}

	r.armed = false
	r.connRC = rc
	r.connSessionPresent = sessionPresent

	select {
	case r.done <- struct{}{}:
	default:
	}
	return true
}

// ConnackCode returns the return-code byte captured by the most recent
// matching CONNACK signal. Only meaningful immediately after a Wait that
// returned true for an armed CONNACK.
func (r *Rendezvous) ConnackCode() byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.connRC
}

// ConnackSessionPresent returns the session-present bit captured by the
// most recent matching CONNACK signal.
func (r *Rendezvous) ConnackSessionPresent() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.connSessionPresent
}
