// Package hooks lets a caller observe a Session's lifecycle — connects,
// disconnects, and publishes in both directions — without the Session
// itself growing metrics or audit-logging concerns.
package hooks

import "github.com/axmq/mqttcore/types/message"

// Event identifies a single hook callback.
type Event byte

const (
	OnConnect Event = iota
	OnDisconnect
	OnPublishOut
	OnPublishIn
	OnPing
)

// String returns the event's name.
func (e Event) String() string {
	names := [...]string{
		"OnConnect",
		"OnDisconnect",
		"OnPublishOut",
		"OnPublishIn",
		"OnPing",
	}
	if e < Event(len(names)) {
		return names[e]
	}
	return "Unknown"
}

// Hook is the full set of callbacks a Session can raise. Embed Base to
// implement only the ones you care about, and override Provides to report
// them: Base.Provides reports false for every event.
type Hook interface {
	// ID returns a unique identifier for this hook.
	ID() string

	// Provides reports whether the hook has a non-default implementation
	// of the given event, letting Manager skip calling into hooks that
	// don't care about it.
	Provides(event Event) bool

	// OnConnect is called once a CONNACK with a success return code has
	// been received.
	OnConnect(sessionPresent bool)

	// OnDisconnect is called when the session tears down, whether from a
	// caller-initiated Disconnect or a pump read error. A nil err means a
	// clean disconnect.
	OnDisconnect(err error)

	// OnPublishOut is called after an outbound PUBLISH has been written
	// and, for QoS 1 and 2, acknowledged. A publish that fails does not
	// raise it.
	OnPublishOut(msg *message.Message)

	// OnPublishIn is called after an inbound PUBLISH has been handed to
	// the caller's callback. A QoS 2 PUBLISH suppressed as a duplicate
	// does not raise it. dup is the packet's DUP flag.
	OnPublishIn(msg *message.Message, dup bool)

	// OnPing is called after a PINGREQ/PINGRESP round trip completes.
	OnPing()
}
