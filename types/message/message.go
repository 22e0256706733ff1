package message

import (
	"time"

	"github.com/axmq/mqttcore/encoding"
)

// Message represents a PUBLISH payload together with delivery bookkeeping
// (timestamps, attempt count, DUP) for hooks and message-log consumers.
// The session's retry loop works on raw packet bytes and does not update
// these fields.
type Message struct {
	PacketID      uint16
	Topic         string
	Payload       []byte
	QoS           encoding.QoS
	Retain        bool
	DUP           bool
	CreatedAt     time.Time
	LastAttemptAt time.Time
	AttemptCount  int
}

// New creates a Message ready for its first send attempt.
func New(packetID uint16, topic string, payload []byte, qos encoding.QoS, retain bool) *Message {
	now := time.Now()
	return &Message{
		PacketID:      packetID,
		Topic:         topic,
		Payload:       payload,
		QoS:           qos,
		Retain:        retain,
		CreatedAt:     now,
		LastAttemptAt: now,
	}
}

// MarkAttempt records a (re)send attempt. Every attempt after the first
// sets DUP, per MQTT-3.3.1-1.
func (m *Message) MarkAttempt() {
	m.AttemptCount++
	m.LastAttemptAt = time.Now()
	if m.AttemptCount > 1 {
		m.DUP = true
	}
}

// Clone returns a deep copy of m.
func (m *Message) Clone() *Message {
	payload := make([]byte, len(m.Payload))
	copy(payload, m.Payload)

	return &Message{
		PacketID:      m.PacketID,
		Topic:         m.Topic,
		Payload:       payload,
		QoS:           m.QoS,
		Retain:        m.Retain,
		DUP:           m.DUP,
		CreatedAt:     m.CreatedAt,
		LastAttemptAt: m.LastAttemptAt,
		AttemptCount:  m.AttemptCount,
	}
}
