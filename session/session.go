// Package session is the public client: it holds connection configuration,
// the outbound packet-identifier sequence, inbound QoS 2 duplicate
// suppression, and drives the sender/pump protocol exactly once per call.
package session

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/axmq/mqttcore/encoding"
	"github.com/axmq/mqttcore/qos"
	"github.com/axmq/mqttcore/rendezvous"
	"github.com/axmq/mqttcore/transport"
	"github.com/axmq/mqttcore/types/message"
)

// OnPublishFunc is invoked by Pump for each non-duplicate inbound
// publication. It must not block for long and must not call back into the
// Session from the pump's own goroutine.
type OnPublishFunc func(topic string, payload []byte)

// Session is the MQTT client. A Session has exactly two concurrent
// participants: one sender goroutine calling the request methods below,
// serialized internally by a send-mutex, and one pump goroutine calling
// Pump() in a loop. No other concurrency pattern is supported.
type Session struct {
	cfg       ClientConfig
	transport transport.Transport
	reader    io.Reader

	rz  *rendezvous.Rendezvous
	dup *qos.Window

	onPublish OnPublishFunc

	sendMu sync.Mutex

	pidMu sync.Mutex
	seq   uint16

	closed atomic.Bool

	logSeq atomic.Uint64
}

// transportReader adapts a transport.Transport's Recv into an io.Reader so
// the codec's frame-one-packet logic (built around io.Reader) can drive it.
type transportReader struct {
	tr transport.Transport
}

func (r transportReader) Read(p []byte) (int, error) {
	return r.tr.Recv(p)
}

// New creates a Session over tr. onPublish is called by Pump for each
// non-duplicate inbound PUBLISH; if it is nil, inbound publications are
// still acknowledged but not delivered.
func New(cfg ClientConfig, tr transport.Transport, onPublish OnPublishFunc) *Session {
	return &Session{
		cfg:       cfg,
		transport: tr,
		reader:    transportReader{tr: tr},
		rz:        rendezvous.New(),
		dup:       qos.NewWindow(qos.DefaultConfig()),
		onPublish: onPublish,
		seq:       1,
	}
}

// takePID returns the next outbound packet identifier and advances the
// sequence, skipping 0. Called once per ack-requiring send, regardless of
// whether that send ultimately succeeds.
func (s *Session) takePID() uint16 {
	s.pidMu.Lock()
	defer s.pidMu.Unlock()

	pid := s.seq
	s.seq++
	if s.seq == 0 {
		s.seq = 1
	}
	return pid
}

// Connect sends CONNECT and waits for CONNACK, retrying up to cfg.Retry
// times. A nil return means the broker accepted the connection (return
// code 0); any other outcome maps through the error taxonomy in errors.go.
func (s *Session) Connect() error {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	if s.closed.Load() {
		return ErrClosed
	}
	if s.cfg.ClientID == "" {
		return ErrParam
	}

	packet, err := encoding.BuildConnect(encoding.ConnectOptions{
		ClientID:     s.cfg.ClientID,
		CleanSession: s.cfg.CleanSession,
		KeepAlive:    s.cfg.KeepAlive,
		Username:     s.cfg.Username,
		HasUsername:  s.cfg.HasUsername,
		Password:     s.cfg.Password,
		HasPassword:  s.cfg.HasPassword,
	})
	if err != nil {
		return ErrParam
	}

	s.rz.Arm(encoding.CONNACK, 0)
	acked := false
	for i := 0; i < s.cfg.retry(); i++ {
		n, werr := s.transport.Send(packet)
		if werr != nil || n != len(packet) {
			s.rz.Disarm()
			return ErrSend
		}
		if s.rz.Wait(s.cfg.timeout()) {
			acked = true
			break
		}
	}
	if !acked {
		s.rz.Disarm()
		return ErrAck
	}

	connErr := connackError(s.rz.ConnackCode())
	if connErr == nil {
		s.hookConnect(s.rz.ConnackSessionPresent())
	}
	s.cfg.logf("info", "connect", "clientID", s.cfg.ClientID, "err", connErr)
	return connErr
}

// Disconnect sends DISCONNECT (fire-and-forget, per MQTT-3.14) and marks
// the Session closed; subsequent sender calls return ErrClosed.
func (s *Session) Disconnect() error {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	if s.closed.Load() {
		return ErrClosed
	}

	packet := encoding.BuildDisconnect()
	n, err := s.transport.Send(packet)
	s.closed.Store(true)
	s.hookDisconnect(nil)

	if err != nil || n != len(packet) {
		return ErrSend
	}
	return nil
}

// Ping sends PINGREQ (fire-and-forget, per §4.3; the pump fires the OnPing
// hook when the corresponding PINGRESP arrives — see Pump).
func (s *Session) Ping() error {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	if s.closed.Load() {
		return ErrClosed
	}

	packet := encoding.BuildPingreq()
	n, err := s.transport.Send(packet)
	if err != nil || n != len(packet) {
		return ErrSend
	}
	return nil
}

// Publish sends a PUBLISH at the given QoS level. QoS 0 is a single
// fire-and-forget transmission; QoS 1 and 2 retry up to cfg.Retry times,
// setting DUP on retransmissions, and return ErrAck if no acknowledgement
// arrives.
func (s *Session) Publish(topic string, payload []byte, qosLevel encoding.QoS, retain bool) error {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	if s.closed.Load() {
		return ErrClosed
	}
	if !qosLevel.IsValid() {
		return ErrParam
	}

	switch qosLevel {
	case encoding.QoS0:
		return s.publishQoS0(topic, payload, retain)
	case encoding.QoS1:
		return s.publishQoS1(topic, payload, retain)
	default:
		return s.publishQoS2(topic, payload, retain)
	}
}

func (s *Session) publishQoS0(topic string, payload []byte, retain bool) error {
	packet, err := encoding.BuildPublish(topic, payload, encoding.QoS0, false, retain, 0)
	if err != nil {
		return ErrParam
	}

	n, werr := s.transport.Send(packet)
	if werr != nil || n != len(packet) {
		return ErrSend
	}

	s.logPublishOut(0, topic, payload, encoding.QoS0, retain, false)
	return nil
}

func (s *Session) publishQoS1(topic string, payload []byte, retain bool) error {
	pid := s.takePID()
	packet, err := encoding.BuildPublish(topic, payload, encoding.QoS1, false, retain, pid)
	if err != nil {
		return ErrParam
	}

	if err := s.publishRetryLoop(pid, encoding.PUBACK, packet); err != nil {
		return err
	}

	s.logPublishOut(pid, topic, payload, encoding.QoS1, retain, false)
	return nil
}

func (s *Session) publishQoS2(topic string, payload []byte, retain bool) error {
	pid := s.takePID()
	packet, err := encoding.BuildPublish(topic, payload, encoding.QoS2, false, retain, pid)
	if err != nil {
		return ErrParam
	}

	if err := s.publishRetryLoop(pid, encoding.PUBREC, packet); err != nil {
		return err
	}

	// Strict MQTT 3.1.1 compliance: PUBREL reuses the PUBREC's packet
	// identifier rather than advancing to a fresh one.
	rel := encoding.BuildPubrel(pid)
	if err := s.sendWithRetry(encoding.PUBCOMP, pid, rel); err != nil {
		return err
	}

	s.logPublishOut(pid, topic, payload, encoding.QoS2, retain, false)
	return nil
}

// publishRetryLoop arms the rendezvous for ackType/pid and retransmits
// packet up to cfg.Retry times, setting the DUP flag on every attempt
// after the first.
func (s *Session) publishRetryLoop(pid uint16, ackType encoding.PacketType, packet []byte) error {
	s.rz.Arm(ackType, pid)
	for i := 0; i < s.cfg.retry(); i++ {
		if i > 0 {
			packet[0] |= 0x08 // DUP flag, MQTT-3.3.1-1
		}
		n, err := s.transport.Send(packet)
		if err != nil || n != len(packet) {
			s.rz.Disarm()
			return ErrSend
		}
		if s.rz.Wait(s.cfg.timeout()) {
			return nil
		}
	}
	s.rz.Disarm()
	return ErrAck
}

// sendWithRetry arms the rendezvous for ackType/pid and retransmits packet
// verbatim (no DUP bit — used for packet types that carry none, e.g.
// PUBREL, SUBSCRIBE, UNSUBSCRIBE).
func (s *Session) sendWithRetry(ackType encoding.PacketType, pid uint16, packet []byte) error {
	s.rz.Arm(ackType, pid)
	for i := 0; i < s.cfg.retry(); i++ {
		n, err := s.transport.Send(packet)
		if err != nil || n != len(packet) {
			s.rz.Disarm()
			return ErrSend
		}
		if s.rz.Wait(s.cfg.timeout()) {
			return nil
		}
	}
	s.rz.Disarm()
	return ErrAck
}

// Subscribe sends SUBSCRIBE for a single topic filter and waits for
// SUBACK. The granted-QoS byte in the reply is not surfaced to the
// caller.
func (s *Session) Subscribe(filter string, qosLevel encoding.QoS) error {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	if s.closed.Load() {
		return ErrClosed
	}

	pid := s.takePID()
	packet, err := encoding.BuildSubscribe(pid, []encoding.SubscriptionRequest{{Filter: filter, QoS: qosLevel}})
	if err != nil {
		return ErrParam
	}

	return s.sendWithRetry(encoding.SUBACK, pid, packet)
}

// Unsubscribe sends UNSUBSCRIBE for a single topic filter and waits for
// UNSUBACK.
func (s *Session) Unsubscribe(filter string) error {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	if s.closed.Load() {
		return ErrClosed
	}

	pid := s.takePID()
	packet, err := encoding.BuildUnsubscribe(pid, []string{filter})
	if err != nil {
		return ErrParam
	}

	return s.sendWithRetry(encoding.UNSUBACK, pid, packet)
}

// Pump processes exactly one inbound packet: it frames the packet off the
// transport, matches it against the armed rendezvous (or dispatches a
// PUBLISH/PUBREL), and returns. The caller is expected to invoke Pump in a
// loop on a dedicated goroutine; a non-nil return is terminal for that
// loop (the transport closed or failed).
func (s *Session) Pump() error {
	if s.closed.Load() {
		return ErrClosed
	}

	packet, err := encoding.ReadPacket(s.reader)
	if err != nil {
		s.closed.Store(true)
		s.hookDisconnect(err)
		return err
	}

	s.handlePacket(packet)
	return nil
}

func (s *Session) handlePacket(packet []byte) {
	t, err := encoding.Type(packet)
	if err != nil {
		s.cfg.logf("debug", "pump: dropping packet with invalid type", "err", err)
		return
	}

	switch t {
	case encoding.CONNACK:
		sessionPresent, rc, cerr := encoding.ConnackCode(packet)
		if cerr == nil {
			s.rz.Signal(encoding.CONNACK, 0, sessionPresent, rc)
		}
	case encoding.PUBACK, encoding.PUBREC, encoding.PUBCOMP, encoding.SUBACK, encoding.UNSUBACK:
		pid, perr := encoding.PacketIDOf(packet)
		if perr == nil {
			s.rz.Signal(t, pid, false, 0)
		}
	case encoding.PINGRESP:
		s.rz.Signal(encoding.PINGRESP, 0, false, 0)
		s.hookPing()
	case encoding.PUBLISH:
		s.handlePublish(packet)
	case encoding.PUBREL:
		s.handlePubrel(packet)
	default:
		// CONNECT/SUBSCRIBE/UNSUBSCRIBE/PINGREQ/DISCONNECT never arrive on
		// a client's inbound side; consumed without further action.
	}
}

func (s *Session) handlePublish(packet []byte) {
	topic, terr := encoding.TopicOf(packet)
	payload, perr := encoding.PayloadOf(packet)
	if terr != nil || perr != nil {
		return
	}

	qosLevel := encoding.QoSOf(packet)
	dup := encoding.Dup(packet)

	var pid uint16
	if qosLevel != encoding.QoS0 {
		pid, _ = encoding.PacketIDOf(packet)
	}

	duplicate := false
	if qosLevel == encoding.QoS2 {
		duplicate = s.dup.Mark(pid)
	}

	if !duplicate {
		if s.onPublish != nil {
			s.onPublish(topic, payload)
		}
		msg := message.New(pid, topic, payload, qosLevel, encoding.Retain(packet))
		msg.DUP = dup
		s.hookPublishIn(msg, dup)
		s.logPublishIn(msg)
	}

	switch qosLevel {
	case encoding.QoS1:
		_, _ = s.transport.Send(encoding.BuildPuback(pid))
	case encoding.QoS2:
		_, _ = s.transport.Send(encoding.BuildPubrec(pid))
	}
}

func (s *Session) handlePubrel(packet []byte) {
	pid, err := encoding.PacketIDOf(packet)
	if err != nil {
		return
	}
	s.dup.Release(pid)
	_, _ = s.transport.Send(encoding.BuildPubcomp(pid))
}

func (s *Session) hookConnect(sessionPresent bool) {
	if s.cfg.Hooks != nil {
		s.cfg.Hooks.OnConnect(sessionPresent)
	}
}

func (s *Session) hookDisconnect(err error) {
	if s.cfg.Hooks != nil {
		s.cfg.Hooks.OnDisconnect(err)
	}
}

func (s *Session) hookPing() {
	if s.cfg.Hooks != nil {
		s.cfg.Hooks.OnPing()
	}
}

func (s *Session) hookPublishIn(msg *message.Message, dup bool) {
	if s.cfg.Hooks != nil {
		s.cfg.Hooks.OnPublishIn(msg, dup)
	}
}

func (s *Session) hookPublishOut(msg *message.Message) {
	if s.cfg.Hooks != nil {
		s.cfg.Hooks.OnPublishOut(msg)
	}
}

func (s *Session) logPublishOut(pid uint16, topic string, payload []byte, qosLevel encoding.QoS, retain, dup bool) {
	msg := message.New(pid, topic, payload, qosLevel, retain)
	msg.DUP = dup
	s.hookPublishOut(msg)

	if s.cfg.MessageLog == nil {
		return
	}
	key := fmt.Sprintf("out-%d-%d", pid, s.logSeq.Add(1))
	_ = s.cfg.MessageLog.Save(context.Background(), key, msg)
}

func (s *Session) logPublishIn(msg *message.Message) {
	if s.cfg.MessageLog == nil {
		return
	}
	key := fmt.Sprintf("in-%d-%d", msg.PacketID, s.logSeq.Add(1))
	_ = s.cfg.MessageLog.Save(context.Background(), key, msg)
}

// KeepAlive returns a transport.KeepAliveTicker wired to this Session's
// Ping and the given activity tracker (typically the *transport.NetTransport
// in use). It is a convenience for callers that don't want to hand-roll
// the ticker; it is never started automatically.
func (s *Session) KeepAlive(tracker transport.ActivityTracker) *transport.KeepAliveTicker {
	interval := time.Duration(s.cfg.KeepAlive) * time.Second
	cfg := transport.KeepAliveConfig{Interval: interval}
	return transport.NewKeepAliveTicker(cfg, tracker, s.Ping, nil)
}
