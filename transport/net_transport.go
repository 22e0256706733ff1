package transport

import (
	"net"
	"sync"
	"sync/atomic"
	"time"
)

// NetTransportConfig configures read/write deadlines applied to every
// Recv/Send call. A zero value disables the corresponding deadline.
type NetTransportConfig struct {
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// NetTransport adapts a net.Conn (TCP, TLS, or anything else satisfying
// the interface) into a Transport. It tracks byte counters and the time
// of the last send so a caller can drive its own idle/keep-alive logic,
// but — unlike a broker-side connection — carries no per-connection
// metadata map, state machine, or listener pool: a client has exactly
// one of these at a time.
type NetTransport struct {
	conn net.Conn
	cfg  NetTransportConfig

	closeOnce sync.Once
	closed    atomic.Bool

	bytesRead    atomic.Uint64
	bytesWritten atomic.Uint64
	lastActivity atomic.Int64
}

// NewNetTransport wraps conn. A zero NetTransportConfig disables deadlines.
func NewNetTransport(conn net.Conn, cfg NetTransportConfig) *NetTransport {
	t := &NetTransport{conn: conn, cfg: cfg}
	t.lastActivity.Store(time.Now().UnixNano())
	return t
}

// Dial opens a TCP connection to addr and wraps it in a NetTransport.
func Dial(network, addr string, cfg NetTransportConfig) (*NetTransport, error) {
	conn, err := net.Dial(network, addr)
	if err != nil {
		return nil, err
	}
	return NewNetTransport(conn, cfg), nil
}

func (t *NetTransport) Send(packet []byte) (int, error) {
	if t.closed.Load() {
		return 0, ErrClosed
	}
	if t.cfg.WriteTimeout > 0 {
		_ = t.conn.SetWriteDeadline(time.Now().Add(t.cfg.WriteTimeout))
	}
	n, err := t.conn.Write(packet)
	if n > 0 {
		t.bytesWritten.Add(uint64(n))
		t.lastActivity.Store(time.Now().UnixNano())
	}
	return n, err
}

func (t *NetTransport) Recv(buf []byte) (int, error) {
	if t.closed.Load() {
		return 0, ErrClosed
	}
	if t.cfg.ReadTimeout > 0 {
		_ = t.conn.SetReadDeadline(time.Now().Add(t.cfg.ReadTimeout))
	}
	n, err := t.conn.Read(buf)
	if n > 0 {
		t.bytesRead.Add(uint64(n))
	}
	return n, err
}

func (t *NetTransport) Close() error {
	var err error
	t.closeOnce.Do(func() {
		t.closed.Store(true)
		err = t.conn.Close()
	})
	return err
}

// BytesRead returns the cumulative number of bytes read from the
// connection.
func (t *NetTransport) BytesRead() uint64 { return t.bytesRead.Load() }

// BytesWritten returns the cumulative number of bytes written to the
// connection.
func (t *NetTransport) BytesWritten() uint64 { return t.bytesWritten.Load() }

// LastActivity returns the time of the most recent Send that wrote at
// least one byte (or of NewNetTransport, before any). Recv does not
// update it.
func (t *NetTransport) LastActivity() time.Time {
	return time.Unix(0, t.lastActivity.Load())
}

// IdleDuration returns how long it has been since LastActivity.
func (t *NetTransport) IdleDuration() time.Duration {
	return time.Since(t.LastActivity())
}
