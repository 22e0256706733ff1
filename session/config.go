package session

import (
	"time"

	"github.com/axmq/mqttcore/hooks"
	"github.com/axmq/mqttcore/store"
	"github.com/axmq/mqttcore/types/message"
)

// DefaultTimeout is how long a sender operation waits for a matching
// reply before retrying.
const DefaultTimeout = 3 * time.Second

// DefaultRetry is how many transmit attempts a sender operation makes
// before giving up with ErrAck.
const DefaultRetry = 3

// Logger is the minimal structured-logging capability a Session uses.
// *logger.SlogLogger satisfies this.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
}

// Config holds the fields of a CONNECT packet, immutable once a Session
// is connected.
type Config struct {
	ClientID     string
	Username     string
	HasUsername  bool
	Password     []byte
	HasPassword  bool
	CleanSession bool
	KeepAlive    uint16
}

// ClientConfig bundles a Config with tunables and optional observability
// collaborators. All three optional fields are nil-safe no-ops when left
// unset: a caller only pays for what it wires in.
type ClientConfig struct {
	Config

	// Timeout is how long a sender operation waits for a reply per retry
	// attempt. Zero uses DefaultTimeout.
	Timeout time.Duration

	// Retry is how many transmit attempts a sender operation makes before
	// returning ErrAck. Zero uses DefaultRetry.
	Retry int

	// Logger receives diagnostic output. Nil disables logging.
	Logger Logger

	// Hooks receives lifecycle callbacks. Nil disables hook dispatch.
	Hooks *hooks.Manager

	// MessageLog, if set, receives an append-only copy of every sent or
	// delivered message for observability. Never consulted by Connect to
	// restore prior session state.
	MessageLog store.Store[*message.Message]
}

func (c *ClientConfig) timeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return DefaultTimeout
}

func (c *ClientConfig) retry() int {
	if c.Retry > 0 {
		return c.Retry
	}
	return DefaultRetry
}

func (c *ClientConfig) logf(level string, msg string, args ...interface{}) {
	if c.Logger == nil {
		return
	}
	switch level {
	case "debug":
		c.Logger.Debug(msg, args...)
	case "warn":
		c.Logger.Warn(msg, args...)
	case "error":
		c.Logger.Error(msg, args...)
	default:
		c.Logger.Info(msg, args...)
	}
}
