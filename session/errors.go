package session

import "errors"

// Error taxonomy. A nil error is success ("OK"); every distinguishable
// failure mode gets its own sentinel so callers can errors.Is against it.
var (
	// ErrVersion is returned when the broker's CONNACK reports return code
	// 1: unacceptable protocol version.
	ErrVersion = errors.New("session: broker rejected protocol version")

	// ErrID is returned when the broker's CONNACK reports return code 2:
	// client identifier rejected.
	ErrID = errors.New("session: broker rejected client identifier")

	// ErrServer is returned when the broker's CONNACK reports return code
	// 3: server unavailable.
	ErrServer = errors.New("session: server unavailable")

	// ErrPassword is returned when the broker's CONNACK reports return
	// code 4: bad username or password.
	ErrPassword = errors.New("session: bad username or password")

	// ErrPermission is returned when the broker's CONNACK reports return
	// code 5: not authorized.
	ErrPermission = errors.New("session: not authorized")

	// ErrParam is returned when the caller supplies invalid input, e.g. an
	// empty client ID.
	ErrParam = errors.New("session: invalid parameter")

	// ErrSend is returned when a transport write fails or writes fewer
	// bytes than the packet requires.
	ErrSend = errors.New("session: transport send failed")

	// ErrAck is returned when no matching reply arrives within
	// Retry*Timeout.
	ErrAck = errors.New("session: no acknowledgement received")

	// ErrClosed is returned by sender operations and Pump once Disconnect
	// has been called or the pump observed a transport failure.
	ErrClosed = errors.New("session: closed")
)

// connackError maps a CONNACK return code to the error taxonomy. Return
// code 0 maps to a nil error (success).
func connackError(code byte) error {
	switch code {
	case 0:
		return nil
	case 1:
		return ErrVersion
	case 2:
		return ErrID
	case 3:
		return ErrServer
	case 4:
		return ErrPassword
	case 5:
		return ErrPermission
	default:
		return ErrServer
	}
}
