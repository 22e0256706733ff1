package transport

import "errors"

var (
	// ErrClosed is returned by Send/Recv once the transport has been closed.
	ErrClosed = errors.New("transport: closed")

	// ErrKeepAliveTimeout reports a keep-alive failure. KeepAliveTicker
	// does not produce it itself: it does not wait for PINGRESP and only
	// passes the error its ping function returns on to onError.
	ErrKeepAliveTimeout = errors.New("transport: keep-alive timeout")
)
