package transport

import "errors"

// ErrUnavailable reports that the channel could not be opened or used.
var ErrUnavailable = errors.New("transport unavailable")

// Transport is a duplex, fire-and-forget message channel between the
// sandboxed context and the host context. Frames are opaque bytes; any
// framing beyond the channel's native message boundary is up to the caller.
type Transport interface {
	// Send transmits a frame. There is no delivery acknowledgement.
	Send(frame []byte) error

	// SetHandler installs the inbound frame handler, replacing any prior
	// one. Exactly one handler is active at a time.
	SetHandler(fn func(frame []byte))

	// Close releases the channel and detaches the handler.
	Close() error
}
