package transport

import (
	"fmt"
	"sync"
)

// Endpoint is one end of an in-process channel pair. It exists for tests
// and for embedding the host responder in the same process as the
// sandbox-side library.
type Endpoint struct {
	peer *Endpoint

	mu      sync.Mutex
	handler func([]byte)
	closed  bool
}

// NewPair creates two connected endpoints. Frames sent on one are
// delivered asynchronously to the other's handler; delivery order is not
// guaranteed to match send order.
func NewPair() (*Endpoint, *Endpoint) {
	a := &Endpoint{}
	b := &Endpoint{}
	a.peer = b
	b.peer = a
	return a, b
}

// Send delivers a frame to the peer's handler. Frames arriving while the
// peer has no handler are dropped.
func (e *Endpoint) Send(frame []byte) error {
	e.mu.Lock()
	closed := e.closed
	e.mu.Unlock()
	if closed {
		return fmt.Errorf("%w: endpoint closed", ErrUnavailable)
	}

	// Copy so the sender can reuse its buffer.
	buf := make([]byte, len(frame))
	copy(buf, frame)

	go func() {
		e.peer.mu.Lock()
		handler := e.peer.handler
		closed := e.peer.closed
		e.peer.mu.Unlock()
		if handler != nil && !closed {
			handler(buf)
		}
	}()
	return nil
}

// SetHandler installs the inbound handler, replacing any prior one.
func (e *Endpoint) SetHandler(fn func([]byte)) {
	e.mu.Lock()
	e.handler = fn
	e.mu.Unlock()
}

// Close detaches the handler and rejects further sends.
func (e *Endpoint) Close() error {
	e.mu.Lock()
	e.closed = true
	e.handler = nil
	e.mu.Unlock()
	return nil
}
