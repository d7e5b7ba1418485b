package bridge

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/operaton-labs/enginebridge/internal/logging"
	"github.com/operaton-labs/enginebridge/internal/transport"
)

// DefaultTimeout bounds a request when no per-call or configured
// override is given. A tunable default, not a protocol constant.
const DefaultTimeout = 30 * time.Second

// Config tunes a Bridge.
type Config struct {
	// Timeout bounds each request unless overridden per call.
	// Zero means DefaultTimeout.
	Timeout time.Duration
	Logger  *logging.Logger
}

// Bridge correlates outbound requests with inbound replies on a
// Transport. Safe for concurrent use; in-flight requests are
// independent and never observe each other's replies.
type Bridge struct {
	tr      transport.Transport
	log     *logging.Logger
	timeout time.Duration

	next uint64 // monotonic request id counter, never reused

	mu      sync.Mutex
	pending map[string]chan Message
	closed  bool
}

// New wires a Bridge to a transport and installs its reply handler.
func New(tr transport.Transport, cfg Config) *Bridge {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNop()
	}

	b := &Bridge{
		tr:      tr,
		log:     cfg.Logger.Component("bridge"),
		timeout: cfg.Timeout,
		pending: make(map[string]chan Message),
	}
	tr.SetHandler(b.dispatch)
	return b
}

// Request sends a message and blocks until the matching reply arrives or
// the configured timeout elapses. The RequestID is assigned here; any
// value already set on msg is overwritten.
func (b *Bridge) Request(ctx context.Context, msg Message) (Message, error) {
	return b.RequestTimeout(ctx, msg, b.timeout)
}

// RequestTimeout is Request with a per-call timeout override.
func (b *Bridge) RequestTimeout(ctx context.Context, msg Message, timeout time.Duration) (Message, error) {
	if timeout <= 0 {
		timeout = b.timeout
	}

	msg.RequestID = strconv.FormatUint(atomic.AddUint64(&b.next, 1), 10)
	if err := msg.ValidateRequest(); err != nil {
		return Message{}, err
	}

	frame, err := msg.Encode()
	if err != nil {
		return Message{}, fmt.Errorf("encode %s: %w", msg.Action, err)
	}

	// Register before sending so a reply arriving between send and wait
	// still finds its pending entry.
	ch := make(chan Message, 1)
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return Message{}, fmt.Errorf("%w: bridge closed", transport.ErrUnavailable)
	}
	b.pending[msg.RequestID] = ch
	b.mu.Unlock()

	if err := b.tr.Send(frame); err != nil {
		b.remove(msg.RequestID)
		return Message{}, fmt.Errorf("send %s: %w", msg.Action, err)
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case reply := <-ch:
		if reply.Action == ActionError {
			return Message{}, &RemoteError{Action: msg.Action, Message: reply.Error}
		}
		return reply, nil
	case <-timer.C:
		b.remove(msg.RequestID)
		return Message{}, &TimeoutError{Action: msg.Action, Wait: timeout}
	case <-ctx.Done():
		b.remove(msg.RequestID)
		return Message{}, fmt.Errorf("request %s: %w", msg.Action, ctx.Err())
	}
}

// remove drops the pending entry for id, if any.
func (b *Bridge) remove(id string) {
	b.mu.Lock()
	delete(b.pending, id)
	b.mu.Unlock()
}

// Pending reports the number of in-flight requests.
func (b *Bridge) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

// Close tears down the bridge and its transport. In-flight requests
// time out normally.
func (b *Bridge) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()
	return b.tr.Close()
}

// dispatch routes one inbound frame to its waiting caller. Frames with
// no pending entry (unknown id, already resolved, already timed out)
// are dropped.
func (b *Bridge) dispatch(frame []byte) {
	reply, err := Decode(frame)
	if err != nil {
		b.log.Warn("dropping undecodable frame", zap.Error(err))
		return
	}
	if err := reply.ValidateReply(); err != nil {
		b.log.Warn("dropping invalid reply", zap.Error(err))
		return
	}

	b.mu.Lock()
	ch, ok := b.pending[reply.RequestID]
	if ok {
		delete(b.pending, reply.RequestID)
	}
	b.mu.Unlock()

	if !ok {
		b.log.Debug("dropping unmatched reply",
			zap.String("request_id", reply.RequestID),
			zap.String("action", reply.Action))
		return
	}
	ch <- reply
}
