package transport

import (
	"fmt"
	"net/url"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/operaton-labs/enginebridge/internal/logging"
)

// Dialer opens named channels against a bridge host. Opening the same
// name twice returns the same logical channel.
type Dialer struct {
	baseURL string
	log     *logging.Logger

	mu   sync.Mutex
	open map[string]*WSConn
}

// NewDialer creates a dialer for the given ws:// or wss:// base URL.
func NewDialer(baseURL string, log *logging.Logger) *Dialer {
	if log == nil {
		log = logging.NewNop()
	}
	return &Dialer{
		baseURL: baseURL,
		log:     log.Component("transport"),
		open:    make(map[string]*WSConn),
	}
}

// Open dials the channel with the given name, or returns the already
// open channel for that name.
func (d *Dialer) Open(name string) (*WSConn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if conn, ok := d.open[name]; ok {
		return conn, nil
	}

	u, err := url.Parse(d.baseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid host url %q: %v", ErrUnavailable, d.baseURL, err)
	}
	u.Path = "/channel/" + name

	ws, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", ErrUnavailable, u.String(), err)
	}

	conn := &WSConn{
		name:   name,
		ws:     ws,
		dialer: d,
		log:    d.log,
	}
	d.open[name] = conn
	go conn.readPump()

	d.log.Info("channel opened", zap.String("channel", name), zap.String("url", u.String()))
	return conn, nil
}

func (d *Dialer) forget(name string) {
	d.mu.Lock()
	delete(d.open, name)
	d.mu.Unlock()
}

// WSConn is a websocket-backed channel.
type WSConn struct {
	name   string
	ws     *websocket.Conn
	dialer *Dialer
	log    *logging.Logger

	writeMu sync.Mutex

	mu      sync.Mutex
	handler func([]byte)
	closed  bool
}

// Send transmits one frame. Fire-and-forget: a nil return means the
// frame was handed to the socket, not that it was delivered.
func (c *WSConn) Send(frame []byte) error {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return fmt.Errorf("%w: channel %s closed", ErrUnavailable, c.name)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.ws.WriteMessage(websocket.TextMessage, frame); err != nil {
		return fmt.Errorf("%w: write on %s: %v", ErrUnavailable, c.name, err)
	}
	return nil
}

// SetHandler installs the inbound handler, replacing any prior one.
func (c *WSConn) SetHandler(fn func([]byte)) {
	c.mu.Lock()
	c.handler = fn
	c.mu.Unlock()
}

// Close tears down the socket and detaches the handler.
func (c *WSConn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.handler = nil
	c.mu.Unlock()

	c.dialer.forget(c.name)
	return c.ws.Close()
}

func (c *WSConn) readPump() {
	for {
		_, frame, err := c.ws.ReadMessage()
		if err != nil {
			c.mu.Lock()
			closed := c.closed
			c.mu.Unlock()
			if !closed {
				c.log.Warn("channel read failed", zap.String("channel", c.name), zap.Error(err))
			}
			return
		}

		c.mu.Lock()
		handler := c.handler
		c.mu.Unlock()
		if handler != nil {
			handler(frame)
		}
	}
}
