package enginebridge

import (
	"context"
	"time"

	"github.com/operaton-labs/enginebridge/internal/bridge"
	"github.com/operaton-labs/enginebridge/internal/config"
	"github.com/operaton-labs/enginebridge/internal/engine"
	"github.com/operaton-labs/enginebridge/internal/env"
	"github.com/operaton-labs/enginebridge/internal/logging"
	"github.com/operaton-labs/enginebridge/internal/moddle"
	"github.com/operaton-labs/enginebridge/internal/modules"
	"github.com/operaton-labs/enginebridge/internal/modules/jsvm"
	"github.com/operaton-labs/enginebridge/internal/transport"
)

// Options tunes a Session. The zero value uses the defaults from
// config.Default.
type Options struct {
	// Channel names the host channel to attach to.
	Channel string
	// HostURL is the websocket base URL of the bridge host.
	HostURL string
	// RequestTimeout bounds each host request. Zero means the
	// bridge default.
	RequestTimeout time.Duration
	// Installer receives fetched bundles. Nil means the built-in
	// JavaScript installer.
	Installer modules.Installer
	Logger    *logging.Logger
}

func (o *Options) fill() {
	def := config.Default().Bridge
	if o.Channel == "" {
		o.Channel = def.Channel
	}
	if o.HostURL == "" {
		o.HostURL = def.HostURL
	}
	if o.RequestTimeout <= 0 {
		o.RequestTimeout = def.RequestTimeout
	}
	if o.Logger == nil {
		o.Logger = logging.NewNop()
	}
	if o.Installer == nil {
		o.Installer = jsvm.New(o.Logger)
	}
}

// Session owns one channel connection and everything built on it: the
// request bridge, the module loader, the environment snapshot, and the
// engine client. Create one per sandbox; there is no shared global.
type Session struct {
	bridge *bridge.Bridge
	loader *modules.Loader
	env    *env.Env
	engine *engine.Client

	bpmn   *moddle.Parser
	dmn    *moddle.Parser
	differ *moddle.Differ
}

// Dial connects to the bridge host over websocket and assembles a
// Session on the resulting channel.
func Dial(opts Options) (*Session, error) {
	opts.fill()
	conn, err := transport.NewDialer(opts.HostURL, opts.Logger).Open(opts.Channel)
	if err != nil {
		return nil, err
	}
	return Attach(conn, opts), nil
}

// Attach assembles a Session on an already-open transport. The session
// takes ownership of tr and closes it with Close.
func Attach(tr transport.Transport, opts Options) *Session {
	opts.fill()

	b := bridge.New(tr, bridge.Config{
		Timeout: opts.RequestTimeout,
		Logger:  opts.Logger,
	})
	loader := modules.NewLoader(b, opts.Installer, opts.Logger)
	environ := env.New(b, opts.Logger)

	return &Session{
		bridge: b,
		loader: loader,
		env:    environ,
		engine: engine.New(environ, opts.Logger),
		bpmn:   moddle.NewBPMN(loader),
		dmn:    moddle.NewDMN(loader),
		differ: moddle.NewDiffer(loader),
	}
}

// Init materializes the environment snapshot. Call it once after the
// session is created; an empty snapshot is tolerated and retried on the
// next Init.
func (s *Session) Init(ctx context.Context) error {
	return s.env.Ensure(ctx)
}

// Env exposes the environment snapshot and live key operations.
func (s *Session) Env() *env.Env { return s.env }

// Engine exposes the synchronous engine REST client.
func (s *Session) Engine() *engine.Client { return s.engine }

// Modules exposes the remote module loader.
func (s *Session) Modules() *modules.Loader { return s.loader }

// BPMN exposes the BPMN document parser.
func (s *Session) BPMN() *moddle.Parser { return s.bpmn }

// DMN exposes the DMN document parser.
func (s *Session) DMN() *moddle.Parser { return s.dmn }

// Differ exposes the BPMN document differ.
func (s *Session) Differ() *moddle.Differ { return s.differ }

// Pending reports the number of in-flight host requests.
func (s *Session) Pending() int { return s.bridge.Pending() }

// Close tears down the session and its channel connection. In-flight
// requests time out normally.
func (s *Session) Close() error {
	return s.bridge.Close()
}
