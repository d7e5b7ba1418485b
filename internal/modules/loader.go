package modules

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/operaton-labs/enginebridge/internal/bridge"
	"github.com/operaton-labs/enginebridge/internal/logging"
)

// LoadError reports a failed bundle load or install.
type LoadError struct {
	Module string
	Reason string
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %s", e.Module, e.Reason)
}

// State tracks a module's lifecycle. Installed is terminal; a failed
// fetch returns the entry to NotLoaded.
type State uint8

const (
	NotLoaded State = iota
	Fetching
	Installed
)

func (s State) String() string {
	switch s {
	case Fetching:
		return "fetching"
	case Installed:
		return "installed"
	default:
		return "not-loaded"
	}
}

// Requester issues correlated requests over the channel. *bridge.Bridge
// satisfies it.
type Requester interface {
	Request(ctx context.Context, msg bridge.Message) (bridge.Message, error)
}

// Loader fetches named bundles through the channel exactly once and
// installs them via the Installer hook. Concurrent callers for the same
// uninstalled module share a single in-flight fetch.
type Loader struct {
	rp   Requester
	inst Installer
	log  *logging.Logger

	group singleflight.Group

	mu      sync.Mutex
	known   map[string]Module
	entries map[string]*entry
}

type entry struct {
	state  State
	handle Handle
}

// NewLoader creates a loader pre-registered with DefaultModules.
func NewLoader(rp Requester, inst Installer, log *logging.Logger) *Loader {
	if log == nil {
		log = logging.NewNop()
	}
	l := &Loader{
		rp:      rp,
		inst:    inst,
		log:     log.Component("loader"),
		known:   make(map[string]Module),
		entries: make(map[string]*entry),
	}
	for _, m := range DefaultModules() {
		l.Register(m)
	}
	return l
}

// Register adds or replaces a module descriptor.
func (l *Loader) Register(m Module) {
	l.mu.Lock()
	l.known[m.Name] = m
	l.mu.Unlock()
}

// StateOf reports the lifecycle state of a module.
func (l *Loader) StateOf(name string) State {
	l.mu.Lock()
	defer l.mu.Unlock()
	if e, ok := l.entries[name]; ok {
		return e.state
	}
	return NotLoaded
}

// Ensure returns the handle for a module, fetching and installing its
// bundle on first use. Installation performed through a path other than
// this loader is honored: if the symbol is already present, the handle
// is returned without any channel traffic.
func (l *Loader) Ensure(ctx context.Context, name string) (Handle, error) {
	l.mu.Lock()
	m, ok := l.known[name]
	if !ok {
		l.mu.Unlock()
		return nil, &LoadError{Module: name, Reason: "unknown module"}
	}
	if e, ok := l.entries[name]; ok && e.state == Installed {
		l.mu.Unlock()
		return e.handle, nil
	}
	l.mu.Unlock()

	// Installed outside this loader.
	if h, ok := l.inst.Lookup(m.Symbol); ok {
		l.mu.Lock()
		l.entries[name] = &entry{state: Installed, handle: h}
		l.mu.Unlock()
		return h, nil
	}

	v, err, shared := l.group.Do(name, func() (any, error) {
		return l.fetchAndInstall(ctx, m)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		l.log.Debug("shared in-flight load", zap.String("module", name))
	}
	return v.(Handle), nil
}

// Factory returns the namespace-extended export when the module defines
// one, falling back to the primary symbol.
func (l *Loader) Factory(ctx context.Context, name string) (Handle, error) {
	h, err := l.Ensure(ctx, name)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	m := l.known[name]
	l.mu.Unlock()
	if m.Extended == "" {
		return h, nil
	}
	if ext, ok := l.inst.Lookup(m.Extended); ok {
		return ext, nil
	}
	return h, nil
}

func (l *Loader) fetchAndInstall(ctx context.Context, m Module) (Handle, error) {
	l.setState(m.Name, Fetching, nil)

	reply, err := l.rp.Request(ctx, bridge.Message{Action: bridge.BundleAction(m.Name)})
	if err != nil {
		l.setState(m.Name, NotLoaded, nil)
		return nil, fmt.Errorf("fetch bundle %s: %w", m.Name, err)
	}

	raw, err := DecodeBundle(reply.Bundle, reply.Encoding)
	if err != nil {
		l.setState(m.Name, NotLoaded, nil)
		return nil, &LoadError{Module: m.Name, Reason: err.Error()}
	}
	if len(raw) == 0 {
		l.setState(m.Name, NotLoaded, nil)
		return nil, &LoadError{Module: m.Name, Reason: "bundle unavailable"}
	}

	if err := l.inst.Install(ctx, m.Name, raw); err != nil {
		l.setState(m.Name, NotLoaded, nil)
		return nil, &LoadError{Module: m.Name, Reason: fmt.Sprintf("install: %v", err)}
	}

	h, ok := l.inst.Lookup(m.Symbol)
	if !ok {
		l.setState(m.Name, NotLoaded, nil)
		return nil, &LoadError{Module: m.Name, Reason: fmt.Sprintf("symbol %s not found after install", m.Symbol)}
	}

	l.setState(m.Name, Installed, h)
	l.log.Info("module installed",
		zap.String("module", m.Name),
		zap.String("symbol", m.Symbol),
		zap.Int("bundle_bytes", len(raw)))
	return h, nil
}

func (l *Loader) setState(name string, s State, h Handle) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if s == NotLoaded {
		delete(l.entries, name)
		return
	}
	l.entries[name] = &entry{state: s, handle: h}
}
