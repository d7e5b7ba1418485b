package env

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/operaton-labs/enginebridge/internal/bridge"
	"github.com/operaton-labs/enginebridge/internal/logging"
)

// Keys the engine client consumes from the snapshot. Everything else is
// passed through opaquely.
const (
	KeyEngineAPI = "ENGINE_API"
	KeyCSRFToken = "CSRF_TOKEN"
)

// ConfigurationError reports a read against an unmaterialized
// environment or a required key that is absent.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "configuration: " + e.Reason
}

// Requester issues correlated requests over the channel.
type Requester interface {
	Request(ctx context.Context, msg bridge.Message) (bridge.Message, error)
}

// Env materializes the host's one-time configuration snapshot and
// exposes live point operations against host-persisted storage.
type Env struct {
	rp  Requester
	log *logging.Logger

	mu     sync.Mutex
	loaded bool
	vars   map[string]string
}

// New creates an unmaterialized environment.
func New(rp Requester, log *logging.Logger) *Env {
	if log == nil {
		log = logging.NewNop()
	}
	return &Env{
		rp:  rp,
		log: log.Component("env"),
	}
}

// Ensure materializes the snapshot. Idempotent: once loaded it returns
// immediately. An empty snapshot is a warning, not an error: the
// environment stays unloaded and reads fail at point of use.
func (e *Env) Ensure(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.loaded {
		return nil
	}

	reply, err := e.rp.Request(ctx, bridge.Message{Action: bridge.ActionGetSnapshot})
	if err != nil {
		return fmt.Errorf("materialize environment: %w", err)
	}

	if len(reply.Variables) == 0 {
		e.log.Warn("environment snapshot is empty; reads will fail until a snapshot is available")
		return nil
	}

	vars := make(map[string]string, len(reply.Variables))
	for k, v := range reply.Variables {
		vars[k] = v
	}
	e.vars = vars
	e.loaded = true
	e.log.Info("environment materialized", zap.Int("variables", len(vars)))
	return nil
}

// Loaded reports whether the snapshot has been materialized.
func (e *Env) Loaded() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loaded
}

// Get reads a required key from the materialized snapshot. It never
// returns a stale or empty value silently: an unloaded environment or a
// missing key is a ConfigurationError.
func (e *Env) Get(key string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.loaded {
		return "", &ConfigurationError{Reason: "environment not materialized; call Ensure first"}
	}
	v, ok := e.vars[key]
	if !ok {
		return "", &ConfigurationError{Reason: fmt.Sprintf("required key %s absent from snapshot", key)}
	}
	return v, nil
}

// Lookup reads an optional key from the materialized snapshot.
func (e *Env) Lookup(key string) (string, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.loaded {
		return "", false, &ConfigurationError{Reason: "environment not materialized; call Ensure first"}
	}
	v, ok := e.vars[key]
	return v, ok, nil
}

// Vars returns a copy of the materialized snapshot.
func (e *Env) Vars() map[string]string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[string]string, len(e.vars))
	for k, v := range e.vars {
		out[k] = v
	}
	return out
}

// Read fetches a value from host-persisted storage. Always a live round
// trip; never served from the snapshot.
func (e *Env) Read(ctx context.Context, key string) (string, bool, error) {
	reply, err := e.rp.Request(ctx, bridge.Message{Action: bridge.ActionGetValue, Key: key})
	if err != nil {
		return "", false, err
	}
	if reply.Value == nil {
		return "", false, nil
	}
	return *reply.Value, true, nil
}

// Write stores a value in host-persisted storage.
func (e *Env) Write(ctx context.Context, key, value string) error {
	reply, err := e.rp.Request(ctx, bridge.Message{
		Action: bridge.ActionSetValue,
		Key:    key,
		Value:  bridge.StringValue(value),
	})
	if err != nil {
		return err
	}
	if reply.Success != nil && !*reply.Success {
		return fmt.Errorf("set %s: host refused", key)
	}
	return nil
}

// Remove deletes a key from host-persisted storage.
func (e *Env) Remove(ctx context.Context, key string) error {
	reply, err := e.rp.Request(ctx, bridge.Message{Action: bridge.ActionRemoveValue, Key: key})
	if err != nil {
		return err
	}
	if reply.Success != nil && !*reply.Success {
		return fmt.Errorf("remove %s: host refused", key)
	}
	return nil
}

// Keys lists all keys in host-persisted storage, sorted.
func (e *Env) Keys(ctx context.Context) ([]string, error) {
	reply, err := e.rp.Request(ctx, bridge.Message{Action: bridge.ActionListKeys})
	if err != nil {
		return nil, err
	}
	keys := append([]string(nil), reply.Keys...)
	sort.Strings(keys)
	return keys, nil
}
