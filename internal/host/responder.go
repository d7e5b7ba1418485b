package host

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/operaton-labs/enginebridge/internal/bridge"
	"github.com/operaton-labs/enginebridge/internal/logging"
	"github.com/operaton-labs/enginebridge/internal/modules"
)

// Responder answers bridge requests against the store and the bundle
// registry. Transport-agnostic: the websocket hub and in-process
// embeddings both route through Dispatch.
type Responder struct {
	store    *Store
	registry *Registry
	log      *logging.Logger

	// Bundles at or above this many bytes are compressed on the wire.
	compressThreshold int
}

// NewResponder wires a responder.
func NewResponder(store *Store, registry *Registry, compressThreshold int, log *logging.Logger) *Responder {
	if log == nil {
		log = logging.NewNop()
	}
	return &Responder{
		store:             store,
		registry:          registry,
		log:               log.Component("responder"),
		compressThreshold: compressThreshold,
	}
}

// Dispatch answers one request. The reply always carries the request's
// id so the sandbox-side correlator can match it.
func (r *Responder) Dispatch(req bridge.Message) bridge.Message {
	if err := req.ValidateRequest(); err != nil {
		return r.fail(req, err)
	}

	if name, ok := bridge.IsBundleAction(req.Action); ok {
		return r.bundle(req, name)
	}

	switch req.Action {
	case bridge.ActionGetSnapshot:
		return bridge.Message{Action: req.Action, RequestID: req.RequestID, Variables: r.store.Snapshot()}

	case bridge.ActionGetValue:
		reply := bridge.Message{Action: req.Action, RequestID: req.RequestID}
		if v, ok := r.store.Get(req.Key); ok {
			reply.Value = bridge.StringValue(v)
		}
		return reply

	case bridge.ActionSetValue:
		if err := r.store.Set(req.Key, *req.Value); err != nil {
			return r.fail(req, err)
		}
		return bridge.Message{Action: req.Action, RequestID: req.RequestID, Success: bridge.BoolValue(true)}

	case bridge.ActionRemoveValue:
		if err := r.store.Remove(req.Key); err != nil {
			return r.fail(req, err)
		}
		return bridge.Message{Action: req.Action, RequestID: req.RequestID, Success: bridge.BoolValue(true)}

	case bridge.ActionListKeys:
		return bridge.Message{Action: req.Action, RequestID: req.RequestID, Keys: r.store.Keys()}

	default:
		return r.fail(req, fmt.Errorf("unsupported action %q", req.Action))
	}
}

func (r *Responder) bundle(req bridge.Message, name string) bridge.Message {
	raw, err := r.registry.Fetch(name)
	if err != nil {
		return r.fail(req, err)
	}

	payload, encoding, err := modules.EncodeBundle(raw, r.compressThreshold)
	if err != nil {
		return r.fail(req, err)
	}
	return bridge.Message{
		Action:    req.Action,
		RequestID: req.RequestID,
		Bundle:    payload,
		Encoding:  encoding,
	}
}

func (r *Responder) fail(req bridge.Message, err error) bridge.Message {
	r.log.Warn("request failed",
		zap.String("action", req.Action),
		zap.String("request_id", req.RequestID),
		zap.Error(err))
	return bridge.Message{
		Action:    bridge.ActionError,
		RequestID: req.RequestID,
		Error:     err.Error(),
	}
}
