package bridge

import (
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
)

// Actions understood by the bridge. get_bundle is parameterized by
// module name; use BundleAction to build it.
const (
	ActionError       = "error"
	ActionGetSnapshot = "get_snapshot"
	ActionGetValue    = "get_value"
	ActionSetValue    = "set_value"
	ActionRemoveValue = "remove_value"
	ActionListKeys    = "list_keys"

	bundlePrefix = "get_bundle:"
)

// BundleAction returns the action requesting the named module's bundle.
func BundleAction(name string) string {
	return bundlePrefix + name
}

// IsBundleAction reports whether action requests a bundle and, if so,
// the module name it targets.
func IsBundleAction(action string) (string, bool) {
	if !strings.HasPrefix(action, bundlePrefix) {
		return "", false
	}
	name := action[len(bundlePrefix):]
	return name, name != ""
}

// Message is the single tagged frame crossing the channel in both
// directions. Fields not used by an action stay empty and are omitted
// from the wire form.
type Message struct {
	Action    string `json:"action"`
	RequestID string `json:"request_id,omitempty"`

	// Storage operations.
	Key   string   `json:"key,omitempty"`
	Value *string  `json:"value,omitempty"`
	Keys  []string `json:"keys,omitempty"`

	// Module bundles.
	Bundle   string `json:"bundle,omitempty"`
	Encoding string `json:"encoding,omitempty"`

	// Environment snapshot.
	Variables map[string]string `json:"variables,omitempty"`

	// Host-reported outcome.
	Success *bool  `json:"success,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Encode serializes the message for the wire.
func (m Message) Encode() ([]byte, error) {
	return sonic.Marshal(m)
}

// Decode parses a frame into a message.
func Decode(frame []byte) (Message, error) {
	var m Message
	if err := sonic.Unmarshal(frame, &m); err != nil {
		return Message{}, fmt.Errorf("malformed bridge frame: %w", err)
	}
	return m, nil
}

// ValidateRequest checks the fields an outbound request must carry.
func (m Message) ValidateRequest() error {
	if m.Action == "" {
		return fmt.Errorf("bridge message missing action")
	}
	if m.Action == ActionError {
		return fmt.Errorf("error is not a requestable action")
	}
	switch m.Action {
	case ActionGetValue, ActionRemoveValue:
		if m.Key == "" {
			return fmt.Errorf("%s requires key", m.Action)
		}
	case ActionSetValue:
		if m.Key == "" {
			return fmt.Errorf("set_value requires key")
		}
		if m.Value == nil {
			return fmt.Errorf("set_value requires value")
		}
	case ActionGetSnapshot, ActionListKeys:
		// No parameters.
	default:
		if _, ok := IsBundleAction(m.Action); !ok {
			return fmt.Errorf("unknown action %q", m.Action)
		}
	}
	return nil
}

// ValidateReply checks the fields an inbound reply must carry.
func (m Message) ValidateReply() error {
	if m.Action == "" {
		return fmt.Errorf("bridge reply missing action")
	}
	if m.RequestID == "" {
		return fmt.Errorf("bridge reply missing request_id")
	}
	if m.Action == ActionError && m.Error == "" {
		return fmt.Errorf("error reply missing error text")
	}
	return nil
}

// StringValue builds a *string for Message.Value.
func StringValue(s string) *string { return &s }

// BoolValue builds a *bool for Message.Success.
func BoolValue(b bool) *bool { return &b }
