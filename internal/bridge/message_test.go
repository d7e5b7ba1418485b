package bridge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBundleAction(t *testing.T) {
	action := BundleAction("bpmn-moddle")
	assert.Equal(t, "get_bundle:bpmn-moddle", action)

	name, ok := IsBundleAction(action)
	require.True(t, ok)
	assert.Equal(t, "bpmn-moddle", name)

	_, ok = IsBundleAction("get_value")
	assert.False(t, ok)

	// A bare prefix names no module.
	_, ok = IsBundleAction("get_bundle:")
	assert.False(t, ok)
}

func TestValidateRequest(t *testing.T) {
	tests := []struct {
		name    string
		msg     Message
		wantErr bool
	}{
		{"snapshot", Message{Action: ActionGetSnapshot, RequestID: "1"}, false},
		{"list keys", Message{Action: ActionListKeys, RequestID: "1"}, false},
		{"bundle", Message{Action: BundleAction("dmn-moddle"), RequestID: "1"}, false},
		{"get with key", Message{Action: ActionGetValue, RequestID: "1", Key: "k"}, false},
		{"get without key", Message{Action: ActionGetValue, RequestID: "1"}, true},
		{"set complete", Message{Action: ActionSetValue, RequestID: "1", Key: "k", Value: StringValue("")}, false},
		{"set without value", Message{Action: ActionSetValue, RequestID: "1", Key: "k"}, true},
		{"remove without key", Message{Action: ActionRemoveValue, RequestID: "1"}, true},
		{"missing action", Message{RequestID: "1"}, true},
		{"error not requestable", Message{Action: ActionError, RequestID: "1"}, true},
		{"unknown action", Message{Action: "reboot", RequestID: "1"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.msg.ValidateRequest()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateReply(t *testing.T) {
	assert.NoError(t, Message{Action: "pong", RequestID: "1"}.ValidateReply())
	assert.Error(t, Message{Action: "pong"}.ValidateReply())
	assert.Error(t, Message{RequestID: "1"}.ValidateReply())
	assert.Error(t, Message{Action: ActionError, RequestID: "1"}.ValidateReply())
	assert.NoError(t, Message{Action: ActionError, RequestID: "1", Error: "boom"}.ValidateReply())
}

func TestCodecRoundTrip(t *testing.T) {
	msg := Message{
		Action:    ActionSetValue,
		RequestID: "7",
		Key:       "env",
		Value:     StringValue(`{"ENGINE_API":"http://localhost/engine-rest"}`),
	}

	frame, err := msg.Encode()
	require.NoError(t, err)

	got, err := Decode(frame)
	require.NoError(t, err)
	assert.Equal(t, msg, got)
}

func TestDecodeMalformed(t *testing.T) {
	_, err := Decode([]byte("{not json"))
	assert.Error(t, err)
}

func TestEmptyFieldsOmitted(t *testing.T) {
	frame, err := Message{Action: ActionListKeys, RequestID: "1"}.Encode()
	require.NoError(t, err)
	assert.NotContains(t, string(frame), "bundle")
	assert.NotContains(t, string(frame), "variables")
	assert.NotContains(t, string(frame), "success")
}
