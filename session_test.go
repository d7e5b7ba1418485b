package enginebridge_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	enginebridge "github.com/operaton-labs/enginebridge"
	"github.com/operaton-labs/enginebridge/internal/bridge"
	"github.com/operaton-labs/enginebridge/internal/env"
	"github.com/operaton-labs/enginebridge/internal/host"
	"github.com/operaton-labs/enginebridge/internal/transport"
)

const sessionBPMNBundle = `
self.BpmnModdle = function() {};
self.createBpmnModdle = function() {
	return {
		fromXML: function(xml) {
			return Promise.resolve({
				rootElement: { id: "Definitions_1", source: xml },
				warnings: []
			});
		},
		toXML: function(el, opts) {
			return Promise.resolve({ xml: "<definitions id=\"" + el.id + "\"/>" });
		},
		create: function(type, attrs) {
			return { $type: type, id: attrs && attrs.id };
		}
	};
};`

// startHost answers channel traffic in-process: one endpoint pair, the
// host side wired straight into a Responder.
func startHost(t *testing.T, envSeed map[string]string, bundles map[string]string) *transport.Endpoint {
	t.Helper()

	dir := t.TempDir()
	store, err := host.OpenStore(filepath.Join(dir, "store.json"))
	require.NoError(t, err)
	require.NoError(t, store.SeedEnv(envSeed))

	manifest := &host.Manifest{Bundles: map[string]host.BundleSource{}}
	for name, src := range bundles {
		path := filepath.Join(dir, name+".js")
		require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
		manifest.Bundles[name] = host.BundleSource{Path: path}
	}

	responder := host.NewResponder(store, host.NewRegistry(manifest, nil), 4096, nil)

	sandboxEnd, hostEnd := transport.NewPair()
	hostEnd.SetHandler(func(frame []byte) {
		req, err := bridge.Decode(frame)
		if err != nil {
			return
		}
		out, err := responder.Dispatch(req).Encode()
		require.NoError(t, err)
		require.NoError(t, hostEnd.Send(out))
	})
	t.Cleanup(func() { hostEnd.Close() })

	return sandboxEnd
}

func TestSessionEnvLifecycle(t *testing.T) {
	end := startHost(t, map[string]string{env.KeyEngineAPI: "https://engine.local/rest/"}, nil)
	sess := enginebridge.Attach(end, enginebridge.Options{})
	defer sess.Close()

	ctx := context.Background()
	require.NoError(t, sess.Init(ctx))

	api, err := sess.Env().Get(env.KeyEngineAPI)
	require.NoError(t, err)
	assert.Equal(t, "https://engine.local/rest/", api)

	_, ok, err := sess.Env().Lookup(env.KeyCSRFToken)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, sess.Env().Write(ctx, "theme", "dark"))
	v, ok, err := sess.Env().Read(ctx, "theme")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "dark", v)

	keys, err := sess.Env().Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"theme"}, keys)

	require.NoError(t, sess.Env().Remove(ctx, "theme"))
	_, ok, err = sess.Env().Read(ctx, "theme")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSessionEngineRequest(t *testing.T) {
	var gotCSRF string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"id":"proc-1"}`))
		case http.MethodPost:
			gotCSRF = r.Header.Get("X-XSRF-TOKEN")
			w.WriteHeader(http.StatusNoContent)
		}
	}))
	defer srv.Close()

	end := startHost(t, map[string]string{
		env.KeyEngineAPI: srv.URL,
		env.KeyCSRFToken: "tok-123",
	}, nil)
	sess := enginebridge.Attach(end, enginebridge.Options{})
	defer sess.Close()

	ctx := context.Background()
	require.NoError(t, sess.Init(ctx))

	got, err := sess.Engine().Get(ctx, "process-definition/42", false)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"id": "proc-1"}, got)

	_, err = sess.Engine().Post(ctx, "process-definition/42/start", map[string]any{"businessKey": "k"})
	require.NoError(t, err)
	assert.Equal(t, "tok-123", gotCSRF)
}

func TestSessionModuleParse(t *testing.T) {
	end := startHost(t, nil, map[string]string{"bpmn-moddle": sessionBPMNBundle})
	sess := enginebridge.Attach(end, enginebridge.Options{})
	defer sess.Close()

	ctx := context.Background()
	res, err := sess.BPMN().Parse(ctx, `<definitions/>`)
	require.NoError(t, err)

	id, ok := res.Root.Get("id")
	require.True(t, ok)
	assert.Equal(t, "Definitions_1", id.Export())

	xml, err := sess.BPMN().Serialize(ctx, res.Root, false)
	require.NoError(t, err)
	assert.Equal(t, `<definitions id="Definitions_1"/>`, xml)
}

func TestSessionRequestTimeout(t *testing.T) {
	// Peer with no handler: every request goes unanswered.
	end, _ := transport.NewPair()
	sess := enginebridge.Attach(end, enginebridge.Options{RequestTimeout: 50 * time.Millisecond})
	defer sess.Close()

	_, _, err := sess.Env().Read(context.Background(), "anything")
	var te *bridge.TimeoutError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, 50*time.Millisecond, te.Wait)
	assert.Zero(t, sess.Pending())
}
