package moddle

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/operaton-labs/enginebridge/internal/bridge"
	"github.com/operaton-labs/enginebridge/internal/modules"
	"github.com/operaton-labs/enginebridge/internal/modules/jsvm"
)

// Miniature stand-ins for the real UMD bundles, exercising the same
// surface the wrappers rely on: a namespace-extended factory, promise
// results, and the differ's category maps.
const fakeBPMNBundle = `
self.BpmnModdle = function() {};
self.createBpmnModdle = function() {
	return {
		fromXML: function(xml) {
			return Promise.resolve({
				rootElement: { id: "Definitions_1", source: xml },
				warnings: [xml.indexOf("task") === -1 ? "no tasks" : null].filter(Boolean)
			});
		},
		toXML: function(el, opts) {
			var xml = "<definitions id=\"" + el.id + "\"/>";
			if (opts && opts.format) { xml = xml + "\n"; }
			return Promise.resolve({ xml: xml });
		},
		create: function(type, attrs) {
			return { $type: type, id: attrs && attrs.id };
		}
	};
};`

const fakeDifferBundle = `
self.bpmnDiff = function(oldRoot, newRoot) {
	var changed = {};
	if (oldRoot.source !== newRoot.source) {
		changed["Definitions_1"] = { id: "Definitions_1" };
	}
	return { _added: {}, _removed: {}, _changed: changed, _layoutChanged: {} };
};`

type bundleServer struct {
	bundles map[string]string
}

func (s *bundleServer) Request(_ context.Context, msg bridge.Message) (bridge.Message, error) {
	name, _ := bridge.IsBundleAction(msg.Action)
	return bridge.Message{Action: msg.Action, RequestID: msg.RequestID, Bundle: s.bundles[name]}, nil
}

func newLoader() *modules.Loader {
	server := &bundleServer{bundles: map[string]string{
		modules.ModuleBPMN:   fakeBPMNBundle,
		modules.ModuleDiffer: fakeDifferBundle,
	}}
	return modules.NewLoader(server, jsvm.New(nil), nil)
}

func TestParse(t *testing.T) {
	p := NewBPMN(newLoader())

	res, err := p.Parse(context.Background(), `<definitions><task/></definitions>`)
	require.NoError(t, err)

	id, ok := res.Root.Get("id")
	require.True(t, ok)
	assert.Equal(t, "Definitions_1", id.Export())
	assert.Empty(t, res.Warnings)
}

func TestParseCollectsWarnings(t *testing.T) {
	p := NewBPMN(newLoader())

	res, err := p.Parse(context.Background(), `<definitions/>`)
	require.NoError(t, err)
	assert.Equal(t, []any{"no tasks"}, res.Warnings)
}

func TestSerialize(t *testing.T) {
	p := NewBPMN(newLoader())
	ctx := context.Background()

	res, err := p.Parse(ctx, `<definitions/>`)
	require.NoError(t, err)

	xml, err := p.Serialize(ctx, res.Root, false)
	require.NoError(t, err)
	assert.Equal(t, `<definitions id="Definitions_1"/>`, xml)

	formatted, err := p.Serialize(ctx, res.Root, true)
	require.NoError(t, err)
	assert.Equal(t, xml+"\n", formatted)
}

func TestCreate(t *testing.T) {
	p := NewBPMN(newLoader())

	el, err := p.Create(context.Background(), "bpmn:Task", map[string]any{"id": "Task_1"})
	require.NoError(t, err)

	typ, ok := el.Get("$type")
	require.True(t, ok)
	assert.Equal(t, "bpmn:Task", typ.Export())
}

func TestCompareDetectsChange(t *testing.T) {
	d := NewDiffer(newLoader())

	res, err := d.Compare(context.Background(), `<definitions a="1"/>`, `<definitions a="2"/>`)
	require.NoError(t, err)

	assert.True(t, res.HasChanges())
	assert.Equal(t, []string{"Definitions_1"}, res.ChangedIDs())
	assert.Empty(t, res.AddedIDs())
	assert.Empty(t, res.RemovedIDs())
	assert.Empty(t, res.LayoutChangedIDs())
}

func TestCompareIdenticalDocuments(t *testing.T) {
	d := NewDiffer(newLoader())

	res, err := d.Compare(context.Background(), `<definitions/>`, `<definitions/>`)
	require.NoError(t, err)
	assert.False(t, res.HasChanges())
}

func TestParseUnknownModuleBundleMissing(t *testing.T) {
	// DMN bundle not served: the loader must surface a LoadError.
	p := NewDMN(newLoader())

	_, err := p.Parse(context.Background(), `<definitions/>`)
	var le *modules.LoadError
	require.ErrorAs(t, err, &le)
	assert.Contains(t, le.Reason, "bundle unavailable")
}
