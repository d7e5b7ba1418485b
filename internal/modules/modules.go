package modules

import "context"

// Module describes a remotely hosted code bundle. Symbol is the global
// the bundle exports; Extended, when set, names a factory variant that
// pre-wires namespace extensions.
type Module struct {
	Name     string
	Symbol   string
	Extended string
}

// Well-known module names.
const (
	ModuleBPMN   = "bpmn-moddle"
	ModuleDMN    = "dmn-moddle"
	ModuleDiffer = "bpmn-js-differ"
)

// DefaultModules returns the registry of bundles the host is expected
// to serve: the two document-model parsers (each also exporting a
// namespace-extended factory) and the diff module.
func DefaultModules() []Module {
	return []Module{
		{Name: ModuleBPMN, Symbol: "BpmnModdle", Extended: "createBpmnModdle"},
		{Name: ModuleDMN, Symbol: "DmnModdle", Extended: "createDmnModdle"},
		{Name: ModuleDiffer, Symbol: "bpmnDiff"},
	}
}

// Handle is an opaque reference to an installed bundle export. The
// loader never inspects what is behind it; the Installer decides.
type Handle interface {
	// New constructs an instance when the export is a constructor.
	New(args ...any) (Handle, error)

	// Invoke calls the export itself when it is a plain function.
	Invoke(args ...any) (Handle, error)

	// Call invokes a method on the value behind the handle.
	Call(method string, args ...any) (Handle, error)

	// Get reads a field of the value behind the handle.
	Get(field string) (Handle, bool)

	// Export converts the value behind the handle to plain Go data.
	Export() any
}

// Installer is the host-provided install hook. The loader hands it raw
// bundle bytes and never evaluates bundle text itself.
type Installer interface {
	// Install evaluates a bundle in an isolated scope.
	Install(ctx context.Context, name string, bundle []byte) error

	// Lookup resolves an exported symbol in the install scope.
	Lookup(symbol string) (Handle, bool)
}
