package jsvm

import (
	"context"
	"fmt"
	"sync"

	"github.com/dop251/goja"
	"go.uber.org/zap"

	"github.com/operaton-labs/enginebridge/internal/logging"
	"github.com/operaton-labs/enginebridge/internal/modules"
)

// Installer evaluates JavaScript bundles in a single sandboxed goja VM
// and resolves their exported globals. It implements modules.Installer.
type Installer struct {
	mu  sync.Mutex
	vm  *goja.Runtime
	log *logging.Logger
}

// New creates an installer with a fresh, scrubbed VM.
func New(log *logging.Logger) *Installer {
	if log == nil {
		log = logging.NewNop()
	}
	inst := &Installer{
		vm:  goja.New(),
		log: log.Component("jsvm"),
	}
	inst.setupGlobals()
	return inst
}

// setupGlobals removes host escape hatches and gives bundles the
// browser-ish globals they expect.
func (i *Installer) setupGlobals() {
	i.vm.Set("require", goja.Undefined())
	i.vm.Set("process", goja.Undefined())
	i.vm.Set("module", goja.Undefined())
	i.vm.Set("exports", goja.Undefined())

	// UMD bundles attach their exports to self/globalThis.
	i.vm.Set("self", i.vm.GlobalObject())
	i.vm.Set("globalThis", i.vm.GlobalObject())

	i.vm.Set("setTimeout", func(call goja.FunctionCall) goja.Value {
		return goja.Undefined()
	})
	i.vm.Set("setInterval", func(call goja.FunctionCall) goja.Value {
		return goja.Undefined()
	})
}

// Install evaluates a bundle inside an IIFE so its locals never leak;
// exports must be attached to self. The context deadline interrupts
// runaway bundles.
func (i *Installer) Install(ctx context.Context, name string, bundle []byte) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			i.vm.Interrupt("install interrupted")
		case <-done:
		}
	}()

	script := "(function() {\n" + string(bundle) + "\n})();"
	if _, err := i.vm.RunScript(name, script); err != nil {
		if ctx.Err() != nil {
			i.vm.ClearInterrupt()
			return fmt.Errorf("evaluate %s: %w", name, ctx.Err())
		}
		return fmt.Errorf("evaluate %s: %w", name, err)
	}

	i.log.Debug("bundle evaluated", zap.String("module", name), zap.Int("bytes", len(bundle)))
	return nil
}

// Lookup resolves an exported global symbol.
func (i *Installer) Lookup(symbol string) (modules.Handle, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()

	val := i.vm.GlobalObject().Get(symbol)
	if val == nil || goja.IsUndefined(val) || goja.IsNull(val) {
		return nil, false
	}
	return &Handle{inst: i, value: val}, true
}

// Handle wraps a goja value as an opaque module handle.
type Handle struct {
	inst  *Installer
	value goja.Value
}

// New constructs an instance when the underlying value is a constructor.
func (h *Handle) New(args ...any) (modules.Handle, error) {
	h.inst.mu.Lock()
	defer h.inst.mu.Unlock()

	ctor, ok := goja.AssertConstructor(h.value)
	if !ok {
		return nil, fmt.Errorf("value is not a constructor")
	}
	obj, err := ctor(nil, h.inst.toValues(args)...)
	if err != nil {
		return nil, fmt.Errorf("construct: %w", err)
	}
	return &Handle{inst: h.inst, value: obj}, nil
}

// Invoke calls the underlying value as a plain function.
func (h *Handle) Invoke(args ...any) (modules.Handle, error) {
	h.inst.mu.Lock()
	defer h.inst.mu.Unlock()

	fn, ok := goja.AssertFunction(h.value)
	if !ok {
		return nil, fmt.Errorf("value is not callable")
	}
	res, err := fn(goja.Undefined(), h.inst.toValues(args)...)
	if err != nil {
		return nil, err
	}
	return h.inst.settle(res)
}

// Call invokes a method on the underlying value. A settled promise
// result is unwrapped; a pending one is an error, since bundles run
// without an event loop here.
func (h *Handle) Call(method string, args ...any) (modules.Handle, error) {
	h.inst.mu.Lock()
	defer h.inst.mu.Unlock()

	obj := h.value.ToObject(h.inst.vm)
	fnVal := obj.Get(method)
	fn, ok := goja.AssertFunction(fnVal)
	if !ok {
		return nil, fmt.Errorf("no method %q", method)
	}
	res, err := fn(obj, h.inst.toValues(args)...)
	if err != nil {
		return nil, err
	}
	return h.inst.settle(res)
}

// Get reads a field of the underlying value.
func (h *Handle) Get(field string) (modules.Handle, bool) {
	h.inst.mu.Lock()
	defer h.inst.mu.Unlock()

	obj := h.value.ToObject(h.inst.vm)
	val := obj.Get(field)
	if val == nil || goja.IsUndefined(val) || goja.IsNull(val) {
		return nil, false
	}
	return &Handle{inst: h.inst, value: val}, true
}

// Export converts the underlying value to plain Go data.
func (h *Handle) Export() any {
	h.inst.mu.Lock()
	defer h.inst.mu.Unlock()
	if h.value == nil || goja.IsUndefined(h.value) || goja.IsNull(h.value) {
		return nil
	}
	return h.value.Export()
}

// settle unwraps promise results. Moddle APIs return promises that
// resolve synchronously under goja's job queue, so a pending promise
// here means the bundle wants a real event loop and we refuse.
func (i *Installer) settle(res goja.Value) (*Handle, error) {
	if p, ok := res.Export().(*goja.Promise); ok {
		switch p.State() {
		case goja.PromiseStateFulfilled:
			return &Handle{inst: i, value: p.Result()}, nil
		case goja.PromiseStateRejected:
			return nil, fmt.Errorf("promise rejected: %s", p.Result().String())
		default:
			return nil, fmt.Errorf("asynchronous result did not settle")
		}
	}
	return &Handle{inst: i, value: res}, nil
}

// toValues converts Go arguments to goja values, passing other Handles
// through as their underlying values.
func (i *Installer) toValues(args []any) []goja.Value {
	vals := make([]goja.Value, len(args))
	for idx, arg := range args {
		if h, ok := arg.(*Handle); ok {
			vals[idx] = h.value
			continue
		}
		vals[idx] = i.vm.ToValue(arg)
	}
	return vals
}
