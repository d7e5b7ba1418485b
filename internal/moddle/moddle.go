package moddle

import (
	"context"
	"fmt"

	"github.com/operaton-labs/enginebridge/internal/modules"
)

// ParseResult holds a parsed document. Root stays an opaque handle so
// it can be serialized again or fed to the differ without losing its
// identity inside the install scope.
type ParseResult struct {
	Root     modules.Handle
	Warnings []any
}

// Parser wraps one document-model module (BPMN or DMN).
type Parser struct {
	loader *modules.Loader
	module string
}

// NewBPMN returns the parser for BPMN 2.0 documents.
func NewBPMN(l *modules.Loader) *Parser {
	return &Parser{loader: l, module: modules.ModuleBPMN}
}

// NewDMN returns the parser for DMN 1.3 documents.
func NewDMN(l *modules.Loader) *Parser {
	return &Parser{loader: l, module: modules.ModuleDMN}
}

// instance builds a fresh moddle instance, preferring the
// namespace-extended factory when the bundle ships one.
func (p *Parser) instance(ctx context.Context) (modules.Handle, error) {
	factory, err := p.loader.Factory(ctx, p.module)
	if err != nil {
		return nil, err
	}
	// Extended factories are plain functions; the primary export is a
	// constructor. Try the call first, fall back to construction.
	if inst, err := factory.Invoke(); err == nil && inst.Export() != nil {
		return inst, nil
	}
	return factory.New()
}

// Parse reads a document from XML.
func (p *Parser) Parse(ctx context.Context, xml string) (*ParseResult, error) {
	inst, err := p.instance(ctx)
	if err != nil {
		return nil, err
	}

	res, err := inst.Call("fromXML", xml)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", p.module, err)
	}

	root, ok := res.Get("rootElement")
	if !ok {
		return nil, fmt.Errorf("parse %s: no root element", p.module)
	}

	out := &ParseResult{Root: root}
	if w, ok := res.Get("warnings"); ok {
		if ws, ok := w.Export().([]any); ok {
			out.Warnings = ws
		}
	}
	return out, nil
}

// Serialize writes a parsed root element back to XML.
func (p *Parser) Serialize(ctx context.Context, root modules.Handle, format bool) (string, error) {
	inst, err := p.instance(ctx)
	if err != nil {
		return "", err
	}

	res, err := inst.Call("toXML", root, map[string]any{"format": format})
	if err != nil {
		return "", fmt.Errorf("serialize %s: %w", p.module, err)
	}

	xmlVal, ok := res.Get("xml")
	if !ok {
		return "", fmt.Errorf("serialize %s: no xml in result", p.module)
	}
	xml, ok := xmlVal.Export().(string)
	if !ok {
		return "", fmt.Errorf("serialize %s: xml is not text", p.module)
	}
	return xml, nil
}

// Create builds a new element of the given type, e.g. "bpmn:Task".
func (p *Parser) Create(ctx context.Context, elementType string, attrs map[string]any) (modules.Handle, error) {
	inst, err := p.instance(ctx)
	if err != nil {
		return nil, err
	}
	return inst.Call("create", elementType, attrs)
}
