package moddle

import (
	"context"
	"fmt"
	"sort"

	"github.com/operaton-labs/enginebridge/internal/modules"
)

// DiffResult categorizes element changes between two documents.
type DiffResult struct {
	Added         map[string]any
	Removed       map[string]any
	Changed       map[string]any
	LayoutChanged map[string]any
}

// HasChanges reports whether any category is non-empty.
func (r *DiffResult) HasChanges() bool {
	return len(r.Added) > 0 || len(r.Removed) > 0 || len(r.Changed) > 0 || len(r.LayoutChanged) > 0
}

// AddedIDs returns the sorted ids of added elements.
func (r *DiffResult) AddedIDs() []string { return sortedKeys(r.Added) }

// RemovedIDs returns the sorted ids of removed elements.
func (r *DiffResult) RemovedIDs() []string { return sortedKeys(r.Removed) }

// ChangedIDs returns the sorted ids of modified elements.
func (r *DiffResult) ChangedIDs() []string { return sortedKeys(r.Changed) }

// LayoutChangedIDs returns the sorted ids of elements whose layout
// alone changed.
func (r *DiffResult) LayoutChangedIDs() []string { return sortedKeys(r.LayoutChanged) }

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Differ compares two BPMN documents through the diff module.
type Differ struct {
	loader *modules.Loader
	parser *Parser
}

// NewDiffer creates a differ sharing the given loader.
func NewDiffer(l *modules.Loader) *Differ {
	return &Differ{loader: l, parser: NewBPMN(l)}
}

// Compare parses both documents and computes their element-level diff.
func (d *Differ) Compare(ctx context.Context, oldXML, newXML string) (*DiffResult, error) {
	oldDoc, err := d.parser.Parse(ctx, oldXML)
	if err != nil {
		return nil, fmt.Errorf("old document: %w", err)
	}
	newDoc, err := d.parser.Parse(ctx, newXML)
	if err != nil {
		return nil, fmt.Errorf("new document: %w", err)
	}

	diffFn, err := d.loader.Ensure(ctx, modules.ModuleDiffer)
	if err != nil {
		return nil, err
	}

	res, err := diffFn.Invoke(oldDoc.Root, newDoc.Root)
	if err != nil {
		return nil, fmt.Errorf("diff: %w", err)
	}

	return &DiffResult{
		Added:         category(res, "_added"),
		Removed:       category(res, "_removed"),
		Changed:       category(res, "_changed"),
		LayoutChanged: category(res, "_layoutChanged"),
	}, nil
}

func category(res modules.Handle, field string) map[string]any {
	h, ok := res.Get(field)
	if !ok {
		return map[string]any{}
	}
	if m, ok := h.Export().(map[string]any); ok {
		return m
	}
	return map[string]any{}
}
