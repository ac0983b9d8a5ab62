package lint

import (
	"traitlint/internal/diag"
	"traitlint/internal/feature"
	"traitlint/internal/hir"
	"traitlint/internal/suggest"
)

// Context is what a pass sees while checking one item. Everything but the
// sink is read-only.
type Context struct {
	Unit     *hir.Unit
	Features feature.Set
	Synth    suggest.Synthesizer

	sink  *Sink
	scope Scope
}

// NewContext returns a context rooted at unit, with the unit attributes as
// the outermost scope.
func NewContext(unit *hir.Unit, features feature.Set, synth suggest.Synthesizer, sink *Sink) *Context {
	cx := &Context{Unit: unit, Features: features, Synth: synth, sink: sink}
	if unit != nil {
		cx.scope.Unit = unit.Attrs
	}
	return cx
}

// Enter returns a copy of cx whose scope has outer attributes set and item
// attributes cleared.
func (cx *Context) Enter(outer []hir.LintAttr) *Context {
	next := *cx
	next.scope.Outer = outer
	next.scope.Item = nil
	return &next
}

// At returns a copy of cx scoped to one item.
func (cx *Context) At(item []hir.LintAttr) *Context {
	next := *cx
	next.scope.Item = item
	return &next
}

// Scope returns the attribute chain in effect.
func (cx *Context) Scope() Scope { return cx.scope }

// Emit hands d to the sink under the current scope.
func (cx *Context) Emit(l Lint, d diag.Diagnostic) bool {
	if cx == nil {
		return false
	}
	return cx.sink.Emit(l, cx.scope, d)
}
