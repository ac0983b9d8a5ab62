package testkit

import (
	"fmt"

	"traitlint/internal/hir"
	"traitlint/internal/source"
)

// CheckSpanInvariants runs a minimal set of span invariants on a unit:
// 1) every trait and item span is non-empty and inside its file
// 2) every item span is contained in its trait span
// 3) async markers and bodies lie inside their item
// 4) async methods carry the opaque-future return type and a known opaque
func CheckSpanInvariants(unit *hir.Unit, fs *source.FileSet) error {
	if unit == nil || fs == nil {
		return fmt.Errorf("nil unit or file set")
	}
	inFile := func(sp source.Span) error {
		if _, ok := fs.Snippet(sp); !ok {
			return fmt.Errorf("span %v does not fit its file", sp)
		}
		return nil
	}
	for ti := range unit.Traits {
		tr := &unit.Traits[ti]
		if tr.Span.Empty() {
			return fmt.Errorf("trait %s: empty span", tr.Name)
		}
		if err := inFile(tr.Span); err != nil {
			return fmt.Errorf("trait %s: %w", tr.Name, err)
		}
		for ii := range tr.Items {
			it := &tr.Items[ii]
			if it.Span.Empty() {
				return fmt.Errorf("item %s: empty span", it.Name)
			}
			if !tr.Span.Contains(it.Span) {
				return fmt.Errorf("item %s span %v is outside trait span %v", it.Name, it.Span, tr.Span)
			}
			fn, ok := it.Method()
			if !ok {
				continue
			}
			if fn.Body.Provided && !it.Span.Contains(fn.Body.Span) {
				return fmt.Errorf("item %s: body %v outside item", it.Name, fn.Body.Span)
			}
			async := fn.Sig.Header.Async
			if !async.IsAsync {
				continue
			}
			if !it.Span.Contains(async.Span) {
				return fmt.Errorf("item %s: async marker %v outside item", it.Name, async.Span)
			}
			id, ok := fn.Sig.Decl.Output.OpaqueFuture()
			if !ok {
				return fmt.Errorf("item %s: async without opaque-future return type", it.Name)
			}
			if _, ok := unit.Opaque(id); !ok {
				return fmt.Errorf("item %s: unknown opaque %d", it.Name, id)
			}
		}
	}
	return nil
}
