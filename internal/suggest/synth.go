// Package suggest synthesizes the rewrite attached to async_fn_in_trait
// diagnostics: an `async fn` becomes a plain `fn` returning
// `impl std::future::Future<Output = T>` plus the requested bounds.
package suggest

import (
	"traitlint/internal/diag"
	"traitlint/internal/fix"
	"traitlint/internal/hir"
	"traitlint/internal/source"
)

// Request describes the method to rewrite.
type Request struct {
	Sig    hir.FnSig
	Body   hir.BodyRef
	Opaque hir.OpaqueID
	// ExtraBounds is appended verbatim after the future type, e.g. " + Send".
	ExtraBounds string
}

// Suggestion is a rewrite of the region Span. Replacement is the text of that
// region once Edits are applied.
type Suggestion struct {
	Span        source.Span
	Replacement string
	Edits       []diag.TextEdit
}

// Synthesizer builds a Suggestion or declines.
type Synthesizer interface {
	Synthesize(req Request) (Suggestion, bool)
}

// SynthesizerFunc adapts a function to Synthesizer.
type SynthesizerFunc func(req Request) (Suggestion, bool)

// Synthesize calls f.
func (f SynthesizerFunc) Synthesize(req Request) (Suggestion, bool) {
	return f(req)
}

// OpaqueLookup resolves opaque type definitions. *hir.Unit implements it.
type OpaqueLookup interface {
	Opaque(id hir.OpaqueID) (*hir.OpaqueTy, bool)
}

const futurePath = "impl std::future::Future"

// Desugarer is the default Synthesizer. It reads source text from Files and
// opaque definitions from Opaques; both are read-only, so one Desugarer may be
// shared by concurrent callers.
type Desugarer struct {
	Files   *source.FileSet
	Opaques OpaqueLookup
}

var _ Synthesizer = Desugarer{}

// Synthesize implements Synthesizer.
func (d Desugarer) Synthesize(req Request) (Suggestion, bool) {
	if d.Files == nil || d.Opaques == nil {
		return Suggestion{}, false
	}
	asyncSpan, ok := d.Files.ExtendWhile(req.Sig.Header.Async.Span, isSpace)
	if !ok {
		return Suggestion{}, false
	}
	output, ok := d.futureOutput(req.Opaque)
	if !ok {
		return Suggestion{}, false
	}

	asyncText, _ := d.Files.Snippet(asyncSpan)
	edits := []diag.TextEdit{{Span: asyncSpan, OldText: asyncText}}

	ret := req.Sig.Decl.Output.Span
	future := futurePath + "<Output = " + output + ">" + req.ExtraBounds
	if ret.Empty() {
		edits = append(edits, diag.TextEdit{Span: ret, NewText: " -> " + future})
	} else {
		old, ok := d.Files.Snippet(ret)
		if !ok {
			return Suggestion{}, false
		}
		edits = append(edits, diag.TextEdit{Span: ret, NewText: "-> " + future, OldText: old})
	}

	region := asyncSpan.Cover(req.Sig.Span)
	if req.Body.Provided {
		inner, ok := req.Body.Span.Inner(1)
		if !ok {
			return Suggestion{}, false
		}
		if inner.Empty() {
			edits = append(edits, diag.TextEdit{Span: inner, NewText: " async {} "})
		} else {
			edits = append(edits,
				diag.TextEdit{Span: inner.ShrinkToLo(), NewText: " async {"},
				diag.TextEdit{Span: inner.ShrinkToHi(), NewText: "} "},
			)
		}
		region = region.Cover(req.Body.Span)
	}

	text, ok := d.Files.Snippet(region)
	if !ok {
		return Suggestion{}, false
	}
	rewritten, err := fix.ApplyEdits([]byte(text), region.Start, edits)
	if err != nil {
		return Suggestion{}, false
	}
	return Suggestion{Span: region, Replacement: string(rewritten), Edits: edits}, true
}

// futureOutput returns the text of T in the opaque's single
// `Future<Output = T>` bound.
func (d Desugarer) futureOutput(id hir.OpaqueID) (string, bool) {
	opaque, ok := d.Opaques.Opaque(id)
	if !ok || opaque == nil {
		return "", false
	}
	var future *hir.GenericBound
	for i := range opaque.Bounds {
		if opaque.Bounds[i].Lang != hir.LangFuture {
			continue
		}
		if future != nil {
			return "", false
		}
		future = &opaque.Bounds[i]
	}
	if future == nil || len(future.Bindings) == 0 {
		return "", false
	}
	binding := future.Bindings[0]
	if binding.Name != "Output" || binding.Ty == nil {
		return "", false
	}
	if !binding.Ty.Span.Empty() {
		if s, ok := d.Files.Snippet(binding.Ty.Span); ok && s != "" {
			return s, true
		}
	}
	if binding.Ty.Text != "" {
		return binding.Ty.Text, true
	}
	return "()", true
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
