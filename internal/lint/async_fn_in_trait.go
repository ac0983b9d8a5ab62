package lint

import (
	"fmt"

	"traitlint/internal/diag"
	"traitlint/internal/feature"
	"traitlint/internal/fix"
	"traitlint/internal/hir"
	"traitlint/internal/suggest"
)

const (
	asyncFnInTraitMsg  = "use of `async fn` in public traits is discouraged as auto trait bounds cannot be specified"
	asyncFnInTraitNote = "you can suppress this lint if you plan to use the trait only in your own code, or do not care about auto traits like `Send` on the `Future`"
	asyncFnInTraitFix  = "you can alternatively desugar to a normal `fn` that returns `impl Future` and add any desired bounds such as `Send`, but these cannot be relaxed without a breaking API change"

	sendBound = " + Send"
)

// EvaluateAsyncFnInTrait decides whether item is an `async fn` that should be
// desugared so callers can require `Send` on its future. It returns the
// diagnostic to emit, or false when the lint does not apply: the item is not
// an async method, return type notation is enabled, the return type is not
// the async desugaring, or synth declines to build the rewrite.
// It has no side effects.
func EvaluateAsyncFnInTrait(item *hir.TraitItem, features feature.Set, synth suggest.Synthesizer) (diag.Diagnostic, bool) {
	fn, ok := item.Method()
	if !ok || !fn.Sig.Header.Async.IsAsync {
		return diag.Diagnostic{}, false
	}
	if features.Has(feature.ReturnTypeNotation) {
		return diag.Diagnostic{}, false
	}
	opaque, ok := fn.Sig.Decl.Output.OpaqueFuture()
	if !ok {
		// async без десугаринга в opaque future: дерево неконсистентно, молчим
		return diag.Diagnostic{}, false
	}
	if synth == nil {
		return diag.Diagnostic{}, false
	}
	sugg, ok := synth.Synthesize(suggest.Request{
		Sig:         fn.Sig,
		Body:        fn.Body,
		Opaque:      opaque,
		ExtraBounds: sendBound,
	})
	if !ok {
		return diag.Diagnostic{}, false
	}

	asyncSpan := fn.Sig.Header.Async.Span
	suggestion := fix.Edits(asyncFnInTraitFix, sugg.Edits,
		fix.WithID(fmt.Sprintf("%s-%d-%d", AsyncFnInTrait.Name, asyncSpan.File, asyncSpan.Start)),
		fix.WithKind(diag.FixKindRefactorRewrite),
		fix.WithApplicability(diag.FixApplicabilityManualReview),
		fix.WithPreview(sugg.Span, sugg.Replacement),
	)
	d := diag.NewWarning(AsyncFnInTrait.Code, asyncSpan, asyncFnInTraitMsg).
		WithLint(AsyncFnInTrait.Name).
		WithNote(asyncSpan, asyncFnInTraitNote).
		WithFixSuggestion(suggestion)
	return d, true
}

// AsyncFnInTraitPass reports EvaluateAsyncFnInTrait results for trait
// methods. Impl items are not checked: the lint is about trait definitions.
type AsyncFnInTraitPass struct{ NopPass }

// Name implements LatePass.
func (AsyncFnInTraitPass) Name() string { return AsyncFnInTrait.Name }

// CheckTraitItem implements LatePass.
func (AsyncFnInTraitPass) CheckTraitItem(cx *Context, _ *hir.Trait, it *hir.TraitItem) {
	if d, ok := EvaluateAsyncFnInTrait(it, cx.Features, cx.Synth); ok {
		cx.Emit(AsyncFnInTrait, d)
	}
}
