package lint_test

import (
	"reflect"
	"testing"

	"traitlint/internal/diag"
	"traitlint/internal/feature"
	"traitlint/internal/fix"
	"traitlint/internal/hir"
	"traitlint/internal/lint"
	"traitlint/internal/source"
	"traitlint/internal/suggest"
	"traitlint/internal/testkit"
)

const src = `pub trait Service {
    async fn call(&self, req: Request) -> Response;
    fn ready(&self) -> bool;
    async fn flush(&self) {}
}
`

type fixture struct {
	unit  *hir.Unit
	fs    *source.FileSet
	call  *hir.TraitItem
	ready *hir.TraitItem
	flush *hir.TraitItem
	synth suggest.Synthesizer
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	b := testkit.NewUnit(t, "svc", "src/lib.rs", src)
	tr := b.Trait("Service", true)
	f := fixture{
		call:  tr.Method("async fn call(&self, req: Request) -> Response;"),
		ready: tr.Method("fn ready(&self) -> bool;"),
		flush: tr.Method("async fn flush(&self) {}"),
	}
	f.unit, f.fs = b.FileSet()
	f.synth = suggest.Desugarer{Files: f.fs, Opaques: f.unit}
	return f
}

func declining() suggest.Synthesizer {
	return suggest.SynthesizerFunc(func(suggest.Request) (suggest.Suggestion, bool) {
		return suggest.Suggestion{}, false
	})
}

func TestEvaluate_SyncMethodsNeverFire(t *testing.T) {
	f := newFixture(t)
	sets := []feature.Set{{}, feature.New(feature.ReturnTypeNotation)}
	shapes := []hir.RetTyKind{hir.RetDefault, hir.RetExplicit, hir.RetOpaqueFuture}
	for _, fs := range sets {
		for _, kind := range shapes {
			item := *f.ready
			fn := *item.Fn
			fn.Sig.Decl.Output.Kind = kind
			item.Fn = &fn
			if _, ok := lint.EvaluateAsyncFnInTrait(&item, fs, f.synth); ok {
				t.Errorf("sync method fired with features=%v output=%v", fs, kind)
			}
		}
	}
}

func TestEvaluate_AsyncMethodFires(t *testing.T) {
	f := newFixture(t)
	d, ok := lint.EvaluateAsyncFnInTrait(f.call, feature.Set{}, f.synth)
	if !ok {
		t.Fatal("expected a diagnostic")
	}
	if d.Primary != f.call.Fn.Sig.Header.Async.Span {
		t.Errorf("primary = %v, want async marker %v", d.Primary, f.call.Fn.Sig.Header.Async.Span)
	}
	if got, _ := f.fs.Snippet(d.Primary); got != "async" {
		t.Errorf("primary covers %q", got)
	}
	if d.Severity != diag.SevWarning || d.Code != diag.LintAsyncFnInTrait || d.Lint != "async_fn_in_trait" {
		t.Errorf("unexpected identity: %v %v %q", d.Severity, d.Code, d.Lint)
	}
	if d.Message != "use of `async fn` in public traits is discouraged as auto trait bounds cannot be specified" {
		t.Errorf("message = %q", d.Message)
	}
	if len(d.Notes) != 1 || d.Notes[0].Msg != "you can suppress this lint if you plan to use the trait only in your own code, or do not care about auto traits like `Send` on the `Future`" {
		t.Errorf("notes = %+v", d.Notes)
	}

	if len(d.Fixes) != 1 {
		t.Fatalf("fixes = %+v", d.Fixes)
	}
	sugg := d.Fixes[0]
	if sugg.Applicability != diag.FixApplicabilityManualReview {
		t.Errorf("applicability = %v", sugg.Applicability)
	}
	if sugg.Title != "you can alternatively desugar to a normal `fn` that returns `impl Future` and add any desired bounds such as `Send`, but these cannot be relaxed without a breaking API change" {
		t.Errorf("title = %q", sugg.Title)
	}
	const want = "fn call(&self, req: Request) -> impl std::future::Future<Output = Response> + Send"
	if sugg.Preview != want {
		t.Errorf("preview\n got %q\nwant %q", sugg.Preview, want)
	}
	if sugg.ID != "async_fn_in_trait-0-24" {
		t.Errorf("fix id = %q", sugg.ID)
	}

	file := f.fs.Get(0)
	rewritten, err := fix.ApplyEdits(file.Content, 0, sugg.Edits)
	if err != nil {
		t.Fatalf("edits do not apply: %v", err)
	}
	const wantFile = `pub trait Service {
    fn call(&self, req: Request) -> impl std::future::Future<Output = Response> + Send;
    fn ready(&self) -> bool;
    async fn flush(&self) {}
}
`
	if string(rewritten) != wantFile {
		t.Errorf("rewritten file:\n%s", rewritten)
	}
}

func TestEvaluate_ProvidedBody(t *testing.T) {
	f := newFixture(t)
	d, ok := lint.EvaluateAsyncFnInTrait(f.flush, feature.Set{}, f.synth)
	if !ok {
		t.Fatal("expected a diagnostic")
	}
	const want = "fn flush(&self) -> impl std::future::Future<Output = ()> + Send { async {} }"
	if d.Fixes[0].Preview != want {
		t.Errorf("preview = %q", d.Fixes[0].Preview)
	}
}

func TestEvaluate_ReturnTypeNotationSuppresses(t *testing.T) {
	f := newFixture(t)
	called := false
	synth := suggest.SynthesizerFunc(func(req suggest.Request) (suggest.Suggestion, bool) {
		called = true
		return f.synth.Synthesize(req)
	})
	if _, ok := lint.EvaluateAsyncFnInTrait(f.call, feature.New(feature.ReturnTypeNotation), synth); ok {
		t.Fatal("lint fired with return_type_notation enabled")
	}
	if called {
		t.Error("synthesizer consulted although the feature short-circuits")
	}
}

func TestEvaluate_InconsistentReturnType(t *testing.T) {
	f := newFixture(t)
	for _, kind := range []hir.RetTyKind{hir.RetDefault, hir.RetExplicit, hir.RetTyKind(42)} {
		item := *f.call
		fn := *item.Fn
		fn.Sig.Decl.Output.Kind = kind
		item.Fn = &fn
		if _, ok := lint.EvaluateAsyncFnInTrait(&item, feature.Set{}, f.synth); ok {
			t.Errorf("fired for output kind %v", kind)
		}
	}
}

func TestEvaluate_SynthesizerDeclines(t *testing.T) {
	f := newFixture(t)
	if _, ok := lint.EvaluateAsyncFnInTrait(f.call, feature.Set{}, declining()); ok {
		t.Fatal("fired although the synthesizer declined")
	}
}

func TestEvaluate_RequestShape(t *testing.T) {
	f := newFixture(t)
	var got suggest.Request
	synth := suggest.SynthesizerFunc(func(req suggest.Request) (suggest.Suggestion, bool) {
		got = req
		return suggest.Suggestion{Span: req.Sig.Span, Replacement: "fn flush"}, true
	})
	d, ok := lint.EvaluateAsyncFnInTrait(f.flush, feature.Set{}, synth)
	if !ok {
		t.Fatal("expected a diagnostic")
	}
	if got.ExtraBounds != " + Send" {
		t.Errorf("extra bounds = %q", got.ExtraBounds)
	}
	if got.Opaque != f.flush.Fn.Sig.Decl.Output.Opaque || !got.Opaque.IsValid() {
		t.Errorf("opaque = %d", got.Opaque)
	}
	if !reflect.DeepEqual(got.Sig, f.flush.Fn.Sig) || got.Body != f.flush.Fn.Body {
		t.Error("request does not carry the method signature and body")
	}
	if d.Fixes[0].Preview != "fn flush" || d.Fixes[0].PreviewSpan != f.flush.Fn.Sig.Span {
		t.Errorf("suggestion not attached verbatim: %+v", d.Fixes[0])
	}
}

func TestEvaluate_Deterministic(t *testing.T) {
	f := newFixture(t)
	a, okA := lint.EvaluateAsyncFnInTrait(f.call, feature.Set{}, f.synth)
	b, okB := lint.EvaluateAsyncFnInTrait(f.call, feature.Set{}, f.synth)
	if !okA || !okB || !reflect.DeepEqual(a, b) {
		t.Fatalf("results differ:\n%+v\n%+v", a, b)
	}
}

func TestEvaluate_NilInputs(t *testing.T) {
	f := newFixture(t)
	if _, ok := lint.EvaluateAsyncFnInTrait(nil, feature.Set{}, f.synth); ok {
		t.Error("nil item fired")
	}
	if _, ok := lint.EvaluateAsyncFnInTrait(f.call, feature.Set{}, nil); ok {
		t.Error("nil synthesizer fired")
	}
	noFn := &hir.TraitItem{Kind: hir.TraitItemFn}
	if _, ok := lint.EvaluateAsyncFnInTrait(noFn, feature.Set{}, f.synth); ok {
		t.Error("fn item without a declaration fired")
	}
	constItem := &hir.TraitItem{Kind: hir.TraitItemConst, Fn: f.call.Fn}
	if _, ok := lint.EvaluateAsyncFnInTrait(constItem, feature.Set{}, f.synth); ok {
		t.Error("const item fired")
	}
}

func TestAsyncFnInTraitPass_ShortOutput(t *testing.T) {
	f := newFixture(t)
	bag := diag.NewBag(10)
	sink := lint.NewSink(diag.BagReporter{Bag: bag}, lint.NewLevelMap())
	cx := lint.NewContext(f.unit, feature.Set{}, f.synth, sink)

	var pass lint.LatePass = lint.AsyncFnInTraitPass{}
	tr := &f.unit.Traits[0]
	tcx := cx.Enter(tr.Attrs)
	pass.CheckTrait(tcx, tr)
	for i := range tr.Items {
		it := &tr.Items[i]
		pass.CheckTraitItem(tcx.At(it.Attrs), tr, it)
	}

	got := diag.FormatShortDiagnostics(bag.Items(), f.fs, false)
	const want = "warning LNT4001 src/lib.rs:2:5 [async_fn_in_trait] use of `async fn` in public traits is discouraged as auto trait bounds cannot be specified\n" +
		"warning LNT4001 src/lib.rs:4:5 [async_fn_in_trait] use of `async fn` in public traits is discouraged as auto trait bounds cannot be specified"
	if got != want {
		t.Errorf("short output:\n%s\nwant:\n%s", got, want)
	}
}
