// Package testkit builds hir fixtures from snippets of source text for tests.
//
// It locates declarations by plain substring search and brace matching; it is
// not a parser and only understands the handful of shapes fixtures use.
package testkit

import (
	"strings"
	"testing"

	"fortio.org/safecast"

	"traitlint/internal/hir"
	"traitlint/internal/source"
)

// UnitBuilder assembles a single-file hir.Unit.
type UnitBuilder struct {
	tb     testing.TB
	name   string
	path   string
	src    string
	file   source.FileID
	traits []*TraitBuilder
	attrs  []hir.LintAttr

	opaques    []hir.OpaqueTy
	nextItem   uint32
	nextOpaque uint32
}

// TraitBuilder collects the items of one trait.
type TraitBuilder struct {
	unit  *UnitBuilder
	trait hir.Trait
	items []*hir.TraitItem
	from  int // поиск следующего элемента начинается отсюда
}

// NewUnit starts a unit whose only file is path with content src.
func NewUnit(tb testing.TB, name, path, src string) *UnitBuilder {
	tb.Helper()
	return &UnitBuilder{tb: tb, name: name, path: path, src: src}
}

// Src returns the unit's source text.
func (b *UnitBuilder) Src() string { return b.src }

// Span returns the span of the first occurrence of substr at or after from.
func (b *UnitBuilder) Span(substr string, from int) source.Span {
	b.tb.Helper()
	idx := strings.Index(b.src[from:], substr)
	if idx < 0 {
		b.tb.Fatalf("testkit: %q not found in source after offset %d", substr, from)
	}
	return b.span(from+idx, from+idx+len(substr))
}

func (b *UnitBuilder) span(start, end int) source.Span {
	b.tb.Helper()
	s, err := safecast.Conv[uint32](start)
	if err != nil {
		b.tb.Fatalf("testkit: offset %d: %v", start, err)
	}
	e, err := safecast.Conv[uint32](end)
	if err != nil {
		b.tb.Fatalf("testkit: offset %d: %v", end, err)
	}
	return source.Span{File: b.file, Start: s, End: e}
}

// Attr adds a unit-level lint attribute.
func (b *UnitBuilder) Attr(level, lint string) *UnitBuilder {
	b.attrs = append(b.attrs, hir.LintAttr{Level: level, Lint: lint})
	return b
}

// Trait locates "trait <name>" and starts a trait builder.
func (b *UnitBuilder) Trait(name string, public bool) *TraitBuilder {
	b.tb.Helper()
	head := b.Span("trait "+name, 0)
	end := len(b.src)
	if open := strings.IndexByte(b.src[head.End:], '{'); open >= 0 {
		if closeIdx, ok := matchBrace(b.src, int(head.End)+open); ok {
			end = closeIdx + 1
		}
	}
	start := int(head.Start)
	if public && strings.HasSuffix(b.src[:start], "pub ") {
		start -= len("pub ")
	}
	tr := &TraitBuilder{
		unit: b,
		trait: hir.Trait{
			ID:     hir.TraitID(len(b.traits) + 1), // #nosec G115
			Name:   name,
			Span:   b.span(start, end),
			Public: public,
		},
		from: int(head.End),
	}
	b.traits = append(b.traits, tr)
	return tr
}

// Attr adds a trait-level lint attribute.
func (t *TraitBuilder) Attr(level, lint string) *TraitBuilder {
	t.trait.Attrs = append(t.trait.Attrs, hir.LintAttr{Level: level, Lint: lint})
	return t
}

// Method locates decl (e.g. "async fn m(&self) -> u8;") inside the trait and
// models it. Async methods get the opaque-future return type and a matching
// opaque definition with a Future<Output = T> bound.
func (t *TraitBuilder) Method(decl string) *hir.TraitItem {
	b := t.unit
	b.tb.Helper()

	whole := b.Span(decl, t.from)
	start := int(whole.Start)
	isAsync := strings.HasPrefix(decl, "async")

	fnIdx := strings.Index(decl, "fn ")
	open := strings.IndexByte(decl, '(')
	if fnIdx < 0 || open < 0 {
		b.tb.Fatalf("testkit: %q is not a function declaration", decl)
	}
	name := strings.TrimSpace(decl[fnIdx+3 : open])
	closeParen, ok := matchParen(b.src, start+open)
	if !ok {
		b.tb.Fatalf("testkit: unbalanced parameters in %q", decl)
	}

	afterParams := closeParen + 1
	sigEnd := afterParams
	var written *hir.Ty
	outSpan := b.span(afterParams, afterParams)
	rest := b.src[afterParams:]
	if trimmed := strings.TrimLeft(rest, " \t\n"); strings.HasPrefix(trimmed, "->") {
		arrow := afterParams + (len(rest) - len(trimmed))
		tyStart := arrow + 2
		for tyStart < len(b.src) && b.src[tyStart] == ' ' {
			tyStart++
		}
		stop := strings.IndexAny(b.src[tyStart:], ";{")
		if stop < 0 {
			b.tb.Fatalf("testkit: return type of %q is not terminated", decl)
		}
		tyEnd := tyStart + stop
		for tyEnd > tyStart && b.src[tyEnd-1] == ' ' {
			tyEnd--
		}
		written = &hir.Ty{Span: b.span(tyStart, tyEnd), Text: b.src[tyStart:tyEnd]}
		outSpan = b.span(arrow, tyEnd)
		sigEnd = tyEnd
	}

	item := &hir.TraitItem{
		ID:   hir.ItemID(b.nextItemID()),
		Name: name,
		Kind: hir.TraitItemFn,
		Fn: &hir.TraitFn{
			Sig: hir.FnSig{Span: b.span(start, sigEnd)},
		},
	}
	fn := item.Fn

	itemEnd := int(whole.End)
	if brace := strings.IndexAny(b.src[sigEnd:], ";{"); brace >= 0 && b.src[sigEnd+brace] == '{' {
		if closeBrace, ok := matchBrace(b.src, sigEnd+brace); ok {
			fn.Body = hir.BodyRef{Provided: true, Span: b.span(sigEnd+brace, closeBrace+1)}
			itemEnd = max(itemEnd, closeBrace+1)
		}
	}
	item.Span = b.span(start, itemEnd)

	switch {
	case isAsync:
		fn.Sig.Header.Async = hir.Asyncness{IsAsync: true, Span: b.span(start, start+len("async"))}
		output := written
		if output == nil {
			output = &hir.Ty{Span: outSpan, Text: "()"}
		}
		id := b.addOpaque(output, item.Span)
		fn.Sig.Decl.Output = hir.RetTy{Kind: hir.RetOpaqueFuture, Span: outSpan, Opaque: id}
	case written != nil:
		fn.Sig.Decl.Output = hir.RetTy{Kind: hir.RetExplicit, Span: outSpan, Ty: written}
	default:
		fn.Sig.Decl.Output = hir.RetTy{Kind: hir.RetDefault, Span: outSpan}
	}

	t.items = append(t.items, item)
	t.from = itemEnd
	return item
}

// Const adds a non-function item so scanners see mixed item kinds.
func (t *TraitBuilder) Const(decl string) *hir.TraitItem {
	b := t.unit
	b.tb.Helper()
	sp := b.Span(decl, t.from)
	item := &hir.TraitItem{
		ID:   hir.ItemID(b.nextItemID()),
		Name: decl,
		Kind: hir.TraitItemConst,
		Span: sp,
	}
	t.items = append(t.items, item)
	t.from = int(sp.End)
	return item
}

func (b *UnitBuilder) nextItemID() uint32 {
	b.nextItem++
	return b.nextItem
}

func (b *UnitBuilder) addOpaque(output *hir.Ty, span source.Span) hir.OpaqueID {
	b.nextOpaque++
	id := hir.OpaqueID(b.nextOpaque)
	b.opaques = append(b.opaques, hir.OpaqueTy{
		ID:   id,
		Span: span,
		Bounds: []hir.GenericBound{{
			Lang:     hir.LangFuture,
			Path:     "Future",
			Bindings: []hir.TypeBinding{{Name: "Output", Ty: output}},
			Span:     span,
		}},
	})
	return id
}

// Opaque returns the opaque definition built for an async method, for
// fixtures that need to tamper with its bounds.
func (b *UnitBuilder) Opaque(id hir.OpaqueID) *hir.OpaqueTy {
	for i := range b.opaques {
		if b.opaques[i].ID == id {
			return &b.opaques[i]
		}
	}
	b.tb.Fatalf("testkit: opaque %d not found", id)
	return nil
}

// Build returns the assembled unit. Later changes to the builder do not
// affect it.
func (b *UnitBuilder) Build() *hir.Unit {
	unit := &hir.Unit{
		Name:    b.name,
		Files:   []hir.FileEntry{{Path: b.path, Content: b.src}},
		Attrs:   append([]hir.LintAttr(nil), b.attrs...),
		Opaques: append([]hir.OpaqueTy(nil), b.opaques...),
	}
	for _, tr := range b.traits {
		trait := tr.trait
		trait.Attrs = append([]hir.LintAttr(nil), tr.trait.Attrs...)
		trait.Items = make([]hir.TraitItem, 0, len(tr.items))
		for _, it := range tr.items {
			trait.Items = append(trait.Items, *it)
		}
		unit.Traits = append(unit.Traits, trait)
	}
	return unit
}

// FileSet builds the unit and its file set in one step.
func (b *UnitBuilder) FileSet() (*hir.Unit, *source.FileSet) {
	b.tb.Helper()
	unit := b.Build()
	fs, err := unit.FileSet("")
	if err != nil {
		b.tb.Fatalf("testkit: %v", err)
	}
	return unit, fs
}

func matchParen(src string, open int) (int, bool) {
	return matchPair(src, open, '(', ')')
}

func matchBrace(src string, open int) (int, bool) {
	return matchPair(src, open, '{', '}')
}

func matchPair(src string, open int, l, r byte) (int, bool) {
	depth := 0
	for i := open; i < len(src); i++ {
		switch src[i] {
		case l:
			depth++
		case r:
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}
