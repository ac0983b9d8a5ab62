package hir

import (
	"traitlint/internal/source"
)

// TraitItemKind enumerates trait item kinds.
type TraitItemKind uint8

const (
	// TraitItemFn is a method or associated function.
	TraitItemFn TraitItemKind = iota + 1
	// TraitItemConst is an associated constant.
	TraitItemConst
	// TraitItemType is an associated type.
	TraitItemType
)

// String returns a human-readable name for the item kind.
func (k TraitItemKind) String() string {
	switch k {
	case TraitItemFn:
		return "fn"
	case TraitItemConst:
		return "const"
	case TraitItemType:
		return "type"
	default:
		return "unknown"
	}
}

// Trait is a trait definition.
type Trait struct {
	ID     TraitID     `json:"id" msgpack:"id"`
	Name   string      `json:"name" msgpack:"name"`
	Span   source.Span `json:"span" msgpack:"span"`
	Public bool        `json:"public,omitempty" msgpack:"public,omitempty"`
	Items  []TraitItem `json:"items" msgpack:"items"`
	Attrs  []LintAttr  `json:"attrs,omitempty" msgpack:"attrs,omitempty"`
}

// TraitItem is one declaration inside a trait body.
type TraitItem struct {
	ID    ItemID        `json:"id" msgpack:"id"`
	Name  string        `json:"name" msgpack:"name"`
	Kind  TraitItemKind `json:"kind" msgpack:"kind"`
	Span  source.Span   `json:"span" msgpack:"span"`
	Fn    *TraitFn      `json:"fn,omitempty" msgpack:"fn,omitempty"` // nil unless Kind == TraitItemFn
	Attrs []LintAttr    `json:"attrs,omitempty" msgpack:"attrs,omitempty"`
}

// TraitFn is a trait method declaration: its signature and optional default body.
type TraitFn struct {
	Sig  FnSig   `json:"sig" msgpack:"sig"`
	Body BodyRef `json:"body" msgpack:"body"`
}

// Method returns the method declaration for function items.
func (it *TraitItem) Method() (*TraitFn, bool) {
	if it == nil || it.Kind != TraitItemFn || it.Fn == nil {
		return nil, false
	}
	return it.Fn, true
}

// FnSig is a function signature.
type FnSig struct {
	Header FnHeader    `json:"header" msgpack:"header"`
	Decl   FnDecl      `json:"decl" msgpack:"decl"`
	Span   source.Span `json:"span" msgpack:"span"`
}

// FnHeader groups the qualifiers written before `fn`.
type FnHeader struct {
	Async Asyncness `json:"async" msgpack:"async"`
}

// Asyncness records the async marker. Span covers the keyword only.
type Asyncness struct {
	IsAsync bool        `json:"is_async" msgpack:"is_async"`
	Span    source.Span `json:"span" msgpack:"span"`
}

// FnDecl is the parameter list and the return type.
type FnDecl struct {
	Params []Param `json:"params,omitempty" msgpack:"params,omitempty"`
	Output RetTy   `json:"output" msgpack:"output"`
}

// Param is a function parameter.
type Param struct {
	Name string      `json:"name" msgpack:"name"`
	Ty   *Ty         `json:"ty,omitempty" msgpack:"ty,omitempty"`
	Span source.Span `json:"span" msgpack:"span"`
}

// Ty is a written type. Text is the spelling the producer saw; consumers
// prefer the source snippet under Span and fall back to Text.
type Ty struct {
	Span source.Span `json:"span" msgpack:"span"`
	Text string      `json:"text,omitempty" msgpack:"text,omitempty"`
}

// RetTyKind tags the RetTy variant.
type RetTyKind uint8

const (
	// RetDefault: nothing written; Span is the empty insertion point after `)`.
	RetDefault RetTyKind = iota
	// RetExplicit: `-> T` with Ty set.
	RetExplicit
	// RetOpaqueFuture: the async desugaring; Opaque names the future type.
	// Span covers the written `-> T`, or is the insertion point when no
	// type was written.
	RetOpaqueFuture
)

func (k RetTyKind) String() string {
	switch k {
	case RetDefault:
		return "default"
	case RetExplicit:
		return "explicit"
	case RetOpaqueFuture:
		return "opaque-future"
	default:
		return "unknown"
	}
}

// RetTy is the declared return type.
type RetTy struct {
	Kind   RetTyKind   `json:"kind" msgpack:"kind"`
	Span   source.Span `json:"span" msgpack:"span"`
	Ty     *Ty         `json:"ty,omitempty" msgpack:"ty,omitempty"`
	Opaque OpaqueID    `json:"opaque,omitempty" msgpack:"opaque,omitempty"`
}

// OpaqueFuture returns the opaque type ID when the return type is the
// async desugaring.
func (r RetTy) OpaqueFuture() (OpaqueID, bool) {
	if r.Kind != RetOpaqueFuture {
		return NoOpaqueID, false
	}
	return r.Opaque, true
}

// BodyRef points at a default method body. Span includes the braces.
type BodyRef struct {
	Provided bool        `json:"provided,omitempty" msgpack:"provided,omitempty"`
	Span     source.Span `json:"span" msgpack:"span"`
}

// LangItem names bounds the compiler knows by identity.
type LangItem uint8

const (
	LangNone LangItem = iota
	LangFuture
)

// GenericBound is one bound of an opaque type, e.g. `Future<Output = T>`.
type GenericBound struct {
	Lang     LangItem      `json:"lang,omitempty" msgpack:"lang,omitempty"`
	Path     string        `json:"path,omitempty" msgpack:"path,omitempty"`
	Bindings []TypeBinding `json:"bindings,omitempty" msgpack:"bindings,omitempty"`
	Span     source.Span   `json:"span" msgpack:"span"`
}

// TypeBinding is an associated type equality inside a bound (`Output = T`).
type TypeBinding struct {
	Name string `json:"name" msgpack:"name"`
	Ty   *Ty    `json:"ty,omitempty" msgpack:"ty,omitempty"`
}

// OpaqueTy is an opaque type definition.
type OpaqueTy struct {
	ID     OpaqueID       `json:"id" msgpack:"id"`
	Bounds []GenericBound `json:"bounds" msgpack:"bounds"`
	Span   source.Span    `json:"span" msgpack:"span"`
}

// LintAttr is an item-level lint level attribute such as
// #[allow(async_fn_in_trait)]. Level holds "allow", "warn", "deny" or "forbid".
type LintAttr struct {
	Level string      `json:"level" msgpack:"level"`
	Lint  string      `json:"lint" msgpack:"lint"`
	Span  source.Span `json:"span" msgpack:"span"`
}
