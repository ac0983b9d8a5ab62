package hir

import (
	"traitlint/internal/source"
)

// ImplID identifies an impl block within a Unit.
type ImplID uint32

// Impl is an `impl Trait for Type` block. Items reuse the trait item shape;
// an impl method always has a body.
type Impl struct {
	ID     ImplID      `json:"id" msgpack:"id"`
	Trait  string      `json:"trait,omitempty" msgpack:"trait,omitempty"` // empty for inherent impls
	SelfTy string      `json:"self_ty" msgpack:"self_ty"`
	Span   source.Span `json:"span" msgpack:"span"`
	Items  []TraitItem `json:"items" msgpack:"items"`
	Attrs  []LintAttr  `json:"attrs,omitempty" msgpack:"attrs,omitempty"`
}
