package lint

import (
	"traitlint/internal/hir"
)

// LatePass is a lint pass over resolved items. The scanner calls one method
// per item kind; passes embed NopPass and override what they need.
type LatePass interface {
	// Name identifies the pass in logs.
	Name() string
	CheckTrait(cx *Context, tr *hir.Trait)
	CheckTraitItem(cx *Context, tr *hir.Trait, it *hir.TraitItem)
	CheckImplItem(cx *Context, im *hir.Impl, it *hir.TraitItem)
	// CheckFn runs for every function item, in traits and impls alike.
	CheckFn(cx *Context, it *hir.TraitItem, fn *hir.TraitFn)
}

// NopPass implements every LatePass check as a no-op.
type NopPass struct{}

func (NopPass) CheckTrait(*Context, *hir.Trait) {}
func (NopPass) CheckTraitItem(*Context, *hir.Trait, *hir.TraitItem) {}
func (NopPass) CheckImplItem(*Context, *hir.Impl, *hir.TraitItem) {}
func (NopPass) CheckFn(*Context, *hir.TraitItem, *hir.TraitFn) {}

// BuiltinPasses returns one instance of every built-in pass.
func BuiltinPasses() []LatePass {
	return []LatePass{AsyncFnInTraitPass{}}
}
