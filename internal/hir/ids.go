// Package hir is the typed item model the lint passes read.
//
// It mirrors the part of the host compiler's high-level IR that trait lints
// need: traits, their items, function signatures with the async marker and
// the desugared return type, and the opaque types async functions expand to.
// Trees arrive already resolved, usually decoded from a dump (see dump.go);
// nothing in this package parses source text.
//
// All values are read-only once a Unit is built. Lint passes borrow them and
// never mutate them, so a Unit may be shared between goroutines.
package hir

// TraitID identifies a trait within a Unit.
type TraitID uint32

// ItemID identifies a trait item within a Unit.
type ItemID uint32

// OpaqueID identifies an opaque type definition (e.g. the anonymous future
// behind an async fn) within a Unit.
type OpaqueID uint32

// Invalid ID constants (zero is sentinel).
const (
	NoTraitID  TraitID  = 0
	NoItemID   ItemID   = 0
	NoOpaqueID OpaqueID = 0
)

// IsValid returns true if the ID is valid (non-zero).
func (id TraitID) IsValid() bool  { return id != NoTraitID }
func (id ItemID) IsValid() bool   { return id != NoItemID }
func (id OpaqueID) IsValid() bool { return id != NoOpaqueID }
