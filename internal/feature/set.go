// Package feature answers "is capability X enabled for this compilation".
//
// A Set is built once, before the first trait item is visited, and is never
// mutated afterwards. It is passed by value to every evaluation, so no
// goroutine can observe a partially built set.
package feature

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ReturnTypeNotation lets callers bound the future returned by a trait
// method at use sites, which makes async_fn_in_trait redundant.
const ReturnTypeNotation = "return_type_notation"

// ErrUnknownFeature is returned by Parse for names outside Known().
var ErrUnknownFeature = errors.New("unknown feature")

var known = []string{
	ReturnTypeNotation,
}

// Known lists the feature names Parse accepts.
func Known() []string {
	return slices.Clone(known)
}

// Set is an immutable set of enabled feature names.
// The zero value has nothing enabled.
type Set struct {
	enabled map[string]struct{}
}

// New builds a set from names without validating them.
func New(names ...string) Set {
	if len(names) == 0 {
		return Set{}
	}
	enabled := make(map[string]struct{}, len(names))
	for _, n := range names {
		n = normalize(n)
		if n != "" {
			enabled[n] = struct{}{}
		}
	}
	return Set{enabled: enabled}
}

// Parse reads a comma separated list ("return_type_notation, foo").
// Dashes are accepted in place of underscores.
func Parse(list string) (Set, error) {
	var names []string
	for _, raw := range strings.Split(list, ",") {
		name := normalize(raw)
		if name == "" {
			continue
		}
		if !slices.Contains(known, name) {
			return Set{}, fmt.Errorf("%w: %q (known: %s)", ErrUnknownFeature, name, strings.Join(known, ", "))
		}
		names = append(names, name)
	}
	return New(names...), nil
}

// Union returns a new set holding the features of both sets.
func (s Set) Union(other Set) Set {
	return New(append(s.Names(), other.Names()...)...)
}

// Has reports whether the capability is enabled.
func (s Set) Has(name string) bool {
	_, ok := s.enabled[normalize(name)]
	return ok
}

// Len returns the number of enabled features.
func (s Set) Len() int {
	return len(s.enabled)
}

// Names returns enabled features in sorted order.
func (s Set) Names() []string {
	out := make([]string, 0, len(s.enabled))
	for n := range s.enabled {
		out = append(out, n)
	}
	slices.Sort(out)
	return out
}

func (s Set) String() string {
	return strings.Join(s.Names(), ",")
}

func normalize(name string) string {
	return strings.ReplaceAll(strings.TrimSpace(name), "-", "_")
}
