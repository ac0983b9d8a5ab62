package lint

import (
	"sort"
	"strings"

	"traitlint/internal/hir"
)

// Scope is the chain of lint attributes around an item, outermost first.
type Scope struct {
	Unit  []hir.LintAttr
	Outer []hir.LintAttr // trait or impl
	Item  []hir.LintAttr
}

// LevelMap holds overrides from the command line and the config file.
// It is filled before scanning and read-only afterwards.
type LevelMap struct {
	overrides map[string]Level
	// WarningsAsErrors raises every resolved Warn to Deny.
	WarningsAsErrors bool
}

// NewLevelMap returns a map with no overrides.
func NewLevelMap() *LevelMap {
	return &LevelMap{overrides: make(map[string]Level)}
}

// Set overrides the starting level of lint name. Later calls win.
func (m *LevelMap) Set(name string, level Level) {
	if m.overrides == nil {
		m.overrides = make(map[string]Level)
	}
	m.overrides[name] = level
}

// Override returns the override for name, if any.
func (m *LevelMap) Override(name string) (Level, bool) {
	if m == nil {
		return Allow, false
	}
	l, ok := m.overrides[name]
	return l, ok
}

// Resolve returns the level in effect for l inside scope. The starting level
// is the override or l.Default; unit, outer and item attributes then apply in
// turn, the innermost winning, except that nothing lowers a Forbid.
// Attributes naming other lints or carrying an unknown level are ignored.
func (m *LevelMap) Resolve(l Lint, scope Scope) Level {
	level := l.Default
	if o, ok := m.Override(l.Name); ok {
		level = o
	}
	for _, attrs := range [...][]hir.LintAttr{scope.Unit, scope.Outer, scope.Item} {
		for _, a := range attrs {
			if a.Lint != l.Name {
				continue
			}
			parsed, err := ParseLevel(a.Level)
			if err != nil || level == Forbid {
				continue
			}
			level = parsed
		}
	}
	if m != nil && m.WarningsAsErrors && level == Warn {
		level = Deny
	}
	return level
}

// Key is a stable rendering of the overrides, for cache keys.
func (m *LevelMap) Key() string {
	if m == nil {
		return ""
	}
	parts := make([]string, 0, len(m.overrides)+1)
	for name, l := range m.overrides {
		parts = append(parts, name+"="+l.String())
	}
	sort.Strings(parts)
	if m.WarningsAsErrors {
		parts = append(parts, "warnings=deny")
	}
	return strings.Join(parts, ",")
}
