package hir

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"traitlint/internal/source"
)

// ErrMissingSource is returned when a file entry has neither inline content
// nor a readable path.
var ErrMissingSource = errors.New("missing source")

// FileEntry is a source file referenced by spans of a Unit. Spans use the
// entry's position in Unit.Files as their source.FileID.
type FileEntry struct {
	Path    string `json:"path" msgpack:"path"`
	Content string `json:"content,omitempty" msgpack:"content,omitempty"`
}

// Unit is one compilation unit (a crate, in the host's terms).
type Unit struct {
	Name    string      `json:"name" msgpack:"name"`
	Files   []FileEntry `json:"files" msgpack:"files"`
	Traits  []Trait     `json:"traits" msgpack:"traits"`
	Impls   []Impl      `json:"impls,omitempty" msgpack:"impls,omitempty"`
	Opaques []OpaqueTy  `json:"opaques,omitempty" msgpack:"opaques,omitempty"`
	Attrs   []LintAttr  `json:"attrs,omitempty" msgpack:"attrs,omitempty"`

	indexOnce sync.Once
	opaques   map[OpaqueID]int
}

// Opaque returns the opaque type definition for id.
func (u *Unit) Opaque(id OpaqueID) (*OpaqueTy, bool) {
	if u == nil || !id.IsValid() {
		return nil, false
	}
	u.indexOnce.Do(func() {
		u.opaques = make(map[OpaqueID]int, len(u.Opaques))
		for i := range u.Opaques {
			// первое определение выигрывает
			if _, dup := u.opaques[u.Opaques[i].ID]; !dup {
				u.opaques[u.Opaques[i].ID] = i
			}
		}
	})
	idx, ok := u.opaques[id]
	if !ok {
		return nil, false
	}
	return &u.Opaques[idx], true
}

// ItemCount returns the number of trait items across all traits.
func (u *Unit) ItemCount() int {
	n := 0
	for i := range u.Traits {
		n += len(u.Traits[i].Items)
	}
	return n
}

// FileSet materialises the unit's files. Inline content wins; entries with
// only a path are read from disk, relative paths resolved against baseDir.
// FileIDs follow the order of Files.
func (u *Unit) FileSet(baseDir string) (*source.FileSet, error) {
	fs := source.NewFileSetWithBase(baseDir)
	for i, f := range u.Files {
		if f.Content != "" {
			fs.AddVirtual(f.Path, []byte(f.Content))
			continue
		}
		if f.Path == "" {
			return nil, fmt.Errorf("unit %q: file #%d: %w", u.Name, i, ErrMissingSource)
		}
		path := f.Path
		if !filepath.IsAbs(path) && baseDir != "" {
			path = filepath.Join(baseDir, path)
		}
		if _, err := fs.Load(path); err != nil {
			return nil, fmt.Errorf("unit %q: file %q: %w: %w", u.Name, f.Path, ErrMissingSource, err)
		}
	}
	return fs, nil
}
