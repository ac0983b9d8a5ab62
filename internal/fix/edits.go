package fix

import (
	"errors"
	"fmt"
	"sort"

	"fortio.org/safecast"

	"traitlint/internal/diag"
)

var (
	// ErrOverlap is returned when two edits touch the same bytes.
	ErrOverlap = errors.New("overlapping edits")
	// ErrOutOfRange is returned when an edit does not fit the buffer.
	ErrOutOfRange = errors.New("edit span out of range")
	// ErrGuardMismatch is returned when TextEdit.OldText does not match the buffer.
	ErrGuardMismatch = errors.New("existing text does not match expected content")
	// ErrFileMismatch is returned when edits target different files.
	ErrFileMismatch = errors.New("edits target different files")
)

// ApplyEdits applies edits to content, whose first byte sits at source offset
// base. Edits are applied in source order; insertions at the same offset keep
// their relative order. The input slice is not modified.
func ApplyEdits(content []byte, base uint32, edits []diag.TextEdit) ([]byte, error) {
	if len(edits) == 0 {
		return append([]byte(nil), content...), nil
	}
	size, err := safecast.Conv[uint32](len(content))
	if err != nil {
		return nil, fmt.Errorf("content length overflow: %w", err)
	}

	sorted := sortedEdits(edits)
	file := sorted[0].Span.File
	for i, e := range sorted {
		if e.Span.File != file {
			return nil, ErrFileMismatch
		}
		if e.Span.Start < base || e.Span.End < e.Span.Start || e.Span.End-base > size {
			return nil, fmt.Errorf("%w: %v", ErrOutOfRange, e.Span)
		}
		for _, prev := range sorted[:i] {
			if spansConflict(prev, e) {
				return nil, fmt.Errorf("%w: %v and %v", ErrOverlap, prev.Span, e.Span)
			}
		}
	}

	out := make([]byte, 0, len(content))
	cursor := uint32(0)
	for _, e := range sorted {
		start, end := e.Span.Start-base, e.Span.End-base
		if e.OldText != "" && string(content[start:end]) != e.OldText {
			return nil, fmt.Errorf("%w: %v: want %q, have %q", ErrGuardMismatch, e.Span, e.OldText, content[start:end])
		}
		out = append(out, content[cursor:start]...)
		out = append(out, e.NewText...)
		cursor = end
	}
	out = append(out, content[cursor:]...)
	return out, nil
}

func sortedEdits(edits []diag.TextEdit) []diag.TextEdit {
	sorted := append([]diag.TextEdit(nil), edits...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Span.Start != sorted[j].Span.Start {
			return sorted[i].Span.Start < sorted[j].Span.Start
		}
		return sorted[i].Span.End < sorted[j].Span.End
	})
	return sorted
}

// spansConflict reports whether two edits' spans overlap.
// Spans are treated as half-open intervals [Start, End). Two zero-length edits
// never conflict. A zero-length edit conflicts with a non-zero span if its
// position is within that span (Start <= pos < End).
func spansConflict(a, b diag.TextEdit) bool {
	aStart, aEnd := a.Span.Start, a.Span.End
	bStart, bEnd := b.Span.Start, b.Span.End

	switch {
	case a.Span.File != b.Span.File:
		return false
	case aStart == aEnd && bStart == bEnd:
		return false
	case aStart == aEnd:
		return bStart <= aStart && aStart < bEnd
	case bStart == bEnd:
		return aStart <= bStart && bStart < aEnd
	}
	return a.Span.Overlaps(b.Span)
}
