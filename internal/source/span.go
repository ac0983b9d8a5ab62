package source

import (
	"fmt"
)

// Span is a half-open byte range inside one file.
type Span struct {
	File  FileID `json:"file" msgpack:"file"`
	Start uint32 `json:"start" msgpack:"start"` // в байтах включительно
	End   uint32 `json:"end" msgpack:"end"`     // в байтах не включительно
}

func (s Span) Empty() bool {
	return s.Start == s.End
}

func (s Span) Len() uint32 {
	if s.End < s.Start {
		return 0
	}
	return s.End - s.Start
}

func (s Span) String() string {
	return fmt.Sprintf("%d:%d-%d", s.File, s.Start, s.End)
}

// Cover returns the smallest span containing both s and other.
// Spans from different files are not merged.
func (s Span) Cover(other Span) Span {
	if s.File != other.File {
		return s
	}
	if other.Start < s.Start {
		s.Start = other.Start
	}
	if other.End > s.End {
		s.End = other.End
	}
	return s
}

// Contains reports whether other lies entirely inside s.
func (s Span) Contains(other Span) bool {
	return s.File == other.File && other.Start >= s.Start && other.End <= s.End
}

// Overlaps reports whether two non-empty spans share at least one byte.
func (s Span) Overlaps(other Span) bool {
	if s.File != other.File || s.Empty() || other.Empty() {
		return false
	}
	return s.Start < other.End && other.Start < s.End
}

// ShrinkToLo returns the empty span at the start of s.
func (s Span) ShrinkToLo() Span {
	return Span{File: s.File, Start: s.Start, End: s.Start}
}

// ShrinkToHi returns the empty span at the end of s.
func (s Span) ShrinkToHi() Span {
	return Span{File: s.File, Start: s.End, End: s.End}
}

// Inner drops n bytes from both ends. Returns false when s is too short.
func (s Span) Inner(n uint32) (Span, bool) {
	if s.Len() < 2*n {
		return s, false
	}
	return Span{File: s.File, Start: s.Start + n, End: s.End - n}, true
}
