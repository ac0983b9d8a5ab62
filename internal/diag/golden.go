package diag

import (
	"cmp"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"traitlint/internal/source"
)

// shortLine is one rendered row: a primary finding or, with notes on, one
// of its notes.
type shortLine struct {
	label, code, lint string
	path              string
	line, col         uint32
	msg               string
}

func (l shortLine) compare(o shortLine) int {
	return cmp.Or(
		cmp.Compare(l.path, o.path),
		cmp.Compare(l.line, o.line),
		cmp.Compare(l.col, o.col),
		cmp.Compare(l.label, o.label),
		cmp.Compare(l.code, o.code),
		cmp.Compare(l.msg, o.msg),
	)
}

// FormatShortDiagnostics renders diagnostics one per line:
//
//	warning LNT4001 src/lib.rs:2:5 [async_fn_in_trait] message
//
// Entries are sorted by path, position, severity, code and message.
// Diagnostics whose span cannot be resolved are skipped.
func FormatShortDiagnostics(diags []Diagnostic, fs *source.FileSet, includeNotes bool) string {
	if fs == nil || len(diags) == 0 {
		return ""
	}

	lines := make([]shortLine, 0, len(diags))
	for i := range diags {
		d := &diags[i]
		if l, ok := locate(fs, d.Primary); ok {
			l.label, l.code, l.lint, l.msg = d.Severity.Label(), d.Code.ID(), d.Lint, flatten(d.Message)
			lines = append(lines, l)
		}
		if !includeNotes {
			continue
		}
		for _, note := range d.Notes {
			if l, ok := locate(fs, note.Span); ok {
				l.label, l.code, l.msg = "note", d.Code.ID(), flatten(note.Msg)
				lines = append(lines, l)
			}
		}
	}
	slices.SortStableFunc(lines, shortLine.compare)

	var b strings.Builder
	for i, l := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s %s %s:%d:%d ", l.label, l.code, l.path, l.line, l.col)
		if l.lint != "" {
			fmt.Fprintf(&b, "[%s] ", l.lint)
		}
		b.WriteString(l.msg)
	}
	return b.String()
}

// locate fills the position fields of a row for span.
func locate(fs *source.FileSet, span source.Span) (shortLine, bool) {
	file := fs.Get(span.File)
	if file == nil {
		return shortLine{}, false
	}
	start, _, ok := fs.Resolve(span)
	if !ok {
		return shortLine{}, false
	}
	p := filepath.ToSlash(file.FormatPath("relative", fs.BaseDir()))
	for strings.HasPrefix(p, "./") {
		p = p[2:]
	}
	return shortLine{path: p, line: start.Line, col: start.Col}, true
}

// flatten keeps a message on a single output line.
func flatten(msg string) string {
	msg = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ").Replace(msg)
	return strings.TrimSpace(msg)
}
