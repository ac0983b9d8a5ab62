package diag

import "traitlint/internal/source"

func New(sev Severity, code Code, primary source.Span, msg string) Diagnostic {
	return Diagnostic{
		Severity: sev,
		Code:     code,
		Primary:  primary,
		Message:  msg,
	}
}

func NewError(code Code, primary source.Span, msg string) Diagnostic {
	return New(SevError, code, primary, msg)
}

func NewWarning(code Code, primary source.Span, msg string) Diagnostic {
	return New(SevWarning, code, primary, msg)
}

// Note, Fix and Lint setters copy the slices they extend so a Diagnostic
// value can be shared between goroutines without aliasing.

func (d Diagnostic) WithLint(name string) Diagnostic {
	d.Lint = name
	return d
}

func (d Diagnostic) WithNote(sp source.Span, msg string) Diagnostic {
	notes := make([]Note, len(d.Notes), len(d.Notes)+1)
	copy(notes, d.Notes)
	d.Notes = append(notes, Note{Span: sp, Msg: msg})
	return d
}

func (d Diagnostic) WithFixSuggestion(fix Fix) Diagnostic {
	fixes := make([]Fix, len(d.Fixes), len(d.Fixes)+1)
	copy(fixes, d.Fixes)
	d.Fixes = append(fixes, fix)
	return d
}
