package fix

import (
	"traitlint/internal/diag"
	"traitlint/internal/source"
)

// Option mutates fix during construction.
type Option func(*diag.Fix)

// WithApplicability overrides applicability metadata.
func WithApplicability(app diag.FixApplicability) Option {
	return func(f *diag.Fix) {
		f.Applicability = app
	}
}

// WithKind overrides fix classification.
func WithKind(kind diag.FixKind) Option {
	return func(f *diag.Fix) {
		f.Kind = kind
	}
}

// Preferred marks fix as preferred suggestion.
func Preferred() Option {
	return func(f *diag.Fix) {
		f.IsPreferred = true
	}
}

// WithID sets stable identifier for fix.
func WithID(id string) Option {
	return func(f *diag.Fix) {
		f.ID = id
	}
}

// WithPreview records the rewritten text of span.
func WithPreview(span source.Span, text string) Option {
	return func(f *diag.Fix) {
		f.PreviewSpan = span
		f.Preview = text
	}
}

func build(title string, edits []diag.TextEdit, opts []Option) diag.Fix {
	f := diag.Fix{
		Title:         title,
		Kind:          diag.FixKindQuickFix,
		Applicability: diag.FixApplicabilityAlwaysSafe,
		Edits:         edits,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&f)
		}
	}
	return f
}

// InsertText creates fix that inserts text at an empty span.
func InsertText(title string, at source.Span, text string, opts ...Option) diag.Fix {
	return build(title, []diag.TextEdit{{Span: at.ShrinkToLo(), NewText: text}}, opts)
}

// DeleteSpan removes text covered by span; expect guards the removed text.
func DeleteSpan(title string, span source.Span, expect string, opts ...Option) diag.Fix {
	return build(title, []diag.TextEdit{{Span: span, OldText: expect}}, opts)
}

// ReplaceSpan replaces span with text; expect guards the replaced text.
func ReplaceSpan(title string, span source.Span, text, expect string, opts ...Option) diag.Fix {
	return build(title, []diag.TextEdit{{Span: span, NewText: text, OldText: expect}}, opts)
}

// Edits creates a multi-edit fix. The edits slice is copied.
func Edits(title string, edits []diag.TextEdit, opts ...Option) diag.Fix {
	return build(title, append([]diag.TextEdit(nil), edits...), opts)
}
