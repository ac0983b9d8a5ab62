package diag

import (
	"testing"

	"traitlint/internal/source"
)

func TestFormatShortDiagnostics(t *testing.T) {
	fs := source.NewFileSetWithBase("/workspace")

	lib := fs.Add("/workspace/src/lib.rs", []byte("pub trait T {\n    async fn m(&self);\n}\n"), 0)

	diags := []Diagnostic{
		{
			Severity: SevError,
			Code:     IODecodeDump,
			Message:  "first line\nsecond",
			Primary:  source.Span{File: lib, Start: 0, End: 3},
		},
		{
			Severity: SevWarning,
			Code:     LintAsyncFnInTrait,
			Lint:     "async_fn_in_trait",
			Message:  "use of async fn",
			Primary:  source.Span{File: lib, Start: 18, End: 23},
			Notes: []Note{
				{Span: source.Span{File: lib, Start: 37, End: 38}, Msg: "note line"},
				{Span: source.Span{File: lib + 3, Start: 0, End: 0}, Msg: "unresolvable"},
			},
		},
	}

	expected := "error IO1002 src/lib.rs:1:1 first line second\n" +
		"warning LNT4001 src/lib.rs:2:5 [async_fn_in_trait] use of async fn\n" +
		"note LNT4001 src/lib.rs:3:1 note line"

	if got := FormatShortDiagnostics(diags, fs, true); got != expected {
		t.Fatalf("unexpected short diagnostics:\nwant:\n%s\n\ngot:\n%s", expected, got)
	}

	withoutNotes := "error IO1002 src/lib.rs:1:1 first line second\n" +
		"warning LNT4001 src/lib.rs:2:5 [async_fn_in_trait] use of async fn"
	if got := FormatShortDiagnostics(diags, fs, false); got != withoutNotes {
		t.Fatalf("unexpected output without notes:\n%s", got)
	}
}

func TestFormatShortDiagnostics_Empty(t *testing.T) {
	if got := FormatShortDiagnostics(nil, source.NewFileSet(), true); got != "" {
		t.Errorf("expected empty output, got %q", got)
	}
	if got := FormatShortDiagnostics([]Diagnostic{{}}, nil, true); got != "" {
		t.Errorf("expected empty output for nil FileSet, got %q", got)
	}
}

func TestCodeID(t *testing.T) {
	tests := []struct {
		code Code
		want string
	}{
		{LintAsyncFnInTrait, "LNT4001"},
		{IOLoadFileError, "IO1001"},
		{CfgUnknownLint, "CFG5001"},
		{UnknownCode, "E0000"},
	}
	for _, tt := range tests {
		if got := tt.code.ID(); got != tt.want {
			t.Errorf("Code(%d).ID() = %q, want %q", tt.code, got, tt.want)
		}
	}
	if got := Code(4999).Title(); got != "Unknown error" {
		t.Errorf("unregistered code title = %q", got)
	}
}
