// Package diag defines the diagnostic model shared by the scanner, the lint
// passes and the CLI.
//
// # Data model
//
// Diagnostic is the central record:
//
//   - Severity – tri-level enum (Info, Warning, Error) defined in severity.go.
//   - Code – compact numeric identifier (see codes.go) with stable string form.
//   - Lint – stable lint name (e.g. "async_fn_in_trait") for lint findings.
//   - Message – human oriented text; keep it short and actionable.
//   - Primary span – the source.Span pointing exactly at the cause.
//   - Notes – optional secondary spans/messages for additional context.
//   - Fixes – optional Fix records describing how to address the problem.
//
// # Fix suggestions
//
// Fix is data-only: a title, a kind, an applicability level and a list of
// TextEdit values in source coordinates. TextEdit.OldText is an optional guard
// checked by internal/fix before an edit is applied. Fix.Preview carries the
// rewritten text of the touched region so consumers can show it without
// re-applying edits.
//
// # Emitting diagnostics
//
// Diagnostics are values built with NewWarning / NewError and the With*
// setters, then handed to a Reporter. BagReporter collects into a Bag, which
// is bounded, safe for concurrent Add and sorts deterministically.
// DedupReporter drops exact repeats.
//
// Package diag does no IO; internal/fix applies edits and cmd/traitlint
// prints diagnostics.
package diag
