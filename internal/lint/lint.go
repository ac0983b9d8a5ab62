// Package lint is the late lint framework: lint descriptors and their levels,
// the pass interface the scanner drives, and the Sink that filters diagnostics
// by the level in effect for each item.
//
// Passes receive borrowed hir values and report through Context.Emit. They do
// not log and do not touch the filesystem.
package lint

import (
	"traitlint/internal/diag"
)

// Lint describes one lint rule.
type Lint struct {
	Name    string
	Code    diag.Code
	Default Level
	Summary string
}

// AsyncFnInTrait flags `async fn` declared in a publicly-reachable trait.
var AsyncFnInTrait = Lint{
	Name:    "async_fn_in_trait",
	Code:    diag.LintAsyncFnInTrait,
	Default: Warn,
	Summary: "use of `async fn` in definition of a publicly-reachable trait",
}
