package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"traitlint/internal/diag"
)

type checkOptions struct {
	flags     checkFlags
	withNotes bool
	suggest   bool
}

func newCheckCmd() *cobra.Command {
	opts := &checkOptions{}
	cmd := &cobra.Command{
		Use:   "check [flags] <dump>...",
		Short: "Run lint passes over HIR dumps",
		Long:  "Load one or more HIR dumps (.json or .msgpack), run every registered lint pass and print the findings.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, opts, args)
		},
	}
	opts.flags.register(cmd.Flags())
	cmd.Flags().BoolVar(&opts.withNotes, "with-notes", false, "print the notes attached to each diagnostic")
	cmd.Flags().BoolVar(&opts.suggest, "suggest", false, "print the suggested rewrite for each finding")
	return cmd
}

func runCheck(cmd *cobra.Command, opts *checkOptions, dumps []string) error {
	s, err := newSession(cmd, &opts.flags, dumps)
	if err != nil {
		return err
	}
	stderr := cmd.ErrOrStderr()
	for _, w := range s.warnings {
		fmt.Fprintln(stderr, w)
	}

	st, err := s.run(cmd.Context())
	if err != nil {
		return err
	}

	done := s.timer.Track("report")
	var warnings, errs, suppressed, dropped int
	failed := false
	out := cmd.OutOrStdout()
	for _, u := range s.units {
		u.bag.Sort()
		for _, d := range u.bag.Items() {
			if err := printDiagnostic(out, u, d, opts); err != nil {
				return err
			}
			switch d.Severity {
			case diag.SevError:
				errs++
			case diag.SevWarning:
				warnings++
			}
		}
		suppressed += u.suppressedCount()
		dropped += u.bag.Dropped()
		failed = failed || u.bag.HasErrors()
	}
	done(fmt.Sprintf("%d diagnostics", warnings+errs))

	summary := fmt.Sprintf("%d error(s), %d warning(s), %d suppressed in %d unit(s)", errs, warnings, suppressed, len(s.units))
	if dropped > 0 {
		summary += fmt.Sprintf(", %d over the limit", dropped)
	}
	if st.Panics > 0 {
		summary += fmt.Sprintf(", %d pass panic(s)", st.Panics)
	}
	fmt.Fprintln(stderr, summary)

	if err := s.finishTimings(cmd); err != nil {
		return err
	}
	if failed {
		return errFindings
	}
	return nil
}

// printDiagnostic writes one finding in the short format, with the severity
// coloured when colours are on.
func printDiagnostic(w io.Writer, u *unitRun, d diag.Diagnostic, opts *checkOptions) error {
	text := diag.FormatShortDiagnostics([]diag.Diagnostic{d}, u.files, opts.withNotes)
	if text == "" {
		return nil
	}
	label := d.Severity.Label()
	if rest, ok := strings.CutPrefix(text, label); ok {
		text = severityColor(d.Severity).Sprint(label) + rest
	}
	if _, err := fmt.Fprintln(w, text); err != nil {
		return err
	}
	if !opts.suggest {
		return nil
	}
	if err := printExcerpt(w, u, d); err != nil {
		return err
	}
	for _, f := range d.Fixes {
		if _, err := fmt.Fprintf(w, "  %s %s [%s]\n", color.CyanString("help:"), f.Title, f.ID); err != nil {
			return err
		}
		if f.Preview == "" {
			continue
		}
		for _, line := range strings.Split(f.Preview, "\n") {
			if _, err := fmt.Fprintf(w, "    %s\n", color.GreenString(line)); err != nil {
				return err
			}
		}
	}
	return nil
}

// printExcerpt shows the source line of the primary span with the span
// underlined.
func printExcerpt(w io.Writer, u *unitRun, d diag.Diagnostic) error {
	file := u.files.Get(d.Primary.File)
	start, end, ok := u.files.Resolve(d.Primary)
	if file == nil || !ok {
		return nil
	}
	line := file.GetLine(start.Line)
	if line == "" {
		return nil
	}
	width := 1
	if end.Line == start.Line && end.Col > start.Col {
		width = int(end.Col - start.Col)
	}
	gutter := fmt.Sprintf("%d", start.Line)
	pad := strings.Repeat(" ", len(gutter))
	marker := strings.Repeat(" ", int(start.Col-1)) + severityColor(d.Severity).Sprint(strings.Repeat("^", width))
	_, err := fmt.Fprintf(w, "  %s |\n  %s | %s\n  %s | %s\n", pad, gutter, line, pad, marker)
	return err
}

func severityColor(sev diag.Severity) *color.Color {
	switch sev {
	case diag.SevError:
		return color.New(color.FgRed, color.Bold)
	case diag.SevWarning:
		return color.New(color.FgYellow, color.Bold)
	default:
		return color.New(color.FgBlue)
	}
}
