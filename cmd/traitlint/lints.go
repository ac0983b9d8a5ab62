package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"traitlint/internal/lint"
)

type lintPayload struct {
	Name    string `json:"name"`
	Code    string `json:"code"`
	Default string `json:"default"`
	Summary string `json:"summary"`
}

func newLintsCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "lints",
		Short: "List the registered lints and their default levels",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			all := lint.DefaultRegistry().All()
			payload := make([]lintPayload, 0, len(all))
			for _, l := range all {
				payload = append(payload, lintPayload{
					Name:    l.Name,
					Code:    l.Code.ID(),
					Default: l.Default.String(),
					Summary: l.Summary,
				})
			}

			out := cmd.OutOrStdout()
			switch strings.ToLower(format) {
			case "pretty":
				_, err := fmt.Fprintln(out, renderLintTable(payload, terminalWidth()))
				return err
			case "json":
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(payload)
			default:
				return fmt.Errorf("unsupported format %q (must be pretty or json)", format)
			}
		},
	}
	cmd.Flags().StringVar(&format, "format", "pretty", "output format (pretty|json)")
	return cmd
}

const (
	defaultTableWidth = 100
	minSummaryWidth   = 24
)

// renderLintTable lays the lints out as a borderless table. Summaries are cut
// so every row fits width cells.
func renderLintTable(lints []lintPayload, width int) string {
	nameWidth := len("NAME")
	for _, l := range lints {
		nameWidth = max(nameWidth, runewidth.StringWidth(l.Name))
	}
	// CODE и DEFAULT узкие: LNT4001, forbid
	summaryWidth := max(minSummaryWidth, width-nameWidth-len("LNT0000")-len("forbid")-3*2)

	rows := make([][]string, 0, len(lints))
	for _, l := range lints {
		summary := l.Summary
		if runewidth.StringWidth(summary) > summaryWidth {
			summary = runewidth.Truncate(summary, summaryWidth, "...")
		}
		rows = append(rows, []string{l.Name, l.Code, l.Default, summary})
	}

	t := table.New().
		Headers("NAME", "CODE", "DEFAULT", "SUMMARY").
		Rows(rows...).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderRow(false).
		BorderColumn(false).
		BorderHeader(false).
		StyleFunc(func(row, _ int) lipgloss.Style { return lintTableStyle(row) })
	return t.String()
}

// lintTableStyle styles one table row. lipgloss v0.12 numbers the header
// row 0 and data rows from 1.
func lintTableStyle(row int) lipgloss.Style {
	style := lipgloss.NewStyle().Padding(0, 2, 0, 0)
	if row == 0 {
		return style.Bold(true).Foreground(lipgloss.Color("6"))
	}
	return style
}

func terminalWidth() int {
	if !isTerminal(os.Stdout) {
		return defaultTableWidth
	}
	w, _, err := term.GetSize(int(os.Stdout.Fd())) // #nosec G115 -- fd fits int
	if err != nil || w <= 0 {
		return defaultTableWidth
	}
	return w
}
