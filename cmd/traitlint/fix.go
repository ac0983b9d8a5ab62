package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"traitlint/internal/fix"
)

type fixOptions struct {
	flags  checkFlags
	all    bool
	once   bool
	id     string
	manual bool
	dryRun bool
}

func newFixCmd() *cobra.Command {
	opts := &fixOptions{}
	cmd := &cobra.Command{
		Use:   "fix [flags] <dump>...",
		Short: "Apply suggested rewrites to the sources behind HIR dumps",
		Long:  "Run the lint passes, collect the suggested rewrites and apply them according to the chosen strategy.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFix(cmd, opts, args)
		},
	}
	opts.flags.register(cmd.Flags())
	cmd.Flags().BoolVar(&opts.all, "all", false, "apply all fixes")
	cmd.Flags().BoolVar(&opts.once, "once", false, "apply the first available fix (default)")
	cmd.Flags().StringVar(&opts.id, "id", "", "apply the fix with this identifier; ids are unique per dump, the first dump listing it wins")
	cmd.Flags().BoolVar(&opts.manual, "manual", false, "with --all, also apply fixes that need manual review")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "report what would change without writing files")
	return cmd
}

func (o *fixOptions) applyOptions() (fix.ApplyOptions, error) {
	if o.id != "" && (o.all || o.once) {
		return fix.ApplyOptions{}, fmt.Errorf("--id cannot be combined with --all or --once")
	}
	if o.all && o.once {
		return fix.ApplyOptions{}, fmt.Errorf("--all and --once are mutually exclusive")
	}
	opts := fix.ApplyOptions{Mode: fix.ApplyModeOnce, AllowManual: o.manual, DryRun: true}
	switch {
	case o.id != "":
		opts.Mode = fix.ApplyModeID
		opts.TargetID = o.id
	case o.all:
		opts.Mode = fix.ApplyModeAll
	}
	return opts, nil
}

func runFix(cmd *cobra.Command, opts *fixOptions, dumps []string) error {
	applyOpts, err := opts.applyOptions()
	if err != nil {
		return err
	}
	s, err := newSession(cmd, &opts.flags, dumps)
	if err != nil {
		return err
	}
	for _, w := range s.warnings {
		fmt.Fprintln(cmd.ErrOrStderr(), w)
	}
	if _, err := s.run(cmd.Context()); err != nil {
		return err
	}

	done := s.timer.Track("fix")
	merged, applyErr := s.applyFixes(applyOpts)
	if applyErr == nil && !opts.dryRun {
		applyErr = fix.WriteChanges(merged.FileChanges)
	}
	done(fmt.Sprintf("%d applied", len(merged.Applied)))

	if err := handleApplyResult(cmd.OutOrStdout(), merged, applyErr, opts.dryRun); err != nil {
		return err
	}
	return s.finishTimings(cmd)
}

// applyFixes computes the rewrites of every unit without touching the disk.
// Two dumps may share a source file; a unit whose changes hit a file that an
// earlier unit already rewrote is skipped as a whole.
func (s *session) applyFixes(opts fix.ApplyOptions) (*fix.ApplyResult, error) {
	merged := &fix.ApplyResult{}
	touched := make(map[string]string)
	var notFound *fix.SkippedFix
	for _, u := range s.units {
		u.bag.Sort()
		res, err := fix.Apply(u.files, u.bag.Items(), opts)
		if res != nil {
			for _, sk := range res.Skipped {
				// a missing id is only worth reporting if no unit had it
				if opts.Mode == fix.ApplyModeID && sk.Reason == fix.ReasonIDNotFound {
					if notFound == nil {
						notFound = &sk
					}
					continue
				}
				merged.Skipped = append(merged.Skipped, sk)
			}
		}
		if err != nil {
			if errors.Is(err, fix.ErrNoFixes) {
				continue
			}
			return merged, fmt.Errorf("%s: %w", u.path, err)
		}

		if owner, clash := firstClash(res.FileChanges, touched); clash != "" {
			logger.Info("fixes skipped", zap.String("dump", u.path), zap.String("file", clash), zap.String("owner", owner))
			for _, a := range res.Applied {
				merged.Skipped = append(merged.Skipped, fix.SkippedFix{
					ID:     a.ID,
					Title:  a.Title,
					Reason: fmt.Sprintf("%s already rewritten for %s", clash, owner),
				})
			}
			continue
		}
		for _, ch := range res.FileChanges {
			touched[ch.Path] = u.path
		}
		merged.Applied = append(merged.Applied, res.Applied...)
		merged.FileChanges = append(merged.FileChanges, res.FileChanges...)
		// IDs are only unique inside a unit: the first unit holding the id wins
		if opts.Mode == fix.ApplyModeOnce || opts.Mode == fix.ApplyModeID {
			break
		}
	}
	if len(merged.Applied) == 0 {
		if notFound != nil {
			merged.Skipped = append(merged.Skipped, *notFound)
		}
		return merged, fix.ErrNoFixes
	}
	return merged, nil
}

func firstClash(changes []fix.FileChange, touched map[string]string) (owner, path string) {
	for _, ch := range changes {
		if o, ok := touched[ch.Path]; ok {
			return o, ch.Path
		}
	}
	return "", ""
}

func handleApplyResult(w io.Writer, res *fix.ApplyResult, applyErr error, dryRun bool) error {
	if res == nil {
		return applyErr
	}

	if len(res.Applied) > 0 {
		verb := "Applied"
		if dryRun {
			verb = "Would apply"
		}
		if _, err := fmt.Fprintf(w, "%s %d fix(es):\n", verb, len(res.Applied)); err != nil {
			return err
		}
		for _, item := range res.Applied {
			location := item.PrimaryPath
			switch {
			case location == "":
				location = "(unknown location)"
			case item.PrimaryPos.Line > 0:
				location += ":" + item.PrimaryPos.String()
			}
			if _, err := fmt.Fprintf(w, "  %s [%s] at %s (%d edits, %s)\n",
				item.Title, item.ID, location, item.EditCount, item.Applicability.String()); err != nil {
				return err
			}
		}
	}

	if len(res.FileChanges) > 0 {
		header := "Updated files:"
		if dryRun {
			header = "Files that would change:"
		}
		if _, err := fmt.Fprintln(w, header); err != nil {
			return err
		}
		for _, change := range res.FileChanges {
			if _, err := fmt.Fprintf(w, "  %s (%d edits)\n", change.Path, change.EditCount); err != nil {
				return err
			}
		}
	}

	if len(res.Skipped) > 0 {
		if _, err := fmt.Fprintln(w, "Skipped fixes:"); err != nil {
			return err
		}
		for _, skip := range res.Skipped {
			id := skip.ID
			if id == "" {
				id = "(unnamed)"
			}
			var err error
			if skip.Title != "" {
				_, err = fmt.Fprintf(w, "  %s [%s]: %s\n", skip.Title, id, skip.Reason)
			} else {
				_, err = fmt.Fprintf(w, "  [%s]: %s\n", id, skip.Reason)
			}
			if err != nil {
				return err
			}
		}
	}

	if applyErr != nil {
		if errors.Is(applyErr, fix.ErrNoFixes) && len(res.Applied) == 0 {
			_, err := fmt.Fprintln(w, "No applicable fixes found.")
			return err
		}
		return applyErr
	}
	return nil
}
