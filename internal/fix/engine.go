package fix

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"traitlint/internal/diag"
	"traitlint/internal/source"
)

// ErrNoFixes is returned when no fixes were applied.
var ErrNoFixes = errors.New("no applicable fixes found")

// ApplyMode determines selection strategy for fixes.
type ApplyMode uint8

const (
	// ApplyModeOnce applies the first fix in source order, preferring safe ones.
	ApplyModeOnce ApplyMode = iota
	ApplyModeAll
	ApplyModeID
)

// ApplyOptions configures how fixes are selected.
type ApplyOptions struct {
	Mode     ApplyMode
	TargetID string
	// AllowManual lets ApplyModeAll pick fixes that need manual review.
	AllowManual bool
	// DryRun computes the changes without touching the disk.
	DryRun bool
}

// AppliedFix records a successfully applied fix.
type AppliedFix struct {
	ID            string
	Title         string
	Code          diag.Code
	Lint          string
	Message       string
	Applicability diag.FixApplicability
	PrimaryPath   string
	PrimaryPos    source.LineCol
	EditCount     int
}

// SkippedFix captures a skipped or failed fix with a reason.
type SkippedFix struct {
	ID     string
	Title  string
	Reason string
}

// FileChange summarises modifications performed on a file.
type FileChange struct {
	Path      string
	EditCount int
	// Content is the rewritten file.
	Content []byte
}

// ApplyResult aggregates applied fixes, skipped ones, and file changes.
type ApplyResult struct {
	Applied     []AppliedFix
	Skipped     []SkippedFix
	FileChanges []FileChange
}

type candidate struct {
	diag  diag.Diagnostic
	fix   diag.Fix
	order int
}

// Apply collects fixes from diagnostics, selects a subset according to opts and
// writes the result back to the files in fs. Edits are checked against the
// original file content, so two fixes that touch the same bytes never both apply.
func Apply(fs *source.FileSet, diagnostics []diag.Diagnostic, opts ApplyOptions) (*ApplyResult, error) {
	result := &ApplyResult{}
	if fs == nil {
		return result, errors.New("fix: FileSet is nil")
	}

	candidates, skips := gatherCandidates(diagnostics)
	result.Skipped = append(result.Skipped, skips...)
	if len(candidates) == 0 {
		return result, ErrNoFixes
	}
	sortCandidates(candidates)

	selected, skips := selectCandidates(candidates, opts)
	result.Skipped = append(result.Skipped, skips...)
	if len(selected) == 0 {
		return result, ErrNoFixes
	}

	applied, skips, changes := applyCandidates(fs, selected)
	result.Applied = applied
	result.Skipped = append(result.Skipped, skips...)
	result.FileChanges = changes
	if len(applied) == 0 {
		return result, ErrNoFixes
	}

	if !opts.DryRun {
		if err := WriteChanges(changes); err != nil {
			return result, err
		}
	}
	return result, nil
}

// WriteChanges stores every rewritten file. Each file is replaced atomically;
// the first failure stops the loop.
func WriteChanges(changes []FileChange) error {
	for _, ch := range changes {
		if err := writeFileAtomic(ch.Path, ch.Content); err != nil {
			return fmt.Errorf("fix: write %s: %w", ch.Path, err)
		}
	}
	return nil
}

// gatherCandidates flattens diagnostics into fixes. Fixes without an ID get
// one derived from the diagnostic code, its position and the fix index;
// only the first fix with a given ID is kept.
func gatherCandidates(diagnostics []diag.Diagnostic) ([]candidate, []SkippedFix) {
	var (
		cands []candidate
		skips []SkippedFix
	)
	seen := make(map[string]struct{})
	order := 0
	for _, d := range diagnostics {
		for idx, f := range d.Fixes {
			if f.ID == "" {
				f.ID = fmt.Sprintf("%s-%d-%d-%d", d.Code.ID(), d.Primary.File, d.Primary.Start, idx)
			}
			if len(f.Edits) == 0 {
				skips = append(skips, SkippedFix{ID: f.ID, Title: f.Title, Reason: "fix has no edits"})
				continue
			}
			if _, dup := seen[f.ID]; dup {
				skips = append(skips, SkippedFix{ID: f.ID, Title: f.Title, Reason: "duplicate fix id"})
				continue
			}
			seen[f.ID] = struct{}{}
			cands = append(cands, candidate{diag: d, fix: f, order: order})
			order++
		}
	}
	return cands, skips
}

// sortCandidates orders candidates by primary span, then by insertion order,
// then preferred fixes first.
func sortCandidates(candidates []candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		di, dj := candidates[i].diag.Primary, candidates[j].diag.Primary
		if di.File != dj.File {
			return di.File < dj.File
		}
		if di.Start != dj.Start {
			return di.Start < dj.Start
		}
		if di.End != dj.End {
			return di.End < dj.End
		}
		if candidates[i].order != candidates[j].order {
			return candidates[i].order < candidates[j].order
		}
		if candidates[i].fix.IsPreferred != candidates[j].fix.IsPreferred {
			return candidates[i].fix.IsPreferred
		}
		return candidates[i].fix.ID < candidates[j].fix.ID
	})
}

// ReasonIDNotFound is the skip reason when ApplyModeID finds no fix with
// the target ID.
const ReasonIDNotFound = "fix id not found"

func selectCandidates(candidates []candidate, opts ApplyOptions) ([]candidate, []SkippedFix) {
	switch opts.Mode {
	case ApplyModeID:
		for _, cand := range candidates {
			if cand.fix.ID == opts.TargetID {
				return []candidate{cand}, nil
			}
		}
		return nil, []SkippedFix{{ID: opts.TargetID, Reason: ReasonIDNotFound}}
	case ApplyModeAll:
		var (
			selected []candidate
			skipped  []SkippedFix
		)
		for _, cand := range candidates {
			if allowed(cand.fix.Applicability, opts.AllowManual) {
				selected = append(selected, cand)
				continue
			}
			skipped = append(skipped, SkippedFix{
				ID:     cand.fix.ID,
				Title:  cand.fix.Title,
				Reason: fmt.Sprintf("applicability is %s", cand.fix.Applicability),
			})
		}
		return selected, skipped
	case ApplyModeOnce:
		for _, cand := range candidates {
			if cand.fix.Applicability == diag.FixApplicabilityAlwaysSafe {
				return []candidate{cand}, nil
			}
		}
		return candidates[:1], nil
	}
	return nil, nil
}

func allowed(a diag.FixApplicability, manual bool) bool {
	if a == diag.FixApplicabilityManualReview {
		return manual
	}
	return true
}

func applyCandidates(fs *source.FileSet, selected []candidate) ([]AppliedFix, []SkippedFix, []FileChange) {
	accepted := make(map[source.FileID][]diag.TextEdit)
	var (
		applied []AppliedFix
		skipped []SkippedFix
	)
	baseDir := fs.BaseDir()

	for _, cand := range selected {
		buckets := groupEditsByFile(cand.fix.Edits)
		reason := ""
		for fileID, edits := range buckets {
			file := fs.Get(fileID)
			switch {
			case file == nil:
				reason = fmt.Sprintf("unknown file %d", fileID)
			case file.Flags.Has(source.FileVirtual):
				reason = "target file is virtual"
			case conflictsWithExisting(accepted[fileID], edits):
				reason = fmt.Sprintf("conflicts with previously applied edits in %s", file.FormatPath("relative", baseDir))
			default:
				// проверяем guard'ы на исходном тексте до принятия
				if _, err := ApplyEdits(file.Content, 0, edits); err != nil {
					reason = err.Error()
				}
			}
			if reason != "" {
				break
			}
		}
		if reason != "" {
			skipped = append(skipped, SkippedFix{ID: cand.fix.ID, Title: cand.fix.Title, Reason: reason})
			continue
		}

		for fileID, edits := range buckets {
			accepted[fileID] = append(accepted[fileID], edits...)
		}
		primary := ""
		var pos source.LineCol
		if f := fs.Get(cand.diag.Primary.File); f != nil {
			primary = f.FormatPath("relative", baseDir)
			pos, _, _ = fs.Resolve(cand.diag.Primary)
		}
		applied = append(applied, AppliedFix{
			ID:            cand.fix.ID,
			Title:         cand.fix.Title,
			Code:          cand.diag.Code,
			Lint:          cand.diag.Lint,
			Message:       cand.diag.Message,
			Applicability: cand.fix.Applicability,
			PrimaryPath:   primary,
			PrimaryPos:    pos,
			EditCount:     len(cand.fix.Edits),
		})
	}

	ids := make([]source.FileID, 0, len(accepted))
	for id := range accepted {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	changes := make([]FileChange, 0, len(ids))
	for _, id := range ids {
		file := fs.Get(id)
		content, err := ApplyEdits(file.Content, 0, accepted[id])
		if err != nil {
			// each fix was checked alone and against the others, so this is a bug
			panic(fmt.Errorf("fix: accepted edits no longer apply to %s: %w", file.Path, err))
		}
		changes = append(changes, FileChange{Path: file.Path, EditCount: len(accepted[id]), Content: content})
	}
	return applied, skipped, changes
}

func conflictsWithExisting(existing, edits []diag.TextEdit) bool {
	for _, e := range edits {
		for _, prev := range existing {
			if spansConflict(prev, e) {
				return true
			}
		}
	}
	return false
}

func groupEditsByFile(edits []diag.TextEdit) map[source.FileID][]diag.TextEdit {
	buckets := make(map[source.FileID][]diag.TextEdit)
	for _, e := range edits {
		buckets[e.Span.File] = append(buckets[e.Span.File], e)
	}
	return buckets
}

func writeFileAtomic(path string, content []byte) error {
	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename
	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), mode); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
