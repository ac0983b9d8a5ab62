// Package scan drives lint passes over compilation units.
//
// Every trait is visited in document order, then each of its items; impl
// blocks follow. Units are independent and may be scanned in parallel; the
// lint.Sink is the only state they share.
package scan

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"traitlint/internal/feature"
	"traitlint/internal/hir"
	"traitlint/internal/lint"
	"traitlint/internal/source"
	"traitlint/internal/suggest"
)

// Input is one unit together with its loaded files.
type Input struct {
	Unit  *hir.Unit
	Files *source.FileSet
	// Sink overrides the sink passed to ScanUnits for this unit. Spans are
	// only meaningful against Files, so callers keeping one report per unit
	// set it.
	Sink *lint.Sink
}

// Stats counts what a scan visited.
type Stats struct {
	Units  int
	Traits int
	Items  int
	Impls  int
	// Panics is the number of pass invocations that panicked and were skipped.
	Panics int
}

func (s *Stats) add(o Stats) {
	s.Units += o.Units
	s.Traits += o.Traits
	s.Items += o.Items
	s.Impls += o.Impls
	s.Panics += o.Panics
}

// Scanner runs Passes over units.
type Scanner struct {
	Passes   []lint.LatePass
	Features feature.Set
	// Jobs caps parallel units; zero or less means GOMAXPROCS.
	Jobs int
	// Synth builds the synthesizer for one unit. Nil means suggest.Desugarer.
	Synth func(in Input) suggest.Synthesizer
}

// New returns a scanner running the built-in passes.
func New(features feature.Set, jobs int) *Scanner {
	return &Scanner{Passes: lint.BuiltinPasses(), Features: features, Jobs: jobs}
}

func (s *Scanner) synthFor(in Input) suggest.Synthesizer {
	if s.Synth != nil {
		return s.Synth(in)
	}
	return suggest.Desugarer{Files: in.Files, Opaques: in.Unit}
}

// ScanUnit runs every pass over one unit. It stops early only when ctx is
// cancelled; a panicking pass skips the current item and is logged.
func (s *Scanner) ScanUnit(ctx context.Context, in Input, sink *lint.Sink) (Stats, error) {
	var st Stats
	if in.Unit == nil {
		return st, fmt.Errorf("scan: nil unit")
	}
	unit := in.Unit
	st.Units = 1
	log := Logger().With(zap.String("unit", unit.Name))
	cx := lint.NewContext(unit, s.Features, s.synthFor(in), sink)

	for ti := range unit.Traits {
		if err := ctx.Err(); err != nil {
			return st, err
		}
		tr := &unit.Traits[ti]
		st.Traits++
		tcx := cx.Enter(tr.Attrs)
		for _, p := range s.Passes {
			s.guard(log, &st, p, tr.Name, func() { p.CheckTrait(tcx, tr) })
		}
		for ii := range tr.Items {
			it := &tr.Items[ii]
			st.Items++
			icx := tcx.At(it.Attrs)
			for _, p := range s.Passes {
				s.guard(log, &st, p, it.Name, func() {
					p.CheckTraitItem(icx, tr, it)
					if fn, ok := it.Method(); ok {
						p.CheckFn(icx, it, fn)
					}
				})
			}
		}
	}

	for mi := range unit.Impls {
		if err := ctx.Err(); err != nil {
			return st, err
		}
		im := &unit.Impls[mi]
		st.Impls++
		mcx := cx.Enter(im.Attrs)
		for ii := range im.Items {
			it := &im.Items[ii]
			st.Items++
			icx := mcx.At(it.Attrs)
			for _, p := range s.Passes {
				s.guard(log, &st, p, it.Name, func() {
					p.CheckImplItem(icx, im, it)
					if fn, ok := it.Method(); ok {
						p.CheckFn(icx, it, fn)
					}
				})
			}
		}
	}

	log.Debug("unit scanned",
		zap.Int("traits", st.Traits),
		zap.Int("items", st.Items),
		zap.Int("impls", st.Impls))
	return st, nil
}

func (s *Scanner) guard(log *zap.Logger, st *Stats, p lint.LatePass, item string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			st.Panics++
			log.Error("lint pass panicked, item skipped",
				zap.String("pass", p.Name()),
				zap.String("item", item),
				zap.Any("panic", r),
				zap.Stack("stack"))
		}
	}()
	fn()
}

// ScanUnits scans inputs in parallel, at most Jobs at a time, reporting to
// sink unless an input carries its own. It returns the summed stats and the
// first error, usually a cancellation.
func (s *Scanner) ScanUnits(ctx context.Context, inputs []Input, sink *lint.Sink) (Stats, error) {
	var total Stats
	if len(inputs) == 0 {
		return total, nil
	}
	jobs := s.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(inputs)))
	for _, in := range inputs {
		g.Go(func() error {
			// Проверка отмены
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			target := sink
			if in.Sink != nil {
				target = in.Sink
			}
			st, err := s.ScanUnit(gctx, in, target)
			mu.Lock()
			total.add(st)
			mu.Unlock()
			return err
		})
	}
	err := g.Wait()
	return total, err
}
