package lint

import (
	"sync"

	"traitlint/internal/diag"
)

// Sink applies lint levels to finished diagnostics and forwards the surviving
// ones to a diag.Reporter. It is safe for concurrent use; diagnostics from one
// goroutine reach the reporter in the order they were emitted.
type Sink struct {
	mu         sync.Mutex
	reporter   diag.Reporter
	levels     *LevelMap
	emitted    int
	suppressed int
}

// NewSink builds a sink. A nil levels map resolves every lint to its default.
func NewSink(r diag.Reporter, levels *LevelMap) *Sink {
	if r == nil {
		r = diag.NopReporter{}
	}
	return &Sink{reporter: r, levels: levels}
}

// Emit resolves the level of l in scope and reports d unless the lint is
// allowed there. It reports whether d was forwarded.
func (s *Sink) Emit(l Lint, scope Scope, d diag.Diagnostic) bool {
	if s == nil {
		return false
	}
	level := s.levels.Resolve(l, scope)
	sev, ok := level.Severity()

	s.mu.Lock()
	defer s.mu.Unlock()
	if !ok {
		s.suppressed++
		return false
	}
	d.Severity = sev
	if d.Lint == "" {
		d.Lint = l.Name
	}
	s.reporter.Report(d)
	s.emitted++
	return true
}

// Emitted returns how many diagnostics were forwarded.
func (s *Sink) Emitted() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.emitted
}

// Suppressed returns how many diagnostics were dropped by an allow level.
func (s *Sink) Suppressed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.suppressed
}
