package main

import (
	"context"
	"errors"
	"fmt"
	iofs "io/fs"
	"math"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"traitlint/internal/config"
	"traitlint/internal/dcache"
	"traitlint/internal/diag"
	"traitlint/internal/feature"
	"traitlint/internal/hir"
	"traitlint/internal/lint"
	"traitlint/internal/observ"
	"traitlint/internal/scan"
	"traitlint/internal/source"
	"traitlint/internal/version"
)

// checkFlags are shared by check and fix.
type checkFlags struct {
	features         string
	allow            []string
	warn             []string
	deny             []string
	forbid           []string
	warningsAsErrors bool
	jobs             int
	configPath       string
	baseDir          string
	cache            bool
}

func (f *checkFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.features, "features", "", "comma-separated language features enabled for the units")
	fs.StringSliceVarP(&f.allow, "allow", "A", nil, "set lint to allow")
	fs.StringSliceVarP(&f.warn, "warn", "W", nil, "set lint to warn")
	fs.StringSliceVarP(&f.deny, "deny", "D", nil, "set lint to deny")
	fs.StringSliceVarP(&f.forbid, "forbid", "F", nil, "set lint to forbid")
	fs.BoolVar(&f.warningsAsErrors, "warnings-as-errors", false, "report every warning as an error")
	fs.IntVarP(&f.jobs, "jobs", "j", 0, "max units scanned in parallel (0=auto)")
	fs.StringVar(&f.configPath, "config", "", "path to "+config.FileName+" (default: search upwards)")
	fs.StringVar(&f.baseDir, "base-dir", "", "directory relative source paths in dumps are resolved against")
	fs.BoolVar(&f.cache, "cache", false, "reuse results for unchanged dumps")
}

// unitRun is one dump moving through the pipeline. Its spans are only
// meaningful against its own file set, so each unit keeps its own bag.
type unitRun struct {
	path   string
	raw    []byte
	unit   *hir.Unit
	files  *source.FileSet
	bag    *diag.Bag
	sink   *lint.Sink
	key    dcache.Key
	cached bool
	// suppressed comes from the cache on a hit and from sink otherwise
	suppressed int
}

func (u *unitRun) suppressedCount() int {
	if u.cached {
		return u.suppressed
	}
	return u.sink.Suppressed()
}

type session struct {
	cfg      *config.Config
	features feature.Set
	levels   *lint.LevelMap
	registry *lint.Registry
	jobs     int
	maxDiags int
	cache    *dcache.Cache
	timer    *observ.Timer
	units    []*unitRun
	// warnings are problems with the setup itself, already rendered
	warnings []string
}

func newSession(cmd *cobra.Command, flags *checkFlags, dumps []string) (*session, error) {
	s := &session{
		registry: lint.DefaultRegistry(),
		levels:   lint.NewLevelMap(),
		timer:    observ.NewTimer(),
	}

	done := s.timer.Track("config")
	var err error
	if flags.configPath != "" {
		s.cfg, err = config.Load(flags.configPath)
	} else {
		s.cfg, err = config.Discover(".")
	}
	if errors.Is(err, lint.ErrUnknownLevel) {
		return nil, fmt.Errorf("%s %w", diag.CfgInvalidLevel.ID(), err)
	}
	if err != nil {
		return nil, err
	}
	if s.cfg != nil {
		logger.Debug("config loaded", zap.String("path", s.cfg.Path))
	}

	cliFeatures, err := feature.Parse(flags.features)
	if err != nil {
		return nil, fmt.Errorf("--features: %w", err)
	}
	s.features = s.cfg.FeatureSet().Union(cliFeatures)

	for _, name := range s.cfg.ApplyLevels(s.levels, s.registry) {
		s.warnf(diag.CfgUnknownLint, "%s: unknown lint `%s`", s.cfg.Path, name)
	}
	for _, group := range []struct {
		level lint.Level
		names []string
	}{
		{lint.Allow, flags.allow},
		{lint.Warn, flags.warn},
		{lint.Deny, flags.deny},
		{lint.Forbid, flags.forbid},
	} {
		for _, name := range group.names {
			name = strings.ReplaceAll(strings.TrimSpace(name), "-", "_")
			if _, ok := s.registry.Lookup(name); !ok {
				s.warnf(diag.CfgUnknownLint, "--%s: unknown lint `%s`", group.level, name)
				continue
			}
			s.levels.Set(name, group.level)
		}
	}
	s.levels.WarningsAsErrors = flags.warningsAsErrors

	s.jobs = flags.jobs
	if !cmd.Flags().Changed("jobs") && s.cfg != nil {
		s.jobs = s.cfg.Check.Jobs
	}
	s.maxDiags, err = cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return nil, err
	}
	if !cmd.Root().PersistentFlags().Changed("max-diagnostics") && s.cfg != nil && s.cfg.Check.MaxDiagnostics > 0 {
		s.maxDiags = s.cfg.Check.MaxDiagnostics
	}
	if s.maxDiags <= 0 {
		s.maxDiags = math.MaxInt32
	}

	if flags.cache {
		if s.cache, err = dcache.Open("traitlint"); err != nil {
			// кэш необязателен: работаем без него
			logger.Warn("cache disabled", zap.Error(err))
		}
	}
	done("")

	done = s.timer.Track("load")
	for _, path := range dumps {
		u, err := s.loadUnit(path, flags.baseDir)
		if err != nil {
			return nil, err
		}
		s.units = append(s.units, u)
	}
	done(fmt.Sprintf("%d dumps", len(s.units)))
	return s, nil
}

func (s *session) warnf(code diag.Code, format string, args ...any) {
	s.warnings = append(s.warnings, fmt.Sprintf("%s %s ", diag.SevWarning.Label(), code.ID())+fmt.Sprintf(format, args...))
}

func (s *session) loadUnit(path, baseDir string) (*unitRun, error) {
	unit, raw, err := hir.ReadFile(path)
	if err != nil {
		code := diag.IODecodeDump
		var pathErr *iofs.PathError
		if errors.As(err, &pathErr) {
			code = diag.IOLoadFileError
		}
		return nil, fmt.Errorf("%s %w", code.ID(), err)
	}
	if baseDir == "" {
		baseDir = s.cfg.ResolveBaseDir()
	}
	if baseDir == "" {
		baseDir = filepath.Dir(path)
	}
	files, err := unit.FileSet(baseDir)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", diag.IOMissingSource.ID(), path, err)
	}
	bag := diag.NewBag(s.maxDiags)
	u := &unitRun{
		path:  path,
		raw:   raw,
		unit:  unit,
		files: files,
		bag:   bag,
		sink:  lint.NewSink(diag.NewDedupReporter(diag.BagReporter{Bag: bag}), s.levels),
	}
	logger.Debug("dump loaded",
		zap.String("path", path),
		zap.String("unit", unit.Name),
		zap.Int("files", files.Len()),
		zap.Int("items", unit.ItemCount()))
	return u, nil
}

// run scans every unit not served from the cache and stores fresh results.
func (s *session) run(ctx context.Context) (scan.Stats, error) {
	done := s.timer.Track("scan")
	pending := make([]scan.Input, 0, len(s.units))
	levelsKey := s.levels.Key()
	for _, u := range s.units {
		if s.cache != nil {
			u.key = dcache.KeyFor(u.raw, u.files, s.features, levelsKey, s.maxDiags, version.Version)
			payload, ok, err := s.cache.Get(u.key)
			if err != nil {
				logger.Warn("cache read failed", zap.String("path", u.path), zap.Error(err))
			}
			if ok {
				for _, d := range payload.Diagnostics {
					u.bag.Add(d)
				}
				u.bag.AddDropped(payload.Dropped)
				u.cached = true
				u.suppressed = payload.Suppressed
				logger.Debug("cache hit", zap.String("path", u.path), zap.Stringer("key", u.key))
				continue
			}
		}
		pending = append(pending, scan.Input{Unit: u.unit, Files: u.files, Sink: u.sink})
	}

	scanner := scan.New(s.features, s.jobs)
	st, err := scanner.ScanUnits(ctx, pending, nil)
	done(fmt.Sprintf("%d units, %d items", st.Units, st.Items))
	if err != nil {
		return st, err
	}

	if s.cache != nil {
		for _, u := range s.units {
			if u.cached {
				continue
			}
			payload := &dcache.Payload{
				Unit:        u.unit.Name,
				Diagnostics: u.bag.Items(),
				Suppressed:  u.sink.Suppressed(),
				Dropped:     u.bag.Dropped(),
			}
			if err := s.cache.Put(u.key, payload); err != nil {
				logger.Warn("cache write failed", zap.String("path", u.path), zap.Error(err))
			}
		}
	}
	return st, nil
}

func (s *session) finishTimings(cmd *cobra.Command) error {
	s.timer.Log(logger)
	show, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil || !show {
		return err
	}
	w := cmd.ErrOrStderr()
	if _, err := fmt.Fprintf(w, "%s %s %s\n", diag.SevInfo.Label(), diag.ObsTimings.ID(), diag.ObsTimings.Title()); err != nil {
		return err
	}
	_, err = fmt.Fprint(w, s.timer.Summary())
	return err
}
