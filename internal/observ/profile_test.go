package observ

import (
	"os"
	"path/filepath"
	"testing"
)

func TestProfiler(t *testing.T) {
	dir := t.TempDir()
	cfg := ProfileConfig{
		CPU:   filepath.Join(dir, "cpu.pprof"),
		Heap:  filepath.Join(dir, "heap.pprof"),
		Trace: filepath.Join(dir, "trace.out"),
	}
	if !cfg.Enabled() || (ProfileConfig{}).Enabled() {
		t.Fatal("Enabled is wrong")
	}
	p, err := StartProfiles(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Stop(); err != nil {
		t.Fatal(err)
	}
	if err := p.Stop(); err != nil {
		t.Fatalf("second Stop: %v", err)
	}
	for _, path := range []string{cfg.CPU, cfg.Heap, cfg.Trace} {
		info, err := os.Stat(path)
		if err != nil || info.Size() == 0 {
			t.Errorf("%s: %v (size %v)", filepath.Base(path), err, info)
		}
	}
}

func TestProfiler_BadPath(t *testing.T) {
	dir := t.TempDir()
	if _, err := StartProfiles(ProfileConfig{Trace: filepath.Join(dir, "missing", "trace.out")}); err == nil {
		t.Fatal("expected an error")
	}
	var p *Profiler
	if err := p.Stop(); err != nil {
		t.Fatal(err)
	}
}
