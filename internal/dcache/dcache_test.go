package dcache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/vmihailenco/msgpack/v5"

	"traitlint/internal/diag"
	"traitlint/internal/feature"
	"traitlint/internal/source"
)

func sampleDiag() diag.Diagnostic {
	sp := source.Span{Start: 24, End: 29}
	return diag.NewWarning(diag.LintAsyncFnInTrait, sp, "msg").
		WithLint("async_fn_in_trait").
		WithNote(sp, "note").
		WithFixSuggestion(diag.Fix{
			ID:            "async_fn_in_trait-0-24",
			Applicability: diag.FixApplicabilityManualReview,
			Edits:         []diag.TextEdit{{Span: source.Span{Start: 24, End: 30}, OldText: "async "}},
			Preview:       "fn call()",
		})
}

func TestPutGet(t *testing.T) {
	c, err := OpenDir(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	key := KeyFor([]byte("dump"), nil, feature.Set{}, "", 0, "v1")

	if _, ok, err := c.Get(key); ok || err != nil {
		t.Fatalf("empty cache: ok=%v err=%v", ok, err)
	}
	if err := c.Put(key, &Payload{Unit: "svc", Diagnostics: []diag.Diagnostic{sampleDiag()}, Suppressed: 2, Dropped: 3}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, ok, err := c.Get(key)
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if got.Unit != "svc" || got.Suppressed != 2 || got.Dropped != 3 || len(got.Diagnostics) != 1 {
		t.Fatalf("payload = %+v", got)
	}
	d := got.Diagnostics[0]
	if d.Primary != (source.Span{Start: 24, End: 29}) || d.Lint != "async_fn_in_trait" || d.Fixes[0].Edits[0].OldText != "async " {
		t.Errorf("diagnostic changed: %+v", d)
	}

	if err := c.DropAll(); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := c.Get(key); ok {
		t.Error("entry survived DropAll")
	}
	if err := c.DropAll(); err != nil {
		t.Errorf("DropAll on an empty cache: %v", err)
	}
}

func TestGet_SchemaMismatchIsMiss(t *testing.T) {
	c, err := OpenDir(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	key := KeyFor(nil, nil, feature.Set{}, "", 0, "v1")
	raw, err := msgpack.Marshal(&Payload{Schema: schemaVersion + 1, Unit: "old"})
	if err != nil {
		t.Fatal(err)
	}
	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, raw, 0o600); err != nil {
		t.Fatal(err)
	}
	if _, ok, err := c.Get(key); ok || err != nil {
		t.Errorf("ok=%v err=%v, want a clean miss", ok, err)
	}
}

func TestKeyFor(t *testing.T) {
	fs := source.NewFileSet()
	fs.AddVirtual("src/lib.rs", []byte("trait T {}"))
	base := KeyFor([]byte("d"), fs, feature.Set{}, "", 0, "v1")
	if base != KeyFor([]byte("d"), fs, feature.Set{}, "", 0, "v1") {
		t.Fatal("key is not stable")
	}

	other := source.NewFileSet()
	other.AddVirtual("src/lib.rs", []byte("trait U {}"))
	variants := map[string]Key{
		"dump":     KeyFor([]byte("e"), fs, feature.Set{}, "", 0, "v1"),
		"files":    KeyFor([]byte("d"), other, feature.Set{}, "", 0, "v1"),
		"features": KeyFor([]byte("d"), fs, feature.New(feature.ReturnTypeNotation), "", 0, "v1"),
		"levels":   KeyFor([]byte("d"), fs, feature.Set{}, "async_fn_in_trait=deny", 0, "v1"),
		"limit":    KeyFor([]byte("d"), fs, feature.Set{}, "", 100, "v1"),
		"version":  KeyFor([]byte("d"), fs, feature.Set{}, "", 0, "v2"),
		// length prefixes keep field boundaries apart
		"shifted": KeyFor([]byte(""), fs, feature.Set{}, "", 0, "v1d"),
	}
	for name, k := range variants {
		if k == base {
			t.Errorf("changing %s did not change the key", name)
		}
	}
}

func TestNilCache(t *testing.T) {
	var c *Cache
	if err := c.Put(Key{}, &Payload{}); err != nil {
		t.Error(err)
	}
	if _, ok, err := c.Get(Key{}); ok || err != nil {
		t.Error("nil cache must miss")
	}
}

func TestOpen_UsesXDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", dir)
	c, err := Open("traitlint")
	if err != nil {
		t.Fatal(err)
	}
	if c.Dir() != filepath.Join(dir, "traitlint") {
		t.Errorf("dir = %q", c.Dir())
	}
}
