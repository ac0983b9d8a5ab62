package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"traitlint/internal/hir"
	"traitlint/internal/testkit"
)

const libSrc = `pub trait Service {
    async fn call(&self, req: Request) -> Response;
    fn ready(&self) -> bool;
}

pub trait Store {
    async fn get(&self, key: u32) -> Option<Vec<u8>>;
}
`

// writeDump lays out src/lib.rs and a dump referencing it by relative path.
func writeDump(t *testing.T, name string) (dir, dump string) {
	t.Helper()
	dir = t.TempDir()
	t.Chdir(dir)
	if err := os.MkdirAll(filepath.Join(dir, "src"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "src", "lib.rs"), []byte(libSrc), 0o600); err != nil {
		t.Fatal(err)
	}

	b := testkit.NewUnit(t, "svc", "src/lib.rs", libSrc)
	b.Trait("Service", true).Method("async fn call(&self, req: Request) -> Response;")
	b.Trait("Store", true).Method("async fn get(&self, key: u32) -> Option<Vec<u8>>;")
	unit := b.Build()
	unit.Files[0].Content = ""

	dump = filepath.Join(dir, name)
	if err := hir.WriteFile(dump, unit); err != nil {
		t.Fatal(err)
	}
	return dir, dump
}

func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append([]string{"--color", "off"}, args...))
	err = root.Execute()
	return out.String(), errOut.String(), err
}

const (
	warnCall = "warning LNT4001 src/lib.rs:2:5 [async_fn_in_trait] use of `async fn` in public traits is discouraged as auto trait bounds cannot be specified"
	warnGet  = "warning LNT4001 src/lib.rs:7:5 [async_fn_in_trait] use of `async fn` in public traits is discouraged as auto trait bounds cannot be specified"
)

func TestCheck(t *testing.T) {
	for _, name := range []string{"svc.json", "svc.msgpack"} {
		t.Run(name, func(t *testing.T) {
			_, dump := writeDump(t, name)
			out, errOut, err := execute(t, "check", dump)
			if err != nil {
				t.Fatalf("check: %v\n%s", err, errOut)
			}
			if out != warnCall+"\n"+warnGet+"\n" {
				t.Errorf("stdout:\n%s", out)
			}
			if !strings.Contains(errOut, "0 error(s), 2 warning(s), 0 suppressed in 1 unit(s)") {
				t.Errorf("stderr:\n%s", errOut)
			}
		})
	}
}

func TestCheck_Levels(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		out     string
		failing bool
	}{
		{name: "allow", args: []string{"-A", "async_fn_in_trait"}, out: ""},
		{name: "deny", args: []string{"-D", "async-fn-in-trait"}, out: strings.ReplaceAll(warnCall, "warning", "error") + "\n" + strings.ReplaceAll(warnGet, "warning", "error") + "\n", failing: true},
		{name: "warnings as errors", args: []string{"--warnings-as-errors"}, failing: true},
		{name: "return type notation", args: []string{"--features", "return_type_notation"}, out: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, dump := writeDump(t, "svc.json")
			out, _, err := execute(t, append(append([]string{"check"}, tt.args...), dump)...)
			if tt.failing != errors.Is(err, errFindings) {
				t.Fatalf("err = %v, failing = %v", err, tt.failing)
			}
			if !tt.failing && err != nil {
				t.Fatal(err)
			}
			if tt.out != "" || !tt.failing {
				if out != tt.out {
					t.Errorf("stdout:\n%s\nwant:\n%s", out, tt.out)
				}
			}
		})
	}
}

func TestCheck_ConfigAndUnknownLint(t *testing.T) {
	dir, dump := writeDump(t, "svc.json")
	cfg := "[lints]\nasync_fn_in_trait = \"allow\"\nclippy_all = \"deny\"\n"
	if err := os.WriteFile(filepath.Join(dir, "traitlint.toml"), []byte(cfg), 0o600); err != nil {
		t.Fatal(err)
	}
	out, errOut, err := execute(t, "check", dump)
	if err != nil {
		t.Fatal(err)
	}
	if out != "" {
		t.Errorf("allowed lint still printed:\n%s", out)
	}
	if !strings.Contains(errOut, "warning CFG5001") || !strings.Contains(errOut, "unknown lint `clippy_all`") {
		t.Errorf("stderr:\n%s", errOut)
	}
	if !strings.Contains(errOut, "2 suppressed") {
		t.Errorf("stderr:\n%s", errOut)
	}
}

func TestCheck_Suggest(t *testing.T) {
	_, dump := writeDump(t, "svc.json")
	out, _, err := execute(t, "check", "--suggest", dump)
	if err != nil {
		t.Fatal(err)
	}
	want := "    fn call(&self, req: Request) -> impl std::future::Future<Output = Response> + Send\n"
	if !strings.Contains(out, want) || !strings.Contains(out, "[async_fn_in_trait-0-24]") {
		t.Errorf("stdout:\n%s", out)
	}
}

func TestCheck_MissingDump(t *testing.T) {
	t.Chdir(t.TempDir())
	if _, _, err := execute(t, "check", "nope.json"); err == nil || !strings.HasPrefix(err.Error(), "IO1001 open nope.json:") {
		t.Fatalf("err = %v", err)
	}
}

func TestFix(t *testing.T) {
	dir, dump := writeDump(t, "svc.json")
	lib := filepath.Join(dir, "src", "lib.rs")

	out, _, err := execute(t, "fix", "--all", "--dry-run", dump)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "No applicable fixes found.") {
		t.Errorf("manual-review fixes applied without --manual:\n%s", out)
	}

	out, _, err = execute(t, "fix", "--all", "--manual", "--dry-run", dump)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Would apply 2 fix(es):") {
		t.Errorf("stdout:\n%s", out)
	}
	if got, _ := os.ReadFile(lib); string(got) != libSrc {
		t.Fatal("dry run touched the file")
	}

	out, _, err = execute(t, "fix", "--id", "async_fn_in_trait-0-24", dump)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Applied 1 fix(es):") || !strings.Contains(out, "Updated files:") || !strings.Contains(out, "at src/lib.rs:2:5 (") {
		t.Errorf("stdout:\n%s", out)
	}
	got, err := os.ReadFile(lib)
	if err != nil {
		t.Fatal(err)
	}
	want := strings.Replace(libSrc,
		"async fn call(&self, req: Request) -> Response;",
		"fn call(&self, req: Request) -> impl std::future::Future<Output = Response> + Send;", 1)
	if string(got) != want {
		t.Errorf("rewritten:\n%s", got)
	}
}

func TestFix_FlagConflicts(t *testing.T) {
	_, dump := writeDump(t, "svc.json")
	if _, _, err := execute(t, "fix", "--all", "--once", dump); err == nil {
		t.Error("--all with --once accepted")
	}
	if _, _, err := execute(t, "fix", "--id", "x", "--all", dump); err == nil {
		t.Error("--id with --all accepted")
	}
}

func TestLints(t *testing.T) {
	out, _, err := execute(t, "lints", "--format", "json")
	if err != nil {
		t.Fatal(err)
	}
	var got []lintPayload
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Name != "async_fn_in_trait" || got[0].Default != "warn" || got[0].Code != "LNT4001" {
		t.Errorf("lints = %+v", got)
	}
}

func TestVersion(t *testing.T) {
	out, _, err := execute(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "traitlint 0.1.0-dev") {
		t.Errorf("version = %q", out)
	}
}

func TestRenderLintTable_Truncates(t *testing.T) {
	long := strings.Repeat("word ", 40)
	got := renderLintTable([]lintPayload{{Name: "async_fn_in_trait", Code: "LNT4001", Default: "warn", Summary: long}}, 80)
	if !strings.Contains(got, "async_fn_in_trait") || !strings.Contains(got, "...") {
		t.Errorf("table:\n%s", got)
	}
	if strings.Contains(got, long) {
		t.Error("summary was not truncated")
	}
}

func TestCheck_TimingsAndBadConfig(t *testing.T) {
	dir, dump := writeDump(t, "svc.json")
	_, errOut, err := execute(t, "--timings", "check", dump)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(errOut, "info OBS6001 Pipeline timings") {
		t.Errorf("stderr:\n%s", errOut)
	}

	if err := os.WriteFile(filepath.Join(dir, "traitlint.toml"), []byte("[lints]\nasync_fn_in_trait = \"loud\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, _, err := execute(t, "check", dump); err == nil || !strings.HasPrefix(err.Error(), "CFG5002 ") {
		t.Fatalf("err = %v", err)
	}
}

func TestCheck_SuggestExcerpt(t *testing.T) {
	_, dump := writeDump(t, "svc.json")
	out, _, err := execute(t, "check", "--suggest", dump)
	if err != nil {
		t.Fatal(err)
	}
	want := "  2 |     async fn call(&self, req: Request) -> Response;\n" +
		"    |     ^^^^^\n"
	if !strings.Contains(out, want) {
		t.Errorf("stdout:\n%s", out)
	}
}

func TestDump_InlineMakesDumpSelfContained(t *testing.T) {
	dir, dump := writeDump(t, "svc.json")
	out := filepath.Join(dir, "inline.msgpack")
	if _, _, err := execute(t, "dump", "--inline", "-o", out, dump); err != nil {
		t.Fatal(err)
	}
	if err := os.RemoveAll(filepath.Join(dir, "src")); err != nil {
		t.Fatal(err)
	}

	unit, _, err := hir.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if unit.Files[0].Content != libSrc {
		t.Errorf("content not inlined: %q", unit.Files[0].Content)
	}
	stdout, _, err := execute(t, "check", out)
	if err != nil {
		t.Fatal(err)
	}
	if stdout != warnCall+"\n"+warnGet+"\n" {
		t.Errorf("stdout:\n%s", stdout)
	}
	if _, _, err := execute(t, "check", dump); err == nil {
		t.Error("original dump still loads without its sources")
	}
}

func TestDump_Stdout(t *testing.T) {
	_, dump := writeDump(t, "svc.json")
	out, _, err := execute(t, "dump", dump)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, `"schema": 1`) || !strings.Contains(out, `"name": "svc"`) {
		t.Errorf("stdout:\n%s", out)
	}
	if _, _, err := execute(t, "dump", "--format", "yaml", dump); !errors.Is(err, hir.ErrUnknownFormat) {
		t.Errorf("err = %v", err)
	}
}

func TestCheck_CacheKeepsLimit(t *testing.T) {
	_, dump := writeDump(t, "svc.json")
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	runs := []struct {
		name string
		args []string
		out  string
		over bool
	}{
		{name: "limited", args: []string{"--max-diagnostics", "1", "check", "--cache", dump}, out: warnCall + "\n", over: true},
		{name: "unlimited after limited", args: []string{"check", "--cache", dump}, out: warnCall + "\n" + warnGet + "\n"},
		{name: "limited from cache", args: []string{"--max-diagnostics", "1", "check", "--cache", dump}, out: warnCall + "\n", over: true},
		{name: "unlimited from cache", args: []string{"check", "--cache", dump}, out: warnCall + "\n" + warnGet + "\n"},
	}
	for _, r := range runs {
		out, errOut, err := execute(t, r.args...)
		if err != nil {
			t.Fatalf("%s: %v\n%s", r.name, err, errOut)
		}
		if out != r.out {
			t.Errorf("%s: stdout:\n%s", r.name, out)
		}
		if got := strings.Contains(errOut, ", 1 over the limit"); got != r.over {
			t.Errorf("%s: over the limit note = %v, want %v\n%s", r.name, got, r.over, errOut)
		}
	}
}

func TestLints_PrettyHeader(t *testing.T) {
	out, _, err := execute(t, "lints")
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("table:\n%s", out)
	}
	if f := strings.Fields(lines[0]); len(f) != 4 || f[0] != "NAME" || f[3] != "SUMMARY" {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.HasPrefix(strings.TrimSpace(lines[1]), "async_fn_in_trait") {
		t.Errorf("row = %q", lines[1])
	}
	if !lintTableStyle(0).GetBold() || lintTableStyle(1).GetBold() {
		t.Error("only the header row is bold")
	}
}

func TestFix_IDAcrossDumps(t *testing.T) {
	dir, svc := writeDump(t, "svc.json")
	const otherSrc = "pub trait Other {\n    async fn go(&self);\n}\n"
	if err := os.WriteFile(filepath.Join(dir, "src", "other.rs"), []byte(otherSrc), 0o600); err != nil {
		t.Fatal(err)
	}
	b := testkit.NewUnit(t, "other", "src/other.rs", otherSrc)
	b.Trait("Other", true).Method("async fn go(&self);")
	unit := b.Build()
	unit.Files[0].Content = ""
	other := filepath.Join(dir, "other.json")
	if err := hir.WriteFile(other, unit); err != nil {
		t.Fatal(err)
	}

	out, _, err := execute(t, "fix", "--id", "async_fn_in_trait-0-24", "--dry-run", other, svc)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Would apply 1 fix(es):") || strings.Contains(out, "fix id not found") {
		t.Errorf("stdout:\n%s", out)
	}

	out, _, err = execute(t, "fix", "--id", "async_fn_in_trait-0-999", "--dry-run", other, svc)
	if err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(out, "fix id not found"); n != 1 || !strings.Contains(out, "No applicable fixes found.") {
		t.Errorf("stdout (%d not-found entries):\n%s", n, out)
	}
}
