package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/netdraw/internal/config"
	"github.com/matzehuels/netdraw/pkg/errors"
	pkgio "github.com/matzehuels/netdraw/pkg/io"
)

const sampleJSON = `{
  "version": "1.0",
  "type": "drawio",
  "pages": [{
    "id": "page1",
    "name": "Office",
    "elements": [
      {"id": "r1", "kind": "device", "device": "router", "name": "Core", "x": 10, "y": 10, "width": 80, "height": 60},
      {"id": "l1", "kind": "device", "device": "laptop", "name": "Desk", "x": 200, "y": 10, "width": 80, "height": 60},
      {"id": "c1", "kind": "connection", "source": "r1", "target": "l1"}
    ]
  }]
}`

// testEnv isolates config, store and cache under a temp dir.
func testEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv(config.EnvConfig, "")
	t.Setenv(config.EnvStore, "file")
	t.Setenv(config.EnvStorePath, filepath.Join(dir, "store"))
	t.Setenv(config.EnvCache, "file")
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Chdir(dir)
	return dir
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func execute(t *testing.T, args ...string) error {
	t.Helper()
	c := New(io.Discard, log.InfoLevel)
	root := c.RootCommand()
	root.SetArgs(args)
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	return root.ExecuteContext(context.Background())
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := New(io.Discard, log.InfoLevel).RootCommand()
	want := []string{"export", "import", "validate", "convert", "render", "watch",
		"tools", "toolbar", "serve", "mcp", "store", "cache", "completion"}
	for _, name := range want {
		if cmd, _, err := root.Find([]string{name}); err != nil || cmd.Name() != name {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestExportWritesDefaultDocument(t *testing.T) {
	dir := testEnv(t)
	if err := execute(t, "export"); err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(filepath.Join(dir, pkgio.ExportFilename))
	if err != nil {
		t.Fatal(err)
	}
	var want bytes.Buffer
	if err := pkgio.WriteDefault(&want); err != nil {
		t.Fatal(err)
	}
	if string(got) != want.String() {
		t.Errorf("export = %s, want %s", got, want.String())
	}
}

func TestExportXML(t *testing.T) {
	dir := testEnv(t)
	out := filepath.Join(dir, "net.xml")
	if err := execute(t, "export", "-o", out, "--format", "xml"); err != nil {
		t.Fatal(err)
	}
	got, _ := os.ReadFile(out)
	if !strings.Contains(string(got), "<mxfile") {
		t.Errorf("expected draw.io XML, got %s", got)
	}
}

func TestValidate(t *testing.T) {
	dir := testEnv(t)
	good := writeFile(t, dir, "good.drawio", sampleJSON)
	bad := writeFile(t, dir, "bad.json", `{"version": "1.0", "type": "drawio", "pages": [{"id": "p", "name": "P", "elements": [
		{"id": "c", "kind": "connection", "source": "x", "target": "y"}]}]}`)

	if err := execute(t, "validate", good); err != nil {
		t.Errorf("validate good: %v", err)
	}
	err := execute(t, "validate", bad)
	if !errors.Is(err, errors.ErrCodeInvalidDocument) {
		t.Errorf("validate bad = %v, want INVALID_DOCUMENT", err)
	}
	if err := execute(t, "validate", filepath.Join(dir, "missing.json")); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("validate missing = %v, want NOT_FOUND", err)
	}
}

func TestConvertRoundTrip(t *testing.T) {
	dir := testEnv(t)
	in := writeFile(t, dir, "office.drawio", sampleJSON)
	xmlPath := filepath.Join(dir, "office.xml")
	back := filepath.Join(dir, "back.json")

	if err := execute(t, "convert", in, "-o", xmlPath); err != nil {
		t.Fatal(err)
	}
	if err := execute(t, "convert", xmlPath, "-o", back); err != nil {
		t.Fatal(err)
	}
	res, err := pkgio.Import(back)
	if err != nil {
		t.Fatal(err)
	}
	st := res.Document.Stats()
	if st.Devices != 2 || st.Connections != 1 {
		t.Errorf("stats after round trip = %+v", st)
	}
}

func TestImportSaveAndMerge(t *testing.T) {
	dir := testEnv(t)
	in := writeFile(t, dir, "office.drawio", sampleJSON)

	if err := execute(t, "import", in, "--save", "office"); err != nil {
		t.Fatal(err)
	}
	if err := execute(t, "import", in, "--save", "office", "--mode", "merge"); err != nil {
		t.Fatal(err)
	}

	c := New(io.Discard, log.InfoLevel)
	rec, err := c.getStored(context.Background(), "office")
	if err != nil {
		t.Fatal(err)
	}
	// Renamed copies of both devices and the connection were merged in.
	if st := rec.Document.Stats(); st.Devices != 4 || st.Connections != 2 {
		t.Errorf("merged stats = %+v", st)
	}

	if err := execute(t, "store", "delete", "office"); err != nil {
		t.Fatal(err)
	}
	if err := execute(t, "store", "delete", "office"); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("second delete = %v, want NOT_FOUND", err)
	}
}

func TestImportInspectNeverFails(t *testing.T) {
	dir := testEnv(t)
	in := writeFile(t, dir, "broken.json", `{"version": `)
	if err := execute(t, "import", "--inspect", in); err != nil {
		t.Errorf("inspect should report, not fail: %v", err)
	}
}

func TestImportRejectsBadMode(t *testing.T) {
	dir := testEnv(t)
	in := writeFile(t, dir, "office.drawio", sampleJSON)
	if err := execute(t, "import", in, "--mode", "append"); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("err = %v, want INVALID_INPUT", err)
	}
}

func TestRenderDOT(t *testing.T) {
	dir := testEnv(t)
	in := writeFile(t, dir, "office.drawio", sampleJSON)
	if err := execute(t, "render", in, "-f", "dot"); err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(filepath.Join(dir, "office.dot"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(got), `"r1" -- "l1"`) {
		t.Errorf("missing edge in %s", got)
	}
}

func TestLoadConfigKeepsVerbose(t *testing.T) {
	testEnv(t)
	t.Setenv(config.EnvLogLevel, "warn")

	c := New(io.Discard, LogDebug)
	if _, err := c.loadConfig(); err != nil {
		t.Fatal(err)
	}
	if c.Logger.GetLevel() != LogDebug {
		t.Errorf("level = %v, -v should win over config", c.Logger.GetLevel())
	}

	c = New(io.Discard, LogInfo)
	if _, err := c.loadConfig(); err != nil {
		t.Fatal(err)
	}
	if c.Logger.GetLevel() != log.WarnLevel {
		t.Errorf("level = %v, want warn from config", c.Logger.GetLevel())
	}
}

func TestCompletion(t *testing.T) {
	root := New(io.Discard, log.InfoLevel).RootCommand()
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetArgs([]string{"completion", "bash"})
	if err := root.Execute(); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "netdraw") {
		t.Error("completion script should mention the program")
	}
}
