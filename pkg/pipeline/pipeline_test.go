package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/netdraw/pkg/cache"
	"github.com/matzehuels/netdraw/pkg/errors"
	"github.com/matzehuels/netdraw/pkg/render"
)

const sampleJSON = `{
  "version": "1.0",
  "type": "drawio",
  "pages": [
    {
      "id": "page1",
      "name": "Office",
      "elements": [
        {"id": "r1", "kind": "device", "device": "router", "x": 0, "y": 0, "width": 96, "height": 64, "name": "Edge"},
        {"id": "s1", "kind": "device", "device": "server", "x": 200, "y": 0, "width": 96, "height": 64},
        {"id": "c1", "kind": "connection", "source": "r1", "target": "s1"}
      ]
    }
  ]
}`

func writeSample(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "office.json")
	if err := os.WriteFile(path, []byte(sampleJSON), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func newFileRunner(t *testing.T) *Runner {
	t.Helper()
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := NewRunner(c, nil, nil)
	t.Cleanup(func() { r.Close() })
	return r
}

func TestOptionsValidateForImport(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{"path", Options{Path: "a.json"}, false},
		{"data", Options{Data: []byte("{}")}, false},
		{"neither", Options{}, true},
		{"both", Options{Path: "a.json", Data: []byte("{}")}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateForImport()
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateForImport() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, errors.ErrCodeInvalidInput) {
				t.Errorf("error code = %s, want INVALID_INPUT", errors.GetCode(err))
			}
		})
	}
}

func TestOptionsValidateForRender(t *testing.T) {
	opts := Options{}
	if err := opts.ValidateForRender(); err != nil {
		t.Fatalf("empty options should validate: %v", err)
	}
	if len(opts.Formats) != 1 || opts.Formats[0] != render.FormatSVG {
		t.Errorf("Formats should default to [svg], got %v", opts.Formats)
	}
	if opts.Logger == nil {
		t.Error("Logger should default to a discard logger")
	}

	bad := Options{Formats: []render.Format{"pdf"}}
	if err := bad.ValidateForRender(); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("pdf should be rejected with INVALID_FORMAT, got %v", err)
	}
}

func TestArtifactKeyOpts(t *testing.T) {
	opts := Options{Pinned: true}
	k := opts.ArtifactKeyOpts("page1", render.FormatPNG)
	if k.Page != "page1" || k.Format != "png" || !k.Pinned || k.Detailed {
		t.Errorf("ArtifactKeyOpts = %+v", k)
	}
}

func TestExecuteCaches(t *testing.T) {
	ctx := context.Background()
	r := newFileRunner(t)
	opts := Options{Path: writeSample(t), Formats: []render.Format{render.FormatDOT}}

	first, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if first.CacheInfo.ImportHit || first.CacheInfo.RenderHit {
		t.Errorf("first run should miss: %+v", first.CacheInfo)
	}
	if first.Stats.Devices != 2 || first.Stats.Connections != 1 {
		t.Errorf("Stats = %+v", first.Stats)
	}
	if first.DocHash == "" {
		t.Error("DocHash should be set")
	}
	dot := string(first.Artifacts[render.FormatDOT])
	if !strings.Contains(dot, `"r1" -- "s1"`) {
		t.Errorf("DOT should contain the connection:\n%s", dot)
	}

	second, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !second.CacheInfo.ImportHit || !second.CacheInfo.RenderHit {
		t.Errorf("second run should hit: %+v", second.CacheInfo)
	}
	if string(second.Artifacts[render.FormatDOT]) != dot {
		t.Error("cached artifact differs from the rendered one")
	}
	if second.DocHash != first.DocHash {
		t.Error("DocHash should be stable")
	}
}

func TestExecuteRefreshSkipsImportCache(t *testing.T) {
	ctx := context.Background()
	r := newFileRunner(t)
	opts := Options{Path: writeSample(t), Formats: []render.Format{render.FormatDOT}}
	if _, err := r.Execute(ctx, opts); err != nil {
		t.Fatal(err)
	}
	opts.Refresh = true
	res, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	if res.CacheInfo.ImportHit {
		t.Error("Refresh should skip the import cache")
	}
}

func TestExecuteNullCacheNeverHits(t *testing.T) {
	ctx := context.Background()
	r := NewRunner(nil, nil, nil)
	opts := Options{Data: []byte(sampleJSON), Formats: []render.Format{render.FormatDOT}}
	for i := 0; i < 2; i++ {
		res, err := r.Execute(ctx, opts)
		if err != nil {
			t.Fatal(err)
		}
		if res.CacheInfo.ImportHit || res.CacheInfo.RenderHit {
			t.Errorf("run %d: null cache should never hit", i)
		}
	}
}

func TestExecuteErrors(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	r := NewRunner(nil, nil, nil)

	tests := []struct {
		name string
		opts Options
		code errors.Code
	}{
		{"missing file", Options{Path: filepath.Join(dir, "nope.json")}, errors.ErrCodeNotFound},
		{"bad extension", Options{Path: filepath.Join(dir, "net.txt")}, errors.ErrCodeInvalidFormat},
		{"malformed", Options{Data: []byte("{not json")}, errors.ErrCodeMalformedImport},
		{"unknown page", Options{Data: []byte(sampleJSON), Page: "nope", Formats: []render.Format{render.FormatDOT}}, errors.ErrCodeNotFound},
		{"bad format", Options{Data: []byte(sampleJSON), Formats: []render.Format{"gif"}}, errors.ErrCodeInvalidFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Execute(ctx, tt.opts)
			if !errors.Is(err, tt.code) {
				t.Errorf("Execute = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestRenderKeysByOptions(t *testing.T) {
	ctx := context.Background()
	r := newFileRunner(t)
	imp, err := r.Import(ctx, Options{Data: []byte(sampleJSON)})
	if err != nil {
		t.Fatal(err)
	}

	plain := Options{Formats: []render.Format{render.FormatDOT}}
	if _, hit, err := r.RenderWithCacheInfo(ctx, imp.Document, plain); err != nil || hit {
		t.Fatalf("first render: hit=%v err=%v", hit, err)
	}
	pinned := Options{Formats: []render.Format{render.FormatDOT}, Pinned: true}
	out, hit, err := r.RenderWithCacheInfo(ctx, imp.Document, pinned)
	if err != nil {
		t.Fatal(err)
	}
	if hit {
		t.Error("pinned render should not reuse the unpinned artifact")
	}
	if !strings.Contains(string(out[render.FormatDOT]), "pos=") {
		t.Error("pinned DOT should carry positions")
	}
}

func TestSelectPage(t *testing.T) {
	imp, err := NewRunner(nil, nil, nil).Import(context.Background(), Options{Data: []byte(sampleJSON)})
	if err != nil {
		t.Fatal(err)
	}
	p, err := SelectPage(imp.Document, "")
	if err != nil || p.ID != "page1" {
		t.Errorf("SelectPage(\"\") = %v, %v", p, err)
	}
	if _, err := SelectPage(imp.Document, "other"); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("SelectPage(other) = %v, want NOT_FOUND", err)
	}
	if _, err := SelectPage(nil, ""); !errors.Is(err, errors.ErrCodeInvalidDocument) {
		t.Errorf("SelectPage(nil) = %v", err)
	}
}
