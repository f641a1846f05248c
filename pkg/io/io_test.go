package io

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/netdraw/pkg/diagram"
	"github.com/matzehuels/netdraw/pkg/errors"
)

func sampleDoc() *diagram.Document {
	d := diagram.NewDocument()
	d.Pages[0].Elements = []diagram.Element{
		{ID: "r1", Kind: diagram.KindDevice, Device: diagram.DeviceRouter, Name: "edge", IP: "192.168.1.1", X: 10, Y: 20, Width: 96, Height: 64},
		{ID: "s1", Kind: diagram.KindDevice, Device: diagram.DeviceServer, X: 200, Y: 20, Width: 96, Height: 64,
			Style: &diagram.Style{Fill: "#fff7ed", Stroke: "#fed7aa", StrokeWidth: 3}},
		{ID: "c1", Kind: diagram.KindConnection, Source: "r1", Target: "s1",
			Style: &diagram.Style{Stroke: "#2196f3", StrokeWidth: 2, Dash: diagram.DashDashed}},
		{ID: "t1", Kind: diagram.KindText, Text: "DMZ & core", X: 5, Y: 5, Width: 120, Height: 24},
	}
	return d
}

func TestWriteDefaultIsFresh(t *testing.T) {
	var a, b bytes.Buffer
	if err := WriteDefault(&a); err != nil {
		t.Fatal(err)
	}
	if err := WriteDefault(&b); err != nil {
		t.Fatal(err)
	}
	if a.String() != b.String() {
		t.Error("default export should be identical on every call")
	}
	if !strings.Contains(a.String(), "\n  \"version\": \"1.0\"") {
		t.Errorf("export should use two-space indentation:\n%s", a.String())
	}
	if !strings.Contains(a.String(), `"elements": []`) {
		t.Errorf("empty page should export elements as []:\n%s", a.String())
	}
}

func TestJSONRoundTrip(t *testing.T) {
	want := sampleDoc()
	var buf bytes.Buffer
	if err := WriteJSON(want, &buf); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	res, err := Read(&buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if res.Format != FormatJSON {
		t.Errorf("Format = %s, want json", res.Format)
	}
	if len(res.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", res.Warnings)
	}
	assertSameDoc(t, want, res.Document)
}

func assertSameDoc(t *testing.T, want, got *diagram.Document) {
	t.Helper()
	wb, _ := json.Marshal(want)
	gb, _ := json.Marshal(got)
	if !bytes.Equal(wb, gb) {
		t.Errorf("documents differ\nwant: %s\ngot:  %s", wb, gb)
	}
}

func TestReadErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		code  errors.Code
	}{
		{"empty", "", errors.ErrCodeMalformedImport},
		{"whitespace", "  \n\t", errors.ErrCodeMalformedImport},
		{"syntax", `{"version": "1.0",`, errors.ErrCodeMalformedImport},
		{"not json", "hello", errors.ErrCodeMalformedImport},
		{"array", `[]`, errors.ErrCodeInvalidDocument},
		{"number", `42`, errors.ErrCodeInvalidDocument},
		{"wrong type", `{"version": "1.0", "type": 7, "pages": []}`, errors.ErrCodeInvalidDocument},
		{"missing pages", `{"version": "1.0", "type": "drawio"}`, errors.ErrCodeInvalidDocument},
		{"major 2", `{"version": "2.0", "type": "drawio", "pages": [{"id": "p", "name": "p", "elements": []}]}`, errors.ErrCodeUnsupportedVersion},
		{"broken xml", `<mxfile><diagram>`, errors.ErrCodeMalformedImport},
		{"foreign xml", `<svg></svg>`, errors.ErrCodeMalformedImport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tt.input))
			if !errors.Is(err, tt.code) {
				t.Fatalf("Read() = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestReadSyntaxErrorPosition(t *testing.T) {
	_, err := Read(strings.NewReader("{\n  \"version\": \"1.0\",\n  oops\n}"))
	msg := errors.UserMessage(err)
	if !strings.Contains(msg, "line 3") {
		t.Errorf("message should give the line: %s", msg)
	}
}

func TestReadTypeErrorPath(t *testing.T) {
	_, err := Read(strings.NewReader(`{"version": "1.0", "type": "drawio", "pages": [{"id": "p", "name": "p", "elements": [{"id": "a", "kind": "text", "x": "left"}]}]}`))
	issues := errors.Issues(err)
	if len(issues) != 1 || !strings.HasSuffix(issues[0].Path, "x") {
		t.Errorf("issues = %v, want one issue at the x field", issues)
	}
}

func TestReadNewerMinorWarns(t *testing.T) {
	in := `{"version": "1.4", "type": "drawio", "future": true, "pages": [{"id": "p", "name": "p", "elements": []}]}`
	res, err := Read(strings.NewReader(in))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(res.Warnings) != 1 {
		t.Errorf("Warnings = %v, want one", res.Warnings)
	}
	if res.Document.Version != diagram.CurrentVersion {
		t.Errorf("Version = %s, want %s", res.Document.Version, diagram.CurrentVersion)
	}
}

func TestReadBOM(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("\xef\xbb\xbf")
	if err := WriteDefault(&buf); err != nil {
		t.Fatal(err)
	}
	if _, err := Read(&buf); err != nil {
		t.Errorf("Read with BOM: %v", err)
	}
}

func TestReadTooLarge(t *testing.T) {
	r := strings.NewReader(strings.Repeat(" ", MaxImportSize+1))
	if _, err := Read(r); !errors.Is(err, errors.ErrCodeMalformedImport) {
		t.Errorf("Read() = %v, want MALFORMED_IMPORT", err)
	}
}

func TestImportPath(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "net.DRAWIO")
	if err := Export(sampleDoc(), good, FormatJSON); err != nil {
		t.Fatalf("Export: %v", err)
	}
	if _, err := Import(good); err != nil {
		t.Errorf("Import(%s) = %v", good, err)
	}

	bad := filepath.Join(dir, "net.txt")
	if err := os.WriteFile(bad, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Import(bad); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("Import(.txt) = %v, want INVALID_FORMAT", err)
	}

	if _, err := Import(filepath.Join(dir, "missing.json")); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("Import(missing) = %v, want NOT_FOUND", err)
	}
}

func TestInspect(t *testing.T) {
	v, err := Inspect(strings.NewReader(`{"anything": [1, 2]}`))
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	m, ok := v.(map[string]any)
	if !ok || m["anything"] == nil {
		t.Errorf("Inspect = %#v", v)
	}

	if _, err := Inspect(strings.NewReader(`{nope`)); !errors.Is(err, errors.ErrCodeMalformedImport) {
		t.Errorf("Inspect(bad) = %v, want MALFORMED_IMPORT", err)
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
		ok   bool
	}{
		{"", FormatJSON, true},
		{"JSON", FormatJSON, true},
		{"drawio", FormatJSON, true},
		{"xml", FormatXML, true},
		{"svg", "", false},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err == nil) != tt.ok || got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, %v", tt.in, got, err)
		}
	}
	if FormatForPath("a/b.XML") != FormatXML || FormatForPath("a.drawio") != FormatJSON {
		t.Error("FormatForPath picked the wrong format")
	}
}
