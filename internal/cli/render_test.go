package cli

import (
	"path/filepath"
	"testing"

	"github.com/fsnotify/fsnotify"

	"github.com/matzehuels/netdraw/pkg/render"
)

func TestBasePath(t *testing.T) {
	tests := []struct {
		output, input, want string
	}{
		{"", "net/office.drawio", "net/office"},
		{"", "office", "office"},
		{"out/diagram.svg", "office.drawio", "out/diagram"},
		{"out/diagram.PNG", "office.drawio", "out/diagram"},
		{"out/diagram", "office.drawio", "out/diagram"},
		{"out/diagram.v2", "office.drawio", "out/diagram.v2"},
	}
	for _, tt := range tests {
		if got := basePath(tt.output, tt.input); got != tt.want {
			t.Errorf("basePath(%q, %q) = %q, want %q", tt.output, tt.input, got, tt.want)
		}
	}
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		name   string
		output string
		format render.Format
		count  int
		want   string
	}{
		{"single explicit", "picture.img", render.FormatPNG, 1, "picture.img"},
		{"single derived", "", render.FormatSVG, 1, "office.svg"},
		{"several explicit", "out.svg", render.FormatPNG, 2, "out.png"},
		{"several derived", "", render.FormatDOT, 3, "office.dot"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := outputPath(tt.output, "office.drawio", tt.format, tt.count); got != tt.want {
				t.Errorf("outputPath = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRenderOptsPipelineOptions(t *testing.T) {
	opts := renderOpts{formats: "png,svg", page: "p2", pinned: true}
	p, err := opts.pipelineOptions("office.drawio")
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Formats) != 2 || p.Formats[0] != render.FormatPNG || p.Page != "p2" || !p.Pinned {
		t.Errorf("options = %+v", p)
	}

	opts.formats = "pdf"
	if _, err := opts.pipelineOptions("office.drawio"); err == nil {
		t.Error("pdf should be rejected")
	}
}

func TestIsChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "office.drawio")
	tests := []struct {
		name string
		ev   fsnotify.Event
		want bool
	}{
		{"write", fsnotify.Event{Name: path, Op: fsnotify.Write}, true},
		{"atomic save", fsnotify.Event{Name: path, Op: fsnotify.Create}, true},
		{"chmod", fsnotify.Event{Name: path, Op: fsnotify.Chmod}, false},
		{"remove", fsnotify.Event{Name: path, Op: fsnotify.Remove}, false},
		{"other file", fsnotify.Event{Name: path + ".swp", Op: fsnotify.Write}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isChange(tt.ev, path); got != tt.want {
				t.Errorf("isChange = %v, want %v", got, tt.want)
			}
		})
	}
}
