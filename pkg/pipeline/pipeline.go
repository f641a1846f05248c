// Package pipeline provides the import → render pipeline for netdraw.
//
// The CLI render and watch commands and the HTTP render endpoint all go
// through a [Runner], so caching and logging behave the same everywhere.
//
// # Stages
//
//  1. Import: read a .drawio, .xml or .json file (or raw bytes), decode
//     and validate it. Decoded documents are cached by the hash of the
//     source bytes.
//  2. Render: draw one page of the document with Graphviz in each
//     requested format. Artifacts are cached by the hash of the document
//     JSON plus the render options.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Path:    "office.drawio",
//	    Formats: []render.Format{render.FormatSVG},
//	})
//	if err != nil {
//	    return err
//	}
//	svg := result.Artifacts[render.FormatSVG]
//
// Each stage can also run on its own:
//
//	imp, hit, err := runner.ImportWithCacheInfo(ctx, opts)
//	artifacts, hit, err := runner.RenderWithCacheInfo(ctx, doc, opts)
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/netdraw/pkg/cache"
	"github.com/matzehuels/netdraw/pkg/diagram"
	"github.com/matzehuels/netdraw/pkg/errors"
	pkgio "github.com/matzehuels/netdraw/pkg/io"
	"github.com/matzehuels/netdraw/pkg/render"
)

// Options contains all configuration for a pipeline run.
type Options struct {
	// Import options. Exactly one of Path and Data is set.
	Path string `json:"path,omitempty"`
	Data []byte `json:"-"`
	// Refresh skips the import cache lookup.
	Refresh bool `json:"refresh,omitempty"`

	// Render options
	Page     string          `json:"page,omitempty"`
	Formats  []render.Format `json:"formats,omitempty"`
	Pinned   bool            `json:"pinned,omitempty"`
	Detailed bool            `json:"detailed,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Document is the imported document.
	Document *diagram.Document

	// DocHash is the content hash of the document JSON.
	DocHash string

	// Format is the format the source was decoded from.
	Format pkgio.Format

	// Warnings are the lossy-conversion notes from the import.
	Warnings []string

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[render.Format][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Devices     int
	Connections int
	ImportTime  time.Duration
	RenderTime  time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	ImportHit bool // Whether the decoded document came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// ValidateForImport checks that exactly one source is set.
func (o *Options) ValidateForImport() error {
	if o.Path == "" && len(o.Data) == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "path or data is required")
	}
	if o.Path != "" && len(o.Data) > 0 {
		return errors.New(errors.ErrCodeInvalidInput, "path and data are mutually exclusive")
	}
	o.setLoggerDefault()
	return nil
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []render.Format{render.FormatSVG}
	}
	o.setLoggerDefault()
}

// ValidateForRender validates formats and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	o.SetRenderDefaults()
	for _, f := range o.Formats {
		switch f {
		case render.FormatDOT, render.FormatSVG, render.FormatPNG:
		default:
			return errors.New(errors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: svg, png, dot)", f)
		}
	}
	return nil
}

func (o *Options) setLoggerDefault() {
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// RenderOptions returns the options passed to the renderer.
func (o *Options) RenderOptions() render.Options {
	return render.Options{Pinned: o.Pinned, Detailed: o.Detailed}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(page string, format render.Format) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Page:     page,
		Format:   string(format),
		Pinned:   o.Pinned,
		Detailed: o.Detailed,
	}
}
