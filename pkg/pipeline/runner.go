package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/netdraw/pkg/cache"
	"github.com/matzehuels/netdraw/pkg/diagram"
	"github.com/matzehuels/netdraw/pkg/errors"
	pkgio "github.com/matzehuels/netdraw/pkg/io"
	"github.com/matzehuels/netdraw/pkg/observability"
	"github.com/matzehuels/netdraw/pkg/render"
)

// Runner encapsulates pipeline execution with caching.
//
// The Runner is stateless except for the cache and logger. Multiple
// goroutines can safely use the same Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete import → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateForImport(); err != nil {
		return nil, err
	}
	if err := opts.ValidateForRender(); err != nil {
		return nil, err
	}
	r.applyLogger(&opts)

	result := &Result{}

	// Stage 1: Import
	importStart := time.Now()
	imp, importHit, err := r.ImportWithCacheInfo(ctx, opts)
	if err != nil {
		return nil, err
	}
	result.Document = imp.Document
	result.Format = imp.Format
	result.Warnings = imp.Warnings
	result.Stats.ImportTime = time.Since(importStart)
	result.CacheInfo.ImportHit = importHit

	st := imp.Document.Stats()
	result.Stats.Devices = st.Devices
	result.Stats.Connections = st.Connections
	if hash, err := DocumentHash(imp.Document); err == nil {
		result.DocHash = hash
	}

	for _, w := range imp.Warnings {
		r.Logger.Warn(w)
	}
	r.Logger.Info("imported diagram",
		"devices", st.Devices,
		"connections", st.Connections,
		"cached", importHit,
		"duration", result.Stats.ImportTime)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Stage 2: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, imp.Document, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"cached", renderHit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// cachedImport is the cache encoding of a decoded import.
type cachedImport struct {
	Document *diagram.Document `json:"document"`
	Format   pkgio.Format      `json:"format"`
	Warnings []string          `json:"warnings,omitempty"`
}

// ImportWithCacheInfo decodes the source with caching and returns cache hit info.
func (r *Runner) ImportWithCacheInfo(ctx context.Context, opts Options) (*pkgio.Result, bool, error) {
	if err := opts.ValidateForImport(); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)

	source := opts.Path
	if source == "" {
		source = "data"
	}
	start := time.Now()
	observability.Document().OnImportStart(ctx, source)

	res, hit, err := r.importSource(ctx, opts)

	n := 0
	if res != nil {
		st := res.Document.Stats()
		n = st.Devices + st.Connections + st.Texts
	}
	observability.Document().OnImportComplete(ctx, source, n, time.Since(start), err)
	return res, hit, err
}

func (r *Runner) importSource(ctx context.Context, opts Options) (*pkgio.Result, bool, error) {
	data := opts.Data
	if opts.Path != "" {
		var err error
		if data, err = pkgio.ReadFile(opts.Path); err != nil {
			return nil, false, err
		}
	}
	cacheKey := r.Keyer.ImportKey(cache.Hash(data))

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		if cached, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			var ci cachedImport
			if err := json.Unmarshal(cached, &ci); err == nil && ci.Document != nil {
				observability.Cache().OnCacheHit(ctx, cacheKey)
				return &pkgio.Result{Document: ci.Document, Format: ci.Format, Warnings: ci.Warnings}, true, nil
			}
			// If deserialization fails, fall through to decode
		}
		observability.Cache().OnCacheMiss(ctx, cacheKey)
	}

	res, err := pkgio.Decode(data)
	if err != nil {
		return nil, false, err
	}

	if encoded, err := json.Marshal(cachedImport{Document: res.Document, Format: res.Format, Warnings: res.Warnings}); err == nil {
		if err := r.Cache.Set(ctx, cacheKey, encoded, cache.TTLImport); err != nil {
			opts.Logger.Debug("cache write failed", "key", cacheKey, "err", err)
		} else {
			observability.Cache().OnCacheSet(ctx, cacheKey, len(encoded))
		}
	}
	return res, false, nil
}

// Import is a convenience wrapper that calls ImportWithCacheInfo and discards the cache hit info.
func (r *Runner) Import(ctx context.Context, opts Options) (*pkgio.Result, error) {
	res, _, err := r.ImportWithCacheInfo(ctx, opts)
	return res, err
}

// RenderWithCacheInfo renders one page of d with caching and returns cache hit info.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, d *diagram.Document, opts Options) (map[render.Format][]byte, bool, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)

	page, err := SelectPage(d, opts.Page)
	if err != nil {
		return nil, false, err
	}
	docHash, err := DocumentHash(d)
	if err != nil {
		return nil, false, fmt.Errorf("hash document for cache key: %w", err)
	}

	formats := make([]string, len(opts.Formats))
	for i, f := range opts.Formats {
		formats[i] = string(f)
	}
	start := time.Now()
	observability.Document().OnRenderStart(ctx, formats)

	artifacts := make(map[render.Format][]byte, len(opts.Formats))
	allCached := true
	for _, f := range opts.Formats {
		key := r.Keyer.ArtifactKey(docHash, opts.ArtifactKeyOpts(page.ID, f))
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			observability.Cache().OnCacheHit(ctx, key)
			artifacts[f] = data
			continue
		}
		observability.Cache().OnCacheMiss(ctx, key)
		allCached = false

		data, err := render.Render(ctx, page, f, opts.RenderOptions())
		if err != nil {
			observability.Document().OnRenderComplete(ctx, formats, time.Since(start), err)
			return nil, false, err
		}
		artifacts[f] = data
		if err := r.Cache.Set(ctx, key, data, cache.TTLArtifact); err != nil {
			opts.Logger.Debug("cache write failed", "key", key, "err", err)
		} else {
			observability.Cache().OnCacheSet(ctx, key, len(data))
		}
	}

	observability.Document().OnRenderComplete(ctx, formats, time.Since(start), nil)
	return artifacts, allCached, nil
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and discards the cache hit info.
func (r *Runner) Render(ctx context.Context, d *diagram.Document, opts Options) (map[render.Format][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, d, opts)
	return artifacts, err
}

// SelectPage returns the page with the given ID, or the first page when id
// is empty.
func SelectPage(d *diagram.Document, id string) (*diagram.Page, error) {
	if d == nil || len(d.Pages) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidDocument, "document has no pages")
	}
	if id == "" {
		return d.FirstPage(), nil
	}
	p := d.Page(id)
	if p == nil {
		return nil, errors.New(errors.ErrCodeNotFound, "page %q not found", id)
	}
	return p, nil
}

// DocumentHash returns the content hash of the document's JSON encoding.
func DocumentHash(d *diagram.Document) (string, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return "", err
	}
	return cache.Hash(data), nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
