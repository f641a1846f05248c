package cli

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/netdraw/pkg/observability"
)

// traceHooks logs observability events at debug level.
type traceHooks struct {
	logger *log.Logger
}

// RegisterHooks routes import, render, cache and store events to the CLI
// logger. They show up with --verbose.
func (c *CLI) RegisterHooks() {
	h := &traceHooks{logger: c.Logger}
	observability.SetDocumentHooks(h)
	observability.SetCacheHooks(h)
	observability.SetStoreHooks(h)
}

func (h *traceHooks) OnImportStart(ctx context.Context, source string) {
	h.logger.Debug("import started", "source", source)
}

func (h *traceHooks) OnImportComplete(ctx context.Context, source string, elements int, duration time.Duration, err error) {
	if err != nil {
		h.logger.Debug("import failed", "source", source, "duration", duration, "err", err)
		return
	}
	h.logger.Debug("import finished", "source", source, "elements", elements, "duration", duration)
}

func (h *traceHooks) OnExport(ctx context.Context, format string, size int) {
	h.logger.Debug("exported", "format", format, "bytes", size)
}

func (h *traceHooks) OnRenderStart(ctx context.Context, formats []string) {
	h.logger.Debug("render started", "formats", formats)
}

func (h *traceHooks) OnRenderComplete(ctx context.Context, formats []string, duration time.Duration, err error) {
	h.logger.Debug("render finished", "formats", formats, "duration", duration, "err", err)
}

func (h *traceHooks) OnCacheHit(ctx context.Context, key string) {
	h.logger.Debug("cache hit", "key", key)
}

func (h *traceHooks) OnCacheMiss(ctx context.Context, key string) {
	h.logger.Debug("cache miss", "key", key)
}

func (h *traceHooks) OnCacheSet(ctx context.Context, key string, size int) {
	h.logger.Debug("cache set", "key", key, "bytes", size)
}

func (h *traceHooks) OnStoreOp(ctx context.Context, backend, op string, duration time.Duration, err error) {
	h.logger.Debug("store", "backend", backend, "op", op, "duration", duration, "err", err)
}
