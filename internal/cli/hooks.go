package cli

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/cratemover/pkg/observability"
)

// logHooks reports pipeline, cache and server events to a logger at debug
// level.
type logHooks struct {
	logger *log.Logger
}

var (
	_ observability.PipelineHooks = (*logHooks)(nil)
	_ observability.CacheHooks    = (*logHooks)(nil)
	_ observability.ServerHooks   = (*logHooks)(nil)
)

func newLogHooks(l *log.Logger) *logHooks {
	return &logHooks{logger: l.WithPrefix("hooks")}
}

func (h *logHooks) OnParseStart(_ context.Context, inputSize int) {
	h.logger.Debug("parse start", "bytes", inputSize)
}

func (h *logHooks) OnParseComplete(_ context.Context, stacks, crates int, dur time.Duration, err error) {
	if err != nil {
		h.logger.Debug("parse failed", "err", err, "duration", dur)
		return
	}
	h.logger.Debug("parse done", "stacks", stacks, "crates", crates, "duration", dur)
}

func (h *logHooks) OnSimulateStart(_ context.Context, policy string, stacks int) {
	h.logger.Debug("simulate start", "policy", policy, "stacks", stacks)
}

func (h *logHooks) OnSimulateComplete(_ context.Context, policy string, applied, skipped int, dur time.Duration, err error) {
	if err != nil {
		h.logger.Debug("simulate failed", "policy", policy, "applied", applied, "err", err)
		return
	}
	h.logger.Debug("simulate done", "policy", policy, "applied", applied, "skipped", skipped, "duration", dur)
}

func (h *logHooks) OnCacheHit(_ context.Context, key string) {
	h.logger.Debug("cache hit", "key", key)
}

func (h *logHooks) OnCacheMiss(_ context.Context, key string) {
	h.logger.Debug("cache miss", "key", key)
}

func (h *logHooks) OnCacheSet(_ context.Context, key string, size int) {
	h.logger.Debug("cache set", "key", key, "bytes", size)
}

func (h *logHooks) OnRequest(_ context.Context, method, path string) {
	h.logger.Debug("request start", "method", method, "path", path)
}

func (h *logHooks) OnResponse(_ context.Context, method, path string, status int, dur time.Duration) {
	h.logger.Debug("request done", "method", method, "path", path, "status", status, "duration", dur)
}
