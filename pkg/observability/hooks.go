// Package observability lets the binaries watch the solver without the
// solver depending on any logging or metrics backend.
//
// The pipeline runner, the caches and the HTTP server report events to the
// hooks registered here. Nothing is registered by default, so library users
// pay only for a no-op call. The CLI registers a debug logger:
//
//	hooks := newLogHooks(logger)
//	observability.SetPipelineHooks(hooks)
//	observability.SetCacheHooks(hooks)
//
// and the runner reports around each stage:
//
//	observability.Pipeline().OnSimulateStart(ctx, "batch", stacks.Len())
//	run, err := supply.Simulate(ctx, crane, stacks, moves, opts)
//	observability.Pipeline().OnSimulateComplete(ctx, "batch", run.Applied, len(run.Skipped), time.Since(start), err)
package observability

import (
	"context"
	"sync"
	"time"
)

// PipelineHooks observes the parse and simulate stages of a run.
type PipelineHooks interface {
	OnParseStart(ctx context.Context, inputSize int)
	OnParseComplete(ctx context.Context, stacks, crates int, duration time.Duration, err error)

	OnSimulateStart(ctx context.Context, policy string, stacks int)
	OnSimulateComplete(ctx context.Context, policy string, applied, skipped int, duration time.Duration, err error)
}

// CacheHooks observes answer and stacks lookups. key is the full cache key.
type CacheHooks interface {
	OnCacheHit(ctx context.Context, key string)
	OnCacheMiss(ctx context.Context, key string)
	OnCacheSet(ctx context.Context, key string, size int)
}

// ServerHooks observes HTTP requests.
type ServerHooks interface {
	OnRequest(ctx context.Context, method, path string)
	OnResponse(ctx context.Context, method, path string, statusCode int, duration time.Duration)
}

// NoopPipelineHooks ignores every event. Embed it to implement only some
// methods.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnParseStart(context.Context, int)                               {}
func (NoopPipelineHooks) OnParseComplete(context.Context, int, int, time.Duration, error) {}
func (NoopPipelineHooks) OnSimulateStart(context.Context, string, int)                    {}
func (NoopPipelineHooks) OnSimulateComplete(context.Context, string, int, int, time.Duration, error) {
}

// NoopCacheHooks ignores every event.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopServerHooks ignores every event.
type NoopServerHooks struct{}

func (NoopServerHooks) OnRequest(context.Context, string, string)                      {}
func (NoopServerHooks) OnResponse(context.Context, string, string, int, time.Duration) {}

// registry holds the hooks currently in effect.
type registry struct {
	mu       sync.RWMutex
	pipeline PipelineHooks
	cache    CacheHooks
	server   ServerHooks
}

var hooks = &registry{
	pipeline: NoopPipelineHooks{},
	cache:    NoopCacheHooks{},
	server:   NoopServerHooks{},
}

func set[T any](slot *T, h T) {
	if any(h) == nil {
		return
	}
	hooks.mu.Lock()
	defer hooks.mu.Unlock()
	*slot = h
}

func get[T any](slot *T) T {
	hooks.mu.RLock()
	defer hooks.mu.RUnlock()
	return *slot
}

// SetPipelineHooks replaces the pipeline hooks. Nil is ignored.
func SetPipelineHooks(h PipelineHooks) { set(&hooks.pipeline, h) }

// SetCacheHooks replaces the cache hooks. Nil is ignored.
func SetCacheHooks(h CacheHooks) { set(&hooks.cache, h) }

// SetServerHooks replaces the server hooks. Nil is ignored.
func SetServerHooks(h ServerHooks) { set(&hooks.server, h) }

// Pipeline returns the pipeline hooks in effect.
func Pipeline() PipelineHooks { return get(&hooks.pipeline) }

// Cache returns the cache hooks in effect.
func Cache() CacheHooks { return get(&hooks.cache) }

// Server returns the server hooks in effect.
func Server() ServerHooks { return get(&hooks.server) }

// Reset puts the no-op hooks back. Tests that register hooks defer it.
func Reset() {
	hooks.mu.Lock()
	defer hooks.mu.Unlock()
	hooks.pipeline = NoopPipelineHooks{}
	hooks.cache = NoopCacheHooks{}
	hooks.server = NoopServerHooks{}
}
