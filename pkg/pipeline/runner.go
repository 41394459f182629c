package pipeline

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/cratemover/pkg/cache"
	"github.com/matzehuels/cratemover/pkg/errors"
	"github.com/matzehuels/cratemover/pkg/observability"
	"github.com/matzehuels/cratemover/pkg/supply"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use it to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store results. Multiple goroutines can safely use the same Runner with
// different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// TTL overrides the default expiry of cached entries when positive.
	TTL time.Duration
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

// Execute runs the complete parse → simulate → extract pipeline with caching.
//
// Cached answers are served unless opts.Refresh is set. Traced runs always
// simulate, since the trace itself is not cached.
func (r *Runner) Execute(ctx context.Context, input string, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	r.applyLogger(&opts)
	logger := opts.Logger

	if err := errors.ValidateInput(input); err != nil {
		return nil, err
	}
	crane, err := opts.Crane()
	if err != nil {
		return nil, err
	}

	inputHash := cache.Hash([]byte(input))
	cacheKey := r.Keyer.AnswerKey(inputHash, opts.AnswerKeyOpts())

	if !opts.Refresh && !opts.Trace {
		if cached, ok := r.cachedResult(ctx, cacheKey); ok {
			logger.Debug("answer from cache", "policy", opts.Policy, "key", cacheKey)
			return cached, nil
		}
	}

	result := &Result{
		RunID:     uuid.NewString(),
		Policy:    crane.Policy(),
		InputHash: inputHash,
	}

	// Stage 1: Parse
	parseStart := time.Now()
	hooks := observability.Pipeline()
	hooks.OnParseStart(ctx, len(input))
	stacks, instructions, err := supply.ParseDiagram(input, supply.HeaderMode(opts.HeaderMode))
	result.Stats.ParseTime = time.Since(parseStart)
	hooks.OnParseComplete(ctx, stacks.Len(), stacks.Total(), result.Stats.ParseTime, err)
	if err != nil {
		if opts.Lenient() && isDiagramError(err) {
			logger.Warn("diagram unreadable, answering empty", "err", errors.UserMessage(err))
			result.Defaulted = true
			result.Initial = supply.Stacks{}
			result.Stacks = supply.Stacks{}
			return result, nil
		}
		return nil, fmt.Errorf("parse: %w", err)
	}
	result.Initial = stacks.Clone()
	result.Stats.StackCount = stacks.Len()
	result.Stats.CrateCount = stacks.Total()

	logger.Info("parsed diagram",
		"stacks", result.Stats.StackCount,
		"crates", result.Stats.CrateCount,
		"duration", result.Stats.ParseTime)

	// Stage 2: Simulate
	simStart := time.Now()
	hooks.OnSimulateStart(ctx, opts.Policy, stacks.Len())
	run, err := supply.Simulate(ctx, crane, stacks, supply.Moves(instructions), supply.SimulateOptions{
		Lenient: opts.Lenient(),
		Trace:   opts.Trace,
		OnSkip: func(line int, err error) {
			logger.Warn("skipped instruction", "line", line, "err", errors.UserMessage(err))
		},
	})
	result.Stats.SimulateTime = time.Since(simStart)
	hooks.OnSimulateComplete(ctx, opts.Policy, run.Applied, len(run.Skipped), result.Stats.SimulateTime, err)
	if err != nil {
		return nil, fmt.Errorf("simulate: %w", err)
	}

	// Stage 3: Extract
	result.Stacks = run.Stacks
	result.Answer = run.Answer()
	result.Trace = run.Trace
	result.Stats.MoveCount = run.Applied
	for _, s := range run.Skipped {
		result.Skipped = append(result.Skipped, s.Line)
	}

	logger.Info("simulated moves",
		"policy", opts.Policy,
		"moves", run.Applied,
		"skipped", len(run.Skipped),
		"duration", result.Stats.SimulateTime)

	r.storeResult(ctx, cacheKey, result)
	return result, nil
}

// ExecuteAll runs Execute once per policy, concurrently, over the same input.
// Each run parses its own copy of the stacks. Results are returned in the
// order of policies; the first error cancels the remaining runs.
func (r *Runner) ExecuteAll(ctx context.Context, input string, opts Options, policies []supply.Policy) ([]*Result, error) {
	results := make([]*Result, len(policies))
	g, ctx := errgroup.WithContext(ctx)
	for i, p := range policies {
		g.Go(func() error {
			res, err := r.Execute(ctx, input, opts.WithPolicy(p))
			if err != nil {
				return fmt.Errorf("%s: %w", p, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Stacks parses only the diagram of input and returns the initial stacks,
// with caching. The bool reports a cache hit.
func (r *Runner) Stacks(ctx context.Context, input string, headerMode string) (supply.Stacks, bool, error) {
	if headerMode == "" {
		headerMode = string(DefaultHeaderMode)
	}
	if err := ValidateHeaderMode(headerMode); err != nil {
		return nil, false, err
	}
	if err := errors.ValidateInput(input); err != nil {
		return nil, false, err
	}

	cacheKey := r.Keyer.StacksKey(cache.Hash([]byte(input)), headerMode)
	cacheHooks := observability.Cache()
	var cached supply.Stacks
	if r.load(ctx, cacheKey, &cached) {
		cacheHooks.OnCacheHit(ctx, cacheKey)
		return cached, true, nil
	}
	cacheHooks.OnCacheMiss(ctx, cacheKey)

	start := time.Now()
	observability.Pipeline().OnParseStart(ctx, len(input))
	stacks, _, err := supply.ParseDiagram(input, supply.HeaderMode(headerMode))
	observability.Pipeline().OnParseComplete(ctx, stacks.Len(), stacks.Total(), time.Since(start), err)
	if err != nil {
		return nil, false, fmt.Errorf("parse: %w", err)
	}

	if data, err := json.Marshal(stacks); err == nil {
		if err := r.Cache.Set(ctx, cacheKey, data, r.ttl(cache.TTLStacks)); err == nil {
			cacheHooks.OnCacheSet(ctx, cacheKey, len(data))
		}
	}
	return stacks, false, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// cachedResult loads a stored result. A corrupt entry counts as a miss.
func (r *Runner) cachedResult(ctx context.Context, key string) (*Result, bool) {
	hooks := observability.Cache()
	var res Result
	if !r.load(ctx, key, &res) {
		hooks.OnCacheMiss(ctx, key)
		return nil, false
	}
	hooks.OnCacheHit(ctx, key)
	res.RunID = uuid.NewString()
	res.CacheHit = true
	return &res, true
}

// load reads key into v and reports whether it hit. Read failures are logged
// at debug level; an entry that does not decode is dropped from the cache.
func (r *Runner) load(ctx context.Context, key string, v any) bool {
	data, hit, err := r.Cache.Get(ctx, key)
	if err == nil && hit {
		if err = json.Unmarshal(data, v); err == nil {
			return true
		}
		err = fmt.Errorf("%w: %v", cache.ErrCorrupt, err)
		_ = r.Cache.Delete(ctx, key)
	}
	if err != nil {
		if stderrors.Is(err, cache.ErrCorrupt) {
			r.Logger.Debug("dropped corrupt cache entry", "key", key, "err", err)
		} else {
			r.Logger.Debug("cache read failed", "key", key, "err", err)
		}
	}
	return false
}

// storeResult caches result without its trace. Write failures only cost a
// future recompute, so they are logged and dropped.
func (r *Runner) storeResult(ctx context.Context, key string, result *Result) {
	stored := *result
	stored.Trace = nil
	data, err := json.Marshal(stored)
	if err != nil {
		return
	}
	if err := r.Cache.Set(ctx, key, data, r.ttl(cache.TTLAnswer)); err != nil {
		r.Logger.Debug("cache write failed", "key", key, "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, key, len(data))
}

func (r *Runner) ttl(def time.Duration) time.Duration {
	if r.TTL > 0 {
		return r.TTL
	}
	return def
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

func isDiagramError(err error) bool {
	switch errors.GetCode(err) {
	case errors.ErrCodeMalformedHeader, errors.ErrCodeSeparatorMissing:
		return true
	}
	return false
}

// =============================================================================
// Convenience
// =============================================================================

// Solve parses input, runs it with the named policy and returns the answer.
// Any failure is returned as its message instead, so the result is always
// printable.
func Solve(input, policy string) string {
	r := NewRunner(nil, nil, log.New(io.Discard))
	res, err := r.Execute(context.Background(), input, Options{Policy: policy})
	if err != nil {
		return err.Error()
	}
	return res.Answer
}
