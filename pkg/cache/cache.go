// Package cache stores solved answers so that repeated runs over the same
// puzzle input skip parsing and simulation.
//
// # Backends
//
//   - [FileCache]: one JSON file per entry under the XDG cache directory (CLI default)
//   - [RedisCache]: shared cache for the HTTP server and multiple hosts
//   - [NullCache]: caching disabled (--no-cache, tests)
//
// # Keys
//
// Keys are produced by a [Keyer] from the SHA-256 of the input text and every
// option that changes the answer (policy, header mode, error mode). Use
// [NewScopedKeyer] to give a deployment its own namespace in a shared store.
package cache

import (
	"context"
	"time"
)

// Default TTLs per entry kind. Answers are a pure function of their key, so
// the TTL only bounds how long stale entries occupy space.
const (
	TTLAnswer = 30 * 24 * time.Hour
	TTLStacks = 7 * 24 * time.Hour
)

// Cache is a byte-oriented key/value store with per-entry expiry.
type Cache interface {
	// Get returns the value for key. hit is false on a miss or an expired entry.
	Get(ctx context.Context, key string) (data []byte, hit bool, err error)

	// Set stores data under key. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases resources held by the cache.
	Close() error
}

// AnswerKeyOpts holds the run options that change an answer.
type AnswerKeyOpts struct {
	Policy     string `json:"policy"`
	HeaderMode string `json:"header_mode"`
	Lenient    bool   `json:"lenient"`
}

// Keyer builds cache keys.
type Keyer interface {
	// AnswerKey returns the key for the answer to input (by hash) under opts.
	AnswerKey(inputHash string, opts AnswerKeyOpts) string

	// StacksKey returns the key for the parsed initial stacks of input.
	StacksKey(inputHash, headerMode string) string
}

// DefaultKeyer is the Keyer used when none is configured.
type DefaultKeyer struct{}

// NewDefaultKeyer returns a DefaultKeyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// AnswerKey implements Keyer.
func (DefaultKeyer) AnswerKey(inputHash string, opts AnswerKeyOpts) string {
	return hashKey("answer", inputHash, opts)
}

// StacksKey implements Keyer.
func (DefaultKeyer) StacksKey(inputHash, headerMode string) string {
	return hashKey("stacks", inputHash, headerMode)
}
