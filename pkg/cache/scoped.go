package cache

// ScopedKeyer prepends a namespace to every key of an inner Keyer. The CLI
// wraps the default keyer with redis.prefix (default "cratemover:") so
// answers do not collide with other data on a shared Redis.
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer returns inner scoped under prefix. A nil inner means
// DefaultKeyer.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// AnswerKey implements Keyer.
func (k *ScopedKeyer) AnswerKey(inputHash string, opts AnswerKeyOpts) string {
	return k.prefix + k.inner.AnswerKey(inputHash, opts)
}

// StacksKey implements Keyer.
func (k *ScopedKeyer) StacksKey(inputHash, headerMode string) string {
	return k.prefix + k.inner.StacksKey(inputHash, headerMode)
}
