package cache

// Keyer derives cache keys for placement results.
type Keyer interface {
	// ResultKey returns the key of a result computed in mode from inputs
	// with the given hash. params holds every option that affects the
	// placement and must marshal deterministically to JSON.
	ResultKey(mode, inputHash string, params any) string
}

// DefaultKeyer produces unscoped keys.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// ResultKey returns "result:<mode>:<hash>".
func (DefaultKeyer) ResultKey(mode, inputHash string, params any) string {
	return hashKey("result:"+mode, inputHash, params)
}

// ScopedKeyer wraps a Keyer with a prefix so that separate callers, such as
// the CLI and the HTTP API, never share entries.
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// ResultKey generates a prefixed result key.
func (k *ScopedKeyer) ResultKey(mode, inputHash string, params any) string {
	return k.prefix + k.inner.ResultKey(mode, inputHash, params)
}
