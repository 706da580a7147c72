package cache

// ScopedKeyer wraps a Keyer with a prefix so that sessions or users
// sharing one Redis instance never see each other's entries.
//
//	shared := NewDefaultKeyer()
//	perSession := NewScopedKeyer(shared, "session:"+id+":")
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
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

func (k *ScopedKeyer) HTTPKey(namespace, key string) string {
	return k.prefix + k.inner.HTTPKey(namespace, key)
}

func (k *ScopedKeyer) MatrixKey(sourceHash string) string {
	return k.prefix + k.inner.MatrixKey(sourceHash)
}

func (k *ScopedKeyer) ArtifactKey(matrixHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(matrixHash, opts)
}
