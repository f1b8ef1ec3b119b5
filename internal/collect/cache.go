package collect

// Invalidator removes cached aggregation results matching a pattern.
type Invalidator interface {
	Invalidate(pattern string) (int, error)
}

// NoopInvalidator is used when no cache is configured.
type NoopInvalidator struct{}

func (NoopInvalidator) Invalidate(string) (int, error) { return 0, nil }
