package cache

import "fmt"

// Keyer builds cache keys for client responses.
type Keyer interface {
	// RequestKey keys an HTTP GET response by API namespace and URL.
	RequestKey(namespace, url string) string

	// QueryKey keys a SQL result by database and statement. The
	// statement is hashed, so arbitrarily long SQL is fine.
	QueryKey(databaseID int, sql string) string
}

// DefaultKeyer builds unscoped keys.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// RequestKey generates a key for HTTP response caching.
func (k *DefaultKeyer) RequestKey(namespace, url string) string {
	return fmt.Sprintf("http:%s:%s", namespace, url)
}

// QueryKey generates a key for SQL result caching.
func (k *DefaultKeyer) QueryKey(databaseID int, sql string) string {
	return hashKey("sql", databaseID, sql)
}

// ScopedKeyer wraps a Keyer with a prefix. Profiles pointing at
// different Superset hosts share one cache directory, so their keys
// need separate namespaces.
//
// Example usage:
//
//	prod := cache.NewScopedKeyer(nil, "profile:prod:")
//	staging := cache.NewScopedKeyer(nil, "profile:staging:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix. The prefix is
// prepended to all generated keys. A nil inner uses the default keyer.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// RequestKey generates a prefixed key for HTTP response caching.
func (k *ScopedKeyer) RequestKey(namespace, url string) string {
	return k.prefix + k.inner.RequestKey(namespace, url)
}

// QueryKey generates a prefixed key for SQL result caching.
func (k *ScopedKeyer) QueryKey(databaseID int, sql string) string {
	return k.prefix + k.inner.QueryKey(databaseID, sql)
}
