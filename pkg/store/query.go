package store

import (
	"net/url"
	"sync"
)

// Query exposes URL query parameters as a Port. It is the navigable state of
// a view: Encode renders the shareable "?p=2&size=25" form. Writes are
// optionally mirrored to a backing port so the state survives a restart.
type Query struct {
	mu      sync.Mutex
	values  url.Values
	backing Port
	keys    []string
}

// ParseQuery builds a Query from a raw query string ("p=2&size=25" or "?p=2").
func ParseQuery(raw string) (*Query, error) {
	if len(raw) > 0 && raw[0] == '?' {
		raw = raw[1:]
	}
	values, err := url.ParseQuery(raw)
	if err != nil {
		return nil, err
	}
	return &Query{values: values}, nil
}

// NewQuery creates a Query seeded from backing for the given keys. Later
// writes go to both.
func NewQuery(backing Port, keys ...string) *Query {
	q := &Query{values: url.Values{}, backing: backing, keys: keys}
	if backing == nil {
		return q
	}
	for _, k := range keys {
		if v, ok, err := backing.Get(k); err == nil && ok {
			q.values.Set(k, v)
		}
	}
	return q
}

func (q *Query) Get(key string) (string, bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.values.Has(key) {
		return "", false, nil
	}
	return q.values.Get(key), true, nil
}

func (q *Query) Set(key, value string) error {
	q.mu.Lock()
	q.values.Set(key, value)
	q.mu.Unlock()
	if q.backing != nil {
		return q.backing.Set(key, value)
	}
	return nil
}

// Encode renders the current parameters with a leading "?", or "" when empty.
func (q *Query) Encode() string {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.values) == 0 {
		return ""
	}
	return "?" + q.values.Encode()
}
