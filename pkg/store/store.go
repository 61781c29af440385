// Package store provides the narrow key/value persistence port used for table
// settings and navigable state, with memory, JSON-file, SQLite and
// query-string backed implementations.
package store

import (
	"sort"
	"sync"
)

// Port is a string key/value store. Get reports ok=false for absent keys.
type Port interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
}

// Lister is implemented by ports that can enumerate their keys.
type Lister interface {
	Keys() ([]string, error)
}

// Memory is an in-process Port.
type Memory struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string]string)}
}

func (m *Memory) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *Memory) Set(key, value string) error {
	m.mu.Lock()
	m.data[key] = value
	m.mu.Unlock()
	return nil
}

func (m *Memory) Keys() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// Prefixed namespaces every key of an underlying port.
type Prefixed struct {
	Port   Port
	Prefix string
}

// WithPrefix wraps p so every key is stored as prefix+key.
func WithPrefix(p Port, prefix string) Prefixed {
	return Prefixed{Port: p, Prefix: prefix}
}

func (p Prefixed) Get(key string) (string, bool, error) {
	return p.Port.Get(p.Prefix + key)
}

func (p Prefixed) Set(key, value string) error {
	return p.Port.Set(p.Prefix+key, value)
}
