package store

import (
    "context"
    "sort"
    "sync"
)

// KV is the durable key-value collaborator the cache and the portfolio
// ledger persist through. Implementations must serialize concurrent writers
// to the same key; last-write-wins is acceptable.
type KV interface {
    Get(ctx context.Context, key string) (value string, ok bool, err error)
    Set(ctx context.Context, key, value string) error
    Keys(ctx context.Context) ([]string, error)
    Remove(ctx context.Context, key string) error
}

// Memory is an in-process KV for tests and ephemeral runs.
type Memory struct {
    mu   sync.RWMutex
    data map[string]string
}

func NewMemory() *Memory {
    return &Memory{data: make(map[string]string)}
}

func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
    m.mu.RLock()
    defer m.mu.RUnlock()
    v, ok := m.data[key]
    return v, ok, nil
}

func (m *Memory) Set(_ context.Context, key, value string) error {
    m.mu.Lock()
    defer m.mu.Unlock()
    m.data[key] = value
    return nil
}

func (m *Memory) Keys(_ context.Context) ([]string, error) {
    m.mu.RLock()
    defer m.mu.RUnlock()
    out := make([]string, 0, len(m.data))
    for k := range m.data { out = append(out, k) }
    sort.Strings(out)
    return out, nil
}

func (m *Memory) Remove(_ context.Context, key string) error {
    m.mu.Lock()
    defer m.mu.Unlock()
    delete(m.data, key)
    return nil
}
