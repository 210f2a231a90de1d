package budget

import (
    "sync"

    "stocksim/internal/config"
    "stocksim/internal/provider"
)

// Rotator picks providers round-robin, skipping the ones the Monitor reports
// over budget. If every provider is over budget it returns the first one in
// the list anyway: an over-budget attempt beats stalling the caller.
type Rotator struct {
    mu      sync.Mutex
    monitor *Monitor
    idx     int
}

func NewRotator(m *Monitor) *Rotator {
    return &Rotator{monitor: m}
}

// Next returns the next eligible source. cfgs maps source name to its
// provider configuration; a source with no config entry is always eligible.
func (r *Rotator) Next(sources []provider.Source, cfgs map[string]config.Provider) provider.Source {
    if len(sources) == 0 { return nil }
    r.mu.Lock()
    defer r.mu.Unlock()
    start := r.idx % len(sources)
    for i := 0; i < len(sources); i++ {
        pos := (start + i) % len(sources)
        s := sources[pos]
        if r.monitor.CanCall(s.Name(), cfgs[s.Name()]) {
            r.idx = pos + 1
            return s
        }
    }
    return sources[0]
}
