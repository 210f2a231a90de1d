package budget

import (
    "sync"
    "time"

    "stocksim/internal/config"
)

// recordCap bounds the per-provider call history backing the statistics.
const recordCap = 100

// CallRecord is one attempted upstream call.
type CallRecord struct {
    Provider       string    `json:"provider"`
    Timestamp      time.Time `json:"timestamp"`
    Success        bool      `json:"success"`
    ResponseTimeMs int64     `json:"response_time_ms"`
    Err            string    `json:"err,omitempty"`
}

// Stats is the per-provider diagnostic summary.
type Stats struct {
    TotalCalls        int     `json:"total_calls"`
    SuccessRatePct    float64 `json:"success_rate_percent"`
    AvgResponseTimeMs int64   `json:"avg_response_time_ms"`
}

// Monitor tracks recent call outcomes per provider and decides whether a
// provider may be called now given its configured budgets.
//
// The window accounting is deliberately lenient, matching the behavior this
// replaces: counters increment monotonically per call and reset only when a
// CanCall check observes that a full window has elapsed since the last
// recorded call. A burst spanning a window boundary can therefore under- or
// over-count slightly.
type Monitor struct {
    mu          sync.Mutex
    records     map[string][]CallRecord
    minuteCount map[string]int
    hourCount   map[string]int
    lastCall    map[string]time.Time

    now func() time.Time // test hook
}

func NewMonitor() *Monitor {
    return &Monitor{
        records:     make(map[string][]CallRecord),
        minuteCount: make(map[string]int),
        hourCount:   make(map[string]int),
        lastCall:    make(map[string]time.Time),
        now:         time.Now,
    }
}

// RecordCall appends a CallRecord for the provider, trimming history to the
// most recent recordCap entries.
func (m *Monitor) RecordCall(provider string, success bool, rtt time.Duration, callErr error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    rec := CallRecord{
        Provider:       provider,
        Timestamp:      m.now(),
        Success:        success,
        ResponseTimeMs: rtt.Milliseconds(),
    }
    if callErr != nil { rec.Err = callErr.Error() }
    rs := append(m.records[provider], rec)
    if len(rs) > recordCap {
        rs = rs[len(rs)-recordCap:]
    }
    m.records[provider] = rs
    m.minuteCount[provider]++
    m.hourCount[provider]++
    m.lastCall[provider] = rec.Timestamp
}

// CanCall reports whether the provider is within its per-minute and per-hour
// budgets. A budget of zero means unlimited.
func (m *Monitor) CanCall(provider string, cfg config.Provider) bool {
    m.mu.Lock()
    defer m.mu.Unlock()
    now := m.now()
    last, called := m.lastCall[provider]
    if called {
        if now.Sub(last) >= time.Minute {
            m.minuteCount[provider] = 0
        }
        if now.Sub(last) >= time.Hour {
            m.hourCount[provider] = 0
        }
    }
    if cfg.MaxCallsPerMinute > 0 && m.minuteCount[provider] >= cfg.MaxCallsPerMinute {
        return false
    }
    if cfg.MaxCallsPerHour > 0 && m.hourCount[provider] >= cfg.MaxCallsPerHour {
        return false
    }
    return true
}

// SuccessRate is in [0,1]; zero when no records exist.
func (m *Monitor) SuccessRate(provider string) float64 {
    m.mu.Lock()
    defer m.mu.Unlock()
    rs := m.records[provider]
    if len(rs) == 0 { return 0 }
    ok := 0
    for _, r := range rs {
        if r.Success { ok++ }
    }
    return float64(ok) / float64(len(rs))
}

// AverageResponseTime is the mean response time in milliseconds over the
// recorded history; zero when no records exist.
func (m *Monitor) AverageResponseTime(provider string) int64 {
    m.mu.Lock()
    defer m.mu.Unlock()
    rs := m.records[provider]
    if len(rs) == 0 { return 0 }
    var sum int64
    for _, r := range rs { sum += r.ResponseTimeMs }
    return sum / int64(len(rs))
}

// RecentCalls returns up to limit records, most recent last.
func (m *Monitor) RecentCalls(provider string, limit int) []CallRecord {
    m.mu.Lock()
    defer m.mu.Unlock()
    rs := m.records[provider]
    if limit <= 0 || limit > len(rs) { limit = len(rs) }
    out := make([]CallRecord, limit)
    copy(out, rs[len(rs)-limit:])
    return out
}

// StatsFor summarizes one provider for diagnostics.
func (m *Monitor) StatsFor(provider string) Stats {
    total := len(m.RecentCalls(provider, 0))
    return Stats{
        TotalCalls:        total,
        SuccessRatePct:    m.SuccessRate(provider) * 100,
        AvgResponseTimeMs: m.AverageResponseTime(provider),
    }
}
