package service

import (
    "context"
    "errors"
    "log"
    "time"

    "golang.org/x/sync/singleflight"

    "stocksim/internal/catalog"
    "stocksim/internal/config"
    "stocksim/internal/provider"
    "stocksim/internal/provider/budget"
    "stocksim/internal/quotecache"
)

// ErrAllProvidersFailed is returned when every fetch attempt failed and the
// cache holds nothing for the code. The accompanying Quote is zero with
// HasData false.
var ErrAllProvidersFailed = errors.New("all providers failed and no cached quote available")

// Config wires the service together. QuoteSources is the round-robin pool
// for real-time snapshots; HistorySources is an ordered fallback chain tried
// front to back. ProviderCfgs is keyed by source name; sources without an
// entry run unbudgeted.
type Config struct {
    QuoteSources   []provider.Source
    HistorySources []provider.Source
    ProviderCfgs   map[string]config.Provider
    Monitor        *budget.Monitor
    Cache          *quotecache.Cache
    Attempts       int
}

// Service is the quote orchestrator: rotation across budgeted real-time
// sources, an explicit history fallback chain, durable caching of the last
// good quote, and stale-cache fallback when everything upstream fails.
type Service struct {
    cfg     Config
    rotator *budget.Rotator
    sf      singleflight.Group
}

func New(cfg Config) *Service {
    if cfg.Attempts <= 0 { cfg.Attempts = 4 }
    if cfg.Monitor == nil { cfg.Monitor = budget.NewMonitor() }
    return &Service{
        cfg:     cfg,
        rotator: budget.NewRotator(cfg.Monitor),
    }
}

// Industries returns the static stock catalog, grouped by industry.
func (s *Service) Industries() []catalog.Industry {
    return catalog.ListIndustries()
}

// GetQuote fetches a full quote for code: a real-time snapshot from the
// rotation pool plus a closing-price history for the period. Concurrent
// requests for the same code and period are coalesced into one upstream
// fetch. On total failure the last cached quote is served with its CachedAt
// stamp; with no cache the zero Quote and ErrAllProvidersFailed come back.
func (s *Service) GetQuote(ctx context.Context, code string, period provider.Period) (provider.Quote, error) {
    v, err, _ := s.sf.Do(code+"|"+string(period), func() (any, error) {
        return s.fetchQuote(ctx, code, period)
    })
    q, _ := v.(provider.Quote)
    return q, err
}

func (s *Service) fetchQuote(ctx context.Context, code string, period provider.Period) (provider.Quote, error) {
    snap, ok := s.fetchSnapshot(ctx, code)
    if !ok {
        if cached, hit, err := s.cfg.Cache.Load(ctx, code); err == nil && hit {
            log.Printf("quote %s: all providers failed, serving cache from %s", code, cached.CachedAt.Format(time.RFC3339))
            return cached, nil
        }
        return emptyQuote(code), ErrAllProvidersFailed
    }

    hist := s.fetchHistory(ctx, code, period)
    q := provider.Quote{
        Code:          snap.Code,
        Name:          snap.Name,
        Price:         snap.Price,
        Change:        snap.Change,
        ChangePercent: snap.ChangePercent,
        Prices:        hist.Prices,
        Dates:         hist.Dates,
        HasData:       true,
    }
    if q.Code == "" { q.Code = code }
    if err := s.cfg.Cache.Save(ctx, code, q); err != nil {
        log.Printf("quote %s: cache save: %v", code, err)
    }
    return q, nil
}

// fetchSnapshot walks the rotation pool for up to Attempts tries. A provider
// with a configured MaxRetries is not asked again within the same fetch once
// it has failed that many times. Every upstream call is recorded with its
// outcome and round-trip time.
func (s *Service) fetchSnapshot(ctx context.Context, code string) (provider.Snapshot, bool) {
    tried := make(map[string]int)
    for i := 0; i < s.cfg.Attempts; i++ {
        src := s.rotator.Next(s.cfg.QuoteSources, s.cfg.ProviderCfgs)
        if src == nil { break }
        if max := s.cfg.ProviderCfgs[src.Name()].MaxRetries; max > 0 && tried[src.Name()] >= max {
            continue
        }
        tried[src.Name()]++
        start := time.Now()
        snap, err := src.FetchQuote(ctx, code)
        if errors.Is(err, provider.ErrUnsupported) {
            continue
        }
        s.cfg.Monitor.RecordCall(src.Name(), err == nil, time.Since(start), err)
        if err == nil {
            return snap, true
        }
        if provider.IsParse(err) {
            log.Printf("quote %s: %s parse failure: %v", code, src.Name(), err)
        } else {
            log.Printf("quote %s: %s transport failure: %v", code, src.Name(), err)
        }
    }
    return provider.Snapshot{}, false
}

// fetchHistory tries the history chain in its declared order, skipping
// over-budget sources. Total failure degrades to an empty series, never to
// an error: a quote without history is still a quote.
func (s *Service) fetchHistory(ctx context.Context, code string, period provider.Period) provider.History {
    for _, src := range s.cfg.HistorySources {
        if !s.cfg.Monitor.CanCall(src.Name(), s.cfg.ProviderCfgs[src.Name()]) {
            continue
        }
        start := time.Now()
        hist, err := src.FetchHistory(ctx, code, period)
        if errors.Is(err, provider.ErrUnsupported) {
            continue
        }
        s.cfg.Monitor.RecordCall(src.Name(), err == nil, time.Since(start), err)
        if err == nil {
            return hist
        }
        log.Printf("history %s: %s: %v", code, src.Name(), err)
    }
    return provider.History{Prices: []float64{}, Dates: []string{}}
}

// ProviderStats summarizes every known source for diagnostics.
func (s *Service) ProviderStats() map[string]budget.Stats {
    out := make(map[string]budget.Stats)
    for _, src := range s.cfg.QuoteSources {
        out[src.Name()] = s.cfg.Monitor.StatsFor(src.Name())
    }
    for _, src := range s.cfg.HistorySources {
        if _, seen := out[src.Name()]; seen { continue }
        out[src.Name()] = s.cfg.Monitor.StatsFor(src.Name())
    }
    return out
}

func emptyQuote(code string) provider.Quote {
    return provider.Quote{
        Code:   code,
        Prices: []float64{},
        Dates:  []string{},
    }
}
