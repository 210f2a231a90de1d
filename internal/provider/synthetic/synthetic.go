package synthetic

import (
    "context"
    "hash/fnv"
    "math/rand"
    "time"

    "stocksim/internal/provider"
)

// Source generates a deterministic pseudo-random closing-price series seeded
// by the stock code. It is a demo stopgap for when every real provider is
// down, disabled by default and enabled only through configuration.
type Source struct {
    name string
    now  func() time.Time
}

func New() *Source {
    return &Source{name: "synthetic", now: time.Now}
}

func (s *Source) Name() string { return s.name }

// FetchQuote is unsupported: synthetic data is history-only, so a stale
// cached quote still wins over an invented price.
func (s *Source) FetchQuote(context.Context, string) (provider.Snapshot, error) {
    return provider.Snapshot{}, provider.ErrUnsupported
}

// FetchHistory walks a random series from a base price derived from the code
// hash. The same code and period always produce the same series for a given
// day.
func (s *Source) FetchHistory(_ context.Context, code string, period provider.Period) (provider.History, error) {
    h := fnv.New64a()
    h.Write([]byte(code))
    rng := rand.New(rand.NewSource(int64(h.Sum64())))

    base := 5 + rng.Float64()*95 // 5..100
    points := period.MaxPoints()
    step := 24 * time.Hour
    switch period {
    case provider.PeriodWeekly:
        step = 7 * 24 * time.Hour
    case provider.PeriodMonthly:
        step = 30 * 24 * time.Hour
    }

    out := provider.History{Prices: make([]float64, 0, points), Dates: make([]string, 0, points)}
    day := s.now().UTC().Truncate(24 * time.Hour)
    start := day.Add(-time.Duration(points-1) * step)
    price := base
    for i := 0; i < points; i++ {
        // bounded random walk, +-2% per step
        price *= 1 + (rng.Float64()-0.5)*0.04
        if price < 1 { price = 1 }
        out.Prices = append(out.Prices, round2(price))
        out.Dates = append(out.Dates, start.Add(time.Duration(i)*step).Format("2006-01-02"))
    }
    return out, nil
}

func round2(v float64) float64 {
    return float64(int64(v*100+0.5)) / 100
}
