package synthetic

import (
    "context"
    "testing"
    "time"

    "stocksim/internal/provider"
)

func TestFetchHistory_DeterministicPerCode(t *testing.T) {
    s := New()
    s.now = func() time.Time { return time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC) }

    a1, err := s.FetchHistory(context.Background(), "600036.SH", provider.PeriodDaily)
    if err != nil { t.Fatalf("fetch: %v", err) }
    a2, _ := s.FetchHistory(context.Background(), "600036.SH", provider.PeriodDaily)
    b, _ := s.FetchHistory(context.Background(), "000001.SZ", provider.PeriodDaily)

    if len(a1.Prices) != provider.PeriodDaily.MaxPoints() {
        t.Fatalf("len = %d, want %d", len(a1.Prices), provider.PeriodDaily.MaxPoints())
    }
    if len(a1.Prices) != len(a1.Dates) {
        t.Fatalf("series not parallel: %d vs %d", len(a1.Prices), len(a1.Dates))
    }
    for i := range a1.Prices {
        if a1.Prices[i] != a2.Prices[i] {
            t.Fatalf("series not deterministic at %d: %v vs %v", i, a1.Prices[i], a2.Prices[i])
        }
    }
    same := true
    for i := range a1.Prices {
        if a1.Prices[i] != b.Prices[i] { same = false; break }
    }
    if same {
        t.Fatal("different codes produced an identical series")
    }
}

func TestFetchQuote_Unsupported(t *testing.T) {
    if _, err := New().FetchQuote(context.Background(), "600036.SH"); err != provider.ErrUnsupported {
        t.Fatalf("err = %v, want ErrUnsupported", err)
    }
}
