package indicator

import (
    "math"
    "testing"
)

func TestCompute_SMAValues(t *testing.T) {
    closes := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
    o := Compute(closes, 5, 10)

    if len(o.SMA) != len(closes) || len(o.EMA) != len(closes) {
        t.Fatalf("series lengths: sma %d ema %d, want %d", len(o.SMA), len(o.EMA), len(closes))
    }
    want := []float64{0, 0, 0, 0, 3, 4, 5, 6, 7, 8}
    for i, w := range want {
        if math.Abs(o.SMA[i]-w) > 1e-9 {
            t.Fatalf("sma[%d] = %v, want %v", i, o.SMA[i], w)
        }
    }
    if got := Latest(o.SMA); got != 8 {
        t.Fatalf("Latest(sma) = %v, want 8", got)
    }
}

func TestCompute_ShortSeriesAndDefaults(t *testing.T) {
    o := Compute([]float64{1, 2, 3}, 0, 0)
    if o.SMAPeriod != 5 || o.EMAPeriod != 10 {
        t.Fatalf("default periods = %d/%d", o.SMAPeriod, o.EMAPeriod)
    }
    if len(o.SMA) != 3 || len(o.EMA) != 3 {
        t.Fatalf("short series lengths: %d/%d", len(o.SMA), len(o.EMA))
    }
    for i := range o.SMA {
        if o.SMA[i] != 0 || o.EMA[i] != 0 {
            t.Fatalf("short series not zeroed at %d", i)
        }
    }
}

func TestCompute_EmptySeries(t *testing.T) {
    o := Compute(nil, 5, 10)
    if o.SMA == nil || o.EMA == nil || len(o.SMA) != 0 || len(o.EMA) != 0 {
        t.Fatalf("empty input: %+v", o)
    }
}
