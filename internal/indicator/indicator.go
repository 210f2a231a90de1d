package indicator

import (
    "math"

    talib "github.com/markcheno/go-talib"
)

// Overlay carries moving-average series aligned index-for-index with the
// closing prices they were computed from. Warmup slots (where the window is
// not yet full) hold zero.
type Overlay struct {
    SMAPeriod int       `json:"sma_period"`
    EMAPeriod int       `json:"ema_period"`
    SMA       []float64 `json:"sma"`
    EMA       []float64 `json:"ema"`
}

const (
    defaultSMAPeriod = 5
    defaultEMAPeriod = 10
)

// Compute derives SMA and EMA overlays for a closing-price series. Periods
// that are zero or negative fall back to the defaults. A series shorter than
// a period yields an all-zero overlay for that series rather than an error.
func Compute(closes []float64, smaPeriod, emaPeriod int) Overlay {
    if smaPeriod <= 0 { smaPeriod = defaultSMAPeriod }
    if emaPeriod <= 0 { emaPeriod = defaultEMAPeriod }
    out := Overlay{SMAPeriod: smaPeriod, EMAPeriod: emaPeriod}
    if len(closes) == 0 {
        out.SMA = []float64{}
        out.EMA = []float64{}
        return out
    }
    if len(closes) >= smaPeriod {
        out.SMA = sanitize(talib.Sma(closes, smaPeriod))
    } else {
        out.SMA = make([]float64, len(closes))
    }
    if len(closes) >= emaPeriod {
        out.EMA = sanitize(talib.Ema(closes, emaPeriod))
    } else {
        out.EMA = make([]float64, len(closes))
    }
    return out
}

// Latest returns the most recent non-zero value of a series, or zero when
// the series never left warmup.
func Latest(series []float64) float64 {
    for i := len(series) - 1; i >= 0; i-- {
        if series[i] != 0 {
            return series[i]
        }
    }
    return 0
}

// sanitize zeroes NaN and infinite values so the series stays JSON-safe.
func sanitize(series []float64) []float64 {
    for i, v := range series {
        if math.IsNaN(v) || math.IsInf(v, 0) {
            series[i] = 0
        }
    }
    return series
}
