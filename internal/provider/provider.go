package provider

import (
    "context"
    "errors"
    "fmt"
    "strings"
    "time"
)

// Period selects the lookback window for historical closing prices.
type Period string

const (
    PeriodDaily   Period = "daily"
    PeriodWeekly  Period = "weekly"
    PeriodMonthly Period = "monthly"
)

// ParsePeriod validates a period string from the outside (API query, config).
// Empty defaults to daily.
func ParsePeriod(s string) (Period, error) {
    switch Period(strings.ToLower(strings.TrimSpace(s))) {
    case PeriodDaily:
        return PeriodDaily, nil
    case PeriodWeekly:
        return PeriodWeekly, nil
    case PeriodMonthly:
        return PeriodMonthly, nil
    case "":
        return PeriodDaily, nil
    }
    return "", fmt.Errorf("unknown period %q", s)
}

// LookbackDays is how far back a history request reaches.
func (p Period) LookbackDays() int {
    switch p {
    case PeriodWeekly:
        return 120
    case PeriodMonthly:
        return 365
    default:
        return 30
    }
}

// MaxPoints caps the number of points a history response may carry.
func (p Period) MaxPoints() int {
    switch p {
    case PeriodWeekly:
        return 40
    case PeriodMonthly:
        return 48
    default:
        return 30
    }
}

// Snapshot is the normalized real-time fragment every source parses its wire
// format into.
type Snapshot struct {
    Code          string  `json:"code"`
    Name          string  `json:"name"`
    Price         float64 `json:"price"`
    PrevClose     float64 `json:"prev_close"`
    Change        float64 `json:"change"`
    ChangePercent float64 `json:"change_percent"`
}

// History is a closing-price series, oldest first. Prices and Dates are
// parallel and always the same length. An empty History is a valid result,
// not an error.
type History struct {
    Prices []float64 `json:"prices"`
    Dates  []string  `json:"dates"`
}

// Quote is the full normalized quote the service hands to callers.
// HasData false implies all numeric fields are zero and both series are
// empty. CachedAt is set only on quotes served from the durable cache.
type Quote struct {
    Code          string    `json:"code"`
    Name          string    `json:"name"`
    Price         float64   `json:"price"`
    Change        float64   `json:"change"`
    ChangePercent float64   `json:"change_percent"`
    Prices        []float64 `json:"historical_prices"`
    Dates         []string  `json:"historical_dates"`
    HasData       bool      `json:"has_data"`
    CachedAt      time.Time `json:"cached_at,omitzero"`
}

// Source is one upstream data provider. FetchQuote and FetchHistory return
// ErrUnsupported when the provider lacks the capability.
type Source interface {
    Name() string
    FetchQuote(ctx context.Context, code string) (Snapshot, error)
    FetchHistory(ctx context.Context, code string, period Period) (History, error)
}

// ErrUnsupported marks an operation the source does not implement.
var ErrUnsupported = errors.New("operation not supported by source")

// ParseError marks a response that arrived but did not match the expected
// shape. Control flow treats it like a transport failure; only the log line
// differs.
type ParseError struct {
    Source string
    Reason string
}

func (e *ParseError) Error() string {
    return fmt.Sprintf("%s: parse: %s", e.Source, e.Reason)
}

// IsParse reports whether err is (or wraps) a ParseError.
func IsParse(err error) bool {
    var pe *ParseError
    return errors.As(err, &pe)
}

// ComputeChange derives the change fields from current and previous close.
// A zero previous close yields a zero percentage, not a division by zero.
func ComputeChange(price, prevClose float64) (change, changePercent float64) {
    change = price - prevClose
    if prevClose != 0 {
        changePercent = change / prevClose * 100
    }
    return change, changePercent
}

// SplitCode splits an exchange-qualified symbol ("600036.SH") into its
// numeric part and upper-cased exchange suffix.
func SplitCode(code string) (num, exchange string, err error) {
    code = strings.TrimSpace(code)
    i := strings.LastIndex(code, ".")
    if i <= 0 || i == len(code)-1 {
        return "", "", fmt.Errorf("malformed stock code %q", code)
    }
    return code[:i], strings.ToUpper(code[i+1:]), nil
}
