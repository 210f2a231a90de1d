package xueqiu

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/tidwall/gjson"

	"stocksim/internal/provider"
)

// Source adapts the Xueqiu API client to the provider interface. Xueqiu
// wants upper-cased exchange-prefixed symbols: "600036.SH" -> "SH600036".
type Source struct {
	name   string
	client *APIClient
}

func NewSource(name string, client *APIClient) *Source {
	if name == "" {
		name = "xueqiu"
	}
	return &Source{name: name, client: client}
}

func (s *Source) Name() string { return s.name }

func (s *Source) FetchQuote(ctx context.Context, code string) (provider.Snapshot, error) {
	symbol, err := nativeSymbol(code)
	if err != nil {
		return provider.Snapshot{}, err
	}
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("extend", "detail")
	body, err := s.client.get(ctx, "/v5/stock/quote.json", q)
	if err != nil {
		return provider.Snapshot{}, err
	}
	quote := gjson.GetBytes(body, "data.quote")
	if !quote.Exists() {
		return provider.Snapshot{}, &provider.ParseError{Source: s.name, Reason: "no data.quote"}
	}
	price := quote.Get("current").Float()
	prevClose := quote.Get("last_close").Float()
	if price <= 0 {
		return provider.Snapshot{}, &provider.ParseError{Source: s.name, Reason: "bad current " + quote.Get("current").Raw}
	}
	change, pct := provider.ComputeChange(price, prevClose)
	return provider.Snapshot{
		Code:          code,
		Name:          quote.Get("name").String(),
		Price:         price,
		PrevClose:     prevClose,
		Change:        change,
		ChangePercent: pct,
	}, nil
}

// FetchHistory reads data.item rows of
// [timestamp, open, close, high, low, volume]; index 2 is the close.
// An empty item array is a valid empty series.
func (s *Source) FetchHistory(ctx context.Context, code string, period provider.Period) (provider.History, error) {
	symbol, err := nativeSymbol(code)
	if err != nil {
		return provider.History{}, err
	}
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("period", periodName(period))
	q.Set("type", "before")
	q.Set("count", "-"+strconv.Itoa(period.MaxPoints()))
	q.Set("begin", strconv.FormatInt(time.Now().UnixMilli(), 10))
	body, err := s.client.get(ctx, "/v5/stock/chart/kline.json", q)
	if err != nil {
		return provider.History{}, err
	}
	items := gjson.GetBytes(body, "data.item")
	if !items.Exists() || !items.IsArray() {
		return provider.History{}, &provider.ParseError{Source: s.name, Reason: "no data.item"}
	}
	h := provider.History{Prices: []float64{}, Dates: []string{}}
	for _, row := range items.Array() {
		cols := row.Array()
		if len(cols) < 3 {
			continue
		}
		ts := epochToTime(cols[0].Int())
		h.Dates = append(h.Dates, ts.Format("2006-01-02"))
		h.Prices = append(h.Prices, cols[2].Float())
	}
	if max := period.MaxPoints(); len(h.Prices) > max {
		h.Prices = h.Prices[len(h.Prices)-max:]
		h.Dates = h.Dates[len(h.Dates)-max:]
	}
	return h, nil
}

func periodName(p provider.Period) string {
	switch p {
	case provider.PeriodWeekly:
		return "week"
	case provider.PeriodMonthly:
		return "month"
	default:
		return "day"
	}
}

// epochToTime accepts seconds or milliseconds.
func epochToTime(v int64) time.Time {
	if v > 1_000_000_000_000 {
		return time.UnixMilli(v).UTC()
	}
	return time.Unix(v, 0).UTC()
}

func nativeSymbol(code string) (string, error) {
	num, exch, err := provider.SplitCode(code)
	if err != nil {
		return "", err
	}
	switch exch {
	case "SH", "SZ":
		return exch + num, nil
	}
	return "", fmt.Errorf("unsupported exchange %q", exch)
}
