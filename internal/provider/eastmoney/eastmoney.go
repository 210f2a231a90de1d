package eastmoney

import (
    "context"
    "fmt"
    "io"
    "net/http"
    "strconv"
    "strings"

    "github.com/tidwall/gjson"

    "stocksim/internal/httpx"
    "stocksim/internal/provider"
)

type Config struct {
    Name     string
    QuoteURL string
    KlineURL string
    Headers  map[string]string
}

// Source fetches quotes and daily/weekly/monthly klines from the East Money
// push2 endpoints. Payloads are nested JSON; klines arrive as
// "date,open,close,high,low,volume" strings under data.klines.
type Source struct {
    cfg    Config
    client *httpx.Client
}

func New(cfg Config, hc *httpx.Client) *Source {
    if cfg.Name == "" { cfg.Name = "eastmoney" }
    if cfg.QuoteURL == "" { cfg.QuoteURL = "https://push2.eastmoney.com/api/qt/ulist.np/get" }
    if cfg.KlineURL == "" { cfg.KlineURL = "https://push2his.eastmoney.com/api/qt/stock/kline/get" }
    if cfg.Headers == nil {
        cfg.Headers = map[string]string{
            "Referer": "https://quote.eastmoney.com/",
            "Accept":  "application/json, text/plain, */*",
        }
    }
    return &Source{cfg: cfg, client: hc}
}

func (s *Source) Name() string { return s.cfg.Name }

func (s *Source) FetchQuote(ctx context.Context, code string) (provider.Snapshot, error) {
    secid, err := secID(code)
    if err != nil { return provider.Snapshot{}, err }
    // f2 price, f12 code, f14 name, f18 previous close
    u := fmt.Sprintf("%s?secids=%s&fields=f2,f12,f14,f18", s.cfg.QuoteURL, secid)
    body, err := s.get(ctx, u)
    if err != nil { return provider.Snapshot{}, err }
    return parseQuote(s.cfg.Name, code, body)
}

func (s *Source) FetchHistory(ctx context.Context, code string, period provider.Period) (provider.History, error) {
    secid, err := secID(code)
    if err != nil { return provider.History{}, err }
    u := fmt.Sprintf("%s?secid=%s&fields1=f1,f2,f3&fields2=f51,f52,f53,f54,f55,f56&klt=%d&fqt=1&lmt=%d",
        s.cfg.KlineURL, secid, kltFor(period), period.MaxPoints())
    body, err := s.get(ctx, u)
    if err != nil { return provider.History{}, err }
    return parseKlines(s.cfg.Name, body, period.MaxPoints())
}

func (s *Source) get(ctx context.Context, u string) ([]byte, error) {
    req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
    if err != nil { return nil, err }
    for k, v := range s.cfg.Headers { req.Header.Set(k, v) }
    resp, err := s.client.Do(ctx, req)
    if err != nil { return nil, err }
    defer resp.Body.Close()
    if resp.StatusCode < 200 || resp.StatusCode >= 300 {
        return nil, fmt.Errorf("GET %s -> %d", u, resp.StatusCode)
    }
    return io.ReadAll(io.LimitReader(resp.Body, 4<<20))
}

func parseQuote(source, code string, body []byte) (provider.Snapshot, error) {
    diff := gjson.GetBytes(body, "data.diff")
    if !diff.Exists() || !diff.IsArray() || len(diff.Array()) == 0 {
        return provider.Snapshot{}, &provider.ParseError{Source: source, Reason: "no data.diff"}
    }
    row := diff.Array()[0]
    price := row.Get("f2").Float()
    prevClose := row.Get("f18").Float()
    name := strings.TrimSpace(row.Get("f14").String())
    if price <= 0 {
        return provider.Snapshot{}, &provider.ParseError{Source: source, Reason: "bad price " + row.Get("f2").Raw}
    }
    change, pct := provider.ComputeChange(price, prevClose)
    return provider.Snapshot{
        Code:          code,
        Name:          name,
        Price:         price,
        PrevClose:     prevClose,
        Change:        change,
        ChangePercent: pct,
    }, nil
}

// parseKlines reads data.klines; each entry is "date,open,close,high,low,volume"
// and field 2 is the closing price. An empty array is a valid empty series.
func parseKlines(source string, body []byte, maxPoints int) (provider.History, error) {
    klines := gjson.GetBytes(body, "data.klines")
    if !klines.Exists() || !klines.IsArray() {
        return provider.History{}, &provider.ParseError{Source: source, Reason: "no data.klines"}
    }
    arr := klines.Array()
    h := provider.History{Prices: []float64{}, Dates: []string{}}
    for _, v := range arr {
        parts := strings.Split(strings.TrimSpace(v.String()), ",")
        if len(parts) < 3 { continue }
        closeVal, err := strconv.ParseFloat(parts[2], 64)
        if err != nil { continue }
        h.Dates = append(h.Dates, parts[0])
        h.Prices = append(h.Prices, closeVal)
    }
    if maxPoints > 0 && len(h.Prices) > maxPoints {
        h.Prices = h.Prices[len(h.Prices)-maxPoints:]
        h.Dates = h.Dates[len(h.Dates)-maxPoints:]
    }
    return h, nil
}

func kltFor(period provider.Period) int {
    switch period {
    case provider.PeriodWeekly:
        return 102
    case provider.PeriodMonthly:
        return 103
    default:
        return 101
    }
}

// secID rewrites "600036.SH" into the push2 "1.600036" form; Shenzhen is
// market 0.
func secID(code string) (string, error) {
    num, exch, err := provider.SplitCode(code)
    if err != nil { return "", err }
    switch exch {
    case "SH":
        return "1." + num, nil
    case "SZ":
        return "0." + num, nil
    }
    return "", fmt.Errorf("unsupported exchange %q", exch)
}
