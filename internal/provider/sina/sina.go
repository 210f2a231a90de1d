package sina

import (
    "context"
    "fmt"
    "io"
    "net/http"
    "regexp"
    "strconv"
    "strings"

    "golang.org/x/text/encoding/simplifiedchinese"
    "golang.org/x/text/transform"

    "stocksim/internal/httpx"
    "stocksim/internal/provider"
)

// The endpoint answers `var hq_str_sh600036="招商银行,35.67,35.66,35.68,...";`
// with at least 30 comma fields for an A-share symbol.
const minFields = 30

var quoteRegex = regexp.MustCompile(`var hq_str_(\w+)="([^"]*)"`)

type Config struct {
    Name    string
    URL     string // format string, %s is the provider-native code
    Headers map[string]string
}

// Source fetches real-time quotes from the Sina plain-text endpoint.
// The endpoint rejects requests without a finance.sina.com.cn referer.
type Source struct {
    cfg    Config
    client *httpx.Client
}

func New(cfg Config, hc *httpx.Client) *Source {
    if cfg.Name == "" { cfg.Name = "sina" }
    if cfg.URL == "" { cfg.URL = "https://hq.sinajs.cn/list=%s" }
    if cfg.Headers == nil {
        cfg.Headers = map[string]string{"Referer": "https://finance.sina.com.cn"}
    }
    return &Source{cfg: cfg, client: hc}
}

func (s *Source) Name() string { return s.cfg.Name }

func (s *Source) FetchQuote(ctx context.Context, code string) (provider.Snapshot, error) {
    native, err := nativeCode(code)
    if err != nil { return provider.Snapshot{}, err }
    u := fmt.Sprintf(s.cfg.URL, native)
    req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
    if err != nil { return provider.Snapshot{}, err }
    for k, v := range s.cfg.Headers { req.Header.Set(k, v) }
    resp, err := s.client.Do(ctx, req)
    if err != nil { return provider.Snapshot{}, err }
    defer resp.Body.Close()
    if resp.StatusCode < 200 || resp.StatusCode >= 300 {
        return provider.Snapshot{}, fmt.Errorf("GET %s -> %d", u, resp.StatusCode)
    }
    body, err := io.ReadAll(transform.NewReader(io.LimitReader(resp.Body, 1<<20), simplifiedchinese.GBK.NewDecoder()))
    if err != nil { return provider.Snapshot{}, fmt.Errorf("decode gbk: %w", err) }
    return parseQuote(s.cfg.Name, code, string(body))
}

// FetchHistory: the plain-text endpoint carries no usable series.
func (s *Source) FetchHistory(context.Context, string, provider.Period) (provider.History, error) {
    return provider.History{}, provider.ErrUnsupported
}

// Field layout: 0 name, 1 open, 2 prevClose, 3 current.
func parseQuote(source, code, body string) (provider.Snapshot, error) {
    m := quoteRegex.FindStringSubmatch(body)
    if len(m) < 3 || strings.TrimSpace(m[2]) == "" {
        return provider.Snapshot{}, &provider.ParseError{Source: source, Reason: "empty or unmatched payload"}
    }
    fields := strings.Split(m[2], ",")
    if len(fields) < minFields {
        return provider.Snapshot{}, &provider.ParseError{Source: source, Reason: fmt.Sprintf("got %d fields, want >= %d", len(fields), minFields)}
    }
    price, err := strconv.ParseFloat(fields[3], 64)
    if err != nil || price <= 0 {
        return provider.Snapshot{}, &provider.ParseError{Source: source, Reason: "bad price " + fields[3]}
    }
    prevClose, err := strconv.ParseFloat(fields[2], 64)
    if err != nil {
        return provider.Snapshot{}, &provider.ParseError{Source: source, Reason: "bad prev close " + fields[2]}
    }
    change, pct := provider.ComputeChange(price, prevClose)
    return provider.Snapshot{
        Code:          code,
        Name:          fields[0],
        Price:         price,
        PrevClose:     prevClose,
        Change:        change,
        ChangePercent: pct,
    }, nil
}

func nativeCode(code string) (string, error) {
    num, exch, err := provider.SplitCode(code)
    if err != nil { return "", err }
    switch exch {
    case "SH":
        return "sh" + num, nil
    case "SZ":
        return "sz" + num, nil
    case "HK":
        return "hk" + num, nil
    }
    return "", fmt.Errorf("unsupported exchange %q", exch)
}
