package tencent

import (
    "context"
    "fmt"
    "io"
    "net/http"
    "strconv"
    "strings"

    "golang.org/x/text/encoding/simplifiedchinese"
    "golang.org/x/text/transform"

    "stocksim/internal/httpx"
    "stocksim/internal/provider"
)

// minFields is the smallest payload the tilde format may carry:
// type~name~code~price~open~prevClose.
const minFields = 6

type Config struct {
    Name    string
    URL     string // format string, %s is the provider-native code
    Headers map[string]string
}

// Source fetches real-time quotes from the Tencent plain-text endpoint.
// The payload is GBK encoded and tilde delimited.
type Source struct {
    cfg    Config
    client *httpx.Client
}

func New(cfg Config, hc *httpx.Client) *Source {
    if cfg.Name == "" { cfg.Name = "tencent" }
    if cfg.URL == "" { cfg.URL = "https://qt.gtimg.cn/q=%s" }
    if cfg.Headers == nil {
        cfg.Headers = map[string]string{
            "Referer":         "https://stockapp.finance.qq.com/",
            "Accept-Language": "zh-CN,zh;q=0.9,en;q=0.8",
        }
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

func (s *Source) FetchHistory(context.Context, string, provider.Period) (provider.History, error) {
    return provider.History{}, provider.ErrUnsupported
}

// parseQuote parses `v_sh600036="1~招商银行~600036~35.68~35.67~35.66~...";`
// Field layout: 0 type, 1 name, 2 code, 3 price, 4 open, 5 prevClose.
func parseQuote(source, code, body string) (provider.Snapshot, error) {
    eq := strings.Index(body, "=")
    if eq < 0 {
        return provider.Snapshot{}, &provider.ParseError{Source: source, Reason: "missing assignment"}
    }
    payload := strings.TrimSpace(body[eq+1:])
    payload = strings.TrimSuffix(payload, ";")
    payload = strings.Trim(payload, `"`)
    fields := strings.Split(payload, "~")
    if len(fields) < minFields {
        return provider.Snapshot{}, &provider.ParseError{Source: source, Reason: fmt.Sprintf("got %d fields, want >= %d", len(fields), minFields)}
    }
    price, err := strconv.ParseFloat(fields[3], 64)
    if err != nil || price <= 0 {
        return provider.Snapshot{}, &provider.ParseError{Source: source, Reason: "bad price " + fields[3]}
    }
    prevClose, err := strconv.ParseFloat(fields[5], 64)
    if err != nil {
        return provider.Snapshot{}, &provider.ParseError{Source: source, Reason: "bad prev close " + fields[5]}
    }
    change, pct := provider.ComputeChange(price, prevClose)
    return provider.Snapshot{
        Code:          code,
        Name:          fields[1],
        Price:         price,
        PrevClose:     prevClose,
        Change:        change,
        ChangePercent: pct,
    }, nil
}

// nativeCode rewrites "600036.SH" into "sh600036".
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
