package main

import (
    "context"
    "flag"
    "fmt"
    "log"
    "net/http"
    "os"
    "strings"
    "time"

    "github.com/jedib0t/go-pretty/v6/table"
    "github.com/jedib0t/go-pretty/v6/text"

    "stocksim/internal/config"
    "stocksim/internal/httpx"
    "stocksim/internal/provider"
    "stocksim/internal/provider/budget"
    "stocksim/internal/provider/eastmoney"
    "stocksim/internal/provider/sina"
    "stocksim/internal/provider/synthetic"
    "stocksim/internal/provider/tencent"
    "stocksim/internal/provider/xueqiu"
    "stocksim/internal/quotecache"
    "stocksim/internal/service"
    "stocksim/internal/store"
)

func main() {
    var codesCSV string
    var periodName string
    var timeout int
    var configPath string
    var showStats bool

    flag.StringVar(&codesCSV, "codes", getenv("CODES", "600036.SH"), "comma-separated stock codes (600036.SH,000001.SZ)")
    flag.StringVar(&periodName, "period", getenv("PERIOD", "daily"), "history period: daily, weekly or monthly")
    flag.IntVar(&timeout, "timeout", getenvInt("REQUEST_TIMEOUT_SEC", 15), "request timeout seconds")
    flag.StringVar(&configPath, "config", getenv("CONFIG_FILE", ""), "path to config.json (optional)")
    flag.BoolVar(&showStats, "stats", false, "print per-provider call statistics after fetching")
    flag.Parse()

    cfg, err := config.Load(configPath)
    if err != nil { log.Fatalf("config: %v", err) }
    if timeout != 0 { cfg.Server.RequestTimeoutSec = timeout }

    period, err := provider.ParsePeriod(periodName)
    if err != nil { log.Fatalf("period: %v", err) }
    codes := splitCSV(codesCSV)
    if len(codes) == 0 { log.Fatal("no codes provided") }

    kv, err := store.OpenSQLite(cfg.Store.Path)
    if err != nil { log.Fatalf("store: %v", err) }
    defer kv.Close()

    httpClient := httpx.New(time.Duration(cfg.Server.RequestTimeoutSec) * time.Second)
    httpClient.UserAgent = "stocksim/1.0"

    var quoteSources []provider.Source
    var historySources []provider.Source
    cfgs := map[string]config.Provider{}
    if cfg.Tencent.Enabled {
        src := tencent.New(tencent.Config{Name: "tencent", URL: cfg.Tencent.Endpoint}, httpClient)
        quoteSources = append(quoteSources, src)
        cfgs[src.Name()] = cfg.Tencent
    }
    if cfg.EastMoney.Enabled {
        src := eastmoney.New(eastmoney.Config{Name: "eastmoney", KlineURL: cfg.EastMoney.Endpoint}, httpClient)
        quoteSources = append(quoteSources, src)
        historySources = append(historySources, src)
        cfgs[src.Name()] = cfg.EastMoney
    }
    if cfg.Sina.Enabled {
        src := sina.New(sina.Config{Name: "sina", URL: cfg.Sina.Endpoint}, httpClient)
        quoteSources = append(quoteSources, src)
        cfgs[src.Name()] = cfg.Sina
    }
    if cfg.Xueqiu.Enabled {
        jarred := httpx.New(time.Duration(cfg.Xueqiu.TimeoutSec) * time.Second).WithJar()
        client := xueqiu.NewAPIClient(
            xueqiu.WithBaseURL(cfg.Xueqiu.Endpoint),
            xueqiu.WithHTTPClient(jarred.HTTP),
            xueqiu.WithHeader(http.Header{"User-Agent": []string{"stocksim/1.0"}}),
        )
        src := xueqiu.NewSource("xueqiu", client)
        quoteSources = append(quoteSources, src)
        historySources = append(historySources, src)
        cfgs[src.Name()] = cfg.Xueqiu
    }
    if cfg.Service.SyntheticFallback {
        historySources = append(historySources, synthetic.New())
    }
    if len(quoteSources) == 0 {
        log.Fatal("no providers enabled; check config.json or env overrides")
    }

    monitor := budget.NewMonitor()
    svc := service.New(service.Config{
        QuoteSources:   quoteSources,
        HistorySources: historySources,
        ProviderCfgs:   cfgs,
        Monitor:        monitor,
        Cache:          quotecache.New(kv),
        Attempts:       cfg.Service.Attempts,
    })

    ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.RequestTimeoutSec)*time.Second*time.Duration(len(codes)))
    defer cancel()

    t := table.NewWriter()
    t.SetOutputMirror(os.Stdout)
    t.SetStyle(table.StyleLight)
    t.AppendHeader(table.Row{"Code", "Name", "Price", "Change", "Change%", "Points", "Source"})
    for _, code := range codes {
        q, err := svc.GetQuote(ctx, code, period)
        if err != nil {
            log.Printf("%s: %v", code, err)
            continue
        }
        origin := "live"
        if !q.CachedAt.IsZero() {
            origin = "cache " + q.CachedAt.Format("2006-01-02 15:04")
        }
        t.AppendRow(table.Row{
            q.Code, q.Name,
            fmt.Sprintf("%.2f", q.Price),
            colorChange(q.Change),
            colorPct(q.ChangePercent),
            len(q.Prices),
            origin,
        })
    }
    t.Render()

    if showStats {
        st := table.NewWriter()
        st.SetOutputMirror(os.Stdout)
        st.SetStyle(table.StyleLight)
        st.AppendHeader(table.Row{"Provider", "Calls", "Success%", "Avg RTT (ms)"})
        for name, s := range svc.ProviderStats() {
            st.AppendRow(table.Row{name, s.TotalCalls, fmt.Sprintf("%.1f", s.SuccessRatePct), s.AvgResponseTimeMs})
        }
        st.Render()
    }
}

// A-share convention: red marks gains, green marks losses.
func colorChange(v float64) string {
    if v > 0 {
        return text.FgRed.Sprintf("+%.2f", v)
    }
    if v < 0 {
        return text.FgGreen.Sprintf("%.2f", v)
    }
    return fmt.Sprintf("%.2f", v)
}

func colorPct(v float64) string {
    if v > 0 {
        return text.FgRed.Sprintf("+%.2f%%", v)
    }
    if v < 0 {
        return text.FgGreen.Sprintf("%.2f%%", v)
    }
    return fmt.Sprintf("%.2f%%", v)
}

func splitCSV(s string) []string {
    parts := strings.Split(s, ",")
    out := make([]string, 0, len(parts))
    for _, p := range parts {
        p = strings.TrimSpace(p)
        if p != "" { out = append(out, p) }
    }
    return out
}

func getenv(key, def string) string { if v := os.Getenv(key); v != "" { return v }; return def }
func getenvInt(key string, def int) int {
    if v := os.Getenv(key); v != "" {
        var x int
        _, _ = fmt.Sscanf(v, "%d", &x)
        if x != 0 { return x }
    }
    return def
}
