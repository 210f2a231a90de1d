package config

import (
    "encoding/json"
    "errors"
    "fmt"
    "os"
    "strings"
)

type Server struct {
    Port              string `json:"port"`
    RequestTimeoutSec int    `json:"request_timeout_sec"`
}

// Provider is one upstream data source: its endpoint, call budgets and
// capability flags. Defined once at startup, never mutated afterwards.
type Provider struct {
    Enabled            bool   `json:"enabled"`
    Endpoint           string `json:"endpoint"`
    MaxCallsPerMinute  int    `json:"max_calls_per_minute"`
    MaxCallsPerHour    int    `json:"max_calls_per_hour"`
    MaxRetries         int    `json:"max_retries"`
    TimeoutSec         int    `json:"timeout_sec"`
    SupportsRealTime   bool   `json:"supports_real_time"`
    SupportsHistorical bool   `json:"supports_historical"`
}

type Store struct {
    Path string `json:"path"`
}

type Service struct {
    Attempts           int      `json:"attempts"`
    RefreshIntervalSec int      `json:"refresh_interval_sec"`
    SyntheticFallback  bool     `json:"synthetic_fallback"`
    Watchlist          []string `json:"watchlist"`
}

type Funds struct {
    Initial float64 `json:"initial"`
}

type Config struct {
    Server    Server   `json:"server"`
    Tencent   Provider `json:"tencent"`
    EastMoney Provider `json:"eastmoney"`
    Sina      Provider `json:"sina"`
    Xueqiu    Provider `json:"xueqiu"`
    Store     Store    `json:"store"`
    Service   Service  `json:"service"`
    Funds     Funds    `json:"funds"`
}

func Default() Config {
    return Config{
        Server: Server{Port: "8080", RequestTimeoutSec: 15},
        Tencent: Provider{
            Enabled:           true,
            Endpoint:          "https://qt.gtimg.cn/q=%s",
            MaxCallsPerMinute: 60,
            MaxCallsPerHour:   1000,
            MaxRetries:        3,
            TimeoutSec:        15,
            SupportsRealTime:  true,
        },
        EastMoney: Provider{
            Enabled:            true,
            Endpoint:           "https://push2his.eastmoney.com/api/qt/stock/kline/get",
            MaxCallsPerMinute:  30,
            MaxCallsPerHour:    500,
            MaxRetries:         3,
            TimeoutSec:         15,
            SupportsRealTime:   true,
            SupportsHistorical: true,
        },
        Sina: Provider{
            Enabled:           true,
            Endpoint:          "https://hq.sinajs.cn/list=%s",
            MaxCallsPerMinute: 60,
            MaxCallsPerHour:   1000,
            MaxRetries:        3,
            TimeoutSec:        15,
            SupportsRealTime:  true,
        },
        Xueqiu: Provider{
            Enabled:            true,
            Endpoint:           "https://stock.xueqiu.com",
            MaxCallsPerMinute:  20,
            MaxCallsPerHour:    300,
            MaxRetries:         3,
            TimeoutSec:         30,
            SupportsRealTime:   true,
            SupportsHistorical: true,
        },
        Store: Store{Path: "stocksim.db"},
        Service: Service{
            Attempts:           4,
            RefreshIntervalSec: 30,
            SyntheticFallback:  false,
        },
        Funds: Funds{Initial: 500_000},
    }
}

// Load reads JSON config from path. If path is empty or the file does not
// exist, it returns defaults. Environment variables override select fields.
func Load(path string) (Config, error) {
    cfg := Default()
    if path == "" {
        if _, err := os.Stat("config.json"); err == nil {
            path = "config.json"
        }
    }
    if path != "" {
        b, err := os.ReadFile(path)
        if err != nil && !errors.Is(err, os.ErrNotExist) {
            return cfg, fmt.Errorf("read config: %w", err)
        }
        if err == nil {
            if err := json.Unmarshal(b, &cfg); err != nil {
                return cfg, fmt.Errorf("parse config: %w", err)
            }
        }
    }
    applyEnv(&cfg)
    return cfg, nil
}

func applyEnv(cfg *Config) {
    if v := os.Getenv("PORT"); v != "" { cfg.Server.Port = v }
    if v := os.Getenv("REQUEST_TIMEOUT_SEC"); v != "" {
        var x int; fmt.Sscanf(v, "%d", &x); if x > 0 { cfg.Server.RequestTimeoutSec = x }
    }
    if v := os.Getenv("STORE_PATH"); v != "" { cfg.Store.Path = v }
    if v := os.Getenv("SERVICE_ATTEMPTS"); v != "" {
        var x int; fmt.Sscanf(v, "%d", &x); if x > 0 { cfg.Service.Attempts = x }
    }
    if v := os.Getenv("REFRESH_INTERVAL_SEC"); v != "" {
        var x int; fmt.Sscanf(v, "%d", &x); if x > 0 { cfg.Service.RefreshIntervalSec = x }
    }
    if v := os.Getenv("SYNTHETIC_FALLBACK"); v != "" {
        switch strings.ToLower(v) {
        case "1", "true", "yes", "y": cfg.Service.SyntheticFallback = true
        case "0", "false", "no", "n": cfg.Service.SyntheticFallback = false
        }
    }
    if v := os.Getenv("WATCHLIST"); v != "" { cfg.Service.Watchlist = splitCSV(v) }
    if v := os.Getenv("INITIAL_FUNDS"); v != "" {
        var x float64; fmt.Sscanf(v, "%g", &x); if x > 0 { cfg.Funds.Initial = x }
    }
    applyProviderEnv("TENCENT", &cfg.Tencent)
    applyProviderEnv("EASTMONEY", &cfg.EastMoney)
    applyProviderEnv("SINA", &cfg.Sina)
    applyProviderEnv("XUEQIU", &cfg.Xueqiu)
}

func applyProviderEnv(prefix string, p *Provider) {
    if v := os.Getenv(prefix + "_ENABLED"); v != "" {
        switch strings.ToLower(v) {
        case "1", "true", "yes", "y": p.Enabled = true
        case "0", "false", "no", "n": p.Enabled = false
        }
    }
    if v := os.Getenv(prefix + "_ENDPOINT"); v != "" { p.Endpoint = v }
    if v := os.Getenv(prefix + "_MAX_CPM"); v != "" {
        var x int; fmt.Sscanf(v, "%d", &x); if x > 0 { p.MaxCallsPerMinute = x }
    }
    if v := os.Getenv(prefix + "_MAX_CPH"); v != "" {
        var x int; fmt.Sscanf(v, "%d", &x); if x > 0 { p.MaxCallsPerHour = x }
    }
    if v := os.Getenv(prefix + "_TIMEOUT_SEC"); v != "" {
        var x int; fmt.Sscanf(v, "%d", &x); if x > 0 { p.TimeoutSec = x }
    }
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
