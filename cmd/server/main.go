package main

import (
    "compress/gzip"
    "context"
    "io"
    "log"
    "net/http"
    "os"
    "os/signal"
    "strings"
    "sync"
    "syscall"
    "time"

    "stocksim/internal/config"
    "stocksim/internal/httpx"
    "stocksim/internal/portfolio"
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
    cfgPath := os.Getenv("CONFIG_FILE")
    cfg, err := config.Load(cfgPath)
    if err != nil { log.Fatalf("config: %v", err) }
    port := cfg.Server.Port
    timeoutSec := cfg.Server.RequestTimeoutSec

    kv, err := store.OpenSQLite(cfg.Store.Path)
    if err != nil { log.Fatalf("store: %v", err) }
    defer kv.Close()

    httpClient := httpx.New(time.Duration(timeoutSec) * time.Second)
    httpClient.UserAgent = "stocksim/1.0"

    var quoteSources []provider.Source
    var historySources []provider.Source
    cfgs := map[string]config.Provider{}

    if cfg.Tencent.Enabled {
        src := tencent.New(tencent.Config{
            Name: "tencent",
            URL:  cfg.Tencent.Endpoint,
        }, httpClient)
        quoteSources = append(quoteSources, src)
        cfgs[src.Name()] = cfg.Tencent
    }
    if cfg.EastMoney.Enabled {
        src := eastmoney.New(eastmoney.Config{
            Name:     "eastmoney",
            KlineURL: cfg.EastMoney.Endpoint,
        }, httpClient)
        quoteSources = append(quoteSources, src)
        historySources = append(historySources, src)
        cfgs[src.Name()] = cfg.EastMoney
    }
    if cfg.Sina.Enabled {
        src := sina.New(sina.Config{
            Name: "sina",
            URL:  cfg.Sina.Endpoint,
        }, httpClient)
        quoteSources = append(quoteSources, src)
        cfgs[src.Name()] = cfg.Sina
    }
    if cfg.Xueqiu.Enabled {
        // separate jarred client: the session cookie must not leak into the
        // other providers' requests
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
        log.Println("warning: no real-time providers enabled; quotes will come from cache only")
    }

    monitor := budget.NewMonitor()
    cache := quotecache.New(kv)
    svc := service.New(service.Config{
        QuoteSources:   quoteSources,
        HistorySources: historySources,
        ProviderCfgs:   cfgs,
        Monitor:        monitor,
        Cache:          cache,
        Attempts:       cfg.Service.Attempts,
    })
    ledger := portfolio.New(kv, cfg.Funds.Initial)

    if len(cfg.Service.Watchlist) > 0 {
        refresher := service.NewRefresher(svc,
            time.Duration(cfg.Service.RefreshIntervalSec)*time.Second,
            cfg.Service.Watchlist)
        refresher.Start(context.Background())
        defer refresher.Stop()
    }

    mux := http.NewServeMux()
    mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
        w.WriteHeader(http.StatusOK)
        _, _ = w.Write([]byte("ok"))
    })
    mux.HandleFunc("/api/industries", func(w http.ResponseWriter, r *http.Request) {
        if r.Method != http.MethodGet {
            http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
            return
        }
        handleIndustries(w, r, svc)
    })
    mux.HandleFunc("/api/quote", func(w http.ResponseWriter, r *http.Request) {
        if r.Method != http.MethodGet {
            http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
            return
        }
        handleQuote(w, r, svc)
    })
    mux.HandleFunc("/api/providers/stats", func(w http.ResponseWriter, r *http.Request) {
        if r.Method != http.MethodGet {
            http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
            return
        }
        handleProviderStats(w, r, svc)
    })
    mux.HandleFunc("/api/portfolio", func(w http.ResponseWriter, r *http.Request) {
        if r.Method != http.MethodGet {
            http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
            return
        }
        handlePortfolio(w, r, svc, ledger)
    })
    mux.HandleFunc("/api/trade", func(w http.ResponseWriter, r *http.Request) {
        if r.Method != http.MethodPost {
            http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
            return
        }
        handleTrade(w, r, svc, ledger)
    })

    srv := &http.Server{
        Addr:              ":" + port,
        Handler:           withJSONHeaders(withGzip(recoverPanic(limitBody(mux)))),
        ReadHeaderTimeout: 5 * time.Second,
        ReadTimeout:       15 * time.Second,
        WriteTimeout:      20 * time.Second,
        IdleTimeout:       60 * time.Second,
    }

    go func() {
        log.Printf("server listening on :%s", port)
        if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
            log.Fatalf("server: %v", err)
        }
    }()

    // graceful shutdown
    ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
    defer stop()
    <-ctx.Done()
    shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
    defer cancel()
    _ = srv.Shutdown(shutdownCtx)
}

func withJSONHeaders(next http.Handler) http.Handler {
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        w.Header().Set("Content-Type", "application/json; charset=utf-8")
        w.Header().Set("Access-Control-Allow-Origin", "*")
        w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
        w.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
        if r.Method == http.MethodOptions {
            w.WriteHeader(http.StatusNoContent)
            return
        }
        next.ServeHTTP(w, r)
    })
}

// withGzip compresses response when client supports gzip.
func withGzip(next http.Handler) http.Handler {
    var gzPool = sync.Pool{New: func() any {
        w, _ := gzip.NewWriterLevel(io.Discard, gzip.BestSpeed)
        return w
    }}
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
            next.ServeHTTP(w, r)
            return
        }
        gz := gzPool.Get().(*gzip.Writer)
        gz.Reset(w)
        defer func() {
            _ = gz.Close()
            gz.Reset(io.Discard)
            gzPool.Put(gz)
        }()
        w.Header().Set("Content-Encoding", "gzip")
        w.Header().Add("Vary", "Accept-Encoding")
        gw := gzipResponseWriter{ResponseWriter: w, Writer: gz}
        next.ServeHTTP(gw, r)
    })
}

type gzipResponseWriter struct {
    http.ResponseWriter
    Writer io.Writer
}

func (g gzipResponseWriter) Write(b []byte) (int, error) {
    return g.Writer.Write(b)
}

// limitBody caps request body size to avoid memory abuse.
func limitBody(next http.Handler) http.Handler {
    const maxBody = 1 << 20 // 1MB
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        if r.Method == http.MethodPost && r.Body != nil {
            r.Body = http.MaxBytesReader(w, r.Body, maxBody)
        }
        next.ServeHTTP(w, r)
    })
}

// recoverPanic protects handlers from panics.
func recoverPanic(next http.Handler) http.Handler {
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        defer func() {
            if rec := recover(); rec != nil {
                http.Error(w, "internal server error", http.StatusInternalServerError)
            }
        }()
        next.ServeHTTP(w, r)
    })
}
