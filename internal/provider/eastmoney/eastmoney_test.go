package eastmoney

import (
    "context"
    "net/http"
    "net/http/httptest"
    "testing"
    "time"

    "stocksim/internal/httpx"
    "stocksim/internal/provider"
)

func newTestSource(srv *httptest.Server) *Source {
    return New(Config{QuoteURL: srv.URL + "/quote", KlineURL: srv.URL + "/kline"}, httpx.New(5*time.Second))
}

func TestFetchHistory_ParsesKlines(t *testing.T) {
    srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        if got := r.URL.Query().Get("secid"); got != "1.600036" {
            t.Errorf("secid = %q, want 1.600036", got)
        }
        w.Write([]byte(`{"data":{"code":"600036","klines":[
            "2025-03-06,35.10,35.40,35.55,35.00,120000",
            "2025-03-07,35.40,35.66,35.80,35.30,98000",
            "2025-03-10,35.66,35.68,35.90,35.50,110000"
        ]}}`))
    }))
    defer srv.Close()

    h, err := newTestSource(srv).FetchHistory(context.Background(), "600036.SH", provider.PeriodDaily)
    if err != nil { t.Fatalf("fetch: %v", err) }
    if len(h.Prices) != 3 || len(h.Dates) != 3 {
        t.Fatalf("got %d/%d points", len(h.Prices), len(h.Dates))
    }
    if h.Prices[2] != 35.68 || h.Dates[0] != "2025-03-06" {
        t.Fatalf("unexpected series: %+v", h)
    }
}

func TestFetchHistory_ZeroKlinesIsEmptyNotError(t *testing.T) {
    srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        w.Write([]byte(`{"data":{"klines":[]}}`))
    }))
    defer srv.Close()

    h, err := newTestSource(srv).FetchHistory(context.Background(), "600036.SH", provider.PeriodDaily)
    if err != nil { t.Fatalf("zero klines must not error: %v", err) }
    if len(h.Prices) != 0 || len(h.Dates) != 0 {
        t.Fatalf("want empty series, got %+v", h)
    }
}

func TestFetchHistory_MissingKlinesIsParseError(t *testing.T) {
    srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        w.Write([]byte(`{"data":null}`))
    }))
    defer srv.Close()

    _, err := newTestSource(srv).FetchHistory(context.Background(), "600036.SH", provider.PeriodDaily)
    if err == nil || !provider.IsParse(err) {
        t.Fatalf("err = %v, want parse error", err)
    }
}

func TestFetchHistory_CapsPoints(t *testing.T) {
    srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        w.Write([]byte(klineBody(60)))
    }))
    defer srv.Close()

    h, err := newTestSource(srv).FetchHistory(context.Background(), "000001.SZ", provider.PeriodDaily)
    if err != nil { t.Fatalf("fetch: %v", err) }
    if want := provider.PeriodDaily.MaxPoints(); len(h.Prices) != want {
        t.Fatalf("got %d points, want cap %d", len(h.Prices), want)
    }
}

func klineBody(n int) string {
    s := `{"data":{"klines":[`
    for i := 0; i < n; i++ {
        if i > 0 { s += "," }
        s += `"2025-01-02,10.0,10.5,10.6,9.9,1000"`
    }
    return s + `]}}`
}

func TestFetchQuote_ParsesDiff(t *testing.T) {
    srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        w.Write([]byte(`{"data":{"diff":[{"f2":35.68,"f12":"600036","f14":"招商银行","f18":35.66}]}}`))
    }))
    defer srv.Close()

    snap, err := newTestSource(srv).FetchQuote(context.Background(), "600036.SH")
    if err != nil { t.Fatalf("fetch: %v", err) }
    if snap.Name != "招商银行" || snap.Price != 35.68 || snap.PrevClose != 35.66 {
        t.Fatalf("unexpected snapshot: %+v", snap)
    }
}

func TestFetchQuote_EmptyDiffIsParseError(t *testing.T) {
    srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        w.Write([]byte(`{"data":{"diff":[]}}`))
    }))
    defer srv.Close()

    _, err := newTestSource(srv).FetchQuote(context.Background(), "600036.SH")
    if err == nil || !provider.IsParse(err) {
        t.Fatalf("err = %v, want parse error", err)
    }
}

func TestSecID(t *testing.T) {
    if got, _ := secID("600036.SH"); got != "1.600036" {
        t.Fatalf("secID SH = %s", got)
    }
    if got, _ := secID("000001.SZ"); got != "0.000001" {
        t.Fatalf("secID SZ = %s", got)
    }
    if _, err := secID("00700.HK"); err == nil {
        t.Fatal("HK should be unsupported")
    }
}
