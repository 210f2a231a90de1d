package main

import (
    "context"
    "encoding/json"
    "net/http/httptest"
    "strings"
    "testing"

    "github.com/shopspring/decimal"

    "stocksim/internal/catalog"
    "stocksim/internal/portfolio"
    "stocksim/internal/provider"
    "stocksim/internal/provider/budget"
    "stocksim/internal/service"
    "stocksim/internal/store"
)

type fakeService struct {
    quotes map[string]provider.Quote
    err    error
    stats  map[string]budget.Stats
}

func (f *fakeService) Industries() []catalog.Industry { return catalog.ListIndustries() }

func (f *fakeService) GetQuote(_ context.Context, code string, _ provider.Period) (provider.Quote, error) {
    if f.err != nil {
        return provider.Quote{Code: code, Prices: []float64{}, Dates: []string{}}, f.err
    }
    if q, ok := f.quotes[code]; ok {
        return q, nil
    }
    return provider.Quote{Code: code, Prices: []float64{}, Dates: []string{}}, nil
}

func (f *fakeService) ProviderStats() map[string]budget.Stats { return f.stats }

func TestQuote_OK(t *testing.T) {
    svc := &fakeService{quotes: map[string]provider.Quote{
        "600036.SH": {
            Code: "600036.SH", Name: "招商银行", Price: 35.68, Change: 0.02,
            ChangePercent: 0.0561, HasData: true,
            Prices: []float64{35.4, 35.5, 35.6, 35.62, 35.66, 35.68},
            Dates:  []string{"d1", "d2", "d3", "d4", "d5", "d6"},
        },
    }}
    rr := httptest.NewRecorder()
    handleQuote(rr, httptest.NewRequest("GET", "/api/quote?code=600036.SH&period=daily", nil), svc)
    if rr.Code != 200 { t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String()) }

    var resp quoteResponse
    if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil { t.Fatalf("decode: %v", err) }
    if resp.Quote.Name != "招商银行" || !resp.Quote.HasData {
        t.Fatalf("quote = %+v", resp.Quote)
    }
    if len(resp.Overlay.SMA) != len(resp.Quote.Prices) {
        t.Fatalf("overlay not aligned: %d vs %d", len(resp.Overlay.SMA), len(resp.Quote.Prices))
    }
}

func TestQuote_BadRequests(t *testing.T) {
    svc := &fakeService{}
    rr := httptest.NewRecorder()
    handleQuote(rr, httptest.NewRequest("GET", "/api/quote", nil), svc)
    if rr.Code != 400 { t.Fatalf("missing code: status=%d", rr.Code) }

    rr = httptest.NewRecorder()
    handleQuote(rr, httptest.NewRequest("GET", "/api/quote?code=600036.SH&period=hourly", nil), svc)
    if rr.Code != 400 { t.Fatalf("bad period: status=%d", rr.Code) }
}

func TestQuote_AllProvidersFailed(t *testing.T) {
    svc := &fakeService{err: service.ErrAllProvidersFailed}
    rr := httptest.NewRecorder()
    handleQuote(rr, httptest.NewRequest("GET", "/api/quote?code=600036.SH", nil), svc)
    if rr.Code != 502 { t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String()) }
}

func TestIndustries(t *testing.T) {
    rr := httptest.NewRecorder()
    handleIndustries(rr, httptest.NewRequest("GET", "/api/industries", nil), &fakeService{})
    if rr.Code != 200 { t.Fatalf("status=%d", rr.Code) }
    var resp industriesResponse
    if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil { t.Fatalf("decode: %v", err) }
    if len(resp.Industries) == 0 || len(resp.Industries[0].Stocks) == 0 {
        t.Fatalf("industries = %+v", resp.Industries)
    }
}

func TestTrade_BuyThenPortfolio(t *testing.T) {
    svc := &fakeService{quotes: map[string]provider.Quote{
        "600036.SH": {Code: "600036.SH", Name: "招商银行", Price: 35.68, HasData: true},
    }}
    ledger := portfolio.New(store.NewMemory(), 500_000)

    body := strings.NewReader(`{"action":"buy","code":"600036.SH","quantity":100}`)
    rr := httptest.NewRecorder()
    handleTrade(rr, httptest.NewRequest("POST", "/api/trade", body), svc, ledger)
    if rr.Code != 200 { t.Fatalf("buy: status=%d body=%s", rr.Code, rr.Body.String()) }

    rr = httptest.NewRecorder()
    handlePortfolio(rr, httptest.NewRequest("GET", "/api/portfolio", nil), svc, ledger)
    if rr.Code != 200 { t.Fatalf("portfolio: status=%d body=%s", rr.Code, rr.Body.String()) }
    var summary portfolio.Summary
    if err := json.Unmarshal(rr.Body.Bytes(), &summary); err != nil { t.Fatalf("decode: %v", err) }
    if !summary.AvailableFunds.Equal(decimal.RequireFromString("496432")) {
        t.Fatalf("funds = %s, want 496432", summary.AvailableFunds)
    }
    if len(summary.Positions) != 1 || summary.Positions[0].Quantity != 100 {
        t.Fatalf("positions = %+v", summary.Positions)
    }
}

func TestTrade_Rejections(t *testing.T) {
    svc := &fakeService{quotes: map[string]provider.Quote{
        "600036.SH": {Code: "600036.SH", Price: 35.68, HasData: true},
    }}
    ledger := portfolio.New(store.NewMemory(), 500_000)

    // odd lot
    rr := httptest.NewRecorder()
    handleTrade(rr, httptest.NewRequest("POST", "/api/trade",
        strings.NewReader(`{"action":"buy","code":"600036.SH","quantity":50}`)), svc, ledger)
    if rr.Code != 400 { t.Fatalf("odd lot: status=%d", rr.Code) }

    // selling what we do not hold
    rr = httptest.NewRecorder()
    handleTrade(rr, httptest.NewRequest("POST", "/api/trade",
        strings.NewReader(`{"action":"sell","code":"600036.SH","quantity":100}`)), svc, ledger)
    if rr.Code != 409 { t.Fatalf("oversell: status=%d", rr.Code) }

    // no price available
    failing := &fakeService{err: service.ErrAllProvidersFailed}
    rr = httptest.NewRecorder()
    handleTrade(rr, httptest.NewRequest("POST", "/api/trade",
        strings.NewReader(`{"action":"buy","code":"600036.SH","quantity":100}`)), failing, ledger)
    if rr.Code != 502 { t.Fatalf("no price: status=%d", rr.Code) }

    // unknown action
    rr = httptest.NewRecorder()
    handleTrade(rr, httptest.NewRequest("POST", "/api/trade",
        strings.NewReader(`{"action":"hold","code":"600036.SH","quantity":100}`)), svc, ledger)
    if rr.Code != 400 { t.Fatalf("unknown action: status=%d", rr.Code) }
}
