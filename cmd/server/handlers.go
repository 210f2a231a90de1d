package main

import (
    "context"
    "encoding/json"
    "errors"
    "net/http"
    "strings"

    "stocksim/internal/catalog"
    "stocksim/internal/indicator"
    "stocksim/internal/portfolio"
    "stocksim/internal/provider"
    "stocksim/internal/provider/budget"
    "stocksim/internal/service"
)

// stockService is the slice of the service layer the handlers need; the
// tests substitute a fake.
type stockService interface {
    Industries() []catalog.Industry
    GetQuote(ctx context.Context, code string, period provider.Period) (provider.Quote, error)
    ProviderStats() map[string]budget.Stats
}

type industriesResponse struct {
    Industries []catalog.Industry `json:"industries"`
}

type quoteResponse struct {
    Quote   provider.Quote    `json:"quote"`
    Overlay indicator.Overlay `json:"overlay"`
}

type tradeRequest struct {
    Action   string `json:"action"`
    Code     string `json:"code"`
    Quantity int64  `json:"quantity"`
}

type tradeResponse struct {
    Status string                `json:"status"`
    Price  float64               `json:"price"`
    Record *portfolio.SellRecord `json:"record,omitempty"`
}

func handleIndustries(w http.ResponseWriter, r *http.Request, svc stockService) {
    writeJSON(w, http.StatusOK, industriesResponse{Industries: svc.Industries()})
}

func handleQuote(w http.ResponseWriter, r *http.Request, svc stockService) {
    code := strings.TrimSpace(r.URL.Query().Get("code"))
    if code == "" {
        http.Error(w, "missing code query param", http.StatusBadRequest)
        return
    }
    period, err := provider.ParsePeriod(r.URL.Query().Get("period"))
    if err != nil {
        http.Error(w, err.Error(), http.StatusBadRequest)
        return
    }
    q, err := svc.GetQuote(r.Context(), code, period)
    if err != nil {
        if errors.Is(err, service.ErrAllProvidersFailed) {
            http.Error(w, err.Error(), http.StatusBadGateway)
            return
        }
        http.Error(w, err.Error(), http.StatusInternalServerError)
        return
    }
    writeJSON(w, http.StatusOK, quoteResponse{
        Quote:   q,
        Overlay: indicator.Compute(q.Prices, 0, 0),
    })
}

func handleProviderStats(w http.ResponseWriter, r *http.Request, svc stockService) {
    writeJSON(w, http.StatusOK, svc.ProviderStats())
}

func handlePortfolio(w http.ResponseWriter, r *http.Request, svc stockService, ledger *portfolio.Ledger) {
    positions, err := ledger.Positions(r.Context())
    if err != nil {
        http.Error(w, err.Error(), http.StatusInternalServerError)
        return
    }
    // value positions at the freshest price we can get; a failed fetch just
    // falls back to the position's average price
    prices := make(map[string]float64, len(positions))
    for _, p := range positions {
        q, err := svc.GetQuote(r.Context(), p.StockCode, provider.PeriodDaily)
        if err == nil && q.HasData {
            prices[p.StockCode] = q.Price
        }
    }
    summary, err := ledger.Summarize(r.Context(), prices)
    if err != nil {
        http.Error(w, err.Error(), http.StatusInternalServerError)
        return
    }
    writeJSON(w, http.StatusOK, summary)
}

func handleTrade(w http.ResponseWriter, r *http.Request, svc stockService, ledger *portfolio.Ledger) {
    var req tradeRequest
    dec := json.NewDecoder(r.Body)
    dec.DisallowUnknownFields()
    if err := dec.Decode(&req); err != nil {
        http.Error(w, "invalid JSON body", http.StatusBadRequest)
        return
    }
    if req.Code == "" {
        http.Error(w, "code cannot be empty", http.StatusBadRequest)
        return
    }
    q, err := svc.GetQuote(r.Context(), req.Code, provider.PeriodDaily)
    if err != nil || !q.HasData || q.Price <= 0 {
        http.Error(w, "no current price for "+req.Code, http.StatusBadGateway)
        return
    }
    switch req.Action {
    case "buy":
        name := q.Name
        if e, ok := catalog.Find(req.Code); ok && name == "" {
            name = e.Name
        }
        if err := ledger.Buy(r.Context(), req.Code, name, q.Price, req.Quantity); err != nil {
            http.Error(w, err.Error(), tradeStatus(err))
            return
        }
        writeJSON(w, http.StatusOK, tradeResponse{Status: "bought", Price: q.Price})
    case "sell":
        rec, err := ledger.Sell(r.Context(), req.Code, q.Price, req.Quantity)
        if err != nil {
            http.Error(w, err.Error(), tradeStatus(err))
            return
        }
        writeJSON(w, http.StatusOK, tradeResponse{Status: "sold", Price: q.Price, Record: &rec})
    default:
        http.Error(w, "action must be buy or sell", http.StatusBadRequest)
    }
}

// tradeStatus maps ledger validation errors to 4xx; anything else is a 500.
func tradeStatus(err error) int {
    switch {
    case errors.Is(err, portfolio.ErrInvalidQuantity):
        return http.StatusBadRequest
    case errors.Is(err, portfolio.ErrInsufficientFunds),
        errors.Is(err, portfolio.ErrOverPositionLimit),
        errors.Is(err, portfolio.ErrOversell):
        return http.StatusConflict
    }
    return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
    w.WriteHeader(status)
    enc := json.NewEncoder(w)
    enc.SetEscapeHTML(false)
    enc.Encode(v)
}
