package portfolio

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "sync"
    "time"

    "github.com/shopspring/decimal"

    "stocksim/internal/store"
)

// KV keys for the ledger state. Positions and sell records are JSON arrays,
// the money keys are plain decimal strings.
const (
    keyAvailableFunds = "availableFunds"
    keyInitialFunds   = "initialFunds"
    keyUnlockedLimit  = "unlockedLimit"
    keyPortfolio      = "portfolio"
    keySellRecords    = "sellRecords"
)

const boardLot = 100

var (
    baseLimit       = decimal.NewFromInt(500_000)
    raisedLimit     = decimal.NewFromInt(5_000_000)
    unlockThreshold = decimal.NewFromInt(650_000)
)

var (
    ErrInvalidQuantity   = errors.New("quantity must be a positive multiple of 100")
    ErrInsufficientFunds = errors.New("insufficient available funds")
    ErrOverPositionLimit = errors.New("total position cost exceeds unlocked limit")
    ErrOversell          = errors.New("sell quantity exceeds held position")
)

// Position is one held stock. AveragePrice is the volume-weighted cost of
// every lot still held.
type Position struct {
    StockCode    string          `json:"stockCode"`
    StockName    string          `json:"stockName,omitempty"`
    Quantity     int64           `json:"quantity"`
    AveragePrice decimal.Decimal `json:"averagePrice"`
}

// SellRecord is an append-only log entry written on every sell.
type SellRecord struct {
    StockCode string          `json:"stockCode"`
    StockName string          `json:"stockName"`
    Quantity  int64           `json:"quantity"`
    Price     decimal.Decimal `json:"price"`
    Amount    decimal.Decimal `json:"amount"`
    IsoTime   string          `json:"isoTime"`
}

// Summary is the full account view handed to the API layer.
type Summary struct {
    AvailableFunds decimal.Decimal `json:"availableFunds"`
    InitialFunds   decimal.Decimal `json:"initialFunds"`
    UnlockedLimit  decimal.Decimal `json:"unlockedLimit"`
    TotalAssets    decimal.Decimal `json:"totalAssets"`
    Positions      []Position      `json:"positions"`
    SellRecords    []SellRecord    `json:"sellRecords"`
}

// Ledger is the simulated trading account. All state lives in the KV store;
// the struct itself only carries the handle, the seed amount and a lock that
// serializes read-modify-write cycles. Validation failures never mutate
// state; persistence happens only after every check passed.
type Ledger struct {
    mu      sync.Mutex
    kv      store.KV
    initial decimal.Decimal
    now     func() time.Time
}

func New(kv store.KV, initialFunds float64) *Ledger {
    return &Ledger{
        kv:      kv,
        initial: decimal.NewFromFloat(initialFunds),
        now:     time.Now,
    }
}

// Buy purchases qty shares of code at price. Quantity must be a positive
// multiple of the 100-share board lot.
func (l *Ledger) Buy(ctx context.Context, code, name string, price float64, qty int64) error {
    if qty <= 0 || qty%boardLot != 0 {
        return ErrInvalidQuantity
    }
    if price <= 0 {
        return fmt.Errorf("invalid price %v", price)
    }
    l.mu.Lock()
    defer l.mu.Unlock()
    if err := l.ensureInit(ctx); err != nil { return err }

    funds, err := l.loadDecimal(ctx, keyAvailableFunds)
    if err != nil { return err }
    cost := decimal.NewFromFloat(price).Mul(decimal.NewFromInt(qty))
    if cost.GreaterThan(funds) {
        return ErrInsufficientFunds
    }

    positions, err := l.loadPositions(ctx)
    if err != nil { return err }
    limit, err := l.loadDecimal(ctx, keyUnlockedLimit)
    if err != nil { return err }
    held := decimal.Zero
    for _, p := range positions {
        held = held.Add(p.AveragePrice.Mul(decimal.NewFromInt(p.Quantity)))
    }
    if held.Add(cost).GreaterThan(limit) {
        return ErrOverPositionLimit
    }

    found := false
    for i, p := range positions {
        if p.StockCode != code { continue }
        total := p.AveragePrice.Mul(decimal.NewFromInt(p.Quantity)).Add(cost)
        positions[i].Quantity += qty
        positions[i].AveragePrice = total.Div(decimal.NewFromInt(positions[i].Quantity)).Round(4)
        if name != "" { positions[i].StockName = name }
        found = true
        break
    }
    if !found {
        positions = append(positions, Position{
            StockCode:    code,
            StockName:    name,
            Quantity:     qty,
            AveragePrice: decimal.NewFromFloat(price),
        })
    }

    if err := l.savePositions(ctx, positions); err != nil { return err }
    return l.saveDecimal(ctx, keyAvailableFunds, funds.Sub(cost))
}

// Sell disposes of qty shares of code at price and appends one sell record.
// Selling the full position removes it from the portfolio.
func (l *Ledger) Sell(ctx context.Context, code string, price float64, qty int64) (SellRecord, error) {
    if qty <= 0 || qty%boardLot != 0 {
        return SellRecord{}, ErrInvalidQuantity
    }
    if price <= 0 {
        return SellRecord{}, fmt.Errorf("invalid price %v", price)
    }
    l.mu.Lock()
    defer l.mu.Unlock()
    if err := l.ensureInit(ctx); err != nil { return SellRecord{}, err }

    positions, err := l.loadPositions(ctx)
    if err != nil { return SellRecord{}, err }
    idx := -1
    for i, p := range positions {
        if p.StockCode == code { idx = i; break }
    }
    if idx < 0 || positions[idx].Quantity < qty {
        return SellRecord{}, ErrOversell
    }

    proceeds := decimal.NewFromFloat(price).Mul(decimal.NewFromInt(qty))
    rec := SellRecord{
        StockCode: code,
        StockName: positions[idx].StockName,
        Quantity:  qty,
        Price:     decimal.NewFromFloat(price),
        Amount:    proceeds,
        IsoTime:   l.now().UTC().Format(time.RFC3339),
    }

    if positions[idx].Quantity == qty {
        positions = append(positions[:idx], positions[idx+1:]...)
    } else {
        positions[idx].Quantity -= qty
    }

    records, err := l.loadRecords(ctx)
    if err != nil { return SellRecord{}, err }
    records = append(records, rec)

    funds, err := l.loadDecimal(ctx, keyAvailableFunds)
    if err != nil { return SellRecord{}, err }
    if err := l.savePositions(ctx, positions); err != nil { return SellRecord{}, err }
    if err := l.saveRecords(ctx, records); err != nil { return SellRecord{}, err }
    if err := l.saveDecimal(ctx, keyAvailableFunds, funds.Add(proceeds)); err != nil {
        return SellRecord{}, err
    }
    return rec, nil
}

// AvailableFunds returns the uncommitted cash balance.
func (l *Ledger) AvailableFunds(ctx context.Context) (decimal.Decimal, error) {
    l.mu.Lock()
    defer l.mu.Unlock()
    if err := l.ensureInit(ctx); err != nil { return decimal.Zero, err }
    return l.loadDecimal(ctx, keyAvailableFunds)
}

// Positions returns the held positions.
func (l *Ledger) Positions(ctx context.Context) ([]Position, error) {
    l.mu.Lock()
    defer l.mu.Unlock()
    if err := l.ensureInit(ctx); err != nil { return nil, err }
    return l.loadPositions(ctx)
}

// SellHistory returns every sell record, oldest first.
func (l *Ledger) SellHistory(ctx context.Context) ([]SellRecord, error) {
    l.mu.Lock()
    defer l.mu.Unlock()
    if err := l.ensureInit(ctx); err != nil { return nil, err }
    return l.loadRecords(ctx)
}

// Summarize values the account at the given last prices (falling back to a
// position's average price when no quote is known) and returns the full
// account view. Crossing the unlock threshold raises the position limit,
// once; the raise persists and repeat calls at the same asset level change
// nothing.
func (l *Ledger) Summarize(ctx context.Context, lastPrices map[string]float64) (Summary, error) {
    l.mu.Lock()
    defer l.mu.Unlock()
    if err := l.ensureInit(ctx); err != nil { return Summary{}, err }

    funds, err := l.loadDecimal(ctx, keyAvailableFunds)
    if err != nil { return Summary{}, err }
    initial, err := l.loadDecimal(ctx, keyInitialFunds)
    if err != nil { return Summary{}, err }
    limit, err := l.loadDecimal(ctx, keyUnlockedLimit)
    if err != nil { return Summary{}, err }
    positions, err := l.loadPositions(ctx)
    if err != nil { return Summary{}, err }
    records, err := l.loadRecords(ctx)
    if err != nil { return Summary{}, err }

    total := funds
    for _, p := range positions {
        px := p.AveragePrice
        if last, ok := lastPrices[p.StockCode]; ok && last > 0 {
            px = decimal.NewFromFloat(last)
        }
        total = total.Add(px.Mul(decimal.NewFromInt(p.Quantity)))
    }

    if total.GreaterThanOrEqual(unlockThreshold) && limit.LessThan(raisedLimit) {
        limit = raisedLimit
        if err := l.saveDecimal(ctx, keyUnlockedLimit, limit); err != nil {
            return Summary{}, err
        }
    }

    return Summary{
        AvailableFunds: funds,
        InitialFunds:   initial,
        UnlockedLimit:  limit,
        TotalAssets:    total,
        Positions:      positions,
        SellRecords:    records,
    }, nil
}

// ensureInit seeds the account keys on first use. Callers hold l.mu.
func (l *Ledger) ensureInit(ctx context.Context) error {
    _, ok, err := l.kv.Get(ctx, keyAvailableFunds)
    if err != nil || ok {
        return err
    }
    if err := l.saveDecimal(ctx, keyAvailableFunds, l.initial); err != nil { return err }
    if err := l.saveDecimal(ctx, keyInitialFunds, l.initial); err != nil { return err }
    if err := l.saveDecimal(ctx, keyUnlockedLimit, baseLimit); err != nil { return err }
    if err := l.kv.Set(ctx, keyPortfolio, "[]"); err != nil { return err }
    return l.kv.Set(ctx, keySellRecords, "[]")
}

func (l *Ledger) loadDecimal(ctx context.Context, key string) (decimal.Decimal, error) {
    raw, ok, err := l.kv.Get(ctx, key)
    if err != nil { return decimal.Zero, err }
    if !ok {
        return decimal.Zero, fmt.Errorf("ledger key %s missing", key)
    }
    d, err := decimal.NewFromString(raw)
    if err != nil {
        return decimal.Zero, fmt.Errorf("ledger key %s corrupt: %w", key, err)
    }
    return d, nil
}

func (l *Ledger) saveDecimal(ctx context.Context, key string, d decimal.Decimal) error {
    return l.kv.Set(ctx, key, d.String())
}

func (l *Ledger) loadPositions(ctx context.Context) ([]Position, error) {
    raw, ok, err := l.kv.Get(ctx, keyPortfolio)
    if err != nil { return nil, err }
    if !ok { return []Position{}, nil }
    var out []Position
    if err := json.Unmarshal([]byte(raw), &out); err != nil {
        return nil, fmt.Errorf("portfolio corrupt: %w", err)
    }
    return out, nil
}

func (l *Ledger) savePositions(ctx context.Context, positions []Position) error {
    b, err := json.Marshal(positions)
    if err != nil { return err }
    return l.kv.Set(ctx, keyPortfolio, string(b))
}

func (l *Ledger) loadRecords(ctx context.Context) ([]SellRecord, error) {
    raw, ok, err := l.kv.Get(ctx, keySellRecords)
    if err != nil { return nil, err }
    if !ok { return []SellRecord{}, nil }
    var out []SellRecord
    if err := json.Unmarshal([]byte(raw), &out); err != nil {
        return nil, fmt.Errorf("sell records corrupt: %w", err)
    }
    return out, nil
}

func (l *Ledger) saveRecords(ctx context.Context, records []SellRecord) error {
    b, err := json.Marshal(records)
    if err != nil { return err }
    return l.kv.Set(ctx, keySellRecords, string(b))
}
