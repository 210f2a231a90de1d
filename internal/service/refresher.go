package service

import (
    "context"
    "log"
    "sync"
    "time"

    "stocksim/internal/provider"
)

// Refresher re-fetches a watchlist on a fixed interval so the cache stays
// warm between interactive requests. It is an explicit lifecycle object:
// Start spawns the loop, Stop cancels it and waits for it to drain.
type Refresher struct {
    svc      *Service
    interval time.Duration
    codes    []string

    mu     sync.Mutex
    cancel context.CancelFunc
    done   chan struct{}
}

func NewRefresher(svc *Service, interval time.Duration, codes []string) *Refresher {
    if interval <= 0 { interval = 30 * time.Second }
    return &Refresher{svc: svc, interval: interval, codes: codes}
}

// Start launches the refresh loop. Calling Start on a running refresher is
// a no-op. The loop stops when Stop is called or ctx is cancelled.
func (r *Refresher) Start(ctx context.Context) {
    r.mu.Lock()
    defer r.mu.Unlock()
    if r.cancel != nil { return }
    ctx, r.cancel = context.WithCancel(ctx)
    r.done = make(chan struct{})
    go r.loop(ctx)
}

// Stop cancels the loop and blocks until the in-flight cycle finishes.
// Stopping a refresher that never started is a no-op.
func (r *Refresher) Stop() {
    r.mu.Lock()
    cancel, done := r.cancel, r.done
    r.cancel = nil
    r.mu.Unlock()
    if cancel == nil { return }
    cancel()
    <-done
}

func (r *Refresher) loop(ctx context.Context) {
    defer close(r.done)
    ticker := time.NewTicker(r.interval)
    defer ticker.Stop()
    r.refreshAll(ctx)
    for {
        select {
        case <-ctx.Done():
            return
        case <-ticker.C:
            r.refreshAll(ctx)
        }
    }
}

func (r *Refresher) refreshAll(ctx context.Context) {
    for _, code := range r.codes {
        if ctx.Err() != nil { return }
        if _, err := r.svc.GetQuote(ctx, code, provider.PeriodDaily); err != nil {
            log.Printf("refresh %s: %v", code, err)
        }
    }
}
