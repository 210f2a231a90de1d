package quotecache

import (
    "context"
    "encoding/json"
    "strings"
    "time"

    "stocksim/internal/provider"
    "stocksim/internal/store"
)

// keyPrefix namespaces cache entries inside the shared KV store.
const keyPrefix = "stock_cache_"

// maxAge is how long a cached quote stays servable.
const maxAge = 365 * 24 * time.Hour

// Cache persists the last known quote per stock code so the service can
// serve stale data when every live fetch fails. Entries that fail to parse
// are treated as corrupt and deleted, never surfaced.
type Cache struct {
    kv  store.KV
    now func() time.Time
}

func New(kv store.KV) *Cache {
    return &Cache{kv: kv, now: time.Now}
}

// Save stamps the quote with the current time and persists it, then purges
// expired entries opportunistically. A purge failure does not fail the save.
func (c *Cache) Save(ctx context.Context, code string, q provider.Quote) error {
    q.CachedAt = c.now()
    b, err := json.Marshal(q)
    if err != nil { return err }
    if err := c.kv.Set(ctx, keyPrefix+code, string(b)); err != nil {
        return err
    }
    c.PurgeExpired(ctx)
    return nil
}

// Load returns the cached quote for code, or ok=false if absent or corrupt.
// Corrupt entries are deleted on the way out.
func (c *Cache) Load(ctx context.Context, code string) (provider.Quote, bool, error) {
    raw, ok, err := c.kv.Get(ctx, keyPrefix+code)
    if err != nil || !ok {
        return provider.Quote{}, false, err
    }
    var q provider.Quote
    if err := json.Unmarshal([]byte(raw), &q); err != nil {
        c.kv.Remove(ctx, keyPrefix+code)
        return provider.Quote{}, false, nil
    }
    return q, true, nil
}

// PurgeExpired removes entries older than maxAge and entries whose payload
// no longer parses. It returns the number of removed entries and is
// idempotent: a second call right after the first removes nothing.
func (c *Cache) PurgeExpired(ctx context.Context) (int, error) {
    keys, err := c.kv.Keys(ctx)
    if err != nil { return 0, err }
    cutoff := c.now().Add(-maxAge)
    removed := 0
    for _, k := range keys {
        if !strings.HasPrefix(k, keyPrefix) { continue }
        raw, ok, err := c.kv.Get(ctx, k)
        if err != nil || !ok { continue }
        var q provider.Quote
        if err := json.Unmarshal([]byte(raw), &q); err != nil {
            if c.kv.Remove(ctx, k) == nil { removed++ }
            continue
        }
        if q.CachedAt.Before(cutoff) {
            if c.kv.Remove(ctx, k) == nil { removed++ }
        }
    }
    return removed, nil
}
