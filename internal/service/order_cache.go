package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"floorguard/internal/domain"
)

// OrderCache is a time-bounded cache of recently observed orders, keyed by
// order id. The listener records placements, then recovers size and side
// context when a fill arrives. A missing entry only degrades the executor to
// its fallback sizing; it never fails the flow. Entries are removed by
// explicit sweeps, memory bounding only.
type OrderCache struct {
	mu     sync.RWMutex
	orders map[string]*domain.CachedOrder
}

// NewOrderCache creates an empty cache.
func NewOrderCache() *OrderCache {
	return &OrderCache{
		orders: make(map[string]*domain.CachedOrder),
	}
}

// RecordOrder inserts or overwrites an entry. Entries missing an order id,
// pool id, or price are rejected with ErrInvalidOrder.
func (c *OrderCache) RecordOrder(o domain.CachedOrder) error {
	if o.OrderID == "" || o.PoolID == "" || o.Price == 0 {
		return domain.ErrInvalidOrder
	}
	if o.CachedAt.IsZero() {
		o.CachedAt = time.Now()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.orders[o.OrderID] = &o
	return nil
}

// GetCachedOrder returns a copy of the entry for an order id.
func (c *OrderCache) GetCachedOrder(orderID string) (*domain.CachedOrder, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	o, ok := c.orders[orderID]
	if !ok {
		return nil, false
	}
	out := *o
	return &out, true
}

// Remove drops a single entry, e.g. when the venue reports it expired.
func (c *OrderCache) Remove(orderID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.orders, orderID)
}

// Len returns the current entry count.
func (c *OrderCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.orders)
}

// CleanOldOrders removes every entry older than maxAge and returns how many
// were removed.
func (c *OrderCache) CleanOldOrders(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for id, o := range c.orders {
		if !o.CachedAt.After(cutoff) {
			delete(c.orders, id)
			removed++
		}
	}
	return removed
}

// StartSweeper runs periodic CleanOldOrders sweeps until ctx is cancelled.
func (c *OrderCache) StartSweeper(ctx context.Context, interval, maxAge time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if removed := c.CleanOldOrders(maxAge); removed > 0 {
					slog.Debug("Order cache swept", slog.Int("removed", removed), slog.Int("remaining", c.Len()))
				}
			}
		}
	}()
}
