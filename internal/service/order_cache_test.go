package service

import (
	"testing"
	"time"

	"floorguard/internal/domain"
)

func TestOrderCache_RecordAndGet(t *testing.T) {
	c := NewOrderCache()

	err := c.RecordOrder(domain.CachedOrder{
		OrderID:  "ord-1",
		PoolID:   "pool-1",
		Price:    950_000,
		Quantity: 5_000_000_000,
		IsBid:    false,
	})
	if err != nil {
		t.Fatalf("RecordOrder failed: %v", err)
	}

	got, ok := c.GetCachedOrder("ord-1")
	if !ok {
		t.Fatal("ord-1 should be cached")
	}
	if got.Quantity != 5_000_000_000 {
		t.Errorf("Quantity = %d, want 5000000000", got.Quantity)
	}
	if got.CachedAt.IsZero() {
		t.Error("CachedAt should be stamped")
	}

	if _, ok := c.GetCachedOrder("ghost"); ok {
		t.Error("unknown order should be absent")
	}
}

func TestOrderCache_RejectsMissingFields(t *testing.T) {
	c := NewOrderCache()

	cases := []struct {
		name  string
		order domain.CachedOrder
	}{
		{"no order id", domain.CachedOrder{PoolID: "pool-1", Price: 100}},
		{"no pool id", domain.CachedOrder{OrderID: "ord-1", Price: 100}},
		{"no price", domain.CachedOrder{OrderID: "ord-1", PoolID: "pool-1"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := c.RecordOrder(tc.order); err != domain.ErrInvalidOrder {
				t.Errorf("expected ErrInvalidOrder, got %v", err)
			}
		})
	}

	if c.Len() != 0 {
		t.Errorf("rejected entries must not be inserted, len = %d", c.Len())
	}
}

func TestOrderCache_Overwrite(t *testing.T) {
	c := NewOrderCache()

	first := domain.CachedOrder{OrderID: "ord-1", PoolID: "pool-1", Price: 100_000, Quantity: 1}
	second := domain.CachedOrder{OrderID: "ord-1", PoolID: "pool-1", Price: 200_000, Quantity: 2}

	if err := c.RecordOrder(first); err != nil {
		t.Fatal(err)
	}
	if err := c.RecordOrder(second); err != nil {
		t.Fatal(err)
	}

	got, _ := c.GetCachedOrder("ord-1")
	if got.Price != 200_000 {
		t.Errorf("overwrite should win, price = %d", got.Price)
	}
	if c.Len() != 1 {
		t.Errorf("len = %d, want 1", c.Len())
	}
}

func TestOrderCache_CleanOldOrders(t *testing.T) {
	c := NewOrderCache()

	if err := c.RecordOrder(domain.CachedOrder{OrderID: "ord-1", PoolID: "pool-1", Price: 100}); err != nil {
		t.Fatal(err)
	}

	// A zero max age evicts everything inserted before the sweep.
	removed := c.CleanOldOrders(0)
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	if _, ok := c.GetCachedOrder("ord-1"); ok {
		t.Error("ord-1 should be evicted")
	}
}

func TestOrderCache_CleanKeepsFreshEntries(t *testing.T) {
	c := NewOrderCache()

	stale := domain.CachedOrder{
		OrderID:  "stale",
		PoolID:   "pool-1",
		Price:    100,
		CachedAt: time.Now().Add(-2 * time.Hour),
	}
	fresh := domain.CachedOrder{OrderID: "fresh", PoolID: "pool-1", Price: 100}

	if err := c.RecordOrder(stale); err != nil {
		t.Fatal(err)
	}
	if err := c.RecordOrder(fresh); err != nil {
		t.Fatal(err)
	}

	removed := c.CleanOldOrders(time.Hour)
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	if _, ok := c.GetCachedOrder("fresh"); !ok {
		t.Error("fresh entry should survive the sweep")
	}
}

func TestOrderCache_Remove(t *testing.T) {
	c := NewOrderCache()

	if err := c.RecordOrder(domain.CachedOrder{OrderID: "ord-1", PoolID: "pool-1", Price: 100}); err != nil {
		t.Fatal(err)
	}
	c.Remove("ord-1")
	if _, ok := c.GetCachedOrder("ord-1"); ok {
		t.Error("ord-1 should be removed")
	}
	// Removing an absent entry is a no-op.
	c.Remove("ghost")
}
