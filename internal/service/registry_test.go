package service

import (
	"testing"

	"floorguard/internal/domain"
)

func testBinding(poolID, vaultID string) *domain.PoolBinding {
	return &domain.PoolBinding{
		PoolID:           poolID,
		VaultID:          vaultID,
		BalanceManagerID: "bm-1",
		CoinType:         "0x2::rwa::GOLD",
		FloorPrice:       1_000_000,
	}
}

func TestRegistry_RegisterAndLookup(t *testing.T) {
	r := NewPoolRegistry()

	got, err := r.RegisterPool(testBinding("pool-1", "vault-1"))
	if err != nil {
		t.Fatalf("RegisterPool failed: %v", err)
	}
	if got.RegisteredAt.IsZero() {
		t.Error("RegisteredAt should be stamped on first registration")
	}

	byPool, ok := r.GetVaultByPoolID("pool-1")
	if !ok {
		t.Fatal("pool-1 should exist")
	}
	if byPool.VaultID != "vault-1" {
		t.Errorf("expected vault-1, got %s", byPool.VaultID)
	}

	byVault, ok := r.GetPoolByVaultID("vault-1")
	if !ok {
		t.Fatal("reverse lookup should find vault-1")
	}
	if byVault.PoolID != "pool-1" {
		t.Errorf("expected pool-1, got %s", byVault.PoolID)
	}

	if _, ok := r.GetVaultByPoolID("nope"); ok {
		t.Error("unknown pool should be absent")
	}
}

func TestRegistry_ReRegistrationPreservesCounters(t *testing.T) {
	r := NewPoolRegistry()

	if _, err := r.RegisterPool(testBinding("pool-1", "vault-1")); err != nil {
		t.Fatalf("RegisterPool failed: %v", err)
	}
	if err := r.RecordBuyback("pool-1", 3_000_000, 950_000); err != nil {
		t.Fatalf("RecordBuyback failed: %v", err)
	}

	// Re-register with a new floor: policy replaced, counters kept.
	updated := testBinding("pool-1", "vault-1")
	updated.FloorPrice = 2_000_000
	got, err := r.RegisterPool(updated)
	if err != nil {
		t.Fatalf("re-registration failed: %v", err)
	}

	if got.FloorPrice != 2_000_000 {
		t.Errorf("policy should be overwritten, floor = %d", got.FloorPrice)
	}
	if got.BuybackCount != 1 {
		t.Errorf("counters should survive re-registration, count = %d", got.BuybackCount)
	}
	if got.TotalBuybackMicros != 3_000_000 {
		t.Errorf("total should survive re-registration, got %d", got.TotalBuybackMicros)
	}
}

func TestRegistry_VaultUniqueness(t *testing.T) {
	r := NewPoolRegistry()

	if _, err := r.RegisterPool(testBinding("pool-1", "vault-1")); err != nil {
		t.Fatalf("RegisterPool failed: %v", err)
	}

	// A second pool on the same vault is rejected.
	if _, err := r.RegisterPool(testBinding("pool-2", "vault-1")); err != domain.ErrVaultTaken {
		t.Errorf("expected ErrVaultTaken, got %v", err)
	}

	// Moving an existing pool to a fresh vault updates the reverse index.
	moved := testBinding("pool-1", "vault-2")
	if _, err := r.RegisterPool(moved); err != nil {
		t.Fatalf("vault move failed: %v", err)
	}
	if _, ok := r.GetPoolByVaultID("vault-1"); ok {
		t.Error("vault-1 should be free after the move")
	}
	if b, ok := r.GetPoolByVaultID("vault-2"); !ok || b.PoolID != "pool-1" {
		t.Error("vault-2 should now resolve to pool-1")
	}
}

func TestRegistry_InsertionOrder(t *testing.T) {
	r := NewPoolRegistry()

	for _, id := range []string{"pool-c", "pool-a", "pool-b"} {
		if _, err := r.RegisterPool(testBinding(id, "vault-"+id)); err != nil {
			t.Fatalf("RegisterPool %s failed: %v", id, err)
		}
	}

	all := r.GetAllPools()
	if len(all) != 3 {
		t.Fatalf("expected 3 pools, got %d", len(all))
	}
	if all[0].PoolID != "pool-c" || all[1].PoolID != "pool-a" || all[2].PoolID != "pool-b" {
		t.Errorf("not insertion order: %s, %s, %s", all[0].PoolID, all[1].PoolID, all[2].PoolID)
	}
}

func TestRegistry_RecordBuybackUnknownPool(t *testing.T) {
	r := NewPoolRegistry()

	err := r.RecordBuyback("ghost", 1_000_000, 0)
	if err == nil {
		t.Fatal("expected NotFoundError for unknown pool")
	}
	if !domain.IsNotFound(err) {
		t.Errorf("expected NotFoundError, got %T", err)
	}
}

func TestRegistry_Stats(t *testing.T) {
	r := NewPoolRegistry()

	actionable := testBinding("pool-1", "vault-1")
	watchOnly := testBinding("pool-2", "vault-2")
	watchOnly.BalanceManagerID = ""

	if _, err := r.RegisterPool(actionable); err != nil {
		t.Fatal(err)
	}
	if _, err := r.RegisterPool(watchOnly); err != nil {
		t.Fatal(err)
	}
	if err := r.RecordBuyback("pool-1", 2_500_000, 990_000); err != nil {
		t.Fatal(err)
	}

	stats := r.GetStats()
	if stats.TotalPools != 2 {
		t.Errorf("TotalPools = %d, want 2", stats.TotalPools)
	}
	if stats.ActionablePools != 1 {
		t.Errorf("ActionablePools = %d, want 1", stats.ActionablePools)
	}
	if stats.TotalBuybackCount != 1 {
		t.Errorf("TotalBuybackCount = %d, want 1", stats.TotalBuybackCount)
	}
	if stats.TotalBuybackMicros != 2_500_000 {
		t.Errorf("TotalBuybackMicros = %d, want 2500000", stats.TotalBuybackMicros)
	}
}

func TestRegistry_ExecutionLog(t *testing.T) {
	r := NewPoolRegistry()

	r.AppendExecution(&domain.BuybackExecution{PoolID: "pool-1", Status: domain.ExecStatusExecuted})
	r.AppendExecution(&domain.BuybackExecution{PoolID: "pool-2", Status: domain.ExecStatusFailed})
	r.AppendExecution(&domain.BuybackExecution{PoolID: "pool-1", Status: domain.ExecStatusPartial})

	all := r.Executions("")
	if len(all) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(all))
	}

	// Mutating the returned slice must not touch the log.
	all[0].Status = "tampered"
	if r.Executions("")[0].Status != domain.ExecStatusExecuted {
		t.Error("execution log entries must be immutable to callers")
	}

	filtered := r.Executions("pool-1")
	if len(filtered) != 2 {
		t.Errorf("expected 2 entries for pool-1, got %d", len(filtered))
	}
}

// memStore records binding writes for persistence assertions.
type memStore struct {
	saved   map[string]domain.PoolBinding
	deleted []string
}

func newMemStore() *memStore {
	return &memStore{saved: make(map[string]domain.PoolBinding)}
}

func (m *memStore) SavePool(b *domain.PoolBinding) error {
	m.saved[b.PoolID] = *b
	return nil
}

func (m *memStore) DeletePool(poolID string) error {
	m.deleted = append(m.deleted, poolID)
	return nil
}

func TestRegistry_WritesThroughToStore(t *testing.T) {
	store := newMemStore()
	r := NewPersistentPoolRegistry(store)

	if _, err := r.RegisterPool(testBinding("pool-1", "vault-1")); err != nil {
		t.Fatalf("RegisterPool failed: %v", err)
	}
	saved, ok := store.saved["pool-1"]
	if !ok {
		t.Fatal("registration should persist the binding")
	}
	if saved.VaultID != "vault-1" || saved.BuybackCount != 0 {
		t.Errorf("persisted snapshot = %+v", saved)
	}

	if err := r.RecordBuyback("pool-1", 4_000_000, 970_000); err != nil {
		t.Fatalf("RecordBuyback failed: %v", err)
	}
	saved = store.saved["pool-1"]
	if saved.BuybackCount != 1 || saved.TotalBuybackMicros != 4_000_000 {
		t.Errorf("counters not persisted: %+v", saved)
	}
	if saved.LastTradePrice != 970_000 {
		t.Errorf("LastTradePrice not persisted: %d", saved.LastTradePrice)
	}

	if !r.UnregisterPool("pool-1") {
		t.Fatal("UnregisterPool should report true for a registered pool")
	}
	if len(store.deleted) != 1 || store.deleted[0] != "pool-1" {
		t.Errorf("deleted = %v, want [pool-1]", store.deleted)
	}
}

func TestRegistry_UnregisterFreesVault(t *testing.T) {
	r := NewPoolRegistry()

	if _, err := r.RegisterPool(testBinding("pool-1", "vault-1")); err != nil {
		t.Fatal(err)
	}
	if !r.UnregisterPool("pool-1") {
		t.Fatal("UnregisterPool should remove the binding")
	}
	if r.UnregisterPool("pool-1") {
		t.Error("second UnregisterPool should report false")
	}
	if _, ok := r.GetVaultByPoolID("pool-1"); ok {
		t.Error("pool should be gone after unregister")
	}

	// The vault is free for a different pool now.
	if _, err := r.RegisterPool(testBinding("pool-2", "vault-1")); err != nil {
		t.Errorf("vault should be reusable after unregister: %v", err)
	}
	all := r.GetAllPools()
	if len(all) != 1 || all[0].PoolID != "pool-2" {
		t.Errorf("GetAllPools = %+v", all)
	}
}
