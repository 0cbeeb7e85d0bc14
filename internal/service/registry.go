package service

import (
	"log/slog"
	"sync"
	"time"

	"floorguard/internal/domain"
	"floorguard/pkg/quant"
	"floorguard/pkg/safe"
)

// PoolRegistry is the authoritative table of pool-vault policy bindings and
// the owner of the append-only execution audit log. All access is
// mutex-serialized: RecordBuyback and RegisterPool race on the same keyed
// state when the executor and the control layer run concurrently.
//
// When constructed with a store, registration, counter updates, and removal
// write the binding snapshot through so it survives a restart. Store writes
// happen outside the lock and never fail the in-memory update.
type PoolRegistry struct {
	mu         sync.RWMutex
	pools      map[string]*domain.PoolBinding
	order      []string          // insertion order of pool ids
	vaultIndex map[string]string // vault id -> pool id, exact under the 1:1 invariant
	executions []domain.BuybackExecution

	store domain.BindingStore // nil = in-memory only
}

// NewPoolRegistry creates an empty in-memory registry.
func NewPoolRegistry() *PoolRegistry {
	return &PoolRegistry{
		pools:      make(map[string]*domain.PoolBinding),
		vaultIndex: make(map[string]string),
	}
}

// NewPersistentPoolRegistry creates a registry that writes every binding
// change through to store.
func NewPersistentPoolRegistry(store domain.BindingStore) *PoolRegistry {
	r := NewPoolRegistry()
	r.store = store
	return r
}

// RegisterPool upserts a binding. On first registration the running counters
// start at zero and RegisteredAt is stamped; on re-registration the policy
// fields are overwritten and the counters are preserved. A vault may back at
// most one pool: binding a vault that already backs a different pool returns
// ErrVaultTaken.
func (r *PoolRegistry) RegisterPool(in *domain.PoolBinding) (*domain.PoolBinding, error) {
	r.mu.Lock()

	if holder, taken := r.vaultIndex[in.VaultID]; taken && holder != in.PoolID {
		r.mu.Unlock()
		return nil, domain.ErrVaultTaken
	}

	existing, ok := r.pools[in.PoolID]
	if !ok {
		b := *in
		if b.RegisteredAt.IsZero() {
			b.RegisteredAt = time.Now()
		}
		b.BuybackCount = 0
		b.TotalBuybackMicros = 0
		r.pools[b.PoolID] = &b
		r.order = append(r.order, b.PoolID)
		r.vaultIndex[b.VaultID] = b.PoolID
		out := b
		r.mu.Unlock()

		r.persist(&out)
		return &out, nil
	}

	// Re-registration may move the binding to a new vault.
	if existing.VaultID != in.VaultID {
		delete(r.vaultIndex, existing.VaultID)
		r.vaultIndex[in.VaultID] = in.PoolID
	}
	existing.PolicyFrom(in)
	out := *existing
	r.mu.Unlock()

	r.persist(&out)
	return &out, nil
}

// UnregisterPool removes a binding and its persisted snapshot, freeing the
// vault for a new binding. The audit log keeps its records. Reports whether
// the pool was registered.
func (r *PoolRegistry) UnregisterPool(poolID string) bool {
	r.mu.Lock()
	b, ok := r.pools[poolID]
	if !ok {
		r.mu.Unlock()
		return false
	}
	delete(r.pools, poolID)
	delete(r.vaultIndex, b.VaultID)
	for i, id := range r.order {
		if id == poolID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	r.mu.Unlock()

	if r.store != nil {
		if err := r.store.DeletePool(poolID); err != nil {
			slog.Warn("Failed to delete persisted binding", slog.String("pool", poolID), slog.Any("error", err))
		}
	}
	return true
}

// GetVaultByPoolID returns a copy of the binding for a pool.
func (r *PoolRegistry) GetVaultByPoolID(poolID string) (*domain.PoolBinding, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.pools[poolID]
	if !ok {
		return nil, false
	}
	out := *b
	return &out, true
}

// GetPoolByVaultID is the reverse lookup. Exact because RegisterPool enforces
// one pool per vault.
func (r *PoolRegistry) GetPoolByVaultID(vaultID string) (*domain.PoolBinding, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	poolID, ok := r.vaultIndex[vaultID]
	if !ok {
		return nil, false
	}
	b, ok := r.pools[poolID]
	if !ok {
		return nil, false
	}
	out := *b
	return &out, true
}

// GetAllPools returns copies of all bindings in insertion order.
func (r *PoolRegistry) GetAllPools() []*domain.PoolBinding {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*domain.PoolBinding, 0, len(r.order))
	for _, id := range r.order {
		if b, ok := r.pools[id]; ok {
			out := *b
			result = append(result, &out)
		}
	}
	return result
}

// GetMonitoredPoolIDs returns the set of registered pool ids.
func (r *PoolRegistry) GetMonitoredPoolIDs() map[string]bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make(map[string]bool, len(r.pools))
	for id := range r.pools {
		ids[id] = true
	}
	return ids
}

// RecordBuyback bumps the running counters after an execution spent quote
// collateral. Returns NotFoundError for an unknown pool rather than silently
// dropping the update.
func (r *PoolRegistry) RecordBuyback(poolID string, quoteMicros int64, lastPrice quant.PriceMicros) error {
	r.mu.Lock()

	b, ok := r.pools[poolID]
	if !ok {
		r.mu.Unlock()
		return &domain.NotFoundError{Kind: "pool", ID: poolID}
	}
	b.BuybackCount++
	b.TotalBuybackMicros = safe.SafeAdd(b.TotalBuybackMicros, quoteMicros)
	if lastPrice > 0 {
		b.LastTradePrice = lastPrice
	}
	out := *b
	r.mu.Unlock()

	r.persist(&out)
	return nil
}

// persist writes a binding snapshot through to the store, when one is wired.
func (r *PoolRegistry) persist(b *domain.PoolBinding) {
	if r.store == nil {
		return
	}
	if err := r.store.SavePool(b); err != nil {
		slog.Warn("Failed to persist binding", slog.String("pool", b.PoolID), slog.Any("error", err))
	}
}

// RestoreCounters puts persisted running counters back onto a binding after
// a restart. No-op for an unknown pool.
func (r *PoolRegistry) RestoreCounters(poolID string, count int64, totalMicros int64, lastPrice quant.PriceMicros) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.pools[poolID]
	if !ok {
		return
	}
	b.BuybackCount = count
	b.TotalBuybackMicros = totalMicros
	b.LastTradePrice = lastPrice
}

// AppendExecution appends one audit record. Entries are copied in and never
// mutated afterwards.
func (r *PoolRegistry) AppendExecution(exec *domain.BuybackExecution) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.executions = append(r.executions, *exec)
}

// Executions returns copies of the audit log, newest last. A non-empty
// poolID filters to that pool.
func (r *PoolRegistry) Executions(poolID string) []domain.BuybackExecution {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if poolID == "" {
		out := make([]domain.BuybackExecution, len(r.executions))
		copy(out, r.executions)
		return out
	}
	var out []domain.BuybackExecution
	for _, e := range r.executions {
		if e.PoolID == poolID {
			out = append(out, e)
		}
	}
	return out
}

// GetStats returns an aggregate snapshot.
func (r *PoolRegistry) GetStats() domain.RegistryStats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := domain.RegistryStats{TotalPools: len(r.pools)}
	for _, b := range r.pools {
		if b.Actionable() {
			stats.ActionablePools++
		}
		stats.TotalBuybackCount += b.BuybackCount
		stats.TotalBuybackMicros = safe.SafeAdd(stats.TotalBuybackMicros, b.TotalBuybackMicros)
	}
	return stats
}
