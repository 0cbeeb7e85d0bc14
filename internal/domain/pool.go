package domain

import (
	"time"

	"floorguard/pkg/quant"
)

// PoolBinding ties a venue pool to the custodial vault backing its asset,
// together with the floor-price policy and running buyback counters.
type PoolBinding struct {
	PoolID           string            `gorm:"primaryKey" json:"pool_id"`
	VaultID          string            `gorm:"index" json:"vault_id"`
	BalanceManagerID string            `json:"balance_manager_id"` // empty = monitor only, buyback disabled
	CoinType         string            `json:"coin_type"`
	Owner            string            `json:"owner"`
	FloorPrice       quant.PriceMicros `json:"floor_price"`
	MinBuybackMicros int64             `json:"min_buyback_micros"` // 0 = fall back to the global minimum

	// Running state, updated after each execution.
	LastTradePrice     quant.PriceMicros `json:"last_trade_price"`
	BuybackCount       int64             `json:"buyback_count"`
	TotalBuybackMicros int64             `json:"total_buyback_micros"`

	RegisteredAt time.Time `json:"registered_at"`
}

// Actionable reports whether the binding can fund a corrective order on its
// own. A binding without a balance manager is watchable but not actionable
// unless a global fallback manager is configured.
func (b *PoolBinding) Actionable() bool {
	return b.BalanceManagerID != ""
}

// PolicyFrom overwrites the policy fields from another binding while keeping
// the running counters and registration time intact. Used on re-registration.
func (b *PoolBinding) PolicyFrom(in *PoolBinding) {
	b.VaultID = in.VaultID
	b.BalanceManagerID = in.BalanceManagerID
	b.CoinType = in.CoinType
	b.Owner = in.Owner
	b.FloorPrice = in.FloorPrice
	b.MinBuybackMicros = in.MinBuybackMicros
}

// RegistryStats is an aggregate snapshot of the registry.
type RegistryStats struct {
	TotalPools         int   `json:"total_pools"`
	ActionablePools    int   `json:"actionable_pools"`
	TotalBuybackCount  int64 `json:"total_buyback_count"`
	TotalBuybackMicros int64 `json:"total_buyback_micros"`
}
