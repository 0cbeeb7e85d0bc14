package domain

import (
	"time"

	"github.com/shopspring/decimal"

	"floorguard/pkg/quant"
)

// Execution status values. An entry is written once and never mutated;
// the full sequence is the audit trail.
const (
	ExecStatusExecuted  = "executed"  // submission succeeded and a fill was observed
	ExecStatusPartial   = "partial"   // submission succeeded but no fill event came back
	ExecStatusFailed    = "failed"    // submission failed at the platform level, or errored
	ExecStatusSimulated = "simulated" // dry-run, nothing was submitted
)

// BuybackExecution is one append-only audit record of a defense attempt that
// reached the submission phase.
type BuybackExecution struct {
	ID           uint              `gorm:"primaryKey;autoIncrement" json:"id"`
	PoolID       string            `gorm:"index" json:"pool_id"`
	VaultID      string            `json:"vault_id"`
	CurrentPrice quant.PriceMicros `json:"current_price"`
	FloorPrice   quant.PriceMicros `json:"floor_price"`
	Quantity     decimal.Decimal   `gorm:"type:text" json:"quantity"`    // human tokens
	UsdcAmount   decimal.Decimal   `gorm:"type:text" json:"usdc_amount"` // human quote units
	Status       string            `gorm:"index" json:"status"`
	Digest       string            `json:"digest,omitempty"`
	Error        string            `json:"error,omitempty"`
	ExecutedAt   time.Time         `json:"executed_at"`
}

// Trigger is what the listener hands the executor when an observed sell-side
// event prices a pool below its floor. OrderQuantity is zero when the
// triggering context carried no concrete fill size.
type Trigger struct {
	PoolID        string
	VaultID       string
	CurrentPrice  quant.PriceMicros
	FloorPrice    quant.PriceMicros
	OrderQuantity quant.QtyNanos
}

// BuybackSizing is the computed defense size for a trigger.
type BuybackSizing struct {
	Quantity     decimal.Decimal `json:"quantity"`      // human tokens
	UsdcAmount   decimal.Decimal `json:"usdc_amount"`   // quantity x current price
	PriceDiffPct decimal.Decimal `json:"price_diff_pct"`
	ExactMatch   bool            `json:"exact_match"` // sized from the triggering order, not the tiers
}

// ExecutionResult is the structured outcome of one ExecuteBuyback call.
// Rejections carry a Reason and no Execution; submission attempts carry the
// audit record that was appended.
type ExecutionResult struct {
	Success   bool              `json:"success"`
	Reason    string            `json:"reason,omitempty"`
	Digest    string            `json:"digest,omitempty"`
	Execution *BuybackExecution `json:"execution,omitempty"`
}
