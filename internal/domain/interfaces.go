package domain

import "context"

// ExchangeClient abstracts the venue: order submission from a named balance
// manager, pool metadata, order books, balances, and historical fills.
// The real implementation lives in infra/deepbook.
type ExchangeClient interface {
	PlaceOrder(ctx context.Context, req OrderRequest) (*OrderResult, error)
	GetPool(ctx context.Context, poolID string) (*PoolMeta, error)
	GetOrderBook(ctx context.Context, poolID string) (*OrderBook, error)
	GetBalances(ctx context.Context, balanceManager string) (map[string]QtyBalance, error)
	QueryFills(ctx context.Context, poolID string, limit int) ([]Fill, error)
}

// QtyBalance is one coin balance held by a balance manager.
type QtyBalance struct {
	CoinType string `json:"coin_type"`
	Raw      int64  `json:"raw"`
}

// TriggerSink receives floor-breach triggers from the listener. Supplied at
// construction so the listener-executor dependency is visible in the types
// rather than a mutable callback field.
type TriggerSink interface {
	Submit(t Trigger)
}

// Credential is a loaded signing credential. The concrete ed25519 keypair
// lives in infra/deepbook; the executor only needs to know one is present.
type Credential interface {
	Address() string
	Sign(msg []byte) []byte
}

// BindingStore is the durable side of the registry. Every binding mutation
// is written through so policy and counters survive a restart; write
// failures are logged and never fail the in-memory update.
type BindingStore interface {
	SavePool(binding *PoolBinding) error
	DeletePool(poolID string) error
}

// ExecutionRecorder archives audit records outside the in-process log.
// The registry's in-memory log stays authoritative; archival failures are
// logged and never fail the execution flow.
type ExecutionRecorder interface {
	RecordExecution(exec *BuybackExecution) error
}
