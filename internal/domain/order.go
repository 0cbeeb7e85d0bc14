package domain

import (
	"time"

	"floorguard/pkg/quant"
)

// CachedOrder is a recently observed resting order, kept so a later fill
// event can recover the size and side context of the order it matched.
type CachedOrder struct {
	OrderID  string
	PoolID   string
	Price    quant.PriceMicros
	Quantity quant.QtyNanos
	IsBid    bool
	CachedAt time.Time
}

const (
	SideBuy  = "BUY"
	SideSell = "SELL"
)

// OrderRequest describes a corrective order to be submitted to the venue.
type OrderRequest struct {
	ClientOrderID  string
	PoolID         string
	BalanceManager string
	CoinType       string
	Side           string
	Price          quant.PriceMicros
	Quantity       quant.QtyNanos
	ImmediateOnly  bool // IOC: fill what is available, cancel the rest
}

// OrderResult is the venue's answer to a submitted order.
type OrderResult struct {
	Digest    string
	Succeeded bool   // platform-level transaction status
	ErrorMsg  string // platform error detail when Succeeded is false
	Fills     []Fill
}

// Fill is one fill emitted by the venue for a submitted order.
type Fill struct {
	Price    quant.PriceMicros
	Quantity quant.QtyNanos
	IsBid    bool
}

// OrderBookLevel is one price level of a pool's resting-order snapshot.
type OrderBookLevel struct {
	Price    quant.PriceMicros `json:"price"`
	Quantity quant.QtyNanos    `json:"quantity"`
}

// OrderBook is a read-only snapshot of a pool's resting orders.
type OrderBook struct {
	PoolID string           `json:"pool_id"`
	Bids   []OrderBookLevel `json:"bids"`
	Asks   []OrderBookLevel `json:"asks"`
}

// PoolMeta is the venue-side metadata of a pool.
type PoolMeta struct {
	PoolID        string `json:"pool_id"`
	BaseCoinType  string `json:"base_coin_type"`
	QuoteCoinType string `json:"quote_coin_type"`
	TickSize      int64  `json:"tick_size"`
	LotSize       int64  `json:"lot_size"`
}
