package quant

import (
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
)

// Fixed-point scales used across the system.
// Prices carry 6 decimals (quote asset is USDC-like, 6 decimals on chain).
// Quantities carry 9 decimals (base assets on the venue use 9 decimals).
const (
	PriceScale = 1_000_000
	QtyScale   = 1_000_000_000
)

// PriceMicros is a price in millionths of the quote asset.
type PriceMicros int64

// QtyNanos is a base-asset quantity in billionths of a token.
type QtyNanos int64

// TimeStamp is Unix time in microseconds.
type TimeStamp int64

var priceScaleDec = decimal.NewFromInt(PriceScale)
var qtyScaleDec = decimal.NewFromInt(QtyScale)

// Decimal converts a PriceMicros to a human-unit decimal price.
func (p PriceMicros) Decimal() decimal.Decimal {
	return decimal.NewFromInt(int64(p)).Div(priceScaleDec)
}

// Tokens converts a QtyNanos to a human-unit token quantity.
func (q QtyNanos) Tokens() decimal.Decimal {
	return decimal.NewFromInt(int64(q)).Div(qtyScaleDec)
}

// PriceFromDecimal converts a human-unit price to PriceMicros, truncating
// anything below micro precision.
func PriceFromDecimal(d decimal.Decimal) PriceMicros {
	return PriceMicros(d.Mul(priceScaleDec).IntPart())
}

// QtyFromDecimal converts a human-unit token quantity to QtyNanos.
func QtyFromDecimal(d decimal.Decimal) QtyNanos {
	return QtyNanos(d.Mul(qtyScaleDec).IntPart())
}

// ToPriceMicrosStr parses a venue price string into PriceMicros.
// Returns 0 on malformed input (boundary data is best-effort).
func ToPriceMicrosStr(s string) PriceMicros {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0
	}
	return PriceFromDecimal(d)
}

// ToQtyNanosStr parses a venue quantity string into QtyNanos.
func ToQtyNanosStr(s string) QtyNanos {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0
	}
	return QtyFromDecimal(d)
}

// Now returns the current time as a TimeStamp.
func Now() TimeStamp {
	return TimeStamp(time.Now().UnixMicro())
}

// NextSeq atomically increments and returns the next sequence number.
func NextSeq(seq *uint64) uint64 {
	return atomic.AddUint64(seq, 1)
}
