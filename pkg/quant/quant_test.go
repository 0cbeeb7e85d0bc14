package quant

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestPriceMicrosRoundTrip(t *testing.T) {
	p := PriceMicros(980_000)
	if p.Decimal().String() != "0.98" {
		t.Errorf("Decimal = %s, want 0.98", p.Decimal().String())
	}

	back := PriceFromDecimal(decimal.NewFromFloat(0.98))
	if back != p {
		t.Errorf("round trip = %d, want %d", back, p)
	}
}

func TestQtyNanosTokens(t *testing.T) {
	q := QtyNanos(5_000_000_000)
	if !q.Tokens().Equal(decimal.NewFromInt(5)) {
		t.Errorf("Tokens = %s, want 5", q.Tokens().String())
	}
}

func TestStringParsing(t *testing.T) {
	if got := ToPriceMicrosStr("1.5"); got != 1_500_000 {
		t.Errorf("ToPriceMicrosStr = %d, want 1500000", got)
	}
	if got := ToQtyNanosStr("2.25"); got != 2_250_000_000 {
		t.Errorf("ToQtyNanosStr = %d, want 2250000000", got)
	}

	// Malformed boundary data parses to zero rather than failing.
	if got := ToPriceMicrosStr("garbage"); got != 0 {
		t.Errorf("malformed input = %d, want 0", got)
	}
}

func TestTruncationBelowScale(t *testing.T) {
	// Sub-micro precision is truncated, not rounded.
	p := PriceFromDecimal(decimal.RequireFromString("0.9999999"))
	if p != 999_999 {
		t.Errorf("truncation = %d, want 999999", p)
	}
}

func TestNextSeq(t *testing.T) {
	var seq uint64
	if NextSeq(&seq) != 1 || NextSeq(&seq) != 2 {
		t.Error("NextSeq should count monotonically from 1")
	}
}
