package event

import "floorguard/pkg/quant"

// Event type tags.
const (
	TypeOrderPlaced  = "ORDER_PLACED"
	TypeOrderFilled  = "ORDER_FILLED"
	TypeOrderExpired = "ORDER_EXPIRED"
)

// Event is an order-lifecycle observation from the venue stream.
type Event interface {
	GetSeq() uint64
	GetType() string
	GetTs() quant.TimeStamp
}

// OrderPlacedEvent is a new resting order on one of the watched pools.
type OrderPlacedEvent struct {
	Seq      uint64
	Ts       quant.TimeStamp
	PoolID   string
	OrderID  string
	Price    quant.PriceMicros
	Quantity quant.QtyNanos
	IsBid    bool
}

func (e *OrderPlacedEvent) GetSeq() uint64         { return e.Seq }
func (e *OrderPlacedEvent) GetType() string        { return TypeOrderPlaced }
func (e *OrderPlacedEvent) GetTs() quant.TimeStamp { return e.Ts }

// OrderFilledEvent is a trade against a resting order. TakerIsBid tells which
// side initiated: a false value means a seller hit the book and the price is
// the one the market just accepted on the way down.
type OrderFilledEvent struct {
	Seq        uint64
	Ts         quant.TimeStamp
	PoolID     string
	OrderID    string // maker order id, may be present in the order cache
	Price      quant.PriceMicros
	Quantity   quant.QtyNanos
	TakerIsBid bool
}

func (e *OrderFilledEvent) GetSeq() uint64         { return e.Seq }
func (e *OrderFilledEvent) GetType() string        { return TypeOrderFilled }
func (e *OrderFilledEvent) GetTs() quant.TimeStamp { return e.Ts }

// OrderExpiredEvent is a cancel or expiry of a resting order.
type OrderExpiredEvent struct {
	Seq     uint64
	Ts      quant.TimeStamp
	PoolID  string
	OrderID string
}

func (e *OrderExpiredEvent) GetSeq() uint64         { return e.Seq }
func (e *OrderExpiredEvent) GetType() string        { return TypeOrderExpired }
func (e *OrderExpiredEvent) GetTs() quant.TimeStamp { return e.Ts }
