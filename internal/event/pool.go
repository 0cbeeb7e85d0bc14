package event

import (
	"sync"
)

// sync.Pool recycling for high-frequency event allocation. Placed and filled
// events dominate the stream; expired events are rare enough to allocate.
//
// Usage:
//
//	ev := AcquireOrderPlacedEvent()
//	ev.PoolID = "0x..."
//	// ... hand off or process ...
//	ReleaseOrderPlacedEvent(ev)  // Return to pool after processing
var orderPlacedPool = sync.Pool{
	New: func() interface{} {
		return &OrderPlacedEvent{}
	},
}

// AcquireOrderPlacedEvent gets an OrderPlacedEvent from the pool.
// The returned event has zero values and must be initialized.
func AcquireOrderPlacedEvent() *OrderPlacedEvent {
	return orderPlacedPool.Get().(*OrderPlacedEvent)
}

// ReleaseOrderPlacedEvent returns an OrderPlacedEvent to the pool.
// The event is reset to zero values before being pooled.
func ReleaseOrderPlacedEvent(ev *OrderPlacedEvent) {
	if ev == nil {
		return
	}
	ev.Seq = 0
	ev.Ts = 0
	ev.PoolID = ""
	ev.OrderID = ""
	ev.Price = 0
	ev.Quantity = 0
	ev.IsBid = false

	orderPlacedPool.Put(ev)
}

// OrderFilledEvent pool
var orderFilledPool = sync.Pool{
	New: func() interface{} {
		return &OrderFilledEvent{}
	},
}

// AcquireOrderFilledEvent gets an OrderFilledEvent from the pool.
func AcquireOrderFilledEvent() *OrderFilledEvent {
	return orderFilledPool.Get().(*OrderFilledEvent)
}

// ReleaseOrderFilledEvent returns an OrderFilledEvent to the pool.
func ReleaseOrderFilledEvent(ev *OrderFilledEvent) {
	if ev == nil {
		return
	}
	ev.Seq = 0
	ev.Ts = 0
	ev.PoolID = ""
	ev.OrderID = ""
	ev.Price = 0
	ev.Quantity = 0
	ev.TakerIsBid = false

	orderFilledPool.Put(ev)
}

// Warmup pre-allocates event objects to reduce GC pressure at startup.
// It acquires and releases a batch of events.
func Warmup() {
	const batchSize = 1000

	placedEvs := make([]*OrderPlacedEvent, 0, batchSize)
	for i := 0; i < batchSize; i++ {
		placedEvs = append(placedEvs, AcquireOrderPlacedEvent())
	}
	for _, ev := range placedEvs {
		ReleaseOrderPlacedEvent(ev)
	}

	filledEvs := make([]*OrderFilledEvent, 0, batchSize)
	for i := 0; i < batchSize; i++ {
		filledEvs = append(filledEvs, AcquireOrderFilledEvent())
	}
	for _, ev := range filledEvs {
		ReleaseOrderFilledEvent(ev)
	}
}
