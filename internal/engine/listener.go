package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"floorguard/internal/domain"
	"floorguard/internal/event"
	"floorguard/internal/infra"
	"floorguard/internal/service"
	"floorguard/pkg/quant"
)

// ManualPool is a pool watched by operator request without a registry
// binding. Observation only: breaches are logged but cannot trigger a
// buyback because there is no vault to fund one.
type ManualPool struct {
	PoolID     string            `json:"pool_id"`
	CoinType   string            `json:"coin_type"`
	FloorPrice quant.PriceMicros `json:"floor_price"` // 0 = no breach logging
	AddedAt    time.Time         `json:"added_at"`
}

// ListenerStatus is a point-in-time view for the control layer.
type ListenerStatus struct {
	Running         bool   `json:"running"`
	WatchedPools    int    `json:"watched_pools"`
	ManualPools     int    `json:"manual_pools"`
	EventsProcessed uint64 `json:"events_processed"`
	TriggersRaised  uint64 `json:"triggers_raised"`
}

// Listener consumes order-lifecycle events for all registered and manually
// added pools, maintains the order cache, and raises a buyback trigger when
// a sell-side event prices a pool below its floor. It only observes and
// compares; whether to act is the executor's decision, so a raised trigger
// must never be assumed to result in an execution.
//
// Events are processed one at a time to completion. Trigger submission does
// not wait for the execution outcome, so the loop keeps consuming while a
// buyback is in flight.
type Listener struct {
	inbox    chan event.Event
	registry *service.PoolRegistry
	cache    *service.OrderCache
	client   domain.ExchangeClient
	sink     domain.TriggerSink

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}

	manualMu sync.RWMutex
	manual   map[string]*ManualPool

	eventsProcessed uint64
	triggersRaised  uint64
}

// NewListener wires a listener to its collaborators. The trigger sink is
// supplied here so the dependency is visible at construction.
func NewListener(inboxSize int, registry *service.PoolRegistry, cache *service.OrderCache, client domain.ExchangeClient, sink domain.TriggerSink) *Listener {
	return &Listener{
		inbox:    make(chan event.Event, inboxSize),
		registry: registry,
		cache:    cache,
		client:   client,
		sink:     sink,
		manual:   make(map[string]*ManualPool),
	}
}

// Inbox returns the event channel. Transport workers send events here.
func (l *Listener) Inbox() chan<- event.Event {
	return l.inbox
}

// Start begins consuming events. Calling Start while already running is a
// no-op.
func (l *Listener) Start(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.running {
		slog.Debug("Listener already running, Start ignored")
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	l.done = make(chan struct{})
	l.running = true

	go l.run(runCtx, l.done)
	slog.Info("Market event listener started")
}

// Stop halts event consumption and waits for the loop to drain the event in
// hand. Calling Stop while stopped is a no-op.
func (l *Listener) Stop() {
	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		slog.Debug("Listener already stopped, Stop ignored")
		return
	}
	l.running = false
	cancel, done := l.cancel, l.done
	l.mu.Unlock()

	cancel()
	<-done
	slog.Info("Market event listener stopped")
}

// IsRunning reports the lifecycle state.
func (l *Listener) IsRunning() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}

func (l *Listener) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-l.inbox:
			l.processEvent(ev)
		}
	}
}

// processEvent handles one event to completion. A single event's processing
// error must never terminate the loop: log and continue.
func (l *Listener) processEvent(ev event.Event) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Event processing panicked", slog.Any("panic", r), slog.String("type", ev.GetType()))
		}
	}()

	l.mu.Lock()
	l.eventsProcessed++
	l.mu.Unlock()
	infra.ObserveEvent(ev.GetType())

	switch e := ev.(type) {
	case *event.OrderPlacedEvent:
		l.handlePlaced(e)
		event.ReleaseOrderPlacedEvent(e)
	case *event.OrderFilledEvent:
		l.handleFilled(e)
		event.ReleaseOrderFilledEvent(e)
	case *event.OrderExpiredEvent:
		l.cache.Remove(e.OrderID)
	default:
		slog.Warn("Unknown event type", slog.String("type", ev.GetType()))
	}
}

func (l *Listener) handlePlaced(e *event.OrderPlacedEvent) {
	if !l.watching(e.PoolID) {
		return // events for unwatched pools are ignored, not errored
	}

	err := l.cache.RecordOrder(domain.CachedOrder{
		OrderID:  e.OrderID,
		PoolID:   e.PoolID,
		Price:    e.Price,
		Quantity: e.Quantity,
		IsBid:    e.IsBid,
	})
	if err != nil {
		slog.Warn("Dropping malformed order event", slog.Any("error", err), slog.String("pool", e.PoolID))
		return
	}

	// A new ask below the floor is sell pressure parked under the defense
	// line; raise before it trades.
	if !e.IsBid {
		l.checkFloor(e.PoolID, e.Price, e.Quantity)
	}
}

func (l *Listener) handleFilled(e *event.OrderFilledEvent) {
	if !l.watching(e.PoolID) {
		return
	}

	qty := e.Quantity
	if qty == 0 {
		// Recover the traded size from the cached maker order when the
		// stream omits it.
		if cached, ok := l.cache.GetCachedOrder(e.OrderID); ok {
			qty = cached.Quantity
		}
	}

	// Only seller-initiated trades push the price down through the floor.
	if !e.TakerIsBid {
		l.checkFloor(e.PoolID, e.Price, qty)
	}
}

// checkFloor compares an observed sell-side price against the pool's bound
// floor and raises a trigger on breach. Manual pools log only.
func (l *Listener) checkFloor(poolID string, price quant.PriceMicros, qty quant.QtyNanos) {
	if binding, ok := l.registry.GetVaultByPoolID(poolID); ok {
		if binding.FloorPrice > 0 && price < binding.FloorPrice {
			l.raise(domain.Trigger{
				PoolID:        poolID,
				VaultID:       binding.VaultID,
				CurrentPrice:  price,
				FloorPrice:    binding.FloorPrice,
				OrderQuantity: qty,
			})
		}
		return
	}

	l.manualMu.RLock()
	mp, ok := l.manual[poolID]
	l.manualMu.RUnlock()
	if ok && mp.FloorPrice > 0 && price < mp.FloorPrice {
		slog.Warn("Floor breach on observation-only pool",
			slog.String("pool", poolID),
			slog.String("price", price.Decimal().String()),
			slog.String("floor", mp.FloorPrice.Decimal().String()))
	}
}

func (l *Listener) raise(t domain.Trigger) {
	l.mu.Lock()
	l.triggersRaised++
	l.mu.Unlock()
	infra.ObserveTrigger(t.PoolID)

	slog.Info("Floor breach detected",
		slog.String("pool", t.PoolID),
		slog.String("price", t.CurrentPrice.Decimal().String()),
		slog.String("floor", t.FloorPrice.Decimal().String()),
		slog.String("qty", t.OrderQuantity.Tokens().String()))

	l.sink.Submit(t)
}

func (l *Listener) watching(poolID string) bool {
	if _, ok := l.registry.GetVaultByPoolID(poolID); ok {
		return true
	}
	l.manualMu.RLock()
	defer l.manualMu.RUnlock()
	_, ok := l.manual[poolID]
	return ok
}

// WatchedPoolIDs returns the union of registered and manual pool ids, for
// transport workers to subscribe on.
func (l *Listener) WatchedPoolIDs() []string {
	ids := l.registry.GetMonitoredPoolIDs()

	l.manualMu.RLock()
	for id := range l.manual {
		ids[id] = true
	}
	l.manualMu.RUnlock()

	out := make([]string, 0, len(ids))
	for id := range ids {
		out = append(out, id)
	}
	return out
}

// AddManualPool puts a pool under observation without a registry binding.
// The coin type is resolved from the venue when not supplied.
func (l *Listener) AddManualPool(ctx context.Context, poolID string, coinType string, floor quant.PriceMicros) (*ManualPool, error) {
	if poolID == "" {
		return nil, fmt.Errorf("pool id is required")
	}

	if coinType == "" && l.client != nil {
		meta, err := l.client.GetPool(ctx, poolID)
		if err != nil {
			return nil, fmt.Errorf("resolve coin type for %s: %w", poolID, err)
		}
		coinType = meta.BaseCoinType
	}

	mp := &ManualPool{
		PoolID:     poolID,
		CoinType:   coinType,
		FloorPrice: floor,
		AddedAt:    time.Now(),
	}

	l.manualMu.Lock()
	l.manual[poolID] = mp
	l.manualMu.Unlock()

	slog.Info("Manual pool added", slog.String("pool", poolID), slog.String("coin_type", coinType))
	out := *mp
	return &out, nil
}

// RemoveManualPool stops observing a manual pool.
func (l *Listener) RemoveManualPool(poolID string) bool {
	l.manualMu.Lock()
	defer l.manualMu.Unlock()

	if _, ok := l.manual[poolID]; !ok {
		return false
	}
	delete(l.manual, poolID)
	return true
}

// GetManualPools returns copies of all manual pools.
func (l *Listener) GetManualPools() []*ManualPool {
	l.manualMu.RLock()
	defer l.manualMu.RUnlock()

	out := make([]*ManualPool, 0, len(l.manual))
	for _, mp := range l.manual {
		cp := *mp
		out = append(out, &cp)
	}
	return out
}

// GetPoolOrderBook is a read-only snapshot query against the venue.
func (l *Listener) GetPoolOrderBook(ctx context.Context, poolID string) (*domain.OrderBook, error) {
	if l.client == nil {
		return nil, fmt.Errorf("no exchange client configured")
	}
	book, err := l.client.GetOrderBook(ctx, poolID)
	if err != nil {
		// Transport failures surface as-is so the caller can retry; only a
		// venue answer with no such pool becomes a not-found.
		var netErr *domain.NetworkError
		if errors.As(err, &netErr) {
			return nil, err
		}
		return nil, &domain.NotFoundError{Kind: "pool", ID: poolID}
	}
	return book, nil
}

// Status returns a point-in-time lifecycle and throughput view.
func (l *Listener) Status() ListenerStatus {
	l.mu.Lock()
	running := l.running
	processed := l.eventsProcessed
	raised := l.triggersRaised
	l.mu.Unlock()

	l.manualMu.RLock()
	manualCount := len(l.manual)
	l.manualMu.RUnlock()

	// The watched count is the union: a pool both registered and manually
	// added is one pool.
	return ListenerStatus{
		Running:         running,
		WatchedPools:    len(l.WatchedPoolIDs()),
		ManualPools:     manualCount,
		EventsProcessed: processed,
		TriggersRaised:  raised,
	}
}
