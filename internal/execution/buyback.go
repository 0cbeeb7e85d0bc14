package execution

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"floorguard/internal/domain"
	"floorguard/internal/infra"
	"floorguard/internal/service"
	"floorguard/pkg/quant"
)

// Fallback sizing tiers, used when a trigger carries no concrete fill size.
// Deeper breaches escalate the defense quantity.
const (
	tierShallowPct = 5  // breach depth below this gets the shallow tier
	tierMediumPct  = 10 // below this the medium tier, at or above the deep tier

	tierShallowTokens = 100
	tierMediumTokens  = 500
	tierDeepTokens    = 1000
)

// The corrective order is priced well above the observed market so the IOC
// buy clears whatever sell liquidity breached the floor.
const aggressivePriceFactor = 2

// Options configures the executor from the buyback section of the config.
type Options struct {
	Enabled              bool
	DryRun               bool
	GlobalMinAmount      decimal.Decimal // quote units
	GlobalBalanceManager string
}

// Stats is a point-in-time executor view for the control layer.
type Stats struct {
	Enabled              bool `json:"enabled"`
	DryRun               bool `json:"dry_run"`
	HasCredential        bool `json:"has_credential"`
	TotalExecutions      int  `json:"total_executions"`
	SuccessfulExecutions int  `json:"successful_executions"`
	InFlight             int  `json:"in_flight"`
}

// Executor is the single place collateral is spent. It validates a trigger,
// sizes the defense, submits an IOC buy through the exchange client, and
// records the outcome into the registry's audit log. It holds no state across
// calls beyond the credential and the references it was constructed with.
//
// One execution may be in flight per pool at a time: overlapping triggers for
// the same pool are rejected until the first outcome is known, so two slow
// submissions cannot both spend the same collateral.
type Executor struct {
	registry   *service.PoolRegistry
	client     domain.ExchangeClient
	credential domain.Credential
	recorder   domain.ExecutionRecorder // optional archive sink
	opts       Options

	triggers chan domain.Trigger

	mu       sync.Mutex
	inFlight map[string]bool
}

// NewExecutor wires an executor. credential and recorder may be nil.
func NewExecutor(registry *service.PoolRegistry, client domain.ExchangeClient, credential domain.Credential, recorder domain.ExecutionRecorder, opts Options) *Executor {
	return &Executor{
		registry:   registry,
		client:     client,
		credential: credential,
		recorder:   recorder,
		opts:       opts,
		triggers:   make(chan domain.Trigger, 256),
		inFlight:   make(map[string]bool),
	}
}

// Submit implements domain.TriggerSink. It never blocks the caller: when the
// trigger buffer is full the trigger is dropped and logged, and the next
// qualifying event will raise a new one.
func (e *Executor) Submit(t domain.Trigger) {
	select {
	case e.triggers <- t:
	default:
		slog.Warn("Trigger buffer full, dropping trigger", slog.String("pool", t.PoolID))
	}
}

// Run consumes triggers until ctx is cancelled. Each execution runs in its
// own goroutine so a slow venue round-trip blocks only that pool's trigger,
// never trigger consumption.
func (e *Executor) Run(ctx context.Context) {
	slog.Info("Buyback executor started", slog.Bool("enabled", e.opts.Enabled), slog.Bool("dry_run", e.opts.DryRun))
	for {
		select {
		case <-ctx.Done():
			slog.Info("Buyback executor stopping...")
			return
		case t := <-e.triggers:
			go func(t domain.Trigger) {
				res := e.ExecuteBuyback(ctx, t)
				if !res.Success {
					slog.Info("Buyback not executed", slog.String("pool", t.PoolID), slog.String("reason", res.Reason))
				}
			}(t)
		}
	}
}

// CalculateBuybackAmount computes the defense size and cost for a trigger.
// With a concrete fill size the defense matches the opposing sell exactly, so
// the breaching liquidity is fully absorbed. Without one, a tier keyed to the
// breach depth decides the quantity.
func (e *Executor) CalculateBuybackAmount(currentPrice, floorPrice quant.PriceMicros, orderQuantity quant.QtyNanos) domain.BuybackSizing {
	var diffPct decimal.Decimal
	if floorPrice > 0 {
		diffPct = floorPrice.Decimal().Sub(currentPrice.Decimal()).
			Div(floorPrice.Decimal()).
			Mul(decimal.NewFromInt(100))
	}

	var qty decimal.Decimal
	exact := orderQuantity > 0
	if exact {
		qty = orderQuantity.Tokens()
	} else {
		switch {
		case diffPct.LessThan(decimal.NewFromInt(tierShallowPct)):
			qty = decimal.NewFromInt(tierShallowTokens)
		case diffPct.LessThan(decimal.NewFromInt(tierMediumPct)):
			qty = decimal.NewFromInt(tierMediumTokens)
		default:
			qty = decimal.NewFromInt(tierDeepTokens)
		}
	}

	return domain.BuybackSizing{
		Quantity:     qty,
		UsdcAmount:   qty.Mul(currentPrice.Decimal()),
		PriceDiffPct: diffPct,
		ExactMatch:   exact,
	}
}

// ExecuteBuyback validates a trigger, submits the corrective order, and
// records the outcome. Validation rejections are terminal for this call and
// are not logged to the audit trail; every attempt that reaches the
// submission phase is. There is no retry here: a failed or partial execution
// is attempted again only by a new trigger.
func (e *Executor) ExecuteBuyback(ctx context.Context, t domain.Trigger) domain.ExecutionResult {
	if !e.acquire(t.PoolID) {
		return reject(domain.ReasonInFlight)
	}
	defer e.release(t.PoolID)

	if !e.opts.Enabled {
		return reject(domain.ReasonDisabled)
	}
	if e.credential == nil {
		return reject(domain.ReasonNoKeypair)
	}

	binding, ok := e.registry.GetVaultByPoolID(t.PoolID)
	if !ok {
		return reject(domain.ReasonNotRegistered)
	}

	sizing := e.CalculateBuybackAmount(t.CurrentPrice, t.FloorPrice, t.OrderQuantity)

	minAmount := e.opts.GlobalMinAmount
	if binding.MinBuybackMicros > 0 {
		// Pool-specific minimum takes priority over the global default.
		minAmount = decimal.NewFromInt(binding.MinBuybackMicros).Div(decimal.NewFromInt(quant.PriceScale))
	}
	if sizing.UsdcAmount.LessThan(minAmount) {
		slog.Debug("Buyback below minimum",
			slog.String("pool", t.PoolID),
			slog.String("cost", sizing.UsdcAmount.String()),
			slog.String("min", minAmount.String()))
		return reject(domain.ReasonBelowMinimum)
	}

	balanceManager := binding.BalanceManagerID
	if balanceManager == "" {
		balanceManager = e.opts.GlobalBalanceManager
	}
	if balanceManager == "" {
		return reject(domain.ReasonNoBalanceManager)
	}

	if binding.CoinType == "" {
		return reject(domain.ReasonCoinTypeUnknown)
	}

	exec := &domain.BuybackExecution{
		PoolID:       t.PoolID,
		VaultID:      binding.VaultID,
		CurrentPrice: t.CurrentPrice,
		FloorPrice:   t.FloorPrice,
		Quantity:     sizing.Quantity,
		UsdcAmount:   sizing.UsdcAmount,
		ExecutedAt:   time.Now(),
	}

	if e.opts.DryRun {
		exec.Status = domain.ExecStatusSimulated
		e.record(exec)
		slog.Info("Buyback simulated",
			slog.String("pool", t.PoolID),
			slog.String("qty", sizing.Quantity.String()),
			slog.String("cost", sizing.UsdcAmount.String()))
		return domain.ExecutionResult{Success: true, Execution: exec}
	}

	return e.submit(ctx, t, binding, balanceManager, sizing, exec)
}

// submit performs the venue round-trip. Any unexpected error is caught,
// recorded as a failed execution, and returned as a structured failure.
func (e *Executor) submit(ctx context.Context, t domain.Trigger, binding *domain.PoolBinding, balanceManager string, sizing domain.BuybackSizing, exec *domain.BuybackExecution) domain.ExecutionResult {
	req := domain.OrderRequest{
		ClientOrderID:  uuid.NewString(),
		PoolID:         t.PoolID,
		BalanceManager: balanceManager,
		CoinType:       binding.CoinType,
		Side:           domain.SideBuy,
		Price:          t.CurrentPrice * aggressivePriceFactor,
		Quantity:       quant.QtyFromDecimal(sizing.Quantity),
		ImmediateOnly:  true,
	}

	result, err := e.client.PlaceOrder(ctx, req)
	if err != nil {
		exec.Status = domain.ExecStatusFailed
		exec.Error = err.Error()
		e.record(exec)
		slog.Error("Buyback submission errored", slog.String("pool", t.PoolID), slog.Any("error", err))
		return domain.ExecutionResult{Success: false, Reason: err.Error(), Execution: exec}
	}

	exec.Digest = result.Digest

	if !result.Succeeded {
		exec.Status = domain.ExecStatusFailed
		exec.Error = result.ErrorMsg
		e.record(exec)
		slog.Error("Buyback transaction failed",
			slog.String("pool", t.PoolID),
			slog.String("digest", result.Digest),
			slog.String("error", result.ErrorMsg))
		return domain.ExecutionResult{Success: false, Reason: domain.ReasonTxFailed, Digest: result.Digest, Execution: exec}
	}

	// Transaction landed. A fill event means the book had liquidity to
	// absorb; without one the IOC cancelled unfilled.
	if len(result.Fills) > 0 {
		exec.Status = domain.ExecStatusExecuted
	} else {
		exec.Status = domain.ExecStatusPartial
	}
	e.record(exec)

	usdcMicros := sizing.UsdcAmount.Mul(decimal.NewFromInt(quant.PriceScale)).IntPart()
	if err := e.registry.RecordBuyback(t.PoolID, usdcMicros, t.CurrentPrice); err != nil {
		slog.Warn("Failed to record buyback counters", slog.Any("error", err))
	}
	infra.SetBuybackVolume(float64(e.registry.GetStats().TotalBuybackMicros) / quant.PriceScale)

	slog.Info("Buyback executed",
		slog.String("pool", t.PoolID),
		slog.String("status", exec.Status),
		slog.String("digest", exec.Digest),
		slog.String("qty", sizing.Quantity.String()),
		slog.String("cost", sizing.UsdcAmount.String()))

	return domain.ExecutionResult{Success: true, Digest: exec.Digest, Execution: exec}
}

// record appends to the registry audit log and mirrors to the archive sink.
func (e *Executor) record(exec *domain.BuybackExecution) {
	e.registry.AppendExecution(exec)
	infra.ObserveBuyback(exec.Status)

	if e.recorder != nil {
		if err := e.recorder.RecordExecution(exec); err != nil {
			slog.Warn("Failed to archive execution", slog.Any("error", err))
		}
	}
}

// GetExecutions returns the audit log, optionally filtered by pool.
func (e *Executor) GetExecutions(poolID string) []domain.BuybackExecution {
	return e.registry.Executions(poolID)
}

// GetStats returns a point-in-time executor snapshot.
func (e *Executor) GetStats() Stats {
	execs := e.registry.Executions("")
	successful := 0
	for _, ex := range execs {
		switch ex.Status {
		case domain.ExecStatusExecuted, domain.ExecStatusPartial, domain.ExecStatusSimulated:
			successful++
		}
	}

	e.mu.Lock()
	inFlight := len(e.inFlight)
	e.mu.Unlock()

	return Stats{
		Enabled:              e.opts.Enabled,
		DryRun:               e.opts.DryRun,
		HasCredential:        e.credential != nil,
		TotalExecutions:      len(execs),
		SuccessfulExecutions: successful,
		InFlight:             inFlight,
	}
}

func (e *Executor) acquire(poolID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.inFlight[poolID] {
		return false
	}
	e.inFlight[poolID] = true
	return true
}

func (e *Executor) release(poolID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.inFlight, poolID)
}

func reject(reason string) domain.ExecutionResult {
	return domain.ExecutionResult{Success: false, Reason: reason}
}
