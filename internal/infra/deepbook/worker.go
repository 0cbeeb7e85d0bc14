package deepbook

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"floorguard/internal/event"
	"floorguard/internal/infra"
	"floorguard/pkg/quant"
)

// Worker handles the DeepBook order-event WebSocket stream. It subscribes to
// the order channel for a set of pools and feeds lifecycle events into the
// listener inbox. Transport errors are logged and reconnected with backoff,
// never fatal: the stream prioritizes availability over completeness.
type Worker struct {
	wsURL     string
	poolIDs   []string
	inbox     chan<- event.Event
	seq       *uint64
	conn      *websocket.Conn
	mu        sync.RWMutex
	writeMu   sync.Mutex
	connected bool
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// NewWorker factory
func NewWorker(wsURL string, poolIDs []string, inbox chan<- event.Event, seq *uint64) *Worker {
	return &Worker{
		wsURL:   wsURL,
		poolIDs: poolIDs,
		inbox:   inbox,
		seq:     seq,
	}
}

func (w *Worker) Connect(ctx context.Context) error {
	ctx, w.cancel = context.WithCancel(ctx)
	w.wg.Add(1)
	go w.connectionLoop(ctx)
	return nil
}

// IsConnected reports whether the stream is currently up.
func (w *Worker) IsConnected() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.connected
}

func (w *Worker) connectionLoop(ctx context.Context) {
	defer w.wg.Done()
	retryCount := 0
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := w.connect(ctx); err != nil {
			slog.Warn("DeepBook stream connection failed", slog.Any("error", err), slog.Int("retry", retryCount))
			retryCount++
			if retryCount > maxRetries {
				retryCount = 0 // Infinite retry loop for monitoring
			}
			delay := infra.CalculateBackoff(retryCount)
			time.Sleep(delay)
		} else {
			retryCount = 0
			w.readLoop(ctx)
			infra.ObserveReconnect()
		}
	}
}

func (w *Worker) connect(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, w.wsURL, nil)
	if err != nil {
		return err
	}

	w.mu.Lock()
	w.conn = conn
	w.connected = true
	w.mu.Unlock()

	if err := w.subscribe(); err != nil {
		w.closeConnection()
		return err
	}

	go w.pingLoop(ctx)
	slog.Info("DeepBook stream connected", slog.Int("pools", len(w.poolIDs)))
	return nil
}

func (w *Worker) subscribe() error {
	args := make([]subscribeArg, 0, len(w.poolIDs))
	for _, id := range w.poolIDs {
		args = append(args, subscribeArg{Channel: "orders", PoolID: id})
	}
	req := subscribeRequest{Op: "subscribe", Args: args}
	b, err := json.Marshal(req)
	if err != nil {
		slog.Error("Failed to marshal subscribe request", slog.Any("error", err))
		return err
	}
	return w.threadSafeWrite(websocket.TextMessage, b)
}

func (w *Worker) pingLoop(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.threadSafeWrite(websocket.TextMessage, []byte("ping"))
		}
	}
}

func (w *Worker) threadSafeWrite(msgType int, data []byte) error {
	w.writeMu.Lock()
	defer w.writeMu.Unlock()
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.conn == nil {
		return fmt.Errorf("no conn")
	}
	return w.conn.WriteMessage(msgType, data)
}

func (w *Worker) readLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		w.mu.RLock()
		if w.conn == nil {
			w.mu.RUnlock()
			return
		}
		w.conn.SetReadDeadline(time.Now().Add(readTimeout))
		w.mu.RUnlock()

		_, msg, err := w.conn.ReadMessage()
		if err != nil {
			w.closeConnection()
			return
		}
		if string(msg) == "pong" {
			continue
		}
		w.handleMessage(msg)
	}
}

func (w *Worker) handleMessage(msg []byte) {
	var resp streamMessage
	json.Unmarshal(msg, &resp)
	if resp.Arg.Channel != "orders" || len(resp.Data) == 0 {
		return
	}

	// Stream timestamps arrive in milliseconds.
	ts := quant.TimeStamp(resp.Ts * 1000)

	for _, data := range resp.Data {
		switch data.EventType {
		case "placed":
			ev := event.AcquireOrderPlacedEvent()
			ev.Seq = quant.NextSeq(w.seq)
			ev.Ts = ts
			ev.PoolID = data.PoolID
			ev.OrderID = data.OrderID
			ev.Price = quant.ToPriceMicrosStr(data.Price)
			ev.Quantity = quant.ToQtyNanosStr(data.Quantity)
			ev.IsBid = data.IsBid

			select {
			case w.inbox <- ev:
			default:
				event.ReleaseOrderPlacedEvent(ev) // Release if dropped
			}

		case "filled":
			ev := event.AcquireOrderFilledEvent()
			ev.Seq = quant.NextSeq(w.seq)
			ev.Ts = ts
			ev.PoolID = data.PoolID
			ev.OrderID = data.OrderID
			ev.Price = quant.ToPriceMicrosStr(data.Price)
			ev.Quantity = quant.ToQtyNanosStr(data.Quantity)
			ev.TakerIsBid = data.IsBid

			select {
			case w.inbox <- ev:
			default:
				event.ReleaseOrderFilledEvent(ev)
			}

		case "expired", "canceled":
			ev := &event.OrderExpiredEvent{
				Seq:     quant.NextSeq(w.seq),
				Ts:      ts,
				PoolID:  data.PoolID,
				OrderID: data.OrderID,
			}
			select {
			case w.inbox <- ev:
			default:
			}
		}
	}
}

func (w *Worker) closeConnection() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.conn != nil {
		w.conn.Close()
		w.conn = nil
	}
	w.connected = false
}

func (w *Worker) Disconnect() {
	if w.cancel != nil {
		w.cancel()
	}
	w.closeConnection()
	w.wg.Wait()
}
