package roxom

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"roxom_mm/internal/domain"
	"roxom_mm/internal/infra"
	"roxom_mm/internal/logger"
	"roxom_mm/internal/storage"
)

// OrderUpdateFunc is invoked after each order update is applied to the book.
type OrderUpdateFunc func(u domain.OrderUpdate)

// PrivateWorker maintains the authenticated Roxom stream that delivers
// order and balance updates. Authentication happens at handshake time via
// headers; the venue sends no client heartbeats.
type PrivateWorker struct {
	base     *infra.BaseWSWorker
	wsURL    string
	apiKey   string
	book     *storage.OrderBook
	onUpdate OrderUpdateFunc // optional
	log      *logger.Entry

	mu     sync.Mutex
	connID string
	authed bool
}

// NewPrivateWorker factory.
func NewPrivateWorker(wsURL, apiKey string, reconnect time.Duration, book *storage.OrderBook, onUpdate OrderUpdateFunc) *PrivateWorker {
	w := &PrivateWorker{
		wsURL:    wsURL,
		apiKey:   apiKey,
		book:     book,
		onUpdate: onUpdate,
		log:      logger.Get("roxom_ws"),
	}
	w.base = infra.NewBaseWSWorker(w)
	if reconnect > 0 {
		w.base.ReconnectInterval = reconnect
	}
	return w
}

func (w *PrivateWorker) ID() string     { return "roxom_ws" }
func (w *PrivateWorker) GetURL() string { return w.wsURL }

// Headers builds the handshake auth headers. Called fresh on every attempt
// so the timestamp is never stale across reconnects.
func (w *PrivateWorker) Headers() http.Header {
	h := http.Header{}
	h.Set("X-API-KEY", w.apiKey)
	h.Set("X-API-TIMESTAMP", strconv.FormatInt(time.Now().UnixMilli(), 10))
	return h
}

func (w *PrivateWorker) OnConnect(ctx context.Context, conn *websocket.Conn) error {
	// A fresh connection is unauthenticated until the venue acks the
	// subscription.
	w.mu.Lock()
	w.authed = false
	w.mu.Unlock()
	return nil
}

func (w *PrivateWorker) OnMessage(ctx context.Context, msg []byte) {
	var m wsMessage
	if err := json.Unmarshal(msg, &m); err != nil {
		w.log.WithError(err).Errorf("failed to parse message: %s", msg)
		return
	}

	switch {
	case m.Event != "":
		w.handleEvent(m)
	case m.Type != "":
		w.handleData(m)
	default:
		w.log.Warnf("unknown message format: %s", msg)
	}
}

func (w *PrivateWorker) handleEvent(m wsMessage) {
	switch m.Event {
	case "subscribe":
		if m.Code == "0" {
			w.log.Infof("subscription successful: %s | connId: %s", m.Arg, m.ConnID)
			w.mu.Lock()
			w.connID = m.ConnID
			w.authed = true
			w.mu.Unlock()
		} else {
			w.log.Errorf("subscription failed: %s | code: %s", m.Msg, m.Code)
		}
	case "error":
		if m.Code == codeAuthFailed {
			w.log.Error("authentication failed, check API key and timestamp")
			w.mu.Lock()
			w.authed = false
			w.mu.Unlock()
		} else {
			w.log.Errorf("stream error: %s | code: %s", m.Msg, m.Code)
		}
	default:
		w.log.Infof("event: %s | code: %s | msg: %s", m.Event, m.Code, m.Msg)
	}
}

func (w *PrivateWorker) handleData(m wsMessage) {
	switch m.Type {
	case "order":
		var o wsOrderData
		if err := json.Unmarshal(m.Data, &o); err != nil {
			w.log.WithError(err).Error("failed to parse order data")
			return
		}
		u := domain.OrderUpdate{
			OrderID:        o.OrderID,
			AccountID:      o.AccountID,
			Symbol:         o.Symbol,
			Status:         domain.ParseStatus(o.Status),
			RemainingQty:   o.RemainingQty,
			ExecutedQty:    o.ExecutedQty,
			AvgPrice:       o.AvgPx,
			VenueTimestamp: o.Timestamp,
		}
		w.book.ApplyUpdate(u)
		if w.onUpdate != nil {
			w.onUpdate(u)
		}
	case "balance":
		// Received but not used.
		w.log.Debugf("balance update: %s", m.Data)
	default:
		w.log.Warnf("unknown data message type: %s", m.Type)
	}
}

// ConnID returns the venue connection id from the last subscription ack.
func (w *PrivateWorker) ConnID() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.connID
}

// Authenticated reports whether the current connection has an acked
// subscription. It drops back to false on reconnect or a venue auth error.
func (w *PrivateWorker) Authenticated() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.authed
}

// Start begins the stream until the context is cancelled.
func (w *PrivateWorker) Start(ctx context.Context) {
	w.base.Start(ctx)
}

// Stop disconnects and waits for the worker to exit.
func (w *PrivateWorker) Stop() {
	w.base.Stop()
}
