package binance

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/websocket"

	"roxom_mm/internal/infra"
	"roxom_mm/internal/logger"
	"roxom_mm/internal/storage"
)

// UpdateFunc is invoked after each price write, e.g. to wake the strategy.
type UpdateFunc func(symbol string, bid, ask float64)

// PriceWorker streams bookTicker updates for a set of symbols into a
// PriceStore. Subscriptions ride on the connection URL, so reconnects
// resubscribe for free and no messages need to be sent.
type PriceWorker struct {
	base     *infra.BaseWSWorker
	wsURL    string
	symbols  []string
	prices   *storage.PriceStore
	onUpdate UpdateFunc // optional
	log      *logger.Entry
}

// NewPriceWorker factory. symbols are lowercase Binance stream names,
// e.g. "paxgusdt".
func NewPriceWorker(wsURL string, symbols []string, prices *storage.PriceStore, onUpdate UpdateFunc) *PriceWorker {
	w := &PriceWorker{
		wsURL:    strings.TrimRight(wsURL, "/"),
		symbols:  symbols,
		prices:   prices,
		onUpdate: onUpdate,
		log:      logger.Get("binance_ws"),
	}
	w.base = infra.NewBaseWSWorker(w)
	return w
}

func (w *PriceWorker) ID() string { return "binance_ws" }

func (w *PriceWorker) GetURL() string {
	streams := make([]string, 0, len(w.symbols))
	for _, s := range w.symbols {
		streams = append(streams, strings.ToLower(s)+"@bookTicker")
	}
	return w.wsURL + "/" + strings.Join(streams, "/")
}

func (w *PriceWorker) Headers() http.Header { return nil }

func (w *PriceWorker) OnConnect(ctx context.Context, conn *websocket.Conn) error {
	return nil
}

func (w *PriceWorker) OnMessage(ctx context.Context, msg []byte) {
	ev, ok := parseBookTicker(msg)
	if !ok {
		return
	}

	bid, err1 := strconv.ParseFloat(ev.Bid, 64)
	ask, err2 := strconv.ParseFloat(ev.Ask, 64)
	if err1 != nil || err2 != nil {
		w.log.Warnf("unparseable bookTicker for %s: bid=%q ask=%q", ev.Symbol, ev.Bid, ev.Ask)
		return
	}

	w.prices.Update(ev.Symbol, bid, ask)
	w.log.Debugf("%s | bid: %v | ask: %v", ev.Symbol, bid, ask)

	if w.onUpdate != nil {
		w.onUpdate(ev.Symbol, bid, ask)
	}
}

// Start begins streaming until the context is cancelled.
func (w *PriceWorker) Start(ctx context.Context) {
	w.base.Start(ctx)
}

// Stop disconnects and waits for the worker to exit.
func (w *PriceWorker) Stop() {
	w.base.Stop()
}

// parseBookTicker accepts both the bare event and the combined-stream
// envelope.
func parseBookTicker(msg []byte) (bookTickerEvent, bool) {
	var env combinedEnvelope
	if err := json.Unmarshal(msg, &env); err == nil && env.Data != nil {
		return *env.Data, env.Data.Symbol != ""
	}

	var ev bookTickerEvent
	if err := json.Unmarshal(msg, &ev); err != nil {
		return bookTickerEvent{}, false
	}
	return ev, ev.Symbol != ""
}
