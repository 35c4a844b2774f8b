package strategy

import (
	"context"
	"strings"
	"sync"
	"time"

	"roxom_mm/internal/domain"
	"roxom_mm/internal/execution"
	"roxom_mm/internal/infra"
	"roxom_mm/internal/logger"
	"roxom_mm/internal/storage"
	"roxom_mm/pkg/quant"
)

// QuoteSlots holds the ids of the currently tracked quote pair. Empty
// strings mean no order is tracked on that side.
type QuoteSlots struct {
	BidID string `json:"bid_id"`
	AskID string `json:"ask_id"`
}

// MarketMaker owns the quote cycle: every interval it cancels the tracked
// pair and places a fresh one around the synthetic fair price. A single
// mutex guards the slots and the halted flag, so the emergency path and the
// placement phase serialize; whichever runs second sees the other's effect.
type MarketMaker struct {
	cfg     *infra.Config
	pricer  *Pricer
	gateway execution.Gateway
	book    *storage.OrderBook
	log     *logger.Entry

	mu     sync.Mutex
	slots  QuoteSlots
	halted bool

	// disownWG tracks best-effort venue cancels fired for orders acked
	// after the halt, so Run does not return while one is in flight.
	disownWG sync.WaitGroup

	posMu    sync.Mutex
	position domain.PositionSnapshot

	startTime time.Time
}

// NewMarketMaker wires the strategy. The position snapshot starts flat with
// no timestamp until the first successful poll.
func NewMarketMaker(cfg *infra.Config, pricer *Pricer, gateway execution.Gateway, book *storage.OrderBook) *MarketMaker {
	return &MarketMaker{
		cfg:     cfg,
		pricer:  pricer,
		gateway: gateway,
		book:    book,
		log:     logger.Get("market_maker"),
		position: domain.PositionSnapshot{
			Symbol: cfg.Trading.Symbol,
		},
		startTime: time.Now(),
	}
}

// Bootstrap seeds the order book from the venue's REST order listing.
// Failure is non-fatal: the private stream still reconciles everything
// that changes from here on.
func (m *MarketMaker) Bootstrap(ctx context.Context) {
	orders, err := m.gateway.ListOrders(ctx, m.cfg.Trading.InstType)
	if err != nil {
		m.log.WithError(err).Warn("order bootstrap failed, continuing without REST data")
		return
	}

	m.log.Debugf("found %d existing orders", len(orders))
	for _, u := range orders {
		m.book.ApplyUpdate(u)
	}
}

// Run drives the quote and position loops until the context is cancelled.
func (m *MarketMaker) Run(ctx context.Context) {
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		m.quoteLoop(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		m.positionLoop(ctx)
	}()

	wg.Wait()
	m.disownWG.Wait()
}

func (m *MarketMaker) quoteLoop(ctx context.Context) {
	for {
		m.quoteCycle(ctx)
		if !infra.Wait(ctx, m.cfg.QuoteInterval()) {
			return
		}
	}
}

// quoteCycle runs one cancel-then-replace pass. Cancels go out concurrently
// and are all awaited before any placement, so the venue never briefly holds
// four of our orders.
func (m *MarketMaker) quoteCycle(ctx context.Context) {
	fair, ok := m.pricer.FairPrice()
	if !ok {
		m.log.Info("no fair price available, skipping quote")
		return
	}
	bid, ask := m.pricer.Quote(fair)

	m.mu.Lock()
	if m.halted {
		m.mu.Unlock()
		return
	}
	toCancel := m.collectCancels()
	m.mu.Unlock()

	m.cancelConcurrently(ctx, toCancel)
	m.placeQuotes(ctx, bid, ask)
}

// collectCancels returns the tracked ids that are still active on the
// venue. Slots referencing terminal orders are dropped locally: cancelling
// a filled or already-cancelled order at the venue is at best a no-op and
// at worst an error. Caller holds m.mu.
func (m *MarketMaker) collectCancels() []string {
	var out []string
	for _, slot := range []*string{&m.slots.BidID, &m.slots.AskID} {
		id := *slot
		if id == "" {
			continue
		}
		if !m.book.IsActive(id) {
			m.log.Debugf("skipping cancellation of %s (already %s)", id, m.book.Status(id))
			*slot = ""
			continue
		}
		out = append(out, id)
	}
	return out
}

func (m *MarketMaker) cancelConcurrently(ctx context.Context, ids []string) {
	if len(ids) == 0 {
		m.log.Debug("no existing orders to cancel")
		return
	}

	m.log.Infof("cancelling orders [%s]", strings.Join(ids, ", "))

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(orderID string) {
			defer wg.Done()
			if err := m.gateway.CancelOrder(ctx, orderID); err != nil {
				m.log.WithError(err).Errorf("failed to cancel %s", orderID)
				return
			}
			// Reflect the cancel locally right away; the stream echo for a
			// terminal order is a no-op.
			if o, ok := m.book.Get(orderID); ok && o.IsActive() {
				m.book.ApplyUpdate(domain.OrderUpdate{
					OrderID:        o.ID,
					AccountID:      o.AccountID,
					Symbol:         o.Symbol,
					Status:         domain.StatusCancelled,
					RemainingQty:   o.RemainingQty,
					ExecutedQty:    o.ExecutedQty,
					AvgPrice:       o.AvgPrice,
					VenueTimestamp: o.VenueTimestamp,
				})
			}
		}(id)
	}
	wg.Wait()
}

type placement struct {
	side  string
	price float64
	ack   domain.OrderAck
	err   error
}

// placeQuotes submits both sides concurrently, then registers the acks. If
// the emergency path halted quoting while the placements were in flight,
// the acked orders are disowned: recorded, locally cancelled, and
// best-effort cancelled on the venue, with the slots left empty.
func (m *MarketMaker) placeQuotes(ctx context.Context, bid, ask float64) {
	results := make([]placement, 2)
	results[0] = placement{side: domain.SideBuy, price: bid}
	results[1] = placement{side: domain.SideSell, price: ask}

	var wg sync.WaitGroup
	for i := range results {
		wg.Add(1)
		go func(p *placement) {
			defer wg.Done()
			p.ack, p.err = m.gateway.PlaceOrder(ctx, m.buildRequest(p.side, p.price))
		}(&results[i])
	}
	wg.Wait()

	m.mu.Lock()
	halted := m.halted
	for _, p := range results {
		if p.err != nil {
			m.log.WithError(p.err).Errorf("failed to place %s", p.side)
			continue
		}

		// The book must know the order before this cycle yields, or a
		// faster stream echo would arrive for an unknown id.
		m.book.ApplyUpdate(domain.OrderUpdate{
			OrderID:        p.ack.OrderID,
			AccountID:      p.ack.AccountID,
			Symbol:         m.cfg.Trading.Symbol,
			Status:         domain.StatusPendingSubmit,
			RemainingQty:   m.cfg.Trading.OrderSize,
			ExecutedQty:    "0.00",
			AvgPrice:       "0.00000000",
			VenueTimestamp: nowTimestamp(),
		})

		if halted {
			continue
		}

		switch p.side {
		case domain.SideBuy:
			m.slots.BidID = p.ack.OrderID
			m.log.Infof("BID placed %s @ %s [%s]", m.cfg.Trading.OrderSize, quant.FormatPrice(p.price), p.ack.OrderID)
		case domain.SideSell:
			m.slots.AskID = p.ack.OrderID
			m.log.Infof("ASK placed %s @ %s [%s]", m.cfg.Trading.OrderSize, quant.FormatPrice(p.price), p.ack.OrderID)
		}
	}
	m.mu.Unlock()

	if halted {
		m.disown(results)
	}
}

// disown handles placements that raced the emergency shutdown: each acked
// order is marked cancelled locally and a venue cancel is fired without
// blocking the quote cycle on it. The cancels are tracked on disownWG so
// Run drains them before returning.
func (m *MarketMaker) disown(results []placement) {
	for _, p := range results {
		if p.err != nil {
			continue
		}
		id := p.ack.OrderID
		m.log.Warnf("order %s placed after shutdown began, cancelling", id)
		m.book.ApplyUpdate(domain.OrderUpdate{
			OrderID:      id,
			Symbol:       m.cfg.Trading.Symbol,
			Status:       domain.StatusCancelled,
			RemainingQty: m.cfg.Trading.OrderSize,
			ExecutedQty:  "0.00",
		})
		m.disownWG.Add(1)
		go func(orderID string) {
			defer m.disownWG.Done()
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := m.gateway.CancelOrder(ctx, orderID); err != nil {
				m.log.WithError(err).Warnf("best-effort cancel of %s failed", orderID)
			}
		}(id)
	}
}

func (m *MarketMaker) buildRequest(side string, price float64) domain.OrderRequest {
	return domain.OrderRequest{
		Symbol:      m.cfg.Trading.Symbol,
		InstType:    m.cfg.Trading.InstType,
		OrderType:   m.cfg.Trading.OrderType,
		Side:        side,
		Qty:         m.cfg.Trading.OrderSize,
		Price:       quant.FormatPrice(price),
		TimeInForce: m.cfg.Trading.TimeInForce,
	}
}

// positionLoop polls the venue position at the configured interval,
// backing off after failures.
func (m *MarketMaker) positionLoop(ctx context.Context) {
	const errorBackoff = 10 * time.Second

	for {
		if err := m.updatePosition(ctx); err != nil {
			m.log.WithError(err).Warn("failed to update position")
			if !infra.Wait(ctx, errorBackoff) {
				return
			}
			continue
		}
		if !infra.Wait(ctx, m.cfg.PositionPollInterval()) {
			return
		}
	}
}

func (m *MarketMaker) updatePosition(ctx context.Context) error {
	legs, err := m.gateway.ListPositions(ctx, m.cfg.Trading.Symbol, m.cfg.Trading.InstType)
	if err != nil {
		return err
	}

	signed := domain.Signed(legs)
	fills := len(m.book.FilledOrders())

	m.posMu.Lock()
	m.position.Size = signed
	m.position.FillCount = fills
	m.position.LastUpdated = time.Now().UTC()
	m.posMu.Unlock()
	return nil
}

// EmergencyCleanup is the first act of shutdown: one venue-wide cancel-all,
// then the local book is forced consistent with it. It runs at most once;
// quoting stays halted afterwards, so a quote cycle racing this call cannot
// leave a tracked order behind.
func (m *MarketMaker) EmergencyCleanup(ctx context.Context) {
	m.mu.Lock()
	if m.halted {
		m.mu.Unlock()
		return
	}
	m.halted = true
	m.slots = QuoteSlots{}
	m.mu.Unlock()

	m.log.Info("cancelling all active orders")

	if err := m.gateway.CancelAllOrders(ctx); err != nil {
		m.log.WithError(err).Error("failed to cancel all orders")
		m.log.Warn("unable to cancel orders, continuing with shutdown")
	} else {
		m.log.Info("successfully sent cancel all orders request")
	}

	// The venue stays the source of truth, but the local view must not
	// claim anything is live after a cancel-all.
	cancelled := m.book.CancelActiveLocally()
	if len(cancelled) > 0 {
		m.log.Infof("marked %d orders cancelled locally", len(cancelled))
	}
}

// Halted reports whether the emergency path has run.
func (m *MarketMaker) Halted() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.halted
}

// Slots returns the currently tracked quote pair.
func (m *MarketMaker) Slots() QuoteSlots {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.slots
}

// Uptime since construction.
func (m *MarketMaker) Uptime() time.Duration {
	return time.Since(m.startTime)
}

// FairPrice exposes the pricer's current fair price.
func (m *MarketMaker) FairPrice() (float64, bool) {
	return m.pricer.FairPrice()
}

// CurrentQuote returns the quote pair that would be placed right now.
func (m *MarketMaker) CurrentQuote() (bid, ask float64, ok bool) {
	fair, ok := m.pricer.FairPrice()
	if !ok {
		return 0, 0, false
	}
	bid, ask = m.pricer.Quote(fair)
	return bid, ask, true
}

// Position returns the last polled position snapshot.
func (m *MarketMaker) Position() domain.PositionSnapshot {
	m.posMu.Lock()
	defer m.posMu.Unlock()
	return m.position
}

// Book exposes the order book for read-only surfaces.
func (m *MarketMaker) Book() *storage.OrderBook {
	return m.book
}

func nowTimestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}
