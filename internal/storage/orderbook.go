package storage

import (
	"sync"
	"time"

	"roxom_mm/internal/domain"
	"roxom_mm/internal/logger"
)

// historyRingSize bounds the diagnostic transition history.
const historyRingSize = 1000

// TransitionSink receives every applied transition, e.g. for audit logging.
// Sink failures must never affect reconciliation.
type TransitionSink interface {
	Insert(t domain.OrderTransition) error
}

// OrderBook is the authoritative local record of every known venue order,
// plus a bounded ring of status transitions kept for diagnostics only.
// Orders are created on first observation and never deleted; once an order
// reaches a terminal status, further updates for it are no-ops. All mutation
// flows through ApplyUpdate so duplicate and out-of-order delivery from the
// private feed stays idempotent.
type OrderBook struct {
	mu     sync.RWMutex
	orders map[string]*domain.Order

	// Transition ring buffer: oldest entries overwritten first.
	history [historyRingSize]domain.OrderTransition
	head    int
	count   int

	sink TransitionSink // optional
	log  *logger.Entry
}

// NewOrderBook creates an empty order book. sink may be nil.
func NewOrderBook(sink TransitionSink) *OrderBook {
	return &OrderBook{
		orders: make(map[string]*domain.Order),
		sink:   sink,
		log:    logger.Get("order_book"),
	}
}

// ApplyUpdate reconciles one venue-reported order snapshot into local state.
// Mutable fields are replaced wholesale, not merged. Updates for orders
// already in a terminal state are dropped.
func (b *OrderBook) ApplyUpdate(u domain.OrderUpdate) {
	if u.OrderID == "" {
		b.log.Warn("received order update without orderId")
		return
	}

	b.mu.Lock()

	previous := domain.StatusUnknown
	if existing, ok := b.orders[u.OrderID]; ok {
		if existing.Status.IsTerminal() {
			b.mu.Unlock()
			b.log.WithFields(logger.Fields{
				"order_id": u.OrderID,
				"status":   existing.Status,
				"ignored":  u.Status,
			}).Debug("late update for terminal order, ignoring")
			return
		}
		previous = existing.Status
	}

	now := time.Now().UTC()
	b.orders[u.OrderID] = &domain.Order{
		ID:              u.OrderID,
		AccountID:       u.AccountID,
		Symbol:          u.Symbol,
		Status:          u.Status,
		RemainingQty:    u.RemainingQty,
		ExecutedQty:     u.ExecutedQty,
		AvgPrice:        u.AvgPrice,
		VenueTimestamp:  u.VenueTimestamp,
		LastLocalUpdate: now,
	}

	transition := domain.OrderTransition{
		OrderID:        u.OrderID,
		PreviousStatus: previous,
		NewStatus:      u.Status,
		ExecutedQty:    u.ExecutedQty,
		RemainingQty:   u.RemainingQty,
		AvgPrice:       u.AvgPrice,
		VenueTimestamp: u.VenueTimestamp,
		ProcessedAt:    now,
	}
	b.history[b.head] = transition
	b.head = (b.head + 1) % historyRingSize
	if b.count < historyRingSize {
		b.count++
	}

	b.mu.Unlock()

	// Logging and the audit sink are side effects only; they never feed
	// back into reconciliation.
	b.logTransition(u)
	if b.sink != nil {
		if err := b.sink.Insert(transition); err != nil {
			b.log.WithError(err).Warn("history sink insert failed")
		}
	}
}

func (b *OrderBook) logTransition(u domain.OrderUpdate) {
	switch u.Status {
	case domain.StatusPendingSubmit:
		b.log.Debugf("order submitted: %s", u.OrderID)
	case domain.StatusSubmitted:
		b.log.Debugf("order confirmed: %s", u.OrderID)
	case domain.StatusFilled:
		b.log.Infof("order filled %s @ %s [%s]", u.ExecutedQty, u.AvgPrice, u.OrderID)
	case domain.StatusPartiallyFilled:
		b.log.Infof("order partially filled %s @ %s | remaining %s [%s]",
			u.ExecutedQty, u.AvgPrice, u.RemainingQty, u.OrderID)
	case domain.StatusCancelled:
		b.log.Debugf("order cancelled: %s", u.OrderID)
	case domain.StatusRejected:
		b.log.Infof("order rejected: %s | executed %s | remaining %s",
			u.OrderID, u.ExecutedQty, u.RemainingQty)
	}
}

// Get returns a copy of an order.
func (b *OrderBook) Get(orderID string) (domain.Order, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	o, ok := b.orders[orderID]
	if !ok {
		return domain.Order{}, false
	}
	return *o, true
}

// IsActive reports whether an order is known and not terminal.
func (b *OrderBook) IsActive(orderID string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()

	o, ok := b.orders[orderID]
	return ok && o.IsActive()
}

// Status returns the current status, or StatusUnknown for unseen ids.
func (b *OrderBook) Status(orderID string) domain.OrderStatus {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if o, ok := b.orders[orderID]; ok {
		return o.Status
	}
	return domain.StatusUnknown
}

// ActiveOrders returns copies of every non-terminal order.
func (b *OrderBook) ActiveOrders() []domain.Order {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var out []domain.Order
	for _, o := range b.orders {
		if o.IsActive() {
			out = append(out, *o)
		}
	}
	return out
}

// FilledOrders returns copies of every filled order.
func (b *OrderBook) FilledOrders() []domain.Order {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var out []domain.Order
	for _, o := range b.orders {
		if o.Status == domain.StatusFilled {
			out = append(out, *o)
		}
	}
	return out
}

// Summary counts orders by status.
func (b *OrderBook) Summary() map[domain.OrderStatus]int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	summary := make(map[domain.OrderStatus]int)
	for _, o := range b.orders {
		summary[o.Status]++
	}
	return summary
}

// History returns the retained transitions, oldest first.
func (b *OrderBook) History() []domain.OrderTransition {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]domain.OrderTransition, 0, b.count)
	start := b.head - b.count
	if start < 0 {
		start += historyRingSize
	}
	for i := 0; i < b.count; i++ {
		out = append(out, b.history[(start+i)%historyRingSize])
	}
	return out
}

// CancelActiveLocally marks every non-terminal order cancelled in local
// state and returns the affected ids. Used by the emergency path after a
// best-effort cancel-all: the venue remains the source of truth, but the
// local view must not claim orders are live.
func (b *OrderBook) CancelActiveLocally() []string {
	b.mu.RLock()
	var ids []string
	var updates []domain.OrderUpdate
	for _, o := range b.orders {
		if o.IsActive() {
			ids = append(ids, o.ID)
			updates = append(updates, domain.OrderUpdate{
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
	}
	b.mu.RUnlock()

	for _, u := range updates {
		b.ApplyUpdate(u)
	}
	return ids
}
