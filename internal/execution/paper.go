package execution

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"roxom_mm/internal/domain"
	"roxom_mm/internal/logger"
)

// PaperGateway simulates the venue in memory. Placements are acked with
// generated ids and immediately confirmed through the update callback, so
// the rest of the system runs exactly as it does against the live feed.
// Orders rest forever; fills are not simulated.
type PaperGateway struct {
	mu       sync.Mutex
	orders   map[string]*domain.Order
	onUpdate func(domain.OrderUpdate) // optional, stands in for the private stream
	log      *logger.Entry
}

// NewPaperGateway creates a paper venue. onUpdate may be nil.
func NewPaperGateway(onUpdate func(domain.OrderUpdate)) *PaperGateway {
	return &PaperGateway{
		orders:   make(map[string]*domain.Order),
		onUpdate: onUpdate,
		log:      logger.Get("paper_gateway"),
	}
}

func (p *PaperGateway) PlaceOrder(ctx context.Context, req domain.OrderRequest) (domain.OrderAck, error) {
	id := "paper-" + uuid.NewString()

	p.mu.Lock()
	p.orders[id] = &domain.Order{
		ID:              id,
		AccountID:       "paper-account",
		Symbol:          req.Symbol,
		Status:          domain.StatusSubmitted,
		RemainingQty:    req.Qty,
		ExecutedQty:     "0.00",
		AvgPrice:        "0.00000000",
		VenueTimestamp:  nowMillis(),
		LastLocalUpdate: time.Now().UTC(),
	}
	p.mu.Unlock()

	p.log.Infof("PAPER: %s %s @ %s [%s]", req.Side, req.Qty, req.Price, id)
	p.emit(id, domain.StatusSubmitted, req.Symbol, req.Qty)

	return domain.OrderAck{OrderID: id, AccountID: "paper-account"}, nil
}

func (p *PaperGateway) CancelOrder(ctx context.Context, orderID string) error {
	p.mu.Lock()
	o, ok := p.orders[orderID]
	if !ok {
		p.mu.Unlock()
		return fmt.Errorf("order not found: %s", orderID)
	}
	if o.Status.IsTerminal() {
		p.mu.Unlock()
		return fmt.Errorf("order %s already %s", orderID, o.Status)
	}
	o.Status = domain.StatusCancelled
	symbol, qty := o.Symbol, o.RemainingQty
	p.mu.Unlock()

	p.log.Infof("PAPER: cancelled [%s]", orderID)
	p.emit(orderID, domain.StatusCancelled, symbol, qty)
	return nil
}

func (p *PaperGateway) CancelAllOrders(ctx context.Context) error {
	p.mu.Lock()
	type pending struct {
		id, symbol, qty string
	}
	var cancelled []pending
	for id, o := range p.orders {
		if !o.Status.IsTerminal() {
			o.Status = domain.StatusCancelled
			cancelled = append(cancelled, pending{id, o.Symbol, o.RemainingQty})
		}
	}
	p.mu.Unlock()

	p.log.Infof("PAPER: cancelled all (%d orders)", len(cancelled))
	for _, c := range cancelled {
		p.emit(c.id, domain.StatusCancelled, c.symbol, c.qty)
	}
	return nil
}

func (p *PaperGateway) ListOrders(ctx context.Context, instType string) ([]domain.OrderUpdate, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var out []domain.OrderUpdate
	for _, o := range p.orders {
		out = append(out, domain.OrderUpdate{
			OrderID:        o.ID,
			AccountID:      o.AccountID,
			Symbol:         o.Symbol,
			Status:         o.Status,
			RemainingQty:   o.RemainingQty,
			ExecutedQty:    o.ExecutedQty,
			AvgPrice:       o.AvgPrice,
			VenueTimestamp: o.VenueTimestamp,
		})
	}
	return out, nil
}

// ListPositions reports a flat book: fills are never simulated.
func (p *PaperGateway) ListPositions(ctx context.Context, symbol, instType string) ([]domain.PositionLeg, error) {
	return nil, nil
}

// OpenOrders counts non-terminal paper orders.
func (p *PaperGateway) OpenOrders() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := 0
	for _, o := range p.orders {
		if !o.Status.IsTerminal() {
			n++
		}
	}
	return n
}

func (p *PaperGateway) emit(id string, status domain.OrderStatus, symbol, qty string) {
	if p.onUpdate == nil {
		return
	}
	p.onUpdate(domain.OrderUpdate{
		OrderID:        id,
		AccountID:      "paper-account",
		Symbol:         symbol,
		Status:         status,
		RemainingQty:   qty,
		ExecutedQty:    "0.00",
		AvgPrice:       "0.00000000",
		VenueTimestamp: nowMillis(),
	})
}

func nowMillis() string {
	return strconv.FormatInt(time.Now().UnixMilli(), 10)
}
