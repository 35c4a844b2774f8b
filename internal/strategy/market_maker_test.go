package strategy

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"roxom_mm/internal/domain"
	"roxom_mm/internal/execution"
	"roxom_mm/internal/infra"
	"roxom_mm/internal/storage"
)

func testConfig() *infra.Config {
	cfg := &infra.Config{}
	cfg.Trading.Mode = "MOCK"
	cfg.Trading.Symbol = "GOLD-BTC"
	cfg.Trading.InstType = "spot"
	cfg.Trading.OrderType = "limit"
	cfg.Trading.TimeInForce = "gtc"
	cfg.Trading.OrderSize = "0.1"
	cfg.Trading.SpreadBps = 20
	cfg.Trading.TickSize = 0.000001
	cfg.Trading.QuoteIntervalSec = 5
	cfg.Trading.PositionPollSec = 1
	cfg.API.Binance.Symbols = []string{"paxgusdt", "btcusdt"}
	return cfg
}

func newTestMaker(t *testing.T, gateway execution.Gateway) (*MarketMaker, *storage.OrderBook, *storage.PriceStore) {
	t.Helper()
	cfg := testConfig()
	prices := storage.NewPriceStore(cfg.API.Binance.Symbols)
	prices.Update("PAXGUSDT", 2000.0, 2000.2)
	prices.Update("BTCUSDT", 60000.0, 60010.0)
	pricer := NewPricer(prices, cfg.API.Binance.Symbols, cfg.Trading.SpreadBps, cfg.Trading.TickSize)
	book := storage.NewOrderBook(nil)
	return NewMarketMaker(cfg, pricer, gateway, book), book, prices
}

func TestQuoteCycle_PlacesBothSides(t *testing.T) {
	mock := execution.NewMockGateway()
	mm, book, _ := newTestMaker(t, mock)

	mm.quoteCycle(context.Background())

	if mock.PlacedCount() != 2 {
		t.Fatalf("placed %d orders, want 2", mock.PlacedCount())
	}
	slots := mm.Slots()
	if slots.BidID == "" || slots.AskID == "" {
		t.Errorf("slots not filled: %+v", slots)
	}
	if !book.IsActive(slots.BidID) || !book.IsActive(slots.AskID) {
		t.Error("placed orders must be registered in the book before the cycle ends")
	}
	if book.Status(slots.BidID) != domain.StatusPendingSubmit {
		t.Errorf("bid status = %s, want pendingsubmit", book.Status(slots.BidID))
	}

	sides := map[string]bool{}
	for _, r := range mock.Placed {
		sides[r.Side] = true
		if r.Symbol != "GOLD-BTC" || r.Qty != "0.1" {
			t.Errorf("request = %+v", r)
		}
	}
	if !sides[domain.SideBuy] || !sides[domain.SideSell] {
		t.Errorf("sides placed = %v", sides)
	}
}

func TestQuoteCycle_CancelsTrackedPairFirst(t *testing.T) {
	mock := execution.NewMockGateway()
	mm, book, _ := newTestMaker(t, mock)

	mm.quoteCycle(context.Background())
	first := mm.Slots()

	mm.quoteCycle(context.Background())

	cancelled := mock.CancelledIDs()
	if len(cancelled) != 2 {
		t.Fatalf("cancelled %d orders, want 2", len(cancelled))
	}
	got := map[string]bool{cancelled[0]: true, cancelled[1]: true}
	if !got[first.BidID] || !got[first.AskID] {
		t.Errorf("cancelled %v, want previous pair %+v", cancelled, first)
	}
	if book.IsActive(first.BidID) || book.IsActive(first.AskID) {
		t.Error("previous pair should be cancelled in the book")
	}

	second := mm.Slots()
	if second == first {
		t.Error("slots should track the new pair")
	}
	if mock.PlacedCount() != 4 {
		t.Errorf("placed %d orders total, want 4", mock.PlacedCount())
	}
}

func TestQuoteCycle_SkipsCancelOfFilledSlot(t *testing.T) {
	mock := execution.NewMockGateway()
	mm, book, _ := newTestMaker(t, mock)

	mm.quoteCycle(context.Background())
	first := mm.Slots()

	// The bid fills between cycles.
	book.ApplyUpdate(domain.OrderUpdate{
		OrderID:     first.BidID,
		Symbol:      "GOLD-BTC",
		Status:      domain.StatusFilled,
		ExecutedQty: "0.1",
		AvgPrice:    "0.03333000",
	})

	mm.quoteCycle(context.Background())

	cancelled := mock.CancelledIDs()
	if len(cancelled) != 1 || cancelled[0] != first.AskID {
		t.Errorf("cancelled %v, want only the resting ask %s", cancelled, first.AskID)
	}
	// A fresh two-sided quote still goes out.
	if mock.PlacedCount() != 4 {
		t.Errorf("placed %d orders total, want 4", mock.PlacedCount())
	}
	if book.Status(first.BidID) != domain.StatusFilled {
		t.Error("filled order must stay filled")
	}
}

func TestQuoteCycle_SkipsWithoutFairPrice(t *testing.T) {
	mock := execution.NewMockGateway()
	cfg := testConfig()
	prices := storage.NewPriceStore(cfg.API.Binance.Symbols) // no ticks
	pricer := NewPricer(prices, cfg.API.Binance.Symbols, 20, 0.000001)
	mm := NewMarketMaker(cfg, pricer, mock, storage.NewOrderBook(nil))

	mm.quoteCycle(context.Background())

	if mock.PlacedCount() != 0 {
		t.Errorf("placed %d orders without a fair price", mock.PlacedCount())
	}
}

func TestQuoteCycle_PlacementFailureLeavesSlotEmpty(t *testing.T) {
	mock := execution.NewMockGateway()
	mock.PlaceErr = errors.New("venue unavailable")
	mm, _, _ := newTestMaker(t, mock)

	mm.quoteCycle(context.Background())

	slots := mm.Slots()
	if slots.BidID != "" || slots.AskID != "" {
		t.Errorf("slots = %+v, want empty on placement failure", slots)
	}
}

func TestEmergencyCleanup(t *testing.T) {
	mock := execution.NewMockGateway()
	mm, book, _ := newTestMaker(t, mock)

	mm.quoteCycle(context.Background())
	if len(book.ActiveOrders()) != 2 {
		t.Fatalf("precondition: %d active orders", len(book.ActiveOrders()))
	}

	mm.EmergencyCleanup(context.Background())

	if mock.CancelAllCount() != 1 {
		t.Errorf("cancel-all called %d times, want 1", mock.CancelAllCount())
	}
	if s := mm.Slots(); s.BidID != "" || s.AskID != "" {
		t.Errorf("slots = %+v, want cleared", s)
	}
	if n := len(book.ActiveOrders()); n != 0 {
		t.Errorf("%d orders still active locally after cleanup", n)
	}
	if !mm.Halted() {
		t.Error("quoting should be halted")
	}

	// Second invocation is a no-op.
	mm.EmergencyCleanup(context.Background())
	if mock.CancelAllCount() != 1 {
		t.Error("cleanup must run at most once")
	}

	// Later cycles place nothing.
	mm.quoteCycle(context.Background())
	if mock.PlacedCount() != 2 {
		t.Errorf("halted maker placed more orders: %d", mock.PlacedCount())
	}
}

func TestEmergencyCleanup_CancelAllFailureStillClearsLocalState(t *testing.T) {
	mock := execution.NewMockGateway()
	mm, book, _ := newTestMaker(t, mock)
	mm.quoteCycle(context.Background())

	mock.CancelErr = errors.New("venue down")
	mm.EmergencyCleanup(context.Background())

	if s := mm.Slots(); s.BidID != "" || s.AskID != "" {
		t.Errorf("slots = %+v, want cleared even when cancel-all fails", s)
	}
	if n := len(book.ActiveOrders()); n != 0 {
		t.Errorf("%d orders still active locally", n)
	}
}

// blockingGateway delays placements until released, to stage the race
// between the place phase and the emergency path.
type blockingGateway struct {
	*execution.MockGateway
	placing chan struct{} // closed once both placements are in flight
	release chan struct{}
	calls   int
	mu      sync.Mutex
}

func newBlockingGateway() *blockingGateway {
	return &blockingGateway{
		MockGateway: execution.NewMockGateway(),
		placing:     make(chan struct{}),
		release:     make(chan struct{}),
	}
}

func (g *blockingGateway) PlaceOrder(ctx context.Context, req domain.OrderRequest) (domain.OrderAck, error) {
	g.mu.Lock()
	g.calls++
	both := g.calls == 2
	g.mu.Unlock()
	if both {
		close(g.placing)
	}
	<-g.release
	return g.MockGateway.PlaceOrder(ctx, req)
}

func TestEmergencyRacingPlacePhase(t *testing.T) {
	gateway := newBlockingGateway()
	mm, book, _ := newTestMaker(t, gateway)

	done := make(chan struct{})
	go func() {
		mm.quoteCycle(context.Background())
		close(done)
	}()

	// Wait until both placements are in flight, then shut down.
	select {
	case <-gateway.placing:
	case <-time.After(2 * time.Second):
		t.Fatal("placements never started")
	}
	mm.EmergencyCleanup(context.Background())

	// Let the placements complete after the shutdown.
	close(gateway.release)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("quote cycle did not finish")
	}

	// The late acks must be disowned: slots empty, orders known to the
	// book but cancelled.
	if s := mm.Slots(); s.BidID != "" || s.AskID != "" {
		t.Errorf("slots = %+v, want empty after racing shutdown", s)
	}
	if n := len(book.ActiveOrders()); n != 0 {
		t.Errorf("%d orders locally active after racing shutdown", n)
	}
	if gateway.PlacedCount() != 2 {
		t.Fatalf("placed %d, want 2", gateway.PlacedCount())
	}

	// Best-effort venue cancels go out asynchronously.
	deadline := time.After(2 * time.Second)
	for len(gateway.CancelledIDs()) < 2 {
		select {
		case <-deadline:
			t.Fatalf("venue cancels for disowned orders: %v", gateway.CancelledIDs())
		case <-time.After(10 * time.Millisecond):
		}
	}
}

// slowCancelGateway additionally holds single-order cancels until released.
type slowCancelGateway struct {
	*blockingGateway
	cancelRelease chan struct{}
}

func (g *slowCancelGateway) CancelOrder(ctx context.Context, id string) error {
	<-g.cancelRelease
	return g.MockGateway.CancelOrder(ctx, id)
}

func TestRun_DrainsDisownedCancelsBeforeReturning(t *testing.T) {
	gateway := &slowCancelGateway{
		blockingGateway: newBlockingGateway(),
		cancelRelease:   make(chan struct{}),
	}
	mm, _, _ := newTestMaker(t, gateway)

	ctx, cancel := context.WithCancel(context.Background())
	runDone := make(chan struct{})
	go func() {
		mm.Run(ctx)
		close(runDone)
	}()

	// Stage the shutdown race: both placements in flight, then halt.
	select {
	case <-gateway.placing:
	case <-time.After(2 * time.Second):
		t.Fatal("placements never started")
	}
	mm.EmergencyCleanup(context.Background())
	cancel()
	close(gateway.release)

	// The disowned orders' venue cancels are still pending, so Run must
	// not have returned yet.
	select {
	case <-runDone:
		t.Fatal("Run returned with best-effort cancels still in flight")
	case <-time.After(100 * time.Millisecond):
	}

	close(gateway.cancelRelease)
	select {
	case <-runDone:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after the cancels completed")
	}

	if len(gateway.CancelledIDs()) < 2 {
		t.Errorf("venue cancels for disowned orders: %v", gateway.CancelledIDs())
	}
}

func TestBootstrap(t *testing.T) {
	mock := execution.NewMockGateway()
	mock.Orders = []domain.OrderUpdate{
		{OrderID: "pre-1", Symbol: "GOLD-BTC", Status: domain.StatusSubmitted, RemainingQty: "0.1"},
		{OrderID: "pre-2", Symbol: "GOLD-BTC", Status: domain.StatusFilled, ExecutedQty: "0.1"},
	}
	mm, book, _ := newTestMaker(t, mock)

	mm.Bootstrap(context.Background())

	if !book.IsActive("pre-1") {
		t.Error("pre-existing resting order should be active")
	}
	if book.Status("pre-2") != domain.StatusFilled {
		t.Error("pre-existing filled order should be filled")
	}
}

type failingListGateway struct {
	*execution.MockGateway
}

func (g *failingListGateway) ListOrders(ctx context.Context, instType string) ([]domain.OrderUpdate, error) {
	return nil, errors.New("venue listing down")
}

func TestBootstrap_FailureIsNonFatal(t *testing.T) {
	gateway := &failingListGateway{execution.NewMockGateway()}
	mm, book, _ := newTestMaker(t, gateway)

	mm.Bootstrap(context.Background())

	if len(book.History()) != 0 {
		t.Error("failed bootstrap must leave the book empty")
	}

	// Quoting proceeds normally afterwards.
	mm.quoteCycle(context.Background())
	if gateway.PlacedCount() != 2 {
		t.Errorf("placed %d, want 2", gateway.PlacedCount())
	}
}

func TestUpdatePosition(t *testing.T) {
	mock := execution.NewMockGateway()
	mock.Positions = []domain.PositionLeg{
		{Side: "long", Size: 0.5},
		{Side: "short", Size: 0.2},
	}
	mm, book, _ := newTestMaker(t, mock)

	book.ApplyUpdate(domain.OrderUpdate{OrderID: "f1", Status: domain.StatusFilled})

	if err := mm.updatePosition(context.Background()); err != nil {
		t.Fatalf("updatePosition failed: %v", err)
	}

	pos := mm.Position()
	if pos.Size != 0.3 {
		t.Errorf("position = %v, want 0.3", pos.Size)
	}
	if pos.FillCount != 1 {
		t.Errorf("fill count = %d, want 1", pos.FillCount)
	}
	if pos.LastUpdated.IsZero() {
		t.Error("last updated should be set")
	}
	if pos.Symbol != "GOLD-BTC" {
		t.Errorf("symbol = %s", pos.Symbol)
	}
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	mock := execution.NewMockGateway()
	mm, _, _ := newTestMaker(t, mock)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		mm.Run(ctx)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop on cancellation")
	}
}
