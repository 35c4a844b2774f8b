package execution

import (
	"context"
	"fmt"
	"sync"

	"roxom_mm/internal/domain"
	"roxom_mm/internal/logger"
)

// MockGateway is a safe implementation that only logs calls. It records
// every call so tests can assert on the exact venue traffic.
type MockGateway struct {
	mu sync.Mutex

	Placed     []domain.OrderRequest
	Cancelled  []string
	CancelAlls int

	// Error hooks for failure-path tests.
	PlaceErr  error
	CancelErr error

	// Canned responses for the read calls.
	Orders    []domain.OrderUpdate
	Positions []domain.PositionLeg

	nextID int
	log    *logger.Entry
}

func NewMockGateway() *MockGateway {
	return &MockGateway{log: logger.Get("mock_gateway")}
}

func (m *MockGateway) PlaceOrder(ctx context.Context, req domain.OrderRequest) (domain.OrderAck, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.PlaceErr != nil {
		return domain.OrderAck{}, m.PlaceErr
	}
	m.Placed = append(m.Placed, req)
	m.nextID++
	id := fmt.Sprintf("mock-%d", m.nextID)
	m.log.Infof("MOCK: %s %s @ %s [%s]", req.Side, req.Qty, req.Price, id)
	return domain.OrderAck{OrderID: id, AccountID: "mock-account"}, nil
}

func (m *MockGateway) CancelOrder(ctx context.Context, orderID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.CancelErr != nil {
		return m.CancelErr
	}
	m.Cancelled = append(m.Cancelled, orderID)
	m.log.Infof("MOCK: cancel [%s]", orderID)
	return nil
}

func (m *MockGateway) CancelAllOrders(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.CancelErr != nil {
		return m.CancelErr
	}
	m.CancelAlls++
	m.log.Info("MOCK: cancel all")
	return nil
}

func (m *MockGateway) ListOrders(ctx context.Context, instType string) ([]domain.OrderUpdate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.OrderUpdate(nil), m.Orders...), nil
}

func (m *MockGateway) ListPositions(ctx context.Context, symbol, instType string) ([]domain.PositionLeg, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.PositionLeg(nil), m.Positions...), nil
}

// PlacedCount returns how many placements were recorded.
func (m *MockGateway) PlacedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Placed)
}

// CancelledIDs returns a copy of the recorded cancellations.
func (m *MockGateway) CancelledIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.Cancelled...)
}

// CancelAllCount returns how many cancel-all calls were recorded.
func (m *MockGateway) CancelAllCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.CancelAlls
}
