package execution

import (
	"context"

	"roxom_mm/internal/domain"
)

// Gateway defines the venue order-entry surface the strategy quotes
// through. The live implementation is the Roxom REST client; paper and
// mock implementations exist for dry runs and tests.
type Gateway interface {
	// PlaceOrder submits a new limit order and returns the venue ack.
	PlaceOrder(ctx context.Context, req domain.OrderRequest) (domain.OrderAck, error)

	// CancelOrder cancels an existing order by venue id.
	CancelOrder(ctx context.Context, orderID string) error

	// CancelAllOrders cancels every resting order on the account.
	CancelAllOrders(ctx context.Context) error

	// ListOrders fetches existing orders for bootstrap reconciliation.
	ListOrders(ctx context.Context, instType string) ([]domain.OrderUpdate, error)

	// ListPositions fetches the position legs for a symbol.
	ListPositions(ctx context.Context, symbol, instType string) ([]domain.PositionLeg, error)
}
