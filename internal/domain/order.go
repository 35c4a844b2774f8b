package domain

import (
	"strings"
	"time"
)

// OrderStatus mirrors the venue's lowercase wire values.
type OrderStatus string

const (
	StatusPendingSubmit   OrderStatus = "pendingsubmit"
	StatusSubmitted       OrderStatus = "submitted"
	StatusPartiallyFilled OrderStatus = "partiallyfilled"
	StatusFilled          OrderStatus = "filled"
	StatusCancelled       OrderStatus = "cancelled"
	StatusRejected        OrderStatus = "rejected"
	StatusInactive        OrderStatus = "inactive"
	StatusUnknown         OrderStatus = "unknown"
)

// ParseStatus normalizes a venue status string. Unrecognized values map to
// StatusUnknown rather than failing; the venue may add statuses.
func ParseStatus(s string) OrderStatus {
	switch OrderStatus(strings.ToLower(s)) {
	case StatusPendingSubmit, StatusSubmitted, StatusPartiallyFilled,
		StatusFilled, StatusCancelled, StatusRejected, StatusInactive:
		return OrderStatus(strings.ToLower(s))
	default:
		return StatusUnknown
	}
}

// IsTerminal reports whether no further transitions are expected.
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case StatusFilled, StatusCancelled, StatusRejected, StatusInactive:
		return true
	}
	return false
}

// Order is the local record of a venue order. Quantities and prices stay in
// the venue's string wire format; identity is the venue-assigned ID.
type Order struct {
	ID              string      `json:"orderId"`
	AccountID       string      `json:"accountId"`
	Symbol          string      `json:"symbol"`
	Status          OrderStatus `json:"status"`
	RemainingQty    string      `json:"remainingQty"`
	ExecutedQty     string      `json:"executedQty"`
	AvgPrice        string      `json:"avgPx"`
	VenueTimestamp  string      `json:"timestamp"`
	LastLocalUpdate time.Time   `json:"lastUpdated"`
}

// IsActive reports whether the order may still rest on the venue.
func (o *Order) IsActive() bool {
	return !o.Status.IsTerminal()
}

// OrderUpdate is one reconciliation event: a venue-reported snapshot of an
// order, from the private stream or from a REST listing.
type OrderUpdate struct {
	OrderID        string
	AccountID      string
	Symbol         string
	Status         OrderStatus
	RemainingQty   string
	ExecutedQty    string
	AvgPrice       string
	VenueTimestamp string
}

// OrderTransition records one applied status change, for diagnostics only.
type OrderTransition struct {
	OrderID        string      `json:"orderId"`
	PreviousStatus OrderStatus `json:"previousStatus"`
	NewStatus      OrderStatus `json:"newStatus"`
	ExecutedQty    string      `json:"executedQty"`
	RemainingQty   string      `json:"remainingQty"`
	AvgPrice       string      `json:"avgPx"`
	VenueTimestamp string      `json:"timestamp"`
	ProcessedAt    time.Time   `json:"processedAt"`
}

// Side of an order request.
const (
	SideBuy  = "buy"
	SideSell = "sell"
)

// OrderRequest carries the parameters of a new limit order.
type OrderRequest struct {
	Symbol      string
	InstType    string
	OrderType   string
	Side        string
	Qty         string
	Price       string
	TimeInForce string
}

// OrderAck is the venue's acknowledgment of a placement.
type OrderAck struct {
	OrderID   string
	AccountID string
}
