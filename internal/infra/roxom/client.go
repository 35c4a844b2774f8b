package roxom

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"roxom_mm/internal/domain"
	"roxom_mm/internal/infra"
	"roxom_mm/internal/logger"
)

// DefaultBaseURL is the production Roxom REST endpoint.
const DefaultBaseURL = "https://api.roxom.io"

// APIError is a non-2xx response from the venue, preserving the venue's
// error code and message when the body parses.
type APIError struct {
	Status  int
	Code    string
	Message string
	Body    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("roxom api error: status %d code %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("roxom api error: status %d: %s", e.Status, e.Body)
}

// Client is the Roxom REST gateway. It is stateless apart from the shared
// http.Client, so concurrent calls from the quote cycle are safe.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
	orders  *infra.RateLimiter
	account *infra.RateLimiter
	log     *logger.Entry
}

// NewClient creates a Roxom REST client. baseURL falls back to production
// when empty.
func NewClient(apiKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
		orders:  infra.GetRoxomOrderLimiter(),
		account: infra.GetRoxomAccountLimiter(),
		log:     logger.Get("roxom_client"),
	}
}

// PlaceOrder submits a new limit order and returns the venue ack.
func (c *Client) PlaceOrder(ctx context.Context, req domain.OrderRequest) (domain.OrderAck, error) {
	if err := c.orders.Wait(ctx); err != nil {
		return domain.OrderAck{}, err
	}

	body := placeOrderRequest{
		Symbol:      req.Symbol,
		InstType:    req.InstType,
		OrderType:   req.OrderType,
		Side:        req.Side,
		Qty:         req.Qty,
		Px:          req.Price,
		TimeInForce: req.TimeInForce,
	}

	data, err := c.do(ctx, http.MethodPost, "/api/v1/orders", nil, body)
	if err != nil {
		return domain.OrderAck{}, err
	}

	var ack orderAckData
	if err := json.Unmarshal(data, &ack); err != nil {
		return domain.OrderAck{}, fmt.Errorf("failed to parse order ack: %w", err)
	}
	if ack.OrderID == "" {
		return domain.OrderAck{}, fmt.Errorf("order ack missing orderId")
	}
	return domain.OrderAck{OrderID: ack.OrderID, AccountID: ack.AccountID}, nil
}

// CancelOrder cancels one order by venue id.
func (c *Client) CancelOrder(ctx context.Context, orderID string) error {
	if err := c.orders.Wait(ctx); err != nil {
		return err
	}
	path := "/api/v1/orders/" + url.PathEscape(orderID) + "/cancel"
	_, err := c.do(ctx, http.MethodPost, path, nil, nil)
	return err
}

// CancelAllOrders cancels every resting order on the account.
func (c *Client) CancelAllOrders(ctx context.Context) error {
	if err := c.orders.Wait(ctx); err != nil {
		return err
	}
	_, err := c.do(ctx, http.MethodPost, "/api/v1/orders/cancel-all", nil, nil)
	return err
}

// ListOrders fetches existing orders, mapped to the private-stream update
// shape so the order book takes one input format. Fill fields are not part
// of the listing and are zeroed.
func (c *Client) ListOrders(ctx context.Context, instType string) ([]domain.OrderUpdate, error) {
	if err := c.account.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{"instType": {instType}}
	data, err := c.do(ctx, http.MethodGet, "/api/v1/orders", params, nil)
	if err != nil {
		return nil, err
	}

	var listing ordersData
	if err := json.Unmarshal(data, &listing); err != nil {
		return nil, fmt.Errorf("failed to parse orders listing: %w", err)
	}

	updates := make([]domain.OrderUpdate, 0, len(listing.Orders))
	for _, o := range listing.Orders {
		updates = append(updates, domain.OrderUpdate{
			OrderID:        o.ID,
			AccountID:      o.AccountID,
			Symbol:         o.Symbol,
			Status:         domain.ParseStatus(o.Status),
			RemainingQty:   o.Qty,
			ExecutedQty:    "0.00",
			AvgPrice:       "0.00000000",
			VenueTimestamp: o.CreatedAt,
		})
	}
	return updates, nil
}

// ListPositions fetches the position legs for a symbol.
func (c *Client) ListPositions(ctx context.Context, symbol, instType string) ([]domain.PositionLeg, error) {
	if err := c.account.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{"instType": {instType}, "symbol": {symbol}}
	data, err := c.do(ctx, http.MethodGet, "/api/v1/positions", params, nil)
	if err != nil {
		return nil, err
	}

	var listing positionsData
	if err := json.Unmarshal(data, &listing); err != nil {
		return nil, fmt.Errorf("failed to parse positions listing: %w", err)
	}

	legs := make([]domain.PositionLeg, 0, len(listing.Positions))
	for _, p := range listing.Positions {
		size, err := strconv.ParseFloat(p.Size, 64)
		if err != nil {
			c.log.Warnf("unparseable position size %q, treating as 0", p.Size)
			size = 0
		}
		legs = append(legs, domain.PositionLeg{Side: p.Side, Size: size})
	}
	return legs, nil
}

// Ping checks venue reachability.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, "/ping", nil, nil)
	return err
}

// do performs one request and unwraps the response envelope. Non-2xx
// statuses become *APIError.
func (c *Client) do(ctx context.Context, method, path string, params url.Values, body any) (json.RawMessage, error) {
	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-API-KEY", c.apiKey)
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("roxom request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read roxom response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode, Body: string(raw)}
		var envelope apiResponse
		if json.Unmarshal(raw, &envelope) == nil {
			apiErr.Code = envelope.Code
			apiErr.Message = envelope.Msg
		}
		return nil, apiErr
	}

	var envelope apiResponse
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("failed to parse roxom response: %w", err)
	}
	return envelope.Data, nil
}
