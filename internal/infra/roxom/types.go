package roxom

import "encoding/json"

// placeOrderRequest is the POST /api/v1/orders body.
type placeOrderRequest struct {
	Symbol      string `json:"symbol"`
	InstType    string `json:"instType"`
	OrderType   string `json:"orderType"`
	Side        string `json:"side"`
	Qty         string `json:"qty"`
	Px          string `json:"px"`
	TimeInForce string `json:"timeInForce"`
}

// apiResponse is the common REST envelope.
type apiResponse struct {
	Success bool            `json:"success"`
	Code    string          `json:"code"`
	Msg     string          `json:"msg"`
	Data    json.RawMessage `json:"data"`
}

// orderAckData is the data payload of a placement ack.
type orderAckData struct {
	OrderID   string `json:"orderId"`
	AccountID string `json:"accountId"`
}

// restOrder is one order as returned by GET /api/v1/orders. The REST listing
// uses different field names than the private stream.
type restOrder struct {
	ID        string `json:"id"`
	AccountID string `json:"accountId"`
	Symbol    string `json:"symbol"`
	Status    string `json:"status"`
	Qty       string `json:"qty"`
	CreatedAt string `json:"createdAt"`
}

type ordersData struct {
	Orders []restOrder `json:"orders"`
}

// restPosition is one leg as returned by GET /api/v1/positions.
type restPosition struct {
	Side string `json:"side"`
	Size string `json:"size"`
}

type positionsData struct {
	Positions []restPosition `json:"positions"`
}

// wsMessage covers both private-stream message families: event messages
// (connection, subscription, errors) carry "event", data messages carry
// "type".
type wsMessage struct {
	Event  string          `json:"event,omitempty"`
	Code   string          `json:"code,omitempty"`
	Msg    string          `json:"msg,omitempty"`
	ConnID string          `json:"connId,omitempty"`
	Arg    json.RawMessage `json:"arg,omitempty"`

	Type string          `json:"type,omitempty"`
	Data json.RawMessage `json:"data,omitempty"`
}

// wsOrderData is the data payload of a "type":"order" message.
type wsOrderData struct {
	OrderID      string `json:"orderId"`
	AccountID    string `json:"accountId"`
	Symbol       string `json:"symbol"`
	Status       string `json:"status"`
	RemainingQty string `json:"remainingQty"`
	ExecutedQty  string `json:"executedQty"`
	AvgPx        string `json:"avgPx"`
	Timestamp    string `json:"timestamp"`
}

// Authentication failure code sent by the venue on the private stream.
const codeAuthFailed = "600010"
