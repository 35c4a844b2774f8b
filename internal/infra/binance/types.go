package binance

// bookTickerEvent is a single bookTicker payload. Multi-stream connections
// wrap it in a combined envelope; single-stream connections send it bare.
type bookTickerEvent struct {
	Symbol string `json:"s"`
	Bid    string `json:"b"`
	Ask    string `json:"a"`
}

// combinedEnvelope wraps events on /stream?streams= style connections.
type combinedEnvelope struct {
	Stream string           `json:"stream"`
	Data   *bookTickerEvent `json:"data"`
}
