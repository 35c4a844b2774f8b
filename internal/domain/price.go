package domain

// PricePoint holds the latest best bid/ask for one feed symbol.
// HasData stays false until the first tick arrives.
type PricePoint struct {
	Symbol  string  `json:"symbol"`
	Bid     float64 `json:"bid"`
	Ask     float64 `json:"ask"`
	HasData bool    `json:"has_data"`
}
