package domain

import "time"

// PositionLeg is one side of the venue's position report.
type PositionLeg struct {
	Side string // "long" or "short"
	Size float64
}

// PositionSnapshot is the periodically rebuilt view of net exposure.
// Size is signed: long positive, short negative. Overwritten on every poll,
// never merged.
type PositionSnapshot struct {
	Symbol      string    `json:"symbol"`
	Size        float64   `json:"position"`
	FillCount   int       `json:"total_fills"`
	LastUpdated time.Time `json:"last_updated"`
}

// Signed folds the venue legs into a single signed size.
func Signed(legs []PositionLeg) float64 {
	var total float64
	for _, leg := range legs {
		switch leg.Side {
		case "long":
			total += leg.Size
		case "short":
			total -= leg.Size
		}
	}
	return total
}
