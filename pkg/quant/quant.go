package quant

import (
	"github.com/shopspring/decimal"
)

// Midpoint returns the two-sided midprice (bid+ask)/2.
func Midpoint(bid, ask float64) float64 {
	return (bid + ask) / 2
}

// RoundToTick rounds a price to the nearest multiple of tickSize.
// Ties round half away from zero (shopspring decimal.Round semantics);
// this can move a quote by at most one tick relative to the ideal price.
// Done in decimal space so sub-satoshi ticks like 0.000001 stay exact.
func RoundToTick(price, tickSize float64) float64 {
	if tickSize <= 0 {
		return price
	}
	p := decimal.NewFromFloat(price)
	tick := decimal.NewFromFloat(tickSize)
	ticks := p.Div(tick).Round(0)
	return ticks.Mul(tick).InexactFloat64()
}

// IsTickMultiple reports whether price sits on the tick grid.
func IsTickMultiple(price, tickSize float64) bool {
	if tickSize <= 0 {
		return true
	}
	p := decimal.NewFromFloat(price)
	tick := decimal.NewFromFloat(tickSize)
	return p.Mod(tick).IsZero()
}

// FormatPrice renders a price in the venue wire format (8 decimal places).
func FormatPrice(price float64) string {
	return decimal.NewFromFloat(price).StringFixed(8)
}
