package strategy

import (
	"strings"

	"roxom_mm/internal/storage"
	"roxom_mm/pkg/quant"
)

// Pricer derives the synthetic fair price and the quote pair around it.
// The fair price is the ratio of two upstream midpoints: with PAXGUSDT
// over BTCUSDT this prices gold in bitcoin.
type Pricer struct {
	prices      *storage.PriceStore
	baseSymbol  string // numerator, e.g. PAXGUSDT
	quoteSymbol string // denominator, e.g. BTCUSDT
	spreadBps   float64
	tickSize    float64
}

// NewPricer creates a pricer over the first two configured price symbols.
func NewPricer(prices *storage.PriceStore, symbols []string, spreadBps, tickSize float64) *Pricer {
	return &Pricer{
		prices:      prices,
		baseSymbol:  strings.ToUpper(symbols[0]),
		quoteSymbol: strings.ToUpper(symbols[1]),
		spreadBps:   spreadBps,
		tickSize:    tickSize,
	}
}

// FairPrice returns mid(base)/mid(quote), or false until both upstream
// symbols have ticked at least once.
func (p *Pricer) FairPrice() (float64, bool) {
	if !p.prices.HasData(p.baseSymbol, p.quoteSymbol) {
		return 0, false
	}

	base, _ := p.prices.Get(p.baseSymbol)
	quote, _ := p.prices.Get(p.quoteSymbol)

	baseMid := quant.Midpoint(base.Bid, base.Ask)
	quoteMid := quant.Midpoint(quote.Bid, quote.Ask)
	if quoteMid == 0 {
		return 0, false
	}
	return baseMid / quoteMid, true
}

// Quote returns the bid and ask around a fair price, half the configured
// spread each side, rounded to the tick grid.
func (p *Pricer) Quote(fair float64) (bid, ask float64) {
	spread := fair * (p.spreadBps / 10000)
	bid = quant.RoundToTick(fair-spread/2, p.tickSize)
	ask = quant.RoundToTick(fair+spread/2, p.tickSize)
	return bid, ask
}

// Ready reports whether a fair price can currently be computed.
func (p *Pricer) Ready() bool {
	_, ok := p.FairPrice()
	return ok
}
