package strategy

import (
	"math"
	"testing"

	"roxom_mm/internal/storage"
)

func newTestPricer(spreadBps, tickSize float64) (*Pricer, *storage.PriceStore) {
	prices := storage.NewPriceStore([]string{"paxgusdt", "btcusdt"})
	p := NewPricer(prices, []string{"paxgusdt", "btcusdt"}, spreadBps, tickSize)
	return p, prices
}

func TestPricer_FairPrice(t *testing.T) {
	p, prices := newTestPricer(20, 0.000001)

	if _, ok := p.FairPrice(); ok {
		t.Fatal("fair price must be unavailable before any ticks")
	}

	prices.Update("PAXGUSDT", 2000.0, 2000.2)
	if _, ok := p.FairPrice(); ok {
		t.Fatal("fair price must be unavailable with one symbol missing")
	}

	prices.Update("BTCUSDT", 60000.0, 60010.0)
	fair, ok := p.FairPrice()
	if !ok {
		t.Fatal("fair price should be available")
	}

	// mid(PAXG) = 2000.1, mid(BTC) = 60005
	want := 2000.1 / 60005.0
	if math.Abs(fair-want) > 1e-12 {
		t.Errorf("fair = %v, want %v", fair, want)
	}
	if !p.Ready() {
		t.Error("Ready() should be true")
	}
}

func TestPricer_Quote(t *testing.T) {
	tests := []struct {
		name      string
		fair      float64
		spreadBps float64
		tickSize  float64
		wantBid   float64
		wantAsk   float64
	}{
		{
			name: "gold-btc typical", fair: 2000.1 / 60005.0, spreadBps: 20, tickSize: 0.000001,
			// fair ~ 0.033332, 20bps total spread = ~0.0000667, half each side
			wantBid: 0.033299, wantAsk: 0.033366,
		},
		{
			name: "zero spread rounds fair both sides", fair: 0.0333321, spreadBps: 0, tickSize: 0.000001,
			wantBid: 0.033332, wantAsk: 0.033332,
		},
		{
			name: "large fair price", fair: 50000, spreadBps: 20, tickSize: 0.01,
			// total spread = 50000 * 0.002 = 100, 50 each side
			wantBid: 49950, wantAsk: 50050,
		},
		{
			name: "coarse tick", fair: 0.0333335, spreadBps: 100, tickSize: 0.0001,
			// half-spread ~0.000167: bid ~0.033167 -> 0.0332, ask ~0.0335
			wantBid: 0.0332, wantAsk: 0.0335,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, _ := newTestPricer(tt.spreadBps, tt.tickSize)
			bid, ask := p.Quote(tt.fair)
			if math.Abs(bid-tt.wantBid) > 1e-9 {
				t.Errorf("bid = %.9f, want %.9f", bid, tt.wantBid)
			}
			if math.Abs(ask-tt.wantAsk) > 1e-9 {
				t.Errorf("ask = %.9f, want %.9f", ask, tt.wantAsk)
			}
		})
	}
}

func TestPricer_QuoteOrdering(t *testing.T) {
	p, prices := newTestPricer(20, 0.000001)
	prices.Update("PAXGUSDT", 2000.0, 2000.2)
	prices.Update("BTCUSDT", 60000.0, 60010.0)

	fair, _ := p.FairPrice()
	bid, ask := p.Quote(fair)
	if bid >= ask {
		t.Errorf("bid %v must be below ask %v", bid, ask)
	}
	if bid >= fair || ask <= fair {
		t.Errorf("fair %v must sit between bid %v and ask %v", fair, bid, ask)
	}
}

func TestPricer_ZeroDenominator(t *testing.T) {
	p, prices := newTestPricer(20, 0.000001)
	prices.Update("PAXGUSDT", 2000.0, 2000.2)
	prices.Update("BTCUSDT", 0, 0)

	if _, ok := p.FairPrice(); ok {
		t.Error("zero denominator mid must not produce a fair price")
	}
}
