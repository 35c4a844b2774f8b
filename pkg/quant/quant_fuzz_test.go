package quant

import (
	"math"
	"testing"
)

// FuzzRoundToTick validates the rounder never panics and never leaves the
// tick grid for sane inputs.
func FuzzRoundToTick(f *testing.F) {
	f.Add(0.03333612, 0.000001)
	f.Add(60004.9, 10.0)
	f.Add(-1.23, 0.01)
	f.Add(0.0, 0.000001)

	f.Fuzz(func(t *testing.T, price, tick float64) {
		if math.IsNaN(price) || math.IsInf(price, 0) || math.IsNaN(tick) || math.IsInf(tick, 0) {
			t.Skip()
		}
		got := RoundToTick(price, tick)
		if tick > 0 && math.Abs(price) < 1e9 && tick > 1e-9 {
			if math.Abs(got-price) > tick {
				t.Errorf("RoundToTick(%v, %v) = %v moved more than one tick", price, tick, got)
			}
		}
	})
}
