package domain

import "testing"

func TestSigned(t *testing.T) {
	tests := []struct {
		name string
		legs []PositionLeg
		want float64
	}{
		{"empty", nil, 0},
		{"long only", []PositionLeg{{Side: "long", Size: 2.5}}, 2.5},
		{"short only", []PositionLeg{{Side: "short", Size: 1.0}}, -1.0},
		{"both legs", []PositionLeg{{Side: "long", Size: 3.0}, {Side: "short", Size: 1.25}}, 1.75},
		{"unknown side ignored", []PositionLeg{{Side: "flat", Size: 9}}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Signed(tt.legs); got != tt.want {
				t.Errorf("Signed() = %v, want %v", got, tt.want)
			}
		})
	}
}
