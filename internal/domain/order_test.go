package domain

import "testing"

func TestParseSide(t *testing.T) {
	tests := []struct {
		tag  byte
		want Side
		ok   bool
	}{
		{'B', SideBuy, true},
		{'S', SideSell, true},
		{'Z', 0, false},
		{'b', 0, false},
		{'A', 0, false},
		{0, 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseSide(tt.tag)
		if ok != tt.ok || got != tt.want {
			t.Errorf("ParseSide(%q) = (%v, %v), want (%v, %v)", tt.tag, got, ok, tt.want, tt.ok)
		}
	}
}

func TestSide_Opposite(t *testing.T) {
	if SideBuy.Opposite() != SideSell {
		t.Error("buy opposite should be sell")
	}
	if SideSell.Opposite() != SideBuy {
		t.Error("sell opposite should be buy")
	}
}

func TestSide_Crosses(t *testing.T) {
	tests := []struct {
		name    string
		side    Side
		limit   float64
		resting float64
		want    bool
	}{
		{"buy above ask", SideBuy, 6.0, 5.0, true},
		{"buy touches ask", SideBuy, 5.0, 5.0, true},
		{"buy below ask", SideBuy, 4.99, 5.0, false},
		{"sell below bid", SideSell, 4.0, 5.0, true},
		{"sell touches bid", SideSell, 5.0, 5.0, true},
		{"sell above bid", SideSell, 5.01, 5.0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.side.Crosses(tt.limit, tt.resting); got != tt.want {
				t.Errorf("Crosses(%v, %v) = %v, want %v", tt.limit, tt.resting, got, tt.want)
			}
		})
	}
}
