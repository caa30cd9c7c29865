package pricing

import (
	"math"
	"testing"
)

func TestCalculate(t *testing.T) {
	c := NewCalculator(nil, 1.0)

	tests := []struct {
		name        string
		distanceKm  float64
		durationMin int
		rideType    string
		want        FareBreakdown
	}{
		{
			name:       "car short hop",
			distanceKm: 3.54, durationMin: 7, rideType: "car",
			// base 50, dist 3.54*14 = 49.56, time 7*2 = 14
			want: FareBreakdown{Base: 50, Distance: 49.56, Time: 14, Surge: 0, Total: 113.56},
		},
		{
			name:       "bike minimum duration",
			distanceKm: 0.3, durationMin: 1, rideType: "bike",
			// base 20, dist 0.3*8 = 2.4, time 1
			want: FareBreakdown{Base: 20, Distance: 2.4, Time: 1, Surge: 0, Total: 23.4},
		},
		{
			name:       "sedan longer trip",
			distanceKm: 12.5, durationMin: 25, rideType: "sedan",
			// base 60, dist 12.5*16 = 200, time 25*2.5 = 62.5
			want: FareBreakdown{Base: 60, Distance: 200, Time: 62.5, Surge: 0, Total: 322.5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Calculate(tt.distanceKm, tt.durationMin, tt.rideType)
			if err != nil {
				t.Fatalf("Calculate() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Calculate() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestCalculateDeterministic(t *testing.T) {
	c := NewCalculator(nil, 1.0)
	first, err := c.Calculate(7.77, 16, "auto")
	if err != nil {
		t.Fatalf("Calculate() error = %v", err)
	}
	for i := 0; i < 50; i++ {
		again, err := c.Calculate(7.77, 16, "auto")
		if err != nil {
			t.Fatalf("Calculate() error = %v", err)
		}
		if again != first {
			t.Fatalf("run %d produced %+v, want %+v", i, again, first)
		}
	}
}

func TestCalculateTotalIsSumOfComponents(t *testing.T) {
	c := NewCalculator(nil, 1.4)
	got, err := c.Calculate(9.13, 18, "mini")
	if err != nil {
		t.Fatalf("Calculate() error = %v", err)
	}
	sum := got.Base + got.Distance + got.Time + got.Surge
	if math.Abs(got.Total-sum) > 0.005 {
		t.Errorf("Total = %f, components sum to %f", got.Total, sum)
	}
	if got.Surge <= 0 {
		t.Errorf("expected positive surge component with multiplier 1.4, got %f", got.Surge)
	}
}

func TestCalculateUnknownRideType(t *testing.T) {
	c := NewCalculator(nil, 1.0)
	if _, err := c.Calculate(2, 4, "helicopter"); err != ErrUnknownRideType {
		t.Fatalf("expected ErrUnknownRideType, got %v", err)
	}
}

func TestDurationMinutes(t *testing.T) {
	tests := []struct {
		distanceKm float64
		want       int
	}{
		{0, 1},      // floor of one minute
		{0.2, 1},    // rounds to 0, floored
		{3.54, 7},   // 3.54/30*60 = 7.08 -> 7
		{15, 30},    // exactly half an hour
		{10.1, 20},  // 20.2 -> 20
		{10.35, 21}, // 20.7 -> 21
	}
	for _, tt := range tests {
		if got := DurationMinutes(tt.distanceKm); got != tt.want {
			t.Errorf("DurationMinutes(%f) = %d, want %d", tt.distanceKm, got, tt.want)
		}
	}
}

func TestRoundKm(t *testing.T) {
	if got := RoundKm(3.14159); got != 3.14 {
		t.Errorf("RoundKm(3.14159) = %f, want 3.14", got)
	}
	if got := RoundKm(2.6789); got != 2.68 {
		t.Errorf("RoundKm(2.6789) = %f, want 2.68", got)
	}
}
