package services

import (
	"testing"
	"trip-scheduler-service/internal/domain"
)

func TestRestMinutes(t *testing.T) {
	cases := []struct {
		name     string
		duration int
		base     int
		want     int
	}{
		{"short hop clamps to minimum", 30, 0, 15},
		{"proportional", 120, 0, 30},
		{"rounds half up", 122, 0, 31},
		{"long haul clamps to maximum", 600, 0, 90},
		{"configured base below dynamic", 120, 20, 30},
		{"configured base honored", 120, 40, 40},
		{"configured base capped at dynamic plus margin", 120, 60, 45},
		{"configured base on long haul", 600, 120, 105},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := RestMinutes(tc.duration, tc.base); got != tc.want {
				t.Fatalf("RestMinutes(%d, %d) = %d, want %d", tc.duration, tc.base, got, tc.want)
			}
		})
	}
}

func TestRestMinutesBoundedAndMonotonic(t *testing.T) {
	prev := 0
	for d := 0; d <= 12*60; d++ {
		got := RestMinutes(d, 0)
		if got < 15 || got > 90 {
			t.Fatalf("RestMinutes(%d) = %d outside [15, 90]", d, got)
		}
		if got < prev {
			t.Fatalf("RestMinutes(%d) = %d decreased from %d", d, got, prev)
		}
		prev = got
	}
}

func TestRestPolicyUsesCategoryBase(t *testing.T) {
	p := RestPolicy{BaseMinutesIntra: 20, BaseMinutesInter: 40}
	if got := p.RestAfter(60, domain.RouteIntra); got != 20 {
		t.Fatalf("intra rest = %d, want 20", got)
	}
	if got := p.RestAfter(60, domain.RouteInter); got != 30 {
		t.Fatalf("inter rest = %d, want 30 (15 + margin)", got)
	}
}
