package numeric

import (
	"math"
	"testing"
)

func TestFinite(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{1.5, 1.5},
		{-3, -3},
		{math.NaN(), 0},
		{math.Inf(1), 0},
		{math.Inf(-1), 0},
	}
	for _, tt := range tests {
		if got := Finite(tt.in); got != tt.want {
			t.Errorf("Finite(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNonNegative(t *testing.T) {
	if got := NonNegative(-5); got != 0 {
		t.Errorf("expected negative to floor at 0, got %v", got)
	}
	if got := NonNegative(math.NaN()); got != 0 {
		t.Errorf("expected NaN to become 0, got %v", got)
	}
	if got := NonNegative(7.25); got != 7.25 {
		t.Errorf("expected 7.25, got %v", got)
	}
}

func TestSafeDiv(t *testing.T) {
	if got := SafeDiv(10, 0); got != 0 {
		t.Errorf("division by zero should yield 0, got %v", got)
	}
	if got := SafeDiv(10, 4); got != 2.5 {
		t.Errorf("expected 2.5, got %v", got)
	}
	if got := SafeDiv(math.Inf(1), 2); got != 0 {
		t.Errorf("infinite quotient should yield 0, got %v", got)
	}
}

func TestClamp(t *testing.T) {
	if got := Clamp(150, 0, 100); got != 100 {
		t.Errorf("expected 100, got %v", got)
	}
	if got := Clamp(-1, 0, 100); got != 0 {
		t.Errorf("expected 0, got %v", got)
	}
	if got := Clamp(math.NaN(), 0, 100); got != 0 {
		t.Errorf("expected NaN to clamp to lower bound, got %v", got)
	}
}
