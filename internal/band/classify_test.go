package band

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestClassifyScenarios(t *testing.T) {
	support := decimal.NewFromFloat(74.42)
	near := decimal.NewFromInt(3)

	cases := []struct {
		name  string
		price float64
		want  Classification
	}{
		{"below support", 70, Crossed},
		{"within threshold", 76, Near},
		{"well above", 90, Normal},
		{"just above threshold", 77, Normal},
	}

	for _, tc := range cases {
		got, err := Classify(decimal.NewFromFloat(tc.price), support, near)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.name, err)
		}
		if got != tc.want {
			t.Fatalf("%s: expected %s, got %s", tc.name, tc.want, got)
		}
	}
}

func TestClassifyEqualityIsCrossed(t *testing.T) {
	support := decimal.NewFromFloat(74.42)
	got, err := Classify(support, support, decimal.NewFromInt(3))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != Crossed {
		t.Fatalf("price == support must classify as crossed, got %s", got)
	}
}

func TestClassifyInvalidSupport(t *testing.T) {
	for _, support := range []decimal.Decimal{decimal.Zero, decimal.NewFromInt(-5)} {
		_, err := Classify(decimal.NewFromInt(10), support, decimal.NewFromInt(3))
		if !errors.Is(err, ErrInvalidIndicator) {
			t.Fatalf("support %s: expected ErrInvalidIndicator, got %v", support, err)
		}
	}
}
