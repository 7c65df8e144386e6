package mathutil

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestRound(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Round up at midpoint", "1.235", "1.24"},
		{"Round down below midpoint", "1.234", "1.23"},
		{"No rounding needed", "1.23", "1.23"},
		{"Large number", "12345.678", "12345.68"},
		{"Negative number round away from zero", "-1.235", "-1.24"},
		{"Zero", "0", "0.00"},
		{"Very small positive", "0.001", "0.00"},
		{"Exactly one cent", "0.01", "0.01"},
		{"Nearly two cents", "0.019", "0.02"},
		{"Long fraction at midpoint", "2.00500000", "2.01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Round(dec(tt.input))
			if result.StringFixed(2) != tt.expected {
				t.Errorf("Round(%v) = %v, expected %v", tt.input, result.StringFixed(2), tt.expected)
			}
		})
	}
}

func TestSignPredicates(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		zero     bool
		positive bool
		negative bool
	}{
		{"Zero", "0.00", true, false, false},
		{"One cent", "0.01", false, true, false},
		{"Negative cent", "-0.01", false, false, true},
		{"Sub-cent positive", "0.001", false, true, false},
		{"Large positive", "100", false, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := dec(tt.input)
			if IsZero(v) != tt.zero {
				t.Errorf("IsZero(%v) = %v, expected %v", tt.input, IsZero(v), tt.zero)
			}
			if IsPositive(v) != tt.positive {
				t.Errorf("IsPositive(%v) = %v, expected %v", tt.input, IsPositive(v), tt.positive)
			}
			if IsNegative(v) != tt.negative {
				t.Errorf("IsNegative(%v) = %v, expected %v", tt.input, IsNegative(v), tt.negative)
			}
		})
	}
}

func TestToCents(t *testing.T) {
	tests := []struct {
		name  string
		input string
		cents int64
		exact bool
	}{
		{"Whole amount", "100", 10000, true},
		{"Two fraction digits", "12.34", 1234, true},
		{"Trailing zeros", "12.3400", 1234, true},
		{"One fraction digit", "0.5", 50, true},
		{"Sub-cent amount", "1.005", 0, false},
		{"Zero", "0", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cents, exact := ToCents(dec(tt.input))
			if exact != tt.exact {
				t.Fatalf("ToCents(%v) exact = %v, expected %v", tt.input, exact, tt.exact)
			}
			if exact && cents != tt.cents {
				t.Errorf("ToCents(%v) = %d, expected %d", tt.input, cents, tt.cents)
			}
		})
	}
}

func TestFloorCents(t *testing.T) {
	tests := []struct {
		input    string
		expected int64
	}{
		{"10.009", 1000},
		{"10.01", 1001},
		{"0", 0},
	}

	for _, tt := range tests {
		if got := FloorCents(dec(tt.input)); got != tt.expected {
			t.Errorf("FloorCents(%v) = %d, expected %d", tt.input, got, tt.expected)
		}
	}
}

func TestFromCents(t *testing.T) {
	if got := FromCents(1234).StringFixed(2); got != "12.34" {
		t.Errorf("FromCents(1234) = %v, expected 12.34", got)
	}
	if got := FromCents(0).StringFixed(2); got != "0.00" {
		t.Errorf("FromCents(0) = %v, expected 0.00", got)
	}
}

func TestHasCents(t *testing.T) {
	if !HasCents(dec("1.20")) {
		t.Error("HasCents(1.20) = false, expected true")
	}
	if HasCents(dec("1.201")) {
		t.Error("HasCents(1.201) = true, expected false")
	}
}

func TestMinMax(t *testing.T) {
	a, b := dec("1.50"), dec("2.25")
	if !Min(a, b).Equal(a) {
		t.Errorf("Min(%v, %v) = %v", a, b, Min(a, b))
	}
	if !Max(a, b).Equal(b) {
		t.Errorf("Max(%v, %v) = %v", a, b, Max(a, b))
	}
}

func TestSum(t *testing.T) {
	if got := Sum(dec("25.00"), dec("15.00")); !got.Equal(dec("40")) {
		t.Errorf("Sum = %v, expected 40.00", got)
	}
	if got := Sum(); !got.IsZero() {
		t.Errorf("Sum() = %v, expected 0", got)
	}
}

func TestCeilPercentage(t *testing.T) {
	tests := []struct {
		value      string
		percentage int
		expected   string
	}{
		{"100.00", 10, "10.00"},
		{"123.45", 10, "12.35"},
		{"123.41", 10, "12.35"},
		{"0.05", 10, "0.01"},
		{"0.01", 10, "0.01"},
		{"50.00", 0, "0.00"},
	}

	for _, tt := range tests {
		got := CeilPercentage(dec(tt.value), tt.percentage)
		if got.StringFixed(2) != tt.expected {
			t.Errorf("CeilPercentage(%v, %d) = %v, expected %v", tt.value, tt.percentage, got.StringFixed(2), tt.expected)
		}
	}
}
