package value

import (
	"math"
	"testing"
)

func TestTruthy(t *testing.T) {
	tests := []struct {
		v    Value
		want bool
	}{
		{Unit{}, false},
		{Bool(false), false},
		{Bool(true), true},
		{Num(0), true},
		{Str(""), true},
	}

	for _, tt := range tests {
		if got := Truthy(tt.v); got != tt.want {
			t.Fatalf("Truthy(%v) = %v, want %v", tt.v, got, tt.want)
		}
	}
}

func TestEqualByValue(t *testing.T) {
	tests := []struct {
		a, b Value
		want bool
	}{
		{Unit{}, Unit{}, true},
		{Bool(true), Bool(true), true},
		{Bool(true), Bool(false), false},
		{Num(1), Num(1), true},
		{Num(1), Num(2), false},
		{Str("a"), Str("a"), true},
		{Str("a"), Str("b"), false},
		{Num(1), Str("1"), false},
		{Num(math.NaN()), Num(math.NaN()), false},
	}

	for _, tt := range tests {
		if got := Equal(tt.a, tt.b); got != tt.want {
			t.Fatalf("Equal(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestStrDebugQuotesAndEscapes(t *testing.T) {
	s := Str(`say "hi"\`)
	want := `"say \"hi\"\\"`
	if got := s.Debug(); got != want {
		t.Fatalf("Debug() = %q, want %q", got, want)
	}
	if got := s.Print(); got != string(s) {
		t.Fatalf("Print() = %q, want %q", got, string(s))
	}
}

func TestNumPrintShortestRoundTrip(t *testing.T) {
	if got := Num(42).Print(); got != "42" {
		t.Fatalf("Print() = %q, want %q", got, "42")
	}
	if got := Num(3.14).Print(); got != "3.14" {
		t.Fatalf("Print() = %q, want %q", got, "3.14")
	}
}
