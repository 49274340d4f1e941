package normalization

import (
	"testing"
)

type testMode string

const (
	modeAlpha testMode = "alpha"
	modeBeta  testMode = "beta"
	modeGamma testMode = "gamma"
)

func newTestNormalizer() *Normalizer[testMode] {
	return NewNormalizer(map[string]testMode{
		"alpha": modeAlpha,
		"beta":  modeBeta,
		"gamma": modeGamma,
	}, modeAlpha)
}

func TestNormalizer_Basic(t *testing.T) {
	n := newTestNormalizer()

	tests := []struct {
		name     string
		input    string
		expected testMode
	}{
		{"exact match", "alpha", modeAlpha},
		{"case insensitive", "ALPHA", modeAlpha},
		{"with spaces", "  beta  ", modeBeta},
		{"mixed case spaces", "  GaMmA  ", modeGamma},
		{"invalid input", "invalid", modeAlpha}, // Should return default
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := n.Normalize(tt.input)
			if result != tt.expected {
				t.Errorf("Normalize(%q) = %v, want %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestNormalizer_Strict(t *testing.T) {
	n := newTestNormalizer()

	result, err := n.NormalizeStrict("ALPHA")
	if err != nil {
		t.Errorf("NormalizeStrict(valid input) returned error: %v", err)
	}
	if result != modeAlpha {
		t.Errorf("NormalizeStrict(valid input) = %v, want %v", result, modeAlpha)
	}

	_, err = n.NormalizeStrict("invalid")
	if err == nil {
		t.Error("NormalizeStrict(invalid input) should return error")
	}
}

func TestNormalizer_Valid(t *testing.T) {
	n := newTestNormalizer()

	if !n.Valid(modeBeta) {
		t.Error("Valid(modeBeta) should be true")
	}
	if n.Valid(testMode("delta")) {
		t.Error("Valid(delta) should be false")
	}
}

func TestKeysSorted(t *testing.T) {
	n := NewNormalizer(map[string]testMode{
		"gamma": modeGamma,
		"alpha": modeAlpha,
		"beta":  modeBeta,
	}, modeAlpha)

	keys := n.Keys()

	expected := []string{"alpha", "beta", "gamma"}
	if len(keys) != len(expected) {
		t.Fatalf("Keys() length = %d, want %d", len(keys), len(expected))
	}

	for i, key := range keys {
		if key != expected[i] {
			t.Errorf("Keys()[%d] = %q, want %q", i, key, expected[i])
		}
	}
}
