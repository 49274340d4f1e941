// Package normalization provides type-safe string-to-enum normalization
// shared by configuration loading and CLI flag handling.
package normalization

import (
	"fmt"
	"sort"
	"strings"
)

// Normalizer maps free-form user input onto a closed set of typed values.
type Normalizer[T comparable] struct {
	values       map[string]T
	defaultValue T
	keys         []string // sorted, for error messages
}

// NewNormalizer builds a normalizer from valid string->value pairs. Keys are
// lower-cased and trimmed before lookup.
func NewNormalizer[T comparable](values map[string]T, defaultValue T) *Normalizer[T] {
	normalized := make(map[string]T, len(values))
	keys := make([]string, 0, len(values))
	for k, v := range values {
		ck := canonical(k)
		normalized[ck] = v
		keys = append(keys, ck)
	}
	sort.Strings(keys)
	return &Normalizer[T]{values: normalized, defaultValue: defaultValue, keys: keys}
}

// Normalize converts raw input to the typed value, falling back to the
// default when the input is not recognized.
func (n *Normalizer[T]) Normalize(raw string) T {
	if v, ok := n.values[canonical(raw)]; ok {
		return v
	}
	return n.defaultValue
}

// NormalizeStrict converts raw input to the typed value or reports an error
// naming the valid options.
func (n *Normalizer[T]) NormalizeStrict(raw string) (T, error) {
	if v, ok := n.values[canonical(raw)]; ok {
		return v, nil
	}
	var zero T
	return zero, fmt.Errorf("invalid value %q, valid options: %v", raw, n.keys)
}

// Valid reports whether the typed value belongs to the closed set.
func (n *Normalizer[T]) Valid(value T) bool {
	for _, v := range n.values {
		if v == value {
			return true
		}
	}
	return false
}

// Keys returns the sorted canonical input keys.
func (n *Normalizer[T]) Keys() []string {
	out := make([]string, len(n.keys))
	copy(out, n.keys)
	return out
}

func canonical(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
