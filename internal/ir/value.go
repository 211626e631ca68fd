package ir

import (
	"slices"
	"unicode/utf16"
)

// Value is a sealed interface over the report value types.
// Only Null, String, Int, Bool, Array and Object implement it.
type Value interface {
	reportValue()
}

// Null is an explicit null. It is rejected by MarshalCanonical but lets
// callers represent "absent" without a nil interface.
type Null struct{}

func (Null) reportValue() {}

// String is a string value.
type String string

func (String) reportValue() {}

// Int is an integer value. Always int64.
type Int int64

func (Int) reportValue() {}

// Bool is a boolean value.
type Bool bool

func (Bool) reportValue() {}

// Array is an ordered list of values.
type Array []Value

func (Array) reportValue() {}

// Object maps string keys to values. Use SortedKeys for iteration.
type Object map[string]Value

func (Object) reportValue() {}

// Pair is a key/value pair for building an Object.
type Pair struct {
	Key   string
	Value Value
}

// P is shorthand for Pair.
func P(key string, value Value) Pair {
	return Pair{Key: key, Value: value}
}

// NewObject builds an Object from pairs. Later pairs win on duplicate keys.
func NewObject(pairs ...Pair) Object {
	obj := make(Object, len(pairs))
	for _, p := range pairs {
		obj[p.Key] = p.Value
	}
	return obj
}

// SortedKeys returns keys in RFC 8785 order (UTF-16 code units).
// Go's native string order compares UTF-8 bytes, which differs for
// characters outside the BMP.
func (obj Object) SortedKeys() []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareUTF16)
	return keys
}

func compareUTF16(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))

	n := min(len(a16), len(b16))
	for i := 0; i < n; i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}

	switch {
	case len(a16) < len(b16):
		return -1
	case len(a16) > len(b16):
		return 1
	}
	return 0
}
