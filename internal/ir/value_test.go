package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValueSealed(t *testing.T) {
	var _ Value = Null{}
	var _ Value = String("test")
	var _ Value = Int(42)
	var _ Value = Bool(true)
	var _ Value = Array{String("a"), Int(1)}
	var _ Value = Object{"key": String("value")}
}

func TestObjectSortedKeys(t *testing.T) {
	obj := Object{
		"zebra":  String("z"),
		"apple":  String("a"),
		"banana": String("b"),
	}

	assert.Equal(t, []string{"apple", "banana", "zebra"}, obj.SortedKeys())
}

func TestObjectSortedKeysCase(t *testing.T) {
	obj := Object{
		"a":  Int(1),
		"A":  Int(2),
		"aa": Int(3),
		"aA": Int(4),
		"Aa": Int(5),
		"AA": Int(6),
	}

	// 'A' = 65, 'a' = 97
	assert.Equal(t, []string{"A", "AA", "Aa", "a", "aA", "aa"}, obj.SortedKeys())
}

func TestSortedKeysUTF16Order(t *testing.T) {
	// U+1F600 encodes as surrogates D83D DE00; U+FF61 is a single unit FF61.
	// UTF-16 puts the emoji first, UTF-8 byte order would put it last.
	obj := Object{
		"\uFF61":     Int(1),
		"\U0001F600": Int(2),
	}

	assert.Equal(t, []string{"\U0001F600", "\uFF61"}, obj.SortedKeys())
}

func TestCompareUTF16(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"a", "a", 0},
		{"a", "b", -1},
		{"b", "a", 1},
		{"a", "ab", -1},
		{"ab", "a", 1},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, compareUTF16(tt.a, tt.b), "compare(%q, %q)", tt.a, tt.b)
	}
}

func TestNewObject(t *testing.T) {
	obj := NewObject(P("name", String("cpn")), P("count", Int(3)), P("name", String("last")))

	assert.Len(t, obj, 2)
	assert.Equal(t, String("last"), obj["name"])
	assert.Equal(t, Int(3), obj["count"])
}
