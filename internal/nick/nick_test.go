package nick

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	n := New([]string{`\|`, `^\[[^\]]*\]`, `^wb\.`})

	tests := []struct {
		in, want string
	}{
		{"WB|Foo", "Foo"},
		{"a|b|Bar", "Bar"},
		{"[WB] Baz", "Baz"},
		{"[wb]baz", "baz"},
		{"wb.Qux", "Qux"},
		{"WB.Qux", "Qux"},
		{"  plain  ", "plain"},
		{"mid[tag]", "mid[tag]"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, n.Normalize(tt.in), tt.in)
	}
}

func TestNormalize_UnescapedPipe(t *testing.T) {
	n := New([]string{"|"})
	assert.Equal(t, "Foo", n.Normalize("TAG | Foo"))
	assert.Equal(t, "Foo", n.Normalize("Foo"))
}

func TestNormalize_NoPatternsIsTrim(t *testing.T) {
	for _, n := range []*Normalizer{nil, New(nil), New([]string{""})} {
		for _, s := range []string{" x ", "a|b", "[T]x", ""} {
			assert.Equal(t, strings.TrimSpace(s), n.Normalize(s))
		}
	}
}

// Inputs that no pattern matches round-trip to their trimmed form.
func TestNormalize_RoundTripWithoutMatch(t *testing.T) {
	n := New([]string{`\|`, `^\[[^\]]*\]`})
	for _, s := range []string{"foo", "  bar baz ", "x-y", "(tag)nick"} {
		assert.Equal(t, strings.TrimSpace(s), n.Normalize(s))
	}
}

func TestNew_InvalidPatternSkipped(t *testing.T) {
	n := New([]string{"([", `\|`})
	assert.Equal(t, []string{"(["}, n.Invalid())
	assert.Equal(t, "Foo", n.Normalize("T|Foo"))
}
