package fold

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKey(t *testing.T) {
	assert.Equal(t, "foo", Key("  FoO "))
	assert.Equal(t, Key("Straße"), Key("STRASSE"))
	assert.Equal(t, "", Key("   "))
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal("Alpha", "aLPHA"))
	assert.False(t, Equal("alpha", "alpha2"))
}
