package model

import (
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextInt(t *testing.T) {
	tests := []struct {
		in   Text
		want int
		ok   bool
	}{
		{"5", 5, true},
		{" 12 ", 12, true},
		{"5.0", 5, true},
		{"-2.00", -2, true},
		{"5.5", 0, false},
		{"", 0, false},
		{"five", 0, false},
		{"NaN", 0, false},
	}
	for _, tt := range tests {
		got, err := tt.in.Int()
		assert.Equal(t, tt.ok, err == nil, string(tt.in))
		assert.Equal(t, tt.want, got, string(tt.in))
	}
}

func TestText_DecodesNumbers(t *testing.T) {
	var a RoleAnnotation
	require.NoError(t, sonic.Unmarshal([]byte(`{"score_wb": 5.0, "score_opp": 3}`), &a))
	wb, err := a.ScoreWB.Int()
	require.NoError(t, err)
	assert.Equal(t, 5, wb)
	opp, err := a.ScoreOpp.Int()
	require.NoError(t, err)
	assert.Equal(t, 3, opp)
}

func TestRegistryEntry_MarshalIsStable(t *testing.T) {
	e := RegistryEntry{Canonical: "Alpha", IdentityKey: "1", Teams: map[string]string{"2024": "Foo", "2025": "Bar", "2023": "Baz"}}
	first, err := e.MarshalJSON()
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := e.MarshalJSON()
		require.NoError(t, err)
		assert.Equal(t, string(first), string(again))
	}

	var back RegistryEntry
	require.NoError(t, sonic.Unmarshal(first, &back))
	assert.Equal(t, e.Teams, back.Teams)
}
