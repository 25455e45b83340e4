package parser

import (
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pable/go-clan-metrics/internal/model"
	"github.com/pable/go-clan-metrics/internal/nick"
	"github.com/pable/go-clan-metrics/internal/registry"
)

const rawExport = `[
  {
    "match_id": "m1",
    "played_at": "2026-02-18T21:30:00Z",
    "arena": "Troubled Waters",
    "scores": "5 : 3",
    "duration": "12:30",
    "players": [
      {"Nick": "WB|Alpha", "team": "red", "Frags": 10, "Deaths": "4", "DamageDealt": 1500,
       "DamageTaken": 900, "Damage": {"RL": 1000, "LG": 500}, "Accuracy": {"RL": "35.5%"}},
      {"Nick": "stranger", "team": "blue", "Frags": null, "Damage": {"RG": 80, "RL": 20}},
      {"Nick": "who", "team": "green", "id": "steam:2"}
    ]
  },
  {
    "match_id": "",
    "played_at": "not a date",
    "arena": "x",
    "scores": "five : three",
    "duration": "",
    "players": []
  },
  {"match_id": "m1", "players": [{"Nick": "dup", "team": "red"}]}
]`

func parseFixture(t *testing.T) ([]model.Match, []model.PlayerRow, Stats) {
	t.Helper()
	var raw []model.RawMatch
	require.NoError(t, sonic.Unmarshal([]byte(rawExport), &raw))

	entries := []model.RegistryEntry{
		{Canonical: "Alpha", IdentityKey: "steam:1"},
		{Canonical: "Bravo", IdentityKey: "steam:2"},
	}
	idx := registry.BuildIndex(entries, nick.New([]string{`\|`}))
	return ParseMatches(raw, idx, time.FixedZone("msk", 3*3600))
}

func TestParseMatches(t *testing.T) {
	matches, rows, st := parseFixture(t)

	require.Len(t, matches, 2)
	m := matches[0]
	assert.Equal(t, "m1", m.MatchID)
	assert.Equal(t, 750, m.DurationSec)
	assert.InDelta(t, 12.5, m.DurationMin, 1e-9)
	assert.Equal(t, 5, m.ScoreRed)
	assert.Equal(t, 3, m.ScoreBlue)
	assert.Equal(t, model.SideRed, m.Winner)
	// 21:30 UTC is past midnight at +03:00.
	assert.Equal(t, "2026-02-19", m.DateLocal)
	require.NotNil(t, m.PlayedAt)
	assert.Equal(t, 0, m.PlayedAt.Hour())
	assert.Equal(t, 1, m.PlayersRed)
	assert.Equal(t, 1, m.PlayersBlue)

	bad := matches[1]
	assert.Equal(t, "noid-1", bad.MatchID)
	assert.Nil(t, bad.PlayedAt)
	assert.Empty(t, bad.DateLocal)
	assert.Equal(t, 0, bad.DurationSec)
	assert.Equal(t, model.SideDraw, bad.Winner)

	assert.Equal(t, 1, st.BadDuration)
	assert.Equal(t, 1, st.BadScore)
	assert.Equal(t, 1, st.BadTimestamp)
	assert.Equal(t, 1, st.MissingMatchID)
	assert.Equal(t, 1, st.DuplicateMatchID)
	assert.Equal(t, 1, st.UnknownSide)

	require.Len(t, rows, 3)
	alpha := rows[0]
	assert.Equal(t, "Alpha", alpha.Canonical)
	assert.True(t, alpha.Resolved)
	assert.Equal(t, "steam:1", alpha.IdentityKey)
	assert.Equal(t, 4, alpha.Deaths)
	assert.Equal(t, 1500, alpha.DmgDealt)
	assert.InDelta(t, 35.5, alpha.Accuracy["RL"], 1e-9)

	stranger := rows[1]
	assert.False(t, stranger.Resolved)
	assert.Equal(t, stranger.RawNick, stranger.Canonical)
	assert.Equal(t, 0, stranger.Frags)
	assert.Equal(t, 100, stranger.DmgDealt, "falls back to the weapon damage sum")
	assert.Equal(t, map[string]int{"stranger": 1}, st.Unresolved)

	who := rows[2]
	assert.True(t, who.Resolved, "resolved through the raw identity key")
	assert.Equal(t, "Bravo", who.Canonical)
	assert.Equal(t, model.Side(""), who.Side)

	for _, r := range rows {
		assert.Empty(t, r.TeamMembership)
		assert.Empty(t, r.Role)
		assert.Zero(t, r.DPM)
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"12:30", 750, true},
		{"0:05", 5, true},
		{"1:02:03", 3723, true},
		{"", 0, false},
		{"12", 0, false},
		{"aa:bb", 0, false},
		{"10:75", 0, false},
		{"-1:00", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseDuration(tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
	}
}

func TestParseScore(t *testing.T) {
	r, b, ok := ParseScore("10 : 7")
	assert.True(t, ok)
	assert.Equal(t, 10, r)
	assert.Equal(t, 7, b)

	r, b, ok = ParseScore("3:3")
	assert.True(t, ok)
	assert.Equal(t, 3, r)
	assert.Equal(t, 3, b)

	for _, s := range []string{"", "3 -  1", "a : 1", "1 : 2 : 3"} {
		r, b, ok = ParseScore(s)
		assert.False(t, ok, s)
		assert.Zero(t, r)
		assert.Zero(t, b)
	}
}

func TestParseTimestamp(t *testing.T) {
	got, ok := ParseTimestamp("2026-01-05 10:00:00", time.UTC)
	require.True(t, ok)
	assert.Equal(t, "2026-01-05", got.Format(time.DateOnly))

	_, ok = ParseTimestamp("yesterday", time.UTC)
	assert.False(t, ok)
}
