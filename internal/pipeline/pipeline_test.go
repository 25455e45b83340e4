package pipeline

import (
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pable/go-clan-metrics/internal/model"
)

const registryJSON = `[
  {"canonical": "Alpha", "aliases": ["alf"], "identity_key": "1", "team_2024": "Foo"},
  {"canonical": "Bravo", "aliases": [], "identity_key": 2, "team_2024": "Foo"},
  {"canonical": "Charlie", "aliases": ["chuck"], "identity_key": "3", "team_2024": "Foo"},
  {"canonical": "Delta", "aliases": [], "identity_key": "4", "team_2024": "Foo", "team_2025": ""}
]`

func rawMatch(id, playedAt, arena, score string, red, blue []string) model.RawMatch {
	m := model.RawMatch{MatchID: id, PlayedAt: playedAt, Arena: arena, Scores: score, Duration: "10:00"}
	for _, n := range red {
		m.Players = append(m.Players, model.RawPlayer{Nick: n, Team: "red", Frags: 5, Deaths: 5, DamageDealt: ptr(100), DamageTaken: 50})
	}
	for _, n := range blue {
		m.Players = append(m.Players, model.RawPlayer{Nick: n, Team: "blue", Frags: 5, Deaths: 5, DamageDealt: ptr(100), DamageTaken: 50})
	}
	return m
}

func ptr(v int) *model.Int {
	i := model.Int(v)
	return &i
}

var (
	wb     = []string{"WB|Alpha", "WB|bravo", "chuck", "Delta"}
	randos = []string{"r1", "r2", "r3", "r4"}
)

func inputs(t *testing.T) Inputs {
	t.Helper()
	var reg []model.RegistryEntry
	require.NoError(t, sonic.Unmarshal([]byte(registryJSON), &reg))

	return Inputs{
		Matches: []model.RawMatch{
			rawMatch("m1", "2026-02-18T19:00:00Z", "Troubled Waters", "5 : 3", wb, randos),
			rawMatch("m2", "2026-02-18T20:00:00Z", "Sky Temple", "2 : 2", wb, randos),
			rawMatch("m3", "2026-02-18T21:00:00Z", "Sky Temple", "2 : 2", randos, wb),
			rawMatch("old", "2025-06-01T19:00:00Z", "Arena", "1 : 0", wb, randos),
			rawMatch("nodate", "garbage", "Arena", "1 : 0", wb, randos),
		},
		Registry: reg,
		Config: &model.TeamConfig{
			FocusTeam:       "Foo",
			ScopeDate:       "2026-01-01",
			ClanTagPatterns: []string{`\|`},
			RoleNormalize:   map[string]string{"d": "def"},
		},
		Roles: []model.RoleAnnotation{
			{DateLocal: "2026-02-18", Map: "troubled_waters", ScoreWB: "5", ScoreOpp: "3", RolesRaw: "d: alf, bravo; off: chuck, mid delta"},
			{DateLocal: "2026-02-18", Map: "Sky Temple", ScoreWB: "2", ScoreOpp: "2", RolesRaw: "def: alpha"},
		},
	}
}

func TestRun_FullTeamAgainstMix(t *testing.T) {
	res, err := Run(inputs(t))
	require.NoError(t, err)

	require.Len(t, res.AllMatches, 5)
	m := res.AllMatches[0]
	assert.Equal(t, "Foo", m.TeamRed)
	assert.Equal(t, model.ClassFullTeam, m.ClassRed)
	assert.Equal(t, model.MixTeam, m.TeamBlue)
	assert.Equal(t, model.ClassMix, m.ClassBlue)
	assert.True(t, m.QualifiesLoose)
	assert.False(t, m.QualifiesStrict)
	assert.False(t, m.QualifiesH2H)
	assert.True(t, m.QualifiesStandings)

	for _, r := range res.AllPlayers {
		if r.MatchID == "m1" && r.Side == model.SideRed {
			assert.True(t, r.Resolved, r.RawNick)
			assert.Equal(t, "Foo", r.TeamMembership)
		}
	}
}

func TestRun_RoleLinking(t *testing.T) {
	res, err := Run(inputs(t))
	require.NoError(t, err)

	require.Len(t, res.Roles, 2)
	assert.Equal(t, "m1", res.Roles[0].MatchID)
	assert.Equal(t, model.SideRed, res.Roles[0].WBSide)

	assert.Empty(t, res.Roles[1].MatchID, "two matches share date, map and score")
	require.Len(t, res.Diagnostics.UnresolvedRoles, 1)
	assert.Equal(t, model.LinkAmbiguous, res.Diagnostics.UnresolvedRoles[0].Reason)
	assert.Equal(t, []string{"m2", "m3"}, res.Diagnostics.UnresolvedRoles[0].Candidates)

	roles := map[string]string{}
	for _, r := range res.AllPlayers {
		if r.MatchID == "m1" && r.Role != "" {
			roles[r.Canonical] = r.Role
		}
	}
	assert.Equal(t, map[string]string{
		"Alpha": "def", "Bravo": "def", "Charlie": "off", "Delta": "off+mid",
	}, roles)
}

func TestRun_ScopeIsConsistent(t *testing.T) {
	res, err := Run(inputs(t))
	require.NoError(t, err)

	ids := map[string]bool{}
	for _, m := range res.Matches {
		ids[m.MatchID] = true
	}
	assert.Equal(t, map[string]bool{"m1": true, "m2": true, "m3": true}, ids)
	for _, r := range res.Players {
		assert.True(t, ids[r.MatchID], r.MatchID)
	}
	for _, tm := range res.TeamMatches {
		assert.True(t, ids[tm.MatchID], tm.MatchID)
	}
	assert.Len(t, res.AllTeamMatches, 4, "undated match has no team")
	assert.Len(t, res.TeamMatches, 3)

	assert.Equal(t, 5, res.Diagnostics.TotalMatches)
	assert.Equal(t, 3, res.Diagnostics.ScopedMatches)
	assert.Equal(t, Fingerprint([]string{"m3", "m1", "m2"}), res.Diagnostics.Fingerprint)
	assert.Equal(t, 1, res.Diagnostics.BadTimestamp)
	assert.Equal(t, 8, res.Diagnostics.DateInvalidRows)

	// m1 is the only decided focus game in scope.
	require.Len(t, res.LineupStats, 1)
	assert.Equal(t, "Alpha+Bravo+Charlie+Delta", res.LineupStats[0].LineupKey)
	assert.Equal(t, 1, res.LineupStats[0].Games)
	assert.Len(t, res.PairStats, 6)

	require.Len(t, res.Diagnostics.Unresolved, 4)
	assert.Equal(t, model.UnresolvedNick{Nick: "r1", Count: 5}, res.Diagnostics.Unresolved[0])
}

func TestRun_DoesNotMutateInputs(t *testing.T) {
	in := inputs(t)
	cfgBefore := *in.Config
	patternsBefore := append([]string(nil), in.Config.ClanTagPatterns...)

	first, err := Run(in)
	require.NoError(t, err)
	second, err := Run(in)
	require.NoError(t, err)

	assert.Empty(t, in.Roles[0].MatchID)
	assert.Empty(t, in.Roles[0].WBSide)
	assert.Equal(t, cfgBefore.FocusTeam, in.Config.FocusTeam)
	assert.Empty(t, in.Config.EraCurrent, "defaults are applied to a copy")
	assert.Empty(t, in.Config.RoleModifiers)
	assert.Equal(t, patternsBefore, in.Config.ClanTagPatterns)

	assert.Equal(t, first.Diagnostics, second.Diagnostics)
	assert.Equal(t, first.Roles, second.Roles)
}

func TestRun_NilConfig(t *testing.T) {
	_, err := Run(Inputs{})
	assert.ErrorIs(t, err, ErrNilConfig)
}

func TestRun_EmptyScopeKeepsEverything(t *testing.T) {
	in := inputs(t)
	in.Config.ScopeDate = ""
	res, err := Run(in)
	require.NoError(t, err)
	assert.Len(t, res.Matches, 5)
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint([]string{"b", "a", "c"})
	assert.Len(t, a, 8)
	assert.Equal(t, a, Fingerprint([]string{"c", "b", "a"}))
	assert.NotEqual(t, a, Fingerprint([]string{"a", "b"}))
}

func TestInScope(t *testing.T) {
	assert.True(t, InScope("", ""))
	assert.True(t, InScope("2026-01-01", "2026-01-01"))
	assert.False(t, InScope("2026-01-01", "2025-12-31"))
	assert.False(t, InScope("2026-01-01", ""))
}

func TestDigest(t *testing.T) {
	in := inputs(t)
	d1, err := Digest(in)
	require.NoError(t, err)
	require.Len(t, d1, 16)

	d2, err := Digest(inputs(t))
	require.NoError(t, err)
	assert.Equal(t, d1, d2, "same inputs hash the same")

	other := inputs(t)
	other.Config.FocusTeam = "Bar"
	d3, err := Digest(other)
	require.NoError(t, err)
	assert.NotEqual(t, d1, d3)

	other = inputs(t)
	other.Config.UTCOffsetMinutes = 180
	d4, err := Digest(other)
	require.NoError(t, err)
	assert.NotEqual(t, d1, d4)

	other = inputs(t)
	other.Roles = other.Roles[:1]
	d5, err := Digest(other)
	require.NoError(t, err)
	assert.NotEqual(t, d1, d5)
}

func TestRun_SameMatchesDifferentSettings(t *testing.T) {
	a, err := Run(inputs(t))
	require.NoError(t, err)

	in := inputs(t)
	in.Registry = in.Registry[:3]
	b, err := Run(in)
	require.NoError(t, err)

	assert.Equal(t, a.Diagnostics.Fingerprint, b.Diagnostics.Fingerprint, "fingerprint only covers match ids")
	assert.NotEqual(t, a.Diagnostics.InputDigest, b.Diagnostics.InputDigest)
}
