package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pable/go-clan-metrics/internal/model"
	"github.com/pable/go-clan-metrics/internal/nick"
)

func testEntries() []model.RegistryEntry {
	return []model.RegistryEntry{
		{Canonical: "Alpha", Aliases: []string{"alf", "WB|Alpha"}, IdentityKey: "steam:1", Teams: map[string]string{"2025": "Foo"}},
		{Canonical: "Bravo", Aliases: []string{"bravo_", "alf"}, IdentityKey: "steam:2"},
		{Canonical: "Charlie", IdentityKey: "steam:2"},
	}
}

func TestIndex_Resolve(t *testing.T) {
	idx := BuildIndex(testEntries(), nick.New([]string{`\|`}))

	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"alpha", "Alpha", true},
		{"  BRAVO_ ", "Bravo", true},
		{"alf", "Alpha", true}, // first registry entry wins the collision
		{"steam:1", "Alpha", true},
		{"XX|charlie", "Charlie", true},
		{"nobody", "", false},
	}
	for _, tt := range tests {
		got, ok := idx.Resolve(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestIndex_CanonicalBeatsAlias(t *testing.T) {
	entries := []model.RegistryEntry{
		{Canonical: "One", Aliases: []string{"two"}},
		{Canonical: "Two"},
	}
	idx := BuildIndex(entries, nil)
	got, ok := idx.Resolve("two")
	require.True(t, ok)
	assert.Equal(t, "Two", got)
}

func TestIndex_Entry(t *testing.T) {
	idx := BuildIndex(testEntries(), nil)
	e, ok := idx.Entry("ALPHA")
	require.True(t, ok)
	assert.Equal(t, "Foo", e.TeamFor("2025"))
	assert.Equal(t, 3, idx.Len())

	c, ok := idx.ResolveIdentityKey("steam:2")
	require.True(t, ok)
	assert.Equal(t, "Bravo", c)
}

func TestAliasCollisions(t *testing.T) {
	got := AliasCollisions(testEntries(), nick.New([]string{`\|`}))
	require.Len(t, got, 1)
	assert.Equal(t, "alf", got[0].Normalized)
	assert.Equal(t, []model.AliasOwner{
		{Player: "Alpha", Alias: "alf"},
		{Player: "Bravo", Alias: "alf"},
	}, got[0].Owners)
}

func TestAliasCollisions_NormalizedForms(t *testing.T) {
	entries := []model.RegistryEntry{
		{Canonical: "Delta", Aliases: []string{"TAG|Echo"}},
		{Canonical: "Echo"},
	}
	got := AliasCollisions(entries, nick.New([]string{`\|`}))
	require.Len(t, got, 1)
	assert.Equal(t, "echo", got[0].Normalized)

	// Without the separator pattern the decorated alias is distinct.
	assert.Empty(t, AliasCollisions(entries, nil))
}

func TestAliasCollisions_OrderInsensitive(t *testing.T) {
	e := testEntries()
	rev := []model.RegistryEntry{e[2], e[1], e[0]}
	n := nick.New([]string{`\|`})
	assert.Equal(t, AliasCollisions(e, n), AliasCollisions(rev, n))
}

func TestIdentityKeyDuplicates(t *testing.T) {
	got := IdentityKeyDuplicates(testEntries())
	require.Len(t, got, 1)
	assert.Equal(t, "steam:2", got[0].IdentityKey)
	assert.Equal(t, []string{"Bravo", "Charlie"}, got[0].Canonicals)
}

func TestIdentityMismatches(t *testing.T) {
	rows := []model.PlayerRow{
		{Canonical: "Alpha", Resolved: true, IdentityKey: "steam:1"},
		{Canonical: "Alpha", Resolved: true, IdentityKey: "steam:1"},
		{Canonical: "AlphaNew", Resolved: true, IdentityKey: "steam:1"},
		{Canonical: "ghost", Resolved: false, IdentityKey: "steam:9"},
		{Canonical: "Bravo", Resolved: true},
	}
	got := IdentityMismatches(rows)
	require.Len(t, got, 1)
	assert.Equal(t, []string{"Alpha", "AlphaNew"}, got[0].Canonicals)
}

func TestCheckIntegrity_Clean(t *testing.T) {
	entries := []model.RegistryEntry{{Canonical: "A", IdentityKey: "1"}, {Canonical: "B", IdentityKey: "2"}}
	r := CheckIntegrity(entries, nil, nil)
	assert.True(t, r.Clean())
}
