package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pable/go-clan-metrics/internal/config"
	"github.com/pable/go-clan-metrics/internal/model"
	"github.com/pable/go-clan-metrics/internal/storage"
)

func TestFlagValue(t *testing.T) {
	args := []string{"--team", "Foo", "--min-games", "3"}
	assert.Equal(t, "Foo", flagValue(args, "--team"))
	assert.Equal(t, "3", flagValue(args, "--min-games"))
	assert.Equal(t, "", flagValue(args, "--other"))
	assert.Equal(t, "", flagValue([]string{"--team"}, "--team"))
}

func TestInputFlags_OverrideSettings(t *testing.T) {
	prev := settings
	t.Cleanup(func() { settings = prev })
	settings = config.New()
	settings.Roles = "roles.json"

	var f inputFlags
	c := &cobra.Command{Use: "x"}
	f.register(c)
	require.NoError(t, c.Flags().Set("matches", "export.json.zst"))

	p := f.paths(c)
	assert.Equal(t, "export.json.zst", p.Matches)
	assert.Equal(t, settings.Registry, p.Registry)
	assert.Equal(t, settings.TeamConfig, p.TeamConfig)
	assert.Equal(t, "roles.json", p.Roles)
}

func TestWriteResult(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	res := &model.Result{FocusTeam: "Foo", Diagnostics: model.Diagnostics{Fingerprint: "abc", TotalMatches: 2}}
	require.NoError(t, writeResult(path, res))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	var got model.Result
	require.NoError(t, sonic.Unmarshal(b, &got))
	assert.Equal(t, "Foo", got.FocusTeam)
	assert.Equal(t, "abc", got.Diagnostics.Fingerprint)
	assert.Equal(t, 2, got.Diagnostics.TotalMatches)
}

func TestStoreResult_SkipsKnownFingerprint(t *testing.T) {
	prev := dbPath
	t.Cleanup(func() { dbPath = prev })
	dbPath = filepath.Join(t.TempDir(), "nested", "snapshots.db")

	res := &model.Result{FocusTeam: "Foo", Diagnostics: model.Diagnostics{Fingerprint: "deadbeef"}}
	require.NoError(t, storeResult(res))
	require.NoError(t, storeResult(res))

	db, err := storage.Open(dbPath)
	require.NoError(t, err)
	defer db.Close()
	list, err := db.ListDatasets()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "deadbeef", list[0].Fingerprint)
}

func TestStoreResult_ReplacesOnOtherSettings(t *testing.T) {
	prev := dbPath
	t.Cleanup(func() { dbPath = prev })
	dbPath = filepath.Join(t.TempDir(), "snapshots.db")

	foo := &model.Result{
		FocusTeam:   "Foo",
		PairStats:   []model.PairStat{{PairKey: "a+b", Players: []string{"a", "b"}, Games: 1, Wins: 1}},
		Diagnostics: model.Diagnostics{Fingerprint: "deadbeef", InputDigest: "1111111111111111"},
	}
	bar := &model.Result{
		FocusTeam:   "Bar",
		PairStats:   []model.PairStat{{PairKey: "x+y", Players: []string{"x", "y"}, Games: 1, Losses: 1}},
		Diagnostics: model.Diagnostics{Fingerprint: "deadbeef", InputDigest: "2222222222222222"},
	}
	require.NoError(t, storeResult(foo))
	require.NoError(t, storeResult(bar))

	db, err := storage.Open(dbPath)
	require.NoError(t, err)
	defer db.Close()

	ds, err := db.GetDataset("deadbeef")
	require.NoError(t, err)
	require.NotNil(t, ds)
	assert.Equal(t, "Bar", ds.FocusTeam)
	assert.Equal(t, "2222222222222222", ds.InputDigest)

	pairs, err := db.GetPairStats("deadbeef")
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	assert.Equal(t, "x+y", pairs[0].PairKey)
}

func TestBindFingerprint(t *testing.T) {
	q, binds := bindFingerprint("SELECT * FROM matches WHERE fingerprint = :fp OR :fp = ''", "deadbeef")
	assert.Equal(t, "SELECT * FROM matches WHERE fingerprint = ? OR ? = ''", q)
	assert.Equal(t, []any{"deadbeef", "deadbeef"}, binds)

	q, binds = bindFingerprint("SELECT 1", "deadbeef")
	assert.Equal(t, "SELECT 1", q)
	assert.Nil(t, binds)
}

func TestRenderRows(t *testing.T) {
	var buf bytes.Buffer
	renderRows(&buf, []string{"team", "n"}, nil)
	assert.Contains(t, buf.String(), "(no rows)")

	buf.Reset()
	renderRows(&buf, []string{"team", "n"}, [][]string{{"Foo", "3"}, {"Bar", "NULL"}})
	out := buf.String()
	assert.Contains(t, out, "Foo")
	assert.Contains(t, out, "NULL")
	assert.Contains(t, out, "(2 rows)")
}

func TestHealth_StrictFailsOnCollision(t *testing.T) {
	prevSettings, prevStrict := settings, healthStrict
	t.Cleanup(func() { settings, healthStrict = prevSettings, prevStrict })

	dir := t.TempDir()
	write := func(name, body string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
		return path
	}
	settings = config.New()
	settings.Matches = write("matches.json", `[]`)
	settings.Registry = write("registry.json", `[{"canonical":"Alpha","aliases":["x"]},{"canonical":"Bravo","aliases":["x"]}]`)
	settings.TeamConfig = write("team_config.json", `{"focus_team":"Foo"}`)

	c := &cobra.Command{Use: "health"}
	c.SetContext(context.Background())

	healthStrict = false
	require.NoError(t, runHealth(c, nil))

	healthStrict = true
	err := runHealth(c, nil)
	require.Error(t, err)
	assert.True(t, crerr.Is(err, errUnhealthy))
}

func TestIntegrityWord(t *testing.T) {
	assert.Equal(t, "ok", integrityWord(model.IntegrityReport{}))
	bad := model.IntegrityReport{AliasCollisions: []model.AliasCollision{{}}}
	assert.NotEqual(t, "ok", integrityWord(bad))
}
