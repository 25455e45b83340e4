package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"

	"github.com/pable/go-clan-metrics/internal/storage"
)

// fpPlaceholder is replaced by the fingerprint selected with --dataset.
const fpPlaceholder = ":fp"

var sqlDataset string

var sqlCmd = &cobra.Command{
	Use:   "sql <query>",
	Short: "Run a raw SQL query against the snapshot database",
	Long: `Run an arbitrary SQL query against the snapshot database and print results as a table.

Schema overview:
  datasets(fingerprint, run_id, focus_team, scope_date, stored_at, input_digest,
    total_matches, scoped_matches, first_date, last_date, team_matches, ...)
  matches(fingerprint, match_id, date_local, map, duration_sec, score_red, score_blue,
    winner, team_red, team_blue, class_red, class_blue, qualifies_loose,
    qualifies_strict, qualifies_h2h, qualifies_standings)
  team_match_rows(fingerprint, match_id, side, team, class, opponent, date_local, map,
    score_for, score_against, result, players, frags, deaths, dmg_dealt, dmg_taken,
    net_damage, team_dpm, avg_dpm, kd, hhi, lineup_key, qualifies_strict)
  pair_stats(fingerprint, pair_key, players JSON, games, wins, losses, net_dmg_sum)
  lineup_stats(fingerprint, lineup_key, players JSON, games, wins, losses, net_dmg_sum,
    strict_games, strict_wins, strict_losses)

Every table holds all stored datasets. With --dataset <prefix>, each :fp in the
query is bound to that dataset's full fingerprint:
  clanmetrics sql --dataset 3fa "SELECT team, COUNT(*) FROM team_match_rows WHERE fingerprint = :fp GROUP BY team"

Keys are TEXT. Quote literals and match names exactly as stored, joined by '+':
  WHERE lineup_key = 'Alpha+Bravo+Charlie+Delta'
result is one of 'W', 'L', 'D'.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSQL,
}

func init() {
	sqlCmd.Flags().StringVar(&sqlDataset, "dataset", "", "fingerprint prefix bound to :fp")
}

func runSQL(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")
	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	var binds []any
	if sqlDataset != "" {
		ds, err := db.GetDatasetByPrefix(sqlDataset)
		if err != nil {
			return fmt.Errorf("query dataset: %w", err)
		}
		if ds == nil {
			return fmt.Errorf("no dataset found with fingerprint prefix %q", sqlDataset)
		}
		query, binds = bindFingerprint(query, ds.Fingerprint)
	}

	cols, rows, err := db.QueryRaw(query, binds...)
	if err != nil {
		return err
	}
	renderRows(os.Stdout, cols, rows)
	return nil
}

// bindFingerprint turns every :fp into a positional placeholder.
func bindFingerprint(query, fp string) (string, []any) {
	n := strings.Count(query, fpPlaceholder)
	if n == 0 {
		return query, nil
	}
	binds := make([]any, n)
	for i := range binds {
		binds[i] = fp
	}
	return strings.ReplaceAll(query, fpPlaceholder, "?"), binds
}

func renderRows(w io.Writer, cols []string, rows [][]string) {
	if len(rows) == 0 {
		fmt.Fprintln(w, "(no rows)")
		return
	}

	table := tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row:    tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignRight}},
		Header: tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignCenter}},
	}))

	colsAny := make([]any, len(cols))
	for i, c := range cols {
		colsAny[i] = c
	}
	table.Header(colsAny...)

	for _, row := range rows {
		rowAny := make([]any, len(row))
		for i, v := range row {
			rowAny[i] = v
		}
		table.Append(rowAny...)
	}
	table.Render()
	fmt.Fprintf(w, "\n(%d rows)\n", len(rows))
}
