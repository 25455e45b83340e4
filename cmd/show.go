package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-clan-metrics/internal/report"
	"github.com/pable/go-clan-metrics/internal/storage"
)

var showTeam string

var showCmd = &cobra.Command{
	Use:   "show <fingerprint-prefix>",
	Short: "Show a stored dataset by fingerprint prefix",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	showCmd.Flags().StringVar(&showTeam, "team", "", "team to show rows for (default: the dataset's focus team)")
}

func runShow(cmd *cobra.Command, args []string) error {
	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()
	return showDataset(db, args[0], showTeam)
}

// showDataset prints a stored snapshot's matches and one team's rows.
func showDataset(db *storage.DB, prefix, team string) error {
	ds, err := db.GetDatasetByPrefix(prefix)
	if err != nil {
		return fmt.Errorf("query dataset: %w", err)
	}
	if ds == nil {
		fmt.Fprintf(os.Stderr, "No dataset found with fingerprint prefix %q\n", prefix)
		return nil
	}
	if team == "" {
		team = ds.FocusTeam
	}

	matches, err := db.GetMatches(ds.Fingerprint)
	if err != nil {
		return fmt.Errorf("get matches: %w", err)
	}
	rows, err := db.GetTeamMatchRows(ds.Fingerprint, team)
	if err != nil {
		return fmt.Errorf("get team rows: %w", err)
	}

	report.PrintDatasetSummary(os.Stdout, *ds)
	report.PrintMatchTable(os.Stdout, matches)
	fmt.Fprintln(os.Stdout)
	report.PrintTeamMatchTable(os.Stdout, rows, team)
	return nil
}
