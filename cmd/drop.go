package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-clan-metrics/internal/storage"
)

var (
	dropForce bool
	dropAll   bool
)

// dropCmd deletes one snapshot, or the whole database file with --all.
var dropCmd = &cobra.Command{
	Use:   "drop [<fingerprint-prefix>]",
	Short: "Delete a stored dataset or the whole database",
	Long: `Delete the snapshot matching a fingerprint prefix.

With --all the SQLite database file itself is removed. All stored datasets will
be lost; re-run with --store to rebuild.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDrop,
}

func init() {
	dropCmd.Flags().BoolVarP(&dropForce, "force", "f", false, "skip confirmation prompt")
	dropCmd.Flags().BoolVar(&dropAll, "all", false, "delete the database file")
}

func runDrop(cmd *cobra.Command, args []string) error {
	if dropAll {
		return dropDatabase()
	}
	if len(args) == 0 {
		return fmt.Errorf("need a fingerprint prefix or --all")
	}

	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	ds, err := db.GetDatasetByPrefix(args[0])
	if err != nil {
		return fmt.Errorf("query dataset: %w", err)
	}
	if ds == nil {
		fmt.Fprintf(os.Stderr, "No dataset found with fingerprint prefix %q\n", args[0])
		return nil
	}
	if !dropForce {
		fmt.Fprintf(os.Stderr, "This will delete dataset %s (%s, %d matches)\n", ds.Fingerprint, ds.FocusTeam, ds.ScopedMatches)
		fmt.Fprintf(os.Stderr, "Re-run with --force to confirm.\n")
		return nil
	}
	if err := db.DropDataset(ds.Fingerprint); err != nil {
		return fmt.Errorf("drop dataset: %w", err)
	}
	fmt.Fprintf(os.Stdout, "Deleted dataset: %s\n", ds.Fingerprint)
	return nil
}

func dropDatabase() error {
	if !dropForce {
		fmt.Fprintf(os.Stderr, "This will permanently delete: %s\n", dbPath)
		fmt.Fprintf(os.Stderr, "Re-run with --force to confirm.\n")
		return nil
	}
	if err := os.Remove(dbPath); err != nil {
		if os.IsNotExist(err) {
			fmt.Fprintln(os.Stdout, "Database does not exist, nothing to drop.")
			return nil
		}
		return fmt.Errorf("remove database: %w", err)
	}
	fmt.Fprintf(os.Stdout, "Deleted: %s\n", dbPath)
	return nil
}
