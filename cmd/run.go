package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pable/go-clan-metrics/internal/model"
	"github.com/pable/go-clan-metrics/internal/report"
	"github.com/pable/go-clan-metrics/internal/storage"
)

var (
	runInputs inputFlags
	runOut    string
	runStore  bool
	runAll    bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the pipeline over a match export",
	Long: `Parse the match export, resolve players and teams, link role annotations
and aggregate team, pair and lineup statistics for the focus team.

By default only in-scope rows are printed. Use --out to write the full result
as JSON and --store to save a snapshot in the database.`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

func init() {
	runInputs.register(runCmd)
	runCmd.Flags().StringVarP(&runOut, "out", "o", "", "write the full result as JSON to this path")
	runCmd.Flags().BoolVar(&runStore, "store", false, "store the result as a snapshot")
	runCmd.Flags().BoolVar(&runAll, "all", false, "print every match, ignoring the scope date")
}

func runRun(cmd *cobra.Command, args []string) error {
	res, err := runPipeline(cmd.Context(), runInputs.paths(cmd))
	if err != nil {
		return err
	}

	matches, teamRows := res.Matches, res.TeamMatches
	if runAll {
		matches, teamRows = res.AllMatches, res.AllTeamMatches
	}
	report.PrintResultSummary(os.Stdout, res)
	report.PrintMatchTable(os.Stdout, matches)
	fmt.Fprintln(os.Stdout)
	report.PrintTeamMatchTable(os.Stdout, teamRows, res.FocusTeam)
	printDiagnosticCounts(res.Diagnostics)

	if runOut != "" {
		if err := writeResult(runOut, res); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Wrote: %s\n", runOut)
	}
	if runStore {
		return storeResult(res)
	}
	return nil
}

func printDiagnosticCounts(d model.Diagnostics) {
	fmt.Fprintf(os.Stdout, "\nUnresolved: %d (%d nicks)  |  Roles: %d linked, %d orphaned, %d unresolved  |  Integrity: %s\n",
		d.UnresolvedTotal(), len(d.Unresolved),
		len(d.LinkedRoles), len(d.OrphanedRoles), len(d.UnresolvedRoles),
		integrityWord(d.Integrity))
}

func integrityWord(r model.IntegrityReport) string {
	if r.Clean() {
		return "ok"
	}
	return "problems (see 'clanmetrics health')"
}

func writeResult(path string, res *model.Result) error {
	b, err := sonic.ConfigStd.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	return nil
}

func storeResult(res *model.Result) error {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return fmt.Errorf("create db dir: %w", err)
	}
	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	// The fingerprint only covers match ids; a run over the same matches
	// with other settings replaces the stored snapshot.
	fp := res.Diagnostics.Fingerprint
	prev, err := db.GetDataset(fp)
	if err != nil {
		return fmt.Errorf("check dataset: %w", err)
	}
	if prev != nil && storage.Same(prev, res) {
		fmt.Fprintf(os.Stdout, "Dataset %s already stored, skipping.\n", fp)
		return nil
	}
	runID, err := db.InsertResult(res)
	if err != nil {
		return fmt.Errorf("store result: %w", err)
	}
	logger.Info("snapshot stored",
		zap.String("fingerprint", fp),
		zap.String("run_id", runID),
		zap.Bool("replaced", prev != nil),
	)
	if prev != nil {
		fmt.Fprintf(os.Stdout, "Replaced dataset %s (run %s, was %s)\n", fp, runID, prev.RunID)
		return nil
	}
	fmt.Fprintf(os.Stdout, "Stored dataset %s (run %s)\n", fp, runID)
	return nil
}
