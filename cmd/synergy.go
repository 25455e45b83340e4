package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-clan-metrics/internal/model"
	"github.com/pable/go-clan-metrics/internal/report"
	"github.com/pable/go-clan-metrics/internal/storage"
)

var (
	synergyInputs   inputFlags
	synergyDataset  string
	synergyMinGames int
	synergyPairs    bool
	synergyLineups  bool
)

var synergyCmd = &cobra.Command{
	Use:   "synergy",
	Short: "Show pair and lineup win rates for the focus team",
	Long: `Print win rates for every pair of focus-team players and every full
lineup. Draws are not counted.

Statistics come from a fresh pipeline run, or from a stored snapshot when
--dataset is given.`,
	Args: cobra.NoArgs,
	RunE: runSynergy,
}

func init() {
	synergyInputs.register(synergyCmd)
	synergyCmd.Flags().StringVar(&synergyDataset, "dataset", "", "stored dataset fingerprint prefix")
	synergyCmd.Flags().IntVar(&synergyMinGames, "min-games", 1, "hide rows with fewer games")
	synergyCmd.Flags().BoolVar(&synergyPairs, "pairs", false, "only print pairs")
	synergyCmd.Flags().BoolVar(&synergyLineups, "lineups", false, "only print lineups")
}

func runSynergy(cmd *cobra.Command, args []string) error {
	var (
		pairs   []model.PairStat
		lineups []model.LineupStat
	)
	if synergyDataset != "" {
		db, err := storage.Open(dbPath)
		if err != nil {
			return fmt.Errorf("open storage: %w", err)
		}
		defer db.Close()

		ds, err := db.GetDatasetByPrefix(synergyDataset)
		if err != nil {
			return fmt.Errorf("query dataset: %w", err)
		}
		if ds == nil {
			fmt.Fprintf(os.Stderr, "No dataset found with fingerprint prefix %q\n", synergyDataset)
			return nil
		}
		report.PrintDatasetSummary(os.Stdout, *ds)
		if pairs, err = db.GetPairStats(ds.Fingerprint); err != nil {
			return fmt.Errorf("get pair stats: %w", err)
		}
		if lineups, err = db.GetLineupStats(ds.Fingerprint); err != nil {
			return fmt.Errorf("get lineup stats: %w", err)
		}
	} else {
		res, err := runPipeline(cmd.Context(), synergyInputs.paths(cmd))
		if err != nil {
			return err
		}
		report.PrintResultSummary(os.Stdout, res)
		pairs, lineups = res.PairStats, res.LineupStats
	}

	printSynergy(pairs, lineups, synergyMinGames, !synergyLineups || synergyPairs, !synergyPairs || synergyLineups)
	return nil
}

func printSynergy(pairs []model.PairStat, lineups []model.LineupStat, minGames int, showPairs, showLineups bool) {
	if showPairs {
		fmt.Fprintf(os.Stdout, "--- Pairs ---\n\n")
		report.PrintPairTable(os.Stdout, pairs, minGames)
		fmt.Fprintln(os.Stdout)
	}
	if showLineups {
		fmt.Fprintf(os.Stdout, "--- Lineups ---\n\n")
		report.PrintLineupTable(os.Stdout, lineups, minGames)
		fmt.Fprintln(os.Stdout)
	}
}
