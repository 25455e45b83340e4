package cmd

import (
	"os"

	crerr "github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/pable/go-clan-metrics/internal/report"
)

var (
	healthInputs  inputFlags
	healthMaxRows int
	healthStrict  bool
)

var errUnhealthy = crerr.New("registry integrity check failed")

// healthCmd prints the data-quality report of a run.
var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Show data-quality diagnostics for a match export",
	Long: `Run the pipeline and print its diagnostics: parse problems, unresolved
nicknames, role linking outcomes and registry integrity.

With --strict the command fails when the registry integrity check finds a
problem, which makes it usable as a CI gate.`,
	Args: cobra.NoArgs,
	RunE: runHealth,
}

func init() {
	healthInputs.register(healthCmd)
	healthCmd.Flags().IntVar(&healthMaxRows, "max-rows", 20, "maximum rows per section (0 = all)")
	healthCmd.Flags().BoolVar(&healthStrict, "strict", false, "exit non-zero on integrity problems")
}

func runHealth(cmd *cobra.Command, args []string) error {
	res, err := runPipeline(cmd.Context(), healthInputs.paths(cmd))
	if err != nil {
		return err
	}
	report.PrintResultSummary(os.Stdout, res)
	report.PrintDiagnostics(os.Stdout, res.Diagnostics, healthMaxRows)

	if healthStrict && !res.Diagnostics.Integrity.Clean() {
		return errUnhealthy
	}
	return nil
}
