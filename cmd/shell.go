package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/pable/go-clan-metrics/internal/report"
	"github.com/pable/go-clan-metrics/internal/storage"
)

var (
	cPrompt   = color.New(color.FgCyan, color.Bold)
	cMuted    = color.New(color.Faint)
	cError    = color.New(color.FgRed, color.Bold)
	cWarn     = color.New(color.FgYellow)
	cCmd      = color.New(color.FgYellow, color.Bold)
	cGreeting = color.New(color.Bold)
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Start an interactive REPL session",
	Long:  "Open a persistent session against the snapshot database. Type 'help' for available commands.",
	Args:  cobra.NoArgs,
	RunE:  runShell,
}

func runShell(_ *cobra.Command, _ []string) error {
	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	cGreeting.Println("clanmetrics shell")
	cMuted.Println("type 'help' or 'exit'")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		cPrompt.Print("clanmetrics")
		cMuted.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		tokens := strings.Fields(line)
		cmd, args := tokens[0], tokens[1:]

		switch cmd {
		case "exit", "quit":
			return nil
		case "help":
			shellHelp()
		case "list":
			shellList(db)
		case "show":
			if len(args) == 0 {
				cError.Fprintln(os.Stderr, "usage: show <fingerprint-prefix> [--team <name>]")
				continue
			}
			shellShow(db, args[0], flagValue(args[1:], "--team"))
		case "synergy":
			if len(args) == 0 {
				cError.Fprintln(os.Stderr, "usage: synergy <fingerprint-prefix> [--min-games <n>]")
				continue
			}
			minGames := 1
			if v := flagValue(args[1:], "--min-games"); v != "" {
				n, err := strconv.Atoi(v)
				if err != nil {
					cError.Fprintf(os.Stderr, "invalid --min-games %q\n", v)
					continue
				}
				minGames = n
			}
			shellSynergy(db, args[0], minGames)
		default:
			cWarn.Fprintf(os.Stderr, "unknown command %q, type 'help'\n", cmd)
		}
	}
	return nil
}

// flagValue returns the token after name, or "".
func flagValue(args []string, name string) string {
	for i := 0; i+1 < len(args); i++ {
		if args[i] == name {
			return args[i+1]
		}
	}
	return ""
}

func shellHelp() {
	fmt.Println()
	type entry struct{ cmd, desc string }
	rows := []entry{
		{"list", "list all stored datasets"},
		{"show <prefix>", "show a dataset's matches and focus-team rows"},
		{"show <prefix> --team <name>", "same, for another team"},
		{"synergy <prefix> [--min-games <n>]", "pair and lineup win rates"},
		{"help", "show this message"},
		{"exit / quit", "close the session"},
	}
	for _, r := range rows {
		fmt.Print("  ")
		cCmd.Printf("%-38s", r.cmd)
		fmt.Println(r.desc)
	}
	fmt.Println()
}

func shellList(db *storage.DB) {
	datasets, err := db.ListDatasets()
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	if len(datasets) == 0 {
		cMuted.Println("No datasets stored yet.")
		return
	}
	report.PrintDatasetList(os.Stdout, datasets)
}

func shellShow(db *storage.DB, prefix, team string) {
	if err := showDataset(db, prefix, team); err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
	}
}

func shellSynergy(db *storage.DB, prefix string, minGames int) {
	ds, err := db.GetDatasetByPrefix(prefix)
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	if ds == nil {
		fmt.Fprintf(os.Stderr, "no dataset found with prefix %q\n", prefix)
		return
	}
	pairs, err := db.GetPairStats(ds.Fingerprint)
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	lineups, err := db.GetLineupStats(ds.Fingerprint)
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	report.PrintDatasetSummary(os.Stdout, *ds)
	printSynergy(pairs, lineups, minGames, true, true)
}
