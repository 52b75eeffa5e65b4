package cli

import (
	"cellar/internal/catalog"
	"cellar/internal/state"
	"cellar/internal/status"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List installed packages",
	Run: func(cmd *cobra.Command, args []string) {
		availableFlag, _ := cmd.Flags().GetBool("available")
		historyCount, _ := cmd.Flags().GetInt("history")

		switch {
		case availableFlag:
			listAvailable()
		case historyCount > 0:
			listHistory(historyCount)
		default:
			listReceipts()
		}
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().Bool("available", false, "List every package known to the loaded taps")
	listCmd.Flags().Int("history", 0, "Show the N most recent downloads instead")
}

func listReceipts() {
	receipts, err := state.ListReceipts()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if len(receipts) == 0 {
		fmt.Println("No packages installed.")
		return
	}

	bold := color.New(color.Bold)
	fmt.Println(bold.Sprintf("%-24s %-14s %-8s %-11s %s", "NAME", "VERSION", "KIND", "ACTION", "INSTALLED"))
	for _, r := range receipts {
		fmt.Printf("%-24s %-14s %-8s %-11s %s\n",
			r.Name, r.Version, r.PkgType.Label(), r.Action.Label(), r.InstalledAt.Format("2006-01-02 15:04"))
	}
}

func listAvailable() {
	cat, err := catalog.Load(tapsDir())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	bold := color.New(color.Bold)
	fmt.Println(bold.Sprint("Formulae:"))
	for _, name := range cat.FormulaNames() {
		fmt.Printf("  %s\n", name)
	}
	fmt.Println(bold.Sprint("Casks:"))
	for _, token := range cat.CaskTokens() {
		fmt.Printf("  %s\n", token)
	}
}

func listHistory(limit int) {
	records, err := state.RecentDownloads(limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if len(records) == 0 {
		fmt.Println("No downloads recorded.")
		return
	}

	bold := color.New(color.Bold)
	fmt.Println(bold.Sprintf("%-20s %-9s %10s %-7s %s", "TARGET", "STATUS", "SIZE", "CACHED", "WHEN"))
	for _, rec := range records {
		cached := "no"
		if rec.WasCached {
			cached = "yes"
		}
		fmt.Printf("%-20s %-9s %10s %-7s %s\n",
			rec.TargetID, rec.Status, status.FormatBytes(rec.SizeBytes), cached, rec.CreatedAt.Format("2006-01-02 15:04"))
	}
}
