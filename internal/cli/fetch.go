package cli

import (
	"cellar/internal/clipboard"
	"cellar/internal/plan"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch [package|url]...",
	Short: "Download artifacts into the cache without installing",
	Long: `Fetch acquires bottles, source tarballs, or raw URLs into the artifact
cache and records them in the download history. Nothing is unpacked or
linked; a later install of the same package hits the cache.`,
	Run: func(cmd *cobra.Command, args []string) {
		caskFlag, _ := cmd.Flags().GetBool("cask")
		clipboardFlag, _ := cmd.Flags().GetBool("clipboard")

		var names, urls []string
		for _, arg := range args {
			if plan.IsURL(arg) {
				urls = append(urls, arg)
			} else {
				names = append(names, arg)
			}
		}

		// Check for clipboard flag to append URLs without manual paste.
		if clipboardFlag {
			clipped, err := clipboard.ReadURLs()
			if err != nil {
				if errors.Is(err, clipboard.ErrNoURLs) {
					fmt.Fprintln(os.Stderr, "Error: Clipboard does not contain a valid URL")
				} else {
					fmt.Fprintf(os.Stderr, "Error reading from clipboard: %v\n", err)
				}
				os.Exit(1)
			}
			for _, u := range clipped {
				fmt.Printf("URL from clipboard: %s\n", u)
			}
			urls = append(urls, clipped...)
		}

		if len(names) == 0 && len(urls) == 0 {
			fmt.Fprintln(os.Stderr, "Error: nothing to fetch")
			os.Exit(1)
		}

		summary, err := runPipeline(pipelineRun{
			names: names,
			urls:  urls,
			casks: caskFlag,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if summary.Failed > 0 {
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd)
	fetchCmd.Flags().Bool("cask", false, "Treat arguments as cask tokens")
	fetchCmd.Flags().Bool("clipboard", false, "Fetch the URLs currently on the clipboard")
}
