package cli

import (
	"cellar/internal/cache"
	"cellar/internal/config"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var installCmd = &cobra.Command{
	Use:   "install [package]...",
	Short: "Download and install packages with their dependencies",
	Long: `Install resolves the requested packages against the local taps, downloads
every artifact concurrently, and unpacks and links each one as its
download completes. Formula dependencies are installed first.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		caskFlag, _ := cmd.Flags().GetBool("cask")
		buildFromSource, _ := cmd.Flags().GetBool("build-from-source")
		listenAddr, _ := cmd.Flags().GetString("listen")

		// Only one install may mutate the kegs at a time.
		lock := cache.NewProcessLock(filepath.Join(config.GetRuntimeDir(), "cellar.lock"))
		if err := lock.Acquire(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer lock.Release()

		summary, err := runPipeline(pipelineRun{
			names:           args,
			casks:           caskFlag,
			buildFromSource: buildFromSource,
			listenAddr:      listenAddr,
			installTargets:  true,
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
	rootCmd.AddCommand(installCmd)
	installCmd.Flags().Bool("cask", false, "Treat arguments as cask tokens")
	installCmd.Flags().Bool("build-from-source", false, "Build formulae from source even when a bottle exists")
	installCmd.Flags().String("listen", "", "Serve /health and /events on this address while running")
}
