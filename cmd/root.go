package cmd

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/dlangk/daniel-daily/internal/config"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	flagConfigDir string
	flagDataDir   string
	flagVerbose   bool
)

var rootCmd = &cobra.Command{
	Use:   "daniel-daily",
	Short: "Personal intelligence briefing system",
	Long:  "daniel-daily collects content from configured feeds, stores it as inspectable markdown files, and generates a daily brief from the recent window.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if flagVerbose {
			log.SetLevel(log.DebugLevel)
		} else {
			log.SetLevel(log.WarnLevel)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigDir, "config-dir", "", "config directory (default: XDG config home)")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "data directory (default: XDG data home)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(collectCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(sourcesCmd)
	rootCmd.AddCommand(briefCmd)
	rootCmd.AddCommand(rebuildIndexCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("daniel-daily %s (commit: %s, built: %s)\n", version, commit, date)
	},
}

// resolvePaths applies the --config-dir/--data-dir overrides to the XDG
// defaults. This is the only place ambient lookups feed the core.
func resolvePaths() config.Paths {
	paths := config.DefaultPaths()
	if flagConfigDir != "" {
		paths.ConfigDir = flagConfigDir
	}
	if flagDataDir != "" {
		paths.DataDir = flagDataDir
	}
	return paths
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
}
