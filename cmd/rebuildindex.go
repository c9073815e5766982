package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var rebuildIndexCmd = &cobra.Command{
	Use:   "rebuild-index",
	Short: "Rebuild the duplicate index from stored content",
	Long: `Clear the duplicate index and repopulate it from the headers of every
stored content file. Use this to recover a lost or corrupt index file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}

		count, err := a.index.Rebuild(a.store)
		if err != nil {
			return fmt.Errorf("rebuilding index: %w", err)
		}

		fmt.Printf("Index rebuilt: %d identifier(s) from stored content.\n", count)
		if skipped := a.store.SkippedParses(); skipped > 0 {
			fmt.Printf("Skipped %d unparsable file(s).\n", skipped)
		}
		return nil
	},
}
