package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dlangk/daniel-daily/internal/state"
)

var flagStatusSource string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show source health and fetch history",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}

		if flagStatusSource != "" {
			return printSourceDetail(a, flagStatusSource)
		}
		printStatusTable(a)
		return nil
	},
}

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List configured sources",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}

		fmt.Println("\nConfigured Sources:")
		fmt.Println(strings.Repeat("-", 60))
		for _, src := range a.registry.All() {
			enabled := "enabled"
			if !src.Enabled {
				enabled = "disabled"
			}
			fmt.Printf("  %s\n", src.ID)
			fmt.Printf("    Name: %s\n", src.Name)
			fmt.Printf("    Type: %s\n", src.Kind)
			fmt.Printf("    Category: %s\n", src.Category)
			fmt.Printf("    Status: %s\n", enabled)
			fmt.Printf("    URL: %s\n\n", src.URL)
		}
		return nil
	},
}

func init() {
	statusCmd.Flags().StringVarP(&flagStatusSource, "source", "s", "", "show detailed status for a specific source")
}

func printSourceDetail(a *app, sourceID string) error {
	src, ok := a.registry.ByID(sourceID)
	if !ok {
		return fmt.Errorf("source %q not found", sourceID)
	}

	fmt.Printf("\nSource: %s (%s)\n", src.Name, src.ID)
	fmt.Printf("  Type: %s\n", src.Kind)
	fmt.Printf("  URL: %s\n", src.URL)
	fmt.Printf("  Enabled: %t\n", src.Enabled)

	st, ok := a.tracker.State(sourceID)
	if !ok {
		fmt.Println("\n  No fetch history yet")
		return nil
	}

	fmt.Printf("\n  Last attempt: %s\n", formatTime(st.LastFetchAttempt))
	fmt.Printf("  Last success: %s\n", formatTime(st.LastSuccessfulFetch))
	fmt.Printf("  Status: %s\n", healthLabel(st))
	if st.LastError != "" {
		fmt.Printf("  Last error: %s\n", st.LastError)
	}
	fmt.Printf("  Items (last run): %d\n", st.ItemsLastRun)
	fmt.Printf("  Items (total): %d\n", st.TotalItemsFetched)
	fmt.Printf("  Consecutive failures: %d\n", st.ConsecutiveFailures)

	if len(st.History) > 0 {
		fmt.Println("\n  Recent history:")
		for _, entry := range st.History[:min(5, len(st.History))] {
			mark := "OK"
			if !entry.Success {
				mark = "FAIL"
			}
			fmt.Printf("    %s: %s (%d items, %.2fs)\n",
				entry.Timestamp.Format(time.RFC3339), mark, entry.ItemsFetched, entry.DurationSeconds)
		}
	}
	return nil
}

func printStatusTable(a *app) {
	states := a.tracker.AllStates()

	fmt.Println("\ndaniel-daily - Source Status")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("%-20s %-20s %-10s %s\n", "Source", "Last Success", "Status", "Items")
	fmt.Println(strings.Repeat("-", 60))

	healthy, attention := 0, 0
	for _, src := range a.registry.All() {
		lastSuccess := "Never"
		status := "NEW"
		items := 0

		if st, ok := states[src.ID]; ok {
			if !st.LastSuccessfulFetch.IsZero() {
				lastSuccess = st.LastSuccessfulFetch.Format("2006-01-02")
			}
			status = healthLabel(st)
			items = st.ItemsLastRun
			if st.LastFetchSuccess {
				healthy++
			} else {
				attention++
			}
		}

		fmt.Printf("%-20s %-20s %-10s %d\n", src.ID, lastSuccess, status, items)
		if st, ok := states[src.ID]; ok && st.LastError != "" {
			fmt.Printf("  Error: %s\n", truncateError(st.LastError, 50))
		}
	}

	fmt.Println(strings.Repeat("-", 60))
	fmt.Printf("Total: %d sources, %d healthy, %d need attention\n",
		len(a.registry.All()), healthy, attention)
}

func healthLabel(st state.SourceState) string {
	if st.LastFetchSuccess {
		return "OK"
	}
	return "FAILING"
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "Never"
	}
	return t.Format(time.RFC3339)
}

func truncateError(msg string, n int) string {
	runes := []rune(msg)
	if len(runes) <= n {
		return msg
	}
	return string(runes[:n]) + "..."
}
