package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dlangk/daniel-daily/internal/brief"
)

var flagBriefDryRun bool

var briefCmd = &cobra.Command{
	Use:   "brief",
	Short: "Generate a brief from recent content",
	Long: `Read the stored content inside the configured window, send it to the
completion service, and store the generated brief.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}

		systemPrompt, err := loadSystemPrompt(a.settings.Brief.SystemPromptPath)
		if err != nil {
			return err
		}

		generator, err := newGenerator(a, systemPrompt)
		if err != nil {
			return err
		}

		result, err := generator.Generate(cmd.Context(), flagBriefDryRun)
		if err != nil {
			return err
		}
		if result == nil {
			fmt.Println("No content found to analyze")
			return nil
		}

		if flagBriefDryRun {
			fmt.Printf("Dry run: %d item(s) from %d source(s) in window %s to %s\n",
				result.ItemsAnalyzed, len(result.SourceIDs),
				result.Window.From.Format("2006-01-02 15:04"),
				result.Window.To.Format("2006-01-02 15:04"))
			fmt.Printf("Sources: %s\n", strings.Join(result.SourceIDs, ", "))
			return nil
		}

		fmt.Printf("Brief generated: %s\n", result.Path)
		return nil
	},
}

var briefListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored briefs",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}

		refs, err := a.store.ListBriefs()
		if err != nil {
			return err
		}
		if len(refs) == 0 {
			fmt.Println("No briefs stored yet.")
			return nil
		}
		for _, ref := range refs {
			fmt.Println(ref.Date)
		}
		return nil
	},
}

var briefShowCmd = &cobra.Command{
	Use:   "show [date]",
	Short: "Print a stored brief (latest when no date is given)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}

		if len(args) == 1 {
			stored, found := a.store.BriefByDate(args[0])
			if !found {
				return fmt.Errorf("no brief found for %s", args[0])
			}
			printBrief(stored.GeneratedAt.Format("2006-01-02"), stored.Model, stored.Content)
			return nil
		}

		stored, found := a.store.LatestBrief()
		if !found {
			return fmt.Errorf("no briefs stored yet")
		}
		printBrief(stored.GeneratedAt.Format("2006-01-02"), stored.Model, stored.Content)
		return nil
	},
}

func init() {
	briefCmd.Flags().BoolVar(&flagBriefDryRun, "dry-run", false, "show what would be analyzed without calling the model")
	briefCmd.AddCommand(briefListCmd)
	briefCmd.AddCommand(briefShowCmd)
}

func newGenerator(a *app, systemPrompt string) (*brief.Generator, error) {
	chain := brief.CredentialChain{
		ConfigValue: a.settings.Brief.APIKey,
		KeyFile:     defaultKeyFile(),
	}
	apiKey, err := chain.Resolve()
	if err != nil {
		return nil, err
	}

	provider := brief.NewAnthropic(apiKey, a.settings.Brief.Model)
	return brief.NewGenerator(
		a.store,
		provider,
		systemPrompt,
		a.settings.Brief.MaxTokens,
		a.settings.Brief.WindowDuration(),
	), nil
}

func loadSystemPrompt(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading system prompt %s: %w", path, err)
	}
	return string(data), nil
}

func defaultKeyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".anthropic_api_key")
}

func printBrief(date, model, content string) {
	fmt.Printf("Brief for %s (model: %s)\n", date, model)
	fmt.Println(strings.Repeat("-", 60))
	fmt.Println(content)
}
