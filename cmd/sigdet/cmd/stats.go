package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/tech4humans/sigdet/internal/metrics"
)

// statsCmd represents the stats command.
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show recorded inference timing statistics",
	Long: `Summarize the inference timings recorded by previous detection runs.

Examples:
  sigdet stats
  sigdet stats --window 20 --format json`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		if cmd.Flags().Changed("window") {
			cfg.Metrics.RecentWindow, _ = cmd.Flags().GetInt("window")
		}
		if cmd.Flags().Changed("stats-format") {
			cfg.Output.Format, _ = cmd.Flags().GetString("stats-format")
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		store, err := metrics.NewStorage(cfg.Metrics.Path)
		if err != nil {
			return fmt.Errorf("failed to open metrics storage: %w", err)
		}
		defer func() {
			if err := store.Close(); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Error closing metrics storage: %v\n", err)
			}
		}()

		summary := store.Summarize(cfg.Metrics.RecentWindow)

		switch cfg.Output.Format {
		case outputFormatJSON:
			bts, err := json.MarshalIndent(summary, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal JSON: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(bts))
			return err
		case outputFormatYAML:
			bts, err := yaml.Marshal(summary)
			if err != nil {
				return fmt.Errorf("failed to marshal YAML: %w", err)
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), string(bts))
			return err
		default:
			out := cmd.OutOrStdout()
			if _, err := fmt.Fprintf(out, "Total inferences: %d\n", summary.Total); err != nil {
				return err
			}
			if _, err := fmt.Fprintf(out, "Average (last %d): %.1f ms\n",
				len(summary.Times), summary.Average); err != nil {
				return err
			}
			for i, t := range summary.Times {
				if _, err := fmt.Fprintf(out, "  #%d: %.1f ms\n", summary.StartIndex+i+1, t); err != nil {
					return err
				}
			}
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)

	statsCmd.Flags().Int("window", metrics.DefaultRecentLimit, "number of recent samples to summarize")
	statsCmd.Flags().String("stats-format", "text", "output format (text, json, yaml)")
}
