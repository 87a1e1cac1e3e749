package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/scout/internal/prefilter"
	"github.com/MikeSquared-Agency/scout/internal/transcript"
)

// newFilterCmd runs only the deterministic stage; no model is called.
func newFilterCmd(a *app) *cobra.Command {
	var (
		transcriptPath string
		asJSON         bool
	)

	cmd := &cobra.Command{
		Use:   "filter",
		Short: "Pre-filter a transcript without calling any model",
		RunE: func(cmd *cobra.Command, _ []string) error {
			msgs, err := transcript.ParseFile(transcriptPath)
			if err != nil {
				return err
			}
			bl, err := a.openBlacklist()
			if err != nil {
				return err
			}

			report, err := prefilter.New(bl, a.logger).Run(msgs)
			if err != nil {
				a.logger.Error("blacklist update failed", "error", err)
			}

			w := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}
			printReport(w, report, nil)
			for _, c := range report.Candidates {
				score := float32(0)
				if c.NeedsHelpScore != nil {
					score = *c.NeedsHelpScore
				}
				fmt.Fprintf(w, "%.2f  %-20s %s\n", score, c.Username, firstLine(c.Text))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&transcriptPath, "transcript", "t", "", "Path to the transcript file")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full report as JSON")
	_ = cmd.MarkFlagRequired("transcript")

	return cmd
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			s = s[:i]
			break
		}
	}
	const limit = 80
	if r := []rune(s); len(r) > limit {
		return string(r[:limit]) + "..."
	}
	return s
}
