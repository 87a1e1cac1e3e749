package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/scout/internal/prefilter"
	"github.com/MikeSquared-Agency/scout/internal/processor"
)

func newRunCmd(a *app) *cobra.Command {
	var (
		transcriptPath string
		outDir         string
		concurrency    int
		batchSize      int
		validate       bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Classify a transcript end to end",
		Long: "Parse a transcript, pre-filter it, classify every candidate and write " +
			"lead, no-lead and error files. Ctrl-C stops the batch and writes the " +
			"results collected so far.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts := a.processorOptions()
			if cmd.Flags().Changed("out") {
				opts.OutputDir = outDir
			}
			if cmd.Flags().Changed("concurrency") {
				opts.MaxConcurrent = concurrency
			}
			if cmd.Flags().Changed("batch-size") {
				opts.BatchSize = batchSize
			}
			if cmd.Flags().Changed("validate") {
				a.cfg.ValidateReplies = validate
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			svc, err := a.build(ctx, opts)
			if err != nil {
				return err
			}
			defer svc.close()

			report, res, runErr := svc.pipeline.RunFile(ctx, transcriptPath)
			printReport(cmd.OutOrStdout(), report, res)
			return runErr
		},
	}

	cmd.Flags().StringVarP(&transcriptPath, "transcript", "t", "", "Path to the transcript file")
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Directory for result files (default from SCOUT_OUTPUT_DIR)")
	cmd.Flags().IntVar(&concurrency, "concurrency", processor.DefaultMaxConcurrent, "Candidates classified in parallel")
	cmd.Flags().IntVar(&batchSize, "batch-size", processor.DefaultBatchSize, "Completions between checkpoint files")
	cmd.Flags().BoolVar(&validate, "validate", false, "Review drafted replies and regenerate rejected ones")
	_ = cmd.MarkFlagRequired("transcript")

	return cmd
}

func printReport(w io.Writer, report prefilter.Report, res *processor.BatchResult) {
	fmt.Fprintf(w, "Messages:   %d\n", len(report.Messages))
	fmt.Fprintf(w, "Rejected:   %d\n", report.Rejected())
	fmt.Fprintf(w, "Candidates: %d\n", len(report.Candidates))

	reasons := make([]string, 0, len(report.Rejections))
	for r := range report.Rejections {
		reasons = append(reasons, r)
	}
	sort.Strings(reasons)
	for _, r := range reasons {
		fmt.Fprintf(w, "  %-40s %d\n", r, report.Rejections[r])
	}

	if res == nil {
		return
	}
	sum := res.Summary
	fmt.Fprintf(w, "\nRun %s", sum.RunID)
	if sum.Interrupted {
		fmt.Fprint(w, " (interrupted)")
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Leads:      %d\n", sum.Leads)
	fmt.Fprintf(w, "No leads:   %d\n", sum.NoLeads)
	fmt.Fprintf(w, "Errors:     %d\n", sum.Errors)
	for _, f := range sum.Files {
		fmt.Fprintf(w, "  wrote %s\n", f)
	}
}
