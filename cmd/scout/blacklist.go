package main

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/scout/internal/blacklist"
)

func newBlacklistCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "blacklist",
		Short: "Inspect and edit the user blacklist",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List blacklisted users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			bl, err := a.openBlacklist()
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "USERNAME\tCATEGORY\tADDED\tREASON")
			for _, e := range bl.List() {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.Username, e.Category, e.AddedAt.Format("2006-01-02"), e.Reason)
			}
			return tw.Flush()
		},
	})

	var reason string
	add := &cobra.Command{
		Use:   "add USERNAME CATEGORY",
		Short: "Blacklist a user (admin, spammer, recruiter or helper)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := blacklist.ParseCategory(args[1])
			if err != nil {
				return err
			}
			bl, err := a.openBlacklist()
			if err != nil {
				return err
			}
			added, err := bl.Add(args[0], cat, reason)
			if err != nil {
				return err
			}
			if !added {
				fmt.Fprintf(cmd.OutOrStdout(), "%s is already blacklisted\n", args[0])
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %s as %s\n", args[0], cat)
			return nil
		},
	}
	add.Flags().StringVar(&reason, "reason", "Added manually", "Why the user is blacklisted")
	cmd.AddCommand(add)

	cmd.AddCommand(&cobra.Command{
		Use:   "remove USERNAME",
		Short: "Remove a user from the blacklist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bl, err := a.openBlacklist()
			if err != nil {
				return err
			}
			removed, err := bl.Remove(args[0])
			if err != nil {
				return err
			}
			if !removed {
				return fmt.Errorf("%s is not blacklisted", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", args[0])
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Count blacklisted users per category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			bl, err := a.openBlacklist()
			if err != nil {
				return err
			}
			stats := bl.Stats()
			cats := make([]string, 0, len(stats))
			total := 0
			for c, n := range stats {
				cats = append(cats, string(c))
				total += n
			}
			sort.Strings(cats)
			w := cmd.OutOrStdout()
			for _, c := range cats {
				fmt.Fprintf(w, "%-10s %d\n", c, stats[blacklist.Category(c)])
			}
			fmt.Fprintf(w, "%-10s %d\n", "total", total)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "export FILE",
		Short: "Write the blacklist as tab-separated values",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bl, err := a.openBlacklist()
			if err != nil {
				return err
			}
			f, err := os.Create(args[0])
			if err != nil {
				return fmt.Errorf("create export file: %w", err)
			}
			if err := bl.ExportTSV(f); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("close export file: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d users to %s\n", len(bl.List()), args[0])
			return nil
		},
	})

	return cmd
}
