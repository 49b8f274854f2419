// Command linkstats inspects the action log produced by linkbot.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"linkbot/internal/action"
	"linkbot/internal/actionlog"
	"linkbot/pkg/logx"
)

type rootOptions struct {
	Database string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "linkstats",
		Short: "Inspect the linkbot action log",
		Long: `Read-only views over the sqlite action log.

Examples:
  linkstats today --db ./data/actions.db
  linkstats recent --db ./data/actions.db -n 20
  linkstats history --db ./data/actions.db`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.Database, "db", "./data/actions.db", "path to the sqlite action log")

	cmd.AddCommand(newTodayCommand(opts))
	cmd.AddCommand(newRecentCommand(opts))
	cmd.AddCommand(newHistoryCommand(opts))

	return cmd
}

func openStore(opts *rootOptions) (*actionlog.Store, error) {
	if _, err := os.Stat(opts.Database); err != nil {
		return nil, fmt.Errorf("action log %s: %w", opts.Database, err)
	}
	return actionlog.Open(actionlog.Config{Path: opts.Database}, logx.Nop())
}

func newTodayCommand(rootOpts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "today",
		Short: "Show today's totals and success rate",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(rootOpts)
			if err != nil {
				return err
			}
			defer st.Close()

			sum, err := st.Summary(context.Background(), "")
			if err != nil {
				return fmt.Errorf("summarize: %w", err)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Date: %s\n", sum.Date)
			fmt.Fprintf(w, "Total: %d  Succeeded: %d  Rate: %.2f%%\n", sum.Total, sum.Successes, sum.SuccessRate)
			for _, typ := range action.All() {
				ts, ok := sum.ByType[typ]
				if !ok {
					continue
				}
				fmt.Fprintf(w, "  %-8s %3d (%d ok)\n", typ, ts.Count, ts.Successes)
			}
			return nil
		},
	}
}

type recentOptions struct {
	*rootOptions
	Limit int
}

func newRecentCommand(rootOpts *rootOptions) *cobra.Command {
	opts := &recentOptions{rootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "recent",
		Short: "List the most recent actions, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(opts.rootOptions)
			if err != nil {
				return err
			}
			defer st.Close()

			recs, err := st.Recent(context.Background(), opts.Limit)
			if err != nil {
				return fmt.Errorf("read recent: %w", err)
			}

			w := cmd.OutOrStdout()
			if len(recs) == 0 {
				fmt.Fprintln(w, "no actions recorded")
				return nil
			}
			for _, r := range recs {
				fmt.Fprintf(w, "%s  %s  %-8s %s\n", mark(r.Succeeded), r.Date, r.Type, fmt.Sprintf("#%d", r.ID))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 20, "maximum rows to show")

	return cmd
}

func newHistoryCommand(rootOpts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "Show per-day, per-type counts across the whole log",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(rootOpts)
			if err != nil {
				return err
			}
			defer st.Close()

			rows, err := st.AggregateByDate(context.Background())
			if err != nil {
				return fmt.Errorf("aggregate: %w", err)
			}

			w := cmd.OutOrStdout()
			if len(rows) == 0 {
				fmt.Fprintln(w, "no actions recorded")
				return nil
			}
			last := ""
			for _, row := range rows {
				if row.Date != last {
					fmt.Fprintf(w, "%s\n", row.Date)
					last = row.Date
				}
				fmt.Fprintf(w, "  %-8s %3d (%d ok)\n", row.Type, row.Count, row.Successes)
			}
			return nil
		},
	}
}

func mark(ok bool) string {
	if ok {
		return "✔"
	}
	return "✖"
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
