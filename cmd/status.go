package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/toofancoder/jobtrack/internal/model"
	"github.com/toofancoder/jobtrack/internal/store"
)

var (
	statusKind  string
	statusLimit int
	statusRuns  bool
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Summarize the ledger and recent sync runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		rows, err := env.Ledger.ReadAll(ctx)
		if err != nil {
			return eris.Wrap(err, "read ledger")
		}

		counts := make(map[model.Status]int)
		for _, r := range rows {
			counts[model.Status(r.Status)]++
		}

		fmt.Printf("Tracked applications: %d\n", len(rows))
		for _, s := range []model.Status{
			model.StatusApplied, model.StatusInterview, model.StatusAccepted,
			model.StatusRejected, model.StatusWithdrawn,
		} {
			if counts[s] > 0 {
				fmt.Printf("  %-10s %d\n", s, counts[s])
			}
		}

		if !statusRuns {
			return nil
		}

		runs, err := env.Store.ListRuns(ctx, store.RunFilter{
			Kind:  statusKind,
			Limit: statusLimit,
		})
		if err != nil {
			return eris.Wrap(err, "list sync runs")
		}

		fmt.Println()
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "STARTED\tKIND\tNEW\tUPDATED\tNOOP\tFAILED\tSOURCE")
		for _, r := range runs {
			fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%d\t%s\n",
				r.StartedAt.Local().Format(time.DateTime),
				r.Kind, r.New, r.Updated, r.Noop, r.Failed, r.Source)
		}
		return w.Flush()
	},
}

func init() {
	statusCmd.Flags().BoolVar(&statusRuns, "runs", false, "also list recent sync runs")
	statusCmd.Flags().StringVar(&statusKind, "kind", "", "filter runs by kind (track, import, scan-updates)")
	statusCmd.Flags().IntVar(&statusLimit, "limit", 20, "maximum runs to list")
	rootCmd.AddCommand(statusCmd)
}
