package main

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/toofancoder/jobtrack/internal/ledger"
	"github.com/toofancoder/jobtrack/internal/mailbox"
	"github.com/toofancoder/jobtrack/internal/model"
	"github.com/toofancoder/jobtrack/internal/reconcile"
	"github.com/toofancoder/jobtrack/internal/store"
)

var (
	trackQuery      string
	trackMaxResults int64
	trackDryRun     bool
)

// trackReport is the JSON summary printed after a scan.
type trackReport struct {
	Scanned  int                 `json:"scanned"`
	New      []model.Application `json:"new,omitempty"`
	Updated  []string            `json:"updated,omitempty"`
	Noop     int                 `json:"noop"`
	FellBack int                 `json:"fell_back,omitempty"`
	Failed   int                 `json:"failed,omitempty"`
}

var trackCmd = &cobra.Command{
	Use:   "track",
	Short: "Scan the inbox and reconcile application emails against the ledger",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		start := time.Now()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		src, err := initMailbox(ctx)
		if err != nil {
			return err
		}

		query := trackQuery
		if query == "" {
			query = cfg.Gmail.Query
		}
		maxResults := trackMaxResults
		if maxResults <= 0 {
			maxResults = cfg.Gmail.MaxResults
		}

		report, err := runScan(ctx, env, src, query, maxResults, trackDryRun)
		if err != nil {
			return err
		}

		zap.L().Info("track complete",
			zap.Int("scanned", report.Scanned),
			zap.Int("new", len(report.New)),
			zap.Int("updated", len(report.Updated)),
			zap.Int("noop", report.Noop),
			zap.Duration("elapsed", time.Since(start)))

		return printReport(report)
	},
}

// runScan executes one full scan cycle: list, filter, fetch, parse,
// reconcile, apply, mark. Shared by the track command and the serve
// endpoint.
func runScan(ctx context.Context, env *trackEnv, src mailbox.Source, query string, maxResults int64, dryRun bool) (trackReport, error) {
	start := time.Now()

	ids, err := src.List(ctx, query, maxResults)
	if err != nil {
		return trackReport{}, eris.Wrap(err, "list messages")
	}

	ids, err = env.Store.FilterUnprocessed(ctx, ids)
	if err != nil {
		return trackReport{}, eris.Wrap(err, "filter processed messages")
	}
	if len(ids) == 0 {
		zap.L().Info("no new messages to process")
		return trackReport{}, nil
	}

	msgs, err := mailbox.FetchAll(ctx, src, ids)
	if err != nil {
		return trackReport{}, eris.Wrap(err, "fetch messages")
	}

	candidates := make([]model.Application, len(msgs))
	for i, msg := range msgs {
		candidates[i] = env.Parser.Parse(ctx, msg)
	}

	snapshot := readSnapshot(ctx, env.Ledger)
	result := reconcile.NewEngine(nil).Reconcile(candidates, snapshot)

	if dryRun {
		zap.L().Info("dry run, ledger not modified",
			zap.Int("new", len(result.New)),
			zap.Int("updated", len(result.Updated)),
			zap.Int("noop", len(result.Noop)))
		return reportFrom(len(msgs), result, ledger.ApplyResult{}), nil
	}

	applyRes, err := env.Applier.Apply(ctx, result.Plan)
	if err != nil {
		return trackReport{}, eris.Wrap(err, "apply plan")
	}

	markProcessed(ctx, env, src, msgs)

	run := store.SyncRun{
		Kind:       "track",
		Source:     query,
		New:        len(result.New),
		Updated:    applyRes.Updated,
		Noop:       len(result.Noop),
		Failed:     applyRes.UpdateErrs,
		StartedAt:  start,
		FinishedAt: time.Now(),
	}
	if err := env.Store.RecordRun(ctx, run); err != nil {
		zap.L().Warn("failed to record sync run", zap.Error(err))
	}

	return reportFrom(len(msgs), result, applyRes), nil
}

// readSnapshot loads the current ledger state. A read failure degrades to
// an empty snapshot: scanning proceeds and every candidate plans as an
// append rather than aborting the run.
func readSnapshot(ctx context.Context, led ledger.Ledger) map[string]model.Application {
	rows, err := led.ReadAll(ctx)
	if err != nil {
		zap.L().Warn("ledger read failed, treating all candidates as new", zap.Error(err))
		return map[string]model.Application{}
	}
	return ledger.Snapshot(rows)
}

// markProcessed tags messages in the mailbox and the local store. Failures
// are logged; an unmarked message is re-parsed next run and lands as noop.
func markProcessed(ctx context.Context, env *trackEnv, src mailbox.Source, msgs []model.EmailMessage) {
	for _, msg := range msgs {
		if err := src.MarkProcessed(ctx, msg.ID); err != nil {
			zap.L().Warn("failed to label message",
				zap.String("message_id", msg.ID),
				zap.Error(err))
			continue
		}
		if err := env.Store.MarkProcessed(ctx, msg.ID); err != nil {
			zap.L().Warn("failed to record processed message",
				zap.String("message_id", msg.ID),
				zap.Error(err))
		}
	}
}

func reportFrom(scanned int, result reconcile.Result, applyRes ledger.ApplyResult) trackReport {
	report := trackReport{
		Scanned:  scanned,
		New:      result.New,
		Noop:     len(result.Noop),
		FellBack: applyRes.FellBack,
		Failed:   applyRes.UpdateErrs,
	}
	for _, t := range result.Updated {
		report.Updated = append(report.Updated, t.Current.Key)
	}
	return report
}

func printReport(report trackReport) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func init() {
	trackCmd.Flags().StringVar(&trackQuery, "query", "", "inbox search query (default from config)")
	trackCmd.Flags().Int64Var(&trackMaxResults, "max-results", 0, "maximum messages to scan (default from config)")
	trackCmd.Flags().BoolVar(&trackDryRun, "dry-run", false, "report what would change without writing")
	rootCmd.AddCommand(trackCmd)
}
