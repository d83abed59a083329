package main

import (
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/toofancoder/jobtrack/internal/importer"
	"github.com/toofancoder/jobtrack/internal/mailbox"
	"github.com/toofancoder/jobtrack/internal/model"
	"github.com/toofancoder/jobtrack/internal/reconcile"
	"github.com/toofancoder/jobtrack/internal/store"
)

var (
	importFile        string
	importSheet       string
	importScanUpdates bool
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import applications from a spreadsheet file",
	Long:  "Reads an .xlsx or .csv export, maps its columns onto the ledger schema, and reconciles the rows. With --scan-updates, the inbox is searched afterwards for status changes to the imported applications.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		start := time.Now()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		imp := importer.New()
		jobs, err := imp.Read(importFile, importSheet)
		if err != nil {
			return eris.Wrap(err, "read import file")
		}
		zap.L().Info("loaded import file",
			zap.String("path", importFile),
			zap.Int("rows", len(jobs)))

		candidates := imp.ToApplications(jobs)

		snapshot := readSnapshot(ctx, env.Ledger)
		result := reconcile.NewEngine(nil).Reconcile(candidates, snapshot)

		applyRes, err := env.Applier.Apply(ctx, result.Plan)
		if err != nil {
			return eris.Wrap(err, "apply plan")
		}

		fmt.Printf("Imported %d rows: %d new, %d updated, %d unchanged\n",
			len(jobs), len(result.New), applyRes.Updated, len(result.Noop))
		if applyRes.FellBack > 0 {
			fmt.Printf("Primary ledger unavailable: %d rows written to %s\n",
				applyRes.FellBack, cfg.Ledger.FallbackPath)
		}

		run := store.SyncRun{
			Kind:       "import",
			Source:     importFile,
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

		if importScanUpdates {
			return scanForUpdates(cmd, env, jobs, candidates)
		}
		return nil
	},
}

// scanForUpdates searches the inbox for messages about imported jobs and
// reconciles any detected status changes.
func scanForUpdates(cmd *cobra.Command, env *trackEnv, jobs []importer.ImportedJob, imported []model.Application) error {
	ctx := cmd.Context()
	start := time.Now()

	src, err := initMailbox(ctx)
	if err != nil {
		return err
	}

	ids, err := src.List(ctx, cfg.Gmail.Query, cfg.Gmail.MaxResults)
	if err != nil {
		return eris.Wrap(err, "list messages")
	}
	msgs, err := mailbox.FetchAll(ctx, src, ids)
	if err != nil {
		return eris.Wrap(err, "fetch messages")
	}

	searcher := importer.NewUpdateSearcher(env.Vocab, env.Semantic)
	hits := searcher.Search(ctx, jobs, msgs)
	if len(hits) == 0 {
		fmt.Println("No status updates found in the inbox.")
		return nil
	}

	// imported[i] is the candidate built from jobs[i], so the hit's job
	// index addresses it directly. Duplicate company+position rows with
	// different dates carry distinct keys and must stay separate.
	var candidates []model.Application
	for _, hit := range hits {
		if hit.JobIndex < 0 || hit.JobIndex >= len(imported) {
			continue
		}
		app := imported[hit.JobIndex]
		app.Status = hit.Status
		app.SourceID = hit.Message.ID
		app.SourceDate = hit.Message.Date
		candidates = append(candidates, app)
		fmt.Printf("Found update for %s: %s (message %s)\n", hit.Job, hit.Status, hit.Message.ID)
	}

	snapshot := readSnapshot(ctx, env.Ledger)
	result := reconcile.NewEngine(nil).Reconcile(candidates, snapshot)

	applyRes, err := env.Applier.Apply(ctx, result.Plan)
	if err != nil {
		return eris.Wrap(err, "apply update plan")
	}

	fmt.Printf("Applied %d status updates (%d unchanged)\n", applyRes.Updated, len(result.Noop))

	run := store.SyncRun{
		Kind:       "scan-updates",
		Source:     importFile,
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
	return nil
}

func init() {
	importCmd.Flags().StringVar(&importFile, "file", "", "path to .xlsx or .csv file (required)")
	importCmd.Flags().StringVar(&importSheet, "sheet", "", "workbook sheet name (default first sheet)")
	importCmd.Flags().BoolVar(&importScanUpdates, "scan-updates", false, "search the inbox for status updates after importing")
	_ = importCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(importCmd)
}
