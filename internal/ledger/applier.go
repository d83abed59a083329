package ledger

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/toofancoder/jobtrack/internal/model"
	"github.com/toofancoder/jobtrack/internal/reconcile"
)

// Applier executes reconciliation plans against a primary ledger, failing
// over appends to a local CSV when the primary rejects them. Rows that
// land in the fallback are counted in the result so they can be
// re-imported later.
type Applier struct {
	primary  Ledger
	fallback *CSVLedger
}

// NewApplier creates an applier. fallback may be nil to disable fail-over.
func NewApplier(primary Ledger, fallback *CSVLedger) *Applier {
	return &Applier{primary: primary, fallback: fallback}
}

// ApplyResult reports what an Apply actually did.
type ApplyResult struct {
	Appended   int
	FellBack   int
	Updated    int
	UpdateErrs int
}

// Apply writes a plan to the ledger. Appends go first so updates never
// race rows they depend on. Update failures are logged and counted, not
// fatal: one bad row should not abort the rest of a batch.
func (a *Applier) Apply(ctx context.Context, plan reconcile.Plan) (ApplyResult, error) {
	var res ApplyResult

	if len(plan.Appends) > 0 {
		rows := make([]Row, len(plan.Appends))
		for i, app := range plan.Appends {
			rows[i] = FromApplication(app)
		}

		if err := a.primary.AppendRows(ctx, rows); err != nil {
			if a.fallback == nil {
				return res, eris.Wrap(err, "ledger: append batch")
			}
			zap.L().Error("primary ledger append failed, writing to csv fallback",
				zap.Int("rows", len(rows)),
				zap.String("fallback", a.fallback.Path()),
				zap.Error(err))
			if fbErr := a.fallback.AppendRows(ctx, rows); fbErr != nil {
				return res, eris.Wrap(fbErr, "ledger: append batch to fallback")
			}
			res.FellBack = len(rows)
		} else {
			res.Appended = len(rows)
		}
	}

	for _, u := range plan.Updates {
		if err := a.applyUpdate(ctx, u); err != nil {
			zap.L().Error("ledger update failed",
				zap.String("key", u.Key),
				zap.String("status", string(u.Status)),
				zap.Error(err))
			res.UpdateErrs++
			continue
		}
		res.Updated++
	}

	return res, nil
}

func (a *Applier) applyUpdate(ctx context.Context, u reconcile.StatusUpdate) error {
	if err := a.primary.UpdateCell(ctx, u.Key, model.ColStatus, string(u.Status)); err != nil {
		return err
	}
	if err := a.primary.UpdateCell(ctx, u.Key, model.ColNotes, u.Notes); err != nil {
		return err
	}
	return a.primary.UpdateCell(ctx, u.Key, model.ColLastUpdated, u.UpdatedAt.Format(TimestampLayout))
}
