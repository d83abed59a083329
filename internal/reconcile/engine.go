package reconcile

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/toofancoder/jobtrack/internal/model"
)

// Transition records a status change detected during reconciliation.
type Transition struct {
	Previous model.Application
	Current  model.Application
}

// StatusUpdate is one pending ledger mutation: the status, notes, and
// last-updated cells of the row identified by Key get the given values.
type StatusUpdate struct {
	Key       string
	Status    model.Status
	Notes     string
	UpdatedAt time.Time
}

// Plan is the set of ledger mutations a reconciliation produced. Appends
// and Updates preserve candidate input order.
type Plan struct {
	Appends []model.Application
	Updates []StatusUpdate
}

// Empty reports whether the plan mutates nothing.
func (p Plan) Empty() bool {
	return len(p.Appends) == 0 && len(p.Updates) == 0
}

// Result summarizes a reconciliation for reporting.
type Result struct {
	New     []model.Application
	Updated []Transition
	Noop    []model.Application
	Plan    Plan
}

// Engine reconciles candidate batches against ledger snapshots.
type Engine struct {
	now func() time.Time
}

// NewEngine creates an engine. A nil clock defaults to time.Now.
func NewEngine(now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{now: now}
}

// Reconcile partitions candidates into new, updated, and noop relative to
// the snapshot, and builds the mutation plan. The snapshot is never
// modified, so two candidates sharing a key that is absent from the
// snapshot both plan as appends; the ledger backend resolves the
// duplicate on the next snapshot read.
func (e *Engine) Reconcile(candidates []model.Application, snapshot map[string]model.Application) Result {
	var res Result
	now := e.now()

	for _, c := range candidates {
		d := Match(c, snapshot)
		switch d.Kind {
		case KindNew:
			res.New = append(res.New, c)
			res.Plan.Appends = append(res.Plan.Appends, c)

		case KindUpdate:
			res.Updated = append(res.Updated, Transition{Previous: d.Previous, Current: c})
			res.Plan.Updates = append(res.Plan.Updates, StatusUpdate{
				Key:       c.Key,
				Status:    c.Status,
				Notes:     appendNote(d.Previous.Notes, c.Status, c.SourceID),
				UpdatedAt: now,
			})

		case KindNoop:
			res.Noop = append(res.Noop, c)
		}
	}

	zap.L().Debug("reconciled batch",
		zap.Int("candidates", len(candidates)),
		zap.Int("new", len(res.New)),
		zap.Int("updated", len(res.Updated)),
		zap.Int("noop", len(res.Noop)),
	)

	return res
}

// appendNote extends existing notes with an audit line for the change.
func appendNote(existing string, status model.Status, sourceID string) string {
	line := fmt.Sprintf("Status updated to %s via source %s", status, sourceID)
	if existing == "" {
		return line
	}
	return existing + "; " + line
}
