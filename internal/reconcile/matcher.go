// Package reconcile decides what a batch of candidate application records
// means relative to the current ledger: which are new, which change the
// status of a known record, and which carry no new information.
package reconcile

import "github.com/toofancoder/jobtrack/internal/model"

// Kind classifies a candidate relative to the ledger snapshot.
type Kind int

const (
	// KindNew means no record with the candidate's key exists yet.
	KindNew Kind = iota
	// KindUpdate means a record exists and the candidate carries a
	// different status.
	KindUpdate
	// KindNoop means a record exists with the same status already.
	KindNoop
)

func (k Kind) String() string {
	switch k {
	case KindNew:
		return "new"
	case KindUpdate:
		return "update"
	default:
		return "noop"
	}
}

// Disposition is the outcome of matching one candidate against the
// snapshot. Previous is zero-valued for KindNew.
type Disposition struct {
	Kind     Kind
	Previous model.Application
	Current  model.Application
}

// Match classifies a single candidate against a snapshot keyed by record
// key. Identity is the key alone: field drift other than status on an
// existing record is deliberately ignored.
func Match(candidate model.Application, snapshot map[string]model.Application) Disposition {
	prev, ok := snapshot[candidate.Key]
	if !ok {
		return Disposition{Kind: KindNew, Current: candidate}
	}
	if prev.Status != candidate.Status {
		return Disposition{Kind: KindUpdate, Previous: prev, Current: candidate}
	}
	return Disposition{Kind: KindNoop, Previous: prev, Current: candidate}
}
