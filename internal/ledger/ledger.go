// Package ledger persists application records as rows in a spreadsheet-like
// backend. All backends share one fixed row schema; the first row is always
// the header.
package ledger

import (
	"context"
	"time"

	"github.com/toofancoder/jobtrack/internal/model"
)

// Date layouts used in ledger cells.
const (
	DateLayout      = "2006-01-02"
	TimestampLayout = time.RFC3339
)

// Row is one ledger row. Field order matches the column order of the
// header, and the csv tags carry the header names.
type Row struct {
	JobID       string `csv:"Job ID"`
	Company     string `csv:"Company"`
	Position    string `csv:"Position"`
	AppliedAt   string `csv:"Application Date"`
	Status      string `csv:"Status"`
	SourceID    string `csv:"Source ID"`
	SourceDate  string `csv:"Source Date"`
	Origin      string `csv:"Origin"`
	Notes       string `csv:"Notes"`
	LastUpdated string `csv:"Last Updated"`
}

// Ledger is the persistence surface for application rows. UpdateCell
// addresses a cell by record key and column name so backends can map it
// to their native update primitive.
type Ledger interface {
	ReadAll(ctx context.Context) ([]Row, error)
	AppendRows(ctx context.Context, rows []Row) error
	UpdateCell(ctx context.Context, key, column, value string) error
}

// FromApplication converts a record to its row representation.
func FromApplication(app model.Application) Row {
	return Row{
		JobID:       app.Key,
		Company:     app.Company,
		Position:    app.Position,
		AppliedAt:   app.AppliedAt.Format(DateLayout),
		Status:      string(app.Status),
		SourceID:    app.SourceID,
		SourceDate:  app.SourceDate,
		Origin:      app.Origin,
		Notes:       app.Notes,
		LastUpdated: app.LastUpdated.Format(TimestampLayout),
	}
}

// Application converts a row back to a record. Unparseable dates are left
// zero-valued rather than failing the read.
func (r Row) Application() model.Application {
	app := model.Application{
		Key:        r.JobID,
		Company:    r.Company,
		Position:   r.Position,
		Status:     model.Status(r.Status),
		SourceID:   r.SourceID,
		SourceDate: r.SourceDate,
		Origin:     r.Origin,
		Notes:      r.Notes,
	}
	if t, err := time.Parse(DateLayout, r.AppliedAt); err == nil {
		app.AppliedAt = t
	}
	if t, err := time.Parse(TimestampLayout, r.LastUpdated); err == nil {
		app.LastUpdated = t
	}
	return app
}

// Values returns the row's cells in column order.
func (r Row) Values() []string {
	return []string{
		r.JobID, r.Company, r.Position, r.AppliedAt, r.Status,
		r.SourceID, r.SourceDate, r.Origin, r.Notes, r.LastUpdated,
	}
}

// rowFromValues builds a Row from cells in column order. Short slices are
// padded; extra cells are dropped.
func rowFromValues(values []string) Row {
	cells := make([]string, len(model.Columns))
	copy(cells, values)
	return Row{
		JobID:       cells[0],
		Company:     cells[1],
		Position:    cells[2],
		AppliedAt:   cells[3],
		Status:      cells[4],
		SourceID:    cells[5],
		SourceDate:  cells[6],
		Origin:      cells[7],
		Notes:       cells[8],
		LastUpdated: cells[9],
	}
}

// Snapshot indexes rows by record key. When the ledger holds duplicate
// keys the last row wins, matching the append-then-reconcile lifecycle.
func Snapshot(rows []Row) map[string]model.Application {
	snap := make(map[string]model.Application, len(rows))
	for _, r := range rows {
		if r.JobID == "" {
			continue
		}
		snap[r.JobID] = r.Application()
	}
	return snap
}
