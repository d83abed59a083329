package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/toofancoder/jobtrack/internal/model"
)

func sampleApp() model.Application {
	return model.Application{
		Key:         "Acme_Engineer_ab12cd34",
		Company:     "Acme",
		Position:    "Engineer",
		AppliedAt:   time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		Status:      model.StatusApplied,
		SourceID:    "msg-1",
		SourceDate:  "Mon, 15 Jan 2024 10:30:00 +0000",
		Origin:      model.OriginInboxHeuristic,
		Notes:       "Subject: hello",
		LastUpdated: time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
	}
}

func TestRowRoundTrip(t *testing.T) {
	app := sampleApp()
	got := FromApplication(app).Application()
	assert.Equal(t, app, got)
}

func TestRowValuesOrder(t *testing.T) {
	r := FromApplication(sampleApp())
	vals := r.Values()
	assert.Len(t, vals, len(model.Columns))
	assert.Equal(t, r.JobID, vals[0])
	assert.Equal(t, r.Status, vals[model.ColumnIndex(model.ColStatus)])
	assert.Equal(t, r.LastUpdated, vals[len(vals)-1])
}

func TestRowApplicationBadDates(t *testing.T) {
	r := Row{JobID: "k1", AppliedAt: "not-a-date", LastUpdated: "also bad"}
	app := r.Application()
	assert.True(t, app.AppliedAt.IsZero())
	assert.True(t, app.LastUpdated.IsZero())
}

func TestRowFromValuesPadsAndTruncates(t *testing.T) {
	short := rowFromValues([]string{"k1", "Acme"})
	assert.Equal(t, "k1", short.JobID)
	assert.Equal(t, "Acme", short.Company)
	assert.Empty(t, short.LastUpdated)

	long := rowFromValues(append(make([]string, 10), "extra"))
	assert.Empty(t, long.JobID)
}

func TestSnapshotLastRowWins(t *testing.T) {
	rows := []Row{
		{JobID: "k1", Status: "Applied"},
		{JobID: "", Status: "Applied"}, // keyless rows are skipped
		{JobID: "k1", Status: "Interview"},
		{JobID: "k2", Status: "Applied"},
	}

	snap := Snapshot(rows)
	assert.Len(t, snap, 2)
	assert.Equal(t, model.StatusInterview, snap["k1"].Status)
}
