package importer

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toofancoder/jobtrack/internal/model"
)

var importClock = func() time.Time {
	return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
}

func TestMapHeaderSynonyms(t *testing.T) {
	cols := mapHeader([]string{"Employer", "Job_Title", "Date_Applied", "Current_Status", "City"})

	assert.Equal(t, 0, cols["company"])
	assert.Equal(t, 1, cols["position"])
	assert.Equal(t, 2, cols["application_date"])
	assert.Equal(t, 3, cols["status"])
	assert.Equal(t, 4, cols["location"])
}

func TestMapHeaderFirstSynonymWins(t *testing.T) {
	// "position" is preferred over "role" when both columns exist.
	cols := mapHeader([]string{"role", "position"})
	assert.Equal(t, 1, cols["position"])
}

func TestMapHeaderUnknownColumnsIgnored(t *testing.T) {
	cols := mapHeader([]string{"company", "favorite_color"})
	assert.Len(t, cols, 1)
}

func TestReadCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs.csv")
	content := "Company,Position,Application_Date,Status\n" +
		"Acme,Engineer,2024-01-15,Interview\n" +
		",,,\n" +
		"Beta,Analyst,,\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	imp := New(WithClock(importClock))
	jobs, err := imp.Read(path, "")
	require.NoError(t, err)
	require.Len(t, jobs, 2)

	assert.Equal(t, "Acme", jobs[0].Company)
	assert.Equal(t, "Engineer", jobs[0].Position)
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), jobs[0].AppliedAt)
	assert.Equal(t, "Interview", jobs[0].Status)

	// Missing optional fields take defaults.
	assert.Equal(t, "Beta", jobs[1].Company)
	assert.Equal(t, "Applied", jobs[1].Status)
	assert.Equal(t, importClock(), jobs[1].AppliedAt)
}

func TestReadUnsupportedExtension(t *testing.T) {
	imp := New()
	_, err := imp.Read("jobs.pdf", "")
	assert.ErrorContains(t, err, "unsupported file type")
}

func TestNormalizeDateSlashHeuristic(t *testing.T) {
	imp := New(WithClock(importClock))

	// First component above 12 means day-first.
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), imp.normalizeDate("15/1/2024"))
	// Otherwise month-first.
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), imp.normalizeDate("1/2/2024"))
}

func TestNormalizeDateLayouts(t *testing.T) {
	imp := New(WithClock(importClock))

	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), imp.normalizeDate("2024-03-05"))
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), imp.normalizeDate("Mar 5, 2024"))
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), imp.normalizeDate("5-Mar-2024"))
}

func TestNormalizeDateFallback(t *testing.T) {
	imp := New(WithClock(importClock))

	assert.Equal(t, importClock(), imp.normalizeDate(""))
	assert.Equal(t, importClock(), imp.normalizeDate("sometime last week"))
}

func TestToApplications(t *testing.T) {
	imp := New(WithClock(importClock))
	jobs := []ImportedJob{{
		Company:     "Acme",
		Position:    "Engineer",
		AppliedAt:   time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		Status:      "offer",
		Location:    "Remote",
		SalaryRange: "$100k",
		Notes:       "referred by Sam",
	}}

	apps := imp.ToApplications(jobs)
	require.Len(t, apps, 1)
	app := apps[0]

	assert.NotEmpty(t, app.Key)
	assert.Equal(t, model.StatusAccepted, app.Status)
	assert.Equal(t, model.OriginFileImport, app.Origin)
	assert.Equal(t, importClock(), app.LastUpdated)
	assert.Equal(t,
		"Imported from file | Location: Remote | Salary: $100k | Original Notes: referred by Sam",
		app.Notes)
}

func TestToApplicationsKeyStableAcrossRuns(t *testing.T) {
	imp := New(WithClock(importClock))
	job := ImportedJob{Company: "Acme", Position: "Engineer", AppliedAt: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)}

	a := imp.ToApplications([]ImportedJob{job})[0]
	b := imp.ToApplications([]ImportedJob{job})[0]
	assert.Equal(t, a.Key, b.Key)
}

func TestImportedJobString(t *testing.T) {
	j := ImportedJob{Company: "Acme", Position: "Engineer"}
	assert.Equal(t, "Acme - Engineer", j.String())
}
