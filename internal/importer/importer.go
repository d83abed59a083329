// Package importer loads application records in bulk from spreadsheet
// files. Column headers are matched fuzzily against known synonyms so
// exports from different trackers import without manual remapping.
package importer

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/toofancoder/jobtrack/internal/identity"
	"github.com/toofancoder/jobtrack/internal/model"
)

// ImportedJob is one row of an import file after column mapping. Optional
// fields are empty when the file had no matching column.
type ImportedJob struct {
	Company         string
	Position        string
	AppliedAt       time.Time
	Status          string
	Location        string
	JobType         string
	ExperienceLevel string
	Department      string
	SalaryRange     string
	Notes           string
}

// fieldSynonyms maps each logical field to the header names that carry
// it, in preference order. Matching is case-insensitive.
var fieldSynonyms = map[string][]string{
	"company":          {"company", "company_name", "employer", "organization"},
	"position":         {"position", "job_title", "role", "title", "job_position"},
	"application_date": {"application_date", "applied_date", "date_applied", "date"},
	"status":           {"status", "application_status", "current_status"},
	"location":         {"location", "job_location", "city", "state"},
	"job_type":         {"job_type", "employment_type", "type", "full_time"},
	"experience_level": {"experience_level", "level", "seniority", "seniority_level"},
	"department":       {"department", "team", "division"},
	"salary_range":     {"salary_range", "salary", "compensation"},
	"notes":            {"notes", "comments", "description", "details"},
}

// Importer reads import files into records.
type Importer struct {
	now func() time.Time
}

// Option configures an Importer.
type Option func(*Importer)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(i *Importer) { i.now = now }
}

// New creates an importer.
func New(opts ...Option) *Importer {
	i := &Importer{now: time.Now}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Read loads a file by extension: .xlsx and .xls are read as workbooks,
// .csv as comma-separated text. sheetName selects a workbook sheet and is
// ignored for CSV.
func (i *Importer) Read(path, sheetName string) ([]ImportedJob, error) {
	var header []string
	var rows [][]string
	var err error

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".xlsx", ".xls":
		header, rows, err = readXLSX(path, sheetName)
	case ".csv":
		header, rows, err = readCSV(path)
	default:
		return nil, eris.Errorf("importer: unsupported file type %q", ext)
	}
	if err != nil {
		return nil, err
	}

	cols := mapHeader(header)
	zap.L().Debug("mapped import columns",
		zap.String("path", path),
		zap.Int("fields", len(cols)),
		zap.Int("rows", len(rows)))

	jobs := make([]ImportedJob, 0, len(rows))
	for _, cells := range rows {
		if emptyRow(cells) {
			continue
		}
		jobs = append(jobs, i.jobFromRow(cols, cells))
	}
	return jobs, nil
}

// mapHeader resolves each logical field to a column index. The first
// synonym present in the header wins.
func mapHeader(header []string) map[string]int {
	byName := make(map[string]int, len(header))
	for idx, h := range header {
		byName[strings.ToLower(strings.TrimSpace(h))] = idx
	}

	cols := make(map[string]int)
	for field, names := range fieldSynonyms {
		for _, name := range names {
			if idx, ok := byName[name]; ok {
				cols[field] = idx
				break
			}
		}
	}
	return cols
}

func (i *Importer) jobFromRow(cols map[string]int, cells []string) ImportedJob {
	get := func(field, fallback string) string {
		idx, ok := cols[field]
		if !ok || idx >= len(cells) {
			return fallback
		}
		if v := strings.TrimSpace(cells[idx]); v != "" {
			return v
		}
		return fallback
	}

	return ImportedJob{
		Company:         get("company", model.UnknownCompany),
		Position:        get("position", model.UnknownPosition),
		AppliedAt:       i.normalizeDate(get("application_date", "")),
		Status:          get("status", string(model.StatusApplied)),
		Location:        get("location", ""),
		JobType:         get("job_type", ""),
		ExperienceLevel: get("experience_level", ""),
		Department:      get("department", ""),
		SalaryRange:     get("salary_range", ""),
		Notes:           get("notes", ""),
	}
}

// dateLayouts are tried in order for non-slash dates.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"Jan 2, 2006",
	"January 2, 2006",
	"2-Jan-2006",
}

// normalizeDate parses common spreadsheet date formats. Slash dates are
// disambiguated by the first component: values above 12 mean day-first.
// Unparseable input falls back to the current time.
func (i *Importer) normalizeDate(value string) time.Time {
	if value == "" {
		return i.now()
	}

	if strings.Contains(value, "/") {
		parts := strings.Split(value, "/")
		if len(parts) == 3 {
			layout := "1/2/2006"
			if first := strings.TrimSpace(parts[0]); len(first) > 0 && atoiSafe(first) > 12 {
				layout = "2/1/2006"
			}
			if t, err := time.Parse(layout, value); err == nil {
				return t
			}
		}
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}

	zap.L().Warn("unparseable import date, using current time",
		zap.String("value", value))
	return i.now()
}

func atoiSafe(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int(r-'0')
	}
	return n
}

func emptyRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// ToApplications converts imported jobs into candidate records. The key
// derivation uses an empty subject, matching how inbox records for the
// same company and position would hash without differentiating keywords.
func (i *Importer) ToApplications(jobs []ImportedJob) []model.Application {
	now := i.now()

	apps := make([]model.Application, len(jobs))
	for idx, job := range jobs {
		notes := []string{"Imported from file"}
		for _, f := range []struct{ label, value string }{
			{"Location", job.Location},
			{"Type", job.JobType},
			{"Level", job.ExperienceLevel},
			{"Dept", job.Department},
			{"Salary", job.SalaryRange},
		} {
			if f.value != "" {
				notes = append(notes, f.label+": "+f.value)
			}
		}
		if job.Notes != "" {
			notes = append(notes, "Original Notes: "+job.Notes)
		}

		apps[idx] = model.Application{
			Key:         identity.Key(job.Company, job.Position, "", job.AppliedAt.Format(time.RFC3339)),
			Company:     job.Company,
			Position:    job.Position,
			AppliedAt:   job.AppliedAt,
			Status:      model.ParseStatus(job.Status),
			Origin:      model.OriginFileImport,
			Notes:       strings.Join(notes, " | "),
			LastUpdated: now,
		}
	}
	return apps
}

// String describes a job for log and report lines.
func (j ImportedJob) String() string {
	return fmt.Sprintf("%s - %s", j.Company, j.Position)
}
