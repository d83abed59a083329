package ledger

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/toofancoder/jobtrack/internal/model"
)

// CSVLedger stores rows in a local CSV file. It doubles as the fail-over
// target when a remote backend rejects an append.
type CSVLedger struct {
	path string
}

// NewCSVLedger creates a ledger over the given file path. The file is
// created lazily on first append.
func NewCSVLedger(path string) *CSVLedger {
	return &CSVLedger{path: path}
}

// Path returns the backing file path.
func (l *CSVLedger) Path() string { return l.path }

// ReadAll loads every row. A missing file is an empty ledger, not an error.
func (l *CSVLedger) ReadAll(_ context.Context) ([]Row, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "ledger: read csv %s", l.path)
	}
	if len(data) == 0 {
		return nil, nil
	}

	var rows []Row
	if err := csvutil.Unmarshal(data, &rows); err != nil {
		return nil, eris.Wrapf(err, "ledger: parse csv %s", l.path)
	}
	return rows, nil
}

// AppendRows appends rows to the file, writing the header first when the
// file is new or empty.
func (l *CSVLedger) AppendRows(_ context.Context, rows []Row) error {
	if len(rows) == 0 {
		return nil
	}

	info, err := os.Stat(l.path)
	needHeader := os.IsNotExist(err) || (err == nil && info.Size() == 0)
	if err != nil && !os.IsNotExist(err) {
		return eris.Wrapf(err, "ledger: stat csv %s", l.path)
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return eris.Wrapf(err, "ledger: open csv %s", l.path)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	enc := csvutil.NewEncoder(w)
	enc.AutoHeader = needHeader

	for _, r := range rows {
		if err := enc.Encode(r); err != nil {
			return eris.Wrapf(err, "ledger: append csv %s", l.path)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return eris.Wrapf(err, "ledger: flush csv %s", l.path)
	}

	zap.L().Debug("appended rows to csv ledger",
		zap.String("path", l.path),
		zap.Int("rows", len(rows)))
	return nil
}

// UpdateCell rewrites the file with the addressed cell changed. The write
// goes through a temp file and rename so a crash cannot truncate the
// ledger.
func (l *CSVLedger) UpdateCell(ctx context.Context, key, column, value string) error {
	rows, err := l.ReadAll(ctx)
	if err != nil {
		return err
	}

	updated := false
	for i := range rows {
		if rows[i].JobID != key {
			continue
		}
		if err := setCell(&rows[i], column, value); err != nil {
			return err
		}
		updated = true
	}
	if !updated {
		return eris.Errorf("ledger: no csv row with key %s", key)
	}

	data, err := csvutil.Marshal(rows)
	if err != nil {
		return eris.Wrapf(err, "ledger: marshal csv %s", l.path)
	}

	tmp, err := os.CreateTemp(filepath.Dir(l.path), ".ledger-*.csv")
	if err != nil {
		return eris.Wrap(err, "ledger: create temp csv")
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return eris.Wrap(err, "ledger: write temp csv")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return eris.Wrap(err, "ledger: close temp csv")
	}
	if err := os.Rename(tmpPath, l.path); err != nil {
		os.Remove(tmpPath)
		return eris.Wrapf(err, "ledger: replace csv %s", l.path)
	}
	return nil
}

// setCell writes a value into the named column of a row.
func setCell(r *Row, column, value string) error {
	switch column {
	case model.ColJobID:
		r.JobID = value
	case model.ColCompany:
		r.Company = value
	case model.ColPosition:
		r.Position = value
	case model.ColAppliedAt:
		r.AppliedAt = value
	case model.ColStatus:
		r.Status = value
	case model.ColSourceID:
		r.SourceID = value
	case model.ColSourceDate:
		r.SourceDate = value
	case model.ColOrigin:
		r.Origin = value
	case model.ColNotes:
		r.Notes = value
	case model.ColLastUpdated:
		r.LastUpdated = value
	default:
		return eris.Errorf("ledger: unknown column %q", column)
	}
	return nil
}
