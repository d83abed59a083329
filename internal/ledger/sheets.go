package ledger

import (
	"context"
	"fmt"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	sheets "google.golang.org/api/sheets/v4"

	"github.com/toofancoder/jobtrack/internal/model"
	"github.com/toofancoder/jobtrack/internal/resilience"
)

// SheetsAPI is the narrow slice of the Sheets API the ledger needs.
// *sheets.Service is adapted to it by NewSheetsLedger; tests substitute
// a fake.
type SheetsAPI interface {
	Get(ctx context.Context, spreadsheetID, readRange string) (*sheets.ValueRange, error)
	Append(ctx context.Context, spreadsheetID, writeRange string, vr *sheets.ValueRange) error
	Update(ctx context.Context, spreadsheetID, writeRange string, vr *sheets.ValueRange) error
}

// SheetsLedger stores rows in a Google Sheets spreadsheet. Row 1 is the
// header; data rows start at row 2.
type SheetsLedger struct {
	raw           SheetsAPI
	spreadsheetID string
	sheetName     string
	limiter       *rate.Limiter
	retry         resilience.Policy

	// rowIndex maps record key to its 1-based sheet row, populated by
	// ReadAll. When the sheet holds duplicate keys the last row wins.
	// Guarded by mu: the serve command shares one ledger between request
	// handlers and background sync passes.
	mu       sync.RWMutex
	rowIndex map[string]int
}

// NewSheetsLedger creates a ledger over a spreadsheet tab. Calls are
// throttled to stay inside the per-minute write quota.
func NewSheetsLedger(api SheetsAPI, spreadsheetID, sheetName string) *SheetsLedger {
	if sheetName == "" {
		sheetName = "Sheet1"
	}
	return &SheetsLedger{
		raw:           api,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
		limiter:       rate.NewLimiter(1, 4),
		retry:         resilience.GoogleAPIPolicy(),
		rowIndex:      make(map[string]int),
	}
}

// ReadAll loads every data row and refreshes the key-to-row cache. An
// empty sheet gets the header written so later appends line up.
func (l *SheetsLedger) ReadAll(ctx context.Context) ([]Row, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "ledger: sheets rate limit")
	}

	readRange := fmt.Sprintf("%s!A1:%c", l.sheetName, columnLetter(len(model.Columns)-1))
	vr, err := resilience.Do(ctx, l.retry, "sheets.values.get",
		func(ctx context.Context) (*sheets.ValueRange, error) {
			return l.raw.Get(ctx, l.spreadsheetID, readRange)
		})
	if err != nil {
		return nil, eris.Wrapf(err, "ledger: read sheet %s", l.spreadsheetID)
	}

	if len(vr.Values) == 0 {
		if err := l.writeHeader(ctx); err != nil {
			return nil, err
		}
		return nil, nil
	}

	rows := make([]Row, 0, len(vr.Values)-1)
	index := make(map[string]int, len(vr.Values)-1)
	for i, raw := range vr.Values[1:] {
		cells := make([]string, len(raw))
		for j, v := range raw {
			cells[j] = fmt.Sprint(v)
		}
		r := rowFromValues(cells)
		rows = append(rows, r)
		if r.JobID != "" {
			index[r.JobID] = i + 2 // +1 for header, +1 for 1-based rows
		}
	}

	l.mu.Lock()
	l.rowIndex = index
	l.mu.Unlock()
	return rows, nil
}

func (l *SheetsLedger) lookupRow(key string) (int, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	rowNum, ok := l.rowIndex[key]
	return rowNum, ok
}

// AppendRows appends rows after the current data.
func (l *SheetsLedger) AppendRows(ctx context.Context, rows []Row) error {
	if len(rows) == 0 {
		return nil
	}
	if err := l.limiter.Wait(ctx); err != nil {
		return eris.Wrap(err, "ledger: sheets rate limit")
	}

	values := make([][]any, len(rows))
	for i, r := range rows {
		cells := r.Values()
		row := make([]any, len(cells))
		for j, c := range cells {
			row[j] = c
		}
		values[i] = row
	}

	writeRange := l.sheetName + "!A1"
	err := resilience.Run(ctx, l.retry, "sheets.values.append",
		func(ctx context.Context) error {
			return l.raw.Append(ctx, l.spreadsheetID, writeRange, &sheets.ValueRange{Values: values})
		})
	if err != nil {
		return eris.Wrapf(err, "ledger: append to sheet %s", l.spreadsheetID)
	}

	zap.L().Debug("appended rows to sheet",
		zap.String("spreadsheet_id", l.spreadsheetID),
		zap.Int("rows", len(rows)))
	return nil
}

// UpdateCell writes a single cell addressed by record key and column
// name. The key-to-row cache is refreshed on a miss.
func (l *SheetsLedger) UpdateCell(ctx context.Context, key, column, value string) error {
	colIdx := model.ColumnIndex(column)
	if colIdx < 0 {
		return eris.Errorf("ledger: unknown column %q", column)
	}

	rowNum, ok := l.lookupRow(key)
	if !ok {
		if _, err := l.ReadAll(ctx); err != nil {
			return err
		}
		if rowNum, ok = l.lookupRow(key); !ok {
			return eris.Errorf("ledger: no sheet row with key %s", key)
		}
	}

	if err := l.limiter.Wait(ctx); err != nil {
		return eris.Wrap(err, "ledger: sheets rate limit")
	}

	cellRange := fmt.Sprintf("%s!%c%d", l.sheetName, columnLetter(colIdx), rowNum)
	err := resilience.Run(ctx, l.retry, "sheets.values.update",
		func(ctx context.Context) error {
			return l.raw.Update(ctx, l.spreadsheetID, cellRange, &sheets.ValueRange{
				Values: [][]any{{value}},
			})
		})
	if err != nil {
		return eris.Wrapf(err, "ledger: update cell %s", cellRange)
	}
	return nil
}

func (l *SheetsLedger) writeHeader(ctx context.Context) error {
	if err := l.limiter.Wait(ctx); err != nil {
		return eris.Wrap(err, "ledger: sheets rate limit")
	}

	header := make([]any, len(model.Columns))
	for i, c := range model.Columns {
		header[i] = c
	}
	err := l.raw.Update(ctx, l.spreadsheetID, l.sheetName+"!A1", &sheets.ValueRange{
		Values: [][]any{header},
	})
	if err != nil {
		return eris.Wrapf(err, "ledger: write header %s", l.spreadsheetID)
	}
	return nil
}

// columnLetter maps a zero-based column index to its A1 letter. The row
// schema stays within a single letter.
func columnLetter(idx int) byte {
	return byte('A' + idx)
}

// sheetsService adapts *sheets.Service to SheetsAPI.
type sheetsService struct {
	svc *sheets.Service
}

// NewSheetsAPI wraps a Sheets service for use with NewSheetsLedger.
func NewSheetsAPI(svc *sheets.Service) SheetsAPI {
	return &sheetsService{svc: svc}
}

func (s *sheetsService) Get(ctx context.Context, spreadsheetID, readRange string) (*sheets.ValueRange, error) {
	return s.svc.Spreadsheets.Values.Get(spreadsheetID, readRange).Context(ctx).Do()
}

func (s *sheetsService) Append(ctx context.Context, spreadsheetID, writeRange string, vr *sheets.ValueRange) error {
	_, err := s.svc.Spreadsheets.Values.Append(spreadsheetID, writeRange, vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	return err
}

func (s *sheetsService) Update(ctx context.Context, spreadsheetID, writeRange string, vr *sheets.ValueRange) error {
	_, err := s.svc.Spreadsheets.Values.Update(spreadsheetID, writeRange, vr).
		ValueInputOption("RAW").
		Context(ctx).Do()
	return err
}
