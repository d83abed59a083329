package ledger

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toofancoder/jobtrack/internal/model"
)

func tempLedger(t *testing.T) *CSVLedger {
	t.Helper()
	return NewCSVLedger(filepath.Join(t.TempDir(), "ledger.csv"))
}

func TestCSVReadMissingFile(t *testing.T) {
	l := tempLedger(t)
	rows, err := l.ReadAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestCSVAppendAndRead(t *testing.T) {
	l := tempLedger(t)
	ctx := context.Background()

	r := FromApplication(sampleApp())
	require.NoError(t, l.AppendRows(ctx, []Row{r}))

	rows, err := l.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, r, rows[0])
}

func TestCSVAppendWritesHeaderOnce(t *testing.T) {
	l := tempLedger(t)
	ctx := context.Background()

	require.NoError(t, l.AppendRows(ctx, []Row{{JobID: "k1"}}))
	require.NoError(t, l.AppendRows(ctx, []Row{{JobID: "k2"}}))

	data, err := os.ReadFile(l.Path())
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), model.ColJobID))

	rows, err := l.ReadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestCSVAppendEmptyBatch(t *testing.T) {
	l := tempLedger(t)
	require.NoError(t, l.AppendRows(context.Background(), nil))

	_, err := os.Stat(l.Path())
	assert.True(t, os.IsNotExist(err))
}

func TestCSVUpdateCell(t *testing.T) {
	l := tempLedger(t)
	ctx := context.Background()

	require.NoError(t, l.AppendRows(ctx, []Row{
		{JobID: "k1", Status: "Applied"},
		{JobID: "k2", Status: "Applied"},
	}))

	require.NoError(t, l.UpdateCell(ctx, "k1", model.ColStatus, "Interview"))
	require.NoError(t, l.UpdateCell(ctx, "k1", model.ColNotes, "updated"))

	rows, err := l.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Interview", rows[0].Status)
	assert.Equal(t, "updated", rows[0].Notes)
	assert.Equal(t, "Applied", rows[1].Status)
}

func TestCSVUpdateCellUnknownKey(t *testing.T) {
	l := tempLedger(t)
	ctx := context.Background()

	require.NoError(t, l.AppendRows(ctx, []Row{{JobID: "k1"}}))

	err := l.UpdateCell(ctx, "missing", model.ColStatus, "Interview")
	assert.ErrorContains(t, err, "no csv row with key")
}

func TestCSVUpdateCellUnknownColumn(t *testing.T) {
	l := tempLedger(t)
	ctx := context.Background()

	require.NoError(t, l.AppendRows(ctx, []Row{{JobID: "k1"}}))

	err := l.UpdateCell(ctx, "k1", "Bogus Column", "x")
	assert.ErrorContains(t, err, "unknown column")
}
