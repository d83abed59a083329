package ledger

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/jomei/notionapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toofancoder/jobtrack/internal/model"
)

// fakeNotion holds pages in memory and records updates.
type fakeNotion struct {
	mu      sync.Mutex
	pages   []notionapi.Page
	created int
	updates map[string]notionapi.Properties // pageID -> last update
}

func newFakeNotion(rows ...Row) *fakeNotion {
	f := &fakeNotion{updates: make(map[string]notionapi.Properties)}
	for _, r := range rows {
		f.addPage(r)
	}
	return f
}

func (f *fakeNotion) addPage(r Row) notionapi.Page {
	cells := r.Values()
	props := make(notionapi.Properties, len(model.Columns))
	for i, col := range model.Columns {
		rt := []notionapi.RichText{{PlainText: cells[i]}}
		switch col {
		case model.ColJobID:
			props[col] = &notionapi.TitleProperty{Title: rt}
		case model.ColStatus:
			props[col] = &notionapi.SelectProperty{Select: notionapi.Option{Name: cells[i]}}
		default:
			props[col] = &notionapi.RichTextProperty{RichText: rt}
		}
	}
	page := notionapi.Page{
		ID:         notionapi.ObjectID(fmt.Sprintf("page-%d", len(f.pages)+1)),
		Properties: props,
	}
	f.pages = append(f.pages, page)
	return page
}

func (f *fakeNotion) QueryDatabase(context.Context, string, *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &notionapi.DatabaseQueryResponse{Results: f.pages}, nil
}

func (f *fakeNotion) CreatePage(_ context.Context, req *notionapi.PageCreateRequest) (*notionapi.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created++
	page := notionapi.Page{
		ID:         notionapi.ObjectID(fmt.Sprintf("page-%d", len(f.pages)+1)),
		Properties: req.Properties,
	}
	f.pages = append(f.pages, page)
	return &page, nil
}

func (f *fakeNotion) UpdatePage(_ context.Context, pageID string, req *notionapi.PageUpdateRequest) (*notionapi.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates[pageID] = req.Properties
	return &notionapi.Page{ID: notionapi.ObjectID(pageID)}, nil
}

func TestNotionReadAll(t *testing.T) {
	client := newFakeNotion(
		Row{JobID: "k1", Company: "Acme", Status: "Applied"},
		Row{JobID: "", Company: "keyless"},
		Row{JobID: "k2", Company: "Beta", Status: "Interview"},
	)
	l := NewNotionLedger(client, "db-1")

	rows, err := l.ReadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2) // keyless page skipped
	assert.Equal(t, "Acme", rows[0].Company)
	assert.Equal(t, "Interview", rows[1].Status)
}

func TestNotionAppendRows(t *testing.T) {
	client := newFakeNotion()
	l := NewNotionLedger(client, "db-1")

	err := l.AppendRows(context.Background(), []Row{
		FromApplication(sampleApp()),
		{JobID: "k2"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, client.created)
}

func TestNotionUpdateCell(t *testing.T) {
	client := newFakeNotion(Row{JobID: "k1", Status: "Applied"})
	l := NewNotionLedger(client, "db-1")

	// Cache is cold: the key resolves through a ReadAll refresh.
	err := l.UpdateCell(context.Background(), "k1", model.ColStatus, "Interview")
	require.NoError(t, err)

	props := client.updates["page-1"]
	require.NotNil(t, props)
	sel, ok := props[model.ColStatus].(*notionapi.SelectProperty)
	require.True(t, ok)
	assert.Equal(t, "Interview", sel.Select.Name)
}

func TestNotionConcurrentReadAndUpdate(t *testing.T) {
	client := newFakeNotion(
		Row{JobID: "k1", Status: "Applied"},
		Row{JobID: "k2", Status: "Applied"},
	)
	l := NewNotionLedger(client, "db-1")

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				_, err := l.ReadAll(context.Background())
				assert.NoError(t, err)
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for j := 0; j < 10; j++ {
			assert.NoError(t, l.UpdateCell(context.Background(), "k1", model.ColStatus, "Interview"))
		}
	}()
	wg.Wait()

	assert.NotNil(t, client.updates["page-1"])
}

func TestNotionUpdateCellUnknownKey(t *testing.T) {
	l := NewNotionLedger(newFakeNotion(), "db-1")

	err := l.UpdateCell(context.Background(), "missing", model.ColStatus, "Interview")
	assert.ErrorContains(t, err, "no notion page")
}

func TestNotionUpdateCellUnknownColumn(t *testing.T) {
	l := NewNotionLedger(newFakeNotion(), "db-1")

	err := l.UpdateCell(context.Background(), "k1", "Bogus", "x")
	assert.ErrorContains(t, err, "unknown column")
}
