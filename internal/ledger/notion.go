package ledger

import (
	"context"
	"sync"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/toofancoder/jobtrack/internal/model"
	"github.com/toofancoder/jobtrack/pkg/notion"
)

// NotionLedger stores rows as pages in a Notion database. The database
// properties mirror the column schema: "Job ID" is the title property,
// "Status" is a select, everything else is rich text.
type NotionLedger struct {
	client notion.Client
	dbID   string

	// pageIndex maps record key to Notion page ID, populated by ReadAll
	// and extended by AppendRows. Guarded by mu: the serve command shares
	// one ledger between request handlers and background sync passes.
	mu        sync.RWMutex
	pageIndex map[string]string
}

// NewNotionLedger creates a ledger over a Notion database.
func NewNotionLedger(client notion.Client, dbID string) *NotionLedger {
	return &NotionLedger{
		client:    client,
		dbID:      dbID,
		pageIndex: make(map[string]string),
	}
}

// ReadAll queries every page and refreshes the key-to-page cache.
func (l *NotionLedger) ReadAll(ctx context.Context) ([]Row, error) {
	pages, err := notion.QueryAll(ctx, l.client, l.dbID, nil)
	if err != nil {
		return nil, eris.Wrapf(err, "ledger: read notion database %s", l.dbID)
	}

	rows := make([]Row, 0, len(pages))
	index := make(map[string]string, len(pages))
	for _, p := range pages {
		r := rowFromPage(p)
		if r.JobID == "" {
			zap.L().Warn("skipping notion page without job id",
				zap.String("page_id", string(p.ID)))
			continue
		}
		rows = append(rows, r)
		index[r.JobID] = string(p.ID)
	}

	l.mu.Lock()
	l.pageIndex = index
	l.mu.Unlock()
	return rows, nil
}

func (l *NotionLedger) lookupPage(key string) (string, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	pageID, ok := l.pageIndex[key]
	return pageID, ok
}

// AppendRows creates one page per row.
func (l *NotionLedger) AppendRows(ctx context.Context, rows []Row) error {
	for _, r := range rows {
		cells := r.Values()
		props := make(notionapi.Properties, len(model.Columns))
		for i, col := range model.Columns {
			props[col] = propertyFor(col, cells[i])
		}

		page, err := l.client.CreatePage(ctx, &notionapi.PageCreateRequest{
			Parent: notionapi.Parent{
				Type:       notionapi.ParentTypeDatabaseID,
				DatabaseID: notionapi.DatabaseID(l.dbID),
			},
			Properties: props,
		})
		if err != nil {
			return eris.Wrapf(err, "ledger: create notion page for %s", r.JobID)
		}
		l.mu.Lock()
		l.pageIndex[r.JobID] = string(page.ID)
		l.mu.Unlock()
	}
	return nil
}

// UpdateCell sets a single property on the page for the given key. The
// key-to-page cache is refreshed on a miss.
func (l *NotionLedger) UpdateCell(ctx context.Context, key, column, value string) error {
	if model.ColumnIndex(column) < 0 {
		return eris.Errorf("ledger: unknown column %q", column)
	}

	pageID, ok := l.lookupPage(key)
	if !ok {
		if _, err := l.ReadAll(ctx); err != nil {
			return err
		}
		if pageID, ok = l.lookupPage(key); !ok {
			return eris.Errorf("ledger: no notion page with key %s", key)
		}
	}

	_, err := l.client.UpdatePage(ctx, pageID, &notionapi.PageUpdateRequest{
		Properties: notionapi.Properties{
			column: propertyFor(column, value),
		},
	})
	if err != nil {
		return eris.Wrapf(err, "ledger: update notion page %s", pageID)
	}
	return nil
}

// propertyFor builds the Notion property for a column value.
func propertyFor(column, value string) notionapi.Property {
	switch column {
	case model.ColJobID:
		return &notionapi.TitleProperty{
			Title: []notionapi.RichText{{Text: &notionapi.Text{Content: value}}},
		}
	case model.ColStatus:
		return &notionapi.SelectProperty{
			Select: notionapi.Option{Name: value},
		}
	default:
		return &notionapi.RichTextProperty{
			RichText: []notionapi.RichText{{Text: &notionapi.Text{Content: value}}},
		}
	}
}

// rowFromPage reads the column properties back out of a page.
func rowFromPage(p notionapi.Page) Row {
	cells := make([]string, len(model.Columns))
	for i, col := range model.Columns {
		prop, ok := p.Properties[col]
		if !ok {
			continue
		}
		switch tp := prop.(type) {
		case *notionapi.TitleProperty:
			cells[i] = plainText(tp.Title)
		case *notionapi.RichTextProperty:
			cells[i] = plainText(tp.RichText)
		case *notionapi.SelectProperty:
			cells[i] = tp.Select.Name
		}
	}
	return rowFromValues(cells)
}

func plainText(rts []notionapi.RichText) string {
	var out string
	for _, rt := range rts {
		out += rt.PlainText
	}
	return out
}
