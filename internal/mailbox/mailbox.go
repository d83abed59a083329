// Package mailbox reads candidate messages from an inbox. The only
// implementation is Gmail; the Source interface exists so the scan
// pipeline can be driven by a fake in tests.
package mailbox

import (
	"context"
	"sort"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/toofancoder/jobtrack/internal/model"
)

const fetchConcurrency = 5

// Source lists, fetches, and marks inbox messages.
type Source interface {
	// List returns the IDs of messages matching the query, newest first.
	List(ctx context.Context, query string, maxResults int64) ([]string, error)
	// Fetch loads the full content of one message.
	Fetch(ctx context.Context, id string) (model.EmailMessage, error)
	// MarkProcessed tags a message so later scans can exclude it.
	MarkProcessed(ctx context.Context, id string) error
}

// FetchAll fetches messages concurrently, preserving the input ID order.
// Individual fetch failures are logged and skipped so one bad message
// cannot abort a scan.
func FetchAll(ctx context.Context, src Source, ids []string) ([]model.EmailMessage, error) {
	type indexed struct {
		idx int
		msg model.EmailMessage
	}

	var mu sync.Mutex
	var fetched []indexed

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)

	for i, id := range ids {
		g.Go(func() error {
			msg, err := src.Fetch(gctx, id)
			if err != nil {
				zap.L().Warn("failed to fetch message",
					zap.String("message_id", id),
					zap.Error(err))
				return nil
			}
			mu.Lock()
			fetched = append(fetched, indexed{idx: i, msg: msg})
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "mailbox: fetch batch")
	}

	sort.Slice(fetched, func(a, b int) bool { return fetched[a].idx < fetched[b].idx })

	msgs := make([]model.EmailMessage, len(fetched))
	for i, f := range fetched {
		msgs[i] = f.msg
	}
	return msgs, nil
}
