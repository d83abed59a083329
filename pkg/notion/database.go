package notion

import (
	"context"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
)

// QueryAll fetches every page of a database query. While one page of
// results is being consumed the next is already being fetched.
func QueryAll(ctx context.Context, c Client, dbID string, filter *notionapi.DatabaseQueryRequest) ([]notionapi.Page, error) {
	type fetched struct {
		resp *notionapi.DatabaseQueryResponse
		err  error
	}

	newRequest := func(cursor notionapi.Cursor) *notionapi.DatabaseQueryRequest {
		req := &notionapi.DatabaseQueryRequest{StartCursor: cursor}
		if filter != nil {
			req.Filter = filter.Filter
			req.Sorts = filter.Sorts
			req.PageSize = filter.PageSize
		}
		return req
	}

	var all []notionapi.Page
	var pending <-chan fetched

	for {
		var resp *notionapi.DatabaseQueryResponse
		var err error
		if pending != nil {
			next := <-pending
			resp, err = next.resp, next.err
		} else {
			resp, err = c.QueryDatabase(ctx, dbID, newRequest(""))
		}
		if err != nil {
			return nil, eris.Wrap(err, "notion: query all page")
		}

		all = append(all, resp.Results...)
		if !resp.HasMore {
			return all, nil
		}

		req := newRequest(resp.NextCursor)
		ch := make(chan fetched, 1)
		pending = ch
		go func() {
			r, e := c.QueryDatabase(ctx, dbID, req)
			ch <- fetched{resp: r, err: e}
		}()
	}
}
