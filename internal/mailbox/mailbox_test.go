package mailbox

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toofancoder/jobtrack/internal/model"
)

type fakeSource struct {
	mu      sync.Mutex
	msgs    map[string]model.EmailMessage
	failIDs map[string]bool
	fetched []string
}

func (f *fakeSource) List(context.Context, string, int64) ([]string, error) { return nil, nil }

func (f *fakeSource) Fetch(_ context.Context, id string) (model.EmailMessage, error) {
	f.mu.Lock()
	f.fetched = append(f.fetched, id)
	f.mu.Unlock()
	if f.failIDs[id] {
		return model.EmailMessage{}, errors.New("not found")
	}
	return f.msgs[id], nil
}

func (f *fakeSource) MarkProcessed(context.Context, string) error { return nil }

func TestFetchAllPreservesOrder(t *testing.T) {
	src := &fakeSource{msgs: map[string]model.EmailMessage{
		"a": {ID: "a", Subject: "first"},
		"b": {ID: "b", Subject: "second"},
		"c": {ID: "c", Subject: "third"},
	}}

	msgs, err := FetchAll(context.Background(), src, []string{"a", "b", "c"})
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "a", msgs[0].ID)
	assert.Equal(t, "b", msgs[1].ID)
	assert.Equal(t, "c", msgs[2].ID)
}

func TestFetchAllSkipsFailures(t *testing.T) {
	src := &fakeSource{
		msgs: map[string]model.EmailMessage{
			"a": {ID: "a"},
			"c": {ID: "c"},
		},
		failIDs: map[string]bool{"b": true},
	}

	msgs, err := FetchAll(context.Background(), src, []string{"a", "b", "c"})
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "a", msgs[0].ID)
	assert.Equal(t, "c", msgs[1].ID)
	assert.Len(t, src.fetched, 3)
}

func TestFetchAllEmpty(t *testing.T) {
	msgs, err := FetchAll(context.Background(), &fakeSource{}, nil)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}
