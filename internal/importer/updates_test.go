package importer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toofancoder/jobtrack/internal/extract"
	"github.com/toofancoder/jobtrack/internal/model"
	"github.com/toofancoder/jobtrack/internal/semantic"
)

type fakeSemantic struct {
	details *semantic.Details
	err     error
}

func (f *fakeSemantic) Extract(context.Context, model.EmailMessage) (*semantic.Details, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.details, nil
}

func acmeJob() ImportedJob {
	return ImportedJob{Company: "Acme", Position: "Software Engineer"}
}

func TestMessageMatches(t *testing.T) {
	job := acmeJob()

	assert.True(t, messageMatches(job, model.EmailMessage{
		From:    "noreply@acme.com",
		Subject: "Update on your Software Engineer application",
	}))

	// Single position word is enough.
	assert.True(t, messageMatches(job, model.EmailMessage{
		Subject: "Acme hiring",
		Body:    "the engineer role has moved forward",
	}))

	// Company mentioned but a different position.
	assert.False(t, messageMatches(job, model.EmailMessage{
		From:    "noreply@acme.com",
		Subject: "Your Accountant application",
	}))

	// Position mentioned but no company signal.
	assert.False(t, messageMatches(job, model.EmailMessage{
		From:    "noreply@other.com",
		Subject: "Software Engineer opportunities",
	}))
}

func TestSearchKeywordClassification(t *testing.T) {
	s := NewUpdateSearcher(extract.DefaultConfig(), nil)

	msgs := []model.EmailMessage{
		{ID: "m1", From: "jobs@acme.com", Subject: "Software Engineer interview", Body: "please schedule"},
		{ID: "m2", From: "jobs@other.com", Subject: "unrelated"},
	}

	hits := s.Search(context.Background(), []ImportedJob{acmeJob()}, msgs)
	require.Len(t, hits, 1)
	assert.Equal(t, "m1", hits[0].Message.ID)
	assert.Equal(t, model.StatusInterview, hits[0].Status)
	assert.Equal(t, "Basic keyword parsing used", hits[0].Note)
}

func TestSearchSemanticPreferred(t *testing.T) {
	sem := &fakeSemantic{details: &semantic.Details{Status: "rejected", Notes: "form rejection"}}
	s := NewUpdateSearcher(extract.DefaultConfig(), sem)

	msgs := []model.EmailMessage{
		{ID: "m1", From: "jobs@acme.com", Subject: "Software Engineer interview"},
	}

	hits := s.Search(context.Background(), []ImportedJob{acmeJob()}, msgs)
	require.Len(t, hits, 1)
	assert.Equal(t, model.StatusRejected, hits[0].Status)
	assert.Equal(t, "form rejection", hits[0].Note)
}

func TestSearchSemanticErrorFallsBack(t *testing.T) {
	sem := &fakeSemantic{err: errors.New("api down")}
	s := NewUpdateSearcher(extract.DefaultConfig(), sem)

	msgs := []model.EmailMessage{
		{ID: "m1", From: "jobs@acme.com", Subject: "Software Engineer interview"},
	}

	hits := s.Search(context.Background(), []ImportedJob{acmeJob()}, msgs)
	require.Len(t, hits, 1)
	assert.Equal(t, model.StatusInterview, hits[0].Status)
	assert.Equal(t, "Basic keyword parsing used", hits[0].Note)
}

func TestSearchKeepsDuplicateJobsDistinct(t *testing.T) {
	s := NewUpdateSearcher(extract.DefaultConfig(), nil)

	// Same company and position imported twice, differing only by date.
	jobs := []ImportedJob{acmeJob(), acmeJob()}
	msgs := []model.EmailMessage{
		{ID: "m1", From: "jobs@acme.com", Subject: "Software Engineer interview"},
	}

	hits := s.Search(context.Background(), jobs, msgs)
	require.Len(t, hits, 2)
	assert.Equal(t, 0, hits[0].JobIndex)
	assert.Equal(t, 1, hits[1].JobIndex)
}

func TestSearchNoJobs(t *testing.T) {
	s := NewUpdateSearcher(extract.DefaultConfig(), nil)
	hits := s.Search(context.Background(), nil, []model.EmailMessage{{ID: "m1"}})
	assert.Empty(t, hits)
}
