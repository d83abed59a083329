package importer

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/toofancoder/jobtrack/internal/extract"
	"github.com/toofancoder/jobtrack/internal/model"
	"github.com/toofancoder/jobtrack/internal/semantic"
)

// StatusHit is an inbox message that appears to update an imported job.
// JobIndex is the job's position in the searched slice, so duplicate
// company and position rows stay distinguishable.
type StatusHit struct {
	Job      ImportedJob
	JobIndex int
	Message  model.EmailMessage
	Status   model.Status
	Note     string
}

// UpdateSearcher scans fetched inbox messages for status changes to
// imported jobs. Classification prefers the semantic extractor when one
// is configured and falls back to keyword rules.
type UpdateSearcher struct {
	classifier *extract.Classifier
	sem        semantic.Extractor
}

// NewUpdateSearcher creates a searcher. sem may be nil.
func NewUpdateSearcher(cfg extract.Config, sem semantic.Extractor) *UpdateSearcher {
	return &UpdateSearcher{
		classifier: extract.NewClassifier(cfg),
		sem:        sem,
	}
}

// Search pairs each job with its matching messages and classifies them.
// Message order within a job follows the input slice, so with a
// newest-first listing the first hit per job is the freshest.
func (s *UpdateSearcher) Search(ctx context.Context, jobs []ImportedJob, msgs []model.EmailMessage) []StatusHit {
	var hits []StatusHit
	for i, job := range jobs {
		for _, msg := range msgs {
			if !messageMatches(job, msg) {
				continue
			}
			status, note := s.classify(ctx, msg)
			hits = append(hits, StatusHit{
				Job:      job,
				JobIndex: i,
				Message:  msg,
				Status:   status,
				Note:     note,
			})
		}
	}

	zap.L().Debug("searched messages for status updates",
		zap.Int("jobs", len(jobs)),
		zap.Int("messages", len(msgs)),
		zap.Int("hits", len(hits)))
	return hits
}

func (s *UpdateSearcher) classify(ctx context.Context, msg model.EmailMessage) (model.Status, string) {
	if s.sem != nil {
		details, err := s.sem.Extract(ctx, msg)
		if err == nil && strings.TrimSpace(details.Status) != "" {
			return model.ParseStatus(details.Status), details.Notes
		}
		if err != nil {
			zap.L().Debug("semantic classification failed, using keywords",
				zap.String("message_id", msg.ID),
				zap.Error(err))
		}
	}
	return s.classifier.Classify(msg.Subject, msg.Body), "Basic keyword parsing used"
}

// messageMatches reports whether a message plausibly concerns the job:
// any company term appears in the subject, body, or sender, and any
// position term appears in the subject or body.
func messageMatches(job ImportedJob, msg model.EmailMessage) bool {
	subject := strings.ToLower(msg.Subject)
	body := strings.ToLower(msg.Body)
	from := strings.ToLower(msg.From)

	companyTerms := searchTerms(job.Company)
	positionTerms := searchTerms(job.Position)

	companyHit := false
	for _, t := range companyTerms {
		if strings.Contains(subject, t) || strings.Contains(body, t) || strings.Contains(from, t) {
			companyHit = true
			break
		}
	}
	if !companyHit {
		return false
	}

	for _, t := range positionTerms {
		if strings.Contains(subject, t) || strings.Contains(body, t) {
			return true
		}
	}
	return false
}

// searchTerms returns the lowered full value plus its individual words.
func searchTerms(value string) []string {
	lower := strings.ToLower(strings.TrimSpace(value))
	if lower == "" {
		return nil
	}
	terms := []string{lower}
	if strings.Contains(lower, " ") {
		terms = append(terms, strings.Fields(lower)...)
	}
	return terms
}
