package extract

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/toofancoder/jobtrack/internal/identity"
	"github.com/toofancoder/jobtrack/internal/model"
	"github.com/toofancoder/jobtrack/internal/semantic"
)

// Parser turns raw inbox messages into application records. Parsing is
// total: a record is always produced, degrading through the semantic
// extractor, the keyword extractor, and finally the sentinels.
type Parser struct {
	extractor  *Extractor
	classifier *Classifier

	sem           semantic.Extractor
	minConfidence float64

	now func() time.Time
}

// ParserOption configures a Parser.
type ParserOption func(*Parser)

// WithSemantic enables LLM-backed extraction. Results below minConfidence
// are discarded in favor of the deterministic path.
func WithSemantic(sem semantic.Extractor, minConfidence float64) ParserOption {
	return func(p *Parser) {
		p.sem = sem
		p.minConfidence = minConfidence
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) ParserOption {
	return func(p *Parser) {
		p.now = now
	}
}

// NewParser creates a parser over the given vocabulary.
func NewParser(cfg Config, opts ...ParserOption) *Parser {
	p := &Parser{
		extractor:  NewExtractor(cfg),
		classifier: NewClassifier(cfg),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse derives an application record from a message. The record key is
// deterministic in the extracted fields, so re-parsing the same message
// yields the same key.
func (p *Parser) Parse(ctx context.Context, msg model.EmailMessage) model.Application {
	appliedAt := p.messageDate(msg)

	var app model.Application
	if p.sem != nil {
		if sem, ok := p.parseSemantic(ctx, msg, appliedAt); ok {
			app = sem
		}
	}
	if app.Origin == "" {
		app = p.parseHeuristic(msg, appliedAt)
	}

	app.Key = identity.Key(app.Company, app.Position, msg.Subject, app.AppliedAt.Format(time.RFC3339))
	app.SourceID = msg.ID
	app.SourceDate = msg.Date
	app.LastUpdated = p.now()
	return app
}

// parseSemantic runs the LLM extractor and gap-fills any field it could
// not determine with the deterministic extractor. Returns false when the
// extractor fails or reports confidence below the threshold.
func (p *Parser) parseSemantic(ctx context.Context, msg model.EmailMessage, appliedAt time.Time) (model.Application, bool) {
	log := zap.L().With(zap.String("message_id", msg.ID))

	details, err := p.sem.Extract(ctx, msg)
	if err != nil {
		log.Warn("semantic extraction failed, using heuristics", zap.Error(err))
		return model.Application{}, false
	}
	if details.Confidence < p.minConfidence {
		log.Info("semantic confidence below threshold, using heuristics",
			zap.Float64("confidence", details.Confidence))
		return model.Application{}, false
	}

	var fallbackNotes []string

	company := strings.TrimSpace(details.Company)
	if company == "" {
		company = p.extractor.Company(msg.From, msg.Subject)
		fallbackNotes = append(fallbackNotes, "Company extracted via fallback")
	}

	position := strings.TrimSpace(details.Position)
	if position == "" {
		position = p.extractor.Position(msg.Subject, msg.Body)
		fallbackNotes = append(fallbackNotes, "Position extracted via fallback")
	}

	status := model.ParseStatus(details.Status)
	if strings.TrimSpace(details.Status) == "" {
		status = p.classifier.Classify(msg.Subject, msg.Body)
	}

	if details.ApplicationDate != "" {
		if d, dateErr := time.Parse("2006-01-02", details.ApplicationDate); dateErr == nil {
			appliedAt = d
		}
	}

	notes := []string{fmt.Sprintf("Subject: %s", msg.Subject)}
	for _, f := range []struct{ label, value string }{
		{"Location", details.Location},
		{"Salary", details.SalaryRange},
		{"Type", details.JobType},
		{"Level", details.ExperienceLevel},
		{"Dept", details.Department},
	} {
		if f.value != "" {
			notes = append(notes, f.label+": "+f.value)
		}
	}
	notes = append(notes, fmt.Sprintf("AI Confidence: %.2f", details.Confidence))
	notes = append(notes, fallbackNotes...)
	if details.Notes != "" {
		notes = append(notes, details.Notes)
	}

	return model.Application{
		Company:   company,
		Position:  position,
		AppliedAt: appliedAt,
		Status:    status,
		Origin:    model.OriginInboxSemantic,
		Notes:     strings.Join(notes, " | "),
	}, true
}

func (p *Parser) parseHeuristic(msg model.EmailMessage, appliedAt time.Time) model.Application {
	return model.Application{
		Company:   p.extractor.Company(msg.From, msg.Subject),
		Position:  p.extractor.Position(msg.Subject, msg.Body),
		AppliedAt: appliedAt,
		Status:    p.classifier.Classify(msg.Subject, msg.Body),
		Origin:    model.OriginInboxHeuristic,
		Notes:     fmt.Sprintf("Subject: %s | Heuristic parsing used", msg.Subject),
	}
}

// messageDate parses the RFC 2822 date header, falling back to now.
func (p *Parser) messageDate(msg model.EmailMessage) time.Time {
	if msg.Date == "" {
		return p.now()
	}
	t, err := mail.ParseDate(msg.Date)
	if err != nil {
		zap.L().Debug("unparseable message date",
			zap.String("message_id", msg.ID),
			zap.String("date", msg.Date))
		return p.now()
	}
	return t
}
