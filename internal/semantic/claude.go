package semantic

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/toofancoder/jobtrack/internal/model"
	"github.com/toofancoder/jobtrack/pkg/anthropic"
)

const (
	// DefaultModel is the model used for semantic extraction. Extraction is
	// a short single-turn classification task, so the small model suffices.
	DefaultModel = "claude-3-5-haiku-latest"

	maxTokens = 1024

	// bodyLimit caps how much of the email body is sent to the model.
	bodyLimit = 4000
)

const systemPrompt = `You are an assistant that extracts job application details from emails.
Respond with a single JSON object and nothing else. Use these keys:
company, position, status, application_date, location, salary_range,
job_type, experience_level, department, confidence, notes.
- status is one of: Applied, Interview, Rejected, Accepted, Withdrawn.
- application_date is YYYY-MM-DD or "" if unknown.
- confidence is a number between 0 and 1 reflecting overall certainty.
- Use "" for any string field you cannot determine. Never invent values.`

// ClaudeExtractor implements Extractor using the Anthropic API.
type ClaudeExtractor struct {
	client anthropic.Client
	model  string
}

// NewClaudeExtractor creates an extractor backed by the given client.
// An empty model selects DefaultModel.
func NewClaudeExtractor(client anthropic.Client, modelName string) *ClaudeExtractor {
	if modelName == "" {
		modelName = DefaultModel
	}
	return &ClaudeExtractor{client: client, model: modelName}
}

// Extract sends the message to the model and parses the JSON reply.
func (e *ClaudeExtractor) Extract(ctx context.Context, msg model.EmailMessage) (*Details, error) {
	body := msg.Body
	if len(body) > bodyLimit {
		body = body[:bodyLimit]
	}

	user := fmt.Sprintf("From: %s\nSubject: %s\nDate: %s\n\n%s",
		msg.From, msg.Subject, msg.Date, body)

	temp := 0.0
	resp, err := e.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       e.model,
		MaxTokens:   maxTokens,
		System:      systemPrompt,
		Temperature: &temp,
		Messages: []anthropic.Message{
			{Role: "user", Content: user},
		},
	})
	if err != nil {
		return nil, eris.Wrap(err, "semantic: extract")
	}

	details, err := parseDetails(resp.Text())
	if err != nil {
		zap.L().Debug("semantic reply was not valid JSON",
			zap.String("message_id", msg.ID),
			zap.Error(err))
		return nil, err
	}
	return details, nil
}

// parseDetails parses a model reply into Details, tolerating markdown
// fences and surrounding prose.
func parseDetails(text string) (*Details, error) {
	cleaned := cleanJSON(text)

	var d Details
	if err := json.Unmarshal([]byte(cleaned), &d); err != nil {
		return nil, eris.Wrap(err, "semantic: parse reply")
	}
	if d.Confidence < 0 {
		d.Confidence = 0
	}
	if d.Confidence > 1 {
		d.Confidence = 1
	}
	return &d, nil
}

// cleanJSON strips markdown fences and extracts the JSON object.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}

	return strings.TrimSpace(text)
}
