package mailbox

import (
	"context"
	"encoding/base64"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	gmail "google.golang.org/api/gmail/v1"

	"github.com/toofancoder/jobtrack/internal/model"
	"github.com/toofancoder/jobtrack/internal/resilience"
)

const gmailUser = "me"

// GmailSource reads messages from a Gmail mailbox. Processed messages
// are tagged with a user label so the scan query can exclude them.
type GmailSource struct {
	svc            *gmail.Service
	processedLabel string
	retry          resilience.Policy

	// labelID caches the resolved processed-label ID.
	labelID string
}

// NewGmailSource creates a source over an authenticated Gmail service.
func NewGmailSource(svc *gmail.Service, processedLabel string) *GmailSource {
	return &GmailSource{
		svc:            svc,
		processedLabel: processedLabel,
		retry:          resilience.GoogleAPIPolicy(),
	}
}

// List returns matching message IDs, newest first.
func (s *GmailSource) List(ctx context.Context, query string, maxResults int64) ([]string, error) {
	resp, err := resilience.Do(ctx, s.retry, "gmail.messages.list",
		func(ctx context.Context) (*gmail.ListMessagesResponse, error) {
			return s.svc.Users.Messages.List(gmailUser).
				Q(query).
				MaxResults(maxResults).
				Context(ctx).Do()
		})
	if err != nil {
		return nil, eris.Wrapf(err, "mailbox: list messages for query %q", query)
	}

	ids := make([]string, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		ids = append(ids, m.Id)
	}
	return ids, nil
}

// Fetch loads one message in full format and flattens it.
func (s *GmailSource) Fetch(ctx context.Context, id string) (model.EmailMessage, error) {
	msg, err := resilience.Do(ctx, s.retry, "gmail.messages.get",
		func(ctx context.Context) (*gmail.Message, error) {
			return s.svc.Users.Messages.Get(gmailUser, id).
				Format("full").
				Context(ctx).Do()
		})
	if err != nil {
		return model.EmailMessage{}, eris.Wrapf(err, "mailbox: get message %s", id)
	}
	return flattenMessage(msg), nil
}

// MarkProcessed adds the processed label, creating it on first use.
func (s *GmailSource) MarkProcessed(ctx context.Context, id string) error {
	labelID, err := s.ensureLabel(ctx)
	if err != nil {
		return err
	}

	err = resilience.Run(ctx, s.retry, "gmail.messages.modify",
		func(ctx context.Context) error {
			_, err := s.svc.Users.Messages.Modify(gmailUser, id, &gmail.ModifyMessageRequest{
				AddLabelIds: []string{labelID},
			}).Context(ctx).Do()
			return err
		})
	if err != nil {
		return eris.Wrapf(err, "mailbox: label message %s", id)
	}
	return nil
}

// ensureLabel resolves the processed label's ID, creating the label when
// it does not exist yet.
func (s *GmailSource) ensureLabel(ctx context.Context) (string, error) {
	if s.labelID != "" {
		return s.labelID, nil
	}

	resp, err := s.svc.Users.Labels.List(gmailUser).Context(ctx).Do()
	if err != nil {
		return "", eris.Wrap(err, "mailbox: list labels")
	}
	for _, l := range resp.Labels {
		if l.Name == s.processedLabel {
			s.labelID = l.Id
			return s.labelID, nil
		}
	}

	created, err := s.svc.Users.Labels.Create(gmailUser, &gmail.Label{
		Name:                  s.processedLabel,
		LabelListVisibility:   "labelShow",
		MessageListVisibility: "show",
	}).Context(ctx).Do()
	if err != nil {
		return "", eris.Wrapf(err, "mailbox: create label %s", s.processedLabel)
	}

	zap.L().Info("created processed label", zap.String("label", s.processedLabel))
	s.labelID = created.Id
	return s.labelID, nil
}

// flattenMessage extracts the headers and best-effort body text.
func flattenMessage(msg *gmail.Message) model.EmailMessage {
	out := model.EmailMessage{ID: msg.Id}
	if msg.Payload == nil {
		return out
	}

	for _, h := range msg.Payload.Headers {
		switch h.Name {
		case "From":
			out.From = h.Value
		case "Subject":
			out.Subject = h.Value
		case "Date":
			out.Date = h.Value
		}
	}
	out.Body = extractBody(msg.Payload)
	return out
}

// extractBody returns the message body, preferring the top-level body,
// then the first text/plain part, then text/html. Multipart containers
// are walked recursively.
func extractBody(payload *gmail.MessagePart) string {
	if payload.Body != nil && payload.Body.Data != "" {
		return decodeBody(payload.Body.Data)
	}

	for _, mime := range []string{"text/plain", "text/html"} {
		if body := findPart(payload.Parts, mime); body != "" {
			return body
		}
	}
	return ""
}

func findPart(parts []*gmail.MessagePart, mimeType string) string {
	for _, p := range parts {
		if p.MimeType == mimeType && p.Body != nil && p.Body.Data != "" {
			return decodeBody(p.Body.Data)
		}
		if strings.HasPrefix(p.MimeType, "multipart/") {
			if body := findPart(p.Parts, mimeType); body != "" {
				return body
			}
		}
	}
	return ""
}

func decodeBody(data string) string {
	d, err := base64.URLEncoding.DecodeString(data)
	if err != nil {
		zap.L().Debug("failed to decode message body", zap.Error(err))
		return ""
	}
	return string(d)
}
