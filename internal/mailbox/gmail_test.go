package mailbox

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	gmail "google.golang.org/api/gmail/v1"
)

func encode(s string) string {
	return base64.URLEncoding.EncodeToString([]byte(s))
}

func TestFlattenMessageHeaders(t *testing.T) {
	msg := &gmail.Message{
		Id: "msg-1",
		Payload: &gmail.MessagePart{
			Headers: []*gmail.MessagePartHeader{
				{Name: "From", Value: "jobs@acme.com"},
				{Name: "Subject", Value: "Your application"},
				{Name: "Date", Value: "Mon, 15 Jan 2024 10:30:00 +0000"},
				{Name: "Reply-To", Value: "ignored@acme.com"},
			},
			Body: &gmail.MessagePartBody{Data: encode("hello")},
		},
	}

	out := flattenMessage(msg)
	assert.Equal(t, "msg-1", out.ID)
	assert.Equal(t, "jobs@acme.com", out.From)
	assert.Equal(t, "Your application", out.Subject)
	assert.Equal(t, "Mon, 15 Jan 2024 10:30:00 +0000", out.Date)
	assert.Equal(t, "hello", out.Body)
}

func TestFlattenMessageNilPayload(t *testing.T) {
	out := flattenMessage(&gmail.Message{Id: "msg-1"})
	assert.Equal(t, "msg-1", out.ID)
	assert.Empty(t, out.Body)
}

func TestExtractBodyPrefersPlainText(t *testing.T) {
	payload := &gmail.MessagePart{
		MimeType: "multipart/alternative",
		Parts: []*gmail.MessagePart{
			{MimeType: "text/html", Body: &gmail.MessagePartBody{Data: encode("<p>html</p>")}},
			{MimeType: "text/plain", Body: &gmail.MessagePartBody{Data: encode("plain")}},
		},
	}
	assert.Equal(t, "plain", extractBody(payload))
}

func TestExtractBodyFallsToHTML(t *testing.T) {
	payload := &gmail.MessagePart{
		MimeType: "multipart/alternative",
		Parts: []*gmail.MessagePart{
			{MimeType: "text/html", Body: &gmail.MessagePartBody{Data: encode("<p>html</p>")}},
		},
	}
	assert.Equal(t, "<p>html</p>", extractBody(payload))
}

func TestExtractBodyNestedMultipart(t *testing.T) {
	payload := &gmail.MessagePart{
		MimeType: "multipart/mixed",
		Parts: []*gmail.MessagePart{
			{
				MimeType: "multipart/alternative",
				Parts: []*gmail.MessagePart{
					{MimeType: "text/plain", Body: &gmail.MessagePartBody{Data: encode("nested")}},
				},
			},
		},
	}
	assert.Equal(t, "nested", extractBody(payload))
}

func TestDecodeBodyInvalid(t *testing.T) {
	assert.Empty(t, decodeBody("%%% not base64 %%%"))
}
