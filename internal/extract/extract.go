// Package extract derives structured application fields from raw email
// text using deterministic keyword rules. Extraction never fails: every
// function returns a best-effort value or a sentinel.
package extract

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/toofancoder/jobtrack/internal/model"
)

// Extractor derives company and position strings from raw message fields.
type Extractor struct {
	cfg   Config
	title cases.Caser
}

// NewExtractor creates an extractor with the given vocabulary.
func NewExtractor(cfg Config) *Extractor {
	return &Extractor{
		cfg:   cfg,
		title: cases.Title(language.English),
	}
}

// Company extracts the employer name. It prefers the domain segment of the
// sender address (excluding generic mail providers), then scans the subject
// for preposition markers, then falls back to the sentinel.
func (e *Extractor) Company(from, subject string) string {
	if at := strings.LastIndexByte(from, '@'); at >= 0 {
		domain := strings.TrimRight(from[at+1:], "> \t")
		if seg, _, _ := strings.Cut(domain, "."); seg != "" && !e.denied(seg) {
			return e.title.String(strings.ToLower(seg))
		}
	}

	upper := strings.ToUpper(subject)
	for _, marker := range e.cfg.CompanyMarkers {
		idx := strings.Index(upper, marker)
		if idx < 0 {
			continue
		}
		rest := strings.Fields(upper[idx+len(marker):])
		if len(rest) > 0 {
			return e.title.String(strings.ToLower(rest[0]))
		}
	}

	return model.UnknownCompany
}

// Position extracts the job title. It scans subject+body for a job-title
// noun and returns a window of two tokens on either side of the match,
// title-cased. When no noun matches, the text trailing the first position
// hint word ("position", "role", "job") is used. Falls back to the sentinel.
func (e *Extractor) Position(subject, body string) string {
	text := strings.TrimSpace(subject + " " + body)
	if text == "" {
		return model.UnknownPosition
	}
	lower := strings.ToLower(text)
	words := strings.Fields(text)

	for _, noun := range e.cfg.PositionNouns {
		if !strings.Contains(lower, noun) {
			continue
		}
		for i, w := range words {
			if !strings.Contains(strings.ToLower(w), noun) {
				continue
			}
			start := max(0, i-2)
			end := min(len(words), i+3)
			return e.title.String(strings.Join(words[start:end], " "))
		}
	}

	for _, hint := range e.cfg.PositionHints {
		idx := strings.Index(lower, hint)
		if idx < 0 {
			continue
		}
		if rest := strings.TrimSpace(text[idx+len(hint):]); rest != "" {
			return e.title.String(rest)
		}
	}

	return model.UnknownPosition
}

func (e *Extractor) denied(domain string) bool {
	lower := strings.ToLower(domain)
	for _, d := range e.cfg.ProviderDenylist {
		if lower == d {
			return true
		}
	}
	return false
}
