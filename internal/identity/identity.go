// Package identity derives stable, human-legible keys for application
// records from noisy and partially-overlapping signals.
package identity

import (
	"crypto/md5" //nolint:gosec // content addressing only, not security
	"encoding/hex"
	"regexp"
	"strings"
)

// roleKeywords is the ordered vocabulary of terms that differentiate
// otherwise-identical applications (role, domain, seniority, location).
// Order matters: matched keywords are emitted in vocabulary order, and the
// vocabulary is part of the key format. Extending it is safe, reordering
// it changes every derived key.
var roleKeywords = []string{
	"backend", "frontend", "fullstack", "full-stack", "full stack",
	"machine learning", "ml", "ai", "data", "infrastructure",
	"mobile", "ios", "android", "web", "cloud", "devops",
	"security", "embedded", "systems", "platform", "api",
	"senior", "junior", "lead", "principal", "staff",
	"remote", "onsite", "hybrid", "contract", "intern",
}

var nonAlnum = regexp.MustCompile(`[^a-zA-Z0-9]`)

// Keywords extracts up to two differentiating keywords from an email
// subject, joined with an underscore. Matches are reported in vocabulary
// order regardless of their position in the subject. Returns "" when the
// subject is empty or nothing matches.
func Keywords(subject string) string {
	if subject == "" {
		return ""
	}
	lower := strings.ToLower(subject)

	var found []string
	for _, kw := range roleKeywords {
		if strings.Contains(lower, kw) {
			found = append(found, kw)
			if len(found) == 2 {
				break
			}
		}
	}
	return strings.Join(found, "_")
}

// Key computes the deterministic record identifier from company, position,
// the originating subject text, and the application date (ISO-8601; only
// the part before the time separator participates). Identical inputs always
// yield identical keys; any changed input changes the key modulo hash
// collision.
func Key(company, position, subject, date string) string {
	keywords := Keywords(subject)

	normalized := strings.ToLower(strings.TrimSpace(company)) + "|" + strings.ToLower(strings.TrimSpace(position))
	if keywords != "" {
		normalized += "|" + keywords
	}
	if date != "" {
		normalized += "|" + datePart(date)
	}

	sum := md5.Sum([]byte(normalized)) //nolint:gosec // content addressing only
	suffix := hex.EncodeToString(sum[:])[:8]

	parts := []string{
		sanitize(company, 10),
		sanitize(position, 15),
	}
	if keywords != "" {
		parts = append(parts, sanitize(keywords, 10))
	}
	parts = append(parts, suffix)
	return strings.Join(parts, "_")
}

// datePart returns the date-only component of an ISO-8601 timestamp.
func datePart(date string) string {
	if i := strings.IndexByte(date, 'T'); i >= 0 {
		return date[:i]
	}
	return date
}

// sanitize strips non-alphanumeric characters and clamps length.
func sanitize(s string, limit int) string {
	s = nonAlnum.ReplaceAllString(s, "")
	if len(s) > limit {
		s = s[:limit]
	}
	return s
}
