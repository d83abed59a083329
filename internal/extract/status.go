package extract

import (
	"strings"

	"github.com/toofancoder/jobtrack/internal/model"
)

// Classifier maps free text to a status label using an ordered keyword
// table. Classification is total: text that matches nothing is Applied.
type Classifier struct {
	rules []StatusRule
}

// NewClassifier creates a classifier from the configured status table.
func NewClassifier(cfg Config) *Classifier {
	return &Classifier{rules: cfg.StatusTable}
}

// Classify concatenates the given text fields, lower-cases them, and
// returns the status of the first table rule with any keyword present.
// Table order is the tie-break when multiple rules match.
func (c *Classifier) Classify(parts ...string) model.Status {
	text := strings.ToLower(strings.Join(parts, " "))
	for _, rule := range c.rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(text, kw) {
				return rule.Status
			}
		}
	}
	return model.StatusApplied
}
