// Package semantic extracts structured application details from email
// content using an LLM. It is an optional enrichment layer: callers fall
// back to deterministic extraction when it is unavailable or fails.
package semantic

import (
	"context"

	"github.com/toofancoder/jobtrack/internal/model"
)

// Details is the structured output of a semantic extraction pass. String
// fields are empty when the model could not determine them; Confidence is
// the model's self-reported score in [0, 1].
type Details struct {
	Company         string  `json:"company"`
	Position        string  `json:"position"`
	Status          string  `json:"status"`
	ApplicationDate string  `json:"application_date"`
	Location        string  `json:"location"`
	SalaryRange     string  `json:"salary_range"`
	JobType         string  `json:"job_type"`
	ExperienceLevel string  `json:"experience_level"`
	Department      string  `json:"department"`
	Confidence      float64 `json:"confidence"`
	Notes           string  `json:"notes"`
}

// Extractor derives application details from a raw email message.
type Extractor interface {
	Extract(ctx context.Context, msg model.EmailMessage) (*Details, error)
}
