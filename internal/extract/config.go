package extract

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/toofancoder/jobtrack/internal/model"
)

// StatusRule pairs a status with the keywords that signal it. Rules are
// evaluated in slice order; the first rule with any keyword present wins.
type StatusRule struct {
	Status   model.Status `yaml:"status"`
	Keywords []string     `yaml:"keywords"`
}

// Config holds the extraction vocabulary. It is immutable once constructed
// and passed into the extractor and classifier explicitly so the core stays
// testable in isolation.
type Config struct {
	// ProviderDenylist lists generic mail provider domains that never name
	// an employer.
	ProviderDenylist []string `yaml:"provider_denylist"`
	// CompanyMarkers are upper-cased subject prepositions whose following
	// token names the company.
	CompanyMarkers []string `yaml:"company_markers"`
	// PositionNouns are job-title nouns scanned for in subject+body.
	PositionNouns []string `yaml:"position_nouns"`
	// PositionHints are generic words whose trailing subject text is taken
	// as the position when no noun matches.
	PositionHints []string `yaml:"position_hints"`
	// StatusTable is the ordered status classification table.
	StatusTable []StatusRule `yaml:"status_table"`
}

// DefaultConfig returns the built-in extraction vocabulary.
func DefaultConfig() Config {
	return Config{
		ProviderDenylist: []string{"gmail", "yahoo", "hotmail", "outlook", "aol"},
		CompanyMarkers:   []string{"AT ", "FOR ", "WITH ", "VIA ", "FROM "},
		PositionNouns: []string{
			"engineer", "developer", "analyst", "manager", "director",
			"lead", "architect", "consultant", "specialist", "coordinator",
			"associate", "assistant", "supervisor",
		},
		PositionHints: []string{"position", "role", "job"},
		// Table order is the tie-break: a message containing both "rejected"
		// and "interview" keywords classifies as Rejected.
		StatusTable: []StatusRule{
			{Status: model.StatusRejected, Keywords: []string{"rejected", "not selected", "unfortunately", "regret"}},
			{Status: model.StatusInterview, Keywords: []string{"interview", "schedule", "meeting", "call"}},
			{Status: model.StatusAccepted, Keywords: []string{"accepted", "congratulations", "welcome", "offer"}},
			{Status: model.StatusWithdrawn, Keywords: []string{"withdrawn", "cancelled", "no longer interested"}},
		},
	}
}

// LoadConfig reads a YAML vocabulary file and overlays it on the defaults.
// Only non-empty sections replace their default counterpart.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, eris.Wrapf(err, "extract: read vocabulary %s", path)
	}

	var override Config
	if err := yaml.Unmarshal(data, &override); err != nil {
		return cfg, eris.Wrapf(err, "extract: parse vocabulary %s", path)
	}

	if len(override.ProviderDenylist) > 0 {
		cfg.ProviderDenylist = override.ProviderDenylist
	}
	if len(override.CompanyMarkers) > 0 {
		cfg.CompanyMarkers = override.CompanyMarkers
	}
	if len(override.PositionNouns) > 0 {
		cfg.PositionNouns = override.PositionNouns
	}
	if len(override.PositionHints) > 0 {
		cfg.PositionHints = override.PositionHints
	}
	if len(override.StatusTable) > 0 {
		cfg.StatusTable = override.StatusTable
	}
	return cfg, nil
}
