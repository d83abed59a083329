package extract

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toofancoder/jobtrack/internal/model"
)

func TestCompanyFromSenderDomain(t *testing.T) {
	e := NewExtractor(DefaultConfig())

	assert.Equal(t, "Acme", e.Company("recruiting@acme.com", ""))
	assert.Equal(t, "Greenhouse", e.Company("Jordan Recruiter <jobs@greenhouse.io>", ""))
}

func TestCompanyDeniedProviderFallsToSubject(t *testing.T) {
	e := NewExtractor(DefaultConfig())

	got := e.Company("someone@gmail.com", "Your application at Stripe")
	assert.Equal(t, "Stripe", got)
}

func TestCompanySentinel(t *testing.T) {
	e := NewExtractor(DefaultConfig())

	assert.Equal(t, model.UnknownCompany, e.Company("noreply@gmail.com", "Thanks, next steps inside"))
	assert.Equal(t, model.UnknownCompany, e.Company("", ""))
}

func TestPositionNounWindow(t *testing.T) {
	e := NewExtractor(DefaultConfig())

	got := e.Position("Software Engineer opening at Acme", "")
	assert.Equal(t, "Software Engineer Opening At", got)
}

func TestPositionNounInBody(t *testing.T) {
	e := NewExtractor(DefaultConfig())

	got := e.Position("Thanks!", "we reviewed your Data Analyst submission today")
	assert.Equal(t, "Your Data Analyst Submission Today", got)
}

func TestPositionHintTrailingText(t *testing.T) {
	e := NewExtractor(DefaultConfig())

	got := e.Position("Regarding the job Quantitative Researcher", "")
	assert.Equal(t, "Quantitative Researcher", got)
}

func TestPositionSentinel(t *testing.T) {
	e := NewExtractor(DefaultConfig())

	assert.Equal(t, model.UnknownPosition, e.Position("", ""))
	assert.Equal(t, model.UnknownPosition, e.Position("Hello there", ""))
}

func TestClassifyTableOrder(t *testing.T) {
	c := NewClassifier(DefaultConfig())

	assert.Equal(t, model.StatusRejected, c.Classify("We regret to inform you"))
	assert.Equal(t, model.StatusInterview, c.Classify("Interview invitation for next week"))
	assert.Equal(t, model.StatusAccepted, c.Classify("We are pleased to extend an offer"))
	assert.Equal(t, model.StatusWithdrawn, c.Classify("Your application has been withdrawn"))

	// Rejected precedes Interview in the table.
	assert.Equal(t, model.StatusRejected, c.Classify("Unfortunately, after your interview"))
}

func TestClassifyDefault(t *testing.T) {
	c := NewClassifier(DefaultConfig())
	assert.Equal(t, model.StatusApplied, c.Classify("Hello", "thanks for your submission"))
}

func TestLoadConfigOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vocab.yaml")
	yaml := `
position_hints: ["vacancy"]
status_table:
  - status: Interview
    keywords: ["phone screen"]
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"vacancy"}, cfg.PositionHints)
	require.Len(t, cfg.StatusTable, 1)
	assert.Equal(t, model.StatusInterview, cfg.StatusTable[0].Status)

	// Untouched sections keep their defaults.
	assert.Equal(t, DefaultConfig().ProviderDenylist, cfg.ProviderDenylist)
	assert.Equal(t, DefaultConfig().PositionNouns, cfg.PositionNouns)
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)

	// Defaults are still returned so the caller can decide to proceed.
	assert.Equal(t, DefaultConfig().CompanyMarkers, cfg.CompanyMarkers)
}
