package analysis

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/havenloop/haven-backend/internal/models"
	"github.com/havenloop/haven-backend/internal/providers/llm"
	"github.com/havenloop/haven-backend/internal/utils"
	"github.com/sirupsen/logrus"
)

// Classifier turns free text into a structured mental-health risk assessment.
type Classifier interface {
	Classify(ctx context.Context, text string, kind models.SourceKind) (*models.RiskAssessment, error)
}

// LLMClassifier is a single call to the reasoning service per input; no
// multi-turn refinement. Free-text fields are not deterministic, the tier
// fields are validated against the four defined levels.
type LLMClassifier struct {
	provider  llm.Provider
	minTokens int
	log       *logrus.Logger
}

func NewLLMClassifier(provider llm.Provider, minTokens int, log *logrus.Logger) *LLMClassifier {
	if minTokens <= 0 {
		minTokens = 3
	}
	if log == nil {
		log = logrus.New()
	}
	return &LLMClassifier{provider: provider, minTokens: minTokens, log: log}
}

// rawAssessment mirrors the JSON contract with the reasoning service. Only
// the fields the pipeline reads are validated; indicators stay open-keyed.
type rawAssessment struct {
	RiskLevel          string         `json:"risk_level"`
	UrgencyLevel       string         `json:"urgency_level"`
	Indicators         map[string]any `json:"indicators"`
	KeyConcerns        []string       `json:"key_concerns"`
	Summary            string         `json:"summary"`
	Recommendations    []string       `json:"recommendations"`
	CarePersonAlert    string         `json:"care_person_alert"`
	CrisisIntervention bool           `json:"crisis_intervention"`
}

func (c *LLMClassifier) Classify(ctx context.Context, text string, kind models.SourceKind) (*models.RiskAssessment, error) {
	if len(strings.Fields(text)) < c.minTokens {
		return nil, utils.Stage(utils.KindInsufficientInput, "too_short", nil)
	}

	out, err := c.provider.Complete(ctx, buildPrompt(text, kind))
	if err != nil {
		reason := "provider_error"
		if ctx.Err() != nil {
			reason = "timeout"
		}
		return nil, utils.Stage(utils.KindClassification, reason, err)
	}

	var raw rawAssessment
	if err := json.Unmarshal([]byte(stripFences(out)), &raw); err != nil {
		c.log.WithError(err).WithField("source_kind", kind).Warn("classifier returned non-JSON response")
		return nil, utils.Stage(utils.KindClassification, "bad_response", err)
	}

	a, err := validate(&raw, kind)
	if err != nil {
		c.log.WithError(err).WithField("source_kind", kind).Warn("classifier response failed validation")
		return nil, err
	}
	return a, nil
}

func validate(raw *rawAssessment, kind models.SourceKind) (*models.RiskAssessment, error) {
	risk := models.RiskLevel(strings.ToLower(strings.TrimSpace(raw.RiskLevel)))
	if !risk.Valid() {
		return nil, utils.Stage(utils.KindClassification, "bad_response", errInvalidField("risk_level", raw.RiskLevel))
	}

	urgency := models.RiskLevel(strings.ToLower(strings.TrimSpace(raw.UrgencyLevel)))
	if raw.UrgencyLevel == "" {
		urgency = risk
	} else if !urgency.Valid() {
		return nil, utils.Stage(utils.KindClassification, "bad_response", errInvalidField("urgency_level", raw.UrgencyLevel))
	}

	if strings.TrimSpace(raw.Summary) == "" {
		return nil, utils.Stage(utils.KindClassification, "bad_response", errInvalidField("summary", ""))
	}

	recs := raw.Recommendations
	if recs == nil {
		recs = []string{}
	}

	return &models.RiskAssessment{
		RiskLevel:          risk,
		UrgencyLevel:       urgency,
		Indicators:         raw.Indicators,
		KeyConcerns:        raw.KeyConcerns,
		Summary:            strings.TrimSpace(raw.Summary),
		Recommendations:    recs,
		CarePersonAlert:    raw.CarePersonAlert,
		CrisisIntervention: raw.CrisisIntervention,
		SourceKind:         kind,
	}, nil
}

// stripFences removes a surrounding markdown code fence; models wrap JSON in
// ```json blocks even when asked not to.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

type fieldError struct {
	field string
	value string
}

func (e *fieldError) Error() string {
	if e.value == "" {
		return "missing required field " + e.field
	}
	return "invalid value for " + e.field + ": " + e.value
}

func errInvalidField(field, value string) error { return &fieldError{field: field, value: value} }
