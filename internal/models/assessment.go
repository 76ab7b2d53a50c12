package models

// RiskLevel is the totally ordered risk tier produced by the classifier.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

var riskRank = map[RiskLevel]int{
	RiskLow:      0,
	RiskMedium:   1,
	RiskHigh:     2,
	RiskCritical: 3,
}

// Valid reports whether l is one of the four defined tiers.
func (l RiskLevel) Valid() bool {
	_, ok := riskRank[l]
	return ok
}

// AtLeast compares tiers by their total order. Unknown tiers rank below low.
func (l RiskLevel) AtLeast(other RiskLevel) bool {
	return riskRank[l] >= riskRank[other]
}

// SourceKind tags which text the classifier ran over.
type SourceKind string

const (
	SourceTranscript SourceKind = "transcript"
	SourceOnboarding SourceKind = "onboarding"
)

// RiskAssessment is the structured output of one classification call. It is
// not persisted as its own row: the orchestrator folds it into the
// AudioRecord and hands it to the alert composer.
type RiskAssessment struct {
	RiskLevel    RiskLevel `json:"risk_level"`
	UrgencyLevel RiskLevel `json:"urgency_level"`

	Indicators      map[string]any `json:"indicators,omitempty"`
	KeyConcerns     []string       `json:"key_concerns,omitempty"`
	Summary         string         `json:"summary"`
	Recommendations []string       `json:"recommendations"`

	CarePersonAlert    string `json:"care_person_alert,omitempty"`
	CrisisIntervention bool   `json:"crisis_intervention"`

	SourceKind SourceKind `json:"source_kind"`
}
