package analysis

import (
	"context"
	"testing"

	"github.com/havenloop/haven-backend/internal/models"
	"github.com/havenloop/haven-backend/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureClassifier struct {
	assessment *models.RiskAssessment
	err        error
	lastText   string
	lastKind   models.SourceKind
	calls      int
}

func (c *captureClassifier) Classify(_ context.Context, text string, kind models.SourceKind) (*models.RiskAssessment, error) {
	c.calls++
	c.lastText = text
	c.lastKind = kind
	return c.assessment, c.err
}

func TestAnalyzeOnboarding_delegates(t *testing.T) {
	t.Parallel()

	cc := &captureClassifier{assessment: &models.RiskAssessment{
		RiskLevel:       models.RiskLow,
		UrgencyLevel:    models.RiskLow,
		Summary:         "Stable.",
		Recommendations: []string{},
		SourceKind:      models.SourceOnboarding,
	}}
	f := NewFallbackAnalyzer(cc)

	answers := &models.OnboardingAnswers{
		SafetyConcerns: "none at the moment",
		SupportSystem:  "partner and close friends",
		StressLevel:    4,
	}

	a, err := f.AnalyzeOnboarding(context.Background(), answers)
	require.NoError(t, err)
	assert.Equal(t, models.RiskLow, a.RiskLevel)
	assert.Equal(t, models.SourceOnboarding, cc.lastKind)
	assert.Contains(t, cc.lastText, "Safety concerns: none at the moment")
	assert.Contains(t, cc.lastText, "Stress level (1-10): 4")
}

func TestAnalyzeOnboarding_missingAnswers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		answers *models.OnboardingAnswers
	}{
		{"nil answers", nil},
		{"empty answers", &models.OnboardingAnswers{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cc := &captureClassifier{}
			f := NewFallbackAnalyzer(cc)

			_, err := f.AnalyzeOnboarding(context.Background(), tt.answers)
			require.Error(t, err)
			assert.True(t, utils.IsKind(err, utils.KindInsufficientInput))
			assert.Equal(t, "no_onboarding_answers", utils.StageReason(err))
			assert.Equal(t, 0, cc.calls)
		})
	}
}

func TestSerializeAnswers_omitsUnset(t *testing.T) {
	t.Parallel()

	out := SerializeAnswers(&models.OnboardingAnswers{
		SupportSystem:    "my sister",
		CopingMechanisms: []string{"running", "journaling"},
		SleepQuality:     7,
	})

	assert.Contains(t, out, "Support system: my sister")
	assert.Contains(t, out, "Coping mechanisms: running, journaling")
	assert.Contains(t, out, "Sleep quality (1-10): 7")
	assert.NotContains(t, out, "Safety concerns")
	assert.NotContains(t, out, "Stress level")
}
