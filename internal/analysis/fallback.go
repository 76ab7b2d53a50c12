package analysis

import (
	"context"
	"fmt"
	"strings"

	"github.com/havenloop/haven-backend/internal/models"
	"github.com/havenloop/haven-backend/internal/utils"
)

// FallbackAnalyzer reuses the classifier over onboarding answers. It is the
// safety net: invoked whenever the transcript path fails or comes back below
// the confidence threshold, so every audio submission still yields a risk
// signal when answers are on file.
type FallbackAnalyzer struct {
	classifier Classifier
}

func NewFallbackAnalyzer(classifier Classifier) *FallbackAnalyzer {
	return &FallbackAnalyzer{classifier: classifier}
}

func (f *FallbackAnalyzer) AnalyzeOnboarding(ctx context.Context, answers *models.OnboardingAnswers) (*models.RiskAssessment, error) {
	if answers.IsEmpty() {
		return nil, utils.Stage(utils.KindInsufficientInput, "no_onboarding_answers", nil)
	}
	return f.classifier.Classify(ctx, SerializeAnswers(answers), models.SourceOnboarding)
}

// SerializeAnswers renders the questionnaire into the text form the
// classifier expects. Unset fields are omitted rather than rendered blank.
func SerializeAnswers(a *models.OnboardingAnswers) string {
	var sb strings.Builder

	write := func(label, value string) {
		if strings.TrimSpace(value) != "" {
			fmt.Fprintf(&sb, "%s: %s\n", label, strings.TrimSpace(value))
		}
	}

	write("Safety concerns", a.SafetyConcerns)
	write("Support system", a.SupportSystem)
	if len(a.CopingMechanisms) > 0 {
		write("Coping mechanisms", strings.Join(a.CopingMechanisms, ", "))
	}
	if a.StressLevel > 0 {
		fmt.Fprintf(&sb, "Stress level (1-10): %d\n", a.StressLevel)
	}
	if a.SleepQuality > 0 {
		fmt.Fprintf(&sb, "Sleep quality (1-10): %d\n", a.SleepQuality)
	}
	write("Recent changes", a.RecentChanges)

	return strings.TrimSpace(sb.String())
}
