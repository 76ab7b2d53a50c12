package analysis

import (
	"strings"

	"github.com/havenloop/haven-backend/internal/models"
)

const responseContract = `Respond with a single JSON object, no prose, matching:
{
  "risk_level": "low" | "medium" | "high" | "critical",
  "urgency_level": "low" | "medium" | "high" | "critical",
  "indicators": { "<indicator>": <value>, ... },
  "key_concerns": ["..."],
  "summary": "one-paragraph clinical summary",
  "recommendations": ["..."],
  "care_person_alert": "short message for the designated contact, or empty",
  "crisis_intervention": true | false
}`

const transcriptPreamble = `You are a mental-health triage assistant. The text below is the transcript of a voice check-in recorded by a user of a mental-health app. Assess the user's current risk of self-harm or crisis.`

const onboardingPreamble = `You are a mental-health triage assistant. The text below summarizes a user's onboarding questionnaire from a mental-health app. A voice check-in could not be analyzed, so this questionnaire is the only available signal. Assess the user's current risk of self-harm or crisis.`

func buildPrompt(text string, kind models.SourceKind) string {
	var sb strings.Builder
	if kind == models.SourceOnboarding {
		sb.WriteString(onboardingPreamble)
	} else {
		sb.WriteString(transcriptPreamble)
	}
	sb.WriteString("\n\n")
	sb.WriteString(responseContract)
	sb.WriteString("\n\n---\n")
	sb.WriteString(text)
	return sb.String()
}
