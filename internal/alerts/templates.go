package alerts

import (
	"fmt"
	"strings"

	"github.com/havenloop/haven-backend/internal/models"
)

// renderCritical is the crisis template. Privacy minimization: it carries the
// clinical summary and recommendations, never the raw transcript.
func renderCritical(name string, a *models.RiskAssessment) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "You are receiving this because you are the designated contact for %s.\n\n", name)
	sb.WriteString("Their latest check-in indicates a CRITICAL level of risk. ")
	sb.WriteString("Please reach out to them immediately. If you believe they are in danger, contact emergency services (911 or your local emergency number) right away.\n\n")

	if a.CarePersonAlert != "" {
		fmt.Fprintf(&sb, "Message from the assessment:\n%s\n\n", a.CarePersonAlert)
	}

	fmt.Fprintf(&sb, "Summary:\n%s\n", a.Summary)
	writeRecommendations(&sb, a.Recommendations)

	if a.CrisisIntervention {
		sb.WriteString("\nCrisis intervention resources: call or text 988 (Suicide & Crisis Lifeline).\n")
	}
	return sb.String()
}

func renderStandard(name string, a *models.RiskAssessment, transcript string) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "You are receiving this because you are the designated contact for %s.\n\n", name)
	fmt.Fprintf(&sb, "Their latest check-in indicates an elevated (%s) level of risk. Consider checking in with them soon.\n\n", a.RiskLevel)

	fmt.Fprintf(&sb, "Summary:\n%s\n", a.Summary)
	writeRecommendations(&sb, a.Recommendations)
	writeTranscript(&sb, transcript)

	return sb.String()
}

func renderInformational(name string, a *models.RiskAssessment, transcript string) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "A check-in update for %s.\n\n", name)
	fmt.Fprintf(&sb, "Current risk level: %s.\n\n", a.RiskLevel)

	fmt.Fprintf(&sb, "Summary:\n%s\n", a.Summary)
	writeRecommendations(&sb, a.Recommendations)
	writeTranscript(&sb, transcript)

	return sb.String()
}

func writeRecommendations(sb *strings.Builder, recs []string) {
	if len(recs) == 0 {
		return
	}
	sb.WriteString("\nRecommendations:\n")
	for _, r := range recs {
		fmt.Fprintf(sb, "- %s\n", r)
	}
}

func writeTranscript(sb *strings.Builder, transcript string) {
	if strings.TrimSpace(transcript) == "" {
		return
	}
	fmt.Fprintf(sb, "\nWhat they said:\n%s\n", transcript)
}
