package alerts

import (
	"fmt"

	"github.com/havenloop/haven-backend/internal/models"
)

// Composer maps an assessment plus the user's profile to a rendered email.
// Pure: no I/O, always returns a value. An alert with no recipient is still
// composed; the orchestrator records it as undeliverable.
type Composer struct {
	// IncludeTranscript lets the standard and informational templates embed
	// the transcript text. The crisis template never embeds it.
	IncludeTranscript bool
}

func (c *Composer) Compose(a *models.RiskAssessment, profile *models.Profile, transcript string) *models.EmailAlert {
	to, recipientType := profile.AlertRecipient()

	name := "A person in your care circle"
	if profile != nil && profile.FullName != "" {
		name = profile.FullName
	}

	alert := &models.EmailAlert{
		RecipientType: recipientType,
		To:            to,
		Metadata: map[string]string{
			"risk_level":    string(a.RiskLevel),
			"urgency_level": string(a.UrgencyLevel),
			"source_kind":   string(a.SourceKind),
		},
	}

	switch {
	case a.RiskLevel == models.RiskCritical:
		alert.Type = models.AlertTypeCritical
		alert.Subject = fmt.Sprintf("CRITICAL: %s may need immediate support", name)
		alert.Body = renderCritical(name, a)
	case a.RiskLevel == models.RiskHigh:
		alert.Type = models.AlertTypeVoice
		alert.Subject = fmt.Sprintf("Check-in alert for %s", name)
		alert.Body = renderStandard(name, a, c.transcriptOrEmpty(transcript))
	default:
		if a.SourceKind == models.SourceOnboarding {
			alert.Type = models.AlertTypeOnboarding
		} else {
			alert.Type = models.AlertTypeVoice
		}
		alert.Subject = fmt.Sprintf("Check-in update for %s", name)
		alert.Body = renderInformational(name, a, c.transcriptOrEmpty(transcript))
	}

	return alert
}

func (c *Composer) transcriptOrEmpty(transcript string) string {
	if c.IncludeTranscript {
		return transcript
	}
	return ""
}
