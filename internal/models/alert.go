package models

// EmailAlert types, chosen by the composer from the risk tier.
const (
	AlertTypeCritical     = "critical"
	AlertTypeVoice        = "voice"
	AlertTypeOnboarding   = "onboarding"
	AlertTypeDailySummary = "daily_summary"
)

const (
	RecipientCarePerson       = "care_person"
	RecipientEmergencyContact = "emergency_contact"
)

// EmailAlert is a composed, ready-to-send message. Constructed by the alert
// composer, consumed once by the dispatcher, never persisted.
type EmailAlert struct {
	Type          string            `json:"type"`
	RecipientType string            `json:"recipient_type"`
	To            string            `json:"to"`
	Subject       string            `json:"subject"`
	Body          string            `json:"body"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// HasRecipient reports whether the alert can actually be delivered.
func (a *EmailAlert) HasRecipient() bool { return a != nil && a.To != "" }
