package models

import "strings"

// OnboardingAnswers holds the questionnaire a user fills in once at
// onboarding. Stored as JSONB on the profile row; read-only afterwards unless
// the user re-submits onboarding.
type OnboardingAnswers struct {
	SafetyConcerns   string   `json:"safety_concerns"`
	SupportSystem    string   `json:"support_system"`
	CopingMechanisms []string `json:"coping_mechanisms"`

	// 1-10 self-rated scales.
	StressLevel  int `json:"stress_level"`
	SleepQuality int `json:"sleep_quality"`

	RecentChanges string `json:"recent_changes"`

	EmergencyContactName  string `json:"emergency_contact_name,omitempty"`
	EmergencyContactPhone string `json:"emergency_contact_phone,omitempty"`
	EmergencyContactEmail string `json:"emergency_contact_email,omitempty"`
}

// IsEmpty reports whether the answers carry no usable signal. Scale-only
// submissions still count as usable.
func (a *OnboardingAnswers) IsEmpty() bool {
	if a == nil {
		return true
	}
	return strings.TrimSpace(a.SafetyConcerns) == "" &&
		strings.TrimSpace(a.SupportSystem) == "" &&
		len(a.CopingMechanisms) == 0 &&
		strings.TrimSpace(a.RecentChanges) == "" &&
		a.StressLevel == 0 &&
		a.SleepQuality == 0
}
