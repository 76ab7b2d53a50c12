package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRiskLevel_ordering(t *testing.T) {
	t.Parallel()

	ordered := []RiskLevel{RiskLow, RiskMedium, RiskHigh, RiskCritical}
	for i, lower := range ordered {
		for j, higher := range ordered {
			got := higher.AtLeast(lower)
			assert.Equal(t, j >= i, got, "%s.AtLeast(%s)", higher, lower)
		}
	}
}

func TestRiskLevel_valid(t *testing.T) {
	t.Parallel()

	for _, l := range []RiskLevel{RiskLow, RiskMedium, RiskHigh, RiskCritical} {
		assert.True(t, l.Valid(), string(l))
	}
	assert.False(t, RiskLevel("severe").Valid())
	assert.False(t, RiskLevel("").Valid())
}

func TestProfile_alertRecipient(t *testing.T) {
	t.Parallel()

	p := &Profile{CarePersonEmail: "care@x.com", EmergencyContactEmail: "ec@x.com"}
	email, kind := p.AlertRecipient()
	assert.Equal(t, "care@x.com", email)
	assert.Equal(t, RecipientCarePerson, kind)

	p.CarePersonEmail = ""
	email, kind = p.AlertRecipient()
	assert.Equal(t, "ec@x.com", email)
	assert.Equal(t, RecipientEmergencyContact, kind)

	p.EmergencyContactEmail = ""
	email, kind = p.AlertRecipient()
	assert.Empty(t, email)
	assert.Empty(t, kind)

	email, kind = (*Profile)(nil).AlertRecipient()
	assert.Empty(t, email)
	assert.Empty(t, kind)
}

func TestOnboardingAnswers_isEmpty(t *testing.T) {
	t.Parallel()

	assert.True(t, (*OnboardingAnswers)(nil).IsEmpty())
	assert.True(t, (&OnboardingAnswers{}).IsEmpty())
	assert.True(t, (&OnboardingAnswers{SafetyConcerns: "  "}).IsEmpty())
	assert.False(t, (&OnboardingAnswers{StressLevel: 5}).IsEmpty())
	assert.False(t, (&OnboardingAnswers{SupportSystem: "a friend"}).IsEmpty())
}
