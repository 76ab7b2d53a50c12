package models

import (
	"time"

	"gorm.io/datatypes"
)

type Profile struct {
	UserID      string `gorm:"column:user_id;type:uuid;primaryKey" json:"user_id"`
	FullName    string `gorm:"column:full_name;type:text" json:"full_name"`
	PhoneNumber string `gorm:"column:phone_number;type:text" json:"phone_number"`

	// Designated contacts for elevated-risk alerts. Care person wins when
	// both are set.
	CarePersonEmail       string `gorm:"column:care_person_email;type:text" json:"care_person_email"`
	EmergencyContactEmail string `gorm:"column:emergency_contact_email;type:text" json:"emergency_contact_email"`

	OnboardingCompleted bool `gorm:"column:onboarding_completed;type:boolean;default:false" json:"onboarding_completed"`

	// JSONB (serialized OnboardingAnswers)
	Onboarding datatypes.JSON `gorm:"column:onboarding;type:jsonb" json:"onboarding"`

	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamptz" json:"updated_at"`
}

func (Profile) TableName() string { return "profiles" }

// AlertRecipient returns the preferred deliverable contact for this profile,
// or ("", "") when neither contact is set.
func (p *Profile) AlertRecipient() (email, recipientType string) {
	if p == nil {
		return "", ""
	}
	if p.CarePersonEmail != "" {
		return p.CarePersonEmail, RecipientCarePerson
	}
	if p.EmergencyContactEmail != "" {
		return p.EmergencyContactEmail, RecipientEmergencyContact
	}
	return "", ""
}
