package models

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// Transcription/analysis statuses persisted on an AudioRecord.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Terminal alert outcomes. Empty until the pipeline reaches the alert stage.
const (
	AlertStateAlerted        = "alerted"
	AlertStateSkipped        = "alert_skipped"
	AlertStateFailed         = "alert_failed"
	AlertStateFallbackFailed = "fallback_failed"
)

// Machine reason codes stored next to the alert state so operators can tell
// "we chose not to alert" from "we tried and failed".
const (
	AlertReasonLowRisk        = "low_risk"
	AlertReasonNoRecipient    = "no_recipient"
	AlertReasonDeliveryFailed = "delivery_failed"
	AlertReasonNoAssessment   = "no_assessment"
)

type AudioRecord struct {
	ID     string `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID string `gorm:"column:user_id;type:uuid;index" json:"user_id"`

	FilePath        string  `gorm:"column:file_path;type:text" json:"file_path"`
	FileSize        int64   `gorm:"column:file_size;type:bigint" json:"file_size"`
	MimeType        string  `gorm:"column:mime_type;type:text" json:"mime_type"`
	DurationSeconds float64 `gorm:"column:duration_seconds;type:double precision" json:"duration_seconds"`

	TranscriptionText       string  `gorm:"column:transcription_text;type:text" json:"transcription_text"`
	TranscriptionConfidence float64 `gorm:"column:transcription_confidence;type:double precision" json:"transcription_confidence"`
	TranscriptionStatus     string  `gorm:"column:transcription_status;type:text;default:'pending'" json:"transcription_status"`

	AnalysisStatus string  `gorm:"column:analysis_status;type:text;default:'pending'" json:"analysis_status"`
	RiskLevel      *string `gorm:"column:risk_level;type:text" json:"risk_level"`
	UrgencyLevel   *string `gorm:"column:urgency_level;type:text" json:"urgency_level"`

	// Free-form indicators from the reasoning service; only the fields the
	// pipeline reads are validated, the rest round-trips as JSONB.
	Indicators      datatypes.JSON `gorm:"column:indicators;type:jsonb" json:"indicators"`
	Summary         string         `gorm:"column:summary;type:text" json:"summary"`
	Recommendations pq.StringArray `gorm:"column:recommendations;type:text[]" json:"recommendations"`

	UsedFallback bool `gorm:"column:used_fallback;type:boolean;default:false" json:"used_fallback"`

	AlertStatus string `gorm:"column:alert_status;type:text" json:"alert_status"`
	AlertReason string `gorm:"column:alert_reason;type:text" json:"alert_reason"`

	CreatedAt     time.Time  `gorm:"column:created_at;type:timestamptz" json:"created_at"`
	TranscribedAt *time.Time `gorm:"column:transcribed_at;type:timestamptz" json:"transcribed_at,omitempty"`
	AnalyzedAt    *time.Time `gorm:"column:analyzed_at;type:timestamptz" json:"analyzed_at,omitempty"`
	AlertedAt     *time.Time `gorm:"column:alerted_at;type:timestamptz" json:"alerted_at,omitempty"`
}

func (AudioRecord) TableName() string { return "audio_records" }
