package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/havenloop/haven-backend/internal/models"
	"github.com/havenloop/haven-backend/internal/utils"
	"github.com/lib/pq"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AudioRecordRepository persists one row per uploaded recording. The stage
// update methods each touch only their own columns: per-stage last-writer-
// wins, the pipeline task owns the record for its lifetime.
type AudioRecordRepository interface {
	Insert(ctx context.Context, rec *models.AudioRecord) error
	GetByID(ctx context.Context, id string) (*models.AudioRecord, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]models.AudioRecord, error)

	MarkTranscription(ctx context.Context, id, status, text string, confidence float64, at *time.Time) error
	MarkAnalysisStatus(ctx context.Context, id, status string) error
	SaveAssessment(ctx context.Context, id string, a *models.RiskAssessment, usedFallback bool, at time.Time) error
	MarkAlert(ctx context.Context, id, alertStatus, reason string, at *time.Time) error
}

type audioRecordRepo struct {
	db *gorm.DB
}

func NewAudioRecordRepo(db *gorm.DB) AudioRecordRepository {
	return &audioRecordRepo{db: db}
}

func (r *audioRecordRepo) Insert(ctx context.Context, rec *models.AudioRecord) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

func (r *audioRecordRepo) GetByID(ctx context.Context, id string) (*models.AudioRecord, error) {
	var rec models.AudioRecord
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &rec, err
}

func (r *audioRecordRepo) ListByUser(ctx context.Context, userID string, limit int) ([]models.AudioRecord, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var rows []models.AudioRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *audioRecordRepo) MarkTranscription(ctx context.Context, id, status, text string, confidence float64, at *time.Time) error {
	updates := map[string]any{
		"transcription_status":     status,
		"transcription_text":       text,
		"transcription_confidence": confidence,
	}
	if at != nil {
		updates["transcribed_at"] = *at
	}
	return r.db.WithContext(ctx).
		Model(&models.AudioRecord{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *audioRecordRepo) MarkAnalysisStatus(ctx context.Context, id, status string) error {
	return r.db.WithContext(ctx).
		Model(&models.AudioRecord{}).
		Where("id = ?", id).
		Update("analysis_status", status).Error
}

func (r *audioRecordRepo) SaveAssessment(ctx context.Context, id string, a *models.RiskAssessment, usedFallback bool, at time.Time) error {
	indicators, err := marshalIndicators(a.Indicators)
	if err != nil {
		return err
	}

	risk := string(a.RiskLevel)
	urgency := string(a.UrgencyLevel)
	return r.db.WithContext(ctx).
		Model(&models.AudioRecord{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"analysis_status": models.StatusCompleted,
			"risk_level":      &risk,
			"urgency_level":   &urgency,
			"indicators":      indicators,
			"summary":         a.Summary,
			"recommendations": pq.StringArray(a.Recommendations),
			"used_fallback":   usedFallback,
			"analyzed_at":     at,
		}).Error
}

func (r *audioRecordRepo) MarkAlert(ctx context.Context, id, alertStatus, reason string, at *time.Time) error {
	updates := map[string]any{
		"alert_status": alertStatus,
		"alert_reason": reason,
	}
	if at != nil {
		updates["alerted_at"] = *at
	}
	return r.db.WithContext(ctx).
		Model(&models.AudioRecord{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func marshalIndicators(m map[string]any) (datatypes.JSON, error) {
	if len(m) == 0 {
		return datatypes.JSON("{}"), nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}
