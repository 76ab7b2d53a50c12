package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/havenloop/haven-backend/internal/analysis"
	"github.com/havenloop/haven-backend/internal/models"
	"github.com/havenloop/haven-backend/internal/providers/stt"
	pgrepo "github.com/havenloop/haven-backend/internal/repositories/postgres"
	"github.com/havenloop/haven-backend/internal/storage"
	"github.com/havenloop/haven-backend/internal/utils"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

type AudioService interface {
	// Upload stores the recording and enqueues the analysis pipeline. It
	// returns as soon as the record row exists; pipeline outcomes surface
	// later through Get.
	Upload(ctx context.Context, userID, fileName, mimeType string, fileSize int64, durationSeconds float64, r io.Reader) (*models.AudioRecord, error)
	Get(ctx context.Context, userID, recordID string) (*models.AudioRecord, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]models.AudioRecord, error)

	// RunOnboardingAnalysis is the ops trigger: classify the user's
	// onboarding answers directly, without creating a record.
	RunOnboardingAnalysis(ctx context.Context, userID string) (*models.RiskAssessment, error)
}

type audioService struct {
	records  pgrepo.AudioRecordRepository
	profiles pgrepo.ProfileRepository
	uploader storage.Uploader
	fallback *analysis.FallbackAnalyzer

	rdb    *redis.Client
	stream string

	maxBytes int64
	log      *logrus.Logger
}

func NewAudioService(
	records pgrepo.AudioRecordRepository,
	profiles pgrepo.ProfileRepository,
	uploader storage.Uploader,
	fallback *analysis.FallbackAnalyzer,
	rdb *redis.Client,
	stream string,
	maxBytes int64,
	log *logrus.Logger,
) AudioService {
	if stream == "" {
		stream = "audio:analyze"
	}
	if maxBytes <= 0 {
		maxBytes = 25 << 20
	}
	if log == nil {
		log = logrus.New()
	}
	return &audioService{
		records:  records,
		profiles: profiles,
		uploader: uploader,
		fallback: fallback,
		rdb:      rdb,
		stream:   stream,
		maxBytes: maxBytes,
		log:      log,
	}
}

func (s *audioService) Upload(ctx context.Context, userID, fileName, mimeType string, fileSize int64, durationSeconds float64, r io.Reader) (*models.AudioRecord, error) {
	const op = "AudioService.Upload"

	if userID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}
	if fileSize <= 0 || fileSize > s.maxBytes {
		return nil, utils.E(utils.CodeInvalidArgument, op, "audio file is empty or too large", nil)
	}
	if stt.NormalizeFormat(path.Ext(fileName)) == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "unsupported audio format", stt.ErrUnsupportedFormat)
	}

	objectName := "audio/" + userID + "/" + uuid.NewString() + path.Ext(fileName)

	storedPath, err := s.uploader.Upload(ctx, objectName, mimeType, r)
	if err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "failed to store audio", err)
	}

	rec := &models.AudioRecord{
		ID:                  uuid.NewString(),
		UserID:              userID,
		FilePath:            storedPath,
		FileSize:            fileSize,
		MimeType:            mimeType,
		DurationSeconds:     durationSeconds,
		TranscriptionStatus: models.StatusPending,
		AnalysisStatus:      models.StatusPending,
		CreatedAt:           time.Now().UTC(),
	}

	if err := s.records.Insert(ctx, rec); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to persist audio record", err)
	}

	// Best-effort enqueue: the upload already succeeded, pipeline failures
	// are visible on the record's status fields.
	if err := s.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: s.stream,
		Values: map[string]any{
			"record_id": rec.ID,
			"user_id":   rec.UserID,
		},
	}).Err(); err != nil {
		s.log.WithError(err).WithField("record_id", rec.ID).Error("failed to enqueue pipeline task")
	}

	return rec, nil
}

func (s *audioService) Get(ctx context.Context, userID, recordID string) (*models.AudioRecord, error) {
	const op = "AudioService.Get"

	if userID == "" || recordID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id and record_id are required", nil)
	}

	rec, err := s.records.GetByID(ctx, recordID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "audio record not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to get audio record", err)
	}
	if rec.UserID != userID {
		return nil, utils.E(utils.CodeForbidden, op, "audio record belongs to another user", nil)
	}
	return rec, nil
}

func (s *audioService) ListByUser(ctx context.Context, userID string, limit int) ([]models.AudioRecord, error) {
	const op = "AudioService.ListByUser"

	if userID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}
	rows, err := s.records.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list audio records", err)
	}
	return rows, nil
}

func (s *audioService) RunOnboardingAnalysis(ctx context.Context, userID string) (*models.RiskAssessment, error) {
	const op = "AudioService.RunOnboardingAnalysis"

	if userID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}

	profile, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "profile not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to get profile", err)
	}

	var answers *models.OnboardingAnswers
	if len(profile.Onboarding) > 0 {
		answers = &models.OnboardingAnswers{}
		if err := json.Unmarshal(profile.Onboarding, answers); err != nil {
			answers = nil
		}
	}

	a, err := s.fallback.AnalyzeOnboarding(ctx, answers)
	if err != nil {
		if utils.IsKind(err, utils.KindInsufficientInput) {
			return nil, utils.E(utils.CodeInvalidArgument, op, "onboarding answers are missing or incomplete", err)
		}
		return nil, utils.E(utils.CodeUnavailable, op, "onboarding analysis failed", err)
	}
	return a, nil
}
