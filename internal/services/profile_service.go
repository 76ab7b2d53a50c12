package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/havenloop/haven-backend/internal/cache"
	"github.com/havenloop/haven-backend/internal/models"
	pgrepo "github.com/havenloop/haven-backend/internal/repositories/postgres"
	"github.com/havenloop/haven-backend/internal/utils"
	"gorm.io/datatypes"
)

type ProfileService interface {
	GetMe(ctx context.Context, userID string) (*models.Profile, error)
	Upsert(ctx context.Context, p *models.Profile) error
	SubmitOnboarding(ctx context.Context, userID string, answers *models.OnboardingAnswers) (*models.Profile, error)
}

type profileService struct {
	profiles pgrepo.ProfileRepository
	cache    cache.Cache
	ttl      time.Duration
}

func NewProfileService(profiles pgrepo.ProfileRepository, c cache.Cache) ProfileService {
	return &profileService{profiles: profiles, cache: c, ttl: 5 * time.Minute}
}

func cacheKey(userID string) string { return "profile:" + userID }

func (s *profileService) GetMe(ctx context.Context, userID string) (*models.Profile, error) {
	const op = "ProfileService.GetMe"

	if userID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}

	if s.cache != nil {
		var cached models.Profile
		if hit, _ := s.cache.GetJSON(ctx, cacheKey(userID), &cached); hit {
			return &cached, nil
		}
	}

	p, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "profile not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to get profile", err)
	}

	if s.cache != nil {
		_ = s.cache.SetJSON(ctx, cacheKey(userID), p, s.ttl)
	}
	return p, nil
}

func (s *profileService) Upsert(ctx context.Context, p *models.Profile) error {
	const op = "ProfileService.Upsert"

	if p == nil || p.UserID == "" {
		return utils.E(utils.CodeInvalidArgument, op, "profile.user_id is required", nil)
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now().UTC()
	}
	if err := s.profiles.Upsert(ctx, p); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to upsert profile", err)
	}
	if s.cache != nil {
		_ = s.cache.Del(ctx, cacheKey(p.UserID))
	}
	return nil
}

// SubmitOnboarding stores the questionnaire and marks onboarding complete.
// Re-submitting replaces the previous answers.
func (s *profileService) SubmitOnboarding(ctx context.Context, userID string, answers *models.OnboardingAnswers) (*models.Profile, error) {
	const op = "ProfileService.SubmitOnboarding"

	if userID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}
	if answers.IsEmpty() {
		return nil, utils.E(utils.CodeInvalidArgument, op, "onboarding answers are empty", nil)
	}

	p, err := s.GetMe(ctx, userID)
	if err != nil {
		if !utils.IsCode(err, utils.CodeNotFound) {
			return nil, err
		}
		p = &models.Profile{UserID: userID}
	}

	raw, err := json.Marshal(answers)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to serialize answers", err)
	}

	p.Onboarding = datatypes.JSON(raw)
	p.OnboardingCompleted = true
	if answers.EmergencyContactEmail != "" && p.EmergencyContactEmail == "" {
		p.EmergencyContactEmail = answers.EmergencyContactEmail
	}
	p.UpdatedAt = time.Now().UTC()

	if err := s.Upsert(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}
