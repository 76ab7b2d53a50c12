package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/havenloop/haven-backend/internal/alerts"
	"github.com/havenloop/haven-backend/internal/analysis"
	"github.com/havenloop/haven-backend/internal/models"
	"github.com/havenloop/haven-backend/internal/providers/stt"
	"github.com/havenloop/haven-backend/internal/utils"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

// ---------------------------------------------------------------------------
// fakes
// ---------------------------------------------------------------------------

type fakeRecords struct {
	mu  sync.Mutex
	rec *models.AudioRecord
}

func (f *fakeRecords) Insert(_ context.Context, rec *models.AudioRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rec = rec
	return nil
}

func (f *fakeRecords) GetByID(_ context.Context, id string) (*models.AudioRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.rec == nil || f.rec.ID != id {
		return nil, utils.ErrNotFound
	}
	cp := *f.rec
	return &cp, nil
}

func (f *fakeRecords) ListByUser(_ context.Context, userID string, _ int) ([]models.AudioRecord, error) {
	return nil, nil
}

func (f *fakeRecords) MarkTranscription(_ context.Context, id, status, text string, confidence float64, at *time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rec.TranscriptionStatus = status
	f.rec.TranscriptionText = text
	f.rec.TranscriptionConfidence = confidence
	f.rec.TranscribedAt = at
	return nil
}

func (f *fakeRecords) MarkAnalysisStatus(_ context.Context, id, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rec.AnalysisStatus = status
	return nil
}

func (f *fakeRecords) SaveAssessment(_ context.Context, id string, a *models.RiskAssessment, usedFallback bool, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	risk := string(a.RiskLevel)
	urgency := string(a.UrgencyLevel)
	f.rec.AnalysisStatus = models.StatusCompleted
	f.rec.RiskLevel = &risk
	f.rec.UrgencyLevel = &urgency
	f.rec.Summary = a.Summary
	f.rec.Recommendations = a.Recommendations
	f.rec.UsedFallback = usedFallback
	f.rec.AnalyzedAt = &at
	return nil
}

func (f *fakeRecords) MarkAlert(_ context.Context, id, alertStatus, reason string, at *time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rec.AlertStatus = alertStatus
	f.rec.AlertReason = reason
	f.rec.AlertedAt = at
	return nil
}

type fakeProfiles struct {
	profile *models.Profile
}

func (f *fakeProfiles) GetByUserID(_ context.Context, userID string) (*models.Profile, error) {
	if f.profile == nil {
		return nil, utils.ErrNotFound
	}
	return f.profile, nil
}

func (f *fakeProfiles) Upsert(_ context.Context, p *models.Profile) error {
	f.profile = p
	return nil
}

type fakeStore struct {
	data []byte
	err  error
}

func (f *fakeStore) Download(_ context.Context, _ string) ([]byte, error) {
	return f.data, f.err
}

type fakeSTT struct {
	result stt.Result
	err    error
	calls  int
}

func (f *fakeSTT) Transcribe(_ context.Context, _ []byte, _ string) (stt.Result, error) {
	f.calls++
	return f.result, f.err
}

func (f *fakeSTT) Close() error { return nil }

type fakeClassifier struct {
	byKind map[models.SourceKind]*models.RiskAssessment
	errs   map[models.SourceKind]error
	calls  map[models.SourceKind]int
}

func (f *fakeClassifier) Classify(_ context.Context, _ string, kind models.SourceKind) (*models.RiskAssessment, error) {
	if f.calls == nil {
		f.calls = map[models.SourceKind]int{}
	}
	f.calls[kind]++
	if err := f.errs[kind]; err != nil {
		return nil, err
	}
	if a := f.byKind[kind]; a != nil {
		return a, nil
	}
	return nil, utils.Stage(utils.KindClassification, "bad_response", errors.New("no canned assessment"))
}

type fakeDispatcher struct {
	err   error
	calls int
	last  *models.EmailAlert
}

func (f *fakeDispatcher) Send(_ context.Context, alert *models.EmailAlert) error {
	f.calls++
	f.last = alert
	return f.err
}

// ---------------------------------------------------------------------------
// harness
// ---------------------------------------------------------------------------

func canned(level models.RiskLevel, kind models.SourceKind) *models.RiskAssessment {
	return &models.RiskAssessment{
		RiskLevel:       level,
		UrgencyLevel:    level,
		Summary:         "Canned summary.",
		Recommendations: []string{"rest"},
		SourceKind:      kind,
	}
}

func onboardingJSON(t *testing.T) datatypes.JSON {
	t.Helper()
	raw, err := json.Marshal(&models.OnboardingAnswers{
		SafetyConcerns: "occasional dark thoughts",
		SupportSystem:  "roommate",
		StressLevel:    6,
	})
	require.NoError(t, err)
	return datatypes.JSON(raw)
}

type harness struct {
	records    *fakeRecords
	profiles   *fakeProfiles
	sttp       *fakeSTT
	classifier *fakeClassifier
	dispatcher *fakeDispatcher
	orch       *Orchestrator
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	records := &fakeRecords{rec: &models.AudioRecord{
		ID:                  "rec-1",
		UserID:              "u-1",
		FilePath:            "audio/u-1/rec-1.wav",
		MimeType:            "audio/wav",
		TranscriptionStatus: models.StatusPending,
		AnalysisStatus:      models.StatusPending,
		CreatedAt:           time.Now().UTC(),
	}}
	profiles := &fakeProfiles{profile: &models.Profile{
		UserID:          "u-1",
		FullName:        "Jordan Avery",
		CarePersonEmail: "care@example.com",
		Onboarding:      onboardingJSON(t),
	}}
	sttp := &fakeSTT{result: stt.Result{Text: "I feel fine", Confidence: 0.95}}
	classifier := &fakeClassifier{byKind: map[models.SourceKind]*models.RiskAssessment{}, errs: map[models.SourceKind]error{}}
	dispatcher := &fakeDispatcher{}

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	return &harness{
		records:    records,
		profiles:   profiles,
		sttp:       sttp,
		classifier: classifier,
		dispatcher: dispatcher,
		orch: &Orchestrator{
			Records:       records,
			Profiles:      profiles,
			Store:         &fakeStore{data: []byte("riff-data")},
			STT:           sttp,
			Classifier:    classifier,
			Fallback:      analysis.NewFallbackAnalyzer(classifier),
			Composer:      &alerts.Composer{},
			Dispatcher:    dispatcher,
			MinConfidence: 0.6,
			Logger:        log,
		},
	}
}

// ---------------------------------------------------------------------------
// scenarios
// ---------------------------------------------------------------------------

func TestProcess_criticalRiskAlertsCareTeam(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.sttp.result = stt.Result{Text: "I feel hopeless", Confidence: 0.9}
	h.classifier.byKind[models.SourceTranscript] = canned(models.RiskCritical, models.SourceTranscript)

	require.NoError(t, h.orch.Process(context.Background(), "rec-1"))

	rec := h.records.rec
	assert.Equal(t, models.StatusCompleted, rec.TranscriptionStatus)
	assert.Equal(t, models.StatusCompleted, rec.AnalysisStatus)
	assert.False(t, rec.UsedFallback)
	assert.Equal(t, models.AlertStateAlerted, rec.AlertStatus)
	require.NotNil(t, rec.AlertedAt)

	require.Equal(t, 1, h.dispatcher.calls)
	assert.Contains(t, h.dispatcher.last.Subject, "CRITICAL")
	assert.Equal(t, "care@example.com", h.dispatcher.last.To)
}

func TestProcess_lowConfidenceRoutesToFallback(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.sttp.result = stt.Result{Text: "garbled words", Confidence: 0.2}
	h.classifier.byKind[models.SourceOnboarding] = canned(models.RiskLow, models.SourceOnboarding)

	require.NoError(t, h.orch.Process(context.Background(), "rec-1"))

	rec := h.records.rec
	assert.Equal(t, models.StatusFailed, rec.TranscriptionStatus)
	assert.Equal(t, "garbled words", rec.TranscriptionText, "low-confidence text kept for logging")
	assert.Equal(t, models.StatusCompleted, rec.AnalysisStatus)
	assert.True(t, rec.UsedFallback)
	assert.Equal(t, models.AlertStateSkipped, rec.AlertStatus)
	assert.Equal(t, models.AlertReasonLowRisk, rec.AlertReason)

	assert.Equal(t, 0, h.classifier.calls[models.SourceTranscript], "untrusted transcript must not be classified")
	assert.Equal(t, 1, h.classifier.calls[models.SourceOnboarding])
	assert.Equal(t, 0, h.dispatcher.calls)
}

func TestProcess_transcriptionTimeoutAndNoAnswers(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.sttp.err = context.DeadlineExceeded
	h.profiles.profile.Onboarding = nil

	require.NoError(t, h.orch.Process(context.Background(), "rec-1"))

	rec := h.records.rec
	assert.Equal(t, models.StatusFailed, rec.TranscriptionStatus)
	assert.Equal(t, models.StatusFailed, rec.AnalysisStatus)
	assert.Equal(t, models.AlertStateFallbackFailed, rec.AlertStatus)
	assert.Equal(t, models.AlertReasonNoAssessment, rec.AlertReason)

	assert.Equal(t, 0, h.classifier.calls[models.SourceTranscript])
	assert.Equal(t, 0, h.dispatcher.calls, "no alert is composed when no assessment exists")
}

func TestProcess_classifierFailsFallbackSucceeds(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.classifier.errs[models.SourceTranscript] = utils.Stage(utils.KindClassification, "provider_error", errors.New("503"))
	h.classifier.byKind[models.SourceOnboarding] = canned(models.RiskMedium, models.SourceOnboarding)

	require.NoError(t, h.orch.Process(context.Background(), "rec-1"))

	rec := h.records.rec
	assert.Equal(t, models.StatusCompleted, rec.TranscriptionStatus)
	assert.Equal(t, models.StatusCompleted, rec.AnalysisStatus)
	assert.True(t, rec.UsedFallback)
	require.NotNil(t, rec.RiskLevel)
	assert.Equal(t, "medium", *rec.RiskLevel)
}

func TestProcess_bothPathsFail(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.classifier.errs[models.SourceTranscript] = utils.Stage(utils.KindClassification, "bad_response", errors.New("junk"))
	h.classifier.errs[models.SourceOnboarding] = utils.Stage(utils.KindClassification, "bad_response", errors.New("junk"))

	require.NoError(t, h.orch.Process(context.Background(), "rec-1"))

	rec := h.records.rec
	assert.Equal(t, models.StatusFailed, rec.AnalysisStatus)
	assert.Equal(t, models.AlertStateFallbackFailed, rec.AlertStatus)
	assert.Equal(t, 0, h.dispatcher.calls)
}

func TestProcess_belowHighNeverDispatches(t *testing.T) {
	t.Parallel()

	for _, level := range []models.RiskLevel{models.RiskLow, models.RiskMedium} {
		t.Run(string(level), func(t *testing.T) {
			t.Parallel()

			h := newHarness(t)
			h.classifier.byKind[models.SourceTranscript] = canned(level, models.SourceTranscript)

			require.NoError(t, h.orch.Process(context.Background(), "rec-1"))

			rec := h.records.rec
			assert.Equal(t, models.AlertStateSkipped, rec.AlertStatus)
			assert.Equal(t, models.AlertReasonLowRisk, rec.AlertReason)
			assert.Equal(t, 0, h.dispatcher.calls)
		})
	}
}

func TestProcess_highRiskNoRecipient(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.profiles.profile.CarePersonEmail = ""
	h.profiles.profile.EmergencyContactEmail = ""
	h.classifier.byKind[models.SourceTranscript] = canned(models.RiskHigh, models.SourceTranscript)

	require.NoError(t, h.orch.Process(context.Background(), "rec-1"))

	rec := h.records.rec
	assert.Equal(t, models.AlertStateSkipped, rec.AlertStatus)
	assert.Equal(t, models.AlertReasonNoRecipient, rec.AlertReason)
	assert.Equal(t, 0, h.dispatcher.calls)
}

func TestProcess_dispatchFailureIsTerminalNotFatal(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.classifier.byKind[models.SourceTranscript] = canned(models.RiskHigh, models.SourceTranscript)
	h.dispatcher.err = utils.Stage(utils.KindDelivery, "smtp_error", errors.New("connection refused"))

	require.NoError(t, h.orch.Process(context.Background(), "rec-1"))

	rec := h.records.rec
	assert.Equal(t, models.StatusCompleted, rec.AnalysisStatus)
	assert.Equal(t, models.AlertStateFailed, rec.AlertStatus)
	assert.Equal(t, models.AlertReasonDeliveryFailed, rec.AlertReason)
	assert.Equal(t, 1, h.dispatcher.calls, "exactly one attempt, no retry")
}

func TestProcess_missingRecord(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	err := h.orch.Process(context.Background(), "rec-does-not-exist")
	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.CodeNotFound))
}

func TestProcess_completedAnalysisInvariant(t *testing.T) {
	t.Parallel()

	// analysis completed implies transcription completed or fallback used,
	// across both paths.
	paths := []struct {
		name   string
		setup  func(h *harness)
		wantFB bool
	}{
		{
			name: "transcript path",
			setup: func(h *harness) {
				h.classifier.byKind[models.SourceTranscript] = canned(models.RiskLow, models.SourceTranscript)
			},
			wantFB: false,
		},
		{
			name: "fallback path",
			setup: func(h *harness) {
				h.sttp.err = errors.New("engine unavailable")
				h.classifier.byKind[models.SourceOnboarding] = canned(models.RiskLow, models.SourceOnboarding)
			},
			wantFB: true,
		},
	}

	for _, tt := range paths {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := newHarness(t)
			tt.setup(h)
			require.NoError(t, h.orch.Process(context.Background(), "rec-1"))

			rec := h.records.rec
			require.Equal(t, models.StatusCompleted, rec.AnalysisStatus)
			assert.Equal(t, tt.wantFB, rec.UsedFallback)
			if !rec.UsedFallback {
				assert.Equal(t, models.StatusCompleted, rec.TranscriptionStatus)
			}
		})
	}
}
