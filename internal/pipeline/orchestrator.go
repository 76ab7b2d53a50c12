package pipeline

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/havenloop/haven-backend/internal/alerts"
	"github.com/havenloop/haven-backend/internal/analysis"
	"github.com/havenloop/haven-backend/internal/mailer"
	"github.com/havenloop/haven-backend/internal/models"
	"github.com/havenloop/haven-backend/internal/providers/stt"
	pgrepo "github.com/havenloop/haven-backend/internal/repositories/postgres"
	"github.com/havenloop/haven-backend/internal/storage"
	"github.com/havenloop/haven-backend/internal/utils"
	"github.com/sirupsen/logrus"
)

// Timeouts bound each external call independently. A timed-out call is a
// stage failure, never a fatal fault.
type Timeouts struct {
	Transcribe time.Duration
	Classify   time.Duration
	Send       time.Duration
}

func (t Timeouts) withDefaults() Timeouts {
	if t.Transcribe <= 0 {
		t.Transcribe = 60 * time.Second
	}
	if t.Classify <= 0 {
		t.Classify = 45 * time.Second
	}
	if t.Send <= 0 {
		t.Send = 20 * time.Second
	}
	return t
}

// Orchestrator runs one uploaded recording through
// transcribe -> classify -> (fallback) -> compose -> dispatch,
// persisting a status transition at every stage. Stage failures are
// converted into transitions; Process only fails on infrastructure errors
// (missing record, storage/db unavailable at the first read).
type Orchestrator struct {
	Records  pgrepo.AudioRecordRepository
	Profiles pgrepo.ProfileRepository
	Store    storage.Downloader

	STT        stt.Provider
	Classifier analysis.Classifier
	Fallback   *analysis.FallbackAnalyzer
	Composer   *alerts.Composer
	Dispatcher mailer.Dispatcher

	// Transcripts below this confidence route to onboarding fallback; the
	// text is kept on the record for logging but not trusted for scoring.
	MinConfidence float64
	Timeouts      Timeouts

	Logger *logrus.Logger
}

func (o *Orchestrator) Process(ctx context.Context, recordID string) error {
	const op = "Orchestrator.Process"

	rec, err := o.Records.GetByID(ctx, recordID)
	if err != nil {
		return utils.E(utils.CodeNotFound, op, "audio record not found", err)
	}

	log := o.Logger.WithFields(logrus.Fields{
		"record_id": rec.ID,
		"user_id":   rec.UserID,
	})

	profile, err := o.Profiles.GetByUserID(ctx, rec.UserID)
	if err != nil {
		// No profile means no onboarding answers and no recipient; the
		// pipeline still runs the transcript path.
		profile = nil
		log.WithError(err).Debug("no profile for record owner")
	}

	transcript, transcriptOK := o.transcribe(ctx, rec, log)

	assessment, usedFallback := o.analyze(ctx, rec, profile, transcript, transcriptOK, log)
	if assessment == nil {
		// Both the transcript path and the onboarding fallback failed.
		_ = o.Records.MarkAlert(ctx, rec.ID, models.AlertStateFallbackFailed, models.AlertReasonNoAssessment, nil)
		log.Warn("no risk assessment produced; alerting skipped")
		return nil
	}

	now := time.Now().UTC()
	if err := o.Records.SaveAssessment(ctx, rec.ID, assessment, usedFallback, now); err != nil {
		log.WithError(err).Error("failed to persist assessment")
	}

	o.alert(ctx, rec, profile, assessment, transcript, log)
	return nil
}

// transcribe runs the transcription stage. Returns the transcript text and
// whether it is trustworthy for risk scoring.
func (o *Orchestrator) transcribe(ctx context.Context, rec *models.AudioRecord, log *logrus.Entry) (string, bool) {
	_ = o.Records.MarkTranscription(ctx, rec.ID, models.StatusProcessing, "", 0, nil)

	audio, err := o.Store.Download(ctx, rec.FilePath)
	if err != nil {
		log.WithError(err).Error("audio download failed")
		_ = o.Records.MarkTranscription(ctx, rec.ID, models.StatusFailed, "", 0, nil)
		return "", false
	}

	tctx, cancel := context.WithTimeout(ctx, o.Timeouts.withDefaults().Transcribe)
	defer cancel()

	res, err := o.STT.Transcribe(tctx, audio, formatHint(rec.MimeType))
	if err != nil {
		log.WithError(err).Error("transcription failed")
		_ = o.Records.MarkTranscription(ctx, rec.ID, models.StatusFailed, "", 0, nil)
		return "", false
	}

	if res.Confidence < o.MinConfidence {
		// Low confidence is treated like failure, but the text is kept.
		log.WithFields(logrus.Fields{
			"confidence": res.Confidence,
			"threshold":  o.MinConfidence,
		}).Warn("transcription confidence below threshold")
		_ = o.Records.MarkTranscription(ctx, rec.ID, models.StatusFailed, res.Text, res.Confidence, nil)
		return res.Text, false
	}

	now := time.Now().UTC()
	_ = o.Records.MarkTranscription(ctx, rec.ID, models.StatusCompleted, res.Text, res.Confidence, &now)
	return res.Text, true
}

// analyze runs classification over the transcript, falling back to the
// onboarding answers when the transcript path is unavailable. A nil return
// means no assessment could be produced at all.
func (o *Orchestrator) analyze(ctx context.Context, rec *models.AudioRecord, profile *models.Profile, transcript string, transcriptOK bool, log *logrus.Entry) (*models.RiskAssessment, bool) {
	_ = o.Records.MarkAnalysisStatus(ctx, rec.ID, models.StatusProcessing)

	if transcriptOK {
		cctx, cancel := context.WithTimeout(ctx, o.Timeouts.withDefaults().Classify)
		a, err := o.Classifier.Classify(cctx, transcript, models.SourceTranscript)
		cancel()
		if err == nil {
			return a, false
		}
		log.WithError(err).Error("transcript classification failed")
	}

	// Fallback path: the onboarding questionnaire is the remaining signal.
	answers := onboardingAnswers(profile)
	cctx, cancel := context.WithTimeout(ctx, o.Timeouts.withDefaults().Classify)
	defer cancel()

	a, err := o.Fallback.AnalyzeOnboarding(cctx, answers)
	if err != nil {
		log.WithError(err).WithField("reason", utils.StageReason(err)).Error("onboarding fallback failed")
		_ = o.Records.MarkAnalysisStatus(ctx, rec.ID, models.StatusFailed)
		return nil, false
	}
	return a, true
}

// alert applies the dispatch policy: send only at high or above, and only
// when a deliverable recipient exists.
func (o *Orchestrator) alert(ctx context.Context, rec *models.AudioRecord, profile *models.Profile, a *models.RiskAssessment, transcript string, log *logrus.Entry) {
	if !a.RiskLevel.AtLeast(models.RiskHigh) {
		_ = o.Records.MarkAlert(ctx, rec.ID, models.AlertStateSkipped, models.AlertReasonLowRisk, nil)
		return
	}

	alert := o.Composer.Compose(a, profile, transcript)
	if !alert.HasRecipient() {
		log.Warn("elevated risk but no care person or emergency contact on file")
		_ = o.Records.MarkAlert(ctx, rec.ID, models.AlertStateSkipped, models.AlertReasonNoRecipient, nil)
		return
	}

	sctx, cancel := context.WithTimeout(ctx, o.Timeouts.withDefaults().Send)
	defer cancel()

	if err := o.Dispatcher.Send(sctx, alert); err != nil {
		log.WithError(err).Error("alert delivery failed")
		_ = o.Records.MarkAlert(ctx, rec.ID, models.AlertStateFailed, models.AlertReasonDeliveryFailed, nil)
		return
	}

	now := time.Now().UTC()
	_ = o.Records.MarkAlert(ctx, rec.ID, models.AlertStateAlerted, "", &now)
	log.WithFields(logrus.Fields{
		"risk_level":     a.RiskLevel,
		"recipient_type": alert.RecipientType,
		"alert_type":     alert.Type,
	}).Info("care alert dispatched")
}

func onboardingAnswers(profile *models.Profile) *models.OnboardingAnswers {
	if profile == nil || len(profile.Onboarding) == 0 {
		return nil
	}
	var answers models.OnboardingAnswers
	if err := json.Unmarshal(profile.Onboarding, &answers); err != nil {
		return nil
	}
	return &answers
}

// formatHint extracts the stt format hint from a stored mime type,
// ex: "audio/wav" -> "wav".
func formatHint(mimeType string) string {
	if i := strings.LastIndex(mimeType, "/"); i >= 0 {
		return mimeType[i+1:]
	}
	return mimeType
}
