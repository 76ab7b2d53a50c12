package handlers

import (
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/havenloop/haven-backend/internal/providers/stt"
	"github.com/havenloop/haven-backend/internal/services"
	"github.com/havenloop/haven-backend/internal/utils"
)

type AudioHandler struct {
	svc services.AudioService
}

func NewAudioHandler(svc services.AudioService) *AudioHandler {
	return &AudioHandler{svc: svc}
}

// Upload accepts a recording, stores it, and kicks off the analysis
// pipeline. The response returns as soon as the record exists; clients poll
// Get for transcription/analysis/alert outcomes.
func (h *AudioHandler) Upload(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "AudioHandler.Upload", "missing multipart field 'file'", err))
		return
	}

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	format := stt.NormalizeFormat(ext)
	if format == "" {
		writeError(c, utils.E(utils.CodeInvalidArgument, "AudioHandler.Upload", "unsupported audio format", nil))
		return
	}

	// Canonical subtype so the pipeline can map it back to an encoding.
	mimeType := "audio/" + format

	duration, _ := strconv.ParseFloat(c.PostForm("duration_seconds"), 64)

	file, err := fh.Open()
	if err != nil {
		writeError(c, utils.E(utils.CodeInternal, "AudioHandler.Upload", "failed to open upload", err))
		return
	}
	defer file.Close()

	rec, err := h.svc.Upload(c.Request.Context(), userID, fh.Filename, mimeType, fh.Size, duration, file)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, rec)
}

func (h *AudioHandler) Get(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	rec, err := h.svc.Get(c.Request.Context(), userID, c.Param("record_id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, rec)
}

func (h *AudioHandler) List(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.Query("limit"))

	rows, err := h.svc.ListByUser(c.Request.Context(), userID, limit)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, rows)
}

// TestOnboardingAnalysis runs the onboarding fallback analyzer directly so
// operators can verify the safety net without uploading audio. Defaults to
// the caller; ?user_id= targets another user.
func (h *AudioHandler) TestOnboardingAnalysis(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	if target := c.Query("user_id"); target != "" {
		userID = target
	}

	a, err := h.svc.RunOnboardingAnalysis(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, a)
}
