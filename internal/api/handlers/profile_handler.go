package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/havenloop/haven-backend/internal/models"
	"github.com/havenloop/haven-backend/internal/services"
	"github.com/havenloop/haven-backend/internal/utils"
)

type ProfileHandler struct {
	svc services.ProfileService
}

func NewProfileHandler(svc services.ProfileService) *ProfileHandler {
	return &ProfileHandler{svc: svc}
}

func (h *ProfileHandler) Me(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	p, err := h.svc.GetMe(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, p)
}

type UpdateProfileRequest struct {
	FullName    *string `json:"full_name,omitempty"`
	PhoneNumber *string `json:"phone_number,omitempty"`

	CarePersonEmail       *string `json:"care_person_email,omitempty"`
	EmergencyContactEmail *string `json:"emergency_contact_email,omitempty"`
}

func (h *ProfileHandler) Update(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "ProfileHandler.Update", "invalid request body", err))
		return
	}

	// Load existing (if not found => create new)
	existing, err := h.svc.GetMe(c.Request.Context(), userID)
	if err != nil {
		if utils.IsCode(err, utils.CodeNotFound) {
			existing = &models.Profile{UserID: userID}
		} else {
			writeError(c, err)
			return
		}
	}

	if req.FullName != nil {
		existing.FullName = *req.FullName
	}
	if req.PhoneNumber != nil {
		existing.PhoneNumber = *req.PhoneNumber
	}
	if req.CarePersonEmail != nil {
		existing.CarePersonEmail = *req.CarePersonEmail
	}
	if req.EmergencyContactEmail != nil {
		existing.EmergencyContactEmail = *req.EmergencyContactEmail
	}

	existing.UpdatedAt = time.Now().UTC()

	if err := h.svc.Upsert(c.Request.Context(), existing); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, existing)
}

func (h *ProfileHandler) SubmitOnboarding(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var answers models.OnboardingAnswers
	if err := c.ShouldBindJSON(&answers); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "ProfileHandler.SubmitOnboarding", "invalid request body", err))
		return
	}

	p, err := h.svc.SubmitOnboarding(c.Request.Context(), userID, &answers)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, p)
}
