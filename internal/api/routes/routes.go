package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/havenloop/haven-backend/config"
	"github.com/havenloop/haven-backend/internal/api/handlers"
	"github.com/havenloop/haven-backend/internal/api/middleware"
)

type Deps struct {
	JWT     config.JWTConfig
	Audio   *handlers.AudioHandler
	Profile *handlers.ProfileHandler
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	// Health-ish
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	// Protected routes (JWT)
	auth := r.Group("/")
	auth.Use(middleware.JWTAuth(d.JWT))

	auth.POST("/audio/upload", d.Audio.Upload)
	auth.GET("/audio/:record_id", d.Audio.Get)
	auth.GET("/audio", d.Audio.List)

	auth.GET("/profile/me", d.Profile.Me)
	auth.PUT("/profile/update", d.Profile.Update)
	auth.POST("/profile/onboarding", d.Profile.SubmitOnboarding)

	// Ops verification of the fallback analyzer
	auth.POST("/audio/test/onboarding-analysis", middleware.RequireAdmin(), d.Audio.TestOnboardingAnalysis)
}
