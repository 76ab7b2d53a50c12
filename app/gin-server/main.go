package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/havenloop/haven-backend/config"
	"github.com/havenloop/haven-backend/internal/alerts"
	"github.com/havenloop/haven-backend/internal/analysis"
	"github.com/havenloop/haven-backend/internal/api/handlers"
	"github.com/havenloop/haven-backend/internal/api/middleware"
	"github.com/havenloop/haven-backend/internal/api/routes"
	"github.com/havenloop/haven-backend/internal/cache"
	"github.com/havenloop/haven-backend/internal/logger"
	"github.com/havenloop/haven-backend/internal/mailer"
	"github.com/havenloop/haven-backend/internal/models"
	"github.com/havenloop/haven-backend/internal/pipeline"
	"github.com/havenloop/haven-backend/internal/providers/llm"
	"github.com/havenloop/haven-backend/internal/providers/stt"
	pgrepo "github.com/havenloop/haven-backend/internal/repositories/postgres"
	"github.com/havenloop/haven-backend/internal/services"
	"github.com/havenloop/haven-backend/internal/storage"
	"github.com/havenloop/haven-backend/internal/workers"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	l := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := config.InitPostgres(cfg.PostgresURI)
	if err != nil {
		log.Fatalf("PostgreSQL init error: %v", err)
	}
	if err := db.AutoMigrate(&models.Profile{}, &models.AudioRecord{}); err != nil {
		log.Fatalf("migration error: %v", err)
	}
	l.Info("PostgreSQL connected")

	rdb, err := config.InitRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatalf("Redis init error: %v", err)
	}
	l.Info("Redis connected")

	store, err := storage.NewGCSStore(ctx, cfg.Storage.Bucket)
	if err != nil {
		log.Fatalf("GCS init error: %v", err)
	}
	defer store.Close()

	speech, err := stt.NewGoogleSpeech(ctx, cfg.Speech.SampleRateHz, cfg.Speech.LanguageCode, cfg.Pipeline.MaxAudioBytes)
	if err != nil {
		log.Fatalf("Speech init error: %v", err)
	}
	defer speech.Close()

	gemini, err := llm.NewVertexGemini(ctx, cfg.Vertex.ProjectID, cfg.Vertex.Location, cfg.Vertex.Model)
	if err != nil {
		log.Fatalf("Vertex init error: %v", err)
	}
	defer gemini.Close()

	audioRepo := pgrepo.NewAudioRecordRepo(db)
	profileRepo := pgrepo.NewProfileRepo(db)

	classifier := analysis.NewLLMClassifier(gemini, cfg.Pipeline.MinClassifierTokens, l)
	fallback := analysis.NewFallbackAnalyzer(classifier)

	orch := &pipeline.Orchestrator{
		Records:       audioRepo,
		Profiles:      profileRepo,
		Store:         store,
		STT:           speech,
		Classifier:    classifier,
		Fallback:      fallback,
		Composer:      &alerts.Composer{IncludeTranscript: cfg.Pipeline.IncludeTranscript},
		Dispatcher:    mailer.NewSMTPDispatcher(cfg.SMTP),
		MinConfidence: cfg.Pipeline.MinTranscriptionConfidence,
		Timeouts: pipeline.Timeouts{
			Transcribe: cfg.Pipeline.TranscribeTimeout,
			Classify:   cfg.Pipeline.ClassifyTimeout,
			Send:       cfg.Pipeline.SendTimeout,
		},
		Logger: l,
	}

	pool := &workers.AudioWorkerPool{
		Redis:        rdb,
		Orchestrator: orch,
		NumWorkers:   cfg.Pipeline.Workers,
		Logger:       l,
		Stream:       cfg.Pipeline.Stream,
		Group:        cfg.Pipeline.Group,
	}
	if err := pool.Start(ctx); err != nil {
		log.Fatalf("worker pool error: %v", err)
	}

	audioSvc := services.NewAudioService(audioRepo, profileRepo, store, fallback, rdb, cfg.Pipeline.Stream, cfg.Pipeline.MaxAudioBytes, l)
	profileSvc := services.NewProfileService(profileRepo, cache.NewRedisCache(rdb))

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(l))

	routes.RegisterRoutes(r, routes.Deps{
		JWT:     cfg.JWT,
		Audio:   handlers.NewAudioHandler(audioSvc),
		Profile: handlers.NewProfileHandler(profileSvc),
	})

	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
