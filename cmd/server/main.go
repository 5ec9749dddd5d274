package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/voiceguard/biometric-system/internal/api"
	"github.com/voiceguard/biometric-system/internal/core/domain"
	"github.com/voiceguard/biometric-system/internal/core/scoring"
	"github.com/voiceguard/biometric-system/internal/core/service"
	"github.com/voiceguard/biometric-system/internal/infrastructure/config"
	mongorepo "github.com/voiceguard/biometric-system/internal/infrastructure/db/mongo"
	redisinfra "github.com/voiceguard/biometric-system/internal/infrastructure/db/redis"
	"github.com/voiceguard/biometric-system/internal/infrastructure/model"
	"github.com/voiceguard/biometric-system/internal/infrastructure/worker"
	"github.com/voiceguard/biometric-system/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Get().Fatal().Err(err).Msg("load config")
	}

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Storage ---
	mongoClient, db, err := mongorepo.Connect(ctx, mongorepo.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongo connect")
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			log.Error().Err(err).Msg("mongo disconnect")
		}
	}()

	rdb, err := redisinfra.Connect(ctx, redisinfra.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connect")
	}
	defer rdb.Close()

	// --- Repositories ---
	userRepo := mongorepo.NewUserRepository(db)
	voiceprintRepo := mongorepo.NewVoiceprintRepository(db)
	challengeRepo := mongorepo.NewChallengeRepository(db)
	enrollmentRepo := mongorepo.NewEnrollmentRepository(db)
	auditRepo := mongorepo.NewAuditRepository(db)
	phraseCatalog := mongorepo.NewPhraseCatalog(db)

	for _, idx := range []interface {
		EnsureIndexes(context.Context) error
	}{challengeRepo, enrollmentRepo, auditRepo} {
		if err := idx.EnsureIndexes(ctx); err != nil {
			log.Fatal().Err(err).Msg("ensure indexes")
		}
	}

	// --- Scoring adapters ---
	embedder := model.NewEmbeddingClient(cfg.Models.EmbeddingURL, cfg.Adapters.SpeakerTimeout)
	transcriber := model.NewTranscriberClient(cfg.Models.TranscriberURL, cfg.Adapters.PhraseTimeout)

	speaker := scoring.NewCosineSpeakerRecognizer(embedder,
		domain.ModelRef{Name: "ecapa-tdnn", Version: "v3"})

	antispoof, err := scoring.NewWeightedAntiSpoof(
		[]scoring.SpoofModel{
			model.NewSpoofClient(cfg.Models.SpoofPrimary, "aasist", cfg.Adapters.SpoofTimeout),
			model.NewSpoofClient(cfg.Models.SpoofSecondary, "rawnet", cfg.Adapters.SpoofTimeout),
		},
		cfg.Adapters.SpoofWeights,
		[]scoring.Indicator{
			scoring.LowSNRIndicator(cfg.Adapters.SampleRate, cfg.Enrollment.MinSNRDb),
			scoring.SpectralArtifactIndicator(0.02, 0.35),
			scoring.BackgroundNoiseIndicator(cfg.Adapters.SampleRate, 0.05),
		},
		cfg.Adapters.IndicatorQuorum,
		domain.ModelRef{Name: "antispoof-ensemble", Version: "v2"},
		log,
	)
	if err != nil {
		log.Fatal().Err(err).Msg("build anti-spoof ensemble")
	}

	phraseVerifier := scoring.NewTranscriptPhraseVerifier(transcriber,
		domain.ModelRef{Name: "whisper-small", Version: "v1"})

	qualityChecker := scoring.NewPCMQualityChecker(cfg.Adapters.SampleRate)

	// --- Services ---
	engine, err := service.NewPolicyEngine(cfg.Policy.CheckOrder)
	if err != nil {
		log.Fatal().Err(err).Msg("build policy engine")
	}

	limiter := redisinfra.NewChallengeLimiter(rdb, cfg.Challenge.PerWindowLimit, time.Hour)

	challengeService := service.NewChallengeService(challengeRepo, phraseCatalog, limiter,
		service.ChallengePolicy{
			TTL:             cfg.Challenge.TTL,
			ExclusionWindow: cfg.Challenge.ExclusionWindow,
			MaxActive:       cfg.Challenge.MaxActive,
			Difficulty:      cfg.Challenge.Difficulty,
		}, log)

	enrollmentService := service.NewEnrollmentService(enrollmentRepo, userRepo, voiceprintRepo,
		challengeRepo, challengeService, qualityChecker, embedder,
		service.EnrollmentPolicy{
			SessionTTL:         cfg.Enrollment.SessionTTL,
			MinSNRDb:           cfg.Enrollment.MinSNRDb,
			MinDuration:        cfg.Enrollment.MinDuration,
			DefaultTargetCount: cfg.Enrollment.TargetSamples,
			MaxTargetCount:     cfg.Enrollment.MaxSamples,
		}, log)

	auditService := service.NewAuditService(auditRepo, log)

	verificationService := service.NewVerificationService(userRepo, voiceprintRepo, challengeRepo,
		speaker, antispoof, phraseVerifier, engine, auditService,
		service.VerificationPolicy{
			Thresholds: service.Thresholds{
				Similarity: cfg.Policy.SimilarityThreshold,
				Spoof:      cfg.Policy.SpoofThreshold,
				Phrase:     cfg.Policy.PhraseThreshold,
			},
			Timeouts: service.AdapterTimeouts{
				Speaker: cfg.Adapters.SpeakerTimeout,
				Spoof:   cfg.Adapters.SpoofTimeout,
				Phrase:  cfg.Adapters.PhraseTimeout,
			},
			MaxFailures: cfg.Policy.MaxFailures,
			Lockout:     cfg.Policy.Lockout,
		}, log)

	// --- Background workers ---
	sweeper := worker.NewSweeper(enrollmentService, cfg.Enrollment.SweepInterval, log)
	sweeper.Start(ctx)

	// --- HTTP ---
	e := api.NewRouter(db, rdb, cfg.JWTSecret, api.RouterDeps{
		Challenges:   challengeService,
		Enrollment:   enrollmentService,
		Verification: verificationService,
		Audit:        auditService,
	}, log)

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
		os.Exit(1)
	}
}
