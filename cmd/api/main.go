package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/evidence-builder-api/internal/config"
	"github.com/noah-isme/evidence-builder-api/internal/database"
	"github.com/noah-isme/evidence-builder-api/internal/handler"
	"github.com/noah-isme/evidence-builder-api/internal/middleware"
	"github.com/noah-isme/evidence-builder-api/internal/repository"
	"github.com/noah-isme/evidence-builder-api/internal/router"
	"github.com/noah-isme/evidence-builder-api/internal/service"
	cloud "github.com/noah-isme/evidence-builder-api/pkg/cloudinary"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "evidence-builder-api").Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}
	if cfg.AppEnv == "production" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := database.Migrate(db); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate database")
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to redis")
	}
	if redisClient == nil {
		logger.Warn().Msg("redis not configured; results cache, leaderboard set and shared question views disabled")
	}

	natsConn, err := database.ConnectNATS(cfg.NATSURL, cfg.AppName, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to nats")
	}

	var storage service.FileStorage
	cloudCfg := cloud.Config{
		CloudName: cfg.CloudinaryCloudName,
		APIKey:    cfg.CloudinaryAPIKey,
		APISecret: cfg.CloudinaryAPISecret,
		Folder:    cfg.CloudinaryUploadFolder,
	}
	if cloudCfg.Configured() {
		store, err := cloud.New(cloudCfg, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to create cloudinary client")
		}
		storage = store
	} else {
		logger.Warn().Msg("cloudinary not configured; task image uploads disabled")
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	sourceRepo := repository.NewSourceRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	quizRepo := repository.NewQuizRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	playRepo := repository.NewPlayRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)

	activityService := service.NewActivityService(activityRepo, logger)

	var uploadService service.UploadService
	if storage != nil {
		uploadService = service.NewUploadService(storage, repository.NewUploadRepository(db), cfg.UploadMaxSizeMB, logger)
	}

	var views service.ViewStore
	if redisClient != nil {
		views = service.NewRedisViewStore(redisClient)
	}

	sourceService := service.NewSourceService(sourceRepo, validate, activityService, logger)
	taskService := service.NewTaskService(taskRepo, sourceRepo, uploadService, validate, activityService, logger)
	quizService := service.NewQuizService(quizRepo, taskRepo, sourceRepo, validate, activityService, logger)
	sessionService := service.NewSessionService(sessionRepo, quizRepo, validate, activityService, logger)
	resultsService := service.NewResultsService(sessionRepo, quizRepo, playRepo, redisClient, cfg.ResultsCacheTTL, logger)
	playService := service.NewPlayService(service.PlayDependencies{
		Sessions:  sessionRepo,
		Quizzes:   quizRepo,
		Sources:   sourceRepo,
		Plays:     playRepo,
		Views:     views,
		Results:   resultsService,
		Events:    service.NewPlayEventPublisher(redisClient, cfg.EventsChannel, natsConn, logger),
		Validator: validate,
		ViewTTL:   cfg.PlayViewTTL,
	}, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    (cfg.UploadMaxSizeMB + 1) * 1024 * 1024,
	})

	middleware.Register(app, middleware.Config{Logger: &logger, AllowOrigins: cfg.CORSOrigins})
	router.Register(app, cfg, router.Dependencies{
		SourceHandler:   handler.NewSourceHandler(sourceService, logger),
		TaskHandler:     handler.NewTaskHandler(taskService, logger),
		QuizHandler:     handler.NewQuizHandler(quizService, logger),
		SessionHandler:  handler.NewSessionHandler(sessionService, logger),
		ResultsHandler:  handler.NewResultsHandler(resultsService, logger),
		ActivityHandler: handler.NewActivityHandler(activityService, logger),
		PlayHandler:     handler.NewPlayHandler(playService, logger),
		JWTMiddleware:   middleware.JWTProtected(cfg.JWTSecret),
		PlayRateLimiter: middleware.RateLimit("play", cfg.PlayRateLimit, cfg.PlayRateWindow),
		HealthChecks:    healthChecks(db, redisClient, natsConn),
	})

	go func() {
		logger.Info().Str("addr", cfg.HTTPAddress()).Msg("http server listening")
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	waitForShutdown(app, logger, redisClient, natsConn)
}

func healthChecks(db *gorm.DB, redisClient *redis.Client, natsConn *nats.Conn) []handler.HealthDependency {
	checks := []handler.HealthDependency{{
		Name: "database",
		Check: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}}
	if redisClient != nil {
		checks = append(checks, handler.HealthDependency{
			Name:  "redis",
			Check: func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		})
	}
	if natsConn != nil {
		checks = append(checks, handler.HealthDependency{
			Name: "nats",
			Check: func(context.Context) error {
				if !natsConn.IsConnected() {
					return errors.New("nats " + natsConn.Status().String())
				}
				return nil
			},
		})
	}
	return checks
}

func waitForShutdown(app *fiber.App, logger zerolog.Logger, redisClient *redis.Client, natsConn *nats.Conn) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
	if natsConn != nil {
		if err := natsConn.Drain(); err != nil {
			logger.Warn().Err(err).Msg("nats drain failed")
		}
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}

	logger.Info().Msg("server stopped")
}
