// Package bootstrap assembles the application: stores, services, HTTP API,
// and the background sweeper.
package bootstrap

import (
	"context"
	"fmt"

	"leadflow/adapter/out/mongodb"
	"leadflow/adapter/out/persistence"
	"leadflow/config"
	"leadflow/core/agent/llm"
	"leadflow/core/port/out"
	"leadflow/core/service/draft"
	"leadflow/core/service/outcome"
	"leadflow/core/service/pipeline"
	"leadflow/core/service/reply"
	"leadflow/core/service/scoring"
	"leadflow/infra/database"
	"leadflow/pkg/lock"
	"leadflow/pkg/logger"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

// Dependencies holds every wired component of the application.
type Dependencies struct {
	Config *config.Config

	// Infrastructure
	DB      *pgxpool.Pool
	SQLDB   *sqlx.DB
	Redis   *redis.Client
	MongoDB *mongo.Client

	// Repositories
	LeadRepo     out.LeadRepository
	RunRepo      out.PipelineRunRepository
	DraftRepo    out.EmailDraftRepository
	StageRepo    out.OutcomeStageRepository
	ReplyRepo    out.ReplyClassificationRepository
	ConfigRepo   out.ScoringConfigRepository
	ActivityRepo out.ActivityWriter
	RunGuard     out.RunGuard

	// Model (nil when no API key is configured; services fall back to rules)
	Model out.StructuredModel

	// Services
	ScoringEngine *scoring.Engine
	Learner       *scoring.Learner
	Generator     *draft.Generator
	Machine       *outcome.Machine
	ReplyService  *reply.Service
	Orchestrator  *pipeline.Orchestrator
}

func NewDependencies(cfg *config.Config) (*Dependencies, func(), error) {
	deps := &Dependencies{Config: cfg}
	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.MongoDBURL == "" {
		return nil, nil, fmt.Errorf("MONGODB_URL is required")
	}

	// Database (pgxpool, for health checks and pool stats)
	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("postgres connection failed: %w", err)
	}
	deps.DB = db
	cleanups = append(cleanups, func() { db.Close() })

	// Database (sqlx, for the repository adapters)
	sqlDB, err := database.NewSQLX(cfg.DatabaseURL)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("sqlx connection failed: %w", err)
	}
	deps.SQLDB = sqlDB
	cleanups = append(cleanups, func() { sqlDB.Close() })

	// Redis (optional: run guard falls back to in-process)
	if cfg.RedisURL != "" {
		redisClient, err := database.NewRedis(cfg.RedisURL)
		if err != nil {
			logger.WithError(err).Warn("Redis connection failed, using in-process run guard")
		} else {
			deps.Redis = redisClient
			cleanups = append(cleanups, func() { redisClient.Close() })
		}
	}
	if deps.Redis != nil {
		deps.RunGuard = lock.NewRedisGuard(deps.Redis, cfg.RunLockTTL)
	} else {
		deps.RunGuard = lock.NewMemoryGuard()
	}

	// MongoDB (activity log)
	mongoClient, err := mongodb.NewClient(cfg.MongoDBURL)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("mongodb connection failed: %w", err)
	}
	deps.MongoDB = mongoClient
	cleanups = append(cleanups, func() {
		mongoClient.Disconnect(context.Background())
	})

	activityAdapter := mongodb.NewActivityAdapter(mongoClient.Database(cfg.MongoDBName))
	if err := activityAdapter.EnsureIndexes(context.Background()); err != nil {
		logger.WithError(err).Warn("Failed to ensure activity log indexes")
	}
	deps.ActivityRepo = activityAdapter

	// Repositories (PostgreSQL)
	deps.LeadRepo = persistence.NewLeadAdapter(sqlDB)
	deps.RunRepo = persistence.NewPipelineRunAdapter(sqlDB)
	deps.DraftRepo = persistence.NewEmailDraftAdapter(sqlDB)
	deps.StageRepo = persistence.NewOutcomeStageAdapter(sqlDB)
	deps.ReplyRepo = persistence.NewReplyClassificationAdapter(sqlDB)
	deps.ConfigRepo = persistence.NewScoringConfigAdapter(sqlDB)

	// Structured model
	if cfg.HasLLM() {
		deps.Model = llm.NewClient(llm.ClientConfig{
			APIKey:      cfg.OpenAIAPIKey,
			Model:       cfg.LLMModel,
			MaxTokens:   cfg.LLMMaxTokens,
			Temperature: cfg.LLMTemperature,
			Timeout:     cfg.LLMTimeout,
		})
		logger.Info("Structured model enabled: %s", cfg.LLMModel)
	} else {
		logger.Info("No model credential configured, using rule-based paths only")
	}

	// Services
	deps.ScoringEngine = scoring.NewEngine(deps.Model)
	deps.Learner = scoring.NewLearner(deps.ConfigRepo, cfg.LearningAlpha, cfg.LearningScale)
	deps.Generator = draft.NewGenerator(deps.Model)
	deps.Machine = outcome.NewMachine(deps.LeadRepo, deps.StageRepo, deps.ActivityRepo, deps.Learner)
	deps.ReplyService = reply.NewService(deps.LeadRepo, deps.ReplyRepo, deps.ActivityRepo, deps.Machine, deps.Model, cfg.ConfidenceFloor)
	deps.Orchestrator = pipeline.NewOrchestrator(
		deps.LeadRepo,
		deps.RunRepo,
		deps.DraftRepo,
		deps.ActivityRepo,
		deps.ConfigRepo,
		deps.RunGuard,
		deps.ScoringEngine,
		deps.Generator,
		pipeline.Options{
			BulkBatchSize:   cfg.BulkBatchSize,
			TraceMaxTextLen: cfg.TraceMaxTextLen,
		},
	)

	return deps, cleanup, nil
}
