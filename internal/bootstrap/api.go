package bootstrap

import (
	"strings"

	apihttp "leadflow/adapter/in/http"
	"leadflow/config"
	"leadflow/infra/middleware"
	"leadflow/pkg/logger"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

func NewAPI(cfg *config.Config) (*fiber.App, func(), error) {
	logLevel := logger.LevelInfo
	if cfg.IsDevelopment() {
		logLevel = logger.LevelDebug
	}
	logger.Init(logger.Config{
		Level:   logLevel,
		Service: "leadflow-api",
	})

	deps, cleanup, err := NewDependencies(cfg)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize dependencies")
		return nil, nil, err
	}

	middleware.InitTokenBlacklist(deps.Redis)

	app := fiber.New(fiber.Config{
		ErrorHandler:          middleware.ErrorHandler(),
		DisableStartupMessage: cfg.IsProduction(),
		StrictRouting:         false,
		CaseSensitive:         false,

		ReadBufferSize:  16384,
		WriteBufferSize: 16384,

		// go-json is drop-in and measurably faster than encoding/json
		JSONEncoder: json.Marshal,
		JSONDecoder: json.Unmarshal,

		BodyLimit: 5 * 1024 * 1024,
	})

	// Global middleware stack (order matters)
	app.Use(middleware.Recover())
	app.Use(middleware.RequestID())
	app.Use(middleware.SecurityHeaders())
	app.Use(middleware.RequestLogger())

	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	// CORS: credentials require explicit origins, never "*"
	allowOrigins := strings.Join(cfg.AllowedOrigins, ",")
	allowCredentials := true
	if allowOrigins == "" || allowOrigins == "*" {
		if cfg.IsProduction() {
			allowOrigins = ""
			allowCredentials = false
		} else {
			allowOrigins = "http://localhost:3000,http://localhost:5173"
		}
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowOrigins,
		AllowMethods:     "GET,POST,PUT,DELETE,PATCH,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept,Authorization,X-Request-ID",
		ExposeHeaders:    "X-Request-ID",
		AllowCredentials: allowCredentials,
		MaxAge:           86400,
	}))

	// Health check (no auth required)
	healthHandler := apihttp.NewHealthHandler(deps.DB, deps.Redis, deps.MongoDB)
	healthHandler.Register(app)

	// API routes (with auth)
	api := app.Group("/api/v1")
	api.Use(middleware.JWTAuth(cfg.JWTSecret))

	leadHandler := apihttp.NewLeadHandler(deps.LeadRepo, deps.RunRepo, deps.ActivityRepo, deps.Orchestrator)
	leadHandler.Register(api)

	draftHandler := apihttp.NewDraftHandler(deps.DraftRepo, deps.ActivityRepo, deps.Machine)
	draftHandler.Register(api)

	outcomeHandler := apihttp.NewOutcomeHandler(deps.Machine, cfg.NoResponseDays)
	outcomeHandler.Register(api)

	replyHandler := apihttp.NewReplyHandler(deps.ReplyService)
	replyHandler.Register(api)

	settingsHandler := apihttp.NewSettingsHandler(deps.ConfigRepo)
	settingsHandler.Register(api)

	// Background no-response sweeper
	sweeper := NewSweeper(deps.Machine, cfg.NoResponseDays)
	sweeper.Start()
	stopAll := func() {
		sweeper.Stop()
		cleanup()
	}

	return app, stopAll, nil
}
