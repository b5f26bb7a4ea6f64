package main

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/fx"

	"carbon-admin-console/config"
	"carbon-admin-console/database"
	_ "carbon-admin-console/docs"
	"carbon-admin-console/internal/controller"
	"carbon-admin-console/internal/elasticsearch"
	"carbon-admin-console/internal/kafka"
	"carbon-admin-console/internal/metrics"
	"carbon-admin-console/internal/middleware"
	"carbon-admin-console/internal/repository"
	"carbon-admin-console/internal/scheduler"
	"carbon-admin-console/internal/service"
	"carbon-admin-console/internal/timescaledb"
)

// @title           Admin Log Console API
// @version         1.0
// @description     Search, export and inspect the platform's system, audit, error and LLM logs.

// @host      localhost:8080
// @BasePath  /
// @schemes   http https

// @tag.name         logs
// @tag.description  Log search, listing, related records and export

// @tag.name         llm-usage
// @tag.description  LLM call aggregates

// @tag.name         columns
// @tag.description  Per-admin visible columns

// @tag.name         tools
// @tag.description  Audit diff and JSON tree rendering

// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Enter the token with the `Bearer ` prefix, e.g. "Bearer abcde12345".

func main() {
	var wg sync.WaitGroup

	app := fx.New(
		// Core Dependencies
		fx.Provide(
			config.NewConfig,
		),
		// Infrastructure Dependencies
		fx.Provide(
			database.NewDB,
			NewGinEngine,
			NewRateLimiter,
			elasticsearch.NewClients,
			elasticsearch.NewRecordStore,
			elasticsearch.NewElasticsearchLogRepository,
			fx.Annotate(elasticsearch.NewIndexJanitor, fx.As(new(scheduler.RetentionJob))),
			timescaledb.ProvideTimescaleDBPool,
			timescaledb.NewTimescaleUsageRepository,
			repository.NewColumnRepository,
			kafka.NewKafkaLogConsumer,
			metrics.NewUsageExtractor,
		),
		// Services and controllers
		fx.Provide(
			service.NewLogQueryService,
			service.NewLLMUsageService,
			service.NewColumnsService,
			service.NewToolsService,
			service.NewIngestService,
			controller.NewLogController,
			controller.NewLLMUsageController,
			controller.NewColumnsController,
			controller.NewToolsController,
		),
		fx.Invoke(
			RegisterAPIRoutes,
			RegisterScheduler,
			func(lc fx.Lifecycle, ingest service.IngestService) {
				startIngest(lc, &wg, ingest)
			},
		),
	)

	startCtx, cancelStart := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStart()
	if err := app.Start(startCtx); err != nil {
		log.Fatal().Err(err).Msg("Failed to start application")
	}
	<-app.Done()

	stopCtx, cancelStop := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStop()
	log.Info().Msg("Shutting down application...")
	if err := app.Stop(stopCtx); err != nil {
		log.Error().Err(err).Msg("Forced shutdown due to error or timeout")
	}

	log.Info().Msg("Waiting for background goroutines to finish...")
	wg.Wait()
	log.Info().Msg("All background processes finished. Exiting.")
}

func NewGinEngine() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Accept-Language", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return r
}

// NewRateLimiter returns nil when REDIS_URL is unset, which disables the
// limit.
func NewRateLimiter(lc fx.Lifecycle, cfg *config.Config) (*middleware.RateLimiter, error) {
	if cfg.RateLimit.RedisURL == "" {
		log.Info().Msg("REDIS_URL not set, admin API rate limiting disabled")
		return nil, nil
	}
	rl, err := middleware.NewRateLimiter(cfg.RateLimit.RedisURL)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return rl.Close()
		},
	})
	return rl, nil
}

func RegisterAPIRoutes(
	lifecycle fx.Lifecycle,
	router *gin.Engine,
	cfg *config.Config,
	limiter *middleware.RateLimiter,
	logController *controller.LogController,
	usageController *controller.LLMUsageController,
	columnsController *controller.ColumnsController,
	toolsController *controller.ToolsController,
) {
	admin := router.Group("/api/v1/admin",
		middleware.Auth(cfg.Auth.JWTSecret),
		middleware.RequireAdmin(),
		middleware.RateLimit(limiter, cfg.RateLimit.PerMinute, time.Minute),
	)
	controller.RegisterLogRoutes(admin, logController)
	controller.RegisterLLMUsageRoutes(admin, usageController)
	controller.RegisterColumnsRoutes(admin, columnsController)
	controller.RegisterToolsRoutes(admin, toolsController)

	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}
	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info().Msgf("Starting HTTP server on port %s", cfg.Server.Port)
			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Error().Err(err).Msg("HTTP server ListenAndServe error")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("Shutting down HTTP server...")
			return server.Shutdown(ctx)
		},
	})
}

func RegisterScheduler(lc fx.Lifecycle, cfg *config.Config, job scheduler.RetentionJob) error {
	_, err := scheduler.NewScheduler(lc, cfg, job)
	return err
}

// startIngest runs the ingest loop in a goroutine tied to the fx lifecycle.
func startIngest(lc fx.Lifecycle, wg *sync.WaitGroup, ingest service.IngestService) {
	ctx, cancel := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			log.Info().Msg("Starting ingest goroutine")
			wg.Add(1)
			go ingest.Run(ctx, wg)
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			log.Info().Msg("Signaling ingest goroutine to stop...")
			cancel()
			return nil
		},
	})
}
