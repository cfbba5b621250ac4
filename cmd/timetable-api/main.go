package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/nara-edu/timetable-api/api/swagger"
	"github.com/nara-edu/timetable-api/internal/handler"
	"github.com/nara-edu/timetable-api/internal/middleware"
	"github.com/nara-edu/timetable-api/internal/repository"
	"github.com/nara-edu/timetable-api/internal/service"
	"github.com/nara-edu/timetable-api/pkg/cache"
	"github.com/nara-edu/timetable-api/pkg/config"
	"github.com/nara-edu/timetable-api/pkg/database"
	"github.com/nara-edu/timetable-api/pkg/logger"
	corsmiddleware "github.com/nara-edu/timetable-api/pkg/middleware/cors"
	reqidmiddleware "github.com/nara-edu/timetable-api/pkg/middleware/requestid"
	"github.com/nara-edu/timetable-api/pkg/scopelock"
	"github.com/nara-edu/timetable-api/pkg/storage"
)

// @title Timetable API
// @version 0.1.0
// @description School timetabling administration: teaching bindings, capacity validation and schedule preferences
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, capacity cache disabled", "error", err)
		redisClient = nil
	}

	bindingRepo := repository.NewBindingRepository(db)
	orgRepo := repository.NewOrganizationRepository(db)
	planSettingRepo := repository.NewPlanSettingRepository(db)
	periodRepo := repository.NewPeriodRepository(db)
	rosterRepo := repository.NewRosterRepository(db)
	prefRepo := repository.NewSchedulePreferenceRepository(db)
	userRepo := repository.NewUserRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	resolver := service.NewIdentityResolver(orgRepo, rosterRepo, logr)
	capacitySvc := service.NewCapacityService(planSettingRepo, periodRepo, cacheRepo, cfg.Scheduling, metricsSvc, logr)
	workloadSvc := service.NewWorkloadService(bindingRepo, logr)
	validationSvc := service.NewBindingValidationService(resolver, bindingRepo, rosterRepo, workloadSvc, capacitySvc, metricsSvc, logr)
	bindingSvc := service.NewBindingService(bindingRepo, validationSvc, scopelock.NewRegistry(), validate, logr)
	prefSvc := service.NewSchedulePreferenceService(prefRepo, periodRepo, validate, logr)
	exportSvc := service.NewExportService(bindingRepo, logr)

	var archiveSvc *service.ExportArchiveService
	if cfg.Exports.Enabled {
		store, err := storage.NewLocalStorage(cfg.Exports.Dir)
		if err != nil {
			logr.Sugar().Fatalw("failed to prepare exports directory", "error", err)
		}
		signer := storage.NewDownloadSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
		archiveSvc = service.NewExportArchiveService(exportSvc, store, signer, cfg.Exports.RetentionTTL, logr)
		archiveSvc.Start(context.Background())
		defer archiveSvc.Stop()
	}
	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})

	var completer service.Completer
	if c := service.NewHTTPCompleter(cfg.Generator); c != nil {
		completer = c
	}
	generatorSvc := service.NewTimetableGeneratorService(orgRepo, bindingRepo, periodRepo, prefRepo, completer, validate, metricsSvc, logr, cfg.Generator.ProposalTTL)

	authHandler := handler.NewAuthHandler(authSvc)
	bindingHandler := handler.NewBindingHandler(bindingSvc)
	prefHandler := handler.NewSchedulePreferenceHandler(prefSvc)
	capacityHandler := handler.NewCapacityHandler(capacitySvc, workloadSvc)
	exportHandler := handler.NewExportHandler(exportSvc, nil)
	if archiveSvc != nil {
		exportHandler = handler.NewExportHandler(exportSvc, archiveSvc)
	}
	generatorHandler := handler.NewGeneratorHandler(generatorSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)
	if cfg.Exports.Enabled {
		api.GET("/exports/files", exportHandler.Download)
	}

	protected := api.Group("")
	protected.Use(middleware.JWT(authSvc))
	{
		protected.GET("/auth/me", authHandler.Me)

		protected.GET("/bindings", bindingHandler.List)
		protected.POST("/bindings", bindingHandler.Create)
		protected.GET("/bindings/:uuid", bindingHandler.Get)
		protected.PUT("/bindings/:uuid", bindingHandler.Update)
		protected.DELETE("/bindings/:uuid", bindingHandler.Delete)

		protected.GET("/preferences/:ownerKind/:ownerId", prefHandler.List)
		protected.POST("/preferences/:ownerKind/:ownerId", prefHandler.Upsert)
		protected.GET("/preferences/:ownerKind/:ownerId/slot", prefHandler.Get)
		protected.DELETE("/preferences/:ownerKind/:ownerId/slot", prefHandler.Clear)
		protected.POST("/preferences/:ownerKind/:ownerId/defaults", prefHandler.InitializeDefaults)

		protected.GET("/capacity/organizations/:id", capacityHandler.MaxTeachingPeriods)
		protected.POST("/capacity/organizations/:id/refresh", capacityHandler.RefreshOrganization)
		protected.GET("/capacity/plan-settings/:id", capacityHandler.TotalSlots)
		protected.POST("/capacity/plan-settings/:id/refresh", capacityHandler.RefreshPlanSetting)
		protected.GET("/workloads/:kind/:id", capacityHandler.Workload)

		if cfg.Exports.Enabled {
			protected.GET("/exports/bindings", exportHandler.Bindings)
			protected.POST("/exports/bindings/archives", exportHandler.RequestArchive)
			protected.GET("/exports/bindings/archives/:id", exportHandler.ArchiveStatus)
		}

		if cfg.Generator.Enabled {
			protected.POST("/timetables/proposals", middleware.RequireRoles("admin", "scheduler"), generatorHandler.Generate)
			protected.GET("/timetables/proposals/:id", generatorHandler.GetProposal)
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
