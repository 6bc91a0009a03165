package app

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "metrika/docs"
	"metrika/internal/config"
	"metrika/internal/db"
	"metrika/internal/handlers"
	"metrika/internal/logger"
	"metrika/internal/metrics"
	"metrika/internal/middleware"
	"metrika/internal/pdf"
	"metrika/internal/realtime"
	"metrika/internal/repositories"
	"metrika/internal/routes"
	"metrika/internal/search"
	"metrika/internal/services"
	"metrika/internal/storage"
)

func Run() {
	cfg := config.LoadConfig()
	logger.Init(cfg.Log)
	middleware.JWTKey = []byte(cfg.JWT.Secret)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// === DB ===
	conn, err := db.Open(ctx, cfg.Database.DSN)
	if err != nil {
		log.Fatal("Ошибка подключения к БД: ", err)
	}
	defer func() {
		if err := conn.Close(); err != nil {
			log.Printf("Ошибка закрытия БД: %v", err)
		}
	}()
	if err := db.Migrate(ctx, conn); err != nil {
		log.Fatal("Ошибка миграции: ", err)
	}

	metrics.Register()

	// === Infra ===
	blobs, err := storage.New(ctx, cfg.Storage, cfg.Files.RootDir)
	if err != nil {
		log.Fatal("Ошибка хранилища файлов: ", err)
	}
	var index search.Index
	if cfg.Search.ElasticURL != "" {
		es, err := search.NewElasticIndex(ctx, cfg.Search.ElasticURL, cfg.Search.IndexPrefix)
		if err != nil {
			// поиск продолжит работать через Postgres
			slog.Warn("elasticsearch unavailable, using postgres search", "err", err)
		} else {
			index = es
		}
	}

	// === Repos ===
	userRepo := repositories.NewUserRepository(conn)
	projectRepo := repositories.NewProjectRepository(conn)
	taskRepo := repositories.NewTaskRepository(conn)
	sprintRepo := repositories.NewSprintRepository(conn)
	documentRepo := repositories.NewDocumentRepository(conn)
	analysisRepo := repositories.NewAnalysisRepository(conn)
	activityRepo := repositories.NewActivityRepository(conn)
	notificationRepo := repositories.NewNotificationRepository(conn)
	goalRepo := repositories.NewGoalRepository(conn)
	calendarRepo := repositories.NewCalendarRepository(conn)
	settingsRepo := repositories.NewSettingsRepository(conn)
	helpRepo := repositories.NewHelpRepository(conn)
	searchRepo := repositories.NewSearchRepository(conn)

	// === Services ===
	authService := services.NewAuthService(userRepo, cfg.JWT.RefreshTTL)
	emailService := services.NewEmailService(
		cfg.Email.SMTPHost,
		cfg.Email.SMTPPort,
		cfg.Email.SMTPUser,
		cfg.Email.SMTPPassword,
		cfg.Email.FromEmail,
		cfg.App.FrontendURL,
	)
	activityService := services.NewActivityService(activityRepo)
	notificationService := services.NewNotificationService(notificationRepo)
	gamificationService := services.NewGamificationService(userRepo, taskRepo, projectRepo, documentRepo, activityService, notificationService)

	taskService := services.NewTaskService(taskRepo, projectRepo, userRepo, gamificationService, activityService, notificationService, blobs, index)
	projectService := services.NewProjectService(projectRepo, taskRepo, sprintRepo, userRepo, activityService, notificationService, index)
	sprintService := services.NewSprintService(sprintRepo, projectRepo, taskRepo)
	userService := services.NewUserService(userRepo, taskRepo, projectRepo, taskService, gamificationService, activityService, notificationService, authService, emailService, index)
	documentService := services.NewDocumentService(documentRepo, projectRepo, blobs, gamificationService, activityService, index)
	analysisService := services.NewAnalysisService(
		analysisRepo,
		documentRepo,
		userRepo,
		taskService,
		gamificationService,
		activityService,
		notificationService,
		emailService,
		services.TimerScheduler(),
		cfg.Analysis.Delay,
		cfg.App.FrontendURL,
	)
	reportService := services.NewReportService(projectRepo, taskRepo, sprintRepo, userRepo, pdf.NewReportGenerator(cfg.Files.FontPath))
	goalService := services.NewGoalService(goalRepo)
	calendarService := services.NewCalendarService(calendarRepo, notificationService)
	settingsService := services.NewSettingsService(settingsRepo)
	helpService := services.NewHelpService(helpRepo)
	dashboardService := services.NewDashboardService(projectRepo, taskRepo)
	searchService := services.NewSearchService(index, searchRepo)

	// === Handlers ===
	h := routes.Handlers{
		Auth:         handlers.NewAuthHandler(authService, cfg.JWT.AccessTTL),
		User:         handlers.NewUserHandler(userService),
		Project:      handlers.NewProjectHandler(projectService, documentService, reportService),
		Task:         handlers.NewTaskHandler(taskService, analysisService),
		Sprint:       handlers.NewSprintHandler(sprintService),
		Document:     handlers.NewDocumentHandler(documentService, analysisService),
		Analysis:     handlers.NewAnalysisHandler(analysisService),
		Gamification: handlers.NewGamificationHandler(gamificationService),
		Notification: handlers.NewNotificationHandler(notificationService),
		KPI:          handlers.NewKPIHandler(goalService, dashboardService),
		Calendar:     handlers.NewCalendarHandler(calendarService),
		Settings:     handlers.NewSettingsHandler(settingsService),
		Help:         handlers.NewHelpHandler(helpService),
		Dashboard:    handlers.NewDashboardHandler(dashboardService, searchService),
		WS:           handlers.NewWSHandler(realtime.NewPresence(userService)),
	}

	// === Gin ===
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(metrics.Middleware())
	router.Use(cors.New(corsConfig(cfg.App.FrontendURL)))

	router.GET("/healthz", func(c *gin.Context) {
		if err := conn.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db down"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	if cfg.Storage.Driver == "" || cfg.Storage.Driver == "local" {
		router.Static("/files", cfg.Files.RootDir)
	}

	// Роуты (JWT/RBAC внутри SetupRoutes)
	routes.SetupRoutes(router, h)

	// === Run ===
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Printf("Сервер запущен на %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Ошибка запуска сервера: ", err)
		}
	}()

	<-ctx.Done()
	log.Printf("Остановка сервера...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Ошибка остановки сервера: %v", err)
	}
}

func corsConfig(frontendURL string) cors.Config {
	c := cors.DefaultConfig()
	c.AllowOrigins = []string{frontendURL, "http://localhost:3000", "http://localhost:5173"}
	c.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	c.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader}
	c.ExposeHeaders = []string{middleware.RequestIDHeader, "Content-Disposition"}
	c.AllowCredentials = true
	return c
}
