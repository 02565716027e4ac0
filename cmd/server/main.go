package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/estudio-tools/workflow-api/internal/config"
	"github.com/estudio-tools/workflow-api/internal/constants"
	"github.com/estudio-tools/workflow-api/internal/database"
	"github.com/estudio-tools/workflow-api/internal/handlers"
	"github.com/estudio-tools/workflow-api/internal/middleware"
	"github.com/estudio-tools/workflow-api/internal/repository"
	"github.com/estudio-tools/workflow-api/internal/scheduler"
	"github.com/estudio-tools/workflow-api/internal/services"
	"github.com/gin-contrib/sessions"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	logger, err := initLogger(cfg.GinMode)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync()

	// Connect to database
	if err := database.Connect(cfg); err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}

	// Run migrations
	if err := database.Migrate(); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	location, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Fatal("Invalid timezone", zap.String("timezone", cfg.Timezone), zap.Error(err))
	}

	db := database.GetDB()

	// Initialize services
	activityService := services.NewActivityService(repository.NewAuditRepository(db), logger)
	authService := services.NewAuthService(repository.NewUserRepository(db), repository.NewAreaRepository(db))
	taskService := services.NewTaskService(db, activityService)
	statusService := services.NewStatusService(db, activityService)
	processService := services.NewProcessService(db, activityService)
	recurrenceService := services.NewRecurrenceService(db, activityService)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(authService)
	taskHandler := handlers.NewTaskHandler(taskService, statusService)
	processHandler := handlers.NewProcessHandler(processService)
	recurringHandler := handlers.NewRecurringHandler(recurrenceService)
	catalogHandler := handlers.NewCatalogHandler()
	activityHandler := handlers.NewActivityHandler(activityService)

	// Initialize Gin router
	r := gin.Default()

	// Setup session middleware with Redis
	redisAddr := cfg.RedisHost + ":" + cfg.RedisPort
	store, err := redisStore.NewStore(
		10,                        // Redis pool size
		"tcp",                     // network type
		redisAddr,                 // Redis address from config
		"",                        // username (empty for default user)
		"",                        // password (empty = no password)
		[]byte(cfg.SessionSecret), // authentication key
	)
	if err != nil {
		logger.Fatal("Failed to create Redis store", zap.Error(err))
	}
	// Configure session options based on environment
	isProduction := cfg.GinMode == "release"
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   constants.SessionMaxAge,
		HttpOnly: true,
		Secure:   isProduction,
		SameSite: 2, // SameSite=Lax (1=Strict, 2=Lax, 3=None)
	})
	r.Use(sessions.Sessions("workflow_session", store))

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})

	// API routes
	api := r.Group("/api")
	{
		// Auth routes
		auth := api.Group("/auth")
		{
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/me", middleware.RequireAuth(), authHandler.Me)
		}

		// User administration
		users := api.Group("/users")
		users.Use(middleware.RequireAuth())
		{
			users.GET("", userHandler.ListUsers)
			users.POST("", middleware.RequireAdmin(), userHandler.CreateUser)
		}

		// Task routes
		tasks := api.Group("/tasks")
		tasks.Use(middleware.RequireAuth())
		{
			tasks.GET("", taskHandler.ListTasks)
			tasks.POST("", taskHandler.CreateTask)
			tasks.GET("/export", taskHandler.ExportTasks)
			tasks.GET("/:id", taskHandler.GetTask)
			tasks.PATCH("/:id", taskHandler.UpdateTask)
			tasks.POST("/:id/status", taskHandler.ChangeStatus)
			tasks.GET("/:id/history", taskHandler.GetHistory)
		}

		// Process routes
		processes := api.Group("/processes")
		processes.Use(middleware.RequireAuth())
		{
			processes.GET("", processHandler.ListProcesses)
			processes.POST("", processHandler.CreateProcess)
			processes.GET("/:id", processHandler.GetProcess)
			processes.POST("/:id/complete", processHandler.CompleteProcess)
			processes.POST("/:id/transfer", processHandler.TransferProcess)
			processes.POST("/:id/cancel", processHandler.CancelProcess)
			processes.GET("/:id/transfers", processHandler.ListTransfers)
		}

		// Recurring task rules (admin only)
		recurring := api.Group("/recurring-tasks")
		recurring.Use(middleware.RequireAuth(), middleware.RequireAdmin())
		{
			recurring.GET("", recurringHandler.ListRules)
			recurring.POST("", recurringHandler.CreateRule)
			recurring.PATCH("/:id/toggle", recurringHandler.ToggleRule)
		}

		// Catalogs
		catalogs := api.Group("")
		catalogs.Use(middleware.RequireAuth())
		{
			catalogs.GET("/areas", catalogHandler.ListAreas)
			catalogs.POST("/areas", middleware.RequireAdmin(), catalogHandler.CreateArea)
			catalogs.GET("/tags", catalogHandler.ListTags)
			catalogs.POST("/tags", catalogHandler.CreateTag)
			catalogs.GET("/templates", catalogHandler.ListTemplates)
			catalogs.GET("/templates/:id", catalogHandler.GetTemplate)
			catalogs.POST("/templates", middleware.RequireAdmin(), catalogHandler.CreateTemplate)
			catalogs.GET("/process-types", catalogHandler.ListProcessTypes)
			catalogs.POST("/process-types", middleware.RequireAdmin(), catalogHandler.CreateProcessType)
		}

		// Activity log
		api.GET("/activity", middleware.RequireAuth(), activityHandler.ListActivity)

		// Manual scheduler trigger (admin only)
		api.POST("/admin/scheduler/run", middleware.RequireAuth(), middleware.RequireAdmin(), recurringHandler.RunScheduler)
	}

	// Start the daily scheduler
	schedCtx, stopScheduler := context.WithCancel(context.Background())
	sched := scheduler.New(recurrenceService, logger, cfg.SchedulerHour, cfg.SchedulerMinute, location)
	go sched.Start(schedCtx)

	srv := &http.Server{
		Addr:    ":8080",
		Handler: r,
	}

	go func() {
		logger.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	stopScheduler()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

func initLogger(mode string) (*zap.Logger, error) {
	if mode == "release" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
