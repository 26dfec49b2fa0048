package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/readshelf/library-api/internal/config"
	"github.com/readshelf/library-api/internal/domain/user"
	"github.com/readshelf/library-api/internal/handler"
	"github.com/readshelf/library-api/internal/handler/middleware"
	"github.com/readshelf/library-api/internal/ierr"
	"github.com/readshelf/library-api/internal/service"
	"github.com/readshelf/library-api/internal/storage/postgres"
	"github.com/readshelf/library-api/internal/storage/redis"
	"github.com/readshelf/library-api/internal/worker"
	"github.com/readshelf/library-api/pkg/logger"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	configPath := flag.String("config", "./configs/config.dev.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := logger.NewZapLogger(cfg.Log.Level)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer appLogger.Sync()

	sugarLogger := appLogger.Sugar()

	sugarLogger.Info("Starting application...")
	sugarLogger.Infof("Log level set to: %s", cfg.Log.Level)

	appCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbPool, err := postgres.NewPgxPool(appCtx, &cfg.Database, appLogger)
	if err != nil {
		sugarLogger.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	defer dbPool.Close()

	redisClient, err := redis.NewRedisClient(appCtx, &cfg.Redis, appLogger)
	if err != nil {
		sugarLogger.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	bookRepo := postgres.NewBookRepository(dbPool, appLogger)
	genreRepo := postgres.NewGenreRepository(dbPool, appLogger)
	userRepo := postgres.NewUserRepository(dbPool, appLogger)
	statsCache := redis.NewStatsCache(redisClient, appLogger)

	bookService := service.NewBookService(bookRepo, genreRepo, appLogger)
	genreService := service.NewGenreService(genreRepo, appLogger)
	userService := service.NewUserService(userRepo, appLogger)
	authService := service.NewAuthService(userRepo, &cfg.JWT, appLogger)
	statsService := service.NewStatsService(bookRepo, userRepo, statsCache, cfg.Stats.CacheTTL, appLogger)

	healthHandler := handler.NewHealthHandler(dbPool, redisClient, appLogger)
	bookHandler := handler.NewBookHandler(bookService, appLogger)
	genreHandler := handler.NewGenreHandler(genreService, appLogger)
	userHandler := handler.NewUserHandler(userService, appLogger)
	authHandler := handler.NewAuthHandler(authService, appLogger)
	statsHandler := handler.NewStatsHandler(statsService, appLogger)

	authMiddleware := middleware.AuthMiddleware(authService, appLogger)
	librarianOnly := middleware.RequireRole(string(user.RoleLibrarian), appLogger)
	errorMiddleware := middleware.ErrorHandlerMiddleware(appLogger)

	router := gin.New()
	router.Use(middleware.RequestIDMiddleware())
	router.Use(gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
			param.ClientIP,
			param.TimeStamp.Format(time.RFC1123),
			param.Method,
			param.Path,
			param.Request.Proto,
			param.StatusCode,
			param.Latency,
			param.Request.UserAgent(),
			param.ErrorMessage,
		)
	}))

	// The error middleware sits outside recovery so panics also end up as a
	// translated envelope instead of an empty 500.
	router.Use(errorMiddleware)
	router.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logMsg := "Panic recovered"
		if err, ok := recovered.(string); ok {
			logMsg = fmt.Sprintf("%s: %s", logMsg, err)
		} else if err, ok := recovered.(error); ok {
			logMsg = fmt.Sprintf("%s: %v", logMsg, err)
		}
		appLogger.Error(logMsg, zap.Stack("stack"))

		_ = c.Error(ierr.ErrInternalServer)
		c.Abort()
	}))

	corsConfig := cors.Config{
		AllowOrigins: cfg.CORS.AllowOrigins,
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Accept",
			"Authorization",
			middleware.RequestIDHeader,
		},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	router.Use(cors.New(corsConfig))

	router.GET("/healthz", healthHandler.Check)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authRoutes := router.Group("/api/v1/auth")
	{
		authRoutes.POST("/register", userHandler.Register)
		authRoutes.POST("/login", authHandler.Login)
	}

	apiV1 := router.Group("/api/v1")
	{
		bookRoutes := apiV1.Group("/books")
		{
			bookRoutes.GET("", bookHandler.List)
			bookRoutes.GET("/:id", bookHandler.GetByID)

			bookRoutes.POST("", authMiddleware, librarianOnly, bookHandler.Create)
			bookRoutes.PATCH("/:id", authMiddleware, librarianOnly, bookHandler.Update)
			bookRoutes.DELETE("/:id", authMiddleware, librarianOnly, bookHandler.Delete)
			bookRoutes.PUT("/:id/genres", authMiddleware, librarianOnly, bookHandler.ReplaceGenres)

			bookRoutes.PUT("/:id/rating", authMiddleware, bookHandler.Rate)
		}
		genreRoutes := apiV1.Group("/genres")
		{
			genreRoutes.GET("", genreHandler.List)
			genreRoutes.POST("", authMiddleware, librarianOnly, genreHandler.Create)
		}
		userRoutes := apiV1.Group("/users")
		userRoutes.Use(authMiddleware)
		{
			userRoutes.GET("/me", userHandler.GetMe)
			userRoutes.PATCH("/me", userHandler.UpdateMe)
		}
		statsRoutes := apiV1.Group("/stats")
		{
			statsRoutes.GET("/summary", statsHandler.Summary)
		}
	}

	g, groupCtx := errgroup.WithContext(appCtx)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g.Go(func() error {
		sugarLogger.Infof("HTTP server listening on port %s", cfg.Server.Port)

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sugarLogger.Errorf("HTTP server ListenAndServe error: %v", err)
			return fmt.Errorf("http server failed: %w", err)
		}
		sugarLogger.Info("HTTP server stopped listening.")
		return nil
	})

	g.Go(func() error {
		<-groupCtx.Done()
		sugarLogger.Info("Shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownPeriod)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			sugarLogger.Errorf("HTTP server graceful shutdown failed: %v", err)
			return fmt.Errorf("http server shutdown error: %w", err)
		}
		sugarLogger.Info("HTTP server shutdown complete.")
		return nil
	})

	workerErrChan, stopWorkers := worker.RunWorkers(cfg, statsService, appLogger)
	g.Go(func() error {
		select {
		case err := <-workerErrChan:
			sugarLogger.Error("Asynq worker failed", zap.Error(err))
			return fmt.Errorf("asynq worker error: %w", err)
		case <-groupCtx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownPeriod)
			defer cancel()
			stopWorkers(shutdownCtx)
			sugarLogger.Info("Asynq workers finished gracefully.")
			return nil
		}
	})

	sugarLogger.Info("Application started. Waiting for interrupt signal (Ctrl+C) or component error...")

	waitErr := g.Wait()

	sugarLogger.Info("Shutdown sequence finished.")

	if waitErr != nil {
		if errors.Is(waitErr, context.Canceled) {
			sugarLogger.Info("Shutdown reason: Context canceled (likely due to OS signal).")
		} else if errors.Is(waitErr, http.ErrServerClosed) {
			sugarLogger.Info("Shutdown reason: HTTP server closed normally.")
		} else {
			sugarLogger.Errorf("Application shutdown finished with unexpected error: %v", waitErr)
		}
	} else {
		sugarLogger.Info("Application shutdown successfully (all components finished without errors).")
	}

	sugarLogger.Info("Application exiting now.")
}
