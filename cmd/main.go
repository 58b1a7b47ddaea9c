package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"inventory-service/internal/handler"
	appmiddleware "inventory-service/internal/middleware"
	"inventory-service/internal/scheduler"
	"inventory-service/pkg/config"
	"inventory-service/pkg/database"
	"inventory-service/pkg/jwtutil"
	"inventory-service/pkg/logger"
	"inventory-service/prometheus"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	if err := logger.InitLogger(cfg.Log.Level, cfg.Server.Env); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	log := logger.GetLogger()
	defer log.Sync()

	log.Info("Starting inventory service", cfg.LogConfig()...)

	// Initialize Prometheus metrics
	prometheus.InitMetrics(cfg)

	// Initialize JWT utility
	jwtutil.Initialize(cfg.JWT.SigningKey, cfg.JWT.ExpirationHours)

	// Connect to the database and run migrations
	db, err := database.InitDB(cfg)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}

	// Background low-stock sweep
	sched, err := scheduler.New(db, cfg)
	if err != nil {
		log.Fatal("Failed to initialize scheduler", zap.Error(err))
	}
	sched.Start()

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Recover())
	e.Use(appmiddleware.RequestIDMiddleware)
	e.Use(appmiddleware.MetricsMiddleware)

	// Handlers
	authHandler := handler.NewAuthHandler(db)
	productHandler := handler.NewProductHandler(db)
	categoryHandler := handler.NewCategoryHandler(db)
	stockHandler := handler.NewStockHandler(db)
	orderHandler := handler.NewOrderHandler(db)
	notificationHandler := handler.NewNotificationHandler(db)
	dashboardHandler := handler.NewDashboardHandler(db)

	// Public routes
	e.GET("/health", handler.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.POST("/api/register", authHandler.Register)
	e.POST("/api/login", authHandler.Login)

	// Protected routes
	api := e.Group("/api", appmiddleware.AuthMiddleware)

	api.GET("/products", productHandler.List)
	api.POST("/products", productHandler.Create)
	api.GET("/products/:id", productHandler.Get)
	api.PUT("/products/:id", productHandler.Update)
	api.DELETE("/products/:id", productHandler.Delete)

	api.GET("/categories", categoryHandler.List)
	api.POST("/categories", categoryHandler.Create)
	api.PUT("/categories/:id", categoryHandler.Update)
	api.DELETE("/categories/:id", categoryHandler.Delete)

	api.POST("/stock/change", stockHandler.Change)
	api.GET("/stock/logs", stockHandler.Logs)
	api.GET("/stock/total", stockHandler.TotalStock)

	api.POST("/orders", orderHandler.Create)
	api.GET("/orders", orderHandler.List)
	api.GET("/orders/:id", orderHandler.Get)
	api.PUT("/orders/:id", orderHandler.Update)

	api.GET("/notifications", notificationHandler.List)
	api.PUT("/notifications/:id/read", notificationHandler.MarkRead)
	api.PUT("/notifications/read-all", notificationHandler.MarkAllRead)

	api.GET("/dashboard/summary", dashboardHandler.Summary)

	// Start server in a goroutine so shutdown can be handled below
	go func() {
		log.Info("Server starting", zap.String("port", cfg.Server.Port))
		if err := e.Start(":" + cfg.Server.Port); err != nil {
			log.Info("Server stopped", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shut down
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server")
	sched.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Fatal("Forced shutdown", zap.Error(err))
	}
	log.Info("Server exited")
}
