package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/warestock/order-service/config"
	"github.com/warestock/order-service/internal/auth"
	"github.com/warestock/order-service/internal/notification"
	"github.com/warestock/order-service/internal/notification/listener"
	"github.com/warestock/order-service/internal/notification/mailer"
	"github.com/warestock/order-service/internal/sweeper"
	"github.com/warestock/order-service/pkg/broker"
	"github.com/warestock/order-service/pkg/cache"
	"github.com/warestock/order-service/pkg/logger"
	"github.com/warestock/order-service/pkg/postgres"
	"go.uber.org/zap"

	accH "github.com/warestock/order-service/internal/account/handler"
	accRepoPkg "github.com/warestock/order-service/internal/account/repository"
	accUCPkg "github.com/warestock/order-service/internal/account/usecase"

	catH "github.com/warestock/order-service/internal/category/handler"
	catRepoPkg "github.com/warestock/order-service/internal/category/repository"
	catUCPkg "github.com/warestock/order-service/internal/category/usecase"

	ordH "github.com/warestock/order-service/internal/order/handler"
	ordRepoPkg "github.com/warestock/order-service/internal/order/repository"
	ordUCPkg "github.com/warestock/order-service/internal/order/usecase"

	prodH "github.com/warestock/order-service/internal/product/handler"
	prodRepoPkg "github.com/warestock/order-service/internal/product/repository"
	prodUCPkg "github.com/warestock/order-service/internal/product/usecase"

	stkH "github.com/warestock/order-service/internal/stock/handler"
	stkRepoPkg "github.com/warestock/order-service/internal/stock/repository"
	stkUCPkg "github.com/warestock/order-service/internal/stock/usecase"

	supH "github.com/warestock/order-service/internal/supplier/handler"
	supRepoPkg "github.com/warestock/order-service/internal/supplier/repository"
	supUCPkg "github.com/warestock/order-service/internal/supplier/usecase"
)

func main() {
	// 1. Load Configuration
	_ = godotenv.Load() // Load .env file if it exists
	cfg := config.LoadEnv()

	// 2. Initialize Logger
	logConfig := &logger.ZapLoggerConfig{
		IsDevelopment:     false,
		Encoding:          "json",
		Level:             "info",
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	}

	if cfg.Server.AppEnv == "dev" {
		logConfig.IsDevelopment = true
		logConfig.Encoding = cfg.Logger.Encoding
		logConfig.Level = cfg.Logger.Level
	}

	appLogger := logger.NewZapLogger(logConfig)
	defer appLogger.Sync()

	// 3. Connect to Database
	db, err := postgres.NewPostgres(&postgres.Config{
		Host:            cfg.Postgres.Host,
		Port:            cfg.Postgres.Port,
		User:            cfg.Postgres.User,
		Password:        cfg.Postgres.Password,
		DBName:          cfg.Postgres.DBName,
		SSLMode:         cfg.Postgres.SSLMode,
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Postgres.ConnMaxLifetime) * time.Second,
		ConnMaxIdleTime: time.Duration(cfg.Postgres.ConnMaxIdleTime) * time.Second,
	})
	if err != nil {
		appLogger.Fatal("Could not connect to database", zap.Error(err))
	}
	defer db.Close()
	appLogger.Info("Connected to PostgreSQL database", zap.String("db_name", cfg.Postgres.DBName))

	// 4. Initialize Redis
	redisClient, err := cache.NewRedisClient(&cache.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		appLogger.Fatal("Could not connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	appLogger.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr))

	// 5. Initialize Kafka
	emailProducer := broker.NewProducer(&broker.Config{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.EmailTopic,
	})
	defer emailProducer.Close()

	emailConsumer := broker.NewConsumer(&broker.Config{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.EmailTopic,
		GroupID: cfg.Kafka.GroupID,
	})
	defer emailConsumer.Close()
	appLogger.Info("Connected to Kafka", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.EmailTopic))

	dispatcher := notification.NewKafkaDispatcher(emailProducer)

	// 6. Initialize Repositories
	supRepo := supRepoPkg.NewPGRepository(db)
	catRepo := catRepoPkg.NewPGRepository(db)
	prodRepo := prodRepoPkg.NewPGRepository(db)
	stkRepo := stkRepoPkg.NewPGRepository(db)
	ordRepo := ordRepoPkg.NewPGRepository(db)
	accRepo := accRepoPkg.NewPGRepository(db)

	// 7. Initialize UseCases
	tokenManager := auth.NewTokenManager(cfg.JWT.SecretKey, cfg.JWT.TTL)

	supUC := supUCPkg.NewSupplierUseCase(supRepo, redisClient, appLogger)
	catUC := catUCPkg.NewCategoryUseCase(catRepo, appLogger)
	prodUC := prodUCPkg.NewProductUseCase(prodRepo, supRepo, catRepo, redisClient, appLogger)
	stkUC := stkUCPkg.NewStockUseCase(stkRepo, prodRepo, redisClient, appLogger)
	ordUC := ordUCPkg.NewOrderUseCase(ordRepo, prodRepo, accRepo, dispatcher, redisClient, appLogger)
	accUC := accUCPkg.NewAccountUseCase(accRepo, dispatcher, tokenManager, accUCPkg.Config{
		SiteURL:         cfg.Server.SiteURL,
		ReminderAfter:   cfg.Verification.ReminderAfter,
		DeactivateAfter: cfg.Verification.DeactivateAfter,
	}, appLogger)

	// 8. Start Background Workers
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	emailListener := listener.NewEmailListener(emailConsumer, mailer.NewSMTPMailer(&mailer.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	}), appLogger)
	go emailListener.Start(ctx)

	verificationSweeper := sweeper.New(accUC, cfg.Verification.SweepInterval, appLogger)
	go verificationSweeper.Start(ctx)

	// 9. Initialize Handlers and Router
	supHandler := supH.NewSupplierHandler(supUC, appLogger)
	catHandler := catH.NewCategoryHandler(catUC, appLogger)
	prodHandler := prodH.NewProductHandler(prodUC, appLogger)
	stkHandler := stkH.NewStockHandler(stkUC, appLogger)
	ordHandler := ordH.NewOrderHandler(ordUC, appLogger)
	accHandler := accH.NewAccountHandler(accUC, appLogger)

	if cfg.Server.AppEnv != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api/v1")
	accHandler.RegisterPublic(api)

	protected := api.Group("", auth.Middleware(tokenManager))
	accHandler.RegisterProtected(protected)
	supHandler.Register(protected)
	catHandler.Register(protected)
	prodHandler.Register(protected)
	stkHandler.Register(protected)
	ordHandler.Register(protected)

	// 10. Start HTTP Server
	port := cfg.Server.HTTPPort
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}

	srv := &http.Server{
		Addr:    port,
		Handler: router,
	}

	go func() {
		appLogger.Info("Starting HTTP server", zap.String("port", port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("failed to serve", zap.Error(err))
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("forced shutdown", zap.Error(err))
	}
	appLogger.Info("Server stopped")
}
