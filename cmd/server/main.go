package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/avelero/passport-service/config"
	"github.com/avelero/passport-service/internal/auth"
	"github.com/avelero/passport-service/internal/broker"
	"github.com/avelero/passport-service/internal/cache"
	"github.com/avelero/passport-service/internal/database"
	"github.com/avelero/passport-service/internal/logger"
	"github.com/avelero/passport-service/internal/search"

	catRepoPkg "github.com/avelero/passport-service/internal/catalog/repository"
	catUCPkg "github.com/avelero/passport-service/internal/catalog/usecase"

	categoryH "github.com/avelero/passport-service/internal/category/handler"
	categoryRepoPkg "github.com/avelero/passport-service/internal/category/repository"
	categoryUCPkg "github.com/avelero/passport-service/internal/category/usecase"

	passH "github.com/avelero/passport-service/internal/passport/handler"
	passListenerPkg "github.com/avelero/passport-service/internal/passport/listener"
	passRepoPkg "github.com/avelero/passport-service/internal/passport/repository"
	passUCPkg "github.com/avelero/passport-service/internal/passport/usecase"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// 1. Load Configuration
	_ = godotenv.Load() // Load .env file if it exists
	cfg := config.LoadEnv()

	// 2. Initialize Logger
	logConfig := &logger.Config{
		Encoding:          cfg.Logger.Encoding,
		Level:             cfg.Logger.Level,
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	}
	if cfg.Server.AppEnv != "dev" && cfg.Server.AppEnv != "development" {
		logConfig.Encoding = "json"
		logConfig.Level = "info"
	}

	appLogger := logger.NewZapLogger(logConfig)
	defer appLogger.Sync()

	// 3. Connect to Database
	db, err := database.NewPostgres(&database.PostgresConfig{
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

	// 4. Initialize Repositories
	catRepo := catRepoPkg.NewPGRepository(db)
	categoryRepo := categoryRepoPkg.NewPGRepository(db)
	passRepo := passRepoPkg.NewPGRepository(db)

	// 5. Initialize Redis
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

	// 5.5 Initialize Kafka
	kafkaConsumer := broker.NewConsumer(&broker.Config{
		Brokers: cfg.Kafka.BrokerList(),
		Topic:   cfg.Kafka.CatalogTopic,
		GroupID: cfg.Kafka.GroupID,
	})
	defer kafkaConsumer.Close()

	kafkaProducer := broker.NewProducer(&broker.Config{
		Brokers: cfg.Kafka.BrokerList(),
		Topic:   cfg.Kafka.PassportTopic,
	})
	defer kafkaProducer.Close()
	appLogger.Info("Connected to Kafka",
		zap.Strings("brokers", cfg.Kafka.BrokerList()),
		zap.String("consume_topic", cfg.Kafka.CatalogTopic),
		zap.String("produce_topic", cfg.Kafka.PassportTopic),
	)

	// 5.8 Initialize Elasticsearch
	esClient, err := search.NewClient(&search.Config{
		Addresses: cfg.Elastic.Addresses,
		Username:  cfg.Elastic.Username,
		Password:  cfg.Elastic.Password,
	})
	if err != nil {
		appLogger.Warn("Could not connect to Elasticsearch (search features limited)", zap.Error(err))
		esClient = nil
	} else {
		appLogger.Info("Connected to Elasticsearch", zap.Strings("addresses", cfg.Elastic.Addresses))
	}

	// 6. Initialize UseCases
	catUC := catUCPkg.NewCatalogUseCase(catRepo, appLogger)
	categoryUC := categoryUCPkg.NewCategoryUseCase(categoryRepo, appLogger)
	passUC := passUCPkg.NewPassportUseCase(passRepo, catUC, categoryUC, redisClient, esClient, kafkaProducer, appLogger)

	// 6.5 Initialize Listeners
	catListener := passListenerPkg.NewCatalogListener(kafkaConsumer, catUC, passUC, appLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go catListener.Start(ctx)

	// 7. Initialize HTTP Router
	passHandler := passH.NewPassportHandler(passUC, catUC, appLogger)
	categoryHandler := categoryH.NewCategoryHandler(categoryUC, appLogger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(auth.BrandMiddleware)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	passHandler.Routes(r)
	categoryHandler.Routes(r)

	port := cfg.Server.HTTPPort
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}

	server := &http.Server{
		Addr:              port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	appLogger.Info("Starting HTTP server", zap.String("port", port))

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("failed to serve", zap.Error(err))
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown: %v", err)
	}
	appLogger.Info("Server stopped")
}
