package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	ledgercmd "github.com/eaglebank/ledger/ledger-service/internal/command"
	"github.com/eaglebank/ledger/ledger-service/internal/config"
	"github.com/eaglebank/ledger/ledger-service/internal/handler"
	ledgerqry "github.com/eaglebank/ledger/ledger-service/internal/query"
	"github.com/eaglebank/ledger/ledger-service/internal/repository"
	"github.com/eaglebank/ledger/shared/events"
	"github.com/eaglebank/ledger/shared/middleware"
	redisClient "github.com/eaglebank/ledger/shared/redis"
	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		log.Printf("Ignoring .env: %v", err)
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Write store
	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open %s store: %v", cfg.StoreDriver, err)
	}
	defer closeStore()

	// Redis connection (read model + event streaming), optional
	var (
		rdb       *goredis.Client
		publisher ledgercmd.EventPublisher = events.Discard{}
	)
	if cfg.RedisEnabled() {
		redis, err := redisClient.NewClient(ctx, redisClient.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redis.Close()
		rdb = redis.Client
		publisher = events.NewPublisher(rdb)
	} else {
		log.Println("REDIS_ADDR not set: read cache and event publishing disabled")
	}

	tokens, err := middleware.NewTokenIssuer([]byte(cfg.JWTSecret), cfg.TokenTTL)
	if err != nil {
		log.Fatalf("Failed to configure tokens: %v", err)
	}

	// --- CQRS wiring ---
	docs := repository.NewDocumentRepository(store)
	readRepo := repository.NewAccountReadRepository(docs, rdb)

	accountCommands := ledgercmd.NewAccountCommandService(docs, readRepo, publisher)
	userCommands := ledgercmd.NewUserCommandService(docs, accountCommands, publisher)
	accountQueries := ledgerqry.NewAccountQueryService(readRepo)
	userQueries := ledgerqry.NewUserQueryService(docs, tokens)

	accountHandler := handler.NewAccountHandler(accountCommands, accountQueries)
	userHandler := handler.NewUserHandler(userCommands, userQueries)

	if rdb != nil {
		go func() {
			subscriber := events.NewSubscriber(rdb, events.SubscriberConfig{
				Group:    cfg.ConsumerGroup,
				Consumer: cfg.InstanceID,
				Stream:   events.AccountEventsStream,
				Handler:  accountQueries.HandleAccountEvent,
			})
			if err := subscriber.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("Subscriber stopped: %v", err)
			}
		}()
	}

	router := gin.New()
	router.Use(gin.Recovery(), middleware.LoggingMiddleware())

	api := router.Group("/api")
	{
		api.GET("", userHandler.Health)
		api.GET("/db", userHandler.Snapshot)

		users := api.Group("/users")
		users.POST("/register", userHandler.RegisterUser)
		users.POST("/login", userHandler.Login)
		users.DELETE("", userHandler.DeleteUser)
		users.GET("", middleware.AuthMiddleware(tokens), userHandler.ListUsers)

		accounts := api.Group("/accounts", middleware.AuthMiddleware(tokens))
		accounts.POST("/create", accountHandler.CreateAccount)
		accounts.GET("", accountHandler.ListAccounts)
		accounts.GET("/:ownerId", accountHandler.ListUserAccounts)
		accounts.PUT("/history", accountHandler.UpdateMonthlyHistory)
		accounts.DELETE("/:accountId", accountHandler.DeleteAccount)
	}
	router.NoRoute(handler.NotFound)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Ledger service starting on port %s (store=%s)", cfg.Port, cfg.StoreDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	log.Println("Shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Forced shutdown: %v", err)
	}
}

func openStore(ctx context.Context, cfg *config.Config) (repository.DocumentStore, func(), error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres, config.DriverSQLite:
		store, err := repository.OpenSQLStore(ctx, cfg.StoreDriver, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	default:
		store, err := repository.NewFileStore(cfg.StorePath)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	}
}
