package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/flicky/cardmarket-api/internal/config"
	"github.com/flicky/cardmarket-api/internal/handler"
	"github.com/flicky/cardmarket-api/internal/logger"
	"github.com/flicky/cardmarket-api/internal/repository"
	"github.com/flicky/cardmarket-api/internal/service"
	"github.com/flicky/cardmarket-api/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	gin.SetMode(cfg.Server.GinMode)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// PostgreSQL
	dbPool, err := repository.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal("connect to database", "error", err)
	}
	defer dbPool.Close()
	log.Info("connected to PostgreSQL", "host", cfg.DB.Host, "db", cfg.DB.Name)

	if cfg.DB.Migrate {
		if err := repository.Migrate(ctx, dbPool); err != nil {
			log.Fatal("apply schema", "error", err)
		}
		log.Info("schema applied")
	}

	// Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("connect to Redis", "error", err)
	}
	log.Info("connected to Redis", "addr", cfg.Redis.Addr)

	// RabbitMQ: one channel publishes, the other consumes.
	amqpConn, err := amqp.Dial(cfg.RabbitMQ.URL)
	if err != nil {
		log.Fatal("connect to RabbitMQ", "error", err)
	}
	defer amqpConn.Close()

	consumeCh, err := amqpConn.Channel()
	if err != nil {
		log.Fatal("open RabbitMQ channel", "error", err)
	}
	defer consumeCh.Close()

	if err := worker.SetupRabbitMQ(consumeCh); err != nil {
		log.Fatal("setup RabbitMQ", "error", err)
	}

	publishCh, err := amqpConn.Channel()
	if err != nil {
		log.Fatal("open RabbitMQ channel", "error", err)
	}
	defer publishCh.Close()
	log.Info("connected to RabbitMQ")

	// Repositories
	tx := repository.NewTransactor(dbPool)
	userRepo := repository.NewUserRepository(dbPool)
	productRepo := repository.NewProductRepository(dbPool)
	cartRepo := repository.NewCartRepository(dbPool)
	orderRepo := repository.NewOrderRepository(dbPool)

	// Services
	cache := service.NewCache(redisClient, cfg.Redis.CacheTTL)
	userSvc := service.NewUserService(tx, userRepo)
	authSvc := service.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.Expiration)
	productSvc := service.NewProductService(tx, productRepo, userRepo, cache)
	cartSvc := service.NewCartService(tx, cartRepo, productRepo, userRepo)
	orderSvc := service.NewOrderService(tx, orderRepo, productRepo, userRepo, worker.NewOrderPublisher(publishCh), cache)

	// Router
	router := handler.NewRouter(handler.RouterConfig{
		JWTSecret:    cfg.JWT.Secret,
		AllowOrigins: cfg.CORS.AllowOrigins,
		Log:          log,
	}, handler.Handlers{
		Users:    handler.NewUserHandler(userSvc, authSvc),
		Products: handler.NewProductHandler(productSvc),
		Carts:    handler.NewCartHandler(cartSvc),
		Orders:   handler.NewOrderHandler(orderSvc),
		Health: handler.NewHealthHandler(map[string]handler.Check{
			"postgres": handler.PostgresCheck(dbPool),
			"redis":    handler.RedisCheck(redisClient),
			"rabbitmq": handler.RabbitMQCheck(amqpConn),
		}),
	})

	// Worker
	orderWorker := worker.NewOrderWorker(consumeCh, orderSvc, log.With("component", "order_worker"))
	if err := orderWorker.Start(ctx); err != nil {
		log.Fatal("start order worker", "error", err)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info("starting HTTP server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", "error", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", "error", err)
	}

	orderWorker.Stop()
	time.Sleep(500 * time.Millisecond)
	cancel()
	log.Info("server stopped")
}
