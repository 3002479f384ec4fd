/**
 * @description
 * This is the main entry point for the banking service. It is responsible for
 * initializing all components of the service, including configuration,
 * database connection, Redis, the message broker, the mailer, repositories,
 * the core application service, and the HTTP server. It wires everything
 * together and starts the service.
 *
 * @dependencies
 * - log, net/http: Standard Go libraries for logging and HTTP server functionality.
 * - github.com/jackc/pgx/v5: PostgreSQL driver.
 * - github.com/redis/go-redis/v9: Redis client for OTPs and rate limiting.
 * - internal/api, internal/app, internal/auth, internal/config, internal/store: Internal packages for the service.
 * - pkg/mailer, pkg/rabbitmq: SMTP delivery and event publishing.
 */

package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/sabinbank/banking-service/internal/api"
	"github.com/sabinbank/banking-service/internal/app"
	"github.com/sabinbank/banking-service/internal/auth"
	"github.com/sabinbank/banking-service/internal/config"
	"github.com/sabinbank/banking-service/internal/store"
	"github.com/sabinbank/banking-service/pkg/mailer"
	"github.com/sabinbank/banking-service/pkg/rabbitmq"
)

func main() {
	// Load application configuration from environment variables.
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"config load failed\" err=%v", err)
	}
	if strings.TrimSpace(cfg.JWTSecret) == "" {
		log.Fatalf("level=fatal component=bootstrap msg=\"jwt secret must be configured\" env=JWT_SECRET")
	}

	log.Printf("level=info component=bootstrap msg=\"starting banking-service\" port=%s", cfg.ServerPort)

	// Establish a connection pool to the PostgreSQL database.
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"database url parse failed\" err=%v", err)
	}

	poolConfig.MaxConns = 50
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = 30 * time.Minute
	poolConfig.MaxConnIdleTime = 5 * time.Minute

	// Disable prepared statement caching to prevent conflicts
	poolConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	dbpool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"database connection failed\" err=%v", err)
	}
	defer dbpool.Close()
	log.Println("level=info component=bootstrap msg=\"database connected\"")

	// Ensure required tables exist (idempotent).
	if err := store.EnsureSchema(context.Background(), dbpool); err != nil {
		log.Printf("level=warn component=bootstrap msg=\"failed ensuring tables (may already exist)\" err=%v", err)
	}

	// Initialize the RabbitMQ producer to publish events. A broker outage at
	// startup degrades to the no-op fallback rather than failing the boot.
	var eventPublisher rabbitmq.Publisher
	rabbitProducer, err := rabbitmq.NewEventProducer(cfg.RabbitMQURL)
	if err != nil {
		log.Printf("level=warn component=bootstrap msg=\"rabbitmq producer unavailable; using fallback\" err=%v", err)
		eventPublisher = &rabbitmq.EventProducerFallback{}
	} else {
		defer rabbitProducer.Close()
		eventPublisher = rabbitProducer
		log.Println("level=info component=bootstrap msg=\"rabbitmq producer connected\"")
	}

	// Redis backs the OTP store and the rate limiter. Both degrade gracefully
	// when Redis is unreachable, but password reset will be unavailable.
	var redisClient *redis.Client
	if strings.TrimSpace(cfg.RedisURL) == "" {
		log.Println("level=warn component=bootstrap msg=\"redis url missing; otp and rate limiting disabled\" env=REDIS_URL")
	} else {
		redisOptions, parseErr := redis.ParseURL(cfg.RedisURL)
		if parseErr != nil {
			log.Printf("level=warn component=bootstrap msg=\"redis url parse failed; otp and rate limiting disabled\" err=%v", parseErr)
		} else {
			redisClient = redis.NewClient(redisOptions)
			pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancelPing()
			if pingErr := redisClient.Ping(pingCtx).Err(); pingErr != nil {
				log.Printf("level=warn component=bootstrap msg=\"redis ping failed; otp and rate limiting disabled\" err=%v", pingErr)
				redisClient.Close()
				redisClient = nil
			} else {
				defer redisClient.Close()
				log.Println("level=info component=bootstrap msg=\"redis connected\"")
			}
		}
	}

	var otpStore app.OTPStore
	if redisClient != nil {
		otpStore = app.NewRedisOTPStore(redisClient)
	}

	// The mailer falls back to logging when no SMTP relay is configured.
	var mailSender app.Mailer
	if strings.TrimSpace(cfg.SMTPHost) == "" {
		log.Println("level=warn component=bootstrap msg=\"smtp host missing; mail will be logged\" env=SMTP_HOST")
		mailSender = mailer.LogMailer{}
	} else {
		mailSender = mailer.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom)
	}

	// Initialize the data access layer (repository).
	repository := store.NewPostgresRepository(dbpool)

	tokenManager := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, time.Duration(cfg.TokenTTLMinutes)*time.Minute)

	// Initialize the core application service with its dependencies.
	bankService := app.NewService(repository, eventPublisher, tokenManager, otpStore, mailSender)
	if redisClient != nil {
		bankService.SetRateLimiter(app.NewRedisRateLimiter(redisClient, cfg.RedisRateLimitPrefix))
	}

	// Initialize the API handlers and routes.
	handlers := api.NewBankHandlers(bankService)
	router := api.Routes(handlers, tokenManager, cfg.Origins())

	serverAddr := fmt.Sprintf(":%s", cfg.ServerPort)
	log.Printf("level=info component=http msg=\"server listening\" addr=%s", serverAddr)

	server := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("level=fatal component=http msg=\"server stopped unexpectedly\" err=%v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Println("level=info component=http msg=\"shutdown started\"")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("level=error component=http msg=\"shutdown failed\" err=%v", err)
	}

	log.Println("level=info component=http msg=\"shutdown complete\"")
}
