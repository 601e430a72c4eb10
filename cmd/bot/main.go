package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"supportbot/internal/adminmenu"
	"supportbot/internal/config"
	"supportbot/internal/conversation"
	"supportbot/internal/handler"
	"supportbot/internal/kv"
	"supportbot/internal/logger"
	"supportbot/internal/messenger"
	"supportbot/internal/metrics"
	"supportbot/internal/repository/postgres"
	"supportbot/internal/service"
	"supportbot/internal/state"
	"supportbot/internal/tasks"

	"github.com/golang-migrate/migrate/v4"
	postgresdb "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting support bot", zap.Int("admins", len(cfg.AdminIDs)))

	// Connect to database with retries
	db, err := connectDatabase(cfg.DSN(), log)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	log.Info("Database connection established")

	// Run migrations
	if err := runMigrations(db, log); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Connect to Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	store := kv.NewRedisStore(redisClient)
	if err := connectRedis(store, log); err != nil {
		log.Fatal("Failed to connect to redis", zap.Error(err))
	}

	log.Info("Redis connection established", zap.String("addr", cfg.Redis.Addr))

	// Initialize repositories
	userRepo := postgres.NewUserRepo(db)
	ticketRepo := postgres.NewTicketRepo(db)

	// Initialize services
	services := handler.Services{
		Auth:   service.NewAuthService(userRepo, cfg.AdminIDs),
		User:   service.NewUserService(userRepo),
		Ticket: service.NewTicketService(ticketRepo),
		Stats:  service.NewStatsService(ticketRepo, log),
	}

	// Initialize Telegram bot
	bot, err := tele.NewBot(tele.Settings{
		Token:  cfg.BotToken,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c tele.Context) {
			fields := []zap.Field{zap.Error(err)}
			if c != nil && c.Sender() != nil {
				fields = append(fields, zap.Int64("user_id", c.Sender().ID))
			}
			log.Error("Handler error", fields...)
		},
	})
	if err != nil {
		log.Fatal("Failed to create bot", zap.Error(err))
	}

	log.Info("Telegram bot initialized")

	registry := tasks.NewRegistry(log)
	msgr := messenger.NewTelebot(bot)
	states := state.NewStore(store, cfg.SessionTTL, log)
	engine := conversation.NewEngine(states, msgr, registry, log)
	menus := adminmenu.NewTracker(store, msgr, registry, handler.AdminPanel(services.User, services.Stats), log)

	// Initialize handler
	h := handler.NewHandler(bot, services, states, engine, menus, msgr, handler.Delays{
		Cleanup:  cfg.CleanupDelay,
		AutoMenu: cfg.AutoMenuDelay,
	}, log)
	h.RegisterHandlers()

	log.Info("Handlers registered")

	var metricsServer *http.Server
	if cfg.MetricsAddr != "" {
		metricsServer = metrics.Serve(cfg.MetricsAddr, log)
	}

	// Start stats job in background
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go runStatsJob(ctx, services.Stats, log)

	// Start bot in background
	go func() {
		log.Info("Bot started successfully")
		bot.Start()
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan

	log.Info("Shutdown signal received, stopping bot...")

	// Graceful shutdown
	bot.Stop()
	cancel()
	registry.Shutdown()

	if metricsServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			log.Warn("Failed to stop metrics server", zap.Error(err))
		}
		shutdownCancel()
	}

	log.Info("Bot stopped gracefully")
}

// connectDatabase connects to PostgreSQL with retries
func connectDatabase(dsn string, log *zap.Logger) (*sql.DB, error) {
	var db *sql.DB
	var err error

	maxRetries := 30
	retryDelay := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		db, err = sql.Open("postgres", dsn)
		if err != nil {
			log.Warn("Failed to open database connection",
				zap.Int("attempt", i+1),
				zap.Error(err),
			)
			time.Sleep(retryDelay)
			continue
		}

		if err = db.Ping(); err != nil {
			log.Warn("Failed to ping database",
				zap.Int("attempt", i+1),
				zap.Error(err),
			)
			db.Close()
			time.Sleep(retryDelay)
			continue
		}

		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)

		return db, nil
	}

	return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", maxRetries, err)
}

// connectRedis waits for the state store to answer
func connectRedis(store *kv.RedisStore, log *zap.Logger) error {
	var err error

	maxRetries := 15
	retryDelay := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		err = store.Ping(ctx)
		cancel()
		if err == nil {
			return nil
		}

		log.Warn("Failed to ping redis",
			zap.Int("attempt", i+1),
			zap.Error(err),
		)
		time.Sleep(retryDelay)
	}

	return fmt.Errorf("failed to connect to redis after %d attempts: %w", maxRetries, err)
}

// runMigrations runs database migrations
func runMigrations(db *sql.DB, log *zap.Logger) error {
	driver, err := postgresdb.WithInstance(db, &postgresdb.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	err = m.Up()
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		log.Info("No new migrations to apply")
	case err != nil:
		return fmt.Errorf("failed to run migrations: %w", err)
	default:
		log.Info("Migrations applied successfully")
	}

	return nil
}

// runStatsJob keeps the open tickets gauge current
func runStatsJob(ctx context.Context, statsService *service.StatsService, log *zap.Logger) {
	if err := statsService.RefreshOpenTickets(ctx); err != nil {
		log.Error("Failed to refresh ticket stats", zap.Error(err))
	}

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("Stats job stopped")
			return
		case <-ticker.C:
			if err := statsService.RefreshOpenTickets(ctx); err != nil {
				log.Error("Failed to refresh ticket stats", zap.Error(err))
			}
		}
	}
}
