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
	"github.com/nimasrn/denitracker/internal/config"
	"github.com/nimasrn/denitracker/internal/ledgerapi"
	"github.com/nimasrn/denitracker/internal/repository"
	"github.com/nimasrn/denitracker/pkg/pg"
	"github.com/nimasrn/denitracker/pkg/redis"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := config.Load(argContainsEnvPath()); err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	cfg := config.Get()
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	pgConf := pg.Config{
		User:     cfg.PostgresUser,
		Host:     cfg.PostgresHost,
		Port:     cfg.PostgresPort,
		Password: cfg.PostgresPassword,
		Database: cfg.PostgresDatabase,
		SSLMode:  cfg.PostgresSSLMode,

		MaxOpenConns:    cfg.PostgresMaxConns,
		MaxIdleConns:    cfg.PostgresMaxConns / 2,
		ConnMaxLifetime: 30 * time.Minute,
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	if err := pg.Migrate(ctx, pgConf, repository.Migrations()); err != nil {
		cancel()
		log.Fatal().Err(err).Msg("Failed to migrate database")
	}
	cancel()

	db, err := pg.CreateReadWrite(pgConf, pgConf, cfg.AppEnv == "dev")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed connecting to postgres")
	}
	defer db.Close()

	deps := ledgerapi.Dependencies{
		Customers:    repository.NewCustomerRepository(db),
		Items:        repository.NewItemRepository(db),
		Transactions: repository.NewTransactionRepository(db),
		Ping:         db.Ping,
		Log:          log.Logger,
	}

	if cfg.RedisAddr != "" {
		redisAdap, err := redis.NewRedisAdapter(context.Background(), cfg.RedisKeyPrefix, &redis.Options{
			Addrs:      []string{cfg.RedisAddr},
			ClientName: cfg.AppName,
			DB:         cfg.RedisDatabase,
			Username:   cfg.RedisUsername,
			Password:   cfg.RedisPassword,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed connecting to redis")
		}
		defer redisAdap.Close()

		idemConf := ledgerapi.DefaultIdempotencyConfig()
		idemConf.ProcessedTTL = cfg.IdempotencyTTL
		deps.Idempotency = ledgerapi.NewIdempotencyService(redisAdap, idemConf, log.Logger)
	} else {
		log.Warn().Msg("REDIS_ADDR not set, idempotency relies on client_ref only")
	}

	router := ledgerapi.SetupRouter(ledgerapi.NewHandler(deps))

	srv := &http.Server{
		Addr:         cfg.LedgerListenAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("Ledger API started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

func argContainsEnvPath() string {
	for _, v := range os.Args {
		if strings.HasPrefix(v, "--env=") {
			path := strings.TrimPrefix(v, "--env=")
			if _, err := os.Stat(path); err != nil {
				log.Error().Err(err).Str("path", path).Msg("Failed to open the passed env file")
				return ""
			}
			return path
		}
	}
	return ""
}
