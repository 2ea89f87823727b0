// Command blog serves the blog: server-rendered pages, a read-only JSON API
// and operational probes.
//
// @title        Blog API
// @version      1.0
// @description  Read-only JSON view of the blog posts and their comments.
// @BasePath     /
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/99minutos/blog/internal/api"
	"github.com/99minutos/blog/internal/core/ports"
	"github.com/99minutos/blog/internal/core/service"
	"github.com/99minutos/blog/internal/infrastructure/db/memory"
	"github.com/99minutos/blog/internal/infrastructure/db/redis"
	"github.com/99minutos/blog/internal/infrastructure/db/sqldb"
	"github.com/99minutos/blog/internal/pkg/config"
	"github.com/99minutos/blog/pkg/logger"
)

func main() {
	cfg := config.Load()

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "blog",
	})
	if cfg.UsingDevSecret() {
		log.Warn().Msg("SECRET_KEY not set, using the development key")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sqldb.Open(ctx, sqldb.Config{Driver: cfg.Database.Driver, DSN: cfg.Database.DSN})
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Database.Driver).Msg("database open failed")
	}
	defer func() { _ = db.Close() }()
	log.Info().Str("driver", db.Driver()).Msg("database ready")

	var (
		sessions ports.SessionStore
		rdb      *goredis.Client
	)
	if cfg.Redis.Addr != "" {
		rdb, err = redis.Connect(ctx, redis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		if err != nil {
			log.Fatal().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis connect failed")
		}
		defer func() { _ = rdb.Close() }()
		sessions = redis.NewSessionStore(rdb)
		log.Info().Str("addr", cfg.Redis.Addr).Msg("sessions stored in redis")
	} else {
		sessions = memory.NewSessionStore()
		log.Info().Msg("sessions stored in memory")
	}

	authService := service.NewAuthService(
		sqldb.NewUserRepository(db),
		sessions,
		service.NewBcryptHasher(bcrypt.DefaultCost),
		cfg.Session.TTL,
		logger.Component("auth"),
	)
	blogService := service.NewBlogService(
		sqldb.NewPostRepository(db),
		sqldb.NewCommentRepository(db),
		logger.Component("blog"),
	)

	e, err := api.NewRouter(api.Dependencies{
		Auth:         authService,
		Blog:         blogService,
		DB:           db,
		Redis:        rdb,
		SecretKey:    cfg.SecretKey,
		SessionTTL:   cfg.Session.TTL,
		CookieSecure: cfg.Session.CookieSecure,
		CSRFEnabled:  cfg.Session.CSRFEnabled,
		Logger:       logger.Component("http"),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("router setup failed")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           e,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("env", cfg.Env).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
