package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"makecommunity/internal/actions"
	"makecommunity/internal/auth"
	"makecommunity/internal/broker"
	"makecommunity/internal/cache"
	"makecommunity/internal/config"
	"makecommunity/internal/db"
	"makecommunity/internal/feed"
	"makecommunity/internal/logger"
	"makecommunity/internal/middleware"
	"makecommunity/internal/router"
	"makecommunity/internal/services"
	"makecommunity/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg := config.Load()
	gin.SetMode(cfg.GinMode)
	logger.Init(cfg.LogLevel, cfg.GinMode == gin.DebugMode)

	st, err := openStore(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("store init failed")
	}
	defer st.Close()

	pages, err := cache.New(cfg.PageCacheSize, cfg.PageCacheTTL)
	if err != nil {
		log.Fatal().Err(err).Msg("page cache init failed")
	}
	middleware.Registry.MustRegister(pages.Collectors()...)

	// Setup OS signal handling for graceful shutdown (SIGINT, SIGTERM)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var reval cache.Revalidator = pages
	if len(cfg.KafkaBrokers) > 0 {
		fanOut := newFanOut(cfg, pages)
		defer fanOut.Close()
		go fanOut.Run(ctx)
		reval = fanOut
	}

	secret := cfg.JWTSecret
	if secret == "" {
		// Session middleware is off without JWT_SECRET; the key only
		// has to outlive the process.
		secret = uuid.NewString()
		log.Warn().Msg("JWT_SECRET is not set; sessions are disabled")
	}
	authSvc := auth.NewService(st, auth.Options{
		Secret:         secret,
		AccessTokenTTL: cfg.AccessTokenTTL,
		ConfirmEmail:   cfg.AuthConfirmEmail,
		Mailer:         services.NewMailService(cfg),
	})

	var users middleware.UserResolver
	if cfg.BackendConfigured() {
		users = authSvc
	}

	r, err := router.New(router.Deps{
		Config:  cfg,
		Store:   st,
		Users:   users,
		Feed:    feed.NewService(st, pages),
		Actions: actions.New(authSvc, st, reval, cfg.SiteURL),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("router init failed")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("store", cfg.StoreDriver).Msg("MakeCommunity server starting")
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
	log.Info().Msg("shutdown completed")
}

func openStore(cfg *config.Config) (store.Store, error) {
	if cfg.StoreDriver == "memory" {
		log.Warn().Msg("using the in-memory store; data is lost on restart")
		return store.NewMemory(), nil
	}
	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	return store.NewGorm(conn), nil
}

// newFanOut connects the page cache to the invalidation topic. Each process
// joins its own consumer group so it receives every message.
func newFanOut(cfg *config.Config, pages *cache.PageCache) *broker.FanOut {
	kcfg := broker.KafkaConfig{
		Brokers: cfg.KafkaBrokers,
		Topic:   cfg.KafkaTopic,
		GroupID: cfg.KafkaGroupID,
	}
	if kcfg.GroupID == "" {
		host, _ := os.Hostname()
		kcfg.GroupID = "makecommunity-" + host + "-" + uuid.NewString()[:8]
	}

	writer := broker.NewKafkaWriter(kcfg, func(err error) {
		log.Error().Err(err).Msg("failed to publish invalidation")
	})
	fanOut := broker.NewFanOut(pages, writer, broker.NewKafkaReader(kcfg))
	log.Info().Strs("brokers", kcfg.Brokers).Str("topic", kcfg.Topic).Str("group", kcfg.GroupID).
		Str("origin", fanOut.Origin()).Msg("cache invalidation fan-out enabled")
	return fanOut
}
