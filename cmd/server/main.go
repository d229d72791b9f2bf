package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/Dragy007/Movie-RecS/internal/catalog"
	"github.com/Dragy007/Movie-RecS/internal/config"
	"github.com/Dragy007/Movie-RecS/internal/gemini"
	httpserver "github.com/Dragy007/Movie-RecS/internal/http"
	"github.com/Dragy007/Movie-RecS/internal/metrics"
	"github.com/Dragy007/Movie-RecS/internal/recommend"
	"github.com/Dragy007/Movie-RecS/internal/repository"
	"github.com/Dragy007/Movie-RecS/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	_ = godotenv.Load()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("config error: %v", err)
	}

	collector := metrics.NewCollector()

	dbCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	storeOpts := store.Options{
		MaxConns:        int32(cfg.DBMaxConns),
		MinConns:        int32(cfg.DBMinConns),
		MaxConnIdleTime: time.Duration(cfg.DBMaxIdleSecs) * time.Second,
		MaxConnLifetime: time.Duration(cfg.DBMaxLifeSecs) * time.Second,
		ConnTimeout:     time.Duration(cfg.DBConnTimeoutSecs) * time.Second,
		Logger:          logger,
	}

	st, err := store.New(dbCtx, cfg.DBURL, storeOpts)
	if err != nil {
		logger.Fatalf("connect database: %v", err)
	}
	defer st.Close()

	repo := repository.New(st)

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		defer redisClient.Close()
	}

	dataset, err := catalog.LoadDataset(cfg.CatalogDataPath)
	if err != nil {
		logger.WithError(err).Warn("bundled catalog unavailable, lookups skip the local tier")
		dataset = nil
	}

	var remote catalog.Client
	if cfg.CatalogURL != "" {
		httpCatalog, err := catalog.NewHTTPClient(cfg.CatalogURL, cfg.CatalogAPIKey, time.Duration(cfg.CatalogTimeoutSecs)*time.Second, logger)
		if err != nil {
			logger.Fatalf("init catalog client: %v", err)
		}
		remote = httpCatalog
	}

	resolver := catalog.NewResolver(catalog.ResolverConfig{
		Local:        dataset,
		Remote:       remote,
		Redis:        redisClient,
		ImageBaseURL: cfg.ImageBaseURL,
		CacheTTL:     time.Duration(cfg.LookupCacheSecs) * time.Second,
		Logger:       logger,
		Metrics:      collector,
	})

	ai, err := gemini.NewClient(ctx, gemini.ClientConfig{
		APIKey:     cfg.GeminiAPIKey,
		TextModel:  cfg.GeminiTextModel,
		ImageModel: cfg.GeminiImageModel,
		Timeout:    time.Duration(cfg.GeminiTimeoutSecs) * time.Second,
		RPS:        cfg.GeminiRPS,
		Logger:     logger,
		Metrics:    collector,
	})
	if err != nil {
		logger.Fatalf("init gemini client: %v", err)
	}
	defer ai.Close()

	svc := recommend.NewService(recommend.ServiceConfig{
		Movies:       repo.RatedMovies,
		Resolver:     resolver,
		Text:         ai,
		Image:        ai,
		Feed:         repo.Notifier,
		Logger:       logger,
		Metrics:      collector,
		AssetTimeout: time.Duration(cfg.AssetTimeoutSecs) * time.Second,
	})
	svc.Start(ctx)

	server := httpserver.New(cfg, st, svc, collector, logger)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := server.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			serverErrCh <- err
			return
		}
		serverErrCh <- nil
	}()

	select {
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) && !errors.Is(err, context.Canceled) {
			logger.Errorf("server error: %v", err)
		}
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Errorf("graceful shutdown error: %v", err)
	}
}
