package main

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"VoiceShelf/internal/document"
	handlers "VoiceShelf/internal/handler"
	"VoiceShelf/internal/listeners"
	"VoiceShelf/internal/models"
	"VoiceShelf/internal/speech"
	"VoiceShelf/internal/studio"
	"VoiceShelf/pkg/backup"
	"VoiceShelf/pkg/botnoi"
	"VoiceShelf/pkg/cache"
	"VoiceShelf/pkg/config"
	"VoiceShelf/pkg/i18n"
	"VoiceShelf/pkg/logger"
	"VoiceShelf/pkg/metrics"
	"VoiceShelf/pkg/middleware"
	"VoiceShelf/pkg/scheduler"
	"VoiceShelf/pkg/search"
	"VoiceShelf/pkg/sse"
	"VoiceShelf/pkg/storage"
	"VoiceShelf/pkg/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/ulule/limiter/v3"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"
	"go.uber.org/zap"
)


func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := config.Load(); err != nil {
		log.Fatalf("load config: %v", err)
	}
	cfg := config.GlobalConfig
	if err := logger.Init(&cfg.Log, cfg.Mode); err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()
	gin.SetMode(cfg.Mode)

	var sqlLog io.Writer
	if cfg.Mode == gin.DebugMode {
		sqlLog = os.Stdout
	}
	db, err := util.InitDatabase(sqlLog, cfg.DBDriver, cfg.DSN)
	if err != nil {
		logger.Error("open database failed", zap.Error(err))
		os.Exit(1)
	}
	if err := models.Migrate(db); err != nil {
		logger.Error("migrate failed", zap.Error(err))
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewMetrics(reg)

	appCache, err := cache.NewCache(cache.Config{
		Type: cfg.CacheType,
		Redis: cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   "voiceshelf:",
		},
		Local: cache.LocalConfig{DefaultExpiration: 5 * time.Minute, CleanupInterval: 10 * time.Minute},
	})
	if err != nil {
		logger.Error("init cache failed", zap.Error(err))
		os.Exit(1)
	}
	defer appCache.Close()

	pipeline, err := document.NewPipeline(document.Options{
		MaxBytes:  cfg.UploadMaxBytes,
		CacheSize: cfg.ExtractCacheSize,
		Metrics:   m,
	})
	if err != nil {
		logger.Error("init extractor failed", zap.Error(err))
		os.Exit(1)
	}

	var engine search.Engine
	if cfg.SearchEnabled {
		engine, err = search.New(search.Config{
			IndexPath:    cfg.SearchPath,
			QueryTimeout: 3 * time.Second,
			BatchSize:    200,
		}, search.BuildIndexMapping(), search.CollectionSearchFields)
		if err != nil {
			logger.Error("open search index failed", zap.Error(err))
			os.Exit(1)
		}
		defer engine.Close()
		listeners.InitCollectionListeners(util.Sig(), engine)
		if cfg.SearchPath == "" {
			if _, err := listeners.ReindexCollections(ctx, db, engine); err != nil {
				logger.Warn("reindex collections failed", zap.Error(err))
			}
		}
	}

	store, err := storage.New(storage.Config{
		Type:        cfg.StorageType,
		LocalDir:    cfg.StorageDir,
		MediaPrefix: cfg.MediaPrefix,
		Minio: storage.MinioConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
			BaseURL:   cfg.MinioPublicBase,
		},
	})
	if err != nil {
		logger.Error("init storage failed", zap.Error(err))
		os.Exit(1)
	}

	providerLog := logrus.New()
	providerLog.SetFormatter(&logrus.JSONFormatter{})
	if lvl, err := logrus.ParseLevel(cfg.Log.Level); err == nil {
		providerLog.SetLevel(lvl)
	}
	client := botnoi.NewClient(cfg.BotnoiBaseURL, cfg.SynthTimeout, providerLog)

	st := studio.New(studio.Options{
		DB:          db,
		Extractor:   pipeline,
		Synthesizer: speech.NewRemoteSynthesizer(client, m),
		Credentials: studio.NewCredentialStore(db, appCache, cfg.CredentialCacheTTL),
		Guard:       appCache,
		Search:      engine,
		Storage:     store,
		Signals:     util.Sig(),
		Metrics:     m,
		Timeout:     cfg.SynthTimeout,
	})

	hub := sse.NewHub(30 * time.Second)
	listeners.InitEventListeners(util.Sig(), hub)

	tr, err := i18n.NewI18nSupport(cfg.DefaultLanguage)
	if err != nil {
		logger.Error("load translations failed", zap.Error(err))
		os.Exit(1)
	}

	rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		Rate:        cfg.RateLimit,
		Identifier:  "user",
		AddHeaders:  true,
		DenyMessage: "Too Many Requests",
	}, limiterStore(cfg)).WithObserver(middleware.NewPrometheusObserver(reg))

	cr := scheduler.NewCron(time.Local)
	if cfg.BackupEnabled {
		if err := backup.New(db, cfg.DBDriver, cfg.BackupPath).Schedule(cr, cfg.BackupSchedule); err != nil {
			logger.Warn("backup not scheduled", zap.Error(err))
		}
	}
	cr.Start()
	defer cr.Stop()

	r := gin.New()
	r.Use(logger.GinLogger(), gin.Recovery(), metrics.MonitorMiddleware(m))

	r.Use(middleware.Sessions(cfg.SessionSecret, cfg.SessionExpireDays))

	if cfg.StorageType == "" || cfg.StorageType == "local" {
		r.Static(cfg.MediaPrefix, cfg.StorageDir)
	}
	r.GET(cfg.MonitorPrefix, gin.WrapH(m.Handler()))

	handlers.NewHandlers(db, st, tr, rateLimiter.Middleware()).WithEvents(hub).Register(r)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	srv.RegisterOnShutdown(hub.Close)
	go func() {
		logger.Info("server listening", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	// synthesis calls may still be waiting on the provider
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.SynthTimeout+5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
	}
}

// limiterStore shares redis with the cache when one is configured.
func limiterStore(cfg *config.Config) limiter.Store {
	if cfg.CacheType != "redis" {
		return nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	store, err := sredis.NewStoreWithOptions(rdb, limiter.StoreOptions{
		Prefix: "voiceshelf:limiter",
	})
	if err != nil {
		logger.Warn("redis rate limit store unavailable, using memory", zap.Error(err))
		return nil
	}
	return store
}
