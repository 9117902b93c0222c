package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pribylovaa/photo-sharing/internal/cache"
	"github.com/pribylovaa/photo-sharing/internal/clock"
	"github.com/pribylovaa/photo-sharing/internal/comments"
	"github.com/pribylovaa/photo-sharing/internal/config"
	"github.com/pribylovaa/photo-sharing/internal/hasher"
	"github.com/pribylovaa/photo-sharing/internal/mail"
	"github.com/pribylovaa/photo-sharing/internal/photos"
	"github.com/pribylovaa/photo-sharing/internal/session"
	"github.com/pribylovaa/photo-sharing/internal/storage/minio"
	"github.com/pribylovaa/photo-sharing/internal/storage/mongo"
	"github.com/pribylovaa/photo-sharing/internal/storage/postgres"
	"github.com/pribylovaa/photo-sharing/internal/token"
	httpapi "github.com/pribylovaa/photo-sharing/internal/transport/http"
	"github.com/pribylovaa/photo-sharing/internal/transport/http/handlers"
	"github.com/pribylovaa/photo-sharing/internal/transport/http/middleware"
)

// Константы для определения окружения.
const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to config file")
	flag.Parse()

	cfg := config.MustLoad(configPath)

	log := setupLogger(cfg.Env)
	slog.SetDefault(log)
	log.Info("starting photo-sharing", "env", cfg.Env)

	// Корневой контекст по сигналам.
	rootCtx, rootCancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer rootCancel()

	if err := run(rootCtx, cfg, log); err != nil {
		log.Error("service_failed", slog.String("err", err.Error()))
		os.Exit(1)
	}

	log.Info("service_stopped")
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	// PostgreSQL: учётные записи и фотографии.
	dbCtx, dbCancel := context.WithTimeout(ctx, 10*time.Second)
	pg, err := postgres.New(dbCtx, cfg.DB.DatabaseURL)
	dbCancel()
	if err != nil {
		log.Error("postgres_connect_failed", slog.String("err", err.Error()))
		return err
	}
	defer pg.Close()
	log.Info("postgres_connected")

	if err := pg.Migrate(ctx); err != nil {
		log.Error("postgres_migrate_failed", slog.String("err", err.Error()))
		return err
	}
	log.Info("postgres_migrated")

	// MongoDB: комментарии.
	mgCtx, mgCancel := context.WithTimeout(ctx, 10*time.Second)
	mg, err := mongo.New(mgCtx, cfg.Mongo, clock.Real{})
	mgCancel()
	if err != nil {
		log.Error("mongo_connect_failed", slog.String("err", err.Error()))
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if cerr := mg.Close(closeCtx); cerr != nil {
			log.Warn("mongo_close_failed", slog.String("err", cerr.Error()))
		}
	}()
	log.Info("mongo_connected")

	// MinIO: содержимое фотографий.
	s3Ctx, s3Cancel := context.WithTimeout(ctx, 10*time.Second)
	objects, err := minio.New(s3Ctx, cfg.S3, cfg.Photos)
	s3Cancel()
	if err != nil {
		log.Error("minio_connect_failed", slog.String("err", err.Error()))
		return err
	}
	log.Info("minio_connected", slog.String("bucket", cfg.S3.Bucket))

	h, err := hasher.New(cfg.Auth)
	if err != nil {
		log.Error("hasher_init_failed", slog.String("err", err.Error()))
		return err
	}

	sessions := session.New(pg, h, token.New(cfg.Auth, clock.Real{}), clock.Real{})
	sessions.SetMailer(mail.LogSender{}, mail.NewComposer(cfg.Mail))

	// Redis — опционально: пустой URL отключает кэш.
	if cfg.Redis.RedisURL != "" {
		rdCtx, rdCancel := context.WithTimeout(ctx, 5*time.Second)
		accCache, err := cache.NewRedisCache(rdCtx, cfg.Redis.RedisURL, "")
		rdCancel()
		if err != nil {
			log.Error("redis_connect_failed", slog.String("err", err.Error()))
			return err
		}
		defer func() {
			if cerr := accCache.Close(); cerr != nil {
				log.Warn("redis_close_failed", slog.String("err", cerr.Error()))
			}
		}()

		sessions.SetAccountCache(accCache, cfg.Redis.AccountTTL)
		log.Info("redis_cache_enabled", slog.Duration("ttl", cfg.Redis.AccountTTL))
	}

	photoSvc := photos.New(pg, objects, cfg.Photos)
	photoSvc.SetComments(mg)
	commentSvc := comments.New(mg, pg)
	log.Info("service_initialized")

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	apiHandler := httpapi.NewRouter(
		handlers.New(sessions, photoSvc, commentSvc, cfg.Photos.MaxSizeBytes),
		httpapi.Options{
			Logger:        log,
			Timeout:       cfg.Timeouts.Service,
			UploadTimeout: cfg.Timeouts.Upload,
			Metrics:       middleware.NewMetrics(reg),
			BasePath:      "/api",
		},
	)

	var ready int32 // 0 — not ready; 1 — ready

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if atomic.LoadInt32(&ready) != 1 {
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}

		pingCtx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		for name, ping := range map[string]func(context.Context) error{
			"postgres": pg.Ping,
			"mongo":    mg.Ping,
			"minio":    objects.Ping,
		} {
			if err := ping(pingCtx); err != nil {
				log.Warn("readiness_check_failed", slog.String("dep", name), slog.String("err", err.Error()))
				http.Error(w, "not ready", http.StatusServiceUnavailable)
				return
			}
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	mux.Handle("/", apiHandler)

	httpAddr := cfg.HTTP.Addr()
	httpSrv := &http.Server{
		Addr:              httpAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ln, err := net.Listen("tcp", httpAddr)
	if err != nil {
		log.Error("http_listen_failed", slog.String("addr", httpAddr), slog.String("err", err.Error()))
		return err
	}

	log.Info("http_listen_start", slog.String("addr", httpAddr))

	serveErrCh := make(chan error, 1)
	go func() {
		if err := httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErrCh <- err
		}
		close(serveErrCh)
	}()

	atomic.StoreInt32(&ready, 1)
	log.Info("service_ready")

	var serveErr error
	select {
	case <-ctx.Done():
		log.Info("shutdown_requested")
	case serveErr = <-serveErrCh:
		if serveErr != nil {
			log.Error("http_serve_failed", slog.String("err", serveErr.Error()))
		}
	}

	atomic.StoreInt32(&ready, 0)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http_shutdown_incomplete", slog.String("err", err.Error()))
	} else {
		log.Info("http_stopped")
	}

	return serveErr
}

func setupLogger(env string) *slog.Logger {
	switch env {
	case envLocal:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envDev:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envProd:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}
