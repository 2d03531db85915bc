// Command intake runs an HTTP service that accepts multipart file uploads,
// validates them and stores them on local disk or S3.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/intake/pkg/config"
	"github.com/dmitrymomot/intake/pkg/httpserver"
	"github.com/dmitrymomot/intake/pkg/logger"
	"github.com/dmitrymomot/intake/pkg/redis"
	"github.com/dmitrymomot/intake/pkg/upload"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		slog.Error("intake stopped", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	var cfg Config
	if err := config.Load(&cfg); err != nil {
		return err
	}

	log := logger.New(
		logger.WithEnvironment(cfg.Env, cfg.ServiceName),
		logger.WithLevelName(cfg.LogLevel),
		logger.WithContextValue("request_id", middleware.RequestIDKey),
	)
	logger.SetAsDefault(log)

	storage, err := newStorage(ctx, cfg)
	if err != nil {
		return err
	}

	var (
		index  upload.ChecksumIndex
		checks []func(context.Context) error
	)
	if cfg.Upload.Dedupe {
		client, err := redis.Connect(ctx, cfg.Redis)
		if err != nil {
			return fmt.Errorf("checksum index: %w", err)
		}
		defer func() { _ = client.Close() }()

		index = redis.NewChecksumIndexFromConfig(client, cfg.Redis)
		storage = upload.WithIndex(storage, index)
		checks = append(checks, redis.Healthcheck(client))
	}

	log.Info("intake configured",
		logger.Backend(cfg.Upload.Backend),
		slog.Bool("dedupe", cfg.Upload.Dedupe),
		slog.String("max_file_size", cfg.Upload.MaxFileSize),
	)

	r := newRouter(cfg, storage, index, log, checks...)

	srv := httpserver.NewFromConfig(cfg.HTTP, httpserver.WithLogger(log))
	return srv.Run(ctx, r)
}

func newStorage(ctx context.Context, cfg Config) (upload.Storage, error) {
	switch strings.ToLower(cfg.Upload.Backend) {
	case "", "local":
		local, err := upload.NewLocalStorage(cfg.Upload.Dir, cfg.Upload.BaseURL,
			upload.WithOverwrite(cfg.Upload.Overwrite),
			upload.WithLocalNamer(cfg.Upload.namer()),
		)
		if err != nil {
			return nil, err
		}
		return local, nil
	case "s3":
		opts := []upload.S3Option{upload.WithS3Namer(cfg.Upload.namer())}
		if !cfg.Upload.Overwrite {
			opts = append(opts, upload.WithS3RejectExisting())
		}
		s3, err := upload.NewS3Storage(ctx, cfg.S3, opts...)
		if err != nil {
			return nil, err
		}
		return s3, nil
	default:
		return nil, fmt.Errorf("%w: unknown upload backend %q", upload.ErrInvalidConfig, cfg.Upload.Backend)
	}
}

func newRouter(cfg Config, storage upload.Storage, index upload.ChecksumIndex, log *slog.Logger, checks ...func(context.Context) error) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/livez", httpserver.HealthCheckHandler(log))
	r.Get("/readyz", httpserver.HealthCheckHandler(log, checks...))
	r.Method(http.MethodPost, "/upload", newUploadHandler(storage, index, cfg.Upload, log))

	if isLocal(cfg.Upload.Backend) && cfg.Upload.ServeFiles && strings.HasPrefix(cfg.Upload.BaseURL, "/") {
		prefix := "/" + strings.Trim(cfg.Upload.BaseURL, "/")
		if prefix != "/" {
			r.Handle(prefix+"/*", http.StripPrefix(prefix+"/", http.FileServer(http.Dir(cfg.Upload.Dir))))
		}
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
	})

	return r
}

func isLocal(backend string) bool {
	return backend == "" || strings.EqualFold(backend, "local")
}
