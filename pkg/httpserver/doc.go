// Package httpserver runs the intake HTTP service with graceful shutdown.
//
// Server opens its listener before invoking start hooks, serves until the
// context passed to Run is cancelled or SIGINT/SIGTERM arrives, then calls
// http.Server.Shutdown with a bounded deadline so uploads in flight can
// finish. Errors are wrapped with ErrStart and ErrShutdown.
//
//	r := chi.NewRouter()
//	r.Get("/livez", httpserver.HealthCheckHandler(log))
//	r.Get("/readyz", httpserver.HealthCheckHandler(log, redis.Healthcheck(client)))
//
//	srv := httpserver.NewFromConfig(cfg.HTTP, httpserver.WithLogger(log))
//	if err := srv.Run(ctx, r); err != nil {
//		log.Error("server stopped", logger.Error(err))
//	}
package httpserver
