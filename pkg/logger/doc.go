// Package logger builds the *slog.Logger shared by the intake service.
//
// New applies a set of Option functions, picks slog.NewTextHandler or
// slog.NewJSONHandler and wraps the result in LogHandlerDecorator, which runs
// the registered ContextExtractor callbacks on every record. That is how the
// request identifier set by the HTTP layer reaches log lines emitted deep in
// the upload package without being threaded through every call.
//
// # Usage
//
//	log := logger.New(
//		logger.WithEnvironment(cfg.Env, "intake"),
//		logger.WithContextValue("request_id", middleware.RequestIDKey),
//	)
//	logger.SetAsDefault(log)
//
//	log.InfoContext(ctx, "upload persisted",
//		logger.Field("avatar"),
//		logger.FileName(desc.Name),
//		logger.FileSize(desc.Size),
//		logger.Checksum(desc.Checksum),
//	)
//
// # Attributes
//
// The constructors in attr.go keep key names consistent between packages.
// Error, Errors, Checksum and RequestID return an empty Attr for zero input,
// which slog drops, so callers need no nil check:
//
//	log.Info("stored", logger.Error(err))
package logger
