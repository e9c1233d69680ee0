// Package logger builds slog loggers and provides attribute helpers used
// across the framework.
//
//	log := logger.New(logger.WithDevelopment("relay"))
//	log.Info("server starting", logger.Component("server"), logger.Event("startup"))
//
// Production setups switch to JSON and pull request-scoped values out of the
// context:
//
//	log := logger.New(
//		logger.WithProduction("relay"),
//		logger.WithContextValue("request_id", requestIDKey{}),
//	)
//	log.InfoContext(req, "processing")
//
// Attribute helpers return an empty slog.Attr for nil or empty input, so they
// can be passed unconditionally:
//
//	log.Error("handler failed", logger.Error(err), logger.Path(req.Path()))
package logger
