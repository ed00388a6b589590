// Package logger wraps zap with a process-wide singleton and context
// propagation helpers.
//
// Usage:
//
//	logger.Init(logger.Config{Env: "prod", Level: "info"})
//	defer logger.Sync()
//
//	log := logger.From(ctx).With(logger.Component("exchange"), logger.Op("Exchange"))
//	log.Info("granted", logger.Provider("facebook"))
//
// Middlewares inject a request-scoped logger into the context; From(ctx)
// falls back to the singleton when none is present.
package logger
