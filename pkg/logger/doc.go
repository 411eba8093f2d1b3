// Package logger builds structured slog loggers with context-aware
// attribute extraction.
//
// Extractors registered via WithContextExtractors run on every log call, so
// request-scoped values such as the ambient tenant slug appear on every
// record emitted while handling that request:
//
//	log := logger.New(
//		logger.WithFormat(logger.FormatText),
//		logger.WithContextExtractors(tenant.LoggerExtractor()),
//	)
package logger
