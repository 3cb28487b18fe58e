// Package logger provides structured logging using zerolog.
//
// It supports JSON and console output, log level configuration, and
// component-scoped loggers. Loggers pick up the run ID and the active
// trace and span IDs from a context.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//	  output: "stderr"
//
// # Usage
//
//	log := logger.Get("plan").WithContext(ctx)
//	log.Info("run finished", logger.Fields("elements", 12))
package logger
