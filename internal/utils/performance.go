package utils

import (
	"time"

	"github.com/rs/zerolog"
)

// OperationTimer returns a func that logs how long an operation took.
// Operations that take longer than slow are logged as warnings.
//
// Usage:
//
//	defer utils.OperationTimer("render_frame", 500*time.Millisecond, log)()
func OperationTimer(operation string, slow time.Duration, log zerolog.Logger) func() {
	start := time.Now()

	return func() {
		duration := time.Since(start)

		if slow > 0 && duration > slow {
			log.Warn().
				Str("operation", operation).
				Dur("duration", duration).
				Msg("Slow operation detected")
			return
		}

		log.Debug().
			Str("operation", operation).
			Dur("duration_ms", duration).
			Msg("Operation completed")
	}
}

// MeasureDBQuery returns a func that logs a query's duration and affected rows
func MeasureDBQuery(queryName string, log zerolog.Logger) func(rowsAffected int64) {
	start := time.Now()

	return func(rowsAffected int64) {
		duration := time.Since(start)

		log.Debug().
			Str("query", queryName).
			Dur("duration_ms", duration).
			Int64("rows_affected", rowsAffected).
			Msg("Database query completed")

		if duration > 5*time.Second {
			log.Warn().
				Str("query", queryName).
				Dur("duration", duration).
				Int64("rows_affected", rowsAffected).
				Msg("Slow database query detected")
		}
	}
}
