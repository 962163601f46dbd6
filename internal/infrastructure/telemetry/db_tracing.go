package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/inkthread/storefront/internal/infrastructure/config"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultSlowQuery = 200 * time.Millisecond

type queryStartKey struct{}

// InstrumentGorm registers otelgorm on db plus a callback that flags slow
// statements on the active span and in the log. It is a no-op unless
// DB tracing is enabled.
func InstrumentGorm(db *gorm.DB, cfg config.TelemetryConfig, logger *zap.Logger) error {
	if !cfg.DBTraceEnabled {
		return nil
	}
	opts := []otelgorm.Option{otelgorm.WithDBName(db.Name())}
	if !cfg.DBLogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	thresh := cfg.DBSlowQueryThresh
	if thresh <= 0 {
		thresh = defaultSlowQuery
	}
	w := &slowQueryWatch{thresh: thresh, logger: logger}
	cb := db.Callback()
	return errors.Join(
		cb.Create().Before("gorm:create").Register("telemetry:start_create", markStart),
		cb.Create().After("gorm:create").Register("telemetry:slow_create", w.after),
		cb.Query().Before("gorm:query").Register("telemetry:start_query", markStart),
		cb.Query().After("gorm:query").Register("telemetry:slow_query", w.after),
		cb.Update().Before("gorm:update").Register("telemetry:start_update", markStart),
		cb.Update().After("gorm:update").Register("telemetry:slow_update", w.after),
		cb.Delete().Before("gorm:delete").Register("telemetry:start_delete", markStart),
		cb.Delete().After("gorm:delete").Register("telemetry:slow_delete", w.after),
		cb.Raw().Before("gorm:raw").Register("telemetry:start_raw", markStart),
		cb.Raw().After("gorm:raw").Register("telemetry:slow_raw", w.after),
	)
}

func markStart(db *gorm.DB) {
	if db.Statement.Context != nil {
		db.Statement.Context = context.WithValue(db.Statement.Context, queryStartKey{}, time.Now())
	}
}

type slowQueryWatch struct {
	thresh time.Duration
	logger *zap.Logger
}

func (w *slowQueryWatch) after(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}
	start, ok := ctx.Value(queryStartKey{}).(time.Time)
	if !ok {
		return
	}
	elapsed := time.Since(start)
	if elapsed < w.thresh {
		return
	}

	span := trace.SpanFromContext(ctx)
	span.SetAttributes(
		attribute.Bool("db.slow_query", true),
		attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
	)
	if w.logger != nil {
		w.logger.Warn("slow query",
			zap.String("table", db.Statement.Table),
			zap.Duration("elapsed", elapsed),
			zap.Int64("rows", db.Statement.RowsAffected),
			zap.String("trace_id", TraceID(ctx)))
	}
}
