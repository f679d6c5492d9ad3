package telemetry

import (
	"context"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig controls query spans and slow query detection.
type DBTracingConfig struct {
	Enabled          bool
	LogFullSQL       bool          // include full SQL in spans, dev only
	SlowQueryThresh  time.Duration // queries above this get a slow_query attribute
	DBSystem         string
	WithoutVariables bool // strip query variables from the SQL statement
}

// DefaultDBTracingConfig returns the defaults used by the server: tracing
// off, variables hidden, 200ms slow threshold against postgres.
func DefaultDBTracingConfig() DBTracingConfig {
	return DBTracingConfig{
		SlowQueryThresh:  200 * time.Millisecond,
		DBSystem:         "postgresql",
		WithoutVariables: true,
	}
}

type traceStartKey struct{}

// stageHooks returns the Register functions for the before and after
// hook slots of one GORM operation, anchored around the built-in
// "gorm:<op>" callback. GORM keeps its callback processor type
// unexported, so only bound method values leave the switch.
func stageHooks(db *gorm.DB, op string) (beforeReg, afterReg func(name string, fn func(*gorm.DB)) error) {
	anchor := "gorm:" + op
	switch op {
	case "create":
		p := db.Callback().Create()
		return p.Before(anchor).Register, p.After(anchor).Register
	case "query":
		p := db.Callback().Query()
		return p.Before(anchor).Register, p.After(anchor).Register
	case "update":
		p := db.Callback().Update()
		return p.Before(anchor).Register, p.After(anchor).Register
	case "delete":
		p := db.Callback().Delete()
		return p.Before(anchor).Register, p.After(anchor).Register
	case "row":
		p := db.Callback().Row()
		return p.Before(anchor).Register, p.After(anchor).Register
	default:
		p := db.Callback().Raw()
		return p.Before(anchor).Register, p.After(anchor).Register
	}
}

var gormOperations = []string{"create", "query", "update", "delete", "row", "raw"}

// registerTimingCallbacks installs the given before and after hooks on
// every GORM operation under the given name prefix. Either hook may be
// nil.
func registerTimingCallbacks(db *gorm.DB, prefix string, before, after func(*gorm.DB)) error {
	for _, op := range gormOperations {
		beforeReg, afterReg := stageHooks(db, op)
		if before != nil {
			if err := beforeReg(prefix+":before_"+op, before); err != nil {
				return err
			}
		}
		if after != nil {
			if err := afterReg(prefix+":after_"+op, after); err != nil {
				return err
			}
		}
	}
	return nil
}

// markQueryStart stamps the statement context with the wall clock so the
// after hook can measure elapsed time.
func markQueryStart(db *gorm.DB) {
	if db.Statement.Context != nil {
		db.Statement.Context = context.WithValue(db.Statement.Context, traceStartKey{}, time.Now())
	}
}

// annotateQuerySpan decorates the active span with rows-affected and
// table attributes, records real errors, and flags queries slower than
// thresh with an event.
func annotateQuerySpan(db *gorm.DB, ctx context.Context, thresh time.Duration) {
	span := trace.SpanFromContext(ctx)
	if span == nil || !span.IsRecording() {
		return
	}

	if rows := db.Statement.RowsAffected; rows >= 0 {
		span.SetAttributes(attribute.Int64("db.rows_affected", rows))
	}
	if table := db.Statement.Table; table != "" {
		span.SetAttributes(attribute.String("db.sql.table", table))
	}

	// ErrRecordNotFound is an expected outcome, not a failure.
	if db.Error != nil && db.Error != gorm.ErrRecordNotFound {
		span.SetStatus(codes.Error, db.Error.Error())
		span.RecordError(db.Error)
	}

	start, ok := ctx.Value(traceStartKey{}).(time.Time)
	if !ok {
		return
	}

	if elapsed := time.Since(start); elapsed > thresh {
		span.SetAttributes(
			attribute.Bool("db.slow_query", true),
			attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
		)
		span.AddEvent("slow_query_warning", trace.WithAttributes(
			attribute.Int64("duration_ms", elapsed.Milliseconds()),
			attribute.Int64("threshold_ms", thresh.Milliseconds()),
		))
	}
}

// DBTracingPlugin layers slow query detection over the otelgorm plugin.
type DBTracingPlugin struct {
	config DBTracingConfig
	log    *zap.Logger
}

// NewDBTracingPlugin builds the plugin wrapper; RegisterOtelGorm installs it.
func NewDBTracingPlugin(cfg DBTracingConfig, log *zap.Logger) *DBTracingPlugin {
	return &DBTracingPlugin{config: cfg, log: log}
}

// RegisterOtelGorm installs otelgorm plus the timing callbacks on the
// GORM instance. No-op when tracing is disabled.
func (p *DBTracingPlugin) RegisterOtelGorm(db *gorm.DB) error {
	if !p.config.Enabled {
		return nil
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(p.config.DBSystem)}
	if !p.config.LogFullSQL {
		// Keep query parameters out of spans.
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}

	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	if err := registerTimingCallbacks(db, "otel_timing", markQueryStart, nil); err != nil {
		return err
	}
	if err := registerTimingCallbacks(db, "otel_slow_query", nil, p.afterQuery); err != nil {
		return err
	}

	p.log.Info("Database tracing enabled",
		zap.Bool("log_full_sql", p.config.LogFullSQL),
		zap.Duration("slow_query_threshold", p.config.SlowQueryThresh),
		zap.String("db_system", p.config.DBSystem),
	)

	return nil
}

func (p *DBTracingPlugin) afterQuery(db *gorm.DB) {
	if db.Statement.Context == nil {
		return
	}
	annotateQuerySpan(db, db.Statement.Context, p.config.SlowQueryThresh)
}
