package telemetry

import (
	"context"
	"database/sql"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBMetricsConfig controls query metrics and pool sampling.
type DBMetricsConfig struct {
	Enabled            bool
	SlowQueryThreshold time.Duration // default 200ms
	PoolStatsInterval  time.Duration // default 15s
}

// DefaultDBMetricsConfig returns the defaults used by the server.
func DefaultDBMetricsConfig() DBMetricsConfig {
	return DBMetricsConfig{
		Enabled:            true,
		SlowQueryThreshold: 200 * time.Millisecond,
		PoolStatsInterval:  15 * time.Second,
	}
}

func (cfg DBMetricsConfig) withDefaults() DBMetricsConfig {
	if cfg.SlowQueryThreshold <= 0 {
		cfg.SlowQueryThreshold = 200 * time.Millisecond
	}
	if cfg.PoolStatsInterval <= 0 {
		cfg.PoolStatsInterval = 15 * time.Second
	}
	return cfg
}

// DBMetrics carries the query instruments and the pool sampling loop.
type DBMetrics struct {
	poolConnections    *Gauge // db_pool_connections, labeled by state
	poolConnectionsMax *Gauge

	queryTotal     *Counter
	queryDuration  *Histogram
	slowQueryTotal *Counter

	config DBMetricsConfig
	log    *zap.Logger

	mu    sync.RWMutex
	sqlDB *sql.DB

	quit     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewDBMetrics registers the query and pool instruments on the meter.
func NewDBMetrics(meter metric.Meter, cfg DBMetricsConfig, log *zap.Logger) (*DBMetrics, error) {
	if log == nil {
		log = zap.NewNop()
	}

	m := &DBMetrics{
		config: cfg.withDefaults(),
		log:    log,
		quit:   make(chan struct{}),
	}

	var err error
	if m.poolConnections, err = NewGauge(meter, "db_pool_connections",
		"Number of connections in the pool by state", "{connection}"); err != nil {
		return nil, err
	}
	if m.poolConnectionsMax, err = NewGauge(meter, "db_pool_connections_max",
		"Maximum number of connections in the pool", "{connection}"); err != nil {
		return nil, err
	}
	if m.queryTotal, err = NewCounter(meter, "db_query_total",
		"Total number of database queries by operation type", "{query}"); err != nil {
		return nil, err
	}
	if m.queryDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "db_query_duration_seconds",
		Description: "Database query latency distribution in seconds",
		Unit:        "s",
		Boundaries:  DBDurationBuckets,
	}); err != nil {
		return nil, err
	}
	if m.slowQueryTotal, err = NewCounter(meter, "db_slow_query_total",
		"Total number of slow database queries", "{query}"); err != nil {
		return nil, err
	}

	return m, nil
}

// SetSQLDB hands over the pool to sample. Call before StartPoolSampling.
func (m *DBMetrics) SetSQLDB(sqlDB *sql.DB) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sqlDB = sqlDB
}

// StartPoolSampling launches the goroutine that records pool gauges on
// every interval tick. Stop terminates it.
func (m *DBMetrics) StartPoolSampling(ctx context.Context) {
	m.mu.RLock()
	sqlDB := m.sqlDB
	m.mu.RUnlock()

	if sqlDB == nil {
		m.log.Warn("Pool sampling skipped, no sql.DB attached")
		return
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()

		ticker := time.NewTicker(m.config.PoolStatsInterval)
		defer ticker.Stop()

		m.samplePool(ctx)
		for {
			select {
			case <-ticker.C:
				m.samplePool(ctx)
			case <-m.quit:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	m.log.Info("Pool sampling started", zap.Duration("interval", m.config.PoolStatsInterval))
}

func (m *DBMetrics) samplePool(ctx context.Context) {
	m.mu.RLock()
	sqlDB := m.sqlDB
	m.mu.RUnlock()

	if sqlDB == nil {
		return
	}

	stats := sqlDB.Stats()
	m.poolConnectionsMax.Record(ctx, int64(stats.MaxOpenConnections))

	// OpenConnections = Idle + InUse. WaitCount is cumulative rather than
	// a current state, so it is not a gauge.
	m.poolConnections.Record(ctx, int64(stats.Idle), AttrDBState.String("idle"))
	m.poolConnections.Record(ctx, int64(stats.InUse), AttrDBState.String("in_use"))
	m.poolConnections.Record(ctx, int64(stats.OpenConnections), AttrDBState.String("open"))
}

// Stop terminates the sampling goroutine. Safe to call more than once.
func (m *DBMetrics) Stop() {
	m.stopOnce.Do(func() {
		close(m.quit)
		m.wg.Wait()
	})
}

// RecordQuery feeds one query into the count, latency and slow-query
// instruments.
func (m *DBMetrics) RecordQuery(ctx context.Context, operation, table string, duration time.Duration, err error) {
	operation = strings.ToUpper(operation)
	if operation == "" {
		operation = "UNKNOWN"
	}

	m.queryTotal.Inc(ctx, AttrDBOperation.String(operation))
	m.queryDuration.RecordDuration(ctx, duration, AttrDBOperation.String(operation))

	if duration > m.config.SlowQueryThreshold {
		if table == "" {
			table = "unknown"
		}
		m.slowQueryTotal.Inc(ctx, AttrDBTable.String(table))
	}
}

type queryStartKey struct{}

// dbMetricsPlugin is the GORM plugin feeding query timings into DBMetrics.
type dbMetricsPlugin struct {
	metrics *DBMetrics
}

// NewDBMetricsPlugin wraps metrics in a GORM plugin.
func NewDBMetricsPlugin(metrics *DBMetrics) gorm.Plugin {
	return &dbMetricsPlugin{metrics: metrics}
}

func (p *dbMetricsPlugin) Name() string {
	return "db_metrics"
}

// callbackVerbs maps GORM callback stages to the SQL verb recorded in
// metrics. Row and raw statements carry arbitrary SQL, so their verb is
// read from the statement text instead.
var callbackVerbs = map[string]string{
	"create": "INSERT",
	"query":  "SELECT",
	"update": "UPDATE",
	"delete": "DELETE",
}

// Initialize hooks every GORM operation: the before callback stamps the
// start time into the statement context, the after callback records it.
func (p *dbMetricsPlugin) Initialize(db *gorm.DB) error {
	stampStart := func(db *gorm.DB) {
		ctx := db.Statement.Context
		if ctx == nil {
			ctx = context.Background()
		}
		db.Statement.Context = context.WithValue(ctx, queryStartKey{}, time.Now())
	}

	for _, op := range gormOperations {
		beforeReg, afterReg := stageHooks(db, op)
		if err := beforeReg("db_metrics:before_"+op, stampStart); err != nil {
			return err
		}

		verb := callbackVerbs[op]
		record := func(db *gorm.DB) {
			p.record(db, verb)
		}
		if err := afterReg("db_metrics:after_"+op, record); err != nil {
			return err
		}
	}

	return nil
}

func (p *dbMetricsPlugin) record(db *gorm.DB, verb string) {
	ctx := db.Statement.Context
	if ctx == nil {
		ctx = context.Background()
	}

	if verb == "" {
		verb = sqlVerb(db.Statement.SQL.String())
	}

	var elapsed time.Duration
	if start, ok := ctx.Value(queryStartKey{}).(time.Time); ok {
		elapsed = time.Since(start)
	}

	p.metrics.RecordQuery(ctx, verb, db.Statement.Table, elapsed, db.Error)
}

// sqlVerb reads the leading SQL verb off the statement text.
func sqlVerb(stmt string) string {
	stmt = strings.TrimSpace(strings.ToUpper(stmt))

	for _, verb := range []string{"SELECT", "INSERT", "UPDATE", "DELETE"} {
		if strings.HasPrefix(stmt, verb) {
			return verb
		}
	}
	return "OTHER"
}

// RegisterDBMetrics builds the instruments and installs the GORM plugin,
// returning the DBMetrics for lifecycle management. Disabled metrics
// yield nil.
func RegisterDBMetrics(db *gorm.DB, meterProvider *MeterProvider, cfg DBMetricsConfig, log *zap.Logger) (*DBMetrics, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	if meterProvider == nil || !meterProvider.IsEnabled() {
		log.Debug("Meter provider unavailable, database metrics stay off")
		return nil, nil
	}

	metrics, err := NewDBMetrics(meterProvider.Meter("db.client"), cfg, log)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	metrics.SetSQLDB(sqlDB)

	if err := db.Use(NewDBMetricsPlugin(metrics)); err != nil {
		return nil, err
	}

	log.Info("Database metrics registered",
		zap.Duration("slow_query_threshold", metrics.config.SlowQueryThreshold),
		zap.Duration("pool_stats_interval", metrics.config.PoolStatsInterval),
	)

	return metrics, nil
}
