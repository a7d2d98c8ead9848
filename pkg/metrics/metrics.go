// Package metrics tracks sync progress with Prometheus metrics and periodic
// METRIC log lines.
//
// # Basic Usage
//
//	counter := metrics.NewRecordCounter(logger, "dev", "public.orders")
//	defer counter.Close()
//	for rows.Next() {
//	    emit(row)
//	    counter.Increment()
//	}
//
//	timer := metrics.NewJobTimer(logger, "sync_table", "dev", "public.orders")
//	err := syncTable(ctx)
//	timer.Stop(err)
//
// All metrics live in Registry rather than the Prometheus default registry.
// A run can dump them with WriteTextfile for the node exporter textfile
// collector.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

const namespace = "tap_redshift"

// Registry holds every metric of the tap.
var Registry = prometheus.NewRegistry()

var (
	// RecordsSynced counts RECORD messages emitted.
	// Labels: database, table
	RecordsSynced = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_synced_total",
			Help:      "Total number of records emitted",
		},
		[]string{"database", "table"},
	)

	// Checkpoints counts STATE messages emitted while a table streams.
	// Labels: database, table
	Checkpoints = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkpoints_total",
			Help:      "Total number of state checkpoints emitted",
		},
		[]string{"database", "table"},
	)

	// JobDuration tracks how long discovery and table syncs take in seconds.
	// Labels: job (discover/sync_table), database, table, status (succeeded/failed)
	JobDuration = promauto.With(Registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_duration_seconds",
			Help:      "Duration of discovery and table sync jobs in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900, 3600},
		},
		[]string{"job", "database", "table", "status"},
	)
)

// DefaultLogInterval is how often a RecordCounter logs its running total.
const DefaultLogInterval = 60 * time.Second

// RecordCounter counts records for one table, logging the running total at
// most once per interval and once more on Close.
type RecordCounter struct {
	mu       sync.Mutex
	logger   *zap.Logger
	database string
	table    string
	counter  prometheus.Counter
	value    int64
	interval time.Duration
	lastLog  time.Time
	now      func() time.Time
}

// NewRecordCounter creates a counter for database.table.
func NewRecordCounter(logger *zap.Logger, database, table string) *RecordCounter {
	return &RecordCounter{
		logger:   logger,
		database: database,
		table:    table,
		counter:  RecordsSynced.WithLabelValues(database, table),
		interval: DefaultLogInterval,
		lastLog:  time.Now(),
		now:      time.Now,
	}
}

// Increment adds one record.
func (c *RecordCounter) Increment() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.value++
	c.counter.Inc()
	if now := c.now(); now.Sub(c.lastLog) >= c.interval {
		c.log()
		c.lastLog = now
	}
}

// Value returns the number of records counted.
func (c *RecordCounter) Value() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

// Close logs the final total.
func (c *RecordCounter) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.log()
}

func (c *RecordCounter) log() {
	c.logger.Info("METRIC",
		zap.String("type", "counter"),
		zap.String("metric", "record_count"),
		zap.Int64("value", c.value),
		zap.String("database", c.database),
		zap.String("table", c.table))
}

// JobTimer measures one job.
type JobTimer struct {
	logger   *zap.Logger
	job      string
	database string
	table    string
	start    time.Time
}

// NewJobTimer starts timing job for database.table.
func NewJobTimer(logger *zap.Logger, job, database, table string) *JobTimer {
	return &JobTimer{
		logger:   logger,
		job:      job,
		database: database,
		table:    table,
		start:    time.Now(),
	}
}

// Stop records the elapsed time with a status derived from err.
func (t *JobTimer) Stop(err error) time.Duration {
	elapsed := time.Since(t.start)
	status := "succeeded"
	if err != nil {
		status = "failed"
	}

	JobDuration.WithLabelValues(t.job, t.database, t.table, status).Observe(elapsed.Seconds())
	t.logger.Info("METRIC",
		zap.String("type", "timer"),
		zap.String("metric", "job_duration"),
		zap.String("job_type", t.job),
		zap.Float64("value", elapsed.Seconds()),
		zap.String("status", status),
		zap.String("database", t.database),
		zap.String("table", t.table))
	return elapsed
}

// WriteTextfile writes the current values of Registry to path in the
// Prometheus text format.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, Registry)
}
