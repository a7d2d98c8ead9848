package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestRecordCounter(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	counter := NewRecordCounter(zap.New(core), "counterdb", "public.orders")

	clock := time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC)
	counter.now = func() time.Time { return clock }
	counter.lastLog = clock

	counter.Increment()
	counter.Increment()
	assert.Equal(t, 0, logs.Len())

	clock = clock.Add(DefaultLogInterval)
	counter.Increment()
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, int64(3), logs.All()[0].ContextMap()["value"])

	counter.Close()
	assert.Equal(t, 2, logs.Len())
	assert.Equal(t, int64(3), counter.Value())
	assert.Equal(t, float64(3), testutil.ToFloat64(RecordsSynced.WithLabelValues("counterdb", "public.orders")))
}

func TestJobTimer(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	log := zap.New(core)

	NewJobTimer(log, "sync_table", "timerdb", "public.a").Stop(nil)
	NewJobTimer(log, "sync_table", "timerdb", "public.a").Stop(errors.New("boom"))

	require.Equal(t, 2, logs.Len())
	assert.Equal(t, "succeeded", logs.All()[0].ContextMap()["status"])
	assert.Equal(t, "failed", logs.All()[1].ContextMap()["status"])
	assert.Equal(t, 2, testutil.CollectAndCount(JobDuration, "tap_redshift_job_duration_seconds"))
}

func TestWriteTextfile(t *testing.T) {
	RecordsSynced.WithLabelValues("filedb", "public.b").Add(5)

	path := filepath.Join(t.TempDir(), "tap.prom")
	require.NoError(t, WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `tap_redshift_records_synced_total{database="filedb",table="public.b"} 5`)
}
