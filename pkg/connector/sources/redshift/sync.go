package redshift

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/ajitpratap0/tap-redshift/pkg/catalog"
	"github.com/ajitpratap0/tap-redshift/pkg/connector/core"
	"github.com/ajitpratap0/tap-redshift/pkg/message"
	"github.com/ajitpratap0/tap-redshift/pkg/metrics"
	"github.com/ajitpratap0/tap-redshift/pkg/observability"
	"github.com/ajitpratap0/tap-redshift/pkg/state"
	stringpool "github.com/ajitpratap0/tap-redshift/pkg/strings"
	"github.com/ajitpratap0/tap-redshift/pkg/taperrors"
)

// DefaultCheckpointInterval is the number of records between STATE messages
// while a table streams.
const DefaultCheckpointInterval = 1000

// Syncer streams the rows of resolved catalog entries as messages.
type Syncer struct {
	conn               core.Conn
	sink               message.Sink
	logger             *zap.Logger
	startDate          time.Time
	checkpointInterval int
	now                func() time.Time
}

// SyncerOption configures a Syncer.
type SyncerOption func(*Syncer)

// WithStartDate sets the lower bound used by incremental streams that have
// no bookmarked value yet.
func WithStartDate(t time.Time) SyncerOption {
	return func(s *Syncer) { s.startDate = t }
}

// WithCheckpointInterval overrides DefaultCheckpointInterval.
func WithCheckpointInterval(n int) SyncerOption {
	return func(s *Syncer) {
		if n > 0 {
			s.checkpointInterval = n
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) SyncerOption {
	return func(s *Syncer) { s.now = now }
}

// NewSyncer creates a Syncer writing to sink.
func NewSyncer(conn core.Conn, sink message.Sink, logger *zap.Logger, opts ...SyncerOption) *Syncer {
	s := &Syncer{
		conn:               conn,
		sink:               sink,
		logger:             logger,
		checkpointInterval: DefaultCheckpointInterval,
		now:                time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sync streams every entry of resolved in order, updating st as it goes.
// Once all streams are done currently_syncing is cleared and a final STATE
// message is written.
func (s *Syncer) Sync(ctx context.Context, resolved *catalog.Catalog, st *state.State) error {
	for _, entry := range resolved.Streams {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.syncStream(ctx, entry, st); err != nil {
			return err
		}
	}

	st.SetCurrentlySyncing("")
	return s.emitState(st)
}

func (s *Syncer) syncStream(ctx context.Context, entry *catalog.Entry, st *state.State) error {
	logger := s.logger.With(zap.String("database", entry.Database), zap.String("table", entry.TableName))

	var columns []string
	if entry.Schema != nil {
		columns = entry.Schema.Properties.Names()
	}
	if len(columns) == 0 {
		logger.Warn("There are no columns selected for table, skipping it")
		return nil
	}

	replicationKey := bookmarkedKey(st, entry.TapStreamID)
	if replicationKey != "" {
		if _, ok := entry.Schema.Property(replicationKey); !ok {
			return taperrors.Newf(taperrors.ErrorTypeConfig, "replication key %q is not a column of %s", replicationKey, entry.TableName).
				WithDetail("tap_stream_id", entry.TapStreamID)
		}
	}

	st.SetCurrentlySyncing(entry.TapStreamID)
	if err := s.emitState(st); err != nil {
		return err
	}

	schemaMsg := message.SchemaMessage{
		Stream:        entry.Stream,
		Schema:        entry.Schema,
		KeyProperties: entry.KeyProperties,
	}
	if replicationKey != "" {
		schemaMsg.BookmarkProperties = []string{replicationKey}
	}
	if err := s.sink.Write(schemaMsg); err != nil {
		return err
	}

	logger.Info("Syncing table", zap.Strings("columns", columns), zap.String("replication_key", replicationKey))
	return s.syncTable(ctx, entry, columns, replicationKey, st, logger)
}

func (s *Syncer) syncTable(ctx context.Context, entry *catalog.Entry, columns []string, replicationKey string, st *state.State, logger *zap.Logger) (err error) {
	id := entry.TapStreamID
	timer := metrics.NewJobTimer(logger, "sync_table", entry.Database, entry.TableName)
	ctx, span := observability.StartSpan(ctx, "sync_table",
		attribute.String("tap_stream_id", id),
		attribute.String("replication_key", replicationKey))
	defer func() {
		timer.Stop(err)
		span.End(err)
	}()

	_, hadBookmark := st.Bookmark(id)
	version, ok := st.Version(id)
	if !ok {
		version = s.now().UnixMilli()
	}
	st.WriteBookmark(id, state.KeyVersion, version)

	activate := message.ActivateVersionMessage{Stream: entry.Stream, Version: version}
	if replicationKey != "" || !hadBookmark {
		if err := s.sink.Write(activate); err != nil {
			return err
		}
	}

	keyValue := s.lowerBound(st, entry, replicationKey)
	query, args, err := selectQuery(entry, columns, replicationKey, keyValue)
	if err != nil {
		return err
	}

	timeExtracted := s.now()
	logger.Info("Running query", zap.String("query", query), zap.Any("params", args))

	rows, err := s.conn.Query(ctx, query, args...)
	if err != nil {
		return taperrors.Wrap(err, taperrors.ErrorTypeQuery, "failed to query table").
			WithDetail("tap_stream_id", id)
	}
	defer rows.Close()

	counter := metrics.NewRecordCounter(logger, entry.Database, entry.TableName)
	defer counter.Close()
	checkpoints := metrics.Checkpoints.WithLabelValues(entry.Database, entry.TableName)

	rowsSaved := 0
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return taperrors.Wrap(err, taperrors.ErrorTypeData, "failed to read row").
				WithDetail("tap_stream_id", id)
		}

		record := make(map[string]interface{}, len(columns))
		for i, name := range columns {
			var v interface{}
			if i < len(values) {
				v = values[i]
			}
			prop, _ := entry.Schema.Property(name)
			record[name] = coerceValue(v, prop)
		}

		if err := s.sink.Write(message.RecordMessage{
			Stream:        entry.Stream,
			Record:        record,
			Version:       &version,
			TimeExtracted: timeExtracted,
		}); err != nil {
			return err
		}

		if replicationKey != "" {
			st.WriteBookmark(id, state.KeyReplicationKeyValue, record[replicationKey])
		}

		rowsSaved++
		counter.Increment()
		if rowsSaved%s.checkpointInterval == 0 {
			if err := s.emitState(st); err != nil {
				return err
			}
			checkpoints.Inc()
		}
	}
	if err := rows.Err(); err != nil {
		return taperrors.Wrap(err, taperrors.ErrorTypeQuery, "failed while reading table").
			WithDetail("tap_stream_id", id)
	}

	if replicationKey == "" {
		if err := s.sink.Write(activate); err != nil {
			return err
		}
		st.WriteBookmark(id, state.KeyVersion, nil)
	}

	span.SetAttributes(attribute.Int("records", rowsSaved))
	return s.emitState(st)
}

// lowerBound returns the value rows must reach to be synced, or nil for a
// full scan. The start date only bounds temporal replication keys.
func (s *Syncer) lowerBound(st *state.State, entry *catalog.Entry, replicationKey string) interface{} {
	if replicationKey == "" {
		return nil
	}
	if v, ok := st.GetBookmark(entry.TapStreamID, state.KeyReplicationKeyValue); ok && v != nil {
		return v
	}
	prop, _ := entry.Schema.Property(replicationKey)
	if s.startDate.IsZero() || prop == nil {
		return nil
	}
	if prop.Format == catalog.FormatDateTime || prop.Format == catalog.FormatDate {
		return s.startDate.UTC().Format(startDateKeyLayout)
	}
	return nil
}

func (s *Syncer) emitState(st *state.State) error {
	return s.sink.Write(message.StateMessage{Value: st.Copy()})
}

func bookmarkedKey(st *state.State, tapStreamID string) string {
	v, _ := st.GetBookmark(tapStreamID, state.KeyReplicationKey)
	key, _ := v.(string)
	return key
}

// selectQuery builds the row query of a table. Incremental queries filter on
// the replication key with a bound parameter and order by it.
func selectQuery(entry *catalog.Entry, columns []string, replicationKey string, keyValue interface{}) (string, []interface{}, error) {
	schemaName, table := splitTableName(entry)

	sb := stringpool.NewSQLBuilder(64 + 24*len(columns))
	defer sb.Close()

	sb.WriteQuery("SELECT ").WriteIdentifierList(columns).WriteQuery(" FROM ")
	if schemaName != "" {
		sb.WriteQualifiedIdentifier(schemaName, table)
	} else {
		sb.WriteIdentifier(table)
	}

	var args []interface{}
	if replicationKey != "" {
		if keyValue != nil {
			prop, _ := entry.Schema.Property(replicationKey)
			bound, err := bindValue(keyValue, prop)
			if err != nil {
				return "", nil, err
			}
			args = append(args, bound)
			sb.WriteQuery(" WHERE ").WriteIdentifier(replicationKey).WriteQuery(" >= ").WritePlaceholder(1)
		}
		sb.WriteQuery(" ORDER BY ").WriteIdentifier(replicationKey).WriteQuery(" ASC")
	}

	return sb.String(), args, nil
}

// splitTableName returns the schema and table of an entry. TableName is
// schema.table; the stream name is used when it is missing.
func splitTableName(entry *catalog.Entry) (string, string) {
	if entry.TableName == "" {
		return "", entry.Stream
	}
	if i := strings.Index(entry.TableName, "."); i >= 0 {
		return entry.TableName[:i], entry.TableName[i+1:]
	}
	return "", entry.TableName
}
