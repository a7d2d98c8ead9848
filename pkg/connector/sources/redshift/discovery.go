package redshift

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/ajitpratap0/tap-redshift/pkg/catalog"
	"github.com/ajitpratap0/tap-redshift/pkg/connector/core"
	"github.com/ajitpratap0/tap-redshift/pkg/metrics"
	"github.com/ajitpratap0/tap-redshift/pkg/observability"
	stringpool "github.com/ajitpratap0/tap-redshift/pkg/strings"
	"github.com/ajitpratap0/tap-redshift/pkg/taperrors"
)

const (
	tablesQuery = `SELECT table_name::varchar, table_type::varchar
FROM information_schema.tables
WHERE table_schema = $1`

	columnsQuery = `SELECT c.table_name::varchar, c.ordinal_position::int, c.column_name::varchar, c.udt_name::varchar, c.is_nullable::varchar
FROM information_schema.tables t
JOIN information_schema.columns c
  ON c.table_schema = t.table_schema AND c.table_name = t.table_name
WHERE t.table_schema = $1
ORDER BY c.table_name, c.ordinal_position`

	primaryKeysQuery = `SELECT kc.table_name::varchar, kc.column_name::varchar
FROM information_schema.table_constraints tc
JOIN information_schema.key_column_usage kc
  ON kc.table_schema = tc.table_schema
 AND kc.table_name = tc.table_name
 AND kc.constraint_name = tc.constraint_name
WHERE tc.constraint_type = 'PRIMARY KEY' AND tc.table_schema = $1
ORDER BY tc.table_schema, tc.table_name, kc.ordinal_position`
)

const noReplicationKeysReason = "No replication keys found from table"

// Discover introspects schemaName and returns one catalog entry per table or
// view, in table name order.
func Discover(ctx context.Context, conn core.Conn, schemaName string, logger *zap.Logger) (cat *catalog.Catalog, err error) {
	database := conn.DatabaseName()
	timer := metrics.NewJobTimer(logger, "discover", database, schemaName)
	ctx, span := observability.StartSpan(ctx, "discover",
		attribute.String("database", database),
		attribute.String("schema", schemaName))
	defer func() {
		timer.Stop(err)
		span.End(err)
	}()

	tableTypes, err := queryTableTypes(ctx, conn, schemaName)
	if err != nil {
		return nil, err
	}
	columns, err := queryColumns(ctx, conn, schemaName)
	if err != nil {
		return nil, err
	}
	primaryKeys, err := queryPrimaryKeys(ctx, conn, schemaName)
	if err != nil {
		return nil, err
	}

	cat = &catalog.Catalog{Streams: []*catalog.Entry{}}
	for start := 0; start < len(columns); {
		end := start
		for end < len(columns) && columns[end].Table == columns[start].Table {
			end++
		}

		table := columns[start].Table
		entry := discoverTable(database, schemaName, table, tableTypes[table] == "VIEW", columns[start:end], primaryKeys[table])
		cat.Streams = append(cat.Streams, entry)

		logger.Info("Discovered table schema",
			zap.String("table", entry.TableName),
			zap.Int("columns", end-start),
			zap.Bool("is_view", entry.IsView),
			zap.Strings("key_properties", entry.KeyProperties))
		start = end
	}

	span.SetAttributes(attribute.Int("streams", len(cat.Streams)))
	return cat, nil
}

func discoverTable(database, schemaName, table string, isView bool, columns []Column, primaryKeys []string) *catalog.Entry {
	props := catalog.NewProperties()
	for _, c := range columns {
		props.Set(c.Name, SchemaForColumn(c))
	}

	var keys []string
	for _, pk := range primaryKeys {
		if s, ok := props.Get(pk); ok && s.Inclusion == catalog.InclusionAvailable {
			keys = append(keys, pk)
		}
	}

	return &catalog.Entry{
		TapStreamID:   stringpool.Sprintf("%s.%s.%s", database, schemaName, table),
		Stream:        table,
		TableName:     schemaName + "." + table,
		Database:      database,
		Schema:        &catalog.Schema{Type: catalog.TypeList{catalog.TypeObject}, Properties: props},
		IsView:        isView,
		KeyProperties: keys,
		Metadata:      columnMetadata(database, schemaName, isView, keys, columns, props),
	}
}

// columnMetadata derives stream and column metadata for a discovered table.
func columnMetadata(database, schemaName string, isView bool, keys []string, columns []Column, props *catalog.Properties) catalog.Metadata {
	var md catalog.Metadata
	root := catalog.StreamBreadcrumb()

	md.Write(root, catalog.MetaSelectedByDefault, false)

	var replicationKeys []string
	for _, c := range columns {
		if s, _ := props.Get(c.Name); s.IsDateTime() {
			replicationKeys = append(replicationKeys, c.Name)
		}
	}
	if len(replicationKeys) > 0 {
		md.Write(root, catalog.MetaValidReplicationKeys, replicationKeys)
	} else {
		md.Write(root, catalog.MetaForcedReplicationMethod, map[string]interface{}{
			catalog.MetaReplicationMethod: catalog.ReplicationFullTable,
			"reason":                      noReplicationKeysReason,
		})
	}

	keyProperties := append([]string{}, keys...)
	if isView {
		md.Write(root, catalog.MetaViewKeyProperties, keyProperties)
	} else {
		md.Write(root, catalog.MetaTableKeyProperties, keyProperties)
	}
	md.Write(root, catalog.MetaIsView, isView)
	md.Write(root, catalog.MetaSchemaName, schemaName)
	md.Write(root, catalog.MetaDatabaseName, database)

	for _, c := range columns {
		s, _ := props.Get(c.Name)
		crumb := catalog.PropertyBreadcrumb(c.Name)
		md.Write(crumb, catalog.MetaSelectedByDefault, s.Inclusion != catalog.InclusionUnsupported)
		md.Write(crumb, catalog.MetaSQLDatatype, strings.ToLower(c.Type))
		md.Write(crumb, catalog.MetaInclusion, string(s.Inclusion))
	}

	return md
}

func queryTableTypes(ctx context.Context, conn core.Conn, schemaName string) (map[string]string, error) {
	types := make(map[string]string)
	err := scanAll(ctx, conn, tablesQuery, schemaName, func(values []interface{}) error {
		types[asString(values[0])] = asString(values[1])
		return nil
	})
	if err != nil {
		return nil, wrapDiscoveryError(err, "failed to list tables", schemaName)
	}
	return types, nil
}

func queryColumns(ctx context.Context, conn core.Conn, schemaName string) ([]Column, error) {
	var columns []Column
	err := scanAll(ctx, conn, columnsQuery, schemaName, func(values []interface{}) error {
		position, err := asInt(values[1])
		if err != nil {
			return err
		}
		columns = append(columns, Column{
			Table:    asString(values[0]),
			Position: position,
			Name:     asString(values[2]),
			Type:     asString(values[3]),
			Nullable: strings.EqualFold(asString(values[4]), "YES"),
		})
		return nil
	})
	if err != nil {
		return nil, wrapDiscoveryError(err, "failed to list columns", schemaName)
	}
	return columns, nil
}

func queryPrimaryKeys(ctx context.Context, conn core.Conn, schemaName string) (map[string][]string, error) {
	keys := make(map[string][]string)
	err := scanAll(ctx, conn, primaryKeysQuery, schemaName, func(values []interface{}) error {
		table := asString(values[0])
		keys[table] = append(keys[table], asString(values[1]))
		return nil
	})
	if err != nil {
		return nil, wrapDiscoveryError(err, "failed to list primary keys", schemaName)
	}
	return keys, nil
}

// scanAll runs a single-parameter query and hands each row to fn. The cursor
// is closed before scanAll returns.
func scanAll(ctx context.Context, conn core.Conn, sql string, arg interface{}, fn func([]interface{}) error) error {
	rows, err := conn.Query(ctx, sql, arg)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return err
		}
		if err := fn(values); err != nil {
			return err
		}
	}
	return rows.Err()
}

func wrapDiscoveryError(err error, message, schemaName string) error {
	return taperrors.Wrap(err, taperrors.ErrorTypeQuery, message).WithDetail("schema", schemaName)
}

func asString(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case fmt.Stringer:
		return t.String()
	}
	return fmt.Sprint(v)
}

func asInt(v interface{}) (int, error) {
	switch t := v.(type) {
	case int:
		return t, nil
	case int16:
		return int(t), nil
	case int32:
		return int(t), nil
	case int64:
		return int(t), nil
	case string:
		return strconv.Atoi(t)
	case []byte:
		return strconv.Atoi(string(t))
	}
	return 0, fmt.Errorf("unexpected ordinal position %v (%T)", v, v)
}
