package redshift

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/tap-redshift/pkg/catalog"
	"github.com/ajitpratap0/tap-redshift/pkg/state"
	"github.com/ajitpratap0/tap-redshift/pkg/taperrors"
	"github.com/ajitpratap0/tap-redshift/pkg/testutil"
)

func tableSchema(columns map[string]catalog.Inclusion, order ...string) *catalog.Schema {
	props := catalog.NewProperties()
	for _, name := range order {
		props.Set(name, &catalog.Schema{Type: catalog.TypeList{catalog.TypeString}, Inclusion: columns[name]})
	}
	return &catalog.Schema{Type: catalog.TypeList{catalog.TypeObject}, Properties: props}
}

func discoveredEntry(table string, columns map[string]catalog.Inclusion, order ...string) *catalog.Entry {
	var md catalog.Metadata
	md.Write(catalog.StreamBreadcrumb(), catalog.MetaSelectedByDefault, false)
	for _, name := range order {
		md.Write(catalog.PropertyBreadcrumb(name), catalog.MetaSelectedByDefault, columns[name] != catalog.InclusionUnsupported)
	}
	return &catalog.Entry{
		TapStreamID:   "dev.public." + table,
		Stream:        table,
		TableName:     "public." + table,
		Database:      "dev",
		Schema:        tableSchema(columns, order...),
		KeyProperties: []string{"id"},
		Metadata:      md,
	}
}

// requestedEntry copies a discovered entry and marks the stream and the given
// columns selected.
func requestedEntry(discovered *catalog.Entry, columns ...string) *catalog.Entry {
	var md catalog.Metadata
	for _, e := range discovered.Metadata {
		for k, v := range e.Metadata {
			md.Write(e.Breadcrumb, k, v)
		}
	}
	md.Write(catalog.StreamBreadcrumb(), catalog.MetaSelected, true)
	selected := make(map[string]bool)
	for _, c := range columns {
		selected[c] = true
	}
	for _, name := range discovered.Schema.Properties.Names() {
		md.Write(catalog.PropertyBreadcrumb(name), catalog.MetaSelected, selected[name])
	}
	return &catalog.Entry{
		TapStreamID:   discovered.TapStreamID,
		Stream:        discovered.Stream,
		TableName:     discovered.TableName,
		Database:      discovered.Database,
		Schema:        discovered.Schema.Clone(),
		KeyProperties: discovered.KeyProperties,
		Metadata:      md,
	}
}

func TestDesiredColumns(t *testing.T) {
	table := tableSchema(map[string]catalog.Inclusion{
		"col1": catalog.InclusionAvailable,
		"col2": catalog.InclusionUnsupported,
		"col4": catalog.InclusionAutomatic,
		"col5": catalog.InclusionAvailable,
	}, "col1", "col2", "col4", "col5")

	logger, logs := testutil.ObservedLogger()
	got, err := DesiredColumns([]string{"col3", "col2", "col1"}, table, logger)
	require.NoError(t, err)
	assert.Equal(t, []string{"col1", "col4"}, got)

	assert.Equal(t, 1, logs.FilterMessageSnippet("not supported").Len())
	assert.Equal(t, 1, logs.FilterMessageSnippet("do not exist").Len())
}

func TestDesiredColumnsUnknownInclusion(t *testing.T) {
	for _, inclusion := range []catalog.Inclusion{"unknown", ""} {
		table := tableSchema(map[string]catalog.Inclusion{
			"col1": inclusion,
			"col2": catalog.InclusionUnsupported,
		}, "col1", "col2")

		_, err := DesiredColumns([]string{"col1"}, table, testutil.TestLogger(t))
		require.Error(t, err)
		assert.True(t, taperrors.IsType(err, taperrors.ErrorTypeCatalog))
	}
}

func TestResolveCatalog(t *testing.T) {
	customers := discoveredEntry("customers", map[string]catalog.Inclusion{
		"id":   catalog.InclusionAutomatic,
		"name": catalog.InclusionAvailable,
		"geom": catalog.InclusionUnsupported,
	}, "id", "name", "geom")
	orders := discoveredEntry("orders", map[string]catalog.Inclusion{
		"id":         catalog.InclusionAvailable,
		"updated_at": catalog.InclusionAvailable,
		"total":      catalog.InclusionAvailable,
	}, "id", "updated_at", "total")
	discovered := &catalog.Catalog{Streams: []*catalog.Entry{customers, orders}}

	t.Run("automatic columns are always kept", func(t *testing.T) {
		requested := &catalog.Catalog{Streams: []*catalog.Entry{requestedEntry(customers, "name")}}

		resolved, err := ResolveCatalog(discovered, requested, state.New(), testutil.TestLogger(t))
		require.NoError(t, err)
		require.Len(t, resolved.Streams, 1)

		entry := resolved.Streams[0]
		assert.Equal(t, []string{"id", "name"}, entry.Schema.Properties.Names())
		assert.Equal(t, []string{"id"}, entry.KeyProperties)
		assert.Equal(t, "dev.public.customers", entry.TapStreamID)
		assert.Equal(t, "public.customers", entry.TableName)
	})

	t.Run("replication key is always kept", func(t *testing.T) {
		req := requestedEntry(orders, "total")
		req.Metadata.Write(catalog.StreamBreadcrumb(), catalog.MetaReplicationKey, "updated_at")
		req.Metadata.Write(catalog.StreamBreadcrumb(), catalog.MetaReplicationMethod, catalog.ReplicationIncremental)
		requested := &catalog.Catalog{Streams: []*catalog.Entry{req}}

		resolved, err := ResolveCatalog(discovered, requested, state.New(), testutil.TestLogger(t))
		require.NoError(t, err)
		require.Len(t, resolved.Streams, 1)
		assert.Equal(t, []string{"updated_at", "total"}, resolved.Streams[0].Schema.Properties.Names())
		assert.Equal(t, "updated_at", resolved.Streams[0].ReplicationKey)
	})

	t.Run("unselected streams are dropped", func(t *testing.T) {
		requested := &catalog.Catalog{Streams: []*catalog.Entry{customers, requestedEntry(orders, "total")}}

		resolved, err := ResolveCatalog(discovered, requested, state.New(), testutil.TestLogger(t))
		require.NoError(t, err)
		require.Len(t, resolved.Streams, 1)
		assert.Equal(t, "orders", resolved.Streams[0].Stream)
	})

	t.Run("missing stream is skipped", func(t *testing.T) {
		gone := requestedEntry(discoveredEntry("gone", map[string]catalog.Inclusion{"id": catalog.InclusionAvailable}, "id"), "id")
		requested := &catalog.Catalog{Streams: []*catalog.Entry{gone, requestedEntry(orders, "id")}}

		logger, logs := testutil.ObservedLogger()
		resolved, err := ResolveCatalog(discovered, requested, state.New(), logger)
		require.NoError(t, err)
		require.Len(t, resolved.Streams, 1)
		assert.Equal(t, "orders", resolved.Streams[0].Stream)
		assert.Equal(t, 1, logs.FilterMessage("Table selected but does not exist").Len())
	})

	t.Run("resumes at currently syncing stream", func(t *testing.T) {
		requested := &catalog.Catalog{Streams: []*catalog.Entry{
			requestedEntry(customers, "name"),
			requestedEntry(orders, "total"),
		}}
		st := state.New()
		st.SetCurrentlySyncing(orders.TapStreamID)

		resolved, err := ResolveCatalog(discovered, requested, st, testutil.TestLogger(t))
		require.NoError(t, err)
		require.Len(t, resolved.Streams, 1)
		assert.Equal(t, "orders", resolved.Streams[0].Stream)
	})

	t.Run("unknown currently syncing stream keeps all", func(t *testing.T) {
		requested := &catalog.Catalog{Streams: []*catalog.Entry{
			requestedEntry(customers, "name"),
			requestedEntry(orders, "total"),
		}}
		st := state.New()
		st.SetCurrentlySyncing("dev.public.elsewhere")

		resolved, err := ResolveCatalog(discovered, requested, st, testutil.TestLogger(t))
		require.NoError(t, err)
		assert.Len(t, resolved.Streams, 2)
	})

	t.Run("resolving is idempotent", func(t *testing.T) {
		requested := &catalog.Catalog{Streams: []*catalog.Entry{requestedEntry(customers, "name", "geom")}}

		first, err := ResolveCatalog(discovered, requested, state.New(), testutil.TestLogger(t))
		require.NoError(t, err)
		second, err := ResolveCatalog(discovered, requested, state.New(), testutil.TestLogger(t))
		require.NoError(t, err)
		assert.Equal(t, first, second)
		assert.Equal(t, []string{"id", "name", "geom"}, customers.Schema.Properties.Names())
	})
}
