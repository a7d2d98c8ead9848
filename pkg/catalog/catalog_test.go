package catalog

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/tap-redshift/pkg/json"
)

const legacyCatalog = `{
  "streams": [
    {
      "tap_stream_id": "FakeDB.public.fake_table",
      "stream": "fake_table",
      "table_name": "public.fake_table",
      "database_name": "FakeDB",
      "is_view": false,
      "key_properties": ["id"],
      "replication_key": "updated_at",
      "schema": {
        "type": "object",
        "selected": "true",
        "properties": {
          "name": {"type": ["null", "string"], "inclusion": "available", "selected": "true"},
          "id": {"type": "integer", "minimum": -2147483648, "maximum": 2147483647, "inclusion": "available", "selected": true},
          "address": {"type": ["null", "string"], "inclusion": "available"},
          "updated_at": {"type": "string", "format": "date-time", "inclusion": "available"}
        }
      },
      "metadata": [
        {"breadcrumb": [], "metadata": {"selected-by-default": false}},
        {"breadcrumb": ["properties", "id"], "metadata": {"sql-datatype": "int4", "selected-by-default": true}}
      ]
    }
  ]
}`

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, os.WriteFile(path, []byte(legacyCatalog), 0o600))

	c, err := Load(path)
	require.NoError(t, err)
	require.Len(t, c.Streams, 1)

	entry := c.GetStream("FakeDB.public.fake_table")
	require.NotNil(t, entry)
	assert.Equal(t, []string{"name", "id", "address", "updated_at"}, entry.Schema.Properties.Names())
	assert.Equal(t, "updated_at", entry.ReplicationKeyName())

	selected, ok := entry.Schema.IsSelected()
	assert.True(t, ok)
	assert.True(t, selected)

	id, ok := entry.Schema.Property("id")
	require.True(t, ok)
	assert.Equal(t, TypeList{TypeInteger}, id.Type)
	require.NotNil(t, id.Minimum)
	assert.Equal(t, int64(-2147483648), *id.Minimum)

	name, _ := entry.Schema.Property("name")
	assert.Equal(t, TypeList{TypeNull, TypeString}, name.Type)

	byDefault, ok := entry.Metadata.GetBool(PropertyBreadcrumb("id"), MetaSelectedByDefault)
	assert.True(t, ok)
	assert.True(t, byDefault)

	assert.Nil(t, c.GetStream("FakeDB.public.other"))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read catalog")
}

func TestCatalogWrite(t *testing.T) {
	props := NewProperties()
	props.Set("zeta", &Schema{Type: TypeList{TypeNull, TypeString}, Inclusion: InclusionAvailable})
	props.Set("alpha", &Schema{Inclusion: InclusionUnsupported, Description: "Unsupported column type geometry"})

	var md Metadata
	md.Write(StreamBreadcrumb(), MetaSelectedByDefault, false)
	md.Write(PropertyBreadcrumb("zeta"), MetaSQLDatatype, "varchar")

	c := &Catalog{Streams: []*Entry{{
		TapStreamID: "dev.public.things",
		Stream:      "things",
		TableName:   "public.things",
		Schema:      &Schema{Type: TypeList{TypeObject}, Properties: props},
		Metadata:    md,
	}}}

	var buf bytes.Buffer
	require.NoError(t, c.Write(&buf))
	out := buf.String()

	assert.Less(t, strings.Index(out, `"zeta"`), strings.Index(out, `"alpha"`))
	assert.Contains(t, out, `"type": "object"`)
	assert.Contains(t, out, `"breadcrumb": []`)
	assert.NotContains(t, out, "key_properties")

	var decoded Catalog
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, []string{"zeta", "alpha"}, decoded.Streams[0].Schema.Properties.Names())
}

func TestCatalogWriteEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&Catalog{}).Write(&buf))
	assert.JSONEq(t, `{"streams": []}`, buf.String())
}

func TestReplicationKeyName(t *testing.T) {
	var md Metadata
	md.Write(StreamBreadcrumb(), MetaReplicationKey, "modified")

	assert.Equal(t, "modified", (&Entry{Metadata: md}).ReplicationKeyName())
	assert.Equal(t, "created", (&Entry{ReplicationKey: "created", Metadata: md}).ReplicationKeyName())

	md.Write(StreamBreadcrumb(), MetaReplicationMethod, ReplicationFullTable)
	assert.Empty(t, (&Entry{Metadata: md}).ReplicationKeyName())
	assert.Empty(t, (&Entry{ReplicationKey: "created", Metadata: md}).ReplicationKeyName())
}

func TestMetadataWrite(t *testing.T) {
	var md Metadata
	md.Write(PropertyBreadcrumb("id"), MetaSelected, true)
	md.Write(PropertyBreadcrumb("id"), MetaSQLDatatype, "int4")
	md.Write(nil, MetaSelected, false)

	require.Len(t, md, 2)
	v, ok := md.GetString(PropertyBreadcrumb("id"), MetaSQLDatatype)
	assert.True(t, ok)
	assert.Equal(t, "int4", v)

	selected, ok := md.GetBool(StreamBreadcrumb(), MetaSelected)
	assert.True(t, ok)
	assert.False(t, selected)

	_, ok = md.GetBool(PropertyBreadcrumb("id"), MetaSQLDatatype)
	assert.False(t, ok)
}

func TestSchemaClone(t *testing.T) {
	min := int64(-32768)
	props := NewProperties()
	props.Set("id", &Schema{Type: TypeList{TypeInteger}, Minimum: &min})
	orig := &Schema{Type: TypeList{TypeObject}, Properties: props}

	clone := orig.Clone()
	assert.Equal(t, orig, clone)

	id, _ := clone.Property("id")
	*id.Minimum = 0
	id.Type[0] = TypeString
	clone.Properties.Set("extra", &Schema{})

	origID, _ := orig.Property("id")
	assert.Equal(t, int64(-32768), *origID.Minimum)
	assert.Equal(t, TypeList{TypeInteger}, origID.Type)
	assert.Equal(t, 1, orig.Properties.Len())
}

func TestPropertiesUnmarshalKeepsOrder(t *testing.T) {
	data := []byte(`{
		"b": {"type": ["null", "integer"], "minimum": -32768, "maximum": 32767},
		"a": {"type": "object", "properties": {"z": {"type": "string"}, "y": {"type": "number"}}},
		"c": {"inclusion": "unsupported", "description": "Unsupported column type super"}
	}`)

	var p Properties
	require.NoError(t, json.Unmarshal(data, &p))
	assert.Equal(t, []string{"b", "a", "c"}, p.Names())

	b, _ := p.Get("b")
	assert.Equal(t, TypeList{TypeNull, TypeInteger}, b.Type)
	assert.Equal(t, int64(-32768), *b.Minimum)

	a, _ := p.Get("a")
	assert.Equal(t, []string{"z", "y"}, a.Properties.Names())

	c, _ := p.Get("c")
	assert.Equal(t, InclusionUnsupported, c.Inclusion)

	var notObject Properties
	assert.Error(t, json.Unmarshal([]byte(`["a"]`), &notObject))
}
