package catalog

// Metadata keys written by discovery or read during resolution.
const (
	MetaSelected                = "selected"
	MetaSelectedByDefault       = "selected-by-default"
	MetaValidReplicationKeys    = "valid-replication-keys"
	MetaForcedReplicationMethod = "forced-replication-method"
	MetaReplicationMethod       = "replication-method"
	MetaReplicationKey          = "replication-key"
	MetaTableKeyProperties      = "table-key-properties"
	MetaViewKeyProperties       = "view-key-properties"
	MetaIsView                  = "is-view"
	MetaSchemaName              = "schema-name"
	MetaDatabaseName            = "database-name"
	MetaSQLDatatype             = "sql-datatype"
	MetaInclusion               = "inclusion"
)

// Replication methods.
const (
	ReplicationFullTable   = "FULL_TABLE"
	ReplicationIncremental = "INCREMENTAL"
)

// Breadcrumb addresses a node of the stream schema. The empty breadcrumb is
// the stream itself; ["properties", name] is a column.
type Breadcrumb []string

// StreamBreadcrumb addresses the stream.
func StreamBreadcrumb() Breadcrumb {
	return Breadcrumb{}
}

// PropertyBreadcrumb addresses a column.
func PropertyBreadcrumb(name string) Breadcrumb {
	return Breadcrumb{"properties", name}
}

func (b Breadcrumb) equal(other Breadcrumb) bool {
	if len(b) != len(other) {
		return false
	}
	for i := range b {
		if b[i] != other[i] {
			return false
		}
	}
	return true
}

// MetadataEntry is one breadcrumb and its key-value annotations.
type MetadataEntry struct {
	Breadcrumb Breadcrumb             `json:"breadcrumb"`
	Metadata   map[string]interface{} `json:"metadata"`
}

// Metadata is the list form of stream annotations. Entries keep the order
// they were first written in.
type Metadata []MetadataEntry

func (m Metadata) find(b Breadcrumb) int {
	for i := range m {
		if m[i].Breadcrumb.equal(b) {
			return i
		}
	}
	return -1
}

// Get returns the value stored under key at breadcrumb b.
func (m Metadata) Get(b Breadcrumb, key string) (interface{}, bool) {
	i := m.find(b)
	if i < 0 {
		return nil, false
	}
	v, ok := m[i].Metadata[key]
	return v, ok
}

// GetBool returns a boolean value. ok is false when the key is absent or
// does not hold a boolean.
func (m Metadata) GetBool(b Breadcrumb, key string) (value, ok bool) {
	v, found := m.Get(b, key)
	if !found {
		return false, false
	}
	value, ok = v.(bool)
	return value, ok
}

// GetString returns a string value.
func (m Metadata) GetString(b Breadcrumb, key string) (string, bool) {
	v, found := m.Get(b, key)
	if !found {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Write stores value under key at breadcrumb b.
func (m *Metadata) Write(b Breadcrumb, key string, value interface{}) {
	if b == nil {
		b = StreamBreadcrumb()
	}
	if i := m.find(b); i >= 0 {
		if (*m)[i].Metadata == nil {
			(*m)[i].Metadata = make(map[string]interface{})
		}
		(*m)[i].Metadata[key] = value
		return
	}
	*m = append(*m, MetadataEntry{
		Breadcrumb: append(Breadcrumb{}, b...),
		Metadata:   map[string]interface{}{key: value},
	})
}
