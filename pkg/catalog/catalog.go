// Package catalog models the portable description of discoverable streams:
// one entry per table or view with a JSON-schema fragment per column and a
// breadcrumb-addressed metadata list carrying selection and replication hints.
package catalog

import (
	"io"

	"github.com/ajitpratap0/tap-redshift/pkg/json"
	"github.com/ajitpratap0/tap-redshift/pkg/taperrors"
)

// Entry describes one stream.
type Entry struct {
	TapStreamID       string   `json:"tap_stream_id"`
	Stream            string   `json:"stream"`
	TableName         string   `json:"table_name,omitempty"`
	Database          string   `json:"database_name,omitempty"`
	StreamAlias       string   `json:"stream_alias,omitempty"`
	Schema            *Schema  `json:"schema"`
	IsView            bool     `json:"is_view"`
	KeyProperties     []string `json:"key_properties,omitempty"`
	ReplicationKey    string   `json:"replication_key,omitempty"`
	ReplicationMethod string   `json:"replication_method,omitempty"`
	RowCount          *int64   `json:"row_count,omitempty"`
	Metadata          Metadata `json:"metadata,omitempty"`
}

// ReplicationMethodName returns the entry's replication method from the
// entry field or, failing that, its stream metadata.
func (e *Entry) ReplicationMethodName() string {
	if e.ReplicationMethod != "" {
		return e.ReplicationMethod
	}
	method, _ := e.Metadata.GetString(StreamBreadcrumb(), MetaReplicationMethod)
	return method
}

// ReplicationKeyName returns the column used for incremental replication, or
// "" for full-table streams.
func (e *Entry) ReplicationKeyName() string {
	if e.ReplicationMethodName() == ReplicationFullTable {
		return ""
	}
	if e.ReplicationKey != "" {
		return e.ReplicationKey
	}
	key, _ := e.Metadata.GetString(StreamBreadcrumb(), MetaReplicationKey)
	return key
}

// Catalog is an ordered list of stream entries.
type Catalog struct {
	Streams []*Entry `json:"streams"`
}

// GetStream returns the entry with the given tap stream id, or nil.
func (c *Catalog) GetStream(tapStreamID string) *Entry {
	if c == nil {
		return nil
	}
	for _, e := range c.Streams {
		if e.TapStreamID == tapStreamID {
			return e
		}
	}
	return nil
}

// Load reads a catalog file.
func Load(path string) (*Catalog, error) {
	var c Catalog
	if err := json.ReadFile(path, &c); err != nil {
		return nil, taperrors.Wrap(err, taperrors.ErrorTypeCatalog, "failed to read catalog").
			WithDetail("path", path)
	}
	return &c, nil
}

// Write encodes the catalog as an indented JSON document.
func (c *Catalog) Write(w io.Writer) error {
	out := c
	if c.Streams == nil {
		out = &Catalog{Streams: []*Entry{}}
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return taperrors.Wrap(err, taperrors.ErrorTypeCatalog, "failed to encode catalog")
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return taperrors.Wrap(err, taperrors.ErrorTypeOutput, "failed to write catalog")
	}
	return nil
}
