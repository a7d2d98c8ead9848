// Package message defines the protocol messages a sync emits and the sinks
// that write them. Messages are written one JSON document per line.
package message

import (
	"time"

	"github.com/ajitpratap0/tap-redshift/pkg/catalog"
	"github.com/ajitpratap0/tap-redshift/pkg/json"
	"github.com/ajitpratap0/tap-redshift/pkg/state"
)

// Type is the "type" discriminator of a message.
type Type string

const (
	TypeSchema          Type = "SCHEMA"
	TypeRecord          Type = "RECORD"
	TypeState           Type = "STATE"
	TypeActivateVersion Type = "ACTIVATE_VERSION"
)

// TimeExtractedLayout is the layout of RECORD time_extracted values.
const TimeExtractedLayout = "2006-01-02T15:04:05.000000Z"

// Message is one protocol message.
type Message interface {
	MessageType() Type
}

// SchemaMessage announces the shape of a stream before its records.
type SchemaMessage struct {
	Stream             string
	Schema             *catalog.Schema
	KeyProperties      []string
	BookmarkProperties []string
}

// MessageType implements Message.
func (SchemaMessage) MessageType() Type { return TypeSchema }

// MarshalJSON implements json.Marshaler.
func (m SchemaMessage) MarshalJSON() ([]byte, error) {
	keys := m.KeyProperties
	if keys == nil {
		keys = []string{}
	}
	return json.Marshal(struct {
		Type               Type            `json:"type"`
		Stream             string          `json:"stream"`
		Schema             *catalog.Schema `json:"schema"`
		KeyProperties      []string        `json:"key_properties"`
		BookmarkProperties []string        `json:"bookmark_properties,omitempty"`
	}{TypeSchema, m.Stream, m.Schema, keys, m.BookmarkProperties})
}

// RecordMessage carries one row.
type RecordMessage struct {
	Stream        string
	Record        map[string]interface{}
	Version       *int64
	TimeExtracted time.Time
}

// MessageType implements Message.
func (RecordMessage) MessageType() Type { return TypeRecord }

// MarshalJSON implements json.Marshaler.
func (m RecordMessage) MarshalJSON() ([]byte, error) {
	var extracted string
	if !m.TimeExtracted.IsZero() {
		extracted = m.TimeExtracted.UTC().Format(TimeExtractedLayout)
	}
	return json.Marshal(struct {
		Type          Type                   `json:"type"`
		Stream        string                 `json:"stream"`
		Record        map[string]interface{} `json:"record"`
		Version       *int64                 `json:"version,omitempty"`
		TimeExtracted string                 `json:"time_extracted,omitempty"`
	}{TypeRecord, m.Stream, m.Record, m.Version, extracted})
}

// StateMessage checkpoints sync progress. Value must be a copy the sender
// no longer mutates.
type StateMessage struct {
	Value *state.State
}

// MessageType implements Message.
func (StateMessage) MessageType() Type { return TypeState }

// MarshalJSON implements json.Marshaler.
func (m StateMessage) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type  Type         `json:"type"`
		Value *state.State `json:"value"`
	}{TypeState, m.Value})
}

// ActivateVersionMessage tells the consumer that a table version is complete
// and rows of older versions can be discarded.
type ActivateVersionMessage struct {
	Stream  string
	Version int64
}

// MessageType implements Message.
func (ActivateVersionMessage) MessageType() Type { return TypeActivateVersion }

// MarshalJSON implements json.Marshaler.
func (m ActivateVersionMessage) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    Type   `json:"type"`
		Stream  string `json:"stream"`
		Version int64  `json:"version"`
	}{TypeActivateVersion, m.Stream, m.Version})
}
