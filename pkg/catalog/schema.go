package catalog

import (
	"bytes"
	"fmt"

	"github.com/ajitpratap0/tap-redshift/pkg/json"
)

// Inclusion tells a consumer whether a column can be, must be or cannot be replicated.
type Inclusion string

const (
	InclusionAvailable   Inclusion = "available"
	InclusionUnsupported Inclusion = "unsupported"
	InclusionAutomatic   Inclusion = "automatic"
)

// JSON schema type tags used by discovery.
const (
	TypeNull    = "null"
	TypeBoolean = "boolean"
	TypeInteger = "integer"
	TypeNumber  = "number"
	TypeString  = "string"
	TypeObject  = "object"
)

// Formats attached to string fragments.
const (
	FormatDate     = "date"
	FormatDateTime = "date-time"
)

// TypeList is a JSON schema "type": a single tag or a list of tags.
type TypeList []string

// MarshalJSON writes a single tag as a plain string.
func (t TypeList) MarshalJSON() ([]byte, error) {
	if len(t) == 1 {
		return json.Marshal(t[0])
	}
	return json.Marshal([]string(t))
}

// UnmarshalJSON accepts either form.
func (t *TypeList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var tag string
		if err := json.Unmarshal(data, &tag); err != nil {
			return err
		}
		*t = TypeList{tag}
		return nil
	}
	var tags []string
	if err := json.Unmarshal(data, &tags); err != nil {
		return err
	}
	*t = tags
	return nil
}

// Has reports whether tag is one of the types.
func (t TypeList) Has(tag string) bool {
	for _, v := range t {
		if v == tag {
			return true
		}
	}
	return false
}

// Flag is a boolean that also accepts the legacy string forms "true" and "false".
type Flag bool

// UnmarshalJSON accepts true, false, "true" and "false".
func (f *Flag) UnmarshalJSON(data []byte) error {
	switch string(bytes.TrimSpace(data)) {
	case "true", `"true"`:
		*f = true
	case "false", `"false"`, "null":
		*f = false
	default:
		return fmt.Errorf("invalid selected flag %s", data)
	}
	return nil
}

// Schema is a JSON-schema fragment describing a table or one of its columns.
type Schema struct {
	Type             TypeList    `json:"type,omitempty"`
	Properties       *Properties `json:"properties,omitempty"`
	Format           string      `json:"format,omitempty"`
	Minimum          *int64      `json:"minimum,omitempty"`
	Maximum          *int64      `json:"maximum,omitempty"`
	ExclusiveMinimum *bool       `json:"exclusiveMinimum,omitempty"`
	ExclusiveMaximum *bool       `json:"exclusiveMaximum,omitempty"`
	Description      string      `json:"description,omitempty"`
	Inclusion        Inclusion   `json:"inclusion,omitempty"`
	Selected         *Flag       `json:"selected,omitempty"`
}

// IsDateTime reports whether the fragment carries date-time values.
func (s *Schema) IsDateTime() bool {
	return s != nil && s.Format == FormatDateTime
}

// IsSelected returns the legacy in-schema selection flag and whether it is set.
func (s *Schema) IsSelected() (selected, ok bool) {
	if s == nil || s.Selected == nil {
		return false, false
	}
	return bool(*s.Selected), true
}

// Clone returns a deep copy of s.
func (s *Schema) Clone() *Schema {
	if s == nil {
		return nil
	}
	out := *s
	if s.Type != nil {
		out.Type = append(TypeList(nil), s.Type...)
	}
	if s.Minimum != nil {
		v := *s.Minimum
		out.Minimum = &v
	}
	if s.Maximum != nil {
		v := *s.Maximum
		out.Maximum = &v
	}
	if s.ExclusiveMinimum != nil {
		v := *s.ExclusiveMinimum
		out.ExclusiveMinimum = &v
	}
	if s.ExclusiveMaximum != nil {
		v := *s.ExclusiveMaximum
		out.ExclusiveMaximum = &v
	}
	if s.Selected != nil {
		v := *s.Selected
		out.Selected = &v
	}
	out.Properties = s.Properties.Clone()
	return &out
}

// Property returns the named property fragment.
func (s *Schema) Property(name string) (*Schema, bool) {
	if s == nil || s.Properties == nil {
		return nil, false
	}
	return s.Properties.Get(name)
}

// Properties is an ordered set of named schema fragments. Order follows
// insertion, which for discovered tables is the column ordinal position.
type Properties struct {
	names  []string
	byName map[string]*Schema
}

// NewProperties creates an empty property set.
func NewProperties() *Properties {
	return &Properties{byName: make(map[string]*Schema)}
}

// Set adds or replaces a property. New names are appended.
func (p *Properties) Set(name string, s *Schema) {
	if p.byName == nil {
		p.byName = make(map[string]*Schema)
	}
	if _, ok := p.byName[name]; !ok {
		p.names = append(p.names, name)
	}
	p.byName[name] = s
}

// Get returns the named property.
func (p *Properties) Get(name string) (*Schema, bool) {
	if p == nil {
		return nil, false
	}
	s, ok := p.byName[name]
	return s, ok
}

// Names returns property names in order.
func (p *Properties) Names() []string {
	if p == nil {
		return nil
	}
	return append([]string(nil), p.names...)
}

// Len returns the number of properties.
func (p *Properties) Len() int {
	if p == nil {
		return 0
	}
	return len(p.names)
}

// Clone returns a deep copy of p.
func (p *Properties) Clone() *Properties {
	if p == nil {
		return nil
	}
	out := NewProperties()
	for _, name := range p.names {
		out.Set(name, p.byName[name].Clone())
	}
	return out
}

// MarshalJSON writes properties in order.
func (p *Properties) MarshalJSON() ([]byte, error) {
	buf := json.GetBuffer()
	defer json.PutBuffer(buf)

	buf.WriteByte('{')
	for i, name := range p.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(p.byName[name])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')

	return append([]byte(nil), buf.Bytes()...), nil
}

// UnmarshalJSON reads properties keeping document order.
func (p *Properties) UnmarshalJSON(data []byte) error {
	dec := json.GetDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("properties must be an object")
	}

	*p = Properties{byName: make(map[string]*Schema)}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected property key %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		var s Schema
		if err := json.Unmarshal(raw, &s); err != nil {
			return fmt.Errorf("property %q: %w", name, err)
		}
		p.Set(name, &s)
	}
	_, err = dec.Token()
	return err
}
