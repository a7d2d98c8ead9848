// Package state holds the persisted sync position: the stream currently being
// synced and a bookmark per stream. A run reads the previous state, updates it
// as rows stream out and emits copies of it as checkpoints.
package state

import (
	"strconv"

	"github.com/ajitpratap0/tap-redshift/pkg/json"
	"github.com/ajitpratap0/tap-redshift/pkg/taperrors"
)

// Bookmark keys.
const (
	KeyReplicationKey      = "replication_key"
	KeyReplicationKeyValue = "replication_key_value"
	KeyVersion             = "version"
)

// Bookmark is the per-stream position. Values are kept as decoded so that a
// key set to null stays distinguishable from a missing key.
type Bookmark map[string]interface{}

// State is the document exchanged with the caller between runs.
type State struct {
	CurrentlySyncing *string             `json:"currently_syncing"`
	Bookmarks        map[string]Bookmark `json:"bookmarks"`
}

// New returns an empty state.
func New() *State {
	return &State{Bookmarks: make(map[string]Bookmark)}
}

// Load reads a state file.
func Load(path string) (*State, error) {
	s := New()
	if err := json.ReadFile(path, s); err != nil {
		return nil, taperrors.Wrap(err, taperrors.ErrorTypeState, "failed to read state").
			WithDetail("path", path)
	}
	if s.Bookmarks == nil {
		s.Bookmarks = make(map[string]Bookmark)
	}
	return s, nil
}

// CurrentlySyncingID returns the stream being synced, or "".
func (s *State) CurrentlySyncingID() string {
	if s == nil || s.CurrentlySyncing == nil {
		return ""
	}
	return *s.CurrentlySyncing
}

// SetCurrentlySyncing records the stream being synced. An empty id clears it.
func (s *State) SetCurrentlySyncing(tapStreamID string) {
	if tapStreamID == "" {
		s.CurrentlySyncing = nil
		return
	}
	s.CurrentlySyncing = &tapStreamID
}

// Bookmark returns the bookmark for a stream.
func (s *State) Bookmark(tapStreamID string) (Bookmark, bool) {
	if s == nil {
		return nil, false
	}
	b, ok := s.Bookmarks[tapStreamID]
	return b, ok
}

// GetBookmark returns one bookmark value.
func (s *State) GetBookmark(tapStreamID, key string) (interface{}, bool) {
	b, ok := s.Bookmark(tapStreamID)
	if !ok {
		return nil, false
	}
	v, ok := b[key]
	return v, ok
}

// WriteBookmark sets one bookmark value, creating the bookmark if needed.
func (s *State) WriteBookmark(tapStreamID, key string, value interface{}) {
	if s.Bookmarks == nil {
		s.Bookmarks = make(map[string]Bookmark)
	}
	b, ok := s.Bookmarks[tapStreamID]
	if !ok {
		b = make(Bookmark)
		s.Bookmarks[tapStreamID] = b
	}
	b[key] = value
}

// Version returns the bookmarked table version of a stream. ok is false when
// no usable version is stored.
func (s *State) Version(tapStreamID string) (version int64, ok bool) {
	v, found := s.GetBookmark(tapStreamID, KeyVersion)
	if !found || v == nil {
		return 0, false
	}
	switch n := v.(type) {
	case int64:
		return n, n != 0
	case int:
		return int64(n), n != 0
	case float64:
		return int64(n), n != 0
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return i, i != 0
	case string:
		i, err := strconv.ParseInt(n, 10, 64)
		if err != nil {
			return 0, false
		}
		return i, i != 0
	}
	return 0, false
}

// Copy returns a deep copy of the state.
func (s *State) Copy() *State {
	out := New()
	if s == nil {
		return out
	}
	if s.CurrentlySyncing != nil {
		id := *s.CurrentlySyncing
		out.CurrentlySyncing = &id
	}
	for id, b := range s.Bookmarks {
		cp := make(Bookmark, len(b))
		for k, v := range b {
			cp[k] = copyValue(v)
		}
		out.Bookmarks[id] = cp
	}
	return out
}

func copyValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		m := make(map[string]interface{}, len(t))
		for k, inner := range t {
			m[k] = copyValue(inner)
		}
		return m
	case []interface{}:
		l := make([]interface{}, len(t))
		for i, inner := range t {
			l[i] = copyValue(inner)
		}
		return l
	}
	return v
}
