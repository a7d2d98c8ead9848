package state

import (
	"go.uber.org/zap"

	"github.com/ajitpratap0/tap-redshift/pkg/catalog"
)

// Build derives the state for a run from the caller's previous state and the
// requested catalog. A saved replication key value survives only while the
// stream keeps the same replication key; a saved table version always survives.
func Build(raw *State, cat *catalog.Catalog, logger *zap.Logger) *State {
	out := New()
	if raw == nil {
		raw = New()
	}
	if id := raw.CurrentlySyncingID(); id != "" {
		out.SetCurrentlySyncing(id)
	}
	if cat == nil {
		return out
	}

	for _, entry := range cat.Streams {
		id := entry.TapStreamID

		if key := entry.ReplicationKeyName(); key != "" {
			out.WriteBookmark(id, KeyReplicationKey, key)

			oldKey, _ := raw.GetBookmark(id, KeyReplicationKey)
			oldValue, _ := raw.GetBookmark(id, KeyReplicationKeyValue)
			if oldKey == key && present(oldValue) {
				out.WriteBookmark(id, KeyReplicationKeyValue, oldValue)
			} else if present(oldValue) {
				logger.Info("Replication key changed, discarding bookmark value",
					zap.String("tap_stream_id", id),
					zap.Any("old_replication_key", oldKey),
					zap.String("replication_key", key))
			}
		}

		if b, ok := raw.Bookmark(id); ok && len(b) > 0 {
			version := b[KeyVersion]
			out.WriteBookmark(id, KeyVersion, version)
		}
	}

	return out
}

func present(v interface{}) bool {
	if v == nil {
		return false
	}
	if s, ok := v.(string); ok {
		return s != ""
	}
	return true
}
