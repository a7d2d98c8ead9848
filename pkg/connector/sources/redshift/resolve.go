package redshift

import (
	"go.uber.org/zap"

	"github.com/ajitpratap0/tap-redshift/pkg/catalog"
	"github.com/ajitpratap0/tap-redshift/pkg/state"
	"github.com/ajitpratap0/tap-redshift/pkg/taperrors"
)

// ResolveCatalog matches the selected streams of requested against a fresh
// discovery. Each resulting entry carries the discovered fragments of the
// columns to query, in discovered order, and the caller's replication key
// and key properties. When st names a stream that was being synced, streams
// before it are skipped. Neither input is modified.
func ResolveCatalog(discovered, requested *catalog.Catalog, st *state.State, logger *zap.Logger) (*catalog.Catalog, error) {
	var streams []*catalog.Entry
	for _, entry := range requested.Streams {
		if catalog.StreamSelected(entry) {
			streams = append(streams, entry)
		}
	}

	if current := st.CurrentlySyncingID(); current != "" {
		for i, entry := range streams {
			if entry.TapStreamID == current {
				streams = streams[i:]
				break
			}
		}
	}

	result := &catalog.Catalog{Streams: []*catalog.Entry{}}
	for _, entry := range streams {
		found := discovered.GetStream(entry.TapStreamID)
		if found == nil {
			logger.Warn("Table selected but does not exist",
				zap.String("database", entry.Database),
				zap.String("table", entry.TableName))
			continue
		}

		tableLogger := logger.With(zap.String("database", entry.Database), zap.String("table", entry.TableName))
		columns, err := DesiredColumns(catalog.SelectedProperties(entry), found.Schema, tableLogger)
		if err != nil {
			return nil, taperrors.Wrap(err, taperrors.ErrorTypeCatalog, "failed to resolve columns").
				WithDetail("tap_stream_id", entry.TapStreamID)
		}

		props := catalog.NewProperties()
		for _, name := range columns {
			s, _ := found.Schema.Property(name)
			props.Set(name, s.Clone())
		}

		var keys []string
		if entry.KeyProperties != nil {
			keys = append([]string{}, entry.KeyProperties...)
		}

		result.Streams = append(result.Streams, &catalog.Entry{
			TapStreamID:    entry.TapStreamID,
			Stream:         entry.Stream,
			TableName:      entry.TableName,
			Database:       entry.Database,
			IsView:         entry.IsView,
			Schema:         &catalog.Schema{Type: catalog.TypeList{catalog.TypeObject}, Properties: props},
			ReplicationKey: entry.ReplicationKeyName(),
			KeyProperties:  keys,
		})
	}

	return result, nil
}

// DesiredColumns returns the columns of table to query: the selected
// available columns plus every automatic column, in table order. Selected
// columns that are unsupported or unknown are logged and skipped. A column
// with any other inclusion is an error.
func DesiredColumns(selected []string, table *catalog.Schema, logger *zap.Logger) ([]string, error) {
	isSelected := make(map[string]bool, len(selected))
	for _, name := range selected {
		isSelected[name] = true
	}

	var desired, unsupported []string
	for _, name := range table.Properties.Names() {
		s, _ := table.Property(name)
		switch s.Inclusion {
		case catalog.InclusionAvailable:
			if isSelected[name] {
				desired = append(desired, name)
			}
		case catalog.InclusionAutomatic:
			desired = append(desired, name)
		case catalog.InclusionUnsupported:
			if isSelected[name] {
				unsupported = append(unsupported, name)
			}
		default:
			return nil, taperrors.Newf(taperrors.ErrorTypeCatalog, "unknown inclusion %q", string(s.Inclusion)).
				WithDetail("column", name)
		}
	}

	var nonexistent []string
	for _, name := range selected {
		if _, ok := table.Property(name); !ok {
			nonexistent = append(nonexistent, name)
		}
	}

	if len(unsupported) > 0 {
		logger.Warn("Columns were selected but are not supported. Skipping them.", zap.Strings("columns", unsupported))
	}
	if len(nonexistent) > 0 {
		logger.Warn("Columns were selected but do not exist.", zap.Strings("columns", nonexistent))
	}

	return desired, nil
}
