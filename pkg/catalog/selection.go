package catalog

// StreamSelected reports whether a stream should be synced. Explicit stream
// metadata wins, then the legacy schema flag. Without either, a stream is
// selected when one of its columns is explicitly selected.
func StreamSelected(e *Entry) bool {
	root := StreamBreadcrumb()
	explicit, hasExplicit := e.Metadata.GetBool(root, MetaSelected)
	if hasExplicit && explicit {
		return true
	}
	if legacy, ok := e.Schema.IsSelected(); ok && legacy {
		return true
	}
	if hasExplicit {
		return false
	}
	for _, name := range e.Schema.propertyNames() {
		if v, ok := e.Metadata.GetBool(PropertyBreadcrumb(name), MetaSelected); ok && v {
			return true
		}
	}
	return false
}

// PropertySelected reports whether column name was chosen by the caller:
// explicit metadata selected=true, the legacy in-schema flag, or, when no
// explicit choice exists, selected-by-default.
func PropertySelected(e *Entry, name string) bool {
	crumb := PropertyBreadcrumb(name)
	explicit, hasExplicit := e.Metadata.GetBool(crumb, MetaSelected)
	if hasExplicit && explicit {
		return true
	}
	if prop, ok := e.Schema.Property(name); ok {
		if legacy, set := prop.IsSelected(); set && legacy {
			return true
		}
	}
	if hasExplicit {
		return false
	}
	byDefault, _ := e.Metadata.GetBool(crumb, MetaSelectedByDefault)
	return byDefault
}

// SelectedProperties returns the selected column names in schema order.
// The replication key is always part of the result.
func SelectedProperties(e *Entry) []string {
	replicationKey := e.ReplicationKeyName()
	var selected []string
	seen := make(map[string]bool)
	for _, name := range e.Schema.propertyNames() {
		if name == replicationKey || PropertySelected(e, name) {
			selected = append(selected, name)
			seen[name] = true
		}
	}
	if replicationKey != "" && !seen[replicationKey] {
		selected = append(selected, replicationKey)
	}
	return selected
}

func (s *Schema) propertyNames() []string {
	if s == nil {
		return nil
	}
	return s.Properties.Names()
}
