package model

// Catalog is the Singer catalog: the discoverable streams plus selection
// metadata. It is emitted by discover and optionally passed back via
// --catalog to restrict a sync.
type Catalog struct {
	Streams []CatalogEntry `json:"streams"`
}

// CatalogEntry describes one stream in the catalog.
type CatalogEntry struct {
	TapStreamID    string            `json:"tap_stream_id"`
	Stream         string            `json:"stream"`
	Schema         map[string]any    `json:"schema"`
	KeyProperties  []string          `json:"key_properties"`
	ReplicationKey string            `json:"replication_key,omitempty"`
	Metadata       []CatalogMetadata `json:"metadata"`
}

// CatalogMetadata is a Singer metadata entry. The stream-level entry has an
// empty breadcrumb.
type CatalogMetadata struct {
	Breadcrumb []string       `json:"breadcrumb"`
	Metadata   map[string]any `json:"metadata"`
}

// IsSelected reports whether the named stream should be synced. Streams
// without a catalog entry are skipped; entries without an explicit
// selected=false are synced.
func (c *Catalog) IsSelected(stream string) bool {
	for _, entry := range c.Streams {
		if entry.TapStreamID != stream {
			continue
		}
		for _, md := range entry.Metadata {
			if len(md.Breadcrumb) != 0 {
				continue
			}
			if selected, ok := md.Metadata["selected"].(bool); ok {
				return selected
			}
		}
		return true
	}
	return false
}
