package usecase

import (
	"github.com/Slalom-Consulting/tap-powerbi-metadata/pkg/domain/interfaces"
	"github.com/Slalom-Consulting/tap-powerbi-metadata/pkg/domain/model"
)

type discoverUseCase struct {
	streams []*model.Stream
}

// NewDiscover creates the catalog builder over the stream registry.
func NewDiscover() interfaces.DiscoverUseCase {
	return &discoverUseCase{streams: Streams()}
}

// Catalog builds the Singer catalog. Every stream is marked available and
// selected by default; a loader deselects streams by flipping selected to
// false and passing the catalog back via --catalog.
func (uc *discoverUseCase) Catalog() *model.Catalog {
	catalog := &model.Catalog{}

	for _, stream := range uc.streams {
		metadata := map[string]any{
			"inclusion":            "available",
			"selected":             true,
			"table-key-properties": stream.PrimaryKeys,
		}
		if stream.Incremental() {
			metadata["valid-replication-keys"] = []string{stream.ReplicationKey}
			metadata["forced-replication-method"] = "INCREMENTAL"
		} else {
			metadata["forced-replication-method"] = "FULL_TABLE"
		}

		catalog.Streams = append(catalog.Streams, model.CatalogEntry{
			TapStreamID:    stream.Name,
			Stream:         stream.Name,
			Schema:         stream.Schema,
			KeyProperties:  stream.PrimaryKeys,
			ReplicationKey: stream.ReplicationKey,
			Metadata: []model.CatalogMetadata{
				{
					Breadcrumb: []string{},
					Metadata:   metadata,
				},
			},
		})
	}

	return catalog
}
