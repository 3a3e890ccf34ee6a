package interfaces

import (
	"context"

	"github.com/Slalom-Consulting/tap-powerbi-metadata/pkg/domain/model"
)

// ArtifactStore retains built artifacts after a verified release.
type ArtifactStore interface {
	// Save copies the artifact into the store and returns its URI.
	Save(ctx context.Context, artifact *model.Artifact) (string, error)
}
