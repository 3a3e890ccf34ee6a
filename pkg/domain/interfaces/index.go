package interfaces

import (
	"context"

	"github.com/Slalom-Consulting/tap-powerbi-metadata/pkg/domain/model"
)

// PackageIndex defines operations against the package index: uploading a
// built distribution and checking whether a version is resolvable.
type PackageIndex interface {
	// Lookup asks the index whether name at version exists. The outcome is
	// a typed result; the error return is reserved for request
	// construction failures.
	Lookup(ctx context.Context, name, version string) (*model.LookupResult, error)

	// Upload publishes the artifact. The index credential is owned by the
	// implementation and never surfaces to callers or logs.
	Upload(ctx context.Context, artifact *model.Artifact) error
}
