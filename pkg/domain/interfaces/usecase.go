package interfaces

import (
	"context"

	"github.com/Slalom-Consulting/tap-powerbi-metadata/pkg/domain/model"
)

// ProjectUseCase loads and validates the project being released.
type ProjectUseCase interface {
	// Load reads the VERSION file and pyproject.toml manifest from dir and
	// checks they agree.
	Load(ctx context.Context, dir string) (*model.Project, error)
}

// VersionUseCase resolves the exact version string for a run.
type VersionUseCase interface {
	// Resolve computes the version to publish from the branch, the run
	// number and the base version.
	Resolve(branch string, runNumber int64, base string) (*model.ResolvedVersion, error)
}

// PublishUseCase builds the source distribution and uploads it.
type PublishUseCase interface {
	// Build creates the sdist archive for the project at the resolved
	// version.
	Build(ctx context.Context, project *model.Project, version string) (*model.Artifact, error)

	// Upload pushes a built artifact to the package index. Uploads are
	// irreversible and never retried.
	Upload(ctx context.Context, artifact *model.Artifact) error
}

// VerifyUseCase confirms a published version is resolvable on the index.
type VerifyUseCase interface {
	// Confirm polls the index until the version is found or attempts are
	// exhausted. The returned result is populated even on failure.
	Confirm(ctx context.Context, name, version string) (*model.VerifyResult, error)
}

// PipelineUseCase runs the two release stages in order.
type PipelineUseCase interface {
	// Run executes build-and-test then publish. Any failure aborts the run
	// and is returned; there is no partial success.
	Run(ctx context.Context, req *model.ReleaseRequest) (*model.ReleaseResult, error)
}

// SourceUseCase fetches the pushed source tree for webhook-triggered runs.
type SourceUseCase interface {
	// Fetch downloads and extracts the repository snapshot at ref. The
	// caller owns the returned temp directory.
	Fetch(ctx context.Context, owner, repo, ref string) (*model.Checkout, error)
}

// TriggerUseCase decides whether a push starts a release run.
type TriggerUseCase interface {
	// HandlePush inspects a push event and dispatches a pipeline run
	// asynchronously unless the push is filtered out.
	HandlePush(ctx context.Context, event *model.PushEvent) error
}

// SyncUseCase extracts records from the Power BI admin API as Singer
// messages.
type SyncUseCase interface {
	Run(ctx context.Context, cfg *model.TapConfig, catalog *model.Catalog, state *model.State) error
}

// DiscoverUseCase produces the Singer catalog.
type DiscoverUseCase interface {
	Catalog() *model.Catalog
}
