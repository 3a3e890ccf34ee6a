package usecase

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/m-mizutani/goerr/v2"

	"github.com/Slalom-Consulting/tap-powerbi-metadata/pkg/domain/interfaces"
	"github.com/Slalom-Consulting/tap-powerbi-metadata/pkg/domain/model"
	"github.com/Slalom-Consulting/tap-powerbi-metadata/pkg/domain/types"
)

type versionResolver struct {
	releaseBranch string
}

// NewVersionResolver creates a version resolver. Pushes to releaseBranch
// publish the base version unchanged; every other branch gets a
// dev.<run-number> prerelease suffix.
func NewVersionResolver(releaseBranch string) interfaces.VersionUseCase {
	return &versionResolver{releaseBranch: releaseBranch}
}

// Resolve computes the exact version string to publish. The same inputs
// always produce the same output.
func (uc *versionResolver) Resolve(branch string, runNumber int64, base string) (*model.ResolvedVersion, error) {
	branch = strings.TrimPrefix(branch, "refs/heads/")
	if branch == "" {
		return nil, goerr.New("branch name is empty")
	}

	parsed, err := semver.StrictNewVersion(base)
	if err != nil {
		return nil, goerr.Wrap(err, "invalid base version", goerr.V("base", base))
	}

	if branch == uc.releaseBranch {
		return &model.ResolvedVersion{
			Version: parsed.String(),
			Base:    base,
			Branch:  branch,
			Channel: types.ChannelStable,
		}, nil
	}

	if runNumber <= 0 {
		return nil, goerr.New("run number must be positive for dev releases",
			goerr.V("branch", branch), goerr.V("run_number", runNumber))
	}

	dev, err := parsed.SetPrerelease(fmt.Sprintf("dev.%d", runNumber))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to build dev version",
			goerr.V("base", base), goerr.V("run_number", runNumber))
	}

	return &model.ResolvedVersion{
		Version: dev.String(),
		Base:    base,
		Branch:  branch,
		Channel: types.ChannelDev,
	}, nil
}
