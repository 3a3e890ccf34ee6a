package types

// Channel identifies which release channel a resolved version belongs to.
type Channel string

const (
	// ChannelStable is used for pushes to the release branch. The base
	// version is published as-is.
	ChannelStable Channel = "stable"

	// ChannelDev is used for every other branch. The base version gets a
	// dev.<run-number> prerelease suffix.
	ChannelDev Channel = "dev"
)

// Stage identifies a pipeline stage.
type Stage string

const (
	StageBuildTest Stage = "build-and-test"
	StagePublish   Stage = "publish"
)

// CommitStatusContext is the status context reported back to GitHub for
// webhook-triggered runs.
const CommitStatusContext = "tap-powerbi-metadata/release"
