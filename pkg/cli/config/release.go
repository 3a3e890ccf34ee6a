package config

import (
	"github.com/urfave/cli/v3"

	"github.com/Slalom-Consulting/tap-powerbi-metadata/pkg/domain/model"
)

// Release holds the release run parameters. On GitHub Actions the branch,
// run number and run id fall back to the ambient workflow variables, so the
// binary works without flags inside a workflow.
type Release struct {
	Branch        string
	RunNumber     int64
	RunID         string
	CommitSHA     string
	ProjectDir    string
	ReleaseBranch string
	TestCommand   string
	RunNumberSeed int64
}

// Flags returns CLI flags for release configuration
func (c *Release) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "branch",
			Usage:       "Branch being released",
			Destination: &c.Branch,
			Sources:     cli.EnvVars("TAP_POWERBI_METADATA_BRANCH", "GITHUB_REF_NAME"),
		},
		&cli.Int64Flag{
			Name:        "run-number",
			Usage:       "Monotonic run number, embedded in dev versions",
			Destination: &c.RunNumber,
			Sources:     cli.EnvVars("TAP_POWERBI_METADATA_RUN_NUMBER", "GITHUB_RUN_NUMBER"),
		},
		&cli.StringFlag{
			Name:        "run-id",
			Usage:       "Run identifier for logs and notifications",
			Destination: &c.RunID,
			Sources:     cli.EnvVars("TAP_POWERBI_METADATA_RUN_ID", "GITHUB_RUN_ID"),
		},
		&cli.StringFlag{
			Name:        "commit",
			Usage:       "Commit SHA being released",
			Destination: &c.CommitSHA,
			Sources:     cli.EnvVars("TAP_POWERBI_METADATA_COMMIT", "GITHUB_SHA"),
		},
		&cli.StringFlag{
			Name:        "project-dir",
			Usage:       "Project directory containing VERSION and pyproject.toml",
			Value:       ".",
			Destination: &c.ProjectDir,
			Sources:     cli.EnvVars("TAP_POWERBI_METADATA_PROJECT_DIR"),
		},
		&cli.StringFlag{
			Name:        "release-branch",
			Usage:       "Branch that publishes stable versions",
			Value:       "main",
			Destination: &c.ReleaseBranch,
			Sources:     cli.EnvVars("TAP_POWERBI_METADATA_RELEASE_BRANCH"),
		},
		&cli.StringFlag{
			Name:        "test-command",
			Usage:       "Stage 1 test command (empty disables tests)",
			Destination: &c.TestCommand,
			Sources:     cli.EnvVars("TAP_POWERBI_METADATA_TEST_COMMAND"),
		},
		&cli.Int64Flag{
			Name:        "run-number-seed",
			Usage:       "First run number for webhook-triggered runs",
			Value:       1,
			Destination: &c.RunNumberSeed,
			Sources:     cli.EnvVars("TAP_POWERBI_METADATA_RUN_NUMBER_SEED"),
		},
	}
}

// Request builds the release request for a flag-driven run.
func (c *Release) Request() *model.ReleaseRequest {
	return &model.ReleaseRequest{
		Branch:     c.Branch,
		RunNumber:  c.RunNumber,
		RunID:      c.RunID,
		CommitSHA:  c.CommitSHA,
		ProjectDir: c.ProjectDir,
	}
}
