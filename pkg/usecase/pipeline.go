package usecase

import (
	"context"
	"os/exec"
	"time"

	"github.com/google/go-github/v75/github"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"

	"github.com/Slalom-Consulting/tap-powerbi-metadata/pkg/domain/interfaces"
	"github.com/Slalom-Consulting/tap-powerbi-metadata/pkg/domain/model"
	"github.com/Slalom-Consulting/tap-powerbi-metadata/pkg/domain/types"
)

type pipelineUseCase struct {
	project interfaces.ProjectUseCase
	version interfaces.VersionUseCase
	publish interfaces.PublishUseCase
	verify  interfaces.VerifyUseCase

	notifier    interfaces.Notifier
	store       interfaces.ArtifactStore
	github      interfaces.GitHubClient
	testCommand string
}

// PipelineOption configures optional pipeline behavior.
type PipelineOption func(*pipelineUseCase)

// WithNotifier reports pipeline outcomes to a chat channel.
func WithNotifier(n interfaces.Notifier) PipelineOption {
	return func(uc *pipelineUseCase) {
		uc.notifier = n
	}
}

// WithArtifactStore retains verified artifacts after publishing.
func WithArtifactStore(s interfaces.ArtifactStore) PipelineOption {
	return func(uc *pipelineUseCase) {
		uc.store = s
	}
}

// WithCommitStatus reports run state back to GitHub as commit statuses for
// requests that carry an owner, repo and commit SHA.
func WithCommitStatus(client interfaces.GitHubClient) PipelineOption {
	return func(uc *pipelineUseCase) {
		uc.github = client
	}
}

// WithTestCommand runs the given shell command during stage 1. Tests are
// disabled when the command is empty, matching the original pipeline
// configuration.
func WithTestCommand(command string) PipelineOption {
	return func(uc *pipelineUseCase) {
		uc.testCommand = command
	}
}

// NewPipeline creates the two-stage release pipeline.
func NewPipeline(
	project interfaces.ProjectUseCase,
	version interfaces.VersionUseCase,
	publish interfaces.PublishUseCase,
	verify interfaces.VerifyUseCase,
	opts ...PipelineOption,
) interfaces.PipelineUseCase {
	uc := &pipelineUseCase{
		project: project,
		version: version,
		publish: publish,
		verify:  verify,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// Run executes build-and-test, then publish. The stages are strictly
// sequential; any failure aborts the run with no partial-success state.
func (uc *pipelineUseCase) Run(ctx context.Context, req *model.ReleaseRequest) (*model.ReleaseResult, error) {
	logger := ctxlog.From(ctx)
	started := time.Now()

	uc.reportStatus(ctx, req, "pending", "release run started")

	result, err := uc.run(ctx, req, started)
	if err != nil {
		stage := types.StageBuildTest
		if sv := goerr.Values(err)["stage"]; sv != nil {
			if s, ok := sv.(types.Stage); ok {
				stage = s
			}
		}

		logger.Error("Pipeline run failed",
			"run_id", req.RunID,
			"branch", req.Branch,
			"stage", string(stage),
			"error", err,
		)
		uc.reportStatus(ctx, req, "failure", "release run failed")
		if uc.notifier != nil {
			if nerr := uc.notifier.NotifyFailure(ctx, req, stage, err); nerr != nil {
				logger.Warn("Failed to send failure notification", "error", nerr)
			}
		}
		return nil, err
	}

	uc.reportStatus(ctx, req, "success", "version "+result.Version.Version+" published")
	if uc.notifier != nil {
		if nerr := uc.notifier.NotifySuccess(ctx, result); nerr != nil {
			logger.Warn("Failed to send success notification", "error", nerr)
		}
	}

	logger.Info("Pipeline run completed",
		"run_id", req.RunID,
		"version", result.Version.Version,
		"channel", string(result.Version.Channel),
		"duration", result.Duration.String(),
	)
	return result, nil
}

func (uc *pipelineUseCase) run(ctx context.Context, req *model.ReleaseRequest, started time.Time) (*model.ReleaseResult, error) {
	logger := ctxlog.From(ctx)

	// Stage 1: build-and-test.
	project, err := uc.project.Load(ctx, req.ProjectDir)
	if err != nil {
		return nil, goerr.Wrap(err, "build-and-test stage failed",
			goerr.V("stage", types.StageBuildTest))
	}

	if uc.testCommand == "" {
		logger.Info("Tests are disabled, skipping")
	} else {
		logger.Info("Running tests", "command", uc.testCommand)
		cmd := exec.CommandContext(ctx, "sh", "-c", uc.testCommand)
		cmd.Dir = req.ProjectDir
		if out, err := cmd.CombinedOutput(); err != nil {
			return nil, goerr.Wrap(err, "test command failed",
				goerr.V("stage", types.StageBuildTest),
				goerr.V("output", string(out)))
		}
	}

	// Stage 2: publish. Never starts unless stage 1 completed.
	version, err := uc.version.Resolve(req.Branch, req.RunNumber, project.Version)
	if err != nil {
		return nil, goerr.Wrap(err, "version resolution failed",
			goerr.V("stage", types.StagePublish))
	}

	logger.Info("Resolved release version",
		"version", version.Version,
		"channel", string(version.Channel),
		"branch", version.Branch,
	)

	artifact, err := uc.publish.Build(ctx, project, version.Version)
	if err != nil {
		return nil, goerr.Wrap(err, "artifact build failed",
			goerr.V("stage", types.StagePublish))
	}

	if err := uc.publish.Upload(ctx, artifact); err != nil {
		return nil, goerr.Wrap(err, "artifact upload failed",
			goerr.V("stage", types.StagePublish))
	}

	verify, err := uc.verify.Confirm(ctx, artifact.Name, artifact.Version)
	if err != nil {
		return nil, goerr.Wrap(err, "availability confirmation failed",
			goerr.V("stage", types.StagePublish))
	}

	result := &model.ReleaseResult{
		Request:   req,
		Project:   project,
		Version:   version,
		Artifact:  artifact,
		Verify:    verify,
		StartedAt: started,
	}

	if uc.store != nil {
		uri, err := uc.store.Save(ctx, artifact)
		if err != nil {
			return nil, goerr.Wrap(err, "artifact archival failed",
				goerr.V("stage", types.StagePublish))
		}
		result.ArchiveURI = uri
		logger.Info("Archived artifact", "uri", uri)
	}

	result.Duration = time.Since(started)
	return result, nil
}

func (uc *pipelineUseCase) reportStatus(ctx context.Context, req *model.ReleaseRequest, state, description string) {
	if uc.github == nil || req.Owner == "" || req.Repo == "" || req.CommitSHA == "" {
		return
	}

	status := &github.RepoStatus{
		State:       github.Ptr(state),
		Description: github.Ptr(description),
		Context:     github.Ptr(types.CommitStatusContext),
	}
	if err := uc.github.CreateCommitStatus(ctx, req.Owner, req.Repo, req.CommitSHA, status); err != nil {
		ctxlog.From(ctx).Warn("Failed to report commit status",
			"state", state,
			"error", err,
		)
	}
}
