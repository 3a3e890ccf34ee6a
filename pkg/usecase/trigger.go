package usecase

import (
	"context"
	"os"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/m-mizutani/ctxlog"

	"github.com/Slalom-Consulting/tap-powerbi-metadata/pkg/domain/interfaces"
	"github.com/Slalom-Consulting/tap-powerbi-metadata/pkg/domain/model"
	"github.com/Slalom-Consulting/tap-powerbi-metadata/pkg/utils/async"
)

type triggerUseCase struct {
	source   interfaces.SourceUseCase
	pipeline interfaces.PipelineUseCase

	runNumber atomic.Int64
	dispatch  func(ctx context.Context, handler func(ctx context.Context) error)
}

// TriggerOption configures the release trigger.
type TriggerOption func(*triggerUseCase)

// WithRunNumberSeed sets the run number assigned to the next triggered run.
// Webhook-triggered runs have no workflow run number, so a process-local
// monotonic counter stands in for it.
func WithRunNumberSeed(seed int64) TriggerOption {
	return func(uc *triggerUseCase) {
		uc.runNumber.Store(seed - 1)
	}
}

// WithDispatcher replaces the async dispatcher. Tests use a synchronous
// dispatcher to observe the run.
func WithDispatcher(dispatch func(ctx context.Context, handler func(ctx context.Context) error)) TriggerOption {
	return func(uc *triggerUseCase) {
		uc.dispatch = dispatch
	}
}

// NewTrigger creates the push-event release trigger.
func NewTrigger(source interfaces.SourceUseCase, pipeline interfaces.PipelineUseCase, opts ...TriggerOption) interfaces.TriggerUseCase {
	uc := &triggerUseCase{
		source:   source,
		pipeline: pipeline,
		dispatch: async.Dispatch,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// HandlePush inspects a push event and dispatches a pipeline run
// asynchronously. Branch deletions and docs-only pushes never trigger a
// run. The webhook response does not wait for the pipeline.
func (uc *triggerUseCase) HandlePush(ctx context.Context, event *model.PushEvent) error {
	logger := ctxlog.From(ctx)

	if event.Deleted {
		logger.Info("Ignoring branch deletion",
			"repo", event.Owner+"/"+event.Repo,
			"ref", event.Ref,
		)
		return nil
	}
	if event.DocsOnly() {
		logger.Info("Ignoring docs-only push",
			"repo", event.Owner+"/"+event.Repo,
			"branch", event.Branch,
			"changed", len(event.Changed),
		)
		return nil
	}

	runNumber := uc.runNumber.Add(1)
	runID := uuid.NewString()

	logger.Info("Triggering release run",
		"run_id", runID,
		"run_number", runNumber,
		"repo", event.Owner+"/"+event.Repo,
		"branch", event.Branch,
		"commit", event.HeadSHA,
	)

	uc.dispatch(ctx, func(ctx context.Context) error {
		return uc.runRelease(ctx, event, runNumber, runID)
	})
	return nil
}

func (uc *triggerUseCase) runRelease(ctx context.Context, event *model.PushEvent, runNumber int64, runID string) error {
	logger := ctxlog.From(ctx)

	checkout, err := uc.source.Fetch(ctx, event.Owner, event.Repo, event.HeadSHA)
	if err != nil {
		return err
	}
	defer func() {
		if err := os.RemoveAll(checkout.TempDir); err != nil {
			logger.Warn("Failed to clean up temporary directory",
				"temp_dir", checkout.TempDir,
				"error", err,
			)
		}
	}()

	req := &model.ReleaseRequest{
		Branch:     event.Branch,
		RunNumber:  runNumber,
		RunID:      runID,
		CommitSHA:  event.HeadSHA,
		ProjectDir: checkout.ProjectDir,
		Owner:      event.Owner,
		Repo:       event.Repo,
	}

	_, err = uc.pipeline.Run(ctx, req)
	return err
}
