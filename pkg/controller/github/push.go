package github

import (
	"context"
	"time"

	"github.com/google/go-github/v75/github"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"

	"github.com/Slalom-Consulting/tap-powerbi-metadata/pkg/domain/interfaces"
	"github.com/Slalom-Consulting/tap-powerbi-metadata/pkg/domain/model"
)

// EventProcessor routes GitHub webhook events to the release trigger.
type EventProcessor struct {
	triggerUC interfaces.TriggerUseCase
}

// NewEventProcessor creates a new GitHub event processor
func NewEventProcessor(triggerUC interfaces.TriggerUseCase) *EventProcessor {
	return &EventProcessor{
		triggerUC: triggerUC,
	}
}

// ProcessEvent processes a GitHub webhook event. Only push events can
// trigger a release run; everything else is acknowledged and ignored.
func (p *EventProcessor) ProcessEvent(ctx context.Context, eventType, deliveryID string, payload any) error {
	logger := ctxlog.From(ctx)

	switch eventType {
	case "push":
		return p.processPushEvent(ctx, deliveryID, payload)
	default:
		logger.Info("Ignoring unsupported event type", "event_type", eventType)
		return nil
	}
}

func (p *EventProcessor) processPushEvent(ctx context.Context, deliveryID string, payload any) error {
	logger := ctxlog.From(ctx)

	pushEvent, ok := payload.(*github.PushEvent)
	if !ok {
		logger.Warn("Invalid push event payload")
		return nil
	}

	event, err := toPushEvent(pushEvent, deliveryID)
	if err != nil {
		logger.Error("Failed to extract push info", "error", err)
		return err
	}

	logger.Info("Processing push event",
		"delivery_id", event.DeliveryID,
		"repo", event.Owner+"/"+event.Repo,
		"ref", event.Ref,
		"commit", event.HeadSHA,
		"deleted", event.Deleted,
	)

	return p.triggerUC.HandlePush(ctx, event)
}

// toPushEvent maps the go-github payload to the domain push event. Changed
// paths are the union of added, removed and modified files across every
// commit in the push.
func toPushEvent(e *github.PushEvent, deliveryID string) (*model.PushEvent, error) {
	owner := e.GetRepo().GetOwner().GetLogin()
	repo := e.GetRepo().GetName()
	ref := e.GetRef()

	if owner == "" || repo == "" || ref == "" {
		return nil, goerr.New("push event is missing required fields",
			goerr.V("owner", owner),
			goerr.V("repo", repo),
			goerr.V("ref", ref))
	}

	var changed []string
	seen := map[string]bool{}
	addPaths := func(paths []string) {
		for _, path := range paths {
			if !seen[path] {
				seen[path] = true
				changed = append(changed, path)
			}
		}
	}
	for _, commit := range e.Commits {
		addPaths(commit.Added)
		addPaths(commit.Removed)
		addPaths(commit.Modified)
	}

	return &model.PushEvent{
		DeliveryID: deliveryID,
		Owner:      owner,
		Repo:       repo,
		Ref:        ref,
		Branch:     branchFromRef(ref),
		HeadSHA:    e.GetAfter(),
		Deleted:    e.GetDeleted(),
		Pusher:     e.GetPusher().GetName(),
		Changed:    changed,
		ReceivedAt: time.Now(),
	}, nil
}

func branchFromRef(ref string) string {
	const prefix = "refs/heads/"
	if len(ref) > len(prefix) && ref[:len(prefix)] == prefix {
		return ref[len(prefix):]
	}
	return ref
}
