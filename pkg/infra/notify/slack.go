package notify

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/slack-go/slack"

	"github.com/Slalom-Consulting/tap-powerbi-metadata/pkg/domain/interfaces"
	"github.com/Slalom-Consulting/tap-powerbi-metadata/pkg/domain/model"
	"github.com/Slalom-Consulting/tap-powerbi-metadata/pkg/domain/types"
)

type slackNotifier struct {
	webhookURL string
	post       func(ctx context.Context, url string, msg *slack.WebhookMessage) error
}

// NewSlack creates a notifier posting to a Slack incoming webhook.
func NewSlack(webhookURL string) interfaces.Notifier {
	return &slackNotifier{
		webhookURL: webhookURL,
		post:       slack.PostWebhookContext,
	}
}

// NotifySuccess reports a completed release run.
func (n *slackNotifier) NotifySuccess(ctx context.Context, result *model.ReleaseResult) error {
	msg := &slack.WebhookMessage{
		Attachments: []slack.Attachment{
			{
				Color: "good",
				Title: fmt.Sprintf("%s %s published", types.AppName, result.Version.Version),
				Fields: []slack.AttachmentField{
					{Title: "Branch", Value: result.Version.Branch, Short: true},
					{Title: "Channel", Value: string(result.Version.Channel), Short: true},
					{Title: "Run ID", Value: result.Request.RunID, Short: true},
					{Title: "Poll attempts", Value: fmt.Sprintf("%d", result.Verify.Attempts), Short: true},
				},
			},
		},
	}

	if err := n.post(ctx, n.webhookURL, msg); err != nil {
		return goerr.Wrap(err, "failed to post success notification")
	}
	return nil
}

// NotifyFailure reports a failed release run with the stage and error text.
func (n *slackNotifier) NotifyFailure(ctx context.Context, req *model.ReleaseRequest, stage types.Stage, runErr error) error {
	msg := &slack.WebhookMessage{
		Attachments: []slack.Attachment{
			{
				Color: "danger",
				Title: fmt.Sprintf("%s release failed", types.AppName),
				Text:  runErr.Error(),
				Fields: []slack.AttachmentField{
					{Title: "Branch", Value: req.Branch, Short: true},
					{Title: "Stage", Value: string(stage), Short: true},
					{Title: "Run ID", Value: req.RunID, Short: true},
				},
			},
		},
	}

	if err := n.post(ctx, n.webhookURL, msg); err != nil {
		return goerr.Wrap(err, "failed to post failure notification")
	}
	return nil
}
