package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/slack-go/slack"

	"github.com/Slalom-Consulting/tap-powerbi-metadata/pkg/domain/model"
	"github.com/Slalom-Consulting/tap-powerbi-metadata/pkg/domain/types"
)

func testResult() *model.ReleaseResult {
	return &model.ReleaseResult{
		Request: &model.ReleaseRequest{RunID: "run-1", Branch: "feature/x"},
		Version: &model.ResolvedVersion{
			Version: "1.2.0-dev.42",
			Branch:  "feature/x",
			Channel: types.ChannelDev,
		},
		Verify: &model.VerifyResult{Found: true, Attempts: 3},
	}
}

func TestNotifySuccess(t *testing.T) {
	var gotURL string
	var gotMsg *slack.WebhookMessage
	n := &slackNotifier{
		webhookURL: "https://hooks.slack.com/services/T/B/X",
		post: func(ctx context.Context, url string, msg *slack.WebhookMessage) error {
			gotURL = url
			gotMsg = msg
			return nil
		},
	}

	gt.NoError(t, n.NotifySuccess(context.Background(), testResult()))

	gt.Value(t, gotURL).Equal("https://hooks.slack.com/services/T/B/X")
	gt.Value(t, len(gotMsg.Attachments)).Equal(1)

	attachment := gotMsg.Attachments[0]
	gt.Value(t, attachment.Color).Equal("good")
	gt.Value(t, attachment.Title).Equal("tap-powerbi-metadata 1.2.0-dev.42 published")
	gt.Value(t, attachment.Fields[0].Value).Equal("feature/x")
}

func TestNotifyFailure(t *testing.T) {
	var gotMsg *slack.WebhookMessage
	n := &slackNotifier{
		webhookURL: "https://hooks.slack.com/services/T/B/X",
		post: func(ctx context.Context, url string, msg *slack.WebhookMessage) error {
			gotMsg = msg
			return nil
		},
	}

	req := &model.ReleaseRequest{RunID: "run-1", Branch: "main"}
	runErr := errors.New("artifact upload failed: 403 Forbidden")
	gt.NoError(t, n.NotifyFailure(context.Background(), req, types.StagePublish, runErr))

	attachment := gotMsg.Attachments[0]
	gt.Value(t, attachment.Color).Equal("danger")
	gt.Value(t, attachment.Text).Equal("artifact upload failed: 403 Forbidden")

	fields := map[string]string{}
	for _, f := range attachment.Fields {
		fields[f.Title] = f.Value
	}
	gt.Value(t, fields["Stage"]).Equal(string(types.StagePublish))
	gt.Value(t, fields["Branch"]).Equal("main")
}

func TestNotify_PostErrorSurfaces(t *testing.T) {
	n := &slackNotifier{
		post: func(ctx context.Context, url string, msg *slack.WebhookMessage) error {
			return errors.New("webhook gone")
		},
	}

	gt.Error(t, n.NotifySuccess(context.Background(), testResult()))
}
