package config

import (
	"github.com/urfave/cli/v3"

	"github.com/Slalom-Consulting/tap-powerbi-metadata/pkg/domain/interfaces"
	"github.com/Slalom-Consulting/tap-powerbi-metadata/pkg/infra/notify"
)

// Notify holds Slack notification configuration.
type Notify struct {
	SlackWebhookURL string `masq:"secret"`
}

// Flags returns CLI flags for notification configuration
func (c *Notify) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "slack-webhook-url",
			Usage:       "Slack incoming webhook URL for pipeline outcomes",
			Destination: &c.SlackWebhookURL,
			Sources:     cli.EnvVars("TAP_POWERBI_METADATA_SLACK_WEBHOOK_URL"),
		},
	}
}

// Configure builds the notifier. It returns nil when no webhook URL is
// configured.
func (c *Notify) Configure() interfaces.Notifier {
	if c.SlackWebhookURL == "" {
		return nil
	}
	return notify.NewSlack(c.SlackWebhookURL)
}
