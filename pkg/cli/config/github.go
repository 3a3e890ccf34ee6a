package config

import (
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/Slalom-Consulting/tap-powerbi-metadata/pkg/domain/interfaces"
	infra "github.com/Slalom-Consulting/tap-powerbi-metadata/pkg/infra/github"
)

// GitHub holds GitHub App configuration. The webhook secret guards the
// webhook endpoint; the App credentials are used to download source
// snapshots and report commit statuses.
type GitHub struct {
	WebhookSecret  string `masq:"secret"`
	AppID          int64
	InstallationID int64
	PrivateKeyPath string
}

// Flags returns CLI flags for GitHub configuration
func (c *GitHub) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "github-webhook-secret",
			Usage:       "GitHub webhook secret",
			Required:    true,
			Destination: &c.WebhookSecret,
			Sources:     cli.EnvVars("TAP_POWERBI_METADATA_GITHUB_WEBHOOK_SECRET"),
		},
		&cli.Int64Flag{
			Name:        "github-app-id",
			Usage:       "GitHub App ID",
			Destination: &c.AppID,
			Sources:     cli.EnvVars("TAP_POWERBI_METADATA_GITHUB_APP_ID"),
		},
		&cli.Int64Flag{
			Name:        "github-installation-id",
			Usage:       "GitHub App installation ID",
			Destination: &c.InstallationID,
			Sources:     cli.EnvVars("TAP_POWERBI_METADATA_GITHUB_INSTALLATION_ID"),
		},
		&cli.StringFlag{
			Name:        "github-private-key",
			Usage:       "Path to the GitHub App private key PEM file",
			Destination: &c.PrivateKeyPath,
			Sources:     cli.EnvVars("TAP_POWERBI_METADATA_GITHUB_PRIVATE_KEY"),
		},
	}
}

// HasAppCredentials reports whether App authentication is configured.
func (c *GitHub) HasAppCredentials() bool {
	return c.AppID != 0 && c.InstallationID != 0 && c.PrivateKeyPath != ""
}

// Configure builds an authenticated GitHub client from the App
// credentials. It returns nil when no credentials are configured.
func (c *GitHub) Configure() (interfaces.GitHubClient, error) {
	if !c.HasAppCredentials() {
		return nil, nil
	}

	privateKey, err := os.ReadFile(c.PrivateKeyPath)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read GitHub App private key",
			goerr.V("path", c.PrivateKeyPath))
	}

	return infra.NewClient(c.AppID, c.InstallationID, privateKey)
}
