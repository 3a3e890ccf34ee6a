package config

import (
	"time"

	"github.com/urfave/cli/v3"

	"github.com/Slalom-Consulting/tap-powerbi-metadata/pkg/domain/interfaces"
	"github.com/Slalom-Consulting/tap-powerbi-metadata/pkg/infra/index"
)

// Index holds package index configuration: where to upload built
// distributions, where to look them up, and how long to keep polling for a
// just-published version to become resolvable.
type Index struct {
	BaseURL      string
	UploadURL    string
	Token        string `masq:"secret"`
	PollAttempts int64
	PollInterval time.Duration
}

// Flags returns CLI flags for package index configuration
func (c *Index) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "index-url",
			Usage:       "Package index base URL for availability lookups",
			Value:       "https://pypi.org",
			Destination: &c.BaseURL,
			Sources:     cli.EnvVars("TAP_POWERBI_METADATA_INDEX_URL"),
		},
		&cli.StringFlag{
			Name:        "index-upload-url",
			Usage:       "Package index upload endpoint",
			Value:       "https://upload.pypi.org/legacy/",
			Destination: &c.UploadURL,
			Sources:     cli.EnvVars("TAP_POWERBI_METADATA_INDEX_UPLOAD_URL"),
		},
		&cli.StringFlag{
			Name:        "index-token",
			Usage:       "Package index API token",
			Destination: &c.Token,
			Sources:     cli.EnvVars("TAP_POWERBI_METADATA_INDEX_TOKEN", "PYPI_TOKEN"),
		},
		&cli.Int64Flag{
			Name:        "poll-attempts",
			Usage:       "Maximum availability poll attempts",
			Value:       7,
			Destination: &c.PollAttempts,
			Sources:     cli.EnvVars("TAP_POWERBI_METADATA_POLL_ATTEMPTS"),
		},
		&cli.DurationFlag{
			Name:        "poll-interval",
			Usage:       "Wait between availability poll attempts",
			Value:       30 * time.Second,
			Destination: &c.PollInterval,
			Sources:     cli.EnvVars("TAP_POWERBI_METADATA_POLL_INTERVAL"),
		},
	}
}

// Configure builds the package index client.
func (c *Index) Configure() interfaces.PackageIndex {
	return index.NewClient(c.Token,
		index.WithBaseURL(c.BaseURL),
		index.WithUploadURL(c.UploadURL),
	)
}
