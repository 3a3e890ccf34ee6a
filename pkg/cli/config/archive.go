package config

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/Slalom-Consulting/tap-powerbi-metadata/pkg/domain/interfaces"
	"github.com/Slalom-Consulting/tap-powerbi-metadata/pkg/infra/gcs"
)

// Archive holds artifact archival configuration. Archival is optional and
// only runs when a bucket is configured.
type Archive struct {
	Bucket string
	Prefix string
}

// Flags returns CLI flags for archive configuration
func (c *Archive) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "archive-bucket",
			Usage:       "GCS bucket for retaining released artifacts",
			Destination: &c.Bucket,
			Sources:     cli.EnvVars("TAP_POWERBI_METADATA_ARCHIVE_BUCKET"),
		},
		&cli.StringFlag{
			Name:        "archive-prefix",
			Usage:       "Object key prefix inside the archive bucket",
			Value:       "releases",
			Destination: &c.Prefix,
			Sources:     cli.EnvVars("TAP_POWERBI_METADATA_ARCHIVE_PREFIX"),
		},
	}
}

// Configure builds the artifact store. It returns nil when no bucket is
// configured.
func (c *Archive) Configure(ctx context.Context) (interfaces.ArtifactStore, error) {
	if c.Bucket == "" {
		return nil, nil
	}
	return gcs.NewStore(ctx, c.Bucket, c.Prefix)
}
