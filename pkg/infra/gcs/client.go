package gcs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/goerr/v2"

	"github.com/Slalom-Consulting/tap-powerbi-metadata/pkg/domain/interfaces"
	"github.com/Slalom-Consulting/tap-powerbi-metadata/pkg/domain/model"
)

type store struct {
	client *storage.Client
	bucket string
	prefix string
}

// NewStore creates a GCS-backed artifact store.
func NewStore(ctx context.Context, bucket, prefix string) (interfaces.ArtifactStore, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create storage client")
	}

	return &store{
		client: client,
		bucket: bucket,
		prefix: prefix,
	}, nil
}

// Save copies the artifact into the bucket under
// <prefix>/<name>/<version>/<filename> and returns the object URI.
func (s *store) Save(ctx context.Context, artifact *model.Artifact) (string, error) {
	file, err := os.Open(artifact.Path)
	if err != nil {
		return "", goerr.Wrap(err, "failed to open artifact", goerr.V("path", artifact.Path))
	}
	defer file.Close()

	key := path.Join(s.prefix, artifact.Name, artifact.Version, artifact.Filename)
	writer := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	writer.ContentType = "application/gzip"

	if _, err := io.Copy(writer, file); err != nil {
		writer.Close()
		return "", goerr.Wrap(err, "failed to write artifact to bucket",
			goerr.V("bucket", s.bucket),
			goerr.V("key", key))
	}
	if err := writer.Close(); err != nil {
		return "", goerr.Wrap(err, "failed to finalize bucket object",
			goerr.V("bucket", s.bucket),
			goerr.V("key", key))
	}

	return fmt.Sprintf("gs://%s/%s", s.bucket, key), nil
}
