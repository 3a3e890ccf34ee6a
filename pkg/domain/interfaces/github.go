package interfaces

import (
	"context"

	"github.com/google/go-github/v75/github"
)

// GitHubClient defines operations for interacting with the GitHub API.
type GitHubClient interface {
	// DownloadZipball downloads the source code zipball for a specific commit.
	DownloadZipball(ctx context.Context, owner, repo, ref string) ([]byte, error)

	// CreateCommitStatus reports the state of a release run on a commit.
	CreateCommitStatus(ctx context.Context, owner, repo, ref string, status *github.RepoStatus) error
}

// WebhookProcessor routes parsed webhook payloads to their handlers.
type WebhookProcessor interface {
	ProcessEvent(ctx context.Context, eventType, deliveryID string, payload any) error
}
