package model

import (
	"strings"
	"time"
)

// PushEvent is the domain view of a GitHub push webhook, reduced to the
// fields the release trigger cares about.
type PushEvent struct {
	DeliveryID string // X-GitHub-Delivery header
	Owner      string
	Repo       string
	Ref        string // full ref, e.g. refs/heads/main
	Branch     string // ref with the refs/heads/ prefix stripped
	HeadSHA    string
	Deleted    bool
	Pusher     string
	Changed    []string // union of added, removed and modified paths
	ReceivedAt time.Time
}

// DocsOnly reports whether every changed path is documentation. Pushes that
// only touch docs do not trigger a release run. An empty change list is not
// docs-only.
func (e *PushEvent) DocsOnly() bool {
	if len(e.Changed) == 0 {
		return false
	}
	for _, path := range e.Changed {
		if !isDocPath(path) {
			return false
		}
	}
	return true
}

func isDocPath(path string) bool {
	return strings.HasSuffix(path, ".md") || strings.HasPrefix(path, "docs/")
}
