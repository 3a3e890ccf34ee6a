package model

import (
	"time"

	"github.com/Slalom-Consulting/tap-powerbi-metadata/pkg/domain/types"
)

// ReleaseRequest carries everything a pipeline run needs to know about the
// triggering push. It is built once at process entry (CLI flags or webhook
// payload) and passed through explicitly.
type ReleaseRequest struct {
	Branch     string // branch name, refs/heads/ prefix accepted
	RunNumber  int64
	RunID      string
	CommitSHA  string
	ProjectDir string

	// Owner and Repo are set for webhook-triggered runs so the result can
	// be reported back as a commit status.
	Owner string
	Repo  string
}

// ResolvedVersion is the outcome of version resolution for one run.
type ResolvedVersion struct {
	Version string        // exact string to publish, e.g. "1.2.0" or "1.2.0-dev.42"
	Base    string        // base version from the VERSION file
	Branch  string        // normalized branch name
	Channel types.Channel // stable or dev
}

// VerifyResult records how availability polling went. Attempts counts every
// lookup made including the final one, and LastError holds the most recent
// failure text verbatim so exhausted polls surface exactly what the index
// last said.
type VerifyResult struct {
	Found     bool
	Attempts  int
	LastError string
	Elapsed   time.Duration
}

// ReleaseResult is the outcome of a completed pipeline run. A failed run
// returns an error instead; there is no partial result.
type ReleaseResult struct {
	Request  *ReleaseRequest
	Project  *Project
	Version  *ResolvedVersion
	Artifact *Artifact
	Verify   *VerifyResult

	// ArchiveURI is set when the artifact was copied to the archive bucket.
	ArchiveURI string

	StartedAt time.Time
	Duration  time.Duration
}
