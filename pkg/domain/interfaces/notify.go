package interfaces

import (
	"context"

	"github.com/Slalom-Consulting/tap-powerbi-metadata/pkg/domain/model"
	"github.com/Slalom-Consulting/tap-powerbi-metadata/pkg/domain/types"
)

// Notifier reports pipeline outcomes to a chat channel. Notification
// failures are logged, never fatal.
type Notifier interface {
	NotifySuccess(ctx context.Context, result *model.ReleaseResult) error
	NotifyFailure(ctx context.Context, req *model.ReleaseRequest, stage types.Stage, runErr error) error
}
