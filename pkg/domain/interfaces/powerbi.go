package interfaces

import (
	"context"
	"net/url"

	"github.com/Slalom-Consulting/tap-powerbi-metadata/pkg/domain/model"
)

// PowerBI is the authenticated Power BI admin API client used by the sync
// engine. Transient failures are retried inside the implementation; a
// returned error is final.
type PowerBI interface {
	Get(ctx context.Context, path string, query url.Values) (*model.APIPage, error)
}
