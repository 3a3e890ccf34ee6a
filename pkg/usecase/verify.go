package usecase

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"

	"github.com/Slalom-Consulting/tap-powerbi-metadata/pkg/domain/interfaces"
	"github.com/Slalom-Consulting/tap-powerbi-metadata/pkg/domain/model"
)

type verifyUseCase struct {
	index    interfaces.PackageIndex
	attempts int
	interval time.Duration
}

// NewVerify creates the availability poller. The index is polled at a fixed
// interval up to attempts times in total; the window is small and bounded,
// so the backoff is deliberately constant rather than exponential.
func NewVerify(index interfaces.PackageIndex, attempts int, interval time.Duration) interfaces.VerifyUseCase {
	if attempts < 1 {
		attempts = 1
	}
	return &verifyUseCase{
		index:    index,
		attempts: attempts,
		interval: interval,
	}
}

// Confirm polls the index until name at version resolves. The returned
// result is populated even when polling fails, so callers can report the
// attempt count and the last observed error text.
func (uc *verifyUseCase) Confirm(ctx context.Context, name, version string) (*model.VerifyResult, error) {
	logger := ctxlog.From(ctx)
	result := &model.VerifyResult{}
	started := time.Now()

	operation := func() error {
		result.Attempts++

		lookup, err := uc.index.Lookup(ctx, name, version)
		if err != nil {
			// Lookup errors mean the request could not even be built;
			// retrying will not change that.
			result.LastError = err.Error()
			return backoff.Permanent(err)
		}

		switch lookup.State {
		case model.LookupFound:
			return nil
		case model.LookupNotFound:
			result.LastError = lookup.Detail
			logger.Info("Version not yet resolvable",
				"name", name,
				"version", version,
				"attempt", result.Attempts,
			)
			return goerr.New("version not found on index")
		default:
			result.LastError = lookup.Detail
			logger.Warn("Index lookup failed",
				"name", name,
				"version", version,
				"attempt", result.Attempts,
				"detail", lookup.Detail,
			)
			return goerr.New("index lookup failed")
		}
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(uc.interval), uint64(uc.attempts-1)),
		ctx,
	)

	err := backoff.Retry(operation, policy)
	result.Elapsed = time.Since(started)

	if err != nil {
		return result, goerr.Wrap(err, "published version never became resolvable",
			goerr.V("name", name),
			goerr.V("version", version),
			goerr.V("attempts", result.Attempts),
			goerr.V("last_error", result.LastError),
		)
	}

	result.Found = true
	logger.Info("Version confirmed on index",
		"name", name,
		"version", version,
		"attempts", result.Attempts,
		"elapsed", result.Elapsed.String(),
	)
	return result, nil
}
