package model

// LookupState classifies the outcome of a package index lookup. A missing
// version and a broken index are different situations even though both mean
// "not available right now", so the distinction is kept explicit instead of
// being inferred from error text.
type LookupState int

const (
	// LookupFound means the index resolves the exact name and version.
	LookupFound LookupState = iota + 1

	// LookupNotFound means the index answered but does not know the
	// version yet.
	LookupNotFound

	// LookupTransientError means the lookup itself failed (network error,
	// server error) and may succeed on retry.
	LookupTransientError
)

func (s LookupState) String() string {
	switch s {
	case LookupFound:
		return "found"
	case LookupNotFound:
		return "not_found"
	case LookupTransientError:
		return "transient_error"
	default:
		return "unknown"
	}
}

// LookupResult is the typed result of a single index lookup. Detail carries
// the human-readable failure text for the non-found states.
type LookupResult struct {
	State  LookupState
	Detail string
}
