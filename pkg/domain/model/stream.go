package model

// PaginationMode selects how a stream walks the Power BI admin API.
type PaginationMode int

const (
	// PaginateSkipTop pages with $top and $skip. The first request carries
	// no $skip; pagination stops at the first empty page.
	PaginateSkipTop PaginationMode = iota + 1

	// PaginateActivityWindow walks one UTC day at a time and follows the
	// continuationToken within each day. Only the activity events endpoint
	// supports this scheme.
	PaginateActivityWindow
)

// Stream describes one tap stream: its endpoint, keys and JSON schema.
type Stream struct {
	Name           string
	Path           string // relative to the admin API base URL
	PrimaryKeys    []string
	ReplicationKey string // empty for full-table streams
	Pagination     PaginationMode
	PageSize       int // $top value for PaginateSkipTop streams
	Schema         map[string]any
}

// Incremental reports whether the stream tracks a replication key.
func (s *Stream) Incremental() bool {
	return s.ReplicationKey != ""
}
