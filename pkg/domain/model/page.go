package model

// APIPage is one decoded page from the Power BI admin API. Metadata
// endpoints return rows under "value"; the activity events endpoint returns
// them under "activityEventEntities" together with a continuation token.
type APIPage struct {
	Rows              []map[string]any
	ContinuationToken string // raw token as returned, empty when absent
}
