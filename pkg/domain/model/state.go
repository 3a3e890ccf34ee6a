package model

// State is the Singer state value: one bookmark per stream, keyed by stream
// name. It round-trips through STATE messages and the --state file.
type State struct {
	Bookmarks map[string]Bookmark `json:"bookmarks,omitempty"`
}

// Bookmark records the replication progress of one incremental stream.
type Bookmark struct {
	ReplicationKey      string `json:"replication_key,omitempty"`
	ReplicationKeyValue string `json:"replication_key_value,omitempty"`
}

// NewState returns an empty state ready for bookmarks.
func NewState() *State {
	return &State{Bookmarks: map[string]Bookmark{}}
}

// Bookmark returns the bookmark for the stream, if any.
func (s *State) Bookmark(stream string) (Bookmark, bool) {
	if s == nil || s.Bookmarks == nil {
		return Bookmark{}, false
	}
	bm, ok := s.Bookmarks[stream]
	return bm, ok
}

// SetBookmark records replication progress for the stream.
func (s *State) SetBookmark(stream, key, value string) {
	if s.Bookmarks == nil {
		s.Bookmarks = map[string]Bookmark{}
	}
	s.Bookmarks[stream] = Bookmark{
		ReplicationKey:      key,
		ReplicationKeyValue: value,
	}
}
