package models

import "encoding/json"

// Meta is an opaque movie-database record keyed by its numeric id. The
// server never interprets these fields; it only stores and returns whatever
// the client uploaded, so it is represented as a raw JSON object.
type Meta struct {
	ID   int64           `json:"id"`
	Raw  json.RawMessage `json:"-"`
}

// MarshalJSON emits the original raw object the client sent, merged with the
// authoritative id so round-tripped records never drift from their key.
func (m Meta) MarshalJSON() ([]byte, error) {
	if len(m.Raw) == 0 {
		return json.Marshal(struct {
			ID int64 `json:"id"`
		}{m.ID})
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(m.Raw, &fields); err != nil {
		return m.Raw, nil
	}
	idBytes, _ := json.Marshal(m.ID)
	fields["id"] = idBytes
	return json.Marshal(fields)
}

// UnmarshalJSON keeps the full original document in Raw while extracting id
// for lookups.
func (m *Meta) UnmarshalJSON(data []byte) error {
	var withID struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(data, &withID); err != nil {
		return err
	}
	m.ID = withID.ID
	m.Raw = append([]byte(nil), data...)
	return nil
}

// WatchHistory records playback progress for one media item.
type WatchHistory struct {
	MediaID             string  `json:"media_id"`
	WatchedDuration     float64 `json:"watched_duration"`
	TotalDuration       float64 `json:"total_duration"`
	LastWatchedTimestamp int64  `json:"last_watched_timestamp"`
}

// LibraryDocument is the single JSON document persisted as meta.json: the
// user-curated catalog plus the watch-history map.
type LibraryDocument struct {
	Series        []Meta                  `json:"series"`
	Movies        []Meta                  `json:"movies"`
	FileDatabase  map[string]json.RawMessage `json:"fileDatabase"`
	WatchHistory  map[string]WatchHistory `json:"watch_history"`
}

// NewLibraryDocument returns an empty, well-formed document (non-nil maps),
// the shape update_watch_history creates when meta.json does not yet exist.
func NewLibraryDocument() LibraryDocument {
	return LibraryDocument{
		Series:       []Meta{},
		Movies:       []Meta{},
		FileDatabase: map[string]json.RawMessage{},
		WatchHistory: map[string]WatchHistory{},
	}
}
