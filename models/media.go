// Package models contains domain entities and business models for the prize-draw platform
package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Media kinds
const (
	MediaKindImage = "image"
	MediaKindVideo = "video"
)

// MediaItem references an externally stored asset by URL. The engine never
// touches file contents; storage is an opaque external capability.
type MediaItem struct {
	URL     string `json:"url"`
	Kind    string `json:"kind"` // image, video
	AltText string `json:"alt_text,omitempty"`
}

// MediaList is an ordered JSONB list of media references
type MediaList []MediaItem

// Value implements the driver.Valuer interface for MediaList
func (m MediaList) Value() (driver.Value, error) {
	if m == nil {
		return json.Marshal(MediaList{})
	}
	return json.Marshal(m)
}

// Scan implements the sql.Scanner interface for MediaList
func (m *MediaList) Scan(value any) error {
	if value == nil {
		*m = MediaList{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into MediaList", value)
	}

	return json.Unmarshal(bytes, m)
}
