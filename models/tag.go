package models

import "time"

// Tag is a label shared across entries; its name is the uniqueness key.
type Tag struct {
	ID        int64     `json:"id" readOnly:"true"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at" readOnly:"true"`
}

// TagWithCount is a tag plus the number of entries currently linked to it.
type TagWithCount struct {
	Tag
	EntryCount int `json:"entry_count"`
}

// EntryTag links one entry to one tag.
type EntryTag struct {
	EntryID   int64     `json:"entry_id"`
	TagID     int64     `json:"tag_id"`
	CreatedAt time.Time `json:"created_at" readOnly:"true"`
}
