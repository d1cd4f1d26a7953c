package models

import "time"

// DateLayout is the wire and storage format of Entry.Date.
const DateLayout = "2006-01-02"

// Entry is a dated journal record owned by a single user.
type Entry struct {
	ID        int64         `json:"id" readOnly:"true"`
	UserID    int64         `json:"user_id" readOnly:"true"`
	Username  string        `json:"username,omitempty" readOnly:"true"`
	Title     string        `json:"title"`
	Date      time.Time     `json:"-"`
	TimeSpent time.Duration `json:"-"`
	Knowledge string        `json:"knowledge"`
	Resources []string      `json:"resources"`
	CreatedAt time.Time     `json:"created_at" readOnly:"true"`
	UpdatedAt time.Time     `json:"updated_at" readOnly:"true"`
}

// EntryFields are the user-editable fields of an entry.
type EntryFields struct {
	Title     string
	Date      time.Time
	TimeSpent time.Duration
	Knowledge string
	Resources []string
}

// EntryWithTags is an entry together with its associated tags, ordered by name.
type EntryWithTags struct {
	Entry
	Tags []Tag `json:"tags"`
}

// EntryView is the JSON shape of an entry returned by the API.
type EntryView struct {
	ID               int64     `json:"id"`
	UserID           int64     `json:"user_id"`
	Username         string    `json:"username,omitempty"`
	Title            string    `json:"title"`
	Date             string    `json:"date" example:"2024-03-01"`
	TimeSpentMinutes float64   `json:"time_spent"`
	Knowledge        string    `json:"knowledge"`
	KnowledgeHTML    string    `json:"knowledge_html,omitempty"`
	Resources        []string  `json:"resources"`
	Tags             []Tag     `json:"tags"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// NewEntryView converts an entry to its API shape.
func NewEntryView(e EntryWithTags) EntryView {
	resources := e.Resources
	if resources == nil {
		resources = []string{}
	}
	tags := e.Tags
	if tags == nil {
		tags = []Tag{}
	}
	return EntryView{
		ID:               e.ID,
		UserID:           e.UserID,
		Username:         e.Username,
		Title:            e.Title,
		Date:             e.Date.Format(DateLayout),
		TimeSpentMinutes: e.TimeSpent.Minutes(),
		Knowledge:        e.Knowledge,
		Resources:        resources,
		Tags:             tags,
		CreatedAt:        e.CreatedAt,
		UpdatedAt:        e.UpdatedAt,
	}
}

// EntryForm is the submitted entry form. TimeSpent is in minutes and Resources holds one
// resource per line.
type EntryForm struct {
	Title     string `json:"title" validate:"notblank,max=255"`
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	TimeSpent string `json:"time_spent" validate:"required,numeric"`
	Knowledge string `json:"knowledge" validate:"notblank"`
	Resources string `json:"resources"`
}

// CreateEntryRequest is the create form: entry fields plus an optional tag string.
type CreateEntryRequest struct {
	EntryForm
	Tags *string `json:"tags,omitempty"`
}

// EditEntryRequest carries an optional field bundle and an optional tag string.
// Either may be submitted alone.
type EditEntryRequest struct {
	Entry *EntryForm `json:"entry,omitempty"`
	Tags  *string    `json:"tags,omitempty"`
}

// TagsRequest is the tag-only form.
type TagsRequest struct {
	Tags string `json:"tags"`
}
