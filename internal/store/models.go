package store

import (
	"encoding/json"
	"time"

	"github.com/armeny007/participedia-api/internal/reconcile"
)

type User struct {
	ID           int64
	Email        string
	Name         string
	PasswordHash string
	IsAdmin      bool
	Bio          string
	PictureURL   string
	Location     string
	Language     string
	JoinDate     time.Time
	Hidden       bool
}

// Article is the canonical full record of a case, method, or organization:
// identity, the latest localized text for one language, and every structured
// field of the type's rule table.
type Article struct {
	ID          int64
	Type        string
	Title       string
	Body        string
	Description string
	Bookmarked  bool
	UpdatedDate time.Time
	Fields      map[string]reconcile.Value
}

// MarshalJSON flattens the structured fields into the top-level object, the
// shape the web client has always consumed.
func (a Article) MarshalJSON() ([]byte, error) {
	payload := make(map[string]any, len(a.Fields)+7)
	for name, value := range a.Fields {
		payload[name] = value
	}
	payload["id"] = a.ID
	payload["type"] = a.Type
	payload["title"] = a.Title
	payload["body"] = a.Body
	payload["description"] = a.Description
	payload["bookmarked"] = a.Bookmarked
	payload["updated_date"] = a.UpdatedDate
	return json.Marshal(payload)
}

// LocalizedText is one append-only text revision row.
type LocalizedText struct {
	ThingID     int64     `json:"thingid"`
	Language    string    `json:"language"`
	Title       string    `json:"title"`
	Body        string    `json:"body"`
	Description string    `json:"description"`
	Timestamp   time.Time `json:"timestamp"`
}

// Author is one append-only attribution row, with the user's display name
// joined in for the edit-history view.
type Author struct {
	UserID    int64     `json:"user_id"`
	ThingID   int64     `json:"thingid"`
	Name      string    `json:"name"`
	Timestamp time.Time `json:"timestamp"`
}

// TitleRef is an id/title pair for pick lists.
type TitleRef struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// ArticleSummary identifies an article across the three content tables.
type ArticleSummary struct {
	ID    int64  `json:"id"`
	Type  string `json:"type"`
	Title string `json:"title"`
}
