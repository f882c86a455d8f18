package search

import (
	"fmt"
	"time"
)

// Result is a single search hit returned to the caller.
type Result struct {
	Type         string `json:"type"`
	ID           int64  `json:"id"`
	Title        string `json:"title"`
	Snippet      string `json:"snippet"`
	LocationName string `json:"location_name,omitempty"`
	PhotoURL     string `json:"photo_url,omitempty"`
	Featured     bool   `json:"featured"`
}

// Query describes a search request.
type Query struct {
	Text       string
	FilterType string // empty = all content types
	Limit      int
	Offset     int
	ShowHidden bool // admins may see hidden articles
}

// Response is the envelope returned by the search endpoint.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
}

// Searcher can execute a full-text search over articles.
type Searcher interface {
	Search(q Query) ([]Result, int, error)
	Featured(q Query) ([]Result, int, error)
	Healthy() bool
}

// Record is the data indexed for one article. Cases, methods, and
// organizations share one index; Key disambiguates ids across types.
type Record struct {
	Key          string    `json:"key"`
	ID           int64     `json:"id"`
	Type         string    `json:"type"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Body         string    `json:"body"`
	LocationName string    `json:"location_name"`
	Tags         []string  `json:"tags"`
	PhotoURL     string    `json:"photo_url"`
	Featured     bool      `json:"featured"`
	Hidden       bool      `json:"hidden"`
	UpdatedDate  time.Time `json:"updated_date"`
}

// RecordKey builds the cross-type primary key for one article.
func RecordKey(articleType string, id int64) string {
	return fmt.Sprintf("%s-%d", articleType, id)
}
