package search

import "context"

// ResultType identifies the kind of entity in a search result.
type ResultType string

const (
	ResultNote       ResultType = "note"
	ResultSharedNote ResultType = "sharedNote"
)

// Result is a single search hit returned to the caller.
type Result struct {
	Type     ResultType `json:"type"`
	ID       string     `json:"id"`
	Title    string     `json:"title"`
	Snippet  string     `json:"snippet"`
	OwnerID  string     `json:"ownerId,omitempty"`
	SpaceID  string     `json:"spaceId,omitempty"`
	IsPublic bool       `json:"isPublic,omitempty"`
}

// Query describes a search request. Note searches return the viewer's own
// notes plus public ones; shared-note searches are confined to SpaceID.
type Query struct {
	Text     string
	Type     ResultType
	ViewerID string
	SpaceID  string
	Limit    int
	Offset   int
}

// Response is the envelope returned by the search endpoints.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
}

// Searcher can execute a full-text search.
type Searcher interface {
	Search(ctx context.Context, q Query) ([]Result, int, error)
	Healthy() bool
}

// NoteRecord is the data we index for a personal note.
type NoteRecord struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	UserID      string `json:"userId"`
	IsPublic    bool   `json:"isPublic"`
}

// SharedNoteRecord is the data we index for a space snapshot.
type SharedNoteRecord struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
	SpaceID string `json:"spaceId"`
}
